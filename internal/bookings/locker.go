package bookings

import (
	"context"
	"sync"
)

// Locker serializes critical sections per key. Lock blocks until the key is free or
// ctx is done; the returned unlock is safe to call more than once.
type Locker interface {
	Lock(ctx context.Context, key string) (unlock func(), err error)
}

// KeyedMutex is an in-process Locker. Idle keys are dropped once released.
type KeyedMutex struct {
	mu    sync.Mutex
	slots map[string]*lockSlot
}

type lockSlot struct {
	held chan struct{}
	refs int
}

// NewKeyedMutex returns an empty in-process locker.
func NewKeyedMutex() *KeyedMutex {
	return &KeyedMutex{slots: map[string]*lockSlot{}}
}

func (k *KeyedMutex) Lock(ctx context.Context, key string) (func(), error) {
	slot := k.acquireSlot(key)

	select {
	case slot.held <- struct{}{}:
	case <-ctx.Done():
		k.releaseSlot(key, slot)
		return nil, ctx.Err()
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-slot.held
			k.releaseSlot(key, slot)
		})
	}, nil
}

func (k *KeyedMutex) acquireSlot(key string) *lockSlot {
	k.mu.Lock()
	defer k.mu.Unlock()
	slot, ok := k.slots[key]
	if !ok {
		slot = &lockSlot{held: make(chan struct{}, 1)}
		k.slots[key] = slot
	}
	slot.refs++
	return slot
}

func (k *KeyedMutex) releaseSlot(key string, slot *lockSlot) {
	k.mu.Lock()
	defer k.mu.Unlock()
	slot.refs--
	if slot.refs == 0 {
		delete(k.slots, key)
	}
}

func (k *KeyedMutex) size() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.slots)
}
