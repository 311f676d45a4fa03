package bookings

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var baseNow = time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)

type fakeUsers struct {
	mu  sync.Mutex
	ids map[uuid.UUID]bool
	err error
}

func newFakeUsers(ids ...uuid.UUID) *fakeUsers {
	f := &fakeUsers{ids: map[uuid.UUID]bool{}}
	for _, id := range ids {
		f.ids[id] = true
	}
	return f
}

func (f *fakeUsers) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return false, f.err
	}
	return f.ids[id], nil
}

type fakeItems struct {
	mu    sync.Mutex
	items map[uuid.UUID]ItemRef
}

func newFakeItems() *fakeItems {
	return &fakeItems{items: map[uuid.UUID]ItemRef{}}
}

func (f *fakeItems) add(owner uuid.UUID, available bool) ItemRef {
	f.mu.Lock()
	defer f.mu.Unlock()
	ref := ItemRef{ID: uuid.New(), OwnerID: owner, Available: available}
	f.items[ref.ID] = ref
	return ref
}

func (f *fakeItems) transfer(itemID, newOwner uuid.UUID) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ref := f.items[itemID]
	ref.OwnerID = newOwner
	f.items[itemID] = ref
}

func (f *fakeItems) Get(ctx context.Context, id uuid.UUID) (ItemRef, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ref, ok := f.items[id]
	if !ok {
		return ItemRef{}, gorm.ErrRecordNotFound
	}
	return ref, nil
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}
