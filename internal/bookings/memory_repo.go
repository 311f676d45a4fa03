package bookings

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/angelmondragon/shareit-backend/pkg/db/models"
	"github.com/angelmondragon/shareit-backend/pkg/enums"
	"github.com/angelmondragon/shareit-backend/pkg/outbox"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// MemoryRepository is an in-process Repository. Owner listings resolve the current
// owner of each item through the supplied ItemLookup.
type MemoryRepository struct {
	mu    sync.RWMutex
	state memoryState
	items ItemLookup
}

type memoryState struct {
	bookings map[uuid.UUID]models.Booking
	events   []outbox.DomainEvent
}

func (s memoryState) clone() memoryState {
	out := memoryState{
		bookings: make(map[uuid.UUID]models.Booking, len(s.bookings)),
		events:   append([]outbox.DomainEvent(nil), s.events...),
	}
	for id, b := range s.bookings {
		out.bookings[id] = b
	}
	return out
}

// NewMemoryRepository builds an empty in-memory repository.
func NewMemoryRepository(items ItemLookup) *MemoryRepository {
	return &MemoryRepository{
		state: memoryState{bookings: map[uuid.UUID]models.Booking{}},
		items: items,
	}
}

// Events returns a copy of every event recorded by committed transactions.
func (m *MemoryRepository) Events() []outbox.DomainEvent {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]outbox.DomainEvent(nil), m.state.events...)
}

// InTx runs fn against a private copy of the state and publishes it only when fn succeeds.
// Transactions are serialized.
func (m *MemoryRepository) InTx(ctx context.Context, fn func(repo Repository) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	work := m.state.clone()
	if err := fn(&memoryTx{state: &work, items: m.items}); err != nil {
		return err
	}
	m.state = work
	return nil
}

func (m *MemoryRepository) Insert(ctx context.Context, booking *models.Booking) error {
	return m.write(ctx, func(tx *memoryTx) error { return tx.Insert(ctx, booking) })
}

func (m *MemoryRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.Booking, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.view().FindByID(ctx, id)
}

func (m *MemoryRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.Booking, error) {
	return m.FindByID(ctx, id)
}

func (m *MemoryRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status enums.BookingStatus, at time.Time) error {
	return m.write(ctx, func(tx *memoryTx) error { return tx.UpdateStatus(ctx, id, status, at) })
}

func (m *MemoryRepository) HasApprovedOverlap(ctx context.Context, itemID uuid.UUID, start, end time.Time, excludeID uuid.UUID) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.view().HasApprovedOverlap(ctx, itemID, start, end, excludeID)
}

func (m *MemoryRepository) List(ctx context.Context, perspective Perspective, userID uuid.UUID, query Query) ([]models.Booking, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.view().List(ctx, perspective, userID, query)
}

func (m *MemoryRepository) RecordEvent(ctx context.Context, event outbox.DomainEvent) error {
	return m.write(ctx, func(tx *memoryTx) error { return tx.RecordEvent(ctx, event) })
}

func (m *MemoryRepository) view() *memoryTx {
	return &memoryTx{state: &m.state, items: m.items}
}

func (m *MemoryRepository) write(ctx context.Context, fn func(tx *memoryTx) error) error {
	return m.InTx(ctx, func(repo Repository) error {
		return fn(repo.(*memoryTx))
	})
}

// memoryTx operates on state without locking; the owning MemoryRepository holds the lock.
type memoryTx struct {
	state *memoryState
	items ItemLookup
}

func (t *memoryTx) InTx(ctx context.Context, fn func(repo Repository) error) error {
	return fn(t)
}

func (t *memoryTx) Insert(ctx context.Context, booking *models.Booking) error {
	if booking == nil {
		return errors.New("booking required")
	}
	if booking.ID == uuid.Nil {
		booking.ID = uuid.New()
	}
	if _, exists := t.state.bookings[booking.ID]; exists {
		return errors.New("duplicate booking id")
	}
	if booking.CreatedAt.IsZero() {
		booking.CreatedAt = time.Now().UTC()
	}
	if booking.UpdatedAt.IsZero() {
		booking.UpdatedAt = booking.CreatedAt
	}
	t.state.bookings[booking.ID] = *booking
	return nil
}

func (t *memoryTx) FindByID(ctx context.Context, id uuid.UUID) (*models.Booking, error) {
	b, ok := t.state.bookings[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &b, nil
}

func (t *memoryTx) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.Booking, error) {
	return t.FindByID(ctx, id)
}

func (t *memoryTx) UpdateStatus(ctx context.Context, id uuid.UUID, status enums.BookingStatus, at time.Time) error {
	b, ok := t.state.bookings[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	b.Status = status
	b.UpdatedAt = at
	t.state.bookings[id] = b
	return nil
}

func (t *memoryTx) HasApprovedOverlap(ctx context.Context, itemID uuid.UUID, start, end time.Time, excludeID uuid.UUID) (bool, error) {
	for id, b := range t.state.bookings {
		if id == excludeID || b.ItemID != itemID || b.Status != enums.BookingStatusApproved {
			continue
		}
		if Overlaps(b.StartAt, b.EndAt, start, end) {
			return true, nil
		}
	}
	return false, nil
}

func (t *memoryTx) List(ctx context.Context, perspective Perspective, userID uuid.UUID, query Query) ([]models.Booking, error) {
	owners := map[uuid.UUID]uuid.UUID{}
	out := make([]models.Booking, 0)
	for _, b := range t.state.bookings {
		switch perspective {
		case PerspectiveOwner:
			owner, err := t.ownerOf(ctx, owners, b.ItemID)
			if err != nil {
				return nil, err
			}
			if owner != userID {
				continue
			}
		default:
			if b.RequesterID != userID {
				continue
			}
		}
		if query.Matches(b) {
			out = append(out, b)
		}
	}
	sortNewestFirst(out)
	return out, nil
}

func (t *memoryTx) RecordEvent(ctx context.Context, event outbox.DomainEvent) error {
	t.state.events = append(t.state.events, event)
	return nil
}

func (t *memoryTx) ownerOf(ctx context.Context, cache map[uuid.UUID]uuid.UUID, itemID uuid.UUID) (uuid.UUID, error) {
	if owner, ok := cache[itemID]; ok {
		return owner, nil
	}
	if t.items == nil {
		return uuid.Nil, errors.New("item lookup required for owner listings")
	}
	item, err := t.items.Get(ctx, itemID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			cache[itemID] = uuid.Nil
			return uuid.Nil, nil
		}
		return uuid.Nil, err
	}
	cache[itemID] = item.OwnerID
	return item.OwnerID, nil
}

// sortNewestFirst orders by start descending, then id descending.
func sortNewestFirst(rows []models.Booking) {
	sort.SliceStable(rows, func(i, j int) bool {
		if !rows[i].StartAt.Equal(rows[j].StartAt) {
			return rows[i].StartAt.After(rows[j].StartAt)
		}
		return rows[i].ID.String() > rows[j].ID.String()
	})
}
