package bookings

import (
	"context"
	"time"

	"github.com/angelmondragon/shareit-backend/pkg/db/models"
	"github.com/angelmondragon/shareit-backend/pkg/enums"
	"github.com/angelmondragon/shareit-backend/pkg/outbox"
	"github.com/google/uuid"
)

// Clock returns the current instant used for window validation and time-relative views.
type Clock func() time.Time

// SystemClock reads the wall clock in UTC.
func SystemClock() time.Time {
	return time.Now().UTC()
}

// Perspective selects whose bookings a listing covers.
type Perspective string

const (
	// PerspectiveRequester lists bookings the user requested.
	PerspectiveRequester Perspective = "requester"
	// PerspectiveOwner lists bookings on items the user currently owns.
	PerspectiveOwner Perspective = "owner"
)

// IsValid reports whether p is a known perspective.
func (p Perspective) IsValid() bool {
	return p == PerspectiveRequester || p == PerspectiveOwner
}

// ItemRef is the read-only projection of an item the engine needs.
type ItemRef struct {
	ID        uuid.UUID
	OwnerID   uuid.UUID
	Available bool
}

// ItemLookup resolves items. Missing items return gorm.ErrRecordNotFound.
type ItemLookup interface {
	Get(ctx context.Context, id uuid.UUID) (ItemRef, error)
}

// UserLookup reports whether a user exists.
type UserLookup interface {
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
}

// Query narrows a listing. Nil fields do not constrain; set fields combine with AND.
type Query struct {
	Status          *enums.BookingStatus
	StartAtOrBefore *time.Time
	StartAfter      *time.Time
	EndAfter        *time.Time
	EndAtOrBefore   *time.Time
}

// Matches applies q to a single booking.
func (q Query) Matches(b models.Booking) bool {
	if q.Status != nil && b.Status != *q.Status {
		return false
	}
	if q.StartAtOrBefore != nil && b.StartAt.After(*q.StartAtOrBefore) {
		return false
	}
	if q.StartAfter != nil && !b.StartAt.After(*q.StartAfter) {
		return false
	}
	if q.EndAfter != nil && !b.EndAt.After(*q.EndAfter) {
		return false
	}
	if q.EndAtOrBefore != nil && b.EndAt.After(*q.EndAtOrBefore) {
		return false
	}
	return true
}

// Repository persists bookings. Implementations must make InTx atomic: either every
// write performed through the callback's repository lands, or none does.
type Repository interface {
	InTx(ctx context.Context, fn func(repo Repository) error) error
	Insert(ctx context.Context, booking *models.Booking) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Booking, error)
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.Booking, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status enums.BookingStatus, at time.Time) error
	HasApprovedOverlap(ctx context.Context, itemID uuid.UUID, start, end time.Time, excludeID uuid.UUID) (bool, error)
	List(ctx context.Context, perspective Perspective, userID uuid.UUID, query Query) ([]models.Booking, error)
	RecordEvent(ctx context.Context, event outbox.DomainEvent) error
}
