package bookings

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Overlaps reports whether the half-open windows [s1,e1) and [s2,e2) intersect.
// Touching endpoints do not overlap.
func Overlaps(s1, e1, s2, e2 time.Time) bool {
	return s1.Before(e2) && s2.Before(e1)
}

type overlapStore interface {
	HasApprovedOverlap(ctx context.Context, itemID uuid.UUID, start, end time.Time, excludeID uuid.UUID) (bool, error)
}

// ConflictChecker answers whether a window collides with an APPROVED booking of the
// same item. WAITING, REJECTED and CANCELED bookings never conflict.
type ConflictChecker struct {
	store overlapStore
}

// NewConflictChecker binds a checker to store, usually a transaction-scoped repository.
func NewConflictChecker(store overlapStore) ConflictChecker {
	return ConflictChecker{store: store}
}

// HasApprovedOverlap reports whether [start,end) overlaps any APPROVED booking of itemID.
func (c ConflictChecker) HasApprovedOverlap(ctx context.Context, itemID uuid.UUID, start, end time.Time) (bool, error) {
	return c.store.HasApprovedOverlap(ctx, itemID, start, end, uuid.Nil)
}

// HasApprovedOverlapExcluding is HasApprovedOverlap ignoring the booking bookingID.
func (c ConflictChecker) HasApprovedOverlapExcluding(ctx context.Context, itemID uuid.UUID, start, end time.Time, bookingID uuid.UUID) (bool, error) {
	return c.store.HasApprovedOverlap(ctx, itemID, start, end, bookingID)
}
