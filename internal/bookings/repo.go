package bookings

import (
	"context"
	"errors"
	"time"

	dbpkg "github.com/angelmondragon/shareit-backend/pkg/db"
	"github.com/angelmondragon/shareit-backend/pkg/db/models"
	"github.com/angelmondragon/shareit-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/shareit-backend/pkg/errors"
	"github.com/angelmondragon/shareit-backend/pkg/outbox"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const approvedOverlapConstraint = "bookings_no_approved_overlap"

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type repository struct {
	db     *gorm.DB
	outbox outboxPublisher
	inTx   bool
}

// NewRepository returns the GORM-backed booking repository. Events recorded through
// RecordEvent are written to the outbox on the same connection.
func NewRepository(db *gorm.DB, outbox outboxPublisher) Repository {
	return &repository{db: db, outbox: outbox}
}

func (r *repository) InTx(ctx context.Context, fn func(repo Repository) error) error {
	if r.inTx {
		return fn(r)
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&repository{db: tx, outbox: r.outbox, inTx: true})
	})
}

func (r *repository) Insert(ctx context.Context, booking *models.Booking) error {
	if booking == nil {
		return errors.New("booking required")
	}
	if err := r.db.WithContext(ctx).Create(booking).Error; err != nil {
		return translateWriteError(err)
	}
	return nil
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Booking, error) {
	var booking models.Booking
	if err := r.db.WithContext(ctx).First(&booking, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &booking, nil
}

func (r *repository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.Booking, error) {
	var booking models.Booking
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&booking, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &booking, nil
}

func (r *repository) UpdateStatus(ctx context.Context, id uuid.UUID, status enums.BookingStatus, at time.Time) error {
	res := r.db.WithContext(ctx).Model(&models.Booking{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status":     status,
			"updated_at": at,
		})
	if res.Error != nil {
		return translateWriteError(res.Error)
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *repository) HasApprovedOverlap(ctx context.Context, itemID uuid.UUID, start, end time.Time, excludeID uuid.UUID) (bool, error) {
	q := r.db.WithContext(ctx).Model(&models.Booking{}).
		Where("item_id = ?", itemID).
		Where("status = ?", enums.BookingStatusApproved).
		Where("start_at < ? AND end_at > ?", end.UTC(), start.UTC())
	if excludeID != uuid.Nil {
		q = q.Where("id <> ?", excludeID)
	}
	var count int64
	if err := q.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *repository) List(ctx context.Context, perspective Perspective, userID uuid.UUID, query Query) ([]models.Booking, error) {
	q := r.db.WithContext(ctx).Model(&models.Booking{})
	switch perspective {
	case PerspectiveOwner:
		q = q.Joins("JOIN items ON items.id = bookings.item_id").
			Where("items.owner_id = ?", userID)
	default:
		q = q.Where("bookings.requester_id = ?", userID)
	}
	q = applyQuery(q, query)

	var rows []models.Booking
	err := q.Select("bookings.*").
		Order("bookings.start_at DESC").
		Order("bookings.id DESC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) RecordEvent(ctx context.Context, event outbox.DomainEvent) error {
	if r.outbox == nil {
		return nil
	}
	return r.outbox.Emit(ctx, r.db, event)
}

func applyQuery(q *gorm.DB, query Query) *gorm.DB {
	if query.Status != nil {
		q = q.Where("bookings.status = ?", *query.Status)
	}
	if query.StartAtOrBefore != nil {
		q = q.Where("bookings.start_at <= ?", query.StartAtOrBefore.UTC())
	}
	if query.StartAfter != nil {
		q = q.Where("bookings.start_at > ?", query.StartAfter.UTC())
	}
	if query.EndAfter != nil {
		q = q.Where("bookings.end_at > ?", query.EndAfter.UTC())
	}
	if query.EndAtOrBefore != nil {
		q = q.Where("bookings.end_at <= ?", query.EndAtOrBefore.UTC())
	}
	return q
}

func translateWriteError(err error) error {
	if dbpkg.IsExclusionViolation(err, approvedOverlapConstraint) {
		return pkgerrors.Wrap(pkgerrors.CodeSchedulingConflict, err, "item already booked for an overlapping window")
	}
	return err
}
