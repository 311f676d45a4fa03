package bookings

import (
	"context"
	"errors"
	"time"

	"github.com/angelmondragon/shareit-backend/pkg/db/models"
	"github.com/angelmondragon/shareit-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/shareit-backend/pkg/errors"
	"github.com/angelmondragon/shareit-backend/pkg/logger"
	"github.com/angelmondragon/shareit-backend/pkg/metrics"
	"github.com/angelmondragon/shareit-backend/pkg/outbox"
	"github.com/angelmondragon/shareit-backend/pkg/outbox/payloads"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	opCreate  = "create"
	opApprove = "approve"
	opCancel  = "cancel"
	opGet     = "get"
	opList    = "list"
)

// Service is the booking reservation engine.
type Service interface {
	Create(ctx context.Context, requesterID, itemID uuid.UUID, start, end time.Time) (*models.Booking, error)
	Approve(ctx context.Context, actorID, bookingID uuid.UUID, approved bool) (*models.Booking, error)
	Cancel(ctx context.Context, actorID, bookingID uuid.UUID) (*models.Booking, error)
	GetByID(ctx context.Context, actorID, bookingID uuid.UUID) (*models.Booking, error)
	List(ctx context.Context, userID uuid.UUID, filter enums.BookingViewFilter, perspective Perspective) ([]models.Booking, error)
}

// ServiceParams wires the engine. Locker defaults to an in-process KeyedMutex and
// Clock to SystemClock.
type ServiceParams struct {
	Repo    Repository
	Users   UserLookup
	Items   ItemLookup
	Locker  Locker
	Clock   Clock
	Metrics *metrics.BookingMetrics
	Logger  *logger.Logger
}

type service struct {
	repo       Repository
	users      UserLookup
	items      ItemLookup
	locker     Locker
	now        Clock
	dispatcher *Dispatcher
	metrics    *metrics.BookingMetrics
	logg       *logger.Logger
}

// NewService validates params and builds the engine.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "booking repository required")
	}
	if params.Users == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user lookup required")
	}
	if params.Items == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "item lookup required")
	}
	locker := params.Locker
	if locker == nil {
		locker = NewKeyedMutex()
	}
	clock := params.Clock
	if clock == nil {
		clock = SystemClock
	}
	return &service{
		repo:       params.Repo,
		users:      params.Users,
		items:      params.Items,
		locker:     locker,
		now:        clock,
		dispatcher: NewDispatcher(),
		metrics:    params.Metrics,
		logg:       params.Logger,
	}, nil
}

// storedTime normalizes t to the UTC microsecond precision Postgres timestamptz keeps,
// so a returned booking matches the one read back later.
func storedTime(t time.Time) time.Time {
	return t.UTC().Truncate(time.Microsecond)
}

func (s *service) timestamp() time.Time {
	return storedTime(s.now())
}

func (s *service) Create(ctx context.Context, requesterID, itemID uuid.UUID, start, end time.Time) (booking *models.Booking, err error) {
	defer s.observe(opCreate, time.Now(), &err)

	if start.IsZero() || end.IsZero() {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidWindow, "start and end are required")
	}
	if !start.Before(end) {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidWindow, "start must be before end")
	}
	if start.Before(s.now()) {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidWindow, "start must not be in the past")
	}

	if err := s.requireUser(ctx, requesterID); err != nil {
		return nil, err
	}
	item, err := s.lookupItem(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if !item.Available {
		return nil, pkgerrors.New(pkgerrors.CodeItemUnavailable, "item is not available for booking")
	}
	if item.OwnerID == requesterID {
		return nil, pkgerrors.New(pkgerrors.CodeSelfBookingForbidden, "owners cannot book their own item")
	}

	unlock, err := s.locker.Lock(ctx, item.ID.String())
	if err != nil {
		return nil, lockError(err)
	}
	defer unlock()

	now := s.timestamp()
	booking = &models.Booking{
		ID:          uuid.New(),
		ItemID:      item.ID,
		RequesterID: requesterID,
		StartAt:     storedTime(start),
		EndAt:       storedTime(end),
		Status:      enums.BookingStatusWaiting,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	err = s.repo.InTx(ctx, func(repo Repository) error {
		conflict, err := NewConflictChecker(repo).HasApprovedOverlap(ctx, item.ID, booking.StartAt, booking.EndAt)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check booking conflicts")
		}
		if conflict {
			return pkgerrors.New(pkgerrors.CodeSchedulingConflict, "item already booked for an overlapping window")
		}
		if err := repo.Insert(ctx, booking); err != nil {
			return dependencyError(err, "create booking")
		}
		return repo.RecordEvent(ctx, outbox.DomainEvent{
			EventType:     enums.EventBookingCreated,
			AggregateType: enums.AggregateBooking,
			AggregateID:   booking.ID,
			Actor:         &outbox.ActorRef{UserID: requesterID, Role: string(PerspectiveRequester)},
			OccurredAt:    now,
			Data: payloads.BookingCreatedEvent{
				BookingID:   booking.ID,
				ItemID:      item.ID,
				RequesterID: requesterID,
				OwnerID:     item.OwnerID,
				Start:       booking.StartAt,
				End:         booking.EndAt,
				Status:      booking.Status,
			},
		})
	})
	if err != nil {
		return nil, dependencyError(err, "create booking")
	}

	s.transitioned(ctx, "booking.created", booking)
	return booking, nil
}

func (s *service) Approve(ctx context.Context, actorID, bookingID uuid.UUID, approved bool) (booking *models.Booking, err error) {
	defer s.observe(opApprove, time.Now(), &err)

	current, err := s.findBooking(ctx, s.repo, bookingID)
	if err != nil {
		return nil, err
	}

	unlock, err := s.locker.Lock(ctx, current.ItemID.String())
	if err != nil {
		return nil, lockError(err)
	}
	defer unlock()

	target := enums.BookingStatusRejected
	if approved {
		target = enums.BookingStatusApproved
	}

	var ownerID uuid.UUID
	err = s.repo.InTx(ctx, func(repo Repository) error {
		locked, err := s.findBookingForUpdate(ctx, repo, bookingID)
		if err != nil {
			return err
		}
		item, err := s.lookupItem(ctx, locked.ItemID)
		if err != nil {
			return err
		}
		if item.OwnerID != actorID {
			return pkgerrors.New(pkgerrors.CodeNotOwner, "only the item owner can decide on a booking")
		}
		if locked.Status.IsTerminal() {
			return pkgerrors.New(pkgerrors.CodeAlreadyDecided, "booking has already been decided")
		}
		if approved {
			conflict, err := NewConflictChecker(repo).HasApprovedOverlapExcluding(ctx, locked.ItemID, locked.StartAt, locked.EndAt, locked.ID)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check booking conflicts")
			}
			if conflict {
				return pkgerrors.New(pkgerrors.CodeSchedulingConflict, "item already booked for an overlapping window")
			}
		}

		now := s.timestamp()
		if err := repo.UpdateStatus(ctx, locked.ID, target, now); err != nil {
			return dependencyError(err, "update booking status")
		}
		locked.Status = target
		locked.UpdatedAt = now
		ownerID = item.OwnerID
		booking = locked

		return repo.RecordEvent(ctx, outbox.DomainEvent{
			EventType:     enums.EventBookingDecided,
			AggregateType: enums.AggregateBooking,
			AggregateID:   locked.ID,
			Actor:         &outbox.ActorRef{UserID: actorID, Role: string(PerspectiveOwner)},
			OccurredAt:    now,
			Data: payloads.BookingDecidedEvent{
				BookingID:   locked.ID,
				ItemID:      locked.ItemID,
				RequesterID: locked.RequesterID,
				OwnerID:     ownerID,
				Approved:    approved,
				Status:      target,
			},
		})
	})
	if err != nil {
		return nil, dependencyError(err, "decide booking")
	}

	s.transitioned(ctx, "booking.decided", booking)
	return booking, nil
}

func (s *service) Cancel(ctx context.Context, actorID, bookingID uuid.UUID) (booking *models.Booking, err error) {
	defer s.observe(opCancel, time.Now(), &err)

	current, err := s.findBooking(ctx, s.repo, bookingID)
	if err != nil {
		return nil, err
	}

	unlock, err := s.locker.Lock(ctx, current.ItemID.String())
	if err != nil {
		return nil, lockError(err)
	}
	defer unlock()

	err = s.repo.InTx(ctx, func(repo Repository) error {
		locked, err := s.findBookingForUpdate(ctx, repo, bookingID)
		if err != nil {
			return err
		}
		if locked.RequesterID != actorID {
			return pkgerrors.New(pkgerrors.CodeNotRequester, "only the requester can cancel a booking")
		}
		if locked.Status.IsTerminal() {
			return pkgerrors.New(pkgerrors.CodeAlreadyDecided, "booking has already been decided")
		}

		now := s.timestamp()
		if err := repo.UpdateStatus(ctx, locked.ID, enums.BookingStatusCanceled, now); err != nil {
			return dependencyError(err, "update booking status")
		}
		locked.Status = enums.BookingStatusCanceled
		locked.UpdatedAt = now
		booking = locked

		return repo.RecordEvent(ctx, outbox.DomainEvent{
			EventType:     enums.EventBookingCanceled,
			AggregateType: enums.AggregateBooking,
			AggregateID:   locked.ID,
			Actor:         &outbox.ActorRef{UserID: actorID, Role: string(PerspectiveRequester)},
			OccurredAt:    now,
			Data: payloads.BookingCanceledEvent{
				BookingID:   locked.ID,
				ItemID:      locked.ItemID,
				RequesterID: locked.RequesterID,
				Status:      locked.Status,
			},
		})
	})
	if err != nil {
		return nil, dependencyError(err, "cancel booking")
	}

	s.transitioned(ctx, "booking.canceled", booking)
	return booking, nil
}

func (s *service) GetByID(ctx context.Context, actorID, bookingID uuid.UUID) (booking *models.Booking, err error) {
	defer s.observe(opGet, time.Now(), &err)

	booking, err = s.findBooking(ctx, s.repo, bookingID)
	if err != nil {
		return nil, err
	}
	if booking.RequesterID == actorID {
		return booking, nil
	}

	item, err := s.items.Get(ctx, booking.ItemID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup item")
	}
	if err == nil && item.OwnerID == actorID {
		return booking, nil
	}
	return nil, pkgerrors.New(pkgerrors.CodeAccessDenied, "booking is visible only to its requester and the item owner")
}

func (s *service) List(ctx context.Context, userID uuid.UUID, filter enums.BookingViewFilter, perspective Perspective) (rows []models.Booking, err error) {
	defer s.observe(opList, time.Now(), &err)

	if !perspective.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown listing perspective")
	}
	if !filter.IsValid() {
		filter = enums.ParseBookingViewFilter(string(filter))
	}
	if err := s.requireUser(ctx, userID); err != nil {
		return nil, err
	}

	rows, err = s.dispatcher.List(ctx, s.repo, perspective, userID, filter, s.now())
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list bookings")
	}
	return rows, nil
}

func (s *service) requireUser(ctx context.Context, userID uuid.UUID) error {
	exists, err := s.users.Exists(ctx, userID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup user")
	}
	if !exists {
		return pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
	}
	return nil
}

func (s *service) lookupItem(ctx context.Context, itemID uuid.UUID) (ItemRef, error) {
	item, err := s.items.Get(ctx, itemID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ItemRef{}, pkgerrors.New(pkgerrors.CodeNotFound, "item not found")
		}
		return ItemRef{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup item")
	}
	return item, nil
}

func (s *service) findBooking(ctx context.Context, repo Repository, id uuid.UUID) (*models.Booking, error) {
	return notFoundOr(repo.FindByID(ctx, id))
}

func (s *service) findBookingForUpdate(ctx context.Context, repo Repository, id uuid.UUID) (*models.Booking, error) {
	return notFoundOr(repo.FindByIDForUpdate(ctx, id))
}

func notFoundOr(booking *models.Booking, err error) (*models.Booking, error) {
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "booking not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load booking")
	}
	return booking, nil
}

func (s *service) observe(op string, started time.Time, errp *error) {
	outcome := metrics.OutcomeSuccess
	if errp != nil && *errp != nil {
		outcome = metrics.OutcomeFailure
		s.metrics.IncRejection(op, string(pkgerrors.CodeOf(*errp)))
	}
	s.metrics.ObserveDuration(op, outcome, time.Since(started))
}

func (s *service) transitioned(ctx context.Context, msg string, booking *models.Booking) {
	s.metrics.IncTransition(booking.Status.String())
	if s.logg == nil {
		return
	}
	logCtx := s.logg.WithFields(ctx, map[string]any{
		"booking_id":   booking.ID.String(),
		"item_id":      booking.ItemID.String(),
		"requester_id": booking.RequesterID.String(),
		"status":       booking.Status,
	})
	s.logg.Info(logCtx, msg)
}

// dependencyError keeps typed errors intact and wraps anything else as a dependency failure.
func dependencyError(err error, msg string) error {
	if err == nil {
		return nil
	}
	if pkgerrors.As(err) != nil {
		return err
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, msg)
}

func lockError(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "acquire booking lock")
	}
	return dependencyError(err, "acquire booking lock")
}
