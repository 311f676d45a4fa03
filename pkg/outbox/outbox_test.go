package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/angelmondragon/shareit-backend/pkg/db/models"
	"github.com/angelmondragon/shareit-backend/pkg/enums"
	"github.com/angelmondragon/shareit-backend/pkg/outbox/payloads"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

const outboxSchema = `
CREATE TABLE IF NOT EXISTS outbox_events (
  id TEXT PRIMARY KEY,
  event_type TEXT NOT NULL,
  aggregate_type TEXT NOT NULL,
  aggregate_id TEXT NOT NULL,
  payload TEXT NOT NULL,
  created_at DATETIME,
  published_at DATETIME,
  attempt_count INTEGER NOT NULL DEFAULT 0,
  last_error TEXT
);
CREATE TABLE IF NOT EXISTS outbox_dlq (
  id TEXT PRIMARY KEY,
  event_id TEXT NOT NULL UNIQUE,
  event_type TEXT NOT NULL,
  aggregate_type TEXT NOT NULL,
  aggregate_id TEXT NOT NULL,
  error_reason TEXT NOT NULL,
  error_message TEXT,
  attempt_count INTEGER NOT NULL,
  payload TEXT NOT NULL,
  failed_at DATETIME NOT NULL
);`

func setupOutboxDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:outbox_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	for _, stmt := range strings.Split(outboxSchema, ";") {
		if strings.TrimSpace(stmt) == "" {
			continue
		}
		require.NoError(t, db.Exec(stmt).Error)
	}
	return db
}

func TestEmitWritesEnvelopeInsideTransaction(t *testing.T) {
	db := setupOutboxDB(t)
	repo := NewRepository(db)
	svc := NewService(repo, nil)
	ctx := context.Background()

	bookingID := uuid.New()
	actorID := uuid.New()
	occurred := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	err := db.Transaction(func(tx *gorm.DB) error {
		return svc.Emit(ctx, tx, DomainEvent{
			EventType:     enums.EventBookingCreated,
			AggregateType: enums.AggregateBooking,
			AggregateID:   bookingID,
			Actor:         &ActorRef{UserID: actorID, Role: "requester"},
			OccurredAt:    occurred,
			Data:          payloads.BookingCreatedEvent{BookingID: bookingID, Status: enums.BookingStatusWaiting},
		})
	})
	require.NoError(t, err)

	rows, err := repo.FetchUnpublished(ctx, 10, 0)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, bookingID, rows[0].AggregateID)
	assert.Equal(t, enums.EventBookingCreated, rows[0].EventType)

	var envelope PayloadEnvelope
	require.NoError(t, json.Unmarshal(rows[0].Payload, &envelope))
	assert.Equal(t, 1, envelope.Version)
	assert.Equal(t, rows[0].ID.String(), envelope.EventID)
	assert.True(t, envelope.OccurredAt.Equal(occurred))
	require.NotNil(t, envelope.Actor)
	assert.Equal(t, actorID, envelope.Actor.UserID)

	var data payloads.BookingCreatedEvent
	require.NoError(t, json.Unmarshal(envelope.Data, &data))
	assert.Equal(t, bookingID, data.BookingID)
}

func TestEmitRolledBackWithTransaction(t *testing.T) {
	db := setupOutboxDB(t)
	repo := NewRepository(db)
	svc := NewService(repo, nil)
	ctx := context.Background()

	err := db.Transaction(func(tx *gorm.DB) error {
		if err := svc.Emit(ctx, tx, DomainEvent{
			EventType:     enums.EventBookingCanceled,
			AggregateType: enums.AggregateBooking,
			AggregateID:   uuid.New(),
		}); err != nil {
			return err
		}
		return errors.New("boom")
	})
	require.Error(t, err)

	rows, err := repo.FetchUnpublished(ctx, 10, 0)
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestEmitRejectsUnknownTypes(t *testing.T) {
	db := setupOutboxDB(t)
	svc := NewService(NewRepository(db), nil)

	err := svc.Emit(context.Background(), db, DomainEvent{
		EventType:     enums.OutboxEventType("order_created"),
		AggregateType: enums.AggregateBooking,
	})
	require.Error(t, err)

	err = svc.Emit(context.Background(), nil, DomainEvent{})
	require.Error(t, err)
}

func TestRepositoryAttemptsAndPublish(t *testing.T) {
	db := setupOutboxDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	row, _, err := BuildRow(DomainEvent{
		EventType:     enums.EventBookingDecided,
		AggregateType: enums.AggregateBooking,
		AggregateID:   uuid.New(),
	})
	require.NoError(t, err)
	require.NoError(t, repo.Insert(db, row))

	require.NoError(t, repo.MarkFailedTx(db, row.ID, errors.New("publish failed")))
	require.NoError(t, repo.MarkFailedTx(db, row.ID, errors.New("publish failed")))

	pending, err := repo.FetchUnpublished(ctx, 10, 3)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, 2, pending[0].AttemptCount)
	require.NotNil(t, pending[0].LastError)

	exhausted, err := repo.FetchUnpublished(ctx, 10, 2)
	require.NoError(t, err)
	assert.Empty(t, exhausted)

	require.NoError(t, repo.MarkPublishedTx(db, row.ID, time.Now().UTC()))
	pending, err = repo.FetchUnpublished(ctx, 10, 0)
	require.NoError(t, err)
	assert.Empty(t, pending)

	var stored models.OutboxEvent
	require.NoError(t, db.First(&stored, "id = ?", row.ID).Error)
	assert.NotNil(t, stored.PublishedAt)
}

func TestRepositoryMarkTerminalParksEvent(t *testing.T) {
	db := setupOutboxDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	row, _, err := BuildRow(DomainEvent{
		EventType:     enums.EventBookingCanceled,
		AggregateType: enums.AggregateBooking,
		AggregateID:   uuid.New(),
	})
	require.NoError(t, err)
	require.NoError(t, repo.Insert(db, row))

	require.NoError(t, repo.MarkTerminalTx(db, row.ID, errors.New("bad payload"), 5))

	pending, err := repo.FetchUnpublished(ctx, 10, 5)
	require.NoError(t, err)
	assert.Empty(t, pending)

	var stored models.OutboxEvent
	require.NoError(t, db.First(&stored, "id = ?", row.ID).Error)
	assert.Equal(t, 5, stored.AttemptCount)
	require.NotNil(t, stored.LastError)
	assert.Equal(t, "bad payload", *stored.LastError)
}

func TestFetchUnpublishedForPublishRequiresTransaction(t *testing.T) {
	db := setupOutboxDB(t)
	repo := NewRepository(db)

	_, err := repo.FetchUnpublishedForPublish(nil, 10, 3)
	require.Error(t, err)

	row, _, err := BuildRow(DomainEvent{
		EventType:     enums.EventBookingCreated,
		AggregateType: enums.AggregateBooking,
		AggregateID:   uuid.New(),
	})
	require.NoError(t, err)
	require.NoError(t, repo.Insert(db, row))

	err = db.Transaction(func(tx *gorm.DB) error {
		rows, err := repo.FetchUnpublishedForPublish(tx, 10, 3)
		if err != nil {
			return err
		}
		require.Len(t, rows, 1)
		assert.Equal(t, row.ID, rows[0].ID)
		return nil
	})
	require.NoError(t, err)
}

func TestDLQRequeueRestoresAttemptBudget(t *testing.T) {
	db := setupOutboxDB(t)
	repo := NewRepository(db)
	dlq := NewDLQRepository(db)
	ctx := context.Background()

	row, _, err := BuildRow(DomainEvent{
		EventType:     enums.EventBookingDecided,
		AggregateType: enums.AggregateBooking,
		AggregateID:   uuid.New(),
	})
	require.NoError(t, err)
	require.NoError(t, repo.Insert(db, row))

	msg := strings.Repeat("x", maxDLQErrorLen+10)
	err = db.Transaction(func(tx *gorm.DB) error {
		if err := dlq.InsertTx(tx, models.OutboxDLQ{
			EventID:       row.ID,
			EventType:     row.EventType,
			AggregateType: row.AggregateType,
			AggregateID:   row.AggregateID,
			ErrorReason:   enums.OutboxDLQReasonMaxAttempts,
			ErrorMessage:  &msg,
			AttemptCount:  3,
			Payload:       row.Payload,
			FailedAt:      time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC),
		}); err != nil {
			return err
		}
		return repo.MarkTerminalTx(tx, row.ID, errors.New("pubsub unavailable"), 3)
	})
	require.NoError(t, err)

	pending, err := repo.FetchUnpublished(ctx, 10, 3)
	require.NoError(t, err)
	assert.Empty(t, pending)

	parked, err := dlq.FindByEventID(ctx, row.ID)
	require.NoError(t, err)
	require.NotNil(t, parked)
	require.NotNil(t, parked.ErrorMessage)
	assert.Len(t, *parked.ErrorMessage, maxDLQErrorLen)

	listed, err := dlq.List(ctx, 10)
	require.NoError(t, err)
	require.Len(t, listed, 1)

	requeued, err := dlq.Requeue(ctx, row.ID, uuid.New())
	require.NoError(t, err)
	assert.Equal(t, 1, requeued)

	pending, err = repo.FetchUnpublished(ctx, 10, 3)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, 0, pending[0].AttemptCount)

	parked, err = dlq.FindByEventID(ctx, row.ID)
	require.NoError(t, err)
	assert.Nil(t, parked)

	requeued, err = dlq.Requeue(ctx, row.ID)
	require.NoError(t, err)
	assert.Zero(t, requeued)
}
