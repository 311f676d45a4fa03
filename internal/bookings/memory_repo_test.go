package bookings

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/angelmondragon/shareit-backend/pkg/db/models"
	"github.com/angelmondragon/shareit-backend/pkg/enums"
	"github.com/angelmondragon/shareit-backend/pkg/outbox"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

func TestMemoryRepositoryRollsBackFailedTx(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository(newFakeItems())

	kept := models.Booking{ID: uuid.New(), ItemID: uuid.New(), RequesterID: uuid.New(), StartAt: baseNow, EndAt: baseNow.Add(time.Hour), Status: enums.BookingStatusWaiting}
	if err := repo.Insert(ctx, &kept); err != nil {
		t.Fatalf("insert: %v", err)
	}

	boom := errors.New("boom")
	err := repo.InTx(ctx, func(tx Repository) error {
		dropped := models.Booking{ID: uuid.New(), ItemID: kept.ItemID, RequesterID: kept.RequesterID, StartAt: baseNow, EndAt: baseNow.Add(time.Hour), Status: enums.BookingStatusWaiting}
		if err := tx.Insert(ctx, &dropped); err != nil {
			return err
		}
		if err := tx.UpdateStatus(ctx, kept.ID, enums.BookingStatusApproved, baseNow); err != nil {
			return err
		}
		if err := tx.RecordEvent(ctx, outbox.DomainEvent{EventType: enums.EventBookingDecided}); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}

	rows, err := repo.List(ctx, PerspectiveRequester, kept.RequesterID, Query{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(rows) != 1 || rows[0].Status != enums.BookingStatusWaiting {
		t.Fatalf("expected rollback to leave original WAITING booking, got %+v", rows)
	}
	if len(repo.Events()) != 0 {
		t.Fatalf("expected no events after rollback")
	}
}

func TestMemoryRepositoryNotFound(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository(newFakeItems())

	if _, err := repo.FindByID(ctx, uuid.New()); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("expected record not found, got %v", err)
	}
	if err := repo.UpdateStatus(ctx, uuid.New(), enums.BookingStatusCanceled, baseNow); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("expected record not found on update, got %v", err)
	}
}

func TestMemoryRepositoryOrderingTiesByID(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository(newFakeItems())
	requester := uuid.New()

	low := uuid.MustParse("00000000-0000-0000-0000-000000000001")
	high := uuid.MustParse("ffffffff-0000-0000-0000-000000000001")
	for _, id := range []uuid.UUID{low, high} {
		b := models.Booking{ID: id, ItemID: uuid.New(), RequesterID: requester, StartAt: baseNow, EndAt: baseNow.Add(time.Hour), Status: enums.BookingStatusWaiting}
		if err := repo.Insert(ctx, &b); err != nil {
			t.Fatalf("insert: %v", err)
		}
	}

	rows, err := repo.List(ctx, PerspectiveRequester, requester, Query{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(rows) != 2 || rows[0].ID != high || rows[1].ID != low {
		t.Fatalf("expected id DESC tie break, got %+v", rows)
	}
}
