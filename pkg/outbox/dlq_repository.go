package outbox

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/shareit-backend/pkg/db/models"
)

const maxDLQErrorLen = 1024

type DLQRepository struct {
	db *gorm.DB
}

func NewDLQRepository(db *gorm.DB) *DLQRepository {
	return &DLQRepository{db: db}
}

func (r *DLQRepository) InsertTx(tx *gorm.DB, entry models.OutboxDLQ) error {
	if tx == nil {
		return errors.New("transaction required")
	}
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	if entry.ErrorMessage != nil {
		msg := truncateDLQError(*entry.ErrorMessage)
		entry.ErrorMessage = &msg
	}
	return tx.Create(&entry).Error
}

func (r *DLQRepository) FindByEventID(ctx context.Context, eventID uuid.UUID) (*models.OutboxDLQ, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	var dlq models.OutboxDLQ
	err := r.db.WithContext(ctx).Where("event_id = ?", eventID).First(&dlq).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &dlq, nil
}

// List returns dead-lettered events, oldest failure first.
func (r *DLQRepository) List(ctx context.Context, limit int) ([]models.OutboxDLQ, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if limit <= 0 {
		limit = 50
	}
	var rows []models.OutboxDLQ
	err := r.db.WithContext(ctx).
		Order("failed_at ASC").
		Order("id ASC").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}

// Requeue returns dead-lettered events to the publish queue with a fresh attempt
// budget and removes their DLQ entries. It reports how many events were requeued.
func (r *DLQRepository) Requeue(ctx context.Context, eventIDs ...uuid.UUID) (int, error) {
	if len(eventIDs) == 0 {
		return 0, nil
	}
	if ctx == nil {
		ctx = context.Background()
	}
	var requeued int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var parked []uuid.UUID
		if err := tx.Model(&models.OutboxDLQ{}).
			Where("event_id IN ?", eventIDs).
			Pluck("event_id", &parked).Error; err != nil {
			return err
		}
		if len(parked) == 0 {
			return nil
		}
		res := tx.Model(&models.OutboxEvent{}).
			Where("id IN ? AND published_at IS NULL", parked).
			Updates(map[string]any{"attempt_count": 0})
		if res.Error != nil {
			return res.Error
		}
		requeued = res.RowsAffected
		return tx.Where("event_id IN ?", parked).Delete(&models.OutboxDLQ{}).Error
	})
	return int(requeued), err
}

func truncateDLQError(message string) string {
	if len(message) <= maxDLQErrorLen {
		return message
	}
	return message[:maxDLQErrorLen]
}
