package models

import (
	"time"

	"github.com/angelmondragon/shareit-backend/pkg/enums"
	"github.com/google/uuid"
)

// Booking is a reservation request for an item over a half-open time window.
type Booking struct {
	ID          uuid.UUID           `gorm:"column:id;type:uuid;primaryKey"`
	ItemID      uuid.UUID           `gorm:"column:item_id;type:uuid;not null"`
	RequesterID uuid.UUID           `gorm:"column:requester_id;type:uuid;not null"`
	StartAt     time.Time           `gorm:"column:start_at;not null"`
	EndAt       time.Time           `gorm:"column:end_at;not null"`
	Status      enums.BookingStatus `gorm:"column:status;type:booking_status;not null"`
	CreatedAt   time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}
