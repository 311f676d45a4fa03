package payloads

import (
	"time"

	"github.com/angelmondragon/shareit-backend/pkg/enums"
	"github.com/google/uuid"
)

// BookingCreatedEvent is emitted when a requester files a new booking.
type BookingCreatedEvent struct {
	BookingID   uuid.UUID           `json:"booking_id"`
	ItemID      uuid.UUID           `json:"item_id"`
	RequesterID uuid.UUID           `json:"requester_id"`
	OwnerID     uuid.UUID           `json:"owner_id"`
	Start       time.Time           `json:"start"`
	End         time.Time           `json:"end"`
	Status      enums.BookingStatus `json:"status"`
}

// BookingDecidedEvent is emitted when the item owner approves or rejects a booking.
type BookingDecidedEvent struct {
	BookingID   uuid.UUID           `json:"booking_id"`
	ItemID      uuid.UUID           `json:"item_id"`
	RequesterID uuid.UUID           `json:"requester_id"`
	OwnerID     uuid.UUID           `json:"owner_id"`
	Approved    bool                `json:"approved"`
	Status      enums.BookingStatus `json:"status"`
}

// BookingCanceledEvent is emitted when the requester withdraws a waiting booking.
type BookingCanceledEvent struct {
	BookingID   uuid.UUID           `json:"booking_id"`
	ItemID      uuid.UUID           `json:"item_id"`
	RequesterID uuid.UUID           `json:"requester_id"`
	Status      enums.BookingStatus `json:"status"`
}
