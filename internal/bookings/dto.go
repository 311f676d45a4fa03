package bookings

import (
	"context"
	"time"

	"github.com/angelmondragon/shareit-backend/pkg/db/models"
	"github.com/angelmondragon/shareit-backend/pkg/enums"
	"github.com/angelmondragon/shareit-backend/pkg/logger"
	"github.com/google/uuid"
)

// Ref is a nested reference in booking payloads.
type Ref struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name,omitempty"`
}

// BookingDTO is the transport shape of a booking.
type BookingDTO struct {
	ID     uuid.UUID           `json:"id"`
	Start  time.Time           `json:"start"`
	End    time.Time           `json:"end"`
	Status enums.BookingStatus `json:"status"`
	Booker Ref                 `json:"booker"`
	Item   Ref                 `json:"item"`
}

// CreateBookingRequest is the body accepted when filing a booking.
type CreateBookingRequest struct {
	ItemID uuid.UUID  `json:"itemId" validate:"required"`
	Start  *time.Time `json:"start" validate:"required"`
	End    *time.Time `json:"end" validate:"required"`
}

// FromModel maps a booking to its DTO with id-only refs.
func FromModel(b *models.Booking) *BookingDTO {
	if b == nil {
		return nil
	}
	return &BookingDTO{
		ID:     b.ID,
		Start:  b.StartAt,
		End:    b.EndAt,
		Status: b.Status,
		Booker: Ref{ID: b.RequesterID},
		Item:   Ref{ID: b.ItemID},
	}
}

// FromModels maps a listing to DTOs, preserving order.
func FromModels(rows []models.Booking) []BookingDTO {
	out := make([]BookingDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *FromModel(&rows[i]))
	}
	return out
}

// NameLookup resolves display names for ids. Unknown ids are left out of the map.
type NameLookup interface {
	NamesByID(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]string, error)
}

// Presenter renders bookings with booker and item names filled in. Name lookups are
// best effort: a failed lookup is logged and the refs keep only their ids.
type Presenter struct {
	users NameLookup
	items NameLookup
	logg  *logger.Logger
}

func NewPresenter(users, items NameLookup, logg *logger.Logger) *Presenter {
	return &Presenter{users: users, items: items, logg: logg}
}

// One renders a single booking.
func (p *Presenter) One(ctx context.Context, b *models.Booking) *BookingDTO {
	if b == nil {
		return nil
	}
	out := p.Many(ctx, []models.Booking{*b})
	return &out[0]
}

// Many renders a listing with one name query per collaborator.
func (p *Presenter) Many(ctx context.Context, rows []models.Booking) []BookingDTO {
	out := FromModels(rows)
	if p == nil || len(out) == 0 {
		return out
	}

	bookerIDs := make([]uuid.UUID, 0, len(rows))
	itemIDs := make([]uuid.UUID, 0, len(rows))
	for _, row := range rows {
		bookerIDs = append(bookerIDs, row.RequesterID)
		itemIDs = append(itemIDs, row.ItemID)
	}
	bookers := p.names(ctx, p.users, "user", bookerIDs)
	items := p.names(ctx, p.items, "item", itemIDs)

	for i := range out {
		out[i].Booker.Name = bookers[out[i].Booker.ID]
		out[i].Item.Name = items[out[i].Item.ID]
	}
	return out
}

func (p *Presenter) names(ctx context.Context, lookup NameLookup, kind string, ids []uuid.UUID) map[uuid.UUID]string {
	if lookup == nil {
		return nil
	}
	names, err := lookup.NamesByID(ctx, uniqueIDs(ids))
	if err != nil {
		if p.logg != nil {
			p.logg.Warn(p.logg.WithField(ctx, "error", err.Error()), kind+" names unavailable for booking payload")
		}
		return nil
	}
	return names
}

func uniqueIDs(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
