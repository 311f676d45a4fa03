package items

import (
	"context"

	"github.com/angelmondragon/shareit-backend/internal/bookings"
	"github.com/angelmondragon/shareit-backend/internal/repo"
	"github.com/angelmondragon/shareit-backend/pkg/db/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository exposes read-only item lookups.
type Repository struct {
	repo.Base
}

// NewRepository constructs an items repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

// FindByID loads an item by its UUID.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Item, error) {
	var item models.Item
	if err := r.DB(ctx).First(&item, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

// Get returns the booking-facing projection of an item.
func (r *Repository) Get(ctx context.Context, id uuid.UUID) (bookings.ItemRef, error) {
	item, err := r.FindByID(ctx, id)
	if err != nil {
		return bookings.ItemRef{}, err
	}
	return bookings.ItemRef{
		ID:        item.ID,
		OwnerID:   item.OwnerID,
		Available: item.Available,
	}, nil
}

// NamesByID returns display names keyed by id. Unknown ids are left out.
func (r *Repository) NamesByID(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]string, error) {
	names := make(map[uuid.UUID]string, len(ids))
	if len(ids) == 0 {
		return names, nil
	}
	var rows []models.Item
	if err := r.DB(ctx).
		Select("id", "name").
		Where("id IN ?", ids).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	for _, row := range rows {
		names[row.ID] = row.Name
	}
	return names, nil
}
