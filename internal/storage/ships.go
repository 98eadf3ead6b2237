package storage

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/fleetdocs/backend/internal/storage/models"
)

// Ships is read-only for the upload pipeline; Create exists for seeding.
type Ships struct {
	store Store
}

func NewShips(store Store) *Ships {
	return &Ships{store: store}
}

func (r *Ships) Get(ctx context.Context, id string) (*models.Ship, error) {
	var s models.Ship
	if err := r.store.FindOne(ctx, CollectionShips, Filter{"_id": id}, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *Ships) ListByCompany(ctx context.Context, companyID string) ([]models.Ship, error) {
	var out []models.Ship
	if err := r.store.FindAll(ctx, CollectionShips, Filter{"company_id": companyID}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *Ships) Create(ctx context.Context, s *models.Ship) error {
	if s.ID == "" {
		s.ID = uuid.New().String()
	}
	if s.CreatedAt.IsZero() {
		s.CreatedAt = time.Now().UTC().Truncate(time.Millisecond)
	}
	return r.store.Create(ctx, CollectionShips, s)
}
