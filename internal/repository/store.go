package repository

import (
	"context"
	"errors"

	"github.com/kjannette/goldsight-backend/internal/models"
)

var ErrNotFound = errors.New("saved model not found")

// ModelStore persists the saved forecast library.
type ModelStore interface {
	Save(ctx context.Context, m *models.SavedModel) error
	// List returns up to limit models, newest first. limit <= 0 means all.
	List(ctx context.Context, limit int) ([]models.SavedModel, error)
	Get(ctx context.Context, id string) (*models.SavedModel, error)
	Delete(ctx context.Context, id string) error
	Count(ctx context.Context) (int, error)
}
