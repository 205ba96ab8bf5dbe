package transactions

import (
	"context"

	"github.com/dmitrijs2005/finwise/internal/server/models"
)

// Repository persists transactions. It does no ownership checks; callers
// scope every query to the owning user.
type Repository interface {
	Create(ctx context.Context, t *models.Transaction) (*models.Transaction, error)
	// GetByID locks the row with FOR UPDATE when forUpdate is set.
	GetByID(ctx context.Context, id string, forUpdate bool) (*models.Transaction, error)
	// ListByUser orders by date DESC, created_at DESC, id ASC.
	ListByUser(ctx context.Context, userID string, offset, limit int) ([]*models.Transaction, error)
	Update(ctx context.Context, t *models.Transaction) (*models.Transaction, error)
	Delete(ctx context.Context, id string) error
}
