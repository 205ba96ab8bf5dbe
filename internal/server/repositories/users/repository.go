package users

import (
	"context"

	"github.com/dmitrijs2005/finwise/internal/server/models"
)

// Repository persists user accounts. Missing rows yield common.ErrorNotFound
// and email conflicts yield common.ErrorAlreadyExists.
type Repository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	// GetByID locks the row with FOR UPDATE when forUpdate is set; the
	// caller must then be inside a transaction.
	GetByID(ctx context.Context, id string, forUpdate bool) (*models.User, error)
	Update(ctx context.Context, user *models.User) (*models.User, error)
	Delete(ctx context.Context, id string) error
	SetActive(ctx context.Context, email string, active bool) (*models.User, error)
}
