package rest

import (
	"context"
	"time"

	"github.com/dmitrijs2005/finwise/internal/logging"
	"github.com/dmitrijs2005/finwise/internal/server/models"
	"github.com/dmitrijs2005/finwise/internal/server/services"
)

type Authenticator interface {
	Login(ctx context.Context, email, password string) (*services.TokenResponse, error)
}

type TokenResolver interface {
	Resolve(ctx context.Context, token string) (*models.User, error)
}

type UserManager interface {
	Register(ctx context.Context, n models.NewUser) (*models.User, error)
	Profile(ctx context.Context, caller *models.User) (*models.User, error)
	UpdateProfile(ctx context.Context, caller *models.User, patch models.UserPatch) (*models.User, error)
	DeleteAccount(ctx context.Context, caller *models.User) (*models.User, error)
}

type TransactionManager interface {
	Create(ctx context.Context, caller *models.User, n models.NewTransaction) (*models.Transaction, error)
	List(ctx context.Context, caller *models.User, skip, limit int) ([]*models.Transaction, error)
	Get(ctx context.Context, caller *models.User, id string) (*models.Transaction, error)
	Update(ctx context.Context, caller *models.User, id string, patch models.TransactionPatch) (*models.Transaction, error)
	Delete(ctx context.Context, caller *models.User, id string) (*models.Transaction, error)
}

type Exporter interface {
	Export(ctx context.Context, caller *models.User) (*models.ExportResult, error)
}

// HealthChecker reports whether the store is reachable.
type HealthChecker func(ctx context.Context) error

// Deps are the services behind the routes. Exporter and Health may be nil.
type Deps struct {
	Auth         Authenticator
	Resolver     TokenResolver
	Users        UserManager
	Transactions TransactionManager
	Exporter     Exporter
	Health       HealthChecker
}

const healthTimeout = 2 * time.Second

type Handler struct {
	auth         Authenticator
	resolver     TokenResolver
	users        UserManager
	transactions TransactionManager
	exporter     Exporter
	health       HealthChecker
	metrics      *Metrics
	logger       logging.Logger
}
