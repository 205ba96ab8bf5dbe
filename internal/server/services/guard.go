package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/finwise/internal/common"
	"github.com/dmitrijs2005/finwise/internal/server/models"
	"github.com/dmitrijs2005/finwise/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/finwise/internal/server/repositories/transactions"
	"github.com/google/uuid"
)

// Guard resolves bearer tokens to users and enforces transaction ownership.
type Guard struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	issuer      TokenIssuer
}

func NewGuard(db *sql.DB, m repomanager.RepositoryManager, issuer TokenIssuer) *Guard {
	return &Guard{db: db, repomanager: m, issuer: issuer}
}

// Resolve returns the active user a token was issued for. Any failure is
// common.ErrorUnauthenticated; the verify error is kept in the chain.
// Tokens issued before the account was created belong to an earlier owner
// of the email and are rejected.
func (g *Guard) Resolve(ctx context.Context, token string) (*models.User, error) {
	if token == "" {
		return nil, common.ErrorUnauthenticated
	}

	claims, err := g.issuer.VerifyClaims(token)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrorUnauthenticated, err)
	}

	user, err := g.repomanager.Users(g.db).GetByEmail(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, fmt.Errorf("%w: unknown subject", common.ErrorUnauthenticated)
		}
		return nil, storeError("resolve user", err)
	}
	if !user.IsActive {
		return nil, fmt.Errorf("%w: inactive user", common.ErrorUnauthenticated)
	}
	// iat has whole-second precision
	if claims.IssuedAt.Before(user.CreatedAt.Truncate(time.Second)) {
		return nil, fmt.Errorf("%w: token predates account", common.ErrorUnauthenticated)
	}

	return user, nil
}

// OwnedTransaction loads id through repo and checks caller owns it.
// Existence is checked before ownership: a malformed or unknown id is
// common.ErrorNotFound, someone else's row is common.ErrorForbidden.
func (g *Guard) OwnedTransaction(ctx context.Context, repo transactions.Repository, caller *models.User, id string, forUpdate bool) (*models.Transaction, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, common.ErrorNotFound
	}

	t, err := repo.GetByID(ctx, id, forUpdate)
	if err != nil {
		return nil, storeError("load transaction", err)
	}
	if t.UserID != caller.ID {
		return nil, common.ErrorForbidden
	}

	return t, nil
}
