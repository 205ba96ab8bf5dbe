package services

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/finwise/internal/common"
	"github.com/dmitrijs2005/finwise/internal/dbx"
	"github.com/dmitrijs2005/finwise/internal/logging"
	"github.com/dmitrijs2005/finwise/internal/server/models"
	"github.com/dmitrijs2005/finwise/internal/server/repositories/repomanager"
)

const (
	DefaultListLimit = 100
	MaxListLimit     = 1000
)

// TransactionService manages the caller's transactions. Every operation is
// scoped to the caller; the owner of a new record is always the caller.
type TransactionService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	guard       *Guard
	log         logging.Logger
}

func NewTransactionService(db *sql.DB, m repomanager.RepositoryManager, guard *Guard, log logging.Logger) *TransactionService {
	return &TransactionService{db: db, repomanager: m, guard: guard, log: log}
}

func (s *TransactionService) Create(ctx context.Context, caller *models.User, n models.NewTransaction) (*models.Transaction, error) {
	if err := n.Validate(); err != nil {
		return nil, err
	}

	t := &models.Transaction{
		UserID:      caller.ID,
		Amount:      n.Amount,
		Description: n.Description,
		Category:    n.Category,
		Type:        n.Type,
		Date:        n.Date,
		IsRecurring: n.IsRecurring,
		EndDate:     n.EndDate,
	}

	created, err := s.repomanager.Transactions(s.db).Create(ctx, t)
	if err != nil {
		return nil, storeError("create transaction", err)
	}

	s.log.Debug(ctx, "transaction created", "user_id", caller.ID, "transaction_id", created.ID)
	return created, nil
}

// List pages through the caller's transactions, newest first. A
// non-positive limit means DefaultListLimit; larger than MaxListLimit is
// capped.
func (s *TransactionService) List(ctx context.Context, caller *models.User, skip, limit int) ([]*models.Transaction, error) {
	if skip < 0 {
		return nil, common.NewValidationError("skip", "must be non-negative")
	}
	switch {
	case limit <= 0:
		limit = DefaultListLimit
	case limit > MaxListLimit:
		limit = MaxListLimit
	}

	list, err := s.repomanager.Transactions(s.db).ListByUser(ctx, caller.ID, skip, limit)
	if err != nil {
		return nil, storeError("list transactions", err)
	}
	if list == nil {
		list = []*models.Transaction{}
	}
	return list, nil
}

func (s *TransactionService) Get(ctx context.Context, caller *models.User, id string) (*models.Transaction, error) {
	return s.guard.OwnedTransaction(ctx, s.repomanager.Transactions(s.db), caller, id, false)
}

// Update applies the set fields of patch inside one store transaction with
// the row locked. An empty patch still bumps updated_at.
func (s *TransactionService) Update(ctx context.Context, caller *models.User, id string, patch models.TransactionPatch) (*models.Transaction, error) {
	var updated *models.Transaction

	err := dbx.WithTx(ctx, s.db, dbx.ReadCommitted, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Transactions(tx)

		t, err := s.guard.OwnedTransaction(ctx, repo, caller, id, true)
		if err != nil {
			return err
		}

		patch.Apply(t)
		if err := t.Validate(); err != nil {
			return err
		}

		updated, err = repo.Update(ctx, t)
		if err != nil {
			return storeError("update transaction", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return updated, nil
}

// Delete removes the transaction and returns it as it was.
func (s *TransactionService) Delete(ctx context.Context, caller *models.User, id string) (*models.Transaction, error) {
	var deleted *models.Transaction

	err := dbx.WithTx(ctx, s.db, dbx.ReadCommitted, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Transactions(tx)

		t, err := s.guard.OwnedTransaction(ctx, repo, caller, id, true)
		if err != nil {
			return err
		}
		if err := repo.Delete(ctx, t.ID); err != nil {
			return storeError("delete transaction", err)
		}
		deleted = t
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Debug(ctx, "transaction deleted", "user_id", caller.ID, "transaction_id", deleted.ID)
	return deleted, nil
}
