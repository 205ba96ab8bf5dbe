package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/finwise/internal/dbx"
	"github.com/dmitrijs2005/finwise/internal/server/repositories/transactions"
	"github.com/dmitrijs2005/finwise/internal/server/repositories/users"
)

// RepositoryManager vends repositories bound to a DBTX, so the same code
// runs against the pool or inside a transaction.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	Transactions(db dbx.DBTX) transactions.Repository
}
