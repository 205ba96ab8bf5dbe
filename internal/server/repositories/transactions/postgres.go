package transactions

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/finwise/internal/common"
	"github.com/dmitrijs2005/finwise/internal/dbx"
	"github.com/dmitrijs2005/finwise/internal/server/models"
)

const transactionColumns = `id, user_id, amount, description, category, type, date, is_recurring, end_date, created_at, updated_at`

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, t *models.Transaction) (*models.Transaction, error) {
	query :=
		`INSERT INTO transactions (user_id, amount, description, category, type, date, is_recurring, end_date)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING id, created_at, updated_at`

	err := r.db.QueryRowContext(ctx, query,
		t.UserID, t.Amount, t.Description, t.Category, string(t.Type), t.Date, t.IsRecurring, t.EndDate,
	).Scan(&t.ID, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return t, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string, forUpdate bool) (*models.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE id = $1`
	if forUpdate {
		query += ` FOR UPDATE`
	}

	t, err := scanTransaction(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return t, nil
}

func (r *PostgresRepository) ListByUser(ctx context.Context, userID string, offset, limit int) ([]*models.Transaction, error) {
	query :=
		`SELECT ` + transactionColumns + ` FROM transactions
		 WHERE user_id = $1
		 ORDER BY date DESC, created_at DESC, id ASC
		 OFFSET $2 LIMIT $3`

	rows, err := r.db.QueryContext(ctx, query, userID, offset, limit)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	result := make([]*models.Transaction, 0)
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return result, nil
}

func (r *PostgresRepository) Update(ctx context.Context, t *models.Transaction) (*models.Transaction, error) {
	query :=
		`UPDATE transactions
		 SET amount = $2, description = $3, category = $4, type = $5, date = $6,
		     is_recurring = $7, end_date = $8, updated_at = now()
		 WHERE id = $1
		 RETURNING updated_at`

	err := r.db.QueryRowContext(ctx, query,
		t.ID, t.Amount, t.Description, t.Category, string(t.Type), t.Date, t.IsRecurring, t.EndDate,
	).Scan(&t.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return t, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM transactions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanTransaction(s scanner) (*models.Transaction, error) {
	t := &models.Transaction{}
	var (
		typ     string
		endDate sql.NullTime
	)

	if err := s.Scan(&t.ID, &t.UserID, &t.Amount, &t.Description, &t.Category, &typ,
		&t.Date, &t.IsRecurring, &endDate, &t.CreatedAt, &t.UpdatedAt); err != nil {
		return nil, err
	}

	t.Type = models.TransactionType(typ)
	if endDate.Valid {
		d := endDate.Time
		t.EndDate = &d
	}
	return t, nil
}
