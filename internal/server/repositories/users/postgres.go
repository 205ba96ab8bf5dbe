package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/finwise/internal/common"
	"github.com/dmitrijs2005/finwise/internal/dbx"
	"github.com/dmitrijs2005/finwise/internal/server/models"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
)

const userColumns = `id, email, first_name, last_name, birthday, password_hash, is_active, created_at, updated_at`

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	query :=
		`INSERT INTO users (email, first_name, last_name, birthday, password_hash, is_active)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id, created_at, updated_at`

	err := r.db.QueryRowContext(ctx, query,
		user.Email, user.FirstName, user.LastName, user.Birthday, user.PasswordHash, user.IsActive,
	).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		return nil, mapError(err)
	}

	return user, nil
}

func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	return scanUser(r.db.QueryRowContext(ctx, query, email))
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string, forUpdate bool) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	if forUpdate {
		query += ` FOR UPDATE`
	}
	return scanUser(r.db.QueryRowContext(ctx, query, id))
}

func (r *PostgresRepository) Update(ctx context.Context, user *models.User) (*models.User, error) {
	query :=
		`UPDATE users
		 SET email = $2, first_name = $3, last_name = $4, birthday = $5, password_hash = $6, updated_at = now()
		 WHERE id = $1
		 RETURNING updated_at`

	err := r.db.QueryRowContext(ctx, query,
		user.ID, user.Email, user.FirstName, user.LastName, user.Birthday, user.PasswordHash,
	).Scan(&user.UpdatedAt)
	if err != nil {
		return nil, mapError(err)
	}

	return user, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
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

func (r *PostgresRepository) SetActive(ctx context.Context, email string, active bool) (*models.User, error) {
	query :=
		`UPDATE users SET is_active = $2, updated_at = now()
		 WHERE email = $1
		 RETURNING ` + userColumns

	return scanUser(r.db.QueryRowContext(ctx, query, email, active))
}

func scanUser(row *sql.Row) (*models.User, error) {
	u := &models.User{}
	var birthday sql.NullTime

	err := row.Scan(&u.ID, &u.Email, &u.FirstName, &u.LastName, &birthday,
		&u.PasswordHash, &u.IsActive, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, mapError(err)
	}

	if birthday.Valid {
		b := birthday.Time
		u.Birthday = &b
	}
	return u, nil
}

func mapError(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return common.ErrorNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
		return fmt.Errorf("email already registered: %w", common.ErrorAlreadyExists)
	}
	return fmt.Errorf("db error: %w", err)
}

