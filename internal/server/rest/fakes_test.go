package rest

import (
	"context"
	"database/sql"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/finwise/internal/common"
	"github.com/dmitrijs2005/finwise/internal/dbx"
	"github.com/dmitrijs2005/finwise/internal/logging"
	"github.com/dmitrijs2005/finwise/internal/server/auth"
	"github.com/dmitrijs2005/finwise/internal/server/models"
	"github.com/dmitrijs2005/finwise/internal/server/repositories/transactions"
	"github.com/dmitrijs2005/finwise/internal/server/repositories/users"
	"github.com/dmitrijs2005/finwise/internal/server/services"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type nopLogger struct{}

func (n nopLogger) Debug(context.Context, string, ...any) {}
func (n nopLogger) Info(context.Context, string, ...any)  {}
func (n nopLogger) Warn(context.Context, string, ...any)  {}
func (n nopLogger) Error(context.Context, string, ...any) {}
func (n nopLogger) With(...any) logging.Logger            { return n }

// memStore backs both repositories with maps.
type memStore struct {
	mu    sync.Mutex
	users map[string]models.User
	txs   map[string]models.Transaction
}

type memUsers struct{ s *memStore }

func (r memUsers) Create(ctx context.Context, u *models.User) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, e := range r.s.users {
		if e.Email == u.Email {
			return nil, common.ErrorAlreadyExists
		}
	}
	u.ID = uuid.NewString()
	u.CreatedAt = time.Now().UTC()
	u.UpdatedAt = u.CreatedAt
	r.s.users[u.ID] = *u
	return u, nil
}

func (r memUsers) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (r memUsers) GetByID(ctx context.Context, id string, forUpdate bool) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return &u, nil
}

func (r memUsers) Update(ctx context.Context, u *models.User) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for id, e := range r.s.users {
		if id != u.ID && e.Email == u.Email {
			return nil, common.ErrorAlreadyExists
		}
	}
	u.UpdatedAt = time.Now().UTC()
	r.s.users[u.ID] = *u
	return u, nil
}

func (r memUsers) Delete(ctx context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.users[id]; !ok {
		return common.ErrorNotFound
	}
	delete(r.s.users, id)
	for tid, t := range r.s.txs {
		if t.UserID == id {
			delete(r.s.txs, tid)
		}
	}
	return nil
}

func (r memUsers) SetActive(ctx context.Context, email string, active bool) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for id, u := range r.s.users {
		if u.Email == email {
			u.IsActive = active
			r.s.users[id] = u
			return &u, nil
		}
	}
	return nil, common.ErrorNotFound
}

type memTransactions struct{ s *memStore }

func (r memTransactions) Create(ctx context.Context, t *models.Transaction) (*models.Transaction, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	t.ID = uuid.NewString()
	t.CreatedAt = time.Now().UTC()
	t.UpdatedAt = t.CreatedAt
	r.s.txs[t.ID] = *t
	return t, nil
}

func (r memTransactions) GetByID(ctx context.Context, id string, forUpdate bool) (*models.Transaction, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	t, ok := r.s.txs[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return &t, nil
}

func (r memTransactions) ListByUser(ctx context.Context, userID string, offset, limit int) ([]*models.Transaction, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var all []*models.Transaction
	for _, t := range r.s.txs {
		if t.UserID == userID {
			c := t
			all = append(all, &c)
		}
	}
	sort.Slice(all, func(i, j int) bool {
		if !all[i].Date.Equal(all[j].Date) {
			return all[i].Date.After(all[j].Date)
		}
		return all[i].ID < all[j].ID
	})
	if offset >= len(all) {
		return nil, nil
	}
	all = all[offset:]
	if len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}

func (r memTransactions) Update(ctx context.Context, t *models.Transaction) (*models.Transaction, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.txs[t.ID]; !ok {
		return nil, common.ErrorNotFound
	}
	t.UpdatedAt = time.Now().UTC()
	r.s.txs[t.ID] = *t
	return t, nil
}

func (r memTransactions) Delete(ctx context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.txs[id]; !ok {
		return common.ErrorNotFound
	}
	delete(r.s.txs, id)
	return nil
}

type memRepoManager struct{ s *memStore }

func newMemRepoManager() *memRepoManager {
	return &memRepoManager{s: &memStore{users: map[string]models.User{}, txs: map[string]models.Transaction{}}}
}

func (m *memRepoManager) RunMigrations(context.Context, *sql.DB) error     { return nil }
func (m *memRepoManager) Users(db dbx.DBTX) users.Repository               { return memUsers{m.s} }
func (m *memRepoManager) Transactions(db dbx.DBTX) transactions.Repository { return memTransactions{m.s} }

func (m *memRepoManager) transactionCount() int {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	return len(m.s.txs)
}

// --- test environment ---

const testPassword = "Abcd1234!"

type testEnv struct {
	handler  http.Handler
	repos    *memRepoManager
	mock     sqlmock.Sqlmock
	hasher   auth.PasswordHasher
	issuer   *auth.TokenIssuer
	registry *prometheus.Registry
}

// newTestEnv wires the real services over in-memory repositories. The
// sqlmock handle only sees transaction boundaries.
func newTestEnv(t *testing.T, opts ...func(*Deps, *RouterOptions)) *testEnv {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		db.Close()
	})

	repos := newMemRepoManager()
	hasher := auth.NewArgon2idHasher(auth.Argon2Params{Memory: 8 * 1024, Time: 1, Threads: 1, SaltLen: 16, KeyLen: 32})
	issuer := auth.NewTokenIssuer([]byte("test-secret"), time.Hour)
	guard := services.NewGuard(db, repos, issuer)

	deps := Deps{
		Auth:         services.NewAuthService(db, repos, hasher, issuer, nopLogger{}),
		Resolver:     guard,
		Users:        services.NewUserService(db, repos, hasher, nopLogger{}),
		Transactions: services.NewTransactionService(db, repos, guard, nopLogger{}),
	}
	ro := RouterOptions{AllowedOrigins: []string{"*"}, Registry: prometheus.NewRegistry()}
	for _, o := range opts {
		o(&deps, &ro)
	}

	return &testEnv{
		handler:  NewRouter(deps, nopLogger{}, ro),
		repos:    repos,
		mock:     mock,
		hasher:   hasher,
		issuer:   issuer,
		registry: ro.Registry,
	}
}

// addUser stores an active user with testPassword and returns it with a
// valid access token.
func (e *testEnv) addUser(t *testing.T, email string) (*models.User, string) {
	t.Helper()
	hash, err := e.hasher.Hash(testPassword)
	require.NoError(t, err)

	u, err := memUsers{e.repos.s}.Create(context.Background(), &models.User{
		Email: email, FirstName: "Test", LastName: "User", PasswordHash: hash, IsActive: true,
	})
	require.NoError(t, err)

	token, _, err := e.issuer.Issue(email)
	require.NoError(t, err)
	return u, token
}

func (e *testEnv) addTransaction(t *testing.T, owner *models.User, category string) *models.Transaction {
	t.Helper()
	tx, err := memTransactions{e.repos.s}.Create(context.Background(), &models.Transaction{
		UserID:   owner.ID,
		Category: category,
		Type:     models.TypeExpense,
		Date:     time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	return tx
}

func (e *testEnv) do(method, path, token, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set(common.AuthorizationHeaderName, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}
