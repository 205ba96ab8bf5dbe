package services

import (
	"bytes"
	"context"
	"database/sql"
	"sort"
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
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testArgon2 = auth.Argon2Params{Memory: 8 * 1024, Time: 1, Threads: 1, SaltLen: 16, KeyLen: 32}

// --- users ---

type fakeUsersRepo struct {
	mu     sync.Mutex
	byID   map[string]*models.User
	writes int
	err    error
	txs    *fakeTransactionsRepo
}

func newFakeUsersRepo() *fakeUsersRepo {
	return &fakeUsersRepo{byID: map[string]*models.User{}}
}

func (f *fakeUsersRepo) put(u models.User) *models.User {
	f.mu.Lock()
	defer f.mu.Unlock()
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	f.byID[u.ID] = &u
	c := u
	return &c
}

func (f *fakeUsersRepo) Create(ctx context.Context, u *models.User) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	for _, e := range f.byID {
		if e.Email == u.Email {
			return nil, common.ErrorAlreadyExists
		}
	}
	f.writes++
	u.ID = uuid.NewString()
	u.CreatedAt = time.Now()
	u.UpdatedAt = u.CreatedAt
	c := *u
	f.byID[u.ID] = &c
	return u, nil
}

func (f *fakeUsersRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	for _, u := range f.byID {
		if u.Email == email {
			c := *u
			return &c, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (f *fakeUsersRepo) GetByID(ctx context.Context, id string, forUpdate bool) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	u, ok := f.byID[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	c := *u
	return &c, nil
}

func (f *fakeUsersRepo) Update(ctx context.Context, u *models.User) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for id, e := range f.byID {
		if id != u.ID && e.Email == u.Email {
			return nil, common.ErrorAlreadyExists
		}
	}
	f.writes++
	u.UpdatedAt = time.Now()
	c := *u
	f.byID[u.ID] = &c
	return u, nil
}

func (f *fakeUsersRepo) Delete(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.byID[id]; !ok {
		return common.ErrorNotFound
	}
	f.writes++
	delete(f.byID, id)
	if f.txs != nil {
		f.txs.deleteOwnedBy(id)
	}
	return nil
}

func (f *fakeUsersRepo) SetActive(ctx context.Context, email string, active bool) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.byID {
		if u.Email == email {
			f.writes++
			u.IsActive = active
			c := *u
			return &c, nil
		}
	}
	return nil, common.ErrorNotFound
}

// --- transactions ---

type fakeTransactionsRepo struct {
	mu        sync.Mutex
	byID      map[string]*models.Transaction
	writes    int
	lastLimit int
	err       error
}

func newFakeTransactionsRepo() *fakeTransactionsRepo {
	return &fakeTransactionsRepo{byID: map[string]*models.Transaction{}}
}

func (f *fakeTransactionsRepo) put(t models.Transaction) *models.Transaction {
	f.mu.Lock()
	defer f.mu.Unlock()
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now()
		t.UpdatedAt = t.CreatedAt
	}
	f.byID[t.ID] = &t
	c := t
	return &c
}

func (f *fakeTransactionsRepo) get(id string) *models.Transaction {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.byID[id]
	if !ok {
		return nil
	}
	c := *t
	return &c
}

func (f *fakeTransactionsRepo) deleteOwnedBy(userID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for id, t := range f.byID {
		if t.UserID == userID {
			delete(f.byID, id)
		}
	}
}

func (f *fakeTransactionsRepo) Create(ctx context.Context, t *models.Transaction) (*models.Transaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	f.writes++
	t.ID = uuid.NewString()
	t.CreatedAt = time.Now()
	t.UpdatedAt = t.CreatedAt
	c := *t
	f.byID[t.ID] = &c
	return t, nil
}

func (f *fakeTransactionsRepo) GetByID(ctx context.Context, id string, forUpdate bool) (*models.Transaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	t, ok := f.byID[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	c := *t
	return &c, nil
}

func (f *fakeTransactionsRepo) ListByUser(ctx context.Context, userID string, offset, limit int) ([]*models.Transaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	f.lastLimit = limit

	var all []*models.Transaction
	for _, t := range f.byID {
		if t.UserID == userID {
			c := *t
			all = append(all, &c)
		}
	}
	sort.Slice(all, func(i, j int) bool {
		a, b := all[i], all[j]
		if !a.Date.Equal(b.Date) {
			return a.Date.After(b.Date)
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.ID < b.ID
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

func (f *fakeTransactionsRepo) Update(ctx context.Context, t *models.Transaction) (*models.Transaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.byID[t.ID]; !ok {
		return nil, common.ErrorNotFound
	}
	f.writes++
	t.UpdatedAt = time.Now().Add(time.Millisecond)
	c := *t
	f.byID[t.ID] = &c
	return t, nil
}

func (f *fakeTransactionsRepo) Delete(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.byID[id]; !ok {
		return common.ErrorNotFound
	}
	f.writes++
	delete(f.byID, id)
	return nil
}

// --- manager ---

type fakeRepoManager struct {
	u *fakeUsersRepo
	t *fakeTransactionsRepo
}

func newFakeRepoManager() *fakeRepoManager {
	m := &fakeRepoManager{u: newFakeUsersRepo(), t: newFakeTransactionsRepo()}
	m.u.txs = m.t
	return m
}

func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error     { return nil }
func (m *fakeRepoManager) Users(db dbx.DBTX) users.Repository               { return m.u }
func (m *fakeRepoManager) Transactions(db dbx.DBTX) transactions.Repository { return m.t }

// --- helpers ---

func newSQLMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		db.Close()
	})
	return db, mock
}

func newTestLogger() logging.Logger {
	l, err := logging.New("slog", "debug", "text", &bytes.Buffer{})
	if err != nil {
		panic(err)
	}
	return l
}

type countingHasher struct {
	inner    auth.PasswordHasher
	mu       sync.Mutex
	verifies int
}

func newCountingHasher() *countingHasher {
	return &countingHasher{inner: auth.NewArgon2idHasher(testArgon2)}
}

func (h *countingHasher) Hash(pw string) (string, error) { return h.inner.Hash(pw) }

func (h *countingHasher) Verify(pw, encoded string) (bool, error) {
	h.mu.Lock()
	h.verifies++
	h.mu.Unlock()
	return h.inner.Verify(pw, encoded)
}

func (h *countingHasher) verifyCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.verifies
}

func mustHash(t *testing.T, pw string) string {
	t.Helper()
	h, err := auth.NewArgon2idHasher(testArgon2).Hash(pw)
	require.NoError(t, err)
	return h
}
