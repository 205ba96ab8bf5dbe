package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/dmitrijs2005/finwise/internal/logging"
	"github.com/dmitrijs2005/finwise/internal/server/models"
	"github.com/dmitrijs2005/finwise/internal/server/repositories/repomanager"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ExportURLValidity is how long a presigned statement link stays usable.
const ExportURLValidity = 15 * time.Minute

// ObjectStore is where statements are written.
type ObjectStore interface {
	Put(ctx context.Context, key string, body []byte, contentType string) error
	PresignGet(ctx context.Context, key string, ttl time.Duration) (string, error)
}

// ExportService writes the caller's transactions to the object store as a
// JSON statement and returns a presigned download link.
type ExportService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	store       ObjectStore
	log         logging.Logger
	now         func() time.Time
}

func NewExportService(db *sql.DB, m repomanager.RepositoryManager, store ObjectStore, log logging.Logger) *ExportService {
	return &ExportService{db: db, repomanager: m, store: store, log: log, now: time.Now}
}

type statement struct {
	UserID       string            `json:"user_id"`
	GeneratedAt  time.Time         `json:"generated_at"`
	Count        int               `json:"count"`
	Transactions []statementRecord `json:"transactions"`
}

type statementRecord struct {
	ID          string          `json:"id"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`
	Category    string          `json:"category"`
	Type        string          `json:"type"`
	Date        string          `json:"date"`
	IsRecurring bool            `json:"is_recurring"`
	EndDate     *string         `json:"end_date"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

func (s *ExportService) Export(ctx context.Context, caller *models.User) (*models.ExportResult, error) {
	now := s.now().UTC()
	doc := statement{UserID: caller.ID, GeneratedAt: now, Transactions: []statementRecord{}}

	repo := s.repomanager.Transactions(s.db)
	for offset := 0; ; offset += MaxListLimit {
		page, err := repo.ListByUser(ctx, caller.ID, offset, MaxListLimit)
		if err != nil {
			return nil, storeError("list transactions", err)
		}
		for _, t := range page {
			doc.Transactions = append(doc.Transactions, toStatementRecord(t))
		}
		if len(page) < MaxListLimit {
			break
		}
	}
	doc.Count = len(doc.Transactions)

	body, err := json.Marshal(doc)
	if err != nil {
		return nil, storeError("encode statement", err)
	}

	key := fmt.Sprintf("exports/%s/%s-%s.json", caller.ID, now.Format("20060102T150405Z"), uuid.NewString())
	if err := s.store.Put(ctx, key, body, "application/json"); err != nil {
		return nil, storeError("upload statement", err)
	}

	url, err := s.store.PresignGet(ctx, key, ExportURLValidity)
	if err != nil {
		return nil, storeError("presign statement", err)
	}

	s.log.Info(ctx, "statement exported", "user_id", caller.ID, "count", doc.Count)
	return &models.ExportResult{Key: key, URL: url, ExpiresAt: now.Add(ExportURLValidity), Count: doc.Count}, nil
}

func toStatementRecord(t *models.Transaction) statementRecord {
	r := statementRecord{
		ID:          t.ID,
		Amount:      t.Amount,
		Description: t.Description,
		Category:    t.Category,
		Type:        string(t.Type),
		Date:        t.Date.Format(models.DateLayout),
		IsRecurring: t.IsRecurring,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
	if t.EndDate != nil {
		d := t.EndDate.Format(models.DateLayout)
		r.EndDate = &d
	}
	return r
}
