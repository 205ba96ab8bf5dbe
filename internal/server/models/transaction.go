package models

import (
	"errors"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/shopspring/decimal"
)

type TransactionType string

const (
	TypeIncome  TransactionType = "income"
	TypeExpense TransactionType = "expense"
)

// maxAmount is the first value that does not fit NUMERIC(14,2).
var maxAmount = decimal.New(1, 12)

type Transaction struct {
	ID          string
	UserID      string
	Amount      decimal.Decimal
	Description string
	Category    string
	Type        TransactionType
	Date        time.Time
	IsRecurring bool
	EndDate     *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// NewTransaction is the creation input. The owner is never part of it.
type NewTransaction struct {
	Amount      decimal.Decimal
	Description string
	Category    string
	Type        TransactionType
	Date        time.Time
	IsRecurring bool
	EndDate     *time.Time
}

func (n NewTransaction) Validate() error {
	return validateTransaction(n.Amount, n.Description, n.Category, n.Type, n.Date, n.EndDate)
}

// Validate checks a stored or merged record.
func (t Transaction) Validate() error {
	return validateTransaction(t.Amount, t.Description, t.Category, t.Type, t.Date, t.EndDate)
}

type transactionFields struct {
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`
	Category    string          `json:"category"`
	Type        TransactionType `json:"type"`
	Date        time.Time       `json:"date"`
	EndDate     *time.Time      `json:"end_date"`
}

func validateTransaction(amount decimal.Decimal, description, category string, typ TransactionType, date time.Time, endDate *time.Time) error {
	f := transactionFields{
		Amount:      amount,
		Description: description,
		Category:    category,
		Type:        typ,
		Date:        date,
		EndDate:     endDate,
	}

	return asValidationError(validation.ValidateStruct(&f,
		validation.Field(&f.Amount, validation.By(func(interface{}) error {
			if f.Amount.Abs().GreaterThanOrEqual(maxAmount) {
				return errors.New("must be less than 10^12 in absolute value")
			}
			if !f.Amount.Equal(f.Amount.Round(2)) {
				return errors.New("must have at most 2 decimal places")
			}
			return nil
		})),
		validation.Field(&f.Description, validation.RuneLength(0, 255)),
		validation.Field(&f.Category, validation.Required, validation.RuneLength(1, 50)),
		validation.Field(&f.Type, validation.Required, validation.In(TypeIncome, TypeExpense).Error("must be income or expense")),
		validation.Field(&f.Date, validation.Required),
		validation.Field(&f.EndDate, validation.By(func(interface{}) error {
			if f.EndDate != nil && f.EndDate.Before(f.Date) {
				return errors.New("must not be before date")
			}
			return nil
		})),
	))
}

// TransactionPatch carries a partial update. Nil fields are left as they
// are; ClearEndDate removes the stored end date.
type TransactionPatch struct {
	Amount       *decimal.Decimal
	Description  *string
	Category     *string
	Type         *TransactionType
	Date         *time.Time
	IsRecurring  *bool
	EndDate      *time.Time
	ClearEndDate bool
}

// Apply copies the set fields onto t.
func (p TransactionPatch) Apply(t *Transaction) {
	if p.Amount != nil {
		t.Amount = *p.Amount
	}
	if p.Description != nil {
		t.Description = *p.Description
	}
	if p.Category != nil {
		t.Category = *p.Category
	}
	if p.Type != nil {
		t.Type = *p.Type
	}
	if p.Date != nil {
		t.Date = *p.Date
	}
	if p.IsRecurring != nil {
		t.IsRecurring = *p.IsRecurring
	}
	if p.ClearEndDate {
		t.EndDate = nil
	} else if p.EndDate != nil {
		d := *p.EndDate
		t.EndDate = &d
	}
}

// ExportResult describes an uploaded statement.
type ExportResult struct {
	Key       string
	URL       string
	ExpiresAt time.Time
	Count     int
}
