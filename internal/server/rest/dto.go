package rest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/dmitrijs2005/finwise/internal/common"
	"github.com/dmitrijs2005/finwise/internal/server/models"
	"github.com/dmitrijs2005/finwise/internal/server/services"
	"github.com/shopspring/decimal"
)

// dateValue is a calendar date. It accepts "2006-01-02" or an RFC 3339
// timestamp, whose date part is kept.
type dateValue struct {
	time.Time
}

func (d *dateValue) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("%w: date must be a string", common.ErrorValidation)
	}
	t, err := parseDate(s)
	if err != nil {
		return err
	}
	d.Time = t
	return nil
}

func parseDate(s string) (time.Time, error) {
	if t, err := time.Parse(models.DateLayout, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: invalid date %q", common.ErrorValidation, s)
	}
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
}

// nullableDate tells an absent key from an explicit null.
type nullableDate struct {
	Set   bool
	Value *time.Time
}

func (n *nullableDate) UnmarshalJSON(b []byte) error {
	n.Set = true
	if bytes.Equal(b, []byte("null")) {
		n.Value = nil
		return nil
	}
	var d dateValue
	if err := d.UnmarshalJSON(b); err != nil {
		return err
	}
	n.Value = &d.Time
	return nil
}

func formatDate(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(models.DateLayout)
	return &s
}

// --- auth ---

type tokenRequest struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password"`
}

func (r tokenRequest) login() string {
	if r.Email != "" {
		return r.Email
	}
	return r.Username
}

type tokenResponse struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresAt   time.Time `json:"expires_at"`
}

func toTokenResponse(t *services.TokenResponse) tokenResponse {
	return tokenResponse{AccessToken: t.AccessToken, TokenType: t.TokenType, ExpiresAt: t.ExpiresAt}
}

// --- users ---

type registerRequest struct {
	Email     string     `json:"email"`
	FirstName string     `json:"first_name"`
	LastName  string     `json:"last_name"`
	Birthday  *dateValue `json:"birthday"`
	Password  string     `json:"password"`
}

func (r registerRequest) toModel() models.NewUser {
	n := models.NewUser{
		Email:     r.Email,
		FirstName: r.FirstName,
		LastName:  r.LastName,
		Password:  r.Password,
	}
	if r.Birthday != nil {
		b := r.Birthday.Time
		n.Birthday = &b
	}
	return n
}

type userPatchRequest struct {
	FirstName *string      `json:"first_name"`
	LastName  *string      `json:"last_name"`
	Birthday  nullableDate `json:"birthday"`
	Password  *string      `json:"password"`
}

func (r userPatchRequest) toModel() models.UserPatch {
	return models.UserPatch{
		FirstName:     r.FirstName,
		LastName:      r.LastName,
		Birthday:      r.Birthday.Value,
		ClearBirthday: r.Birthday.Set && r.Birthday.Value == nil,
		Password:      r.Password,
	}
}

type userResponse struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Birthday  *string   `json:"birthday"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func toUserResponse(u *models.User) userResponse {
	return userResponse{
		ID:        u.ID,
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Birthday:  formatDate(u.Birthday),
		IsActive:  u.IsActive,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

// --- transactions ---

// transactionRequest is the body of create and update. A user_id sent by
// the client is not decoded.
type transactionRequest struct {
	Amount      *decimal.Decimal        `json:"amount"`
	Description *string                 `json:"description"`
	Category    *string                 `json:"category"`
	Type        *models.TransactionType `json:"type"`
	Date        *dateValue              `json:"date"`
	IsRecurring *bool                   `json:"is_recurring"`
	EndDate     nullableDate            `json:"end_date"`
}

func (r transactionRequest) toNew() (models.NewTransaction, error) {
	var n models.NewTransaction
	if r.Amount == nil {
		return n, common.NewValidationError("amount", "cannot be blank")
	}
	n.Amount = *r.Amount
	if r.Description != nil {
		n.Description = *r.Description
	}
	if r.Category != nil {
		n.Category = *r.Category
	}
	if r.Type != nil {
		n.Type = *r.Type
	}
	if r.Date != nil {
		n.Date = r.Date.Time
	}
	if r.IsRecurring != nil {
		n.IsRecurring = *r.IsRecurring
	}
	n.EndDate = r.EndDate.Value
	return n, nil
}

func (r transactionRequest) toPatch() models.TransactionPatch {
	p := models.TransactionPatch{
		Amount:       r.Amount,
		Description:  r.Description,
		Category:     r.Category,
		Type:         r.Type,
		IsRecurring:  r.IsRecurring,
		EndDate:      r.EndDate.Value,
		ClearEndDate: r.EndDate.Set && r.EndDate.Value == nil,
	}
	if r.Date != nil {
		d := r.Date.Time
		p.Date = &d
	}
	return p
}

type transactionResponse struct {
	ID          string          `json:"id"`
	UserID      string          `json:"user_id"`
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

func toTransactionResponse(t *models.Transaction) transactionResponse {
	return transactionResponse{
		ID:          t.ID,
		UserID:      t.UserID,
		Amount:      t.Amount,
		Description: t.Description,
		Category:    t.Category,
		Type:        string(t.Type),
		Date:        t.Date.Format(models.DateLayout),
		IsRecurring: t.IsRecurring,
		EndDate:     formatDate(t.EndDate),
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
}

type exportResponse struct {
	URL       string    `json:"url"`
	Key       string    `json:"key"`
	ExpiresAt time.Time `json:"expires_at"`
	Count     int       `json:"count"`
}
