// Package common defines shared constants and sentinel errors used across
// the service, repository and transport layers of FinWise. Callers should use
// errors.Is to match these values.
package common

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// Repository-level errors.
	ErrorNotFound      = errors.New("not found")
	ErrorAlreadyExists = errors.New("already exists")

	// Service-level errors.
	ErrorInternal        = errors.New("internal error")
	ErrorValidation      = errors.New("validation error")
	ErrorAuthentication  = errors.New("incorrect email or password")
	ErrorUnauthenticated = errors.New("not authenticated")
	ErrorForbidden       = errors.New("forbidden")

	// Token errors. ErrTokenExpired wraps ErrInvalidToken.
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = fmt.Errorf("token expired: %w", ErrInvalidToken)
)

// ValidationError reports field-level input problems. The map key is the
// JSON field name.
type ValidationError struct {
	Fields map[string]string
}

// NewValidationError builds a ValidationError for a single field.
func NewValidationError(field, reason string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: reason}}
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return ErrorValidation.Error()
	}
	parts := make([]string, 0, len(e.Fields))
	for _, k := range sortedKeys(e.Fields) {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "validation error: " + strings.Join(parts, "; ")
}

// Is makes every ValidationError match ErrorValidation.
func (e *ValidationError) Is(target error) bool {
	return target == ErrorValidation
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
