// Package auth holds the credential primitives of the server: the password
// policy, password hashing and access-token issuance.
package auth

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/dmitrijs2005/finwise/internal/common"
)

const (
	MinPasswordLength = 8
	MaxPasswordLength = 30

	// PasswordSymbols lists the characters that satisfy the symbol rule.
	PasswordSymbols = `!@#$%^&*(),.?":{}|<>`
)

// WeakPasswordError names the first policy rule a password broke.
type WeakPasswordError struct {
	Reason string
}

func (e *WeakPasswordError) Error() string {
	return "weak password: " + e.Reason
}

func (e *WeakPasswordError) Is(target error) bool {
	return target == common.ErrorValidation
}

// ValidatePassword checks the password policy. Rules are evaluated in order
// (length, digit, symbol) and the first violation is returned.
func ValidatePassword(password string) error {
	n := utf8.RuneCountInString(password)
	if n < MinPasswordLength || n > MaxPasswordLength {
		return &WeakPasswordError{
			Reason: fmt.Sprintf("password must be between %d and %d characters", MinPasswordLength, MaxPasswordLength),
		}
	}

	if strings.IndexFunc(password, unicode.IsDigit) < 0 {
		return &WeakPasswordError{Reason: "password must contain at least one digit"}
	}

	if !strings.ContainsAny(password, PasswordSymbols) {
		return &WeakPasswordError{Reason: "password must contain at least one special character"}
	}

	return nil
}
