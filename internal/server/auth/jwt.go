package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/finwise/internal/common"
	"github.com/golang-jwt/jwt/v5"
)

// TokenIssuer signs and verifies HS256 access tokens whose subject is the
// user's email. It holds no mutable state and is safe for concurrent use.
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

type IssuerOption func(*TokenIssuer)

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) IssuerOption {
	return func(t *TokenIssuer) { t.now = now }
}

func NewTokenIssuer(secret []byte, ttl time.Duration, opts ...IssuerOption) *TokenIssuer {
	t := &TokenIssuer{secret: secret, ttl: ttl, now: time.Now}
	for _, o := range opts {
		o(t)
	}
	return t
}

// TTL is the default token lifetime.
func (t *TokenIssuer) TTL() time.Duration { return t.ttl }

// Issue signs a token for subject valid for the default lifetime.
func (t *TokenIssuer) Issue(subject string) (string, time.Time, error) {
	return t.IssueWithTTL(subject, t.ttl)
}

// IssueWithTTL signs a token for subject valid for ttl and returns it with
// its expiry.
func (t *TokenIssuer) IssueWithTTL(subject string, ttl time.Duration) (string, time.Time, error) {
	if subject == "" {
		return "", time.Time{}, errors.New("token subject is empty")
	}

	now := t.now()
	// exp travels as whole seconds; round up so the token lives at least ttl.
	exp := now.Add(ttl)
	if e := exp.Truncate(time.Second); !e.Equal(exp) {
		exp = e.Add(time.Second)
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(exp),
	})

	signed, err := token.SignedString(t.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}

	return signed, exp, nil
}

// Claims is what a verified token asserts.
type Claims struct {
	Subject  string
	IssuedAt time.Time
}

// Verify checks signature, algorithm and expiry and returns the subject.
// Expired tokens yield common.ErrTokenExpired; every other failure yields
// common.ErrInvalidToken.
func (t *TokenIssuer) Verify(tokenString string) (string, error) {
	c, err := t.VerifyClaims(tokenString)
	if err != nil {
		return "", err
	}
	return c.Subject, nil
}

// VerifyClaims is Verify returning the issue time as well. A token without
// iat reports the zero time.
func (t *TokenIssuer) VerifyClaims(tokenString string) (*Claims, error) {
	claims := &jwt.RegisteredClaims{}

	_, err := jwt.ParseWithClaims(tokenString, claims,
		func(*jwt.Token) (interface{}, error) { return t.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(t.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, common.ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %v", common.ErrInvalidToken, err)
	}

	if claims.Subject == "" {
		return nil, common.ErrInvalidToken
	}

	c := &Claims{Subject: claims.Subject}
	if claims.IssuedAt != nil {
		c.IssuedAt = claims.IssuedAt.Time
	}
	return c, nil
}
