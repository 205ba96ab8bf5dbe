package services

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"time"

	"github.com/dmitrijs2005/finwise/internal/common"
	"github.com/dmitrijs2005/finwise/internal/logging"
	"github.com/dmitrijs2005/finwise/internal/server/auth"
	"github.com/dmitrijs2005/finwise/internal/server/models"
	"github.com/dmitrijs2005/finwise/internal/server/repositories/repomanager"
)

// TokenResponse is what a successful login returns.
type TokenResponse struct {
	AccessToken string
	TokenType   string
	ExpiresAt   time.Time
}

// TokenIssuer is the part of auth.TokenIssuer used by the services.
type TokenIssuer interface {
	Issue(subject string) (string, time.Time, error)
	VerifyClaims(token string) (*auth.Claims, error)
}

// AuthService checks credentials and mints access tokens. It never writes.
type AuthService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	hasher      auth.PasswordHasher
	issuer      TokenIssuer
	log         logging.Logger

	dummyOnce sync.Once
	dummyHash string
}

func NewAuthService(db *sql.DB, m repomanager.RepositoryManager, hasher auth.PasswordHasher, issuer TokenIssuer, log logging.Logger) *AuthService {
	return &AuthService{db: db, repomanager: m, hasher: hasher, issuer: issuer, log: log}
}

// Authenticate returns the user owning email when password matches and the
// account is active. Every credential failure is common.ErrorAuthentication.
func (s *AuthService) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	user, err := s.repomanager.Users(s.db).GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			// equalise timing with the found-user path
			_, _ = s.hasher.Verify(password, s.dummy())
			return nil, common.ErrorAuthentication
		}
		return nil, storeError("load user", err)
	}

	ok, err := s.hasher.Verify(password, user.PasswordHash)
	if err != nil {
		s.log.Error(ctx, "stored password hash unreadable", "user_id", user.ID, "err", err)
		return nil, common.ErrorAuthentication
	}
	if !ok || !user.IsActive {
		return nil, common.ErrorAuthentication
	}

	return user, nil
}

// Login authenticates and issues a bearer token for the user's email.
func (s *AuthService) Login(ctx context.Context, email, password string) (*TokenResponse, error) {
	user, err := s.Authenticate(ctx, email, password)
	if err != nil {
		return nil, err
	}

	token, exp, err := s.issuer.Issue(user.Email)
	if err != nil {
		return nil, storeError("issue token", err)
	}

	s.log.Info(ctx, "user logged in", "user_id", user.ID)
	return &TokenResponse{AccessToken: token, TokenType: common.BearerScheme, ExpiresAt: exp}, nil
}

func (s *AuthService) dummy() string {
	s.dummyOnce.Do(func() {
		h, err := s.hasher.Hash("finwise-timing-equaliser-1!")
		if err != nil {
			s.log.Warn(context.Background(), "dummy hash unavailable", "err", err)
			return
		}
		s.dummyHash = h
	})
	return s.dummyHash
}
