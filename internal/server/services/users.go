package services

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/finwise/internal/dbx"
	"github.com/dmitrijs2005/finwise/internal/logging"
	"github.com/dmitrijs2005/finwise/internal/server/auth"
	"github.com/dmitrijs2005/finwise/internal/server/models"
	"github.com/dmitrijs2005/finwise/internal/server/repositories/repomanager"
)

// UserService handles registration and the caller's own profile.
type UserService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	hasher      auth.PasswordHasher
	log         logging.Logger
}

func NewUserService(db *sql.DB, m repomanager.RepositoryManager, hasher auth.PasswordHasher, log logging.Logger) *UserService {
	return &UserService{db: db, repomanager: m, hasher: hasher, log: log}
}

// Register validates n, enforces the password policy and stores the user
// with a hashed password. A taken email is common.ErrorAlreadyExists.
func (s *UserService) Register(ctx context.Context, n models.NewUser) (*models.User, error) {
	if err := n.Validate(); err != nil {
		return nil, err
	}
	if err := auth.ValidatePassword(n.Password); err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(n.Password)
	if err != nil {
		return nil, storeError("hash password", err)
	}

	u := &models.User{
		Email:        n.Email,
		FirstName:    n.FirstName,
		LastName:     n.LastName,
		Birthday:     n.Birthday,
		PasswordHash: hash,
		IsActive:     true,
	}

	created, err := s.repomanager.Users(s.db).Create(ctx, u)
	if err != nil {
		return nil, storeError("create user", err)
	}

	s.log.Info(ctx, "user registered", "user_id", created.ID)
	return created, nil
}

// Profile reloads the caller's record.
func (s *UserService) Profile(ctx context.Context, caller *models.User) (*models.User, error) {
	u, err := s.repomanager.Users(s.db).GetByID(ctx, caller.ID, false)
	if err != nil {
		return nil, storeError("load profile", err)
	}
	return u, nil
}

// UpdateProfile applies patch to the caller's record with the row locked.
// A new password is checked against the policy and re-hashed.
func (s *UserService) UpdateProfile(ctx context.Context, caller *models.User, patch models.UserPatch) (*models.User, error) {
	var updated *models.User

	err := dbx.WithTx(ctx, s.db, dbx.ReadCommitted, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Users(tx)

		u, err := repo.GetByID(ctx, caller.ID, true)
		if err != nil {
			return storeError("load profile", err)
		}

		patch.Apply(u)
		if err := u.Validate(); err != nil {
			return err
		}

		if patch.Password != nil {
			if err := auth.ValidatePassword(*patch.Password); err != nil {
				return err
			}
			hash, err := s.hasher.Hash(*patch.Password)
			if err != nil {
				return storeError("hash password", err)
			}
			u.PasswordHash = hash
		}

		updated, err = repo.Update(ctx, u)
		if err != nil {
			return storeError("update profile", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return updated, nil
}

// DeleteAccount removes the caller and, through the foreign key, all of
// their transactions. The deleted profile is returned.
func (s *UserService) DeleteAccount(ctx context.Context, caller *models.User) (*models.User, error) {
	var deleted *models.User

	err := dbx.WithTx(ctx, s.db, dbx.ReadCommitted, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Users(tx)

		u, err := repo.GetByID(ctx, caller.ID, true)
		if err != nil {
			return storeError("load profile", err)
		}
		if err := repo.Delete(ctx, u.ID); err != nil {
			return storeError("delete user", err)
		}
		deleted = u
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info(ctx, "user deleted", "user_id", deleted.ID)
	return deleted, nil
}

// SetActive enables or disables the account owning email. Disabled users
// can neither log in nor use tokens issued earlier.
func (s *UserService) SetActive(ctx context.Context, email string, active bool) (*models.User, error) {
	u, err := s.repomanager.Users(s.db).SetActive(ctx, email, active)
	if err != nil {
		return nil, storeError(fmt.Sprintf("set active=%t", active), err)
	}
	s.log.Info(ctx, "user activity changed", "user_id", u.ID, "active", active)
	return u, nil
}
