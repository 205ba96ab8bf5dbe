package models

import (
	"errors"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
)

// User is an account. PasswordHash always holds a hasher digest.
type User struct {
	ID           string     `json:"id"`
	Email        string     `json:"email"`
	FirstName    string     `json:"first_name"`
	LastName     string     `json:"last_name"`
	Birthday     *time.Time `json:"birthday"`
	PasswordHash string     `json:"-"`
	IsActive     bool       `json:"is_active"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// NewUser is the registration input. Password is cleartext and is checked
// against the password policy by the caller before hashing.
type NewUser struct {
	Email     string     `json:"email"`
	FirstName string     `json:"first_name"`
	LastName  string     `json:"last_name"`
	Birthday  *time.Time `json:"birthday"`
	Password  string     `json:"password"`
}

func (u NewUser) Validate() error {
	return asValidationError(validation.ValidateStruct(&u,
		validation.Field(&u.Email, validation.Required, validation.Length(3, 100), is.Email),
		validation.Field(&u.FirstName, nameRules...),
		validation.Field(&u.LastName, nameRules...),
		validation.Field(&u.Birthday, validation.By(notInFuture)),
		validation.Field(&u.Password, validation.Required),
	))
}

var nameRules = []validation.Rule{
	validation.Required,
	validation.RuneLength(1, 50),
	validation.Match(nameRegexp).Error("must contain only letters, spaces, hyphens and apostrophes"),
}

// UserPatch carries a partial profile update. Nil fields are left as they
// are; ClearBirthday removes the stored birthday. The email is the token
// subject and cannot be changed.
type UserPatch struct {
	FirstName     *string
	LastName      *string
	Birthday      *time.Time
	ClearBirthday bool
	Password      *string
}

// Apply copies the set fields onto u. The password is not applied; it
// needs hashing first.
func (p UserPatch) Apply(u *User) {
	if p.FirstName != nil {
		u.FirstName = *p.FirstName
	}
	if p.LastName != nil {
		u.LastName = *p.LastName
	}
	if p.ClearBirthday {
		u.Birthday = nil
	} else if p.Birthday != nil {
		b := *p.Birthday
		u.Birthday = &b
	}
}

// Validate checks the profile fields of u after a patch was applied.
func (u User) Validate() error {
	return asValidationError(validation.ValidateStruct(&u,
		validation.Field(&u.Email, validation.Required, validation.Length(3, 100), is.Email),
		validation.Field(&u.FirstName, nameRules...),
		validation.Field(&u.LastName, nameRules...),
		validation.Field(&u.Birthday, validation.By(notInFuture)),
	))
}

func notInFuture(value interface{}) error {
	d, _ := value.(*time.Time)
	if d != nil && d.After(time.Now()) {
		return errors.New("must not be in the future")
	}
	return nil
}
