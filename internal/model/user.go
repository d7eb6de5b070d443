package model

import (
	"strings"
	"time"

	"github.com/dukerupert/casa/internal/errs"
)

type User struct {
	Base
	Email        string `json:"email"`
	PasswordHash string `json:"passwordHash"`
	IsAdmin      bool   `json:"isAdmin"`
}

func (u *User) Key() string { return NormalizeEmail(u.Email) }

func (u *User) Validate() error {
	email := strings.TrimSpace(u.Email)
	if email == "" {
		return errs.New(errs.EInvalid, "email is required")
	}
	if !strings.Contains(email, "@") {
		return errs.New(errs.EInvalid, "email is invalid")
	}
	if u.PasswordHash == "" {
		return errs.New(errs.EInvalid, "password is required")
	}
	return nil
}

// UserView is the representation of a user returned to clients.
type UserView struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	IsAdmin   bool      `json:"isAdmin"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (u *User) View() UserView {
	return UserView{
		ID:        u.ID,
		Email:     u.Email,
		IsAdmin:   u.IsAdmin,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

// NormalizeEmail trims surrounding blanks. Emails are otherwise compared
// exactly as given, letter case included.
func NormalizeEmail(email string) string {
	return strings.TrimSpace(email)
}
