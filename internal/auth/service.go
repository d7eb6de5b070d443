package auth

import (
	"context"
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/dukerupert/casa/internal/errs"
	"github.com/dukerupert/casa/internal/model"
	"github.com/dukerupert/casa/internal/store"
)

// Session is the result of a successful register or login.
type Session struct {
	User  *model.User
	Token string
}

// Service registers users, checks credentials and issues tokens.
type Service struct {
	users  *store.UserStore
	tokens *TokenIssuer
	cost   int
}

func NewService(users *store.UserStore, tokens *TokenIssuer, cost int) *Service {
	return &Service{users: users, tokens: tokens, cost: cost}
}

// Register creates a user. A taken email is a Conflict.
func (s *Service) Register(ctx context.Context, email, password string, isAdmin bool) (*Session, error) {
	email = model.NormalizeEmail(email)
	if email == "" {
		return nil, errs.New(errs.EInvalid, "email is required")
	}
	hash, err := s.HashPassword(password)
	if err != nil {
		return nil, err
	}

	u, err := s.users.Create(ctx, &model.User{Email: email, PasswordHash: hash, IsAdmin: isAdmin})
	if err != nil {
		return nil, err
	}
	return s.session(u)
}

// Login checks email and password.
func (s *Service) Login(ctx context.Context, email, password string) (*Session, error) {
	u, err := s.authenticate(ctx, email, password)
	if err != nil {
		return nil, err
	}
	return s.session(u)
}

// LoginAdmin is Login for administrators. The password is verified before
// the admin flag is looked at.
func (s *Service) LoginAdmin(ctx context.Context, email, password string) (*Session, error) {
	u, err := s.authenticate(ctx, email, password)
	if err != nil {
		return nil, err
	}
	if !u.IsAdmin {
		return nil, errs.New(errs.EForbidden, "user is not an administrator")
	}
	return s.session(u)
}

// Verify checks a token and returns the identity it carries.
func (s *Service) Verify(token string) (AuthContext, error) {
	return s.tokens.Parse(token)
}

// RequireAdmin loads the user and fails with Forbidden unless they are an
// admin. A user that no longer exists is Unauthorized.
func (s *Service) RequireAdmin(ctx context.Context, userID string) (*model.User, error) {
	if userID == "" {
		return nil, errs.New(errs.EUnauthorized, "authentication required")
	}
	u, err := s.users.ReadOne(ctx, userID, nil)
	if err != nil {
		switch errs.Code(err) {
		case errs.ENotFound, errs.ERemoved:
			return nil, errs.New(errs.EUnauthorized, "user no longer exists")
		}
		return nil, err
	}
	if !u.IsAdmin {
		return nil, errs.New(errs.EForbidden, "administrator access required")
	}
	return u, nil
}

// EnsureAdmin creates an administrator with the given credentials unless
// the email is already registered. It reports whether a user was created.
func (s *Service) EnsureAdmin(ctx context.Context, email, password string) (bool, error) {
	_, err := s.users.GetByEmail(ctx, email)
	if err == nil {
		return false, nil
	}
	if !errs.Is(err, errs.ENotFound) {
		return false, err
	}
	if _, err := s.Register(ctx, email, password, true); err != nil {
		return false, err
	}
	return true, nil
}

// HashPassword validates and hashes a password.
func (s *Service) HashPassword(password string) (string, error) {
	if strings.TrimSpace(password) == "" {
		return "", errs.New(errs.EInvalid, "password is required")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return "", errs.New(errs.EInvalid, "password is too long")
		}
		return "", errs.Wrap(err, errs.EInternal, "auth.HashPassword")
	}
	return string(hash), nil
}

func (s *Service) authenticate(ctx context.Context, email, password string) (*model.User, error) {
	if strings.TrimSpace(email) == "" || password == "" {
		return nil, errs.New(errs.EInvalid, "email and password are required")
	}
	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, errs.New(errs.EUnauthorized, "incorrect password")
	}
	return u, nil
}

func (s *Service) session(u *model.User) (*Session, error) {
	token, err := s.tokens.Issue(u.ID, u.Email)
	if err != nil {
		return nil, err
	}
	return &Session{User: u, Token: token}, nil
}
