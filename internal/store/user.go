package store

import (
	"context"

	"github.com/dukerupert/casa/internal/model"
)

// UserStore is the users repository. Users are hard deleted and their email
// is unique.
type UserStore struct {
	*Repository[*model.User]
}

func NewUserStore(docs *DocumentStore) *UserStore {
	repo := NewRepository(docs, model.Users, "user", HardDelete, func() *model.User { return &model.User{} })
	repo.conflict = "email already registered"
	return &UserStore{Repository: repo}
}

// GetByEmail returns the user registered with email.
func (s *UserStore) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	return s.FindOne(ctx, Filter{Key: model.NormalizeEmail(email)}, nil)
}
