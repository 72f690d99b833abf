package repository

import (
	"context"

	"resourcehub/internal/models"
	"resourcehub/internal/store"
)

const UsersPath = "users"

// UserRepository defines write operations on user profiles.
type UserRepository interface {
	Save(ctx context.Context, user *models.User) error
	SetRole(ctx context.Context, id, role string) error
	Delete(ctx context.Context, id string) error
}

type userRepository struct {
	store store.Store
}

// NewUserRepository returns a UserRepository backed by s.
func NewUserRepository(s store.Store) UserRepository {
	return &userRepository{store: s}
}

// Save writes the profile at users/{id}; the id is the auth provider's uid.
func (r *userRepository) Save(ctx context.Context, user *models.User) error {
	if user.ID == "" {
		return models.NewValidationError("user id is required")
	}
	doc := *user
	doc.ID = ""
	return r.store.Set(ctx, store.Join(UsersPath, user.ID), doc)
}

func (r *userRepository) SetRole(ctx context.Context, id, role string) error {
	return r.store.Update(ctx, store.Join(UsersPath, id), map[string]any{"role": role})
}

func (r *userRepository) Delete(ctx context.Context, id string) error {
	return r.store.Remove(ctx, store.Join(UsersPath, id))
}
