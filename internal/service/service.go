// Package service holds the account and profile business rules.
// Persistence and token signing are injected by the composition root.
package service

import (
	"context"
	"errors"

	"LinkHub_Backend/internal/apperr"
	"LinkHub_Backend/internal/auth"
	"LinkHub_Backend/internal/models"
	"LinkHub_Backend/internal/storage"
)

// UserStore is the persistence boundary for user documents.
type UserStore interface {
	FindByUsername(ctx context.Context, username string) (*models.User, error)
	FindByID(ctx context.Context, id string) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	Save(ctx context.Context, user *models.User) error
	Delete(ctx context.Context, user *models.User) error
	IncrementLinkClick(ctx context.Context, username string, index int) (int, error)
}

// AvatarStore persists processed avatar images and returns the path clients fetch them from.
type AvatarStore interface {
	Put(ctx context.Context, key, contentType string, data []byte) (string, error)
}

type PasswordHasher interface {
	Hash(plaintext string) (string, error)
	Verify(plaintext, hashed string) bool
}

type TokenIssuer interface {
	Issue(userID string) (string, error)
}

var (
	_ UserStore      = (*storage.SQLiteUserStore)(nil)
	_ AvatarStore    = (*storage.LocalAvatarStore)(nil)
	_ AvatarStore    = (*storage.S3AvatarStore)(nil)
	_ PasswordHasher = (*auth.Hasher)(nil)
	_ TokenIssuer    = (*auth.TokenIssuer)(nil)
)

// storeError classifies store failures; anything unknown becomes Internal.
func storeError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, storage.ErrUserNotFound):
		return apperr.NewNotFound("User not found")
	case errors.Is(err, storage.ErrLinkNotFound):
		return apperr.NewNotFound("Link not found")
	case errors.Is(err, storage.ErrUsernameExists):
		return apperr.NewConflict("Username already exists", err)
	case errors.Is(err, storage.ErrEmailExists):
		return apperr.NewConflict("Email already exists", err)
	default:
		return apperr.NewInternal("store failure", err)
	}
}
