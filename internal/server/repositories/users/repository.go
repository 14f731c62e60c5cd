// Package users is the credential store: account rows, password hashes and
// the single active refresh token per user.
package users

import (
	"context"

	"github.com/dmitrijs2005/vidhub/internal/server/models"
)

// Repository persists users. Username and email lookups are
// case-insensitive; lookups that match nothing return common.ErrorNotFound
// and unique-key clashes return common.ErrConflict.
type Repository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetByID(ctx context.Context, id string) (*models.User, error)
	// GetByLogin finds the user whose username equals userName or whose
	// email equals email.
	GetByLogin(ctx context.Context, userName, email string) (*models.User, error)
	Exists(ctx context.Context, userName, email string) (bool, error)

	UpdateProfile(ctx context.Context, id string, fullName, userName *string) error
	UpdateAvatar(ctx context.Context, id, avatarURL string) error
	// UpdatePassword stores a new hash and clears the refresh token.
	UpdatePassword(ctx context.Context, id, passwordHash string) error

	SetRefreshToken(ctx context.Context, id, token string) error
	// SwapRefreshToken replaces the stored refresh token with next only if it
	// still equals expected. It reports whether the swap happened.
	SwapRefreshToken(ctx context.Context, id, expected, next string) (bool, error)
}
