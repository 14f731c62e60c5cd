package client

import (
	"context"

	"github.com/dmitrijs2005/vidhub/internal/client/models"
)

// RegisterRequest is a registration form. AvatarPath is required by the
// server; CoverPath may be empty.
type RegisterRequest struct {
	FullName   string
	Email      string
	UserName   string
	Password   string
	AvatarPath string
	CoverPath  string
}

type Client interface {
	Register(ctx context.Context, req RegisterRequest) (*models.User, error)
	Login(ctx context.Context, userName, email, password string) (*models.LoginResult, error)
	Refresh(ctx context.Context, refreshToken string) (*models.Tokens, error)
	Logout(ctx context.Context, accessToken string) error
	CurrentUser(ctx context.Context, accessToken string) (*models.User, error)
	ChangePassword(ctx context.Context, accessToken, oldPassword, newPassword, confirmPassword string) error
	Ping(ctx context.Context) error
}
