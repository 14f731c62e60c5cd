// Package services contains the vidhub CLI use cases. The authentication
// service keeps the local session in step with the server: login stores
// the token pair, expired access tokens are refreshed once transparently,
// and logout or a rejected refresh clears the session.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/vidhub/internal/client/client"
	"github.com/dmitrijs2005/vidhub/internal/client/models"
	"github.com/dmitrijs2005/vidhub/internal/client/repositories/session"
)

var ErrNotLoggedIn = errors.New("not logged in")

// AuthService defines the account operations of the CLI.
type AuthService interface {
	Register(ctx context.Context, req client.RegisterRequest) (*models.User, error)
	Login(ctx context.Context, login, password string) (*models.User, error)
	WhoAmI(ctx context.Context) (*models.User, error)
	Refresh(ctx context.Context) error
	Logout(ctx context.Context) error
	ChangePassword(ctx context.Context, oldPassword, newPassword, confirmPassword string) error
	Session(ctx context.Context) (*models.Session, error)
	Ping(ctx context.Context) error
}

type authService struct {
	client client.Client
	db     *sql.DB
	now    func() time.Time
}

func NewAuthService(c client.Client, db *sql.DB) AuthService {
	return &authService{client: c, db: db, now: time.Now}
}

func (a *authService) sessions() session.Repository {
	return session.NewSQLiteRepository(a.db)
}

func (a *authService) Register(ctx context.Context, req client.RegisterRequest) (*models.User, error) {
	return a.client.Register(ctx, req)
}

// Login treats a login containing "@" as an email, anything else as a
// username, and stores the issued tokens.
func (a *authService) Login(ctx context.Context, login, password string) (*models.User, error) {
	login = strings.TrimSpace(login)

	var userName, email string
	if strings.Contains(login, "@") {
		email = login
	} else {
		userName = login
	}

	res, err := a.client.Login(ctx, userName, email, password)
	if err != nil {
		return nil, fmt.Errorf("login error: %w", err)
	}
	if res.User == nil {
		return nil, errors.New("login error: empty user in response")
	}

	err = a.sessions().Save(ctx, &models.Session{
		UserID:       res.User.ID,
		UserName:     res.User.UserName,
		AccessToken:  res.AccessToken,
		RefreshToken: res.RefreshToken,
		UpdatedAt:    a.now(),
	})
	if err != nil {
		return nil, fmt.Errorf("session saving error: %w", err)
	}
	return res.User, nil
}

func (a *authService) Session(ctx context.Context) (*models.Session, error) {
	s, err := a.sessions().Get(ctx)
	if err != nil {
		return nil, err
	}
	if s == nil {
		return nil, ErrNotLoggedIn
	}
	return s, nil
}

func (a *authService) WhoAmI(ctx context.Context) (*models.User, error) {
	var user *models.User
	err := a.withAccessToken(ctx, func(token string) error {
		var err error
		user, err = a.client.CurrentUser(ctx, token)
		return err
	})
	return user, err
}

// Refresh rotates the stored token pair. When the server rejects the
// refresh token the local session is dropped.
func (a *authService) Refresh(ctx context.Context) error {
	s, err := a.Session(ctx)
	if err != nil {
		return err
	}

	tokens, err := a.client.Refresh(ctx, s.RefreshToken)
	if err != nil {
		if errors.Is(err, client.ErrUnauthorized) {
			if cerr := a.sessions().Clear(ctx); cerr != nil {
				return cerr
			}
			return fmt.Errorf("%w: session expired", ErrNotLoggedIn)
		}
		return fmt.Errorf("refresh error: %w", err)
	}

	s.AccessToken = tokens.AccessToken
	s.RefreshToken = tokens.RefreshToken
	s.UpdatedAt = a.now()
	return a.sessions().Save(ctx, s)
}

// Logout revokes the session on the server when possible and always
// forgets it locally.
func (a *authService) Logout(ctx context.Context) error {
	var remoteErr error
	if _, err := a.Session(ctx); err == nil {
		remoteErr = a.withAccessToken(ctx, func(token string) error {
			return a.client.Logout(ctx, token)
		})
	}

	if err := a.sessions().Clear(ctx); err != nil {
		return err
	}
	if remoteErr != nil && !errors.Is(remoteErr, ErrNotLoggedIn) {
		return fmt.Errorf("server logout error: %w", remoteErr)
	}
	return nil
}

// ChangePassword changes the password on the server. The server revokes the
// refresh token, so the local session is dropped too.
func (a *authService) ChangePassword(ctx context.Context, oldPassword, newPassword, confirmPassword string) error {
	if newPassword != confirmPassword {
		return errors.New("new password and confirmation do not match")
	}

	err := a.withAccessToken(ctx, func(token string) error {
		return a.client.ChangePassword(ctx, token, oldPassword, newPassword, confirmPassword)
	})
	if err != nil {
		return err
	}
	return a.sessions().Clear(ctx)
}

func (a *authService) Ping(ctx context.Context) error {
	return a.client.Ping(ctx)
}

// withAccessToken runs fn with the stored access token. When the server
// rejects the access token it refreshes once and retries; other 401s, such
// as a wrong old password, are returned as is.
func (a *authService) withAccessToken(ctx context.Context, fn func(token string) error) error {
	s, err := a.Session(ctx)
	if err != nil {
		return err
	}

	err = fn(s.AccessToken)
	if !errors.Is(err, client.ErrTokenRejected) {
		return err
	}

	if err := a.Refresh(ctx); err != nil {
		return err
	}
	s, err = a.Session(ctx)
	if err != nil {
		return err
	}
	return fn(s.AccessToken)
}
