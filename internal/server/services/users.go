// Package services holds the account use cases: registration, the session
// lifecycle (login, refresh, logout, password change), request
// authentication and profile queries.
package services

import (
	"context"
	"crypto/subtle"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/vidhub/internal/common"
	"github.com/dmitrijs2005/vidhub/internal/dbx"
	"github.com/dmitrijs2005/vidhub/internal/logging"
	"github.com/dmitrijs2005/vidhub/internal/server/auth"
	"github.com/dmitrijs2005/vidhub/internal/server/config"
	"github.com/dmitrijs2005/vidhub/internal/server/media"
	"github.com/dmitrijs2005/vidhub/internal/server/models"
	"github.com/dmitrijs2005/vidhub/internal/server/repositories/repomanager"
)

type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

type LoginResult struct {
	User *models.PublicUser `json:"user"`
	TokenPair
}

// RegisterInput carries a registration form. AvatarPath and CoverPath are
// local temp files produced by the transport.
type RegisterInput struct {
	FullName   string
	Email      string
	UserName   string
	Password   string
	AvatarPath string
	CoverPath  string
}

func (in *RegisterInput) normalize() {
	in.FullName = strings.TrimSpace(in.FullName)
	in.Email = normalizeLogin(in.Email)
	in.UserName = normalizeLogin(in.UserName)
}

// ProfileUpdate lists the editable profile fields; nil means unchanged.
type ProfileUpdate struct {
	FullName *string
	UserName *string
}

type UserService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	tokens      *auth.TokenService
	media       media.Store
	logger      logging.Logger
}

func NewUserService(db *sql.DB, m repomanager.RepositoryManager, cfg *config.Config, store media.Store, logger logging.Logger) *UserService {
	return &UserService{
		db:          db,
		repomanager: m,
		tokens: auth.NewTokenService(auth.TokenConfig{
			AccessSecret:  []byte(cfg.AccessTokenSecret),
			RefreshSecret: []byte(cfg.RefreshTokenSecret),
			AccessTTL:     cfg.AccessTokenValidityDuration,
			RefreshTTL:    cfg.RefreshTokenValidityDuration,
		}),
		media:  store,
		logger: logger.With("module", "users"),
	}
}

func (s *UserService) Register(ctx context.Context, in RegisterInput) (_ *models.PublicUser, err error) {
	defer func() { recordOperation("register", err) }()

	in.normalize()
	if in.FullName == "" || in.Email == "" || in.UserName == "" || in.Password == "" {
		return nil, fmt.Errorf("%w: fullname, email, username and password are required", common.ErrValidation)
	}
	if in.AvatarPath == "" {
		return nil, fmt.Errorf("%w: avatar file is required", common.ErrValidation)
	}

	repo := s.repomanager.Users(s.db)

	exists, err := repo.Exists(ctx, in.UserName, in.Email)
	if err != nil {
		return nil, fmt.Errorf("error checking user: %w", err)
	}
	if exists {
		return nil, fmt.Errorf("%w: user with email or username already exists", common.ErrConflict)
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}

	avatar, err := s.media.Store(ctx, in.AvatarPath)
	if err != nil || avatar == nil {
		s.logger.Warn(ctx, "avatar upload failed", "error", err)
		return nil, fmt.Errorf("%w: avatar file is required", common.ErrValidation)
	}

	var coverURL string
	cover, err := s.media.Store(ctx, in.CoverPath)
	if err != nil {
		s.logger.Warn(ctx, "cover image upload failed, continuing without it", "error", err)
	} else if cover != nil {
		coverURL = cover.URL
	}

	user, err := repo.Create(ctx, &models.User{
		UserName:     in.UserName,
		Email:        in.Email,
		FullName:     in.FullName,
		Avatar:       avatar.URL,
		CoverImage:   coverURL,
		PasswordHash: hash,
	})
	if err != nil {
		return nil, fmt.Errorf("error creating user: %w", err)
	}

	s.logger.Info(ctx, "user registered", "user_id", user.ID)
	return user.Public(), nil
}

// Login authenticates by username or email. Whichever identifiers are
// given are matched case-insensitively.
func (s *UserService) Login(ctx context.Context, userName, email, password string) (_ *LoginResult, err error) {
	defer func() { recordOperation("login", err) }()

	userName, email = normalizeLogin(userName), normalizeLogin(email)
	if userName == "" && email == "" {
		return nil, fmt.Errorf("%w: username or email is required", common.ErrValidation)
	}

	user, err := s.repomanager.Users(s.db).GetByLogin(ctx, userName, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, fmt.Errorf("%w: user does not exist", common.ErrorNotFound)
		}
		return nil, fmt.Errorf("error searching user: %w", err)
	}

	if !auth.CheckPassword(password, user.PasswordHash) {
		return nil, fmt.Errorf("%w: invalid user credentials", common.ErrorUnauthorized)
	}

	pair, err := s.generateTokenPair(user)
	if err != nil {
		return nil, err
	}
	if err := s.repomanager.Users(s.db).SetRefreshToken(ctx, user.ID, pair.RefreshToken); err != nil {
		return nil, fmt.Errorf("error saving refresh token: %w", err)
	}

	s.logger.Info(ctx, "user logged in", "user_id", user.ID)
	return &LoginResult{User: user.Public(), TokenPair: *pair}, nil
}

// RefreshToken rotates the session: the presented refresh token must be the
// one currently stored, and it is atomically replaced by a new one.
func (s *UserService) RefreshToken(ctx context.Context, presented string) (_ *TokenPair, err error) {
	defer func() { recordOperation("refresh", err) }()

	if presented == "" {
		return nil, fmt.Errorf("%w: refresh token is required", common.ErrorUnauthorized)
	}

	claims, err := s.tokens.Verify(presented, auth.RefreshToken)
	if err != nil {
		return nil, err
	}

	repo := s.repomanager.Users(s.db)

	user, err := repo.GetByID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, fmt.Errorf("%w: user does not exist", common.ErrorNotFound)
		}
		return nil, fmt.Errorf("error searching user: %w", err)
	}

	if subtle.ConstantTimeCompare([]byte(user.RefreshToken), []byte(presented)) != 1 {
		return nil, fmt.Errorf("%w: refresh token is expired or used", common.ErrorUnauthorized)
	}

	pair, err := s.generateTokenPair(user)
	if err != nil {
		return nil, err
	}

	swapped, err := repo.SwapRefreshToken(ctx, user.ID, presented, pair.RefreshToken)
	if err != nil {
		return nil, fmt.Errorf("error rotating refresh token: %w", err)
	}
	if !swapped {
		s.logger.Warn(ctx, "concurrent refresh lost the race", "user_id", user.ID)
		return nil, fmt.Errorf("%w: refresh token is expired or used", common.ErrorUnauthorized)
	}

	return pair, nil
}

// Logout revokes the stored refresh token. Repeating it is harmless.
func (s *UserService) Logout(ctx context.Context, userID string) (err error) {
	defer func() { recordOperation("logout", err) }()

	if err := s.repomanager.Users(s.db).SetRefreshToken(ctx, userID, ""); err != nil {
		return fmt.Errorf("error clearing refresh token: %w", err)
	}
	s.logger.Info(ctx, "user logged out", "user_id", userID)
	return nil
}

// ChangePassword replaces the password and revokes the stored refresh token,
// so every other session has to log in again.
func (s *UserService) ChangePassword(ctx context.Context, userID, oldPassword, newPassword, confirmPassword string) (err error) {
	defer func() { recordOperation("change_password", err) }()

	if newPassword != confirmPassword {
		return fmt.Errorf("%w: new password and confirm password must match", common.ErrValidation)
	}
	if newPassword == "" {
		return fmt.Errorf("%w: new password is required", common.ErrValidation)
	}

	repo := s.repomanager.Users(s.db)

	user, err := repo.GetByID(ctx, userID)
	if errors.Is(err, common.ErrorNotFound) {
		return fmt.Errorf("%w: user no longer exists", common.ErrorUnauthorized)
	}
	if err != nil {
		return fmt.Errorf("error searching user: %w", err)
	}

	if !auth.CheckPassword(oldPassword, user.PasswordHash) {
		return fmt.Errorf("%w: invalid old password", common.ErrorUnauthorized)
	}

	hash, err := auth.HashPassword(newPassword)
	if err != nil {
		return err
	}

	if err := repo.UpdatePassword(ctx, user.ID, hash); err != nil {
		return fmt.Errorf("error updating password: %w", err)
	}

	s.logger.Info(ctx, "password changed", "user_id", user.ID)
	return nil
}

// Authenticate resolves an access token to its user. Every failure wraps
// common.ErrorUnauthorized; token failures also keep their cause
// (common.ErrTokenExpired or common.ErrInvalidToken).
func (s *UserService) Authenticate(ctx context.Context, accessToken string) (*models.PublicUser, error) {
	if accessToken == "" {
		return nil, fmt.Errorf("%w: access token is required", common.ErrorUnauthorized)
	}

	claims, err := s.tokens.Verify(accessToken, auth.AccessToken)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrorUnauthorized, err)
	}

	user, err := s.GetCurrentUser(ctx, claims.Subject)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrorUnauthorized, err)
	}

	return user, nil
}

func (s *UserService) GetCurrentUser(ctx context.Context, userID string) (*models.PublicUser, error) {
	user, err := s.repomanager.Users(s.db).GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("error searching user: %w", err)
	}
	return user.Public(), nil
}

func (s *UserService) UpdateProfile(ctx context.Context, userID string, upd ProfileUpdate) (_ *models.PublicUser, err error) {
	defer func() { recordOperation("update_profile", err) }()

	if upd.FullName == nil && upd.UserName == nil {
		return nil, fmt.Errorf("%w: nothing to update", common.ErrValidation)
	}
	if upd.FullName != nil {
		v := strings.TrimSpace(*upd.FullName)
		if v == "" {
			return nil, fmt.Errorf("%w: fullname must not be empty", common.ErrValidation)
		}
		upd.FullName = &v
	}
	if upd.UserName != nil {
		v := normalizeLogin(*upd.UserName)
		if v == "" {
			return nil, fmt.Errorf("%w: username must not be empty", common.ErrValidation)
		}
		upd.UserName = &v
	}

	var user *models.User
	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Users(tx)
		if err := repo.UpdateProfile(ctx, userID, upd.FullName, upd.UserName); err != nil {
			return err
		}
		var err error
		user, err = repo.GetByID(ctx, userID)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("error updating profile: %w", err)
	}

	return user.Public(), nil
}

func (s *UserService) UpdateAvatar(ctx context.Context, userID, localPath string) (_ *models.PublicUser, err error) {
	defer func() { recordOperation("update_avatar", err) }()

	if localPath == "" {
		return nil, fmt.Errorf("%w: avatar file is missing", common.ErrValidation)
	}

	avatar, err := s.media.Store(ctx, localPath)
	if err != nil || avatar == nil {
		s.logger.Warn(ctx, "avatar upload failed", "user_id", userID, "error", err)
		return nil, fmt.Errorf("%w: error while uploading avatar", common.ErrValidation)
	}

	var user *models.User
	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Users(tx)
		if err := repo.UpdateAvatar(ctx, userID, avatar.URL); err != nil {
			return err
		}
		var err error
		user, err = repo.GetByID(ctx, userID)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("error updating avatar: %w", err)
	}

	return user.Public(), nil
}

func (s *UserService) GetChannelProfile(ctx context.Context, viewerID, userName string) (*models.ChannelProfile, error) {
	userName = normalizeLogin(userName)
	if userName == "" {
		return nil, fmt.Errorf("%w: username is missing", common.ErrValidation)
	}

	profile, err := s.repomanager.Channels(s.db).GetProfile(ctx, viewerID, userName)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, fmt.Errorf("%w: channel does not exist", common.ErrorNotFound)
		}
		return nil, fmt.Errorf("error fetching channel: %w", err)
	}
	return profile, nil
}

func (s *UserService) GetWatchHistory(ctx context.Context, userID string) ([]models.WatchedVideo, error) {
	history, err := s.repomanager.Channels(s.db).GetWatchHistory(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("error fetching watch history: %w", err)
	}
	return history, nil
}

func (s *UserService) generateTokenPair(user *models.User) (*TokenPair, error) {
	access, err := s.tokens.IssueAccessToken(user)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrorInternal, err)
	}
	refresh, err := s.tokens.IssueRefreshToken(user)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrorInternal, err)
	}
	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

func normalizeLogin(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
