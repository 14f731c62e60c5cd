// Package auth issues and verifies session tokens and hashes passwords.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/vidhub/internal/common"
	"github.com/dmitrijs2005/vidhub/internal/server/models"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// TokenKind selects the secret a token is signed and verified with.
type TokenKind int

const (
	AccessToken TokenKind = iota
	RefreshToken
)

func (k TokenKind) String() string {
	if k == RefreshToken {
		return "refresh"
	}
	return "access"
}

// Claims carried by vidhub tokens. Refresh tokens only set the registered
// claims and the type; access tokens also carry the identity fields.
type Claims struct {
	jwt.RegisteredClaims
	Type     string `json:"typ"`
	UserName string `json:"username,omitempty"`
	Email    string `json:"email,omitempty"`
	FullName string `json:"fullname,omitempty"`
}

type TokenConfig struct {
	AccessSecret  []byte
	RefreshSecret []byte
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
}

// TokenService signs HS256 tokens. It is safe for concurrent use.
type TokenService struct {
	cfg TokenConfig
	now func() time.Time
}

func NewTokenService(cfg TokenConfig) *TokenService {
	return &TokenService{cfg: cfg, now: time.Now}
}

func (s *TokenService) IssueAccessToken(u *models.User) (string, error) {
	claims := Claims{
		RegisteredClaims: s.registered(u.ID, s.cfg.AccessTTL),
		Type:             AccessToken.String(),
		UserName:         u.UserName,
		Email:            u.Email,
		FullName:         u.FullName,
	}
	return s.sign(claims, s.cfg.AccessSecret)
}

func (s *TokenService) IssueRefreshToken(u *models.User) (string, error) {
	claims := Claims{
		RegisteredClaims: s.registered(u.ID, s.cfg.RefreshTTL),
		Type:             RefreshToken.String(),
	}
	return s.sign(claims, s.cfg.RefreshSecret)
}

// Verify checks signature, algorithm, expiry and type of token against the
// secret for kind. An expired but otherwise valid token yields common.ErrTokenExpired;
// every other failure yields common.ErrInvalidToken.
func (s *TokenService) Verify(token string, kind TokenKind) (*Claims, error) {
	secret := s.secret(kind)

	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims,
		func(t *jwt.Token) (any, error) { return secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, fmt.Errorf("%s token: %w", kind, common.ErrTokenExpired)
		}
		return nil, fmt.Errorf("%s token: %w: %v", kind, common.ErrInvalidToken, err)
	}

	if !parsed.Valid || claims.Subject == "" || claims.Type != kind.String() {
		return nil, fmt.Errorf("%s token: %w", kind, common.ErrInvalidToken)
	}

	return claims, nil
}

func (s *TokenService) registered(subject string, ttl time.Duration) jwt.RegisteredClaims {
	now := s.now()
	return jwt.RegisteredClaims{
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		ID:        uuid.NewString(),
	}
}

func (s *TokenService) sign(claims Claims, secret []byte) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	signed, err := token.SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

func (s *TokenService) secret(kind TokenKind) []byte {
	if kind == RefreshToken {
		return s.cfg.RefreshSecret
	}
	return s.cfg.AccessSecret
}
