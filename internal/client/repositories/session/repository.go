package session

import (
	"context"

	"github.com/dmitrijs2005/vidhub/internal/client/models"
)

// Repository stores at most one session.
type Repository interface {
	// Get returns (nil, nil) when nobody is logged in.
	Get(ctx context.Context) (*models.Session, error)
	Save(ctx context.Context, s *models.Session) error
	Clear(ctx context.Context) error
}
