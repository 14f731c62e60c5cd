// Package channels serves the read-only aggregations around a user: the
// public channel profile and the watch history.
package channels

import (
	"context"

	"github.com/dmitrijs2005/vidhub/internal/server/models"
)

type Repository interface {
	// GetProfile returns the channel named userName as seen by viewerID.
	GetProfile(ctx context.Context, viewerID, userName string) (*models.ChannelProfile, error)
	// GetWatchHistory returns the videos userID watched, in watch order.
	GetWatchHistory(ctx context.Context, userID string) ([]models.WatchedVideo, error)
}
