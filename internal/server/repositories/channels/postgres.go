package channels

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/vidhub/internal/common"
	"github.com/dmitrijs2005/vidhub/internal/dbx"
	"github.com/dmitrijs2005/vidhub/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) GetProfile(ctx context.Context, viewerID, userName string) (*models.ChannelProfile, error) {
	query := `SELECT u.id, u.username, u.fullname, u.email, u.avatar, u.cover_image,
       (SELECT COUNT(*) FROM subscriptions s WHERE s.channel_id = u.id),
       (SELECT COUNT(*) FROM subscriptions s WHERE s.subscriber_id = u.id),
       EXISTS (SELECT 1 FROM subscriptions s WHERE s.channel_id = u.id AND s.subscriber_id::text = $2)
  FROM users u
 WHERE LOWER(u.username) = LOWER($1)`

	p := &models.ChannelProfile{}
	err := r.db.QueryRowContext(ctx, query, userName, viewerID).Scan(
		&p.ID, &p.UserName, &p.FullName, &p.Email, &p.Avatar, &p.CoverImage,
		&p.SubscribersCount, &p.ChannelsSubscribedToCount, &p.IsSubscribed,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return p, nil
}

func (r *PostgresRepository) GetWatchHistory(ctx context.Context, userID string) ([]models.WatchedVideo, error) {
	query := `SELECT v.id, v.title, v.description, v.video_file, v.thumbnail, v.duration, v.views, v.created_at,
       o.id, o.username, o.fullname, o.avatar
  FROM watch_history w
  JOIN videos v ON v.id = w.video_id
  JOIN users o ON o.id = v.owner_id
 WHERE w.user_id = $1
 ORDER BY w.position`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	history := make([]models.WatchedVideo, 0)
	for rows.Next() {
		var v models.WatchedVideo
		if err := rows.Scan(&v.ID, &v.Title, &v.Description, &v.VideoFile, &v.Thumbnail,
			&v.Duration, &v.Views, &v.CreatedAt,
			&v.Owner.ID, &v.Owner.UserName, &v.Owner.FullName, &v.Owner.Avatar); err != nil {
			return nil, fmt.Errorf("scan error: %w", err)
		}
		history = append(history, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return history, nil
}
