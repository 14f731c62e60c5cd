package users

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/vidhub/internal/common"
	"github.com/dmitrijs2005/vidhub/internal/dbx"
	"github.com/dmitrijs2005/vidhub/internal/server/models"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
)

const selectUser = `SELECT u.id, u.username, u.email, u.fullname, u.avatar, u.cover_image,
       u.password_hash, u.refresh_token, u.created_at, u.updated_at,
       COALESCE((SELECT json_agg(w.video_id ORDER BY w.position)
                   FROM watch_history w WHERE w.user_id = u.id), '[]')::text
  FROM users u`

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	query := `INSERT INTO users (username, email, fullname, avatar, cover_image, password_hash)
         VALUES ($1, $2, $3, $4, $5, $6)
      RETURNING id, created_at, updated_at`

	err := r.db.QueryRowContext(ctx, query,
		user.UserName, user.Email, user.FullName, user.Avatar, user.CoverImage, user.PasswordHash,
	).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		return nil, mapWriteError(err)
	}

	user.WatchHistory = []string{}
	return user, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	row := r.db.QueryRowContext(ctx, selectUser+` WHERE u.id = $1`, id)
	return scanUser(row)
}

func (r *PostgresRepository) GetByLogin(ctx context.Context, userName, email string) (*models.User, error) {
	row := r.db.QueryRowContext(ctx,
		selectUser+` WHERE LOWER(u.username) = LOWER($1) OR LOWER(u.email) = LOWER($2) LIMIT 1`,
		userName, email)
	return scanUser(row)
}

func (r *PostgresRepository) Exists(ctx context.Context, userName, email string) (bool, error) {
	query := `SELECT EXISTS (
        SELECT 1 FROM users WHERE LOWER(username) = LOWER($1) OR LOWER(email) = LOWER($2))`

	var exists bool
	if err := r.db.QueryRowContext(ctx, query, userName, email).Scan(&exists); err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return exists, nil
}

func (r *PostgresRepository) UpdateProfile(ctx context.Context, id string, fullName, userName *string) error {
	query := `UPDATE users
	   SET fullname = COALESCE($2, fullname),
	       username = COALESCE($3, username),
	       updated_at = now()
	 WHERE id = $1`

	res, err := r.db.ExecContext(ctx, query, id, fullName, userName)
	if err != nil {
		return mapWriteError(err)
	}
	return requireRow(res)
}

func (r *PostgresRepository) UpdateAvatar(ctx context.Context, id, avatarURL string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE users SET avatar = $2, updated_at = now() WHERE id = $1`, id, avatarURL)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return requireRow(res)
}

func (r *PostgresRepository) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE users SET password_hash = $2, refresh_token = '', updated_at = now() WHERE id = $1`,
		id, passwordHash)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return requireRow(res)
}

func (r *PostgresRepository) SetRefreshToken(ctx context.Context, id, token string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE users SET refresh_token = $2, updated_at = now() WHERE id = $1`, id, token)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) SwapRefreshToken(ctx context.Context, id, expected, next string) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE users SET refresh_token = $3, updated_at = now()
		  WHERE id = $1 AND refresh_token = $2 AND refresh_token <> ''`,
		id, expected, next)
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return dbx.AffectedOne(res)
}

func scanUser(row *sql.Row) (*models.User, error) {
	u := &models.User{}
	var history string

	err := row.Scan(&u.ID, &u.UserName, &u.Email, &u.FullName, &u.Avatar, &u.CoverImage,
		&u.PasswordHash, &u.RefreshToken, &u.CreatedAt, &u.UpdatedAt, &history)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	if err := json.Unmarshal([]byte(history), &u.WatchHistory); err != nil {
		return nil, fmt.Errorf("decode watch history: %w", err)
	}
	return u, nil
}

func requireRow(res sql.Result) error {
	ok, err := dbx.AffectedOne(res)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if !ok {
		return common.ErrorNotFound
	}
	return nil
}

func mapWriteError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
		return fmt.Errorf("%w: username or email is taken", common.ErrConflict)
	}
	return fmt.Errorf("db error: %w", err)
}
