package services

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/vidhub/internal/common"
	"github.com/dmitrijs2005/vidhub/internal/dbx"
	"github.com/dmitrijs2005/vidhub/internal/logging"
	"github.com/dmitrijs2005/vidhub/internal/server/config"
	"github.com/dmitrijs2005/vidhub/internal/server/media"
	"github.com/dmitrijs2005/vidhub/internal/server/models"
	"github.com/dmitrijs2005/vidhub/internal/server/repositories/channels"
	"github.com/dmitrijs2005/vidhub/internal/server/repositories/users"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

// memUsers is an in-memory users.Repository with the same case-insensitive
// and compare-and-set semantics as the Postgres one.
type memUsers struct {
	mu    sync.Mutex
	byID  map[string]*models.User
	fail  error
	calls []string
}

func newMemUsers() *memUsers {
	return &memUsers{byID: map[string]*models.User{}}
}

func (m *memUsers) record(op string) error {
	m.calls = append(m.calls, op)
	return m.fail
}

func (m *memUsers) clone(u *models.User) *models.User {
	c := *u
	return &c
}

func (m *memUsers) Create(ctx context.Context, u *models.User) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("create"); err != nil {
		return nil, err
	}
	for _, x := range m.byID {
		if strings.EqualFold(x.UserName, u.UserName) || strings.EqualFold(x.Email, u.Email) {
			return nil, common.ErrConflict
		}
	}
	u.ID = uuid.NewString()
	u.CreatedAt, u.UpdatedAt = time.Now(), time.Now()
	m.byID[u.ID] = m.clone(u)
	return u, nil
}

func (m *memUsers) GetByID(ctx context.Context, id string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("get_by_id"); err != nil {
		return nil, err
	}
	u, ok := m.byID[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return m.clone(u), nil
}

func (m *memUsers) GetByLogin(ctx context.Context, userName, email string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("get_by_login"); err != nil {
		return nil, err
	}
	for _, u := range m.byID {
		if strings.EqualFold(u.UserName, userName) || strings.EqualFold(u.Email, email) {
			return m.clone(u), nil
		}
	}
	return nil, common.ErrorNotFound
}

func (m *memUsers) Exists(ctx context.Context, userName, email string) (bool, error) {
	_, err := m.GetByLogin(ctx, userName, email)
	if errors.Is(err, common.ErrorNotFound) {
		return false, nil
	}
	return err == nil, err
}

func (m *memUsers) UpdateProfile(ctx context.Context, id string, fullName, userName *string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byID[id]
	if !ok {
		return common.ErrorNotFound
	}
	if userName != nil {
		for _, x := range m.byID {
			if x.ID != id && strings.EqualFold(x.UserName, *userName) {
				return common.ErrConflict
			}
		}
		u.UserName = *userName
	}
	if fullName != nil {
		u.FullName = *fullName
	}
	return nil
}

func (m *memUsers) UpdateAvatar(ctx context.Context, id, url string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byID[id]
	if !ok {
		return common.ErrorNotFound
	}
	u.Avatar = url
	return nil
}

func (m *memUsers) UpdatePassword(ctx context.Context, id, hash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byID[id]
	if !ok {
		return common.ErrorNotFound
	}
	u.PasswordHash, u.RefreshToken = hash, ""
	return nil
}

func (m *memUsers) SetRefreshToken(ctx context.Context, id, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("set_refresh"); err != nil {
		return err
	}
	if u, ok := m.byID[id]; ok {
		u.RefreshToken = token
	}
	return nil
}

func (m *memUsers) SwapRefreshToken(ctx context.Context, id, expected, next string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byID[id]
	if !ok || u.RefreshToken == "" || u.RefreshToken != expected {
		return false, nil
	}
	u.RefreshToken = next
	return true, nil
}

type fakeChannels struct {
	profile *models.ChannelProfile
	history []models.WatchedVideo
	err     error

	gotViewer, gotName string
}

func (f *fakeChannels) GetProfile(ctx context.Context, viewerID, userName string) (*models.ChannelProfile, error) {
	f.gotViewer, f.gotName = viewerID, userName
	return f.profile, f.err
}

func (f *fakeChannels) GetWatchHistory(ctx context.Context, userID string) ([]models.WatchedVideo, error) {
	return f.history, f.err
}

type fakeRepoManager struct {
	users    *memUsers
	channels *fakeChannels
}

func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error { return nil }
func (m *fakeRepoManager) Users(dbx.DBTX) users.Repository             { return m.users }
func (m *fakeRepoManager) Channels(dbx.DBTX) channels.Repository       { return m.channels }

type fakeStore struct {
	mu     sync.Mutex
	stored []string
	fail   map[string]error
}

func (f *fakeStore) Store(ctx context.Context, localPath string) (*media.UploadResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if localPath == "" {
		return nil, nil
	}
	if err := f.fail[localPath]; err != nil {
		return nil, err
	}
	f.stored = append(f.stored, localPath)
	key := "avatars/2026/01/01/" + localPath
	return &media.UploadResult{Key: key, URL: "https://cdn.example/" + key}, nil
}

func testConfig() *config.Config {
	return &config.Config{
		AccessTokenSecret:            "access",
		RefreshTokenSecret:           "refresh",
		AccessTokenValidityDuration:  time.Hour,
		RefreshTokenValidityDuration: 24 * time.Hour,
	}
}

type fixture struct {
	svc      *UserService
	users    *memUsers
	channels *fakeChannels
	store    *fakeStore
	mock     sqlmock.Sqlmock
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	f := &fixture{
		users:    newMemUsers(),
		channels: &fakeChannels{},
		store:    &fakeStore{fail: map[string]error{}},
		mock:     mock,
	}
	rm := &fakeRepoManager{users: f.users, channels: f.channels}
	f.svc = NewUserService(db, rm, testConfig(), f.store, logging.Nop())
	return f
}

// register creates jane/jane@x.com with password "pa55word".
func (f *fixture) register(t *testing.T) string {
	t.Helper()
	u, err := f.svc.Register(context.Background(), RegisterInput{
		FullName: "Jane Doe", Email: "jane@x.com", UserName: "jane",
		Password: "pa55word", AvatarPath: "a.png",
	})
	require.NoError(t, err)
	return u.ID
}
