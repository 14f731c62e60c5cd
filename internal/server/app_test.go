package server

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/vidhub/internal/logging"
	"github.com/dmitrijs2005/vidhub/internal/server/config"
	"github.com/sethvargo/go-retry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastPings(t *testing.T, attempts uint64) {
	t.Helper()
	orig := pingBackoff
	pingBackoff = func() retry.Backoff {
		return retry.WithMaxRetries(attempts, retry.NewConstant(time.Millisecond))
	}
	t.Cleanup(func() { pingBackoff = orig })
}

func mockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db, mock
}

func TestPingDB_RetriesUntilReady(t *testing.T) {
	fastPings(t, 3)
	db, mock := mockDB(t)

	mock.ExpectPing().WillReturnError(errors.New("connection refused"))
	mock.ExpectPing().WillReturnError(errors.New("connection refused"))
	mock.ExpectPing()

	require.NoError(t, pingDB(context.Background(), db, logging.Nop()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPingDB_GivesUp(t *testing.T) {
	fastPings(t, 1)
	db, mock := mockDB(t)

	mock.ExpectPing().WillReturnError(errors.New("connection refused"))
	mock.ExpectPing().WillReturnError(errors.New("connection refused"))

	err := pingDB(context.Background(), db, logging.Nop())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")
}

func TestNewApp_FailsFast(t *testing.T) {
	fastPings(t, 0)

	cfg := &config.Config{}
	cfg.LoadDefaults()
	cfg.LogLevel = "error"

	t.Run("db unreachable", func(t *testing.T) {
		db, mock := mockDB(t)
		mock.ExpectPing().WillReturnError(errors.New("no route to host"))
		mock.ExpectClose()

		orig := openDB
		openDB = func(string) (*sql.DB, error) { return db, nil }
		t.Cleanup(func() { openDB = orig })

		app, err := NewApp(context.Background(), cfg)
		require.Error(t, err)
		assert.Nil(t, app)
		assert.Contains(t, err.Error(), "db init error")
	})

	t.Run("shared token secret", func(t *testing.T) {
		opened := false
		orig := openDB
		openDB = func(string) (*sql.DB, error) {
			opened = true
			return nil, errors.New("unexpected open")
		}
		t.Cleanup(func() { openDB = orig })

		shared := *cfg
		shared.RefreshTokenSecret = shared.AccessTokenSecret

		_, err := NewApp(context.Background(), &shared)
		require.ErrorIs(t, err, errSharedSecret)
		assert.False(t, opened)
	})

	t.Run("open error", func(t *testing.T) {
		orig := openDB
		openDB = func(string) (*sql.DB, error) { return nil, errors.New("bad dsn") }
		t.Cleanup(func() { openDB = orig })

		_, err := NewApp(context.Background(), cfg)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "db open error")
	})

	t.Run("migrations fail", func(t *testing.T) {
		db, mock := mockDB(t)
		mock.ExpectPing()

		orig := openDB
		openDB = func(string) (*sql.DB, error) { return db, nil }
		t.Cleanup(func() { openDB = orig })

		_, err := NewApp(context.Background(), cfg)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "migrations error")
	})
}

func TestNewRegistry(t *testing.T) {
	reg := newRegistry()

	mfs, err := reg.Gather()
	require.NoError(t, err)

	names := map[string]bool{}
	for _, mf := range mfs {
		names[mf.GetName()] = true
	}
	assert.True(t, names["go_goroutines"])
}
