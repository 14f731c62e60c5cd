// Package server wires the vidhub server together: database, migrations,
// media storage, metrics and the HTTP API, and runs it until a shutdown
// signal arrives.
package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/sethvargo/go-retry"

	"github.com/dmitrijs2005/vidhub/internal/filex"
	"github.com/dmitrijs2005/vidhub/internal/logging"
	"github.com/dmitrijs2005/vidhub/internal/server/config"
	"github.com/dmitrijs2005/vidhub/internal/server/httpapi"
	"github.com/dmitrijs2005/vidhub/internal/server/media"
	"github.com/dmitrijs2005/vidhub/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/vidhub/internal/server/services"
)

// pingBackoff paces database readiness checks at startup.
var pingBackoff = func() retry.Backoff {
	return retry.WithMaxRetries(5, retry.NewExponential(500*time.Millisecond))
}

type App struct {
	config *config.Config
	logger logging.Logger
	db     *sql.DB
	http   *httpapi.HTTPServer
}

// openDB is replaced in tests.
var openDB = func(dsn string) (*sql.DB, error) {
	return sql.Open("pgx", dsn)
}

var errSharedSecret = errors.New("access and refresh token secrets must differ")

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	if c.AccessTokenSecret == c.RefreshTokenSecret {
		return nil, fmt.Errorf("config error: %w", errSharedSecret)
	}

	logger := logging.New(os.Stdout, c.LogLevel, c.LogFormat)

	db, err := openDB(c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db open error: %w", err)
	}

	if err := pingDB(ctx, db, logger); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("db init error: %w", err)
	}

	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrations error: %w", err)
	}

	store, err := media.NewS3Store(ctx, media.S3Config{
		AccessKey: c.S3RootUser,
		SecretKey: c.S3RootPassword,
		Bucket:    c.S3Bucket,
		Region:    c.S3Region,
		Endpoint:  c.S3BaseEndpoint,
		PublicURL: c.S3PublicURL,
	}, logger)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("media store init error: %w", err)
	}

	uploadDir, err := filex.EnsureDir(c.UploadDir)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("upload dir error: %w", err)
	}

	reg := newRegistry()
	us := services.NewUserService(db, rm, c, store, logger)
	hs := httpapi.NewHTTPServer(c, us, uploadDir, db.PingContext, reg, logger)

	return &App{config: c, logger: logger, db: db, http: hs}, nil
}

func newRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	services.RegisterMetrics(reg)
	return reg
}

// pingDB waits for the database with exponential backoff.
func pingDB(ctx context.Context, db *sql.DB, logger logging.Logger) error {
	return retry.Do(ctx, pingBackoff(), func(ctx context.Context) error {
		if err := db.PingContext(ctx); err != nil {
			logger.Warn(ctx, "database not ready", "error", err)
			return retry.RetryableError(err)
		}
		return nil
	})
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

// Run serves HTTP until ctx is cancelled or a shutdown signal arrives.
func (app *App) Run(ctx context.Context) error {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")
	app.initSignalHandler(cancelFunc)

	err := app.http.Run(ctx)
	if err != nil {
		app.logger.Error(ctx, "http server stopped", "error", err)
	}

	if cerr := app.db.Close(); cerr != nil {
		app.logger.Error(ctx, "db close error", "error", cerr)
	}

	app.logger.Info(ctx, "App stopped")
	return err
}
