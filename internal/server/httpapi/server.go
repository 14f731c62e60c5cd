// Package httpapi exposes the account service over HTTP: the /api/v1/users
// routes, the access token gate, health and Prometheus endpoints.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/dmitrijs2005/vidhub/internal/logging"
	"github.com/dmitrijs2005/vidhub/internal/server/config"
	"github.com/dmitrijs2005/vidhub/internal/server/models"
	"github.com/dmitrijs2005/vidhub/internal/server/services"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	jsonBodyLimit   = 16 << 10
	shutdownTimeout = 10 * time.Second
)

// userService is the part of services.UserService the handlers use.
type userService interface {
	Register(ctx context.Context, in services.RegisterInput) (*models.PublicUser, error)
	Login(ctx context.Context, userName, email, password string) (*services.LoginResult, error)
	RefreshToken(ctx context.Context, presented string) (*services.TokenPair, error)
	Logout(ctx context.Context, userID string) error
	ChangePassword(ctx context.Context, userID, oldPassword, newPassword, confirmPassword string) error
	Authenticate(ctx context.Context, accessToken string) (*models.PublicUser, error)
	UpdateProfile(ctx context.Context, userID string, upd services.ProfileUpdate) (*models.PublicUser, error)
	UpdateAvatar(ctx context.Context, userID, localPath string) (*models.PublicUser, error)
	GetChannelProfile(ctx context.Context, viewerID, userName string) (*models.ChannelProfile, error)
	GetWatchHistory(ctx context.Context, userID string) ([]models.WatchedVideo, error)
}

// HealthCheck reports whether the server's dependencies are reachable.
type HealthCheck func(ctx context.Context) error

type HTTPServer struct {
	address        string
	users          userService
	logger         logging.Logger
	uploadDir      string
	maxUploadBytes int64
	corsOrigin     string
	sameSite       http.SameSite
	health         HealthCheck
	gatherer       prometheus.Gatherer
	metrics        *Metrics
}

// NewHTTPServer builds the server. HTTP metrics are registered with reg,
// which is also what /metrics serves.
func NewHTTPServer(cfg *config.Config, us userService, uploadDir string, health HealthCheck, reg *prometheus.Registry, l logging.Logger) *HTTPServer {
	return &HTTPServer{
		address:        cfg.HTTPAddress,
		users:          us,
		logger:         l.With("module", "http_server"),
		uploadDir:      uploadDir,
		maxUploadBytes: cfg.MaxUploadBytes,
		corsOrigin:     cfg.CORSOrigin,
		sameSite:       ParseSameSite(cfg.CookieSameSite),
		health:         health,
		gatherer:       reg,
		metrics:        NewMetrics(reg),
	}
}

// ParseSameSite maps "strict" and "none" to their modes; anything else is Lax.
func ParseSameSite(s string) http.SameSite {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "strict":
		return http.SameSiteStrictMode
	case "none":
		return http.SameSiteNoneMode
	default:
		return http.SameSiteLaxMode
	}
}

// Handler returns the fully wired router.
func (s *HTTPServer) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID, middleware.RealIP)
	r.Use(s.accessLog, s.rescue, s.instrument, s.cors)

	r.Get("/healthz", s.handle(s.handleHealth))
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))

	r.Route("/api/v1/users", func(r chi.Router) {
		r.Post("/register", s.handle(s.handleRegister))
		r.Post("/login", s.handle(s.handleLogin))
		r.Post("/refresh-access-token", s.handle(s.handleRefresh))

		r.Group(func(r chi.Router) {
			r.Use(s.authenticate)

			r.Post("/logout", s.handle(s.handleLogout))
			r.Post("/change-password", s.handle(s.handleChangePassword))
			r.Get("/current-user", s.handle(s.handleCurrentUser))
			r.Patch("/update-profile", s.handle(s.handleUpdateProfile))
			r.Patch("/update-avatar", s.handle(s.handleUpdateAvatar))
			r.Get("/channel/{username}", s.handle(s.handleChannel))
			r.Get("/watch-history", s.handle(s.handleWatchHistory))
		})
	})

	r.NotFound(s.handle(func(w http.ResponseWriter, r *http.Request) error {
		return errRouteNotFound
	}))
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, envelope{
			Status:  http.StatusMethodNotAllowed,
			Data:    struct{}{},
			Message: "method not allowed",
		})
	})

	return r
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *HTTPServer) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.address,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info(ctx, "Starting HTTP server", "address", s.address)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info(ctx, "Stopping HTTP server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}
