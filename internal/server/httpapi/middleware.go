package httpapi

import (
	"context"
	"errors"
	"net/http"
	"runtime/debug"
	"strconv"
	"strings"
	"time"

	"github.com/dmitrijs2005/vidhub/internal/common"
	"github.com/dmitrijs2005/vidhub/internal/server/models"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

type ctxKey string

const userKey ctxKey = "user"

// WithUser returns a copy of ctx carrying the authenticated user.
func WithUser(ctx context.Context, u *models.PublicUser) context.Context {
	return context.WithValue(ctx, userKey, u)
}

// UserFromContext returns the user stored by the authentication gate.
func UserFromContext(ctx context.Context) (*models.PublicUser, bool) {
	u, ok := ctx.Value(userKey).(*models.PublicUser)
	return u, ok && u != nil
}

// authenticate takes the access token from the accessToken cookie, falling
// back to the Authorization header. Any failure ends the request with 401
// and a Bearer challenge (RFC 6750), which tells clients the access token
// itself was refused.
func (s *HTTPServer) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := accessTokenFrom(r)
		if token == "" {
			w.Header().Set("WWW-Authenticate", `Bearer realm="vidhub"`)
			writeError(w, http.StatusUnauthorized, "unauthorized request")
			return
		}

		user, err := s.users.Authenticate(r.Context(), token)
		if err != nil {
			msg := "invalid access token"
			if errors.Is(err, common.ErrTokenExpired) {
				msg = "access token expired"
			}
			s.logger.Debug(r.Context(), "authentication failed", "error", err)
			w.Header().Set("WWW-Authenticate", `Bearer realm="vidhub", error="invalid_token"`)
			writeError(w, http.StatusUnauthorized, msg)
			return
		}

		next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
	})
}

func accessTokenFrom(r *http.Request) string {
	if c, err := r.Cookie(common.AccessTokenCookieName); err == nil && c.Value != "" {
		return c.Value
	}
	return bearerToken(r)
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	scheme, token, ok := strings.Cut(h, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

// accessLog logs one line per request. 5xx responses log at error level,
// 4xx at warn, everything else at info.
func (s *HTTPServer) accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()

		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}

		args := []any{
			"request_id", middleware.GetReqID(r.Context()),
			"method", r.Method,
			"path", r.URL.Path,
			"status", status,
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
			"remote", r.RemoteAddr,
		}

		switch {
		case status >= http.StatusInternalServerError:
			s.logger.Error(r.Context(), "request", args...)
		case status >= http.StatusBadRequest:
			s.logger.Warn(r.Context(), "request", args...)
		default:
			s.logger.Info(r.Context(), "request", args...)
		}
	})
}

// rescue turns a handler panic into a 500 envelope.
func (s *HTTPServer) rescue(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}
			s.logger.Error(r.Context(), "panic while serving request",
				"panic", rec,
				"stack", string(debug.Stack()),
			)
			writeError(w, http.StatusInternalServerError, "internal server error")
		}()
		next.ServeHTTP(w, r)
	})
}

// instrument records request counts and latency by route pattern.
func (s *HTTPServer) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()

		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if p := rctx.RoutePattern(); p != "" {
				route = p
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		s.metrics.observe(r.Method, route, strconv.Itoa(status), time.Since(start))
	})
}

// cors allows the configured origin with credentials. "*" allows any origin
// without credentials, so cookies never travel cross-origin in that mode.
func (s *HTTPServer) cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin != "" {
			h := w.Header()
			switch {
			case s.corsOrigin == "*":
				h.Set("Access-Control-Allow-Origin", "*")
				setCORSMethods(h)
			case strings.EqualFold(origin, s.corsOrigin):
				h.Set("Access-Control-Allow-Origin", origin)
				h.Set("Access-Control-Allow-Credentials", "true")
				setCORSMethods(h)
				h.Add("Vary", "Origin")
			}
		}

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func setCORSMethods(h http.Header) {
	h.Set("Access-Control-Allow-Methods", "GET, POST, PATCH, OPTIONS")
	h.Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
}
