package client

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func reply(w http.ResponseWriter, status int, data any, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{"status": status, "data": data, "message": msg})
}

func newTestClient(t *testing.T, h http.HandlerFunc) *HTTPClient {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewHTTPClient(srv.URL+"/", time.Second)
}

func TestRegister_SendsMultipart(t *testing.T) {
	avatar := filepath.Join(t.TempDir(), "me.png")
	require.NoError(t, os.WriteFile(avatar, []byte("png-bytes"), 0o600))

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/users/register", r.URL.Path)
		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "jane", r.FormValue("username"))
		assert.Equal(t, "Jane Doe", r.FormValue("fullname"))

		f, hdr, err := r.FormFile("avatar")
		require.NoError(t, err)
		defer f.Close()
		b, _ := io.ReadAll(f)
		assert.Equal(t, "me.png", hdr.Filename)
		assert.Equal(t, "png-bytes", string(b))

		_, _, err = r.FormFile("coverImage")
		assert.ErrorIs(t, err, http.ErrMissingFile)

		reply(w, http.StatusCreated, map[string]any{"id": "u1", "username": "jane"}, "User registered successfully")
	})

	u, err := c.Register(context.Background(), RegisterRequest{
		FullName: "Jane Doe", Email: "jane@example.com", UserName: "jane", Password: "pw", AvatarPath: avatar,
	})
	require.NoError(t, err)
	assert.Equal(t, "u1", u.ID)
}

func TestRegister_MissingLocalFile(t *testing.T) {
	c := NewHTTPClient("http://127.0.0.1:1", time.Second)

	_, err := c.Register(context.Background(), RegisterRequest{AvatarPath: filepath.Join(t.TempDir(), "nope.png")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "open avatar")
}

func TestLogin_DecodesTokens(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, map[string]string{"email": "jane@example.com", "password": "pw"}, body)

		reply(w, http.StatusOK, map[string]any{
			"user":         map[string]any{"id": "u1", "username": "jane"},
			"accessToken":  "a1",
			"refreshToken": "r1",
		}, "ok")
	})

	res, err := c.Login(context.Background(), "", "jane@example.com", "pw")
	require.NoError(t, err)
	assert.Equal(t, "u1", res.User.ID)
	assert.Equal(t, "a1", res.AccessToken)
	assert.Equal(t, "r1", res.RefreshToken)
}

func TestBearerAndErrorMapping(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.Header.Get("Authorization") {
		case "Bearer good":
			reply(w, http.StatusOK, map[string]any{"id": "u1", "username": "jane"}, "ok")
		case "Bearer conflict":
			reply(w, http.StatusConflict, map[string]any{}, "already exists: username is taken")
		case "Bearer garbage":
			w.WriteHeader(http.StatusBadGateway)
			_, _ = w.Write([]byte("<html>"))
		case "Bearer good-but-wrong-password":
			reply(w, http.StatusUnauthorized, map[string]any{}, "unauthorized: invalid old password")
		default:
			w.Header().Set("WWW-Authenticate", `Bearer realm="vidhub", error="invalid_token"`)
			reply(w, http.StatusUnauthorized, map[string]any{}, "access token expired")
		}
	})
	ctx := context.Background()

	u, err := c.CurrentUser(ctx, "good")
	require.NoError(t, err)
	assert.Equal(t, "jane", u.UserName)

	_, err = c.CurrentUser(ctx, "stale")
	assert.ErrorIs(t, err, ErrUnauthorized)
	assert.ErrorIs(t, err, ErrTokenRejected)
	assert.Contains(t, err.Error(), "access token expired")

	err = c.ChangePassword(ctx, "good-but-wrong-password", "wrong", "n", "n")
	assert.ErrorIs(t, err, ErrUnauthorized)
	assert.NotErrorIs(t, err, ErrTokenRejected)
	assert.Contains(t, err.Error(), "invalid old password")

	err = c.ChangePassword(ctx, "conflict", "a", "b", "b")
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusConflict, apiErr.Status)
	assert.Equal(t, "already exists: username is taken", apiErr.Message)

	err = c.Logout(ctx, "garbage")
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadGateway, apiErr.Status)
}

func TestRefresh_SendsBodyToken(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/users/refresh-access-token", r.URL.Path)
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "r1", body["refreshToken"])
		reply(w, http.StatusOK, map[string]string{"accessToken": "a2", "refreshToken": "r2"}, "ok")
	})

	tokens, err := c.Refresh(context.Background(), "r1")
	require.NoError(t, err)
	assert.Equal(t, "a2", tokens.AccessToken)
	assert.Equal(t, "r2", tokens.RefreshToken)
}

func TestPing(t *testing.T) {
	var unhealthy atomic.Bool
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/healthz", r.URL.Path)
		if !unhealthy.Load() {
			reply(w, http.StatusOK, map[string]string{"status": "ok"}, "ok")
			return
		}
		reply(w, http.StatusServiceUnavailable, map[string]any{}, "unavailable")
	})

	assert.NoError(t, c.Ping(context.Background()))

	unhealthy.Store(true)
	assert.ErrorIs(t, c.Ping(context.Background()), ErrUnavailable)
}

func TestUnreachableServer(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := NewHTTPClient(url, time.Second)
	err := c.Ping(context.Background())
	assert.ErrorIs(t, err, ErrUnavailable)
}
