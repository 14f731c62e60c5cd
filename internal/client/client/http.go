package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dmitrijs2005/vidhub/internal/client/models"
)

const usersPath = "/api/v1/users"

type envelope struct {
	Status  int             `json:"status"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
}

// HTTPClient talks to the vidhub HTTP API. Tokens are sent as bearer
// headers; cookies are not kept.
type HTTPClient struct {
	baseURL string
	http    *http.Client
}

func NewHTTPClient(baseURL string, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

func (c *HTTPClient) Register(ctx context.Context, req RegisterRequest) (*models.User, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	fields := [][2]string{
		{"fullname", req.FullName},
		{"email", req.Email},
		{"username", req.UserName},
		{"password", req.Password},
	}
	for _, f := range fields {
		if err := mw.WriteField(f[0], f[1]); err != nil {
			return nil, err
		}
	}
	if err := attachFile(mw, "avatar", req.AvatarPath); err != nil {
		return nil, err
	}
	if err := attachFile(mw, "coverImage", req.CoverPath); err != nil {
		return nil, err
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}

	var user models.User
	if err := c.do(ctx, http.MethodPost, usersPath+"/register", "", mw.FormDataContentType(), &buf, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func attachFile(mw *multipart.Writer, field, path string) error {
	if path == "" {
		return nil
	}
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", field, err)
	}
	defer f.Close()

	w, err := mw.CreateFormFile(field, filepath.Base(path))
	if err != nil {
		return err
	}
	_, err = io.Copy(w, f)
	return err
}

func (c *HTTPClient) Login(ctx context.Context, userName, email, password string) (*models.LoginResult, error) {
	body := map[string]string{"password": password}
	if userName != "" {
		body["username"] = userName
	}
	if email != "" {
		body["email"] = email
	}

	var res models.LoginResult
	if err := c.doJSON(ctx, http.MethodPost, usersPath+"/login", "", body, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *HTTPClient) Refresh(ctx context.Context, refreshToken string) (*models.Tokens, error) {
	var tokens models.Tokens
	body := map[string]string{"refreshToken": refreshToken}
	if err := c.doJSON(ctx, http.MethodPost, usersPath+"/refresh-access-token", "", body, &tokens); err != nil {
		return nil, err
	}
	return &tokens, nil
}

func (c *HTTPClient) Logout(ctx context.Context, accessToken string) error {
	return c.doJSON(ctx, http.MethodPost, usersPath+"/logout", accessToken, nil, nil)
}

func (c *HTTPClient) CurrentUser(ctx context.Context, accessToken string) (*models.User, error) {
	var user models.User
	if err := c.doJSON(ctx, http.MethodGet, usersPath+"/current-user", accessToken, nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (c *HTTPClient) ChangePassword(ctx context.Context, accessToken, oldPassword, newPassword, confirmPassword string) error {
	body := map[string]string{
		"oldPassword":     oldPassword,
		"newPassword":     newPassword,
		"confirmPassword": confirmPassword,
	}
	return c.doJSON(ctx, http.MethodPost, usersPath+"/change-password", accessToken, body, nil)
}

func (c *HTTPClient) Ping(ctx context.Context) error {
	return c.doJSON(ctx, http.MethodGet, "/healthz", "", nil, nil)
}

func (c *HTTPClient) doJSON(ctx context.Context, method, path, token string, in, out any) error {
	var body io.Reader
	contentType := ""
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(b)
		contentType = "application/json"
	}
	return c.do(ctx, method, path, token, contentType, body, out)
}

// do sends the request and decodes the envelope's data into out (if not nil).
func (c *HTTPClient) do(ctx context.Context, method, path, token, contentType string, body io.Reader, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return err
		}
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		if resp.StatusCode >= http.StatusBadRequest {
			return &APIError{Status: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
		}
		return fmt.Errorf("decode response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized && bearerChallenge(resp):
		return fmt.Errorf("%w: %w: %s", ErrUnauthorized, ErrTokenRejected, env.Message)
	case resp.StatusCode == http.StatusUnauthorized:
		return fmt.Errorf("%w: %s", ErrUnauthorized, env.Message)
	case resp.StatusCode == http.StatusServiceUnavailable:
		return fmt.Errorf("%w: %s", ErrUnavailable, env.Message)
	case resp.StatusCode >= http.StatusBadRequest:
		return &APIError{Status: resp.StatusCode, Message: env.Message}
	}

	if out == nil || len(env.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("decode response data: %w", err)
	}
	return nil
}

func bearerChallenge(resp *http.Response) bool {
	scheme, _, _ := strings.Cut(resp.Header.Get("WWW-Authenticate"), " ")
	return strings.EqualFold(scheme, "Bearer")
}
