package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/dmitrijs2005/vidhub/internal/common"
	"github.com/dmitrijs2005/vidhub/internal/filex"
	"github.com/dmitrijs2005/vidhub/internal/server/services"
)

const multipartMemory = 1 << 20

// handle adapts an error-returning handler, writing the error envelope
// for whatever it returns.
func (s *HTTPServer) handle(fn func(w http.ResponseWriter, r *http.Request) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		err := fn(w, r)
		if err == nil {
			return
		}

		status, msg := errorStatus(err)
		if status >= http.StatusInternalServerError {
			s.logger.Error(r.Context(), "request failed", "path", r.URL.Path, "error", err)
		}
		writeError(w, status, msg)
	}
}

// decodeJSON reads a JSON body of at most jsonBodyLimit bytes into dst.
// An empty body leaves dst untouched.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	body := http.MaxBytesReader(w, r.Body, jsonBodyLimit)
	err := json.NewDecoder(body).Decode(dst)

	var maxErr *http.MaxBytesError
	switch {
	case err == nil, errors.Is(err, io.EOF):
		return nil
	case errors.As(err, &maxErr):
		return fmt.Errorf("%w: request body too large", common.ErrValidation)
	default:
		return fmt.Errorf("%w: malformed JSON body", common.ErrValidation)
	}
}

// upload is a multipart form whose files were staged on disk.
type upload struct {
	r     *http.Request
	files map[string]string
}

// parseUpload parses a multipart body of at most maxUploadBytes and copies
// the named file fields into the upload directory. Missing fields are
// skipped. The caller must call close.
func (s *HTTPServer) parseUpload(w http.ResponseWriter, r *http.Request, fields ...string) (*upload, error) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadBytes)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return nil, fmt.Errorf("%w: upload exceeds %d bytes", common.ErrValidation, s.maxUploadBytes)
		}
		return nil, fmt.Errorf("%w: malformed multipart form", common.ErrValidation)
	}

	u := &upload{r: r, files: map[string]string{}}
	for _, field := range fields {
		f, hdr, err := r.FormFile(field)
		if errors.Is(err, http.ErrMissingFile) {
			continue
		}
		if err != nil {
			u.close()
			return nil, fmt.Errorf("%w: bad %s file", common.ErrValidation, field)
		}

		path, err := filex.SaveTemp(s.uploadDir, field, hdr.Filename, f)
		_ = f.Close()
		if err != nil {
			u.close()
			return nil, fmt.Errorf("staging %s: %w", field, err)
		}
		u.files[field] = path
	}

	return u, nil
}

func (u *upload) value(key string) string {
	return u.r.FormValue(key)
}

func (u *upload) file(field string) string {
	return u.files[field]
}

// close removes every staged file and the multipart temp files.
func (u *upload) close() {
	for _, p := range u.files {
		filex.Discard(p)
	}
	if u.r.MultipartForm != nil {
		_ = u.r.MultipartForm.RemoveAll()
	}
}

func (s *HTTPServer) setSessionCookies(w http.ResponseWriter, pair services.TokenPair) {
	http.SetCookie(w, s.cookie(common.AccessTokenCookieName, pair.AccessToken))
	http.SetCookie(w, s.cookie(common.RefreshTokenCookieName, pair.RefreshToken))
}

func (s *HTTPServer) clearSessionCookies(w http.ResponseWriter) {
	for _, name := range []string{common.AccessTokenCookieName, common.RefreshTokenCookieName} {
		c := s.cookie(name, "")
		c.MaxAge = -1
		http.SetCookie(w, c)
	}
}

func (s *HTTPServer) cookie(name, value string) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   true,
		SameSite: s.sameSite,
	}
}
