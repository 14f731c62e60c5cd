package httpapi

import (
	"fmt"
	"net/http"

	"github.com/dmitrijs2005/vidhub/internal/common"
	"github.com/dmitrijs2005/vidhub/internal/server/models"
	"github.com/dmitrijs2005/vidhub/internal/server/services"
	"github.com/go-chi/chi/v5"
)

func (s *HTTPServer) handleHealth(w http.ResponseWriter, r *http.Request) error {
	if s.health != nil {
		if err := s.health(r.Context()); err != nil {
			s.logger.Warn(r.Context(), "health check failed", "error", err)
			writeError(w, http.StatusServiceUnavailable, "unavailable")
			return nil
		}
	}
	writeData(w, http.StatusOK, map[string]string{"status": "ok"}, "ok")
	return nil
}

func (s *HTTPServer) handleRegister(w http.ResponseWriter, r *http.Request) error {
	up, err := s.parseUpload(w, r, "avatar", "coverImage")
	if err != nil {
		return err
	}
	defer up.close()

	user, err := s.users.Register(r.Context(), services.RegisterInput{
		FullName:   up.value("fullname"),
		Email:      up.value("email"),
		UserName:   up.value("username"),
		Password:   up.value("password"),
		AvatarPath: up.file("avatar"),
		CoverPath:  up.file("coverImage"),
	})
	if err != nil {
		return err
	}

	writeData(w, http.StatusCreated, user, "User registered successfully")
	return nil
}

type loginRequest struct {
	Email    string `json:"email"`
	UserName string `json:"username"`
	Password string `json:"password"`
}

func (s *HTTPServer) handleLogin(w http.ResponseWriter, r *http.Request) error {
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		return err
	}

	res, err := s.users.Login(r.Context(), req.UserName, req.Email, req.Password)
	if err != nil {
		return err
	}

	s.setSessionCookies(w, res.TokenPair)
	writeData(w, http.StatusOK, res, "User logged in successfully")
	return nil
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// handleRefresh accepts the refresh token from the cookie, the JSON body or
// the Authorization header, in that order.
func (s *HTTPServer) handleRefresh(w http.ResponseWriter, r *http.Request) error {
	var token string
	if c, err := r.Cookie(common.RefreshTokenCookieName); err == nil {
		token = c.Value
	}
	if token == "" {
		var req refreshRequest
		if err := decodeJSON(w, r, &req); err != nil {
			return err
		}
		token = req.RefreshToken
	}
	if token == "" {
		token = bearerToken(r)
	}

	pair, err := s.users.RefreshToken(r.Context(), token)
	if err != nil {
		return err
	}

	s.setSessionCookies(w, *pair)
	writeData(w, http.StatusOK, pair, "Access token refreshed")
	return nil
}

func (s *HTTPServer) handleLogout(w http.ResponseWriter, r *http.Request) error {
	user := s.currentUser(r)
	if err := s.users.Logout(r.Context(), user.ID); err != nil {
		return err
	}

	s.clearSessionCookies(w)
	writeData(w, http.StatusOK, struct{}{}, "User logged out")
	return nil
}

type changePasswordRequest struct {
	OldPassword     string `json:"oldPassword"`
	NewPassword     string `json:"newPassword"`
	ConfirmPassword string `json:"confirmPassword"`
}

func (s *HTTPServer) handleChangePassword(w http.ResponseWriter, r *http.Request) error {
	var req changePasswordRequest
	if err := decodeJSON(w, r, &req); err != nil {
		return err
	}

	user := s.currentUser(r)
	if err := s.users.ChangePassword(r.Context(), user.ID, req.OldPassword, req.NewPassword, req.ConfirmPassword); err != nil {
		return err
	}

	writeData(w, http.StatusOK, struct{}{}, "Password changed successfully")
	return nil
}

func (s *HTTPServer) handleCurrentUser(w http.ResponseWriter, r *http.Request) error {
	writeData(w, http.StatusOK, s.currentUser(r), "Current user fetched successfully")
	return nil
}

type updateProfileRequest struct {
	FullName *string `json:"fullname"`
	UserName *string `json:"username"`
}

func (s *HTTPServer) handleUpdateProfile(w http.ResponseWriter, r *http.Request) error {
	var req updateProfileRequest
	if err := decodeJSON(w, r, &req); err != nil {
		return err
	}

	user, err := s.users.UpdateProfile(r.Context(), s.currentUser(r).ID, services.ProfileUpdate{
		FullName: req.FullName,
		UserName: req.UserName,
	})
	if err != nil {
		return err
	}

	writeData(w, http.StatusOK, user, "Account details updated successfully")
	return nil
}

func (s *HTTPServer) handleUpdateAvatar(w http.ResponseWriter, r *http.Request) error {
	up, err := s.parseUpload(w, r, "avatar")
	if err != nil {
		return err
	}
	defer up.close()

	user, err := s.users.UpdateAvatar(r.Context(), s.currentUser(r).ID, up.file("avatar"))
	if err != nil {
		return err
	}

	writeData(w, http.StatusOK, user, "Avatar updated successfully")
	return nil
}

func (s *HTTPServer) handleChannel(w http.ResponseWriter, r *http.Request) error {
	name := chi.URLParam(r, "username")
	if name == "" {
		return fmt.Errorf("%w: username is missing", common.ErrValidation)
	}

	profile, err := s.users.GetChannelProfile(r.Context(), s.currentUser(r).ID, name)
	if err != nil {
		return err
	}

	writeData(w, http.StatusOK, profile, "User channel fetched successfully")
	return nil
}

func (s *HTTPServer) handleWatchHistory(w http.ResponseWriter, r *http.Request) error {
	history, err := s.users.GetWatchHistory(r.Context(), s.currentUser(r).ID)
	if err != nil {
		return err
	}

	writeData(w, http.StatusOK, history, "Watch history fetched successfully")
	return nil
}

// currentUser returns the user put in the context by authenticate. The
// gated routes cannot run without one.
func (s *HTTPServer) currentUser(r *http.Request) *models.PublicUser {
	u, ok := UserFromContext(r.Context())
	if !ok {
		panic("httpapi: gated handler without authenticated user")
	}
	return u
}
