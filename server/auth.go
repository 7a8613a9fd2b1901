package server

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"golang.org/x/crypto/bcrypt"

	"github.com/existflow/sitetask/internal/logger"
	"github.com/existflow/sitetask/internal/model"
)

// MinPasswordLength is the shortest accepted password
const MinPasswordLength = 8

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

type authResponse struct {
	Token     string        `json:"token"`
	ExpiresAt string        `json:"expires_at"`
	User      *model.Viewer `json:"user"`
}

// handleLogin handles email and password login
func (s *Server) handleLogin(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request")
	}

	if req.Email == "" || req.Password == "" {
		return badRequest(c, "email and password required")
	}

	ctx := c.Request().Context()
	profile, err := s.store.GetProfileByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return c.JSON(http.StatusUnauthorized, map[string]string{"error": "invalid credentials"})
		}
		return respondError(c, err)
	}

	if profile.PasswordHash == "" ||
		bcrypt.CompareHashAndPassword([]byte(profile.PasswordHash), []byte(req.Password)) != nil {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "invalid credentials"})
	}

	logger.Info("User logged in", logger.F("user_id", profile.ID), logger.F("role", profile.Role))

	return s.startSession(c, profile)
}

// handleSession returns the current viewer
func (s *Server) handleSession(c echo.Context) error {
	return c.JSON(http.StatusOK, viewerFrom(c))
}

// handleLogout deletes the session and clears the cookie
func (s *Server) handleLogout(c echo.Context) error {
	token, _ := c.Get("session_token").(string)
	if err := s.store.DeleteSession(c.Request().Context(), token); err != nil {
		return respondError(c, err)
	}

	c.SetCookie(s.sessionCookie("", time.Unix(0, 0)))
	return c.JSON(http.StatusOK, map[string]string{"status": "logged out"})
}

// handleChangePassword replaces the viewer's password
func (s *Server) handleChangePassword(c echo.Context) error {
	var req changePasswordRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request")
	}
	if len(req.NewPassword) < MinPasswordLength {
		return respondError(c, model.Invalid("new_password",
			fmt.Sprintf("must be at least %d characters", MinPasswordLength)))
	}

	ctx := c.Request().Context()
	viewer := viewerFrom(c)
	profile, err := s.store.GetProfile(ctx, viewer.UserID)
	if err != nil {
		return respondError(c, err)
	}

	// an account created through a magic link has no password yet
	if profile.PasswordHash != "" &&
		bcrypt.CompareHashAndPassword([]byte(profile.PasswordHash), []byte(req.CurrentPassword)) != nil {
		return respondError(c, model.Invalid("current_password", "does not match"))
	}

	hash, err := hashPassword(req.NewPassword)
	if err != nil {
		return respondError(c, err)
	}
	if err := s.store.SetPassword(ctx, profile.ID, hash); err != nil {
		return respondError(c, err)
	}

	// old sessions die with the old password; the caller gets a fresh one
	dropped, err := s.store.DeleteSessionsForUser(ctx, profile.ID)
	if err != nil {
		return respondError(c, err)
	}

	logger.Info("Password changed",
		logger.F("user_id", profile.ID),
		logger.F("sessions_dropped", dropped))
	return s.startSession(c, profile)
}

// startSession issues a session for profile, sets the cookie and writes
// the auth response
func (s *Server) startSession(c echo.Context, profile *model.Profile) error {
	token, expiresAt, err := s.createSession(c.Request().Context(), profile.ID)
	if err != nil {
		return respondError(c, err)
	}

	c.SetCookie(s.sessionCookie(token, expiresAt))
	return c.JSON(http.StatusOK, authResponse{
		Token:     token,
		ExpiresAt: expiresAt.Format(time.RFC3339),
		User:      profile.Viewer(),
	})
}

func (s *Server) sessionCookie(token string, expires time.Time) *http.Cookie {
	cookie := &http.Cookie{
		Name:     s.cfg.Auth.CookieName,
		Value:    token,
		Path:     "/",
		Domain:   s.cfg.Auth.CookieDomain,
		Expires:  expires,
		HttpOnly: true,
		Secure:   s.cfg.Auth.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	}
	if token == "" {
		cookie.MaxAge = -1
	}
	return cookie
}

// newToken returns 32 random bytes hex encoded
func newToken() (string, error) {
	tokenBytes := make([]byte, 32)
	if _, err := rand.Read(tokenBytes); err != nil {
		return "", fmt.Errorf("%w: token generation: %w", model.ErrUpstream, err)
	}
	return hex.EncodeToString(tokenBytes), nil
}

// createSession creates a new session for a user
func (s *Server) createSession(ctx context.Context, userID string) (string, time.Time, error) {
	token, err := newToken()
	if err != nil {
		return "", time.Time{}, err
	}

	expiresAt := s.now().Add(s.cfg.Auth.SessionTTL)
	err = s.store.CreateSession(ctx, &model.Session{
		Token:     token,
		UserID:    userID,
		ExpiresAt: expiresAt,
	})

	return token, expiresAt, err
}

func hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("%w: bcrypt: %w", model.ErrUpstream, err)
	}
	return string(hash), nil
}

// Bootstrap creates the configured admin account when it does not exist yet
// and drops expired sessions
func (s *Server) Bootstrap(ctx context.Context) error {
	if n, err := s.store.PurgeExpiredSessions(ctx, s.now()); err != nil {
		return err
	} else if n > 0 {
		logger.Info("Purged expired sessions", logger.F("count", n))
	}

	email := strings.TrimSpace(s.cfg.Bootstrap.AdminEmail)
	if email == "" {
		return nil
	}

	_, err := s.store.GetProfileByEmail(ctx, email)
	if err == nil {
		return nil
	}
	if !errors.Is(err, model.ErrNotFound) {
		return err
	}

	if len(s.cfg.Bootstrap.AdminPassword) < MinPasswordLength {
		return fmt.Errorf("bootstrap admin password must be at least %d characters", MinPasswordLength)
	}
	hash, err := hashPassword(s.cfg.Bootstrap.AdminPassword)
	if err != nil {
		return err
	}

	admin := &model.Profile{
		Email:        email,
		FullName:     "Administrator",
		Role:         model.RoleAdmin,
		PasswordHash: hash,
	}
	if err := s.store.CreateProfile(ctx, admin); err != nil {
		return fmt.Errorf("failed to create admin: %w", err)
	}

	logger.Info("Bootstrap admin created", logger.F("email", admin.Email))
	return nil
}
