package server

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/existflow/sitetask/internal/logger"
	"github.com/existflow/sitetask/internal/model"
)

const magicLinkMessage = "if email exists, a magic link will be sent"

type magicLinkRequest struct {
	Email string `json:"email"`
}

// handleMagicLink creates a magic link for passwordless login
func (s *Server) handleMagicLink(c echo.Context) error {
	var req magicLinkRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request")
	}

	if req.Email == "" {
		return badRequest(c, "email required")
	}

	ctx := c.Request().Context()

	// Don't reveal if email exists
	if _, err := s.store.GetProfileByEmail(ctx, req.Email); err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return c.JSON(http.StatusOK, map[string]string{"message": magicLinkMessage})
		}
		return respondError(c, err)
	}

	token, err := newToken()
	if err != nil {
		return respondError(c, err)
	}

	link := &model.MagicLink{
		Email:     req.Email,
		Token:     token,
		ExpiresAt: s.now().Add(s.cfg.Auth.MagicLinkTTL),
	}
	if err := s.store.CreateMagicLink(ctx, link); err != nil {
		return respondError(c, err)
	}

	logger.Info("Magic link created", logger.F("email", link.Email))

	resp := map[string]string{"message": magicLinkMessage}
	if s.cfg.Auth.ExposeMagicToken {
		resp["token"] = token
	}
	return c.JSON(http.StatusOK, resp)
}

// handleMagicLinkVerify consumes a magic link and creates a session
func (s *Server) handleMagicLinkVerify(c echo.Context) error {
	token := c.Param("token")
	if token == "" {
		return badRequest(c, "token required")
	}

	ctx := c.Request().Context()
	link, err := s.store.ConsumeMagicLink(ctx, token, s.now())
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return badRequest(c, "invalid token")
		}
		return respondError(c, err)
	}

	profile, err := s.store.GetProfileByEmail(ctx, link.Email)
	if err != nil {
		return respondError(c, err)
	}

	logger.Info("Magic link login", logger.F("user_id", profile.ID))

	return s.startSession(c, profile)
}
