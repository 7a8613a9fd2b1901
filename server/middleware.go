package server

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/existflow/sitetask/internal/logger"
	"github.com/existflow/sitetask/internal/model"
)

const viewerKey = "viewer"

// requestLogger logs every request once it has been served
func requestLogger(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		start := time.Now()
		req := c.Request()

		err := next(c)
		if err != nil {
			// let echo write the response so the status below is final
			c.Error(err)
		}

		res := c.Response()
		fields := []logger.Field{
			logger.F("request_id", res.Header().Get(echo.HeaderXRequestID)),
			logger.F("method", req.Method),
			logger.F("uri", req.RequestURI),
			logger.F("status", res.Status),
			logger.F("size", res.Size),
			logger.F("duration", time.Since(start).String()),
		}
		if v, ok := c.Get(viewerKey).(*model.Viewer); ok {
			fields = append(fields, logger.F("user_id", v.UserID))
		}

		if res.Status >= http.StatusInternalServerError {
			logger.Warn("HTTP Response", fields...)
		} else {
			logger.Info("HTTP Response", fields...)
		}

		return nil
	}
}

// sessionToken reads the bearer header first, then the session cookie
func (s *Server) sessionToken(c echo.Context) string {
	if auth := c.Request().Header.Get(echo.HeaderAuthorization); auth != "" {
		if token := strings.TrimPrefix(auth, "Bearer "); token != auth {
			return token
		}
	}
	if cookie, err := c.Cookie(s.cfg.Auth.CookieName); err == nil {
		return cookie.Value
	}
	return ""
}

// authMiddleware resolves the session into a viewer
func (s *Server) authMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		token := s.sessionToken(c)
		if token == "" {
			return respondError(c, model.ErrUnauthenticated)
		}

		ctx := c.Request().Context()
		session, err := s.store.GetSession(ctx, token)
		if err != nil {
			if errors.Is(err, model.ErrNotFound) {
				return respondError(c, model.ErrUnauthenticated)
			}
			return respondError(c, err)
		}

		if session.IsExpired(s.now()) {
			_ = s.store.DeleteSession(ctx, token)
			return respondError(c, model.ErrUnauthenticated)
		}

		profile, err := s.store.GetProfile(ctx, session.UserID)
		if err != nil {
			if errors.Is(err, model.ErrNotFound) {
				return respondError(c, model.ErrUnauthenticated)
			}
			return respondError(c, err)
		}

		c.Set(viewerKey, profile.Viewer())
		c.Set("session_token", token)
		return next(c)
	}
}

// requireAdmin rejects non-admin viewers
func requireAdmin(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if !viewerFrom(c).IsAdmin() {
			return respondError(c, model.Forbidden("admin role required"))
		}
		return next(c)
	}
}

// viewerFrom returns the viewer set by authMiddleware, or nil
func viewerFrom(c echo.Context) *model.Viewer {
	v, _ := c.Get(viewerKey).(*model.Viewer)
	return v
}
