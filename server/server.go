package server

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/existflow/sitetask/internal/config"
	"github.com/existflow/sitetask/internal/lifecycle"
	"github.com/existflow/sitetask/internal/store"
)

// Server is the task tracking API
type Server struct {
	cfg     *config.ServerConfig
	store   store.Store
	loc     *time.Location
	catalog lifecycle.Catalog
	echo    *echo.Echo

	// now is the clock every lifecycle rule is evaluated against
	now func() time.Time
}

// Option customizes a Server
type Option func(*Server)

// WithClock overrides the wall clock. Used by tests.
func WithClock(now func() time.Time) Option {
	return func(s *Server) { s.now = now }
}

// New creates a new server on top of st
func New(cfg *config.ServerConfig, st store.Store, opts ...Option) (*Server, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	s := &Server{
		cfg:     cfg,
		store:   st,
		loc:     loc,
		catalog: cfg.Catalog(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.setupEcho()

	return s, nil
}

func (s *Server) setupEcho() {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(requestLogger)
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowCredentials: true,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete},
	}))

	// Health check
	e.GET("/health", s.handleHealth)

	// API v1
	api := e.Group("/api/v1")

	// Auth endpoints (public)
	api.POST("/auth/login", s.handleLogin)
	api.POST("/auth/magic-link", s.handleMagicLink)
	api.GET("/auth/magic-link/:token", s.handleMagicLinkVerify)

	// Protected endpoints
	protected := api.Group("")
	protected.Use(s.authMiddleware)
	protected.GET("/auth/session", s.handleSession)
	protected.POST("/auth/logout", s.handleLogout)
	protected.PATCH("/auth/password", s.handleChangePassword)

	protected.GET("/tasks", s.handleListTasks)
	protected.POST("/tasks", s.handleCreateTask)
	protected.GET("/tasks/:id", s.handleGetTask)
	protected.PATCH("/tasks/:id", s.handleUpdateTask)
	protected.DELETE("/tasks/:id", s.handleDeleteTask)

	protected.GET("/companies", s.handleListCompanies)
	protected.GET("/projects", s.handleListProjects)
	protected.GET("/projects/active", s.handleActiveProject)
	protected.GET("/projects/:id", s.handleGetProject)
	protected.GET("/blocks", s.handleListBlocks)

	// Admin endpoints
	admin := protected.Group("", requireAdmin)
	admin.POST("/companies", s.handleCreateCompany)
	admin.POST("/projects", s.handleCreateProject)
	admin.PATCH("/projects/:id", s.handleUpdateProject)
	admin.DELETE("/projects/:id", s.handleDeactivateProject)
	admin.GET("/admin/queue", s.handleApprovalQueue)
	admin.PATCH("/admin/approve/:id", s.handleApprove)
	admin.DELETE("/admin/reject/:id", s.handleReject)
	admin.POST("/admin/companies/:id/login", s.handleCompanyLogin)

	s.echo = e
}

// Close closes the store
func (s *Server) Close() error {
	return s.store.Close()
}

// Router returns the HTTP handler
func (s *Server) Router() http.Handler {
	return s.echo
}

// Start starts the server
func (s *Server) Start(addr string) error {
	return s.echo.Start(addr)
}

// Shutdown stops accepting requests and waits for in-flight ones
func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

// clock returns now in the site's time zone
func (s *Server) clock() time.Time {
	return s.now().In(s.loc)
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}
