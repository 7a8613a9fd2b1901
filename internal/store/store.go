// Package store persists profiles, sessions, companies, projects and tasks.
// Every implementation reports a missing row as model.ErrNotFound, a rejected
// write as model.ErrValidation and anything else as model.ErrUpstream.
package store

import (
	"context"
	"time"

	"github.com/existflow/sitetask/internal/model"
)

// ProfileStore manages login accounts
type ProfileStore interface {
	GetProfile(ctx context.Context, id string) (*model.Profile, error)
	GetProfileByEmail(ctx context.Context, email string) (*model.Profile, error)
	CreateProfile(ctx context.Context, p *model.Profile) error
	SetPassword(ctx context.Context, userID, passwordHash string) error
}

// SessionStore manages session tokens and magic links
type SessionStore interface {
	CreateSession(ctx context.Context, s *model.Session) error
	GetSession(ctx context.Context, token string) (*model.Session, error)
	DeleteSession(ctx context.Context, token string) error
	// DeleteSessionsForUser signs a profile out everywhere
	DeleteSessionsForUser(ctx context.Context, userID string) (int64, error)
	PurgeExpiredSessions(ctx context.Context, now time.Time) (int64, error)

	CreateMagicLink(ctx context.Context, m *model.MagicLink) error
	// ConsumeMagicLink marks an unused, unexpired link as used and returns it
	ConsumeMagicLink(ctx context.Context, token string, now time.Time) (*model.MagicLink, error)
}

// CompanyStore manages subcontractor companies
type CompanyStore interface {
	ListCompanies(ctx context.Context) ([]model.Company, error)
	GetCompany(ctx context.Context, id string) (*model.Company, error)
	CreateCompany(ctx context.Context, c *model.Company) error
	// UpsertCompanyLogin creates or re-keys the contractor login of a company
	UpsertCompanyLogin(ctx context.Context, companyID, email, passwordHash string) (*model.Profile, error)
}

// ProjectStore manages projects
type ProjectStore interface {
	ListProjects(ctx context.Context, activeOnly bool) ([]model.Project, error)
	GetProject(ctx context.Context, id string) (*model.Project, error)
	// ActiveProject returns the most recently created active project
	ActiveProject(ctx context.Context) (*model.Project, error)
	CreateProject(ctx context.Context, p *model.Project) error
	UpdateProject(ctx context.Context, id string, patch model.ProjectPatch) (*model.Project, error)
	DeactivateProject(ctx context.Context, id string) (*model.Project, error)
}

// TaskStore manages tasks
type TaskStore interface {
	ListTasks(ctx context.Context, f model.TaskFilter) ([]model.Task, error)
	GetTask(ctx context.Context, id string) (*model.Task, error)
	CreateTask(ctx context.Context, t *model.Task) error
	UpdateTask(ctx context.Context, t *model.Task) error
	// ApproveTask sets is_approved and approved_at in one write
	ApproveTask(ctx context.Context, id string, at time.Time) (*model.Task, error)
	// DeleteTask removes the row and returns what was deleted
	DeleteTask(ctx context.Context, id string) (*model.Task, error)
}

// Store is the full persistence surface the server needs
type Store interface {
	ProfileStore
	SessionStore
	CompanyStore
	ProjectStore
	TaskStore
	Close() error
}
