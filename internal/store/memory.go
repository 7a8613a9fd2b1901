package store

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/existflow/sitetask/internal/model"
)

// Memory is an in-process Store for development and tests. It enforces the
// same uniqueness and reference rules as the Postgres schema.
type Memory struct {
	mu         sync.RWMutex
	now        func() time.Time
	profiles   map[string]*model.Profile
	sessions   map[string]*model.Session
	magicLinks map[string]*model.MagicLink
	companies  map[string]*model.Company
	projects   map[string]*model.Project
	tasks      map[string]*model.Task
}

// NewMemory returns an empty in-memory store
func NewMemory() *Memory {
	return &Memory{
		now:        time.Now,
		profiles:   make(map[string]*model.Profile),
		sessions:   make(map[string]*model.Session),
		magicLinks: make(map[string]*model.MagicLink),
		companies:  make(map[string]*model.Company),
		projects:   make(map[string]*model.Project),
		tasks:      make(map[string]*model.Task),
	}
}

// SetClock replaces the timestamp source. Used by tests.
func (m *Memory) SetClock(now func() time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = now
}

// Close is a no-op
func (m *Memory) Close() error {
	return nil
}

// ---- profiles ----

func (m *Memory) profileCopy(p *model.Profile) *model.Profile {
	cp := *p
	if c, ok := m.companies[cp.CompanyID]; ok {
		cp.CompanyName = c.Name
	}
	return &cp
}

// GetProfile loads a profile by id
func (m *Memory) GetProfile(_ context.Context, id string) (*model.Profile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	p, ok := m.profiles[id]
	if !ok {
		return nil, model.ErrNotFound
	}
	return m.profileCopy(p), nil
}

// GetProfileByEmail loads a profile by email, case-insensitively
func (m *Memory) GetProfileByEmail(_ context.Context, email string) (*model.Profile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if p := m.findEmail(email); p != nil {
		return m.profileCopy(p), nil
	}
	return nil, model.ErrNotFound
}

func (m *Memory) findEmail(email string) *model.Profile {
	for _, p := range m.profiles {
		if strings.EqualFold(p.Email, email) {
			return p
		}
	}
	return nil
}

// CreateProfile inserts a profile and fills its id
func (m *Memory) CreateProfile(_ context.Context, p *model.Profile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.createProfile(p)
}

func (m *Memory) createProfile(p *model.Profile) error {
	if m.findEmail(p.Email) != nil {
		return model.Invalid("email", "already exists")
	}
	if !p.Role.Valid() {
		return model.Invalid("role", "must be contractor or admin")
	}
	if p.Role != model.RoleAdmin && p.CompanyID == "" {
		return model.Invalid("company_id", "required for contractors")
	}
	if p.CompanyID != "" {
		if _, ok := m.companies[p.CompanyID]; !ok {
			return model.Invalid("company_id", "references a missing record")
		}
	}

	p.ID = uuid.New().String()
	p.Email = strings.ToLower(p.Email)
	p.CreatedAt = m.now()
	stored := *p
	m.profiles[p.ID] = &stored
	return nil
}

// SetPassword replaces a profile's password hash
func (m *Memory) SetPassword(_ context.Context, userID, passwordHash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.profiles[userID]
	if !ok {
		return model.ErrNotFound
	}
	p.PasswordHash = passwordHash
	return nil
}

// ---- sessions ----

// CreateSession stores a session token
func (m *Memory) CreateSession(_ context.Context, s *model.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.profiles[s.UserID]; !ok {
		return model.Invalid("user_id", "references a missing record")
	}
	if _, ok := m.sessions[s.Token]; ok {
		return model.Invalid("token", "already exists")
	}
	s.CreatedAt = m.now()
	stored := *s
	m.sessions[s.Token] = &stored
	return nil
}

// GetSession loads a session by token
func (m *Memory) GetSession(_ context.Context, token string) (*model.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.sessions[token]
	if !ok {
		return nil, model.ErrNotFound
	}
	cp := *s
	return &cp, nil
}

// DeleteSession removes a session
func (m *Memory) DeleteSession(_ context.Context, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, token)
	return nil
}

// DeleteSessionsForUser removes every session of a profile
func (m *Memory) DeleteSessionsForUser(_ context.Context, userID string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var n int64
	for token, s := range m.sessions {
		if s.UserID == userID {
			delete(m.sessions, token)
			n++
		}
	}
	return n, nil
}

// PurgeExpiredSessions drops expired sessions and magic links
func (m *Memory) PurgeExpiredSessions(_ context.Context, now time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var n int64
	for token, s := range m.sessions {
		if s.IsExpired(now) {
			delete(m.sessions, token)
			n++
		}
	}
	for token, l := range m.magicLinks {
		if l.IsExpired(now) {
			delete(m.magicLinks, token)
		}
	}
	return n, nil
}

// CreateMagicLink stores a magic link
func (m *Memory) CreateMagicLink(_ context.Context, l *model.MagicLink) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.magicLinks[l.Token]; ok {
		return model.Invalid("token", "already exists")
	}
	l.Email = strings.ToLower(l.Email)
	l.CreatedAt = m.now()
	stored := *l
	m.magicLinks[l.Token] = &stored
	return nil
}

// ConsumeMagicLink marks an unused, unexpired link as used
func (m *Memory) ConsumeMagicLink(_ context.Context, token string, now time.Time) (*model.MagicLink, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	l, ok := m.magicLinks[token]
	if !ok {
		return nil, model.ErrNotFound
	}
	if l.Used {
		return nil, model.Invalid("token", "token already used")
	}
	if l.IsExpired(now) {
		return nil, model.Invalid("token", "token expired")
	}
	l.Used = true
	cp := *l
	return &cp, nil
}

// ---- companies ----

func (m *Memory) companyCopy(c *model.Company) *model.Company {
	cp := *c
	var login *model.Profile
	for _, p := range m.profiles {
		if p.CompanyID != c.ID {
			continue
		}
		if login == nil || p.CreatedAt.Before(login.CreatedAt) {
			login = p
		}
		if p.PasswordHash != "" {
			cp.HasLogin = true
		}
	}
	if login != nil {
		cp.LoginEmail = login.Email
	}
	return &cp
}

// ListCompanies returns every company ordered by name
func (m *Memory) ListCompanies(_ context.Context) ([]model.Company, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]model.Company, 0, len(m.companies))
	for _, c := range m.companies {
		out = append(out, *m.companyCopy(c))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// GetCompany loads a company by id
func (m *Memory) GetCompany(_ context.Context, id string) (*model.Company, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	c, ok := m.companies[id]
	if !ok {
		return nil, model.ErrNotFound
	}
	return m.companyCopy(c), nil
}

// CreateCompany inserts a company and fills its id
func (m *Memory) CreateCompany(_ context.Context, c *model.Company) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, existing := range m.companies {
		if existing.Name == c.Name {
			return model.Invalid("name", "already exists")
		}
	}
	c.ID = uuid.New().String()
	c.CreatedAt = m.now()
	c.HasLogin = false
	c.LoginEmail = ""
	stored := *c
	m.companies[c.ID] = &stored
	return nil
}

// UpsertCompanyLogin creates the company's contractor profile or updates
// its email and password
func (m *Memory) UpsertCompanyLogin(_ context.Context, companyID, email, passwordHash string) (*model.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.companies[companyID]; !ok {
		return nil, model.ErrNotFound
	}

	var login *model.Profile
	for _, p := range m.profiles {
		if p.CompanyID == companyID && p.Role == model.RoleContractor {
			if login == nil || p.CreatedAt.Before(login.CreatedAt) {
				login = p
			}
		}
	}

	if login == nil {
		p := &model.Profile{
			Email:        email,
			Role:         model.RoleContractor,
			CompanyID:    companyID,
			PasswordHash: passwordHash,
		}
		if err := m.createProfile(p); err != nil {
			return nil, err
		}
		return m.profileCopy(m.profiles[p.ID]), nil
	}

	if other := m.findEmail(email); other != nil && other.ID != login.ID {
		return nil, model.Invalid("email", "already exists")
	}
	login.Email = strings.ToLower(email)
	login.PasswordHash = passwordHash
	return m.profileCopy(login), nil
}

// ---- projects ----

// ListProjects returns projects, newest first
func (m *Memory) ListProjects(_ context.Context, activeOnly bool) ([]model.Project, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.listProjects(activeOnly), nil
}

func (m *Memory) listProjects(activeOnly bool) []model.Project {
	out := make([]model.Project, 0, len(m.projects))
	for _, p := range m.projects {
		if activeOnly && !p.IsActive {
			continue
		}
		out = append(out, *p)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

// GetProject loads a project by id
func (m *Memory) GetProject(_ context.Context, id string) (*model.Project, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	p, ok := m.projects[id]
	if !ok {
		return nil, model.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

// ActiveProject returns the newest active project
func (m *Memory) ActiveProject(_ context.Context) (*model.Project, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	active := m.listProjects(true)
	if len(active) == 0 {
		return nil, model.ErrNotFound
	}
	return &active[0], nil
}

// CreateProject inserts an active project
func (m *Memory) CreateProject(_ context.Context, p *model.Project) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	p.ID = uuid.New().String()
	p.IsActive = true
	p.CreatedAt = now
	p.UpdatedAt = now
	stored := *p
	m.projects[p.ID] = &stored
	return nil
}

// UpdateProject applies an admin edit
func (m *Memory) UpdateProject(_ context.Context, id string, patch model.ProjectPatch) (*model.Project, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.projects[id]
	if !ok {
		return nil, model.ErrNotFound
	}
	if patch.Name != nil {
		p.Name = *patch.Name
	}
	if patch.EndDate != nil {
		p.EndDate = *patch.EndDate
	}
	p.UpdatedAt = m.now()
	cp := *p
	return &cp, nil
}

// DeactivateProject soft-deletes a project
func (m *Memory) DeactivateProject(_ context.Context, id string) (*model.Project, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.projects[id]
	if !ok {
		return nil, model.ErrNotFound
	}
	p.IsActive = false
	p.UpdatedAt = m.now()
	cp := *p
	return &cp, nil
}

// ---- tasks ----

func (m *Memory) taskCopy(t *model.Task) *model.Task {
	cp := *t
	if c, ok := m.companies[cp.CompanyID]; ok {
		cp.CompanyName = c.Name
	}
	cp.DependentCompanyName = ""
	if cp.DependentCompanyID != nil {
		id := *cp.DependentCompanyID
		cp.DependentCompanyID = &id
		if c, ok := m.companies[id]; ok {
			cp.DependentCompanyName = c.Name
		}
	}
	cp.Floor = copyInt(t.Floor)
	cp.FloorFrom = copyInt(t.FloorFrom)
	cp.FloorTo = copyInt(t.FloorTo)
	if t.ApprovedAt != nil {
		at := *t.ApprovedAt
		cp.ApprovedAt = &at
	}
	return &cp
}

func copyInt(p *int) *int {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

type taskMatcher struct {
	model.TaskFilter
}

func (f *taskMatcher) match(t *model.Task) bool {
	switch {
	case f.ProjectID != "" && t.ProjectID != f.ProjectID:
		return false
	case f.CompanyID != "" && t.CompanyID != f.CompanyID:
		return false
	case f.ApprovedOnly && !t.IsApproved:
		return false
	case f.UnapprovedOnly && t.IsApproved:
		return false
	case f.ApprovedSince != nil && (t.ApprovedAt == nil || t.ApprovedAt.Before(*f.ApprovedSince)):
		return false
	case f.VisibleTo != "" && !t.IsApproved && t.CompanyID != f.VisibleTo:
		return false
	}
	return true
}

// ListTasks returns tasks matching f ordered by due date
func (m *Memory) ListTasks(_ context.Context, f model.TaskFilter) ([]model.Task, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	matcher := taskMatcher{f}
	out := make([]model.Task, 0)
	for _, t := range m.tasks {
		if matcher.match(t) {
			out = append(out, *m.taskCopy(t))
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if c := out[i].DueDate.Compare(out[j].DueDate); c != 0 {
			return c < 0
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

// GetTask loads a task by id
func (m *Memory) GetTask(_ context.Context, id string) (*model.Task, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	t, ok := m.tasks[id]
	if !ok {
		return nil, model.ErrNotFound
	}
	return m.taskCopy(t), nil
}

// checkTask mirrors the foreign keys and CHECK constraints of the tasks table
func (m *Memory) checkTask(t *model.Task) error {
	if _, ok := m.projects[t.ProjectID]; !ok {
		return model.Invalid("project_id", "references a missing record")
	}
	if _, ok := m.companies[t.CompanyID]; !ok {
		return model.Invalid("company_id", "references a missing record")
	}
	if t.HasDependency() {
		if _, ok := m.companies[*t.DependentCompanyID]; !ok {
			return model.Invalid("dependent_company_id", "references a missing record")
		}
	}
	if t.DueDate.Before(t.StartDate) {
		return model.Invalid("due_date", "must not be before start_date")
	}
	if t.Floor != nil && t.HasFloorRange() {
		return model.Invalid("floor", "floor and floor range are exclusive")
	}
	if (t.FloorFrom == nil) != (t.FloorTo == nil) {
		return model.Invalid("floor_from", "both range bounds are required")
	}
	if !t.Status.Valid() {
		return model.Invalid("status", "must be planned or in_progress")
	}
	return nil
}

// CreateTask inserts a task
func (m *Memory) CreateTask(_ context.Context, t *model.Task) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if t.Status == "" {
		t.Status = model.StatusPlanned
	}
	if err := m.checkTask(t); err != nil {
		return err
	}

	now := m.now()
	stored := *t
	stored.ID = uuid.New().String()
	stored.CreatedAt = now
	stored.UpdatedAt = now
	m.tasks[stored.ID] = m.taskCopy(&stored)
	*t = *m.taskCopy(m.tasks[stored.ID])
	return nil
}

// UpdateTask writes every mutable field of t
func (m *Memory) UpdateTask(_ context.Context, t *model.Task) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	existing, ok := m.tasks[t.ID]
	if !ok {
		return model.ErrNotFound
	}
	if err := m.checkTask(t); err != nil {
		return err
	}

	updated := m.taskCopy(t)
	updated.ProjectID = existing.ProjectID
	updated.CompanyID = existing.CompanyID
	updated.IsApproved = existing.IsApproved
	updated.ApprovedAt = existing.ApprovedAt
	updated.CreatedAt = existing.CreatedAt
	updated.UpdatedAt = m.now()
	m.tasks[t.ID] = updated
	*t = *m.taskCopy(updated)
	return nil
}

// ApproveTask sets the approval flag and timestamp together
func (m *Memory) ApproveTask(_ context.Context, id string, at time.Time) (*model.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	t, ok := m.tasks[id]
	if !ok {
		return nil, model.ErrNotFound
	}
	t.IsApproved = true
	stamp := at
	t.ApprovedAt = &stamp
	t.UpdatedAt = at
	return m.taskCopy(t), nil
}

// DeleteTask removes a task and returns it
func (m *Memory) DeleteTask(_ context.Context, id string) (*model.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	t, ok := m.tasks[id]
	if !ok {
		return nil, model.ErrNotFound
	}
	delete(m.tasks, id)
	return m.taskCopy(t), nil
}

var _ Store = (*Memory)(nil)
