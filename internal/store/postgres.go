package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"

	"github.com/existflow/sitetask/internal/model"
)

// Postgres is the production Store backed by lib/pq
type Postgres struct {
	db *sql.DB
}

// NewPostgres connects, pings and migrates the database at dbURL
func NewPostgres(dbURL string) (*Postgres, error) {
	db, err := sql.Open("postgres", dbURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	p := &Postgres{db: db}
	if err := p.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return p, nil
}

// Close closes the database connection
func (p *Postgres) Close() error {
	return p.db.Close()
}

// classify maps driver errors onto the model taxonomy
func classify(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s: %w", op, model.ErrNotFound)
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code.Name() {
		case "unique_violation":
			return model.Invalid(pqErr.Column, "already exists")
		case "foreign_key_violation":
			return model.Invalid(pqErr.Column, "references a missing record")
		case "check_violation":
			return model.Invalid(pqErr.Constraint, "violates "+pqErr.Table+" constraint")
		case "invalid_text_representation":
			// malformed uuid in a lookup
			return fmt.Errorf("%s: %w", op, model.ErrNotFound)
		}
	}

	return fmt.Errorf("%w: %s: %w", model.ErrUpstream, op, err)
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullStringPtr(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return nullString(*s)
}

func nullInt(i *int) sql.NullInt64 {
	if i == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*i), Valid: true}
}

func intPtr(n sql.NullInt64) *int {
	if !n.Valid {
		return nil
	}
	v := int(n.Int64)
	return &v
}

// ---- profiles ----

const profileColumns = `
	p.id, p.email, COALESCE(p.full_name, ''), p.role, COALESCE(p.company_id::text, ''),
	COALESCE(c.name, ''), COALESCE(p.password_hash, ''), p.created_at
	FROM profiles p LEFT JOIN companies c ON c.id = p.company_id`

func scanProfile(row interface{ Scan(...interface{}) error }) (*model.Profile, error) {
	var pr model.Profile
	var role string
	if err := row.Scan(&pr.ID, &pr.Email, &pr.FullName, &role, &pr.CompanyID,
		&pr.CompanyName, &pr.PasswordHash, &pr.CreatedAt); err != nil {
		return nil, err
	}
	pr.Role = model.Role(role)
	return &pr, nil
}

// GetProfile loads a profile by id
func (p *Postgres) GetProfile(ctx context.Context, id string) (*model.Profile, error) {
	pr, err := scanProfile(p.db.QueryRowContext(ctx, `SELECT`+profileColumns+` WHERE p.id = $1`, id))
	return pr, classify("get profile", err)
}

// GetProfileByEmail loads a profile by email, case-insensitively
func (p *Postgres) GetProfileByEmail(ctx context.Context, email string) (*model.Profile, error) {
	pr, err := scanProfile(p.db.QueryRowContext(ctx,
		`SELECT`+profileColumns+` WHERE lower(p.email) = lower($1)`, email))
	return pr, classify("get profile by email", err)
}

// CreateProfile inserts a profile and fills its id
func (p *Postgres) CreateProfile(ctx context.Context, pr *model.Profile) error {
	err := p.db.QueryRowContext(ctx, `
		INSERT INTO profiles (email, full_name, role, company_id, password_hash)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at`,
		strings.ToLower(pr.Email), nullString(pr.FullName), string(pr.Role),
		nullString(pr.CompanyID), nullString(pr.PasswordHash),
	).Scan(&pr.ID, &pr.CreatedAt)
	return classify("create profile", err)
}

// SetPassword replaces a profile's password hash
func (p *Postgres) SetPassword(ctx context.Context, userID, passwordHash string) error {
	res, err := p.db.ExecContext(ctx,
		`UPDATE profiles SET password_hash = $2 WHERE id = $1`, userID, passwordHash)
	if err != nil {
		return classify("set password", err)
	}
	return requireRow("set password", res)
}

func requireRow(op string, res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return classify(op, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", op, model.ErrNotFound)
	}
	return nil
}

// ---- sessions ----

// CreateSession stores a session token
func (p *Postgres) CreateSession(ctx context.Context, s *model.Session) error {
	err := p.db.QueryRowContext(ctx, `
		INSERT INTO sessions (user_id, token, expires_at)
		VALUES ($1, $2, $3)
		RETURNING created_at`,
		s.UserID, s.Token, s.ExpiresAt,
	).Scan(&s.CreatedAt)
	return classify("create session", err)
}

// GetSession loads a session by token
func (p *Postgres) GetSession(ctx context.Context, token string) (*model.Session, error) {
	var s model.Session
	err := p.db.QueryRowContext(ctx, `
		SELECT token, user_id, expires_at, created_at FROM sessions WHERE token = $1`,
		token,
	).Scan(&s.Token, &s.UserID, &s.ExpiresAt, &s.CreatedAt)
	if err != nil {
		return nil, classify("get session", err)
	}
	return &s, nil
}

// DeleteSession removes a session. Deleting a missing session is not an error.
func (p *Postgres) DeleteSession(ctx context.Context, token string) error {
	_, err := p.db.ExecContext(ctx, `DELETE FROM sessions WHERE token = $1`, token)
	return classify("delete session", err)
}

// DeleteSessionsForUser deletes every session of a profile
func (p *Postgres) DeleteSessionsForUser(ctx context.Context, userID string) (int64, error) {
	res, err := p.db.ExecContext(ctx, `DELETE FROM sessions WHERE user_id = $1`, userID)
	if err != nil {
		return 0, classify("delete user sessions", err)
	}
	return res.RowsAffected()
}

// PurgeExpiredSessions deletes sessions and magic links that expired before now
func (p *Postgres) PurgeExpiredSessions(ctx context.Context, now time.Time) (int64, error) {
	res, err := p.db.ExecContext(ctx, `DELETE FROM sessions WHERE expires_at < $1`, now)
	if err != nil {
		return 0, classify("purge sessions", err)
	}
	if _, err := p.db.ExecContext(ctx, `DELETE FROM magic_links WHERE expires_at < $1`, now); err != nil {
		return 0, classify("purge magic links", err)
	}
	return res.RowsAffected()
}

// CreateMagicLink stores a magic link
func (p *Postgres) CreateMagicLink(ctx context.Context, m *model.MagicLink) error {
	err := p.db.QueryRowContext(ctx, `
		INSERT INTO magic_links (email, token, expires_at)
		VALUES ($1, $2, $3)
		RETURNING created_at`,
		strings.ToLower(m.Email), m.Token, m.ExpiresAt,
	).Scan(&m.CreatedAt)
	return classify("create magic link", err)
}

// ConsumeMagicLink marks the link used in the same statement that checks it
func (p *Postgres) ConsumeMagicLink(ctx context.Context, token string, now time.Time) (*model.MagicLink, error) {
	var m model.MagicLink
	err := p.db.QueryRowContext(ctx, `
		SELECT email, token, used, expires_at, created_at FROM magic_links WHERE token = $1`,
		token,
	).Scan(&m.Email, &m.Token, &m.Used, &m.ExpiresAt, &m.CreatedAt)
	if err != nil {
		return nil, classify("get magic link", err)
	}
	if m.Used {
		return nil, model.Invalid("token", "token already used")
	}
	if m.IsExpired(now) {
		return nil, model.Invalid("token", "token expired")
	}

	res, err := p.db.ExecContext(ctx,
		`UPDATE magic_links SET used = TRUE WHERE token = $1 AND used = FALSE`, token)
	if err != nil {
		return nil, classify("consume magic link", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, model.Invalid("token", "token already used")
	}
	m.Used = true
	return &m, nil
}

// ---- companies ----

const companyColumns = `
	c.id, c.name, COALESCE(c.block_prefix, ''), c.created_at,
	EXISTS (SELECT 1 FROM profiles lp WHERE lp.company_id = c.id AND lp.password_hash IS NOT NULL),
	COALESCE((SELECT lp.email FROM profiles lp WHERE lp.company_id = c.id ORDER BY lp.created_at LIMIT 1), '')
	FROM companies c`

func scanCompany(row interface{ Scan(...interface{}) error }) (*model.Company, error) {
	var c model.Company
	if err := row.Scan(&c.ID, &c.Name, &c.BlockPrefix, &c.CreatedAt, &c.HasLogin, &c.LoginEmail); err != nil {
		return nil, err
	}
	return &c, nil
}

// ListCompanies returns every company ordered by name
func (p *Postgres) ListCompanies(ctx context.Context) ([]model.Company, error) {
	rows, err := p.db.QueryContext(ctx, `SELECT`+companyColumns+` ORDER BY c.name`)
	if err != nil {
		return nil, classify("list companies", err)
	}
	defer rows.Close()

	var out []model.Company
	for rows.Next() {
		c, err := scanCompany(rows)
		if err != nil {
			return nil, classify("scan company", err)
		}
		out = append(out, *c)
	}
	return out, classify("list companies", rows.Err())
}

// GetCompany loads a company by id
func (p *Postgres) GetCompany(ctx context.Context, id string) (*model.Company, error) {
	c, err := scanCompany(p.db.QueryRowContext(ctx, `SELECT`+companyColumns+` WHERE c.id = $1`, id))
	return c, classify("get company", err)
}

// CreateCompany inserts a company and fills its id
func (p *Postgres) CreateCompany(ctx context.Context, c *model.Company) error {
	err := p.db.QueryRowContext(ctx, `
		INSERT INTO companies (name, block_prefix) VALUES ($1, $2)
		RETURNING id, created_at`,
		c.Name, nullString(c.BlockPrefix),
	).Scan(&c.ID, &c.CreatedAt)
	return classify("create company", err)
}

// UpsertCompanyLogin creates the company's contractor profile or updates
// its email and password
func (p *Postgres) UpsertCompanyLogin(ctx context.Context, companyID, email, passwordHash string) (*model.Profile, error) {
	var id string
	err := p.db.QueryRowContext(ctx, `
		SELECT id FROM profiles WHERE company_id = $1 AND role = 'contractor'
		ORDER BY created_at LIMIT 1`, companyID).Scan(&id)

	switch {
	case errors.Is(err, sql.ErrNoRows):
		pr := &model.Profile{
			Email:        email,
			Role:         model.RoleContractor,
			CompanyID:    companyID,
			PasswordHash: passwordHash,
		}
		if err := p.CreateProfile(ctx, pr); err != nil {
			return nil, err
		}
		return p.GetProfile(ctx, pr.ID)
	case err != nil:
		return nil, classify("find company login", err)
	}

	if _, err := p.db.ExecContext(ctx,
		`UPDATE profiles SET email = $2, password_hash = $3 WHERE id = $1`,
		id, strings.ToLower(email), passwordHash); err != nil {
		return nil, classify("update company login", err)
	}
	return p.GetProfile(ctx, id)
}

// ---- projects ----

const projectColumns = `id, name, end_date, is_active, created_at, updated_at FROM projects`

func scanProject(row interface{ Scan(...interface{}) error }) (*model.Project, error) {
	var pr model.Project
	if err := row.Scan(&pr.ID, &pr.Name, &pr.EndDate, &pr.IsActive, &pr.CreatedAt, &pr.UpdatedAt); err != nil {
		return nil, err
	}
	return &pr, nil
}

// ListProjects returns projects, newest first
func (p *Postgres) ListProjects(ctx context.Context, activeOnly bool) ([]model.Project, error) {
	query := `SELECT ` + projectColumns
	if activeOnly {
		query += ` WHERE is_active`
	}
	query += ` ORDER BY created_at DESC`

	rows, err := p.db.QueryContext(ctx, query)
	if err != nil {
		return nil, classify("list projects", err)
	}
	defer rows.Close()

	var out []model.Project
	for rows.Next() {
		pr, err := scanProject(rows)
		if err != nil {
			return nil, classify("scan project", err)
		}
		out = append(out, *pr)
	}
	return out, classify("list projects", rows.Err())
}

// GetProject loads a project by id
func (p *Postgres) GetProject(ctx context.Context, id string) (*model.Project, error) {
	pr, err := scanProject(p.db.QueryRowContext(ctx, `SELECT `+projectColumns+` WHERE id = $1`, id))
	return pr, classify("get project", err)
}

// ActiveProject returns the newest active project
func (p *Postgres) ActiveProject(ctx context.Context) (*model.Project, error) {
	pr, err := scanProject(p.db.QueryRowContext(ctx,
		`SELECT `+projectColumns+` WHERE is_active ORDER BY created_at DESC LIMIT 1`))
	return pr, classify("active project", err)
}

// CreateProject inserts an active project
func (p *Postgres) CreateProject(ctx context.Context, pr *model.Project) error {
	pr.IsActive = true
	err := p.db.QueryRowContext(ctx, `
		INSERT INTO projects (name, end_date, is_active) VALUES ($1, $2, TRUE)
		RETURNING id, created_at, updated_at`,
		pr.Name, pr.EndDate,
	).Scan(&pr.ID, &pr.CreatedAt, &pr.UpdatedAt)
	return classify("create project", err)
}

// UpdateProject applies an admin edit
func (p *Postgres) UpdateProject(ctx context.Context, id string, patch model.ProjectPatch) (*model.Project, error) {
	var name sql.NullString
	if patch.Name != nil {
		name = sql.NullString{String: *patch.Name, Valid: true}
	}
	var end interface{}
	if patch.EndDate != nil {
		end = *patch.EndDate
	}

	pr, err := scanProject(p.db.QueryRowContext(ctx, `
		UPDATE projects SET
			name = COALESCE($2, name),
			end_date = COALESCE($3::date, end_date),
			updated_at = NOW()
		WHERE id = $1
		RETURNING `+strings.TrimSuffix(projectColumns, " FROM projects"),
		id, name, end))
	return pr, classify("update project", err)
}

// DeactivateProject soft-deletes a project
func (p *Postgres) DeactivateProject(ctx context.Context, id string) (*model.Project, error) {
	pr, err := scanProject(p.db.QueryRowContext(ctx, `
		UPDATE projects SET is_active = FALSE, updated_at = NOW()
		WHERE id = $1
		RETURNING `+strings.TrimSuffix(projectColumns, " FROM projects"), id))
	return pr, classify("deactivate project", err)
}

// ---- tasks ----

const taskColumns = `
	t.id, t.project_id, t.company_id, c.name, t.block, t.floor, t.floor_from, t.floor_to,
	t.title, COALESCE(t.notes, ''), t.start_date, t.due_date, t.status, t.is_completed,
	t.is_approved, t.approved_at, t.dependent_company_id, COALESCE(dc.name, ''),
	t.created_at, t.updated_at
	FROM tasks t
	JOIN companies c ON c.id = t.company_id
	LEFT JOIN companies dc ON dc.id = t.dependent_company_id`

func scanTask(row interface{ Scan(...interface{}) error }) (*model.Task, error) {
	var t model.Task
	var floor, from, to sql.NullInt64
	var status string
	var approvedAt sql.NullTime
	var dep sql.NullString

	if err := row.Scan(&t.ID, &t.ProjectID, &t.CompanyID, &t.CompanyName, &t.Block,
		&floor, &from, &to, &t.Title, &t.Notes, &t.StartDate, &t.DueDate, &status,
		&t.IsCompleted, &t.IsApproved, &approvedAt, &dep, &t.DependentCompanyName,
		&t.CreatedAt, &t.UpdatedAt); err != nil {
		return nil, err
	}

	t.Floor = intPtr(floor)
	t.FloorFrom = intPtr(from)
	t.FloorTo = intPtr(to)
	t.Status = model.TaskStatus(status)
	if approvedAt.Valid {
		at := approvedAt.Time
		t.ApprovedAt = &at
	}
	if dep.Valid {
		id := dep.String
		t.DependentCompanyID = &id
	}
	return &t, nil
}

// ListTasks returns tasks matching f ordered by due date
func (p *Postgres) ListTasks(ctx context.Context, f model.TaskFilter) ([]model.Task, error) {
	var where []string
	var args []interface{}
	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if f.ProjectID != "" {
		where = append(where, "t.project_id = "+arg(f.ProjectID))
	}
	if f.CompanyID != "" {
		where = append(where, "t.company_id = "+arg(f.CompanyID))
	}
	if f.ApprovedOnly {
		where = append(where, "t.is_approved")
	}
	if f.UnapprovedOnly {
		where = append(where, "NOT t.is_approved")
	}
	if f.ApprovedSince != nil {
		where = append(where, "t.approved_at >= "+arg(*f.ApprovedSince))
	}
	if f.VisibleTo != "" {
		where = append(where, "(t.is_approved OR t.company_id = "+arg(f.VisibleTo)+")")
	}

	query := `SELECT ` + taskColumns
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY t.due_date, t.created_at"

	rows, err := p.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, classify("list tasks", err)
	}
	defer rows.Close()

	var out []model.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, classify("scan task", err)
		}
		out = append(out, *t)
	}
	return out, classify("list tasks", rows.Err())
}

// GetTask loads a task by id
func (p *Postgres) GetTask(ctx context.Context, id string) (*model.Task, error) {
	t, err := scanTask(p.db.QueryRowContext(ctx, `SELECT `+taskColumns+` WHERE t.id = $1`, id))
	return t, classify("get task", err)
}

// CreateTask inserts a task and reloads it with joined names
func (p *Postgres) CreateTask(ctx context.Context, t *model.Task) error {
	var id string
	err := p.db.QueryRowContext(ctx, `
		INSERT INTO tasks (project_id, company_id, block, floor, floor_from, floor_to, title, notes,
			start_date, due_date, status, is_completed, is_approved, dependent_company_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING id`,
		t.ProjectID, t.CompanyID, t.Block, nullInt(t.Floor), nullInt(t.FloorFrom), nullInt(t.FloorTo),
		t.Title, nullString(t.Notes), t.StartDate, t.DueDate, string(t.Status),
		t.IsCompleted, t.IsApproved, nullStringPtr(t.DependentCompanyID),
	).Scan(&id)
	if err != nil {
		return classify("create task", err)
	}

	created, err := p.GetTask(ctx, id)
	if err != nil {
		return err
	}
	*t = *created
	return nil
}

// UpdateTask writes every mutable column of t
func (p *Postgres) UpdateTask(ctx context.Context, t *model.Task) error {
	res, err := p.db.ExecContext(ctx, `
		UPDATE tasks SET
			block = $2, floor = $3, floor_from = $4, floor_to = $5, title = $6, notes = $7,
			start_date = $8, due_date = $9, status = $10, is_completed = $11,
			dependent_company_id = $12, updated_at = NOW()
		WHERE id = $1`,
		t.ID, t.Block, nullInt(t.Floor), nullInt(t.FloorFrom), nullInt(t.FloorTo),
		t.Title, nullString(t.Notes), t.StartDate, t.DueDate, string(t.Status),
		t.IsCompleted, nullStringPtr(t.DependentCompanyID),
	)
	if err != nil {
		return classify("update task", err)
	}
	if err := requireRow("update task", res); err != nil {
		return err
	}

	updated, err := p.GetTask(ctx, t.ID)
	if err != nil {
		return err
	}
	*t = *updated
	return nil
}

// ApproveTask flips the approval flag and stamps the time in one UPDATE
func (p *Postgres) ApproveTask(ctx context.Context, id string, at time.Time) (*model.Task, error) {
	res, err := p.db.ExecContext(ctx, `
		UPDATE tasks SET is_approved = TRUE, approved_at = $2, updated_at = $2
		WHERE id = $1`, id, at)
	if err != nil {
		return nil, classify("approve task", err)
	}
	if err := requireRow("approve task", res); err != nil {
		return nil, err
	}
	return p.GetTask(ctx, id)
}

// DeleteTask removes a task and returns the deleted row
func (p *Postgres) DeleteTask(ctx context.Context, id string) (*model.Task, error) {
	t, err := p.GetTask(ctx, id)
	if err != nil {
		return nil, err
	}
	res, err := p.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = $1`, id)
	if err != nil {
		return nil, classify("delete task", err)
	}
	if err := requireRow("delete task", res); err != nil {
		return nil, err
	}
	return t, nil
}

var _ Store = (*Postgres)(nil)
