// Package client talks to the sitetask API on behalf of the CLI and TUI.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/existflow/sitetask/internal/config"
	"github.com/existflow/sitetask/internal/lifecycle"
	"github.com/existflow/sitetask/internal/model"
)

// APIError is a non-2xx response from the server
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("server returned %d", e.Status)
	}
	return e.Message
}

// Is maps the status code back onto the model error taxonomy
func (e *APIError) Is(target error) bool {
	switch target {
	case model.ErrUnauthenticated:
		return e.Status == http.StatusUnauthorized
	case model.ErrForbidden:
		return e.Status == http.StatusForbidden
	case model.ErrNotFound:
		return e.Status == http.StatusNotFound
	case model.ErrValidation:
		return e.Status == http.StatusBadRequest
	case model.ErrUpstream:
		return e.Status >= http.StatusInternalServerError
	}
	return false
}

// Task is a task with the display facts the server computed
type Task struct {
	model.Task
	Display lifecycle.Display `json:"display"`
}

// TaskList is the response of a task listing
type TaskList struct {
	Tasks     []Task     `json:"tasks"`
	LateCount int        `json:"late_count"`
	Today     model.Date `json:"today"`
}

// IDs returns the task ids in list order
func (l *TaskList) IDs() []string {
	out := make([]string, len(l.Tasks))
	for i := range l.Tasks {
		out[i] = l.Tasks[i].ID
	}
	return out
}

// Project is a project with its countdown
type Project struct {
	model.Project
	DaysLeft  int    `json:"days_left"`
	Countdown string `json:"countdown"`
}

// Block is a catalog block with its selectable floors
type Block struct {
	lifecycle.Block
	FloorOptions []int `json:"floor_options"`
}

// DeletedTask summarizes a removed task
type DeletedTask struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	CompanyID   string `json:"company_id"`
	CompanyName string `json:"company_name"`
}

// NewTask is the payload of a task creation
type NewTask struct {
	ProjectID          string     `json:"project_id,omitempty"`
	CompanyID          string     `json:"company_id,omitempty"`
	Block              string     `json:"block"`
	Floor              *int       `json:"floor,omitempty"`
	FloorFrom          *int       `json:"floor_from,omitempty"`
	FloorTo            *int       `json:"floor_to,omitempty"`
	Title              string     `json:"title"`
	Notes              string     `json:"notes,omitempty"`
	StartDate          model.Date `json:"start_date"`
	DueDate            model.Date `json:"due_date"`
	DependentCompanyID *string    `json:"dependent_company_id,omitempty"`
}

// ListOptions are the query parameters of a task listing
type ListOptions struct {
	Mine                 bool
	ApprovedOnly         bool
	RecentlyApprovedOnly bool
	PrioritizeLate       bool
	ProjectID            string
	Sort                 lifecycle.SortMode
}

func (o ListOptions) query() url.Values {
	q := url.Values{}
	setBool := func(k string, v bool) {
		if v {
			q.Set(k, "true")
		}
	}
	setBool("mine", o.Mine)
	setBool("approved_only", o.ApprovedOnly)
	setBool("recently_approved_only", o.RecentlyApprovedOnly)
	setBool("prioritize_late", o.PrioritizeLate)
	if o.ProjectID != "" {
		q.Set("project_id", o.ProjectID)
	}
	if o.Sort != "" {
		q.Set("sort", string(o.Sort))
	}
	return q
}

type authResult struct {
	Token     string        `json:"token"`
	ExpiresAt string        `json:"expires_at"`
	User      *model.Viewer `json:"user"`
}

// Client is the API client
type Client struct {
	config     *config.ClientConfig
	httpClient *http.Client
}

// New creates a client from a loaded config
func New(cfg *config.ClientConfig) *Client {
	return &Client{
		config:     cfg,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// Config returns the client config
func (c *Client) Config() *config.ClientConfig {
	return c.config
}

// IsLoggedIn returns true if a session token is saved
func (c *Client) IsLoggedIn() bool {
	return c.config.IsLoggedIn()
}

// SetServer sets the server URL
func (c *Client) SetServer(url string) error {
	c.config.ServerURL = strings.TrimRight(url, "/")
	return c.config.Save()
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(data)
	}

	u := strings.TrimRight(c.config.ServerURL, "/") + "/api/v1" + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.config.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.config.Token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to connect: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		respBody, _ := io.ReadAll(resp.Body)
		apiErr := &APIError{Status: resp.StatusCode}
		var payload struct {
			Error   string `json:"error"`
			Message string `json:"message"`
		}
		if json.Unmarshal(respBody, &payload) == nil {
			apiErr.Message = payload.Error
			if apiErr.Message == "" {
				apiErr.Message = payload.Message
			}
		}
		if apiErr.Message == "" {
			apiErr.Message = strings.TrimSpace(string(respBody))
		}
		return apiErr
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// ---- auth ----

func (c *Client) saveSession(res *authResult) (*model.Viewer, error) {
	c.config.Token = res.Token
	if res.User != nil {
		c.config.UserID = res.User.UserID
		c.config.Email = res.User.Email
		c.config.Role = string(res.User.Role)
		c.config.CompanyID = res.User.CompanyID
	}
	if err := c.config.Save(); err != nil {
		return nil, err
	}
	return res.User, nil
}

// Login authenticates with email and password and saves the session
func (c *Client) Login(ctx context.Context, email, password string) (*model.Viewer, error) {
	var res authResult
	err := c.do(ctx, http.MethodPost, "/auth/login", nil, map[string]string{
		"email":    email,
		"password": password,
	}, &res)
	if err != nil {
		return nil, err
	}
	return c.saveSession(&res)
}

// RequestMagicLink asks the server to issue a magic link. The token is only
// returned when the server exposes it.
func (c *Client) RequestMagicLink(ctx context.Context, email string) (string, error) {
	var res map[string]string
	if err := c.do(ctx, http.MethodPost, "/auth/magic-link", nil, map[string]string{"email": email}, &res); err != nil {
		return "", err
	}
	return res["token"], nil
}

// VerifyMagicLink consumes a magic link token and saves the session
func (c *Client) VerifyMagicLink(ctx context.Context, token string) (*model.Viewer, error) {
	var res authResult
	if err := c.do(ctx, http.MethodGet, "/auth/magic-link/"+url.PathEscape(token), nil, nil, &res); err != nil {
		return nil, err
	}
	return c.saveSession(&res)
}

// Session returns the identity behind the saved token
func (c *Client) Session(ctx context.Context) (*model.Viewer, error) {
	var v model.Viewer
	if err := c.do(ctx, http.MethodGet, "/auth/session", nil, nil, &v); err != nil {
		return nil, err
	}
	return &v, nil
}

// Logout ends the session on the server and forgets it locally. The local
// session is cleared even when the server call fails.
func (c *Client) Logout(ctx context.Context) error {
	var callErr error
	if c.config.Token != "" {
		callErr = c.do(ctx, http.MethodPost, "/auth/logout", nil, nil, nil)
	}
	c.config.ClearSession()
	if err := c.config.Save(); err != nil {
		return err
	}
	if apiErr, ok := callErr.(*APIError); ok && apiErr.Status == http.StatusUnauthorized {
		return nil
	}
	return callErr
}

// ChangePassword replaces the viewer's password and keeps the session the
// server reissues with it
func (c *Client) ChangePassword(ctx context.Context, current, next string) error {
	var res authResult
	err := c.do(ctx, http.MethodPatch, "/auth/password", nil, map[string]string{
		"current_password": current,
		"new_password":     next,
	}, &res)
	if err != nil {
		return err
	}
	_, err = c.saveSession(&res)
	return err
}

// ---- tasks ----

// ListTasks lists visible tasks
func (c *Client) ListTasks(ctx context.Context, opts ListOptions) (*TaskList, error) {
	var list TaskList
	if err := c.do(ctx, http.MethodGet, "/tasks", opts.query(), nil, &list); err != nil {
		return nil, err
	}
	return &list, nil
}

// GetTask fetches a task
func (c *Client) GetTask(ctx context.Context, id string) (*Task, error) {
	var t Task
	if err := c.do(ctx, http.MethodGet, "/tasks/"+url.PathEscape(id), nil, nil, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

// CreateTask creates a task
func (c *Client) CreateTask(ctx context.Context, nt NewTask) (*Task, error) {
	var t Task
	if err := c.do(ctx, http.MethodPost, "/tasks", nil, nt, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

// UpdateTask applies a partial update
func (c *Client) UpdateTask(ctx context.Context, id string, patch model.TaskPatch) (*Task, error) {
	var t Task
	if err := c.do(ctx, http.MethodPatch, "/tasks/"+url.PathEscape(id), nil, patch, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

// StartTask moves a task to in progress
func (c *Client) StartTask(ctx context.Context, id string) (*Task, error) {
	status := model.StatusInProgress
	return c.UpdateTask(ctx, id, model.TaskPatch{Status: &status})
}

// StopTask moves a task back to planned
func (c *Client) StopTask(ctx context.Context, id string) (*Task, error) {
	status := model.StatusPlanned
	return c.UpdateTask(ctx, id, model.TaskPatch{Status: &status})
}

// CompleteTask marks a task completed
func (c *Client) CompleteTask(ctx context.Context, id string) (*Task, error) {
	done := true
	return c.UpdateTask(ctx, id, model.TaskPatch{IsCompleted: &done})
}

// DeleteTask deletes a task
func (c *Client) DeleteTask(ctx context.Context, id string) (*DeletedTask, error) {
	var d DeletedTask
	if err := c.do(ctx, http.MethodDelete, "/tasks/"+url.PathEscape(id), nil, nil, &d); err != nil {
		return nil, err
	}
	return &d, nil
}

// ---- admin ----

// Queue lists tasks awaiting approval
func (c *Client) Queue(ctx context.Context, projectID string) (*TaskList, error) {
	q := url.Values{}
	if projectID != "" {
		q.Set("project_id", projectID)
	}
	var list TaskList
	if err := c.do(ctx, http.MethodGet, "/admin/queue", q, nil, &list); err != nil {
		return nil, err
	}
	return &list, nil
}

// Approve approves a task
func (c *Client) Approve(ctx context.Context, id string) (*Task, error) {
	var t Task
	if err := c.do(ctx, http.MethodPatch, "/admin/approve/"+url.PathEscape(id), nil, nil, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

// Reject deletes an unapproved task
func (c *Client) Reject(ctx context.Context, id string) (*DeletedTask, error) {
	var d DeletedTask
	if err := c.do(ctx, http.MethodDelete, "/admin/reject/"+url.PathEscape(id), nil, nil, &d); err != nil {
		return nil, err
	}
	return &d, nil
}

// ---- companies ----

// ListCompanies lists companies
func (c *Client) ListCompanies(ctx context.Context) ([]model.Company, error) {
	var out []model.Company
	if err := c.do(ctx, http.MethodGet, "/companies", nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CreateCompany creates a company
func (c *Client) CreateCompany(ctx context.Context, name, blockPrefix string) (*model.Company, error) {
	var out model.Company
	err := c.do(ctx, http.MethodPost, "/companies", nil, map[string]string{
		"name":         name,
		"block_prefix": blockPrefix,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// SetCompanyLogin creates or resets a company's contractor login
func (c *Client) SetCompanyLogin(ctx context.Context, companyID, email, password string) (*model.Profile, error) {
	var out model.Profile
	err := c.do(ctx, http.MethodPost, "/admin/companies/"+url.PathEscape(companyID)+"/login", nil,
		map[string]string{"email": email, "password": password}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// ---- projects ----

// ListProjects lists projects
func (c *Client) ListProjects(ctx context.Context, activeOnly bool) ([]Project, error) {
	q := url.Values{}
	if activeOnly {
		q.Set("active_only", strconv.FormatBool(activeOnly))
	}
	var out []Project
	if err := c.do(ctx, http.MethodGet, "/projects", q, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ActiveProject returns the current project
func (c *Client) ActiveProject(ctx context.Context) (*Project, error) {
	var p Project
	if err := c.do(ctx, http.MethodGet, "/projects/active", nil, nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// CreateProject creates a project
func (c *Client) CreateProject(ctx context.Context, name string, end model.Date) (*Project, error) {
	var p Project
	err := c.do(ctx, http.MethodPost, "/projects", nil, map[string]interface{}{
		"name":     name,
		"end_date": end,
	}, &p)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// UpdateProject edits a project
func (c *Client) UpdateProject(ctx context.Context, id string, patch model.ProjectPatch) (*Project, error) {
	var p Project
	if err := c.do(ctx, http.MethodPatch, "/projects/"+url.PathEscape(id), nil, patch, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// DeactivateProject soft-deletes a project
func (c *Client) DeactivateProject(ctx context.Context, id string) (*Project, error) {
	var p Project
	if err := c.do(ctx, http.MethodDelete, "/projects/"+url.PathEscape(id), nil, nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// Blocks returns the block catalog
func (c *Client) Blocks(ctx context.Context) ([]Block, error) {
	var out []Block
	if err := c.do(ctx, http.MethodGet, "/blocks", nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}
