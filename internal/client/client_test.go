package client

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/existflow/sitetask/internal/config"
	"github.com/existflow/sitetask/internal/db"
	"github.com/existflow/sitetask/internal/model"
	"github.com/existflow/sitetask/internal/store"
	"github.com/existflow/sitetask/server"
)

const testPassword = "site-password"

type env struct {
	url     string
	project *model.Project
	beta    *model.Company
}

func newEnv(t *testing.T) *env {
	t.Helper()
	ctx := context.Background()

	st := store.NewMemory()
	e := &env{}

	e.project = &model.Project{Name: "Tower", EndDate: model.MustDate("2030-12-31")}
	require.NoError(t, st.CreateProject(ctx, e.project))
	e.beta = &model.Company{Name: "Beta Elektrik"}
	require.NoError(t, st.CreateCompany(ctx, e.beta))

	hash, err := bcrypt.GenerateFromPassword([]byte(testPassword), bcrypt.MinCost)
	require.NoError(t, err)
	require.NoError(t, st.CreateProfile(ctx, &model.Profile{
		Email: "admin@site.test", Role: model.RoleAdmin, PasswordHash: string(hash),
	}))
	require.NoError(t, st.CreateProfile(ctx, &model.Profile{
		Email: "beta@site.test", Role: model.RoleContractor, CompanyID: e.beta.ID, PasswordHash: string(hash),
	}))

	cfg := config.DefaultServerConfig()
	cfg.Store = "memory"
	cfg.Auth.CookieSecure = false
	cfg.Timezone = "Local"

	srv, err := server.New(cfg, st)
	require.NoError(t, err)

	ts := httptest.NewServer(srv.Router())
	t.Cleanup(ts.Close)
	e.url = ts.URL
	return e
}

func (e *env) client(t *testing.T, name string) *Client {
	t.Helper()
	cfg, err := config.LoadClientFrom(filepath.Join(t.TempDir(), name, "client.yaml"))
	require.NoError(t, err)
	cfg.ServerURL = e.url
	return New(cfg)
}

func (e *env) login(t *testing.T, name, email string) *Client {
	t.Helper()
	c := e.client(t, name)
	_, err := c.Login(context.Background(), email, testPassword)
	require.NoError(t, err)
	return c
}

func dueIn(days int) model.Date {
	return model.DateOf(time.Now()).AddDays(days)
}

func TestClient_LoginPersistsSession(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	c := e.client(t, "beta")

	_, err := c.Login(ctx, "beta@site.test", "wrong")
	assert.True(t, errors.Is(err, model.ErrUnauthenticated))
	assert.False(t, c.IsLoggedIn())

	v, err := c.Login(ctx, "beta@site.test", testPassword)
	require.NoError(t, err)
	assert.Equal(t, e.beta.ID, v.CompanyID)

	reloaded, err := config.LoadClientFrom(c.Config().Path())
	require.NoError(t, err)
	assert.True(t, reloaded.IsLoggedIn())
	assert.Equal(t, "contractor", reloaded.Role)

	session, err := New(reloaded).Session(ctx)
	require.NoError(t, err)
	assert.Equal(t, "beta@site.test", session.Email)

	require.NoError(t, c.Logout(ctx))
	assert.False(t, c.IsLoggedIn())

	_, err = c.Session(ctx)
	assert.True(t, errors.Is(err, model.ErrUnauthenticated))
}

func TestClient_ChangePasswordKeepsSession(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	c := e.login(t, "beta", "beta@site.test")
	other := e.login(t, "beta-laptop", "beta@site.test")
	before := c.Config().Token

	require.NoError(t, c.ChangePassword(ctx, testPassword, "another password"))
	assert.NotEqual(t, before, c.Config().Token)

	reloaded, err := config.LoadClientFrom(c.Config().Path())
	require.NoError(t, err)
	assert.Equal(t, c.Config().Token, reloaded.Token)

	_, err = c.Session(ctx)
	require.NoError(t, err)
	_, err = other.Session(ctx)
	assert.True(t, errors.Is(err, model.ErrUnauthenticated))
}

func TestClient_TaskLifecycle(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	beta := e.login(t, "beta", "beta@site.test")
	admin := e.login(t, "admin", "admin@site.test")

	floor := 5
	task, err := beta.CreateTask(ctx, NewTask{
		Block:     "B Blok",
		Floor:     &floor,
		Title:     "Lighting",
		StartDate: dueIn(-1),
		DueDate:   dueIn(3),
	})
	require.NoError(t, err)
	assert.Equal(t, e.project.ID, task.ProjectID)
	assert.Equal(t, "3 days remaining", task.Display.Remaining)

	_, err = beta.Approve(ctx, task.ID)
	assert.True(t, errors.Is(err, model.ErrForbidden))

	_, err = beta.CompleteTask(ctx, task.ID)
	assert.True(t, errors.Is(err, model.ErrValidation))

	_, err = beta.StartTask(ctx, task.ID)
	require.NoError(t, err)
	done, err := beta.CompleteTask(ctx, task.ID)
	require.NoError(t, err)
	assert.True(t, done.IsCompleted)

	queue, err := admin.Queue(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, []string{task.ID}, queue.IDs())

	approved, err := admin.Approve(ctx, task.ID)
	require.NoError(t, err)
	assert.True(t, approved.IsApproved)

	_, err = beta.DeleteTask(ctx, task.ID)
	assert.True(t, errors.Is(err, model.ErrForbidden))

	_, err = admin.GetTask(ctx, "missing")
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusNotFound, apiErr.Status)
	assert.True(t, errors.Is(err, model.ErrNotFound))
}

func TestClient_AdminCatalog(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	admin := e.login(t, "admin", "admin@site.test")

	company, err := admin.CreateCompany(ctx, "Delta Mekanik", "D")
	require.NoError(t, err)

	_, err = admin.SetCompanyLogin(ctx, company.ID, "delta@site.test", "delta-password")
	require.NoError(t, err)

	companies, err := admin.ListCompanies(ctx)
	require.NoError(t, err)
	assert.Len(t, companies, 2)

	p, err := admin.CreateProject(ctx, "Annex", dueIn(10))
	require.NoError(t, err)
	assert.Equal(t, 10, p.DaysLeft)

	active, err := admin.ActiveProject(ctx)
	require.NoError(t, err)
	assert.Equal(t, p.ID, active.ID)

	_, err = admin.DeactivateProject(ctx, p.ID)
	require.NoError(t, err)
	projects, err := admin.ListProjects(ctx, true)
	require.NoError(t, err)
	assert.Len(t, projects, 1)

	blocks, err := admin.Blocks(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, blocks)
	assert.Equal(t, -2, blocks[0].FloorOptions[0])
}

func TestWatcher_ReportsUnseenApprovals(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	beta := e.login(t, "beta", "beta@site.test")
	admin := e.login(t, "admin", "admin@site.test")

	cache, err := db.Open(filepath.Join(t.TempDir(), "cache.db"))
	require.NoError(t, err)
	defer cache.Close()

	task, err := admin.CreateTask(ctx, NewTask{
		CompanyID: e.beta.ID,
		Block:     "A Blok",
		Floor:     intPtr(2),
		Title:     "Screed",
		StartDate: dueIn(0),
		DueDate:   dueIn(5),
	})
	require.NoError(t, err)

	w := NewWatcher(beta, cache, time.Minute)
	defer w.Stop()

	fresh, err := w.Check(ctx)
	require.NoError(t, err)
	assert.Empty(t, fresh)

	_, err = admin.Approve(ctx, task.ID)
	require.NoError(t, err)

	fresh, err = w.Check(ctx)
	require.NoError(t, err)
	require.Len(t, fresh, 1)
	assert.Equal(t, task.ID, fresh[0].ID)

	fresh, err = w.Check(ctx)
	require.NoError(t, err)
	assert.Empty(t, fresh, "reported once per watcher")

	require.NoError(t, w.Acknowledge(ctx, []string{task.ID}))
	other := NewWatcher(beta, cache, time.Minute)
	defer other.Stop()
	fresh, err = other.Check(ctx)
	require.NoError(t, err)
	assert.Empty(t, fresh, "seen cache survives the watcher")
}

func TestWatcher_StartStop(t *testing.T) {
	e := newEnv(t)
	beta := e.login(t, "beta", "beta@site.test")

	cache, err := db.Open(filepath.Join(t.TempDir(), "cache.db"))
	require.NoError(t, err)
	defer cache.Close()

	w := NewWatcher(beta, cache, 10*time.Millisecond)
	w.SetOnApproved(func([]Task) {})
	w.Start()
	w.Trigger()
	time.Sleep(30 * time.Millisecond)
	w.Stop()
	w.Stop()
}

func intPtr(v int) *int { return &v }
