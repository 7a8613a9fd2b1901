package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/existflow/sitetask/internal/model"
)

// Cases in this file run against every Store implementation.

type fixture struct {
	store   Store
	project *model.Project
	beta    *model.Company
	gamma   *model.Company
}

func newFixture(t *testing.T, s Store) *fixture {
	t.Helper()
	ctx := context.Background()

	f := &fixture{store: s}
	f.project = &model.Project{Name: "Tower", EndDate: model.MustDate("2026-06-30")}
	require.NoError(t, s.CreateProject(ctx, f.project))

	f.beta = &model.Company{Name: "Beta Elektrik"}
	require.NoError(t, s.CreateCompany(ctx, f.beta))
	f.gamma = &model.Company{Name: "Gamma Sıhhi Tesisat"}
	require.NoError(t, s.CreateCompany(ctx, f.gamma))
	return f
}

func (f *fixture) task(t *testing.T, company *model.Company, title, due string) *model.Task {
	t.Helper()
	floor := 2
	task := &model.Task{
		ProjectID: f.project.ID,
		CompanyID: company.ID,
		Block:     "A",
		Floor:     &floor,
		Title:     title,
		StartDate: model.MustDate("2025-09-01"),
		DueDate:   model.MustDate(due),
	}
	require.NoError(t, f.store.CreateTask(context.Background(), task))
	return task
}

func taskIDs(tasks []model.Task) []string {
	out := make([]string, len(tasks))
	for i := range tasks {
		out[i] = tasks[i].ID
	}
	return out
}

func testCreateTaskChecks(t *testing.T, f *fixture) {
	ctx := context.Background()

	bad := &model.Task{
		ProjectID: f.project.ID,
		CompanyID: uuid.NewString(),
		Block:     "A",
		Title:     "x",
		StartDate: model.MustDate("2025-09-01"),
		DueDate:   model.MustDate("2025-09-02"),
	}
	assert.ErrorIs(t, f.store.CreateTask(ctx, bad), model.ErrValidation)

	bad.CompanyID = f.beta.ID
	bad.DueDate = model.MustDate("2025-08-01")
	assert.ErrorIs(t, f.store.CreateTask(ctx, bad), model.ErrValidation)

	from := 1
	bad.DueDate = model.MustDate("2025-09-02")
	bad.FloorFrom = &from
	assert.ErrorIs(t, f.store.CreateTask(ctx, bad), model.ErrValidation)
}

func testListTasksFilters(t *testing.T, f *fixture) {
	ctx := context.Background()

	a := f.task(t, f.beta, "Beta own", "2025-09-10")
	b := f.task(t, f.gamma, "Gamma pending", "2025-09-05")
	c := f.task(t, f.gamma, "Gamma approved", "2025-09-07")

	approvedAt := time.Date(2025, 9, 3, 12, 0, 0, 0, time.UTC)
	_, err := f.store.ApproveTask(ctx, c.ID, approvedAt)
	require.NoError(t, err)

	all, err := f.store.ListTasks(ctx, model.TaskFilter{ProjectID: f.project.ID})
	require.NoError(t, err)
	assert.Equal(t, []string{b.ID, c.ID, a.ID}, taskIDs(all))

	visible, err := f.store.ListTasks(ctx, model.TaskFilter{VisibleTo: f.beta.ID})
	require.NoError(t, err)
	assert.Equal(t, []string{c.ID, a.ID}, taskIDs(visible))

	own, err := f.store.ListTasks(ctx, model.TaskFilter{CompanyID: f.gamma.ID})
	require.NoError(t, err)
	assert.Equal(t, []string{b.ID, c.ID}, taskIDs(own))

	approved, err := f.store.ListTasks(ctx, model.TaskFilter{ApprovedOnly: true})
	require.NoError(t, err)
	assert.Equal(t, []string{c.ID}, taskIDs(approved))

	queue, err := f.store.ListTasks(ctx, model.TaskFilter{UnapprovedOnly: true})
	require.NoError(t, err)
	assert.Equal(t, []string{b.ID, a.ID}, taskIDs(queue))

	before := approvedAt.Add(-time.Hour)
	recent, err := f.store.ListTasks(ctx, model.TaskFilter{ApprovedSince: &before, VisibleTo: f.beta.ID})
	require.NoError(t, err)
	assert.Equal(t, []string{c.ID}, taskIDs(recent))

	since := approvedAt.Add(time.Hour)
	recent, err = f.store.ListTasks(ctx, model.TaskFilter{ApprovedSince: &since})
	require.NoError(t, err)
	assert.Empty(t, recent)
}

func testApproveAndDelete(t *testing.T, f *fixture) {
	ctx := context.Background()
	task := f.task(t, f.beta, "Lighting", "2025-09-10")

	at := time.Date(2025, 9, 2, 8, 0, 0, 0, time.UTC)
	approved, err := f.store.ApproveTask(ctx, task.ID, at)
	require.NoError(t, err)
	assert.True(t, approved.IsApproved)
	require.NotNil(t, approved.ApprovedAt)
	assert.True(t, approved.ApprovedAt.Equal(at))

	// UpdateTask never touches approval
	approved.IsApproved = false
	require.NoError(t, f.store.UpdateTask(ctx, approved))
	assert.True(t, approved.IsApproved)

	deleted, err := f.store.DeleteTask(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, task.ID, deleted.ID)

	_, err = f.store.GetTask(ctx, task.ID)
	assert.ErrorIs(t, err, model.ErrNotFound)
	_, err = f.store.DeleteTask(ctx, task.ID)
	assert.ErrorIs(t, err, model.ErrNotFound)
	_, err = f.store.ApproveTask(ctx, uuid.NewString(), at)
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func testSessions(t *testing.T, f *fixture) {
	ctx := context.Background()

	admin := &model.Profile{Email: "Admin@Site.test", Role: model.RoleAdmin}
	require.NoError(t, f.store.CreateProfile(ctx, admin))

	got, err := f.store.GetProfileByEmail(ctx, "ADMIN@site.test")
	require.NoError(t, err)
	assert.Equal(t, admin.ID, got.ID)
	assert.Equal(t, "admin@site.test", got.Email)

	beta := &model.Profile{Email: "beta@site.test", Role: model.RoleContractor, CompanyID: f.beta.ID}
	require.NoError(t, f.store.CreateProfile(ctx, beta))
	assert.ErrorIs(t, f.store.CreateProfile(ctx, &model.Profile{
		Email: "beta@site.test", Role: model.RoleContractor, CompanyID: f.beta.ID,
	}), model.ErrValidation)

	now := time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC)
	for _, s := range []*model.Session{
		{Token: "live", UserID: admin.ID, ExpiresAt: now.Add(time.Hour)},
		{Token: "dead", UserID: admin.ID, ExpiresAt: now.Add(-time.Hour)},
		{Token: "laptop", UserID: admin.ID, ExpiresAt: now.Add(time.Hour)},
		{Token: "beta", UserID: beta.ID, ExpiresAt: now.Add(time.Hour)},
	} {
		require.NoError(t, f.store.CreateSession(ctx, s))
	}

	n, err := f.store.PurgeExpiredSessions(ctx, now)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
	_, err = f.store.GetSession(ctx, "dead")
	assert.ErrorIs(t, err, model.ErrNotFound)

	n, err = f.store.DeleteSessionsForUser(ctx, admin.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)
	for _, token := range []string{"live", "laptop"} {
		_, err = f.store.GetSession(ctx, token)
		assert.ErrorIs(t, err, model.ErrNotFound, token)
	}

	s, err := f.store.GetSession(ctx, "beta")
	require.NoError(t, err)
	assert.Equal(t, beta.ID, s.UserID)
}

func testMagicLinkIsSingleUse(t *testing.T, f *fixture) {
	ctx := context.Background()
	now := time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC)

	link := &model.MagicLink{Email: "x@site.test", Token: "tok", ExpiresAt: now.Add(15 * time.Minute)}
	require.NoError(t, f.store.CreateMagicLink(ctx, link))

	_, err := f.store.ConsumeMagicLink(ctx, "tok", now.Add(20*time.Minute))
	assert.ErrorIs(t, err, model.ErrValidation)

	got, err := f.store.ConsumeMagicLink(ctx, "tok", now)
	require.NoError(t, err)
	assert.True(t, got.Used)

	_, err = f.store.ConsumeMagicLink(ctx, "tok", now)
	assert.ErrorIs(t, err, model.ErrValidation)

	_, err = f.store.ConsumeMagicLink(ctx, "nope", now)
	assert.True(t, errors.Is(err, model.ErrNotFound))
}

func testUpsertCompanyLogin(t *testing.T, f *fixture) {
	ctx := context.Background()

	p, err := f.store.UpsertCompanyLogin(ctx, f.beta.ID, "beta@site.test", "hash1")
	require.NoError(t, err)
	assert.Equal(t, model.RoleContractor, p.Role)
	assert.Equal(t, "Beta Elektrik", p.CompanyName)

	again, err := f.store.UpsertCompanyLogin(ctx, f.beta.ID, "beta2@site.test", "hash2")
	require.NoError(t, err)
	assert.Equal(t, p.ID, again.ID)
	assert.Equal(t, "beta2@site.test", again.Email)

	c, err := f.store.GetCompany(ctx, f.beta.ID)
	require.NoError(t, err)
	assert.True(t, c.HasLogin)
	assert.Equal(t, "beta2@site.test", c.LoginEmail)

	_, err = f.store.UpsertCompanyLogin(ctx, "missing", "x@site.test", "h")
	assert.ErrorIs(t, err, model.ErrNotFound)
}
