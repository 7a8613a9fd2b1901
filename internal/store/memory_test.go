package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/existflow/sitetask/internal/model"
)

func newMemoryFixture(t *testing.T) *fixture {
	t.Helper()
	clock := time.Date(2025, 9, 1, 9, 0, 0, 0, time.UTC)
	m := NewMemory()
	m.SetClock(func() time.Time {
		clock = clock.Add(time.Minute)
		return clock
	})
	return newFixture(t, m)
}

func TestMemory_CreateTaskJoinsNames(t *testing.T) {
	f := newMemoryFixture(t)
	dep := f.gamma.ID

	task := f.task(t, f.beta, "Cable trays", "2025-09-20")
	task.DependentCompanyID = &dep
	require.NoError(t, f.store.UpdateTask(context.Background(), task))

	got, err := f.store.GetTask(context.Background(), task.ID)
	require.NoError(t, err)
	assert.Equal(t, "Beta Elektrik", got.CompanyName)
	assert.Equal(t, "Gamma Sıhhi Tesisat", got.DependentCompanyName)
	assert.Equal(t, model.StatusPlanned, got.Status)
	assert.True(t, got.UpdatedAt.After(got.CreatedAt))
}

func TestMemory_Projects(t *testing.T) {
	f := newMemoryFixture(t)
	ctx := context.Background()

	newer := &model.Project{Name: "Annex", EndDate: model.MustDate("2026-01-31")}
	require.NoError(t, f.store.CreateProject(ctx, newer))

	active, err := f.store.ActiveProject(ctx)
	require.NoError(t, err)
	assert.Equal(t, newer.ID, active.ID)

	_, err = f.store.DeactivateProject(ctx, newer.ID)
	require.NoError(t, err)

	active, err = f.store.ActiveProject(ctx)
	require.NoError(t, err)
	assert.Equal(t, f.project.ID, active.ID)

	name := "Tower B"
	updated, err := f.store.UpdateProject(ctx, f.project.ID, model.ProjectPatch{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "Tower B", updated.Name)
	assert.Equal(t, model.MustDate("2026-06-30"), updated.EndDate)

	all, err := f.store.ListProjects(ctx, false)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestMemory_CreateTaskChecks(t *testing.T) {
	testCreateTaskChecks(t, newMemoryFixture(t))
}

func TestMemory_ListTasksFilters(t *testing.T) {
	testListTasksFilters(t, newMemoryFixture(t))
}

func TestMemory_ApproveAndDelete(t *testing.T) {
	testApproveAndDelete(t, newMemoryFixture(t))
}

func TestMemory_Sessions(t *testing.T) {
	testSessions(t, newMemoryFixture(t))
}

func TestMemory_MagicLinkIsSingleUse(t *testing.T) {
	testMagicLinkIsSingleUse(t, newMemoryFixture(t))
}

func TestMemory_UpsertCompanyLogin(t *testing.T) {
	testUpsertCompanyLogin(t, newMemoryFixture(t))
}
