package tui

import (
	"path/filepath"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/existflow/sitetask/internal/client"
	"github.com/existflow/sitetask/internal/config"
	"github.com/existflow/sitetask/internal/lifecycle"
	"github.com/existflow/sitetask/internal/model"
)

func newTestModel(t *testing.T, role model.Role, companyID string) Model {
	t.Helper()
	cfg, err := config.LoadClientFrom(filepath.Join(t.TempDir(), "client.yaml"))
	require.NoError(t, err)
	cfg.Token = "token"
	cfg.UserID = "user-1"
	cfg.Role = string(role)
	cfg.CompanyID = companyID
	return NewModel(client.New(cfg), nil)
}

func task(id, title, companyID string, status model.TaskStatus, display lifecycle.Status) client.Task {
	return client.Task{
		Task: model.Task{
			ID:          id,
			Title:       title,
			CompanyID:   companyID,
			CompanyName: "Beta Elektrik",
			Block:       "B Blok",
			Status:      status,
		},
		Display: lifecycle.Display{Status: display, Remaining: "3 days remaining"},
	}
}

func loaded(m Model, tasks ...client.Task) Model {
	next, _ := m.Update(tasksLoadedMsg{view: m.view, list: &client.TaskList{Tasks: tasks}})
	return next.(Model)
}

func press(m Model, k string) (Model, tea.Cmd) {
	var msg tea.KeyMsg
	switch k {
	case "tab":
		msg = tea.KeyMsg{Type: tea.KeyTab}
	case "esc":
		msg = tea.KeyMsg{Type: tea.KeyEsc}
	case "enter":
		msg = tea.KeyMsg{Type: tea.KeyEnter}
	default:
		msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
	}
	next, cmd := m.Update(msg)
	return next.(Model), cmd
}

func TestModel_LoadKeepsSelection(t *testing.T) {
	m := newTestModel(t, model.RoleContractor, "beta")
	m = loaded(m,
		task("a", "Cable trays", "beta", model.StatusPlanned, lifecycle.StatusPlanned),
		task("b", "Lighting", "beta", model.StatusPlanned, lifecycle.StatusPlanned),
	)
	assert.False(t, m.loading)

	m, _ = press(m, "j")
	require.Equal(t, "b", m.currentTask().ID)

	m = loaded(m,
		task("c", "Sockets", "beta", model.StatusPlanned, lifecycle.StatusPlanned),
		task("b", "Lighting", "beta", model.StatusPlanned, lifecycle.StatusPlanned),
	)
	assert.Equal(t, "b", m.currentTask().ID)
}

func TestModel_StaleLoadIgnored(t *testing.T) {
	m := newTestModel(t, model.RoleContractor, "beta")
	next, _ := m.Update(tasksLoadedMsg{view: ViewRecent, list: &client.TaskList{
		Tasks: []client.Task{task("a", "x", "beta", model.StatusPlanned, lifecycle.StatusPlanned)},
	}})
	assert.Empty(t, next.(Model).tasks)
}

func TestModel_Views(t *testing.T) {
	contractor := newTestModel(t, model.RoleContractor, "beta")
	assert.Equal(t, []View{ViewAll, ViewMine, ViewRecent}, contractor.views())

	admin := newTestModel(t, model.RoleAdmin, "")
	assert.Equal(t, []View{ViewAll, ViewQueue, ViewRecent}, admin.views())

	admin, cmd := press(admin, "tab")
	assert.Equal(t, ViewQueue, admin.view)
	assert.NotNil(t, cmd)
	assert.True(t, admin.loading)

	admin, _ = press(admin, "h")
	admin, _ = press(admin, "h")
	assert.Equal(t, ViewRecent, admin.view)
	assert.True(t, admin.listOptions().RecentlyApprovedOnly)
}

func TestModel_TransitionPrecheck(t *testing.T) {
	m := newTestModel(t, model.RoleContractor, "beta")
	m = loaded(m, task("a", "Lighting", "beta", model.StatusPlanned, lifecycle.StatusPlanned))

	// completing a planned task is refused locally
	_, cmd := press(m, "x")
	require.NotNil(t, cmd)
	msg := cmd().(actionMsg)
	assert.True(t, errorsIsValidation(msg.err))

	next, _ := m.Update(msg)
	assert.Contains(t, next.(Model).message, "start the task")

	// approving needs an admin
	_, cmd = press(m, "A")
	require.NotNil(t, cmd)
	assert.ErrorIs(t, cmd().(actionMsg).err, model.ErrForbidden)
}

func TestModel_ForeignTaskCannotBeDeleted(t *testing.T) {
	m := newTestModel(t, model.RoleContractor, "beta")
	m = loaded(m, task("a", "Screed", "gamma", model.StatusPlanned, lifecycle.StatusPlanned))

	m, cmd := press(m, "d")
	assert.Nil(t, cmd)
	assert.Equal(t, ModeNormal, m.mode)
	assert.Contains(t, m.message, "Not allowed")
}

func TestModel_ConfirmDelete(t *testing.T) {
	m := newTestModel(t, model.RoleContractor, "beta")
	m = loaded(m, task("a", "Lighting", "beta", model.StatusPlanned, lifecycle.StatusPlanned))

	m, _ = press(m, "d")
	require.Equal(t, ModeConfirmDelete, m.mode)

	m, cmd := press(m, "n")
	assert.Nil(t, cmd)
	assert.Equal(t, ModeNormal, m.mode)
	assert.Equal(t, "Cancelled", m.message)

	m, _ = press(m, "d")
	m, cmd = press(m, "y")
	assert.NotNil(t, cmd)
	assert.Equal(t, ModeNormal, m.mode)
}

func TestModel_Filter(t *testing.T) {
	m := newTestModel(t, model.RoleAdmin, "")
	m = loaded(m,
		task("a", "Cable trays", "beta", model.StatusPlanned, lifecycle.StatusPlanned),
		task("b", "Lighting", "beta", model.StatusPlanned, lifecycle.StatusPlanned),
		task("c", "Light fixtures", "beta", model.StatusPlanned, lifecycle.StatusPlanned),
	)

	m, _ = press(m, "/")
	require.Equal(t, ModeFilter, m.mode)
	for _, r := range "light" {
		m, _ = press(m, string(r))
	}
	assert.Equal(t, []int{1, 2}, m.matchIndices)

	m, _ = press(m, "enter")
	assert.Equal(t, ModeNormal, m.mode)
	assert.Equal(t, 1, m.cursor)

	m, _ = press(m, "n")
	assert.Equal(t, 2, m.cursor)
	m, _ = press(m, "n")
	assert.Equal(t, 1, m.cursor)

	m, _ = press(m, "esc")
	assert.Empty(t, m.filterText)
	assert.Nil(t, m.matchIndices)
}

func TestModel_Approvals(t *testing.T) {
	m := newTestModel(t, model.RoleContractor, "beta")
	approved := task("a", "Lighting", "beta", model.StatusInProgress, lifecycle.StatusCompleted)

	next, _ := m.Update(ApprovedMsg{approved})
	next, _ = next.Update(ApprovedMsg{approved})
	m = next.(Model)
	assert.Len(t, m.approvals, 1)
	assert.Contains(t, m.message, "1 task(s) approved")

	// no watcher means nothing to acknowledge
	_, cmd := press(m, "c")
	assert.Nil(t, cmd)

	next, _ = m.Update(seenMsg{})
	assert.Empty(t, next.(Model).approvals)
}

func TestModel_SortToggles(t *testing.T) {
	m := newTestModel(t, model.RoleContractor, "beta")
	require.Equal(t, lifecycle.SortUrgency, m.sortMode)
	require.True(t, m.prioritizeLate)

	m, cmd := press(m, "o")
	assert.NotNil(t, cmd)
	assert.Equal(t, lifecycle.SortNewest, m.listOptions().Sort)

	m, _ = press(m, "!")
	assert.False(t, m.listOptions().PrioritizeLate)
}

func TestModel_View(t *testing.T) {
	m := newTestModel(t, model.RoleAdmin, "")
	assert.Equal(t, "Loading...", m.View())

	next, _ := m.Update(tea.WindowSizeMsg{Width: 120, Height: 30})
	m = next.(Model)
	m = loaded(m, task("a", "Lighting", "beta", model.StatusPlanned, lifecycle.StatusLate))
	next, _ = m.Update(projectLoadedMsg{project: &client.Project{
		Project:   model.Project{Name: "Tower"},
		DaysLeft:  111,
		Countdown: "111 days left",
	}})
	out := next.(Model).View()
	assert.Contains(t, out, "Tower")
	assert.Contains(t, out, "111 days left")
	assert.Contains(t, out, "Lighting")
	assert.Contains(t, out, "A:approve")
}
