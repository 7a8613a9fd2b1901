package tui

import (
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/existflow/sitetask/internal/client"
	"github.com/existflow/sitetask/internal/lifecycle"
	"github.com/existflow/sitetask/internal/logger"
	"github.com/existflow/sitetask/internal/model"
)

// View selects which slice of the board is shown
type View int

const (
	ViewAll View = iota
	ViewMine
	ViewRecent
	ViewQueue
)

func (v View) String() string {
	switch v {
	case ViewMine:
		return "Mine"
	case ViewRecent:
		return "Approved"
	case ViewQueue:
		return "Queue"
	default:
		return "All"
	}
}

// Mode represents the current UI mode
type Mode int

const (
	ModeNormal Mode = iota
	ModeEditTitle
	ModeEditDue
	ModeConfirmDelete
	ModeFilter
	ModeHelp
)

// Model is the main TUI model
type Model struct {
	client  *client.Client
	watcher *client.Watcher
	viewer  *model.Viewer
	admin   bool

	project   *client.Project
	tasks     []client.Task
	lateCount int
	today     model.Date

	// UI state
	width   int
	height  int
	view    View
	mode    Mode
	cursor  int
	loading bool
	ticks   int

	sortMode       lifecycle.SortMode
	prioritizeLate bool

	// Input
	input textinput.Model

	// Filter (vim-style)
	filterText   string
	matchIndices []int
	matchCursor  int

	// Approvals reported by the watcher and not yet acknowledged
	approvals []client.Task

	message string
}

// NewModel creates the board for a logged-in client. The watcher may be nil.
func NewModel(c *client.Client, w *client.Watcher) Model {
	logger.Info("Initializing TUI model")

	ti := textinput.New()
	ti.CharLimit = 256
	ti.Width = 50

	cfg := c.Config()
	viewer := &model.Viewer{
		UserID:    cfg.UserID,
		Email:     cfg.Email,
		Role:      model.Role(cfg.Role),
		CompanyID: cfg.CompanyID,
	}
	return Model{
		client:         c,
		watcher:        w,
		viewer:         viewer,
		admin:          viewer.IsAdmin(),
		mode:           ModeNormal,
		input:          ti,
		loading:        true,
		sortMode:       lifecycle.ParseSortMode(cfg.Sort),
		prioritizeLate: cfg.PrioritizeLate,
	}
}

// views returns the tabs available to the viewer
func (m *Model) views() []View {
	if m.admin {
		return []View{ViewAll, ViewQueue, ViewRecent}
	}
	return []View{ViewAll, ViewMine, ViewRecent}
}

func (m *Model) currentTask() *client.Task {
	if m.cursor >= 0 && m.cursor < len(m.tasks) {
		return &m.tasks[m.cursor]
	}
	return nil
}

func (m *Model) listOptions() client.ListOptions {
	opts := client.ListOptions{
		PrioritizeLate: m.prioritizeLate,
		Sort:           m.sortMode,
	}
	switch m.view {
	case ViewMine:
		opts.Mine = true
	case ViewRecent:
		opts.RecentlyApprovedOnly = true
	}
	return opts
}

// setTasks replaces the list and keeps the cursor on the same task if it
// is still there
func (m *Model) setTasks(list *client.TaskList) {
	selected := ""
	if t := m.currentTask(); t != nil {
		selected = t.ID
	}

	m.tasks = list.Tasks
	m.lateCount = list.LateCount
	m.today = list.Today

	m.cursor = 0
	for i := range m.tasks {
		if m.tasks[i].ID == selected {
			m.cursor = i
			break
		}
	}
	if m.filterText != "" {
		m.applyFilter()
	}
}
