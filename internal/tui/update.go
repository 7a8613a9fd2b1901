package tui

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/existflow/sitetask/internal/client"
	"github.com/existflow/sitetask/internal/lifecycle"
	"github.com/existflow/sitetask/internal/logger"
	"github.com/existflow/sitetask/internal/model"
)

const (
	requestTimeout = 30 * time.Second
	// refreshEvery is the number of ticks between background reloads, so
	// late flags follow the clock
	refreshEvery = 60
)

// tickMsg is sent every second for time updates
type tickMsg time.Time

type tasksLoadedMsg struct {
	view View
	list *client.TaskList
	err  error
}

type projectLoadedMsg struct {
	project *client.Project
	err     error
}

type actionMsg struct {
	message string
	err     error
}

type seenMsg struct {
	err error
}

type loggedOutMsg struct{}

// ApprovedMsg carries approvals reported by the watcher
type ApprovedMsg []client.Task

// Init loads the board and starts the clock
func (m Model) Init() tea.Cmd {
	return tea.Batch(tickCmd(), m.loadTasks(), m.loadProject())
}

func tickCmd() tea.Cmd {
	return tea.Every(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m Model) loadTasks() tea.Cmd {
	c, view, opts := m.client, m.view, m.listOptions()
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		var list *client.TaskList
		var err error
		if view == ViewQueue {
			list, err = c.Queue(ctx, "")
		} else {
			list, err = c.ListTasks(ctx, opts)
		}
		return tasksLoadedMsg{view: view, list: list, err: err}
	}
}

func (m Model) loadProject() tea.Cmd {
	c := m.client
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		p, err := c.ActiveProject(ctx)
		return projectLoadedMsg{project: p, err: err}
	}
}

// act runs fn against the server and reports its outcome as an actionMsg
func act(fn func(ctx context.Context) (string, error)) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		msg, err := fn(ctx)
		return actionMsg{message: msg, err: err}
	}
}

// describeError turns API errors into a one-line status message
func describeError(err error) string {
	switch {
	case errors.Is(err, model.ErrUnauthenticated):
		return "Session expired - run 'sitetask auth login'"
	case errors.Is(err, model.ErrForbidden):
		return "Not allowed: " + err.Error()
	case errors.Is(err, model.ErrNotFound):
		return "Task no longer exists"
	default:
		return "Error: " + err.Error()
	}
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tickMsg:
		m.ticks++
		if m.ticks%refreshEvery == 0 {
			return m, tea.Batch(tickCmd(), m.loadTasks())
		}
		return m, tickCmd()

	case tasksLoadedMsg:
		if msg.view != m.view {
			return m, nil
		}
		m.loading = false
		if msg.err != nil {
			logger.Warn("Failed to load tasks", logger.Err(msg.err))
			m.message = describeError(msg.err)
			return m, nil
		}
		m.setTasks(msg.list)
		return m, nil

	case projectLoadedMsg:
		if msg.err != nil {
			if !errors.Is(msg.err, model.ErrNotFound) {
				logger.Warn("Failed to load project", logger.Err(msg.err))
			}
			m.project = nil
			return m, nil
		}
		m.project = msg.project
		return m, nil

	case actionMsg:
		if msg.err != nil {
			logger.Debug("Action failed", logger.Err(msg.err))
			m.message = describeError(msg.err)
		} else {
			m.message = msg.message
		}
		return m, m.loadTasks()

	case ApprovedMsg:
		m.addApprovals(msg)
		m.message = fmt.Sprintf("🔔 %d task(s) approved - press c to clear", len(m.approvals))
		if m.view == ViewRecent {
			return m, m.loadTasks()
		}
		return m, nil

	case seenMsg:
		if msg.err != nil {
			m.message = describeError(msg.err)
			return m, nil
		}
		m.approvals = nil
		m.message = "Approvals cleared"
		return m, nil

	case loggedOutMsg:
		return m, tea.Quit

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		switch m.mode {
		case ModeEditTitle, ModeEditDue:
			return m.updateInput(msg)
		case ModeConfirmDelete:
			return m.updateConfirm(msg)
		case ModeFilter:
			return m.updateFilter(msg)
		case ModeHelp:
			m.mode = ModeNormal
			return m, nil
		}

		return m.handleNormalKeys(msg)
	}

	return m, nil
}

func (m *Model) addApprovals(tasks []client.Task) {
	seen := make(map[string]bool, len(m.approvals))
	for _, t := range m.approvals {
		seen[t.ID] = true
	}
	for _, t := range tasks {
		if !seen[t.ID] {
			seen[t.ID] = true
			m.approvals = append(m.approvals, t)
		}
	}
}

// handleNormalKeys handles key presses in normal mode
func (m Model) handleNormalKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, keys.Tab), key.Matches(msg, keys.Right):
		return m.switchView(1)

	case key.Matches(msg, keys.Left):
		return m.switchView(-1)

	case key.Matches(msg, keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}

	case key.Matches(msg, keys.Down):
		if m.cursor < len(m.tasks)-1 {
			m.cursor++
		}

	case key.Matches(msg, keys.GoBottom):
		if len(m.tasks) > 0 {
			m.cursor = len(m.tasks) - 1
		}

	case key.Matches(msg, keys.Start):
		return m, m.transition(lifecycle.ActionStart)

	case key.Matches(msg, keys.Stop):
		return m, m.transition(lifecycle.ActionStop)

	case key.Matches(msg, keys.Done), key.Matches(msg, keys.Enter):
		return m, m.transition(lifecycle.ActionComplete)

	case key.Matches(msg, keys.Approve):
		return m, m.approve()

	case key.Matches(msg, keys.Delete):
		if t := m.currentTask(); t != nil {
			if err := lifecycle.Authorize(m.viewer, &t.Task, lifecycle.DeleteAction(m.viewer)); err != nil {
				m.message = describeError(err)
				return m, nil
			}
			m.mode = ModeConfirmDelete
		}

	case key.Matches(msg, keys.Edit):
		if t := m.currentTask(); t != nil {
			m.mode = ModeEditTitle
			m.input.SetValue(t.Title)
			m.input.Placeholder = "Task title"
			m.input.Focus()
			return m, nil
		}

	case key.Matches(msg, keys.Due):
		if t := m.currentTask(); t != nil {
			m.mode = ModeEditDue
			m.input.SetValue(t.DueDate.String())
			m.input.Placeholder = "YYYY-MM-DD or +N"
			m.input.Focus()
			return m, nil
		}

	case key.Matches(msg, keys.Sort):
		if m.sortMode == lifecycle.SortNewest {
			m.sortMode = lifecycle.SortUrgency
		} else {
			m.sortMode = lifecycle.SortNewest
		}
		m.message = "Sort: " + string(m.sortMode)
		return m, m.loadTasks()

	case key.Matches(msg, keys.LateKey):
		m.prioritizeLate = !m.prioritizeLate
		if m.prioritizeLate {
			m.message = "Late tasks first"
		} else {
			m.message = "Late tasks in place"
		}
		return m, m.loadTasks()

	case key.Matches(msg, keys.Seen):
		return m, m.acknowledge()

	case key.Matches(msg, keys.Search):
		m.mode = ModeFilter
		m.input.SetValue(m.filterText)
		m.input.Placeholder = "Search..."
		m.input.Focus()
		return m, nil

	case key.Matches(msg, keys.NextHit):
		if len(m.matchIndices) > 0 {
			m.matchCursor = (m.matchCursor + 1) % len(m.matchIndices)
			m.cursor = m.matchIndices[m.matchCursor]
		}

	case key.Matches(msg, keys.PrevHit):
		if len(m.matchIndices) > 0 {
			m.matchCursor = (m.matchCursor - 1 + len(m.matchIndices)) % len(m.matchIndices)
			m.cursor = m.matchIndices[m.matchCursor]
		}

	case key.Matches(msg, keys.Escape):
		if m.filterText != "" {
			m.filterText = ""
			m.matchIndices = nil
			m.message = "Filter cleared"
		}

	case key.Matches(msg, keys.Help):
		m.mode = ModeHelp

	case key.Matches(msg, keys.Logout):
		return m, m.logout()

	case key.Matches(msg, keys.Refresh):
		m.loading = true
		m.message = "Refreshing..."
		if m.watcher != nil {
			m.watcher.Trigger()
		}
		return m, tea.Batch(m.loadTasks(), m.loadProject())
	}

	return m, nil
}

func (m Model) switchView(step int) (tea.Model, tea.Cmd) {
	views := m.views()
	idx := 0
	for i, v := range views {
		if v == m.view {
			idx = i
		}
	}
	idx = (idx + step + len(views)) % len(views)

	m.view = views[idx]
	m.cursor = 0
	m.tasks = nil
	m.loading = true
	m.filterText = ""
	m.matchIndices = nil
	return m, m.loadTasks()
}

// precheck runs the lifecycle rules locally so obvious mistakes need no
// round trip. The server decides in the end.
func (m Model) precheck(t *client.Task, action lifecycle.Action) error {
	if err := lifecycle.Authorize(m.viewer, &t.Task, action); err != nil {
		return err
	}
	probe := t.Task
	return lifecycle.Transition(&probe, action)
}

func failed(err error) tea.Cmd {
	return func() tea.Msg { return actionMsg{err: err} }
}

func (m Model) transition(action lifecycle.Action) tea.Cmd {
	t := m.currentTask()
	if t == nil {
		return nil
	}
	if err := m.precheck(t, action); err != nil {
		return failed(err)
	}

	c, id, title := m.client, t.ID, t.Title
	return act(func(ctx context.Context) (string, error) {
		var err error
		switch action {
		case lifecycle.ActionStart:
			_, err = c.StartTask(ctx, id)
			return "Started: " + title, err
		case lifecycle.ActionStop:
			_, err = c.StopTask(ctx, id)
			return "Back to planned: " + title, err
		default:
			_, err = c.CompleteTask(ctx, id)
			return "Completed: " + title + " (waiting for approval)", err
		}
	})
}

func (m Model) approve() tea.Cmd {
	t := m.currentTask()
	if t == nil {
		return nil
	}
	if err := m.precheck(t, lifecycle.ActionApprove); err != nil {
		return failed(err)
	}

	c, w, id, title := m.client, m.watcher, t.ID, t.Title
	return act(func(ctx context.Context) (string, error) {
		if _, err := c.Approve(ctx, id); err != nil {
			return "", err
		}
		if w != nil {
			w.Trigger()
		}
		return "Approved: " + title, nil
	})
}

func (m Model) deleteCurrent() tea.Cmd {
	t := m.currentTask()
	if t == nil {
		return nil
	}
	c, id := m.client, t.ID
	return act(func(ctx context.Context) (string, error) {
		d, err := c.DeleteTask(ctx, id)
		if err != nil {
			return "", err
		}
		return "Deleted: " + d.Title, nil
	})
}

func (m Model) acknowledge() tea.Cmd {
	if m.watcher == nil || len(m.approvals) == 0 {
		return nil
	}
	w := m.watcher
	ids := make([]string, len(m.approvals))
	for i, t := range m.approvals {
		ids[i] = t.ID
	}
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		return seenMsg{err: w.Acknowledge(ctx, ids)}
	}
}

func (m Model) logout() tea.Cmd {
	c := m.client
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		if err := c.Logout(ctx); err != nil {
			logger.Warn("Logout failed", logger.Err(err))
		}
		return loggedOutMsg{}
	}
}

func (m Model) updateConfirm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.mode = ModeNormal
	if key.Matches(msg, keys.Confirm) {
		return m, m.deleteCurrent()
	}
	m.message = "Cancelled"
	return m, nil
}

func (m Model) updateInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Escape):
		m.mode = ModeNormal
		m.input.Blur()
		return m, nil

	case key.Matches(msg, keys.Enter):
		value := m.input.Value()
		mode := m.mode
		m.mode = ModeNormal
		m.input.Blur()

		t := m.currentTask()
		if t == nil || value == "" {
			return m, nil
		}

		var patch model.TaskPatch
		switch mode {
		case ModeEditTitle:
			patch.Title = &value
		case ModeEditDue:
			due, err := model.ParseDay(value, time.Now())
			if err != nil {
				m.message = "Error: " + err.Error()
				return m, nil
			}
			patch.DueDate = &due
		}

		c, id := m.client, t.ID
		return m, act(func(ctx context.Context) (string, error) {
			updated, err := c.UpdateTask(ctx, id, patch)
			if err != nil {
				return "", err
			}
			return fmt.Sprintf("Updated: %s (%s)", updated.Title, updated.Display.Remaining), nil
		})
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) updateFilter(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Escape):
		m.mode = ModeNormal
		m.filterText = ""
		m.matchIndices = nil
		m.input.Blur()
		return m, nil

	case key.Matches(msg, keys.Up):
		if m.matchCursor > 0 {
			m.matchCursor--
		}
		return m, nil

	case key.Matches(msg, keys.Down):
		if m.matchCursor < len(m.matchIndices)-1 {
			m.matchCursor++
		}
		return m, nil

	case key.Matches(msg, keys.Enter):
		if m.matchCursor < len(m.matchIndices) {
			m.cursor = m.matchIndices[m.matchCursor]
		}
		m.mode = ModeNormal
		m.input.Blur()
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	m.filterText = m.input.Value()
	m.applyFilter()
	return m, cmd
}

func (m *Model) applyFilter() {
	m.matchIndices = matchTasks(m.tasks, m.filterText)
	if m.matchCursor >= len(m.matchIndices) {
		m.matchCursor = 0
	}
}
