package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/existflow/sitetask/internal/client"
	"github.com/existflow/sitetask/internal/lifecycle"
)

// View renders the UI
func (m Model) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	header := m.renderHeader()
	taskList := m.renderTaskList()
	statusBar := m.renderStatusBar()

	mainContent := taskList
	switch m.mode {
	case ModeEditTitle, ModeEditDue, ModeConfirmDelete:
		mainContent = lipgloss.Place(
			m.width, m.height-4,
			lipgloss.Center, lipgloss.Center,
			m.renderModal(),
			lipgloss.WithWhitespaceChars(" "),
		)
	case ModeFilter:
		mainContent = lipgloss.Place(
			m.width, m.height-4,
			lipgloss.Center, lipgloss.Center,
			m.renderFilterModal(),
			lipgloss.WithWhitespaceChars(" "),
		)
	case ModeHelp:
		mainContent = m.renderHelp()
	}

	return lipgloss.JoinVertical(lipgloss.Left, header, mainContent, statusBar)
}

func (m Model) renderHeader() string {
	title := lipgloss.NewStyle().Bold(true).Foreground(Primary).Render("SiteTask")

	project := HelpStyle.Render("no active project")
	if m.project != nil {
		countdown := m.project.Countdown
		style := OnTimeStyle
		if m.project.DaysLeft < 0 {
			style = LateStyle
		} else if m.project.DaysLeft <= 14 {
			style = WarningStyle
		}
		project = m.project.Name + " · " + style.Render(countdown)
	}

	var tabs []string
	for _, v := range m.views() {
		label := v.String()
		if v == ViewRecent && len(m.approvals) > 0 {
			label += fmt.Sprintf(" (%d new)", len(m.approvals))
		}
		if v == m.view {
			tabs = append(tabs, TabActiveStyle.Render(label))
		} else {
			tabs = append(tabs, TabStyle.Render(label))
		}
	}

	clock := HelpStyle.Render(time.Now().Format("15:04:05"))
	left := title + "  " + project
	right := clock
	gap := m.width - lipgloss.Width(left) - lipgloss.Width(right) - 2
	if gap < 1 {
		gap = 1
	}

	top := HeaderStyle.Render(left + strings.Repeat(" ", gap) + right)
	return lipgloss.JoinVertical(lipgloss.Left, top, lipgloss.JoinHorizontal(lipgloss.Top, tabs...))
}

func (m Model) renderTaskList() string {
	width := m.width - 4
	height := m.height - 6
	var s string

	late := ""
	if m.lateCount > 0 {
		late = LateStyle.Render(fmt.Sprintf("  %d late", m.lateCount))
	}
	header := fmt.Sprintf("%s (%d)", m.view, len(m.tasks))
	s += lipgloss.NewStyle().Bold(true).Foreground(Primary).Render(header) + late + "\n"
	s += lipgloss.NewStyle().Foreground(Border).Render(strings.Repeat("─", max(width-4, 0))) + "\n"

	if m.loading && len(m.tasks) == 0 {
		s += HelpStyle.Render("  Loading...")
		return TaskListStyle.Width(width).Height(height).Render(s)
	}
	if len(m.tasks) == 0 {
		s += HelpStyle.Render("  No tasks here.")
		return TaskListStyle.Width(width).Height(height).Render(s)
	}

	// keep the cursor on screen
	rows := max(height-3, 1)
	start := 0
	if m.cursor >= rows {
		start = m.cursor - rows + 1
	}
	end := min(start+rows, len(m.tasks))

	matches := make(map[int]bool, len(m.matchIndices))
	for _, idx := range m.matchIndices {
		matches[idx] = true
	}

	for i := start; i < end; i++ {
		s += m.renderRow(i, m.tasks[i], width, matches[i]) + "\n"
	}

	return TaskListStyle.Width(width).Height(height).Render(s)
}

func (m Model) renderRow(i int, t client.Task, width int, isMatch bool) string {
	cursor := "  "
	style := TaskItemStyle
	if i == m.cursor {
		cursor = "❯ "
		style = TaskItemSelectedStyle
	} else if isMatch {
		style = lipgloss.NewStyle().Foreground(Highlight).Padding(0, 1)
	} else if t.IsApproved {
		style = TaskApprovedStyle
	}

	titleWidth := max(width-70, 12)
	line := fmt.Sprintf("%-14s %-*s %-16s",
		truncate(location(t), 14),
		titleWidth, truncate(t.Title, titleWidth),
		truncate(t.CompanyName, 16),
	)

	remaining := StatusStyle(t.Display).Render(fmt.Sprintf("%-20s", t.Display.Remaining))

	warning := ""
	switch t.Display.Warning {
	case lifecycle.WarningOwnWorkLate:
		warning = LateStyle.Render("⚠ late")
	case lifecycle.WarningPendingDependency:
		warning = WarningStyle.Render("⏳ " + truncate(t.DependentCompanyName, 14))
	}

	return style.Render(cursor) + FormatStatus(t.Display, t.IsApproved) + style.Render(" "+line+" ") + remaining + " " + warning
}

func (m Model) renderStatusBar() string {
	if m.mode == ModeFilter {
		matches := ""
		if len(m.matchIndices) > 0 {
			matches = fmt.Sprintf(" [%d/%d]", m.matchCursor+1, len(m.matchIndices))
		} else if m.filterText != "" {
			matches = " [no match]"
		}
		return StatusBarStyle.Width(m.width).Render("/" + m.input.View() + matches)
	}

	help := "s:start  p:plan  x:done  e:edit  D:due  d:del  /:search  tab:view  ?:help  q:quit"
	if m.admin {
		help = "A:approve  " + help
	}
	if m.filterText != "" {
		if len(m.matchIndices) > 0 {
			help = fmt.Sprintf("/%s  [%d/%d matches]  n:next  N:prev  Esc:clear",
				m.filterText, m.matchCursor+1, len(m.matchIndices))
		} else {
			help = fmt.Sprintf("/%s  [no matches]  Esc:clear", m.filterText)
		}
	} else if m.message != "" {
		help = m.message
	}

	right := fmt.Sprintf("sort:%s", m.sortMode)
	if m.prioritizeLate {
		right += " late-first"
	}
	if len(m.approvals) > 0 {
		right = NoticeStyle.Render(fmt.Sprintf("🔔 %d", len(m.approvals))) + "  " + right
	}

	avail := m.width - lipgloss.Width(help) - lipgloss.Width(right) - 2
	if avail > 0 {
		help += strings.Repeat(" ", avail) + right
	} else {
		help += " " + right
	}

	return StatusBarStyle.Width(m.width).Render(help)
}

func (m Model) renderModal() string {
	t := m.currentTask()
	if t == nil {
		return ""
	}

	var content string
	switch m.mode {
	case ModeConfirmDelete:
		content = lipgloss.NewStyle().Bold(true).Foreground(LateColor).Render("Delete task?") + "\n\n"
		content += fmt.Sprintf("%s\n%s · %s\n\n", t.Title, location(*t), t.CompanyName)
		content += HelpStyle.Render("y:delete  any other key:cancel")
		return ModalStyle.Render(content)
	case ModeEditDue:
		content = lipgloss.NewStyle().Bold(true).Render("Move due date: "+truncate(t.Title, 30)) + "\n\n"
	default:
		content = lipgloss.NewStyle().Bold(true).Render("Edit title") + "\n\n"
	}

	content += m.input.View() + "\n\n"
	content += HelpStyle.Render("Enter:save  Esc:cancel")
	return ModalStyle.Render(content)
}

func (m Model) renderFilterModal() string {
	modalWidth := 60
	maxResults := 8

	var content string
	content += lipgloss.NewStyle().Bold(true).Foreground(Primary).Render("Search") + "  "
	content += HelpStyle.Render(m.view.String()) + "\n\n"
	content += "/" + m.input.View() + "\n\n"
	content += lipgloss.NewStyle().Foreground(Border).Render(strings.Repeat("─", modalWidth-6)) + "\n\n"

	switch {
	case m.filterText == "":
		content += HelpStyle.Render("Type to search titles, companies, blocks...") + "\n"
	case len(m.matchIndices) == 0:
		content += HelpStyle.Render("No matches found") + "\n"
	default:
		content += fmt.Sprintf("%d matches\n\n", len(m.matchIndices))
		for i, idx := range m.matchIndices {
			if i >= maxResults {
				content += HelpStyle.Render(fmt.Sprintf("... +%d more", len(m.matchIndices)-maxResults)) + "\n"
				break
			}
			if idx >= len(m.tasks) {
				continue
			}

			t := m.tasks[idx]
			marker := "  "
			style := lipgloss.NewStyle()
			if i == m.matchCursor {
				marker = "❯ "
				style = lipgloss.NewStyle().Bold(true).Foreground(Primary)
			}
			line := fmt.Sprintf("%s%s %s", marker, truncate(location(t), 12), truncate(t.Title, modalWidth-24))
			content += style.Render(line) + "\n"
		}
	}

	content += "\n" + HelpStyle.Render("↑↓:nav  Enter:select  Esc:close")
	return ModalStyle.Width(modalWidth).Render(content)
}

func (m Model) renderHelp() string {
	help := `
╭──── Keyboard Shortcuts ────╮
│                            │
│  Navigation                │
│  ──────────                │
│  j/↓     Move down         │
│  k/↑     Move up           │
│  G       Go to bottom      │
│  Tab/h/l Switch view       │
│  /       Search            │
│  n/N     Next/prev match   │
│                            │
│  Tasks                     │
│  ─────                     │
│  s       Start             │
│  p       Back to planned   │
│  x/Enter Complete          │
│  A       Approve (admin)   │
│  e       Edit title        │
│  D       Move due date     │
│  d       Delete            │
│                            │
│  Board                     │
│  ─────                     │
│  o       Toggle sort       │
│  !       Late tasks first  │
│  c       Clear approvals   │
│  r       Refresh           │
│  L       Logout            │
│  q       Quit              │
│                            │
╰────────────────────────────╯

     Press any key to close
`
	return lipgloss.Place(m.width, m.height-4, lipgloss.Center, lipgloss.Center, help)
}
