package tui

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/existflow/sitetask/internal/lifecycle"
)

// Color palette
var (
	// Status colors
	LateColor       = lipgloss.Color("#FF6B6B") // Red
	OnTimeColor     = lipgloss.Color("#95E1A3") // Green
	InProgressColor = lipgloss.Color("#FFE66D") // Yellow
	WarningColor    = lipgloss.Color("#FFB347") // Orange

	// UI colors
	Primary   = lipgloss.Color("#4ECDC4")
	Secondary = lipgloss.Color("#6C757D")
	Surface   = lipgloss.Color("#16213e")
	TextMuted = lipgloss.Color("#888888")
	Border    = lipgloss.Color("#333333")
	Highlight = lipgloss.Color("#4ECDC4")
)

// Styles
var (
	HeaderStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(Primary).
			Padding(0, 1)

	TabStyle = lipgloss.NewStyle().
			Foreground(TextMuted).
			Padding(0, 2)

	TabActiveStyle = lipgloss.NewStyle().
			Foreground(Primary).
			Bold(true).
			Underline(true).
			Padding(0, 2)

	TaskListStyle = lipgloss.NewStyle().
			Padding(1, 2)

	TaskItemStyle = lipgloss.NewStyle().
			Padding(0, 1)

	TaskItemSelectedStyle = lipgloss.NewStyle().
				Padding(0, 1).
				Background(Surface).
				Bold(true)

	TaskApprovedStyle = lipgloss.NewStyle().
				Foreground(TextMuted).
				Padding(0, 1)

	LateStyle       = lipgloss.NewStyle().Foreground(LateColor).Bold(true)
	OnTimeStyle     = lipgloss.NewStyle().Foreground(OnTimeColor)
	InProgressStyle = lipgloss.NewStyle().Foreground(InProgressColor)
	WarningStyle    = lipgloss.NewStyle().Foreground(WarningColor)

	StatusBarStyle = lipgloss.NewStyle().
			Foreground(TextMuted).
			Padding(0, 1).
			BorderStyle(lipgloss.NormalBorder()).
			BorderTop(true).
			BorderForeground(Border)

	NoticeStyle = lipgloss.NewStyle().
			Foreground(OnTimeColor).
			Bold(true)

	ModalStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(Primary).
			Padding(1, 2)

	HelpStyle = lipgloss.NewStyle().
			Foreground(TextMuted)
)

// StatusStyle returns the style of a task's remaining-time column. Late
// work is red, everything else on schedule is green.
func StatusStyle(d lifecycle.Display) lipgloss.Style {
	switch d.Status {
	case lifecycle.StatusLate:
		return LateStyle
	case lifecycle.StatusInProgress:
		return InProgressStyle
	default:
		return OnTimeStyle
	}
}

// FormatStatus renders a short status badge
func FormatStatus(d lifecycle.Display, approved bool) string {
	style := StatusStyle(d)
	switch d.Status {
	case lifecycle.StatusCompleted:
		if approved {
			return style.Render("[✓]")
		}
		return style.Render("[x]")
	case lifecycle.StatusLate:
		return style.Render("[!]")
	case lifecycle.StatusInProgress:
		return style.Render("[>]")
	default:
		return style.Render("[ ]")
	}
}
