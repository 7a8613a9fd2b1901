// Package lifecycle holds the task rules shared by the server and its clients:
// late classification, display labels, ordering, validation and the role
// gate in front of every state change. Nothing here reads the wall clock;
// callers pass now.
package lifecycle

import (
	"fmt"
	"time"

	"github.com/existflow/sitetask/internal/model"
)

// Status is the display state of a task
type Status string

const (
	StatusCompleted  Status = "Completed"
	StatusLate       Status = "Late"
	StatusInProgress Status = "InProgress"
	StatusPlanned    Status = "Planned"
)

// Warning is the advisory note shown next to a task
type Warning string

const (
	WarningNone              Warning = "None"
	WarningOwnWorkLate       Warning = "OwnWorkLate"
	WarningPendingDependency Warning = "PendingDependency"
)

// today returns the calendar day of now in now's location
func today(now time.Time) model.Date {
	return model.DateOf(now)
}

// IsLate reports whether an incomplete task's due day is already behind us.
// The due day itself is not late.
func IsLate(t *model.Task, now time.Time) bool {
	if t.IsCompleted || t.DueDate.IsZero() {
		return false
	}
	return today(now).After(t.DueDate)
}

// StatusOf derives the display status. Completion wins over lateness, and
// lateness wins over the stored status. A planned task without a dependency
// has nothing left to wait on and is shown as in progress.
func StatusOf(t *model.Task, now time.Time) Status {
	switch {
	case t.IsCompleted:
		return StatusCompleted
	case IsLate(t, now):
		return StatusLate
	case t.Status == model.StatusInProgress:
		return StatusInProgress
	case !t.HasDependency():
		return StatusInProgress
	default:
		return StatusPlanned
	}
}

// WarningOf returns the advisory warning for a task. It never blocks anything.
func WarningOf(t *model.Task, now time.Time) Warning {
	if IsLate(t, now) {
		return WarningOwnWorkLate
	}
	if t.HasDependency() && t.Status == model.StatusPlanned {
		return WarningPendingDependency
	}
	return WarningNone
}

// Remaining is the signed number of days until a due date
type Remaining struct {
	Days int
}

// RemainingOf counts calendar days from today to the due date.
// It is not gated by completion.
func RemainingOf(t *model.Task, now time.Time) Remaining {
	return Remaining{Days: today(now).DaysUntil(t.DueDate)}
}

// IsToday reports whether the due date is today
func (r Remaining) IsToday() bool {
	return r.Days == 0
}

// IsOverdue reports whether the due date has passed
func (r Remaining) IsOverdue() bool {
	return r.Days < 0
}

func (r Remaining) String() string {
	switch {
	case r.Days == 0:
		return "today"
	case r.Days < 0:
		return fmt.Sprintf("%d %s overdue", -r.Days, plural(-r.Days, "day", "days"))
	default:
		return fmt.Sprintf("%d %s remaining", r.Days, plural(r.Days, "day", "days"))
	}
}

// Display bundles every derived fact about a task for rendering
type Display struct {
	Late          bool    `json:"late"`
	Status        Status  `json:"status"`
	Remaining     string  `json:"remaining"`
	RemainingDays int     `json:"remaining_days"`
	Warning       Warning `json:"warning"`
	Floor         string  `json:"floor,omitempty"`
}

// Describe computes the display facts of t at now
func Describe(t *model.Task, now time.Time) Display {
	r := RemainingOf(t, now)
	return Display{
		Late:          IsLate(t, now),
		Status:        StatusOf(t, now),
		Remaining:     r.String(),
		RemainingDays: r.Days,
		Warning:       WarningOf(t, now),
		Floor:         FloorLabel(t),
	}
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
