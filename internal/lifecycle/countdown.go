package lifecycle

import (
	"fmt"
	"time"

	"github.com/existflow/sitetask/internal/model"
)

// Countdown is the distance from today to a project's end date
type Countdown struct {
	Days int `json:"days"`
}

// CountdownOf returns the days left until the project's end date
func CountdownOf(p *model.Project, now time.Time) Countdown {
	return Countdown{Days: today(now).DaysUntil(p.EndDate)}
}

func (c Countdown) String() string {
	switch {
	case c.Days == 0:
		return "delivery day"
	case c.Days < 0:
		return fmt.Sprintf("ended %d %s ago", -c.Days, plural(-c.Days, "day", "days"))
	default:
		return fmt.Sprintf("%d %s left", c.Days, plural(c.Days, "day", "days"))
	}
}
