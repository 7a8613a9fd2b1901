package tui

import (
	"strings"

	"github.com/existflow/sitetask/internal/client"
)

// truncate shortens a string to max runes with ellipsis
func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	if max <= 3 {
		return string(r[:max])
	}
	return string(r[:max-3]) + "..."
}

// matchTasks returns the indices of tasks whose title, company, block or
// notes contain text, case-insensitively
func matchTasks(tasks []client.Task, text string) []int {
	needle := strings.ToLower(strings.TrimSpace(text))
	if needle == "" {
		return nil
	}

	var out []int
	for i, t := range tasks {
		hay := strings.ToLower(strings.Join([]string{t.Title, t.CompanyName, t.Block, t.Notes}, "\n"))
		if strings.Contains(hay, needle) {
			out = append(out, i)
		}
	}
	return out
}

// location renders block and floor, e.g. "B Blok / 5"
func location(t client.Task) string {
	if t.Display.Floor == "" {
		return t.Block
	}
	return t.Block + " / " + t.Display.Floor
}
