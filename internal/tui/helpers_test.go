package tui

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/existflow/sitetask/internal/client"
	"github.com/existflow/sitetask/internal/lifecycle"
	"github.com/existflow/sitetask/internal/model"
)

func errorsIsValidation(err error) bool {
	return errors.Is(err, model.ErrValidation)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "Lighting", truncate("Lighting", 8))
	assert.Equal(t, "Yalıt...", truncate("Yalıtım işleri", 8))
	assert.Equal(t, "ab", truncate("abcdef", 2))
}

func TestMatchTasks(t *testing.T) {
	tasks := []client.Task{
		{Task: model.Task{Title: "Screed", CompanyName: "Gamma Yapı", Block: "A Blok"}},
		{Task: model.Task{Title: "Lighting", CompanyName: "Beta Elektrik", Block: "B Blok"}},
		{Task: model.Task{Title: "Risers", CompanyName: "Beta Elektrik", Block: "A Blok", Notes: "shaft 2"}},
	}

	assert.Nil(t, matchTasks(tasks, "  "))
	assert.Equal(t, []int{1, 2}, matchTasks(tasks, "beta"))
	assert.Equal(t, []int{0, 2}, matchTasks(tasks, "a blok"))
	assert.Equal(t, []int{2}, matchTasks(tasks, "SHAFT"))
	assert.Empty(t, matchTasks(tasks, "plaster"))
}

func TestLocation(t *testing.T) {
	tk := client.Task{Task: model.Task{Block: "B Blok"}}
	assert.Equal(t, "B Blok", location(tk))

	tk.Display = lifecycle.Display{Floor: "B1–3"}
	assert.Equal(t, "B Blok / B1–3", location(tk))
}

func TestFormatStatus(t *testing.T) {
	late := lifecycle.Display{Status: lifecycle.StatusLate}
	assert.Contains(t, FormatStatus(late, false), "[!]")

	done := lifecycle.Display{Status: lifecycle.StatusCompleted}
	assert.Contains(t, FormatStatus(done, true), "[✓]")
	assert.Contains(t, FormatStatus(done, false), "[x]")
}
