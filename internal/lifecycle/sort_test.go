package lifecycle

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/existflow/sitetask/internal/model"
)

func ids(tasks []model.Task) []string {
	out := make([]string, len(tasks))
	for i, t := range tasks {
		out[i] = t.ID
	}
	return out
}

func TestSortForDisplay_LateFirstThenDueThenCompany(t *testing.T) {
	now := at("2025-09-05", 12, time.UTC)
	rows := []model.Task{
		{ID: "C", DueDate: model.MustDate("2025-09-01"), CompanyName: "Beta", IsCompleted: true},
		{ID: "B", DueDate: model.MustDate("2025-09-02"), CompanyName: "Alpha"},
		{ID: "A", DueDate: model.MustDate("2025-09-01"), CompanyName: "Zeta"},
	}

	got := SortForDisplay(rows, SortOptions{PrioritizeLate: true, Mode: SortUrgency, Now: now})

	assert.Equal(t, []string{"A", "B", "C"}, ids(got))
	assert.Equal(t, []string{"C", "B", "A"}, ids(rows), "input must not be reordered")
}

func TestSortForDisplay_WithoutLatePriority(t *testing.T) {
	now := at("2025-09-05", 12, time.UTC)
	rows := []model.Task{
		{ID: "late", DueDate: model.MustDate("2025-09-03"), CompanyName: "A"},
		{ID: "early", DueDate: model.MustDate("2025-09-01"), CompanyName: "B", IsCompleted: true},
	}

	got := SortForDisplay(rows, SortOptions{Now: now})
	assert.Equal(t, []string{"early", "late"}, ids(got))
}

func TestSortForDisplay_TurkishCollation(t *testing.T) {
	now := at("2025-09-05", 12, time.UTC)
	due := model.MustDate("2025-09-10")
	rows := []model.Task{
		{ID: "z", DueDate: due, CompanyName: "Zeta Yapı"},
		{ID: "s", DueDate: due, CompanyName: "Şimşek Elektrik"},
		{ID: "c", DueDate: due, CompanyName: "Çelik Ltd."},
		{ID: "b", DueDate: due, CompanyName: "Beta Beton"},
	}

	got := SortForDisplay(rows, SortOptions{Now: now})
	assert.Equal(t, []string{"b", "c", "s", "z"}, ids(got))
}

func TestSortForDisplay_Stable(t *testing.T) {
	now := at("2025-09-05", 12, time.UTC)
	due := model.MustDate("2025-09-10")
	rows := []model.Task{
		{ID: "1", DueDate: due, CompanyName: "Same"},
		{ID: "2", DueDate: due, CompanyName: "Same"},
		{ID: "3", DueDate: due, CompanyName: "Same"},
	}

	got := SortForDisplay(rows, SortOptions{PrioritizeLate: true, Now: now})
	assert.Equal(t, []string{"1", "2", "3"}, ids(got))
}

func TestSortForDisplay_Newest(t *testing.T) {
	now := at("2025-09-05", 12, time.UTC)
	base := time.Date(2025, 9, 1, 10, 0, 0, 0, time.UTC)
	rows := []model.Task{
		{ID: "old", DueDate: model.MustDate("2025-09-20"), UpdatedAt: base},
		{ID: "late", DueDate: model.MustDate("2025-09-01"), UpdatedAt: base.Add(-48 * time.Hour)},
		{ID: "fresh", DueDate: model.MustDate("2025-09-30"), UpdatedAt: base.Add(2 * time.Hour)},
		{ID: "untimed", DueDate: model.MustDate("2025-09-25")},
	}

	got := SortForDisplay(rows, SortOptions{PrioritizeLate: true, Mode: SortNewest, Now: now})
	assert.Equal(t, []string{"late", "untimed", "fresh", "old"}, ids(got))
}

func TestParseSortMode(t *testing.T) {
	assert.Equal(t, SortNewest, ParseSortMode("newest"))
	assert.Equal(t, SortUrgency, ParseSortMode(""))
	assert.Equal(t, SortUrgency, ParseSortMode("bogus"))
}

func TestCountLate(t *testing.T) {
	now := at("2025-09-05", 12, time.UTC)
	rows := []model.Task{
		{DueDate: model.MustDate("2025-09-01")},
		{DueDate: model.MustDate("2025-09-01"), IsCompleted: true},
		{DueDate: model.MustDate("2025-09-05")},
	}
	assert.Equal(t, 1, CountLate(rows, now))
}
