package lifecycle

import (
	"sort"
	"time"

	"github.com/existflow/sitetask/internal/model"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// SortMode selects the secondary ordering of a task list
type SortMode string

const (
	// SortUrgency orders by due date, then company name
	SortUrgency SortMode = "urgency"
	// SortNewest orders by last update, most recent first
	SortNewest SortMode = "newest"
)

// ParseSortMode maps a query value to a mode, defaulting to urgency
func ParseSortMode(s string) SortMode {
	if SortMode(s) == SortNewest {
		return SortNewest
	}
	return SortUrgency
}

// SortOptions controls SortForDisplay
type SortOptions struct {
	PrioritizeLate bool
	Mode           SortMode
	Now            time.Time
	// Collator compares company names. Defaults to Turkish collation.
	Collator *collate.Collator
}

// DefaultCollator returns the collator used for company names
func DefaultCollator() *collate.Collator {
	return collate.New(language.Turkish, collate.IgnoreCase)
}

// SortForDisplay returns a stably sorted copy of tasks. Late tasks come
// first when PrioritizeLate is set; ties after every comparator keep their
// input order.
func SortForDisplay(tasks []model.Task, opts SortOptions) []model.Task {
	out := make([]model.Task, len(tasks))
	copy(out, tasks)

	coll := opts.Collator
	if coll == nil {
		coll = DefaultCollator()
	}
	loc := opts.Now.Location()

	late := make([]bool, len(out))
	for i := range out {
		late[i] = IsLate(&out[i], opts.Now)
	}

	idx := make([]int, len(out))
	for i := range idx {
		idx[i] = i
	}

	sort.SliceStable(idx, func(a, b int) bool {
		i, j := idx[a], idx[b]
		t1, t2 := &out[i], &out[j]

		if opts.PrioritizeLate && late[i] != late[j] {
			return late[i]
		}

		if opts.Mode == SortNewest {
			k1, k2 := newestKey(t1, loc), newestKey(t2, loc)
			if !k1.Equal(k2) {
				return k1.After(k2)
			}
			return false
		}

		if c := t1.DueDate.Compare(t2.DueDate); c != 0 {
			return c < 0
		}
		return coll.CompareString(t1.CompanyName, t2.CompanyName) < 0
	})

	sorted := make([]model.Task, len(out))
	for pos, i := range idx {
		sorted[pos] = out[i]
	}
	return sorted
}

// newestKey is the update timestamp, or the due date at midnight when the
// task carries no timestamps
func newestKey(t *model.Task, loc *time.Location) time.Time {
	if ts := t.LastTouched(); !ts.IsZero() {
		return ts
	}
	return t.DueDate.Midnight(loc)
}

// CountLate returns how many tasks are late at now
func CountLate(tasks []model.Task, now time.Time) int {
	n := 0
	for i := range tasks {
		if IsLate(&tasks[i], now) {
			n++
		}
	}
	return n
}
