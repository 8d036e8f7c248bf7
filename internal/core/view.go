package core

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/valter-silva-au/doer/pkg/models"
)

// ViewMode selects how a listing is ordered and sectioned.
type ViewMode string

const (
	// ViewDue sections by due date, then by primary tag.
	ViewDue ViewMode = "due"
	// ViewTags sections by primary tag, then by due date.
	ViewTags ViewMode = "tags"
)

// ParseViewMode maps a --view value to a ViewMode. Blank input selects ViewDue.
func ParseViewMode(s string) (ViewMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", string(ViewDue):
		return ViewDue, nil
	case string(ViewTags), "tag":
		return ViewTags, nil
	default:
		return "", fmt.Errorf("invalid view %q: must be one of due, tags", s)
	}
}

const untaggedLabel = "(untagged)"

// SortTasks orders tasks in place with one composite comparator. For
// ViewDue the keys are due date, primary tag, priority; ViewTags swaps the
// first two. Remaining ties fall back to id so output is deterministic.
func SortTasks(tasks []models.Task, mode ViewMode) {
	sort.SliceStable(tasks, func(i, j int) bool {
		a, b := tasks[i], tasks[j]
		if mode == ViewTags {
			if a.PrimaryTag() != b.PrimaryTag() {
				return a.PrimaryTag() < b.PrimaryTag()
			}
			if !a.Due.Equal(b.Due) {
				return a.Due.Before(b.Due)
			}
		} else {
			if !a.Due.Equal(b.Due) {
				return a.Due.Before(b.Due)
			}
			if a.PrimaryTag() != b.PrimaryTag() {
				return a.PrimaryTag() < b.PrimaryTag()
			}
		}
		if a.Priority != b.Priority {
			return a.Priority < b.Priority
		}
		return a.ID < b.ID
	})
}

// Renderer writes grouped task listings. PriorityFormat decorates the
// priority column; nil renders the plain name.
type Renderer struct {
	PriorityFormat func(models.Priority) string
}

// Render writes tasks, which must already be sorted for mode, emitting a
// section header whenever the outer key changes and a sub-header whenever
// the inner key changes.
func (r Renderer) Render(w io.Writer, tasks []models.Task, mode ViewMode) error {
	var b strings.Builder
	for i, t := range tasks {
		first := i == 0
		var prev models.Task
		if !first {
			prev = tasks[i-1]
		}
		dueChanged := first || !prev.Due.Equal(t.Due)
		tagChanged := first || prev.PrimaryTag() != t.PrimaryTag()

		if mode == ViewTags {
			if tagChanged {
				if !first {
					b.WriteString("\n")
				}
				b.WriteString(tagHeader(t))
				dueChanged = true
			}
			if dueChanged {
				b.WriteString("  " + dueHeader(t))
			}
		} else {
			if dueChanged {
				if !first {
					b.WriteString("\n")
				}
				b.WriteString(dueHeader(t))
				tagChanged = true
			}
			if tagChanged {
				b.WriteString("  " + tagHeader(t))
			}
		}
		b.WriteString("    " + r.FormatLine(t) + "\n")
	}
	_, err := io.WriteString(w, b.String())
	return err
}

// FormatLine renders a single task as "[<glyph>] <id> <priority> <description>".
func (r Renderer) FormatLine(t models.Task) string {
	prio := t.Priority.String()
	if r.PriorityFormat != nil {
		prio = r.PriorityFormat(t.Priority)
	}
	return fmt.Sprintf("[%s] %d %s %s", t.Status.Glyph(), t.ID, prio, t.Description)
}

func dueHeader(t models.Task) string {
	if t.HasSentinelDue() {
		return "Due: " + DueSometime + "\n"
	}
	return fmt.Sprintf("Due: %s (%s)\n", t.Due.Format(models.DateLayout), t.Due.Weekday())
}

func tagHeader(t models.Task) string {
	tag := t.PrimaryTag()
	if tag == "" {
		tag = untaggedLabel
	}
	return "# " + tag + "\n"
}
