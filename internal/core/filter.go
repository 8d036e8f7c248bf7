package core

import (
	"strings"

	"github.com/valter-silva-au/doer/pkg/models"
)

// FilterCriteria selects tasks for a listing. Empty fields impose no
// constraint. Fields combine with AND; values inside a field combine with OR.
type FilterCriteria struct {
	Tags       []string
	Statuses   []string
	Priorities []string
	// Due is a single keyword (today, tomorrow, thisweek, sometime,
	// overdue) or a YYYY-MM-DD literal.
	Due string
}

// IsEmpty reports whether no criterion is set.
func (c FilterCriteria) IsEmpty() bool {
	return len(c.Tags) == 0 && len(c.Statuses) == 0 && len(c.Priorities) == 0 && strings.TrimSpace(c.Due) == ""
}

// Matches reports whether task satisfies every present criterion.
func Matches(task models.Task, c FilterCriteria, dates DateResolver) bool {
	if len(c.Tags) > 0 && !hasAnyTag(task.Tags, c.Tags) {
		return false
	}
	if len(c.Statuses) > 0 && !containsFold(c.Statuses, task.Status.String()) {
		return false
	}
	if len(c.Priorities) > 0 && !containsFold(c.Priorities, task.Priority.String()) {
		return false
	}
	if due := strings.TrimSpace(c.Due); due != "" && !matchesDue(task, due, dates) {
		return false
	}
	return true
}

// FilterTasks returns the tasks matching c, preserving input order.
func FilterTasks(tasks []models.Task, c FilterCriteria, dates DateResolver) []models.Task {
	var out []models.Task
	for _, t := range tasks {
		if Matches(t, c, dates) {
			out = append(out, t)
		}
	}
	return out
}

func matchesDue(task models.Task, expr string, dates DateResolver) bool {
	today := dates.Today()
	switch strings.ToLower(expr) {
	case DueOverdue:
		return task.Due.Before(today)
	case DueThisWeek:
		yesterday := today.AddDate(0, 0, -1)
		return !task.Due.Before(yesterday) && !task.Due.After(EndOfWeek(today))
	}
	want, ok := dates.Lookup(expr)
	if !ok {
		return false
	}
	return task.Due.Equal(want)
}

func hasAnyTag(taskTags, wanted []string) bool {
	for _, w := range wanted {
		for _, t := range taskTags {
			if t == w {
				return true
			}
		}
	}
	return false
}

func containsFold(haystack []string, needle string) bool {
	for _, s := range haystack {
		if strings.EqualFold(strings.TrimSpace(s), needle) {
			return true
		}
	}
	return false
}

// ParseList splits a comma-separated value into trimmed, non-empty items.
// It returns nil for blank input so the result can be used directly as an
// absent filter field.
func ParseList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
