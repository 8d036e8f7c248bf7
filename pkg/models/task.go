package models

import (
	"strings"
	"time"
)

// DateLayout is the on-disk and on-screen format for due dates.
const DateLayout = "2006-01-02"

// SentinelDue stands in for "no concrete due date". It is used for the
// "sometime" keyword and whenever a due date cannot be parsed.
var SentinelDue = time.Date(9999, time.December, 31, 0, 0, 0, 0, time.UTC)

// Priority represents the urgency level of a task. Values are ordered so
// that PriorityLow < PriorityMedium < PriorityHigh.
type Priority int

const (
	PriorityLow Priority = iota
	PriorityMedium
	PriorityHigh
)

// priorityNames is the single mapping between priorities and their
// canonical names. Encoding and decoding both go through it.
var priorityNames = []struct {
	p    Priority
	name string
}{
	{PriorityLow, "Low"},
	{PriorityMedium, "Medium"},
	{PriorityHigh, "High"},
}

// Priorities lists every priority in ascending order.
func Priorities() []Priority {
	out := make([]Priority, len(priorityNames))
	for i, e := range priorityNames {
		out[i] = e.p
	}
	return out
}

func (p Priority) String() string {
	for _, e := range priorityNames {
		if e.p == p {
			return e.name
		}
	}
	return "Low"
}

// ParsePriority maps a priority name (case-insensitive) to a Priority.
// The second return value is false when the name is not recognised.
func ParsePriority(s string) (Priority, bool) {
	s = strings.TrimSpace(s)
	for _, e := range priorityNames {
		if strings.EqualFold(e.name, s) {
			return e.p, true
		}
	}
	return PriorityLow, false
}

// Status represents the current lifecycle state of a task.
type Status int

const (
	StatusTodo Status = iota
	StatusDone
	StatusHold
	StatusBlocked
)

var statusNames = []struct {
	s     Status
	name  string
	glyph string
}{
	{StatusTodo, "Todo", " "},
	{StatusDone, "Done", "x"},
	{StatusHold, "Hold", "~"},
	{StatusBlocked, "Blocked", "!"},
}

// Statuses lists every status in declaration order.
func Statuses() []Status {
	out := make([]Status, len(statusNames))
	for i, e := range statusNames {
		out[i] = e.s
	}
	return out
}

func (s Status) String() string {
	for _, e := range statusNames {
		if e.s == s {
			return e.name
		}
	}
	return "Todo"
}

// Glyph returns the single character shown inside the checkbox of a task line.
func (s Status) Glyph() string {
	for _, e := range statusNames {
		if e.s == s {
			return e.glyph
		}
	}
	return " "
}

// ParseStatus maps a status name (case-insensitive) to a Status.
func ParseStatus(s string) (Status, bool) {
	s = strings.TrimSpace(s)
	for _, e := range statusNames {
		if strings.EqualFold(e.name, s) {
			return e.s, true
		}
	}
	return StatusTodo, false
}

// Task is a single trackable unit of work.
type Task struct {
	ID          int
	Description string
	Tags        []string
	Due         time.Time
	CreatedAt   time.Time
	Priority    Priority
	Status      Status
}

// PrimaryTag returns the tag used for display grouping, or "" when the
// task is untagged.
func (t Task) PrimaryTag() string {
	if len(t.Tags) == 0 {
		return ""
	}
	return t.Tags[0]
}

// Title is the text external integrations publish for the task.
func (t Task) Title() string {
	return t.Description
}

// HasSentinelDue reports whether the task has no concrete due date.
func (t Task) HasSentinelDue() bool {
	return t.Due.Equal(SentinelDue)
}

// Clone returns a copy of the task that shares no slices with t.
func (t Task) Clone() Task {
	if t.Tags != nil {
		t.Tags = append([]string(nil), t.Tags...)
	}
	return t
}
