package observability

import (
	"fmt"
	"sort"
	"time"

	"github.com/valter-silva-au/doer/pkg/models"
)

// AlertSeverity represents the urgency of an alert.
type AlertSeverity string

const (
	SeverityHigh   AlertSeverity = "high"
	SeverityMedium AlertSeverity = "medium"
	SeverityLow    AlertSeverity = "low"
)

// Alert conditions.
const (
	ConditionBlockedTooLong = "task_blocked_too_long"
	ConditionHeldTooLong    = "task_held_too_long"
	ConditionTooManyOpen    = "too_many_open_tasks"
)

// Alert represents a triggered alert condition.
type Alert struct {
	ID          string        `json:"id"`
	Condition   string        `json:"condition"`
	Severity    AlertSeverity `json:"severity"`
	Message     string        `json:"message"`
	TaskID      int           `json:"task_id,omitempty"`
	TriggeredAt time.Time     `json:"triggered_at"`
}

// AlertThresholds configures when alerts fire. A zero threshold disables
// its check.
type AlertThresholds struct {
	BlockedHours int `yaml:"blocked_hours" json:"blocked_hours"`
	HoldDays     int `yaml:"hold_days" json:"hold_days"`
	MaxOpen      int `yaml:"max_open" json:"max_open"`
}

// DefaultAlertThresholds returns the thresholds used when none are configured.
func DefaultAlertThresholds() AlertThresholds {
	return AlertThresholds{
		BlockedHours: 24,
		HoldDays:     7,
		MaxOpen:      25,
	}
}

// AlertEngine evaluates alert conditions against the current tasks.
type AlertEngine interface {
	Evaluate() ([]Alert, error)
}

// TaskSource supplies the tasks currently held in the store.
type TaskSource interface {
	GetAllTasks() ([]models.Task, error)
}

type alertEngine struct {
	eventLog   EventLog
	tasks      TaskSource
	thresholds AlertThresholds
	now        func() time.Time
}

// NewAlertEngine creates an AlertEngine. Statuses and the open count come
// from tasks; eventLog only dates when a task entered its status. Either
// may be nil: without tasks the log is replayed on its own, and without a
// log a task's status is dated from its creation time.
func NewAlertEngine(eventLog EventLog, tasks TaskSource, thresholds AlertThresholds) AlertEngine {
	return &alertEngine{
		eventLog:   eventLog,
		tasks:      tasks,
		thresholds: thresholds,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// taskState is a task's status as reconstructed from the event log, and
// when it entered that status.
type taskState struct {
	status string
	since  time.Time
}

// replay rebuilds the current status of every task the log knows about.
// Removed and reset tasks are dropped.
func replay(events []Event) map[int]*taskState {
	tasks := make(map[int]*taskState)
	for _, event := range events {
		id, ok := event.TaskID()
		if !ok {
			continue
		}
		switch event.Type {
		case EventTaskCreated:
			tasks[id] = &taskState{status: "Todo", since: event.Time}
		case EventTaskStatusChanged:
			next := stringField(event.Data, "new_status")
			if next == "" {
				continue
			}
			st, known := tasks[id]
			if !known {
				tasks[id] = &taskState{status: next, since: event.Time}
				continue
			}
			if st.status != next {
				st.status = next
				st.since = event.Time
			}
		case EventTaskRemoved, EventTaskReset:
			delete(tasks, id)
		}
	}
	return tasks
}

// fromStore builds the alert state from the stored tasks. A task keeps the
// replayed "since" only when the log agrees on its status; otherwise it is
// dated from its creation time.
func fromStore(stored []models.Task, replayed map[int]*taskState) map[int]*taskState {
	tasks := make(map[int]*taskState, len(stored))
	for _, t := range stored {
		st := &taskState{status: t.Status.String(), since: t.CreatedAt}
		if r, ok := replayed[t.ID]; ok && r.status == st.status {
			st.since = r.since
		}
		tasks[t.ID] = st
	}
	return tasks
}

// Evaluate returns triggered alerts ordered by task id, with the
// open-count alert last.
func (ae *alertEngine) Evaluate() ([]Alert, error) {
	var replayed map[int]*taskState
	if ae.eventLog != nil {
		events, err := ae.eventLog.Read(EventFilter{Type: "task.*"})
		if err != nil {
			return nil, fmt.Errorf("reading events for alerts: %w", err)
		}
		replayed = replay(events)
	}

	tasks := replayed
	if ae.tasks != nil {
		stored, err := ae.tasks.GetAllTasks()
		if err != nil {
			return nil, fmt.Errorf("listing tasks for alerts: %w", err)
		}
		tasks = fromStore(stored, replayed)
	}

	now := ae.now()

	ids := make([]int, 0, len(tasks))
	for id := range tasks {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	blockedFor := time.Duration(ae.thresholds.BlockedHours) * time.Hour
	heldFor := time.Duration(ae.thresholds.HoldDays) * 24 * time.Hour

	var alerts []Alert
	open := 0
	for _, id := range ids {
		st := tasks[id]
		if st.status != "Done" {
			open++
		}
		switch {
		case st.status == "Blocked" && ae.thresholds.BlockedHours > 0 && now.Sub(st.since) > blockedFor:
			alerts = append(alerts, Alert{
				ID:          fmt.Sprintf("blocked-%d", id),
				Condition:   ConditionBlockedTooLong,
				Severity:    SeverityHigh,
				Message:     fmt.Sprintf("task %d has been blocked for more than %d hours", id, ae.thresholds.BlockedHours),
				TaskID:      id,
				TriggeredAt: now,
			})
		case st.status == "Hold" && ae.thresholds.HoldDays > 0 && now.Sub(st.since) > heldFor:
			alerts = append(alerts, Alert{
				ID:          fmt.Sprintf("hold-%d", id),
				Condition:   ConditionHeldTooLong,
				Severity:    SeverityMedium,
				Message:     fmt.Sprintf("task %d has been on hold for more than %d days", id, ae.thresholds.HoldDays),
				TaskID:      id,
				TriggeredAt: now,
			})
		}
	}

	if ae.thresholds.MaxOpen > 0 && open > ae.thresholds.MaxOpen {
		alerts = append(alerts, Alert{
			ID:          "open-count",
			Condition:   ConditionTooManyOpen,
			Severity:    SeverityLow,
			Message:     fmt.Sprintf("%d tasks are open, exceeding the maximum of %d", open, ae.thresholds.MaxOpen),
			TriggeredAt: now,
		})
	}

	return alerts, nil
}
