package observability

import (
	"fmt"
	"time"
)

// Metrics summarises task activity recorded in the event log.
type Metrics struct {
	TasksCreated      int            `json:"tasks_created"`
	TasksCompleted    int            `json:"tasks_completed"`
	TasksRemoved      int            `json:"tasks_removed"`
	TasksReset        int            `json:"tasks_reset"`
	StatusChanges     map[string]int `json:"status_changes"`
	CreatedByPriority map[string]int `json:"created_by_priority"`
	LoadWarnings      int            `json:"load_warnings"`
	EventCount        int            `json:"event_count"`
	OldestEvent       *time.Time     `json:"oldest_event,omitempty"`
	NewestEvent       *time.Time     `json:"newest_event,omitempty"`
}

// MetricsCalculator derives metrics from the event log.
type MetricsCalculator interface {
	Calculate(since time.Time) (*Metrics, error)
}

type metricsCalculator struct {
	eventLog EventLog
}

// NewMetricsCalculator creates a MetricsCalculator reading from eventLog.
func NewMetricsCalculator(eventLog EventLog) MetricsCalculator {
	return &metricsCalculator{eventLog: eventLog}
}

// Calculate aggregates every event at or after since.
func (mc *metricsCalculator) Calculate(since time.Time) (*Metrics, error) {
	events, err := mc.eventLog.Read(EventFilter{Since: &since})
	if err != nil {
		return nil, fmt.Errorf("reading events for metrics: %w", err)
	}

	m := &Metrics{
		StatusChanges:     make(map[string]int),
		CreatedByPriority: make(map[string]int),
		EventCount:        len(events),
	}

	for i, event := range events {
		t := event.Time
		if i == 0 {
			m.OldestEvent = &t
		}
		m.NewestEvent = &t

		switch event.Type {
		case EventTaskCreated:
			m.TasksCreated++
			if p := stringField(event.Data, "priority"); p != "" {
				m.CreatedByPriority[p]++
			}
		case EventTaskStatusChanged:
			next := stringField(event.Data, "new_status")
			if next == "" {
				continue
			}
			m.StatusChanges[next]++
			if next == "Done" {
				m.TasksCompleted++
			}
		case EventTaskRemoved:
			m.TasksRemoved++
		case EventTaskReset:
			m.TasksReset++
		case EventStoreLoadWarning:
			m.LoadWarnings++
		}
	}

	return m, nil
}
