package observability

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Event levels.
const (
	LevelInfo  = "INFO"
	LevelWarn  = "WARN"
	LevelError = "ERROR"
)

// Event types written by doer.
const (
	EventTaskCreated       = "task.created"
	EventTaskRemoved       = "task.removed"
	EventTaskStatusChanged = "task.status_changed"
	EventTaskReset         = "task.reset"
	EventStoreLoadWarning  = "store.load_warning"
	EventStoreSaveFailed   = "store.save_failed"
)

// Event is a single line in the event log.
type Event struct {
	Time    time.Time      `json:"time"`
	Level   string         `json:"level"`
	Type    string         `json:"type"`
	Message string         `json:"msg"`
	Data    map[string]any `json:"data,omitempty"`
}

// TaskID extracts the numeric task_id carried in the event data. Numbers
// come back from JSON as float64, so every numeric form is accepted.
func (e Event) TaskID() (int, bool) {
	return intField(e.Data, "task_id")
}

func intField(data map[string]any, key string) (int, bool) {
	switch v := data[key].(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	case json.Number:
		n, err := v.Int64()
		return int(n), err == nil
	case string:
		n, err := strconv.Atoi(v)
		return n, err == nil
	default:
		return 0, false
	}
}

func stringField(data map[string]any, key string) string {
	s, _ := data[key].(string)
	return s
}

// EventFilter selects events on Read. Zero values match everything.
type EventFilter struct {
	Since *time.Time
	Until *time.Time
	// Type matches exactly; a trailing "*" matches by prefix ("task.*").
	Type   string
	Level  string
	TaskID int
}

// EventLog writes and reads events.
type EventLog interface {
	Write(event Event) error
	Read(filter EventFilter) ([]Event, error)
	Close() error
}

type jsonlEventLog struct {
	path string
	file *os.File
	mu   sync.Mutex
}

// NewJSONLEventLog opens (creating if needed) the JSONL event log at path.
func NewJSONLEventLog(path string) (EventLog, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, fmt.Errorf("creating event log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening event log: %w", err)
	}
	return &jsonlEventLog{path: path, file: f}, nil
}

func (l *jsonlEventLog) Write(event Event) error {
	if event.Time.IsZero() {
		event.Time = time.Now().UTC()
	}
	if event.Level == "" {
		event.Level = LevelInfo
	}

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshalling event: %w", err)
	}
	data = append(data, '\n')

	l.mu.Lock()
	defer l.mu.Unlock()
	if _, err := l.file.Write(data); err != nil {
		return fmt.Errorf("writing event: %w", err)
	}
	return nil
}

// Read returns the events matching filter in file order. Malformed lines
// are skipped.
func (l *jsonlEventLog) Read(filter EventFilter) ([]Event, error) {
	f, err := os.Open(l.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("opening event log for reading: %w", err)
	}
	defer func() { _ = f.Close() }()

	var events []Event
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var event Event
		if err := json.Unmarshal(line, &event); err != nil {
			continue
		}
		if matchesEventFilter(event, filter) {
			events = append(events, event)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scanning event log: %w", err)
	}
	return events, nil
}

func (l *jsonlEventLog) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.file.Close(); err != nil {
		return fmt.Errorf("closing event log: %w", err)
	}
	return nil
}

func matchesEventFilter(event Event, filter EventFilter) bool {
	if filter.Since != nil && event.Time.Before(*filter.Since) {
		return false
	}
	if filter.Until != nil && event.Time.After(*filter.Until) {
		return false
	}
	if filter.Type != "" {
		if prefix, ok := strings.CutSuffix(filter.Type, "*"); ok {
			if !strings.HasPrefix(event.Type, prefix) {
				return false
			}
		} else if event.Type != filter.Type {
			return false
		}
	}
	if filter.Level != "" && event.Level != filter.Level {
		return false
	}
	if filter.TaskID != 0 {
		if id, ok := event.TaskID(); !ok || id != filter.TaskID {
			return false
		}
	}
	return true
}
