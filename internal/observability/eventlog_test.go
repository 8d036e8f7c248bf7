package observability

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

func newTestEventLog(t *testing.T) (EventLog, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), ".doer_events.jsonl")
	log, err := NewJSONLEventLog(path)
	if err != nil {
		t.Fatalf("creating event log: %v", err)
	}
	t.Cleanup(func() { _ = log.Close() })
	return log, path
}

func writeEvents(t *testing.T, log EventLog, events ...Event) {
	t.Helper()
	for _, e := range events {
		if err := log.Write(e); err != nil {
			t.Fatalf("writing event: %v", err)
		}
	}
}

func TestEventLog_WriteAndRead(t *testing.T) {
	log, _ := newTestEventLog(t)

	now := time.Now().UTC().Truncate(time.Millisecond)
	writeEvents(t, log,
		Event{Time: now, Level: LevelInfo, Type: EventTaskCreated, Message: "task created", Data: map[string]any{"task_id": 1}},
		Event{Time: now.Add(time.Second), Level: LevelInfo, Type: EventTaskStatusChanged, Message: "status", Data: map[string]any{"task_id": 1, "new_status": "Blocked"}},
	)

	got, err := log.Read(EventFilter{})
	if err != nil {
		t.Fatalf("reading events: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 events, got %d", len(got))
	}
	if !got[0].Time.Equal(now) || got[0].Type != EventTaskCreated {
		t.Errorf("first event = %+v", got[0])
	}
	id, ok := got[1].TaskID()
	if !ok || id != 1 {
		t.Errorf("TaskID() = %d, %v, want 1, true", id, ok)
	}
}

func TestEventLog_WriteFillsDefaults(t *testing.T) {
	log, _ := newTestEventLog(t)
	writeEvents(t, log, Event{Type: EventTaskRemoved})

	got, _ := log.Read(EventFilter{})
	if len(got) != 1 {
		t.Fatalf("expected 1 event, got %d", len(got))
	}
	if got[0].Time.IsZero() {
		t.Error("Time should default to now")
	}
	if got[0].Level != LevelInfo {
		t.Errorf("Level = %q, want INFO", got[0].Level)
	}
}

func TestEventLog_Filters(t *testing.T) {
	log, _ := newTestEventLog(t)
	base := time.Date(2024, 3, 13, 9, 0, 0, 0, time.UTC)
	writeEvents(t, log,
		Event{Time: base, Level: LevelInfo, Type: EventTaskCreated, Data: map[string]any{"task_id": 1}},
		Event{Time: base.Add(time.Hour), Level: LevelInfo, Type: EventTaskCreated, Data: map[string]any{"task_id": 2}},
		Event{Time: base.Add(2 * time.Hour), Level: LevelWarn, Type: EventStoreLoadWarning},
		Event{Time: base.Add(3 * time.Hour), Level: LevelInfo, Type: EventTaskRemoved, Data: map[string]any{"task_id": 1}},
	)

	since := base.Add(30 * time.Minute)
	until := base.Add(150 * time.Minute)

	tests := []struct {
		name   string
		filter EventFilter
		want   int
	}{
		{"all", EventFilter{}, 4},
		{"exact type", EventFilter{Type: EventTaskCreated}, 2},
		{"type prefix", EventFilter{Type: "task.*"}, 3},
		{"level", EventFilter{Level: LevelWarn}, 1},
		{"task id", EventFilter{TaskID: 1}, 2},
		{"since", EventFilter{Since: &since}, 3},
		{"window", EventFilter{Since: &since, Until: &until}, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := log.Read(tt.filter)
			if err != nil {
				t.Fatalf("Read: %v", err)
			}
			if len(got) != tt.want {
				t.Errorf("got %d events, want %d", len(got), tt.want)
			}
		})
	}
}

func TestEventLog_SkipsMalformedLines(t *testing.T) {
	log, path := newTestEventLog(t)
	writeEvents(t, log, Event{Type: EventTaskCreated, Data: map[string]any{"task_id": 1}})

	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		t.Fatal(err)
	}
	_, _ = f.WriteString("{not json\n\n")
	_ = f.Close()

	writeEvents(t, log, Event{Type: EventTaskRemoved, Data: map[string]any{"task_id": 1}})

	got, err := log.Read(EventFilter{})
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("got %d events, want 2", len(got))
	}
}

func TestEventLog_ConcurrentWrites(t *testing.T) {
	log, _ := newTestEventLog(t)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			_ = log.Write(Event{Type: EventTaskCreated, Data: map[string]any{"task_id": id}})
		}(i + 1)
	}
	wg.Wait()

	got, _ := log.Read(EventFilter{})
	if len(got) != 20 {
		t.Errorf("got %d events, want 20", len(got))
	}
}

func TestEvent_TaskIDForms(t *testing.T) {
	tests := []struct {
		value  any
		want   int
		wantOK bool
	}{
		{7, 7, true},
		{int64(8), 8, true},
		{float64(9), 9, true},
		{"10", 10, true},
		{"x", 0, false},
		{nil, 0, false},
	}
	for _, tt := range tests {
		e := Event{Data: map[string]any{"task_id": tt.value}}
		got, ok := e.TaskID()
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("TaskID(%v) = %d, %v, want %d, %v", tt.value, got, ok, tt.want, tt.wantOK)
		}
	}
}
