package internal

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/valter-silva-au/doer/internal/core"
	"github.com/valter-silva-au/doer/internal/observability"
	"github.com/valter-silva-au/doer/internal/storage"
	"github.com/valter-silva-au/doer/pkg/models"
)

// =========================================================================
// End-to-end: create, change status, save, reopen, list
// =========================================================================

func TestIntegration_PersistAcrossSessions(t *testing.T) {
	captureDiagnostics(t)
	dir := t.TempDir()

	first := newTestApp(t, dir)
	inputs := []core.CreateTaskInput{
		{Description: "Write report", Tags: []string{"work", "q1"}, DueToken: "2024-03-15", PriorityToken: "High"},
		{Description: "Buy milk, bread", Tags: []string{"home"}, DueToken: "2024-03-13"},
		{Description: "Read book", PriorityToken: "Medium"},
	}
	for _, in := range inputs {
		if _, err := first.TaskMgr.CreateTask(in); err != nil {
			t.Fatalf("CreateTask(%q): %v", in.Description, err)
		}
	}
	if _, err := first.TaskMgr.ToggleStatus(2, models.StatusDone); err != nil {
		t.Fatal(err)
	}
	if err := first.TaskMgr.RemoveTask(3); err != nil {
		t.Fatal(err)
	}
	if err := first.TaskMgr.Save(); err != nil {
		t.Fatalf("Save: %v", err)
	}
	_ = first.Close()

	second := newTestApp(t, dir)
	if second.LoadReport.Loaded != 2 || len(second.LoadReport.Skipped) != 0 {
		t.Fatalf("load report = %+v", second.LoadReport)
	}

	milk, err := second.TaskMgr.GetTask(2)
	if err != nil {
		t.Fatalf("GetTask(2): %v", err)
	}
	if milk.Description != "Buy milk, bread" || milk.Status != models.StatusDone {
		t.Errorf("task 2 = %+v", milk)
	}

	report, err := second.TaskMgr.GetTask(1)
	if err != nil {
		t.Fatalf("GetTask(1): %v", err)
	}
	if strings.Join(report.Tags, ",") != "work,q1" || report.Priority != models.PriorityHigh {
		t.Errorf("task 1 = %+v", report)
	}
	if _, err := second.TaskMgr.GetTask(3); !errors.Is(err, core.ErrTaskNotFound) {
		t.Errorf("removed task 3 came back: %v", err)
	}

	// The next id follows the highest id in the file.
	next, err := second.TaskMgr.CreateTask(core.CreateTaskInput{Description: "new"})
	if err != nil {
		t.Fatal(err)
	}
	if next.ID != 3 {
		t.Errorf("next id = %d, want 3", next.ID)
	}

	open, err := second.TaskMgr.ListTasks(core.FilterCriteria{Statuses: []string{"todo"}}, core.ViewDue)
	if err != nil {
		t.Fatal(err)
	}
	if len(open) != 2 || open[0].ID != 1 || open[1].ID != 3 {
		t.Errorf("open tasks = %v", open)
	}
}

func TestIntegration_FileFormat(t *testing.T) {
	captureDiagnostics(t)
	dir := t.TempDir()
	app := newTestApp(t, dir)

	if _, err := app.TaskMgr.CreateTask(core.CreateTaskInput{Description: "Say \"hi\"", Tags: []string{"a", "b"}, DueToken: "2024-01-01"}); err != nil {
		t.Fatal(err)
	}
	if err := app.TaskMgr.Save(); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "tasks.csv"))
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 2 {
		t.Fatalf("file has %d lines, want 2:\n%s", len(lines), data)
	}
	if lines[0] != strings.Join(storage.Header, ",") {
		t.Errorf("header = %q", lines[0])
	}
	if !strings.HasPrefix(lines[1], `1,"Say ""hi""","a,b",2024-01-01,`) || !strings.HasSuffix(lines[1], ",Low,Todo") {
		t.Errorf("row = %q", lines[1])
	}
}

// =========================================================================
// Observability: events drive metrics and alerts
// =========================================================================

func TestIntegration_EventsFeedMetricsAndAlerts(t *testing.T) {
	captureDiagnostics(t)
	dir := t.TempDir()
	writeConfig(t, dir, "alerts:\n  max_open: 1\n")
	app := newTestApp(t, dir)

	for _, d := range []string{"a", "b", "c"} {
		if _, err := app.TaskMgr.CreateTask(core.CreateTaskInput{Description: d}); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := app.TaskMgr.ToggleStatus(1, models.StatusDone); err != nil {
		t.Fatal(err)
	}
	if _, err := app.TaskMgr.ResetTask(3); err != nil {
		t.Fatal(err)
	}

	// Nothing reaches the log until the changes are saved.
	unsaved, err := app.MetricsCalc.Calculate(time.Now().UTC().Add(-time.Hour))
	if err != nil {
		t.Fatalf("Calculate: %v", err)
	}
	if unsaved.TasksCreated != 0 {
		t.Errorf("unsaved changes counted: %+v", unsaved)
	}
	if err := app.TaskMgr.Save(); err != nil {
		t.Fatalf("Save: %v", err)
	}

	metrics, err := app.MetricsCalc.Calculate(time.Now().UTC().Add(-time.Hour))
	if err != nil {
		t.Fatalf("Calculate: %v", err)
	}
	// Reset recreates the task, so it counts as a creation too.
	if metrics.TasksCreated != 4 || metrics.TasksCompleted != 1 || metrics.TasksReset != 1 {
		t.Errorf("metrics = %+v", metrics)
	}

	alerts, err := app.AlertEngine.Evaluate()
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	found := false
	for _, a := range alerts {
		if a.Condition == observability.ConditionTooManyOpen {
			found = true
		}
	}
	if !found {
		t.Errorf("expected %s alert, got %+v", observability.ConditionTooManyOpen, alerts)
	}
}

func TestIntegration_SaveFailureIsLogged(t *testing.T) {
	captureDiagnostics(t)
	dir := t.TempDir()
	// A regular file where the store directory should be makes Save fail.
	blocker := filepath.Join(dir, "blocked")
	if err := os.WriteFile(blocker, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	writeConfig(t, dir, "store:\n  dir: blocked/data\n")
	app := newTestApp(t, dir)

	if _, err := app.TaskMgr.CreateTask(core.CreateTaskInput{Description: "x"}); err != nil {
		t.Fatal(err)
	}
	err := app.TaskMgr.Save()
	if !errors.Is(err, storage.ErrSaveFailed) {
		t.Fatalf("expected ErrSaveFailed, got %v", err)
	}

	events, err := app.EventLog.Read(observability.EventFilter{Level: observability.LevelError})
	if err != nil {
		t.Fatal(err)
	}
	if len(events) != 1 || events[0].Type != observability.EventStoreSaveFailed {
		t.Errorf("error events = %+v", events)
	}
	created, err := app.EventLog.Read(observability.EventFilter{Type: observability.EventTaskCreated})
	if err != nil {
		t.Fatal(err)
	}
	if len(created) != 0 {
		t.Errorf("unsaved creation logged: %+v", created)
	}
	if tasks, _ := app.TaskMgr.GetAllTasks(); len(tasks) != 1 {
		t.Errorf("in-memory tasks lost after failed save: %d", len(tasks))
	}
}

func TestIntegration_CreateNormalizesLineEndings(t *testing.T) {
	captureDiagnostics(t)
	dir := t.TempDir()
	app := newTestApp(t, dir)

	task, err := app.TaskMgr.CreateTask(core.CreateTaskInput{Description: "line1\r\nline2"})
	if err != nil {
		t.Fatal(err)
	}
	if task.Description != "line1\nline2" {
		t.Errorf("created description = %q", task.Description)
	}
	if err := app.TaskMgr.Save(); err != nil {
		t.Fatal(err)
	}

	reopened := newTestApp(t, dir)
	got, err := reopened.TaskMgr.GetTask(task.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Description != task.Description {
		t.Errorf("reloaded %q, want %q", got.Description, task.Description)
	}
}
