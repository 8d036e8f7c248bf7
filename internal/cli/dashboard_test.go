package cli

import (
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/valter-silva-au/doer/internal/core"
	"github.com/valter-silva-au/doer/internal/observability"
	"github.com/valter-silva-au/doer/pkg/models"
)

func TestDashboardModel_Init(t *testing.T) {
	m := newDashboardModel()

	if m.focus != panelTasks {
		t.Errorf("expected focus = %d, got %d", panelTasks, m.focus)
	}
	if !m.loading {
		t.Error("expected loading = true on init")
	}
	if m.statusCounts == nil {
		t.Error("expected statusCounts to be initialized")
	}
	if m.Init() == nil {
		t.Error("expected Init to return a non-nil command")
	}
}

func TestDashboardModel_QuitKeys(t *testing.T) {
	keys := []tea.KeyMsg{
		{Type: tea.KeyRunes, Runes: []rune{'q'}},
		{Type: tea.KeyEscape},
		{Type: tea.KeyCtrlC},
	}
	for _, key := range keys {
		m := newDashboardModel()
		m.loading = false

		_, cmd := m.Update(key)
		if cmd == nil {
			t.Fatalf("expected tea.Quit command from %q", key.String())
		}
		if _, ok := cmd().(tea.QuitMsg); !ok {
			t.Errorf("%q: expected tea.QuitMsg", key.String())
		}
	}
}

func TestDashboardModel_PanelCycling(t *testing.T) {
	m := newDashboardModel()

	updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeyTab})
	if cmd != nil {
		t.Error("expected no command from tab key")
	}
	dm := updated.(dashboardModel)
	if dm.focus != panelActivity {
		t.Errorf("expected panel %d after tab, got %d", panelActivity, dm.focus)
	}

	updated, _ = dm.Update(tea.KeyMsg{Type: tea.KeyTab})
	updated, _ = updated.(dashboardModel).Update(tea.KeyMsg{Type: tea.KeyTab})
	if got := updated.(dashboardModel).focus; got != panelTasks {
		t.Errorf("expected wrap to panel %d, got %d", panelTasks, got)
	}

	updated, _ = newDashboardModel().Update(tea.KeyMsg{Type: tea.KeyShiftTab})
	if got := updated.(dashboardModel).focus; got != panelAlerts {
		t.Errorf("expected panel %d after shift+tab from 0, got %d", panelAlerts, got)
	}
}

func TestDashboardModel_ArrowKeys(t *testing.T) {
	updated, _ := newDashboardModel().Update(tea.KeyMsg{Type: tea.KeyRight})
	if got := updated.(dashboardModel).focus; got != panelActivity {
		t.Errorf("right: focus = %d, want %d", got, panelActivity)
	}
	updated, _ = updated.Update(tea.KeyMsg{Type: tea.KeyLeft})
	updated, _ = updated.Update(tea.KeyMsg{Type: tea.KeyLeft})
	if got := updated.(dashboardModel).focus; got != panelAlerts {
		t.Errorf("left twice: focus = %d, want %d", got, panelAlerts)
	}
}

func TestDashPanel_Step(t *testing.T) {
	tests := []struct {
		from  dashPanel
		delta int
		want  dashPanel
	}{
		{panelTasks, 1, panelActivity},
		{panelAlerts, 1, panelTasks},
		{panelTasks, -1, panelAlerts},
		{panelActivity, -1, panelTasks},
	}
	for _, tt := range tests {
		if got := tt.from.step(tt.delta); got != tt.want {
			t.Errorf("%d.step(%d) = %d, want %d", tt.from, tt.delta, got, tt.want)
		}
	}
}

func TestDashboardModel_Refresh(t *testing.T) {
	m := newDashboardModel()
	m.loading = false

	updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'r'}})
	if !updated.(dashboardModel).loading {
		t.Error("expected loading = true after pressing r")
	}
	if cmd == nil {
		t.Error("expected a command (loadData) from r key")
	}
}

func TestDashboardModel_View(t *testing.T) {
	m := newDashboardModel()
	if got := m.View(); got != "Loading..." {
		t.Errorf("View before window size = %q", got)
	}

	updated, _ := m.Update(tea.WindowSizeMsg{Width: 80, Height: 40})
	updated, _ = updated.Update(dataLoadedMsg{
		statusCounts: map[models.Status]int{models.StatusTodo: 3, models.StatusBlocked: 1, models.StatusDone: 2},
		overdue:      1,
		upNext:       []models.Task{{ID: 4, Description: "Pay rent", Due: date(2024, 3, 13)}},
		metrics:      &metricsSnapshot{eventCount: 42, tasksCreated: 8, tasksCompleted: 4},
		alerts:       []alertSnapshot{{severity: "high", message: "task 2 blocked for 30h"}},
	})
	view := updated.View()

	for _, want := range []string{"doer", "Tasks", "Total: 6", "Overdue", "Up next", "Pay rent", "Activity (7d)", "42", "[HIGH]", "task 2 blocked for 30h"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q:\n%s", want, view)
		}
	}
}

func TestDashboardModel_WideLayout(t *testing.T) {
	m := newDashboardModel()
	updated, _ := m.Update(tea.WindowSizeMsg{Width: 200, Height: 40})
	updated, _ = updated.Update(dataLoadedMsg{statusCounts: map[models.Status]int{models.StatusTodo: 1}})
	view := updated.View()

	// Side by side, all three titles share one line.
	found := false
	for _, line := range strings.Split(view, "\n") {
		if strings.Contains(line, "Tasks") && strings.Contains(line, "Activity (7d)") && strings.Contains(line, "Alerts") {
			found = true
		}
	}
	if !found {
		t.Errorf("expected panels in one row:\n%s", view)
	}
}

func TestDashboardModel_ErrorKeepsSnapshot(t *testing.T) {
	m := newDashboardModel()
	updated, _ := m.Update(dataLoadedMsg{statusCounts: map[models.Status]int{models.StatusHold: 2}})
	updated, _ = updated.Update(dataLoadedMsg{err: errors.New("boom")})

	dm := updated.(dashboardModel)
	if dm.err == nil || dm.statusCounts[models.StatusHold] != 2 {
		t.Errorf("model = %+v", dm)
	}
}

func TestSeverityRank(t *testing.T) {
	if !(severityRank("high") < severityRank("medium") && severityRank("medium") < severityRank("low") && severityRank("low") < severityRank("other")) {
		t.Error("severity ranks out of order")
	}
}

func TestDashboardModel_ViewError(t *testing.T) {
	m := newDashboardModel()
	updated, _ := m.Update(tea.WindowSizeMsg{Width: 80, Height: 40})
	updated, _ = updated.Update(dataLoadedMsg{err: errors.New("boom")})

	if view := updated.View(); !strings.Contains(view, "Error: boom") {
		t.Errorf("view missing error:\n%s", view)
	}
}

func TestLoadData(t *testing.T) {
	tm, _ := newRealTaskMgr(t)
	useTaskMgr(t, tm)
	mustCreate(t, tm, core.CreateTaskInput{Description: "late", DueToken: "2024-03-01"})
	mustCreate(t, tm, core.CreateTaskInput{Description: "late but done", DueToken: "2024-03-02"})
	mustCreate(t, tm, core.CreateTaskInput{Description: "upcoming", DueToken: "tomorrow"})
	if _, err := tm.ToggleStatus(2, models.StatusDone); err != nil {
		t.Fatal(err)
	}

	useMetricsCalc(t, &metricsMock{calculateFn: func(time.Time) (*observability.Metrics, error) {
		return &observability.Metrics{EventCount: 9, TasksRemoved: 1}, nil
	}})
	useAlerts(t, &alertsMock{evaluateFn: func() ([]observability.Alert, error) {
		return []observability.Alert{
			{Severity: observability.SeverityLow, Message: "low"},
			{Severity: observability.SeverityHigh, Message: "high"},
		}, nil
	}}, nil)

	msg, ok := loadData().(dataLoadedMsg)
	if !ok {
		t.Fatal("loadData did not return dataLoadedMsg")
	}
	if msg.err != nil {
		t.Fatalf("unexpected error: %v", msg.err)
	}
	if msg.statusCounts[models.StatusTodo] != 2 || msg.statusCounts[models.StatusDone] != 1 {
		t.Errorf("statusCounts = %v", msg.statusCounts)
	}
	if msg.upNext == nil || len(msg.upNext) != 2 || msg.upNext[0].ID != 1 {
		t.Errorf("upNext = %v, want tasks 1 and 3", msg.upNext)
	}
	if msg.metrics == nil || msg.metrics.eventCount != 9 || msg.metrics.tasksRemoved != 1 {
		t.Errorf("metrics = %+v", msg.metrics)
	}
	if len(msg.alerts) != 2 || msg.alerts[0].severity != "high" {
		t.Errorf("alerts not sorted by severity: %+v", msg.alerts)
	}
}

func TestLoadData_Errors(t *testing.T) {
	useTaskMgr(t, &taskMgrMock{allFn: func() ([]models.Task, error) { return nil, errors.New("store gone") }})
	useMetricsCalc(t, nil)
	useAlerts(t, nil, nil)

	msg := loadData().(dataLoadedMsg)
	if msg.err == nil || !strings.Contains(msg.err.Error(), "loading tasks") {
		t.Errorf("err = %v", msg.err)
	}
}

func TestDashboardCmd_NilTaskMgr(t *testing.T) {
	useTaskMgr(t, nil)

	if _, err := runCmd(t, dashboardCmd); !errors.Is(err, errTaskMgrNotInitialized) {
		t.Fatalf("expected errTaskMgrNotInitialized, got %v", err)
	}
}
