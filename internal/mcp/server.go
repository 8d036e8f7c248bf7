// Package mcp provides an MCP (Model Context Protocol) server that exposes
// the doer task list as tools for AI assistants.
package mcp

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	gomcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/valter-silva-au/doer/internal/core"
	"github.com/valter-silva-au/doer/internal/observability"
	"github.com/valter-silva-au/doer/pkg/models"
)

// Server wraps the task manager and exposes it as MCP tools. Handlers are
// serialised and every mutation is saved before the tool returns.
type Server struct {
	server      *gomcp.Server
	taskMgr     core.TaskManager
	metricsCalc observability.MetricsCalculator
	alertEngine observability.AlertEngine
	mu          sync.Mutex
}

// NewServer creates an MCP server over taskMgr. metricsCalc and alertEngine
// may be nil if the event log is unavailable.
func NewServer(taskMgr core.TaskManager, metricsCalc observability.MetricsCalculator, alertEngine observability.AlertEngine, version string) *Server {
	if version == "" {
		version = "dev"
	}

	s := &Server{
		taskMgr:     taskMgr,
		metricsCalc: metricsCalc,
		alertEngine: alertEngine,
	}
	s.server = gomcp.NewServer(&gomcp.Implementation{Name: "doer", Version: version}, nil)
	s.registerTools()
	return s
}

// Run serves over stdio until the client disconnects or ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	return s.server.Run(ctx, &gomcp.StdioTransport{})
}

// MCPServer returns the underlying mcp.Server for testing purposes.
func (s *Server) MCPServer() *gomcp.Server {
	return s.server
}

// --- Tool input/output types ---

type taskOutput struct {
	ID          int      `json:"id"`
	Description string   `json:"description"`
	Tags        []string `json:"tags,omitempty"`
	Due         string   `json:"due"`
	CreatedAt   string   `json:"created_at"`
	Priority    string   `json:"priority"`
	Status      string   `json:"status"`
}

type taskIDInput struct {
	ID int `json:"id" jsonschema:"the numeric task id"`
}

type listTasksInput struct {
	Tags       []string `json:"tags,omitempty" jsonschema:"keep tasks carrying any of these tags"`
	Statuses   []string `json:"statuses,omitempty" jsonschema:"keep tasks in any of these statuses (Todo, Done, Hold, Blocked)"`
	Priorities []string `json:"priorities,omitempty" jsonschema:"keep tasks with any of these priorities (Low, Medium, High)"`
	Due        string   `json:"due,omitempty" jsonschema:"today, tomorrow, thisweek, sometime, overdue, or YYYY-MM-DD"`
	View       string   `json:"view,omitempty" jsonschema:"sort order: due (default) or tags"`
}

type listTasksOutput struct {
	Tasks []taskOutput `json:"tasks"`
	Count int          `json:"count"`
}

type addTaskInput struct {
	Description string   `json:"description" jsonschema:"what needs doing"`
	Tags        []string `json:"tags,omitempty" jsonschema:"tags; the first one groups the task in listings"`
	Due         string   `json:"due,omitempty" jsonschema:"today, tomorrow, thisweek, sometime, or YYYY-MM-DD"`
	Priority    string   `json:"priority,omitempty" jsonschema:"Low, Medium, or High"`
}

type setStatusInput struct {
	ID     int    `json:"id" jsonschema:"the numeric task id"`
	Status string `json:"status" jsonschema:"Todo, Done, Hold, or Blocked; Done and Hold toggle back to Todo when already set"`
}

type removeTaskOutput struct {
	Message string `json:"message"`
}

type getMetricsInput struct {
	Since string `json:"since,omitempty" jsonschema:"time window such as 2w, 7d or 24h, defaults to 7d"`
}

type metricsOutput struct {
	TasksCreated      int            `json:"tasks_created"`
	TasksCompleted    int            `json:"tasks_completed"`
	TasksRemoved      int            `json:"tasks_removed"`
	TasksReset        int            `json:"tasks_reset"`
	StatusChanges     map[string]int `json:"status_changes"`
	CreatedByPriority map[string]int `json:"created_by_priority"`
	EventCount        int            `json:"event_count"`
}

type getAlertsInput struct{}

type alertOutput struct {
	ID          string `json:"id"`
	Condition   string `json:"condition"`
	Severity    string `json:"severity"`
	Message     string `json:"message"`
	TriggeredAt string `json:"triggered_at"`
}

type getAlertsOutput struct {
	Alerts []alertOutput `json:"alerts"`
	Count  int           `json:"count"`
}

// --- Tool registration ---

func (s *Server) registerTools() {
	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "list_tasks",
		Description: "List tasks, optionally filtered by tags, statuses, priorities and due date, sorted by due date (or by tag with view=tags).",
	}, s.handleListTasks)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "get_task",
		Description: "Get a single task by id.",
	}, s.handleGetTask)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "add_task",
		Description: "Create a task. Missing due date and priority take the configured defaults.",
	}, s.handleAddTask)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "set_status",
		Description: "Set a task's status. Applying Done or Hold to a task already in that status returns it to Todo.",
	}, s.handleSetStatus)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "remove_task",
		Description: "Delete a task by id. Unknown ids are ignored.",
	}, s.handleRemoveTask)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "reset_task",
		Description: "Replace a task with a fresh Todo copy of its description, using default due date and priority.",
	}, s.handleResetTask)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "get_metrics",
		Description: "Get task activity counts from the event log.",
	}, s.handleGetMetrics)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "get_alerts",
		Description: "Evaluate alerts: tasks blocked or on hold too long, and too many open tasks.",
	}, s.handleGetAlerts)
}

// --- Tool handlers ---

func (s *Server) handleListTasks(_ context.Context, _ *gomcp.CallToolRequest, input listTasksInput) (*gomcp.CallToolResult, listTasksOutput, error) {
	mode, err := core.ParseViewMode(input.View)
	if err != nil {
		return errorResult(err.Error()), listTasksOutput{}, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tasks, err := s.taskMgr.ListTasks(core.FilterCriteria{
		Tags:       input.Tags,
		Statuses:   input.Statuses,
		Priorities: input.Priorities,
		Due:        input.Due,
	}, mode)
	if err != nil {
		return errorResult(fmt.Sprintf("listing tasks: %s", err)), listTasksOutput{}, nil
	}

	out := listTasksOutput{Tasks: make([]taskOutput, len(tasks)), Count: len(tasks)}
	for i, t := range tasks {
		out.Tasks[i] = taskToOutput(t)
	}
	return nil, out, nil
}

func (s *Server) handleGetTask(_ context.Context, _ *gomcp.CallToolRequest, input taskIDInput) (*gomcp.CallToolResult, taskOutput, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	task, err := s.taskMgr.GetTask(input.ID)
	if err != nil {
		return errorResult(err.Error()), taskOutput{}, nil
	}
	return nil, taskToOutput(*task), nil
}

func (s *Server) handleAddTask(_ context.Context, _ *gomcp.CallToolRequest, input addTaskInput) (*gomcp.CallToolResult, taskOutput, error) {
	desc := strings.TrimSpace(input.Description)
	if desc == "" {
		return errorResult("description is required"), taskOutput{}, nil
	}
	if p := strings.TrimSpace(input.Priority); p != "" {
		if _, ok := models.ParsePriority(p); !ok {
			return errorResult(fmt.Sprintf("invalid priority %q: must be one of Low, Medium, High", input.Priority)), taskOutput{}, nil
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	task, err := s.taskMgr.CreateTask(core.CreateTaskInput{
		Description:   desc,
		Tags:          input.Tags,
		DueToken:      input.Due,
		PriorityToken: input.Priority,
	})
	if err != nil {
		return errorResult(fmt.Sprintf("adding task: %s", err)), taskOutput{}, nil
	}
	if err := s.taskMgr.Save(); err != nil {
		return errorResult(err.Error()), taskOutput{}, nil
	}
	return nil, taskToOutput(*task), nil
}

func (s *Server) handleSetStatus(_ context.Context, _ *gomcp.CallToolRequest, input setStatusInput) (*gomcp.CallToolResult, taskOutput, error) {
	status, ok := models.ParseStatus(input.Status)
	if !ok {
		return errorResult(fmt.Sprintf("invalid status %q: must be one of Todo, Done, Hold, Blocked", input.Status)), taskOutput{}, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	task, err := s.taskMgr.ToggleStatus(input.ID, status)
	if err != nil {
		return errorResult(err.Error()), taskOutput{}, nil
	}
	if err := s.taskMgr.Save(); err != nil {
		return errorResult(err.Error()), taskOutput{}, nil
	}
	return nil, taskToOutput(*task), nil
}

func (s *Server) handleRemoveTask(_ context.Context, _ *gomcp.CallToolRequest, input taskIDInput) (*gomcp.CallToolResult, removeTaskOutput, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.taskMgr.RemoveTask(input.ID); err != nil {
		return errorResult(err.Error()), removeTaskOutput{}, nil
	}
	if err := s.taskMgr.Save(); err != nil {
		return errorResult(err.Error()), removeTaskOutput{}, nil
	}
	return nil, removeTaskOutput{Message: fmt.Sprintf("task %d removed", input.ID)}, nil
}

func (s *Server) handleResetTask(_ context.Context, _ *gomcp.CallToolRequest, input taskIDInput) (*gomcp.CallToolResult, taskOutput, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	task, err := s.taskMgr.ResetTask(input.ID)
	if err != nil {
		return errorResult(err.Error()), taskOutput{}, nil
	}
	if err := s.taskMgr.Save(); err != nil {
		return errorResult(err.Error()), taskOutput{}, nil
	}
	return nil, taskToOutput(*task), nil
}

func (s *Server) handleGetMetrics(_ context.Context, _ *gomcp.CallToolRequest, input getMetricsInput) (*gomcp.CallToolResult, metricsOutput, error) {
	if s.metricsCalc == nil {
		return errorResult("metrics are not available: the event log could not be opened"), emptyMetricsOutput(), nil
	}

	since := input.Since
	if since == "" {
		since = "7d"
	}
	sinceTime, err := ParseSince(since, time.Now().UTC())
	if err != nil {
		return errorResult(err.Error()), emptyMetricsOutput(), nil
	}

	m, err := s.metricsCalc.Calculate(sinceTime)
	if err != nil {
		return errorResult(fmt.Sprintf("calculating metrics: %s", err)), emptyMetricsOutput(), nil
	}

	return nil, metricsOutput{
		TasksCreated:      m.TasksCreated,
		TasksCompleted:    m.TasksCompleted,
		TasksRemoved:      m.TasksRemoved,
		TasksReset:        m.TasksReset,
		StatusChanges:     m.StatusChanges,
		CreatedByPriority: m.CreatedByPriority,
		EventCount:        m.EventCount,
	}, nil
}

func (s *Server) handleGetAlerts(_ context.Context, _ *gomcp.CallToolRequest, _ getAlertsInput) (*gomcp.CallToolResult, getAlertsOutput, error) {
	if s.alertEngine == nil {
		return errorResult("alerts are not available: the event log could not be opened"), getAlertsOutput{}, nil
	}

	alerts, err := s.alertEngine.Evaluate()
	if err != nil {
		return errorResult(fmt.Sprintf("evaluating alerts: %s", err)), getAlertsOutput{}, nil
	}

	out := getAlertsOutput{Alerts: make([]alertOutput, len(alerts)), Count: len(alerts)}
	for i, a := range alerts {
		out.Alerts[i] = alertOutput{
			ID:          a.ID,
			Condition:   a.Condition,
			Severity:    string(a.Severity),
			Message:     a.Message,
			TriggeredAt: a.TriggeredAt.Format(time.RFC3339),
		}
	}
	return nil, out, nil
}

// --- Helpers ---

func taskToOutput(t models.Task) taskOutput {
	return taskOutput{
		ID:          t.ID,
		Description: t.Description,
		Tags:        t.Tags,
		Due:         core.FormatDue(t.Due),
		CreatedAt:   t.CreatedAt.UTC().Format(time.RFC3339),
		Priority:    t.Priority.String(),
		Status:      t.Status.String(),
	}
}

func emptyMetricsOutput() metricsOutput {
	return metricsOutput{
		StatusChanges:     make(map[string]int),
		CreatedByPriority: make(map[string]int),
	}
}

func errorResult(msg string) *gomcp.CallToolResult {
	return &gomcp.CallToolResult{
		Content: []gomcp.Content{&gomcp.TextContent{Text: msg}},
		IsError: true,
	}
}

// ParseSince turns a window such as "7d", "24h" or "2w" into the instant
// that far before now.
func ParseSince(s string, now time.Time) (time.Time, error) {
	if len(s) < 2 {
		return time.Time{}, fmt.Errorf("invalid duration %q", s)
	}

	suffix := s[len(s)-1]
	var num int
	if _, err := fmt.Sscanf(s[:len(s)-1], "%d", &num); err != nil {
		return time.Time{}, fmt.Errorf("invalid duration %q: %w", s, err)
	}
	if num < 0 {
		return time.Time{}, errors.New("duration must not be negative")
	}

	switch suffix {
	case 'd':
		return now.AddDate(0, 0, -num), nil
	case 'w':
		return now.AddDate(0, 0, -7*num), nil
	case 'h':
		return now.Add(-time.Duration(num) * time.Hour), nil
	default:
		return time.Time{}, fmt.Errorf("unsupported duration suffix %q (use w, d or h)", string(suffix))
	}
}
