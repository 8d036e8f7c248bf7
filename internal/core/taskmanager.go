package core

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/valter-silva-au/doer/pkg/models"
)

// ErrTaskNotFound is returned when an operation names an id that is not in
// the store.
var ErrTaskNotFound = errors.New("task not found")

// TaskStore is the subset of storage.TaskStore that TaskManager needs.
// Defining it here keeps core independent of the storage package.
type TaskStore interface {
	Add(task models.Task) error
	Remove(id int) bool
	Get(id int) (models.Task, bool)
	SetStatus(id int, status models.Status) bool
	All() []models.Task
	NextID() int
	Save() error
}

// CreateTaskInput carries the already-gathered fields for a new task.
// Tokens are resolved by the manager: DueToken through the DateResolver and
// PriorityToken by name, defaulting to Low.
type CreateTaskInput struct {
	Description   string
	Tags          []string
	DueToken      string
	PriorityToken string
}

// TaskManager defines the task operations used by the CLI and MCP layers.
type TaskManager interface {
	CreateTask(in CreateTaskInput) (*models.Task, error)
	RemoveTask(id int) error
	GetTask(id int) (*models.Task, error)
	ToggleStatus(id int, target models.Status) (*models.Task, error)
	ResetTask(id int) (*models.Task, error)
	ListTasks(criteria FilterCriteria, mode ViewMode) ([]models.Task, error)
	GetAllTasks() ([]models.Task, error)
	Save() error
}

type taskManager struct {
	store  TaskStore
	dates  DateResolver
	events EventLogger
	// pending holds mutation events until the next successful Save, so the
	// log only records changes that reached the store file.
	pending []pendingEvent
	// defaults applied by ResetTask and to blank creation tokens.
	defaultDue      string
	defaultPriority string
}

// TaskManagerOption customises a TaskManager.
type TaskManagerOption func(*taskManager)

// WithDefaults sets the due and priority tokens used when creation input
// leaves them blank and when a task is reset.
func WithDefaults(dueToken, priorityToken string) TaskManagerOption {
	return func(tm *taskManager) {
		if strings.TrimSpace(dueToken) != "" {
			tm.defaultDue = dueToken
		}
		if strings.TrimSpace(priorityToken) != "" {
			tm.defaultPriority = priorityToken
		}
	}
}

// NewTaskManager creates a TaskManager over store. events may be nil if
// observability is disabled.
func NewTaskManager(store TaskStore, dates DateResolver, events EventLogger, opts ...TaskManagerOption) TaskManager {
	tm := &taskManager{
		store:           store,
		dates:           dates,
		events:          events,
		defaultDue:      DueSometime,
		defaultPriority: models.PriorityLow.String(),
	}
	for _, opt := range opts {
		opt(tm)
	}
	return tm
}

// CreateTask assigns the next id, resolves the due and priority tokens,
// and appends the task in Todo state.
func (tm *taskManager) CreateTask(in CreateTaskInput) (*models.Task, error) {
	dueToken := in.DueToken
	if strings.TrimSpace(dueToken) == "" {
		dueToken = tm.defaultDue
	}
	prioToken := in.PriorityToken
	if strings.TrimSpace(prioToken) == "" {
		prioToken = tm.defaultPriority
	}
	priority, _ := models.ParsePriority(prioToken)

	task := models.Task{
		ID:          tm.store.NextID(),
		Description: in.Description,
		Tags:        cleanTags(in.Tags),
		Due:         tm.dates.Resolve(dueToken),
		CreatedAt:   tm.dates.now().Truncate(time.Second),
		Priority:    priority,
		Status:      models.StatusTodo,
	}
	if err := tm.store.Add(task); err != nil {
		return nil, fmt.Errorf("creating task: %w", err)
	}
	// The store may normalise fields such as line endings.
	if stored, ok := tm.store.Get(task.ID); ok {
		task = stored
	}

	tm.logEvent("task.created", map[string]any{
		"task_id":  task.ID,
		"priority": task.Priority.String(),
		"due":      task.Due.Format(models.DateLayout),
		"tags":     strings.Join(task.Tags, ","),
	})
	return &task, nil
}

// RemoveTask deletes the task with id. Removing an unknown id is a no-op.
func (tm *taskManager) RemoveTask(id int) error {
	if tm.store.Remove(id) {
		tm.logEvent("task.removed", map[string]any{"task_id": id})
	}
	return nil
}

func (tm *taskManager) GetTask(id int) (*models.Task, error) {
	t, ok := tm.store.Get(id)
	if !ok {
		return nil, fmt.Errorf("task %d: %w", id, ErrTaskNotFound)
	}
	return &t, nil
}

// ToggleStatus sets the task's status to target. Applying Hold or Done to
// a task already in that status reverts it to Todo.
func (tm *taskManager) ToggleStatus(id int, target models.Status) (*models.Task, error) {
	t, ok := tm.store.Get(id)
	if !ok {
		return nil, fmt.Errorf("setting status of task %d: %w", id, ErrTaskNotFound)
	}

	prev := t.Status
	next := NextStatus(prev, target)
	tm.store.SetStatus(id, next)
	t.Status = next

	tm.logEvent("task.status_changed", map[string]any{
		"task_id":    id,
		"old_status": prev.String(),
		"new_status": next.String(),
	})
	return &t, nil
}

// NextStatus returns the status that results from applying target to a
// task currently in current.
func NextStatus(current, target models.Status) models.Status {
	if current == target && (target == models.StatusHold || target == models.StatusDone) {
		return models.StatusTodo
	}
	return target
}

// ResetTask replaces the task with a fresh Todo task carrying the same
// description. The replacement gets a new id and creation time, and the
// configured default due date and priority.
func (tm *taskManager) ResetTask(id int) (*models.Task, error) {
	old, ok := tm.store.Get(id)
	if !ok {
		return nil, fmt.Errorf("resetting task %d: %w", id, ErrTaskNotFound)
	}
	tm.store.Remove(id)

	fresh, err := tm.CreateTask(CreateTaskInput{Description: old.Description})
	if err != nil {
		// Put the original back so the operation has no partial effect.
		_ = tm.store.Add(old)
		return nil, fmt.Errorf("resetting task %d: %w", id, err)
	}

	tm.logEvent("task.reset", map[string]any{"task_id": id, "new_task_id": fresh.ID})
	return fresh, nil
}

// ListTasks returns the tasks matching criteria, sorted for mode.
func (tm *taskManager) ListTasks(criteria FilterCriteria, mode ViewMode) ([]models.Task, error) {
	tasks := FilterTasks(tm.store.All(), criteria, tm.dates)
	SortTasks(tasks, mode)
	return tasks, nil
}

func (tm *taskManager) GetAllTasks() ([]models.Task, error) {
	return tm.store.All(), nil
}

// Save writes the store and then logs the mutation events made since the
// last save. A failure drops those events, is recorded as a
// store.save_failed event, and keeps the in-memory tasks.
func (tm *taskManager) Save() error {
	pending := tm.pending
	tm.pending = nil

	if err := tm.store.Save(); err != nil {
		tm.writeEvent("store.save_failed", map[string]any{
			"error":     err.Error(),
			"discarded": len(pending),
		})
		return fmt.Errorf("saving tasks: %w", err)
	}
	for _, e := range pending {
		tm.writeEvent(e.eventType, e.data)
	}
	return nil
}

type pendingEvent struct {
	eventType string
	data      map[string]any
}

// logEvent queues a mutation event for the next Save.
func (tm *taskManager) logEvent(eventType string, data map[string]any) {
	if tm.events == nil {
		return
	}
	tm.pending = append(tm.pending, pendingEvent{eventType: eventType, data: data})
}

func (tm *taskManager) writeEvent(eventType string, data map[string]any) {
	if tm.events == nil {
		return
	}
	_ = tm.events.LogEvent(eventType, data)
}

func cleanTags(tags []string) []string {
	var out []string
	for _, t := range tags {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}
