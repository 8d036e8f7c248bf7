package cli

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/valter-silva-au/doer/internal/core"
	"github.com/valter-silva-au/doer/internal/storage"
	"github.com/valter-silva-au/doer/pkg/models"
)

// taskMgrMock implements core.TaskManager with per-method overrides.
type taskMgrMock struct {
	createFn func(in core.CreateTaskInput) (*models.Task, error)
	removeFn func(id int) error
	getFn    func(id int) (*models.Task, error)
	toggleFn func(id int, target models.Status) (*models.Task, error)
	resetFn  func(id int) (*models.Task, error)
	listFn   func(c core.FilterCriteria, mode core.ViewMode) ([]models.Task, error)
	allFn    func() ([]models.Task, error)
	saveFn   func() error

	saves int
}

func (m *taskMgrMock) CreateTask(in core.CreateTaskInput) (*models.Task, error) {
	return m.createFn(in)
}

func (m *taskMgrMock) RemoveTask(id int) error {
	if m.removeFn == nil {
		return nil
	}
	return m.removeFn(id)
}

func (m *taskMgrMock) GetTask(id int) (*models.Task, error) {
	return m.getFn(id)
}

func (m *taskMgrMock) ToggleStatus(id int, target models.Status) (*models.Task, error) {
	return m.toggleFn(id, target)
}

func (m *taskMgrMock) ResetTask(id int) (*models.Task, error) {
	return m.resetFn(id)
}

func (m *taskMgrMock) ListTasks(c core.FilterCriteria, mode core.ViewMode) ([]models.Task, error) {
	return m.listFn(c, mode)
}

func (m *taskMgrMock) GetAllTasks() ([]models.Task, error) {
	if m.allFn == nil {
		return nil, nil
	}
	return m.allFn()
}

func (m *taskMgrMock) Save() error {
	m.saves++
	if m.saveFn == nil {
		return nil
	}
	return m.saveFn()
}

// useTaskMgr swaps TaskMgr for the duration of the test.
func useTaskMgr(t *testing.T, tm core.TaskManager) {
	t.Helper()
	orig := TaskMgr
	TaskMgr = tm
	t.Cleanup(func() { TaskMgr = orig })
}

// setVar sets a package variable, typically a flag value, and restores
// it when the test ends.
func setVar[T any](t *testing.T, p *T, v T) {
	t.Helper()
	orig := *p
	*p = v
	t.Cleanup(func() { *p = orig })
}

// runCmd calls cmd.RunE with args and returns what it wrote to stdout.
func runCmd(t *testing.T, cmd *cobra.Command, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd.SetOut(&out)
	t.Cleanup(func() { cmd.SetOut(nil) })
	err := cmd.RunE(cmd, args)
	return out.String(), err
}

// wednesday is the clock used by tests that need a real task manager.
func wednesday() time.Time {
	return time.Date(2024, time.March, 13, 10, 30, 0, 0, time.Local)
}

// newRealTaskMgr returns a task manager over an empty store in a temp dir,
// together with the store so tests can reload what was saved.
func newRealTaskMgr(t *testing.T) (core.TaskManager, storage.TaskStore) {
	t.Helper()
	store := storage.NewTaskStore(filepath.Join(t.TempDir(), "tasks.csv"))
	return core.NewTaskManager(store, core.NewDateResolver(wednesday), nil), store
}

func mustCreate(t *testing.T, tm core.TaskManager, in core.CreateTaskInput) *models.Task {
	t.Helper()
	task, err := tm.CreateTask(in)
	if err != nil {
		t.Fatalf("CreateTask(%q): %v", in.Description, err)
	}
	return task
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// usePromptInput makes interactive prompts read input.
func usePromptInput(t *testing.T, input string) {
	t.Helper()
	orig := PromptInput
	PromptInput = strings.NewReader(input)
	t.Cleanup(func() { PromptInput = orig })
}
