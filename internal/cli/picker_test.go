package cli

import (
	"errors"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/valter-silva-au/doer/internal/core"
	"github.com/valter-silva-au/doer/pkg/models"
)

func pickerCmd(t *testing.T) (*cobra.Command, *strings.Builder) {
	t.Helper()
	var out strings.Builder
	cmd := &cobra.Command{}
	cmd.SetOut(&out)
	return cmd, &out
}

func TestPickOpenTask_SkipsDoneAndRetries(t *testing.T) {
	tm, _ := newRealTaskMgr(t)
	useTaskMgr(t, tm)
	mustCreate(t, tm, core.CreateTaskInput{Description: "done already", DueToken: "today"})
	mustCreate(t, tm, core.CreateTaskInput{Description: "still open", DueToken: "tomorrow"})
	if _, err := tm.ToggleStatus(1, models.StatusDone); err != nil {
		t.Fatal(err)
	}
	usePromptInput(t, "7\nabc\n1\n")

	cmd, out := pickerCmd(t)
	id, err := pickOpenTask(cmd, "complete")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id != 2 {
		t.Errorf("picked %d, want 2", id)
	}
	if strings.Contains(out.String(), "done already") {
		t.Error("done task should not be listed")
	}
	if got := strings.Count(out.String(), "Invalid selection"); got != 2 {
		t.Errorf("invalid selection printed %d times, want 2", got)
	}
	if !strings.Contains(out.String(), "Select task to complete [1-1]") {
		t.Errorf("prompt missing:\n%s", out.String())
	}
}

func TestPickOpenTask_NoOpenTasks(t *testing.T) {
	tm, _ := newRealTaskMgr(t)
	useTaskMgr(t, tm)

	cmd, _ := pickerCmd(t)
	if _, err := pickOpenTask(cmd, "remove"); err == nil || !strings.Contains(err.Error(), "no open tasks") {
		t.Fatalf("expected no open tasks error, got %v", err)
	}
}

func TestPickOpenTask_EOF(t *testing.T) {
	tm, _ := newRealTaskMgr(t)
	useTaskMgr(t, tm)
	mustCreate(t, tm, core.CreateTaskInput{Description: "x"})
	usePromptInput(t, "")

	cmd, _ := pickerCmd(t)
	if _, err := pickOpenTask(cmd, "remove"); err == nil || !strings.Contains(err.Error(), "reading input") {
		t.Fatalf("expected reading input error, got %v", err)
	}
}

func TestPickOpenTask_LastLineWithoutNewline(t *testing.T) {
	tm, _ := newRealTaskMgr(t)
	useTaskMgr(t, tm)
	mustCreate(t, tm, core.CreateTaskInput{Description: "x"})
	usePromptInput(t, "1")

	cmd, _ := pickerCmd(t)
	id, err := pickOpenTask(cmd, "remove")
	if err != nil || id != 1 {
		t.Fatalf("pickOpenTask = (%d, %v), want (1, nil)", id, err)
	}
}

func TestPickOpenTask_Cancel(t *testing.T) {
	tm, _ := newRealTaskMgr(t)
	useTaskMgr(t, tm)
	mustCreate(t, tm, core.CreateTaskInput{Description: "x"})
	usePromptInput(t, "Q\n")

	cmd, _ := pickerCmd(t)
	if _, err := pickOpenTask(cmd, "remove"); !errors.Is(err, errPickCancelled) {
		t.Fatalf("expected errPickCancelled, got %v", err)
	}
}
