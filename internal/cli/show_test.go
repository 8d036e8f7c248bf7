package cli

import (
	"errors"
	"strings"
	"testing"

	"github.com/valter-silva-au/doer/internal/core"
)

func TestShowCmd(t *testing.T) {
	tm, _ := newRealTaskMgr(t)
	useTaskMgr(t, tm)
	mustCreate(t, tm, core.CreateTaskInput{
		Description:   "Write report",
		Tags:          []string{"work", "q1"},
		DueToken:      "thisweek",
		PriorityToken: "Medium",
	})

	out, err := runCmd(t, showCmd, "1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, want := range []string{
		"ID:           1\n",
		"Description:  Write report\n",
		"Tags:         work, q1\n",
		"Due:          2024-03-15 (Friday)\n",
		"Created:      2024-03-13 10:30\n",
		"Priority:     Medium\n",
		"Status:       Todo\n",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestShowCmd_UntaggedSometime(t *testing.T) {
	tm, _ := newRealTaskMgr(t)
	useTaskMgr(t, tm)
	mustCreate(t, tm, core.CreateTaskInput{Description: "someday"})

	out, err := runCmd(t, showCmd, "1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, "Tags:         -\n") || !strings.Contains(out, "Due:          sometime\n") {
		t.Errorf("unexpected output:\n%s", out)
	}
}

func TestShowCmd_NotFound(t *testing.T) {
	tm, _ := newRealTaskMgr(t)
	useTaskMgr(t, tm)

	_, err := runCmd(t, showCmd, "8")
	if !errors.Is(err, core.ErrTaskNotFound) {
		t.Fatalf("expected ErrTaskNotFound, got %v", err)
	}
}
