package cli

import (
	"slices"
	"testing"

	"github.com/spf13/cobra"
	"github.com/valter-silva-au/doer/internal/core"
	"github.com/valter-silva-au/doer/pkg/models"
)

func TestCompleteTaskIDs(t *testing.T) {
	tm, _ := newRealTaskMgr(t)
	useTaskMgr(t, tm)
	for _, d := range []string{"one", "two", "three"} {
		mustCreate(t, tm, core.CreateTaskInput{Description: d})
	}
	for i := 4; i <= 12; i++ {
		mustCreate(t, tm, core.CreateTaskInput{Description: "filler"})
	}
	if _, err := tm.ToggleStatus(2, models.StatusDone); err != nil {
		t.Fatal(err)
	}

	ids, directive := completeTaskIDs(models.StatusDone)(nil, nil, "1")
	if directive != cobra.ShellCompDirectiveNoFileComp {
		t.Errorf("directive = %v", directive)
	}
	want := []string{"1\tone", "10\tfiller", "11\tfiller", "12\tfiller"}
	if !slices.Equal(ids, want) {
		t.Errorf("ids = %q, want %q", ids, want)
	}

	all, _ := completeTaskIDs()(nil, nil, "")
	if len(all) != 12 {
		t.Errorf("got %d completions without filters, want 12", len(all))
	}
	for _, id := range all {
		if id == "2\ttwo" {
			return
		}
	}
	t.Error("done task 2 should be offered when no status is excluded")
}

func TestCompleteTaskIDs_NilTaskMgr(t *testing.T) {
	useTaskMgr(t, nil)

	ids, directive := completeTaskIDs()(nil, nil, "")
	if ids != nil || directive != cobra.ShellCompDirectiveNoFileComp {
		t.Errorf("got (%v, %v)", ids, directive)
	}
}

func TestStaticCompletions(t *testing.T) {
	tests := []struct {
		name string
		fn   func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective)
		want []string
	}{
		{"priorities", completePriorities, []string{"Low", "Medium", "High"}},
		{"statuses", completeStatuses, []string{"Todo", "Done", "Hold", "Blocked"}},
		{"due tokens", completeDueTokens, []string{"today", "tomorrow", "thisweek", "sometime"}},
		{"due filters", completeDueFilters, []string{"today", "tomorrow", "thisweek", "sometime", "overdue"}},
		{"views", completeViews, []string{"due", "tags"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, _ := tt.fn(nil, nil, "")
			if !slices.Equal(got, tt.want) {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}
