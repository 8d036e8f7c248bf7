package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/valter-silva-au/doer/pkg/models"
)

// newStatusCmd builds a command that applies target to one task. Hold and
// done toggle back to todo when the task already has that status.
func newStatusCmd(use, action string, target models.Status, short string) *cobra.Command {
	return &cobra.Command{
		Use:               use + " [task-id]",
		Short:             short,
		Long:              short + ".\n\nWith no task ID, an interactive picker lists the open tasks.",
		Args:              cobra.MaximumNArgs(1),
		ValidArgsFunction: completeTaskIDs(),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireTaskMgr(); err != nil {
				return err
			}

			id, err := resolveTaskID(cmd, args, action)
			if err != nil {
				return err
			}

			task, err := TaskMgr.ToggleStatus(id, target)
			if err != nil {
				return err
			}
			if err := TaskMgr.Save(); err != nil {
				return err
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Task %d is now %s\n", task.ID, task.Status)
			return nil
		},
	}
}

var (
	doCmd    = newStatusCmd("do", "complete", models.StatusDone, "Mark a task done, or reopen it if it is already done")
	holdCmd  = newStatusCmd("hold", "hold", models.StatusHold, "Put a task on hold, or release it if it is already held")
	blockCmd = newStatusCmd("block", "block", models.StatusBlocked, "Mark a task as blocked")
	todoCmd  = newStatusCmd("todo", "reopen", models.StatusTodo, "Move a task back to todo")
)

func init() {
	rootCmd.AddCommand(doCmd, holdCmd, blockCmd, todoCmd)
}
