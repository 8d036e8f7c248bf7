package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/valter-silva-au/doer/internal/core"
)

var resetCmd = &cobra.Command{
	Use:   "reset [task-id]",
	Short: "Recreate a task with default settings",
	Long: `Replace a task with a fresh todo task carrying the same description.

The new task gets a new ID, no tags, and the configured default due date
and priority.`,
	Args:              cobra.MaximumNArgs(1),
	ValidArgsFunction: completeTaskIDs(),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireTaskMgr(); err != nil {
			return err
		}

		id, err := resolveTaskID(cmd, args, "reset")
		if err != nil {
			return err
		}

		task, err := TaskMgr.ResetTask(id)
		if err != nil {
			return err
		}
		if err := TaskMgr.Save(); err != nil {
			return err
		}

		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Task %d reset as task %d (due %s, priority %s)\n",
			id, task.ID, core.FormatDue(task.Due), task.Priority)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(resetCmd)
}
