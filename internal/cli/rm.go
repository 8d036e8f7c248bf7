package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/valter-silva-au/doer/internal/core"
)

var rmCmd = &cobra.Command{
	Use:     "rm [task-id...]",
	Aliases: []string{"remove"},
	Short:   "Remove tasks",
	Long: `Remove one or more tasks by ID. Unknown IDs are reported and skipped.

With no task ID, an interactive picker lists the open tasks.`,
	ValidArgsFunction: completeTaskIDs(),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireTaskMgr(); err != nil {
			return err
		}

		var ids []int
		if len(args) == 0 {
			id, err := pickOpenTask(cmd, "remove")
			if err != nil {
				return err
			}
			ids = append(ids, id)
		}
		for _, a := range args {
			id, err := parseTaskID(a)
			if err != nil {
				return err
			}
			ids = append(ids, id)
		}

		out := cmd.OutOrStdout()
		removed := 0
		for _, id := range ids {
			if _, err := TaskMgr.GetTask(id); err != nil {
				if errors.Is(err, core.ErrTaskNotFound) {
					_, _ = fmt.Fprintf(out, "Task %d not found, skipped\n", id)
					continue
				}
				return err
			}
			if err := TaskMgr.RemoveTask(id); err != nil {
				return err
			}
			removed++
			_, _ = fmt.Fprintf(out, "Removed task %d\n", id)
		}

		if removed == 0 {
			return nil
		}
		return TaskMgr.Save()
	},
}

func init() {
	rootCmd.AddCommand(rmCmd)
}
