package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/valter-silva-au/doer/internal/core"
	"github.com/valter-silva-au/doer/pkg/models"
)

var showCmd = &cobra.Command{
	Use:               "show <task-id>",
	Short:             "Show every field of a task",
	Args:              cobra.ExactArgs(1),
	ValidArgsFunction: completeTaskIDs(),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireTaskMgr(); err != nil {
			return err
		}

		id, err := parseTaskID(args[0])
		if err != nil {
			return err
		}
		task, err := TaskMgr.GetTask(id)
		if err != nil {
			return err
		}

		_, _ = fmt.Fprint(cmd.OutOrStdout(), formatTaskDetail(*task))
		return nil
	},
}

func formatTaskDetail(t models.Task) string {
	tags := strings.Join(t.Tags, ", ")
	if tags == "" {
		tags = "-"
	}
	due := core.FormatDue(t.Due)
	if !t.HasSentinelDue() {
		due = fmt.Sprintf("%s (%s)", due, t.Due.Weekday())
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%-13s %d\n", "ID:", t.ID)
	fmt.Fprintf(&b, "%-13s %s\n", "Description:", t.Description)
	fmt.Fprintf(&b, "%-13s %s\n", "Tags:", tags)
	fmt.Fprintf(&b, "%-13s %s\n", "Due:", due)
	fmt.Fprintf(&b, "%-13s %s\n", "Created:", t.CreatedAt.Local().Format("2006-01-02 15:04"))
	fmt.Fprintf(&b, "%-13s %s\n", "Priority:", t.Priority)
	fmt.Fprintf(&b, "%-13s %s\n", "Status:", t.Status)
	return b.String()
}

func init() {
	rootCmd.AddCommand(showCmd)
}
