package cli

import (
	"bufio"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/valter-silva-au/doer/internal/core"
	"github.com/valter-silva-au/doer/pkg/models"
)

var errPickCancelled = errors.New("cancelled")

// openTasks returns every task that is not done, in due-date order.
func openTasks() ([]models.Task, error) {
	all, err := TaskMgr.GetAllTasks()
	if err != nil {
		return nil, fmt.Errorf("listing tasks: %w", err)
	}
	var open []models.Task
	for _, t := range all {
		if t.Status != models.StatusDone {
			open = append(open, t)
		}
	}
	core.SortTasks(open, core.ViewDue)
	return open, nil
}

// pickOpenTask shows a numbered list of open tasks and returns the id of
// the one the user selects.
func pickOpenTask(cmd *cobra.Command, action string) (int, error) {
	if err := requireTaskMgr(); err != nil {
		return 0, err
	}

	tasks, err := openTasks()
	if err != nil {
		return 0, err
	}
	if len(tasks) == 0 {
		return 0, fmt.Errorf("no open tasks (use 'doer add <description>' to create one)")
	}

	out := cmd.OutOrStdout()
	_, _ = fmt.Fprintf(out, "\nOpen tasks:\n\n")
	_, _ = fmt.Fprintf(out, "  %-4s %-5s %-7s %-8s %-11s %s\n", "#", "ID", "PRI", "STATUS", "DUE", "DESCRIPTION")
	_, _ = fmt.Fprintf(out, "  %-4s %-5s %-7s %-8s %-11s %s\n", "---", "--", "---", "------", "---", "-----------")
	for i, t := range tasks {
		_, _ = fmt.Fprintf(out, "  %-4d %-5d %-7s %-8s %-11s %s\n",
			i+1, t.ID, t.Priority, t.Status, core.FormatDue(t.Due), t.Description)
	}
	_, _ = fmt.Fprintln(out)

	reader := bufio.NewReader(PromptInput)
	for {
		_, _ = fmt.Fprintf(out, "Select task to %s [1-%d] (or 'q' to cancel): ", action, len(tasks))
		input, err := reader.ReadString('\n')
		input = strings.TrimSpace(input)
		if err != nil && input == "" {
			return 0, fmt.Errorf("reading input: %w", err)
		}

		if input == "q" || input == "Q" {
			return 0, errPickCancelled
		}

		num, convErr := strconv.Atoi(input)
		if convErr != nil || num < 1 || num > len(tasks) {
			_, _ = fmt.Fprintf(out, "  Invalid selection. Enter a number between 1 and %d.\n", len(tasks))
			if err != nil {
				return 0, fmt.Errorf("reading input: %w", err)
			}
			continue
		}

		return tasks[num-1].ID, nil
	}
}
