package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/valter-silva-au/doer/internal/core"
	"github.com/valter-silva-au/doer/pkg/models"
)

var (
	addTags     string
	addDue      string
	addPriority string
)

var addCmd = &cobra.Command{
	Use:   "add <description>",
	Short: "Add a new task",
	Long: `Add a new task in the todo state.

The description is every argument joined by spaces. Tags are a
comma-separated list; the first tag is used for grouping in listings.

Due accepts today, tomorrow, thisweek (Friday of the current week),
sometime, or a YYYY-MM-DD date. Priority is Low, Medium, or High.
Omitted values fall back to the configured defaults.`,
	Example: `  doer add Write quarterly report --tag work,q1 --due thisweek --priority High
  doer add Call the plumber --due 2024-03-15`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireTaskMgr(); err != nil {
			return err
		}

		desc := strings.TrimSpace(strings.Join(args, " "))
		if desc == "" {
			return fmt.Errorf("description must not be empty")
		}
		if err := validateDueToken(addDue); err != nil {
			return err
		}
		if err := validatePriorityToken(addPriority); err != nil {
			return err
		}

		task, err := TaskMgr.CreateTask(core.CreateTaskInput{
			Description:   desc,
			Tags:          core.ParseList(addTags),
			DueToken:      addDue,
			PriorityToken: addPriority,
		})
		if err != nil {
			return err
		}
		if err := TaskMgr.Save(); err != nil {
			return err
		}

		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Created task %d (due %s, priority %s)\n",
			task.ID, core.FormatDue(task.Due), task.Priority)
		return nil
	},
}

// validateDueToken rejects due values that would silently become
// "sometime". A blank token selects the configured default.
func validateDueToken(token string) error {
	if strings.TrimSpace(token) == "" {
		return nil
	}
	if _, ok := core.NewDateResolver(nil).Lookup(token); !ok {
		return fmt.Errorf("invalid due %q: must be today, tomorrow, thisweek, sometime, or YYYY-MM-DD", token)
	}
	return nil
}

func validatePriorityToken(token string) error {
	if strings.TrimSpace(token) == "" {
		return nil
	}
	if _, ok := models.ParsePriority(token); !ok {
		return fmt.Errorf("invalid priority %q: must be one of Low, Medium, High", token)
	}
	return nil
}

func init() {
	addCmd.Flags().StringVarP(&addTags, "tag", "t", "", "Comma-separated tags")
	addCmd.Flags().StringVarP(&addDue, "due", "d", "", "Due date: today, tomorrow, thisweek, sometime, or YYYY-MM-DD")
	addCmd.Flags().StringVarP(&addPriority, "priority", "p", "", "Priority: Low, Medium, High")
	_ = addCmd.RegisterFlagCompletionFunc("due", completeDueTokens)
	_ = addCmd.RegisterFlagCompletionFunc("priority", completePriorities)
	rootCmd.AddCommand(addCmd)
}
