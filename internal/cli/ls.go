package cli

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"github.com/valter-silva-au/doer/internal/core"
	"github.com/valter-silva-au/doer/pkg/models"
)

var (
	lsTags       string
	lsStatuses   string
	lsDue        string
	lsPriorities string
	lsView       string
)

var (
	priorityHigh   = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	priorityMedium = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	priorityLow    = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
)

var lsCmd = &cobra.Command{
	Use:     "ls",
	Aliases: []string{"list"},
	Short:   "List tasks grouped by due date or tag",
	Long: `List tasks, optionally filtered.

Filters combine with AND; comma-separated values inside one filter
combine with OR. --due takes a single keyword (today, tomorrow,
thisweek, sometime, overdue) or a YYYY-MM-DD date.

--view due (default) groups by due date, then by first tag.
--view tags groups by first tag, then by due date.`,
	Example: `  doer ls
  doer ls --tag work --status Todo,Blocked
  doer ls --due overdue --view tags`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireTaskMgr(); err != nil {
			return err
		}

		mode, err := core.ParseViewMode(lsView)
		if err != nil {
			return err
		}

		criteria := core.FilterCriteria{
			Tags:       core.ParseList(lsTags),
			Statuses:   core.ParseList(lsStatuses),
			Priorities: core.ParseList(lsPriorities),
			Due:        lsDue,
		}
		tasks, err := TaskMgr.ListTasks(criteria, mode)
		if err != nil {
			return fmt.Errorf("listing tasks: %w", err)
		}

		out := cmd.OutOrStdout()
		if len(tasks) == 0 {
			if criteria.IsEmpty() {
				_, _ = fmt.Fprintln(out, "No tasks.")
			} else {
				_, _ = fmt.Fprintln(out, "No tasks match the given filters.")
			}
			return nil
		}

		r := core.Renderer{}
		if ColorEnabled {
			r.PriorityFormat = colorPriority
		}
		return r.Render(out, tasks, mode)
	},
}

func colorPriority(p models.Priority) string {
	switch p {
	case models.PriorityHigh:
		return priorityHigh.Render(p.String())
	case models.PriorityMedium:
		return priorityMedium.Render(p.String())
	default:
		return priorityLow.Render(p.String())
	}
}

func init() {
	lsCmd.Flags().StringVarP(&lsTags, "tag", "t", "", "Only tasks with any of these tags (comma-separated)")
	lsCmd.Flags().StringVarP(&lsStatuses, "status", "s", "", "Only tasks with any of these statuses (comma-separated)")
	lsCmd.Flags().StringVarP(&lsDue, "due", "d", "", "Only tasks due today, tomorrow, thisweek, sometime, overdue, or on YYYY-MM-DD")
	lsCmd.Flags().StringVarP(&lsPriorities, "priority", "p", "", "Only tasks with any of these priorities (comma-separated)")
	lsCmd.Flags().StringVar(&lsView, "view", "due", "Grouping: due or tags")
	_ = lsCmd.RegisterFlagCompletionFunc("status", completeStatuses)
	_ = lsCmd.RegisterFlagCompletionFunc("priority", completePriorities)
	_ = lsCmd.RegisterFlagCompletionFunc("due", completeDueFilters)
	_ = lsCmd.RegisterFlagCompletionFunc("view", completeViews)
	rootCmd.AddCommand(lsCmd)
}
