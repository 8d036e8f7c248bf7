package cli

import (
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/valter-silva-au/doer/internal/core"
	"github.com/valter-silva-au/doer/pkg/models"
)

// completeTaskIDs returns a completion function that lists task IDs,
// optionally excluding tasks in certain statuses.
func completeTaskIDs(excludeStatuses ...models.Status) func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
	return func(_ *cobra.Command, _ []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		if TaskMgr == nil {
			return nil, cobra.ShellCompDirectiveNoFileComp
		}

		tasks, err := TaskMgr.GetAllTasks()
		if err != nil {
			return nil, cobra.ShellCompDirectiveNoFileComp
		}

		exclude := make(map[models.Status]bool)
		for _, s := range excludeStatuses {
			exclude[s] = true
		}

		var ids []string
		for _, task := range tasks {
			if exclude[task.Status] {
				continue
			}
			id := strconv.Itoa(task.ID)
			if toComplete == "" || strings.HasPrefix(id, toComplete) {
				ids = append(ids, id+"\t"+task.Description)
			}
		}

		return ids, cobra.ShellCompDirectiveNoFileComp
	}
}

func completePriorities(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
	var names []string
	for _, p := range models.Priorities() {
		names = append(names, p.String())
	}
	return names, cobra.ShellCompDirectiveNoFileComp
}

func completeStatuses(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
	var names []string
	for _, s := range models.Statuses() {
		names = append(names, s.String())
	}
	return names, cobra.ShellCompDirectiveNoFileComp
}

func completeDueTokens(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
	return []string{core.DueToday, core.DueTomorrow, core.DueThisWeek, core.DueSometime}, cobra.ShellCompDirectiveNoFileComp
}

func completeDueFilters(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	tokens, directive := completeDueTokens(cmd, args, toComplete)
	return append(tokens, core.DueOverdue), directive
}

func completeViews(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
	return []string{string(core.ViewDue), string(core.ViewTags)}, cobra.ShellCompDirectiveNoFileComp
}
