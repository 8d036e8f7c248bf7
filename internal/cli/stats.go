package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/spf13/cobra"
	"github.com/valter-silva-au/doer/internal/observability"
	"github.com/valter-silva-au/doer/pkg/models"
)

var (
	statsJSON  bool
	statsSince string
)

// statsReport combines event-log metrics with the current task counts.
type statsReport struct {
	Since    time.Time              `json:"since"`
	Open     int                    `json:"open"`
	ByStatus map[string]int         `json:"by_status"`
	Metrics  *observability.Metrics `json:"metrics,omitempty"`
}

var statsCmd = &cobra.Command{
	Use:     "stats",
	Aliases: []string{"metrics"},
	Short:   "Display task counts and activity metrics",
	Long: `Display how many tasks are in each status, plus activity derived from
the event log: tasks created, completed, removed, and reset within the
--since window.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireTaskMgr(); err != nil {
			return err
		}

		sinceTime, err := parseSinceDuration(statsSince)
		if err != nil {
			return fmt.Errorf("parsing --since: %w", err)
		}

		tasks, err := TaskMgr.GetAllTasks()
		if err != nil {
			return fmt.Errorf("listing tasks: %w", err)
		}
		report := statsReport{Since: sinceTime, ByStatus: make(map[string]int)}
		for _, t := range tasks {
			report.ByStatus[t.Status.String()]++
			if t.Status != models.StatusDone {
				report.Open++
			}
		}

		if MetricsCalc != nil {
			report.Metrics, err = MetricsCalc.Calculate(sinceTime)
			if err != nil {
				return fmt.Errorf("calculating metrics: %w", err)
			}
		}

		out := cmd.OutOrStdout()
		if statsJSON {
			data, err := json.MarshalIndent(report, "", "  ")
			if err != nil {
				return fmt.Errorf("formatting stats as JSON: %w", err)
			}
			_, _ = fmt.Fprintln(out, string(data))
			return nil
		}

		printStats(out, report)
		return nil
	},
}

func printStats(out io.Writer, report statsReport) {
	_, _ = fmt.Fprintf(out, "Tasks\n\n")
	for _, s := range models.Statuses() {
		_, _ = fmt.Fprintf(out, "  %-24s %d\n", s.String()+":", report.ByStatus[s.String()])
	}
	_, _ = fmt.Fprintf(out, "  %-24s %d\n", "Open:", report.Open)

	m := report.Metrics
	if m == nil {
		_, _ = fmt.Fprintln(out, "\nActivity metrics unavailable (event log disabled).")
		return
	}

	_, _ = fmt.Fprintf(out, "\nActivity (since %s)\n\n", report.Since.Format("2006-01-02"))
	_, _ = fmt.Fprintf(out, "  %-24s %d\n", "Events recorded:", m.EventCount)
	_, _ = fmt.Fprintf(out, "  %-24s %d\n", "Tasks created:", m.TasksCreated)
	_, _ = fmt.Fprintf(out, "  %-24s %d\n", "Tasks completed:", m.TasksCompleted)
	_, _ = fmt.Fprintf(out, "  %-24s %d\n", "Tasks removed:", m.TasksRemoved)
	_, _ = fmt.Fprintf(out, "  %-24s %d\n", "Tasks reset:", m.TasksReset)
	if m.LoadWarnings > 0 {
		_, _ = fmt.Fprintf(out, "  %-24s %d\n", "Load warnings:", m.LoadWarnings)
	}

	printCounts(out, "Created by priority:", m.CreatedByPriority)
	printCounts(out, "Status changes:", m.StatusChanges)

	if m.OldestEvent != nil {
		_, _ = fmt.Fprintf(out, "\n  %-24s %s\n", "Oldest event:", m.OldestEvent.Format(time.RFC3339))
	}
	if m.NewestEvent != nil {
		_, _ = fmt.Fprintf(out, "  %-24s %s\n", "Newest event:", m.NewestEvent.Format(time.RFC3339))
	}
}

func printCounts(out io.Writer, title string, counts map[string]int) {
	if len(counts) == 0 {
		return
	}
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	_, _ = fmt.Fprintf(out, "\n  %s\n", title)
	for _, k := range keys {
		_, _ = fmt.Fprintf(out, "    %-22s %d\n", k+":", counts[k])
	}
}

func init() {
	statsCmd.Flags().BoolVar(&statsJSON, "json", false, "Output stats as JSON")
	statsCmd.Flags().StringVar(&statsSince, "since", "7d", "Time window for activity metrics (e.g. 2w, 7d, 24h)")
	rootCmd.AddCommand(statsCmd)
}
