package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var alertsNotify bool

var alertsCmd = &cobra.Command{
	Use:   "alerts",
	Short: "Show active alerts and warnings",
	Long: `Evaluate alert conditions against the event log and display any triggered alerts.

Alerts fire for tasks blocked or on hold for too long, and when too many
tasks are open. Thresholds come from the alerts section of .doerconfig.
With --notify, triggered alerts are also posted to the configured Slack
webhook.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if AlertEngine == nil {
			return fmt.Errorf("alert engine not initialized (event log may be unavailable)")
		}

		alerts, err := AlertEngine.Evaluate()
		if err != nil {
			return fmt.Errorf("evaluating alerts: %w", err)
		}

		out := cmd.OutOrStdout()
		if len(alerts) == 0 {
			_, _ = fmt.Fprintln(out, "No active alerts.")
			return nil
		}

		_, _ = fmt.Fprintf(out, "%d active alert(s):\n\n", len(alerts))
		for _, alert := range alerts {
			severity := strings.ToUpper(string(alert.Severity))
			_, _ = fmt.Fprintf(out, "  [%s] %s\n", severity, alert.Message)
			_, _ = fmt.Fprintf(out, "         triggered at %s\n\n", alert.TriggeredAt.Format("2006-01-02 15:04 UTC"))
		}

		if !alertsNotify {
			return nil
		}
		if Notifier == nil {
			return fmt.Errorf("notifications not configured: set notifications.enabled and notifications.slack.webhook_url")
		}
		if err := Notifier.Notify(commandContext(cmd), alerts); err != nil {
			return fmt.Errorf("sending notification: %w", err)
		}
		_, _ = fmt.Fprintf(out, "Sent %d alert(s) to Slack.\n", len(alerts))
		return nil
	},
}

func init() {
	alertsCmd.Flags().BoolVar(&alertsNotify, "notify", false, "Post triggered alerts to the configured Slack webhook")
	rootCmd.AddCommand(alertsCmd)
}
