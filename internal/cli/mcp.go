package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	doermcp "github.com/valter-silva-au/doer/internal/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "MCP server commands",
	Long:  "Commands for running the doer MCP (Model Context Protocol) server.",
}

var mcpServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the doer MCP server on stdio",
	Long: `Start the doer MCP server on stdio transport.

The server exposes the task list as MCP tools that AI assistants can call:
list_tasks, get_task, add_task, set_status, remove_task, reset_task,
get_metrics, get_alerts. Every change is saved to the task file before the
tool returns.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireTaskMgr(); err != nil {
			return err
		}

		srv := doermcp.NewServer(TaskMgr, MetricsCalc, AlertEngine, appVersion)

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		if err := srv.Run(ctx); err != nil {
			return fmt.Errorf("running MCP server: %w", err)
		}

		return nil
	},
}

func init() {
	mcpCmd.AddCommand(mcpServeCmd)
	rootCmd.AddCommand(mcpCmd)
}
