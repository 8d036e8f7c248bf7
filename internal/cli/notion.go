package cli

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"github.com/valter-silva-au/doer/internal/integration"
)

var (
	notionAPIKey     string
	notionDatabaseID string
)

var notionCmd = &cobra.Command{
	Use:   "notion",
	Short: "Publish tasks to a Notion database",
	Long: `Commands for the Notion integration.

Run 'doer notion login' once to store an integration API key and the ID
of the target database. Tasks are published as pages whose title is the
task description.`,
}

var notionLoginCmd = &cobra.Command{
	Use:   "login",
	Short: "Store Notion credentials",
	Long: `Store the Notion API key and database ID used by the other notion commands.

Values not given as flags are prompted for. Credentials are written with
owner-only permissions to a file under the user config directory.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if NotionKeys == nil {
			return fmt.Errorf("notion key store not initialized")
		}

		out := cmd.OutOrStdout()
		reader := bufio.NewReader(PromptInput)
		keys := integration.NotionKeys{
			APIKey:     strings.TrimSpace(notionAPIKey),
			DatabaseID: strings.TrimSpace(notionDatabaseID),
		}
		var err error
		if keys.APIKey == "" {
			if keys.APIKey, err = prompt(out, reader, "Notion API key: "); err != nil {
				return err
			}
		}
		if keys.DatabaseID == "" {
			if keys.DatabaseID, err = prompt(out, reader, "Notion database ID: "); err != nil {
				return err
			}
		}

		if err := NotionKeys.Save(keys); err != nil {
			return err
		}
		_, _ = fmt.Fprintf(out, "Saved Notion credentials to %s\n", NotionKeys.Path())
		return nil
	},
}

var notionLogoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Remove stored Notion credentials",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if NotionKeys == nil {
			return fmt.Errorf("notion key store not initialized")
		}
		if err := NotionKeys.Remove(); err != nil {
			return err
		}
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Removed Notion credentials from %s\n", NotionKeys.Path())
		return nil
	},
}

var notionAddCmd = &cobra.Command{
	Use:               "add <task-id...>",
	Short:             "Publish tasks as pages in the Notion database",
	Args:              cobra.MinimumNArgs(1),
	ValidArgsFunction: completeTaskIDs(),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireTaskMgr(); err != nil {
			return err
		}
		client, err := notionClient()
		if err != nil {
			return err
		}

		ctx := commandContext(cmd)
		for _, a := range args {
			id, err := parseTaskID(a)
			if err != nil {
				return err
			}
			task, err := TaskMgr.GetTask(id)
			if err != nil {
				return err
			}
			if err := client.AddPage(ctx, task); err != nil {
				return fmt.Errorf("publishing task %d: %w", id, err)
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Published task %d to Notion\n", id)
		}
		return nil
	},
}

var notionLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List page titles in the Notion database",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := notionClient()
		if err != nil {
			return err
		}

		titles, err := client.ListTitles(commandContext(cmd))
		if err != nil {
			return fmt.Errorf("listing Notion pages: %w", err)
		}

		out := cmd.OutOrStdout()
		if len(titles) == 0 {
			_, _ = fmt.Fprintln(out, "No pages in the Notion database.")
			return nil
		}
		for _, title := range titles {
			_, _ = fmt.Fprintf(out, "- %s\n", title)
		}
		return nil
	},
}

// notionClient builds a client from the stored credentials.
func notionClient() (integration.NotionClient, error) {
	if NotionKeys == nil || NotionFactory == nil {
		return nil, fmt.Errorf("notion integration not initialized")
	}
	keys, err := NotionKeys.Load()
	if err != nil {
		return nil, err
	}
	return NotionFactory(keys), nil
}

func prompt(out io.Writer, reader *bufio.Reader, label string) (string, error) {
	_, _ = fmt.Fprint(out, label)
	line, err := reader.ReadString('\n')
	line = strings.TrimSpace(line)
	if err != nil && line == "" {
		return "", fmt.Errorf("reading input: %w", err)
	}
	return line, nil
}

func init() {
	notionLoginCmd.Flags().StringVar(&notionAPIKey, "api-key", "", "Notion integration API key")
	notionLoginCmd.Flags().StringVar(&notionDatabaseID, "database-id", "", "ID of the Notion database to publish to")
	notionCmd.AddCommand(notionLoginCmd, notionLogoutCmd, notionAddCmd, notionLsCmd)
	rootCmd.AddCommand(notionCmd)
}
