package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

var completionInstall bool

// shellCompletion describes how to generate and install the completion
// script for one shell. An empty installDir means --install is unsupported.
type shellCompletion struct {
	generate   func(w io.Writer) error
	hints      []string
	installDir []string
	fileName   string
	afterHints []string
}

func shellCompletions() map[string]shellCompletion {
	return map[string]shellCompletion{
		"bash": {
			generate: func(w io.Writer) error { return rootCmd.GenBashCompletionV2(w, true) },
			hints: []string{
				"# To load completions in your current session:",
				`#   eval "$(doer completion bash)"`,
				"#",
				"# To install permanently:",
				"#   doer completion bash --install",
			},
			installDir: []string{".local", "share", "bash-completion", "completions"},
			fileName:   "doer",
			afterHints: []string{"Restart your shell to load them."},
		},
		"zsh": {
			generate: rootCmd.GenZshCompletion,
			hints: []string{
				"# To load completions in your current session:",
				`#   eval "$(doer completion zsh)"`,
				"#",
				"# To install permanently:",
				"#   doer completion zsh --install",
			},
			installDir: []string{".local", "share", "zsh", "site-functions"},
			fileName:   "_doer",
			afterHints: []string{
				"Ensure this directory is in your fpath. Add to ~/.zshrc if needed:",
				"  fpath=(~/.local/share/zsh/site-functions $fpath)",
				"  autoload -Uz compinit && compinit",
			},
		},
		"fish": {
			generate: func(w io.Writer) error { return rootCmd.GenFishCompletion(w, true) },
			hints: []string{
				"# To load completions in your current session:",
				"#   doer completion fish | source",
				"#",
				"# To install permanently:",
				"#   doer completion fish --install",
			},
			installDir: []string{".config", "fish", "completions"},
			fileName:   "doer.fish",
			afterHints: []string{"Completions will be available in new fish sessions automatically."},
		},
		"powershell": {
			generate: rootCmd.GenPowerShellCompletionWithDesc,
			hints: []string{
				"# To load completions in your current session:",
				"#   doer completion powershell | Out-String | Invoke-Expression",
				"#",
				"# Add the above command to your PowerShell profile to load them permanently.",
			},
		},
	}
}

var completionCmd = &cobra.Command{
	Use:   "completion <shell>",
	Short: "Set up shell completions for doer",
	Long: `Set up shell tab-completions for doer commands, flags, and task IDs.

Supported shells: bash, zsh, fish, powershell

  doer completion zsh --install   # write the script into your shell's completion dir
  doer completion bash            # print the script to stdout`,
	ValidArgs: []string{"bash", "zsh", "fish", "powershell"},
	Args:      cobra.MaximumNArgs(1),
	RunE:      runCompletion,
}

func init() {
	completionCmd.Flags().BoolVar(&completionInstall, "install", false,
		"Install completions into your shell's completion directory")

	rootCmd.CompletionOptions.DisableDefaultCmd = true
	rootCmd.AddCommand(completionCmd)
}

func runCompletion(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		return cmd.Help()
	}
	shell := args[0]
	sc, ok := shellCompletions()[shell]
	if !ok {
		return fmt.Errorf("unsupported shell %q (supported: bash, zsh, fish, powershell)", shell)
	}

	if completionInstall {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("detecting home directory: %w", err)
		}
		return installCompletion(cmd, shell, sc, home)
	}

	// Hints go to stderr so stdout can be piped into eval.
	errOut := cmd.ErrOrStderr()
	for _, line := range sc.hints {
		_, _ = fmt.Fprintln(errOut, line)
	}
	return sc.generate(cmd.OutOrStdout())
}

// installCompletion writes the script for shell into its completion
// directory under home.
func installCompletion(cmd *cobra.Command, shell string, sc shellCompletion, home string) error {
	if len(sc.installDir) == 0 {
		return fmt.Errorf("automatic install is not supported for %s; run 'doer completion %s' and add the output to your profile", shell, shell)
	}

	dir := filepath.Join(append([]string{home}, sc.installDir...)...)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("creating completion directory: %w", err)
	}
	target := filepath.Join(dir, sc.fileName)

	f, err := os.Create(target)
	if err != nil {
		return fmt.Errorf("creating completion file %s: %w", target, err)
	}
	writeErr := sc.generate(f)
	closeErr := f.Close()
	if writeErr != nil {
		return writeErr
	}
	if closeErr != nil {
		return fmt.Errorf("closing completion file %s: %w", target, closeErr)
	}

	out := cmd.OutOrStdout()
	_, _ = fmt.Fprintf(out, "%s completions installed to %s\n", shell, target)
	for _, line := range sc.afterHints {
		_, _ = fmt.Fprintln(out, line)
	}
	return nil
}
