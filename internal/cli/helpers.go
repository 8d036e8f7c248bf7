package cli

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	doermcp "github.com/valter-silva-au/doer/internal/mcp"
)

var errTaskMgrNotInitialized = errors.New("task manager not initialized")

func requireTaskMgr() error {
	if TaskMgr == nil {
		return errTaskMgrNotInitialized
	}
	return nil
}

// parseTaskID parses a positive integer task id.
func parseTaskID(s string) (int, error) {
	id, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid task id %q: must be a positive integer", s)
	}
	return id, nil
}

// resolveTaskID returns the id given in args, or asks the user to pick an
// open task when args is empty.
func resolveTaskID(cmd *cobra.Command, args []string, action string) (int, error) {
	if len(args) > 0 {
		return parseTaskID(args[0])
	}
	return pickOpenTask(cmd, action)
}

// commandContext returns the command's context, or a background context
// when the command is run outside Execute.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

// parseSinceDuration parses a window like "7d" or "24h". Blank means 7d.
func parseSinceDuration(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		s = "7d"
	}
	return doermcp.ParseSince(s, time.Now().UTC())
}
