package cli

import (
	"io"
	"os"

	"github.com/valter-silva-au/doer/internal/core"
	"github.com/valter-silva-au/doer/internal/integration"
	"github.com/valter-silva-au/doer/internal/observability"
)

// Service instances, set during app initialization in app.go.
var (
	TaskMgr core.TaskManager

	EventLog    observability.EventLog
	AlertEngine observability.AlertEngine
	MetricsCalc observability.MetricsCalculator
	Notifier    observability.Notifier

	NotionKeys    integration.NotionKeyStore
	NotionFactory func(keys integration.NotionKeys) integration.NotionClient

	// ColorEnabled turns on colored priorities in listings.
	ColorEnabled bool

	// PromptInput is read by the interactive picker and login prompts.
	PromptInput io.Reader = os.Stdin
)
