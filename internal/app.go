// Package internal provides the App struct that wires all components of
// doer together and initializes the CLI layer.
package internal

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/valter-silva-au/doer/internal/cli"
	"github.com/valter-silva-au/doer/internal/core"
	"github.com/valter-silva-au/doer/internal/integration"
	"github.com/valter-silva-au/doer/internal/observability"
	"github.com/valter-silva-au/doer/internal/storage"
	"github.com/valter-silva-au/doer/pkg/models"
)

// EventLogFileName is the JSONL event log kept under the base path.
const EventLogFileName = ".doer_events.jsonl"

// diagnostics receives load warnings meant for the user.
var diagnostics io.Writer = os.Stderr

// App holds all service dependencies for doer.
type App struct {
	BasePath string

	// Configuration
	ConfigMgr core.ConfigurationManager
	Config    *models.GlobalConfig

	// Storage layer
	Store      storage.TaskStore
	LoadReport *storage.LoadReport

	// Core services
	TaskMgr core.TaskManager

	// Integration services
	NotionKeys integration.NotionKeyStore

	// Observability
	EventLog    observability.EventLog
	AlertEngine observability.AlertEngine
	MetricsCalc observability.MetricsCalculator
	Notifier    observability.Notifier
}

// NewApp creates and wires all components of doer. basePath is the
// directory holding .doerconfig and the event log; the task file lives in
// the configured store directory.
func NewApp(basePath string) (*App, error) {
	app := &App{BasePath: basePath}

	// --- Configuration ---
	app.ConfigMgr = core.NewConfigurationManager(basePath)
	cfg, err := app.ConfigMgr.LoadGlobalConfig()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if err := app.ConfigMgr.ValidateConfig(cfg); err != nil {
		return nil, err
	}
	app.Config = cfg

	// --- Observability ---
	app.EventLog, err = observability.NewJSONLEventLog(filepath.Join(basePath, EventLogFileName))
	if err != nil {
		// Non-fatal: run without the event log.
		app.EventLog = nil
	}
	if app.EventLog != nil {
		app.MetricsCalc = observability.NewMetricsCalculator(app.EventLog)
	}
	if cfg.Notifications.Enabled && cfg.Notifications.Slack.WebhookURL != "" {
		app.Notifier = observability.NewSlackNotifier(cfg.Notifications.Slack.WebhookURL)
	}

	// --- Storage layer ---
	app.Store = storage.NewTaskStore(storePath(basePath, cfg))
	app.LoadReport = app.loadStore()

	// --- Core services ---
	var evtAdapter core.EventLogger
	if app.EventLog != nil {
		evtAdapter = &eventLogAdapter{log: app.EventLog}
	}
	app.TaskMgr = core.NewTaskManager(app.Store, core.NewDateResolver(nil), evtAdapter,
		core.WithDefaults(cfg.DefaultDue, cfg.DefaultPriority))

	// Alerts read statuses from the store; the event log, when present,
	// dates status changes.
	app.AlertEngine = observability.NewAlertEngine(app.EventLog, app.TaskMgr, observability.AlertThresholds{
		BlockedHours: cfg.Alerts.BlockedHours,
		HoldDays:     cfg.Alerts.HoldDays,
		MaxOpen:      cfg.Alerts.MaxOpen,
	})

	// --- Integration services ---
	keyPath, err := integration.DefaultNotionKeyPath()
	if err != nil {
		keyPath = filepath.Join(basePath, ".doer_notion.yaml")
	}
	app.NotionKeys = integration.NewNotionKeyStore(keyPath)
	notionOpts := integration.NotionOptions{BaseURL: cfg.Notion.BaseURL, Version: cfg.Notion.Version}

	// --- CLI wiring ---
	cli.TaskMgr = app.TaskMgr
	cli.EventLog = app.EventLog
	cli.AlertEngine = app.AlertEngine
	cli.MetricsCalc = app.MetricsCalc
	cli.Notifier = app.Notifier
	cli.NotionKeys = app.NotionKeys
	cli.NotionFactory = func(keys integration.NotionKeys) integration.NotionClient {
		return integration.NewNotionClient(keys, notionOpts)
	}
	cli.ColorEnabled = cfg.Color && os.Getenv("NO_COLOR") == ""

	return app, nil
}

// loadStore reads the task file. An unreadable file or rejected rows are
// reported to the user and logged as warnings; the app keeps running with
// whatever could be loaded.
func (a *App) loadStore() *storage.LoadReport {
	report, err := a.Store.Load()
	if err != nil {
		_, _ = fmt.Fprintf(diagnostics, "warning: %v (starting with an empty task list)\n", err)
		a.logWarning(err.Error(), map[string]any{"path": a.Store.Path()})
	}
	if report == nil {
		return &storage.LoadReport{}
	}
	for _, skipped := range report.Skipped {
		_, _ = fmt.Fprintf(diagnostics, "warning: %s: skipped %v\n", a.Store.Path(), skipped)
		a.logWarning("skipped malformed record", map[string]any{
			"path":   a.Store.Path(),
			"line":   skipped.Line,
			"reason": skipped.Reason,
		})
	}
	return report
}

func (a *App) logWarning(msg string, data map[string]any) {
	if a.EventLog == nil {
		return
	}
	_ = a.EventLog.Write(observability.Event{
		Time:    time.Now().UTC(),
		Level:   observability.LevelWarn,
		Type:    observability.EventStoreLoadWarning,
		Message: msg,
		Data:    data,
	})
}

// Close releases resources held by the App, such as the event log file handle.
// It is safe to call Close on an App whose EventLog is nil.
func (a *App) Close() error {
	if a.EventLog != nil {
		return a.EventLog.Close()
	}
	return nil
}

// storePath joins the configured store directory and file name. A relative
// store directory is taken relative to basePath.
func storePath(basePath string, cfg *models.GlobalConfig) string {
	dir := cfg.StoreDir
	if dir == "" {
		dir = basePath
	} else if !filepath.IsAbs(dir) {
		dir = filepath.Join(basePath, dir)
	}
	return filepath.Join(dir, cfg.StoreFile)
}

// configMarkers are the file names that identify a doer base directory.
var configMarkers = []string{core.ConfigFileName, core.ConfigFileName + ".yaml", core.ConfigFileName + ".yml"}

// ResolveBasePath determines the doer base directory. It checks the
// DOER_HOME env var, then walks up from the current directory looking for
// .doerconfig, then falls back to the current directory.
func ResolveBasePath() string {
	if home := os.Getenv("DOER_HOME"); home != "" {
		return home
	}
	cwd, err := os.Getwd()
	if err != nil {
		return "."
	}
	for dir := cwd; ; {
		for _, name := range configMarkers {
			if _, err := os.Stat(filepath.Join(dir, name)); err == nil {
				return dir
			}
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return cwd
}

// --- Adapters ---

// eventLogAdapter adapts observability.EventLog to core.EventLogger.
type eventLogAdapter struct {
	log observability.EventLog
}

func (a *eventLogAdapter) LogEvent(eventType string, data map[string]any) error {
	return a.log.Write(observability.Event{
		Time:    time.Now().UTC(),
		Level:   levelFor(eventType),
		Type:    eventType,
		Message: eventType,
		Data:    data,
	})
}

func levelFor(eventType string) string {
	switch eventType {
	case observability.EventStoreSaveFailed:
		return observability.LevelError
	case observability.EventStoreLoadWarning:
		return observability.LevelWarn
	default:
		return observability.LevelInfo
	}
}
