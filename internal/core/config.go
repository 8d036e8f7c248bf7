// Package core contains the business logic for doer: due-date resolution,
// task filtering, listing layout, task lifecycle operations, and
// configuration loading.
package core

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
	"github.com/valter-silva-au/doer/pkg/models"
)

// ConfigFileName is the name (without extension) of the global config file.
const ConfigFileName = ".doerconfig"

// ConfigurationManager loads and validates the global configuration.
type ConfigurationManager interface {
	LoadGlobalConfig() (*models.GlobalConfig, error)
	ValidateConfig(cfg *models.GlobalConfig) error
}

// viperConfigManager implements ConfigurationManager using Viper for
// reading the YAML config file and DOER_* environment overrides.
type viperConfigManager struct {
	// basePath is the directory where .doerconfig resides.
	basePath string
}

// NewConfigurationManager creates a ConfigurationManager that reads
// configuration relative to basePath.
func NewConfigurationManager(basePath string) ConfigurationManager {
	return &viperConfigManager{basePath: basePath}
}

// DefaultGlobalConfig returns a GlobalConfig populated with defaults. The
// store lives directly under basePath.
func DefaultGlobalConfig(basePath string) *models.GlobalConfig {
	return &models.GlobalConfig{
		StoreDir:        basePath,
		StoreFile:       "tasks.csv",
		DefaultPriority: models.PriorityLow.String(),
		DefaultDue:      DueSometime,
		Color:           true,
		Alerts: models.AlertConfig{
			BlockedHours: 24,
			HoldDays:     7,
			MaxOpen:      25,
		},
		Notion: models.NotionConfig{
			BaseURL: "https://api.notion.com/v1",
			Version: "2022-06-28",
		},
	}
}

// LoadGlobalConfig reads .doerconfig from the base path. A missing file
// yields the defaults. DOER_OUTPUT_DIR overrides store.dir.
func (cm *viperConfigManager) LoadGlobalConfig() (*models.GlobalConfig, error) {
	cfg := DefaultGlobalConfig(cm.basePath)

	v := viper.New()
	v.SetConfigName(ConfigFileName)
	v.SetConfigType("yaml")
	v.AddConfigPath(cm.basePath)

	v.SetEnvPrefix("DOER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	_ = v.BindEnv("store.dir", "DOER_OUTPUT_DIR", "DOER_STORE_DIR")

	v.SetDefault("store.dir", cfg.StoreDir)
	v.SetDefault("store.file", cfg.StoreFile)
	v.SetDefault("defaults.priority", cfg.DefaultPriority)
	v.SetDefault("defaults.due", cfg.DefaultDue)
	v.SetDefault("display.color", cfg.Color)
	v.SetDefault("alerts.blocked_hours", cfg.Alerts.BlockedHours)
	v.SetDefault("alerts.hold_days", cfg.Alerts.HoldDays)
	v.SetDefault("alerts.max_open", cfg.Alerts.MaxOpen)
	v.SetDefault("notifications.enabled", false)
	v.SetDefault("notifications.slack.webhook_url", "")
	v.SetDefault("notion.base_url", cfg.Notion.BaseURL)
	v.SetDefault("notion.version", cfg.Notion.Version)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading %s: %w", ConfigFileName, err)
		}
	}

	cfg.StoreDir = expandHome(v.GetString("store.dir"))
	cfg.StoreFile = v.GetString("store.file")
	cfg.DefaultPriority = v.GetString("defaults.priority")
	cfg.DefaultDue = v.GetString("defaults.due")
	cfg.Color = v.GetBool("display.color")
	cfg.Alerts.BlockedHours = v.GetInt("alerts.blocked_hours")
	cfg.Alerts.HoldDays = v.GetInt("alerts.hold_days")
	cfg.Alerts.MaxOpen = v.GetInt("alerts.max_open")
	cfg.Notifications.Enabled = v.GetBool("notifications.enabled")
	cfg.Notifications.Slack.WebhookURL = v.GetString("notifications.slack.webhook_url")
	cfg.Notion.BaseURL = v.GetString("notion.base_url")
	cfg.Notion.Version = v.GetString("notion.version")

	return cfg, nil
}

// ValidateConfig checks cfg for invalid values and reports all of them in
// a single error.
func (cm *viperConfigManager) ValidateConfig(cfg *models.GlobalConfig) error {
	if cfg == nil {
		return fmt.Errorf("configuration is nil")
	}

	var errs []string

	if strings.TrimSpace(cfg.StoreFile) == "" {
		errs = append(errs, "store.file must not be empty")
	}
	if strings.ContainsAny(cfg.StoreFile, `/\`) {
		errs = append(errs, fmt.Sprintf("store.file %q must be a file name, not a path", cfg.StoreFile))
	}
	if _, ok := models.ParsePriority(cfg.DefaultPriority); !ok {
		errs = append(errs, fmt.Sprintf("defaults.priority %q is invalid, must be one of: Low, Medium, High", cfg.DefaultPriority))
	}
	if strings.EqualFold(cfg.DefaultDue, DueOverdue) {
		errs = append(errs, "defaults.due must not be \"overdue\", which is only valid as a filter")
	} else if _, ok := NewDateResolver(nil).Lookup(cfg.DefaultDue); !ok {
		errs = append(errs, fmt.Sprintf("defaults.due %q is invalid, must be a keyword or YYYY-MM-DD", cfg.DefaultDue))
	}
	if cfg.Alerts.BlockedHours < 0 {
		errs = append(errs, fmt.Sprintf("alerts.blocked_hours must be non-negative, got %d", cfg.Alerts.BlockedHours))
	}
	if cfg.Alerts.HoldDays < 0 {
		errs = append(errs, fmt.Sprintf("alerts.hold_days must be non-negative, got %d", cfg.Alerts.HoldDays))
	}
	if cfg.Alerts.MaxOpen < 0 {
		errs = append(errs, fmt.Sprintf("alerts.max_open must be non-negative, got %d", cfg.Alerts.MaxOpen))
	}
	if cfg.Notifications.Enabled && cfg.Notifications.Slack.WebhookURL == "" {
		errs = append(errs, "notifications.slack.webhook_url is required when notifications are enabled")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

func expandHome(p string) string {
	if p == "~" || strings.HasPrefix(p, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return home + p[1:]
		}
	}
	return p
}
