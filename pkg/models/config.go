package models

// GlobalConfig holds settings read from .doerconfig via Viper.
type GlobalConfig struct {
	StoreDir        string             `yaml:"store_dir" mapstructure:"store_dir"`
	StoreFile       string             `yaml:"store_file" mapstructure:"store_file"`
	DefaultPriority string             `yaml:"default_priority" mapstructure:"default_priority"`
	DefaultDue      string             `yaml:"default_due" mapstructure:"default_due"`
	Color           bool               `yaml:"color" mapstructure:"color"`
	Alerts          AlertConfig        `yaml:"alerts" mapstructure:"alerts"`
	Notifications   NotificationConfig `yaml:"notifications" mapstructure:"notifications"`
	Notion          NotionConfig       `yaml:"notion" mapstructure:"notion"`
}

// AlertConfig holds the thresholds for task alerts.
type AlertConfig struct {
	BlockedHours int `yaml:"blocked_hours" mapstructure:"blocked_hours"`
	HoldDays     int `yaml:"hold_days" mapstructure:"hold_days"`
	MaxOpen      int `yaml:"max_open" mapstructure:"max_open"`
}

// NotificationConfig controls where alerts are delivered.
type NotificationConfig struct {
	Enabled bool        `yaml:"enabled" mapstructure:"enabled"`
	Slack   SlackConfig `yaml:"slack" mapstructure:"slack"`
}

// SlackConfig holds the incoming webhook used for alert delivery.
type SlackConfig struct {
	WebhookURL string `yaml:"webhook_url" mapstructure:"webhook_url"`
}

// NotionConfig holds non-secret Notion settings. Credentials are kept in a
// separate keys file managed by "doer notion login".
type NotionConfig struct {
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
	Version string `yaml:"version" mapstructure:"version"`
}
