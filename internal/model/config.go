package model

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// APIConfig holds settings for the notifications REST backend.
type APIConfig struct {
	// BaseURL is the root URL the /notifications collection hangs off.
	BaseURL string `mapstructure:"base_url" yaml:"base_url"`

	// TimeoutSec bounds a single request.
	TimeoutSec int `mapstructure:"timeout_sec" yaml:"timeout_sec"`
}

// SessionConfig controls where the API token is read from.
type SessionConfig struct {
	// TokenEnv names the environment variable holding the bearer token.
	// The system keyring is consulted when it is empty.
	TokenEnv string `mapstructure:"token_env" yaml:"token_env"`
}

// DisplayConfig holds UI/rendering preferences.
type DisplayConfig struct {
	Theme             string `mapstructure:"theme" yaml:"theme"`
	DropdownLimit     int    `mapstructure:"dropdown_limit" yaml:"dropdown_limit"`
	ListLimit         int    `mapstructure:"list_limit" yaml:"list_limit"`
	GroupByDate       bool   `mapstructure:"group_by_date" yaml:"group_by_date"`
	SuccessDismissSec int    `mapstructure:"success_dismiss_sec" yaml:"success_dismiss_sec"`
}

// SyncConfig controls the background unread-count poll.
type SyncConfig struct {
	// PollIntervalSec is how often the server unread aggregate is checked.
	// Zero disables polling.
	PollIntervalSec int `mapstructure:"poll_interval_sec" yaml:"poll_interval_sec"`
}

// LogConfig controls the structured logger.
type LogConfig struct {
	Level string `mapstructure:"level" yaml:"level"`
	File  string `mapstructure:"file" yaml:"file"`
}

// MetricsConfig controls the optional Prometheus endpoint.
type MetricsConfig struct {
	Addr string `mapstructure:"addr" yaml:"addr"`
}

// AppConfig is the top-level application configuration.
type AppConfig struct {
	API     APIConfig     `mapstructure:"api" yaml:"api"`
	Session SessionConfig `mapstructure:"session" yaml:"session"`
	Display DisplayConfig `mapstructure:"display" yaml:"display"`
	Sync    SyncConfig    `mapstructure:"sync" yaml:"sync"`
	Log     LogConfig     `mapstructure:"log" yaml:"log"`
	Metrics MetricsConfig `mapstructure:"metrics" yaml:"metrics"`
}

// Timeout returns the per-request timeout as a duration.
func (c APIConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSec) * time.Second
}

// ConfigDir returns ~/.config/notifications, falling back to the working
// directory when the home directory is unknown.
func ConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".config", "notifications")
}

// DefaultConfigPath returns the default path for the configuration file,
// located at ~/.config/notifications/config.yaml.
func DefaultConfigPath() string {
	return filepath.Join(ConfigDir(), "config.yaml")
}

// defaultAppConfig returns a sensible default configuration.
func defaultAppConfig() *AppConfig {
	return &AppConfig{
		API: APIConfig{
			BaseURL:    "http://localhost:8000/api",
			TimeoutSec: 15,
		},
		Session: SessionConfig{
			TokenEnv: "NOTIFICATIONS_TOKEN",
		},
		Display: DisplayConfig{
			Theme:             "default",
			DropdownLimit:     5,
			ListLimit:         50,
			GroupByDate:       true,
			SuccessDismissSec: 3,
		},
		Sync: SyncConfig{
			PollIntervalSec: 60,
		},
		Log: LogConfig{
			Level: "info",
			File:  filepath.Join(ConfigDir(), "notifications.log"),
		},
	}
}

// setDefaults mirrors defaultAppConfig into v so missing keys resolve.
func setDefaults(v *viper.Viper) {
	d := defaultAppConfig()
	v.SetDefault("api.base_url", d.API.BaseURL)
	v.SetDefault("api.timeout_sec", d.API.TimeoutSec)
	v.SetDefault("session.token_env", d.Session.TokenEnv)
	v.SetDefault("display.theme", d.Display.Theme)
	v.SetDefault("display.dropdown_limit", d.Display.DropdownLimit)
	v.SetDefault("display.list_limit", d.Display.ListLimit)
	v.SetDefault("display.group_by_date", d.Display.GroupByDate)
	v.SetDefault("display.success_dismiss_sec", d.Display.SuccessDismissSec)
	v.SetDefault("sync.poll_interval_sec", d.Sync.PollIntervalSec)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.file", d.Log.File)
	v.SetDefault("metrics.addr", "")
}

// LoadConfig reads configuration from the given YAML file path using Viper.
// If the file does not exist, it returns a default configuration.
func LoadConfig(path string) (*AppConfig, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(*os.PathError); ok {
			return defaultAppConfig(), nil
		}
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return defaultAppConfig(), nil
		}
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}

	cfg := defaultAppConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	if cfg.Display.DropdownLimit <= 0 {
		cfg.Display.DropdownLimit = 5
	}
	if cfg.Display.ListLimit <= 0 {
		cfg.Display.ListLimit = 50
	}
	if cfg.API.TimeoutSec <= 0 {
		cfg.API.TimeoutSec = 15
	}

	return cfg, nil
}

// SaveConfig writes the given configuration to a YAML file at path,
// creating parent directories if needed.
func SaveConfig(path string, cfg *AppConfig) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory %s: %w", dir, err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.Set("api", cfg.API)
	v.Set("session", cfg.Session)
	v.Set("display", cfg.Display)
	v.Set("sync", cfg.Sync)
	v.Set("log", cfg.Log)
	v.Set("metrics", cfg.Metrics)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}

	return nil
}
