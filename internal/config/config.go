// Package config defines the polyglot configuration, loaded via viper
// from a YAML file with environment-variable overrides.
package config

import (
	"os"
	"path/filepath"

	"github.com/spf13/viper"

	"polyglot/internal/langs"
)

// Config is the complete polyglot configuration.
type Config struct {
	Logging    LoggingConfig    `mapstructure:"logging"`
	Storage    StorageConfig    `mapstructure:"storage"`
	TUI        TUIConfig        `mapstructure:"tui"`
	Capability CapabilityConfig `mapstructure:"capability"`

	// Languages overrides the supported-language table. Empty means the
	// built-in table (en, pt, es, ru, tr, fr).
	Languages []langs.Language `mapstructure:"languages"`
}

// LoggingConfig controls the debug log.
type LoggingConfig struct {
	// Level is one of DEBUG, INFO, WARN, ERROR.
	Level string `mapstructure:"level"`
	// Dir is where debug.log is written. Empty means the data directory.
	Dir string `mapstructure:"dir"`
}

// StorageConfig controls snapshot persistence.
type StorageConfig struct {
	// Dir is where the session snapshot is persisted.
	Dir string `mapstructure:"dir"`
	// Persist disables the snapshot store entirely when false.
	Persist bool `mapstructure:"persist"`
}

// TUIConfig controls the terminal UI.
type TUIConfig struct {
	// Accent is the accent color for highlights, as a lipgloss color
	// (ANSI number or hex).
	Accent string `mapstructure:"accent"`
	// MaxHistory limits how many messages the viewport renders; 0 means
	// unlimited.
	MaxHistory int `mapstructure:"max_history"`
}

// CapabilityConfig controls the in-process capability provider.
type CapabilityConfig struct {
	// DownloadBytes is the simulated model size for first-time downloads.
	DownloadBytes uint64 `mapstructure:"download_bytes"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Logging: LoggingConfig{Level: "INFO"},
		Storage: StorageConfig{Dir: DataDir(), Persist: true},
		TUI: TUIConfig{
			Accent:     "36",
			MaxHistory: 0,
		},
		Capability: CapabilityConfig{DownloadBytes: 4 << 20},
	}
}

// SetDefaults registers defaults with viper so they apply even without a
// config file.
func SetDefaults() {
	defaults := Default()

	viper.SetDefault("logging.level", defaults.Logging.Level)
	viper.SetDefault("logging.dir", defaults.Logging.Dir)

	viper.SetDefault("storage.dir", defaults.Storage.Dir)
	viper.SetDefault("storage.persist", defaults.Storage.Persist)

	viper.SetDefault("tui.accent", defaults.TUI.Accent)
	viper.SetDefault("tui.max_history", defaults.TUI.MaxHistory)

	viper.SetDefault("capability.download_bytes", defaults.Capability.DownloadBytes)
}

// Load unmarshals the current viper state into a validated Config.
func Load() (*Config, error) {
	cfg := Default()
	if err := viper.Unmarshal(cfg); err != nil {
		return nil, err
	}
	if cfg.Logging.Dir == "" {
		cfg.Logging.Dir = cfg.Storage.Dir
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LanguageTable builds the langs.Table from config, falling back to the
// built-in table when no override is present.
func (c *Config) LanguageTable() (*langs.Table, error) {
	if len(c.Languages) == 0 {
		return langs.Default(), nil
	}
	return langs.NewTable(c.Languages)
}

// ConfigDir returns the directory holding config.yaml.
func ConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "polyglot")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".polyglot"
	}
	return filepath.Join(home, ".config", "polyglot")
}

// DataDir returns the directory for the snapshot and debug log.
func DataDir() string {
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, "polyglot")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".polyglot"
	}
	return filepath.Join(home, ".local", "share", "polyglot")
}
