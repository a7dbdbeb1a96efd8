package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"polyglot/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "View polyglot configuration",
	Long: `View polyglot configuration.

Without arguments, displays the current configuration.`,
	RunE: runConfigShow,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	RunE:  runConfigShow,
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Show the config file path",
	RunE:  runConfigPath,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a default config file",
	Long:  `Create a default config file at ~/.config/polyglot/config.yaml with all available options.`,
	RunE:  runConfigInit,
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configPathCmd)
	configCmd.AddCommand(configInitCmd)
	rootCmd.AddCommand(configCmd)
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "Current configuration:")
	fmt.Fprintln(out)

	if viper.ConfigFileUsed() != "" {
		fmt.Fprintf(out, "Config file: %s\n", viper.ConfigFileUsed())
	} else {
		fmt.Fprintf(out, "Config file: (none - using defaults)\n")
	}
	fmt.Fprintln(out)

	fmt.Fprintf(out, "logging.level: %s\n", cfg.Logging.Level)
	fmt.Fprintf(out, "logging.dir: %s\n", cfg.Logging.Dir)
	fmt.Fprintf(out, "storage.dir: %s\n", cfg.Storage.Dir)
	fmt.Fprintf(out, "storage.persist: %t\n", cfg.Storage.Persist)
	fmt.Fprintf(out, "tui.accent: %s\n", cfg.TUI.Accent)
	fmt.Fprintf(out, "tui.max_history: %d\n", cfg.TUI.MaxHistory)
	fmt.Fprintf(out, "capability.download_bytes: %d\n", cfg.Capability.DownloadBytes)

	table, err := cfg.LanguageTable()
	if err != nil {
		return err
	}
	fmt.Fprintln(out)
	fmt.Fprintln(out, "Supported languages:")
	for _, lang := range table.All() {
		fmt.Fprintf(out, "  %s  %s\n", lang.Code, lang.Label)
	}
	return nil
}

func runConfigPath(cmd *cobra.Command, args []string) error {
	fmt.Fprintln(cmd.OutOrStdout(), filepath.Join(config.ConfigDir(), "config.yaml"))
	return nil
}

const configTemplate = `# Polyglot configuration
logging:
  # DEBUG, INFO, WARN, ERROR
  level: INFO
  # Directory for debug.log; defaults to the storage directory.
  # dir: /path/to/logs

storage:
  # Persist the message history and per-message state between runs.
  persist: true
  # dir: defaults to $XDG_DATA_HOME/polyglot

tui:
  # Accent color (ANSI number or hex).
  accent: "36"
  # Messages to keep in the rendered history; 0 means unlimited.
  max_history: 0

capability:
  # Simulated model size for first-time capability downloads.
  download_bytes: 4194304

# Override the supported-language table. Detection still reports other
# languages, but they render as unsupported.
# languages:
#   - code: en
#     label: English
`

func runConfigInit(cmd *cobra.Command, args []string) error {
	dir := config.ConfigDir()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	path := filepath.Join(dir, "config.yaml")
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}
	if err := os.WriteFile(path, []byte(configTemplate), 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Created %s\n", path)
	return nil
}
