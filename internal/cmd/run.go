package cmd

import (
	"errors"
	"fmt"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"polyglot/internal/capability/local"
	"polyglot/internal/config"
	"polyglot/internal/engine"
	"polyglot/internal/event"
	"polyglot/internal/logging"
	"polyglot/internal/store"
	"polyglot/internal/tui"
)

func runApp(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger, err := logging.NewLogger(cfg.Logging.Dir, cfg.Logging.Level)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer logger.Close()

	table, err := cfg.LanguageTable()
	if err != nil {
		return fmt.Errorf("invalid language table: %w", err)
	}

	bus := event.NewBus(logger.Slog())
	svc := local.NewService(local.WithDownloadSize(cfg.Capability.DownloadBytes))
	eng := engine.New(svc, bus, table, logger)

	if cfg.Storage.Persist {
		fs, err := store.NewFileStore(cfg.Storage.Dir, logger)
		if err != nil {
			return fmt.Errorf("failed to open snapshot store: %w", err)
		}
		snap, err := fs.Load()
		switch {
		case err == nil:
			eng.Restore(snap.Messages, snap.States)
			logger.Info("session restored", "messages", len(snap.Messages))
		case errors.Is(err, store.ErrNotFound):
			// First run, nothing to restore.
		default:
			logger.Warn("snapshot load failed, starting fresh", "error", err)
		}
		fs.Watch(bus, eng)
	}

	// Log config edits while running; settings apply on next start.
	viper.OnConfigChange(func(e fsnotify.Event) {
		logger.Info("config file changed", "path", e.Name)
	})
	viper.WatchConfig()

	app := tui.New(eng, bus, cfg, logger)
	if err := app.Run(); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}
