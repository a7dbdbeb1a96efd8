package tui

import (
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"

	"polyglot/internal/config"
	"polyglot/internal/engine"
	"polyglot/internal/event"
	"polyglot/internal/logging"
	"polyglot/internal/tui/styles"
)

// App wraps the Bubbletea program
type App struct {
	program *tea.Program
	model   Model
	bus     *event.Bus
	log     *logging.Logger
}

// New creates a new TUI application
func New(eng *engine.Engine, bus *event.Bus, cfg *config.Config, logger *logging.Logger) *App {
	styles.SetAccent(cfg.TUI.Accent)
	return &App{
		model: NewModel(eng, cfg),
		bus:   bus,
		log:   logger,
	}
}

// Run starts the TUI application
func (a *App) Run() error {
	a.program = tea.NewProgram(
		a.model,
		tea.WithAltScreen(),
	)

	// Forward engine events into the update loop.
	subs := []uint64{
		a.bus.Subscribe(event.TypeMessageSubmitted, func(ev event.Event) {
			if e, ok := ev.(event.MessageSubmitted); ok {
				a.program.Send(messageSubmittedMsg{message: e.Message})
			}
		}),
		a.bus.Subscribe(event.TypeStateChanged, func(ev event.Event) {
			if e, ok := ev.(event.StateChanged); ok {
				a.program.Send(stateChangedMsg{messageID: e.MessageID})
			}
		}),
		a.bus.Subscribe(event.TypeDownloadProgress, func(ev event.Event) {
			if e, ok := ev.(event.DownloadProgress); ok {
				a.program.Send(downloadMsg{messageID: e.MessageID, cap: e.Capability, percent: e.Percent})
			}
		}),
		a.bus.Subscribe(event.TypePipelineSettled, func(ev event.Event) {
			if e, ok := ev.(event.PipelineSettled); ok {
				a.program.Send(settledMsg{messageID: e.MessageID, cap: e.Capability})
			}
		}),
	}
	defer func() {
		for _, id := range subs {
			a.bus.Unsubscribe(id)
		}
	}()

	// Graceful shutdown on signals so the snapshot store settles.
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	defer signal.Stop(sigChan)

	go func() {
		<-sigChan
		if a.program != nil {
			a.program.Send(tea.Quit())
		}
	}()

	a.log.Info("tui started")
	_, err := a.program.Run()
	a.log.Info("tui stopped")
	return err
}
