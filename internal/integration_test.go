// Package internal contains integration tests that verify the packages
// work together: engine pipelines publishing through the event bus, the
// snapshot store persisting on those events, and state surviving a
// restart through restore.
package internal

import (
	"context"
	"testing"
	"time"

	"polyglot/internal/capability"
	"polyglot/internal/capability/local"
	"polyglot/internal/engine"
	"polyglot/internal/event"
	"polyglot/internal/langs"
	"polyglot/internal/logging"
	"polyglot/internal/opstate"
	"polyglot/internal/store"
)

func newIntegrationEngine(t *testing.T) (*engine.Engine, *event.Bus, *store.FileStore) {
	t.Helper()

	logger, err := logging.NewLogger(t.TempDir(), "ERROR")
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	t.Cleanup(func() { _ = logger.Close() })

	bus := event.NewBus(logger.Slog())
	svc := local.NewService(
		local.WithAvailability(capability.Detection, capability.AvailabilityReadily),
		local.WithAvailability(capability.Translation, capability.AvailabilityReadily),
	)
	eng := engine.New(svc, bus, langs.Default(), logger)

	fs, err := store.NewFileStore(t.TempDir(), logger)
	if err != nil {
		t.Fatalf("store: %v", err)
	}
	fs.Watch(bus, eng)
	return eng, bus, fs
}

func TestSubmitDetectTranslatePersistRestore(t *testing.T) {
	eng, bus, fs := newIntegrationEngine(t)

	ch := make(chan string, 16)
	sub := bus.Subscribe(event.TypePipelineSettled, func(ev event.Event) {
		if e, ok := ev.(event.PipelineSettled); ok && e.Capability == capability.Detection {
			ch <- e.MessageID
		}
	})

	msg, err := eng.Submit(context.Background(), "Bonjour, je voudrais un café s'il vous plaît")
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}

	deadline := time.After(5 * time.Second)
	for done := false; !done; {
		select {
		case id := <-ch:
			done = id == msg.ID
		case <-deadline:
			t.Fatal("detection did not settle")
		}
	}
	bus.Unsubscribe(sub)

	st, ok := eng.State(msg.ID)
	if !ok {
		t.Fatal("state missing after submit")
	}
	if st.Detection.Status != opstate.StatusSucceeded {
		t.Fatalf("detection status = %s", st.Detection.Status)
	}
	if st.Detection.Language != "fr" {
		t.Fatalf("detected %q, want fr", st.Detection.Language)
	}

	if err := eng.Translate(context.Background(), msg.ID); err != nil {
		t.Fatalf("Translate: %v", err)
	}
	st, _ = eng.State(msg.ID)
	if st.Translation.Status != opstate.StatusSucceeded {
		t.Fatalf("translation status = %s", st.Translation.Status)
	}
	if st.Translation.TranslatedTo != "en" {
		t.Errorf("translated to %q, want en", st.Translation.TranslatedTo)
	}

	// The store saved on every state change; a fresh engine restored from
	// the snapshot sees the same terminal state.
	snap, err := fs.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(snap.Messages) != 1 {
		t.Fatalf("snapshot messages = %d, want 1", len(snap.Messages))
	}

	logger, err := logging.NewLogger(t.TempDir(), "ERROR")
	if err != nil {
		t.Fatal(err)
	}
	defer logger.Close()
	fresh := engine.New(local.NewService(), event.NewBus(logger.Slog()), langs.Default(), logger)
	fresh.Restore(snap.Messages, snap.States)

	restored, ok := fresh.State(msg.ID)
	if !ok {
		t.Fatal("restored state missing")
	}
	if restored.Translation.TranslatedText != st.Translation.TranslatedText {
		t.Error("translated text did not survive the restart")
	}
}

func TestDownloadEventsFlowThroughBus(t *testing.T) {
	logger, err := logging.NewLogger(t.TempDir(), "ERROR")
	if err != nil {
		t.Fatal(err)
	}
	defer logger.Close()

	bus := event.NewBus(logger.Slog())
	// Default service simulates a first-time model download.
	eng := engine.New(local.NewService(), bus, langs.Default(), logger)

	progress := make(chan int, 64)
	bus.Subscribe(event.TypeDownloadProgress, func(ev event.Event) {
		if e, ok := ev.(event.DownloadProgress); ok {
			progress <- e.Percent
		}
	})
	settled := make(chan string, 16)
	bus.Subscribe(event.TypePipelineSettled, func(ev event.Event) {
		if e, ok := ev.(event.PipelineSettled); ok && e.Capability == capability.Detection {
			settled <- e.MessageID
		}
	})

	msg, err := eng.Submit(context.Background(), "Hello world")
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	deadline := time.After(5 * time.Second)
	for done := false; !done; {
		select {
		case id := <-settled:
			done = id == msg.ID
		case <-deadline:
			t.Fatal("detection did not settle")
		}
	}

	var samples []int
	for {
		select {
		case p := <-progress:
			samples = append(samples, p)
			continue
		default:
		}
		break
	}
	if len(samples) == 0 {
		t.Fatal("no download progress events observed")
	}
	if samples[len(samples)-1] != 100 {
		t.Errorf("final sample = %d, want 100", samples[len(samples)-1])
	}
}
