package tui

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"polyglot/internal/capability"
	"polyglot/internal/capability/local"
	"polyglot/internal/config"
	"polyglot/internal/engine"
	"polyglot/internal/event"
	"polyglot/internal/langs"
	"polyglot/internal/logging"
	"polyglot/internal/message"
	"polyglot/internal/opstate"
)

func newTestModel(t *testing.T) (Model, *engine.Engine) {
	t.Helper()
	logger, err := logging.NewLogger(t.TempDir(), "ERROR")
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	t.Cleanup(func() { _ = logger.Close() })

	bus := event.NewBus(logger.Slog())
	eng := engine.New(local.NewService(), bus, langs.Default(), logger)

	m := NewModel(eng, config.Default())
	updated, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	return updated.(Model), eng
}

func restoreHistory(eng *engine.Engine) {
	msgs := []message.Message{
		{ID: "m1", Text: "Bonjour tout le monde"},
		{ID: "m2", Text: "Hello there"},
	}
	states := map[string]opstate.OperationState{
		"m1": {
			Detection: opstate.DetectionState{
				Status:    opstate.StatusSucceeded,
				Language:  "fr",
				Label:     "French",
				Supported: true,
			},
			Translation: opstate.TranslationState{
				Status:         opstate.StatusSucceeded,
				SelectedTarget: "en",
				TranslatedText: "Hello everyone",
				TranslatedTo:   "en",
			},
		},
		"m2": {
			Detection: opstate.DetectionState{
				Status:    opstate.StatusSucceeded,
				Language:  "en",
				Label:     "English",
				Supported: true,
			},
			Translation: opstate.TranslationState{SelectedTarget: "en"},
		},
	}
	eng.Restore(msgs, states)
}

func key(s string) tea.KeyMsg {
	switch s {
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	default:
		return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
	}
}

func press(t *testing.T, m Model, keys ...string) Model {
	t.Helper()
	for _, k := range keys {
		updated, _ := m.Update(key(k))
		m = updated.(Model)
	}
	return m
}

func TestViewRendersPipelineState(t *testing.T) {
	m, eng := newTestModel(t)
	restoreHistory(eng)

	out := m.View()
	for _, want := range []string{
		"Bonjour tout le monde",
		"Language: French (fr)",
		"Hello everyone",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("view missing %q", want)
		}
	}
}

func TestHistoryNavigation(t *testing.T) {
	m, eng := newTestModel(t)
	restoreHistory(eng)

	m = press(t, m, "tab")
	if m.focus != focusHistory {
		t.Fatal("tab should move focus to history")
	}
	if m.selected != 0 {
		t.Fatalf("selected = %d, want 0", m.selected)
	}

	m = press(t, m, "down")
	if m.selected != 1 {
		t.Errorf("selected = %d, want 1", m.selected)
	}

	// Clamped at the ends.
	m = press(t, m, "down")
	if m.selected != 1 {
		t.Errorf("selected = %d, want 1 after clamp", m.selected)
	}
	m = press(t, m, "up", "up", "up")
	if m.selected != 0 {
		t.Errorf("selected = %d, want 0 after clamp", m.selected)
	}
}

func TestDropdownOpenSelectClose(t *testing.T) {
	m, eng := newTestModel(t)
	restoreHistory(eng)

	m = press(t, m, "tab", "l")
	st, _ := eng.State("m1")
	if !st.UIOpen {
		t.Fatal("l should open the dropdown")
	}

	// Cursor starts on the current target (en, index 0); move to pt.
	m = press(t, m, "down", "enter")
	st, _ = eng.State("m1")
	if st.UIOpen {
		t.Error("selection should close the dropdown")
	}
	if st.Translation.SelectedTarget != "pt" {
		t.Errorf("selected target = %q, want pt", st.Translation.SelectedTarget)
	}
}

func TestDropdownEscCloses(t *testing.T) {
	m, eng := newTestModel(t)
	restoreHistory(eng)

	m = press(t, m, "tab", "l", "esc")
	st, _ := eng.State("m1")
	if st.UIOpen {
		t.Error("esc should close the dropdown")
	}
}

func TestSummarizeKeyIgnoredWhenIneligible(t *testing.T) {
	m, eng := newTestModel(t)
	restoreHistory(eng)

	m = press(t, m, "tab", "down")
	updated, cmd := m.Update(key("s"))
	m = updated.(Model)
	if cmd != nil {
		t.Error("s on an ineligible message should be a no-op")
	}
	if !strings.Contains(m.View(), "Hello there") {
		t.Error("view lost the message")
	}
}

func TestDownloadIndicatorLifecycle(t *testing.T) {
	m, eng := newTestModel(t)
	restoreHistory(eng)

	updated, _ := m.Update(downloadMsg{messageID: "m1", cap: capability.Translation, percent: 40})
	m = updated.(Model)
	if !strings.Contains(m.View(), "translation model 40%") {
		t.Error("view missing download indicator")
	}

	updated, _ = m.Update(settledMsg{messageID: "m1", cap: capability.Translation})
	m = updated.(Model)
	if strings.Contains(m.View(), "translation model") {
		t.Error("indicator should clear once the pipeline settles")
	}
}

func TestSubmitClearsInput(t *testing.T) {
	m, _ := newTestModel(t)

	m = press(t, m, "h", "i")
	if m.input.Value() != "hi" {
		t.Fatalf("input = %q, want hi", m.input.Value())
	}

	updated, cmd := m.Update(key("enter"))
	m = updated.(Model)
	if cmd == nil {
		t.Fatal("enter with text should produce a submit command")
	}
	if m.input.Value() != "" {
		t.Errorf("input = %q, want empty after submit", m.input.Value())
	}
}

func TestEnterOnEmptyInputIsNoop(t *testing.T) {
	m, _ := newTestModel(t)

	_, cmd := m.Update(key("enter"))
	if cmd != nil {
		t.Error("enter with empty input should be a no-op")
	}
}
