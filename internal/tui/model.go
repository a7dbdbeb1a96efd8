package tui

import (
	"context"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"polyglot/internal/capability"
	"polyglot/internal/config"
	"polyglot/internal/engine"
	"polyglot/internal/message"
	"polyglot/internal/opstate"
	"polyglot/internal/tui/styles"
)

// focusArea marks which part of the screen receives key input.
type focusArea int

const (
	focusInput focusArea = iota
	focusHistory
)

// downloadKey identifies one in-flight capability download.
type downloadKey struct {
	messageID string
	cap       capability.Capability
}

// Model holds the TUI application state
type Model struct {
	engine *engine.Engine
	cfg    *config.Config

	input textinput.Model
	spin  spinner.Model

	// UI state
	focus         focusArea
	selected      int
	dropdownIndex int
	width         int
	height        int
	ready         bool
	quitting      bool
	statusLine    string

	// In-flight downloads, keyed by message and capability. Cleared when
	// the pipeline settles.
	downloads map[downloadKey]int
}

// NewModel creates a new TUI model
func NewModel(eng *engine.Engine, cfg *config.Config) Model {
	ti := textinput.New()
	ti.Placeholder = "Type a message and press enter"
	ti.Focus()
	ti.CharLimit = 2000

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = styles.Primary

	return Model{
		engine:    eng,
		cfg:       cfg,
		input:     ti,
		spin:      sp,
		focus:     focusInput,
		downloads: make(map[downloadKey]int),
	}
}

// Init starts the cursor blink and spinner tickers.
func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.spin.Tick)
}

// messages returns the current history, oldest first.
func (m Model) messages() []message.Message {
	return m.engine.Messages()
}

// selectedMessage returns the message under the history cursor.
func (m Model) selectedMessage() (message.Message, bool) {
	msgs := m.messages()
	if m.selected < 0 || m.selected >= len(msgs) {
		return message.Message{}, false
	}
	return msgs[m.selected], true
}

// state fetches the operation state for a message, zero value if unknown.
func (m Model) state(id string) opstate.OperationState {
	st, _ := m.engine.State(id)
	return st
}

// openDropdownID returns the message whose dropdown is open, if any.
func (m Model) openDropdownID() (string, bool) {
	return m.engine.OpenDropdownID()
}

// submitCmd hands the composed text to the engine.
func (m Model) submitCmd(text string) tea.Cmd {
	return func() tea.Msg {
		_, err := m.engine.Submit(context.Background(), text)
		return submittedMsg{err: err}
	}
}

// translateCmd runs a blocking translation off the update loop.
func (m Model) translateCmd(id string) tea.Cmd {
	return func() tea.Msg {
		if err := m.engine.Translate(context.Background(), id); err != nil {
			return opErrMsg{err: err}
		}
		return nil
	}
}

// summarizeCmd runs a blocking summarization off the update loop.
func (m Model) summarizeCmd(id string) tea.Cmd {
	return func() tea.Msg {
		if err := m.engine.Summarize(context.Background(), id); err != nil {
			return opErrMsg{err: err}
		}
		return nil
	}
}

// redetectCmd reruns language detection off the update loop.
func (m Model) redetectCmd(id string) tea.Cmd {
	return func() tea.Msg {
		if err := m.engine.Redetect(context.Background(), id); err != nil {
			return opErrMsg{err: err}
		}
		return nil
	}
}
