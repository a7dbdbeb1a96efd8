package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
)

// Update routes incoming messages to the right handler.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		return m.handleKey(msg)

	case messageSubmittedMsg:
		// Follow the newest message.
		m.selected = len(m.messages()) - 1
		return m, nil

	case stateChangedMsg:
		return m, nil

	case downloadMsg:
		m.downloads[downloadKey{msg.messageID, msg.cap}] = msg.percent
		return m, nil

	case settledMsg:
		delete(m.downloads, downloadKey{msg.messageID, msg.cap})
		return m, nil

	case submittedMsg:
		if msg.err != nil {
			m.statusLine = msg.err.Error()
		}
		return m, nil

	case opErrMsg:
		if msg.err != nil {
			m.statusLine = msg.err.Error()
		}
		return m, nil
	}

	if m.focus == focusInput {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		m.quitting = true
		return m, tea.Quit
	case "tab":
		m.statusLine = ""
		if m.focus == focusInput {
			m.focus = focusHistory
			m.input.Blur()
		} else {
			m.focus = focusInput
			m.input.Focus()
		}
		return m, nil
	}

	if m.focus == focusInput {
		return m.handleInputKey(msg)
	}
	return m.handleHistoryKey(msg)
}

func (m Model) handleInputKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		text := strings.TrimSpace(m.input.Value())
		if text == "" {
			return m, nil
		}
		m.input.Reset()
		m.statusLine = ""
		return m, m.submitCmd(text)
	case "esc":
		if len(m.messages()) > 0 {
			m.focus = focusHistory
			m.input.Blur()
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) handleHistoryKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	sel, ok := m.selectedMessage()
	if !ok {
		m.focus = focusInput
		m.input.Focus()
		return m, nil
	}

	if m.state(sel.ID).UIOpen {
		return m.handleDropdownKey(msg, sel.ID)
	}

	switch msg.String() {
	case "up", "k":
		if m.selected > 0 {
			m.selected--
		}
	case "down", "j":
		if m.selected < len(m.messages())-1 {
			m.selected++
		}
	case "t":
		m.statusLine = ""
		return m, m.translateCmd(sel.ID)
	case "s":
		if !m.engine.SummarizeEligible(sel.ID) {
			return m, nil
		}
		m.statusLine = ""
		return m, m.summarizeCmd(sel.ID)
	case "r":
		m.statusLine = ""
		return m, m.redetectCmd(sel.ID)
	case "l", "enter":
		if err := m.engine.OpenDropdown(sel.ID); err != nil {
			m.statusLine = err.Error()
			return m, nil
		}
		m.dropdownIndex = m.targetIndex(sel.ID)
	case "esc", "i":
		m.focus = focusInput
		m.input.Focus()
	}
	return m, nil
}

func (m Model) handleDropdownKey(msg tea.KeyMsg, id string) (tea.Model, tea.Cmd) {
	options := m.engine.Languages().All()
	switch msg.String() {
	case "up", "k":
		if m.dropdownIndex > 0 {
			m.dropdownIndex--
		}
	case "down", "j":
		if m.dropdownIndex < len(options)-1 {
			m.dropdownIndex++
		}
	case "enter":
		if m.dropdownIndex >= 0 && m.dropdownIndex < len(options) {
			if err := m.engine.SelectTarget(id, options[m.dropdownIndex].Code); err != nil {
				m.statusLine = err.Error()
			}
		}
	case "esc", "l":
		m.engine.CloseAllDropdowns()
	}
	return m, nil
}

// targetIndex locates the current selected target in the language table,
// so the dropdown cursor starts on it.
func (m Model) targetIndex(id string) int {
	target := m.state(id).Translation.SelectedTarget
	for i, lang := range m.engine.Languages().All() {
		if lang.Code == target {
			return i
		}
	}
	return 0
}
