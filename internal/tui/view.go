package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"polyglot/internal/capability"
	"polyglot/internal/message"
	"polyglot/internal/opstate"
	"polyglot/internal/tui/styles"
	"polyglot/internal/util"
)

// View renders the full screen.
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	if !m.ready {
		return "Loading..."
	}

	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n")
	b.WriteString(m.renderHistory())
	b.WriteString("\n")
	b.WriteString(m.renderInput())
	b.WriteString("\n")
	b.WriteString(m.renderStatus())
	b.WriteString("\n")
	b.WriteString(m.renderHelp())
	return b.String()
}

func (m Model) renderHeader() string {
	title := styles.Title.Render("Polyglot")
	sub := styles.Subtitle.Render(fmt.Sprintf(" %d languages", m.engine.Languages().Len()))
	return title + sub
}

// historyHeight is the number of lines available for the message list.
func (m Model) historyHeight() int {
	// header (1) + blank (1) + input (3) + status (1) + help (1)
	h := m.height - 7
	if h < 3 {
		h = 3
	}
	return h
}

func (m Model) renderHistory() string {
	msgs := m.messages()
	if max := m.cfg.TUI.MaxHistory; max > 0 && len(msgs) > max {
		msgs = msgs[len(msgs)-max:]
	}
	if len(msgs) == 0 {
		empty := styles.Muted.Render("No messages yet. Type below to get started.")
		return padToHeight(empty, m.historyHeight())
	}

	var lines []string
	selStart, selEnd := 0, 0
	offset := len(m.messages()) - len(msgs)
	for i, msg := range msgs {
		idx := offset + i
		block := m.renderMessage(msg, idx == m.selected)
		blockLines := strings.Split(block, "\n")
		if idx == m.selected {
			selStart = len(lines)
			selEnd = selStart + len(blockLines)
		}
		for _, line := range blockLines {
			lines = append(lines, util.TruncateANSI(line, m.width))
		}
		lines = append(lines, "")
	}

	clipped := clipAround(lines, selStart, selEnd, m.historyHeight())
	return padToHeight(strings.Join(clipped, "\n"), m.historyHeight())
}

// renderMessage renders one message with its pipeline state.
func (m Model) renderMessage(msg message.Message, selected bool) string {
	st := m.state(msg.ID)

	var b strings.Builder
	textStyle := styles.MessageText
	marker := "  "
	if selected && m.focus == focusHistory {
		textStyle = styles.MessageSelected
		marker = styles.Primary.Render("> ")
	}
	b.WriteString(marker + textStyle.Render(msg.Text))
	b.WriteString("\n")

	b.WriteString("  " + m.renderDetection(st.Detection))

	for _, cap := range []capability.Capability{capability.Detection, capability.Translation, capability.Summarization} {
		if pct, ok := m.downloads[downloadKey{msg.ID, cap}]; ok {
			b.WriteString("\n  " + renderDownload(cap, pct))
		}
	}

	if line := m.renderTranslation(st.Translation); line != "" {
		b.WriteString("\n  " + line)
	}
	if st.UIOpen {
		b.WriteString("\n" + m.renderDropdown(st.Translation.SelectedTarget))
	}
	if line := m.renderSummary(msg.ID, st); line != "" {
		b.WriteString("\n  " + line)
	}
	return b.String()
}

func (m Model) renderDetection(d opstate.DetectionState) string {
	switch d.Status {
	case opstate.StatusRunning:
		return m.spin.View() + styles.Muted.Render("Detecting language...")
	case opstate.StatusSucceeded:
		if !d.Supported {
			return styles.DetectionNote.Render(d.Note)
		}
		return styles.Muted.Render(fmt.Sprintf("Language: %s (%s)", d.Label, d.Language))
	case opstate.StatusFailed:
		if d.Err != nil {
			return styles.Error.Render(d.Err.Message)
		}
		return styles.Error.Render("Language detection failed.")
	}
	return styles.Muted.Render("Detection pending")
}

func (m Model) renderTranslation(t opstate.TranslationState) string {
	target := m.engine.Languages().LabelFor(t.SelectedTarget)
	switch t.Status {
	case opstate.StatusRunning:
		return m.spin.View() + styles.Muted.Render(fmt.Sprintf("Translating to %s...", target))
	case opstate.StatusSucceeded:
		to := m.engine.Languages().LabelFor(t.TranslatedTo)
		return styles.Translation.Render(fmt.Sprintf("%s: %s", to, t.TranslatedText))
	case opstate.StatusFailed:
		if t.Err != nil {
			return styles.Error.Render(t.Err.Message)
		}
	}
	return styles.Muted.Render(fmt.Sprintf("Target: %s", target))
}

func (m Model) renderSummary(id string, st opstate.OperationState) string {
	switch st.Summarization.Status {
	case opstate.StatusRunning:
		return m.spin.View() + styles.Muted.Render("Summarizing...")
	case opstate.StatusSucceeded:
		return styles.Summary.Render("Summary: " + st.Summarization.Summary)
	case opstate.StatusFailed:
		if st.Summarization.Err != nil {
			return styles.Error.Render(st.Summarization.Err.Message)
		}
	}
	if m.engine.SummarizeEligible(id) {
		return styles.Muted.Render("Press " + styles.HelpKey.Render("s") + styles.Muted.Render(" to summarize"))
	}
	return ""
}

func (m Model) renderDropdown(selectedTarget string) string {
	var rows []string
	for i, lang := range m.engine.Languages().All() {
		label := lang.Label
		if lang.Code == selectedTarget {
			label += " *"
		}
		if i == m.dropdownIndex {
			rows = append(rows, styles.DropdownActive.Render(label))
		} else {
			rows = append(rows, styles.DropdownItem.Render(label))
		}
	}
	return styles.DropdownBox.Render(strings.Join(rows, "\n"))
}

// renderDownload renders a compact model-download indicator.
func renderDownload(cap capability.Capability, percent int) string {
	return styles.Warning.Render(fmt.Sprintf("%s %s model %d%%", renderProgressBar(percent, 10), capLabel(cap), percent))
}

// renderProgressBar renders a fixed-width bar for a 0-100 percentage.
func renderProgressBar(percent, barWidth int) string {
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}
	filled := (percent * barWidth) / 100
	bar := strings.Repeat("█", filled) + strings.Repeat("░", barWidth-filled)
	return "[" + bar + "]"
}

func capLabel(cap capability.Capability) string {
	switch cap {
	case capability.Detection:
		return "detection"
	case capability.Translation:
		return "translation"
	case capability.Summarization:
		return "summarization"
	}
	return string(cap)
}

func (m Model) renderInput() string {
	box := styles.InputBox
	if m.focus == focusInput {
		box = styles.InputBoxFocused
	}
	width := m.width - 4
	if width > 0 {
		m.input.Width = width
	}
	return box.Render(m.input.View())
}

func (m Model) renderStatus() string {
	if m.statusLine == "" {
		return ""
	}
	return styles.Error.Render(m.statusLine)
}

func (m Model) renderHelp() string {
	key := styles.HelpKey.Render
	sep := styles.HelpBar.Render(" · ")

	var parts []string
	switch {
	case m.focus == focusInput:
		parts = []string{
			key("enter") + styles.HelpBar.Render(" send"),
			key("tab") + styles.HelpBar.Render(" history"),
		}
	default:
		if _, open := m.openDropdownID(); open {
			parts = []string{
				key("↑/↓") + styles.HelpBar.Render(" choose"),
				key("enter") + styles.HelpBar.Render(" select"),
				key("esc") + styles.HelpBar.Render(" close"),
			}
		} else {
			parts = []string{
				key("↑/↓") + styles.HelpBar.Render(" select"),
				key("t") + styles.HelpBar.Render(" translate"),
				key("s") + styles.HelpBar.Render(" summarize"),
				key("r") + styles.HelpBar.Render(" re-detect"),
				key("l") + styles.HelpBar.Render(" language"),
				key("tab") + styles.HelpBar.Render(" compose"),
			}
		}
	}
	parts = append(parts, key("ctrl+c")+styles.HelpBar.Render(" quit"))
	return lipgloss.NewStyle().MaxWidth(m.width).Render(strings.Join(parts, sep))
}

// clipAround returns up to height lines, keeping the selected block
// visible and otherwise following the tail.
func clipAround(lines []string, selStart, selEnd, height int) []string {
	if len(lines) <= height {
		return lines
	}
	start := len(lines) - height
	if selStart < start {
		start = selStart
	}
	if selEnd > start+height {
		start = selEnd - height
	}
	if start < 0 {
		start = 0
	}
	end := start + height
	if end > len(lines) {
		end = len(lines)
	}
	return lines[start:end]
}

// padToHeight bottom-pads content so lower chrome stays anchored.
func padToHeight(content string, height int) string {
	n := strings.Count(content, "\n") + 1
	if n >= height {
		return content
	}
	return content + strings.Repeat("\n", height-n)
}
