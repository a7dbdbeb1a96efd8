// Package styles centralizes the lipgloss palette and shared styles for
// the polyglot TUI.
package styles

import "github.com/charmbracelet/lipgloss"

var (
	// Colors - chosen for contrast on both black and dark surfaces
	PrimaryColor   = lipgloss.Color("#A78BFA") // Purple
	SecondaryColor = lipgloss.Color("#10B981") // Green
	WarningColor   = lipgloss.Color("#F59E0B") // Amber
	ErrorColor     = lipgloss.Color("#F87171") // Red
	MutedColor     = lipgloss.Color("#9CA3AF") // Gray
	TextColor      = lipgloss.Color("#F9FAFB") // Light text
	BorderColor    = lipgloss.Color("#6B7280") // Gray

	// Convenience styles for colors
	Primary   = lipgloss.NewStyle().Foreground(PrimaryColor)
	Secondary = lipgloss.NewStyle().Foreground(SecondaryColor)
	Warning   = lipgloss.NewStyle().Foreground(WarningColor)
	Error     = lipgloss.NewStyle().Foreground(ErrorColor)
	Muted     = lipgloss.NewStyle().Foreground(MutedColor)
	Text      = lipgloss.NewStyle().Foreground(TextColor)

	// Pipeline status colors
	StatusRunning   = lipgloss.Color("#F59E0B") // Amber
	StatusSucceeded = lipgloss.Color("#10B981") // Green
	StatusFailed    = lipgloss.Color("#F87171") // Red

	Title = lipgloss.NewStyle().
		Bold(true).
		Foreground(PrimaryColor)

	Subtitle = lipgloss.NewStyle().
			Foreground(MutedColor).
			Italic(true)

	// Message blocks
	MessageText = lipgloss.NewStyle().
			Foreground(TextColor)

	MessageSelected = lipgloss.NewStyle().
			Bold(true).
			Foreground(TextColor).
			Background(lipgloss.Color("#1F2937"))

	DetectionNote = lipgloss.NewStyle().
			Foreground(WarningColor).
			Italic(true)

	Translation = lipgloss.NewStyle().
			Foreground(SecondaryColor)

	Summary = lipgloss.NewStyle().
		Foreground(PrimaryColor).
		Italic(true)

	// Dropdown
	DropdownBox = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(BorderColor).
			Padding(0, 1)

	DropdownItem = lipgloss.NewStyle().
			Foreground(MutedColor).
			Padding(0, 1)

	DropdownActive = lipgloss.NewStyle().
			Bold(true).
			Foreground(TextColor).
			Background(PrimaryColor).
			Padding(0, 1)

	// Input area
	InputBox = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(BorderColor).
			Padding(0, 1)

	InputBoxFocused = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(PrimaryColor).
			Padding(0, 1)

	// Help bar
	HelpBar = lipgloss.NewStyle().
		Foreground(MutedColor)

	HelpKey = lipgloss.NewStyle().
		Bold(true).
		Foreground(SecondaryColor)
)

// SetAccent replaces the primary color at startup from configuration.
func SetAccent(color string) {
	if color == "" {
		return
	}
	PrimaryColor = lipgloss.Color(color)
	Primary = Primary.Foreground(PrimaryColor)
	Title = Title.Foreground(PrimaryColor)
	Summary = Summary.Foreground(PrimaryColor)
	DropdownActive = DropdownActive.Background(PrimaryColor)
	InputBoxFocused = InputBoxFocused.BorderForeground(PrimaryColor)
}
