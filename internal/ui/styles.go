package ui

import (
	"os"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

// Color palette for the picker UI
var (
	PrimaryColor = lipgloss.Color("#7D56F4") // Purple - titles, selection
	SuccessColor = lipgloss.Color("#43BF6D") // Green - resolved receivers
	ErrorColor   = lipgloss.Color("#FF5555") // Red - scan failures
	MutedColor   = lipgloss.Color("#626262") // Gray - secondary info
	TextColor    = lipgloss.Color("#FFFFFF") // White - main content
)

// Layout constants
const (
	MinTerminalWidth = 60  // Minimum supported terminal width
	MaxContentWidth  = 100 // Maximum content width before capping
)

var (
	// TitleStyle is for the list title
	TitleStyle = lipgloss.NewStyle().
			Foreground(TextColor).
			Background(PrimaryColor).
			Bold(true).
			Padding(0, 1)

	// SpinnerStyle is for the scanning spinner
	SpinnerStyle = lipgloss.NewStyle().
			Foreground(PrimaryColor)

	// ScanningStyle is for the "scanning..." line next to the spinner
	ScanningStyle = lipgloss.NewStyle().
			Foreground(TextColor).
			PaddingLeft(1)

	// ErrorStyle is for scan failure messages
	ErrorStyle = lipgloss.NewStyle().
			Foreground(ErrorColor).
			Bold(true).
			PaddingLeft(2)

	// EmptyStyle is for the no-receivers-found screen
	EmptyStyle = lipgloss.NewStyle().
			Foreground(MutedColor).
			PaddingLeft(2)

	// HelpStyle is for the key hint line at the bottom
	HelpStyle = lipgloss.NewStyle().
			Foreground(MutedColor).
			PaddingLeft(2)
)

// GetContentWidth returns the usable content width for the current
// terminal, clamped to the supported range.
func GetContentWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width < MinTerminalWidth {
		return MinTerminalWidth
	}
	if width > MaxContentWidth {
		return MaxContentWidth
	}
	return width
}
