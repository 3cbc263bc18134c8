package panel

import (
	"github.com/charmbracelet/lipgloss"
)

// Color palette
var (
	primaryColor   = lipgloss.Color("#7D56F4") // Purple
	successColor   = lipgloss.Color("#43BF6D") // Green
	errorColor     = lipgloss.Color("#FF5555") // Red
	progressColor  = lipgloss.Color("#FFA500") // Orange
	textColor      = lipgloss.Color("#FFFFFF") // White
	subtleColor    = lipgloss.Color("#626262") // Gray
	highlightColor = lipgloss.Color("#43BF6D") // Green
)

// Styles
var (
	titleStyle = lipgloss.NewStyle().
			Foreground(primaryColor).
			Bold(true).
			Padding(1, 0)

	// Tab bar: exactly one tab renders with the active style
	activeTabStyle = lipgloss.NewStyle().
			Foreground(textColor).
			Background(primaryColor).
			Bold(true).
			Padding(0, 2)

	inactiveTabStyle = lipgloss.NewStyle().
				Foreground(subtleColor).
				Padding(0, 2)

	sectionTitleStyle = lipgloss.NewStyle().
				Foreground(primaryColor).
				Bold(true).
				MarginTop(1)

	fieldTitleStyle = lipgloss.NewStyle().
			Foreground(textColor).
			Width(22)

	selectedFieldTitleStyle = lipgloss.NewStyle().
				Foreground(highlightColor).
				Bold(true).
				Width(22)

	fieldValueStyle = lipgloss.NewStyle().
			Foreground(textColor)

	fieldHelpStyle = lipgloss.NewStyle().
			Foreground(subtleColor).
			Italic(true)

	successMessageStyle = lipgloss.NewStyle().
				Foreground(successColor)

	errorMessageStyle = lipgloss.NewStyle().
				Foreground(errorColor)

	progressMessageStyle = lipgloss.NewStyle().
				Foreground(progressColor)

	optionStyle = lipgloss.NewStyle().
			PaddingLeft(6).
			Foreground(textColor)

	selectedOptionStyle = lipgloss.NewStyle().
				PaddingLeft(4).
				Foreground(highlightColor).
				Bold(true)

	errorScreenStyle = lipgloss.NewStyle().
				Foreground(errorColor).
				Bold(true).
				Padding(1, 2).
				Border(lipgloss.RoundedBorder()).
				BorderForeground(errorColor)

	helpStyle = lipgloss.NewStyle().
			Foreground(subtleColor).
			Padding(1, 0)

	spinnerStyle = lipgloss.NewStyle().
			Foreground(primaryColor)
)

// Row cursor markers
const (
	cursorMarker = "→ "
	noMarker     = "  "
)
