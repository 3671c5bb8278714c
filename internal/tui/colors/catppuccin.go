// Package colors holds the Catppuccin Mocha palette values the capture UI
// draws from. Only the shades the views use are defined here.
package colors

import "github.com/charmbracelet/lipgloss"

// Background and text shades, darkest to lightest
var (
	Base     = lipgloss.Color("#1e1e2e")
	Surface0 = lipgloss.Color("#313244")
	Surface1 = lipgloss.Color("#45475a")
	Surface2 = lipgloss.Color("#585b70")
	Subtext0 = lipgloss.Color("#a6adc8")
	Subtext1 = lipgloss.Color("#bac2de")
	Text     = lipgloss.Color("#cdd6f4")
)

// Accents
var (
	Blue   = lipgloss.Color("#89b4fa") // follow mode, hints
	Green  = lipgloss.Color("#a6e3a1") // connected, scroll chip
	Yellow = lipgloss.Color("#f9e2af") // warnings, pending connection
	Red    = lipgloss.Color("#f38ba8") // errors, disconnected
	Mauve  = lipgloss.Color("#cba6f7") // port identity
)
