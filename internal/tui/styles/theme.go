// Package styles collects the lipgloss styles the monitor view composes
// its layout from, so every box and accent pulls from the same palette.
package styles

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/ttylabs/serialpcap/internal/tui/colors"
)

var (
	// ContentBorderStyle separates the frame table from the status bar.
	ContentBorderStyle = lipgloss.NewStyle().
				BorderTop(true).
				BorderStyle(lipgloss.NormalBorder()).
				BorderForeground(colors.Surface1)

	// HelpPanelStyle boxes the expanded key help below the table.
	HelpPanelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colors.Surface2).
			Padding(1, 2).
			Margin(1, 0)

	// PlaceholderStyle renders the waiting text shown until the first
	// window size message arrives.
	PlaceholderStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(colors.Mauve).
				Align(lipgloss.Center)

	// ErrorStyle renders connection failures in the content area.
	ErrorStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colors.Red).
			Align(lipgloss.Center)
)
