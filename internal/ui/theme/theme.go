package theme

import (
	"charm.land/lipgloss/v2"
)

// Color palette: money green on dark slate.
var (
	Primary = lipgloss.Color("#22C55E") // Money Green
	Accent  = lipgloss.Color("#F97316") // Orange
	Text    = lipgloss.Color("#F8FAFC") // White
	TextDim = lipgloss.Color("#94A3B8") // Slate
	BgCard  = lipgloss.Color("#1E293B") // Dark Slate
	Error   = lipgloss.Color("#EF4444") // Red
)

// Typography
var (
	Title = lipgloss.NewStyle().
		Bold(true).
		Foreground(Text)

	Body = lipgloss.NewStyle().
		Foreground(TextDim)

	Hint = lipgloss.NewStyle().
		Foreground(TextDim).
		Italic(true)

	Badge = lipgloss.NewStyle().
		Foreground(Accent).
		Bold(true)

	ErrorText = lipgloss.NewStyle().
			Foreground(Error)
)

// Layout
var (
	Card = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(Primary).
		Padding(1, 2)

	// CardFading keeps the card's footprint while it exits.
	CardFading = lipgloss.NewStyle().
			Border(lipgloss.HiddenBorder()).
			Foreground(TextDim).
			Padding(1, 2)
)

// Components
var (
	ButtonActive = lipgloss.NewStyle().
		Background(Primary).
		Foreground(BgCard).
		Bold(true).
		Padding(0, 2)
)
