package ui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/pbaille/trip/internal/itinerary"
)

// Theme defines colors for the UI.
type Theme struct {
	Name string

	Text    string
	Muted   string
	Faint   string
	Accent  string
	Success string
	Warning string
	Danger  string
	Border  string

	SelectionBg   string
	SelectionText string
}

// Styles are pre-built Lipgloss styles for a theme.
type Styles struct {
	Text        lipgloss.Style
	MutedText   lipgloss.Style
	FaintText   lipgloss.Style
	AccentText  lipgloss.Style
	SuccessText lipgloss.Style
	WarningText lipgloss.Style
	DangerText  lipgloss.Style

	Title     lipgloss.Style
	Tab       lipgloss.Style
	ActiveTab lipgloss.Style
	Selected  lipgloss.Style
	Panel     lipgloss.Style
	Footer    lipgloss.Style
}

// Styles returns Lipgloss styles for this theme.
func (t Theme) Styles() Styles {
	return Styles{
		Text:        lipgloss.NewStyle().Foreground(lipgloss.Color(t.Text)),
		MutedText:   lipgloss.NewStyle().Foreground(lipgloss.Color(t.Muted)),
		FaintText:   lipgloss.NewStyle().Foreground(lipgloss.Color(t.Faint)),
		AccentText:  lipgloss.NewStyle().Foreground(lipgloss.Color(t.Accent)).Bold(true),
		SuccessText: lipgloss.NewStyle().Foreground(lipgloss.Color(t.Success)).Bold(true),
		WarningText: lipgloss.NewStyle().Foreground(lipgloss.Color(t.Warning)),
		DangerText:  lipgloss.NewStyle().Foreground(lipgloss.Color(t.Danger)).Bold(true),

		Title: lipgloss.NewStyle().
			Foreground(lipgloss.Color(t.Accent)).
			Bold(true).
			Padding(0, 1),

		Tab: lipgloss.NewStyle().
			Foreground(lipgloss.Color(t.Muted)).
			Padding(0, 2),

		ActiveTab: lipgloss.NewStyle().
			Foreground(lipgloss.Color(t.SelectionText)).
			Background(lipgloss.Color(t.Accent)).
			Bold(true).
			Padding(0, 2),

		Selected: lipgloss.NewStyle().
			Background(lipgloss.Color(t.SelectionBg)).
			Foreground(lipgloss.Color(t.SelectionText)),

		Panel: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color(t.Border)).
			Padding(0, 1),

		Footer: lipgloss.NewStyle().
			Foreground(lipgloss.Color(t.Muted)).
			Padding(0, 1),
	}
}

// HoursStyle colors an opening-hours badge.
func (s Styles) HoursStyle(state itinerary.OpenState) lipgloss.Style {
	switch state {
	case itinerary.StateOpen:
		return s.SuccessText
	case itinerary.StateClosed:
		return s.DangerText
	default:
		return s.FaintText
	}
}

// DefaultTheme is the temple-brick palette.
func DefaultTheme() Theme {
	return Theme{
		Name:          "Brick",
		Text:          "#E7E5E4",
		Muted:         "#A8A29E",
		Faint:         "#78716C",
		Accent:        "#C2410C",
		Success:       "#65A30D",
		Warning:       "#D97706",
		Danger:        "#DC2626",
		Border:        "#57534E",
		SelectionBg:   "#8C2D1F",
		SelectionText: "#FAFAF9",
	}
}
