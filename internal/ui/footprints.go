package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/pbaille/trip/internal/domain"
	"github.com/pbaille/trip/internal/footprints"
	"github.com/pbaille/trip/internal/itinerary"
)

const (
	mapMinWidth  = 24
	mapMinHeight = 8
)

func (m Model) handleFootprintsKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.NextDay), key.Matches(msg, m.keys.PrevDay):
		if m.fpDay == domain.Day1 {
			m.fpDay = domain.Day2
		} else {
			m.fpDay = domain.Day1
		}
		m.showQR = false
	case key.Matches(msg, m.keys.Day1):
		m.fpDay = domain.Day1
	case key.Matches(msg, m.keys.Day2):
		m.fpDay = domain.Day2
	case key.Matches(msg, m.keys.ShowQR):
		m.showQR = !m.showQR
	}
	return m, nil
}

// mapSize fits the plot into the window, leaving room for the header,
// progress bar and footer.
func (m Model) mapSize() (int, int) {
	w := m.width - 6
	h := m.height - 14
	return max(w, mapMinWidth), max(h, mapMinHeight)
}

func (m Model) renderFootprints() string {
	all := m.spots()
	day := itinerary.DayList(all, m.fpDay, nil)
	pct := itinerary.Progress(all, m.fpDay)

	var b strings.Builder
	visited := 0
	for _, s := range day {
		if s.IsVisited {
			visited++
		}
	}

	bar := progress.New(
		progress.WithSolidFill(m.theme.Success),
		progress.WithWidth(max(m.width-24, 10)),
		progress.WithoutPercentage(),
	)
	b.WriteString(bar.ViewAs(float64(pct) / 100))
	b.WriteString(m.styles.MutedText.Render(fmt.Sprintf("  %d%%  %d/%d visited", pct, visited, len(day))))
	b.WriteString("\n\n")

	if len(day) == 0 {
		b.WriteString(m.styles.FaintText.Render("  No spots planned for " + string(m.fpDay)))
		return b.String()
	}

	w, h := m.mapSize()
	plot := footprints.Plot(day, w, h)
	done := lipgloss.NewStyle().Foreground(lipgloss.Color(m.theme.Success)).Bold(true)
	todo := lipgloss.NewStyle().Foreground(lipgloss.Color(m.theme.Accent))
	b.WriteString(m.styles.Panel.Render(plot.Render(func(r rune, v bool) string {
		if v {
			return done.Render(string(r))
		}
		return todo.Render(string(r))
	})))
	b.WriteString("\n")

	for _, mk := range plot.Markers {
		line := fmt.Sprintf("  %c  %s", mk.Label, mk.Spot.Name)
		if mk.Visited {
			b.WriteString(done.Render(line))
		} else {
			b.WriteString(m.styles.MutedText.Render(line))
		}
		b.WriteString("\n")
	}

	link := itinerary.DirectionsURL(itinerary.VisitedPath(all, m.fpDay))
	if link == "" {
		b.WriteString("\n")
		b.WriteString(m.styles.FaintText.Render("  Visit two spots to get a route."))
		return b.String()
	}

	b.WriteString("\n")
	b.WriteString(m.styles.AccentText.Render("  Route "))
	b.WriteString(m.styles.FaintText.Render(link))
	if m.showQR {
		qr, err := footprints.QR(link)
		if err != nil {
			b.WriteString("\n")
			b.WriteString(m.styles.DangerText.Render(err.Error()))
		} else {
			b.WriteString("\n\n")
			b.WriteString(qr)
		}
	}
	return b.String()
}
