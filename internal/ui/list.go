package ui

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/pbaille/trip/internal/domain"
	"github.com/pbaille/trip/internal/itinerary"
)

// visible is the active day's list after the tag filter.
func (m Model) visible() []domain.Spot {
	return m.view.Visible(m.spots())
}

func (m *Model) clampCursor() {
	n := len(m.visible())
	if m.cursor >= n {
		m.cursor = n - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

func (m *Model) setDay(day domain.Day) {
	if day == m.view.ActiveDay {
		return
	}
	m.view.SetActiveDay(day)
	if day != domain.Other && m.view.FilterOpen {
		m.view.Back()
	}
	m.cursor = 0
}

func (m Model) handleListKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	list := m.visible()

	switch {
	case key.Matches(msg, m.keys.NextDay):
		m.setDay(m.view.ActiveDay.Next())
	case key.Matches(msg, m.keys.PrevDay):
		m.setDay(m.view.ActiveDay.Next().Next())
	case key.Matches(msg, m.keys.Day1):
		m.setDay(domain.Day1)
	case key.Matches(msg, m.keys.Day2):
		m.setDay(domain.Day2)
	case key.Matches(msg, m.keys.Other):
		m.setDay(domain.Other)

	case key.Matches(msg, m.keys.MoveUp):
		if m.view.Reorder {
			return m.moveSelected(-1)
		}
	case key.Matches(msg, m.keys.MoveDown):
		if m.view.Reorder {
			return m.moveSelected(1)
		}
	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(msg, m.keys.Down):
		if m.cursor < len(list)-1 {
			m.cursor++
		}

	case key.Matches(msg, m.keys.Open):
		if m.cursor < len(list) && !m.view.Reorder {
			m.view.OpenDetail(list[m.cursor].ID)
		}
	case key.Matches(msg, m.keys.Reorder):
		if m.view.Reorder {
			m.view.Back()
		} else {
			m.view.EnterReorder()
		}
	case key.Matches(msg, m.keys.Filter):
		if m.view.ActiveDay == domain.Other {
			m.view.OpenFilter()
			m.filterCursor = 0
		}
	case key.Matches(msg, m.keys.Add):
		if m.view.Reorder {
			break
		}
		m.form = newAddForm(m.view.ActiveDay)
		m.view.ShowView(itinerary.ViewAdd)
		return m, m.form.focus()
	case key.Matches(msg, m.keys.Footprints):
		if m.view.Reorder {
			break
		}
		if m.view.ActiveDay != domain.Other {
			m.fpDay = m.view.ActiveDay
		}
		m.showQR = false
		m.view.ShowView(itinerary.ViewFootprints)
	}
	return m, nil
}

// moveSelected swaps the selected spot with its neighbour and hands the new
// sequence to the coordinator, which updates the store at once and batches
// the write. Spots hidden by the tag filter keep their slots.
func (m Model) moveSelected(delta int) (tea.Model, tea.Cmd) {
	list := m.visible()
	i, j := m.cursor, m.cursor+delta
	if i < 0 || i >= len(list) || j < 0 || j >= len(list) {
		return m, nil
	}
	list[i], list[j] = list[j], list[i]

	full := itinerary.DayList(m.spots(), m.view.ActiveDay, nil)
	if _, err := m.coord.Reorder(m.view.ActiveDay, interleave(full, list)); err != nil {
		m.setError(err)
		return m, nil
	}
	m.cursor = j
	return m, nil
}

// interleave returns the ids of full with the slots held by shown spots
// refilled from shown in its new order.
func interleave(full, shown []domain.Spot) []string {
	isShown := make(map[string]bool, len(shown))
	for _, s := range shown {
		isShown[s.ID] = true
	}
	ids := make([]string, 0, len(full))
	next := 0
	for _, s := range full {
		if isShown[s.ID] && next < len(shown) {
			ids = append(ids, shown[next].ID)
			next++
			continue
		}
		ids = append(ids, s.ID)
	}
	return ids
}

// filterTags lists the vocabulary plus any other tags in use, so stored
// tags outside the vocabulary stay filterable.
func (m Model) filterTags() []string {
	tags := append([]string(nil), domain.Tags...)
	var extra []string
	for _, t := range itinerary.UsedTags(m.spots()) {
		if !domain.KnownTag(t) {
			extra = append(extra, t)
		}
	}
	sort.Strings(extra)
	return append(tags, extra...)
}

func (m Model) handleFilterKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	tags := m.filterTags()
	switch {
	case key.Matches(msg, m.keys.Up):
		if m.filterCursor > 0 {
			m.filterCursor--
		}
	case key.Matches(msg, m.keys.Down):
		if m.filterCursor < len(tags)-1 {
			m.filterCursor++
		}
	case key.Matches(msg, m.keys.ToggleTag):
		if m.filterCursor < len(tags) {
			m.view.ToggleFilterTag(tags[m.filterCursor])
			m.clampCursor()
		}
	case key.Matches(msg, m.keys.ResetFilter):
		m.view.ResetFilter()
	case key.Matches(msg, m.keys.Filter):
		m.back()
	}
	return m, nil
}

func (m Model) renderList() string {
	var b strings.Builder
	list := m.visible()
	now := m.now()

	if m.view.Reorder {
		b.WriteString(m.styles.WarningText.Render("  Reorder mode: K/J moves the selected spot"))
		b.WriteString("\n\n")
	}
	if tags := m.view.FilterTags(); len(tags) > 0 && m.view.ActiveDay == domain.Other {
		b.WriteString(m.styles.MutedText.Render("  Filter: " + strings.Join(tags, ", ")))
		b.WriteString("\n\n")
	}

	if len(list) == 0 && m.loaded {
		b.WriteString(m.styles.FaintText.Render("  Nothing here yet. Press n to add a spot."))
	}

	for i, s := range list {
		b.WriteString(m.renderRow(i, s, now))
		b.WriteString("\n")
	}

	if m.view.FilterOpen {
		b.WriteString("\n")
		b.WriteString(m.renderFilterPanel())
	}
	return b.String()
}

func (m Model) renderRow(i int, s domain.Spot, now time.Time) string {
	check := "[ ]"
	if s.IsVisited {
		check = "[x]"
	}
	prefix := "  "
	if i == m.cursor {
		prefix = "> "
		if m.view.Reorder {
			prefix = "= "
		}
	}

	line := fmt.Sprintf("%s%s %d. %s", prefix, check, i+1, s.Name)
	if i == m.cursor {
		line = m.styles.Selected.Render(line)
	} else if s.IsVisited {
		line = m.styles.MutedText.Render(line)
	} else {
		line = m.styles.Text.Render(line)
	}

	var extra []string
	if s.OpeningHours != "" {
		state := itinerary.HoursStatus(s.OpeningHours, now)
		extra = append(extra, m.styles.HoursStyle(state).Render(state.Label()))
	}
	if len(s.Tags) > 0 {
		extra = append(extra, m.styles.FaintText.Render("#"+strings.Join(s.Tags, " #")))
	}
	if len(extra) == 0 {
		return line
	}
	return line + "  " + strings.Join(extra, "  ")
}

func (m Model) renderFilterPanel() string {
	var b strings.Builder
	b.WriteString(m.styles.AccentText.Render("Filter by tag"))
	b.WriteString("\n")
	for i, t := range m.filterTags() {
		mark := "[ ]"
		if m.view.FilterActive(t) {
			mark = "[x]"
		}
		line := fmt.Sprintf("%s %s", mark, t)
		if i == m.filterCursor {
			line = m.styles.Selected.Render("> " + line)
		} else {
			line = "  " + line
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	return m.styles.Panel.Render(strings.TrimRight(b.String(), "\n"))
}
