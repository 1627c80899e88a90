package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/pbaille/trip/internal/domain"
	"github.com/pbaille/trip/internal/itinerary"
)

// selected returns the spot open in the detail screen.
func (m Model) selected() (domain.Spot, bool) {
	if m.coord == nil || m.view.Selected == "" {
		return domain.Spot{}, false
	}
	return m.coord.Spots().Get(m.view.Selected)
}

func (m Model) handleDetailKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	spot, ok := m.selected()
	if !ok {
		// Deleted underneath us.
		m.back()
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Back):
		m.back()
	case key.Matches(msg, m.keys.Quit):
		return m.quit()
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll

	case key.Matches(msg, m.keys.ToggleVisited):
		ctx, coord, id := m.ctx, m.coord, spot.ID
		note := "Marked visited"
		if spot.IsVisited {
			note = "Marked not visited"
		}
		return m, opCmd(note, func() error {
			_, err := coord.ToggleVisited(ctx, id)
			return err
		})

	case key.Matches(msg, m.keys.MoveDay):
		ctx, coord, id := m.ctx, m.coord, spot.ID
		target := spot.Day.Next()
		return m, opCmd("Moved to "+string(target), func() error {
			return coord.MoveToDay(ctx, id, target)
		})

	case key.Matches(msg, m.keys.Delete):
		m.confirmDelete = true

	case key.Matches(msg, m.keys.EditNotes):
		return m.startEdit(editNotes, spot.Notes)
	case key.Matches(msg, m.keys.EditAddress):
		return m.startEdit(editAddress, spot.Address)
	case key.Matches(msg, m.keys.EditTags):
		return m.startEdit(editTags, strings.Join(spot.Tags, ", "))
	case key.Matches(msg, m.keys.EditHours):
		return m.startEdit(editHours, spot.OpeningHours)
	}
	return m, nil
}

func (m Model) handleConfirmKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Confirm):
		m.confirmDelete = false
		spot, ok := m.selected()
		if !ok {
			m.back()
			return m, nil
		}
		ctx, coord := m.ctx, m.coord
		m.back()
		return m, opCmd("Deleted "+spot.Name, func() error {
			return coord.Delete(ctx, spot.ID, func(string) bool { return true })
		})
	case key.Matches(msg, m.keys.Deny):
		m.confirmDelete = false
	}
	return m, nil
}

func (m Model) startEdit(field editField, value string) (tea.Model, tea.Cmd) {
	m.editing = field
	m.editInput.Reset()
	m.editInput.Placeholder = field.label()
	m.editInput.SetValue(value)
	m.editInput.CursorEnd()
	return m, m.editInput.Focus()
}

func (m Model) handleEditKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Back):
		m.editing = editNone
		m.editInput.Blur()
		return m, nil
	case key.Matches(msg, m.keys.Open):
		return m.commitEdit()
	}

	var cmd tea.Cmd
	m.editInput, cmd = m.editInput.Update(msg)
	return m, cmd
}

// commitEdit validates the inline value and hands it to the coordinator.
// Invalid hours keep the editor open.
func (m Model) commitEdit() (tea.Model, tea.Cmd) {
	spot, ok := m.selected()
	field := m.editing
	value := strings.TrimSpace(m.editInput.Value())
	if !ok {
		m.editing = editNone
		m.back()
		return m, nil
	}

	ctx, coord, geocoder, id := m.ctx, m.coord, m.geocoder, spot.ID
	var cmd tea.Cmd
	switch field {
	case editNotes:
		cmd = opCmd("Notes saved", func() error {
			return coord.Update(ctx, id, domain.Patch{Notes: &value})
		})
	case editAddress:
		cmd = opCmd("Address saved", func() error {
			return coord.UpdateAddress(ctx, id, value, geocoder)
		})
	case editTags:
		tags := splitList(value)
		cmd = opCmd("Tags saved", func() error {
			return coord.Update(ctx, id, domain.Patch{}.WithTags(tags))
		})
	case editHours:
		hours, err := itinerary.CleanHours(value)
		if err != nil {
			m.setError(err)
			return m, nil
		}
		cmd = opCmd("Opening hours saved", func() error {
			return coord.Update(ctx, id, domain.Patch{OpeningHours: &hours})
		})
	}

	m.editing = editNone
	m.editInput.Blur()
	return m, cmd
}

// splitList reads a comma separated field.
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func (m Model) renderDetail() string {
	spot, ok := m.selected()
	if !ok {
		return m.styles.FaintText.Render("  This spot is gone.")
	}

	var b strings.Builder
	b.WriteString(m.styles.AccentText.Render(spot.Name))
	if spot.IsVisited {
		b.WriteString("  " + m.styles.SuccessText.Render("visited"))
	}
	b.WriteString("\n")
	b.WriteString(m.styles.MutedText.Render(fmt.Sprintf("%s  #%d", spot.Day, spot.Order+1)))
	b.WriteString("\n\n")

	if spot.Description != "" {
		b.WriteString(spot.Description)
		b.WriteString("\n\n")
	}

	field := func(label, value string) {
		if value == "" {
			value = m.styles.FaintText.Render("(none)")
		}
		b.WriteString(m.styles.MutedText.Render(fmt.Sprintf("%-9s", label)))
		b.WriteString(" ")
		b.WriteString(value)
		b.WriteString("\n")
	}

	hours := spot.OpeningHours
	if hours != "" {
		state := itinerary.HoursStatus(hours, m.now())
		hours += "  " + m.styles.HoursStyle(state).Render(state.Label())
	}
	field("Hours", hours)
	field("Address", spot.Address)
	field("Location", fmt.Sprintf("%.5f, %.5f", spot.Lat, spot.Lng))
	field("Tags", strings.Join(spot.Tags, ", "))
	field("Notes", spot.Notes)
	if len(spot.Images) > 0 {
		field("Images", fmt.Sprintf("%d", len(spot.Images)))
	}

	switch {
	case m.confirmDelete:
		b.WriteString("\n")
		b.WriteString(m.styles.DangerText.Render(fmt.Sprintf("Delete %q from the itinerary? (y/n)", spot.Name)))
	case m.editing != editNone:
		b.WriteString("\n")
		b.WriteString(m.styles.AccentText.Render(m.editing.label()))
		b.WriteString("\n")
		b.WriteString(m.editInput.View())
	}

	return m.styles.Panel.Render(strings.TrimRight(b.String(), "\n"))
}
