package ui

import (
	"github.com/charmbracelet/bubbles/key"

	"github.com/pbaille/trip/internal/domain"
	"github.com/pbaille/trip/internal/itinerary"
)

// keyMap defines all keyboard bindings for the application.
type keyMap struct {
	// Global
	Quit      key.Binding
	ForceQuit key.Binding
	Back      key.Binding
	Help      key.Binding

	// Days and screens
	NextDay    key.Binding
	PrevDay    key.Binding
	Day1       key.Binding
	Day2       key.Binding
	Other      key.Binding
	Add        key.Binding
	Footprints key.Binding

	// List
	Up       key.Binding
	Down     key.Binding
	Open     key.Binding
	Reorder  key.Binding
	MoveUp   key.Binding
	MoveDown key.Binding
	Filter   key.Binding

	// Filter panel
	ToggleTag   key.Binding
	ResetFilter key.Binding

	// Detail
	ToggleVisited key.Binding
	MoveDay       key.Binding
	Delete        key.Binding
	EditNotes     key.Binding
	EditAddress   key.Binding
	EditTags      key.Binding
	EditHours     key.Binding
	Confirm       key.Binding
	Deny          key.Binding

	// Forms
	Submit    key.Binding
	NextField key.Binding
	PrevField key.Binding
	CycleDay  key.Binding

	// Footprints
	ShowQR key.Binding
}

// DefaultKeyMap returns the default key bindings.
func DefaultKeyMap() keyMap {
	return keyMap{
		Quit:      key.NewBinding(key.WithKeys("q"), key.WithHelp("q", "quit")),
		ForceQuit: key.NewBinding(key.WithKeys("ctrl+c"), key.WithHelp("ctrl+c", "quit now")),
		Back:      key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
		Help:      key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),

		NextDay:    key.NewBinding(key.WithKeys("tab", "l", "right"), key.WithHelp("tab", "next day")),
		PrevDay:    key.NewBinding(key.WithKeys("shift+tab", "h", "left"), key.WithHelp("shift+tab", "prev day")),
		Day1:       key.NewBinding(key.WithKeys("1"), key.WithHelp("1", "Day 1")),
		Day2:       key.NewBinding(key.WithKeys("2"), key.WithHelp("2", "Day 2")),
		Other:      key.NewBinding(key.WithKeys("3"), key.WithHelp("3", "Other")),
		Add:        key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "add spot")),
		Footprints: key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "footprints")),

		Up:       key.NewBinding(key.WithKeys("k", "up"), key.WithHelp("k/up", "up")),
		Down:     key.NewBinding(key.WithKeys("j", "down"), key.WithHelp("j/down", "down")),
		Open:     key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "open")),
		Reorder:  key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reorder mode")),
		MoveUp:   key.NewBinding(key.WithKeys("K", "shift+up", "ctrl+up"), key.WithHelp("K", "move up")),
		MoveDown: key.NewBinding(key.WithKeys("J", "shift+down", "ctrl+down"), key.WithHelp("J", "move down")),
		Filter:   key.NewBinding(key.WithKeys("f"), key.WithHelp("f", "filter tags")),

		ToggleTag:   key.NewBinding(key.WithKeys(" ", "enter"), key.WithHelp("space", "toggle tag")),
		ResetFilter: key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "reset")),

		ToggleVisited: key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "visited")),
		MoveDay:       key.NewBinding(key.WithKeys("m"), key.WithHelp("m", "move to next day")),
		Delete:        key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "delete")),
		EditNotes:     key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "notes")),
		EditAddress:   key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "address")),
		EditTags:      key.NewBinding(key.WithKeys("t"), key.WithHelp("t", "tags")),
		EditHours:     key.NewBinding(key.WithKeys("o"), key.WithHelp("o", "hours")),
		Confirm:       key.NewBinding(key.WithKeys("y"), key.WithHelp("y", "yes")),
		Deny:          key.NewBinding(key.WithKeys("n", "esc"), key.WithHelp("n", "no")),

		Submit:    key.NewBinding(key.WithKeys("ctrl+s"), key.WithHelp("ctrl+s", "save")),
		NextField: key.NewBinding(key.WithKeys("tab", "down"), key.WithHelp("tab", "next field")),
		PrevField: key.NewBinding(key.WithKeys("shift+tab", "up"), key.WithHelp("shift+tab", "prev field")),
		CycleDay:  key.NewBinding(key.WithKeys("ctrl+d"), key.WithHelp("ctrl+d", "day")),

		ShowQR: key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "QR code")),
	}
}

// bindings is a help.KeyMap over a fixed set of bindings, so the footer can
// show only what applies to the current screen.
type bindings []key.Binding

func (b bindings) ShortHelp() []key.Binding  { return b }
func (b bindings) FullHelp() [][]key.Binding { return [][]key.Binding{b} }

// helpFor returns the bindings shown in the footer for the current state.
func (m Model) helpFor() bindings {
	k := m.keys
	switch {
	case m.confirmDelete:
		return bindings{k.Confirm, k.Deny}
	case m.editing != editNone:
		return bindings{k.Open, k.Back}
	case m.view.Selected != "":
		return bindings{k.ToggleVisited, k.MoveDay, k.Delete, k.EditNotes, k.EditAddress, k.EditTags, k.EditHours, k.Back}
	case m.view.Current == itinerary.ViewAdd:
		return bindings{k.NextField, k.PrevField, k.CycleDay, k.Submit, k.Back}
	case m.view.Current == itinerary.ViewFootprints:
		return bindings{k.NextDay, k.ShowQR, k.Back, k.Quit}
	case m.view.FilterOpen:
		return bindings{k.Up, k.Down, k.ToggleTag, k.ResetFilter, k.Back}
	case m.view.Reorder:
		return bindings{k.Up, k.Down, k.MoveUp, k.MoveDown, k.Reorder, k.Back}
	}
	out := bindings{k.NextDay, k.Up, k.Down, k.Open, k.Reorder}
	if m.view.ActiveDay == domain.Other {
		out = append(out, k.Filter)
	}
	return append(out, k.Add, k.Footprints, k.Quit)
}
