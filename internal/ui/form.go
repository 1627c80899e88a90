package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/pbaille/trip/internal/domain"
	"github.com/pbaille/trip/internal/itinerary"
	"github.com/pbaille/trip/internal/syncer"
)

const (
	fieldName = iota
	fieldAddress
	fieldHours
	fieldTags
	fieldNotes
	fieldImage
	fieldCount
)

var fieldLabels = [fieldCount]string{
	fieldName:    "Name",
	fieldAddress: "Address",
	fieldHours:   "Hours",
	fieldTags:    "Tags",
	fieldNotes:   "Notes",
	fieldImage:   "Image URL",
}

// addForm is the new-spot screen.
type addForm struct {
	inputs []textinput.Model
	active int
	day    domain.Day
	err    string
	saving bool
}

func newAddForm(day domain.Day) addForm {
	inputs := make([]textinput.Model, fieldCount)
	for i := range inputs {
		in := textinput.New()
		in.CharLimit = 500
		in.Prompt = ""
		inputs[i] = in
	}
	inputs[fieldName].Placeholder = "Chihkan Tower"
	inputs[fieldAddress].Placeholder = "No. 212, Section 2, Chihkan St"
	inputs[fieldHours].Placeholder = "08:30 - 21:30 or 24-hour"
	inputs[fieldTags].Placeholder = strings.Join(domain.Tags[:3], ", ")
	inputs[fieldImage].Placeholder = "https://..."

	if !day.Valid() {
		day = domain.Day1
	}
	return addForm{inputs: inputs, day: day}
}

// focus moves the caret to the current field.
func (f *addForm) focus() tea.Cmd {
	for i := range f.inputs {
		f.inputs[i].Blur()
	}
	return f.inputs[f.active].Focus()
}

func (f *addForm) move(delta int) tea.Cmd {
	f.active = (f.active + delta + fieldCount) % fieldCount
	return f.focus()
}

func (f addForm) value(field int) string {
	return strings.TrimSpace(f.inputs[field].Value())
}

// spot validates the form into a NewSpot.
func (f addForm) spot() (domain.NewSpot, error) {
	hours, err := itinerary.CleanHours(f.value(fieldHours))
	if err != nil {
		return domain.NewSpot{}, err
	}
	n := domain.NewSpot{
		Name:         f.value(fieldName),
		Address:      f.value(fieldAddress),
		OpeningHours: hours,
		Tags:         domain.NormalizeTags(splitList(f.value(fieldTags))),
		Notes:        f.value(fieldNotes),
		Day:          f.day,
	}
	if img := f.value(fieldImage); img != "" {
		n.Images = []string{img}
	}
	if err := n.Validate(); err != nil {
		return domain.NewSpot{}, err
	}
	return n, nil
}

func (m Model) handleFormKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Back):
		m.back()
		return m, nil
	case key.Matches(msg, m.keys.Submit):
		return m.submitForm()
	case key.Matches(msg, m.keys.CycleDay):
		m.form.day = m.form.day.Next()
		return m, nil
	case key.Matches(msg, m.keys.NextField):
		return m, m.form.move(1)
	case key.Matches(msg, m.keys.PrevField):
		return m, m.form.move(-1)
	case msg.Type == tea.KeyEnter:
		if m.form.active == fieldCount-1 {
			return m.submitForm()
		}
		return m, m.form.move(1)
	}
	return m.updateForm(msg)
}

// updateForm forwards input to the focused field.
func (m Model) updateForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	i := m.form.active
	m.form.inputs[i], cmd = m.form.inputs[i].Update(msg)
	return m, cmd
}

func (m Model) submitForm() (tea.Model, tea.Cmd) {
	if m.form.saving {
		return m, nil
	}
	n, err := m.form.spot()
	if err != nil {
		m.form.err = err.Error()
		return m, nil
	}

	m.form.err = ""
	m.form.saving = true
	m.setStatus("Adding " + n.Name + "...")
	return m, addCmd(m.ctx, m.coord, m.geocoder, n)
}

// addCmd inserts the spot off the UI goroutine. The form stays open until
// the result arrives so a failed insert keeps what was typed.
func addCmd(ctx context.Context, coord *syncer.Coordinator, g syncer.Geocoder, n domain.NewSpot) tea.Cmd {
	return func() tea.Msg {
		spot, err := coord.AddWithLookup(ctx, n, g)
		return addedMsg{spot: spot, err: err}
	}
}

// added leaves the form for the new spot's day once the insert succeeded.
func (m Model) added(msg addedMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		m.setError(msg.err)
		if m.view.Current == itinerary.ViewAdd {
			m.form.err = msg.err.Error()
			m.form.saving = false
		}
		return m, nil
	}
	if m.view.Current == itinerary.ViewAdd {
		m.back()
	}
	m.setDay(msg.spot.Day)
	m.setStatus("Added " + msg.spot.Name)
	return m, nil
}

func (m Model) renderForm() string {
	var b strings.Builder
	b.WriteString(m.styles.AccentText.Render("New spot"))
	b.WriteString("\n\n")

	for i, in := range m.form.inputs {
		label := fmt.Sprintf("%-10s", fieldLabels[i])
		if i == m.form.active {
			b.WriteString(m.styles.AccentText.Render(label))
		} else {
			b.WriteString(m.styles.MutedText.Render(label))
		}
		b.WriteString(" ")
		b.WriteString(in.View())
		b.WriteString("\n")
	}

	b.WriteString(m.styles.MutedText.Render(fmt.Sprintf("%-10s", "Day")))
	b.WriteString(" ")
	for _, d := range domain.Days() {
		if d == m.form.day {
			b.WriteString(m.styles.ActiveTab.Render(string(d)))
		} else {
			b.WriteString(m.styles.Tab.Render(string(d)))
		}
	}

	if m.form.err != "" {
		b.WriteString("\n\n")
		b.WriteString(m.styles.DangerText.Render(m.form.err))
	}
	if m.geocoder == nil {
		b.WriteString("\n\n")
		b.WriteString(m.styles.FaintText.Render("No geocoder configured; the spot will be placed at the city centre."))
	}
	return m.styles.Panel.Render(b.String())
}
