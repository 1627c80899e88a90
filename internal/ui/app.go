package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/pbaille/trip/internal/domain"
	"github.com/pbaille/trip/internal/itinerary"
	"github.com/pbaille/trip/internal/syncer"
)

// Options configures the UI.
type Options struct {
	Context     context.Context
	Coordinator *syncer.Coordinator
	Geocoder    syncer.Geocoder // optional; lookups fall back to the city centre
	Writes      *WriteEvents    // optional; reports background reorder writes
	Now         func() time.Time
	Tick        time.Duration
}

// editField names the detail field being edited inline.
type editField int

const (
	editNone editField = iota
	editNotes
	editAddress
	editTags
	editHours
)

func (f editField) label() string {
	switch f {
	case editNotes:
		return "Notes"
	case editAddress:
		return "Address"
	case editTags:
		return "Tags (comma separated)"
	case editHours:
		return "Opening hours (HH:MM - HH:MM or 24-hour)"
	}
	return ""
}

// Model is the root application state for Bubble Tea.
type Model struct {
	// Configuration
	ctx      context.Context
	coord    *syncer.Coordinator
	geocoder syncer.Geocoder
	writes   *WriteEvents
	now      func() time.Time
	tick     time.Duration

	// UI state
	keys   keyMap
	help   help.Model
	theme  Theme
	styles Styles
	width  int
	height int
	ready  bool
	loaded bool

	// Navigation
	view         *itinerary.View
	cursor       int
	filterCursor int

	// Detail state
	confirmDelete bool
	editing       editField
	editInput     textinput.Model

	// Add form
	form addForm

	// Footprints
	fpDay  domain.Day
	showQR bool

	// Status line
	status    string
	statusErr bool
	quitting  bool
	flushErr  error
}

// New creates a new Bubble Tea model.
func New(opts Options) Model {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	tick := opts.Tick
	if tick == 0 {
		tick = DefaultTick
	}

	theme := DefaultTheme()
	input := textinput.New()
	input.CharLimit = 500

	return Model{
		ctx:       ctx,
		coord:     opts.Coordinator,
		geocoder:  opts.Geocoder,
		writes:    opts.Writes,
		now:       now,
		tick:      tick,
		keys:      DefaultKeyMap(),
		help:      help.New(),
		theme:     theme,
		styles:    theme.Styles(),
		view:      itinerary.NewView(),
		editInput: input,
		fpDay:     domain.Day1,
	}
}

// DefaultTick is how often the screen refreshes the sync indicator and
// opening-hours badges.
const DefaultTick = 500 * time.Millisecond

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{loadCmd(m.ctx, m.coord), tickCmd(m.tick)}
	if m.writes != nil {
		cmds = append(cmds, m.writes.wait())
	}
	return tea.Batch(cmds...)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.ready = true
		return m, nil

	case tickMsg:
		return m, tickCmd(m.tick)

	case loadedMsg:
		m.loaded = true
		switch {
		case msg.err != nil:
			m.setError(fmt.Errorf("load: %w", msg.err))
		case msg.seeded:
			m.setStatus("Seeded the default itinerary")
		}
		m.clampCursor()
		return m, nil

	case opMsg:
		if msg.err != nil && !errors.Is(msg.err, syncer.ErrNotConfirmed) {
			m.setError(msg.err)
		} else if msg.note != "" {
			m.setStatus(msg.note)
		}
		m.clampCursor()
		return m, nil

	case addedMsg:
		return m.added(msg)

	case writeMsg:
		if msg.err != nil {
			m.setError(msg.err)
		}
		return m, m.writes.wait()

	case flushedMsg:
		m.flushErr = msg.err
		return m, tea.Quit
	}

	if m.view.Current == itinerary.ViewAdd {
		return m.updateForm(msg)
	}
	if m.editing != editNone {
		var cmd tea.Cmd
		m.editInput, cmd = m.editInput.Update(msg)
		return m, cmd
	}
	return m, nil
}

// View implements tea.Model.
func (m Model) View() string {
	if m.quitting {
		return "Saving...\n"
	}
	if !m.ready {
		return "Loading..."
	}

	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n\n")

	switch {
	case m.view.Current == itinerary.ViewAdd:
		b.WriteString(m.renderForm())
	case m.view.Current == itinerary.ViewFootprints:
		b.WriteString(m.renderFootprints())
	case m.view.Selected != "":
		b.WriteString(m.renderDetail())
	default:
		b.WriteString(m.renderList())
	}

	b.WriteString("\n\n")
	b.WriteString(m.renderStatus())
	b.WriteString("\n")
	b.WriteString(m.styles.Footer.Render(m.help.View(m.helpFor())))
	return b.String()
}

// handleKey routes input to the innermost active screen.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.ForceQuit) {
		return m.quit()
	}

	switch {
	case m.confirmDelete:
		return m.handleConfirmKey(msg)
	case m.editing != editNone:
		return m.handleEditKey(msg)
	case m.view.Current == itinerary.ViewAdd:
		return m.handleFormKey(msg)
	case m.view.Selected != "":
		return m.handleDetailKey(msg)
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m.quit()
	case key.Matches(msg, m.keys.Back):
		m.back()
		return m, nil
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		return m, nil
	}

	switch {
	case m.view.Current == itinerary.ViewFootprints:
		return m.handleFootprintsKey(msg)
	case m.view.FilterOpen:
		return m.handleFilterKey(msg)
	}
	return m.handleListKey(msg)
}

// quit writes any pending reorder before exiting.
func (m Model) quit() (tea.Model, tea.Cmd) {
	m.quitting = true
	return m, flushCmd(m.ctx, m.coord)
}

// back closes the innermost overlay.
func (m *Model) back() {
	m.view.Back()
	m.clampCursor()
}

func (m *Model) setStatus(s string) {
	m.status = s
	m.statusErr = false
}

func (m *Model) setError(err error) {
	m.status = err.Error()
	m.statusErr = true
}

func (m Model) spots() []domain.Spot {
	if m.coord == nil {
		return nil
	}
	return m.coord.Spots().Spots()
}

func (m Model) renderHeader() string {
	var b strings.Builder
	b.WriteString(m.styles.Title.Render("Tainan Trip"))
	for _, day := range domain.Days() {
		label := string(day)
		if m.view.Current == itinerary.ViewFootprints {
			if day == domain.Other {
				continue
			}
			label = fmt.Sprintf("%s %d%%", day, itinerary.Progress(m.spots(), day))
			if day == m.fpDay {
				b.WriteString(m.styles.ActiveTab.Render(label))
				continue
			}
		} else if day == m.view.ActiveDay {
			b.WriteString(m.styles.ActiveTab.Render(label))
			continue
		}
		b.WriteString(m.styles.Tab.Render(label))
	}
	return b.String()
}

func (m Model) renderStatus() string {
	var parts []string
	if m.coord != nil && (m.coord.Syncing() > 0 || m.coord.Pending()) {
		parts = append(parts, m.styles.WarningText.Render("syncing"))
	}
	if !m.loaded {
		parts = append(parts, m.styles.MutedText.Render("loading itinerary..."))
	}
	if m.status != "" {
		if m.statusErr {
			parts = append(parts, m.styles.DangerText.Render(m.status))
		} else {
			parts = append(parts, m.styles.MutedText.Render(m.status))
		}
	}
	return " " + strings.Join(parts, "  ")
}

// Messages

type tickMsg time.Time

type loadedMsg struct {
	seeded bool
	err    error
}

type opMsg struct {
	note string
	err  error
}

type addedMsg struct {
	spot domain.Spot
	err  error
}

type writeMsg struct {
	op  string
	err error
}

type flushedMsg struct{ err error }

// WriteEvents forwards the outcome of coordinator writes, including
// debounced reorder batches fired from timers, into the program.
type WriteEvents struct {
	ch chan writeMsg
}

// NewWriteEvents creates a buffered event feed.
func NewWriteEvents() *WriteEvents {
	return &WriteEvents{ch: make(chan writeMsg, 32)}
}

// Report records a write outcome. It never blocks; events are dropped when
// the UI is not keeping up.
func (e *WriteEvents) Report(op string, err error) {
	select {
	case e.ch <- writeMsg{op: op, err: err}:
	default:
	}
}

func (e *WriteEvents) wait() tea.Cmd {
	return func() tea.Msg {
		return <-e.ch
	}
}

// Commands

func tickCmd(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func loadCmd(ctx context.Context, coord *syncer.Coordinator) tea.Cmd {
	if coord == nil {
		return nil
	}
	return func() tea.Msg {
		seeded, err := coord.Load(ctx)
		return loadedMsg{seeded: seeded, err: err}
	}
}

func flushCmd(ctx context.Context, coord *syncer.Coordinator) tea.Cmd {
	return func() tea.Msg {
		if coord == nil {
			return flushedMsg{}
		}
		flushCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		return flushedMsg{err: coord.Flush(flushCtx)}
	}
}

// opCmd runs a coordinator call off the UI goroutine.
func opCmd(note string, fn func() error) tea.Cmd {
	return func() tea.Msg {
		if err := fn(); err != nil {
			return opMsg{err: err}
		}
		return opMsg{note: note}
	}
}

// Run starts the Bubble Tea program.
func Run(opts Options) error {
	m := New(opts)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(m.ctx))
	final, err := p.Run()
	if err != nil {
		return err
	}
	if fm, ok := final.(Model); ok && fm.flushErr != nil {
		return fmt.Errorf("save order: %w", fm.flushErr)
	}
	return nil
}
