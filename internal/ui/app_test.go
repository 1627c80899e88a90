package ui

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/pbaille/trip/internal/domain"
	"github.com/pbaille/trip/internal/itinerary"
	"github.com/pbaille/trip/internal/store"
	"github.com/pbaille/trip/internal/syncer"
)

var fixedNow = time.Date(2026, 3, 14, 10, 30, 0, 0, time.Local)

type harness struct {
	t     *testing.T
	m     Model
	st    *store.Store
	coord *syncer.Coordinator
	ids   map[string]string
}

// newHarness builds a loaded model over a sqlite table holding spots.
func newHarness(t *testing.T, spots ...domain.NewSpot) *harness {
	t.Helper()
	st, err := store.New(filepath.Join(t.TempDir(), "trip.db"))
	if err != nil {
		t.Fatalf("store.New: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	ctx := context.Background()
	counts := map[domain.Day]int{}
	ids := map[string]string{}
	for _, n := range spots {
		rows, err := st.Insert(ctx, []domain.Row{domain.NewRow(n, counts[n.Day])})
		if err != nil {
			t.Fatalf("Insert: %v", err)
		}
		counts[n.Day]++
		ids[n.Name] = rows[0].ID
	}

	coord := syncer.New(st, &itinerary.Store{}, syncer.Options{Debounce: time.Hour})
	h := &harness{t: t, st: st, coord: coord, ids: ids}
	h.m = New(Options{
		Context:     ctx,
		Coordinator: coord,
		Now:         func() time.Time { return fixedNow },
	})

	seeded, err := coord.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	h.send(loadedMsg{seeded: seeded})
	h.send(tea.WindowSizeMsg{Width: 100, Height: 40})
	return h
}

func (h *harness) send(msg tea.Msg) tea.Cmd {
	h.t.Helper()
	next, cmd := h.m.Update(msg)
	h.m = next.(Model)
	return cmd
}

func (h *harness) keys(keys ...string) tea.Cmd {
	h.t.Helper()
	var cmd tea.Cmd
	for _, k := range keys {
		cmd = h.send(keyMsg(k))
	}
	return cmd
}

// run executes a coordinator command and feeds its result back.
func (h *harness) run(cmd tea.Cmd) {
	h.t.Helper()
	if cmd == nil {
		h.t.Fatal("expected a command")
	}
	msg := cmd()
	if _, ok := msg.(opMsg); !ok {
		h.t.Fatalf("command returned %T, want opMsg", msg)
	}
	h.send(msg)
}

// runAdd executes an add command and feeds its result back.
func (h *harness) runAdd(cmd tea.Cmd) {
	h.t.Helper()
	if cmd == nil {
		h.t.Fatal("expected a command")
	}
	msg := cmd()
	if _, ok := msg.(addedMsg); !ok {
		h.t.Fatalf("command returned %T, want addedMsg", msg)
	}
	h.send(msg)
}

func (h *harness) spot(name string) domain.Spot {
	h.t.Helper()
	s, ok := h.coord.Spots().Get(h.ids[name])
	if !ok {
		h.t.Fatalf("spot %q not in store", name)
	}
	return s
}

func (h *harness) stored(name string) domain.Row {
	h.t.Helper()
	row, err := h.st.Get(context.Background(), h.ids[name])
	if err != nil {
		h.t.Fatalf("Get(%q): %v", name, err)
	}
	return row
}

func keyMsg(k string) tea.KeyMsg {
	switch k {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "space":
		return tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "ctrl+s":
		return tea.KeyMsg{Type: tea.KeyCtrlS}
	case "ctrl+d":
		return tea.KeyMsg{Type: tea.KeyCtrlD}
	case "ctrl+c":
		return tea.KeyMsg{Type: tea.KeyCtrlC}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
}

func twoSpots() []domain.NewSpot {
	return []domain.NewSpot{
		{Name: "Chihkan Tower", Day: domain.Day1, Address: "Chihkan St", OpeningHours: "08:30 - 21:30"},
		{Name: "Confucius Temple", Day: domain.Day1, Address: "Nanmen Rd", OpeningHours: "08:30 - 17:30"},
		{Name: "Beef Soup", Day: domain.Other, Tags: []string{"food", "beef-soup"}},
		{Name: "Blueprint Village", Day: domain.Other, Tags: []string{"arts"}},
	}
}

func TestModel_SeedsEmptyTable(t *testing.T) {
	h := newHarness(t)
	if h.coord.Spots().Len() != len(itinerary.DefaultSpots) {
		t.Fatalf("Len() = %d, want %d", h.coord.Spots().Len(), len(itinerary.DefaultSpots))
	}
	if h.m.status != "Seeded the default itinerary" {
		t.Fatalf("status = %q", h.m.status)
	}
}

func TestModel_ListRendersActiveDay(t *testing.T) {
	h := newHarness(t, twoSpots()...)
	out := h.m.View()
	if !strings.Contains(out, "1. Chihkan Tower") || !strings.Contains(out, "2. Confucius Temple") {
		t.Fatalf("view missing Day 1 spots:\n%s", out)
	}
	if strings.Contains(out, "Beef Soup") {
		t.Fatalf("view shows Other spot on Day 1:\n%s", out)
	}
	if !strings.Contains(out, "open now") {
		t.Fatalf("view missing hours badge:\n%s", out)
	}

	h.keys("3")
	if h.m.view.ActiveDay != domain.Other {
		t.Fatalf("ActiveDay = %v, want %v", h.m.view.ActiveDay, domain.Other)
	}
	if out := h.m.View(); !strings.Contains(out, "Beef Soup") {
		t.Fatalf("Other view missing spot:\n%s", out)
	}
}

func TestModel_DetailTogglesVisited(t *testing.T) {
	h := newHarness(t, twoSpots()...)

	h.keys("j", "enter")
	if h.m.view.Selected != h.ids["Confucius Temple"] {
		t.Fatalf("Selected = %q, want Confucius Temple", h.m.view.Selected)
	}

	h.run(h.keys("space"))
	if !h.spot("Confucius Temple").IsVisited {
		t.Fatal("local spot not marked visited")
	}
	if !h.stored("Confucius Temple").IsVisited {
		t.Fatal("stored row not marked visited")
	}
	if h.m.status != "Marked visited" {
		t.Fatalf("status = %q, want %q", h.m.status, "Marked visited")
	}

	h.keys("esc")
	if h.m.view.Selected != "" {
		t.Fatalf("Selected = %q after back, want empty", h.m.view.Selected)
	}
}

func TestModel_MoveToNextDay(t *testing.T) {
	h := newHarness(t, twoSpots()...)

	h.keys("enter")
	h.run(h.keys("m"))

	got := h.spot("Chihkan Tower")
	if got.Day != domain.Day2 || got.Order != 0 {
		t.Fatalf("spot = %v/%d, want %v/0", got.Day, got.Order, domain.Day2)
	}
	if row := h.stored("Chihkan Tower"); row.Day != string(domain.Day2) {
		t.Fatalf("stored day = %q, want %q", row.Day, domain.Day2)
	}
}

func TestModel_DeleteNeedsConfirmation(t *testing.T) {
	h := newHarness(t, twoSpots()...)

	h.keys("enter", "d")
	if !h.m.confirmDelete {
		t.Fatal("confirmDelete = false after d")
	}
	if !strings.Contains(h.m.View(), "(y/n)") {
		t.Fatal("view missing delete prompt")
	}

	h.keys("n")
	if h.m.confirmDelete {
		t.Fatal("confirmDelete still set after n")
	}
	if h.coord.Spots().Len() != 4 {
		t.Fatalf("Len() = %d, want 4", h.coord.Spots().Len())
	}

	h.keys("d")
	h.run(h.keys("y"))
	if h.m.view.Selected != "" {
		t.Fatalf("Selected = %q after delete, want empty", h.m.view.Selected)
	}
	if _, ok := h.coord.Spots().Get(h.ids["Chihkan Tower"]); ok {
		t.Fatal("spot still in local store")
	}
	if _, err := h.st.Get(context.Background(), h.ids["Chihkan Tower"]); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("Get error = %v, want ErrNotFound", err)
	}
}

func TestModel_EditHoursValidates(t *testing.T) {
	h := newHarness(t, twoSpots()...)

	h.keys("enter", "o")
	if h.m.editing != editHours {
		t.Fatalf("editing = %v, want editHours", h.m.editing)
	}
	if h.m.editInput.Value() != "08:30 - 21:30" {
		t.Fatalf("editor value = %q, want current hours", h.m.editInput.Value())
	}

	h.m.editInput.SetValue("25:00 - 26:00")
	if cmd := h.keys("enter"); cmd != nil {
		t.Fatal("invalid hours produced a command")
	}
	if h.m.editing != editHours || !h.m.statusErr {
		t.Fatalf("editing = %v statusErr = %v, want editor kept open with error", h.m.editing, h.m.statusErr)
	}

	h.m.editInput.SetValue("09:00-17:30 (closed Mon)")
	h.run(h.keys("enter"))
	if h.m.editing != editNone {
		t.Fatalf("editing = %v after save, want editNone", h.m.editing)
	}
	want := "09:00 - 17:30 (closed Mon)"
	if got := h.stored("Chihkan Tower").OpeningHours; got != want {
		t.Fatalf("stored hours = %q, want %q", got, want)
	}
}

func TestModel_EditTagsAndNotes(t *testing.T) {
	h := newHarness(t, twoSpots()...)

	h.keys("enter", "t")
	h.m.editInput.SetValue("heritage, photo, , heritage")
	h.run(h.keys("enter"))
	if got := h.spot("Chihkan Tower").Tags; strings.Join(got, ",") != "heritage,photo" {
		t.Fatalf("tags = %v, want [heritage photo]", got)
	}

	h.keys("e")
	h.m.editInput.SetValue("  go early  ")
	h.run(h.keys("enter"))
	if got := h.stored("Chihkan Tower").Notes; got != "go early" {
		t.Fatalf("notes = %q, want %q", got, "go early")
	}
}

func TestModel_EditAddressWithoutGeocoderKeepsPosition(t *testing.T) {
	h := newHarness(t, twoSpots()...)
	before := h.spot("Chihkan Tower")

	h.keys("enter", "a")
	h.m.editInput.SetValue("No. 212 Chihkan St")
	h.run(h.keys("enter"))

	got := h.spot("Chihkan Tower")
	if got.Address != "No. 212 Chihkan St" {
		t.Fatalf("address = %q", got.Address)
	}
	if got.Lat != before.Lat || got.Lng != before.Lng {
		t.Fatalf("position changed to %v,%v", got.Lat, got.Lng)
	}
}

func TestModel_ReorderIsDebounced(t *testing.T) {
	h := newHarness(t, twoSpots()...)

	h.keys("j", "r")
	if !h.m.view.Reorder {
		t.Fatal("Reorder = false after r")
	}
	h.keys("K")
	if h.m.cursor != 0 {
		t.Fatalf("cursor = %d after move up, want 0", h.m.cursor)
	}

	day := h.m.visible()
	if day[0].Name != "Confucius Temple" || day[1].Name != "Chihkan Tower" {
		t.Fatalf("local order = %s, %s", day[0].Name, day[1].Name)
	}
	if !h.coord.Pending() {
		t.Fatal("Pending() = false, want a batched write")
	}
	if h.stored("Confucius Temple").SortOrder != 1 {
		t.Fatal("reorder written before the debounce elapsed")
	}
	if !strings.Contains(h.m.View(), "syncing") {
		t.Fatal("view missing sync indicator")
	}

	// Quitting flushes the pending batch.
	cmd := h.keys("q")
	if !h.m.quitting {
		t.Fatal("quitting = false after q")
	}
	msg := cmd()
	flushed, ok := msg.(flushedMsg)
	if !ok || flushed.err != nil {
		t.Fatalf("flush msg = %#v", msg)
	}
	h.send(flushed)
	if got := h.stored("Confucius Temple").SortOrder; got != 0 {
		t.Fatalf("stored order = %d after flush, want 0", got)
	}
	if got := h.stored("Chihkan Tower").SortOrder; got != 1 {
		t.Fatalf("stored order = %d after flush, want 1", got)
	}
}

func TestModel_ReorderModeBlocksDetail(t *testing.T) {
	h := newHarness(t, twoSpots()...)
	h.keys("r", "enter")
	if h.m.view.Selected != "" {
		t.Fatal("detail opened in reorder mode")
	}
	h.keys("esc")
	if h.m.view.Reorder {
		t.Fatal("Reorder still on after back")
	}
}

func TestModel_FilterOnlyOnOther(t *testing.T) {
	h := newHarness(t, twoSpots()...)

	h.keys("f")
	if h.m.view.FilterOpen {
		t.Fatal("filter opened on Day 1")
	}

	h.keys("3", "f")
	if !h.m.view.FilterOpen {
		t.Fatal("filter not opened on Other")
	}
	// "food" is the first tag in the vocabulary.
	h.keys("space")
	if !h.m.view.FilterActive("food") {
		t.Fatal("food not active after toggle")
	}
	list := h.m.visible()
	if len(list) != 1 || list[0].Name != "Beef Soup" {
		t.Fatalf("visible = %v, want only Beef Soup", list)
	}

	h.keys("esc")
	if h.m.view.FilterOpen {
		t.Fatal("filter still open after back")
	}
	if !h.m.view.FilterActive("food") {
		t.Fatal("closing the panel cleared the filter")
	}

	h.keys("1")
	if len(h.m.view.FilterTags()) != 0 {
		t.Fatalf("FilterTags = %v after leaving Other, want none", h.m.view.FilterTags())
	}
}

func TestModel_ReorderWithFilterKeepsHiddenSlots(t *testing.T) {
	h := newHarness(t,
		domain.NewSpot{Name: "Beef Soup", Day: domain.Other, Tags: []string{"food"}},
		domain.NewSpot{Name: "Blueprint Village", Day: domain.Other, Tags: []string{"arts"}},
		domain.NewSpot{Name: "Milkfish Congee", Day: domain.Other, Tags: []string{"food"}},
	)

	// "food" is the first tag in the vocabulary.
	h.keys("3", "f", "space", "esc", "r", "J")
	if !h.m.view.Reorder {
		t.Fatal("Reorder = false after r")
	}

	want := []string{"Milkfish Congee", "Blueprint Village", "Beef Soup"}
	day := itinerary.DayList(h.m.spots(), domain.Other, nil)
	for i, s := range day {
		if s.Name != want[i] || s.Order != i {
			t.Fatalf("Other[%d] = %s/%d, want %s/%d", i, s.Name, s.Order, want[i], i)
		}
	}
}

func TestInterleave(t *testing.T) {
	spot := func(id string) domain.Spot { return domain.Spot{ID: id} }
	full := []domain.Spot{spot("a"), spot("b"), spot("c"), spot("d")}

	got := interleave(full, []domain.Spot{spot("d"), spot("a")})
	want := []string{"d", "b", "c", "a"}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Fatalf("interleave = %v, want %v", got, want)
	}

	got = interleave(full, nil)
	if strings.Join(got, ",") != "a,b,c,d" {
		t.Fatalf("interleave with nothing shown = %v, want full order", got)
	}
}

func TestModel_AddForm(t *testing.T) {
	h := newHarness(t, twoSpots()...)

	h.keys("n")
	if h.m.view.Current != itinerary.ViewAdd {
		t.Fatalf("Current = %v, want add", h.m.view.Current)
	}
	if h.m.form.day != domain.Day1 {
		t.Fatalf("form day = %v, want %v", h.m.form.day, domain.Day1)
	}

	h.keys("ctrl+s")
	if h.m.form.err == "" {
		t.Fatal("empty name accepted")
	}

	h.m.form.inputs[fieldName].SetValue("Anping Fort")
	h.m.form.inputs[fieldHours].SetValue("24h")
	h.m.form.inputs[fieldTags].SetValue("heritage")
	h.keys("ctrl+d")
	if h.m.form.day != domain.Day2 {
		t.Fatalf("form day = %v after cycle, want %v", h.m.form.day, domain.Day2)
	}

	cmd := h.keys("ctrl+s")
	if h.m.view.Current != itinerary.ViewAdd || h.m.view.ActiveDay != domain.Day1 {
		t.Fatalf("view = %v/%v before the insert returned, want add on %v", h.m.view.Current, h.m.view.ActiveDay, domain.Day1)
	}
	h.runAdd(cmd)
	if h.m.view.Current != itinerary.ViewList || h.m.view.ActiveDay != domain.Day2 {
		t.Fatalf("view = %v/%v, want list on %v", h.m.view.Current, h.m.view.ActiveDay, domain.Day2)
	}

	list := h.m.visible()
	if len(list) != 1 || list[0].Name != "Anping Fort" {
		t.Fatalf("Day 2 = %v, want Anping Fort", list)
	}
	got := list[0]
	if got.OpeningHours != domain.OpenAllDay || got.Tags[0] != "heritage" {
		t.Fatalf("spot = %+v", got)
	}
	if got.Lat != domain.FallbackLocation.Lat || got.Lng != domain.FallbackLocation.Lng {
		t.Fatalf("position = %v,%v, want fallback", got.Lat, got.Lng)
	}
}

// insertDown is a table whose inserts always fail.
type insertDown struct{ *store.Store }

func (insertDown) Insert(context.Context, []domain.Row) ([]domain.Row, error) {
	return nil, errors.New("network down")
}

func TestModel_AddFormFailedInsertKeepsForm(t *testing.T) {
	h := newHarness(t, twoSpots()...)
	h.coord = syncer.New(insertDown{h.st}, h.coord.Spots(), syncer.Options{Debounce: time.Hour})
	h.m.coord = h.coord

	h.keys("n")
	h.m.form.inputs[fieldName].SetValue("Anping Fort")
	h.keys("ctrl+d")
	cmd := h.keys("ctrl+s")
	if again := h.keys("ctrl+s"); again != nil {
		t.Fatal("second submit while saving issued a command")
	}
	h.runAdd(cmd)

	if h.m.view.Current != itinerary.ViewAdd || h.m.view.ActiveDay != domain.Day1 {
		t.Fatalf("view = %v/%v, want add on %v", h.m.view.Current, h.m.view.ActiveDay, domain.Day1)
	}
	if got := h.m.form.inputs[fieldName].Value(); got != "Anping Fort" {
		t.Fatalf("name = %q, want typed value kept", got)
	}
	if h.m.form.day != domain.Day2 {
		t.Fatalf("form day = %v, want %v", h.m.form.day, domain.Day2)
	}
	if !strings.Contains(h.m.form.err, "network down") || !h.m.statusErr {
		t.Fatalf("form err = %q, statusErr = %v", h.m.form.err, h.m.statusErr)
	}
	if h.coord.Spots().Len() != 4 {
		t.Fatalf("Len() = %d, want 4", h.coord.Spots().Len())
	}

	// Retrying once the table recovers saves the same input.
	h.coord = syncer.New(h.st, h.coord.Spots(), syncer.Options{Debounce: time.Hour})
	h.m.coord = h.coord
	h.runAdd(h.keys("ctrl+s"))
	if h.m.view.Current != itinerary.ViewList || h.m.view.ActiveDay != domain.Day2 {
		t.Fatalf("view = %v/%v after retry, want list on %v", h.m.view.Current, h.m.view.ActiveDay, domain.Day2)
	}
	if list := h.m.visible(); len(list) != 1 || list[0].Name != "Anping Fort" {
		t.Fatalf("Day 2 = %v, want Anping Fort", list)
	}
}

func TestModel_AddFormEscapeDiscards(t *testing.T) {
	h := newHarness(t, twoSpots()...)
	h.keys("n")
	h.m.form.inputs[fieldName].SetValue("Draft")
	h.keys("esc")
	if h.m.view.Current != itinerary.ViewList {
		t.Fatalf("Current = %v, want list", h.m.view.Current)
	}
	if h.coord.Spots().Len() != 4 {
		t.Fatalf("Len() = %d, want 4", h.coord.Spots().Len())
	}
}

func TestModel_Footprints(t *testing.T) {
	h := newHarness(t, twoSpots()...)
	h.keys("enter")
	h.run(h.keys("space"))
	h.keys("esc")

	h.keys("p")
	if h.m.view.Current != itinerary.ViewFootprints {
		t.Fatalf("Current = %v, want footprints", h.m.view.Current)
	}
	out := h.m.View()
	if !strings.Contains(out, "Day 1 50%") || !strings.Contains(out, "1/2 visited") {
		t.Fatalf("footprints missing progress:\n%s", out)
	}
	if !strings.Contains(out, "Visit two spots") {
		t.Fatalf("footprints should not offer a route yet:\n%s", out)
	}

	h.keys("tab")
	if h.m.fpDay != domain.Day2 {
		t.Fatalf("fpDay = %v, want %v", h.m.fpDay, domain.Day2)
	}
	h.keys("tab")
	if h.m.fpDay != domain.Day1 {
		t.Fatalf("fpDay = %v, want %v", h.m.fpDay, domain.Day1)
	}

	h.keys("esc")
	if h.m.view.Current != itinerary.ViewList {
		t.Fatalf("Current = %v after back, want list", h.m.view.Current)
	}
}

func TestModel_FootprintsRoute(t *testing.T) {
	spots := twoSpots()
	h := newHarness(t, spots...)
	for _, name := range []string{"Chihkan Tower", "Confucius Temple"} {
		if _, err := h.coord.ToggleVisited(context.Background(), h.ids[name]); err != nil {
			t.Fatalf("ToggleVisited: %v", err)
		}
	}

	h.keys("p", "c")
	out := h.m.View()
	if !strings.Contains(out, "https://www.google.com/maps/dir/") {
		t.Fatalf("footprints missing route link:\n%s", out)
	}
	if !h.m.showQR {
		t.Fatal("showQR = false after c")
	}
}

func TestModel_WriteErrorsReachStatus(t *testing.T) {
	h := newHarness(t, twoSpots()...)
	h.m.writes = NewWriteEvents()

	h.m.writes.Report("reorder", errors.New("network down"))
	cmd := h.send(<-h.m.writes.ch)
	if cmd == nil {
		t.Fatal("write event did not re-subscribe")
	}
	if !h.m.statusErr || h.m.status != "network down" {
		t.Fatalf("status = %q err = %v", h.m.status, h.m.statusErr)
	}
}

func TestWriteEvents_ReportNeverBlocks(t *testing.T) {
	e := NewWriteEvents()
	for i := 0; i < cap(e.ch)+10; i++ {
		e.Report("update", nil)
	}
	if len(e.ch) != cap(e.ch) {
		t.Fatalf("len = %d, want %d", len(e.ch), cap(e.ch))
	}
}

func TestModel_NotConfirmedIsSilent(t *testing.T) {
	h := newHarness(t, twoSpots()...)
	h.send(opMsg{err: syncer.ErrNotConfirmed})
	if h.m.statusErr {
		t.Fatal("ErrNotConfirmed reported as an error")
	}
}
