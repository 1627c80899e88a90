package itinerary

import (
	"sort"

	"github.com/pbaille/trip/internal/domain"
)

// MainView is the top-level screen
type MainView int

const (
	ViewList MainView = iota
	ViewAdd
	ViewFootprints
)

func (v MainView) String() string {
	switch v {
	case ViewAdd:
		return "add"
	case ViewFootprints:
		return "footprints"
	}
	return "list"
}

// View is the ephemeral, per-session UI state. It is owned by a single UI
// goroutine and is not safe for concurrent use.
type View struct {
	ActiveDay  domain.Day
	Selected   string
	Reorder    bool
	FilterOpen bool
	Current    MainView
	filterTags map[string]bool
	depth      int
}

// NewView starts on the Day 1 list
func NewView() *View {
	return &View{
		ActiveDay:  domain.Day1,
		Current:    ViewList,
		filterTags: make(map[string]bool),
	}
}

// SetActiveDay switches tabs. Leaving for Day 1 or Day 2 clears the tag filter.
func (v *View) SetActiveDay(day domain.Day) {
	v.ActiveDay = day
	if day != domain.Other {
		v.ResetFilter()
	}
}

// OpenDetail selects a spot and pushes a history entry
func (v *View) OpenDetail(id string) {
	v.Selected = id
	v.depth++
}

// OpenFilter shows the tag filter panel
func (v *View) OpenFilter() {
	if v.FilterOpen {
		return
	}
	v.FilterOpen = true
	v.depth++
}

// EnterReorder turns on drag-to-reorder mode
func (v *View) EnterReorder() {
	if v.Reorder {
		return
	}
	v.Reorder = true
	v.depth++
}

// ShowView switches the top-level view, pushing history only on change
func (v *View) ShowView(mv MainView) {
	if v.Current == mv {
		return
	}
	v.Current = mv
	v.depth++
}

// Back closes the most recently relevant overlay in the order
// detail, tag filter, reorder mode, non-list view. It reports whether
// anything was closed.
func (v *View) Back() bool {
	if v.depth > 0 {
		v.depth--
	}
	switch {
	case v.Selected != "":
		v.Selected = ""
	case v.FilterOpen:
		v.FilterOpen = false
	case v.Reorder:
		v.Reorder = false
	case v.Current != ViewList:
		v.Current = ViewList
	default:
		return false
	}
	return true
}

// Depth is the number of navigation entries pushed and not yet popped
func (v *View) Depth() int {
	return v.depth
}

// ToggleFilterTag adds or removes a tag from the filter set
func (v *View) ToggleFilterTag(tag string) {
	if v.filterTags[tag] {
		delete(v.filterTags, tag)
		return
	}
	v.filterTags[tag] = true
}

// ResetFilter clears the tag filter
func (v *View) ResetFilter() {
	v.filterTags = make(map[string]bool)
}

// FilterActive reports whether a tag is selected
func (v *View) FilterActive(tag string) bool {
	return v.filterTags[tag]
}

// FilterTags returns the selected tags sorted
func (v *View) FilterTags() []string {
	tags := make([]string, 0, len(v.filterTags))
	for t := range v.filterTags {
		tags = append(tags, t)
	}
	sort.Strings(tags)
	return tags
}

// Filter returns the selected tag set for DayList. Callers must not modify it.
func (v *View) Filter() map[string]bool {
	return v.filterTags
}

// Visible applies the view's day and filter to spots
func (v *View) Visible(spots []domain.Spot) []domain.Spot {
	return DayList(spots, v.ActiveDay, v.filterTags)
}
