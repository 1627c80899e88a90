// Package ui is the Bubble Tea terminal front end for the itinerary.
//
// The model never mutates spots itself. Every change goes through the
// sync coordinator inside a tea.Cmd, and the model re-reads the state store
// when the command's message arrives. Navigation state (active day,
// selected spot, reorder mode, tag filter, current screen) lives in an
// itinerary.View so that esc always closes the innermost overlay first.
//
// Screens:
//
//   - list: day tabs, the ordered spots of the active day, reorder mode and
//     the tag filter panel (Other only)
//   - detail: one spot with visited toggle, move, delete and inline edits
//   - add: a form that geocodes the new spot before inserting it
//   - footprints: per-day progress, a character map of the day and the
//     directions link for the visited path
package ui
