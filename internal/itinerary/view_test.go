package itinerary

import (
	"testing"

	"github.com/pbaille/trip/internal/domain"
)

func TestView_BackPrecedence(t *testing.T) {
	v := NewView()
	v.ShowView(ViewFootprints)
	v.ShowView(ViewList)
	v.SetActiveDay(domain.Other)
	v.EnterReorder()
	v.OpenFilter()
	v.OpenDetail("spot-1")

	if v.Depth() != 5 {
		t.Fatalf("Depth = %d, want 5", v.Depth())
	}

	steps := []func() bool{
		func() bool { return v.Selected == "" && v.FilterOpen && v.Reorder },
		func() bool { return !v.FilterOpen && v.Reorder },
		func() bool { return !v.Reorder },
	}
	for i, check := range steps {
		if !v.Back() {
			t.Fatalf("Back #%d returned false", i+1)
		}
		if !check() {
			t.Fatalf("state after Back #%d = %+v", i+1, v)
		}
	}

	if v.Back() {
		t.Fatalf("Back on plain list returned true")
	}
}

func TestView_BackLeavesNonListView(t *testing.T) {
	v := NewView()
	v.ShowView(ViewAdd)
	v.ShowView(ViewAdd)
	if v.Depth() != 1 {
		t.Fatalf("Depth = %d, want 1 (no push on same view)", v.Depth())
	}
	if !v.Back() || v.Current != ViewList {
		t.Fatalf("Back did not return to list: %v", v.Current)
	}
}

func TestView_FilterResetOnDaySwitch(t *testing.T) {
	v := NewView()
	v.SetActiveDay(domain.Other)
	v.ToggleFilterTag("food")
	v.ToggleFilterTag("arts")
	v.ToggleFilterTag("food")

	if got := v.FilterTags(); len(got) != 1 || got[0] != "arts" {
		t.Fatalf("FilterTags = %v, want [arts]", got)
	}

	v.SetActiveDay(domain.Other)
	if len(v.FilterTags()) != 1 {
		t.Fatalf("switching to Other should keep the filter")
	}

	v.SetActiveDay(domain.Day2)
	if len(v.FilterTags()) != 0 {
		t.Fatalf("switching to Day 2 should clear the filter")
	}
}

func TestView_Visible(t *testing.T) {
	v := NewView()
	v.SetActiveDay(domain.Other)
	v.ToggleFilterTag("food")

	spots := []domain.Spot{
		{ID: "a", Day: domain.Other, Tags: []string{"food"}},
		{ID: "b", Day: domain.Other, Tags: []string{"arts"}},
	}
	got := v.Visible(spots)
	if len(got) != 1 || got[0].ID != "a" {
		t.Fatalf("Visible = %#v, want [a]", got)
	}
}
