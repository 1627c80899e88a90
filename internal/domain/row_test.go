package domain

import (
	"reflect"
	"testing"
)

func TestRowTranslationIsExact(t *testing.T) {
	s := Spot{
		ID:           "abc",
		Name:         "Chihkan Tower",
		Description:  "Dutch fort",
		Notes:        "go early",
		Images:       []string{"https://example.com/a.jpg"},
		Lat:          22.997,
		Lng:          120.202,
		Day:          Day1,
		Tags:         []string{"heritage"},
		OpeningHours: "08:30 - 21:30",
		Order:        2,
		Address:      "No. 212, Sec. 2, Minzu Rd",
		IsVisited:    true,
	}

	r := ToRow(s)
	if r.SortOrder != 2 || r.Day != "Day 1" || r.OpeningHours != s.OpeningHours || !r.IsVisited {
		t.Fatalf("ToRow = %+v", r)
	}
	if back := FromRow(r); !reflect.DeepEqual(back, s) {
		t.Fatalf("FromRow(ToRow(s)) = %+v, want %+v", back, s)
	}
}

func TestToRowNilSlicesBecomeEmpty(t *testing.T) {
	r := ToRow(Spot{Name: "x", Day: Other})
	if r.Tags == nil || r.Images == nil {
		t.Fatalf("nil slices leaked into row: %+v", r)
	}
}

func TestNewRowNormalizesTags(t *testing.T) {
	r := NewRow(NewSpot{Name: "Soup", Day: Day2, Tags: []string{"food", " food"}}, 4)
	if r.ID != "" {
		t.Fatalf("NewRow assigned id %q", r.ID)
	}
	if r.SortOrder != 4 || r.Day != "Day 2" {
		t.Fatalf("NewRow = %+v", r)
	}
	if !reflect.DeepEqual(r.Tags, []string{"food"}) {
		t.Fatalf("Tags = %v, want [food]", r.Tags)
	}
}
