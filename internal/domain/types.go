package domain

import (
	"fmt"
	"strings"
)

// Day is the trip-day bucket a spot belongs to
type Day string

const (
	Day1  Day = "Day 1"
	Day2  Day = "Day 2"
	Other Day = "Other"
)

// OpenAllDay marks a spot that never closes
const OpenAllDay = "24-hour"

// Days returns every valid bucket in display order
func Days() []Day {
	return []Day{Day1, Day2, Other}
}

// Valid reports whether d is one of the closed set of buckets
func (d Day) Valid() bool {
	switch d {
	case Day1, Day2, Other:
		return true
	}
	return false
}

// Next cycles Day 1 -> Day 2 -> Other -> Day 1
func (d Day) Next() Day {
	switch d {
	case Day1:
		return Day2
	case Day2:
		return Other
	default:
		return Day1
	}
}

// ParseDay accepts the canonical names plus a few short aliases
func ParseDay(s string) (Day, error) {
	key := strings.ToLower(strings.Join(strings.Fields(s), ""))
	switch key {
	case "day1", "1", "d1":
		return Day1, nil
	case "day2", "2", "d2":
		return Day2, nil
	case "other", "others", "more", "3":
		return Other, nil
	}
	return "", fmt.Errorf("unknown day %q (want Day 1, Day 2 or Other)", s)
}

// Tags offered by the UI. Stored tags are not validated against this list.
var Tags = []string{
	"food",
	"beef-soup",
	"heritage",
	"arts",
	"shopping",
	"souvenirs",
	"drinks",
	"transport",
	"lodging",
}

// KnownTag reports whether tag belongs to the UI vocabulary
func KnownTag(tag string) bool {
	for _, t := range Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// NormalizeTags trims, drops empties and removes duplicates keeping first occurrence
func NormalizeTags(tags []string) []string {
	seen := make(map[string]bool, len(tags))
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}

// Spot is a single point of interest on the trip
type Spot struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Description  string   `json:"description"`
	Notes        string   `json:"notes"`
	Images       []string `json:"images"`
	Lat          float64  `json:"lat"`
	Lng          float64  `json:"lng"`
	Day          Day      `json:"day"`
	Tags         []string `json:"tags"`
	OpeningHours string   `json:"openingHours"`
	Order        int      `json:"order"`
	Address      string   `json:"address"`
	IsVisited    bool     `json:"isVisited"`
}

// HasAnyTag reports whether the spot carries at least one of the given tags
func (s Spot) HasAnyTag(tags map[string]bool) bool {
	for _, t := range s.Tags {
		if tags[t] {
			return true
		}
	}
	return false
}

// Clone returns a deep copy so slices are not shared
func (s Spot) Clone() Spot {
	dup := s
	if s.Images != nil {
		dup.Images = append([]string(nil), s.Images...)
	}
	if s.Tags != nil {
		dup.Tags = append([]string(nil), s.Tags...)
	}
	return dup
}

// NewSpot holds the user-supplied fields of a spot before the store assigns id and order
type NewSpot struct {
	Name         string
	Description  string
	Notes        string
	Images       []string
	Lat          float64
	Lng          float64
	Day          Day
	Tags         []string
	OpeningHours string
	Address      string
}

// Validate checks the fields a spot cannot be created without
func (n NewSpot) Validate() error {
	if strings.TrimSpace(n.Name) == "" {
		return fmt.Errorf("name is required")
	}
	if !n.Day.Valid() {
		return fmt.Errorf("invalid day %q", n.Day)
	}
	return nil
}

// Location is the result of resolving a spot's position
type Location struct {
	Lat             float64 `json:"lat"`
	Lng             float64 `json:"lng"`
	StandardAddress string  `json:"standardAddress"`
}

// FallbackLocation is used when a lookup fails: the city centre
var FallbackLocation = Location{Lat: 22.9975, Lng: 120.2025}
