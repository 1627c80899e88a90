package itinerary

import (
	"math"
	"net/url"
	"sort"
	"strings"

	"github.com/pbaille/trip/internal/domain"
)

// DayList returns the spots of day sorted by order. For the Other bucket a
// non-empty filter keeps spots carrying at least one of the filter tags.
func DayList(spots []domain.Spot, day domain.Day, filter map[string]bool) []domain.Spot {
	var out []domain.Spot
	for _, s := range spots {
		if s.Day != day {
			continue
		}
		if day == domain.Other && len(filter) > 0 && !s.HasAnyTag(filter) {
			continue
		}
		out = append(out, s.Clone())
	}
	sortByOrder(out)
	return out
}

// Progress is round(visited/total*100), zero for an empty day
func Progress(spots []domain.Spot, day domain.Day) int {
	total, visited := 0, 0
	for _, s := range spots {
		if s.Day != day {
			continue
		}
		total++
		if s.IsVisited {
			visited++
		}
	}
	if total == 0 {
		return 0
	}
	return int(math.Round(float64(visited) / float64(total) * 100))
}

// VisitedPath returns the visited spots of day in order sequence
func VisitedPath(spots []domain.Spot, day domain.Day) []domain.Spot {
	var out []domain.Spot
	for _, s := range DayList(spots, day, nil) {
		if s.IsVisited {
			out = append(out, s)
		}
	}
	return out
}

const directionsBase = "https://www.google.com/maps/dir/?api=1"

// DirectionsURL chains first -> waypoints -> last visited address. It returns
// "" when fewer than two spots are given.
func DirectionsURL(path []domain.Spot) string {
	if len(path) < 2 {
		return ""
	}
	waypoints := make([]string, 0, len(path)-2)
	for _, s := range path[1 : len(path)-1] {
		waypoints = append(waypoints, escapeComponent(s.Address))
	}

	var sb strings.Builder
	sb.WriteString(directionsBase)
	sb.WriteString("&origin=")
	sb.WriteString(escapeComponent(path[0].Address))
	sb.WriteString("&destination=")
	sb.WriteString(escapeComponent(path[len(path)-1].Address))
	sb.WriteString("&waypoints=")
	sb.WriteString(strings.Join(waypoints, "|"))
	sb.WriteString("&travelmode=driving")
	return sb.String()
}

// componentUnescape undoes the QueryEscape output that encodeURIComponent
// leaves alone: spaces become %20, not +, and !'()* stay literal.
var componentUnescape = strings.NewReplacer(
	"+", "%20",
	"%21", "!",
	"%27", "'",
	"%28", "(",
	"%29", ")",
	"%2A", "*",
)

// escapeComponent escapes like encodeURIComponent
func escapeComponent(s string) string {
	return componentUnescape.Replace(url.QueryEscape(s))
}

// Renumber assigns contiguous zero-based orders following the given sequence
func Renumber(seq []domain.Spot) []domain.Spot {
	out := make([]domain.Spot, len(seq))
	for i, s := range seq {
		out[i] = s.Clone()
		out[i].Order = i
	}
	return out
}

// UsedTags returns every tag present in spots, vocabulary tags first
func UsedTags(spots []domain.Spot) []string {
	seen := make(map[string]bool)
	for _, s := range spots {
		for _, t := range s.Tags {
			seen[t] = true
		}
	}
	var out []string
	for _, t := range domain.Tags {
		if seen[t] {
			out = append(out, t)
			delete(seen, t)
		}
	}
	var extra []string
	for t := range seen {
		extra = append(extra, t)
	}
	sort.Strings(extra)
	return append(out, extra...)
}

func sortByOrder(spots []domain.Spot) {
	sort.SliceStable(spots, func(i, j int) bool {
		return spots[i].Order < spots[j].Order
	})
}
