package itinerary

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/pbaille/trip/internal/domain"
)

// OpenState is the evaluated status of a spot's opening hours
type OpenState int

const (
	StateUnknown OpenState = iota
	StateOpen
	StateClosed
)

// Label is the short text shown next to a spot
func (s OpenState) Label() string {
	switch s {
	case StateOpen:
		return "open now"
	case StateClosed:
		return "closed"
	}
	return "check on site"
}

var hoursPattern = regexp.MustCompile(`(\d{2}):(\d{2})\s*-\s*(\d{2}):(\d{2})`)

// Hours is a parsed opening window in minutes since midnight
type Hours struct {
	AllDay bool
	Start  int
	End    int
}

// ParseHours reads the 24-hour sentinel or an "HH:MM - HH:MM" range.
// Trailing text such as "(closed Wed)" is ignored.
func ParseHours(s string) (Hours, bool) {
	if s == domain.OpenAllDay {
		return Hours{AllDay: true}, true
	}
	m := hoursPattern.FindStringSubmatch(s)
	if m == nil {
		return Hours{}, false
	}
	start, ok1 := minutes(m[1], m[2])
	end, ok2 := minutes(m[3], m[4])
	if !ok1 || !ok2 {
		return Hours{}, false
	}
	return Hours{Start: start, End: end}, true
}

// Contains reports whether the minute-of-day falls in the window. A window
// whose end is before its start spans midnight.
func (h Hours) Contains(minute int) bool {
	if h.AllDay {
		return true
	}
	if h.End < h.Start {
		return minute >= h.Start || minute <= h.End
	}
	return minute >= h.Start && minute <= h.End
}

// String formats the window back into its stored form
func (h Hours) String() string {
	if h.AllDay {
		return domain.OpenAllDay
	}
	return FormatHours(h.Start, h.End)
}

// HoursStatus evaluates opening hours against the wall-clock time of now.
// Unparsable values are never reported open.
func HoursStatus(openingHours string, now time.Time) OpenState {
	h, ok := ParseHours(openingHours)
	if !ok {
		return StateUnknown
	}
	if h.Contains(now.Hour()*60 + now.Minute()) {
		return StateOpen
	}
	return StateClosed
}

// FormatHours renders a start-end pair given in minutes since midnight
func FormatHours(start, end int) string {
	return fmt.Sprintf("%02d:%02d - %02d:%02d", start/60, start%60, end/60, end%60)
}

// ParseClock reads a single "HH:MM"
func ParseClock(s string) (int, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, fmt.Errorf("parse time %q: %w", s, err)
	}
	return t.Hour()*60 + t.Minute(), nil
}

func minutes(hh, mm string) (int, bool) {
	h, err := strconv.Atoi(hh)
	if err != nil {
		return 0, false
	}
	m, err := strconv.Atoi(mm)
	if err != nil {
		return 0, false
	}
	return h*60 + m, true
}

// CleanHours validates hours typed by a user. Empty clears the field,
// "24h" and "24-hour" mean always open, and a range keeps any trailing note.
func CleanHours(s string) (string, error) {
	s = strings.TrimSpace(s)
	switch strings.ToLower(s) {
	case "":
		return "", nil
	case "24h", "24-hour", "24 hours":
		return domain.OpenAllDay, nil
	}

	idx := hoursPattern.FindStringSubmatchIndex(s)
	if idx == nil || idx[0] != 0 {
		return "", fmt.Errorf("invalid opening hours %q (want HH:MM - HH:MM or 24-hour)", s)
	}
	for g := 1; g <= 4; g++ {
		n, _ := strconv.Atoi(s[idx[2*g]:idx[2*g+1]])
		limit := 60
		if g%2 == 1 {
			limit = 24
		}
		if n >= limit {
			return "", fmt.Errorf("invalid opening hours %q: time out of range", s)
		}
	}

	h, _ := ParseHours(s)
	if rest := strings.TrimSpace(s[idx[1]:]); rest != "" {
		return h.String() + " " + rest, nil
	}
	return h.String(), nil
}
