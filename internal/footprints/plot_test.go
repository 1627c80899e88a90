package footprints

import (
	"bytes"
	"strings"
	"testing"

	"github.com/pbaille/trip/internal/domain"
)

func daySpots() []domain.Spot {
	return []domain.Spot{
		{ID: "a", Name: "North West", Lat: 23.0, Lng: 120.0, IsVisited: true},
		{ID: "b", Name: "Middle", Lat: 22.5, Lng: 120.5},
		{ID: "c", Name: "South East", Lat: 22.0, Lng: 121.0, IsVisited: true},
	}
}

func TestPlot_PlacesLabelsAtCorners(t *testing.T) {
	m := Plot(daySpots(), 11, 5)

	lines := strings.Split(m.String(), "\n")
	if len(lines) != 5 {
		t.Fatalf("got %d lines, want 5", len(lines))
	}
	if lines[0][0] != '1' {
		t.Errorf("top-left = %q, want '1'", lines[0][0])
	}
	if lines[4][10] != '3' {
		t.Errorf("bottom-right = %q, want '3'", lines[4][10])
	}
	if lines[2][5] != '2' {
		t.Errorf("centre = %q, want '2'", lines[2][5])
	}
	if len(m.Markers) != 3 || !m.Markers[0].Visited || m.Markers[1].Visited {
		t.Fatalf("markers = %+v", m.Markers)
	}
}

func TestPlot_PathJoinsVisitedOnly(t *testing.T) {
	m := Plot(daySpots(), 11, 5)
	if !strings.Contains(m.String(), string(pathRune)) {
		t.Fatalf("no path drawn between visited spots:\n%s", m)
	}

	spots := daySpots()
	spots[2].IsVisited = false
	m = Plot(spots, 11, 5)
	if strings.Contains(m.String(), string(pathRune)) {
		t.Fatalf("path drawn with a single visited spot:\n%s", m)
	}
}

func TestPlot_SingleSpotIsCentred(t *testing.T) {
	m := Plot([]domain.Spot{{Lat: 22.99, Lng: 120.2}}, 9, 5)
	if m.Markers[0].Row != 2 || m.Markers[0].Col != 4 {
		t.Fatalf("marker at %d,%d, want 2,4", m.Markers[0].Row, m.Markers[0].Col)
	}
}

func TestPlot_OverlapMarked(t *testing.T) {
	m := Plot([]domain.Spot{{Lat: 1, Lng: 1}, {Lat: 1, Lng: 1}}, 5, 3)
	if m.Markers[1].Label != overlapRune {
		t.Fatalf("overlapping label = %q, want %q", m.Markers[1].Label, overlapRune)
	}
}

func TestRender_StylesMarkers(t *testing.T) {
	m := Plot(daySpots(), 11, 5)
	out := m.Render(func(r rune, visited bool) string {
		if visited {
			return "[" + string(r) + "]"
		}
		return string(r)
	})
	if !strings.Contains(out, "[1]") || !strings.Contains(out, "[3]") || strings.Contains(out, "[2]") {
		t.Fatalf("render = %q", out)
	}
}

func TestPlot_Empty(t *testing.T) {
	m := Plot(nil, 4, 2)
	if m.Width != 4 || m.Height != 3 || len(m.Markers) != 0 {
		t.Fatalf("empty plot = %+v", m)
	}
}

func TestQR(t *testing.T) {
	if _, err := QR(""); err == nil {
		t.Fatalf("QR(\"\") returned nil error")
	}
	out, err := QR("https://www.google.com/maps/dir/?api=1&origin=a&destination=b")
	if err != nil {
		t.Fatalf("QR returned error: %v", err)
	}
	if strings.Count(out, "\n") < 10 {
		t.Fatalf("QR output too small: %q", out)
	}

	png, err := QRPNG("https://example.com", 128)
	if err != nil {
		t.Fatalf("QRPNG returned error: %v", err)
	}
	if !bytes.HasPrefix(png, []byte("\x89PNG")) {
		t.Fatalf("QRPNG did not return a PNG")
	}
}
