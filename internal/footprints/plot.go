package footprints

import (
	"math"
	"strings"

	"github.com/pbaille/trip/internal/domain"
)

const (
	pathRune    = '.'
	emptyRune   = ' '
	overlapRune = '*'
	labels      = "123456789abcdefghijklmnopqrstuvwxyz"
)

// Marker is a spot placed on the grid
type Marker struct {
	Spot    domain.Spot
	Label   rune
	Row     int
	Col     int
	Visited bool
}

// Map is a character rendering of one day's spots
type Map struct {
	Width   int
	Height  int
	Markers []Marker
	grid    [][]rune
	marked  map[[2]int]int
}

// Plot places a day's ordered spots on a width x height grid scaled to their
// bounding box. Each spot is labelled with its 1-based position in the day
// and consecutive visited spots are joined by a dotted path.
func Plot(day []domain.Spot, width, height int) Map {
	if width < 3 {
		width = 3
	}
	if height < 3 {
		height = 3
	}

	m := Map{Width: width, Height: height, marked: make(map[[2]int]int)}
	m.grid = make([][]rune, height)
	for r := range m.grid {
		m.grid[r] = []rune(strings.Repeat(string(emptyRune), width))
	}
	if len(day) == 0 {
		return m
	}

	minLat, maxLat := math.Inf(1), math.Inf(-1)
	minLng, maxLng := math.Inf(1), math.Inf(-1)
	for _, s := range day {
		minLat, maxLat = math.Min(minLat, s.Lat), math.Max(maxLat, s.Lat)
		minLng, maxLng = math.Min(minLng, s.Lng), math.Max(maxLng, s.Lng)
	}

	place := func(s domain.Spot) (int, int) {
		return scale(maxLat-s.Lat, maxLat-minLat, height), scale(s.Lng-minLng, maxLng-minLng, width)
	}

	var prev *[2]int
	for _, s := range day {
		if !s.IsVisited {
			continue
		}
		r, c := place(s)
		if prev != nil {
			m.line(prev[0], prev[1], r, c)
		}
		prev = &[2]int{r, c}
	}

	for i, s := range day {
		r, c := place(s)
		mk := Marker{Spot: s, Label: label(i), Row: r, Col: c, Visited: s.IsVisited}
		key := [2]int{r, c}
		if _, taken := m.marked[key]; taken {
			mk.Label = overlapRune
		}
		m.marked[key] = len(m.Markers)
		m.grid[r][c] = mk.Label
		m.Markers = append(m.Markers, mk)
	}

	return m
}

// scale maps an offset within span onto [0, cells-1], centring when span is 0
func scale(offset, span float64, cells int) int {
	if span <= 0 {
		return (cells - 1) / 2
	}
	pos := int(math.Round(offset / span * float64(cells-1)))
	return max(0, min(cells-1, pos))
}

func label(i int) rune {
	if i < len(labels) {
		return rune(labels[i])
	}
	return '+'
}

// line draws a dotted path between two cells
func (m *Map) line(r0, c0, r1, c1 int) {
	dr, dc := abs(r1-r0), abs(c1-c0)
	steps := max(dr, dc)
	for i := 0; i <= steps; i++ {
		t := 0.0
		if steps > 0 {
			t = float64(i) / float64(steps)
		}
		r := r0 + int(math.Round(t*float64(r1-r0)))
		c := c0 + int(math.Round(t*float64(c1-c0)))
		m.grid[r][c] = pathRune
	}
}

// Render returns the grid as text, passing each marker cell through mark so
// callers can style visited and pending spots differently
func (m Map) Render(mark func(label rune, visited bool) string) string {
	var sb strings.Builder
	for r, row := range m.grid {
		if r > 0 {
			sb.WriteByte('\n')
		}
		for c, ch := range row {
			if idx, ok := m.marked[[2]int{r, c}]; ok && mark != nil {
				sb.WriteString(mark(ch, m.Markers[idx].Visited))
				continue
			}
			sb.WriteRune(ch)
		}
	}
	return sb.String()
}

// String renders the grid without styling
func (m Map) String() string {
	return m.Render(nil)
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
