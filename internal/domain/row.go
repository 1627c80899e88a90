package domain

// Row is a spot as stored in the remote spots table
type Row struct {
	ID           string   `json:"id" db:"id"`
	Name         string   `json:"name" db:"name"`
	Description  string   `json:"description" db:"description"`
	Notes        string   `json:"notes" db:"notes"`
	Images       []string `json:"images" db:"-"`
	Lat          float64  `json:"lat" db:"lat"`
	Lng          float64  `json:"lng" db:"lng"`
	Day          string   `json:"day" db:"day"`
	Tags         []string `json:"tags" db:"-"`
	OpeningHours string   `json:"opening_hours" db:"opening_hours"`
	SortOrder    int      `json:"sort_order" db:"sort_order"`
	Address      string   `json:"address" db:"address"`
	IsVisited    bool     `json:"is_visited" db:"is_visited"`
}

// Remote column names
const (
	ColID           = "id"
	ColName         = "name"
	ColDescription  = "description"
	ColNotes        = "notes"
	ColImages       = "images"
	ColLat          = "lat"
	ColLng          = "lng"
	ColDay          = "day"
	ColTags         = "tags"
	ColOpeningHours = "opening_hours"
	ColSortOrder    = "sort_order"
	ColAddress      = "address"
	ColIsVisited    = "is_visited"
)

// Columns lists every column of the spots table
var Columns = []string{
	ColID, ColName, ColDescription, ColNotes, ColImages, ColLat, ColLng,
	ColDay, ColTags, ColOpeningHours, ColSortOrder, ColAddress, ColIsVisited,
}

// ToRow translates a spot to its stored form
func ToRow(s Spot) Row {
	return Row{
		ID:           s.ID,
		Name:         s.Name,
		Description:  s.Description,
		Notes:        s.Notes,
		Images:       nonNil(s.Images),
		Lat:          s.Lat,
		Lng:          s.Lng,
		Day:          string(s.Day),
		Tags:         nonNil(s.Tags),
		OpeningHours: s.OpeningHours,
		SortOrder:    s.Order,
		Address:      s.Address,
		IsVisited:    s.IsVisited,
	}
}

// FromRow translates a stored row back to a spot
func FromRow(r Row) Spot {
	return Spot{
		ID:           r.ID,
		Name:         r.Name,
		Description:  r.Description,
		Notes:        r.Notes,
		Images:       nonNil(r.Images),
		Lat:          r.Lat,
		Lng:          r.Lng,
		Day:          Day(r.Day),
		Tags:         nonNil(r.Tags),
		OpeningHours: r.OpeningHours,
		Order:        r.SortOrder,
		Address:      r.Address,
		IsVisited:    r.IsVisited,
	}
}

// FromRows maps a batch of rows
func FromRows(rows []Row) []Spot {
	spots := make([]Spot, len(rows))
	for i, r := range rows {
		spots[i] = FromRow(r)
	}
	return spots
}

// NewRow builds the insert row for a new spot at the given position
func NewRow(n NewSpot, order int) Row {
	return Row{
		Name:         n.Name,
		Description:  n.Description,
		Notes:        n.Notes,
		Images:       nonNil(n.Images),
		Lat:          n.Lat,
		Lng:          n.Lng,
		Day:          string(n.Day),
		Tags:         nonNil(NormalizeTags(n.Tags)),
		OpeningHours: n.OpeningHours,
		SortOrder:    order,
		Address:      n.Address,
	}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
