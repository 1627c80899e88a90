package domain

// Patch carries a partial update. Nil fields are left untouched.
type Patch struct {
	Notes        *string
	Address      *string
	Tags         []string
	SetTags      bool
	OpeningHours *string
	Lat          *float64
	Lng          *float64
	IsVisited    *bool
	Day          *Day
	Order        *int
}

// Empty reports whether the patch changes nothing
func (p Patch) Empty() bool {
	return p.Notes == nil && p.Address == nil && !p.SetTags && p.OpeningHours == nil &&
		p.Lat == nil && p.Lng == nil && p.IsVisited == nil && p.Day == nil && p.Order == nil
}

// WithTags returns a copy of p that replaces the tag set
func (p Patch) WithTags(tags []string) Patch {
	p.Tags = NormalizeTags(tags)
	p.SetTags = true
	return p
}

// Apply merges the provided fields into s
func (p Patch) Apply(s Spot) Spot {
	s = s.Clone()
	if p.Notes != nil {
		s.Notes = *p.Notes
	}
	if p.Address != nil {
		s.Address = *p.Address
	}
	if p.SetTags {
		s.Tags = append([]string{}, p.Tags...)
	}
	if p.OpeningHours != nil {
		s.OpeningHours = *p.OpeningHours
	}
	if p.Lat != nil {
		s.Lat = *p.Lat
	}
	if p.Lng != nil {
		s.Lng = *p.Lng
	}
	if p.IsVisited != nil {
		s.IsVisited = *p.IsVisited
	}
	if p.Day != nil {
		s.Day = *p.Day
	}
	if p.Order != nil {
		s.Order = *p.Order
	}
	return s
}

// Columns returns only the provided fields keyed by remote column name
func (p Patch) Columns() map[string]any {
	cols := make(map[string]any)
	if p.Notes != nil {
		cols[ColNotes] = *p.Notes
	}
	if p.Address != nil {
		cols[ColAddress] = *p.Address
	}
	if p.SetTags {
		cols[ColTags] = nonNil(p.Tags)
	}
	if p.OpeningHours != nil {
		cols[ColOpeningHours] = *p.OpeningHours
	}
	if p.Lat != nil {
		cols[ColLat] = *p.Lat
	}
	if p.Lng != nil {
		cols[ColLng] = *p.Lng
	}
	if p.IsVisited != nil {
		cols[ColIsVisited] = *p.IsVisited
	}
	if p.Day != nil {
		cols[ColDay] = string(*p.Day)
	}
	if p.Order != nil {
		cols[ColSortOrder] = *p.Order
	}
	return cols
}

// Ptr is a small helper for building patches
func Ptr[T any](v T) *T {
	return &v
}
