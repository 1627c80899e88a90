package itinerary

import (
	"sync"

	"github.com/pbaille/trip/internal/domain"
)

// Store holds the full collection of spots. It performs no I/O.
type Store struct {
	mu    sync.RWMutex
	spots []domain.Spot
}

// Load replaces the entire collection
func (s *Store) Load(spots []domain.Spot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.spots = cloneSpots(spots)
}

// ReplaceAll swaps in a recomputed collection, e.g. after a reorder
func (s *Store) ReplaceAll(spots []domain.Spot) {
	s.Load(spots)
}

// Update replaces the collection with what fn computes from a copy of it.
// The write lock is held while fn runs so read-modify-write sequences do not
// interleave. When fn fails the collection is left unchanged.
func (s *Store) Update(fn func(spots []domain.Spot) ([]domain.Spot, error)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	next, err := fn(cloneSpots(s.spots))
	if err != nil {
		return err
	}
	s.spots = next
	return nil
}

// Patch merges fields into the spot with the given id. Unknown ids are a no-op.
func (s *Store) Patch(id string, p domain.Patch) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.spots {
		if s.spots[i].ID == id {
			s.spots[i] = p.Apply(s.spots[i])
			return true
		}
	}
	return false
}

// Append adds a spot at the end of the collection
func (s *Store) Append(spot domain.Spot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.spots = append(s.spots, spot.Clone())
}

// Remove deletes the spot with the given id
func (s *Store) Remove(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.spots {
		if s.spots[i].ID == id {
			s.spots = append(s.spots[:i], s.spots[i+1:]...)
			return true
		}
	}
	return false
}

// Get returns a copy of the spot with the given id
func (s *Store) Get(id string) (domain.Spot, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, spot := range s.spots {
		if spot.ID == id {
			return spot.Clone(), true
		}
	}
	return domain.Spot{}, false
}

// Spots returns a copy of the collection
func (s *Store) Spots() []domain.Spot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneSpots(s.spots)
}

// CountDay returns how many spots are in the given bucket
func (s *Store) CountDay(day domain.Day) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, spot := range s.spots {
		if spot.Day == day {
			n++
		}
	}
	return n
}

// Len returns the collection size
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.spots)
}

func cloneSpots(spots []domain.Spot) []domain.Spot {
	if len(spots) == 0 {
		return nil
	}
	dup := make([]domain.Spot, len(spots))
	for i, s := range spots {
		dup[i] = s.Clone()
	}
	return dup
}
