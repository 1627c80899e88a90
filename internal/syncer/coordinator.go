// Package syncer routes every itinerary mutation through one place: the
// change is applied to the in-memory store first, then written to the
// remote table. Remote failures are logged and returned but never rolled
// back, so local and remote state may diverge until the next Load.
package syncer

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pbaille/trip/internal/domain"
	"github.com/pbaille/trip/internal/itinerary"
	"go.uber.org/zap"
)

// Table is the remote spots table
type Table interface {
	Select(ctx context.Context) ([]domain.Row, error)
	Insert(ctx context.Context, rows []domain.Row) ([]domain.Row, error)
	Update(ctx context.Context, id string, columns map[string]any) error
	Upsert(ctx context.Context, rows []domain.Row, columns []string) error
	Delete(ctx context.Context, id string) error
}

// Geocoder resolves a spot name and optional address to a position
type Geocoder interface {
	Geocode(ctx context.Context, name, address string) (domain.Location, error)
}

// ConfirmFunc asks the user to approve a destructive action
type ConfirmFunc func(prompt string) bool

var (
	// ErrNotConfirmed is returned when a delete is declined
	ErrNotConfirmed = errors.New("not confirmed")
	// ErrUnknownSpot is returned for ids missing from the local store
	ErrUnknownSpot = errors.New("unknown spot")
)

// DefaultDebounce is the reorder quiet period before the batch is written
const DefaultDebounce = time.Second

// reorderColumns are written by the batched reorder upsert
var reorderColumns = []string{domain.ColID, domain.ColName, domain.ColDay, domain.ColSortOrder}

// Options configure a Coordinator
type Options struct {
	Debounce time.Duration
	Logger   *zap.Logger
	// OnWrite, when set, is called after every remote write completes,
	// including debounced reorder batches fired from a timer goroutine.
	OnWrite func(op string, err error)
}

// Coordinator applies mutations locally and mirrors them to the table
type Coordinator struct {
	table    Table
	spots    *itinerary.Store
	log      *zap.Logger
	debounce time.Duration
	onWrite  func(op string, err error)

	mu       sync.Mutex
	timer    *time.Timer
	pending  []domain.Row
	gen      uint64
	inflight sync.WaitGroup

	syncing atomic.Int32
}

// New creates a Coordinator over table and spots
func New(table Table, spots *itinerary.Store, opts Options) *Coordinator {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	debounce := opts.Debounce
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Coordinator{
		table:    table,
		spots:    spots,
		log:      log,
		debounce: debounce,
		onWrite:  opts.OnWrite,
	}
}

// Spots exposes the store the coordinator writes to
func (c *Coordinator) Spots() *itinerary.Store {
	return c.spots
}

// Syncing reports how many remote writes are currently running
func (c *Coordinator) Syncing() int {
	return int(c.syncing.Load())
}

// Load populates the store from the table. An empty table is seeded with
// the default itinerary and the store is filled from the insert result so
// ids are the ones the table assigned. It reports whether seeding happened.
func (c *Coordinator) Load(ctx context.Context) (bool, error) {
	rows, err := c.table.Select(ctx)
	if err != nil {
		c.log.Error("fetch spots failed", zap.Error(err))
		return false, fmt.Errorf("fetch spots: %w", err)
	}

	if len(rows) > 0 {
		c.spots.Load(domain.FromRows(rows))
		return false, nil
	}

	inserted, err := c.table.Insert(ctx, itinerary.SeedRows())
	if err != nil {
		c.log.Error("seed spots failed", zap.Error(err))
		return false, fmt.Errorf("seed spots: %w", err)
	}
	c.spots.Load(domain.FromRows(inserted))
	c.log.Info("seeded default itinerary", zap.Int("count", len(inserted)))
	return true, nil
}

// Reorder re-sequences the spots of day following ids. The store is updated
// immediately; the batch write waits for the debounce quiet period and any
// newer Reorder replaces the pending batch. Spots of the day that are not
// listed keep their relative order after the listed ones.
func (c *Coordinator) Reorder(day domain.Day, ids []string) ([]domain.Spot, error) {
	var reordered []domain.Spot
	err := c.spots.Update(func(all []domain.Spot) ([]domain.Spot, error) {
		inDay := make(map[string]domain.Spot)
		var others, dayOrder []domain.Spot
		for _, s := range all {
			if s.Day == day {
				inDay[s.ID] = s
				dayOrder = append(dayOrder, s)
			} else {
				others = append(others, s)
			}
		}

		seq := make([]domain.Spot, 0, len(inDay))
		used := make(map[string]bool, len(ids))
		for _, id := range ids {
			s, ok := inDay[id]
			if !ok {
				return nil, fmt.Errorf("reorder %s: %w: %s", day, ErrUnknownSpot, id)
			}
			if used[id] {
				return nil, fmt.Errorf("reorder %s: duplicate id %s", day, id)
			}
			used[id] = true
			seq = append(seq, s)
		}
		for _, s := range itinerary.DayList(dayOrder, day, nil) {
			if !used[s.ID] {
				seq = append(seq, s)
			}
		}

		reordered = itinerary.Renumber(seq)
		return append(others, reordered...), nil
	})
	if err != nil {
		return nil, err
	}
	if len(reordered) == 0 {
		return reordered, nil
	}

	rows := make([]domain.Row, len(reordered))
	for i, s := range reordered {
		rows[i] = domain.ToRow(s)
	}
	c.schedule(rows)
	return reordered, nil
}

// MoveToDay appends the spot to the end of target. Counting the target day
// and patching happen under one store lock so concurrent moves get distinct
// orders.
func (c *Coordinator) MoveToDay(ctx context.Context, id string, target domain.Day) error {
	if !target.Valid() {
		return fmt.Errorf("move %s: invalid day %q", id, target)
	}

	var patch domain.Patch
	err := c.spots.Update(func(all []domain.Spot) ([]domain.Spot, error) {
		idx, count := -1, 0
		for i, s := range all {
			if s.ID == id {
				idx = i
			}
			if s.Day == target {
				count++
			}
		}
		if idx < 0 {
			return nil, fmt.Errorf("move %s: %w", id, ErrUnknownSpot)
		}
		if all[idx].Day == target {
			return all, nil
		}
		patch = domain.Patch{Day: &target, Order: &count}
		all[idx] = patch.Apply(all[idx])
		return all, nil
	})
	if err != nil {
		return err
	}
	if patch.Empty() {
		return nil
	}
	c.forget(id)

	return c.write(ctx, "move", func(ctx context.Context) error {
		return c.table.Update(ctx, id, patch.Columns())
	})
}

// ToggleVisited flips the visited flag and returns the new value
func (c *Coordinator) ToggleVisited(ctx context.Context, id string) (bool, error) {
	spot, ok := c.spots.Get(id)
	if !ok {
		return false, fmt.Errorf("toggle %s: %w", id, ErrUnknownSpot)
	}
	visited := !spot.IsVisited
	patch := domain.Patch{IsVisited: &visited}
	c.spots.Patch(id, patch)

	return visited, c.write(ctx, "toggle visited", func(ctx context.Context) error {
		return c.table.Update(ctx, id, patch.Columns())
	})
}

// Delete removes a spot after confirm approves it
func (c *Coordinator) Delete(ctx context.Context, id string, confirm ConfirmFunc) error {
	spot, ok := c.spots.Get(id)
	if !ok {
		return fmt.Errorf("delete %s: %w", id, ErrUnknownSpot)
	}
	if confirm == nil || !confirm(fmt.Sprintf("Delete %q from the itinerary?", spot.Name)) {
		return ErrNotConfirmed
	}
	c.spots.Remove(id)
	c.forget(id)

	return c.write(ctx, "delete", func(ctx context.Context) error {
		return c.table.Delete(ctx, id)
	})
}

// Update merges detail edits. Day and order changes go through MoveToDay
// and Reorder instead.
func (c *Coordinator) Update(ctx context.Context, id string, p domain.Patch) error {
	if p.Day != nil || p.Order != nil {
		return fmt.Errorf("update %s: day and order are changed by move and reorder", id)
	}
	if p.Empty() {
		return nil
	}
	if !c.spots.Patch(id, p) {
		return fmt.Errorf("update %s: %w", id, ErrUnknownSpot)
	}

	return c.write(ctx, "update", func(ctx context.Context) error {
		return c.table.Update(ctx, id, p.Columns())
	})
}

// Add inserts a new spot at the end of its day. Nothing is added locally
// unless the insert succeeds; the stored row is authoritative.
func (c *Coordinator) Add(ctx context.Context, n domain.NewSpot) (domain.Spot, error) {
	if err := n.Validate(); err != nil {
		return domain.Spot{}, err
	}

	row := domain.NewRow(n, c.spots.CountDay(n.Day))
	var inserted []domain.Row
	err := c.write(ctx, "add", func(ctx context.Context) error {
		var err error
		inserted, err = c.table.Insert(ctx, []domain.Row{row})
		if err == nil && len(inserted) == 0 {
			err = fmt.Errorf("insert returned no rows")
		}
		return err
	})
	if err != nil {
		return domain.Spot{}, err
	}

	spot := domain.FromRow(inserted[0])
	c.spots.Append(spot)
	return spot, nil
}

// AddWithLookup resolves the position of n before adding it. When the
// lookup fails the spot keeps the typed address and gets the fallback
// coordinates.
func (c *Coordinator) AddWithLookup(ctx context.Context, n domain.NewSpot, g Geocoder) (domain.Spot, error) {
	if err := n.Validate(); err != nil {
		return domain.Spot{}, err
	}

	loc, err := c.lookup(ctx, g, n.Name, n.Address)
	if err != nil {
		c.log.Warn("geocoding failed, using fallback location",
			zap.String("name", n.Name), zap.Error(err))
		n.Lat, n.Lng = domain.FallbackLocation.Lat, domain.FallbackLocation.Lng
	} else {
		n.Lat, n.Lng = loc.Lat, loc.Lng
		if loc.StandardAddress != "" {
			n.Address = loc.StandardAddress
		}
	}
	return c.Add(ctx, n)
}

// UpdateAddress stores a new address and re-resolves coordinates. On lookup
// failure only the address text is saved.
func (c *Coordinator) UpdateAddress(ctx context.Context, id, address string, g Geocoder) error {
	spot, ok := c.spots.Get(id)
	if !ok {
		return fmt.Errorf("update address %s: %w", id, ErrUnknownSpot)
	}
	if address == spot.Address {
		return nil
	}

	loc, err := c.lookup(ctx, g, spot.Name, address)
	if err != nil {
		c.log.Warn("geocoding failed, saving address only",
			zap.String("id", id), zap.Error(err))
		return c.Update(ctx, id, domain.Patch{Address: &address})
	}

	std := address
	if loc.StandardAddress != "" {
		std = loc.StandardAddress
	}
	return c.Update(ctx, id, domain.Patch{Address: &std, Lat: &loc.Lat, Lng: &loc.Lng})
}

func (c *Coordinator) lookup(ctx context.Context, g Geocoder, name, address string) (domain.Location, error) {
	if g == nil {
		return domain.Location{}, fmt.Errorf("no geocoder configured")
	}
	return g.Geocode(ctx, name, address)
}

// write runs a remote call, logging and reporting its outcome
func (c *Coordinator) write(ctx context.Context, op string, fn func(context.Context) error) error {
	c.syncing.Add(1)
	err := fn(ctx)
	c.syncing.Add(-1)

	if err != nil {
		c.log.Error("remote write failed", zap.String("op", op), zap.Error(err))
		err = fmt.Errorf("%s: %w", op, err)
	}
	if c.onWrite != nil {
		c.onWrite(op, err)
	}
	return err
}
