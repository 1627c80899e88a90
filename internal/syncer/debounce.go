package syncer

import (
	"context"
	"time"

	"github.com/pbaille/trip/internal/domain"
)

// schedule replaces the pending rows of the reordered day and restarts the
// single timer. Rows of another day still waiting are kept in the batch.
func (c *Coordinator) schedule(rows []domain.Row) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.timer != nil {
		c.timer.Stop()
	}
	c.pending = mergeBatch(c.pending, rows)
	c.gen++
	gen := c.gen
	c.timer = time.AfterFunc(c.debounce, func() { c.fire(gen) })
}

func mergeBatch(pending, rows []domain.Row) []domain.Row {
	if len(pending) == 0 {
		return rows
	}
	day := rows[0].Day
	ids := make(map[string]bool, len(rows))
	for _, r := range rows {
		ids[r.ID] = true
	}
	out := make([]domain.Row, 0, len(pending)+len(rows))
	for _, r := range pending {
		if r.Day != day && !ids[r.ID] {
			out = append(out, r)
		}
	}
	return append(out, rows...)
}

// forget drops a spot from the pending batch. A queued upsert would
// otherwise undo a later move or recreate a deleted row.
func (c *Coordinator) forget(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.pending == nil {
		return
	}
	kept := make([]domain.Row, 0, len(c.pending))
	for _, r := range c.pending {
		if r.ID != id {
			kept = append(kept, r)
		}
	}
	if len(kept) > 0 {
		c.pending = kept
		return
	}
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	c.pending = nil
}

// fire sends the batch if no newer reorder superseded it
func (c *Coordinator) fire(gen uint64) {
	rows, ok := c.take(gen)
	if !ok {
		return
	}
	defer c.inflight.Done()
	_ = c.writeReorder(context.Background(), rows)
}

// take claims the pending batch. gen 0 claims whatever is pending.
func (c *Coordinator) take(gen uint64) ([]domain.Row, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.pending == nil || (gen != 0 && gen != c.gen) {
		return nil, false
	}
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	rows := c.pending
	c.pending = nil
	c.gen++
	c.inflight.Add(1)
	return rows, true
}

func (c *Coordinator) writeReorder(ctx context.Context, rows []domain.Row) error {
	return c.write(ctx, "reorder", func(ctx context.Context) error {
		return c.table.Upsert(ctx, rows, reorderColumns)
	})
}

// Pending reports whether a reorder batch is waiting for its timer
func (c *Coordinator) Pending() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pending != nil
}

// Flush writes any pending reorder batch now and waits for batches already
// in flight. Call it before exiting so the last ordering is not lost.
func (c *Coordinator) Flush(ctx context.Context) error {
	var err error
	if rows, ok := c.take(0); ok {
		err = c.writeReorder(ctx, rows)
		c.inflight.Done()
	}
	c.inflight.Wait()
	return err
}
