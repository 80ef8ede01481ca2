package snapshot

import (
	"sync/atomic"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/guxg/colossus/pkg/metric"
)

// Snapshot is one published, immutable state of all metrics.
type Snapshot struct {
	// Version is incremented by one per publication. The initial empty
	// snapshot has version 0.
	Version uint64

	// Taken is the clock time of the publication.
	Taken time.Time

	// Metrics are the published metrics.
	Metrics metric.MetricMap
}

// Cell holds the most recently published snapshot.
// Publish must be called by a single writer. Reads never block and can be
// done from any goroutine.
type Cell struct {
	clock   clock.Clock
	current atomic.Pointer[Snapshot]
}

// NewCell returns a cell holding an empty snapshot of version 0.
// If clk is nil, the wall clock is used.
func NewCell(clk clock.Clock) *Cell {
	if clk == nil {
		clk = clock.New()
	}
	c := &Cell{clock: clk}
	c.current.Store(&Snapshot{Taken: clk.Now(), Metrics: metric.EmptyMap})
	return c
}

// Publish replaces the current snapshot with m and returns the new
// snapshot.
func (c *Cell) Publish(m metric.MetricMap) *Snapshot {
	prev := c.current.Load()
	next := &Snapshot{
		Version: prev.Version + 1,
		Taken:   c.clock.Now(),
		Metrics: m,
	}
	c.current.Store(next)
	return next
}

// Load returns the current snapshot. The result must not be modified.
func (c *Cell) Load() *Snapshot {
	return c.current.Load()
}

// Current returns the metrics of the current snapshot.
func (c *Cell) Current() metric.MetricMap {
	return c.current.Load().Metrics
}
