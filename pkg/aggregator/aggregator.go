package aggregator

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/benbjohnson/clock"
	perrors "github.com/guxg/colossus/pkg/errors"
	"github.com/guxg/colossus/pkg/metric"
	"github.com/guxg/colossus/pkg/metrics"
	"github.com/guxg/colossus/pkg/snapshot"
	"github.com/pkg/errors"
	klog "k8s.io/klog/v2"
)

// DefaultCollectionTimeout is used if Options.CollectionTimeout is not
// positive.
const DefaultCollectionTimeout = 500 * time.Millisecond

// Options configure an aggregator.
type Options struct {
	// Clock is used for snapshot timestamps and tick durations.
	// Nil selects the wall clock.
	Clock clock.Clock

	// CollectionTimeout bounds the time contributors are waited for
	// per tick.
	CollectionTimeout time.Duration
}

type registration struct {
	id          uint64
	name        string
	contributor metric.Contributor
	flushing    atomic.Bool
}

type contribution struct {
	name    string
	metrics metric.MetricMap
}

// Aggregator merges the contributions of all registered contributors once
// per tick and publishes the result to a snapshot cell.
type Aggregator struct {
	cell    *snapshot.Cell
	clock   clock.Clock
	timeout time.Duration

	mutex         sync.Mutex
	registrations []*registration
	nextID        uint64
	late          []contribution
	submitted     []contribution

	tickMutex sync.Mutex
	closed    bool
	state     atomic.Int32
	shapes    map[metric.Key]metric.Value
}

// New creates an aggregator publishing to cell.
func New(cell *snapshot.Cell, opts Options) *Aggregator {
	if opts.Clock == nil {
		opts.Clock = clock.New()
	}
	if opts.CollectionTimeout <= 0 {
		opts.CollectionTimeout = DefaultCollectionTimeout
	}
	return &Aggregator{
		cell:    cell,
		clock:   opts.Clock,
		timeout: opts.CollectionTimeout,
		shapes:  map[metric.Key]metric.Value{},
	}
}

// Register adds a contributor that is flushed on every tick. Contributors
// are merged in registration order.
func (a *Aggregator) Register(name string, c metric.Contributor) (unregister func()) {
	a.mutex.Lock()
	defer a.mutex.Unlock()
	a.nextID++
	id := a.nextID
	a.registrations = append(a.registrations, &registration{id: id, name: name, contributor: c})
	return func() {
		a.mutex.Lock()
		defer a.mutex.Unlock()
		for i, r := range a.registrations {
			if r.id == id {
				a.registrations = append(a.registrations[:i:i], a.registrations[i+1:]...)
				return
			}
		}
	}
}

// Submit queues a contribution for the next tick. Submitted contributions
// are merged after those of registered contributors in submission order.
func (a *Aggregator) Submit(name string, m metric.MetricMap) {
	if m.Len() == 0 {
		return
	}
	a.mutex.Lock()
	defer a.mutex.Unlock()
	a.submitted = append(a.submitted, contribution{name: name, metrics: m})
}

// State returns the current phase of the aggregator.
func (a *Aggregator) State() State {
	return State(a.state.Load())
}

func (a *Aggregator) setState(s State) {
	a.state.Store(int32(s))
}

// OnTick collects all contributions, merges them and publishes the result.
// Failures of single contributions are reported and never fail the tick.
func (a *Aggregator) OnTick(ctx context.Context) error {
	a.tickMutex.Lock()
	defer a.tickMutex.Unlock()
	if a.closed {
		return nil
	}
	defer a.setState(StateIdle)

	logger := klog.FromContext(ctx)
	start := a.clock.Now()

	a.setState(StateCollecting)
	contributions := a.collect(ctx, a.currentRegistrations())

	a.setState(StateMerging)
	contributions = append(a.takeLate(), contributions...)
	contributions = append(contributions, a.takeSubmitted()...)
	merged := a.merge(contributions)

	a.setState(StatePublished)
	s := a.cell.Publish(merged)
	metrics.SnapshotEntries.Set(float64(merged.Len()))
	metrics.TickDuration.ObserveDuration(a.clock.Since(start))
	logger.V(4).Info("Snapshot published", "version", s.Version, "entries", merged.Len(), "contributions", len(contributions))
	return nil
}

// Close waits for a tick in progress to publish and turns later ticks into
// no-ops. The snapshot cell keeps the last published snapshot. Close is
// idempotent.
func (a *Aggregator) Close() {
	a.tickMutex.Lock()
	defer a.tickMutex.Unlock()
	a.closed = true
}

func (a *Aggregator) currentRegistrations() []*registration {
	a.mutex.Lock()
	defer a.mutex.Unlock()
	return append([]*registration(nil), a.registrations...)
}

// carryOver queues a contribution that missed the collection phase of its
// tick. Late contributions are merged before the contributions collected
// in the next tick, so fresher gauge values win.
func (a *Aggregator) carryOver(name string, m metric.MetricMap) {
	if m.Len() == 0 {
		return
	}
	a.mutex.Lock()
	defer a.mutex.Unlock()
	a.late = append(a.late, contribution{name: name, metrics: m})
}

func (a *Aggregator) takeLate() []contribution {
	a.mutex.Lock()
	defer a.mutex.Unlock()
	result := a.late
	a.late = nil
	return result
}

func (a *Aggregator) takeSubmitted() []contribution {
	a.mutex.Lock()
	defer a.mutex.Unlock()
	result := a.submitted
	a.submitted = nil
	return result
}

// merge starts from the carried entries of the current snapshot and merges
// the contributions in order: late results of earlier ticks, then this
// tick's collected contributions, then submitted ones. A contribution conflicting with established
// metric shapes is dropped as a whole.
func (a *Aggregator) merge(contributions []contribution) metric.MetricMap {
	b := metric.NewBuilder()
	a.cell.Current().Range(func(e metric.Entry) bool {
		if e.Value.Kind().Carried() {
			b.Put(e)
		}
		return true
	})
	for _, c := range contributions {
		if err := a.mergeContribution(b, c.metrics); err != nil {
			perrors.Report(perrors.Classify(
				errors.Wrapf(err, "contribution of %q dropped", c.name),
				perrors.ClassMergeConflict,
			))
		}
	}
	return b.Build()
}

func (a *Aggregator) mergeContribution(b *metric.Builder, m metric.MetricMap) error {
	updates := make([]metric.Entry, 0, m.Len())
	var err error
	m.Range(func(e metric.Entry) bool {
		k := e.Key()
		if shape, ok := a.shapes[k]; ok {
			if _, err = shape.Merge(e.Value); err != nil {
				err = errors.Wrapf(err, "metric %q {%s}", e.Address, e.Tags)
				return false
			}
		}
		if existing, ok := b.Lookup(k); ok {
			var merged metric.Value
			if merged, err = existing.Value.Merge(e.Value); err != nil {
				err = errors.Wrapf(err, "metric %q {%s}", e.Address, e.Tags)
				return false
			}
			existing.Value = merged
			e = existing
		}
		updates = append(updates, e)
		return true
	})
	if err != nil {
		return err
	}
	for _, e := range updates {
		b.Put(e)
		k := e.Key()
		if _, ok := a.shapes[k]; !ok {
			a.shapes[k] = shapeOf(e.Value)
		}
	}
	return nil
}

// shapeOf returns the identity value of the kind of v. Merging a value into
// the shape fails if the value is incompatible with v.
func shapeOf(v metric.Value) metric.Value {
	switch v := v.(type) {
	case metric.CounterValue:
		return metric.CounterValue(0)
	case metric.GaugeValue:
		return metric.GaugeValue(0)
	case metric.RateValue:
		return metric.RateValue{}
	case metric.HistogramValue:
		return metric.HistogramValue{Bounds: v.Bounds, Counts: make([]uint64, len(v.Counts))}
	}
	return v
}
