package collector

import (
	"context"
	"sync"

	"github.com/guxg/colossus/pkg/address"
	perrors "github.com/guxg/colossus/pkg/errors"
	"github.com/guxg/colossus/pkg/metric"
	"github.com/pkg/errors"
)

// ErrClosed is returned when recording into a closed collector.
var ErrClosed = errors.New("collector is closed")

//go:generate mockgen -destination=mocks/mocks.go -package=mocks github.com/guxg/colossus/pkg/collector Upstream

// Upstream receives the contributions of collectors.
type Upstream interface {
	// Register adds a contributor that is flushed on every tick.
	Register(name string, c metric.Contributor) (unregister func())

	// Submit hands over a final contribution. It is merged on the next
	// tick.
	Submit(name string, m metric.MetricMap)
}

// Options configure a collector.
type Options struct {
	// Namespace is prepended to all recorded addresses.
	Namespace address.Address

	// Tags are added to all recorded events. Event tags win on conflict.
	Tags metric.TagMap

	// HistogramBuckets are the bounds of new histograms. Nil selects
	// metric.DefaultBuckets.
	HistogramBuckets []float64
}

type slot struct {
	address address.Address
	tags    metric.TagMap
	acc     metric.Accumulator
}

// Collector accumulates events of one producer between ticks.
// Recording is safe for concurrent use. Events for different metrics never
// contend.
type Collector struct {
	name       string
	opts       Options
	upstream   Upstream
	unregister func()

	slots sync.Map // metric.Key -> *slot

	// lifecycle is held shared while an event is applied and exclusively
	// while the collector is being closed.
	lifecycle sync.RWMutex
	closed    bool
	closeOnce sync.Once
}

var _ metric.Contributor = (*Collector)(nil)
var _ Recorder = (*Collector)(nil)

// New creates a collector and registers it with upstream.
func New(name string, opts Options, upstream Upstream) (*Collector, error) {
	if opts.HistogramBuckets != nil {
		if _, err := metric.NewAccumulator(metric.KindHistogram, opts.HistogramBuckets); err != nil {
			return nil, errors.Wrapf(err, "invalid options for collector %q", name)
		}
		opts.HistogramBuckets = append([]float64(nil), opts.HistogramBuckets...)
	}
	c := &Collector{
		name:     name,
		opts:     opts,
		upstream: upstream,
	}
	c.unregister = upstream.Register(name, c)
	return c, nil
}

// Name returns the name the collector is registered with.
func (c *Collector) Name() string {
	return c.name
}

// Namespace returns the namespace of the collector.
func (c *Collector) Namespace() address.Address {
	return c.opts.Namespace
}

// Record applies ev to the metric at addr below the collector's namespace.
// Invalid events are reported, leave the state unchanged and are returned
// as error.
func (c *Collector) Record(addr address.Address, tags metric.TagMap, ev metric.Event) error {
	if err := c.record(addr, tags, ev); err != nil {
		err = perrors.Classify(errors.Wrapf(err, "collector %q rejected %s event for %q", c.name, ev.Kind, addr), perrors.ClassProducer)
		perrors.Report(err)
		return err
	}
	return nil
}

func (c *Collector) record(addr address.Address, tags metric.TagMap, ev metric.Event) error {
	c.lifecycle.RLock()
	defer c.lifecycle.RUnlock()
	if c.closed {
		return ErrClosed
	}
	if err := ev.Validate(); err != nil {
		return err
	}
	full := c.opts.Namespace.Child(addr)
	allTags := c.opts.Tags.Merge(tags)
	key := metric.NewKey(full, allTags)

	v, ok := c.slots.Load(key)
	if !ok {
		acc, err := metric.NewAccumulator(ev.Kind, c.opts.HistogramBuckets)
		if err != nil {
			return err
		}
		v, _ = c.slots.LoadOrStore(key, &slot{address: full, tags: allTags, acc: acc})
	}
	s := v.(*slot)
	if kind := s.acc.Kind(); kind != ev.Kind {
		return errors.Wrapf(metric.ErrKindMismatch, "metric is a %s", kind)
	}
	s.acc.Absorb(ev)
	return nil
}

// Increment adds one to the counter at path.
func (c *Collector) Increment(path string, tags metric.TagMap) {
	c.recordPath(path, tags, metric.CounterDelta(1))
}

// Add adds n to the counter at path.
func (c *Collector) Add(path string, n int64, tags metric.TagMap) {
	c.recordPath(path, tags, metric.CounterDelta(n))
}

// Set sets the gauge at path.
func (c *Collector) Set(path string, v float64, tags metric.TagMap) {
	c.recordPath(path, tags, metric.GaugeSet(v))
}

// Hit adds one hit to the rate at path.
func (c *Collector) Hit(path string, tags metric.TagMap) {
	c.recordPath(path, tags, metric.RateHits(1))
}

// Observe adds v to the histogram at path.
func (c *Collector) Observe(path string, v float64, tags metric.TagMap) {
	c.recordPath(path, tags, metric.Observation(v))
}

func (c *Collector) recordPath(path string, tags metric.TagMap, ev metric.Event) {
	addr, err := address.Parse(path)
	if err != nil {
		perrors.Report(perrors.Classify(errors.Wrapf(err, "collector %q", c.name), perrors.ClassProducer))
		return
	}
	_ = c.Record(addr, tags, ev)
}

// Flush drains all accumulators into a MetricMap. Counters and rates are
// contained even if idle, gauges only if set since the previous flush and
// histograms only if observed.
func (c *Collector) Flush(ctx context.Context) (metric.MetricMap, error) {
	b := metric.NewBuilder()
	c.slots.Range(func(_, v any) bool {
		s := v.(*slot)
		if value, ok := s.acc.Drain(); ok {
			b.Put(metric.Entry{Address: s.address, Tags: s.tags, Value: value})
		}
		return true
	})
	return b.Build(), nil
}

// Close unregisters the collector and submits the events recorded since
// the last flush. Events recorded before Close returns are either in that
// final flush or rejected with ErrClosed. Close is idempotent.
func (c *Collector) Close() {
	c.closeOnce.Do(func() {
		c.lifecycle.Lock()
		c.closed = true
		c.lifecycle.Unlock()
		c.unregister()
		final, _ := c.Flush(context.Background())
		c.upstream.Submit(c.name, final)
	})
}
