package metric

import (
	"math"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
)

// DefaultBuckets are the histogram bucket bounds used if none are
// configured: 1ms doubling up to roughly 2.3 hours.
var DefaultBuckets = prometheus.ExponentialBuckets(0.001, 2, 24)

// Accumulator is the mutable state of one metric inside a collector.
// Implementations are safe for concurrent use.
type Accumulator interface {
	// Kind returns the metric kind handled by the accumulator.
	Kind() Kind

	// Absorb applies a validated event of the accumulator's kind.
	Absorb(e Event)

	// Compact returns the value absorbed since the last reset. The bool
	// result is false if there is nothing to report.
	Compact() (Value, bool)

	// Reset restores the identity state of the kind.
	Reset()

	// Drain is Compact followed by Reset as one atomic step.
	Drain() (Value, bool)
}

// NewAccumulator creates an accumulator for the given kind. bounds are
// only used for histograms; nil selects DefaultBuckets.
func NewAccumulator(kind Kind, bounds []float64) (Accumulator, error) {
	switch kind {
	case KindCounter:
		return &counter{}, nil
	case KindGauge:
		return &gauge{}, nil
	case KindRate:
		return &rate{}, nil
	case KindHistogram:
		if bounds == nil {
			bounds = DefaultBuckets
		}
		if len(bounds) == 0 || !sort.SliceIsSorted(bounds, func(i, j int) bool { return bounds[i] < bounds[j] }) {
			return nil, errors.Errorf("histogram bounds %v must be non-empty and sorted", bounds)
		}
		for i := 1; i < len(bounds); i++ {
			if bounds[i] == bounds[i-1] {
				return nil, errors.Errorf("histogram bounds %v contain duplicates", bounds)
			}
		}
		h := &histogram{bounds: append([]float64(nil), bounds...)}
		h.Reset()
		return h, nil
	}
	return nil, errors.Wrapf(ErrInvalidValue, "unknown metric kind %s", kind)
}

type counter struct {
	delta atomic.Int64
}

func (a *counter) Kind() Kind { return KindCounter }

func (a *counter) Absorb(e Event) { a.delta.Add(e.Delta) }

// Counters always report, an idle counter reports its identity zero.
func (a *counter) Compact() (Value, bool) { return CounterValue(a.delta.Load()), true }

func (a *counter) Reset() { a.delta.Store(0) }

func (a *counter) Drain() (Value, bool) { return CounterValue(a.delta.Swap(0)), true }

type gauge struct {
	bits  atomic.Uint64
	dirty atomic.Bool
}

func (a *gauge) Kind() Kind { return KindGauge }

func (a *gauge) Absorb(e Event) {
	a.bits.Store(math.Float64bits(e.Value))
	a.dirty.Store(true)
}

func (a *gauge) Compact() (Value, bool) {
	return GaugeValue(math.Float64frombits(a.bits.Load())), a.dirty.Load()
}

// Reset only clears the dirty flag. An unset gauge is not reported and the
// aggregator keeps the last published value.
func (a *gauge) Reset() { a.dirty.Store(false) }

func (a *gauge) Drain() (Value, bool) {
	if !a.dirty.Swap(false) {
		return nil, false
	}
	return GaugeValue(math.Float64frombits(a.bits.Load())), true
}

type rate struct {
	hits atomic.Int64
}

func (a *rate) Kind() Kind { return KindRate }

func (a *rate) Absorb(e Event) { a.hits.Add(e.Delta) }

func (a *rate) Compact() (Value, bool) { return RateValue{Hits: a.hits.Load()}, true }

func (a *rate) Reset() { a.hits.Store(0) }

func (a *rate) Drain() (Value, bool) { return RateValue{Hits: a.hits.Swap(0)}, true }

type histogram struct {
	bounds []float64

	mu     sync.Mutex
	counts []uint64
	count  uint64
	sum    float64
	min    float64
	max    float64
}

func (a *histogram) Kind() Kind { return KindHistogram }

func (a *histogram) Absorb(e Event) {
	v := e.Value
	i := sort.SearchFloat64s(a.bounds, v)
	a.mu.Lock()
	defer a.mu.Unlock()
	a.counts[i]++
	a.count++
	a.sum += v
	if v < a.min {
		a.min = v
	}
	if v > a.max {
		a.max = v
	}
}

func (a *histogram) Compact() (Value, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.compactLocked()
}

func (a *histogram) compactLocked() (Value, bool) {
	if a.count == 0 {
		return nil, false
	}
	return HistogramValue{
		Bounds: a.bounds,
		Counts: append([]uint64(nil), a.counts...),
		Count:  a.count,
		Sum:    a.sum,
		Min:    a.min,
		Max:    a.max,
	}, true
}

func (a *histogram) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.resetLocked()
}

func (a *histogram) resetLocked() {
	a.counts = make([]uint64, len(a.bounds)+1)
	a.count = 0
	a.sum = 0
	a.min = math.Inf(1)
	a.max = math.Inf(-1)
}

func (a *histogram) Drain() (Value, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	v, ok := a.compactLocked()
	if ok {
		a.resetLocked()
	}
	return v, ok
}
