package metric

import (
	"math"
	"time"

	"github.com/pkg/errors"
)

// Value is the immutable compacted value of a metric for one tick.
type Value interface {
	// Kind returns the metric kind of the value.
	Kind() Kind

	// Merge combines the receiver with a value of the same kind
	// contributed later and returns the result. The receiver is not
	// modified. Merge fails with ErrKindMismatch if the kinds differ.
	Merge(other Value) (Value, error)
}

func mismatch(v, other Value) error {
	return errors.Wrapf(ErrKindMismatch, "cannot merge %s into %s", other.Kind(), v.Kind())
}

// CounterValue is the sum of all counter deltas of one tick.
type CounterValue int64

// Kind implements Value.
func (CounterValue) Kind() Kind { return KindCounter }

// Merge sums both counters.
func (v CounterValue) Merge(other Value) (Value, error) {
	o, ok := other.(CounterValue)
	if !ok {
		return nil, mismatch(v, other)
	}
	return v + o, nil
}

// GaugeValue is the last value a gauge was set to.
type GaugeValue float64

// Kind implements Value.
func (GaugeValue) Kind() Kind { return KindGauge }

// Merge returns other: the later writer wins.
func (v GaugeValue) Merge(other Value) (Value, error) {
	o, ok := other.(GaugeValue)
	if !ok {
		return nil, mismatch(v, other)
	}
	return o, nil
}

// RateValue is the number of hits of a rate during one tick.
type RateValue struct {
	Hits int64
}

// Kind implements Value.
func (RateValue) Kind() Kind { return KindRate }

// Merge sums the hits of both rates.
func (v RateValue) Merge(other Value) (Value, error) {
	o, ok := other.(RateValue)
	if !ok {
		return nil, mismatch(v, other)
	}
	return RateValue{Hits: v.Hits + o.Hits}, nil
}

// PerSecond returns the hits per second for the given tick period.
func (v RateValue) PerSecond(period time.Duration) float64 {
	if period <= 0 {
		return 0
	}
	return float64(v.Hits) / period.Seconds()
}

// HistogramValue is the distribution of observations during one tick.
//
// Counts has one element more than Bounds: Counts[i] is the number of
// observations v with Bounds[i-1] < v <= Bounds[i], the last element counts
// observations above the highest bound. Counts are not cumulative.
// Slices must not be modified.
type HistogramValue struct {
	Bounds []float64
	Counts []uint64
	Count  uint64
	Sum    float64
	Min    float64
	Max    float64
}

// Kind implements Value.
func (HistogramValue) Kind() Kind { return KindHistogram }

// Merge adds the bucket counts of both histograms. The bucket bounds must
// be identical.
func (v HistogramValue) Merge(other Value) (Value, error) {
	o, ok := other.(HistogramValue)
	if !ok {
		return nil, mismatch(v, other)
	}
	if !sameBounds(v.Bounds, o.Bounds) {
		return nil, errors.Wrapf(ErrBucketMismatch, "%v vs. %v", v.Bounds, o.Bounds)
	}
	if v.Count == 0 {
		return o, nil
	}
	if o.Count == 0 {
		return v, nil
	}
	counts := make([]uint64, len(v.Counts))
	for i := range counts {
		counts[i] = v.Counts[i] + o.Counts[i]
	}
	return HistogramValue{
		Bounds: v.Bounds,
		Counts: counts,
		Count:  v.Count + o.Count,
		Sum:    v.Sum + o.Sum,
		Min:    math.Min(v.Min, o.Min),
		Max:    math.Max(v.Max, o.Max),
	}, nil
}

// Mean returns the arithmetic mean of all observations.
func (v HistogramValue) Mean() float64 {
	if v.Count == 0 {
		return 0
	}
	return v.Sum / float64(v.Count)
}

// Percentile returns the upper bound of the bucket containing the p-th
// percentile (0 < p <= 1). Observations above the highest bound report Max.
func (v HistogramValue) Percentile(p float64) float64 {
	if v.Count == 0 {
		return 0
	}
	rank := uint64(math.Ceil(p * float64(v.Count)))
	var seen uint64
	for i, c := range v.Counts {
		seen += c
		if seen >= rank {
			if i < len(v.Bounds) {
				return math.Min(v.Bounds[i], v.Max)
			}
			break
		}
	}
	return v.Max
}

func sameBounds(a, b []float64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
