package metric

import (
	"fmt"
	"math"

	"github.com/pkg/errors"
)

// Kind identifies the type of a metric.
type Kind int

// Metric kinds
const (
	KindUndefined Kind = iota
	KindCounter
	KindGauge
	KindRate
	KindHistogram
)

var kindNames = map[Kind]string{
	KindUndefined: "undefined",
	KindCounter:   "counter",
	KindGauge:     "gauge",
	KindRate:      "rate",
	KindHistogram: "histogram",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Carried reports whether the last value of this kind survives ticks
// without new events. Only gauges are carried; all other kinds restart
// from their identity value every tick.
func (k Kind) Carried() bool {
	return k == KindGauge
}

var (
	// ErrKindMismatch is returned if an event or value does not match the
	// kind already established for a metric.
	ErrKindMismatch = errors.New("metric kind mismatch")

	// ErrInvalidValue is returned for values an accumulator cannot absorb.
	ErrInvalidValue = errors.New("invalid metric value")

	// ErrBucketMismatch is returned when histograms with different bucket
	// bounds are merged.
	ErrBucketMismatch = errors.New("histogram bucket bounds differ")
)

// Event is a single observation recorded by application code.
type Event struct {
	Kind Kind

	// Value is the gauge value or the histogram observation.
	Value float64

	// Delta is the counter increment or the number of rate hits. Integral
	// kinds never travel as float64, so large values stay exact.
	Delta int64
}

// CounterDelta returns an event adding n to a counter.
func CounterDelta(n int64) Event {
	return Event{Kind: KindCounter, Delta: n}
}

// GaugeSet returns an event setting a gauge to v.
func GaugeSet(v float64) Event {
	return Event{Kind: KindGauge, Value: v}
}

// RateHits returns an event adding n hits to a rate.
func RateHits(n int64) Event {
	return Event{Kind: KindRate, Delta: n}
}

// Observation returns an event adding v to a histogram.
func Observation(v float64) Event {
	return Event{Kind: KindHistogram, Value: v}
}

// Validate checks the event against the rules of its kind. Counter and
// rate events carry their amount in Delta only, gauge and histogram events
// in Value only.
func (e Event) Validate() error {
	switch e.Kind {
	case KindCounter, KindRate:
		if e.Value != 0 {
			return errors.Wrapf(ErrInvalidValue, "%s event has value %v, integral amounts go into Delta", e.Kind, e.Value)
		}
		if e.Kind == KindRate && e.Delta < 0 {
			return errors.Wrapf(ErrInvalidValue, "rate hits %d must not be negative", e.Delta)
		}
	case KindGauge, KindHistogram:
		if math.IsNaN(e.Value) || math.IsInf(e.Value, 0) {
			return errors.Wrapf(ErrInvalidValue, "%s value %v is not finite", e.Kind, e.Value)
		}
		if e.Delta != 0 {
			return errors.Wrapf(ErrInvalidValue, "%s event has delta %d, values go into Value", e.Kind, e.Delta)
		}
	default:
		return errors.Wrapf(ErrInvalidValue, "unknown metric kind %s", e.Kind)
	}
	return nil
}
