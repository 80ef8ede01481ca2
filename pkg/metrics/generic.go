package metrics

import "time"

// CounterMetric is a monotonic counter metric.
type CounterMetric interface {
	Inc()
}

// SettableGaugeMetric is a numeric metric that can be set to a value.
type SettableGaugeMetric interface {
	Set(float64)
}

// DurationObserver observes durations.
type DurationObserver interface {
	ObserveDuration(time.Duration)
}

// ClassCounterMetric is a counter partitioned by a class label.
type ClassCounterMetric interface {
	Inc(class string)
}
