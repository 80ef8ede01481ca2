package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// ExportOutcome is the result of one export of a snapshot by a reporter.
type ExportOutcome string

// Export outcomes
const (
	// ExportSucceeded marks exports accepted by the sink, possibly after
	// retries.
	ExportSucceeded ExportOutcome = "succeeded"

	// ExportFailed marks exports given up on a permanent failure or after
	// the retry budget was spent.
	ExportFailed ExportOutcome = "failed"

	// ExportAbandoned marks exports whose pending retries were dropped
	// because the reporter stopped.
	ExportAbandoned ExportOutcome = "abandoned"
)

var (
	// Exports observes finished snapshot exports of reporters.
	Exports ExportsMetric = &exportsMetric{}
)

func init() {
	Exports.(*exportsMetric).init()
}

// ExportsMetric observes finished snapshot exports.
type ExportsMetric interface {
	// Observe records one finished export of reporter. retries counts
	// the attempts after the first one. duration spans all attempts
	// including backoff waits.
	Observe(reporter string, outcome ExportOutcome, retries uint64, duration time.Duration)
}

type exportsMetric struct {
	initOnlyOnce   sync.Once
	total          *prometheus.CounterVec
	retries        *prometheus.HistogramVec
	durationMetric *prometheus.HistogramVec
}

func (m *exportsMetric) init() {
	m.initOnlyOnce.Do(func() {
		m.total = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Subsystem: Subsystem,
				Name:      "exports_total",
				Help:      "The number of snapshot exports finished by reporters, by outcome.",
			},
			[]string{"reporter", "outcome"},
		)
		Registerer().MustRegister(m.total)

		m.retries = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Subsystem: Subsystem,
				Name:      "export_retries",
				Help:      "The number of retries of snapshot exports that needed at least one retry.",
				Buckets:   prometheus.LinearBuckets(1, 1, 10),
			},
			[]string{"reporter"},
		)
		Registerer().MustRegister(m.retries)

		m.durationMetric = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Subsystem: Subsystem,
				Name:      "export_duration_seconds",
				Help:      "The time (in seconds) reporters spent on one snapshot export including retries.",
				Buckets:   prometheus.ExponentialBuckets(0.001, 4, 10),
			},
			[]string{"reporter", "outcome"},
		)
		Registerer().MustRegister(m.durationMetric)
	})
}

func (m *exportsMetric) Observe(reporter string, outcome ExportOutcome, retries uint64, duration time.Duration) {
	m.total.WithLabelValues(reporter, string(outcome)).Inc()
	m.durationMetric.WithLabelValues(reporter, string(outcome)).Observe(duration.Seconds())
	if retries > 0 {
		m.retries.WithLabelValues(reporter).Observe(float64(retries))
	}
}
