package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	// TickDuration observes how long the aggregator needed to collect,
	// merge and publish one snapshot.
	TickDuration DurationObserver = &tickDuration{}
)

func init() {
	TickDuration.(*tickDuration).init()
}

type tickDuration struct {
	initOnlyOnce sync.Once
	metric       prometheus.Histogram
}

func (m *tickDuration) init() {
	m.initOnlyOnce.Do(func() {
		buckets := func() []float64 {
			list := make([]float64, 0, 12)
			for i := 1e-5; i <= 1e+0; i *= 10.0 {
				list = append(list, i, i*5.0)
			}
			return list
		}

		m.metric = prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Subsystem: Subsystem,
				Name:      "tick_duration_seconds",
				Help: "A histogram of the time the aggregator needed per tick." +
					" The duration covers collecting all contributions, merging them and publishing the snapshot.",
				Buckets: buckets(),
			},
		)
		Registerer().MustRegister(m.metric)
	})
}

func (m *tickDuration) ObserveDuration(d time.Duration) {
	m.metric.Observe(d.Seconds())
}
