package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	// Ticks counts the ticks delivered by the pipeline clock.
	Ticks CounterMetric = &ticks{}
)

func init() {
	Ticks.(*ticks).init()
}

type ticks struct {
	initOnlyOnce sync.Once
	metric       prometheus.Counter
}

func (m *ticks) init() {
	m.initOnlyOnce.Do(func() {
		m.metric = prometheus.NewCounter(
			prometheus.CounterOpts{
				Subsystem: Subsystem,
				Name:      "ticks_total",
				Help:      "The number of ticks delivered to tick listeners.",
			},
		)
		Registerer().MustRegister(m.metric)
	})
}

func (m *ticks) Inc() {
	m.metric.Inc()
}
