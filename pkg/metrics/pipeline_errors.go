package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	// PipelineErrors counts reported pipeline failures by error class.
	PipelineErrors ClassCounterMetric = &pipelineErrors{}
)

func init() {
	PipelineErrors.(*pipelineErrors).init()
}

type pipelineErrors struct {
	initOnlyOnce sync.Once
	metric       *prometheus.CounterVec
}

func (m *pipelineErrors) init() {
	m.initOnlyOnce.Do(func() {
		m.metric = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Subsystem: Subsystem,
				Name:      "pipeline_errors_total",
				Help: "The number of failures reported by the metrics pipeline, partitioned by error class." +
					" None of these failures is fatal: rejected events, timed out or conflicting contributions," +
					" failing tick listeners and failed exports are dropped after being counted here.",
			},
			[]string{
				"class",
			},
		)
		Registerer().MustRegister(m.metric)
	})
}

func (m *pipelineErrors) Inc(class string) {
	if class == "" {
		class = "undefined"
	}
	m.metric.WithLabelValues(class).Inc()
}
