package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	// SnapshotEntries reflects the number of entries of the most recently
	// published snapshot.
	SnapshotEntries SettableGaugeMetric = &snapshotEntries{}
)

func init() {
	SnapshotEntries.(*snapshotEntries).init()
}

type snapshotEntries struct {
	initOnlyOnce sync.Once
	metric       prometheus.Gauge
}

func (m *snapshotEntries) init() {
	m.initOnlyOnce.Do(func() {
		m.metric = prometheus.NewGauge(prometheus.GaugeOpts{
			Subsystem: Subsystem,
			Name:      "snapshot_entries",
			Help:      "The number of metrics in the most recently published snapshot.",
		})
		Registerer().MustRegister(m.metric)
	})
}

func (m *snapshotEntries) Set(value float64) {
	m.metric.Set(value)
}
