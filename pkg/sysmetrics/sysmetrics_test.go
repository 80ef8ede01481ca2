package sysmetrics

import (
	"context"
	"math"
	"testing"

	"github.com/guxg/colossus/pkg/address"
	"github.com/guxg/colossus/pkg/metric"
	"github.com/prometheus/client_golang/prometheus"
	"gotest.tools/v3/assert"
)

func Test_Collector_Flush_GoRuntime(t *testing.T) {
	t.Parallel()

	// SETUP
	examinee := New(DefaultNamespace)

	// EXERCISE
	m, err := examinee.Flush(context.Background())

	// VERIFY
	assert.NilError(t, err)
	v, ok := m.Get(address.MustParse("system/go_goroutines"), metric.NoTags)
	assert.Assert(t, ok)
	assert.Assert(t, float64(v.(metric.GaugeValue)) >= 1)
	for _, e := range m.Entries() {
		assert.Equal(t, e.Value.Kind(), metric.KindGauge, e.Address.String())
	}
}

func Test_Collector_Flush_ConvertsFamilies(t *testing.T) {
	t.Parallel()

	// SETUP
	registry := prometheus.NewRegistry()
	gauge := prometheus.NewGauge(prometheus.GaugeOpts{Name: "temperature"})
	counter := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "events_total"}, []string{"source"})
	histogram := prometheus.NewHistogram(prometheus.HistogramOpts{Name: "latency"})
	nan := prometheus.NewGauge(prometheus.GaugeOpts{Name: "broken"})
	registry.MustRegister(gauge, counter, histogram, nan)
	gauge.Set(21.5)
	counter.WithLabelValues("disk").Add(3)
	histogram.Observe(1)
	nan.Set(math.NaN())
	examinee := newCollector(address.MustParse("proc"), registry)

	// EXERCISE
	m, err := examinee.Flush(context.Background())

	// VERIFY
	assert.NilError(t, err)
	assert.Equal(t, m.Len(), 2)
	v, _ := m.Get(address.MustParse("proc/temperature"), metric.NoTags)
	assert.Equal(t, v, metric.Value(metric.GaugeValue(21.5)))
	v, _ = m.Get(address.MustParse("proc/events_total"), metric.Tags("source", "disk"))
	assert.Equal(t, v, metric.Value(metric.GaugeValue(3)))
}
