package reporter

import (
	"context"
	"net/http"
	"strings"
	"sync"

	"github.com/guxg/colossus/pkg/metric"
	"github.com/guxg/colossus/pkg/snapshot"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// PrometheusSink exposes exported snapshots for scraping. Counters, rates
// and histograms are accumulated across snapshots, gauges show the latest
// value.
//
// Metric names are derived from addresses: segments are joined with "_",
// invalid characters are replaced. Counters get the suffix "_total", rates
// "_hits_total". Tags become labels.
type PrometheusSink struct {
	prefix   string
	registry *prometheus.Registry

	mutex    sync.Mutex
	series   map[metric.Key]*promSeries
	exported uint64
}

type promSeries struct {
	desc   *prometheus.Desc
	kind   metric.Kind
	labels []string
	value  metric.Value
}

var _ prometheus.Collector = (*PrometheusSink)(nil)

// NewPrometheusSink creates a sink whose metric names start with prefix.
func NewPrometheusSink(prefix string) *PrometheusSink {
	s := &PrometheusSink{
		prefix:   prefix,
		registry: prometheus.NewRegistry(),
		series:   map[metric.Key]*promSeries{},
	}
	s.registry.MustRegister(s)
	return s
}

// Registry returns the registry the sink is registered with.
func (s *PrometheusSink) Registry() *prometheus.Registry {
	return s.registry
}

// Handler returns an HTTP handler serving the exposition format.
func (s *PrometheusSink) Handler() http.Handler {
	return promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{})
}

// Export implements Sink.
func (s *PrometheusSink) Export(_ context.Context, snap *snapshot.Snapshot) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	snap.Metrics.Range(func(e metric.Entry) bool {
		k := e.Key()
		series, ok := s.series[k]
		if !ok || series.kind != e.Value.Kind() {
			series = s.newSeries(e)
			s.series[k] = series
			return true
		}
		if e.Value.Kind() == metric.KindGauge {
			series.value = e.Value
			return true
		}
		if merged, err := series.value.Merge(e.Value); err == nil {
			series.value = merged
		} else {
			series.value = e.Value
		}
		return true
	})
	s.exported = snap.Version
	return nil
}

func (s *PrometheusSink) newSeries(e metric.Entry) *promSeries {
	name := metricName(s.prefix, e.Address.Segments())
	switch e.Value.Kind() {
	case metric.KindCounter:
		name += "_total"
	case metric.KindRate:
		name += "_hits_total"
	}
	tags := e.Tags.Slice()
	labelNames := make([]string, len(tags))
	labelValues := make([]string, len(tags))
	for i, tag := range tags {
		labelNames[i] = sanitize(tag.Key)
		labelValues[i] = tag.Value
	}
	return &promSeries{
		desc:   prometheus.NewDesc(name, "Exported metric "+e.Address.String(), labelNames, nil),
		kind:   e.Value.Kind(),
		labels: labelValues,
		value:  e.Value,
	}
}

// Describe implements prometheus.Collector. The sink is an unchecked
// collector because its metrics are not known in advance.
func (s *PrometheusSink) Describe(chan<- *prometheus.Desc) {}

// Collect implements prometheus.Collector.
func (s *PrometheusSink) Collect(ch chan<- prometheus.Metric) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	for _, series := range s.series {
		if m, err := series.metric(); err == nil {
			ch <- m
		} else {
			ch <- prometheus.NewInvalidMetric(series.desc, err)
		}
	}
}

func (p *promSeries) metric() (prometheus.Metric, error) {
	switch v := p.value.(type) {
	case metric.CounterValue:
		return prometheus.NewConstMetric(p.desc, prometheus.CounterValue, float64(v), p.labels...)
	case metric.RateValue:
		return prometheus.NewConstMetric(p.desc, prometheus.CounterValue, float64(v.Hits), p.labels...)
	case metric.GaugeValue:
		return prometheus.NewConstMetric(p.desc, prometheus.GaugeValue, float64(v), p.labels...)
	case metric.HistogramValue:
		buckets := make(map[float64]uint64, len(v.Bounds))
		var cumulative uint64
		for i, bound := range v.Bounds {
			cumulative += v.Counts[i]
			buckets[bound] = cumulative
		}
		return prometheus.NewConstHistogram(p.desc, v.Count, v.Sum, buckets, p.labels...)
	}
	return nil, metric.ErrKindMismatch
}

func metricName(prefix string, segments []string) string {
	parts := make([]string, 0, len(segments)+1)
	if prefix != "" {
		parts = append(parts, sanitize(prefix))
	}
	for _, segment := range segments {
		parts = append(parts, sanitize(segment))
	}
	if len(parts) == 0 {
		return "root"
	}
	return strings.Join(parts, "_")
}

func sanitize(s string) string {
	var b strings.Builder
	for i, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r == '_':
			b.WriteRune(r)
		case r >= '0' && r <= '9':
			if i == 0 {
				b.WriteByte('_')
			}
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}
