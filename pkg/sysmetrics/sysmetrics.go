// Package sysmetrics contributes metrics of the Go runtime and the process
// to a metric system.
package sysmetrics

import (
	"context"
	"math"

	"github.com/guxg/colossus/pkg/address"
	perrors "github.com/guxg/colossus/pkg/errors"
	"github.com/guxg/colossus/pkg/metric"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	dto "github.com/prometheus/client_model/go"
)

// DefaultNamespace is the namespace of process metrics below the system
// namespace.
var DefaultNamespace = address.MustParse("system")

// Collector reads runtime and process metrics on every flush.
// All metrics are reported as gauges. Counters of the runtime are reported
// with their total value.
type Collector struct {
	namespace address.Address
	gatherer  prometheus.Gatherer
}

var _ metric.Contributor = (*Collector)(nil)

// New creates a collector publishing below namespace.
func New(namespace address.Address) *Collector {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return newCollector(namespace, registry)
}

func newCollector(namespace address.Address, gatherer prometheus.Gatherer) *Collector {
	return &Collector{namespace: namespace, gatherer: gatherer}
}

// Flush implements metric.Contributor.
func (c *Collector) Flush(context.Context) (metric.MetricMap, error) {
	families, err := c.gatherer.Gather()
	if err != nil {
		// partial results are still usable
		perrors.Report(errors.Wrap(err, "gathering process metrics failed"))
	}
	b := metric.NewBuilder()
	for _, family := range families {
		addr, err := address.New(family.GetName())
		if err != nil {
			continue
		}
		addr = c.namespace.Child(addr)
		for _, m := range family.GetMetric() {
			v, ok := gaugeValue(family.GetType(), m)
			if !ok {
				continue
			}
			b.Put(metric.Entry{Address: addr, Tags: tagsOf(m), Value: metric.GaugeValue(v)})
		}
	}
	return b.Build(), nil
}

func gaugeValue(t dto.MetricType, m *dto.Metric) (float64, bool) {
	var v float64
	switch t {
	case dto.MetricType_GAUGE:
		v = m.GetGauge().GetValue()
	case dto.MetricType_COUNTER:
		v = m.GetCounter().GetValue()
	case dto.MetricType_UNTYPED:
		v = m.GetUntyped().GetValue()
	default:
		return 0, false
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

func tagsOf(m *dto.Metric) metric.TagMap {
	labels := m.GetLabel()
	if len(labels) == 0 {
		return metric.NoTags
	}
	tags := make(map[string]string, len(labels))
	for _, l := range labels {
		tags[l.GetName()] = l.GetValue()
	}
	return metric.NewTagMap(tags)
}
