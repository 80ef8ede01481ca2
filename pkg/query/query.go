// Package query selects metrics from the current snapshot.
package query

import (
	"github.com/guxg/colossus/pkg/address"
	"github.com/guxg/colossus/pkg/metric"
	"github.com/pkg/errors"
)

// Source provides the current metrics.
type Source interface {
	Current() metric.MetricMap
}

// Querier applies filters to the metrics of a source.
type Querier struct {
	source Source
}

// New returns a querier reading from src.
func New(src Source) Querier {
	return Querier{source: src}
}

// Query returns the metrics of the current snapshot matching f.
func (q Querier) Query(f address.Filter) metric.MetricMap {
	return Apply(q.source.Current(), f)
}

// QueryString parses s as filter and queries with it.
func (q Querier) QueryString(s string) (metric.MetricMap, error) {
	f, err := address.ParseFilter(s)
	if err != nil {
		return metric.EmptyMap, errors.Wrap(err, "query failed")
	}
	return q.Query(f), nil
}

// Apply returns the entries of m matching f. m is not modified.
func Apply(m metric.MetricMap, f address.Filter) metric.MetricMap {
	return m.Filter(func(e metric.Entry) bool {
		return f.Matches(e.Address, e.Tags)
	})
}
