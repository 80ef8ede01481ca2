package reporter

import (
	"testing"
	"time"

	"github.com/guxg/colossus/pkg/address"
	"github.com/guxg/colossus/pkg/metric"
	"github.com/guxg/colossus/pkg/snapshot"
)

const waitTimeout = 5 * time.Second

func cellWith(entries ...metric.Entry) *snapshot.Cell {
	cell := snapshot.NewCell(nil)
	cell.Publish(mapOf(entries...))
	return cell
}

func mapOf(entries ...metric.Entry) metric.MetricMap {
	b := metric.NewBuilder()
	for _, e := range entries {
		b.Put(e)
	}
	return b.Build()
}

func counterEntry(path string, n int64, tags metric.TagMap) metric.Entry {
	return metric.Entry{Address: address.MustParse(path), Tags: tags, Value: metric.CounterValue(n)}
}

func gaugeEntry(path string, v float64) metric.Entry {
	return metric.Entry{Address: address.MustParse(path), Value: metric.GaugeValue(v)}
}

func receive(t *testing.T, ch <-chan *snapshot.Snapshot) *snapshot.Snapshot {
	t.Helper()
	select {
	case s := <-ch:
		return s
	case <-time.After(waitTimeout):
		t.Fatal("timed out waiting for export")
	}
	return nil
}
