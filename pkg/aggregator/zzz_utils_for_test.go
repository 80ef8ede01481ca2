package aggregator

import (
	"context"
	"testing"
	"time"

	"github.com/davecgh/go-spew/spew"
	"github.com/guxg/colossus/pkg/address"
	"github.com/guxg/colossus/pkg/metric"
	"github.com/guxg/colossus/pkg/snapshot"
	"gotest.tools/v3/assert"
)

func logTestCaseSpec(t *testing.T, spec interface{}) {
	t.Helper()

	spewConf := &spew.ConfigState{
		Indent:                  "\t",
		DisableCapacities:       true,
		DisablePointerAddresses: true,
	}
	t.Logf("Testcase:\n%s", spewConf.Sdump(spec))
}

// entry is a compact notation for metric entries in tests.
type entry struct {
	path  string
	tags  metric.TagMap
	value metric.Value
}

func mapOf(entries ...entry) metric.MetricMap {
	b := metric.NewBuilder()
	for _, e := range entries {
		b.Put(metric.Entry{Address: address.MustParse(e.path), Tags: e.tags, Value: e.value})
	}
	return b.Build()
}

func staticContributor(m metric.MetricMap) metric.Contributor {
	return metric.ContributorFunc(func(context.Context) (metric.MetricMap, error) {
		return m, nil
	})
}

func newExaminee(timeout time.Duration) (*Aggregator, *snapshot.Cell) {
	cell := snapshot.NewCell(nil)
	return New(cell, Options{CollectionTimeout: timeout}), cell
}

func tick(t *testing.T, a *Aggregator) {
	t.Helper()
	assert.NilError(t, a.OnTick(context.Background()))
}

func valueAt(cell *snapshot.Cell, path string) metric.Value {
	v, ok := cell.Current().Get(address.MustParse(path), metric.NoTags)
	if !ok {
		return nil
	}
	return v
}

func waitUntil(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met in time")
		}
		time.Sleep(time.Millisecond)
	}
}
