package system

import (
	"context"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/guxg/colossus/pkg/address"
	"github.com/guxg/colossus/pkg/collector"
	"github.com/guxg/colossus/pkg/metric"
	"github.com/guxg/colossus/pkg/reporter"
	"github.com/guxg/colossus/pkg/snapshot"
	"gotest.tools/v3/assert"
)

func boolPtr(b bool) *bool {
	return &b
}

func newTestSystem(t *testing.T, clk clock.Clock, namespace string) System {
	t.Helper()
	examinee, err := New(context.Background(), Config{
		Namespace:            namespace,
		TickPeriod:           100 * time.Millisecond,
		CollectSystemMetrics: boolPtr(false),
		Clock:                clk,
	})
	assert.NilError(t, err)
	t.Cleanup(examinee.Stop)
	return examinee
}

func waitForVersion(t *testing.T, s System, version uint64) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for s.Snapshot().Version < version {
		if time.Now().After(deadline) {
			t.Fatalf("snapshot version %d not reached, current %d", version, s.Snapshot().Version)
		}
		time.Sleep(time.Millisecond)
	}
}

func Test_System_RecordTickQueryStop(t *testing.T) {
	t.Parallel()

	// SETUP
	clk := clock.NewMock()
	examinee := newTestSystem(t, clk, "")
	recorder, err := examinee.NewCollector("app", metric.NoTags)
	assert.NilError(t, err)

	// EXERCISE
	for i := 0; i < 3; i++ {
		recorder.Increment("a.b", metric.NoTags)
	}
	clk.Add(100 * time.Millisecond)
	waitForVersion(t, examinee, 1)

	// VERIFY
	result, err := examinee.QueryString("a.b")
	assert.NilError(t, err)
	assert.Equal(t, result.Len(), 1)
	v, _ := result.Get(address.MustParse("a.b"), metric.NoTags)
	assert.Equal(t, v, metric.Value(metric.CounterValue(3)))

	// EXERCISE stop
	examinee.Stop()
	<-examinee.Done()
	frozen := examinee.Snapshot()
	recorder.Increment("a.b", metric.NoTags)
	for i := 0; i < 5; i++ {
		clk.Add(100 * time.Millisecond)
	}
	time.Sleep(20 * time.Millisecond)

	// VERIFY stop
	assert.Equal(t, examinee.Snapshot(), frozen)
	assert.Equal(t, frozen.Version, uint64(1))
	examinee.Stop()
}

func Test_System_TwoCollectorsSum(t *testing.T) {
	t.Parallel()

	// SETUP
	clk := clock.NewMock()
	examinee := newTestSystem(t, clk, "svc")
	first, err := examinee.NewCollector("first", metric.NoTags)
	assert.NilError(t, err)
	second, err := examinee.NewCollector("second", metric.NoTags)
	assert.NilError(t, err)

	// EXERCISE
	var sum int64
	for tick := 1; tick <= 3; tick++ {
		first.Add("bytes", int64(tick), metric.NoTags)
		second.Add("bytes", int64(tick*100), metric.NoTags)
		clk.Add(100 * time.Millisecond)
		waitForVersion(t, examinee, uint64(tick))
		v, ok := examinee.Current().Get(address.MustParse("svc/bytes"), metric.NoTags)
		assert.Assert(t, ok)
		sum += int64(v.(metric.CounterValue))
	}

	// VERIFY
	assert.Equal(t, sum, int64(1+2+3+100+200+300))
}

func Test_System_ClosedCollectorIsMergedOnNextTick(t *testing.T) {
	t.Parallel()

	// SETUP
	clk := clock.NewMock()
	examinee := newTestSystem(t, clk, "")
	recorder, err := examinee.NewCollector("short-lived", metric.NoTags)
	assert.NilError(t, err)
	recorder.Add("jobs", 4, metric.NoTags)

	// EXERCISE
	recorder.Close()
	clk.Add(100 * time.Millisecond)
	waitForVersion(t, examinee, 1)

	// VERIFY
	v, ok := examinee.Current().Get(address.MustParse("jobs"), metric.NoTags)
	assert.Assert(t, ok)
	assert.Equal(t, v, metric.Value(metric.CounterValue(4)))
}

func Test_System_GlobalTags(t *testing.T) {
	t.Parallel()

	// SETUP
	clk := clock.NewMock()
	examinee, err := New(context.Background(), Config{
		TickPeriod:           time.Second,
		CollectSystemMetrics: boolPtr(false),
		GlobalTags:           map[string]string{"host": "h1", "zone": "a"},
		Clock:                clk,
	})
	assert.NilError(t, err)
	defer examinee.Stop()
	recorder, err := examinee.NewCollector("c", metric.Tags("component", "db"))
	assert.NilError(t, err)

	// EXERCISE
	recorder.Set("load", 0.5, metric.Tags("zone", "b"))
	clk.Add(time.Second)
	waitForVersion(t, examinee, 1)

	// VERIFY
	entries := examinee.Query(address.MustParseFilter("load")).Entries()
	assert.Equal(t, len(entries), 1)
	assert.DeepEqual(t, entries[0].Tags.Map(), map[string]string{"host": "h1", "zone": "b", "component": "db"})
}

func Test_System_ReportersSeeFreshSnapshot(t *testing.T) {
	t.Parallel()

	// SETUP
	clk := clock.NewMock()
	examinee := newTestSystem(t, clk, "")
	exported := make(chan *snapshot.Snapshot, 1)
	err := examinee.AddReporter(reporter.Config{
		Name: "test",
		Sink: reporter.SinkFunc(func(_ context.Context, s *snapshot.Snapshot) error {
			exported <- s
			return nil
		}),
	})
	assert.NilError(t, err)
	recorder, err := examinee.NewCollector("app", metric.NoTags)
	assert.NilError(t, err)
	recorder.Hit("calls", metric.NoTags)

	// EXERCISE
	clk.Add(100 * time.Millisecond)

	// VERIFY
	select {
	case s := <-exported:
		assert.Equal(t, s.Version, uint64(1))
		v, _ := s.Metrics.Get(address.MustParse("calls"), metric.NoTags)
		assert.Equal(t, v, metric.Value(metric.RateValue{Hits: 1}))
	case <-time.After(5 * time.Second):
		t.Fatal("no export")
	}
}

func Test_System_SystemMetrics(t *testing.T) {
	t.Parallel()

	// SETUP
	clk := clock.NewMock()
	examinee, err := New(context.Background(), Config{Namespace: "svc", Clock: clk})
	assert.NilError(t, err)
	defer examinee.Stop()

	// EXERCISE
	clk.Add(DefaultTickPeriod)
	waitForVersion(t, examinee, 1)

	// VERIFY
	result, err := examinee.QueryString("svc/system/go_goroutines")
	assert.NilError(t, err)
	assert.Equal(t, result.Len(), 1)
}

func Test_System_UniqueIDs(t *testing.T) {
	t.Parallel()

	// SETUP
	first := newTestSystem(t, clock.NewMock(), "")
	second := newTestSystem(t, clock.NewMock(), "")

	// VERIFY
	assert.Assert(t, first.ID() != second.ID())
	assert.Assert(t, first.ID() != "")
}

func Test_New_Errors(t *testing.T) {
	t.Parallel()

	for _, tc := range []struct {
		name     string
		cfg      Config
		expected string
	}{
		{"invalid namespace", Config{Namespace: "a//b"}, "invalid namespace"},
		{"negative tick period", Config{TickPeriod: -time.Second, Clock: clock.NewMock()}, "tick period must be positive"},
		{"negative timeout", Config{CollectionTimeout: -time.Second, Clock: clock.NewMock()}, "collection timeout must not be negative"},
	} {
		// EXERCISE
		_, err := New(context.Background(), tc.cfg)

		// VERIFY
		assert.ErrorContains(t, err, tc.expected, tc.name)
	}
}

func Test_New_Disabled(t *testing.T) {
	t.Parallel()

	// EXERCISE
	examinee, err := New(context.Background(), Config{Namespace: "svc", Enabled: boolPtr(false)})

	// VERIFY
	assert.NilError(t, err)
	_, ok := examinee.(*deadSystem)
	assert.Assert(t, ok)
	assert.Equal(t, examinee.Namespace().String(), "svc")
}

func Test_DeadSystem(t *testing.T) {
	t.Parallel()

	// SETUP
	examinee := NewDead(address.MustParse("svc"))

	// EXERCISE
	recorder, err := examinee.NewCollector("c", metric.NoTags)
	assert.NilError(t, err)
	recorder.Increment("a", metric.NoTags)
	recorder.Close()
	assert.NilError(t, examinee.AddReporter(reporter.Config{Name: "r"}))
	examinee.Stop()
	examinee.Stop()

	// VERIFY
	assert.Equal(t, recorder, collector.Discard)
	assert.Equal(t, examinee.Current().Len(), 0)
	assert.Equal(t, examinee.Snapshot().Version, uint64(0))
	assert.Equal(t, examinee.Query(address.MatchAll).Len(), 0)
	_, err = examinee.QueryString("a//b")
	assert.ErrorContains(t, err, "invalid filter")
	<-examinee.Done()
}

func Test_System_AddReporterAfterStop(t *testing.T) {
	t.Parallel()

	// SETUP
	examinee := newTestSystem(t, clock.NewMock(), "")
	examinee.Stop()

	// EXERCISE
	err := examinee.AddReporter(reporter.Config{Name: "late", Sink: reporter.NewLogSink(nil)})

	// VERIFY
	assert.ErrorContains(t, err, "metric system stopped")
}
