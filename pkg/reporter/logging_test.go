package reporter

import (
	"context"
	"testing"
	"time"

	"github.com/guxg/colossus/pkg/snapshot"
	"gotest.tools/v3/assert"
	klog "k8s.io/klog/v2"
	"k8s.io/klog/v2/ktesting"
)

func Test_getSnapshotInfoForLogging(t *testing.T) {
	t.Parallel()

	taken := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	for _, tc := range []struct {
		name     string
		s        *snapshot.Snapshot
		expected []interface{}
	}{
		{
			name:     "initial snapshot",
			s:        &snapshot.Snapshot{Metrics: mapOf()},
			expected: []interface{}{"snapshotVersion", uint64(0), "snapshotEntries", 0},
		},
		{
			name: "published snapshot",
			s:    &snapshot.Snapshot{Version: 7, Taken: taken, Metrics: mapOf(gaugeEntry("a/b", 1))},
			expected: []interface{}{
				"snapshotVersion", uint64(7),
				"snapshotEntries", 1,
				"snapshotTaken", taken,
			},
		},
	} {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			// EXERCISE
			kvs := getSnapshotInfoForLogging(tc.s)

			// VERIFY
			assert.DeepEqual(t, kvs, tc.expected)
		})
	}
}

func Test_extendContextLoggerWithSnapshotInfo(t *testing.T) {
	// SETUP
	base := ktesting.NewLogger(t, ktesting.NewConfig(ktesting.BufferLogs(true)))
	ctx := klog.NewContext(context.Background(), base)
	s := &snapshot.Snapshot{Version: 3, Metrics: mapOf()}

	// EXERCISE
	ctx, logger := extendContextLoggerWithSnapshotInfo(ctx, s)

	// VERIFY
	klog.FromContext(ctx).Info("from context")
	logger.Info("direct")
	underlier, ok := logger.GetSink().(ktesting.Underlier)
	if !ok {
		t.Fatalf("should have had ktesting LogSink, got %T", logger.GetSink())
	}
	logs := underlier.GetBuffer().Data()
	assert.Equal(t, len(logs), 2)
	for _, entry := range logs {
		assert.DeepEqual(t, entry.WithKVList, []interface{}{"snapshotVersion", uint64(3), "snapshotEntries", 0})
	}
}
