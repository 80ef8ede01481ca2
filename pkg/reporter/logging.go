package reporter

import (
	"context"

	"github.com/go-logr/logr"
	"github.com/guxg/colossus/pkg/snapshot"
	klog "k8s.io/klog/v2"
)

// extendContextLoggerWithSnapshotInfo attaches some data of the given
// snapshot as values to the logger of ctx.
// Returns both a new context with the enhanced logger and the enhanced
// logger.
func extendContextLoggerWithSnapshotInfo(ctx context.Context, s *snapshot.Snapshot) (context.Context, logr.Logger) {
	logger := klog.FromContext(ctx).WithValues(getSnapshotInfoForLogging(s)...)
	return klog.NewContext(ctx, logger), logger
}

func getSnapshotInfoForLogging(s *snapshot.Snapshot) []interface{} {
	kvs := []interface{}{
		"snapshotVersion", s.Version,
		"snapshotEntries", s.Metrics.Len(),
	}
	if !s.Taken.IsZero() {
		kvs = append(kvs, "snapshotTaken", s.Taken)
	}
	return kvs
}
