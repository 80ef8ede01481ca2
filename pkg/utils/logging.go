package utils

import (
	"context"

	klog "k8s.io/klog/v2"
)

// NewLoggingContext returns a child of ctx carrying a logger derived from
// the logger of ctx. A non-empty name is appended to the logger name,
// e.g. "colossus" becomes "colossus/reporter". kvs are added as key/value
// pairs to every log entry. A nil ctx is treated as context.Background().
func NewLoggingContext(ctx context.Context, name string, kvs ...interface{}) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	logger := klog.FromContext(ctx)
	if name != "" {
		logger = klog.LoggerWithName(logger, name)
	}
	if len(kvs) > 0 {
		logger = klog.LoggerWithValues(logger, kvs...)
	}
	return klog.NewContext(ctx, logger)
}
