package reporter

import (
	"context"

	"github.com/guxg/colossus/pkg/metric"
	"github.com/guxg/colossus/pkg/snapshot"
	"go.uber.org/zap"
)

// LogSink writes every exported metric as one structured log entry.
type LogSink struct {
	logger *zap.Logger
}

// NewLogSink creates a sink logging to logger.
func NewLogSink(logger *zap.Logger) *LogSink {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogSink{logger: logger}
}

// Export implements Sink.
func (s *LogSink) Export(_ context.Context, snap *snapshot.Snapshot) error {
	for _, e := range snap.Metrics.Entries() {
		fields := []zap.Field{
			zap.Uint64("version", snap.Version),
			zap.Time("taken", snap.Taken),
			zap.String("address", e.Address.String()),
			zap.String("kind", e.Value.Kind().String()),
		}
		if !e.Tags.IsEmpty() {
			fields = append(fields, zap.Any("tags", e.Tags.Map()))
		}
		fields = append(fields, valueFields(e.Value)...)
		s.logger.Info("metric", fields...)
	}
	return nil
}

func valueFields(v metric.Value) []zap.Field {
	switch v := v.(type) {
	case metric.CounterValue:
		return []zap.Field{zap.Int64("value", int64(v))}
	case metric.GaugeValue:
		return []zap.Field{zap.Float64("value", float64(v))}
	case metric.RateValue:
		return []zap.Field{zap.Int64("hits", v.Hits)}
	case metric.HistogramValue:
		return []zap.Field{
			zap.Uint64("count", v.Count),
			zap.Float64("sum", v.Sum),
			zap.Float64("min", v.Min),
			zap.Float64("max", v.Max),
			zap.Float64("p50", v.Percentile(0.5)),
			zap.Float64("p99", v.Percentile(0.99)),
		}
	}
	return nil
}
