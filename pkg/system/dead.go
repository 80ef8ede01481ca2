package system

import (
	"github.com/guxg/colossus/pkg/address"
	"github.com/guxg/colossus/pkg/collector"
	"github.com/guxg/colossus/pkg/metric"
	"github.com/guxg/colossus/pkg/reporter"
	"github.com/guxg/colossus/pkg/snapshot"
)

type deadSystem struct {
	id        ID
	namespace address.Address
	snapshot  *snapshot.Snapshot
	done      chan struct{}
}

var _ System = (*deadSystem)(nil)

// NewDead creates a system that records nothing and never publishes.
// Its snapshot stays empty forever.
func NewDead(namespace address.Address) System {
	done := make(chan struct{})
	close(done)
	return &deadSystem{
		id:        newID(),
		namespace: namespace,
		snapshot:  &snapshot.Snapshot{Metrics: metric.EmptyMap},
		done:      done,
	}
}

func (s *deadSystem) ID() ID {
	return s.id
}

func (s *deadSystem) Namespace() address.Address {
	return s.namespace
}

func (s *deadSystem) NewCollector(string, metric.TagMap) (collector.Recorder, error) {
	return collector.Discard, nil
}

func (s *deadSystem) Current() metric.MetricMap {
	return metric.EmptyMap
}

func (s *deadSystem) Snapshot() *snapshot.Snapshot {
	return s.snapshot
}

func (s *deadSystem) Query(address.Filter) metric.MetricMap {
	return metric.EmptyMap
}

func (s *deadSystem) QueryString(str string) (metric.MetricMap, error) {
	if _, err := address.ParseFilter(str); err != nil {
		return metric.EmptyMap, err
	}
	return metric.EmptyMap, nil
}

func (s *deadSystem) AddReporter(reporter.Config) error {
	return nil
}

func (s *deadSystem) Stop() {}

func (s *deadSystem) Done() <-chan struct{} {
	return s.done
}
