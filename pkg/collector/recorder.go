package collector

import (
	"github.com/guxg/colossus/pkg/address"
	"github.com/guxg/colossus/pkg/metric"
)

// Recorder is the producer side of a collector.
type Recorder interface {
	Record(addr address.Address, tags metric.TagMap, ev metric.Event) error
	Increment(path string, tags metric.TagMap)
	Add(path string, n int64, tags metric.TagMap)
	Set(path string, v float64, tags metric.TagMap)
	Hit(path string, tags metric.TagMap)
	Observe(path string, v float64, tags metric.TagMap)
	Close()
}

// Discard is a Recorder dropping all events.
var Discard Recorder = discard{}

type discard struct{}

func (discard) Record(address.Address, metric.TagMap, metric.Event) error { return nil }
func (discard) Increment(string, metric.TagMap)                          {}
func (discard) Add(string, int64, metric.TagMap)                         {}
func (discard) Set(string, float64, metric.TagMap)                       {}
func (discard) Hit(string, metric.TagMap)                                {}
func (discard) Observe(string, float64, metric.TagMap)                   {}
func (discard) Close()                                                   {}
