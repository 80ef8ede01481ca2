package testing

import (
	"sync"
	"time"

	"github.com/guxg/colossus/pkg/metrics"
)

// PatchPipelineErrors patches
// "github.com/guxg/colossus/pkg/metrics".PipelineErrors with the given
// replacement and returns a function that reverts the patch.
// Multiple nested replacements must be reverted in exactly the opposite order
// (revert last replacement first).
func PatchPipelineErrors(replacement metrics.ClassCounterMetric) func() {
	origValue := metrics.PipelineErrors
	metrics.PipelineErrors = replacement
	return func() {
		if metrics.PipelineErrors != replacement {
			panic("reverting not possible because current value is not the former replacement")
		}
		metrics.PipelineErrors = origValue
	}
}

// PatchExports patches
// "github.com/guxg/colossus/pkg/metrics".Exports with the given replacement
// and returns a function that reverts the patch.
func PatchExports(replacement metrics.ExportsMetric) func() {
	origValue := metrics.Exports
	metrics.Exports = replacement
	return func() {
		if metrics.Exports != replacement {
			panic("reverting not possible because current value is not the former replacement")
		}
		metrics.Exports = origValue
	}
}

// ClassCounter is an in-memory metrics.ClassCounterMetric for tests.
type ClassCounter struct {
	mutex  sync.Mutex
	counts map[string]int
}

// Inc implements metrics.ClassCounterMetric.
func (c *ClassCounter) Inc(class string) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	if c.counts == nil {
		c.counts = map[string]int{}
	}
	c.counts[class]++
}

// Count returns how often Inc was called with class.
func (c *ClassCounter) Count(class string) int {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return c.counts[class]
}

// Export is one observation recorded by ExportsRecorder.
type Export struct {
	Reporter string
	Outcome  metrics.ExportOutcome
	Retries  uint64
}

// ExportsRecorder is an in-memory metrics.ExportsMetric for tests.
type ExportsRecorder struct {
	mutex        sync.Mutex
	observations []Export
}

// Observe implements metrics.ExportsMetric.
func (r *ExportsRecorder) Observe(reporter string, outcome metrics.ExportOutcome, retries uint64, _ time.Duration) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.observations = append(r.observations, Export{Reporter: reporter, Outcome: outcome, Retries: retries})
}

// Observations returns a copy of all observations so far.
func (r *ExportsRecorder) Observations() []Export {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	return append([]Export(nil), r.observations...)
}
