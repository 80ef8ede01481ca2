package aggregator

import (
	"context"
	"sync"

	perrors "github.com/guxg/colossus/pkg/errors"
	"github.com/guxg/colossus/pkg/metric"
	"github.com/pkg/errors"
	klog "k8s.io/klog/v2"
)

type flushResult struct {
	index   int
	metrics metric.MetricMap
	err     error
}

// round is the collection phase of one tick.
type round struct {
	mutex   sync.Mutex
	closed  bool
	results chan flushResult
}

// collect flushes all registrations concurrently and waits at most for the
// collection timeout. Results arriving after the round was closed are
// carried over to the next tick. A registration whose previous flush is still
// running is skipped.
func (a *Aggregator) collect(ctx context.Context, regs []*registration) []contribution {
	logger := klog.FromContext(ctx)
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	r := &round{results: make(chan flushResult, len(regs))}
	pending := 0
	started := make([]bool, len(regs))
	for i, reg := range regs {
		if !reg.flushing.CompareAndSwap(false, true) {
			perrors.Report(perrors.Classify(
				errors.Errorf("contributor %q skipped: previous flush still running", reg.name),
				perrors.ClassCollectionTimeout,
			))
			continue
		}
		pending++
		started[i] = true
		go a.flush(ctx, r, i, reg)
	}

	received := make([]*flushResult, len(regs))
	timedOut := false
	for pending > 0 && !timedOut {
		select {
		case res := <-r.results:
			received[res.index] = &res
			pending--
		case <-ctx.Done():
			timedOut = true
		}
	}

	r.mutex.Lock()
	r.closed = true
	r.mutex.Unlock()
drain:
	for {
		select {
		case res := <-r.results:
			received[res.index] = &res
		default:
			break drain
		}
	}

	contributions := make([]contribution, 0, len(regs))
	for i, reg := range regs {
		res := received[i]
		switch {
		case res == nil:
			if started[i] {
				logger.V(3).Info("Contributor did not respond in time", "contributor", reg.name, "timeout", a.timeout)
				perrors.Report(perrors.Classify(
					errors.Errorf("contributor %q did not respond within %v", reg.name, a.timeout),
					perrors.ClassCollectionTimeout,
				))
			}
		case res.err != nil:
			perrors.Report(errors.Wrapf(res.err, "flushing contributor %q failed", reg.name))
		default:
			contributions = append(contributions, contribution{name: reg.name, metrics: res.metrics})
		}
	}
	return contributions
}

func (a *Aggregator) flush(ctx context.Context, r *round, index int, reg *registration) {
	m, err := a.safeFlush(ctx, reg)

	// the registration stays busy until a late result is queued, so the
	// next collection of reg cannot overtake it
	defer reg.flushing.Store(false)

	r.mutex.Lock()
	late := r.closed
	if !late {
		r.results <- flushResult{index: index, metrics: m, err: err}
	}
	r.mutex.Unlock()

	if late {
		if err != nil {
			perrors.Report(errors.Wrapf(err, "late flush of contributor %q failed", reg.name))
			return
		}
		a.carryOver(reg.name, m)
	}
}

func (a *Aggregator) safeFlush(ctx context.Context, reg *registration) (m metric.MetricMap, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.Errorf("contributor %q panicked: %v", reg.name, r)
		}
	}()
	return reg.contributor.Flush(ctx)
}
