package reporter

import (
	"context"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/guxg/colossus/pkg/address"
	perrors "github.com/guxg/colossus/pkg/errors"
	"github.com/guxg/colossus/pkg/metric"
	"github.com/guxg/colossus/pkg/metrics"
	"github.com/guxg/colossus/pkg/query"
	"github.com/guxg/colossus/pkg/snapshot"
	"github.com/guxg/colossus/pkg/utils"
	"github.com/pkg/errors"
	"k8s.io/apimachinery/pkg/util/wait"
	klog "k8s.io/klog/v2"
)

//go:generate mockgen -destination=mocks/mocks.go -package=mocks github.com/guxg/colossus/pkg/reporter Sink

// Sink exports snapshots to an external system.
type Sink interface {
	// Export exports one snapshot. Failures marked with errors.Retryable
	// are retried.
	Export(ctx context.Context, s *snapshot.Snapshot) error
}

// SinkFunc adapts a function to a Sink.
type SinkFunc func(ctx context.Context, s *snapshot.Snapshot) error

// Export implements Sink.
func (f SinkFunc) Export(ctx context.Context, s *snapshot.Snapshot) error {
	return f(ctx, s)
}

// Source provides the current snapshot.
type Source interface {
	Load() *snapshot.Snapshot
}

// DefaultBackoff is used if Config.Backoff is the zero value.
var DefaultBackoff = wait.Backoff{
	Duration: 100 * time.Millisecond,
	Factor:   2,
	Jitter:   0.1,
	Steps:    5,
	Cap:      10 * time.Second,
}

// Config configures a reporter.
type Config struct {
	// Name identifies the reporter in logs and metrics.
	Name string

	// Sink receives the snapshots.
	Sink Sink

	// Interval is the minimal time between two exports. Zero exports on
	// every tick.
	Interval time.Duration

	// Filter restricts the exported metrics. Nil exports everything.
	Filter *address.Filter

	// Backoff controls retries of retryable export failures.
	Backoff wait.Backoff
}

// Reporter exports snapshots on ticks. Exports run on a separate
// goroutine; a tick only hands over work. Every published snapshot is
// folded into the pending export: counter, rate and histogram deltas are
// summed, gauges keep the latest value. An export therefore carries all
// deltas since the previous export, also across skipped intervals and
// slow sinks.
type Reporter struct {
	name     string
	source   Source
	sink     Sink
	interval time.Duration
	filter   *address.Filter
	backoff  wait.Backoff
	clock    clock.Clock

	ready chan struct{}

	mutex      sync.Mutex
	pending    *snapshot.Snapshot
	folded     bool
	lastFolded uint64
	lastExport time.Time
	started    bool

	stopOnce sync.Once
	stopCh   chan struct{}
	doneCh   chan struct{}
}

// New creates a reporter reading from src. If clk is nil, the wall clock
// is used.
func New(src Source, cfg Config, clk clock.Clock) (*Reporter, error) {
	if cfg.Sink == nil {
		return nil, errors.Errorf("reporter %q: sink must not be nil", cfg.Name)
	}
	if cfg.Interval < 0 {
		return nil, errors.Errorf("reporter %q: interval must not be negative, got %v", cfg.Name, cfg.Interval)
	}
	if cfg.Backoff == (wait.Backoff{}) {
		cfg.Backoff = DefaultBackoff
	}
	if clk == nil {
		clk = clock.New()
	}
	var filter *address.Filter
	if cfg.Filter != nil {
		f := *cfg.Filter
		filter = &f
	}
	return &Reporter{
		name:     cfg.Name,
		source:   src,
		sink:     cfg.Sink,
		interval: cfg.Interval,
		filter:   filter,
		backoff:  cfg.Backoff,
		clock:    clk,
		ready:    make(chan struct{}, 1),
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}, nil
}

// Name returns the name of the reporter.
func (r *Reporter) Name() string {
	return r.name
}

// OnTick folds the current snapshot into the pending export and, if the
// interval has elapsed since the previous hand-over, wakes up the export
// goroutine. A snapshot already folded is ignored. OnTick never blocks.
func (r *Reporter) OnTick(ctx context.Context) error {
	s := r.source.Load()
	now := r.clock.Now()

	r.mutex.Lock()
	if r.folded && s.Version <= r.lastFolded {
		r.mutex.Unlock()
		return nil
	}
	r.folded, r.lastFolded = true, s.Version
	previous := r.pending
	r.pending = fold(previous, s)
	due := r.interval == 0 || r.lastExport.IsZero() || now.Sub(r.lastExport) >= r.interval
	if due {
		r.lastExport = now
	}
	r.mutex.Unlock()

	if previous != nil {
		klog.FromContext(ctx).V(4).Info("Snapshot folded into pending export", "reporter", r.name, "version", s.Version, "pendingVersion", previous.Version)
	}
	if due {
		select {
		case r.ready <- struct{}{}:
		default:
		}
	}
	return nil
}

func (r *Reporter) takePending() *snapshot.Snapshot {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	s := r.pending
	r.pending = nil
	return s
}

// fold merges next into pending. Entries of next are merged into those of
// pending by the merge rule of their kind; on a kind or bounds conflict the
// entry of next replaces the pending one.
func fold(pending, next *snapshot.Snapshot) *snapshot.Snapshot {
	if pending == nil {
		return next
	}
	b := metric.NewBuilder()
	pending.Metrics.Range(func(e metric.Entry) bool {
		b.Put(e)
		return true
	})
	next.Metrics.Range(func(e metric.Entry) bool {
		if err := b.Merge(e); err != nil {
			b.Put(e)
		}
		return true
	})
	return &snapshot.Snapshot{
		Version: next.Version,
		Taken:   next.Taken,
		Metrics: b.Build(),
	}
}

// Start starts the export goroutine. It stops when ctx is done or Stop is
// called.
func (r *Reporter) Start(ctx context.Context) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	if r.started {
		return errors.Errorf("reporter %q already started", r.name)
	}
	r.started = true
	go r.run(ctx)
	return nil
}

func (r *Reporter) run(ctx context.Context) {
	defer close(r.doneCh)
	ctx = utils.NewLoggingContext(ctx, "", "reporter", r.name)
	klog.FromContext(ctx).V(3).Info("Reporter started")
	for {
		select {
		case <-ctx.Done():
			return
		case <-r.stopCh:
			return
		case <-r.ready:
			if s := r.takePending(); s != nil {
				r.export(ctx, s)
			}
		}
	}
}

func (r *Reporter) export(ctx context.Context, s *snapshot.Snapshot) {
	if r.filter != nil {
		s = &snapshot.Snapshot{
			Version: s.Version,
			Taken:   s.Taken,
			Metrics: query.Apply(s.Metrics, *r.filter),
		}
	}

	ctx, logger := extendContextLoggerWithSnapshotInfo(ctx, s)
	start := r.clock.Now()
	backoff := r.backoff
	var retries uint64
	outcome := metrics.ExportFailed
	defer func() {
		metrics.Exports.Observe(r.name, outcome, retries, r.clock.Since(start))
	}()

	for {
		err := r.sink.Export(ctx, s)
		if err == nil {
			outcome = metrics.ExportSucceeded
			logger.V(4).Info("Snapshot exported")
			return
		}
		if !perrors.IsRetryable(err) || backoff.Steps < 1 {
			r.fail(err, s, retries)
			return
		}
		delay := backoff.Step()
		retries++
		logger.V(3).Info("Export failed, retrying", "retry", retries, "delay", delay, "error", err.Error())
		if delay > 0 {
			select {
			case <-r.clock.After(delay):
			case <-ctx.Done():
				r.fail(err, s, retries)
				return
			case <-r.stopCh:
				outcome = metrics.ExportAbandoned
				return
			}
		}
	}
}

func (r *Reporter) fail(err error, s *snapshot.Snapshot, retries uint64) {
	perrors.Report(perrors.Classify(
		errors.Wrapf(err, "reporter %q failed to export snapshot %d after %d retries", r.name, s.Version, retries),
		perrors.ClassExport,
	))
}

// Stop stops the export goroutine and waits for it to exit. An export in
// progress is finished first, pending retries are abandoned. Stop is
// idempotent.
func (r *Reporter) Stop() {
	r.stopOnce.Do(func() {
		close(r.stopCh)
	})
	r.mutex.Lock()
	started := r.started
	r.mutex.Unlock()
	if started {
		<-r.doneCh
	}
}
