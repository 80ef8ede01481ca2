package system

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/guxg/colossus/pkg/address"
	"github.com/guxg/colossus/pkg/aggregator"
	"github.com/guxg/colossus/pkg/collector"
	"github.com/guxg/colossus/pkg/metric"
	"github.com/guxg/colossus/pkg/query"
	"github.com/guxg/colossus/pkg/reporter"
	"github.com/guxg/colossus/pkg/snapshot"
	"github.com/guxg/colossus/pkg/sysmetrics"
	"github.com/guxg/colossus/pkg/ticker"
	"github.com/guxg/colossus/pkg/utils"
	"github.com/pkg/errors"
	klog "k8s.io/klog/v2"
)

// ID identifies a metric system within the process.
type ID string

func newID() ID {
	id, err := uuid.NewV7()
	if err != nil {
		id = uuid.New()
	}
	return ID(id.String())
}

// System is a handle of a metric system. Live and dead systems implement
// it alike, so call sites need no special casing.
type System interface {
	// ID returns the identifier of the system.
	ID() ID

	// Namespace returns the address prefix of all metrics of the system.
	Namespace() address.Address

	// NewCollector creates a collector recording below the namespace of
	// the system. tags are added to every event in addition to the
	// global tags of the system.
	NewCollector(name string, tags metric.TagMap) (collector.Recorder, error)

	// Current returns the metrics of the most recent snapshot.
	Current() metric.MetricMap

	// Snapshot returns the most recent snapshot.
	Snapshot() *snapshot.Snapshot

	// Query returns the metrics of the most recent snapshot matching f.
	Query(f address.Filter) metric.MetricMap

	// QueryString parses a filter expression and queries with it.
	QueryString(s string) (metric.MetricMap, error)

	// AddReporter starts a reporter notified after each publication.
	AddReporter(cfg reporter.Config) error

	// Stop stops the clock and all reporters. A tick in progress publishes
	// before Stop returns; afterwards the current snapshot stays readable
	// but is never replaced again. Stop is idempotent.
	Stop()

	// Done is closed when the clock has stopped.
	Done() <-chan struct{}
}

type liveSystem struct {
	id        ID
	namespace address.Address
	config    Config
	ctx       context.Context

	cell       *snapshot.Cell
	aggregator *aggregator.Aggregator
	ticker     *ticker.Ticker
	querier    query.Querier

	mutex     sync.Mutex
	reporters []*reporter.Reporter
	stopped   bool
}

var _ System = (*liveSystem)(nil)

// New creates and starts a metric system. If the configuration disables
// the system, a dead system is returned. The system stops when ctx is
// done.
func New(ctx context.Context, cfg Config) (System, error) {
	namespace, err := address.Parse(cfg.Namespace)
	if err != nil {
		return nil, errors.Wrap(err, "invalid namespace of metric system")
	}
	if !cfg.IsEnabled() {
		return NewDead(namespace), nil
	}
	cfg = cfg.withDefaults()
	if err := cfg.validate(); err != nil {
		return nil, errors.Wrap(err, "invalid metric system configuration")
	}

	id := newID()
	ctx = utils.NewLoggingContext(ctx, "colossus", "system", string(id), "namespace", namespace.String())
	logger := klog.FromContext(ctx)

	cell := snapshot.NewCell(cfg.Clock)
	s := &liveSystem{
		id:        id,
		namespace: namespace,
		config:    cfg,
		ctx:       ctx,
		cell:      cell,
		aggregator: aggregator.New(cell, aggregator.Options{
			Clock:             cfg.Clock,
			CollectionTimeout: cfg.CollectionTimeout,
		}),
		ticker:  ticker.New(cfg.Clock, cfg.TickPeriod),
		querier: query.New(cell),
	}
	if *cfg.CollectSystemMetrics {
		s.aggregator.Register(s.qualify("sysmetrics"), sysmetrics.New(namespace.Child(sysmetrics.DefaultNamespace)))
	}
	s.ticker.Subscribe(s.qualify("aggregator"), s.aggregator)
	if err := s.ticker.Start(ctx); err != nil {
		return nil, errors.Wrap(err, "cannot start metric system")
	}
	logger.V(2).Info("Metric system started", "tickPeriod", cfg.TickPeriod, "collectionTimeout", cfg.CollectionTimeout)
	return s, nil
}

func (s *liveSystem) qualify(name string) string {
	return string(s.id) + "/" + name
}

func (s *liveSystem) ID() ID {
	return s.id
}

func (s *liveSystem) Namespace() address.Address {
	return s.namespace
}

func (s *liveSystem) NewCollector(name string, tags metric.TagMap) (collector.Recorder, error) {
	c, err := collector.New(s.qualify(name), collector.Options{
		Namespace:        s.namespace,
		Tags:             metric.NewTagMap(s.config.GlobalTags).Merge(tags),
		HistogramBuckets: s.config.HistogramBuckets,
	}, s.aggregator)
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (s *liveSystem) Current() metric.MetricMap {
	return s.cell.Current()
}

func (s *liveSystem) Snapshot() *snapshot.Snapshot {
	return s.cell.Load()
}

func (s *liveSystem) Query(f address.Filter) metric.MetricMap {
	return s.querier.Query(f)
}

func (s *liveSystem) QueryString(str string) (metric.MetricMap, error) {
	return s.querier.QueryString(str)
}

func (s *liveSystem) AddReporter(cfg reporter.Config) error {
	r, err := reporter.New(s.cell, cfg, s.config.Clock)
	if err != nil {
		return err
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()
	if s.stopped {
		return errors.Errorf("cannot add reporter %q: metric system stopped", cfg.Name)
	}
	if err := r.Start(s.ctx); err != nil {
		return err
	}
	s.ticker.Subscribe(s.qualify("reporter/"+cfg.Name), r)
	s.reporters = append(s.reporters, r)
	klog.FromContext(s.ctx).V(2).Info("Reporter added", "reporter", cfg.Name)
	return nil
}

func (s *liveSystem) Stop() {
	s.ticker.Stop()
	s.aggregator.Close()

	s.mutex.Lock()
	if s.stopped {
		s.mutex.Unlock()
		return
	}
	s.stopped = true
	reporters := s.reporters
	s.mutex.Unlock()

	for _, r := range reporters {
		r.Stop()
	}
	klog.FromContext(s.ctx).V(2).Info("Metric system stopped")
}

func (s *liveSystem) Done() <-chan struct{} {
	return s.ticker.Done()
}
