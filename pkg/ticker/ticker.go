package ticker

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/benbjohnson/clock"
	perrors "github.com/guxg/colossus/pkg/errors"
	"github.com/guxg/colossus/pkg/metrics"
	"github.com/pkg/errors"
	klog "k8s.io/klog/v2"
)

// Listener is notified on every tick.
type Listener interface {
	// OnTick handles one tick. Errors are reported but do not affect
	// other listeners or later ticks.
	OnTick(ctx context.Context) error
}

// ListenerFunc adapts a function to a Listener.
type ListenerFunc func(ctx context.Context) error

// OnTick implements Listener.
func (f ListenerFunc) OnTick(ctx context.Context) error {
	return f(ctx)
}

type subscription struct {
	id       uint64
	name     string
	listener Listener
}

// Ticker delivers ticks to its listeners in subscription order at a fixed
// period. Ticks missed by slow listeners are dropped, deliveries never
// overlap.
type Ticker struct {
	clock  clock.Clock
	period time.Duration

	mutex         sync.Mutex
	subscriptions []subscription
	nextID        uint64
	started       bool

	stopped  atomic.Bool
	stopOnce sync.Once
	stopCh   chan struct{}
	doneCh   chan struct{}
}

// New creates a ticker firing every period on clk. If clk is nil, the wall
// clock is used.
func New(clk clock.Clock, period time.Duration) *Ticker {
	if clk == nil {
		clk = clock.New()
	}
	return &Ticker{
		clock:  clk,
		period: period,
		stopCh: make(chan struct{}),
		doneCh: make(chan struct{}),
	}
}

// Period returns the tick period.
func (t *Ticker) Period() time.Duration {
	return t.period
}

// Subscribe adds a listener. Listeners are called in subscription order.
// If name is empty, the calling function and its file position are used. The returned
// function removes the subscription.
func (t *Ticker) Subscribe(name string, l Listener) (cancel func()) {
	if name == "" {
		name = callerName()
	}
	t.mutex.Lock()
	defer t.mutex.Unlock()
	t.nextID++
	id := t.nextID
	t.subscriptions = append(t.subscriptions, subscription{id: id, name: name, listener: l})
	return func() {
		t.mutex.Lock()
		defer t.mutex.Unlock()
		for i, s := range t.subscriptions {
			if s.id == id {
				t.subscriptions = append(t.subscriptions[:i:i], t.subscriptions[i+1:]...)
				return
			}
		}
	}
}

// Start starts firing ticks. The first tick is delivered one period after
// Start. The ticker stops when ctx is done or Stop is called.
func (t *Ticker) Start(ctx context.Context) error {
	if t.period <= 0 {
		return errors.Errorf("tick period must be positive, got %v", t.period)
	}
	t.mutex.Lock()
	defer t.mutex.Unlock()
	if t.started {
		return errors.New("ticker already started")
	}
	if t.stopped.Load() {
		return errors.New("ticker already stopped")
	}
	t.started = true

	ticker := t.clock.Ticker(t.period)
	go t.loop(ctx, ticker)
	klog.FromContext(ctx).V(3).Info("Ticker started", "period", t.period)
	return nil
}

func (t *Ticker) loop(ctx context.Context, ticker *clock.Ticker) {
	defer close(t.doneCh)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			t.Stop()
			return
		case <-t.stopCh:
			return
		case <-ticker.C:
			if t.stopped.Load() {
				return
			}
			t.Fire(ctx)
		}
	}
}

// Fire delivers one tick to all listeners synchronously.
// Listeners are not called anymore once the ticker is stopped.
func (t *Ticker) Fire(ctx context.Context) {
	t.mutex.Lock()
	subscriptions := append([]subscription(nil), t.subscriptions...)
	t.mutex.Unlock()

	metrics.Ticks.Inc()
	logger := klog.FromContext(ctx)
	for _, s := range subscriptions {
		if t.stopped.Load() {
			logger.V(4).Info("Ticker stopped, skipping remaining listeners")
			return
		}
		if err := t.notify(ctx, s); err != nil {
			perrors.Report(perrors.Classify(err, perrors.ClassListenerFailure))
		}
	}
}

func (t *Ticker) notify(ctx context.Context, s subscription) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.Errorf("tick listener %q panicked: %v", s.name, r)
		}
	}()
	if err := s.listener.OnTick(ctx); err != nil {
		return errors.Wrapf(err, "tick listener %q failed", s.name)
	}
	return nil
}

// Stop stops the ticker. It is safe to call Stop multiple times and from
// listeners. A listener call in progress is not interrupted.
func (t *Ticker) Stop() {
	t.stopOnce.Do(func() {
		t.stopped.Store(true)
		close(t.stopCh)
		t.mutex.Lock()
		defer t.mutex.Unlock()
		if !t.started {
			close(t.doneCh)
		}
	})
}

// Done is closed when the ticker has stopped firing.
func (t *Ticker) Done() <-chan struct{} {
	return t.doneCh
}
