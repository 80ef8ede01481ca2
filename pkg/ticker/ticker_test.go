package ticker

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	perrors "github.com/guxg/colossus/pkg/errors"
	metricstesting "github.com/guxg/colossus/pkg/metrics/testing"
	"gotest.tools/v3/assert"
)

const waitTimeout = 5 * time.Second

type recorder struct {
	mutex sync.Mutex
	calls []string
}

func (r *recorder) listener(name string) Listener {
	return ListenerFunc(func(context.Context) error {
		r.mutex.Lock()
		defer r.mutex.Unlock()
		r.calls = append(r.calls, name)
		return nil
	})
}

func (r *recorder) get() []string {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	return append([]string(nil), r.calls...)
}

func signalingListener(ch chan<- struct{}) Listener {
	return ListenerFunc(func(context.Context) error {
		ch <- struct{}{}
		return nil
	})
}

func waitFor(t *testing.T, ch <-chan struct{}) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(waitTimeout):
		t.Fatal("timed out waiting")
	}
}

func Test_Ticker_Fire_SubscriptionOrder(t *testing.T) {
	t.Parallel()

	// SETUP
	rec := &recorder{}
	examinee := New(clock.NewMock(), time.Second)
	examinee.Subscribe("first", rec.listener("first"))
	cancel := examinee.Subscribe("second", rec.listener("second"))
	examinee.Subscribe("third", rec.listener("third"))

	// EXERCISE
	examinee.Fire(context.Background())
	cancel()
	examinee.Fire(context.Background())

	// VERIFY
	assert.DeepEqual(t, rec.get(), []string{"first", "second", "third", "first", "third"})
}

func Test_Ticker_Fire_FailingListenersAreReported(t *testing.T) {
	// no parallel: patching global state

	// SETUP
	counter := &metricstesting.ClassCounter{}
	t.Cleanup(metricstesting.PatchPipelineErrors(counter))

	rec := &recorder{}
	examinee := New(clock.NewMock(), time.Second)
	examinee.Subscribe("failing", ListenerFunc(func(context.Context) error {
		return fmt.Errorf("boom")
	}))
	examinee.Subscribe("panicking", ListenerFunc(func(context.Context) error {
		panic("boom")
	}))
	examinee.Subscribe("healthy", rec.listener("healthy"))

	// EXERCISE
	examinee.Fire(context.Background())

	// VERIFY
	assert.DeepEqual(t, rec.get(), []string{"healthy"})
	assert.Equal(t, counter.Count(string(perrors.ClassListenerFailure)), 2)
}

func Test_Ticker_Start_DeliversTicksPeriodically(t *testing.T) {
	t.Parallel()

	// SETUP
	clk := clock.NewMock()
	ticks := make(chan struct{}, 10)
	examinee := New(clk, 100*time.Millisecond)
	examinee.Subscribe("signal", signalingListener(ticks))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// EXERCISE
	err := examinee.Start(ctx)

	// VERIFY
	assert.NilError(t, err)
	for i := 0; i < 3; i++ {
		clk.Add(100 * time.Millisecond)
		waitFor(t, ticks)
	}
	assert.Equal(t, len(ticks), 0)

	examinee.Stop()
	waitFor(t, examinee.Done())
	clk.Add(time.Second)
	assert.Equal(t, len(ticks), 0)
}

func Test_Ticker_Start_Errors(t *testing.T) {
	t.Parallel()

	t.Run("non-positive period", func(t *testing.T) {
		t.Parallel()
		examinee := New(clock.NewMock(), 0)
		assert.ErrorContains(t, examinee.Start(context.Background()), "must be positive")
	})

	t.Run("started twice", func(t *testing.T) {
		t.Parallel()
		examinee := New(clock.NewMock(), time.Second)
		defer examinee.Stop()
		assert.NilError(t, examinee.Start(context.Background()))
		assert.ErrorContains(t, examinee.Start(context.Background()), "already started")
	})

	t.Run("start after stop", func(t *testing.T) {
		t.Parallel()
		examinee := New(clock.NewMock(), time.Second)
		examinee.Stop()
		assert.ErrorContains(t, examinee.Start(context.Background()), "already stopped")
		waitFor(t, examinee.Done())
	})
}

func Test_Ticker_StopFromListener(t *testing.T) {
	t.Parallel()

	// SETUP
	clk := clock.NewMock()
	rec := &recorder{}
	examinee := New(clk, time.Second)
	examinee.Subscribe("stopper", ListenerFunc(func(context.Context) error {
		examinee.Stop()
		examinee.Stop()
		return nil
	}))
	examinee.Subscribe("late", rec.listener("late"))
	assert.NilError(t, examinee.Start(context.Background()))

	// EXERCISE
	clk.Add(time.Second)

	// VERIFY
	waitFor(t, examinee.Done())
	assert.Equal(t, len(rec.get()), 0)
}

func Test_Ticker_StopsWhenContextIsDone(t *testing.T) {
	t.Parallel()

	// SETUP
	examinee := New(clock.NewMock(), time.Second)
	ctx, cancel := context.WithCancel(context.Background())
	assert.NilError(t, examinee.Start(ctx))

	// EXERCISE
	cancel()

	// VERIFY
	waitFor(t, examinee.Done())
	assert.ErrorContains(t, examinee.Start(context.Background()), "already")
}

func Test_Ticker_Subscribe_DefaultName(t *testing.T) {
	t.Parallel()

	// SETUP
	examinee := New(clock.NewMock(), time.Second)

	// EXERCISE
	examinee.Subscribe("", ListenerFunc(func(context.Context) error { return nil }))

	// VERIFY
	assert.Equal(t, len(examinee.subscriptions), 1)
	name := examinee.subscriptions[0].name
	assert.Assert(t, strings.HasPrefix(name, "ticker.Test_Ticker_Subscribe_DefaultName (ticker_test.go:"), name)
}
