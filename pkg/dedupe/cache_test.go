package dedupe

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/cuemby/pipectl/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// blockingCall returns a factory that counts invocations and blocks until
// release is closed.
func blockingCall[T any](calls *atomic.Int32, release <-chan struct{}, value T, err error) func(context.Context) (T, error) {
	return func(ctx context.Context) (T, error) {
		calls.Add(1)
		<-release
		return value, err
	}
}

func TestConcurrentIdenticalReadsShareOneCall(t *testing.T) {
	c := NewCache(WithName("test"))
	var calls atomic.Int32
	release := make(chan struct{})
	fn := blockingCall(&calls, release, "payload", nil)

	first := DoChan(context.Background(), c, "/agent?pageNum=1", fn)
	second := DoChan(context.Background(), c, "/agent?pageNum=1", fn)
	third := DoChan(context.Background(), c, "/agent?pageNum=1", fn)
	assert.Equal(t, 1, c.InFlight())

	close(release)
	r1, r2, r3 := <-first, <-second, <-third

	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, "payload", r1.Value)
	assert.Equal(t, "payload", r2.Value)
	assert.Equal(t, "payload", r3.Value)
	assert.False(t, r1.Shared)
	assert.True(t, r2.Shared)
	assert.True(t, r3.Shared)
	assert.Equal(t, 0, c.InFlight())
}

func TestDoFromManyGoroutines(t *testing.T) {
	c := NewCache()
	var calls atomic.Int32
	release := make(chan struct{})
	fn := blockingCall(&calls, release, 42, nil)

	// hold the entry open so every goroutine below joins it
	leader := DoChan(context.Background(), c, "k", fn)

	var wg sync.WaitGroup
	results := make([]int, 20)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			v, err := Do(context.Background(), c, "k", fn)
			assert.NoError(t, err)
			results[i] = v
		}(i)
	}

	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()
	<-leader

	assert.Equal(t, int32(1), calls.Load())
	for _, v := range results {
		assert.Equal(t, 42, v)
	}
}

func TestDistinctKeysRunIndependently(t *testing.T) {
	c := NewCache()
	var calls atomic.Int32
	release := make(chan struct{})
	fn := blockingCall(&calls, release, "x", nil)

	a := DoChan(context.Background(), c, "/agent?pageNum=1", fn)
	b := DoChan(context.Background(), c, "/agent?pageNum=2", fn)
	assert.Equal(t, 2, c.InFlight())

	close(release)
	<-a
	<-b
	assert.Equal(t, int32(2), calls.Load())
}

func TestEntryIsEvictedAfterSuccess(t *testing.T) {
	c := NewCache()
	var calls atomic.Int32
	fn := func(ctx context.Context) (int, error) {
		return int(calls.Add(1)), nil
	}

	v1, err := Do(context.Background(), c, "k", fn)
	require.NoError(t, err)
	v2, err := Do(context.Background(), c, "k", fn)
	require.NoError(t, err)

	assert.Equal(t, 1, v1)
	assert.Equal(t, 2, v2)
	assert.Equal(t, 0, c.InFlight())
}

func TestEntryIsEvictedAfterFailure(t *testing.T) {
	c := NewCache()
	boom := errors.New("boom")
	var calls atomic.Int32
	fn := func(ctx context.Context) (int, error) {
		if calls.Add(1) == 1 {
			return 0, boom
		}
		return 7, nil
	}

	_, err := Do(context.Background(), c, "k", fn)
	require.ErrorIs(t, err, boom)

	v, err := Do(context.Background(), c, "k", fn)
	require.NoError(t, err)
	assert.Equal(t, 7, v)
	assert.Equal(t, int32(2), calls.Load())
}

type statusError struct{ code int }

func (e *statusError) Error() string { return "status" }

func TestErrorsReachEverySharingCaller(t *testing.T) {
	c := NewCache()
	var calls atomic.Int32
	release := make(chan struct{})
	fn := blockingCall[string](&calls, release, "", &statusError{code: 503})

	first := DoChan(context.Background(), c, "k", fn)
	second := DoChan(context.Background(), c, "k", fn)
	close(release)

	for _, ch := range []<-chan Result[string]{first, second} {
		r := <-ch
		var se *statusError
		require.ErrorAs(t, r.Err, &se)
		assert.Equal(t, 503, se.code)
	}
	assert.Equal(t, int32(1), calls.Load())
}

func TestCancelledWaiterDoesNotCancelSharedCall(t *testing.T) {
	c := NewCache()
	release := make(chan struct{})
	var sawCancel atomic.Bool
	fn := func(ctx context.Context) (string, error) {
		<-release
		if ctx.Err() != nil {
			sawCancel.Store(true)
		}
		return "done", nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		_, err := Do(ctx, c, "k", fn)
		errCh <- err
	}()
	require.Eventually(t, func() bool { return c.InFlight() == 1 }, time.Second, time.Millisecond)

	other := DoChan(context.Background(), c, "k", fn)
	cancel()
	assert.ErrorIs(t, <-errCh, context.Canceled)
	assert.Equal(t, 1, c.InFlight(), "abandoned call stays in flight until it settles")

	close(release)
	r := <-other
	require.NoError(t, r.Err)
	assert.Equal(t, "done", r.Value)
	assert.False(t, sawCancel.Load())
	assert.Equal(t, 0, c.InFlight())
}

func TestDoWithDoneContextSkipsCall(t *testing.T) {
	c := NewCache()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	_, err := Do(ctx, c, "k", func(context.Context) (int, error) {
		called = true
		return 1, nil
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, called)
}

func TestMismatchedResultTypes(t *testing.T) {
	c := NewCache()
	release := make(chan struct{})

	first := DoChan(context.Background(), c, "k", func(context.Context) (int, error) {
		<-release
		return 1, nil
	})
	second := DoChan(context.Background(), c, "k", func(context.Context) (string, error) {
		return "never", nil
	})
	close(release)

	assert.NoError(t, (<-first).Err)
	assert.Error(t, (<-second).Err)
}

func TestForgetStartsFreshCall(t *testing.T) {
	c := NewCache()
	var calls atomic.Int32
	release := make(chan struct{})
	fn := blockingCall(&calls, release, 1, nil)

	first := DoChan(context.Background(), c, "k", fn)
	c.Forget("k")
	second := DoChan(context.Background(), c, "k", fn)
	close(release)

	<-first
	<-second
	assert.Equal(t, int32(2), calls.Load())
}

func TestDedupeMetrics(t *testing.T) {
	leaders := testutil.ToFloat64(metrics.DedupeCallsTotal.WithLabelValues(OutcomeLeader))
	shared := testutil.ToFloat64(metrics.DedupeCallsTotal.WithLabelValues(OutcomeShared))

	c := NewCache()
	var calls atomic.Int32
	release := make(chan struct{})
	fn := blockingCall(&calls, release, 1, nil)
	a := DoChan(context.Background(), c, "k", fn)
	b := DoChan(context.Background(), c, "k", fn)
	close(release)
	<-a
	<-b

	assert.Equal(t, leaders+1, testutil.ToFloat64(metrics.DedupeCallsTotal.WithLabelValues(OutcomeLeader)))
	assert.Equal(t, shared+1, testutil.ToFloat64(metrics.DedupeCallsTotal.WithLabelValues(OutcomeShared)))
}

func TestInFlightCountsEntryAsSoonAsDoChanReturns(t *testing.T) {
	gauge := testutil.ToFloat64(metrics.DedupeInFlight)

	for i := 0; i < 200; i++ {
		c := NewCache()
		var calls atomic.Int32
		release := make(chan struct{})
		ch := DoChan(context.Background(), c, "k", blockingCall(&calls, release, i, nil))

		require.Equal(t, 1, c.InFlight(), "iteration %d", i)
		require.Equal(t, gauge+1, testutil.ToFloat64(metrics.DedupeInFlight), "iteration %d", i)

		close(release)
		<-ch
		require.Equal(t, 0, c.InFlight(), "iteration %d", i)
	}
	assert.Equal(t, gauge, testutil.ToFloat64(metrics.DedupeInFlight))
}

func TestForgetReleasesInFlightEntry(t *testing.T) {
	c := NewCache()
	var calls atomic.Int32
	release := make(chan struct{})
	fn := blockingCall(&calls, release, 1, nil)

	first := DoChan(context.Background(), c, "k", fn)
	require.Equal(t, 1, c.InFlight())

	c.Forget("k")
	assert.Equal(t, 0, c.InFlight())

	second := DoChan(context.Background(), c, "k", fn)
	assert.Equal(t, 1, c.InFlight())

	close(release)
	assert.False(t, (<-first).Shared)
	assert.False(t, (<-second).Shared)
	assert.Equal(t, 0, c.InFlight())
}
