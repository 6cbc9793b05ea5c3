package dedupe

import (
	"context"
	"fmt"
	"sync"

	"github.com/cuemby/pipectl/pkg/log"
	"github.com/cuemby/pipectl/pkg/metrics"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
)

// Outcome labels for pipectl_dedupe_calls_total
const (
	OutcomeLeader = "leader"
	OutcomeShared = "shared"
)

// Cache holds at most one in-flight call per key. Entries live only while
// their call runs; nothing is cached after settlement.
type Cache struct {
	name   string
	group  singleflight.Group
	logger zerolog.Logger

	// mu is held across the lookup in calls and the group insert, so the
	// count and leader/shared outcome are settled before DoChan returns.
	// calls maps a key to the generation of its running call.
	mu      sync.Mutex
	calls   map[string]uint64
	nextGen uint64
}

// Option configures a Cache
type Option func(*Cache)

// WithName labels the cache in log output
func WithName(name string) Option {
	return func(c *Cache) {
		c.name = name
	}
}

// NewCache creates an empty cache
func NewCache(opts ...Option) *Cache {
	c := &Cache{name: "default", calls: make(map[string]uint64)}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = log.WithComponent("dedupe").With().Str("cache", c.name).Logger()
	return c
}

// Name returns the label given with WithName
func (c *Cache) Name() string {
	return c.name
}

// InFlight returns the number of calls currently running
func (c *Cache) InFlight() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.calls)
}

// Forget drops the entry for key so the next call starts a fresh request.
// Callers already waiting on the old entry still receive its result.
func (c *Cache) Forget(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.calls[key]; ok {
		delete(c.calls, key)
		metrics.DedupeInFlight.Dec()
	}
	c.group.Forget(key)
}

// settle removes the entry of generation gen. It runs before the result is
// handed to waiters, so a caller that has its result sees the entry gone.
func (c *Cache) settle(key string, gen uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.calls[key] != gen {
		// forgotten, possibly replaced by a newer call
		return
	}
	delete(c.calls, key)
	metrics.DedupeInFlight.Dec()
	c.group.Forget(key)
}

// Result is the settled outcome of a call. Shared is true when the caller
// joined a call started by someone else.
type Result[T any] struct {
	Value  T
	Err    error
	Shared bool
}

// DoChan runs fn for key unless a call for key is already in flight, in
// which case the caller joins it. The returned channel receives exactly one
// Result and is then closed.
//
// fn receives a context that carries ctx's values but not its cancellation:
// the call is shared, so one caller giving up must not fail the others.
func DoChan[T any](ctx context.Context, c *Cache, key string, fn func(context.Context) (T, error)) <-chan Result[T] {
	detached := context.WithoutCancel(ctx)

	c.mu.Lock()
	_, shared := c.calls[key]
	leader := !shared
	if leader {
		c.nextGen++
		c.calls[key] = c.nextGen
		metrics.DedupeInFlight.Inc()
	}
	gen := c.calls[key]
	ch := c.group.DoChan(key, func() (any, error) {
		defer c.settle(key, gen)
		c.logger.Debug().Str("request_key", key).Msg("Starting request")
		return fn(detached)
	})
	c.mu.Unlock()

	out := make(chan Result[T], 1)
	go func() {
		defer close(out)
		r := <-ch

		outcome := OutcomeLeader
		if !leader {
			outcome = OutcomeShared
			c.logger.Debug().Str("request_key", key).Msg("Joined in-flight request")
		}
		metrics.DedupeCallsTotal.WithLabelValues(outcome).Inc()

		res := Result[T]{Err: r.Err, Shared: !leader}
		if r.Val != nil {
			v, ok := r.Val.(T)
			if !ok && res.Err == nil {
				res.Err = fmt.Errorf("dedupe: key %q shared between result types %T and %T", key, r.Val, res.Value)
			}
			res.Value = v
		}
		out <- res
	}()
	return out
}

// Do is the blocking form of DoChan. If ctx is done before the call settles
// Do returns ctx.Err(); the call itself keeps running and its entry is
// removed when it settles.
func Do[T any](ctx context.Context, c *Cache, key string, fn func(context.Context) (T, error)) (T, error) {
	var zero T
	if err := ctx.Err(); err != nil {
		return zero, err
	}

	select {
	case r := <-DoChan(ctx, c, key, fn):
		return r.Value, r.Err
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}
