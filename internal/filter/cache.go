package filter

import (
	"context"
	"fmt"
	"sync"

	"github.com/dgraph-io/ristretto/v2"
	"golang.org/x/sync/singleflight"
)

// DefaultCacheEntries bounds the number of cached query results.
const DefaultCacheEntries = 512

// Cache memoises successful results per query text. The inputs must stay the
// same for the lifetime of the cache. Concurrent evaluations of the same
// query share one engine call, which runs until it finishes or every caller
// waiting on it has gone.
type Cache struct {
	next    Evaluator
	results *ristretto.Cache[string, []any]
	group   singleflight.Group

	mu      sync.Mutex
	flights map[string]*flight
}

// flight is the engine call shared by the callers of one query.
type flight struct {
	ctx     context.Context
	cancel  context.CancelFunc
	waiters int
}

// NewCache wraps next with a result cache holding up to entries results.
func NewCache(next Evaluator, entries int64) (*Cache, error) {
	if entries <= 0 {
		entries = DefaultCacheEntries
	}
	rc, err := ristretto.NewCache(&ristretto.Config[string, []any]{
		NumCounters: entries * 10,
		MaxCost:     entries,
		BufferItems: 64,
		// Each entry costs 1, so MaxCost is an entry count.
		IgnoreInternalCost: true,
	})
	if err != nil {
		return nil, fmt.Errorf("create result cache: %w", err)
	}
	return &Cache{next: next, results: rc, flights: map[string]*flight{}}, nil
}

// Name implements Evaluator.
func (c *Cache) Name() string { return c.next.Name() }

// Engine returns the wrapped evaluator.
func (c *Cache) Engine() Evaluator { return c.next }

// Lookup returns a cached result for query.
func (c *Cache) Lookup(query string) ([]any, bool) {
	return c.results.Get(query)
}

// Evaluate returns the cached result for query or runs the wrapped evaluator
// and caches a successful result. A caller whose ctx ends stops waiting; the
// engine call is cancelled once no caller is left, so a later caller never
// joins a call that is already dead.
func (c *Cache) Evaluate(ctx context.Context, query string, inputs []any) ([]any, error) {
	if v, ok := c.results.Get(query); ok {
		return v, nil
	}
	f, ch := c.join(ctx, query, inputs)
	defer c.leave(query, f)
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.([]any), nil
	}
}

func (c *Cache) join(ctx context.Context, query string, inputs []any) (*flight, <-chan singleflight.Result) {
	c.mu.Lock()
	defer c.mu.Unlock()
	f, ok := c.flights[query]
	if !ok {
		fctx, cancel := context.WithCancel(context.WithoutCancel(ctx))
		f = &flight{ctx: fctx, cancel: cancel}
		c.flights[query] = f
	}
	f.waiters++
	ch := c.group.DoChan(query, func() (any, error) {
		defer c.land(query, f)
		v, err := c.next.Evaluate(f.ctx, query, inputs)
		if err != nil {
			return nil, err
		}
		c.results.Set(query, v, 1)
		c.results.Wait()
		return v, nil
	})
	return f, ch
}

// land retires f once its engine call has returned.
func (c *Cache) land(query string, f *flight) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.flights[query] == f {
		delete(c.flights, query)
	}
	f.cancel()
}

// leave drops one caller from f and abandons the engine call when it was the
// last one.
func (c *Cache) leave(query string, f *flight) {
	c.mu.Lock()
	defer c.mu.Unlock()
	f.waiters--
	if f.waiters > 0 {
		return
	}
	f.cancel()
	if c.flights[query] == f {
		delete(c.flights, query)
		c.group.Forget(query)
	}
}

// Close releases the cache's background goroutines.
func (c *Cache) Close() { c.results.Close() }
