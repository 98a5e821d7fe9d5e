package images

import (
	"container/list"
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// Outcome labels a cached lookup.
type Outcome string

const (
	OutcomeHit   Outcome = "hit"
	OutcomeMiss  Outcome = "miss"
	OutcomeError Outcome = "error"
)

type cacheEntry struct {
	expiresAt time.Time
	payload   Payload
	ref       string
}

// Cached wraps a Resolver with an in-memory LRU cache. Concurrent misses
// for the same reference share one upstream call. Failures are not cached.
type Cached struct {
	next     Resolver
	now      func() time.Time
	hook     func(ref string, outcome Outcome)
	items    map[string]*list.Element
	eviction *list.List
	group    singleflight.Group
	ttl      time.Duration
	timeout  time.Duration
	max      int
	mu       sync.Mutex
}

var _ Resolver = (*Cached)(nil)

// CacheOption configures Cached.
type CacheOption func(*Cached)

// WithTTL sets how long a resolved image stays cached. Zero or negative
// keeps entries until evicted.
// Default: 10 minutes
func WithTTL(d time.Duration) CacheOption {
	return func(c *Cached) {
		c.ttl = d
	}
}

// WithMaxEntries caps the number of cached images.
// Default: 64
func WithMaxEntries(n int) CacheOption {
	return func(c *Cached) {
		if n > 0 {
			c.max = n
		}
	}
}

// WithLookupTimeout bounds one upstream lookup. The lookup is shared by
// every caller waiting on the same reference, so it does not end when the
// first caller's context does.
// Default: 10 seconds
func WithLookupTimeout(d time.Duration) CacheOption {
	return func(c *Cached) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithCacheHook is called after every lookup with its outcome.
func WithCacheHook(fn func(ref string, outcome Outcome)) CacheOption {
	return func(c *Cached) {
		c.hook = fn
	}
}

// WithCacheClock replaces time.Now.
func WithCacheClock(now func() time.Time) CacheOption {
	return func(c *Cached) {
		if now != nil {
			c.now = now
		}
	}
}

// NewCached wraps next with a cache.
func NewCached(next Resolver, opts ...CacheOption) *Cached {
	c := &Cached{
		next:     next,
		now:      time.Now,
		items:    make(map[string]*list.Element),
		eviction: list.New(),
		ttl:      10 * time.Minute,
		timeout:  10 * time.Second,
		max:      64,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ResolveImage implements Resolver.
func (c *Cached) ResolveImage(ctx context.Context, ref string) (Payload, error) {
	if p, ok := c.get(ref); ok {
		c.report(ref, OutcomeHit)
		return p, nil
	}

	shared := context.WithoutCancel(ctx)
	ch := c.group.DoChan(ref, func() (any, error) {
		lctx, cancel := context.WithTimeout(shared, c.timeout)
		defer cancel()

		p, err := c.next.ResolveImage(lctx, ref)
		if err != nil {
			return Payload{}, err
		}
		c.set(ref, p)
		return p, nil
	})

	select {
	case <-ctx.Done():
		c.report(ref, OutcomeError)
		return Payload{}, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			c.report(ref, OutcomeError)
			return Payload{}, res.Err
		}
		c.report(ref, OutcomeMiss)
		return res.Val.(Payload), nil
	}
}

// Invalidate drops one reference from the cache.
func (c *Cached) Invalidate(ref string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if elem, ok := c.items[ref]; ok {
		c.removeElement(elem)
	}
}

// Purge empties the cache.
func (c *Cached) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = make(map[string]*list.Element)
	c.eviction.Init()
}

// Len returns the number of cached entries, expired ones included.
func (c *Cached) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

func (c *Cached) get(ref string) (Payload, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.items[ref]
	if !ok {
		return Payload{}, false
	}
	e := elem.Value.(*cacheEntry)
	if !e.expiresAt.IsZero() && !c.now().Before(e.expiresAt) {
		c.removeElement(elem)
		return Payload{}, false
	}
	c.eviction.MoveToFront(elem)
	return e.payload, true
}

func (c *Cached) set(ref string, p Payload) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var expiresAt time.Time
	if c.ttl > 0 {
		expiresAt = c.now().Add(c.ttl)
	}

	if elem, ok := c.items[ref]; ok {
		e := elem.Value.(*cacheEntry)
		e.payload = p
		e.expiresAt = expiresAt
		c.eviction.MoveToFront(elem)
		return
	}

	for len(c.items) >= c.max {
		oldest := c.eviction.Back()
		if oldest == nil {
			break
		}
		c.removeElement(oldest)
	}

	c.items[ref] = c.eviction.PushFront(&cacheEntry{ref: ref, payload: p, expiresAt: expiresAt})
}

func (c *Cached) removeElement(elem *list.Element) {
	c.eviction.Remove(elem)
	delete(c.items, elem.Value.(*cacheEntry).ref)
}

func (c *Cached) report(ref string, outcome Outcome) {
	if c.hook != nil {
		c.hook(ref, outcome)
	}
}
