package provider

import (
	"context"
	"sync"
	"time"
)

type cacheEntry struct {
	shares  float64
	fetched time.Time
}

// CachingProvider wraps a Provider with a bounded in-memory TTL cache.
// Failed lookups are never cached.
type CachingProvider struct {
	inner      Provider
	ttl        time.Duration
	maxEntries int
	now        func() time.Time

	mu    sync.Mutex
	cache map[string]cacheEntry
}

// NewCachingProvider creates a caching wrapper. Entries older than ttl are
// refetched; once maxEntries is reached the oldest entry is evicted.
// A non-positive maxEntries means unbounded.
func NewCachingProvider(inner Provider, ttl time.Duration, maxEntries int) *CachingProvider {
	return &CachingProvider{
		inner:      inner,
		ttl:        ttl,
		maxEntries: maxEntries,
		now:        time.Now,
		cache:      make(map[string]cacheEntry),
	}
}

func (p *CachingProvider) Name() string      { return p.inner.Name() }
func (p *CachingProvider) IsAvailable() bool { return p.inner.IsAvailable() }
func (p *CachingProvider) RateLimit() int    { return p.inner.RateLimit() }

// SharesOutstanding returns a cached value when it is fresh
func (p *CachingProvider) SharesOutstanding(ctx context.Context, symbol string) (float64, error) {
	key := normalize(symbol)

	p.mu.Lock()
	if e, ok := p.cache[key]; ok {
		if p.now().Sub(e.fetched) < p.ttl {
			p.mu.Unlock()
			return e.shares, nil
		}
		delete(p.cache, key)
	}
	p.mu.Unlock()

	shares, err := p.inner.SharesOutstanding(ctx, symbol)
	if err != nil {
		return 0, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.maxEntries > 0 && len(p.cache) >= p.maxEntries {
		p.evictOldest()
	}
	p.cache[key] = cacheEntry{shares: shares, fetched: p.now()}

	return shares, nil
}

// Invalidate drops the cached value for symbol
func (p *CachingProvider) Invalidate(symbol string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.cache, normalize(symbol))
}

// Purge drops every cached value
func (p *CachingProvider) Purge() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cache = make(map[string]cacheEntry)
}

// Len returns the number of cached symbols
func (p *CachingProvider) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.cache)
}

// evictOldest must be called with mu held
func (p *CachingProvider) evictOldest() {
	var oldestKey string
	var oldest time.Time
	for k, e := range p.cache {
		if oldestKey == "" || e.fetched.Before(oldest) {
			oldestKey, oldest = k, e.fetched
		}
	}
	delete(p.cache, oldestKey)
}
