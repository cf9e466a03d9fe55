package proxyhealth

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/notemark/clip-relay/internal/domain"
	"github.com/notemark/clip-relay/internal/transform"
)

// canonicalTestURL is the fixed synthetic URL expanded through a rule's
// template to probe its proxy. Never derived from user data.
const canonicalTestURL = "https://example.com/test"

// entry is one cached probe result
type entry struct {
	healthy   bool
	checkedAt time.Time
}

// Cache implements the ProxyHealthChecker interface with TTL-cached probe
// results keyed by proxy origin. Probes for the same origin are serialized
// so concurrent requests cannot stampede a proxy that just expired.
type Cache struct {
	mu      sync.Mutex
	entries map[string]entry
	locks   map[string]*sync.Mutex

	ttl     time.Duration
	timeout time.Duration

	prober *Prober

	// Atomic counters for metrics
	hits   int64
	misses int64
	probes int64
}

// NewCache creates a health cache with the given entry TTL and probe timeout
func NewCache(ttl, timeout time.Duration) *Cache {
	return &Cache{
		entries: make(map[string]entry),
		locks:   make(map[string]*sync.Mutex),
		ttl:     ttl,
		timeout: timeout,
		prober:  NewProber(),
	}
}

// CheckProxyHealth returns the origin's health, probing only when no fresh
// cache entry exists. The rule supplies the template for the synthetic test
// expansion; when the templated probe fails, the bare origin is retried once
// before the origin is recorded unhealthy.
func (c *Cache) CheckProxyHealth(ctx context.Context, origin string, rule *domain.Rule) bool {
	c.mu.Lock()
	if e, ok := c.entries[origin]; ok && time.Now().Before(e.checkedAt.Add(c.ttl)) {
		c.mu.Unlock()
		atomic.AddInt64(&c.hits, 1)
		return e.healthy
	}
	originLock := c.originLock(origin)
	c.mu.Unlock()

	atomic.AddInt64(&c.misses, 1)

	originLock.Lock()
	defer originLock.Unlock()

	// A concurrent caller may have probed while we waited for the lock
	c.mu.Lock()
	if e, ok := c.entries[origin]; ok && time.Now().Before(e.checkedAt.Add(c.ttl)) {
		c.mu.Unlock()
		return e.healthy
	}
	c.mu.Unlock()

	healthy := c.probe(ctx, origin, rule)

	c.mu.Lock()
	c.entries[origin] = entry{healthy: healthy, checkedAt: time.Now()}
	c.mu.Unlock()

	return healthy
}

// TestAll force-probes every enabled rule's proxy, bypassing the cache, and
// returns rule name to measured health. Disabled rules are skipped.
func (c *Cache) TestAll(ctx context.Context, rules []domain.Rule) map[string]bool {
	results := make(map[string]bool)

	for i := range rules {
		rule := &rules[i]
		if !rule.Enabled {
			continue
		}

		target := transform.ApplyTransformation(canonicalTestURL, rule)
		origin, ok := transform.Origin(target)
		if !ok {
			log.Warn().
				Str("rule_id", rule.ID).
				Str("target", target).
				Msg("Rule template yields no probeable origin")
			results[rule.Name] = false
			continue
		}

		c.Invalidate(origin)
		results[rule.Name] = c.CheckProxyHealth(ctx, origin, rule)
	}

	return results
}

// Invalidate removes a single origin's entry
func (c *Cache) Invalidate(origin string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, origin)
}

// Clear removes all entries and resets the counters
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[string]entry)

	atomic.StoreInt64(&c.hits, 0)
	atomic.StoreInt64(&c.misses, 0)
	atomic.StoreInt64(&c.probes, 0)
}

// SetTTL updates how long probe results stay fresh
func (c *Cache) SetTTL(ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ttl = ttl
}

// SetProbeTimeout updates the per-probe deadline
func (c *Cache) SetProbeTimeout(timeout time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.timeout = timeout
}

// Stats returns current cache statistics. Probes counts live probe rounds,
// each of which may issue up to two HEAD requests.
func (c *Cache) Stats() domain.HealthCacheStats {
	c.mu.Lock()
	size := len(c.entries)
	c.mu.Unlock()

	hits := atomic.LoadInt64(&c.hits)
	misses := atomic.LoadInt64(&c.misses)
	total := hits + misses

	var hitRatio float64
	if total > 0 {
		hitRatio = float64(hits) / float64(total)
	}

	return domain.HealthCacheStats{
		Hits:     hits,
		Misses:   misses,
		Probes:   atomic.LoadInt64(&c.probes),
		Size:     size,
		HitRatio: hitRatio,
	}
}

// HealthCheck performs a health check on the cache itself
func (c *Cache) HealthCheck(ctx context.Context) domain.HealthStatus {
	now := time.Now()
	stats := c.Stats()

	status := "healthy"
	message := "Health cache is operating normally"
	details := map[string]any{
		"size":      stats.Size,
		"hits":      stats.Hits,
		"misses":    stats.Misses,
		"probes":    stats.Probes,
		"hit_ratio": stats.HitRatio,
	}

	c.mu.Lock()
	unhealthyOrigins := 0
	for _, e := range c.entries {
		if !e.healthy {
			unhealthyOrigins++
		}
	}
	c.mu.Unlock()

	details["unhealthy_origins"] = unhealthyOrigins
	if unhealthyOrigins > 0 && unhealthyOrigins == stats.Size {
		status = "degraded"
		message = "All cached proxy origins are unhealthy"
	}

	return domain.HealthStatus{
		Status:    status,
		Message:   message,
		Details:   details,
		Timestamp: now,
	}
}

// probe runs one live probe round: templated synthetic URL first, then the
// bare origin for proxies that reject the synthetic path but are reachable.
func (c *Cache) probe(ctx context.Context, origin string, rule *domain.Rule) bool {
	atomic.AddInt64(&c.probes, 1)

	c.mu.Lock()
	timeout := c.timeout
	c.mu.Unlock()

	target := canonicalTestURL
	if rule != nil {
		target = transform.ApplyTransformation(canonicalTestURL, rule)
	}

	if c.prober.Probe(ctx, target, timeout) {
		return true
	}
	return c.prober.Probe(ctx, origin, timeout)
}

// originLock returns the per-origin probe mutex, creating it on first use.
// Callers must hold c.mu.
func (c *Cache) originLock(origin string) *sync.Mutex {
	lock, ok := c.locks[origin]
	if !ok {
		lock = &sync.Mutex{}
		c.locks[origin] = lock
	}
	return lock
}
