package middleware

import (
	"fmt"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/notemark/clip-relay/internal/domain"
)

// TokenBucket implements a token bucket rate limiter
type TokenBucket struct {
	capacity   int
	tokens     float64 // Use float for precise refill
	refillRate int     // tokens per second
	lastRefill time.Time
	mutex      sync.Mutex
}

// NewTokenBucket creates a new token bucket
func NewTokenBucket(capacity, refillRate int) *TokenBucket {
	return &TokenBucket{
		capacity:   capacity,
		tokens:     float64(capacity),
		refillRate: refillRate,
		lastRefill: time.Now(),
	}
}

// Allow checks if a request should be allowed
func (tb *TokenBucket) Allow() bool {
	tb.mutex.Lock()
	defer tb.mutex.Unlock()

	now := time.Now()
	elapsed := now.Sub(tb.lastRefill).Seconds()

	// Refill tokens based on elapsed time (fractional)
	tb.tokens = min(float64(tb.capacity), tb.tokens+elapsed*float64(tb.refillRate))
	tb.lastRefill = now

	if tb.tokens >= 1 {
		tb.tokens--
		return true
	}

	return false
}

// limit describes one endpoint's bucket parameters
type limit struct {
	capacity   int
	refillRate int
}

// RateLimiter manages per-client, per-endpoint token buckets
type RateLimiter struct {
	buckets map[string]*TokenBucket
	mutex   sync.RWMutex

	defaultLimit   limit
	endpointLimits map[string]limit
}

// NewRateLimiter creates a rate limiter tuned for the clip-relay endpoints.
// Transform lookups are cheap and get generous limits; clipping and scan
// triggers do network and disk work and get tight ones.
func NewRateLimiter(rps, burst int) *RateLimiter {
	rl := &RateLimiter{
		buckets:      make(map[string]*TokenBucket),
		defaultLimit: limit{capacity: burst, refillRate: rps},
		endpointLimits: map[string]limit{
			"/v1/transform":       {capacity: burst * 2, refillRate: rps * 2},
			"/v1/clip":            {capacity: max(burst/2, 1), refillRate: max(rps/2, 1)},
			"/v1/autoprocess/run": {capacity: 5, refillRate: 1},
			"/health":             {capacity: 20, refillRate: 2},
			"/metrics":            {capacity: 20, refillRate: 2},
		},
	}
	return rl
}

// getBucket gets or creates a token bucket for a client+endpoint combination
func (rl *RateLimiter) getBucket(clientID, endpoint string) *TokenBucket {
	key := clientID + ":" + endpoint

	rl.mutex.RLock()
	bucket, exists := rl.buckets[key]
	rl.mutex.RUnlock()

	if exists {
		return bucket
	}

	rl.mutex.Lock()
	defer rl.mutex.Unlock()

	// Double-check after acquiring write lock
	if bucket, exists := rl.buckets[key]; exists {
		return bucket
	}

	limits, exists := rl.endpointLimits[endpoint]
	if !exists {
		limits = rl.defaultLimit
	}

	bucket = NewTokenBucket(limits.capacity, limits.refillRate)
	rl.buckets[key] = bucket

	return bucket
}

// getClientID extracts client identifier from request
func (rl *RateLimiter) getClientID(c *fiber.Ctx) string {
	if apiKey := c.Get("X-API-Key"); apiKey != "" {
		return "api:" + apiKey
	}
	if auth := c.Get("Authorization"); auth != "" {
		return "auth:" + auth
	}
	return "ip:" + c.IP()
}

// Middleware returns a Fiber middleware for rate limiting
func (rl *RateLimiter) Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		clientID := rl.getClientID(c)
		endpoint := c.Path()

		bucket := rl.getBucket(clientID, endpoint)

		if !bucket.Allow() {
			appErr := domain.NewAppError(
				domain.ErrRateLimit,
				"Rate limit exceeded",
				429,
				map[string]any{
					"endpoint":    endpoint,
					"retry_after": "60",
				},
			).WithContext(c.Context(), "rate_limit")

			c.Set("Retry-After", "60")
			c.Set("X-RateLimit-Limit", fmt.Sprintf("%d", bucket.capacity))
			c.Set("X-RateLimit-Remaining", "0")
			c.Set("X-RateLimit-Reset", time.Now().Add(time.Minute).Format(time.RFC3339))

			return c.Status(appErr.StatusCode).JSON(map[string]any{
				"status":  "error",
				"code":    appErr.Code,
				"message": appErr.Message,
				"details": appErr.Details,
			})
		}

		c.Set("X-RateLimit-Limit", fmt.Sprintf("%d", bucket.capacity))

		return c.Next()
	}
}

// CleanupOldBuckets removes buckets idle for over an hour
func (rl *RateLimiter) CleanupOldBuckets() {
	rl.mutex.Lock()
	defer rl.mutex.Unlock()

	now := time.Now()
	for key, bucket := range rl.buckets {
		bucket.mutex.Lock()
		idle := now.Sub(bucket.lastRefill)
		bucket.mutex.Unlock()
		if idle > time.Hour {
			delete(rl.buckets, key)
		}
	}
}

// StartCleanupRoutine starts a background routine to clean up old buckets.
// Returns a stop function to cancel the routine.
func (rl *RateLimiter) StartCleanupRoutine() (stop func()) {
	ticker := time.NewTicker(10 * time.Minute)
	done := make(chan struct{})

	go func() {
		for {
			select {
			case <-ticker.C:
				rl.CleanupOldBuckets()
			case <-done:
				ticker.Stop()
				return
			}
		}
	}()

	return func() { close(done) }
}

// GetStats returns rate limiter statistics
func (rl *RateLimiter) GetStats() map[string]any {
	rl.mutex.RLock()
	defer rl.mutex.RUnlock()

	return map[string]any{
		"active_buckets":      len(rl.buckets),
		"default_capacity":    rl.defaultLimit.capacity,
		"default_refill_rate": rl.defaultLimit.refillRate,
	}
}
