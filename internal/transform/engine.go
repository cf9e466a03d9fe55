package transform

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/notemark/clip-relay/internal/domain"
	"github.com/notemark/clip-relay/internal/matcher"
)

// Engine routes URLs through the rule set: resolve a rule, expand its
// template, gate the result on proxy health. All failure is expressed in the
// returned TransformResult, never as a raised error, so batch callers can
// keep going past a single bad URL.
type Engine struct {
	matcher *matcher.Matcher
	health  domain.ProxyHealthChecker

	transforms  int64
	passthrough int64
	blocked     int64
}

// NewEngine creates a new transformation engine
func NewEngine(m *matcher.Matcher, health domain.ProxyHealthChecker) *Engine {
	return &Engine{
		matcher: m,
		health:  health,
	}
}

// TransformURL resolves the best rule for the URL and returns the routed
// result. No matching rule means pass-through: the original URL comes back
// marked healthy. A matched rule whose proxy is down yields an empty
// TransformedURL with a populated Error; callers must skip the URL, not fall
// back to the original.
func (e *Engine) TransformURL(ctx context.Context, rawURL string) domain.TransformResult {
	rule, err := e.matcher.Resolve(ctx, rawURL)
	if err != nil {
		log.Warn().Err(err).Str("url", rawURL).Msg("Rule resolution failed, passing URL through")
		rule = nil
	}

	if rule == nil {
		atomic.AddInt64(&e.passthrough, 1)
		return domain.TransformResult{
			OriginalURL:    rawURL,
			TransformedURL: rawURL,
			ProxyHealthy:   true,
		}
	}

	transformed := ApplyTransformation(rawURL, rule)
	origin, ok := Origin(transformed)
	if !ok {
		log.Warn().
			Str("url", rawURL).
			Str("rule_id", rule.ID).
			Str("transformed", transformed).
			Msg("Transformed URL has no derivable origin, passing URL through")
		atomic.AddInt64(&e.passthrough, 1)
		return domain.TransformResult{
			OriginalURL:    rawURL,
			TransformedURL: rawURL,
			ProxyHealthy:   true,
		}
	}

	if !e.health.CheckProxyHealth(ctx, origin, rule) {
		atomic.AddInt64(&e.blocked, 1)
		log.Info().
			Str("url", rawURL).
			Str("rule_id", rule.ID).
			Str("origin", origin).
			Msg("Proxy unhealthy, blocking transformation")
		return domain.TransformResult{
			OriginalURL:  rawURL,
			AppliedRule:  rule.Name,
			ProxyHealthy: false,
			Error:        rule.Name + " unavailable",
		}
	}

	atomic.AddInt64(&e.transforms, 1)
	log.Debug().
		Str("url", rawURL).
		Str("rule_id", rule.ID).
		Str("transformed", transformed).
		Msg("URL transformed")
	return domain.TransformResult{
		OriginalURL:    rawURL,
		TransformedURL: transformed,
		AppliedRule:    rule.Name,
		ProxyHealthy:   true,
	}
}

// TestAllProxies force-probes every enabled rule's proxy, bypassing the TTL
// cache, and returns rule name to health.
func (e *Engine) TestAllProxies(ctx context.Context) map[string]bool {
	return e.health.TestAll(ctx, e.matcher.Rules())
}

// ClearHealthCache wipes all cached probe results
func (e *Engine) ClearHealthCache() {
	e.health.Clear()
}

// HealthCheck performs a health check on the engine and its collaborators
func (e *Engine) HealthCheck(ctx context.Context) domain.HealthStatus {
	now := time.Now()
	status := "healthy"
	message := "Transformation engine is operating normally"

	details := map[string]any{
		"transforms_total":  atomic.LoadInt64(&e.transforms),
		"passthrough_total": atomic.LoadInt64(&e.passthrough),
		"blocked_total":     atomic.LoadInt64(&e.blocked),
	}

	matcherHealth := e.matcher.HealthCheck(ctx)
	if matcherHealth.Status != domain.HealthStatusHealthy {
		status = matcherHealth.Status
		message = "Matcher issues detected"
		details["matcher_status"] = matcherHealth.Status
		details["matcher_message"] = matcherHealth.Message
	}

	cacheHealth := e.health.HealthCheck(ctx)
	if cacheHealth.Status != domain.HealthStatusHealthy {
		if status == domain.HealthStatusHealthy {
			status = cacheHealth.Status
		}
		message = "Health cache issues detected"
		details["cache_status"] = cacheHealth.Status
		details["cache_message"] = cacheHealth.Message
	}

	return domain.HealthStatus{
		Status:    status,
		Message:   message,
		Details:   details,
		Timestamp: now,
	}
}

// GetStats returns engine statistics including matcher and cache counters
func (e *Engine) GetStats(ctx context.Context) map[string]any {
	cacheStats := e.health.Stats()

	return map[string]any{
		"transforms_total":  atomic.LoadInt64(&e.transforms),
		"passthrough_total": atomic.LoadInt64(&e.passthrough),
		"blocked_total":     atomic.LoadInt64(&e.blocked),
		"matcher":           e.matcher.GetStats(ctx),
		"health_cache": map[string]any{
			"hits":      cacheStats.Hits,
			"misses":    cacheStats.Misses,
			"probes":    cacheStats.Probes,
			"size":      cacheStats.Size,
			"hit_ratio": cacheStats.HitRatio,
		},
	}
}
