package matcher

import (
	"context"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/notemark/clip-relay/internal/domain"
)

// Matcher holds a snapshot of the rule set and resolves URLs against it
// with thread-safe operations. The snapshot preserves repository order:
// equal-priority matches are broken by first occurrence, so order is part
// of the contract, not an accident of sorting.
type Matcher struct {
	mu         sync.RWMutex
	rules      []domain.Rule
	repository domain.RuleRepository
	loadedAt   time.Time
}

// NewMatcher creates a new Matcher instance
func NewMatcher(repository domain.RuleRepository) *Matcher {
	return &Matcher{
		repository: repository,
		rules:      make([]domain.Rule, 0),
	}
}

// Resolve finds the best matching enabled rule for the given URL.
// Returns nil when no rule applies; malformed URLs match nothing.
func (m *Matcher) Resolve(ctx context.Context, rawURL string) (*domain.Rule, error) {
	select {
	case <-ctx.Done():
		return nil, domain.NewAppErrorWithCause(
			domain.ErrTimeout,
			"Resolve operation cancelled",
			408,
			ctx.Err(),
			map[string]any{"url": rawURL},
		).WithContext(ctx, "resolve")
	default:
	}

	// Read lock only long enough to snapshot the slice
	m.mu.RLock()
	rulesCopy := make([]domain.Rule, len(m.rules))
	copy(rulesCopy, m.rules)
	m.mu.RUnlock()

	return FindMatchingRule(rulesCopy, rawURL), nil
}

// FindMatchingRule filters rules to those matching the URL and returns the
// one with the highest priority. Ties are broken by first occurrence in the
// input order. Returns nil when nothing matches.
func FindMatchingRule(rules []domain.Rule, rawURL string) *domain.Rule {
	host, ok := hostnameOf(rawURL)
	if !ok {
		return nil
	}

	var best *domain.Rule
	for i := range rules {
		rule := &rules[i]
		if !ruleMatchesHost(rule, host) {
			continue
		}
		// Strictly greater keeps the earlier rule on equal priority
		if best == nil || rule.Priority > best.Priority {
			best = rule
		}
	}

	if best == nil {
		return nil
	}
	matched := *best
	matched.Matchers = append([]string(nil), best.Matchers...)
	return &matched
}

// RuleMatches reports whether the rule is enabled and any of its patterns
// matches the URL's hostname.
func RuleMatches(rule *domain.Rule, rawURL string) bool {
	host, ok := hostnameOf(rawURL)
	if !ok {
		return false
	}
	return ruleMatchesHost(rule, host)
}

// PatternMatches reports whether a single matcher pattern applies to the URL.
func PatternMatches(pattern, rawURL string) bool {
	host, ok := hostnameOf(rawURL)
	if !ok {
		return false
	}
	return patternMatchesHost(pattern, host)
}

func ruleMatchesHost(rule *domain.Rule, host string) bool {
	if !rule.Enabled {
		return false
	}
	for _, pattern := range rule.Matchers {
		if patternMatchesHost(pattern, host) {
			return true
		}
	}
	return false
}

// patternMatchesHost implements the three pattern shapes against an
// already-extracted lowercase hostname:
//
//	"*"          any host
//	"*.domain"   host == domain, or host ends with ".domain"
//	anything     exact hostname equality
//
// The subdomain form checks the dot boundary explicitly so that
// "evilmedium.com" never matches "*.medium.com".
func patternMatchesHost(pattern, host string) bool {
	if pattern == domain.MatchAll {
		return true
	}

	pattern = strings.ToLower(pattern)
	if suffix, ok := strings.CutPrefix(pattern, "*."); ok {
		return host == suffix || strings.HasSuffix(host, "."+suffix)
	}

	return host == pattern
}

// hostnameOf extracts the lowercase hostname from a raw URL. Matching fails
// closed: a URL that cannot be parsed, or parses without a host, matches no
// pattern at all.
func hostnameOf(rawURL string) (string, bool) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return "", false
	}
	host := parsed.Hostname()
	if host == "" {
		return "", false
	}
	return strings.ToLower(host), true
}

// LoadRules refreshes the snapshot from the repository
func (m *Matcher) LoadRules(ctx context.Context) error {
	rules, err := m.repository.ListRules(ctx)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.rules = rules
	m.loadedAt = time.Now()

	return nil
}

// Rules returns a copy of the current snapshot in repository order
func (m *Matcher) Rules() []domain.Rule {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rulesCopy := make([]domain.Rule, len(m.rules))
	copy(rulesCopy, m.rules)
	return rulesCopy
}

// HealthCheck performs a health check on the matcher
func (m *Matcher) HealthCheck(ctx context.Context) domain.HealthStatus {
	m.mu.RLock()
	defer m.mu.RUnlock()

	now := time.Now()
	status := "healthy"
	message := "Matcher is operating normally"

	ruleCount := len(m.rules)
	enabledCount := 0
	for _, rule := range m.rules {
		if rule.Enabled {
			enabledCount++
		}
	}

	details := map[string]any{
		"rule_count":    ruleCount,
		"enabled_rules": enabledCount,
		"loaded_at":     m.loadedAt,
	}

	if ruleCount == 0 {
		status = "degraded"
		message = "No rules loaded"
		details["warning"] = "Matcher has no rules to match against"
	} else if enabledCount == 0 {
		status = "degraded"
		message = "All rules disabled"
		details["warning"] = "Every URL will pass through untransformed"
	}

	return domain.HealthStatus{
		Status:    status,
		Message:   message,
		Details:   details,
		Timestamp: now,
	}
}

// GetStats returns matcher statistics
func (m *Matcher) GetStats(ctx context.Context) map[string]any {
	m.mu.RLock()
	defer m.mu.RUnlock()

	enabledCount := 0
	patternShapes := map[string]int{
		"universal": 0,
		"subdomain": 0,
		"exact":     0,
	}

	for _, rule := range m.rules {
		if rule.Enabled {
			enabledCount++
		}
		for _, pattern := range rule.Matchers {
			switch {
			case pattern == domain.MatchAll:
				patternShapes["universal"]++
			case strings.HasPrefix(pattern, "*."):
				patternShapes["subdomain"]++
			default:
				patternShapes["exact"]++
			}
		}
	}

	return map[string]any{
		"rule_count":     len(m.rules),
		"enabled_rules":  enabledCount,
		"pattern_shapes": patternShapes,
		"loaded_at":      m.loadedAt,
	}
}
