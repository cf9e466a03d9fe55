package domain

import "context"

// RuleRepository defines the contract for rule storage operations.
// Implementations keep the list ordered: order is the tie-break for
// equal-priority matches, so Replace is how callers reorder.
type RuleRepository interface {
	ListRules(ctx context.Context) ([]Rule, error)
	GetRuleByID(ctx context.Context, id string) (*Rule, error)
	CreateRule(ctx context.Context, rule *Rule) error
	UpdateRule(ctx context.Context, rule *Rule) error
	DeleteRule(ctx context.Context, id string) error
	ReplaceRules(ctx context.Context, rules []Rule) error

	// Health and monitoring
	HealthCheck(ctx context.Context) HealthStatus
	GetStats(ctx context.Context) map[string]any
}

// URLTransformer defines the contract for routing URLs through the rule set
type URLTransformer interface {
	TransformURL(ctx context.Context, rawURL string) TransformResult
	TestAllProxies(ctx context.Context) map[string]bool
	ClearHealthCache()

	// Health and monitoring
	HealthCheck(ctx context.Context) HealthStatus
	GetStats(ctx context.Context) map[string]any
}

// ProxyHealthChecker reports proxy origin health backed by a TTL cache of
// probe results. Probe failures are recorded as unhealthy, never raised.
type ProxyHealthChecker interface {
	CheckProxyHealth(ctx context.Context, origin string, rule *Rule) bool
	TestAll(ctx context.Context, rules []Rule) map[string]bool
	Clear()
	Stats() HealthCacheStats
	HealthCheck(ctx context.Context) HealthStatus
}

// ContentFetcher retrieves article content as markdown. An empty string with
// a nil error means "nothing to merge"; batch flows must not treat it as a
// failure to abort on.
type ContentFetcher interface {
	FetchMarkdown(ctx context.Context, rawURL string) (string, error)
	Name() string
}

// Notifier delivers fire-and-forget user-visible messages
type Notifier interface {
	Notify(ctx context.Context, title, message string)
}

// HealthChecker defines the interface for system health monitoring
type HealthChecker interface {
	CheckHealth(ctx context.Context) SystemHealth
	CheckComponent(ctx context.Context, component string) HealthStatus
}

// Validator defines the interface for input validation
type Validator interface {
	ValidateRule(rule *Rule) error
	ValidateURL(url string) error
	ValidateFolder(folder string) error
}
