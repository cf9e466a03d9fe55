package domain

import "time"

// Transformation types supported by rule templates
const (
	// TransformPrefix substitutes the raw URL into the {url} placeholder
	TransformPrefix = "prefix"
	// TransformPathExtraction additionally exposes {domain} and {path} placeholders
	TransformPathExtraction = "path-extraction"
)

// Template placeholders
const (
	PlaceholderURL    = "{url}"
	PlaceholderPath   = "{path}"
	PlaceholderDomain = "{domain}"
)

// MatchAll is the universal matcher pattern
const MatchAll = "*"

// Rule represents a named, prioritized URL rewrite directive
// @Description URL rewrite rule routing article fetches through a proxy front-end
type Rule struct {
	ID       string   `json:"id" yaml:"id" validate:"required,min=1,max=64" example:"freedium-medium"`
	Name     string   `json:"name" yaml:"name" validate:"required,min=1,max=128" example:"Freedium"`
	Enabled  bool     `json:"enabled" yaml:"enabled" example:"false"`
	Matchers []string `json:"matchers" yaml:"matchers" validate:"required,min=1,dive,min=1,max=253" example:"*.medium.com,medium.com"`
	Type     string   `json:"transformationType" yaml:"transformationType" validate:"required,oneof=prefix path-extraction" example:"prefix" enums:"prefix,path-extraction"`
	Template string   `json:"template" yaml:"template" validate:"required,min=1,max=2048" example:"https://freedium.cfd/{url}"`
	Priority int      `json:"priority" yaml:"priority" validate:"min=0,max=10000" example:"100"`
}

// DefaultRules returns the built-in rule set. IDs are stable: merge-on-load
// appends a default only when its id is absent from the persisted list, so
// user edits and deletions of other rules survive restarts and upgrades.
func DefaultRules() []Rule {
	return []Rule{
		{
			ID:       "freedium-medium",
			Name:     "Freedium",
			Enabled:  false,
			Matchers: []string{"*.medium.com", "medium.com"},
			Type:     TransformPrefix,
			Template: "https://freedium.cfd/{url}",
			Priority: 100,
		},
		{
			ID:       "archive-today",
			Name:     "Archive.today",
			Enabled:  false,
			Matchers: []string{"*"},
			Type:     TransformPrefix,
			Template: "https://archive.ph/newest/{url}",
			Priority: 20,
		},
		{
			ID:       "12ft-ladder",
			Name:     "12ft Ladder",
			Enabled:  false,
			Matchers: []string{"*"},
			Type:     TransformPrefix,
			Template: "https://12ft.io/{url}",
			Priority: 10,
		},
	}
}

// TransformResult is the outcome of routing a single URL through the rule set.
// When a rule matched, exactly one of TransformedURL/Error is set. When no rule
// matched, TransformedURL equals OriginalURL and ProxyHealthy is true: a
// pass-through is a success, not a failure.
// @Description Outcome of a URL transformation
type TransformResult struct {
	OriginalURL    string `json:"originalUrl" example:"https://medium.com/story"`
	TransformedURL string `json:"transformedUrl,omitempty" example:"https://freedium.cfd/https://medium.com/story"`
	AppliedRule    string `json:"appliedRule,omitempty" example:"Freedium"`
	ProxyHealthy   bool   `json:"proxyHealthy" example:"true"`
	Error          string `json:"error,omitempty" example:"Freedium unavailable"`
}

// PassThrough reports whether no rule matched and the URL is usable as-is.
func (r TransformResult) PassThrough() bool {
	return r.AppliedRule == "" && r.TransformedURL == r.OriginalURL
}

// Usable reports whether the caller may fetch: either a healthy transformed
// URL or an untouched pass-through. A zero TransformedURL means "skip and
// surface the error", never "fall back to the original URL".
func (r TransformResult) Usable() bool {
	return r.TransformedURL != ""
}

// HealthCacheStats captures proxy health cache performance counters
type HealthCacheStats struct {
	Hits     int64   `json:"hits"`
	Misses   int64   `json:"misses"`
	Probes   int64   `json:"probes"`
	Size     int     `json:"size"`
	HitRatio float64 `json:"hit_ratio"`
}

// HealthStatus represents the health status of a component
type HealthStatus struct {
	Status    string         `json:"status"` // "healthy", "unhealthy", "degraded"
	Message   string         `json:"message,omitempty"`
	Details   map[string]any `json:"details,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

// Health status constants
const (
	HealthStatusHealthy   = "healthy"
	HealthStatusUnhealthy = "unhealthy"
	HealthStatusDegraded  = "degraded"
)

// SystemHealth represents overall system health
type SystemHealth struct {
	Status     string                  `json:"status"`
	Timestamp  time.Time               `json:"timestamp"`
	Components map[string]HealthStatus `json:"components"`
	Metrics    map[string]any          `json:"metrics,omitempty"`
	Uptime     time.Duration           `json:"uptime"`
}
