package health

import (
	"context"
	"sync"
	"time"

	"github.com/notemark/clip-relay/internal/domain"
)

// Component is anything that reports its own health and stats
type Component interface {
	HealthCheck(ctx context.Context) domain.HealthStatus
	GetStats(ctx context.Context) map[string]any
}

// SystemHealthChecker aggregates component health into one system view
type SystemHealthChecker struct {
	settings    Component
	transformer Component
	vault       Component

	timeout   time.Duration
	startTime time.Time

	// Cached health status to avoid expensive checks on every request
	lastCheck   time.Time
	lastHealth  domain.SystemHealth
	cacheTTL    time.Duration
	healthMutex sync.Mutex
}

// NewSystemHealthChecker creates a new system health checker
func NewSystemHealthChecker(settings, transformer, vault Component) *SystemHealthChecker {
	return &SystemHealthChecker{
		settings:    settings,
		transformer: transformer,
		vault:       vault,
		timeout:     5 * time.Second,
		cacheTTL:    30 * time.Second,
		startTime:   time.Now(),
	}
}

// CheckHealth performs a comprehensive system health check
func (h *SystemHealthChecker) CheckHealth(ctx context.Context) domain.SystemHealth {
	h.healthMutex.Lock()
	defer h.healthMutex.Unlock()

	// Return cached result if still valid
	if time.Since(h.lastCheck) < h.cacheTTL {
		return h.lastHealth
	}

	checkCtx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	now := time.Now()
	components := make(map[string]domain.HealthStatus)
	overallStatus := domain.HealthStatusHealthy

	settingsHealth := h.settings.HealthCheck(checkCtx)
	components["settings"] = settingsHealth
	overallStatus = aggregateStatus(overallStatus, settingsHealth.Status)

	transformerHealth := h.transformer.HealthCheck(checkCtx)
	components["transformer"] = transformerHealth
	overallStatus = aggregateStatus(overallStatus, transformerHealth.Status)

	vaultHealth := h.vault.HealthCheck(checkCtx)
	components["vault"] = vaultHealth
	overallStatus = aggregateStatus(overallStatus, vaultHealth.Status)

	systemHealth := domain.SystemHealth{
		Status:     overallStatus,
		Timestamp:  now,
		Components: components,
		Metrics:    h.collectSystemMetrics(checkCtx),
		Uptime:     time.Since(h.startTime),
	}

	h.lastCheck = now
	h.lastHealth = systemHealth

	return systemHealth
}

// CheckComponent performs a health check on a specific component
func (h *SystemHealthChecker) CheckComponent(ctx context.Context, component string) domain.HealthStatus {
	checkCtx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	switch component {
	case "settings":
		return h.settings.HealthCheck(checkCtx)
	case "transformer":
		return h.transformer.HealthCheck(checkCtx)
	case "vault":
		return h.vault.HealthCheck(checkCtx)
	default:
		return domain.HealthStatus{
			Status:    domain.HealthStatusUnhealthy,
			Message:   "Unknown component",
			Timestamp: time.Now(),
			Details: map[string]any{
				"component": component,
				"error":     "Component not found",
			},
		}
	}
}

// IsHealthy returns true if the system is healthy
func (h *SystemHealthChecker) IsHealthy(ctx context.Context) bool {
	return h.CheckHealth(ctx).Status == domain.HealthStatusHealthy
}

// aggregateStatus keeps the worst status seen so far.
// Priority: unhealthy > degraded > healthy.
func aggregateStatus(current, componentStatus string) string {
	statusPriority := map[string]int{
		domain.HealthStatusHealthy:   0,
		domain.HealthStatusDegraded:  1,
		domain.HealthStatusUnhealthy: 2,
	}

	if statusPriority[componentStatus] > statusPriority[current] {
		return componentStatus
	}
	return current
}

// collectSystemMetrics gathers system-wide metrics
func (h *SystemHealthChecker) collectSystemMetrics(ctx context.Context) map[string]any {
	metrics := make(map[string]any)

	if settingsStats := h.settings.GetStats(ctx); settingsStats != nil {
		metrics["settings"] = settingsStats
	}
	if transformerStats := h.transformer.GetStats(ctx); transformerStats != nil {
		metrics["transformer"] = transformerStats
	}
	if vaultStats := h.vault.GetStats(ctx); vaultStats != nil {
		metrics["vault"] = vaultStats
	}

	metrics["system"] = map[string]any{
		"uptime_seconds": time.Since(h.startTime).Seconds(),
		"timestamp":      time.Now(),
	}

	return metrics
}
