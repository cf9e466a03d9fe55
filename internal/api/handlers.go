package api

import (
	"context"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/notemark/clip-relay/internal/autoproc"
	"github.com/notemark/clip-relay/internal/clip"
	"github.com/notemark/clip-relay/internal/domain"
)

// Clipper turns a URL into a stored vault note
type Clipper interface {
	ClipURL(ctx context.Context, rawURL, folder string) (*clip.Result, error)
}

// ScanRunner triggers and reports on auto-process scans
type ScanRunner interface {
	RunOnce(ctx context.Context) (*autoproc.ScanSummary, error)
	Status(ctx context.Context) autoproc.Status
}

// SettingsManager exposes the scalar settings alongside the rule repository
type SettingsManager interface {
	Settings(ctx context.Context) domain.Settings
	UpdateProxyHealthSettings(ctx context.Context, ttlMinutes, timeoutMs int) error
	UpdateAutoProcessing(ctx context.Context, cfg domain.AutoProcessingConfig) error
}

// Handlers contains all HTTP handlers for the clip-relay API
type Handlers struct {
	transformer   domain.URLTransformer
	repository    domain.RuleRepository
	settings      SettingsManager
	clipper       Clipper
	runner        ScanRunner
	validator     domain.Validator
	healthChecker domain.HealthChecker
	startTime     time.Time
}

// NewHandlers creates a new instance of API handlers
func NewHandlers(transformer domain.URLTransformer, repository domain.RuleRepository, settings SettingsManager, clipper Clipper, runner ScanRunner, validator domain.Validator, healthChecker domain.HealthChecker) *Handlers {
	return &Handlers{
		transformer:   transformer,
		repository:    repository,
		settings:      settings,
		clipper:       clipper,
		runner:        runner,
		validator:     validator,
		healthChecker: healthChecker,
		startTime:     time.Now(),
	}
}

// TransformRequest represents the request payload for the transform endpoint
// @Description Request payload for URL transformation
type TransformRequest struct {
	URL string `json:"url" validate:"required,url" example:"https://medium.com/story"`
}

// ClipRequest represents the request payload for the clip endpoint
// @Description Request payload for clipping an article into the vault
type ClipRequest struct {
	URL    string `json:"url" validate:"required,url" example:"https://medium.com/story"`
	Folder string `json:"folder,omitempty" example:"Clippings"`
}

// ErrorResponse represents the standard error response format
// @Description Standard error response format
type ErrorResponse struct {
	Status  string `json:"status" example:"error"`
	Code    string `json:"code" example:"VALIDATION_FAILED"`
	Message string `json:"message" example:"Invalid input provided"`
	Details any    `json:"details,omitempty"`
}

// SuccessResponse represents the standard success response format
// @Description Standard success response format
type SuccessResponse struct {
	Status string `json:"status" example:"success"`
	Data   any    `json:"data"`
}

// RuleListRequest represents the payload for the bulk rule replace endpoint
// @Description Ordered rule list; replaces the stored set wholesale
type RuleListRequest struct {
	Rules []domain.Rule `json:"rules" validate:"required"`
}

// UpdateRuleRequest represents the request payload for updating a rule
// @Description Request payload for updating a rule; omitted fields keep their value
type UpdateRuleRequest struct {
	Name     string   `json:"name,omitempty" example:"Freedium"`
	Enabled  *bool    `json:"enabled,omitempty" example:"true"`
	Matchers []string `json:"matchers,omitempty" example:"*.medium.com,medium.com"`
	Type     string   `json:"transformationType,omitempty" example:"prefix"`
	Template string   `json:"template,omitempty" example:"https://freedium.cfd/{url}"`
	Priority *int     `json:"priority,omitempty" example:"100"`
}

// ProxyHealthSettingsRequest updates the health cache tuning
// @Description Proxy health cache tuning; omitted fields keep their value
type ProxyHealthSettingsRequest struct {
	CacheTTLMinutes *int `json:"proxyHealthCacheTtlMinutes,omitempty" validate:"omitempty,min=1,max=1440" example:"5"`
	TimeoutMs       *int `json:"proxyHealthTimeoutMs,omitempty" validate:"omitempty,min=100,max=60000" example:"5000"`
}

// TransformHandler handles POST /v1/transform requests
// @Summary      Transform a URL through the rule set
// @Description  Resolves the best matching rule, expands its template and reports proxy health. A URL with no matching rule passes through unchanged.
// @Tags         Transform
// @Accept       json
// @Produce      json
// @Param        request body TransformRequest true "URL to transform"
// @Success      200 {object} SuccessResponse{data=domain.TransformResult} "Transformation outcome"
// @Failure      400 {object} ErrorResponse "Invalid request payload"
// @Failure      422 {object} ErrorResponse "Validation failed"
// @Router       /v1/transform [post]
func (h *Handlers) TransformHandler(c *fiber.Ctx) error {
	ctx := c.Context()

	var req TransformRequest
	if err := c.BodyParser(&req); err != nil {
		appErr := domain.NewAppError(
			domain.ErrInvalidInput,
			"Invalid JSON payload",
			400,
			map[string]string{"error": err.Error()},
		).WithContext(ctx, "transform_request_parsing")

		return h.sendError(c, appErr)
	}

	req.URL = strings.TrimSpace(req.URL)
	if err := h.validator.ValidateURL(req.URL); err != nil {
		return h.sendAppError(c, err, "transform_request_validation")
	}

	// Proxy-down is part of the result shape, not an HTTP error: the
	// engine never raises past its boundary.
	result := h.transformer.TransformURL(ctx, req.URL)

	return c.Status(200).JSON(SuccessResponse{
		Status: "success",
		Data:   result,
	})
}

// ClipHandler handles POST /v1/clip requests
// @Summary      Clip an article into the vault
// @Description  Transforms the URL, fetches the article as markdown and stores it as a new note with provenance frontmatter.
// @Tags         Clip
// @Accept       json
// @Produce      json
// @Param        request body ClipRequest true "URL to clip and optional target folder"
// @Success      201 {object} SuccessResponse{data=clip.Result} "Article stored"
// @Failure      400 {object} ErrorResponse "Invalid request payload"
// @Failure      422 {object} ErrorResponse "Validation failed"
// @Failure      502 {object} ErrorResponse "Fetch produced no content"
// @Failure      503 {object} ErrorResponse "Matched proxy is down"
// @Router       /v1/clip [post]
func (h *Handlers) ClipHandler(c *fiber.Ctx) error {
	ctx := c.Context()

	var req ClipRequest
	if err := c.BodyParser(&req); err != nil {
		appErr := domain.NewAppError(
			domain.ErrInvalidInput,
			"Invalid JSON payload",
			400,
			map[string]string{"error": err.Error()},
		).WithContext(ctx, "clip_request_parsing")

		return h.sendError(c, appErr)
	}

	req.URL = strings.TrimSpace(req.URL)
	req.Folder = strings.TrimSpace(req.Folder)

	result, err := h.clipper.ClipURL(ctx, req.URL, req.Folder)
	if err != nil {
		log.Warn().Err(err).Str("url", req.URL).Msg("Clip failed")
		return h.sendAppError(c, err, "clip_url")
	}

	return c.Status(201).JSON(SuccessResponse{
		Status: "success",
		Data:   result,
	})
}

// ListRulesHandler handles GET /v1/rules requests
// @Summary      List all rules
// @Description  Retrieves all transformation rules in their stored order (the equal-priority tie-break order).
// @Tags         Rules
// @Produce      json
// @Success      200 {object} SuccessResponse{data=object{rules=[]domain.Rule,count=int}} "Successfully retrieved rules"
// @Failure      500 {object} ErrorResponse "Internal server error"
// @Router       /v1/rules [get]
func (h *Handlers) ListRulesHandler(c *fiber.Ctx) error {
	ctx := c.Context()

	rules, err := h.repository.ListRules(ctx)
	if err != nil {
		log.Error().Err(err).Msg("Failed to retrieve rules")
		return h.sendAppError(c, err, "list_rules")
	}

	return c.Status(200).JSON(SuccessResponse{
		Status: "success",
		Data: map[string]any{
			"rules": rules,
			"count": len(rules),
		},
	})
}

// CreateRuleHandler handles POST /v1/rules requests
// @Summary      Create a rule
// @Description  Creates a new transformation rule. A missing id is generated.
// @Tags         Rules
// @Accept       json
// @Produce      json
// @Param        rule body domain.Rule true "Rule to create"
// @Success      201 {object} SuccessResponse{data=object{rule=domain.Rule}} "Successfully created rule"
// @Failure      400 {object} ErrorResponse "Invalid request payload"
// @Failure      409 {object} ErrorResponse "Rule id already exists"
// @Failure      422 {object} ErrorResponse "Validation failed"
// @Failure      500 {object} ErrorResponse "Internal server error"
// @Router       /v1/rules [post]
func (h *Handlers) CreateRuleHandler(c *fiber.Ctx) error {
	ctx := c.Context()

	var rule domain.Rule
	if err := c.BodyParser(&rule); err != nil {
		appErr := domain.NewAppError(
			domain.ErrInvalidInput,
			"Invalid JSON payload",
			400,
			map[string]string{"error": err.Error()},
		).WithContext(ctx, "create_rule_parsing")

		return h.sendError(c, appErr)
	}

	rule.ID = strings.TrimSpace(rule.ID)
	rule.Name = strings.TrimSpace(rule.Name)
	rule.Type = strings.TrimSpace(rule.Type)
	rule.Template = strings.TrimSpace(rule.Template)
	for i, m := range rule.Matchers {
		rule.Matchers[i] = strings.TrimSpace(m)
	}

	if rule.ID == "" {
		rule.ID = uuid.New().String()
	}

	if err := h.validator.ValidateRule(&rule); err != nil {
		return h.sendAppError(c, err, "create_rule_validation")
	}

	if err := h.repository.CreateRule(ctx, &rule); err != nil {
		log.Error().Err(err).Str("rule_id", rule.ID).Msg("Failed to create rule")
		return h.sendAppError(c, err, "create_rule")
	}

	return c.Status(201).JSON(SuccessResponse{
		Status: "success",
		Data: map[string]any{
			"rule": rule,
		},
	})
}

// UpdateRuleHandler handles PUT /v1/rules/:id requests
// @Summary      Update a rule
// @Description  Updates an existing rule; omitted fields keep their stored value.
// @Tags         Rules
// @Accept       json
// @Produce      json
// @Param        id path string true "Rule ID"
// @Param        rule body UpdateRuleRequest true "Rule fields to update"
// @Success      200 {object} SuccessResponse{data=object{rule=domain.Rule}} "Successfully updated rule"
// @Failure      400 {object} ErrorResponse "Invalid request payload"
// @Failure      404 {object} ErrorResponse "Rule not found"
// @Failure      422 {object} ErrorResponse "Validation failed"
// @Failure      500 {object} ErrorResponse "Internal server error"
// @Router       /v1/rules/{id} [put]
func (h *Handlers) UpdateRuleHandler(c *fiber.Ctx) error {
	ctx := c.Context()

	ruleID := strings.TrimSpace(c.Params("id"))
	if ruleID == "" {
		return h.sendError(c, domain.NewAppError(
			domain.ErrValidationFailed,
			"Rule ID is required",
			422,
			map[string]string{"field": "id", "reason": "required"},
		))
	}

	existing, err := h.repository.GetRuleByID(ctx, ruleID)
	if err != nil {
		return h.sendAppError(c, err, "update_rule_lookup")
	}

	var req UpdateRuleRequest
	if err := c.BodyParser(&req); err != nil {
		appErr := domain.NewAppError(
			domain.ErrInvalidInput,
			"Invalid JSON payload",
			400,
			map[string]string{"error": err.Error()},
		).WithContext(ctx, "update_rule_parsing")

		return h.sendError(c, appErr)
	}

	// Apply only the provided fields
	if req.Name != "" {
		existing.Name = strings.TrimSpace(req.Name)
	}
	if req.Enabled != nil {
		existing.Enabled = *req.Enabled
	}
	if len(req.Matchers) > 0 {
		matchers := make([]string, len(req.Matchers))
		for i, m := range req.Matchers {
			matchers[i] = strings.TrimSpace(m)
		}
		existing.Matchers = matchers
	}
	if req.Type != "" {
		existing.Type = strings.TrimSpace(req.Type)
	}
	if req.Template != "" {
		existing.Template = strings.TrimSpace(req.Template)
	}
	if req.Priority != nil {
		existing.Priority = *req.Priority
	}

	if err := h.validator.ValidateRule(existing); err != nil {
		return h.sendAppError(c, err, "update_rule_validation")
	}

	if err := h.repository.UpdateRule(ctx, existing); err != nil {
		log.Error().Err(err).Str("rule_id", ruleID).Msg("Failed to update rule")
		return h.sendAppError(c, err, "update_rule")
	}

	return c.Status(200).JSON(SuccessResponse{
		Status: "success",
		Data: map[string]any{
			"rule": existing,
		},
	})
}

// DeleteRuleHandler handles DELETE /v1/rules/:id requests
// @Summary      Delete a rule
// @Description  Deletes a transformation rule by its ID. Deleted built-in rules reappear disabled on the next settings load.
// @Tags         Rules
// @Produce      json
// @Param        id path string true "Rule ID"
// @Success      200 {object} SuccessResponse{data=object{message=string,rule_id=string}} "Successfully deleted rule"
// @Failure      404 {object} ErrorResponse "Rule not found"
// @Failure      422 {object} ErrorResponse "Validation failed"
// @Failure      500 {object} ErrorResponse "Internal server error"
// @Router       /v1/rules/{id} [delete]
func (h *Handlers) DeleteRuleHandler(c *fiber.Ctx) error {
	ctx := c.Context()

	ruleID := strings.TrimSpace(c.Params("id"))
	if ruleID == "" {
		return h.sendError(c, domain.NewAppError(
			domain.ErrValidationFailed,
			"Rule ID is required",
			422,
			map[string]string{"field": "id", "reason": "required"},
		))
	}

	if err := h.repository.DeleteRule(ctx, ruleID); err != nil {
		return h.sendAppError(c, err, "delete_rule")
	}

	return c.Status(200).JSON(SuccessResponse{
		Status: "success",
		Data: map[string]any{
			"message": "Rule deleted successfully",
			"rule_id": ruleID,
		},
	})
}

// ReorderRulesHandler handles PUT /v1/rules requests
// @Summary      Replace the rule set
// @Description  Replaces all rules with the provided ordered list. Order is the tie-break for equal priorities, so this is also the reorder operation.
// @Tags         Rules
// @Accept       json
// @Produce      json
// @Param        rules body RuleListRequest true "Ordered rule list"
// @Success      200 {object} SuccessResponse{data=object{rules=[]domain.Rule,count=int}} "Successfully replaced rules"
// @Failure      400 {object} ErrorResponse "Invalid request payload"
// @Failure      422 {object} ErrorResponse "Validation failed"
// @Failure      500 {object} ErrorResponse "Internal server error"
// @Router       /v1/rules [put]
func (h *Handlers) ReorderRulesHandler(c *fiber.Ctx) error {
	ctx := c.Context()

	var req RuleListRequest
	if err := c.BodyParser(&req); err != nil {
		appErr := domain.NewAppError(
			domain.ErrInvalidInput,
			"Invalid JSON payload",
			400,
			map[string]string{"error": err.Error()},
		).WithContext(ctx, "replace_rules_parsing")

		return h.sendError(c, appErr)
	}

	for i := range req.Rules {
		if err := h.validator.ValidateRule(&req.Rules[i]); err != nil {
			return h.sendAppError(c, err, "replace_rules_validation")
		}
	}

	if err := h.repository.ReplaceRules(ctx, req.Rules); err != nil {
		log.Error().Err(err).Int("count", len(req.Rules)).Msg("Failed to replace rules")
		return h.sendAppError(c, err, "replace_rules")
	}

	return c.Status(200).JSON(SuccessResponse{
		Status: "success",
		Data: map[string]any{
			"rules": req.Rules,
			"count": len(req.Rules),
		},
	})
}

// TestProxiesHandler handles POST /v1/proxies/test requests
// @Summary      Probe all enabled proxies
// @Description  Force-invalidates each enabled rule's origin and re-probes it, returning a rule-name to health map. The only path that intentionally bypasses the health cache.
// @Tags         Proxies
// @Produce      json
// @Success      200 {object} SuccessResponse{data=object{proxies=map[string]bool}} "Per-rule health"
// @Router       /v1/proxies/test [post]
func (h *Handlers) TestProxiesHandler(c *fiber.Ctx) error {
	ctx := c.Context()

	results := h.transformer.TestAllProxies(ctx)

	return c.Status(200).JSON(SuccessResponse{
		Status: "success",
		Data: map[string]any{
			"proxies": results,
			"count":   len(results),
		},
	})
}

// ClearHealthCacheHandler handles DELETE /v1/proxies/cache requests
// @Summary      Clear the proxy health cache
// @Description  Wipes all cached probe results; the next transformation per origin probes fresh.
// @Tags         Proxies
// @Produce      json
// @Success      200 {object} SuccessResponse{data=object{message=string}} "Cache cleared"
// @Router       /v1/proxies/cache [delete]
func (h *Handlers) ClearHealthCacheHandler(c *fiber.Ctx) error {
	h.transformer.ClearHealthCache()

	return c.Status(200).JSON(SuccessResponse{
		Status: "success",
		Data: map[string]any{
			"message": "Proxy health cache cleared",
		},
	})
}

// RunScanHandler handles POST /v1/autoprocess/run requests
// @Summary      Run an auto-process scan now
// @Description  Scans the watched folder immediately. Conflicts when a scan is already in flight.
// @Tags         AutoProcess
// @Produce      json
// @Success      200 {object} SuccessResponse{data=autoproc.ScanSummary} "Scan finished"
// @Failure      409 {object} ErrorResponse "A scan is already running"
// @Router       /v1/autoprocess/run [post]
func (h *Handlers) RunScanHandler(c *fiber.Ctx) error {
	ctx := c.Context()

	summary, err := h.runner.RunOnce(ctx)
	if err != nil {
		return h.sendAppError(c, err, "run_scan")
	}

	return c.Status(200).JSON(SuccessResponse{
		Status: "success",
		Data:   summary,
	})
}

// ScanStatusHandler handles GET /v1/autoprocess/status requests
// @Summary      Auto-process runner status
// @Description  Reports whether a scan is running, the configured folder and the last scan summary.
// @Tags         AutoProcess
// @Produce      json
// @Success      200 {object} SuccessResponse{data=autoproc.Status} "Runner status"
// @Router       /v1/autoprocess/status [get]
func (h *Handlers) ScanStatusHandler(c *fiber.Ctx) error {
	ctx := c.Context()

	return c.Status(200).JSON(SuccessResponse{
		Status: "success",
		Data:   h.runner.Status(ctx),
	})
}

// GetSettingsHandler handles GET /v1/settings requests
// @Summary      Current settings
// @Description  Returns the full settings document: rules, health cache tuning and auto-processing config.
// @Tags         Settings
// @Produce      json
// @Success      200 {object} SuccessResponse{data=domain.Settings} "Current settings"
// @Router       /v1/settings [get]
func (h *Handlers) GetSettingsHandler(c *fiber.Ctx) error {
	ctx := c.Context()

	return c.Status(200).JSON(SuccessResponse{
		Status: "success",
		Data:   h.settings.Settings(ctx),
	})
}

// UpdateProxyHealthSettingsHandler handles PUT /v1/settings/proxy-health requests
// @Summary      Tune the proxy health cache
// @Description  Updates the health cache TTL and probe timeout; omitted fields keep their value.
// @Tags         Settings
// @Accept       json
// @Produce      json
// @Param        settings body ProxyHealthSettingsRequest true "Values to update"
// @Success      200 {object} SuccessResponse{data=domain.Settings} "Updated settings"
// @Failure      400 {object} ErrorResponse "Invalid request payload"
// @Failure      422 {object} ErrorResponse "Validation failed"
// @Failure      500 {object} ErrorResponse "Settings write failed"
// @Router       /v1/settings/proxy-health [put]
func (h *Handlers) UpdateProxyHealthSettingsHandler(c *fiber.Ctx) error {
	ctx := c.Context()

	var req ProxyHealthSettingsRequest
	if err := c.BodyParser(&req); err != nil {
		appErr := domain.NewAppError(
			domain.ErrInvalidInput,
			"Invalid JSON payload",
			400,
			map[string]string{"error": err.Error()},
		).WithContext(ctx, "proxy_health_settings_parsing")

		return h.sendError(c, appErr)
	}

	current := h.settings.Settings(ctx)
	ttl := current.ProxyHealthCacheTTLMinutes
	timeout := current.ProxyHealthTimeoutMs

	if req.CacheTTLMinutes != nil {
		ttl = *req.CacheTTLMinutes
	}
	if req.TimeoutMs != nil {
		timeout = *req.TimeoutMs
	}

	if ttl < 1 || ttl > 1440 {
		return h.sendError(c, domain.NewAppError(
			domain.ErrValidationFailed,
			"Cache TTL must be between 1 and 1440 minutes",
			422,
			map[string]any{"field": "proxyHealthCacheTtlMinutes", "value": ttl},
		))
	}
	if timeout < 100 || timeout > 60000 {
		return h.sendError(c, domain.NewAppError(
			domain.ErrValidationFailed,
			"Probe timeout must be between 100 and 60000 milliseconds",
			422,
			map[string]any{"field": "proxyHealthTimeoutMs", "value": timeout},
		))
	}

	if err := h.settings.UpdateProxyHealthSettings(ctx, ttl, timeout); err != nil {
		log.Error().Err(err).Msg("Failed to update proxy health settings")
		return h.sendAppError(c, err, "update_proxy_health_settings")
	}

	return c.Status(200).JSON(SuccessResponse{
		Status: "success",
		Data:   h.settings.Settings(ctx),
	})
}

// UpdateAutoProcessingHandler handles PUT /v1/settings/auto-processing requests
// @Summary      Configure auto-processing
// @Description  Updates the auto-processing config. The runner is retuned through the settings change notification.
// @Tags         Settings
// @Accept       json
// @Produce      json
// @Param        settings body domain.AutoProcessingConfig true "Auto-processing configuration"
// @Success      200 {object} SuccessResponse{data=domain.Settings} "Updated settings"
// @Failure      400 {object} ErrorResponse "Invalid request payload"
// @Failure      422 {object} ErrorResponse "Validation failed"
// @Failure      500 {object} ErrorResponse "Settings write failed"
// @Router       /v1/settings/auto-processing [put]
func (h *Handlers) UpdateAutoProcessingHandler(c *fiber.Ctx) error {
	ctx := c.Context()

	var cfg domain.AutoProcessingConfig
	if err := c.BodyParser(&cfg); err != nil {
		appErr := domain.NewAppError(
			domain.ErrInvalidInput,
			"Invalid JSON payload",
			400,
			map[string]string{"error": err.Error()},
		).WithContext(ctx, "auto_processing_settings_parsing")

		return h.sendError(c, appErr)
	}

	cfg.FolderPath = strings.TrimSpace(cfg.FolderPath)
	if err := h.validator.ValidateFolder(cfg.FolderPath); err != nil {
		return h.sendAppError(c, err, "auto_processing_folder_validation")
	}
	if cfg.FrequencyMinutes < 1 || cfg.FrequencyMinutes > 1440 {
		return h.sendError(c, domain.NewAppError(
			domain.ErrValidationFailed,
			"Scan frequency must be between 1 and 1440 minutes",
			422,
			map[string]any{"field": "frequencyMinutes", "value": cfg.FrequencyMinutes},
		))
	}
	if cfg.MinContentLengthRatio < 1 {
		return h.sendError(c, domain.NewAppError(
			domain.ErrValidationFailed,
			"Content length ratio must be at least 1",
			422,
			map[string]any{"field": "minContentLengthRatio", "value": cfg.MinContentLengthRatio},
		))
	}

	if err := h.settings.UpdateAutoProcessing(ctx, cfg); err != nil {
		log.Error().Err(err).Msg("Failed to update auto-processing settings")
		return h.sendAppError(c, err, "update_auto_processing_settings")
	}

	return c.Status(200).JSON(SuccessResponse{
		Status: "success",
		Data:   h.settings.Settings(ctx),
	})
}

// HealthHandler handles GET /health requests
// @Summary      Health check
// @Description  Returns the aggregated health of the settings store, transformer and vault.
// @Tags         System
// @Produce      json
// @Success      200 {object} object{status=string,timestamp=string} "Service is healthy"
// @Failure      503 {object} object{status=string,timestamp=string} "Service is degraded or unhealthy"
// @Router       /health [get]
func (h *Handlers) HealthHandler(c *fiber.Ctx) error {
	ctx := c.Context()

	health := h.healthChecker.CheckHealth(ctx)

	status := 200
	if health.Status != domain.HealthStatusHealthy {
		status = 503
	}

	return c.Status(status).JSON(map[string]any{
		"status":     health.Status,
		"timestamp":  health.Timestamp.Format(time.RFC3339),
		"components": health.Components,
		"uptime":     health.Uptime.String(),
	})
}

// MetricsHandler handles GET /metrics requests
// @Summary      System metrics
// @Description  Returns transformer counters, health cache statistics, rule count and runner state.
// @Tags         System
// @Produce      json
// @Success      200 {object} SuccessResponse "Current metrics"
// @Router       /metrics [get]
func (h *Handlers) MetricsHandler(c *fiber.Ctx) error {
	ctx := c.Context()

	rules, err := h.repository.ListRules(ctx)
	ruleCount := 0
	enabledCount := 0
	if err == nil {
		ruleCount = len(rules)
		for _, rule := range rules {
			if rule.Enabled {
				enabledCount++
			}
		}
	}

	return c.Status(200).JSON(SuccessResponse{
		Status: "success",
		Data: map[string]any{
			"transformer": h.transformer.GetStats(ctx),
			"rules": map[string]any{
				"count":   ruleCount,
				"enabled": enabledCount,
			},
			"autoprocess": h.runner.Status(ctx),
			"uptime": map[string]any{
				"seconds":   time.Since(h.startTime).Seconds(),
				"timestamp": time.Now().UTC().Format(time.RFC3339),
			},
		},
	})
}

// sendError sends a standardized error response
func (h *Handlers) sendError(c *fiber.Ctx, appErr *domain.AppError) error {
	return c.Status(appErr.StatusCode).JSON(ErrorResponse{
		Status:  "error",
		Code:    appErr.Code,
		Message: appErr.Message,
		Details: appErr.Details,
	})
}

// sendAppError maps any error to the standard response, treating unknown
// error types as internal failures
func (h *Handlers) sendAppError(c *fiber.Ctx, err error, operation string) error {
	if appErr, ok := err.(*domain.AppError); ok {
		appErr.Operation = operation
		return h.sendError(c, appErr)
	}
	return h.sendError(c, domain.NewAppError(domain.ErrInternal, "Internal server error", 500, nil))
}
