package api

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/swagger"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/notemark/clip-relay/internal/domain"
	"github.com/notemark/clip-relay/internal/middleware"
)

// RouterConfig contains configuration for the HTTP router
type RouterConfig struct {
	CORSOrigins    []string
	BodyLimit      int
	RateLimitRPS   int
	RateLimitBurst int
}

// RouterDependencies contains all dependencies needed by the router
type RouterDependencies struct {
	Transformer   domain.URLTransformer
	Repository    domain.RuleRepository
	Settings      SettingsManager
	Clipper       Clipper
	Runner        ScanRunner
	Validator     domain.Validator
	HealthChecker domain.HealthChecker
}

// RouterResult contains the configured app and cleanup function
type RouterResult struct {
	App     *fiber.App
	Cleanup func()
}

// SetupRouter creates and configures the Fiber app with all routes and middleware
func SetupRouter(deps RouterDependencies, config RouterConfig) *RouterResult {
	app := fiber.New(fiber.Config{
		BodyLimit:    config.BodyLimit,
		ErrorHandler: customErrorHandler,
	})

	handlers := NewHandlers(deps.Transformer, deps.Repository, deps.Settings, deps.Clipper, deps.Runner, deps.Validator, deps.HealthChecker)

	// Middleware pipeline (order is critical)

	// 1. RequestID middleware for UUID generation
	app.Use(requestid.New(requestid.Config{
		Header: "X-Request-ID",
		Generator: func() string {
			return generateUUID()
		},
	}))

	// 2. Structured logging middleware with zerolog
	app.Use(structuredLoggingMiddleware())

	// 3. Panic recovery middleware with stack trace logging
	app.Use(recover.New(recover.Config{
		EnableStackTrace: true,
		StackTraceHandler: func(c *fiber.Ctx, e interface{}) {
			requestID := ""
			if rid, ok := c.Locals("requestid").(string); ok {
				requestID = rid
			}
			log.Error().
				Str("request_id", requestID).
				Interface("panic", e).
				Str("method", c.Method()).
				Str("path", c.Path()).
				Str("ip", c.IP()).
				Msg("Panic recovered")
		},
	}))

	// 4. Security headers middleware
	app.Use(securityHeadersMiddleware())

	// 5. Rate limiting middleware (before CORS to limit all requests)
	var stopRateLimiter func()
	if config.RateLimitRPS > 0 {
		rateLimiter := middleware.NewRateLimiter(config.RateLimitRPS, config.RateLimitBurst)
		stopRateLimiter = rateLimiter.StartCleanupRoutine()
		app.Use(rateLimiter.Middleware())
	}

	// 6. CORS middleware with origin restrictions
	if len(config.CORSOrigins) > 0 {
		app.Use(cors.New(cors.Config{
			AllowOrigins:     strings.Join(config.CORSOrigins, ","),
			AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS",
			AllowHeaders:     "Origin,Content-Type,Accept,Authorization,X-Request-ID",
			AllowCredentials: false,
			MaxAge:           86400, // 24 hours
		}))
	}

	// API routes
	v1 := app.Group("/v1")

	// Transformation and clipping
	v1.Post("/transform", handlers.TransformHandler)
	v1.Post("/clip", handlers.ClipHandler)

	// Rules endpoints
	v1.Get("/rules", handlers.ListRulesHandler)
	v1.Post("/rules", handlers.CreateRuleHandler)
	v1.Put("/rules", handlers.ReorderRulesHandler)
	v1.Put("/rules/:id", handlers.UpdateRuleHandler)
	v1.Delete("/rules/:id", handlers.DeleteRuleHandler)

	// Proxy health endpoints
	v1.Post("/proxies/test", handlers.TestProxiesHandler)
	v1.Delete("/proxies/cache", handlers.ClearHealthCacheHandler)

	// Auto-processing endpoints
	v1.Post("/autoprocess/run", handlers.RunScanHandler)
	v1.Get("/autoprocess/status", handlers.ScanStatusHandler)

	// Settings endpoints
	v1.Get("/settings", handlers.GetSettingsHandler)
	v1.Put("/settings/proxy-health", handlers.UpdateProxyHealthSettingsHandler)
	v1.Put("/settings/auto-processing", handlers.UpdateAutoProcessingHandler)

	// Health and metrics endpoints
	app.Get("/health", handlers.HealthHandler)
	app.Get("/metrics", handlers.MetricsHandler)

	// Swagger documentation endpoint
	app.Get("/swagger/*", swagger.HandlerDefault)

	cleanup := func() {
		if stopRateLimiter != nil {
			stopRateLimiter()
		}
	}

	return &RouterResult{App: app, Cleanup: cleanup}
}

// customErrorHandler handles Fiber framework errors
func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal Server Error"

	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
		message = e.Message
	}

	switch code {
	case fiber.StatusRequestEntityTooLarge:
		return c.Status(413).JSON(ErrorResponse{
			Status:  "error",
			Code:    domain.ErrTooLarge,
			Message: "Request payload too large",
		})
	case fiber.StatusBadRequest:
		return c.Status(400).JSON(ErrorResponse{
			Status:  "error",
			Code:    domain.ErrInvalidInput,
			Message: message,
		})
	default:
		return c.Status(code).JSON(ErrorResponse{
			Status:  "error",
			Code:    domain.ErrInternal,
			Message: message,
		})
	}
}

// generateUUID generates a UUID v4 for request tracking
func generateUUID() string {
	return uuid.New().String()
}

// structuredLoggingMiddleware creates structured JSON logging middleware with zerolog
func structuredLoggingMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		err := c.Next()

		requestID := "unknown"
		if rid, ok := c.Locals("requestid").(string); ok {
			requestID = rid
		}

		latency := time.Since(start)
		status := c.Response().StatusCode()

		logEvent := log.Info()
		if status >= 400 {
			logEvent = log.Error()
		}

		logEvent.
			Str("request_id", requestID).
			Str("method", c.Method()).
			Str("path", c.Path()).
			Int("status", status).
			Dur("latency", latency).
			Str("ip", c.IP()).
			Str("user_agent", c.Get("User-Agent")).
			Int("body_size", len(c.Body())).
			Int("response_size", len(c.Response().Body())).
			Msg("HTTP request processed")

		return err
	}
}

// securityHeadersMiddleware adds security headers (HSTS, XSS protection)
func securityHeadersMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Set("X-Content-Type-Options", "nosniff")
		c.Set("X-Frame-Options", "DENY")
		c.Set("X-XSS-Protection", "1; mode=block")
		c.Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		c.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		c.Set("Permissions-Policy", "geolocation=(), microphone=(), camera=()")

		return c.Next()
	}
}
