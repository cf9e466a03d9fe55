package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/notemark/clip-relay/internal/api"
	"github.com/notemark/clip-relay/internal/autoproc"
	"github.com/notemark/clip-relay/internal/clip"
	"github.com/notemark/clip-relay/internal/config"
	"github.com/notemark/clip-relay/internal/domain"
	"github.com/notemark/clip-relay/internal/fetch"
	"github.com/notemark/clip-relay/internal/health"
	"github.com/notemark/clip-relay/internal/matcher"
	"github.com/notemark/clip-relay/internal/notify"
	"github.com/notemark/clip-relay/internal/proxyhealth"
	"github.com/notemark/clip-relay/internal/settings"
	"github.com/notemark/clip-relay/internal/transform"
	"github.com/notemark/clip-relay/internal/vault"

	docs "github.com/notemark/clip-relay/docs"
)

// @title Clip Relay API
// @version 1.0
// @description URL transformation and article clipping relay for note vaults: routes fetches through paywall-proxy front-ends with health-aware caching and merges richer content into thin clippings
// @termsOfService http://swagger.io/terms/

// @contact.name API Support
// @contact.url http://www.swagger.io/support
// @contact.email support@swagger.io

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @BasePath /
// @schemes http https

// @tag.name Transform
// @tag.description URL transformation through the rule set

// @tag.name Clip
// @tag.description Article clipping into the vault

// @tag.name Rules
// @tag.description Rule management operations

// @tag.name Proxies
// @tag.description Proxy health probing and cache control

// @tag.name AutoProcess
// @tag.description Scheduled content merging for thin clippings

// @tag.name Settings
// @tag.description Persisted settings management

// @tag.name System
// @tag.description System health and metrics operations

func main() {
	healthCheck := flag.Bool("health-check", false, "Perform health check and exit")
	flag.Parse()

	if *healthCheck {
		performHealthCheck()
		return
	}

	setupLogger()

	log.Info().Msg("Clip Relay starting...")

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	if err := cfg.EnsureDirectories(); err != nil {
		log.Fatal().Err(err).Msg("Failed to create required directories")
	}

	docs.SwaggerInfo.Host = os.Getenv("DOMAIN")

	logStartupConfig(cfg)

	store := settings.NewStore(cfg.Settings.Path)

	ctx := context.Background()
	if err := store.Load(ctx); err != nil {
		log.Fatal().Err(err).Msg("Failed to load settings")
	}

	notes := vault.NewStore(cfg.Vault.Dir)

	current := store.Settings(ctx)
	healthCache := proxyhealth.NewCache(current.HealthCacheTTL(), current.ProbeTimeout())

	ruleMatcher := matcher.NewMatcher(store)
	if err := ruleMatcher.LoadRules(ctx); err != nil {
		log.Fatal().Err(err).Msg("Failed to load rules into matcher")
	}

	engine := transform.NewEngine(ruleMatcher, healthCache)

	fetchClient := &http.Client{Timeout: cfg.Fetch.Timeout}
	fetcher := fetch.NewContentFetcher(cfg.Fetch.ReaderServiceURL, fetchClient)
	log.Info().Str("fetcher", fetcher.Name()).Msg("Content fetcher selected")

	notifier := notify.NewNotifier(cfg.Notify.WebhookURL)
	validator := domain.NewValidator()

	clipper := clip.NewService(engine, fetcher, notes, notifier, validator)

	runner := autoproc.NewRunner(store, notes, engine, fetcher, notifier)
	runner.Start()

	// Persisted settings changes refresh the matcher snapshot and retune the
	// health cache and the runner. Cached probe results are dropped so edited
	// rules take effect at once.
	store.SetOnChange(func() {
		if err := ruleMatcher.LoadRules(context.Background()); err != nil {
			log.Warn().Err(err).Msg("Failed to reload matcher after settings change")
		}
		updated := store.Settings(context.Background())
		healthCache.SetTTL(updated.HealthCacheTTL())
		healthCache.SetProbeTimeout(updated.ProbeTimeout())
		healthCache.Clear()
		runner.Reconfigure()
	})

	healthChecker := health.NewSystemHealthChecker(store, engine, notes)

	routerConfig := api.RouterConfig{
		CORSOrigins:    cfg.Security.CORSOrigins,
		BodyLimit:      cfg.Server.BodyLimit,
		RateLimitRPS:   100,
		RateLimitBurst: 200,
	}

	result := api.SetupRouter(api.RouterDependencies{
		Transformer:   engine,
		Repository:    store,
		Settings:      store,
		Clipper:       clipper,
		Runner:        runner,
		Validator:     validator,
		HealthChecker: healthChecker,
	}, routerConfig)
	app := result.App

	app.Server().ReadTimeout = cfg.Server.ReadTimeout
	app.Server().WriteTimeout = cfg.Server.WriteTimeout

	setupGracefulShutdown(app, runner, result.Cleanup)

	serverAddr := fmt.Sprintf(":%d", cfg.Server.Port)
	log.Info().
		Int("port", cfg.Server.Port).
		Str("addr", serverAddr).
		Msg("Starting HTTP server")

	if err := app.Listen(serverAddr); err != nil {
		log.Fatal().Err(err).Msg("Failed to start HTTP server")
	}
}

func setupLogger() {
	zerolog.TimeFieldFormat = time.RFC3339

	level := os.Getenv("LOG_LEVEL")
	switch level {
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "warn":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	if os.Getenv("LOG_FORMAT") == "text" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}
}

func logStartupConfig(cfg *config.Config) {
	log.Info().
		Int("server_port", cfg.Server.Port).
		Dur("server_read_timeout", cfg.Server.ReadTimeout).
		Dur("server_write_timeout", cfg.Server.WriteTimeout).
		Int("server_body_limit", cfg.Server.BodyLimit).
		Str("vault_dir", cfg.Vault.Dir).
		Str("settings_path", cfg.Settings.Path).
		Str("reader_service_url", cfg.Fetch.ReaderServiceURL).
		Dur("fetch_timeout", cfg.Fetch.Timeout).
		Bool("notify_webhook", cfg.Notify.WebhookURL != "").
		Strs("security_cors_origins", cfg.Security.CORSOrigins).
		Str("logging_level", cfg.Logging.Level).
		Str("logging_format", cfg.Logging.Format).
		Msg("Configuration loaded successfully")
}

func setupGracefulShutdown(app *fiber.App, runner *autoproc.Runner, cleanup func()) {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-ctx.Done()
		stop()

		log.Info().Msg("Received shutdown signal, initiating graceful shutdown")

		log.Info().Msg("Stopping auto-process runner...")
		runner.Stop()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		log.Info().Msg("Stopping HTTP server...")
		if err := app.ShutdownWithContext(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("Error during HTTP server shutdown")
		}

		cleanup()

		log.Info().Msg("Graceful shutdown completed")
		os.Exit(0)
	}()
}

func performHealthCheck() {
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	client := &http.Client{
		Timeout: 3 * time.Second,
	}

	resp, err := client.Get(fmt.Sprintf("http://localhost:%s/health", port))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Health check failed: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		fmt.Fprintf(os.Stderr, "Health check failed: HTTP %d\n", resp.StatusCode)
		os.Exit(1)
	}

	fmt.Println("Health check passed")
	os.Exit(0)
}
