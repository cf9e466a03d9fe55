package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"time"

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
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		return
	}

	// Work against throwaway state so the benchmark never touches real data
	workDir, err := os.MkdirTemp("", "clip-relay-bench")
	if err != nil {
		fmt.Printf("Failed to create work dir: %v\n", err)
		return
	}
	defer func() { _ = os.RemoveAll(workDir) }()

	// Stand in for the proxy front-ends so health probes stay local
	stubProxy := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer stubProxy.Close()

	// Initialize components
	store := settings.NewStore(filepath.Join(workDir, "settings.json"))
	ctx := context.Background()
	if err := store.Load(ctx); err != nil {
		fmt.Printf("Failed to load settings: %v\n", err)
		return
	}

	notes := vault.NewStore(filepath.Join(workDir, "vault"))
	healthCache := proxyhealth.NewCache(5*time.Minute, 2*time.Second)
	ruleMatcher := matcher.NewMatcher(store)
	engine := transform.NewEngine(ruleMatcher, healthCache)
	fetcher := fetch.NewContentFetcher("", &http.Client{Timeout: 2 * time.Second})
	notifier := notify.NewNotifier("")
	validator := domain.NewValidator()
	clipper := clip.NewService(engine, fetcher, notes, notifier, validator)
	runner := autoproc.NewRunner(store, notes, engine, fetcher, notifier)
	healthChecker := health.NewSystemHealthChecker(store, engine, notes)

	// Create test rules for performance testing
	testRules := []*domain.Rule{
		{
			ID:       "bench-1",
			Name:     "Bench Medium",
			Enabled:  true,
			Matchers: []string{"*.example.com", "example.com"},
			Type:     domain.TransformPrefix,
			Template: stubProxy.URL + "/{url}",
			Priority: 100,
		},
		{
			ID:       "bench-2",
			Name:     "Bench Archive",
			Enabled:  true,
			Matchers: []string{"*"},
			Type:     domain.TransformPrefix,
			Template: stubProxy.URL + "/newest/{url}",
			Priority: 20,
		},
		{
			ID:       "bench-3",
			Name:     "Bench Path",
			Enabled:  true,
			Matchers: []string{"test.com"},
			Type:     domain.TransformPathExtraction,
			Template: stubProxy.URL + "/{domain}{path}",
			Priority: 50,
		},
	}

	// Add test rules
	for _, rule := range testRules {
		if err := store.CreateRule(ctx, rule); err != nil {
			fmt.Printf("Failed to create rule: %v\n", err)
			return
		}
	}
	if err := ruleMatcher.LoadRules(ctx); err != nil {
		fmt.Printf("Failed to load rules into matcher: %v\n", err)
		return
	}

	// Start HTTP server
	routerConfig := api.RouterConfig{
		CORSOrigins: cfg.Security.CORSOrigins,
		BodyLimit:   cfg.Server.BodyLimit,
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
	defer result.Cleanup()

	go func() {
		if err := app.Listen(fmt.Sprintf(":%d", cfg.Server.Port)); err != nil {
			fmt.Printf("Server failed: %v\n", err)
		}
	}()

	// Wait for server to start
	time.Sleep(100 * time.Millisecond)

	// Pre-warm the health cache so steady-state numbers are realistic
	fmt.Printf("Pre-warming health cache...\n")
	client := &http.Client{
		Timeout: 2 * time.Second,
		Transport: &http.Transport{
			MaxIdleConns:        10,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     30 * time.Second,
		},
	}

	testURLs := []string{
		"https://example.com/story-1",
		"https://sub.example.com/story-2",
		"https://test.com/page",
		"https://other.com/page",
	}

	for _, url := range testURLs {
		payload := map[string]string{"url": url}
		jsonPayload, _ := json.Marshal(payload)
		resp, err := client.Post(
			fmt.Sprintf("http://localhost:%d/v1/transform", cfg.Server.Port),
			"application/json",
			bytes.NewBuffer(jsonPayload),
		)
		if err == nil {
			_ = resp.Body.Close()
		}
	}

	// Performance test parameters
	const (
		numConcurrentRequests = 50
		numRequestsPerWorker  = 20
		totalRequests         = numConcurrentRequests * numRequestsPerWorker
	)

	fmt.Printf("Starting performance test with %d concurrent workers, %d requests each (%d total)\n",
		numConcurrentRequests, numRequestsPerWorker, totalRequests)

	// Performance metrics
	var (
		successCount int64
		errorCount   int64
		totalLatency time.Duration
		maxLatency   time.Duration
		minLatency   = time.Hour // Initialize to a large value
		mu           sync.Mutex
	)

	startTime := time.Now()
	var wg sync.WaitGroup

	// Launch concurrent workers
	for i := 0; i < numConcurrentRequests; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()

			client := &http.Client{
				Timeout: 2 * time.Second,
				Transport: &http.Transport{
					MaxIdleConns:        100,
					MaxIdleConnsPerHost: 100,
					IdleConnTimeout:     30 * time.Second,
				},
			}

			for j := 0; j < numRequestsPerWorker; j++ {
				// Select test URL
				url := testURLs[j%len(testURLs)]

				// Create request payload
				payload := map[string]string{"url": url}
				jsonPayload, _ := json.Marshal(payload)

				// Measure request latency
				reqStart := time.Now()

				resp, err := client.Post(
					fmt.Sprintf("http://localhost:%d/v1/transform", cfg.Server.Port),
					"application/json",
					bytes.NewBuffer(jsonPayload),
				)

				latency := time.Since(reqStart)

				mu.Lock()
				if err != nil {
					errorCount++
				} else {
					successCount++
					_ = resp.Body.Close()

					totalLatency += latency
					if latency > maxLatency {
						maxLatency = latency
					}
					if latency < minLatency {
						minLatency = latency
					}
				}
				mu.Unlock()
			}
		}(i)
	}

	// Wait for all workers to complete
	wg.Wait()
	totalTime := time.Since(startTime)

	// Calculate metrics
	avgLatency := time.Duration(0)
	if successCount > 0 {
		avgLatency = totalLatency / time.Duration(successCount)
	}

	requestsPerSecond := float64(totalRequests) / totalTime.Seconds()

	// Print results
	fmt.Printf("\n=== Performance Test Results ===\n")
	fmt.Printf("Total time: %v\n", totalTime)
	fmt.Printf("Total requests: %d\n", totalRequests)
	fmt.Printf("Successful requests: %d\n", successCount)
	fmt.Printf("Failed requests: %d\n", errorCount)
	fmt.Printf("Success rate: %.2f%%\n", float64(successCount)/float64(totalRequests)*100)
	fmt.Printf("Requests per second: %.2f\n", requestsPerSecond)
	fmt.Printf("Average latency: %v\n", avgLatency)
	fmt.Printf("Min latency: %v\n", minLatency)
	fmt.Printf("Max latency: %v\n", maxLatency)

	// Test health cache performance
	fmt.Printf("\n=== Health Cache Performance Test ===\n")
	cacheTestStart := time.Now()

	// Repeat the same-origin transform to measure cached probe results
	cacheClient := &http.Client{
		Timeout: 2 * time.Second,
		Transport: &http.Transport{
			MaxIdleConns:        10,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     30 * time.Second,
		},
	}
	payload := map[string]string{"url": "https://example.com/story-1"}
	jsonPayload, _ := json.Marshal(payload)

	var cacheHitLatencies []time.Duration
	for i := 0; i < 10; i++ {
		reqStart := time.Now()
		resp, err := cacheClient.Post(
			fmt.Sprintf("http://localhost:%d/v1/transform", cfg.Server.Port),
			"application/json",
			bytes.NewBuffer(jsonPayload),
		)
		latency := time.Since(reqStart)

		if err == nil {
			cacheHitLatencies = append(cacheHitLatencies, latency)
			_ = resp.Body.Close()
		}
	}

	if len(cacheHitLatencies) > 0 {
		var totalCacheLatency time.Duration
		for _, lat := range cacheHitLatencies {
			totalCacheLatency += lat
		}
		avgCacheLatency := totalCacheLatency / time.Duration(len(cacheHitLatencies))
		fmt.Printf("Average cached transform latency: %v\n", avgCacheLatency)

		// Cached transforms must not re-probe the proxy origin
		if avgCacheLatency < 5*time.Millisecond {
			fmt.Printf("✓ Cached transforms avoid the probe round-trip\n")
		} else {
			fmt.Printf("✗ Cached transform latency above 5ms threshold\n")
		}
	}

	cacheTestTime := time.Since(cacheTestStart)
	fmt.Printf("Cache test completed in: %v\n", cacheTestTime)

	// Get health cache statistics
	stats := healthCache.Stats()
	fmt.Printf("Health cache hits: %d\n", stats.Hits)
	fmt.Printf("Health cache misses: %d\n", stats.Misses)
	fmt.Printf("Probe rounds: %d\n", stats.Probes)
	if stats.Hits+stats.Misses > 0 {
		hitRate := float64(stats.Hits) / float64(stats.Hits+stats.Misses) * 100
		fmt.Printf("Health cache hit rate: %.2f%%\n", hitRate)
	}

	// Shutdown server
	if err := app.Shutdown(); err != nil {
		fmt.Printf("Server shutdown error: %v\n", err)
	}

	fmt.Printf("\n=== Performance Requirements Check ===\n")
	if requestsPerSecond >= 100 {
		fmt.Printf("✓ Concurrent request handling: %.2f RPS (target: >100)\n", requestsPerSecond)
	} else {
		fmt.Printf("✗ Concurrent request handling: %.2f RPS (target: >100)\n", requestsPerSecond)
	}

	if avgLatency < 10*time.Millisecond {
		fmt.Printf("✓ Average response time: %v (target: <10ms)\n", avgLatency)
	} else {
		fmt.Printf("✗ Average response time: %v (target: <10ms)\n", avgLatency)
	}

	fmt.Printf("Performance test completed successfully\n")
}
