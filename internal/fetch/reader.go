package fetch

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/sony/gobreaker/v2"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"github.com/notemark/clip-relay/internal/domain"
)

// ReaderFetcher delegates article extraction to an external reader service
// that returns clean markdown. The service is optional: a circuit breaker
// guards it, and every failure path falls back to the basic fetcher so the
// result is never worse than the baseline.
type ReaderFetcher struct {
	endpoint string
	client   *http.Client
	breaker  *gobreaker.CircuitBreaker[string]
	fallback domain.ContentFetcher
}

// NewReaderFetcher wires the reader endpoint with its fallback fetcher
func NewReaderFetcher(endpoint string, fallback domain.ContentFetcher, client *http.Client) *ReaderFetcher {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}

	settings := gobreaker.Settings{
		Name:        "reader-service",
		MaxRequests: 2,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < 5 {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return failureRatio >= 0.6
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			log.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("Reader service breaker state changed")
		},
	}

	return &ReaderFetcher{
		endpoint: endpoint,
		client:   client,
		breaker:  gobreaker.NewCircuitBreaker[string](settings),
		fallback: fallback,
	}
}

// Name identifies the fetcher in logs and status output
func (f *ReaderFetcher) Name() string {
	return "reader"
}

// FetchMarkdown asks the reader service for the article, falling back to the
// basic fetcher when the service fails, answers empty, or the breaker is open.
func (f *ReaderFetcher) FetchMarkdown(ctx context.Context, rawURL string) (string, error) {
	markdown, err := f.breaker.Execute(func() (string, error) {
		return f.callReader(ctx, rawURL)
	})
	if err != nil {
		log.Debug().
			Err(err).
			Str("url", rawURL).
			Str("fallback", f.fallback.Name()).
			Msg("Reader service unavailable, using fallback")
		return f.fallback.FetchMarkdown(ctx, rawURL)
	}
	if markdown == "" {
		return f.fallback.FetchMarkdown(ctx, rawURL)
	}
	return markdown, nil
}

// callReader performs one reader service round trip
func (f *ReaderFetcher) callReader(ctx context.Context, rawURL string) (string, error) {
	payload := []byte(`{}`)
	payload, _ = sjson.SetBytes(payload, "url", rawURL)
	payload, _ = sjson.SetBytes(payload, "format", "markdown")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, f.endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("build reader request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", fetchUserAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("reader request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("reader returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxFetchBytes))
	if err != nil {
		return "", fmt.Errorf("read reader response: %w", err)
	}

	// Known response shapes, most specific first
	for _, path := range []string{"data.markdown", "markdown", "data.content", "content", "textContent"} {
		if value := gjson.GetBytes(body, path); value.Type == gjson.String && value.String() != "" {
			return value.String(), nil
		}
	}
	return "", nil
}
