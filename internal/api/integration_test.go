package api

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/notemark/clip-relay/internal/autoproc"
	"github.com/notemark/clip-relay/internal/clip"
	"github.com/notemark/clip-relay/internal/domain"
)

// TestAPIEndpointsIntegration tests all API endpoints work correctly
func TestAPIEndpointsIntegration(t *testing.T) {
	// Setup mocks
	mocks := newHandlerMocks()

	// Configure mocks for successful operations
	mocks.validator.On("ValidateURL", mock.AnythingOfType("string")).Return(nil)
	mocks.transformer.On("TransformURL", mock.Anything, mock.AnythingOfType("string")).Return(domain.TransformResult{
		OriginalURL:    "https://medium.com/story",
		TransformedURL: "https://freedium.cfd/https://medium.com/story",
		AppliedRule:    "Freedium",
		ProxyHealthy:   true,
	})
	mocks.transformer.On("GetStats", mock.Anything).Return(map[string]any{
		"transformations": int64(0),
	})
	mocks.clipper.On("ClipURL", mock.Anything, mock.AnythingOfType("string"), mock.AnythingOfType("string")).Return(&clip.Result{
		OriginalURL:   "https://medium.com/story",
		FetchedVia:    "https://freedium.cfd/https://medium.com/story",
		AppliedRule:   "Freedium",
		NotePath:      "Clippings/story.md",
		ContentLength: 1024,
	}, nil)
	mocks.repo.On("ListRules", mock.Anything).Return(domain.DefaultRules(), nil)
	mocks.runner.On("Status", mock.Anything).Return(autoproc.Status{
		Enabled:    false,
		FolderPath: "Clippings",
	})
	mocks.settings.On("Settings", mock.Anything).Return(domain.DefaultSettings())
	mocks.health.On("CheckHealth", mock.Anything).Return(domain.SystemHealth{
		Status: domain.HealthStatusHealthy,
		Components: map[string]domain.HealthStatus{
			"settings":    {Status: domain.HealthStatusHealthy, Timestamp: time.Now()},
			"transformer": {Status: domain.HealthStatusHealthy, Timestamp: time.Now()},
			"vault":       {Status: domain.HealthStatusHealthy, Timestamp: time.Now()},
		},
		Timestamp: time.Now(),
	})

	// Create app with longer timeout to avoid timeout issues in tests
	config := RouterConfig{
		CORSOrigins: []string{},
		BodyLimit:   1048576,
	}
	result := SetupRouter(routerDeps(mocks), config)
	defer result.Cleanup()
	app := result.App

	t.Run("Health endpoint", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/health", nil)
		resp, err := app.Test(req, 5000) // 5 second timeout

		assert.NoError(t, err)
		assert.Equal(t, 200, resp.StatusCode)

		var response map[string]interface{}
		err = json.NewDecoder(resp.Body).Decode(&response)
		assert.NoError(t, err)
		assert.Equal(t, "healthy", response["status"])
		assert.Contains(t, response, "timestamp")
	})

	t.Run("Metrics endpoint", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/metrics", nil)
		resp, err := app.Test(req, 5000)

		assert.NoError(t, err)
		assert.Equal(t, 200, resp.StatusCode)

		var response SuccessResponse
		err = json.NewDecoder(resp.Body).Decode(&response)
		assert.NoError(t, err)
		assert.Equal(t, "success", response.Status)

		data, ok := response.Data.(map[string]interface{})
		assert.True(t, ok)
		assert.Contains(t, data, "transformer")
		assert.Contains(t, data, "rules")
		assert.Contains(t, data, "autoprocess")
		assert.Contains(t, data, "uptime")
	})

	t.Run("Transform endpoint", func(t *testing.T) {
		reqBody := TransformRequest{URL: "https://medium.com/story"}
		jsonBody, _ := json.Marshal(reqBody)
		req := httptest.NewRequest("POST", "/v1/transform", bytes.NewReader(jsonBody))
		req.Header.Set("Content-Type", "application/json")

		resp, err := app.Test(req, 5000)

		assert.NoError(t, err)
		assert.Equal(t, 200, resp.StatusCode)

		var response SuccessResponse
		err = json.NewDecoder(resp.Body).Decode(&response)
		assert.NoError(t, err)
		assert.Equal(t, "success", response.Status)

		data, ok := response.Data.(map[string]interface{})
		assert.True(t, ok)
		assert.Equal(t, "https://medium.com/story", data["originalUrl"])
		assert.Contains(t, data, "transformedUrl")
		assert.Equal(t, true, data["proxyHealthy"])
	})

	t.Run("Clip endpoint", func(t *testing.T) {
		reqBody := ClipRequest{URL: "https://medium.com/story", Folder: "Clippings"}
		jsonBody, _ := json.Marshal(reqBody)
		req := httptest.NewRequest("POST", "/v1/clip", bytes.NewReader(jsonBody))
		req.Header.Set("Content-Type", "application/json")

		resp, err := app.Test(req, 5000)

		assert.NoError(t, err)
		assert.Equal(t, 201, resp.StatusCode)

		var response SuccessResponse
		err = json.NewDecoder(resp.Body).Decode(&response)
		assert.NoError(t, err)

		data, ok := response.Data.(map[string]interface{})
		assert.True(t, ok)
		assert.Equal(t, "Clippings/story.md", data["notePath"])
	})

	t.Run("Rules listing endpoint", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/v1/rules", nil)
		resp, err := app.Test(req, 5000)

		assert.NoError(t, err)
		assert.Equal(t, 200, resp.StatusCode)

		var response SuccessResponse
		err = json.NewDecoder(resp.Body).Decode(&response)
		assert.NoError(t, err)
		assert.Equal(t, "success", response.Status)

		data, ok := response.Data.(map[string]interface{})
		assert.True(t, ok)
		assert.Contains(t, data, "rules")
		assert.Contains(t, data, "count")
	})

	t.Run("Autoprocess status endpoint", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/v1/autoprocess/status", nil)
		resp, err := app.Test(req, 5000)

		assert.NoError(t, err)
		assert.Equal(t, 200, resp.StatusCode)

		var response SuccessResponse
		err = json.NewDecoder(resp.Body).Decode(&response)
		assert.NoError(t, err)

		data, ok := response.Data.(map[string]interface{})
		assert.True(t, ok)
		assert.Equal(t, "Clippings", data["folderPath"])
	})

	t.Run("Settings endpoint", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/v1/settings", nil)
		resp, err := app.Test(req, 5000)

		assert.NoError(t, err)
		assert.Equal(t, 200, resp.StatusCode)

		var response SuccessResponse
		err = json.NewDecoder(resp.Body).Decode(&response)
		assert.NoError(t, err)

		data, ok := response.Data.(map[string]interface{})
		assert.True(t, ok)
		assert.Contains(t, data, "rules")
		assert.Contains(t, data, "proxyHealthCacheTtlMinutes")
		assert.Contains(t, data, "autoProcessing")
	})

	t.Run("Security headers are present", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/health", nil)
		resp, err := app.Test(req, 5000)

		assert.NoError(t, err)
		assert.Equal(t, 200, resp.StatusCode)

		// Check for required security headers
		assert.Equal(t, "nosniff", resp.Header.Get("X-Content-Type-Options"))
		assert.Equal(t, "DENY", resp.Header.Get("X-Frame-Options"))
		assert.Equal(t, "1; mode=block", resp.Header.Get("X-XSS-Protection"))
		assert.Contains(t, resp.Header.Get("Strict-Transport-Security"), "max-age=")
		assert.NotEmpty(t, resp.Header.Get("Referrer-Policy"))
		assert.NotEmpty(t, resp.Header.Get("Permissions-Policy"))
	})

	t.Run("Request ID is generated", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/health", nil)
		resp, err := app.Test(req, 5000)

		assert.NoError(t, err)
		assert.Equal(t, 200, resp.StatusCode)

		requestID := resp.Header.Get("X-Request-ID")
		assert.NotEmpty(t, requestID)
		assert.Len(t, requestID, 36)       // UUID format length
		assert.Contains(t, requestID, "-") // UUID contains hyphens
	})

	// Verify mocks were called
	mocks.transformer.AssertExpectations(t)
	mocks.repo.AssertExpectations(t)
	mocks.clipper.AssertExpectations(t)
}

// TestConcurrentRequests tests that the API can handle concurrent requests
func TestConcurrentRequests(t *testing.T) {
	// Setup mocks
	mocks := newHandlerMocks()

	// Configure mocks for concurrent access
	mocks.validator.On("ValidateURL", mock.AnythingOfType("string")).Return(nil)
	mocks.transformer.On("TransformURL", mock.Anything, mock.AnythingOfType("string")).Return(domain.TransformResult{
		OriginalURL:    "https://example.com",
		TransformedURL: "https://example.com",
		ProxyHealthy:   true,
	})

	// Create app
	config := RouterConfig{
		CORSOrigins: []string{},
		BodyLimit:   1048576,
	}
	result := SetupRouter(routerDeps(mocks), config)
	defer result.Cleanup()
	app := result.App

	// Test concurrent requests
	const numRequests = 10
	results := make(chan int, numRequests)

	for i := 0; i < numRequests; i++ {
		go func() {
			reqBody := TransformRequest{URL: "https://example.com"}
			jsonBody, _ := json.Marshal(reqBody)
			req := httptest.NewRequest("POST", "/v1/transform", bytes.NewReader(jsonBody))
			req.Header.Set("Content-Type", "application/json")

			resp, err := app.Test(req, 5000)
			if err != nil {
				results <- 0
				return
			}
			results <- resp.StatusCode
		}()
	}

	// Collect results
	successCount := 0
	for i := 0; i < numRequests; i++ {
		statusCode := <-results
		if statusCode == 200 {
			successCount++
		}
	}

	// All requests should succeed
	assert.Equal(t, numRequests, successCount, "All concurrent requests should succeed")
}

// TestErrorHandling tests error responses
func TestErrorHandling(t *testing.T) {
	// Setup mocks
	mocks := newHandlerMocks()

	// Create app
	config := RouterConfig{
		CORSOrigins: []string{},
		BodyLimit:   1048576,
	}
	result := SetupRouter(routerDeps(mocks), config)
	defer result.Cleanup()
	app := result.App

	t.Run("Invalid JSON returns 400", func(t *testing.T) {
		req := httptest.NewRequest("POST", "/v1/transform", bytes.NewReader([]byte("invalid json")))
		req.Header.Set("Content-Type", "application/json")

		resp, err := app.Test(req, 5000)

		assert.NoError(t, err)
		assert.Equal(t, 400, resp.StatusCode)

		var response ErrorResponse
		err = json.NewDecoder(resp.Body).Decode(&response)
		assert.NoError(t, err)
		assert.Equal(t, "error", response.Status)
		assert.NotEmpty(t, response.Code)
		assert.NotEmpty(t, response.Message)
	})

	t.Run("Missing URL returns 422", func(t *testing.T) {
		// Configure validator to reject empty URL
		mocks.validator.On("ValidateURL", "").Return(domain.NewAppError(domain.ErrValidationFailed, "URL is required", 422, nil))

		reqBody := TransformRequest{URL: ""}
		jsonBody, _ := json.Marshal(reqBody)
		req := httptest.NewRequest("POST", "/v1/transform", bytes.NewReader(jsonBody))
		req.Header.Set("Content-Type", "application/json")

		resp, err := app.Test(req, 5000)

		assert.NoError(t, err)
		assert.Equal(t, 422, resp.StatusCode)

		var response ErrorResponse
		err = json.NewDecoder(resp.Body).Decode(&response)
		assert.NoError(t, err)
		assert.Equal(t, "error", response.Status)
		assert.Equal(t, domain.ErrValidationFailed, response.Code)
	})

	t.Run("Unknown route returns 404", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/v1/nope", nil)
		resp, err := app.Test(req, 5000)

		assert.NoError(t, err)
		assert.Equal(t, 404, resp.StatusCode)
	})
}

// routerDeps wires the shared mocks into router dependencies
func routerDeps(m *handlerMocks) RouterDependencies {
	return RouterDependencies{
		Transformer:   m.transformer,
		Repository:    m.repo,
		Settings:      m.settings,
		Clipper:       m.clipper,
		Runner:        m.runner,
		Validator:     m.validator,
		HealthChecker: m.health,
	}
}
