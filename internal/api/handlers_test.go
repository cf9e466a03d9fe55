package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/notemark/clip-relay/internal/autoproc"
	"github.com/notemark/clip-relay/internal/clip"
	"github.com/notemark/clip-relay/internal/domain"
)

// MockTransformer is a mock implementation of URLTransformer
type MockTransformer struct {
	mock.Mock
}

func (m *MockTransformer) TransformURL(ctx context.Context, rawURL string) domain.TransformResult {
	args := m.Called(ctx, rawURL)
	return args.Get(0).(domain.TransformResult)
}

func (m *MockTransformer) TestAllProxies(ctx context.Context) map[string]bool {
	args := m.Called(ctx)
	return args.Get(0).(map[string]bool)
}

func (m *MockTransformer) ClearHealthCache() {
	m.Called()
}

func (m *MockTransformer) HealthCheck(ctx context.Context) domain.HealthStatus {
	args := m.Called(ctx)
	return args.Get(0).(domain.HealthStatus)
}

func (m *MockTransformer) GetStats(ctx context.Context) map[string]any {
	args := m.Called(ctx)
	return args.Get(0).(map[string]any)
}

// MockRuleRepository is a mock implementation of RuleRepository
type MockRuleRepository struct {
	mock.Mock
}

func (m *MockRuleRepository) ListRules(ctx context.Context) ([]domain.Rule, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.Rule), args.Error(1)
}

func (m *MockRuleRepository) GetRuleByID(ctx context.Context, id string) (*domain.Rule, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Rule), args.Error(1)
}

func (m *MockRuleRepository) CreateRule(ctx context.Context, rule *domain.Rule) error {
	args := m.Called(ctx, rule)
	return args.Error(0)
}

func (m *MockRuleRepository) UpdateRule(ctx context.Context, rule *domain.Rule) error {
	args := m.Called(ctx, rule)
	return args.Error(0)
}

func (m *MockRuleRepository) DeleteRule(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockRuleRepository) ReplaceRules(ctx context.Context, rules []domain.Rule) error {
	args := m.Called(ctx, rules)
	return args.Error(0)
}

func (m *MockRuleRepository) HealthCheck(ctx context.Context) domain.HealthStatus {
	args := m.Called(ctx)
	return args.Get(0).(domain.HealthStatus)
}

func (m *MockRuleRepository) GetStats(ctx context.Context) map[string]any {
	args := m.Called(ctx)
	return args.Get(0).(map[string]any)
}

// MockSettingsManager is a mock implementation of SettingsManager
type MockSettingsManager struct {
	mock.Mock
}

func (m *MockSettingsManager) Settings(ctx context.Context) domain.Settings {
	args := m.Called(ctx)
	return args.Get(0).(domain.Settings)
}

func (m *MockSettingsManager) UpdateProxyHealthSettings(ctx context.Context, ttlMinutes, timeoutMs int) error {
	args := m.Called(ctx, ttlMinutes, timeoutMs)
	return args.Error(0)
}

func (m *MockSettingsManager) UpdateAutoProcessing(ctx context.Context, cfg domain.AutoProcessingConfig) error {
	args := m.Called(ctx, cfg)
	return args.Error(0)
}

// MockClipper is a mock implementation of Clipper
type MockClipper struct {
	mock.Mock
}

func (m *MockClipper) ClipURL(ctx context.Context, rawURL, folder string) (*clip.Result, error) {
	args := m.Called(ctx, rawURL, folder)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*clip.Result), args.Error(1)
}

// MockScanRunner is a mock implementation of ScanRunner
type MockScanRunner struct {
	mock.Mock
}

func (m *MockScanRunner) RunOnce(ctx context.Context) (*autoproc.ScanSummary, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*autoproc.ScanSummary), args.Error(1)
}

func (m *MockScanRunner) Status(ctx context.Context) autoproc.Status {
	args := m.Called(ctx)
	return args.Get(0).(autoproc.Status)
}

// MockValidator is a mock implementation of Validator
type MockValidator struct {
	mock.Mock
}

func (m *MockValidator) ValidateRule(rule *domain.Rule) error {
	args := m.Called(rule)
	return args.Error(0)
}

func (m *MockValidator) ValidateURL(url string) error {
	args := m.Called(url)
	return args.Error(0)
}

func (m *MockValidator) ValidateFolder(folder string) error {
	args := m.Called(folder)
	return args.Error(0)
}

// MockHealthChecker is a mock implementation of HealthChecker
type MockHealthChecker struct {
	mock.Mock
}

func (m *MockHealthChecker) CheckHealth(ctx context.Context) domain.SystemHealth {
	args := m.Called(ctx)
	return args.Get(0).(domain.SystemHealth)
}

func (m *MockHealthChecker) CheckComponent(ctx context.Context, component string) domain.HealthStatus {
	args := m.Called(ctx, component)
	return args.Get(0).(domain.HealthStatus)
}

// handlerMocks bundles one mock per handler dependency
type handlerMocks struct {
	transformer *MockTransformer
	repo        *MockRuleRepository
	settings    *MockSettingsManager
	clipper     *MockClipper
	runner      *MockScanRunner
	validator   *MockValidator
	health      *MockHealthChecker
}

func newHandlerMocks() *handlerMocks {
	return &handlerMocks{
		transformer: new(MockTransformer),
		repo:        new(MockRuleRepository),
		settings:    new(MockSettingsManager),
		clipper:     new(MockClipper),
		runner:      new(MockScanRunner),
		validator:   new(MockValidator),
		health:      new(MockHealthChecker),
	}
}

func (m *handlerMocks) handlers() *Handlers {
	return NewHandlers(m.transformer, m.repo, m.settings, m.clipper, m.runner, m.validator, m.health)
}

func jsonRequest(method, target string, payload any) *http.Request {
	body, _ := json.Marshal(payload)
	req := httptest.NewRequest(method, target, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func decodeSuccess(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	var response SuccessResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&response))
	require.Equal(t, "success", response.Status)
	data, ok := response.Data.(map[string]any)
	require.True(t, ok)
	return data
}

func decodeError(t *testing.T, resp *http.Response) ErrorResponse {
	t.Helper()
	var response ErrorResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&response))
	require.Equal(t, "error", response.Status)
	return response
}

func TestTransformHandler_Success(t *testing.T) {
	mocks := newHandlerMocks()
	mocks.validator.On("ValidateURL", "https://medium.com/story").Return(nil)
	mocks.transformer.On("TransformURL", mock.Anything, "https://medium.com/story").Return(domain.TransformResult{
		OriginalURL:    "https://medium.com/story",
		TransformedURL: "https://freedium.cfd/https://medium.com/story",
		AppliedRule:    "Freedium",
		ProxyHealthy:   true,
	})

	app := fiber.New()
	app.Post("/v1/transform", mocks.handlers().TransformHandler)

	resp, err := app.Test(jsonRequest("POST", "/v1/transform", TransformRequest{URL: "https://medium.com/story"}))
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)

	data := decodeSuccess(t, resp)
	assert.Equal(t, "https://medium.com/story", data["originalUrl"])
	assert.Equal(t, "https://freedium.cfd/https://medium.com/story", data["transformedUrl"])
	assert.Equal(t, "Freedium", data["appliedRule"])
	assert.Equal(t, true, data["proxyHealthy"])

	mocks.transformer.AssertExpectations(t)
	mocks.validator.AssertExpectations(t)
}

func TestTransformHandler_ProxyDownIsStillAResult(t *testing.T) {
	mocks := newHandlerMocks()
	mocks.validator.On("ValidateURL", mock.AnythingOfType("string")).Return(nil)
	mocks.transformer.On("TransformURL", mock.Anything, mock.AnythingOfType("string")).Return(domain.TransformResult{
		OriginalURL:  "https://medium.com/story",
		AppliedRule:  "Freedium",
		ProxyHealthy: false,
		Error:        "Freedium unavailable",
	})

	app := fiber.New()
	app.Post("/v1/transform", mocks.handlers().TransformHandler)

	resp, err := app.Test(jsonRequest("POST", "/v1/transform", TransformRequest{URL: "https://medium.com/story"}))
	require.NoError(t, err)

	// The engine never raises: a down proxy is a 200 with the error in the body
	assert.Equal(t, 200, resp.StatusCode)

	data := decodeSuccess(t, resp)
	assert.Equal(t, false, data["proxyHealthy"])
	assert.Equal(t, "Freedium unavailable", data["error"])
	assert.NotContains(t, data, "transformedUrl")
}

func TestTransformHandler_BadInput(t *testing.T) {
	mocks := newHandlerMocks()
	mocks.validator.On("ValidateURL", "not-a-url").Return(
		domain.NewAppError(domain.ErrValidationFailed, "Invalid URL format", 422, nil))

	app := fiber.New()
	app.Post("/v1/transform", mocks.handlers().TransformHandler)

	resp, err := app.Test(jsonRequest("POST", "/v1/transform", TransformRequest{URL: "not-a-url"}))
	require.NoError(t, err)
	assert.Equal(t, 422, resp.StatusCode)
	assert.Equal(t, domain.ErrValidationFailed, decodeError(t, resp).Code)

	// Malformed JSON body
	req := httptest.NewRequest("POST", "/v1/transform", bytes.NewReader([]byte("{not json")))
	req.Header.Set("Content-Type", "application/json")
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, 400, resp.StatusCode)
	assert.Equal(t, domain.ErrInvalidInput, decodeError(t, resp).Code)
}

func TestClipHandler_Success(t *testing.T) {
	mocks := newHandlerMocks()
	mocks.clipper.On("ClipURL", mock.Anything, "https://medium.com/story", "Clippings").Return(&clip.Result{
		OriginalURL:   "https://medium.com/story",
		FetchedVia:    "https://freedium.cfd/https://medium.com/story",
		AppliedRule:   "Freedium",
		NotePath:      "Clippings/story.md",
		ContentLength: 2048,
	}, nil)

	app := fiber.New()
	app.Post("/v1/clip", mocks.handlers().ClipHandler)

	resp, err := app.Test(jsonRequest("POST", "/v1/clip", ClipRequest{URL: "https://medium.com/story", Folder: "Clippings"}))
	require.NoError(t, err)
	assert.Equal(t, 201, resp.StatusCode)

	data := decodeSuccess(t, resp)
	assert.Equal(t, "Clippings/story.md", data["notePath"])
	mocks.clipper.AssertExpectations(t)
}

func TestClipHandler_ProxyDown(t *testing.T) {
	mocks := newHandlerMocks()
	mocks.clipper.On("ClipURL", mock.Anything, mock.Anything, mock.Anything).Return(nil,
		domain.NewAppError(domain.ErrProxyDown, "Freedium unavailable", 503, nil))

	app := fiber.New()
	app.Post("/v1/clip", mocks.handlers().ClipHandler)

	resp, err := app.Test(jsonRequest("POST", "/v1/clip", ClipRequest{URL: "https://medium.com/story"}))
	require.NoError(t, err)
	assert.Equal(t, 503, resp.StatusCode)

	errResp := decodeError(t, resp)
	assert.Equal(t, domain.ErrProxyDown, errResp.Code)
	assert.Contains(t, errResp.Message, "Freedium")
}

func TestListRulesHandler(t *testing.T) {
	mocks := newHandlerMocks()
	mocks.repo.On("ListRules", mock.Anything).Return(domain.DefaultRules(), nil)

	app := fiber.New()
	app.Get("/v1/rules", mocks.handlers().ListRulesHandler)

	resp, err := app.Test(httptest.NewRequest("GET", "/v1/rules", nil))
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)

	data := decodeSuccess(t, resp)
	assert.Equal(t, float64(3), data["count"])
	rules, ok := data["rules"].([]any)
	require.True(t, ok)
	assert.Len(t, rules, 3)
}

func TestCreateRuleHandler_GeneratesMissingID(t *testing.T) {
	mocks := newHandlerMocks()
	mocks.validator.On("ValidateRule", mock.AnythingOfType("*domain.Rule")).Return(nil)

	var created domain.Rule
	mocks.repo.On("CreateRule", mock.Anything, mock.AnythingOfType("*domain.Rule")).
		Run(func(args mock.Arguments) {
			created = *args.Get(1).(*domain.Rule)
		}).Return(nil)

	app := fiber.New()
	app.Post("/v1/rules", mocks.handlers().CreateRuleHandler)

	rule := domain.Rule{
		Name:     "  My Proxy  ",
		Matchers: []string{" *.example.com "},
		Type:     "prefix",
		Template: "https://proxy.example/{url}",
		Priority: 50,
	}
	resp, err := app.Test(jsonRequest("POST", "/v1/rules", rule))
	require.NoError(t, err)
	assert.Equal(t, 201, resp.StatusCode)

	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "My Proxy", created.Name)
	assert.Equal(t, []string{"*.example.com"}, created.Matchers)
}

func TestCreateRuleHandler_Conflict(t *testing.T) {
	mocks := newHandlerMocks()
	mocks.validator.On("ValidateRule", mock.AnythingOfType("*domain.Rule")).Return(nil)
	mocks.repo.On("CreateRule", mock.Anything, mock.AnythingOfType("*domain.Rule")).Return(
		domain.NewAppError(domain.ErrConflict, "Rule already exists", 409, nil))

	app := fiber.New()
	app.Post("/v1/rules", mocks.handlers().CreateRuleHandler)

	resp, err := app.Test(jsonRequest("POST", "/v1/rules", domain.DefaultRules()[0]))
	require.NoError(t, err)
	assert.Equal(t, 409, resp.StatusCode)
	assert.Equal(t, domain.ErrConflict, decodeError(t, resp).Code)
}

func TestUpdateRuleHandler_PartialUpdate(t *testing.T) {
	existing := domain.DefaultRules()[0]

	mocks := newHandlerMocks()
	mocks.repo.On("GetRuleByID", mock.Anything, "freedium-medium").Return(&existing, nil)
	mocks.validator.On("ValidateRule", mock.AnythingOfType("*domain.Rule")).Return(nil)

	var updated domain.Rule
	mocks.repo.On("UpdateRule", mock.Anything, mock.AnythingOfType("*domain.Rule")).
		Run(func(args mock.Arguments) {
			updated = *args.Get(1).(*domain.Rule)
		}).Return(nil)

	app := fiber.New()
	app.Put("/v1/rules/:id", mocks.handlers().UpdateRuleHandler)

	enabled := true
	priority := 250
	resp, err := app.Test(jsonRequest("PUT", "/v1/rules/freedium-medium", UpdateRuleRequest{
		Enabled:  &enabled,
		Priority: &priority,
	}))
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)

	// Provided fields changed, the rest kept their stored values
	assert.True(t, updated.Enabled)
	assert.Equal(t, 250, updated.Priority)
	assert.Equal(t, "Freedium", updated.Name)
	assert.Equal(t, "https://freedium.cfd/{url}", updated.Template)
}

func TestUpdateRuleHandler_NotFound(t *testing.T) {
	mocks := newHandlerMocks()
	mocks.repo.On("GetRuleByID", mock.Anything, "ghost").Return(nil,
		domain.NewAppError(domain.ErrNotFound, "Rule not found", 404, nil))

	app := fiber.New()
	app.Put("/v1/rules/:id", mocks.handlers().UpdateRuleHandler)

	resp, err := app.Test(jsonRequest("PUT", "/v1/rules/ghost", UpdateRuleRequest{}))
	require.NoError(t, err)
	assert.Equal(t, 404, resp.StatusCode)
}

func TestDeleteRuleHandler(t *testing.T) {
	mocks := newHandlerMocks()
	mocks.repo.On("DeleteRule", mock.Anything, "freedium-medium").Return(nil)

	app := fiber.New()
	app.Delete("/v1/rules/:id", mocks.handlers().DeleteRuleHandler)

	resp, err := app.Test(httptest.NewRequest("DELETE", "/v1/rules/freedium-medium", nil))
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)

	data := decodeSuccess(t, resp)
	assert.Equal(t, "freedium-medium", data["rule_id"])
	mocks.repo.AssertExpectations(t)
}

func TestDeleteRuleHandler_NotFound(t *testing.T) {
	mocks := newHandlerMocks()
	mocks.repo.On("DeleteRule", mock.Anything, "ghost").Return(
		domain.NewAppError(domain.ErrNotFound, "Rule not found", 404, nil))

	app := fiber.New()
	app.Delete("/v1/rules/:id", mocks.handlers().DeleteRuleHandler)

	resp, err := app.Test(httptest.NewRequest("DELETE", "/v1/rules/ghost", nil))
	require.NoError(t, err)
	assert.Equal(t, 404, resp.StatusCode)
}

func TestReorderRulesHandler(t *testing.T) {
	rules := domain.DefaultRules()
	reordered := []domain.Rule{rules[2], rules[0], rules[1]}

	mocks := newHandlerMocks()
	mocks.validator.On("ValidateRule", mock.AnythingOfType("*domain.Rule")).Return(nil)
	mocks.repo.On("ReplaceRules", mock.Anything, mock.AnythingOfType("[]domain.Rule")).Return(nil)

	app := fiber.New()
	app.Put("/v1/rules", mocks.handlers().ReorderRulesHandler)

	resp, err := app.Test(jsonRequest("PUT", "/v1/rules", RuleListRequest{Rules: reordered}))
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)

	data := decodeSuccess(t, resp)
	assert.Equal(t, float64(3), data["count"])
	mocks.repo.AssertExpectations(t)
}

func TestTestProxiesHandler(t *testing.T) {
	mocks := newHandlerMocks()
	mocks.transformer.On("TestAllProxies", mock.Anything).Return(map[string]bool{
		"Freedium":      true,
		"Archive.today": false,
	})

	app := fiber.New()
	app.Post("/v1/proxies/test", mocks.handlers().TestProxiesHandler)

	resp, err := app.Test(httptest.NewRequest("POST", "/v1/proxies/test", nil))
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)

	data := decodeSuccess(t, resp)
	proxies, ok := data["proxies"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, true, proxies["Freedium"])
	assert.Equal(t, false, proxies["Archive.today"])
}

func TestClearHealthCacheHandler(t *testing.T) {
	mocks := newHandlerMocks()
	mocks.transformer.On("ClearHealthCache").Return()

	app := fiber.New()
	app.Delete("/v1/proxies/cache", mocks.handlers().ClearHealthCacheHandler)

	resp, err := app.Test(httptest.NewRequest("DELETE", "/v1/proxies/cache", nil))
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)
	mocks.transformer.AssertExpectations(t)
}

func TestRunScanHandler(t *testing.T) {
	mocks := newHandlerMocks()
	mocks.runner.On("RunOnce", mock.Anything).Return(&autoproc.ScanSummary{
		Started: time.Now(),
		Scanned: 4,
		Merged:  2,
	}, nil)

	app := fiber.New()
	app.Post("/v1/autoprocess/run", mocks.handlers().RunScanHandler)

	resp, err := app.Test(httptest.NewRequest("POST", "/v1/autoprocess/run", nil))
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)

	data := decodeSuccess(t, resp)
	assert.Equal(t, float64(4), data["scanned"])
	assert.Equal(t, float64(2), data["merged"])
}

func TestRunScanHandler_Conflict(t *testing.T) {
	mocks := newHandlerMocks()
	mocks.runner.On("RunOnce", mock.Anything).Return(nil,
		domain.NewAppError(domain.ErrScanInFlight, "An auto-process scan is already running", 409, nil))

	app := fiber.New()
	app.Post("/v1/autoprocess/run", mocks.handlers().RunScanHandler)

	resp, err := app.Test(httptest.NewRequest("POST", "/v1/autoprocess/run", nil))
	require.NoError(t, err)
	assert.Equal(t, 409, resp.StatusCode)
	assert.Equal(t, domain.ErrScanInFlight, decodeError(t, resp).Code)
}

func TestScanStatusHandler(t *testing.T) {
	mocks := newHandlerMocks()
	mocks.runner.On("Status", mock.Anything).Return(autoproc.Status{
		Enabled:    true,
		Running:    false,
		FolderPath: "Clippings",
		TotalScans: 7,
	})

	app := fiber.New()
	app.Get("/v1/autoprocess/status", mocks.handlers().ScanStatusHandler)

	resp, err := app.Test(httptest.NewRequest("GET", "/v1/autoprocess/status", nil))
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)

	data := decodeSuccess(t, resp)
	assert.Equal(t, true, data["enabled"])
	assert.Equal(t, "Clippings", data["folderPath"])
	assert.Equal(t, float64(7), data["totalScans"])
}

func TestGetSettingsHandler(t *testing.T) {
	mocks := newHandlerMocks()
	mocks.settings.On("Settings", mock.Anything).Return(domain.DefaultSettings())

	app := fiber.New()
	app.Get("/v1/settings", mocks.handlers().GetSettingsHandler)

	resp, err := app.Test(httptest.NewRequest("GET", "/v1/settings", nil))
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)

	data := decodeSuccess(t, resp)
	assert.Equal(t, float64(domain.DefaultProxyHealthCacheTTLMinutes), data["proxyHealthCacheTtlMinutes"])
	assert.Contains(t, data, "rules")
	assert.Contains(t, data, "autoProcessing")
}

func TestUpdateProxyHealthSettingsHandler_PartialKeepsOtherValue(t *testing.T) {
	mocks := newHandlerMocks()
	mocks.settings.On("Settings", mock.Anything).Return(domain.DefaultSettings())
	mocks.settings.On("UpdateProxyHealthSettings", mock.Anything, 15, domain.DefaultProxyHealthTimeoutMs).Return(nil)

	app := fiber.New()
	app.Put("/v1/settings/proxy-health", mocks.handlers().UpdateProxyHealthSettingsHandler)

	ttl := 15
	resp, err := app.Test(jsonRequest("PUT", "/v1/settings/proxy-health", ProxyHealthSettingsRequest{
		CacheTTLMinutes: &ttl,
	}))
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)
	mocks.settings.AssertExpectations(t)
}

func TestUpdateProxyHealthSettingsHandler_RejectsOutOfRange(t *testing.T) {
	mocks := newHandlerMocks()
	mocks.settings.On("Settings", mock.Anything).Return(domain.DefaultSettings())

	app := fiber.New()
	app.Put("/v1/settings/proxy-health", mocks.handlers().UpdateProxyHealthSettingsHandler)

	timeout := 50
	resp, err := app.Test(jsonRequest("PUT", "/v1/settings/proxy-health", ProxyHealthSettingsRequest{
		TimeoutMs: &timeout,
	}))
	require.NoError(t, err)
	assert.Equal(t, 422, resp.StatusCode)
	assert.Equal(t, domain.ErrValidationFailed, decodeError(t, resp).Code)
}

func TestUpdateAutoProcessingHandler(t *testing.T) {
	cfg := domain.AutoProcessingConfig{
		Enabled:               true,
		FolderPath:            "Clippings",
		FrequencyMinutes:      30,
		MinContentLengthRatio: 2.5,
	}

	mocks := newHandlerMocks()
	mocks.validator.On("ValidateFolder", "Clippings").Return(nil)
	mocks.settings.On("UpdateAutoProcessing", mock.Anything, cfg).Return(nil)
	mocks.settings.On("Settings", mock.Anything).Return(domain.DefaultSettings())

	app := fiber.New()
	app.Put("/v1/settings/auto-processing", mocks.handlers().UpdateAutoProcessingHandler)

	resp, err := app.Test(jsonRequest("PUT", "/v1/settings/auto-processing", cfg))
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)
	mocks.settings.AssertExpectations(t)
}

func TestUpdateAutoProcessingHandler_RejectsBadFrequency(t *testing.T) {
	mocks := newHandlerMocks()
	mocks.validator.On("ValidateFolder", mock.AnythingOfType("string")).Return(nil)

	app := fiber.New()
	app.Put("/v1/settings/auto-processing", mocks.handlers().UpdateAutoProcessingHandler)

	resp, err := app.Test(jsonRequest("PUT", "/v1/settings/auto-processing", domain.AutoProcessingConfig{
		FrequencyMinutes:      0,
		MinContentLengthRatio: 2.0,
	}))
	require.NoError(t, err)
	assert.Equal(t, 422, resp.StatusCode)
}

func TestHealthHandler(t *testing.T) {
	mocks := newHandlerMocks()
	mocks.health.On("CheckHealth", mock.Anything).Return(domain.SystemHealth{
		Status: domain.HealthStatusHealthy,
		Components: map[string]domain.HealthStatus{
			"settings":    {Status: domain.HealthStatusHealthy, Timestamp: time.Now()},
			"transformer": {Status: domain.HealthStatusHealthy, Timestamp: time.Now()},
			"vault":       {Status: domain.HealthStatusHealthy, Timestamp: time.Now()},
		},
		Timestamp: time.Now(),
	})

	app := fiber.New()
	app.Get("/health", mocks.handlers().HealthHandler)

	resp, err := app.Test(httptest.NewRequest("GET", "/health", nil))
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)

	var response map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&response))
	assert.Equal(t, "healthy", response["status"])
	assert.Contains(t, response, "timestamp")
	mocks.health.AssertExpectations(t)
}

func TestHealthHandler_Unhealthy(t *testing.T) {
	mocks := newHandlerMocks()
	mocks.health.On("CheckHealth", mock.Anything).Return(domain.SystemHealth{
		Status:    domain.HealthStatusUnhealthy,
		Timestamp: time.Now(),
	})

	app := fiber.New()
	app.Get("/health", mocks.handlers().HealthHandler)

	resp, err := app.Test(httptest.NewRequest("GET", "/health", nil))
	require.NoError(t, err)
	assert.Equal(t, 503, resp.StatusCode)
}

func TestMetricsHandler(t *testing.T) {
	mocks := newHandlerMocks()
	mocks.repo.On("ListRules", mock.Anything).Return(domain.DefaultRules(), nil)
	mocks.transformer.On("GetStats", mock.Anything).Return(map[string]any{
		"transformations": int64(12),
	})
	mocks.runner.On("Status", mock.Anything).Return(autoproc.Status{TotalScans: 2})

	app := fiber.New()
	app.Get("/metrics", mocks.handlers().MetricsHandler)

	resp, err := app.Test(httptest.NewRequest("GET", "/metrics", nil))
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)

	data := decodeSuccess(t, resp)
	assert.Contains(t, data, "transformer")
	assert.Contains(t, data, "rules")
	assert.Contains(t, data, "autoprocess")
	assert.Contains(t, data, "uptime")

	rules, ok := data["rules"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, float64(3), rules["count"])
	assert.Equal(t, float64(0), rules["enabled"])
}

// Feature: github.com/notemark/clip-relay, Property 7: Transform endpoint outcome shapes
func TestProperty_TransformEndpointOutcomeShapes(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("For any URL and proxy health, the endpoint returns 200 and exactly one of transformedUrl/error when a rule applied", prop.ForAll(
		func(rawURL string, healthy bool, ruleName string) bool {
			mocks := newHandlerMocks()
			mocks.validator.On("ValidateURL", rawURL).Return(nil)

			result := domain.TransformResult{OriginalURL: rawURL, AppliedRule: ruleName, ProxyHealthy: healthy}
			if healthy {
				result.TransformedURL = "https://proxy.example/" + rawURL
			} else {
				result.Error = ruleName + " unavailable"
			}
			mocks.transformer.On("TransformURL", mock.Anything, rawURL).Return(result)

			app := fiber.New()
			app.Post("/v1/transform", mocks.handlers().TransformHandler)

			resp, err := app.Test(jsonRequest("POST", "/v1/transform", TransformRequest{URL: rawURL}))
			if err != nil || resp.StatusCode != 200 {
				return false
			}

			var response SuccessResponse
			if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
				return false
			}
			data, ok := response.Data.(map[string]any)
			if !ok {
				return false
			}

			if data["originalUrl"] != rawURL {
				return false
			}

			_, hasTransformed := data["transformedUrl"]
			_, hasError := data["error"]
			return hasTransformed != hasError
		},
		gen.OneConstOf(
			"https://medium.com/story",
			"https://sub.medium.com/a/b?c=1",
			"https://example.org/path",
			"http://news.site.io/article-42",
		),
		gen.Bool(),
		gen.OneConstOf("Freedium", "Archive.today", "12ft Ladder"),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}
