package clip

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notemark/clip-relay/internal/domain"
	"github.com/notemark/clip-relay/internal/vault"
)

type stubTransformer struct {
	result *domain.TransformResult
}

func (s *stubTransformer) TransformURL(ctx context.Context, rawURL string) domain.TransformResult {
	if s.result != nil {
		return *s.result
	}
	return domain.TransformResult{OriginalURL: rawURL, TransformedURL: rawURL, ProxyHealthy: true}
}

func (s *stubTransformer) TestAllProxies(ctx context.Context) map[string]bool { return nil }
func (s *stubTransformer) ClearHealthCache()                                  {}

func (s *stubTransformer) HealthCheck(ctx context.Context) domain.HealthStatus {
	return domain.HealthStatus{Status: domain.HealthStatusHealthy, Timestamp: time.Now()}
}

func (s *stubTransformer) GetStats(ctx context.Context) map[string]any { return nil }

type stubFetcher struct {
	markdown string
	err      error
	calls    int
}

func (s *stubFetcher) FetchMarkdown(ctx context.Context, rawURL string) (string, error) {
	s.calls++
	return s.markdown, s.err
}

func (s *stubFetcher) Name() string { return "stub" }

type recordingNotifier struct {
	mu      sync.Mutex
	entries []string
}

func (r *recordingNotifier) Notify(ctx context.Context, title, message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, title+": "+message)
}

func newTestService(t *testing.T, transformer *stubTransformer, fetcher *stubFetcher) (*Service, *vault.Store, *recordingNotifier) {
	t.Helper()
	notes := vault.NewStore(t.TempDir())
	notifier := &recordingNotifier{}
	return NewService(transformer, fetcher, notes, notifier, domain.NewValidator()), notes, notifier
}

func TestService_ClipStoresNote(t *testing.T) {
	fetcher := &stubFetcher{markdown: "# Great Title\n\nArticle body with enough text."}
	service, notes, notifier := newTestService(t, &stubTransformer{}, fetcher)

	result, err := service.ClipURL(context.Background(), "https://medium.com/story", "Clippings")
	require.NoError(t, err)
	assert.Equal(t, "Clippings/great-title.md", result.NotePath)
	assert.Equal(t, "https://medium.com/story", result.OriginalURL)
	assert.Equal(t, "https://medium.com/story", result.FetchedVia)
	assert.Equal(t, len(fetcher.markdown), result.ContentLength)

	doc, err := notes.ReadDocument(context.Background(), result.NotePath)
	require.NoError(t, err)
	assert.True(t, doc.Processed())
	assert.Contains(t, doc.Body, "Article body")

	source, _ := doc.Frontmatter.String(vault.KeySource)
	assert.Equal(t, "https://medium.com/story", source)

	title, _ := doc.Frontmatter.String("title")
	assert.Equal(t, "Great Title", title)

	clipped, _ := doc.Frontmatter.String(vault.KeyClipped)
	_, err = time.Parse(time.RFC3339, clipped)
	assert.NoError(t, err)

	require.Len(t, notifier.entries, 1)
	assert.Equal(t, "Article clipped: Clippings/great-title.md", notifier.entries[0])
}

func TestService_ProxyDownFailsClosed(t *testing.T) {
	transformer := &stubTransformer{result: &domain.TransformResult{
		OriginalURL:  "https://medium.com/story",
		AppliedRule:  "Freedium",
		ProxyHealthy: false,
		Error:        "Freedium unavailable",
	}}
	fetcher := &stubFetcher{markdown: "# Should Never Be Fetched"}
	service, notes, notifier := newTestService(t, transformer, fetcher)

	_, err := service.ClipURL(context.Background(), "https://medium.com/story", "")
	require.Error(t, err)

	appErr, ok := err.(*domain.AppError)
	require.True(t, ok)
	assert.Equal(t, domain.ErrProxyDown, appErr.Code)
	assert.Equal(t, 503, appErr.StatusCode)
	assert.Contains(t, appErr.Message, "Freedium")

	// The original URL must not be fetched as a fallback
	assert.Zero(t, fetcher.calls)

	paths, err := notes.ListMarkdown(context.Background(), "")
	require.NoError(t, err)
	assert.Empty(t, paths)

	require.Len(t, notifier.entries, 1)
	assert.Contains(t, notifier.entries[0], "Clip failed")
}

func TestService_EmptyFetchIsAFailure(t *testing.T) {
	service, _, _ := newTestService(t, &stubTransformer{}, &stubFetcher{markdown: "  \n "})

	_, err := service.ClipURL(context.Background(), "https://medium.com/story", "")
	require.Error(t, err)

	appErr, ok := err.(*domain.AppError)
	require.True(t, ok)
	assert.Equal(t, domain.ErrFetchEmpty, appErr.Code)
}

func TestService_CollidingTitlesGetSuffixes(t *testing.T) {
	fetcher := &stubFetcher{markdown: "# Same Title\n\nBody."}
	service, _, _ := newTestService(t, &stubTransformer{}, fetcher)

	first, err := service.ClipURL(context.Background(), "https://medium.com/one", "")
	require.NoError(t, err)
	assert.Equal(t, "same-title.md", first.NotePath)

	second, err := service.ClipURL(context.Background(), "https://medium.com/two", "")
	require.NoError(t, err)
	assert.Equal(t, "same-title 1.md", second.NotePath)
}

func TestService_RejectsBadInput(t *testing.T) {
	service, _, _ := newTestService(t, &stubTransformer{}, &stubFetcher{markdown: "# T"})

	_, err := service.ClipURL(context.Background(), "ftp://example.com/file", "")
	require.Error(t, err)
	assert.True(t, domain.IsValidationError(err))

	_, err = service.ClipURL(context.Background(), "https://example.com/a", "../outside")
	require.Error(t, err)
	assert.True(t, domain.IsValidationError(err))
}

func TestTitleFrom(t *testing.T) {
	testCases := []struct {
		name     string
		markdown string
		rawURL   string
		expected string
	}{
		{"first heading wins", "intro\n# The Title\n# Second", "https://x.com/a", "The Title"},
		{"heading after blank lines", "\n\n  # Indented Title\nbody", "https://x.com/a", "Indented Title"},
		{"no heading takes path segment", "plain text", "https://x.com/some-post", "some-post"},
		{"root path takes hostname", "plain text", "https://x.com/", "x.com"},
		{"unparseable url", "plain text", "%zz", "Clipped Article"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, titleFrom(tc.markdown, tc.rawURL))
		})
	}
}

func TestSlugify(t *testing.T) {
	testCases := []struct {
		title    string
		expected string
	}{
		{"Hello, World!", "hello-world"},
		{"  --Weird   Spacing--  ", "weird-spacing"},
		{"CAPS and 123", "caps-and-123"},
		{"---", "clipped-article"},
		{"", "clipped-article"},
	}

	for _, tc := range testCases {
		assert.Equal(t, tc.expected, slugify(tc.title), "slugify(%q)", tc.title)
	}

	long := slugify(strings.Repeat("very long title ", 20))
	assert.LessOrEqual(t, len(long), 80)
	assert.NotEmpty(t, long)
}
