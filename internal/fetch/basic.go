package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog/log"

	"github.com/notemark/clip-relay/internal/domain"
)

const (
	fetchUserAgent = "github.com/notemark/clip-relay"
	// maxFetchBytes caps how much of a page is read before parsing
	maxFetchBytes = 10 << 20
)

// BasicFetcher downloads a page and distills it into plain markdown. It is
// the always-available baseline: headings, paragraphs, lists, quotes and
// code survive, everything else is dropped.
type BasicFetcher struct {
	client *http.Client
}

// NewBasicFetcher wires an HTTP client; a nil client gets a 30s timeout default
func NewBasicFetcher(client *http.Client) *BasicFetcher {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &BasicFetcher{client: client}
}

// Name identifies the fetcher in logs and status output
func (f *BasicFetcher) Name() string {
	return "basic"
}

// FetchMarkdown downloads the URL and converts the page's main content to
// markdown. An empty result with a nil error means the page had nothing
// worth merging; transport and HTTP failures come back as errors.
func (f *BasicFetcher) FetchMarkdown(ctx context.Context, rawURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", domain.NewAppErrorWithCause(
			domain.ErrInvalidInput,
			"Invalid fetch URL",
			422,
			err,
			map[string]any{"url": rawURL},
		)
	}
	req.Header.Set("User-Agent", fetchUserAgent)
	req.Header.Set("Accept", "text/html")

	resp, err := f.client.Do(req)
	if err != nil {
		return "", domain.NewAppErrorWithCause(
			domain.ErrFetchEmpty,
			"Fetch request failed",
			502,
			err,
			map[string]any{"url": rawURL},
		)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", domain.NewAppError(
			domain.ErrFetchEmpty,
			fmt.Sprintf("Fetch returned status %d", resp.StatusCode),
			502,
			map[string]any{"url": rawURL, "status": resp.StatusCode},
		)
	}

	if ct := resp.Header.Get("Content-Type"); ct != "" && !strings.Contains(ct, "html") {
		log.Debug().Str("url", rawURL).Str("content_type", ct).Msg("Skipping non-HTML content")
		return "", nil
	}

	doc, err := goquery.NewDocumentFromReader(io.LimitReader(resp.Body, maxFetchBytes))
	if err != nil {
		return "", domain.NewAppErrorWithCause(
			domain.ErrFetchEmpty,
			"Failed to parse page",
			502,
			err,
			map[string]any{"url": rawURL},
		)
	}

	markdown := renderDocument(doc)
	log.Debug().Str("url", rawURL).Int("length", len(markdown)).Msg("Page converted to markdown")
	return markdown, nil
}

// renderDocument picks the page's main content container and renders it
func renderDocument(doc *goquery.Document) string {
	doc.Find("script, style, nav, header, footer, aside, noscript, iframe, form, svg").Remove()

	content := doc.Find("article").First()
	if content.Length() == 0 {
		content = doc.Find("main, [role=main]").First()
	}
	if content.Length() == 0 {
		content = doc.Find("body").First()
	}
	if content.Length() == 0 {
		return ""
	}

	var blocks []string
	if title := pageTitle(doc); title != "" {
		blocks = append(blocks, "# "+title)
	}

	content.Find("h1, h2, h3, h4, h5, h6, p, li, blockquote, pre").Each(func(_ int, s *goquery.Selection) {
		// Container elements render their children themselves
		if s.ParentsFiltered("blockquote, pre").Length() > 0 {
			return
		}
		if s.Is("p") && s.ParentsFiltered("li").Length() > 0 {
			return
		}

		block := renderBlock(s)
		if block != "" {
			blocks = append(blocks, block)
		}
	})

	return strings.Join(blocks, "\n\n")
}

// pageTitle prefers og:title over the title tag
func pageTitle(doc *goquery.Document) string {
	if og, ok := doc.Find(`meta[property="og:title"]`).First().Attr("content"); ok {
		if title := strings.TrimSpace(og); title != "" {
			return title
		}
	}
	return strings.TrimSpace(doc.Find("title").First().Text())
}

func renderBlock(s *goquery.Selection) string {
	tag := goquery.NodeName(s)
	switch tag {
	case "h1", "h2", "h3", "h4", "h5", "h6":
		level := int(tag[1] - '0')
		text := strings.TrimSpace(renderInline(s))
		if text == "" {
			return ""
		}
		return strings.Repeat("#", level) + " " + text
	case "p":
		return strings.TrimSpace(renderInline(s))
	case "li":
		text := strings.TrimSpace(renderInline(s))
		if text == "" {
			return ""
		}
		if s.Parent().Is("ol") {
			return fmt.Sprintf("%d. %s", s.Index()+1, text)
		}
		return "- " + text
	case "blockquote":
		text := strings.TrimSpace(renderInline(s))
		if text == "" {
			return ""
		}
		lines := strings.Split(text, "\n")
		for i, line := range lines {
			lines[i] = "> " + strings.TrimSpace(line)
		}
		return strings.Join(lines, "\n")
	case "pre":
		text := strings.Trim(s.Text(), "\n")
		if strings.TrimSpace(text) == "" {
			return ""
		}
		return "```\n" + text + "\n```"
	}
	return ""
}

// renderInline flattens an element's children to markdown text, keeping
// links, emphasis and inline code. Nested lists are skipped here: their
// items render as blocks of their own.
func renderInline(s *goquery.Selection) string {
	var b strings.Builder
	s.Contents().Each(func(_ int, child *goquery.Selection) {
		switch goquery.NodeName(child) {
		case "#text":
			b.WriteString(collapseSpace(child.Text()))
		case "a":
			text := strings.TrimSpace(renderInline(child))
			href, hasHref := child.Attr("href")
			switch {
			case text == "":
			case hasHref && strings.HasPrefix(href, "http"):
				fmt.Fprintf(&b, "[%s](%s)", text, href)
			default:
				b.WriteString(text)
			}
		case "strong", "b":
			if text := strings.TrimSpace(renderInline(child)); text != "" {
				b.WriteString("**" + text + "**")
			}
		case "em", "i":
			if text := strings.TrimSpace(renderInline(child)); text != "" {
				b.WriteString("*" + text + "*")
			}
		case "code":
			if text := strings.TrimSpace(child.Text()); text != "" {
				b.WriteString("`" + text + "`")
			}
		case "br":
			b.WriteString("\n")
		case "ul", "ol", "script", "style":
		default:
			b.WriteString(renderInline(child))
		}
	})
	return b.String()
}

// collapseSpace folds runs of whitespace into single spaces, keeping the
// edges so adjacent inline fragments stay separated
func collapseSpace(text string) string {
	if text == "" {
		return ""
	}
	fields := strings.Fields(text)
	joined := strings.Join(fields, " ")
	if joined == "" {
		// Whitespace-only text still separates words around it
		return " "
	}
	if strings.HasPrefix(text, " ") || strings.HasPrefix(text, "\n") || strings.HasPrefix(text, "\t") {
		joined = " " + joined
	}
	if strings.HasSuffix(text, " ") || strings.HasSuffix(text, "\n") || strings.HasSuffix(text, "\t") {
		joined += " "
	}
	return joined
}
