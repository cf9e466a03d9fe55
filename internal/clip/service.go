// Package clip turns a URL into a stored vault note: route through the
// transformation rules, fetch the article as markdown, write a new note
// with its provenance in the frontmatter.
package clip

import (
	"context"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/notemark/clip-relay/internal/domain"
	"github.com/notemark/clip-relay/internal/vault"
)

// Result describes a stored clip
// @Description Outcome of clipping a URL into the vault
type Result struct {
	OriginalURL   string `json:"originalUrl" example:"https://medium.com/story"`
	FetchedVia    string `json:"fetchedVia" example:"https://freedium.cfd/https://medium.com/story"`
	AppliedRule   string `json:"appliedRule,omitempty" example:"Freedium"`
	NotePath      string `json:"notePath" example:"Clippings/story.md"`
	ContentLength int    `json:"contentLength" example:"18244"`
}

// Service wires the clipping pipeline
type Service struct {
	transformer domain.URLTransformer
	fetcher     domain.ContentFetcher
	vault       *vault.Store
	notifier    domain.Notifier
	validator   domain.Validator
}

// NewService creates the clip service
func NewService(transformer domain.URLTransformer, fetcher domain.ContentFetcher, notes *vault.Store, notifier domain.Notifier, validator domain.Validator) *Service {
	return &Service{
		transformer: transformer,
		fetcher:     fetcher,
		vault:       notes,
		notifier:    notifier,
		validator:   validator,
	}
}

// ClipURL fetches the article behind rawURL and stores it as a new note
// under folder. A matched rule whose proxy is down fails the clip with the
// rule's error; the original URL is never fetched in its place.
func (s *Service) ClipURL(ctx context.Context, rawURL, folder string) (*Result, error) {
	if err := s.validator.ValidateURL(rawURL); err != nil {
		return nil, err
	}
	if err := s.validator.ValidateFolder(folder); err != nil {
		return nil, err
	}

	routed := s.transformer.TransformURL(ctx, rawURL)
	if !routed.Usable() {
		s.notifier.Notify(ctx, "Clip failed", routed.Error)
		return nil, domain.NewAppError(
			domain.ErrProxyDown,
			routed.Error,
			503,
			map[string]any{"url": rawURL, "rule": routed.AppliedRule},
		)
	}

	markdown, err := s.fetcher.FetchMarkdown(ctx, routed.TransformedURL)
	if err != nil {
		s.notifier.Notify(ctx, "Clip failed", "Could not fetch "+routed.TransformedURL)
		return nil, err
	}
	if strings.TrimSpace(markdown) == "" {
		s.notifier.Notify(ctx, "Clip failed", "Page produced no content: "+routed.TransformedURL)
		return nil, domain.NewAppError(
			domain.ErrFetchEmpty,
			"Page produced no content",
			502,
			map[string]any{"url": routed.TransformedURL},
		)
	}

	title := titleFrom(markdown, rawURL)
	doc := &vault.Document{
		Path:        path.Join(folder, slugify(title)+".md"),
		Frontmatter: vault.NewFrontmatter(),
		Body:        markdown,
	}
	doc.Frontmatter.SetString("title", title)
	doc.Frontmatter.SetString(vault.KeySource, rawURL)
	doc.Frontmatter.SetString(vault.KeyClipped, time.Now().UTC().Format(time.RFC3339))
	doc.Frontmatter.SetBool(vault.KeyProcessed, true)

	content, err := doc.Render()
	if err != nil {
		return nil, domain.NewAppErrorWithCause(domain.ErrInternal, "Failed to render note", 500, err, nil)
	}

	notePath, err := s.vault.CreateDocument(ctx, doc.Path, content)
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("url", rawURL).
		Str("note", notePath).
		Str("rule", routed.AppliedRule).
		Int("length", len(markdown)).
		Msg("Article clipped")
	s.notifier.Notify(ctx, "Article clipped", notePath)

	return &Result{
		OriginalURL:   rawURL,
		FetchedVia:    routed.TransformedURL,
		AppliedRule:   routed.AppliedRule,
		NotePath:      notePath,
		ContentLength: len(markdown),
	}, nil
}

// titleFrom takes the first markdown heading, falling back to the URL's
// last path segment, then its hostname
func titleFrom(markdown, rawURL string) string {
	for _, line := range strings.Split(markdown, "\n") {
		if title, ok := strings.CutPrefix(strings.TrimSpace(line), "# "); ok {
			if title = strings.TrimSpace(title); title != "" {
				return title
			}
		}
	}

	if parsed, err := url.Parse(rawURL); err == nil {
		if segment := path.Base(parsed.Path); segment != "" && segment != "/" && segment != "." {
			return segment
		}
		if host := parsed.Hostname(); host != "" {
			return host
		}
	}
	return "Clipped Article"
}

// slugify reduces a title to a filesystem-friendly filename stem
func slugify(title string) string {
	var b strings.Builder
	pendingDash := false
	for _, r := range strings.ToLower(title) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			if pendingDash && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingDash = false
			b.WriteRune(r)
		default:
			pendingDash = true
		}
	}

	slug := b.String()
	if len(slug) > 80 {
		slug = strings.TrimRight(slug[:80], "-")
	}
	if slug == "" {
		return "clipped-article"
	}
	return slug
}
