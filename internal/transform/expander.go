package transform

import (
	"net/url"
	"strings"

	"github.com/notemark/clip-relay/internal/domain"
)

// ApplyTransformation expands a rule's template for the given URL. It is
// pure and total: a URL that fails to parse degrades to prefix expansion
// rather than returning an error.
func ApplyTransformation(rawURL string, rule *domain.Rule) string {
	switch rule.Type {
	case domain.TransformPathExtraction:
		return expandPathExtraction(rawURL, rule.Template)
	default:
		return expandPrefix(rawURL, rule.Template)
	}
}

// expandPrefix replaces the first occurrence of {url} with the raw URL
func expandPrefix(rawURL, template string) string {
	return strings.Replace(template, domain.PlaceholderURL, rawURL, 1)
}

// expandPathExtraction substitutes {url}, {path} and {domain}, each at most
// once. {domain} is the hostname; {path} is path plus query plus fragment
// without the leading slash, so the template decides the separator.
func expandPathExtraction(rawURL, template string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Hostname() == "" {
		return expandPrefix(rawURL, template)
	}

	path := strings.TrimPrefix(parsed.EscapedPath(), "/")
	if parsed.RawQuery != "" {
		path += "?" + parsed.RawQuery
	}
	if parsed.Fragment != "" {
		path += "#" + parsed.Fragment
	}

	expanded := strings.Replace(template, domain.PlaceholderURL, rawURL, 1)
	expanded = strings.Replace(expanded, domain.PlaceholderPath, path, 1)
	expanded = strings.Replace(expanded, domain.PlaceholderDomain, parsed.Hostname(), 1)
	return expanded
}

// Origin derives the scheme://hostname origin of a URL. Ports and paths are
// dropped so that all routes through one proxy share a single health entry.
func Origin(rawURL string) (string, bool) {
	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Scheme == "" || parsed.Hostname() == "" {
		return "", false
	}
	return parsed.Scheme + "://" + parsed.Hostname(), true
}
