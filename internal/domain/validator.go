package domain

import (
	"fmt"
	"net/url"
	"regexp"
	"slices"
	"strings"
)

// InputValidator implements comprehensive input validation
type InputValidator struct {
	maxTemplateSize int
	allowedSchemes  []string
	// Pre-compiled shape patterns
	idExpr       *regexp.Regexp
	hostnameExpr *regexp.Regexp
}

// NewInputValidator creates a new input validator with default settings
func NewInputValidator() *InputValidator {
	return &InputValidator{
		maxTemplateSize: 2048,
		allowedSchemes:  []string{"http", "https"},
		idExpr:          regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9_-]*$`),
		hostnameExpr:    regexp.MustCompile(`^[a-zA-Z0-9]([a-zA-Z0-9-]*[a-zA-Z0-9])?(\.[a-zA-Z0-9]([a-zA-Z0-9-]*[a-zA-Z0-9])?)*$`),
	}
}

// ValidateRule validates a complete rule structure
func (v *InputValidator) ValidateRule(rule *Rule) error {
	if rule == nil {
		return NewAppError(ErrValidationFailed, "Rule cannot be nil", 422, nil)
	}

	if rule.ID == "" {
		return NewAppError(ErrValidationFailed, "Rule ID is required", 422, map[string]any{"field": "id"})
	}
	if len(rule.ID) > 64 || !v.idExpr.MatchString(rule.ID) {
		return NewAppError(ErrValidationFailed, "Rule ID must be a short alphanumeric slug", 422, map[string]any{
			"field": "id",
			"value": rule.ID,
		})
	}

	if strings.TrimSpace(rule.Name) == "" {
		return NewAppError(ErrValidationFailed, "Rule name is required", 422, map[string]any{"field": "name"})
	}

	if err := v.validateTransformType(rule.Type); err != nil {
		return err
	}

	if len(rule.Matchers) == 0 {
		return NewAppError(ErrValidationFailed, "Rule must have at least one matcher", 422, map[string]any{"field": "matchers"})
	}
	for _, pattern := range rule.Matchers {
		if err := v.validateMatcherPattern(pattern); err != nil {
			return err
		}
	}

	if err := v.validateTemplate(rule.Type, rule.Template); err != nil {
		return err
	}

	if rule.Priority < 0 || rule.Priority > 10000 {
		return NewAppError(ErrValidationFailed, "Priority must be between 0 and 10000", 422, map[string]any{
			"field": "priority",
			"value": rule.Priority,
		})
	}

	return nil
}

// ValidateURL validates a URL for transform and clip requests
func (v *InputValidator) ValidateURL(urlStr string) error {
	if urlStr == "" {
		return NewAppError(ErrValidationFailed, "URL is required", 422, map[string]any{"field": "url"})
	}

	if len(urlStr) > 2048 {
		return NewAppError(ErrValidationFailed, "URL too long (max 2048 characters)", 422, map[string]any{
			"field":      "url",
			"length":     len(urlStr),
			"max_length": 2048,
		})
	}

	parsedURL, err := url.Parse(urlStr)
	if err != nil {
		return NewAppErrorWithCause(ErrValidationFailed, "Invalid URL format", 422, err, map[string]any{"field": "url"})
	}

	if !v.isAllowedScheme(parsedURL.Scheme) {
		return NewAppError(ErrValidationFailed, "Only HTTP and HTTPS URLs are allowed", 422, map[string]any{
			"field":           "url",
			"scheme":          parsedURL.Scheme,
			"allowed_schemes": v.allowedSchemes,
		})
	}

	if parsedURL.Hostname() == "" {
		return NewAppError(ErrValidationFailed, "URL must have a valid host", 422, map[string]any{"field": "url"})
	}

	return nil
}

// ValidateFolder validates a vault-relative folder path for clip targets
func (v *InputValidator) ValidateFolder(folder string) error {
	if folder == "" {
		return nil // Empty folder means the vault root
	}

	if strings.HasPrefix(folder, "/") || strings.HasPrefix(folder, "\\") {
		return NewAppError(ErrValidationFailed, "Folder must be vault-relative", 422, map[string]any{"field": "folder", "value": folder})
	}

	for _, segment := range strings.FieldsFunc(folder, func(r rune) bool { return r == '/' || r == '\\' }) {
		if segment == ".." {
			return NewAppError(ErrValidationFailed, "Folder must not traverse outside the vault", 422, map[string]any{"field": "folder", "value": folder})
		}
	}

	return nil
}

// validateTransformType validates the transformation type
func (v *InputValidator) validateTransformType(transformType string) error {
	allowedTypes := []string{TransformPrefix, TransformPathExtraction}
	if slices.Contains(allowedTypes, transformType) {
		return nil
	}
	return NewAppError(ErrValidationFailed, "Invalid transformation type", 422, map[string]any{
		"field":          "transformationType",
		"value":          transformType,
		"allowed_values": allowedTypes,
	})
}

// validateMatcherPattern validates a single matcher: "*", "*.domain", or an
// exact hostname. Schemes, ports and paths are rejected; matching is
// hostname-based only.
func (v *InputValidator) validateMatcherPattern(pattern string) error {
	if pattern == MatchAll {
		return nil
	}

	if len(pattern) > 253 {
		return NewAppError(ErrValidationFailed, "Matcher pattern too long", 422, map[string]any{
			"field":   "matchers",
			"pattern": pattern,
		})
	}

	host := pattern
	if strings.HasPrefix(pattern, "*.") {
		host = pattern[2:]
	}

	if host == "" || strings.Contains(host, "*") || !v.hostnameExpr.MatchString(host) {
		return NewAppError(ErrValidationFailed, "Matcher must be \"*\", \"*.domain\", or an exact hostname", 422, map[string]any{
			"field":   "matchers",
			"pattern": pattern,
		})
	}

	return nil
}

// validateTemplate validates the template based on transformation type
func (v *InputValidator) validateTemplate(transformType, template string) error {
	if template == "" {
		return NewAppError(ErrValidationFailed, "Template is required", 422, map[string]any{"field": "template"})
	}

	if len(template) > v.maxTemplateSize {
		return NewAppError(ErrValidationFailed, fmt.Sprintf("Template too long (max %d characters)", v.maxTemplateSize), 422, map[string]any{
			"field":      "template",
			"length":     len(template),
			"max_length": v.maxTemplateSize,
		})
	}

	if !strings.HasPrefix(template, "http://") && !strings.HasPrefix(template, "https://") {
		return NewAppError(ErrValidationFailed, "Template must start with http:// or https://", 422, map[string]any{
			"field":    "template",
			"template": template,
		})
	}

	switch transformType {
	case TransformPrefix:
		if !strings.Contains(template, PlaceholderURL) {
			return NewAppError(ErrValidationFailed, "Prefix template must contain the {url} placeholder", 422, map[string]any{
				"field":    "template",
				"template": template,
			})
		}
	case TransformPathExtraction:
		if !strings.Contains(template, PlaceholderURL) &&
			!strings.Contains(template, PlaceholderPath) &&
			!strings.Contains(template, PlaceholderDomain) {
			return NewAppError(ErrValidationFailed, "Path-extraction template must contain {url}, {path} or {domain}", 422, map[string]any{
				"field":    "template",
				"template": template,
			})
		}
	}

	return nil
}

// isAllowedScheme checks if the URL scheme is allowed
func (v *InputValidator) isAllowedScheme(scheme string) bool {
	return slices.Contains(v.allowedSchemes, strings.ToLower(scheme))
}

// NewValidator creates a new input validator instance
func NewValidator() Validator {
	return NewInputValidator()
}
