package vault

import (
	"fmt"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// Frontmatter keys this service owns. Everything else in a note's preamble
// belongs to the user and is carried through byte-for-byte semantics: key
// order, unknown fields and comments all survive a rewrite.
const (
	KeyProcessed = "article_processed"
	KeySource    = "source"
	KeyURL       = "url"
	KeyClipped   = "clipped"
)

var urlPattern = regexp.MustCompile(`https?://[^\s)\]>"']+`)

// Frontmatter wraps a note's YAML preamble as a live yaml.v3 mapping node so
// edits touch only the keys being set.
type Frontmatter struct {
	node *yaml.Node
}

// NewFrontmatter returns an empty preamble
func NewFrontmatter() *Frontmatter {
	return &Frontmatter{node: &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}}
}

// parseFrontmatter decodes YAML into a mapping-backed Frontmatter
func parseFrontmatter(raw string) (*Frontmatter, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal([]byte(raw), &doc); err != nil {
		return nil, fmt.Errorf("invalid frontmatter: %w", err)
	}

	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return NewFrontmatter(), nil
	}
	mapping := doc.Content[0]
	if mapping.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("frontmatter is not a mapping")
	}
	return &Frontmatter{node: mapping}, nil
}

// String returns the scalar string value for key
func (f *Frontmatter) String(key string) (string, bool) {
	value := f.value(key)
	if value == nil || value.Kind != yaml.ScalarNode {
		return "", false
	}
	return value.Value, true
}

// Bool returns the scalar boolean value for key
func (f *Frontmatter) Bool(key string) (bool, bool) {
	value := f.value(key)
	if value == nil || value.Kind != yaml.ScalarNode {
		return false, false
	}
	var parsed bool
	if err := value.Decode(&parsed); err != nil {
		return false, false
	}
	return parsed, true
}

// Has reports whether key exists at all
func (f *Frontmatter) Has(key string) bool {
	return f.value(key) != nil
}

// SetString sets key to a string scalar, appending the pair when absent
func (f *Frontmatter) SetString(key, val string) {
	f.set(key, &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: val})
}

// SetBool sets key to a boolean scalar, appending the pair when absent
func (f *Frontmatter) SetBool(key string, val bool) {
	f.set(key, &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!bool", Value: fmt.Sprintf("%t", val)})
}

// Len returns the number of keys
func (f *Frontmatter) Len() int {
	if f.node == nil {
		return 0
	}
	return len(f.node.Content) / 2
}

func (f *Frontmatter) value(key string) *yaml.Node {
	if f.node == nil {
		return nil
	}
	content := f.node.Content
	for i := 0; i+1 < len(content); i += 2 {
		if content[i].Value == key {
			return content[i+1]
		}
	}
	return nil
}

func (f *Frontmatter) set(key string, value *yaml.Node) {
	if f.node == nil {
		f.node = &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	}
	content := f.node.Content
	for i := 0; i+1 < len(content); i += 2 {
		if content[i].Value == key {
			// Replace the value node but keep the key node, so comments
			// anchored to the key stay where the user put them
			content[i+1] = value
			return
		}
	}
	f.node.Content = append(f.node.Content,
		&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: key},
		value,
	)
}

// marshal renders the preamble back to YAML without the delimiters
func (f *Frontmatter) marshal() (string, error) {
	if f.node == nil || len(f.node.Content) == 0 {
		return "", nil
	}
	out, err := yaml.Marshal(f.node)
	if err != nil {
		return "", fmt.Errorf("marshal frontmatter: %w", err)
	}
	return string(out), nil
}

// Document is one markdown note: its vault-relative path, parsed preamble
// and body text.
type Document struct {
	Path        string
	Frontmatter *Frontmatter
	Body        string
}

// ParseDocument splits markdown content into frontmatter and body. A note
// without a leading "---" line, or without a closing delimiter, is all body.
func ParseDocument(relPath, content string) (*Document, error) {
	doc := &Document{Path: relPath, Frontmatter: NewFrontmatter(), Body: content}

	rest, ok := strings.CutPrefix(content, "---\n")
	if !ok {
		if rest, ok = strings.CutPrefix(content, "---\r\n"); !ok {
			return doc, nil
		}
	}

	// The closing delimiter is a line holding exactly "---"
	rawEnd := -1
	offset := 0
	for _, line := range strings.SplitAfter(rest, "\n") {
		if strings.TrimRight(line, "\r\n") == "---" {
			rawEnd = offset
			offset += len(line)
			break
		}
		offset += len(line)
	}
	if rawEnd < 0 {
		return doc, nil
	}
	raw := rest[:rawEnd]
	after := rest[offset:]

	fm, err := parseFrontmatter(raw)
	if err != nil {
		return nil, err
	}

	doc.Frontmatter = fm
	doc.Body = after
	return doc, nil
}

// Render reassembles the full markdown content
func (d *Document) Render() (string, error) {
	fm, err := d.Frontmatter.marshal()
	if err != nil {
		return "", err
	}
	if fm == "" {
		return d.Body, nil
	}
	return "---\n" + fm + "---\n" + d.Body, nil
}

// Processed reports whether the note carries article_processed: true.
// Presence with any other value, or absence, both mean unprocessed.
func (d *Document) Processed() bool {
	processed, ok := d.Frontmatter.Bool(KeyProcessed)
	return ok && processed
}

// MarkProcessed stamps the terminal article_processed marker
func (d *Document) MarkProcessed() {
	d.Frontmatter.SetBool(KeyProcessed, true)
}

// SourceURL finds the note's article URL: the source key first, then url,
// then the first http(s) link anywhere in the body. Empty when none exists.
func (d *Document) SourceURL() string {
	if src, ok := d.Frontmatter.String(KeySource); ok && src != "" {
		return src
	}
	if src, ok := d.Frontmatter.String(KeyURL); ok && src != "" {
		return src
	}
	return urlPattern.FindString(d.Body)
}
