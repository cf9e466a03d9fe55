package vault

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/notemark/clip-relay/internal/domain"
)

// Store is a markdown note vault rooted at a directory. All paths are
// vault-relative with forward slashes; anything escaping the root is
// rejected. Writes are atomic and serialized so the scheduled scanner and
// the API cannot interleave a read-modify-write on the same note.
type Store struct {
	mu   sync.Mutex
	root string
}

// NewStore creates a vault store rooted at dir
func NewStore(dir string) *Store {
	return &Store{root: dir}
}

// Root returns the vault root directory
func (s *Store) Root() string {
	return s.root
}

// ReadDocument loads and parses one note
func (s *Store) ReadDocument(ctx context.Context, relPath string) (*Document, error) {
	abs, err := s.resolve(relPath)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(abs)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, domain.NewAppError(
				domain.ErrNotFound,
				"Note not found",
				404,
				map[string]any{"path": relPath},
			)
		}
		return nil, domain.NewAppErrorWithCause(
			domain.ErrVaultIO,
			"Failed to read note",
			500,
			err,
			map[string]any{"path": relPath},
		).WithContext(ctx, "read_document")
	}

	doc, err := ParseDocument(relPath, string(data))
	if err != nil {
		return nil, domain.NewAppErrorWithCause(
			domain.ErrVaultIO,
			"Failed to parse note frontmatter",
			500,
			err,
			map[string]any{"path": relPath},
		).WithContext(ctx, "read_document")
	}
	return doc, nil
}

// WriteDocument renders and writes a note atomically, creating parent
// directories as needed.
func (s *Store) WriteDocument(ctx context.Context, doc *Document) error {
	content, err := doc.Render()
	if err != nil {
		return domain.NewAppErrorWithCause(
			domain.ErrVaultIO,
			"Failed to render note",
			500,
			err,
			map[string]any{"path": doc.Path},
		).WithContext(ctx, "write_document")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writeFile(ctx, doc.Path, content)
}

// AppendToDocument appends content to a note's body, keeping its preamble
// untouched. The note must exist.
func (s *Store) AppendToDocument(ctx context.Context, relPath, content string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.ReadDocument(ctx, relPath)
	if err != nil {
		return err
	}

	doc.Body += content
	rendered, err := doc.Render()
	if err != nil {
		return domain.NewAppErrorWithCause(
			domain.ErrVaultIO,
			"Failed to render note",
			500,
			err,
			map[string]any{"path": relPath},
		).WithContext(ctx, "append_document")
	}
	return s.writeFile(ctx, relPath, rendered)
}

// CreateDocument writes a brand-new note, finding a free "name 1.md",
// "name 2.md" variant when the requested path is taken. Returns the
// vault-relative path actually used.
func (s *Store) CreateDocument(ctx context.Context, relPath, content string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	target := relPath
	for i := 1; ; i++ {
		abs, err := s.resolve(target)
		if err != nil {
			return "", err
		}
		if _, err := os.Stat(abs); os.IsNotExist(err) {
			break
		}
		if i > 100 {
			return "", domain.NewAppError(
				domain.ErrConflict,
				"Too many name collisions for note",
				409,
				map[string]any{"path": relPath},
			)
		}
		ext := filepath.Ext(relPath)
		target = fmt.Sprintf("%s %d%s", strings.TrimSuffix(relPath, ext), i, ext)
	}

	if err := s.writeFile(ctx, target, content); err != nil {
		return "", err
	}
	return target, nil
}

// ListMarkdown walks a vault folder recursively and returns the relative
// paths of all markdown notes in deterministic order. An empty folder means
// the whole vault.
func (s *Store) ListMarkdown(ctx context.Context, folder string) ([]string, error) {
	base, err := s.resolve(folder)
	if err != nil {
		return nil, err
	}

	var paths []string
	err = filepath.WalkDir(base, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.EqualFold(filepath.Ext(path), ".md") {
			return nil
		}
		rel, err := filepath.Rel(s.root, path)
		if err != nil {
			return err
		}
		paths = append(paths, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		if os.IsNotExist(err) {
			return nil, domain.NewAppError(
				domain.ErrNotFound,
				"Vault folder not found",
				404,
				map[string]any{"folder": folder},
			)
		}
		return nil, domain.NewAppErrorWithCause(
			domain.ErrVaultIO,
			"Failed to scan vault folder",
			500,
			err,
			map[string]any{"folder": folder},
		).WithContext(ctx, "list_markdown")
	}

	sort.Strings(paths)
	return paths, nil
}

// writeFile performs the atomic temp-then-rename write. Callers hold s.mu.
func (s *Store) writeFile(ctx context.Context, relPath, content string) error {
	abs, err := s.resolve(relPath)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(abs), 0755); err != nil {
		return domain.NewAppErrorWithCause(
			domain.ErrVaultIO,
			"Failed to create note directory",
			500,
			err,
			map[string]any{"path": relPath},
		).WithContext(ctx, "write_file")
	}

	tmpPath := abs + ".tmp"
	if err := os.WriteFile(tmpPath, []byte(content), 0644); err != nil {
		return domain.NewAppErrorWithCause(
			domain.ErrVaultIO,
			"Failed to write note",
			500,
			err,
			map[string]any{"path": relPath},
		).WithContext(ctx, "write_file")
	}

	if err := os.Rename(tmpPath, abs); err != nil {
		_ = os.Remove(tmpPath)
		return domain.NewAppErrorWithCause(
			domain.ErrVaultIO,
			"Failed to replace note",
			500,
			err,
			map[string]any{"path": relPath},
		).WithContext(ctx, "write_file")
	}

	log.Debug().Str("path", relPath).Int("bytes", len(content)).Msg("Note written")
	return nil
}

// resolve maps a vault-relative path to an absolute one, rejecting escapes
func (s *Store) resolve(relPath string) (string, error) {
	cleaned := filepath.Clean(filepath.FromSlash(relPath))
	if cleaned == "." {
		return s.root, nil
	}
	if filepath.IsAbs(cleaned) || cleaned == ".." || strings.HasPrefix(cleaned, ".."+string(filepath.Separator)) {
		return "", domain.NewAppError(
			domain.ErrValidationFailed,
			"Path escapes the vault",
			422,
			map[string]any{"path": relPath},
		)
	}
	return filepath.Join(s.root, cleaned), nil
}

// HealthCheck performs a health check on the vault
func (s *Store) HealthCheck(ctx context.Context) domain.HealthStatus {
	now := time.Now()

	info, err := os.Stat(s.root)
	if err != nil {
		return domain.HealthStatus{
			Status:    "unhealthy",
			Message:   "Vault root is not accessible",
			Details:   map[string]any{"root": s.root, "error": err.Error()},
			Timestamp: now,
		}
	}
	if !info.IsDir() {
		return domain.HealthStatus{
			Status:    "unhealthy",
			Message:   "Vault root is not a directory",
			Details:   map[string]any{"root": s.root},
			Timestamp: now,
		}
	}

	return domain.HealthStatus{
		Status:    "healthy",
		Message:   "Vault is accessible",
		Details:   map[string]any{"root": s.root},
		Timestamp: now,
	}
}

// GetStats returns vault statistics
func (s *Store) GetStats(ctx context.Context) map[string]any {
	stats := map[string]any{"root": s.root}

	notes, err := s.ListMarkdown(ctx, "")
	if err != nil {
		stats["error"] = err.Error()
		return stats
	}
	stats["note_count"] = len(notes)
	return stats
}
