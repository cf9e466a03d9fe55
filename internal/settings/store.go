package settings

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/notemark/clip-relay/internal/domain"
)

// Store implements the RuleRepository interface backed by a single JSON
// settings document with dual indexing for rules. Mutations persist
// atomically and roll back the in-memory state on write failure; subscribers
// are notified after each successful change so dependents can reconfigure.
type Store struct {
	mu       sync.RWMutex
	path     string
	rules    map[string]*domain.Rule
	ruleList []*domain.Rule
	scalars  scalarSettings

	onChange func()
}

// scalarSettings is the non-rule remainder of the settings document
type scalarSettings struct {
	proxyHealthCacheTTLMinutes int
	proxyHealthTimeoutMs       int
	autoProcessing             domain.AutoProcessingConfig
}

// settingsFile mirrors the persisted JSON shape. Scalars are pointers so a
// missing field can be told apart from an explicit zero and fall back to its
// documented default.
type settingsFile struct {
	Rules                      []domain.Rule          `json:"rules"`
	ProxyHealthCacheTTLMinutes *int                   `json:"proxyHealthCacheTtlMinutes"`
	ProxyHealthTimeoutMs       *int                   `json:"proxyHealthTimeoutMs"`
	AutoProcessing             *autoProcessingSection `json:"autoProcessing"`
}

type autoProcessingSection struct {
	Enabled               *bool    `json:"enabled"`
	FolderPath            *string  `json:"folderPath"`
	FrequencyMinutes      *int     `json:"frequencyMinutes"`
	MinContentLengthRatio *float64 `json:"minContentLengthRatio"`
}

// NewStore creates a settings store persisting to the given file path
func NewStore(path string) *Store {
	return &Store{
		path:     path,
		rules:    make(map[string]*domain.Rule),
		ruleList: make([]*domain.Rule, 0),
	}
}

// SetOnChange registers a callback fired after every persisted mutation.
// Load does not fire it: subscribers wire up after the initial load.
func (s *Store) SetOnChange(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onChange = fn
}

// Load reads the settings document, applying defaults for missing fields and
// appending any built-in default rule whose id is absent. Existing ids are
// never overwritten: user edits win over shipped defaults.
func (s *Store) Load(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	select {
	case <-ctx.Done():
		return domain.NewAppErrorWithCause(
			domain.ErrTimeout,
			"Load cancelled",
			408,
			ctx.Err(),
			map[string]any{"operation": "load"},
		)
	default:
	}

	var file settingsFile
	data, err := os.ReadFile(s.path)
	switch {
	case os.IsNotExist(err):
		log.Info().Str("path", s.path).Msg("No settings file, starting from defaults")
	case err != nil:
		return domain.NewAppErrorWithCause(
			domain.ErrSettingsIO,
			"Failed to read settings file",
			500,
			err,
			map[string]any{"path": s.path},
		).WithContext(ctx, "load")
	default:
		if err := json.Unmarshal(data, &file); err != nil {
			return domain.NewAppErrorWithCause(
				domain.ErrSettingsIO,
				"Failed to parse settings file",
				500,
				err,
				map[string]any{"path": s.path},
			).WithContext(ctx, "load")
		}
	}

	merged := mergeDefaults(file)

	s.rules = make(map[string]*domain.Rule, len(merged.Rules))
	s.ruleList = make([]*domain.Rule, 0, len(merged.Rules))
	for i := range merged.Rules {
		ruleCopy := merged.Rules[i]
		ruleCopy.Matchers = append([]string(nil), ruleCopy.Matchers...)
		s.rules[ruleCopy.ID] = &ruleCopy
		s.ruleList = append(s.ruleList, &ruleCopy)
	}
	s.scalars = scalarSettings{
		proxyHealthCacheTTLMinutes: merged.ProxyHealthCacheTTLMinutes,
		proxyHealthTimeoutMs:       merged.ProxyHealthTimeoutMs,
		autoProcessing:             merged.AutoProcessing,
	}

	log.Info().
		Int("rules", len(s.ruleList)).
		Str("path", s.path).
		Msg("Settings loaded")
	return nil
}

// mergeDefaults fills missing scalars with documented defaults and appends
// absent built-in rules, keeping loaded rules and their order untouched.
func mergeDefaults(file settingsFile) domain.Settings {
	defaults := domain.DefaultSettings()
	merged := domain.Settings{
		Rules:                      file.Rules,
		ProxyHealthCacheTTLMinutes: defaults.ProxyHealthCacheTTLMinutes,
		ProxyHealthTimeoutMs:       defaults.ProxyHealthTimeoutMs,
		AutoProcessing:             defaults.AutoProcessing,
	}

	if file.ProxyHealthCacheTTLMinutes != nil {
		merged.ProxyHealthCacheTTLMinutes = *file.ProxyHealthCacheTTLMinutes
	}
	if file.ProxyHealthTimeoutMs != nil {
		merged.ProxyHealthTimeoutMs = *file.ProxyHealthTimeoutMs
	}
	if section := file.AutoProcessing; section != nil {
		if section.Enabled != nil {
			merged.AutoProcessing.Enabled = *section.Enabled
		}
		if section.FolderPath != nil {
			merged.AutoProcessing.FolderPath = *section.FolderPath
		}
		if section.FrequencyMinutes != nil {
			merged.AutoProcessing.FrequencyMinutes = *section.FrequencyMinutes
		}
		if section.MinContentLengthRatio != nil {
			merged.AutoProcessing.MinContentLengthRatio = *section.MinContentLengthRatio
		}
	}

	present := make(map[string]bool, len(merged.Rules))
	for _, rule := range merged.Rules {
		present[rule.ID] = true
	}
	for _, def := range domain.DefaultRules() {
		if !present[def.ID] {
			merged.Rules = append(merged.Rules, def)
		}
	}

	return merged
}

// Settings returns a copy of the full current document
func (s *Store) Settings(ctx context.Context) domain.Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot()
}

// snapshot builds a deep copy of the document. Callers must hold s.mu.
func (s *Store) snapshot() domain.Settings {
	rules := make([]domain.Rule, len(s.ruleList))
	for i, rule := range s.ruleList {
		rules[i] = *rule
		rules[i].Matchers = append([]string(nil), rule.Matchers...)
	}
	return domain.Settings{
		Rules:                      rules,
		ProxyHealthCacheTTLMinutes: s.scalars.proxyHealthCacheTTLMinutes,
		ProxyHealthTimeoutMs:       s.scalars.proxyHealthTimeoutMs,
		AutoProcessing:             s.scalars.autoProcessing,
	}
}

// ListRules returns all rules in stored order
func (s *Store) ListRules(ctx context.Context) ([]domain.Rule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.Rule, len(s.ruleList))
	for i, rule := range s.ruleList {
		result[i] = *rule
		result[i].Matchers = append([]string(nil), rule.Matchers...)
	}
	return result, nil
}

// GetRuleByID retrieves a rule by its ID
func (s *Store) GetRuleByID(ctx context.Context, id string) (*domain.Rule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rule, exists := s.rules[id]
	if !exists {
		return nil, domain.NewAppError(
			domain.ErrNotFound,
			"Rule not found",
			404,
			map[string]any{"id": id},
		)
	}

	ruleCopy := *rule
	ruleCopy.Matchers = append([]string(nil), rule.Matchers...)
	return &ruleCopy, nil
}

// CreateRule appends a new rule and persists the document
func (s *Store) CreateRule(ctx context.Context, rule *domain.Rule) error {
	if err := s.createRule(ctx, rule); err != nil {
		return err
	}
	s.notifyChange()
	return nil
}

func (s *Store) createRule(ctx context.Context, rule *domain.Rule) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.rules[rule.ID]; exists {
		return domain.NewAppError(
			domain.ErrConflict,
			"Rule already exists",
			409,
			map[string]any{"id": rule.ID},
		)
	}

	ruleCopy := *rule
	ruleCopy.Matchers = append([]string(nil), rule.Matchers...)

	s.rules[rule.ID] = &ruleCopy
	s.ruleList = append(s.ruleList, &ruleCopy)

	if err := s.persist(ctx); err != nil {
		delete(s.rules, rule.ID)
		s.ruleList = s.ruleList[:len(s.ruleList)-1]
		return err
	}
	return nil
}

// UpdateRule replaces an existing rule in place and persists the document
func (s *Store) UpdateRule(ctx context.Context, rule *domain.Rule) error {
	if err := s.updateRule(ctx, rule); err != nil {
		return err
	}
	s.notifyChange()
	return nil
}

func (s *Store) updateRule(ctx context.Context, rule *domain.Rule) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, exists := s.rules[rule.ID]
	if !exists {
		return domain.NewAppError(
			domain.ErrNotFound,
			"Rule not found",
			404,
			map[string]any{"id": rule.ID},
		)
	}

	var oldIndex int
	for i, r := range s.ruleList {
		if r.ID == rule.ID {
			oldIndex = i
			break
		}
	}

	ruleCopy := *rule
	ruleCopy.Matchers = append([]string(nil), rule.Matchers...)
	oldRule := existing

	s.rules[rule.ID] = &ruleCopy
	s.ruleList[oldIndex] = &ruleCopy

	if err := s.persist(ctx); err != nil {
		s.rules[rule.ID] = oldRule
		s.ruleList[oldIndex] = oldRule
		return err
	}
	return nil
}

// DeleteRule removes a rule and persists the document. Built-in rules can be
// deleted too, but reappear on next load by the merge-on-load contract.
func (s *Store) DeleteRule(ctx context.Context, id string) error {
	if err := s.deleteRule(ctx, id); err != nil {
		return err
	}
	s.notifyChange()
	return nil
}

func (s *Store) deleteRule(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rule, exists := s.rules[id]
	if !exists {
		return domain.NewAppError(
			domain.ErrNotFound,
			"Rule not found",
			404,
			map[string]any{"id": id},
		)
	}

	oldIndex := -1
	for i, r := range s.ruleList {
		if r.ID == id {
			oldIndex = i
			break
		}
	}

	delete(s.rules, id)
	s.ruleList = append(s.ruleList[:oldIndex], s.ruleList[oldIndex+1:]...)

	if err := s.persist(ctx); err != nil {
		s.rules[id] = rule
		s.ruleList = append(s.ruleList, nil)
		copy(s.ruleList[oldIndex+1:], s.ruleList[oldIndex:])
		s.ruleList[oldIndex] = rule
		return err
	}
	return nil
}

// ReplaceRules swaps the entire ordered rule list, the operation behind bulk
// reorder. Duplicate ids are rejected before anything changes.
func (s *Store) ReplaceRules(ctx context.Context, rules []domain.Rule) error {
	if err := s.replaceRules(ctx, rules); err != nil {
		return err
	}
	s.notifyChange()
	return nil
}

func (s *Store) replaceRules(ctx context.Context, rules []domain.Rule) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	seen := make(map[string]bool, len(rules))
	for _, rule := range rules {
		if seen[rule.ID] {
			return domain.NewAppError(
				domain.ErrValidationFailed,
				"Duplicate rule id in replacement list",
				422,
				map[string]any{"id": rule.ID},
			)
		}
		seen[rule.ID] = true
	}

	oldRules := s.rules
	oldList := s.ruleList

	s.rules = make(map[string]*domain.Rule, len(rules))
	s.ruleList = make([]*domain.Rule, 0, len(rules))
	for i := range rules {
		ruleCopy := rules[i]
		ruleCopy.Matchers = append([]string(nil), ruleCopy.Matchers...)
		s.rules[ruleCopy.ID] = &ruleCopy
		s.ruleList = append(s.ruleList, &ruleCopy)
	}

	if err := s.persist(ctx); err != nil {
		s.rules = oldRules
		s.ruleList = oldList
		return err
	}
	return nil
}

// UpdateProxyHealthSettings persists new TTL and probe timeout values
func (s *Store) UpdateProxyHealthSettings(ctx context.Context, ttlMinutes, timeoutMs int) error {
	if err := s.updateScalars(ctx, func(sc *scalarSettings) {
		sc.proxyHealthCacheTTLMinutes = ttlMinutes
		sc.proxyHealthTimeoutMs = timeoutMs
	}); err != nil {
		return err
	}
	s.notifyChange()
	return nil
}

// UpdateAutoProcessing persists a new auto-processing section
func (s *Store) UpdateAutoProcessing(ctx context.Context, cfg domain.AutoProcessingConfig) error {
	if err := s.updateScalars(ctx, func(sc *scalarSettings) {
		sc.autoProcessing = cfg
	}); err != nil {
		return err
	}
	s.notifyChange()
	return nil
}

func (s *Store) updateScalars(ctx context.Context, apply func(*scalarSettings)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	old := s.scalars
	apply(&s.scalars)

	if err := s.persist(ctx); err != nil {
		s.scalars = old
		return err
	}
	return nil
}

// persist writes the document atomically via a temp file. Callers hold s.mu.
func (s *Store) persist(ctx context.Context) error {
	doc := s.snapshot()

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return domain.NewAppErrorWithCause(
			domain.ErrSettingsIO,
			"Failed to marshal settings",
			500,
			err,
			nil,
		).WithContext(ctx, "persist")
	}

	if dir := filepath.Dir(s.path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return domain.NewAppErrorWithCause(
				domain.ErrSettingsIO,
				"Failed to create settings directory",
				500,
				err,
				map[string]any{"dir": dir},
			).WithContext(ctx, "persist")
		}
	}

	tmpPath := s.path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0644); err != nil {
		return domain.NewAppErrorWithCause(
			domain.ErrSettingsIO,
			"Failed to write settings file",
			500,
			err,
			map[string]any{"path": tmpPath},
		).WithContext(ctx, "persist")
	}

	if err := os.Rename(tmpPath, s.path); err != nil {
		_ = os.Remove(tmpPath)
		return domain.NewAppErrorWithCause(
			domain.ErrSettingsIO,
			"Failed to replace settings file",
			500,
			err,
			map[string]any{"path": s.path},
		).WithContext(ctx, "persist")
	}

	return nil
}

func (s *Store) notifyChange() {
	s.mu.RLock()
	fn := s.onChange
	s.mu.RUnlock()

	if fn != nil {
		fn()
	}
}

// HealthCheck performs a health check on the settings store
func (s *Store) HealthCheck(ctx context.Context) domain.HealthStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()

	now := time.Now()
	status := "healthy"
	message := "Settings store is operating normally"
	details := map[string]any{
		"rule_count": len(s.ruleList),
		"path":       s.path,
	}

	if _, err := os.Stat(filepath.Dir(s.path)); err != nil {
		return domain.HealthStatus{
			Status:    "unhealthy",
			Message:   "Settings directory is not accessible",
			Details:   map[string]any{"error": err.Error(), "path": s.path},
			Timestamp: now,
		}
	}

	if len(s.rules) != len(s.ruleList) {
		status = "unhealthy"
		message = "Data structure inconsistency detected"
		details["map_size"] = len(s.rules)
		details["list_size"] = len(s.ruleList)
	}

	return domain.HealthStatus{
		Status:    status,
		Message:   message,
		Details:   details,
		Timestamp: now,
	}
}

// GetStats returns settings store statistics
func (s *Store) GetStats(ctx context.Context) map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	enabledCount := 0
	typeCount := make(map[string]int)
	for _, rule := range s.ruleList {
		if rule.Enabled {
			enabledCount++
		}
		typeCount[rule.Type]++
	}

	return map[string]any{
		"rule_count":              len(s.ruleList),
		"enabled_rules":           enabledCount,
		"rule_types":              typeCount,
		"path":                    s.path,
		"health_cache_ttl_min":    s.scalars.proxyHealthCacheTTLMinutes,
		"probe_timeout_ms":        s.scalars.proxyHealthTimeoutMs,
		"auto_processing_enabled": s.scalars.autoProcessing.Enabled,
	}
}
