package domain

import "time"

// Default values applied when a persisted settings field is absent
const (
	DefaultProxyHealthCacheTTLMinutes = 5
	DefaultProxyHealthTimeoutMs       = 5000
	DefaultFrequencyMinutes           = 60
	DefaultMinContentLengthRatio      = 2.0
)

// AutoProcessingConfig controls the scheduled folder scan that re-fetches
// thin clippings through the rule set and merges richer content in.
// @Description Scheduled auto-processing configuration
type AutoProcessingConfig struct {
	Enabled          bool   `json:"enabled" example:"false"`
	FolderPath       string `json:"folderPath" example:"Clippings"`
	FrequencyMinutes int    `json:"frequencyMinutes" validate:"min=1,max=1440" example:"60"`
	// MinContentLengthRatio gates merging: fetched length divided by existing
	// body length must reach this value. Inclusive threshold, minimum 1.
	MinContentLengthRatio float64 `json:"minContentLengthRatio" validate:"min=1" example:"2.0"`
}

// Settings is the persisted configuration document. Rules keep their stored
// order: it is the tie-break for equal-priority matches.
// @Description Persisted relay settings
type Settings struct {
	Rules                      []Rule               `json:"rules"`
	ProxyHealthCacheTTLMinutes int                  `json:"proxyHealthCacheTtlMinutes" validate:"min=0" example:"5"`
	ProxyHealthTimeoutMs       int                  `json:"proxyHealthTimeoutMs" validate:"min=1" example:"5000"`
	AutoProcessing             AutoProcessingConfig `json:"autoProcessing"`
}

// DefaultSettings returns the settings used when nothing has been persisted yet
func DefaultSettings() Settings {
	return Settings{
		Rules:                      DefaultRules(),
		ProxyHealthCacheTTLMinutes: DefaultProxyHealthCacheTTLMinutes,
		ProxyHealthTimeoutMs:       DefaultProxyHealthTimeoutMs,
		AutoProcessing: AutoProcessingConfig{
			Enabled:               false,
			FolderPath:            "",
			FrequencyMinutes:      DefaultFrequencyMinutes,
			MinContentLengthRatio: DefaultMinContentLengthRatio,
		},
	}
}

// HealthCacheTTL converts the persisted minutes value to a duration
func (s Settings) HealthCacheTTL() time.Duration {
	return time.Duration(s.ProxyHealthCacheTTLMinutes) * time.Minute
}

// ProbeTimeout converts the persisted milliseconds value to a duration
func (s Settings) ProbeTimeout() time.Duration {
	return time.Duration(s.ProxyHealthTimeoutMs) * time.Millisecond
}

// ScanFrequency converts the persisted minutes value to a duration
func (c AutoProcessingConfig) ScanFrequency() time.Duration {
	return time.Duration(c.FrequencyMinutes) * time.Minute
}
