package types

import "time"

// HTTPConfig holds shared HTTP settings used by components that query
// external registries.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout (default 10s).
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "citation-tracker/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// ValidatorConfig holds settings shared by the DOI and PMID validators.
type ValidatorConfig struct {
	HTTPConfig `yaml:",inline"`

	// Email is sent to Crossref for polite pool access (faster responses).
	Email string `json:"email,omitempty" yaml:"email,omitempty"`

	// PubMedAPIKey is an optional NCBI API key for higher rate limits.
	PubMedAPIKey string `json:"pubmed_api_key,omitempty" yaml:"pubmed_api_key,omitempty"`

	// CacheTTL is how long validation results stay fresh (default 24h).
	CacheTTL time.Duration `json:"cache_ttl" yaml:"cache_ttl"`

	// CacheSize bounds the number of cached validation results (default 1000).
	CacheSize int `json:"cache_size" yaml:"cache_size"`

	// CrossrefAPIBase overrides the Crossref works endpoint. Empty means
	// the public API.
	CrossrefAPIBase string `json:"crossref_api_base,omitempty" yaml:"crossref_api_base,omitempty"`

	// PubMedFetchBase overrides the PubMed efetch endpoint. Empty means
	// the public API.
	PubMedFetchBase string `json:"pubmed_fetch_base,omitempty" yaml:"pubmed_fetch_base,omitempty"`
}

// DetectorConfig holds fuzzy-matching thresholds for duplicate detection.
type DetectorConfig struct {
	// TitleThreshold is the similarity threshold for title matching (default 0.85).
	TitleThreshold float64 `json:"title_threshold" yaml:"title_threshold"`

	// AuthorThreshold is the similarity threshold for author matching (default 0.90).
	AuthorThreshold float64 `json:"author_threshold" yaml:"author_threshold"`
}

// ArchiveConfig holds settings for the on-disk job archive.
type ArchiveConfig struct {
	// Dir is the directory containing citations.db (default "archive").
	Dir string `json:"dir" yaml:"dir"`
}

// TrackerConfig groups all component configurations.
type TrackerConfig struct {
	Validator ValidatorConfig `json:"validator" yaml:"validator"`
	Detector  DetectorConfig  `json:"detector" yaml:"detector"`
	Archive   ArchiveConfig   `json:"archive" yaml:"archive"`
}
