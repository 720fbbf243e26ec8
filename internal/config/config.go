// Package config provides configuration loading for ryland.
package config

import (
	"fmt"

	"github.com/rheelab/ryland/internal/extract"
	"github.com/rheelab/ryland/internal/logging"
)

// Config is the full runtime configuration.
type Config struct {
	Extraction ExtractionConfig `koanf:"extraction"`
	Cohort     CohortConfig     `koanf:"cohort"`
	Logging    logging.Config   `koanf:"logging"`
}

// ExtractionConfig controls registry lookup and the mappings source.
type ExtractionConfig struct {
	// MappingsPath points to a site-specific mappings YAML. Empty means
	// the embedded default tables.
	MappingsPath string `koanf:"mappings_path"`
	// MatchMode is "exact" or "fuzzy".
	MatchMode string `koanf:"match_mode"`
}

// CohortConfig controls timeline alignment.
type CohortConfig struct {
	// DaysDiffWobble is the tolerance window in days around the
	// treatment start date.
	DaysDiffWobble int `koanf:"days_diff_wobble"`
	// DaysPostTx is the analysis time point after treatment start.
	DaysPostTx int `koanf:"days_post_tx"`
	// EarliestDataDate is the global cohort cutoff; diagnoses before it
	// are dropped. Freeform date string, coerced like all other dates.
	EarliestDataDate string `koanf:"earliest_data_date"`
	// TreatmentKeywords filters treatment plans (case-insensitive
	// substring match).
	TreatmentKeywords []string `koanf:"treatment_keywords"`
	// ProgressNoteTextFilters keeps only notes whose report text
	// contains one of these strings. Unset, it takes the list shipped
	// with the mappings source.
	ProgressNoteTextFilters []string `koanf:"progress_note_text_filters"`
}

// Validate checks the configuration for contract violations.
func (c *Config) Validate() error {
	switch extract.MatchMode(c.Extraction.MatchMode) {
	case extract.MatchExact, extract.MatchFuzzy:
	default:
		return fmt.Errorf("%w: got %q", extract.ErrInvalidMatchMode, c.Extraction.MatchMode)
	}
	if c.Cohort.DaysDiffWobble < 0 {
		return fmt.Errorf("cohort.days_diff_wobble must be >= 0, got %d", c.Cohort.DaysDiffWobble)
	}
	if c.Cohort.DaysPostTx < 0 {
		return fmt.Errorf("cohort.days_post_tx must be >= 0, got %d", c.Cohort.DaysPostTx)
	}
	return c.Logging.Validate()
}

// Registry builds the extraction registry this configuration names:
// the site-specific mappings file when set, otherwise the embedded
// defaults.
func (c *Config) Registry() (*extract.Registry, error) {
	if c.Extraction.MappingsPath != "" {
		return extract.LoadMappings(c.Extraction.MappingsPath)
	}
	return extract.DefaultRegistry(), nil
}

// Filters returns the keyword filter lists from the same mappings
// source the registry comes from.
func (c *Config) Filters() (extract.Filters, error) {
	if c.Extraction.MappingsPath != "" {
		return extract.LoadFilters(c.Extraction.MappingsPath)
	}
	return extract.DefaultFilters(), nil
}
