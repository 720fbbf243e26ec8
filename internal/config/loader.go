package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
)

const envPrefix = "RYLAND_"

// defaultConfig is the base layer every load starts from. Defaults live
// here rather than in post-unmarshal patching so an explicit zero in
// the file or environment (e.g. a zero-day wobble meaning same-day
// notes only) survives instead of being mistaken for unset.
var defaultConfig = []byte(`
extraction:
  match_mode: exact
cohort:
  days_diff_wobble: 7
  days_post_tx: 60
logging:
  level: info
  format: json
`)

// Load reads configuration from a YAML file, then overrides with
// environment variables.
//
// Configuration precedence (highest to lowest):
//  1. Environment variables (RYLAND_EXTRACTION_MATCH_MODE, ...)
//  2. YAML config file
//  3. Defaults
//
// An empty path skips the file and uses defaults plus environment.
// Environment variables map to dotted keys by splitting on the first
// underscore after the prefix:
//
//	RYLAND_EXTRACTION_MATCH_MODE -> extraction.match_mode
//	RYLAND_COHORT_DAYS_POST_TX   -> cohort.days_post_tx
func Load(configPath string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(rawbytes.Provider(defaultConfig), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("failed to load default config: %w", err)
	}

	if configPath != "" {
		content, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", configPath, err)
		}
		if err := k.Load(rawbytes.Provider(content), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	if err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		// RYLAND_SECTION_FIELD_NAME -> section.field_name
		lower := strings.ToLower(strings.TrimPrefix(s, envPrefix))
		parts := strings.SplitN(lower, "_", 2)
		if len(parts) == 1 {
			return lower
		}
		return parts[0] + "." + parts[1]
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := applyFilterDefaults(&cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &cfg, nil
}

// applyFilterDefaults fills unset keyword lists from the filter lists
// shipped with the mappings source (the configured file, or the
// embedded defaults). A list the user explicitly set, even to empty,
// is left alone.
func applyFilterDefaults(cfg *Config) error {
	if cfg.Cohort.ProgressNoteTextFilters != nil {
		return nil
	}
	filters, err := cfg.Filters()
	if err != nil {
		return err
	}
	cfg.Cohort.ProgressNoteTextFilters = filters.ProgressNoteTextFilters
	return nil
}
