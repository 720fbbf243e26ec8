package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rheelab/ryland/internal/extract"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "exact", cfg.Extraction.MatchMode)
	assert.Empty(t, cfg.Extraction.MappingsPath)
	assert.Equal(t, 7, cfg.Cohort.DaysDiffWobble)
	assert.Equal(t, 60, cfg.Cohort.DaysPostTx)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)

	// The shipped progress-note vocabulary applies when the list is
	// not configured.
	assert.Equal(t, extract.DefaultFilters().ProgressNoteTextFilters, cfg.Cohort.ProgressNoteTextFilters)
	assert.Contains(t, cfg.Cohort.ProgressNoteTextFilters, "NEURO-ONCOLOGY PROGRESS NOTE")
}

func TestLoadZeroWobbleIsNotUnset(t *testing.T) {
	content := []byte(`
cohort:
  days_diff_wobble: 0
`)
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, content, 0600))

	cfg, err := Load(path)
	require.NoError(t, err)
	// Zero means same-day notes only, not "use the default".
	assert.Equal(t, 0, cfg.Cohort.DaysDiffWobble)
	assert.Equal(t, 60, cfg.Cohort.DaysPostTx)
}

func TestLoadExplicitEmptyTextFiltersKept(t *testing.T) {
	content := []byte(`
cohort:
  progress_note_text_filters: []
`)
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, content, 0600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Empty(t, cfg.Cohort.ProgressNoteTextFilters)
}

func TestLoadFromFile(t *testing.T) {
	content := []byte(`
extraction:
  match_mode: fuzzy
cohort:
  days_diff_wobble: 14
  days_post_tx: 90
  earliest_data_date: "2010-01-01"
  treatment_keywords:
    - temozolomide
    - lomustine
  progress_note_text_filters:
    - NEURO-ONCOLOGY PROGRESS NOTE
logging:
  level: debug
  format: console
`)
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, content, 0600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "fuzzy", cfg.Extraction.MatchMode)
	assert.Equal(t, 14, cfg.Cohort.DaysDiffWobble)
	assert.Equal(t, 90, cfg.Cohort.DaysPostTx)
	assert.Equal(t, "2010-01-01", cfg.Cohort.EarliestDataDate)
	assert.Equal(t, []string{"temozolomide", "lomustine"}, cfg.Cohort.TreatmentKeywords)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "console", cfg.Logging.Format)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	content := []byte(`
extraction:
  match_mode: exact
`)
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, content, 0600))

	t.Setenv("RYLAND_EXTRACTION_MATCH_MODE", "fuzzy")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "fuzzy", cfg.Extraction.MatchMode)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestLoadInvalidMatchMode(t *testing.T) {
	t.Setenv("RYLAND_EXTRACTION_MATCH_MODE", "soft")
	_, err := Load("")
	assert.ErrorIs(t, err, extract.ErrInvalidMatchMode)
}

func TestRegistryUsesEmbeddedDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	r, err := cfg.Registry()
	require.NoError(t, err)
	_, err = r.Lookup(extract.CategoryPathology, "SURGICAL PATHOLOGY", extract.MatchExact)
	assert.NoError(t, err)
}

func TestRegistryUsesMappingsPath(t *testing.T) {
	mappings := []byte(`
imaging:
  - proc_desc: "*"
    rules:
      - start: "CONCLUSION:"
        end: []
`)
	path := filepath.Join(t.TempDir(), "mappings.yaml")
	require.NoError(t, os.WriteFile(path, mappings, 0600))

	cfg, err := Load("")
	require.NoError(t, err)
	cfg.Extraction.MappingsPath = path

	r, err := cfg.Registry()
	require.NoError(t, err)

	rules, err := r.Lookup(extract.CategoryImaging, "MRI BRAIN", extract.MatchFuzzy)
	require.NoError(t, err)
	require.Len(t, rules, 1)
	assert.Equal(t, "CONCLUSION:", rules[0].Start)
}
