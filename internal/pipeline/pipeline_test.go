package pipeline

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rheelab/ryland/internal/cohort"
	"github.com/rheelab/ryland/internal/config"
	"github.com/rheelab/ryland/internal/extract"
	"github.com/rheelab/ryland/internal/logging"
)

func date(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &t
}

func testPipeline(t *testing.T, mutate func(*config.Config)) *Pipeline {
	t.Helper()
	cfg, err := config.Load("")
	require.NoError(t, err)
	if mutate != nil {
		mutate(cfg)
	}
	p, err := New(cfg, logging.NewTestLogger().Logger)
	require.NoError(t, err)
	return p
}

func TestExtractNotesExplodesSegments(t *testing.T) {
	p := testPipeline(t, nil)

	notes := []cohort.Note{
		{
			MRN:      1001,
			ProcDesc: "SURGICAL PATHOLOGY",
			ReportText: "INTERPRETATION: consistent with glioma TEST INFORMATION assay X " +
				"FINAL PATHOLOGIC DIAGNOSIS: glioblastoma Electronically Signed Out",
		},
	}

	result, err := p.ExtractNotes(context.Background(), notes, Options{Category: extract.CategoryPathology})
	require.NoError(t, err)
	assert.NotEmpty(t, result.RunID)
	require.Len(t, result.Rows, 2)

	assert.Equal(t, int64(1001), result.Rows[0].MRN)
	assert.Equal(t, "INTERPRETATION", result.Rows[0].Section)
	assert.Equal(t, "consistent with glioma", result.Rows[0].SectionText)
	assert.Equal(t, "FINAL PATHOLOGIC DIAGNOSIS", result.Rows[1].Section)
	assert.Equal(t, "glioblastoma", result.Rows[1].SectionText)
}

func TestExtractNotesFirstOnly(t *testing.T) {
	p := testPipeline(t, nil)

	notes := []cohort.Note{
		{
			MRN:      1001,
			ProcDesc: "SURGICAL PATHOLOGY",
			ReportText: "INTERPRETATION: consistent with glioma TEST INFORMATION assay X " +
				"FINAL PATHOLOGIC DIAGNOSIS: glioblastoma Electronically Signed Out",
		},
	}

	result, err := p.ExtractNotes(context.Background(), notes, Options{
		Category:  extract.CategoryPathology,
		FirstOnly: true,
	})
	require.NoError(t, err)
	require.Len(t, result.Rows, 1)
	assert.Equal(t, "INTERPRETATION", result.Rows[0].Section)
}

func TestExtractNotesAbsentTextFallsBack(t *testing.T) {
	p := testPipeline(t, nil)

	notes := []cohort.Note{
		{MRN: 1, ProcDesc: "SURGICAL PATHOLOGY", ReportText: "", NarrativeText: "narrative body"},
		{MRN: 2, ProcDesc: "SURGICAL PATHOLOGY", ReportText: ""},
	}

	result, err := p.ExtractNotes(context.Background(), notes, Options{Category: extract.CategoryPathology})
	require.NoError(t, err)
	require.Len(t, result.Rows, 2)
	assert.Equal(t, extract.SectionFallbackText, result.Rows[0].Section)
	assert.Equal(t, "narrative body", result.Rows[0].SectionText)
	assert.Equal(t, "NO INPUT TEXT", result.Rows[1].SectionText)
}

func TestExtractNotesUnknownProcDescAborts(t *testing.T) {
	p := testPipeline(t, nil)

	notes := []cohort.Note{
		{MRN: 1, ProcDesc: "NOT A REGISTERED TYPE", ReportText: "DIAGNOSIS: x"},
	}

	_, err := p.ExtractNotes(context.Background(), notes, Options{Category: extract.CategoryPathology})
	assert.ErrorIs(t, err, extract.ErrUnknownProcDesc)
}

func TestExtractNotesOfInterestOnly(t *testing.T) {
	p := testPipeline(t, nil)

	// The consult note's proc desc is not in the shipped pathology
	// of-interest list; with the pre-filter on it is dropped before it
	// can fail registry lookup.
	notes := []cohort.Note{
		{MRN: 1, ProcDesc: "SURGICAL PATHOLOGY", ReportText: "FINAL PATHOLOGIC DIAGNOSIS: glioma Electronically Signed Out"},
		{MRN: 2, ProcDesc: "DERMATOLOGY CONSULT", ReportText: "ASSESSMENT: benign nevus"},
	}

	result, err := p.ExtractNotes(context.Background(), notes, Options{
		Category:       extract.CategoryPathology,
		OfInterestOnly: true,
	})
	require.NoError(t, err)
	require.Len(t, result.Rows, 1)
	assert.Equal(t, int64(1), result.Rows[0].MRN)
	assert.Equal(t, "glioma", result.Rows[0].SectionText)
}

func TestRunEndToEnd(t *testing.T) {
	p := testPipeline(t, func(cfg *config.Config) {
		cfg.Extraction.MatchMode = string(extract.MatchFuzzy)
		cfg.Cohort.TreatmentKeywords = []string{"temozolomide"}
		cfg.Cohort.ProgressNoteTextFilters = []string{"INTERVAL HISTORY"}
		cfg.Cohort.EarliestDataDate = "2010-01-01"
	})

	in := Inputs{
		Notes: []cohort.Note{
			{
				MRN:        1,
				ProcDesc:   "Progress Note",
				EventDate:  date(2020, time.March, 3),
				ReportText: "INTERVAL HISTORY stable. EXAM: intact strength DATA: labs pending",
			},
		},
		Treatments: []cohort.Treatment{
			{MRN: 1, StdChemoPlan: "Temozolomide", PlanStartDate: date(2020, time.March, 1)},
		},
		Diagnoses: []cohort.Diagnosis{
			{MRN: 1, DiagnosisDate: date(2020, time.January, 10)},
		},
		Patients: []cohort.PatientInfo{
			{MRN: 1, BirthDate: date(1950, time.June, 15)},
		},
	}

	result, err := p.Run(context.Background(), in, Options{Category: extract.CategoryProgress})
	require.NoError(t, err)
	assert.NotEmpty(t, result.RunID)
	require.NotEmpty(t, result.Rows)

	// The single note serves all three anchors; each cohort row
	// explodes into its extracted segment.
	noteTypes := map[string]bool{}
	for _, r := range result.Rows {
		noteTypes[r.NoteType] = true
		assert.Equal(t, int64(1), r.MRN)
		assert.Equal(t, "EXAM:", r.Section)
		assert.Equal(t, "intact strength", r.SectionText)
	}
	assert.True(t, noteTypes["first after dx"])
	assert.True(t, noteTypes["within +/- 7 days of tx"])
	assert.True(t, noteTypes["closest to 60 days since tx"])
}

func TestNewFailsOnMissingMappingsFile(t *testing.T) {
	cfg, err := config.Load("")
	require.NoError(t, err)
	cfg.Extraction.MappingsPath = "/nonexistent/mappings.yaml"

	_, err = New(cfg, nil)
	assert.Error(t, err)
}
