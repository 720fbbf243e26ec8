package cohort

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrepTreatmentsCollapsesPlanFields(t *testing.T) {
	txs := []Treatment{
		{MRN: 1, StdChemoPlan: "TEMOZOLOMIDE", ResearchChemoPlan: "TRIAL-001"},
		{MRN: 2, ResearchChemoPlan: "TRIAL-002"},
		{MRN: 3, OtherTreatmentPlan: "BEVACIZUMAB"},
		{MRN: 4}, // no plan at all: dropped
	}

	recs := PrepTreatments(txs, nil, nil)
	require.Len(t, recs, 3)
	assert.Equal(t, "TEMOZOLOMIDE", recs[0].Treatment) // leftmost field wins
	assert.Equal(t, "TRIAL-002", recs[1].Treatment)
	assert.Equal(t, "BEVACIZUMAB", recs[2].Treatment)
}

func TestPrepTreatmentsKeywordFilter(t *testing.T) {
	txs := []Treatment{
		{MRN: 1, StdChemoPlan: "Temozolomide + RT"},
		{MRN: 2, StdChemoPlan: "LOMUSTINE"},
	}

	recs := PrepTreatments(txs, nil, []string{"temozolomide"})
	require.Len(t, recs, 1)
	assert.Equal(t, int64(1), recs[0].MRN)
}

func TestPrepTreatmentsMergesDemographics(t *testing.T) {
	birth := date(1955, time.April, 2)
	txs := []Treatment{
		{MRN: 1, StdChemoPlan: "TMZ", PlanStartDate: date(2020, time.March, 1)},
		{MRN: 2, StdChemoPlan: "TMZ"},
	}
	info := []PatientInfo{{MRN: 1, BirthDate: birth}}

	recs := PrepTreatments(txs, info, nil)
	require.Len(t, recs, 2)
	require.NotNil(t, recs[0].BirthDate)
	assert.True(t, birth.Equal(*recs[0].BirthDate))
	assert.Nil(t, recs[1].BirthDate) // no demographics row: left join keeps the treatment
}

func TestPrepNotes(t *testing.T) {
	notes := []Note{
		{MRN: 1, ReportText: "NEURO-ONCOLOGY PROGRESS NOTE\nstable", EventDate: date(2020, time.May, 1)},
		{MRN: 1, ReportText: "unrelated dermatology note"},
		{MRN: 9, ReportText: "NEURO-ONCOLOGY PROGRESS NOTE\nuntreated patient"},
	}
	treated := map[int64]struct{}{1: {}}

	out := PrepNotes(notes, treated, []string{"NEURO-ONCOLOGY PROGRESS NOTE", "INTERVAL HISTORY"})
	require.Len(t, out, 1)
	assert.Equal(t, int64(1), out[0].MRN)
	assert.Contains(t, out[0].ReportText, "stable")
}

func TestPrepNotesEmptyFilterKeepsAll(t *testing.T) {
	notes := []Note{
		{MRN: 1, ReportText: "a"},
		{MRN: 1, ReportText: "b"},
	}
	out := PrepNotes(notes, map[int64]struct{}{1: {}}, nil)
	assert.Len(t, out, 2)
}

func TestPrepDiagnoses(t *testing.T) {
	dxs := []Diagnosis{
		{MRN: 1, DiagnosisDate: date(2020, time.January, 10)},
		{MRN: 0, DiagnosisDate: date(2020, time.January, 10)}, // missing MRN dropped
	}
	out := PrepDiagnoses(dxs)
	require.Len(t, out, 1)
	assert.Equal(t, int64(1), out[0].MRN)
}
