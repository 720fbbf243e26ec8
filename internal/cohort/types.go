// Package cohort aligns clinical notes to patient treatment and
// diagnosis timelines. It joins the treatment, diagnosis, demographics
// and note tables on MRN and selects, per patient, the notes closest to
// key temporal anchors.
//
// All date fields are normalized to a single timezone-naive
// representation before any comparison; see dates.go.
package cohort

import "time"

// Note is one clinical note row from the source export.
type Note struct {
	MRN           int64      `json:"DFCI_MRN"`
	ProcDesc      string     `json:"PROC_DESC,omitempty"`
	EventDate     *time.Time `json:"EVENT_DATE,omitempty"`
	ReportText    string     `json:"RPT_TEXT,omitempty"`
	NarrativeText string     `json:"NARRATIVE_TEXT,omitempty"`
}

// Treatment is one treatment plan row. The three plan fields are
// alternatives: the leftmost non-empty one names the treatment.
type Treatment struct {
	MRN                int64      `json:"DFCI_MRN"`
	StdChemoPlan       string     `json:"STD_CHEMO_PLAN,omitempty"`
	ResearchChemoPlan  string     `json:"RESEARCH_CHEMO_PLAN,omitempty"`
	OtherTreatmentPlan string     `json:"OTHER_TREATMENT_PLAN,omitempty"`
	PlanStartDate      *time.Time `json:"TPLAN_START_DT,omitempty"`
}

// Diagnosis is one diagnosis row.
type Diagnosis struct {
	MRN           int64      `json:"DFCI_MRN"`
	DiagnosisDate *time.Time `json:"DIAGNOSIS_DT,omitempty"`
}

// PatientInfo is one demographics row.
type PatientInfo struct {
	MRN       int64      `json:"DFCI_MRN"`
	BirthDate *time.Time `json:"BIRTH_DT,omitempty"`
	DeathDate *time.Time `json:"HYBRID_DEATH_DT,omitempty"`
}

// TreatmentRecord is a prepped treatment row: demographics merged in
// and the plan fields collapsed into a single treatment label.
type TreatmentRecord struct {
	MRN           int64      `json:"DFCI_MRN"`
	Treatment     string     `json:"TREATMENT"`
	PlanStartDate *time.Time `json:"TPLAN_START_DT,omitempty"`
	BirthDate     *time.Time `json:"BIRTH_DT,omitempty"`
	DeathDate     *time.Time `json:"HYBRID_DEATH_DT,omitempty"`
}

// Row is one aligned cohort row: a selected note joined with its
// patient's treatment and diagnosis context plus the derived timeline
// fields. Nil pointers mean the source value was missing or
// unparseable; such rows are retained, only their derived fields stay
// null.
type Row struct {
	MRN           int64      `json:"DFCI_MRN"`
	Treatment     string     `json:"TREATMENT,omitempty"`
	PlanStartDate *time.Time `json:"TPLAN_START_DT,omitempty"`
	DiagnosisDate *time.Time `json:"DIAGNOSIS_DATE,omitempty"`
	BirthDate     *time.Time `json:"BIRTH_DT,omitempty"`
	DeathDate     *time.Time `json:"HYBRID_DEATH_DT,omitempty"`

	ProcDesc      string     `json:"PROC_DESC,omitempty"`
	EventDate     *time.Time `json:"EVENT_DATE,omitempty"`
	ReportText    string     `json:"RPT_TEXT,omitempty"`
	NarrativeText string     `json:"NARRATIVE_TEXT,omitempty"`

	DxAge                *int       `json:"DX_AGE,omitempty"`
	TxStartAge           *int       `json:"TX_START_AGE,omitempty"`
	DaysAfterDx          *int       `json:"DAYS_AFTER_DX,omitempty"`
	DaysNoteToTxStart    *int       `json:"DAYS_NOTE_TO_TX_START,omitempty"`
	PostTxTargetDate     *time.Time `json:"POST_TX_TARGET_DATE,omitempty"`
	DaysFromPostTxTarget *int       `json:"DAYS_FROM_POST_TX_TARGET,omitempty"`

	NoteType string `json:"NOTE_TYPE"`
}
