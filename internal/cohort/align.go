package cohort

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/rheelab/ryland/internal/logging"
)

// DefaultDaysPostTx is the analysis time point after treatment start
// used when the caller does not supply one.
const DefaultDaysPostTx = 60

// NoteTypeFirstAfterDx tags rows selected by NotesAfterDiagnosis.
const NoteTypeFirstAfterDx = "first after dx"

// NotesAfterDiagnosis selects, for each patient and each diagnosis
// date, the earliest note dated on or after the diagnosis. Patients or
// diagnoses with no qualifying note produce no row. Rows whose
// diagnosis date precedes earliestDataDate (the cohort cutoff) are
// dropped, and exact duplicates collapse to one row.
func NotesAfterDiagnosis(notes []Note, txs []TreatmentRecord, dxs []Diagnosis, earliestDataDate *time.Time) []Row {
	merged := mergeTreatmentDiagnosis(txs, dxs)
	notesByMRN := groupNotesByMRN(notes)
	for mrn := range notesByMRN {
		notesByMRN[mrn] = sortNotesByDate(notesByMRN[mrn])
	}
	cutoff := NaivePtr(earliestDataDate)

	var out []Row
	for _, m := range merged {
		if m.dxDate == nil {
			continue
		}
		if cutoff != nil && m.dxDate.Before(*cutoff) {
			continue
		}

		// Notes are in date order, so the first one at or past the
		// diagnosis is the earliest qualifying note.
		var selected *Note
		for i, n := range notesByMRN[m.tx.MRN] {
			if n.EventDate != nil && !n.EventDate.Before(*m.dxDate) {
				selected = &notesByMRN[m.tx.MRN][i]
				break
			}
		}
		if selected == nil {
			continue
		}

		row := newRow(m.tx, m.dxDate, *selected)
		row.DxAge = ageYears(m.tx.BirthDate, m.dxDate)
		row.DaysAfterDx = intPtr(daysBetween(*m.dxDate, *selected.EventDate))
		row.NoteType = NoteTypeFirstAfterDx
		out = append(out, row)
	}

	return dedupRows(out)
}

// NotesAroundTreatment makes two independent closest-note selections
// per (patient, treatment, treatment start date) group:
//
//  1. the note closest to the treatment start, kept only when its
//     distance is within daysDiffWobble days;
//  2. the note closest to daysPostTx days after treatment start, with
//     no distance cutoff (the closest note always wins).
//
// The asymmetry between the two cutoff policies is deliberate and
// matches the upstream analysis; confirm with the cohort owner before
// changing it. daysPostTx <= 0 selects the default of 60 days.
//
// Within a group, ties break toward earlier input rows.
func NotesAroundTreatment(notes []Note, txs []TreatmentRecord, dxs []Diagnosis, daysDiffWobble, daysPostTx int) []Row {
	if daysPostTx <= 0 {
		daysPostTx = DefaultDaysPostTx
	}

	rows := joinTreatmentDiagnosisNotes(txs, dxs, notes)

	// Closest to treatment start, wobble-bounded.
	startRows := make([]Row, len(rows))
	copy(startRows, rows)
	for i := range startRows {
		startRows[i].DaysNoteToTxStart = absDaysBetween(startRows[i].PlanStartDate, startRows[i].EventDate)
	}
	closestToStart := firstPerGroup(startRows, func(r Row) *int { return r.DaysNoteToTxStart })
	var withinWobble []Row
	for _, r := range closestToStart {
		if r.DaysNoteToTxStart != nil && *r.DaysNoteToTxStart <= daysDiffWobble {
			r.NoteType = fmt.Sprintf("within +/- %d days of tx", daysDiffWobble)
			withinWobble = append(withinWobble, r)
		}
	}

	// Closest to the post-treatment time point, no cutoff.
	postRows := make([]Row, len(rows))
	copy(postRows, rows)
	for i := range postRows {
		postRows[i].PostTxTargetDate = addDays(postRows[i].PlanStartDate, daysPostTx)
		postRows[i].DaysFromPostTxTarget = absDaysBetween(postRows[i].PostTxTargetDate, postRows[i].EventDate)
	}
	closestToPost := firstPerGroup(postRows, func(r Row) *int { return r.DaysFromPostTxTarget })
	for i := range closestToPost {
		closestToPost[i].NoteType = fmt.Sprintf("closest to %d days since tx", daysPostTx)
	}

	return append(withinWobble, closestToPost...)
}

// Params configures the full progress-note filtering workflow.
type Params struct {
	TreatmentKeywords       []string
	ProgressNoteTextFilters []string
	EarliestDataDate        *time.Time
	DaysDiffWobble          int
	DaysPostTx              int
}

// FilterProgressNotes runs the complete alignment workflow: prep the
// treatment, note and diagnosis tables, select notes around diagnosis
// and treatment anchors, concatenate, and drop rows with no report
// text.
func FilterProgressNotes(ctx context.Context, notes []Note, txs []Treatment, info []PatientInfo, dxs []Diagnosis, p Params, log *logging.Logger) []Row {
	if log == nil {
		log = logging.Nop()
	}
	log = log.Named("cohort")

	txRecs := PrepTreatments(txs, info, p.TreatmentKeywords)
	notesFilt := PrepNotes(notes, TreatedMRNs(txRecs), p.ProgressNoteTextFilters)
	dxRecs := PrepDiagnoses(dxs)
	log.Info(ctx, "prepped cohort inputs",
		zap.Int("treatments", len(txRecs)),
		zap.Int("filtered_notes", len(notesFilt)),
		zap.Int("diagnoses", len(dxRecs)),
		zap.Int("days_diff_wobble", p.DaysDiffWobble),
		zap.Int("days_post_tx", p.DaysPostTx))

	afterDx := NotesAfterDiagnosis(notesFilt, txRecs, dxRecs, p.EarliestDataDate)
	aroundTx := NotesAroundTreatment(notesFilt, txRecs, dxRecs, p.DaysDiffWobble, p.DaysPostTx)

	var out []Row
	for _, r := range append(afterDx, aroundTx...) {
		if r.ReportText == "" {
			continue
		}
		recordRowSelected(r.NoteType)
		out = append(out, r)
	}
	log.Info(ctx, "aligned cohort notes",
		zap.Int("after_dx", len(afterDx)),
		zap.Int("around_tx", len(aroundTx)),
		zap.Int("rows", len(out)))
	return out
}

// mergedRow pairs one treatment record with one diagnosis date for the
// same patient (nil when the patient has no diagnosis rows).
type mergedRow struct {
	tx     TreatmentRecord
	dxDate *time.Time
}

// mergeTreatmentDiagnosis left-joins diagnoses onto treatment records
// by MRN, preserving treatment row order.
func mergeTreatmentDiagnosis(txs []TreatmentRecord, dxs []Diagnosis) []mergedRow {
	dxByMRN := make(map[int64][]Diagnosis)
	for _, dx := range dxs {
		dxByMRN[dx.MRN] = append(dxByMRN[dx.MRN], dx)
	}

	var merged []mergedRow
	for _, tx := range txs {
		if tx.MRN == 0 {
			continue
		}
		patientDxs := dxByMRN[tx.MRN]
		if len(patientDxs) == 0 {
			merged = append(merged, mergedRow{tx: tx})
			continue
		}
		for _, dx := range patientDxs {
			merged = append(merged, mergedRow{tx: tx, dxDate: dx.DiagnosisDate})
		}
	}
	return merged
}

// joinTreatmentDiagnosisNotes left-joins diagnoses and then notes onto
// treatment records by MRN and computes the treatment-start age.
func joinTreatmentDiagnosisNotes(txs []TreatmentRecord, dxs []Diagnosis, notes []Note) []Row {
	notesByMRN := groupNotesByMRN(notes)

	var rows []Row
	for _, m := range mergeTreatmentDiagnosis(txs, dxs) {
		patientNotes := notesByMRN[m.tx.MRN]
		if len(patientNotes) == 0 {
			row := newRow(m.tx, m.dxDate, Note{MRN: m.tx.MRN})
			row.TxStartAge = ageYears(m.tx.BirthDate, m.tx.PlanStartDate)
			rows = append(rows, row)
			continue
		}
		for _, n := range patientNotes {
			row := newRow(m.tx, m.dxDate, n)
			row.TxStartAge = ageYears(m.tx.BirthDate, m.tx.PlanStartDate)
			rows = append(rows, row)
		}
	}
	return rows
}

func newRow(tx TreatmentRecord, dxDate *time.Time, n Note) Row {
	return Row{
		MRN:           tx.MRN,
		Treatment:     tx.Treatment,
		PlanStartDate: tx.PlanStartDate,
		DiagnosisDate: dxDate,
		BirthDate:     tx.BirthDate,
		DeathDate:     tx.DeathDate,
		ProcDesc:      n.ProcDesc,
		EventDate:     n.EventDate,
		ReportText:    n.ReportText,
		NarrativeText: n.NarrativeText,
	}
}

// sortNotesByDate orders notes by event date, undated notes last. The
// sort is stable so same-day notes keep their input order.
func sortNotesByDate(notes []Note) []Note {
	sorted := make([]Note, len(notes))
	copy(sorted, notes)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i].EventDate, sorted[j].EventDate
		switch {
		case a == nil:
			return false
		case b == nil:
			return true
		default:
			return a.Before(*b)
		}
	})
	return sorted
}

func groupNotesByMRN(notes []Note) map[int64][]Note {
	byMRN := make(map[int64][]Note)
	for _, n := range notes {
		byMRN[n.MRN] = append(byMRN[n.MRN], n)
	}
	return byMRN
}

// groupKey identifies one (patient, treatment, treatment start) group.
type groupKey struct {
	mrn       int64
	treatment string
	planStart time.Time
}

func keyOf(r Row) groupKey {
	k := groupKey{mrn: r.MRN, treatment: r.Treatment}
	if r.PlanStartDate != nil {
		k.planStart = *r.PlanStartDate
	}
	return k
}

// firstPerGroup stable-sorts rows by (MRN, treatment, plan start,
// distance) with missing distances ordered last, then keeps the first
// row of each group. Stability makes ties resolve by input row order.
func firstPerGroup(rows []Row, distance func(Row) *int) []Row {
	sorted := make([]Row, len(rows))
	copy(sorted, rows)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if a.MRN != b.MRN {
			return a.MRN < b.MRN
		}
		if a.Treatment != b.Treatment {
			return a.Treatment < b.Treatment
		}
		as, bs := keyOf(a).planStart, keyOf(b).planStart
		if !as.Equal(bs) {
			return as.Before(bs)
		}
		da, db := distance(a), distance(b)
		switch {
		case da == nil:
			return false
		case db == nil:
			return true
		default:
			return *da < *db
		}
	})

	seen := make(map[groupKey]struct{}, len(sorted))
	var out []Row
	for _, r := range sorted {
		k := keyOf(r)
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, r)
	}
	return out
}

// dedupKey identifies a fully-selected row for duplicate collapsing.
type dedupKey struct {
	groupKey
	dxDate    time.Time
	eventDate time.Time
}

func dedupRows(rows []Row) []Row {
	seen := make(map[dedupKey]struct{}, len(rows))
	var out []Row
	for _, r := range rows {
		k := dedupKey{groupKey: keyOf(r)}
		if r.DiagnosisDate != nil {
			k.dxDate = *r.DiagnosisDate
		}
		if r.EventDate != nil {
			k.eventDate = *r.EventDate
		}
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, r)
	}
	return out
}
