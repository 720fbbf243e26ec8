package cohort

import "strings"

// PrepTreatments merges treatment rows with demographics (optional,
// pass nil to skip), collapses the three plan fields into one treatment
// label, drops rows with no treatment at all, and keeps only rows whose
// treatment matches one of the given keywords (case-insensitive
// substring; empty keyword list keeps everything).
func PrepTreatments(txs []Treatment, info []PatientInfo, keywords []string) []TreatmentRecord {
	demo := make(map[int64]PatientInfo, len(info))
	for _, p := range info {
		if _, seen := demo[p.MRN]; !seen {
			demo[p.MRN] = p
		}
	}

	lowered := make([]string, len(keywords))
	for i, kw := range keywords {
		lowered[i] = strings.ToLower(kw)
	}

	var out []TreatmentRecord
	for _, tx := range txs {
		// Leftmost non-empty plan field names the treatment.
		treatment := tx.StdChemoPlan
		if treatment == "" {
			treatment = tx.ResearchChemoPlan
		}
		if treatment == "" {
			treatment = tx.OtherTreatmentPlan
		}
		if treatment == "" {
			continue
		}

		if len(lowered) > 0 && !containsAny(strings.ToLower(treatment), lowered) {
			continue
		}

		rec := TreatmentRecord{
			MRN:           tx.MRN,
			Treatment:     treatment,
			PlanStartDate: NaivePtr(tx.PlanStartDate),
		}
		if p, ok := demo[tx.MRN]; ok {
			rec.BirthDate = NaivePtr(p.BirthDate)
			rec.DeathDate = NaivePtr(p.DeathDate)
		}
		out = append(out, rec)
	}
	return out
}

// PrepNotes keeps only notes whose MRN appears in the treated set and
// whose report text contains at least one of the given filter strings
// (empty filter list keeps everything). Event dates are normalized.
func PrepNotes(notes []Note, treated map[int64]struct{}, textFilters []string) []Note {
	var out []Note
	for _, n := range notes {
		if _, ok := treated[n.MRN]; !ok {
			continue
		}
		if len(textFilters) > 0 && !containsAny(n.ReportText, textFilters) {
			continue
		}
		n.EventDate = NaivePtr(n.EventDate)
		out = append(out, n)
	}
	return out
}

// PrepDiagnoses drops rows with a missing MRN and normalizes diagnosis
// dates.
func PrepDiagnoses(dxs []Diagnosis) []Diagnosis {
	var out []Diagnosis
	for _, dx := range dxs {
		if dx.MRN == 0 {
			continue
		}
		dx.DiagnosisDate = NaivePtr(dx.DiagnosisDate)
		out = append(out, dx)
	}
	return out
}

// TreatedMRNs collects the set of MRNs present in prepped treatment
// records.
func TreatedMRNs(recs []TreatmentRecord) map[int64]struct{} {
	set := make(map[int64]struct{}, len(recs))
	for _, rec := range recs {
		set[rec.MRN] = struct{}{}
	}
	return set
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
