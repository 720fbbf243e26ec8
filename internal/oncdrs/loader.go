// Package oncdrs loads OncDRS-exported JSON note files into cohort
// note records.
package oncdrs

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/rheelab/ryland/internal/cohort"
)

// document is one entry under response.docs in an OncDRS export.
type document struct {
	MRN           int64  `json:"DFCI_MRN"`
	ProcDesc      string `json:"PROC_DESC"`
	EventDate     string `json:"EVENT_DATE"`
	ReportText    string `json:"RPT_TEXT"`
	NarrativeText string `json:"NARRATIVE_TEXT"`
}

// export mirrors the OncDRS JSON envelope.
type export struct {
	Response struct {
		Docs []document `json:"docs"`
	} `json:"response"`
}

// Parse decodes OncDRS export content into note records. Report and
// narrative text have their line endings normalized to \n, and event
// dates are coerced to timezone-naive times (unparseable dates become
// nil, not errors).
func Parse(content []byte) ([]cohort.Note, error) {
	var ex export
	if err := json.Unmarshal(content, &ex); err != nil {
		return nil, fmt.Errorf("invalid OncDRS JSON: %w", err)
	}

	notes := make([]cohort.Note, 0, len(ex.Response.Docs))
	for _, doc := range ex.Response.Docs {
		notes = append(notes, cohort.Note{
			MRN:           doc.MRN,
			ProcDesc:      doc.ProcDesc,
			EventDate:     cohort.ParseDate(doc.EventDate),
			ReportText:    NormalizeNewlines(doc.ReportText),
			NarrativeText: NormalizeNewlines(doc.NarrativeText),
		})
	}
	return notes, nil
}

// Load reads and parses an OncDRS export file.
func Load(path string) ([]cohort.Note, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read OncDRS file %s: %w", path, err)
	}
	return Parse(content)
}

// NormalizeNewlines rewrites Windows line endings, including the
// literal backslash-escaped form some exports carry inside string
// values, to Unix-style \n so downstream keyword matching behaves.
func NormalizeNewlines(text string) string {
	text = strings.ReplaceAll(text, `\r\n`, "\n")
	return strings.ReplaceAll(text, "\r\n", "\n")
}
