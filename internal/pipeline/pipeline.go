// Package pipeline runs the batch workflow: align notes to patient
// timelines, extract keyword-delimited segments from each selected
// note, and explode the per-document segment lists into one output row
// per segment.
package pipeline

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/rheelab/ryland/internal/cohort"
	"github.com/rheelab/ryland/internal/config"
	"github.com/rheelab/ryland/internal/extract"
	"github.com/rheelab/ryland/internal/logging"
)

// Inputs are the source tables for one batch.
type Inputs struct {
	Notes      []cohort.Note
	Treatments []cohort.Treatment
	Diagnoses  []cohort.Diagnosis
	Patients   []cohort.PatientInfo
}

// Row is one output record: the aligned cohort row plus one extracted
// segment.
type Row struct {
	cohort.Row
	Section     string `json:"SECTION"`
	SectionText string `json:"SECTION_TEXT"`
}

// Result is the outcome of one batch run.
type Result struct {
	RunID string `json:"run_id"`
	Rows  []Row  `json:"rows"`
}

// Options tune per-run behavior.
type Options struct {
	// Category selects which rule table scans the notes.
	Category extract.Category
	// FirstOnly keeps only the first segment per document instead of
	// exploding all of them.
	FirstOnly bool
	// OfInterestOnly pre-filters notes to the category's shipped
	// procedure descriptions of interest before extraction.
	OfInterestOnly bool
}

// Pipeline wires the configuration, the extraction engine, and the
// timeline aligner together.
type Pipeline struct {
	cfg       *config.Config
	extractor *extract.Extractor
	filters   extract.Filters
	log       *logging.Logger
}

// New builds a pipeline from configuration. The registry and filter
// lists come from the configured mappings file or the embedded
// defaults.
func New(cfg *config.Config, log *logging.Logger) (*Pipeline, error) {
	registry, err := cfg.Registry()
	if err != nil {
		return nil, err
	}
	filters, err := cfg.Filters()
	if err != nil {
		return nil, err
	}
	if log == nil {
		log = logging.Nop()
	}
	return &Pipeline{
		cfg:       cfg,
		extractor: extract.NewExtractor(registry, log),
		filters:   filters,
		log:       log.Named("pipeline"),
	}, nil
}

// Run aligns the input tables into a cohort, extracts segments from
// every selected note, and returns the exploded rows. Registry and rule
// errors abort the run: they are configuration bugs, not per-row
// conditions. Absent note text never fails; it falls back to the
// narrative text column or a marker segment.
func (p *Pipeline) Run(ctx context.Context, in Inputs, opts Options) (*Result, error) {
	runID := uuid.NewString()
	ctx = logging.WithRunID(ctx, runID)

	params := cohort.Params{
		TreatmentKeywords:       p.cfg.Cohort.TreatmentKeywords,
		ProgressNoteTextFilters: p.cfg.Cohort.ProgressNoteTextFilters,
		EarliestDataDate:        cohort.ParseDate(p.cfg.Cohort.EarliestDataDate),
		DaysDiffWobble:          p.cfg.Cohort.DaysDiffWobble,
		DaysPostTx:              p.cfg.Cohort.DaysPostTx,
	}
	aligned := cohort.FilterProgressNotes(ctx, in.Notes, in.Treatments, in.Patients, in.Diagnoses, params, p.log)

	rows, err := p.explode(ctx, aligned, opts)
	if err != nil {
		return nil, err
	}

	p.log.Info(ctx, "batch complete",
		zap.Int("cohort_rows", len(aligned)),
		zap.Int("output_rows", len(rows)))
	return &Result{RunID: runID, Rows: rows}, nil
}

// ExtractNotes runs extraction alone over already-selected notes,
// without timeline alignment. Used for pathology and imaging batches
// where the cohort is assembled elsewhere.
func (p *Pipeline) ExtractNotes(ctx context.Context, notes []cohort.Note, opts Options) (*Result, error) {
	runID := uuid.NewString()
	ctx = logging.WithRunID(ctx, runID)

	if opts.OfInterestOnly {
		notes = keepOfInterest(notes, p.filters.ProcDescs(opts.Category))
	}

	rows := make([]cohort.Row, 0, len(notes))
	for _, n := range notes {
		rows = append(rows, cohort.Row{
			MRN:           n.MRN,
			ProcDesc:      n.ProcDesc,
			EventDate:     n.EventDate,
			ReportText:    n.ReportText,
			NarrativeText: n.NarrativeText,
		})
	}

	out, err := p.explode(ctx, rows, opts)
	if err != nil {
		return nil, err
	}
	return &Result{RunID: runID, Rows: out}, nil
}

// keepOfInterest drops notes whose proc desc is not in the of-interest
// list. An empty list keeps everything.
func keepOfInterest(notes []cohort.Note, procDescs []string) []cohort.Note {
	if len(procDescs) == 0 {
		return notes
	}
	wanted := make(map[string]struct{}, len(procDescs))
	for _, pd := range procDescs {
		wanted[pd] = struct{}{}
	}
	var out []cohort.Note
	for _, n := range notes {
		if _, ok := wanted[n.ProcDesc]; ok {
			out = append(out, n)
		}
	}
	return out
}

// explode extracts segments for each cohort row and emits one output
// row per segment (or per document when FirstOnly is set).
func (p *Pipeline) explode(ctx context.Context, aligned []cohort.Row, opts Options) ([]Row, error) {
	var out []Row
	for _, r := range aligned {
		segments, err := p.extractor.Extract(ctx, extract.Input{
			Text:     r.ReportText,
			ProcDesc: r.ProcDesc,
			Category: opts.Category,
			Mode:     extract.MatchMode(p.cfg.Extraction.MatchMode),
			Fallback: r.NarrativeText,
		})
		if err != nil {
			return nil, err
		}
		if opts.FirstOnly && len(segments) > 1 {
			segments = segments[:1]
		}
		for _, seg := range segments {
			out = append(out, Row{Row: r, Section: seg.Section, SectionText: seg.Text})
		}
	}
	return out, nil
}
