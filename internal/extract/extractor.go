package extract

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/rheelab/ryland/internal/logging"
)

// Input is one document presented for extraction.
type Input struct {
	// Text is the note body. Absent (empty or whitespace-only) text
	// triggers the fallback-segment policy instead of a scan.
	Text string
	// ProcDesc is the procedure description used for registry lookup.
	ProcDesc string
	Category Category
	Mode     MatchMode
	// Fallback is optional substitute text (typically another column of
	// the source row) returned when Text is absent.
	Fallback string
}

// Extractor is the per-document entry point: it resolves rules from the
// registry, compiles them, and runs the scanner. It holds no mutable
// state, so one Extractor may serve any number of documents.
type Extractor struct {
	registry *Registry
	log      *logging.Logger
}

// NewExtractor wires an extractor to a registry. The logger may be nil
// for callers that want a silent engine.
func NewExtractor(registry *Registry, log *logging.Logger) *Extractor {
	if log == nil {
		log = logging.Nop()
	}
	return &Extractor{registry: registry, log: log.Named("extract")}
}

// Extract returns the segments for one document.
//
// Absent text never errors: the caller's fallback text (or a "NO INPUT
// TEXT" marker) comes back as a single segment and the registry is not
// consulted at all. Lookup and compilation errors propagate untouched;
// they are configuration bugs the caller must decide how to handle.
func (e *Extractor) Extract(ctx context.Context, in Input) ([]Segment, error) {
	if strings.TrimSpace(in.Text) == "" {
		text := in.Fallback
		if text == "" {
			text = noInputText
		}
		recordSegments(in.Category, outcomeNoInput, 1)
		e.log.Debug(ctx, "no input text, emitting fallback segment",
			zap.String("category", string(in.Category)),
			zap.String("proc_desc", in.ProcDesc))
		return []Segment{{Section: SectionFallbackText, Text: text}}, nil
	}

	rules, err := e.registry.Lookup(in.Category, in.ProcDesc, in.Mode)
	if err != nil {
		return nil, err
	}
	compiled, err := CompileAll(rules)
	if err != nil {
		return nil, err
	}

	segments, stats := Scan(in.Text, compiled, in.Category)
	recordScan(in.Category, stats)
	e.log.Debug(ctx, "scanned document",
		zap.String("category", string(in.Category)),
		zap.String("proc_desc", in.ProcDesc),
		zap.Int("matches", stats.Matches),
		zap.Int("segments", stats.Emitted),
		zap.Int("excluded", stats.Excluded),
		zap.Bool("fallback", stats.Fallback))
	return segments, nil
}
