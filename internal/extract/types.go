// Package extract locates keyword-delimited sections in free-text
// clinical notes (pathology, imaging, progress notes) and slices out
// bounded, non-overlapping segments for downstream LLM analysis.
//
// Extraction is driven entirely by data: a Registry maps a note
// category and procedure description to an ordered rule list, rules are
// compiled into matchers, and a scanner sweeps the document emitting
// Segments. The engine carries no clinical vocabulary of its own.
package extract

// Category identifies the kind of clinical note being scanned.
type Category string

const (
	CategoryPathology Category = "pathology"
	CategoryImaging   Category = "imaging"
	CategoryProgress  Category = "progress"
)

// MatchMode controls how a procedure description is resolved against
// registered rule sets.
type MatchMode string

const (
	// MatchExact requires the procedure description to equal a
	// registered key verbatim.
	MatchExact MatchMode = "exact"
	// MatchFuzzy resolves the first registered key that matches the
	// procedure description as a case-insensitive pattern, with "*"
	// acting as a wildcard.
	MatchFuzzy MatchMode = "fuzzy"
)

// Wildcard is the reserved registry key that matches any procedure
// description under MatchFuzzy.
const Wildcard = "*"

// ConditionKind tags the optional condition attached to a rule.
// Modeled as a tagged variant so new condition types can be added
// without touching the scanner's sweep.
type ConditionKind string

const (
	// ConditionNone extracts the segment unconditionally.
	ConditionNone ConditionKind = ""
	// ConditionExclude suppresses the segment when the rule's
	// exclude-after keyword appears between the start and end anchors.
	ConditionExclude ConditionKind = "exclude"
)

// Rule is one raw extraction rule as it appears in configuration.
// Start and End keywords are literal strings, not user regex.
type Rule struct {
	Start        string   `koanf:"start" json:"start"`
	End          []string `koanf:"end" json:"end"`
	Condition    string   `koanf:"condition" json:"condition,omitempty"`
	ExcludeAfter string   `koanf:"exclude_after" json:"exclude_after,omitempty"`
}

// RuleSet binds an ordered rule list to a procedure description key.
// Declaration order is significant under MatchFuzzy, so rule sets are
// kept as a slice rather than a map.
type RuleSet struct {
	ProcDesc string `koanf:"proc_desc" json:"proc_desc"`
	Rules    []Rule `koanf:"rules" json:"rules"`
}

// Segment is one labeled sub-span extracted from a note.
type Segment struct {
	Section string `json:"SECTION"`
	Text    string `json:"SECTION_TEXT"`
}

// Reserved section labels emitted by the engine itself.
const (
	// SectionEntireNote labels the whole-document fallback emitted
	// when no rule matched.
	SectionEntireNote = "ENTIRE NOTE"
	// SectionFallbackText labels the segment emitted when the input
	// text itself is absent.
	SectionFallbackText = "FALLBACK TEXT"
)

// noInputText is the segment body used when the input text is absent
// and no caller-supplied fallback exists.
const noInputText = "NO INPUT TEXT"
