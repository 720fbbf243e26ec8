package extract

import (
	"errors"
	"fmt"
	"regexp"
)

// Errors surfaced by registry lookup and rule compilation. Lookup and
// compilation failures are configuration bugs: callers are expected to
// stop the run, not retry.
var (
	ErrUnknownCategory  = errors.New("unknown note category")
	ErrUnknownProcDesc  = errors.New("unknown procedure description")
	ErrNoFuzzyMatch     = errors.New("no fuzzy match for procedure description")
	ErrInvalidMatchMode = errors.New("match mode must be exact or fuzzy")
	ErrInvalidRule      = errors.New("invalid extraction rule")
)

// Registry holds the extraction rule tables, keyed by note category and
// procedure description. Content is domain configuration loaded from
// data (see mappings.go); the registry is read-only after construction.
type Registry struct {
	categories map[Category][]entry
}

// entry is one registered procedure description with its rules and the
// pre-built fuzzy key matcher. The wildcard key has no matcher.
type entry struct {
	procDesc string
	keyRegex *regexp.Regexp
	rules    []Rule
}

// NewRegistry builds a registry from per-category rule sets. Rule sets
// keep their declaration order. Every rule and every fuzzy key is
// validated up front so malformed configuration fails at load time,
// not mid-scan.
func NewRegistry(sets map[Category][]RuleSet) (*Registry, error) {
	r := &Registry{categories: make(map[Category][]entry, len(sets))}
	for cat, ruleSets := range sets {
		switch cat {
		case CategoryPathology, CategoryImaging, CategoryProgress:
		default:
			return nil, fmt.Errorf("%w: %q", ErrUnknownCategory, cat)
		}
		entries := make([]entry, 0, len(ruleSets))
		for _, rs := range ruleSets {
			if rs.ProcDesc == "" {
				return nil, fmt.Errorf("%w: empty proc_desc key in %s mappings", ErrInvalidRule, cat)
			}
			for _, rule := range rs.Rules {
				if err := validateRule(rule); err != nil {
					return nil, fmt.Errorf("%s mappings, key %q: %w", cat, rs.ProcDesc, err)
				}
			}
			e := entry{procDesc: rs.ProcDesc, rules: rs.Rules}
			if rs.ProcDesc != Wildcard {
				// Keys double as case-insensitive patterns under fuzzy
				// lookup, mirroring how they are authored.
				re, err := regexp.Compile("(?i)" + rs.ProcDesc)
				if err != nil {
					return nil, fmt.Errorf("%w: proc_desc key %q: %v", ErrInvalidRule, rs.ProcDesc, err)
				}
				e.keyRegex = re
			}
			entries = append(entries, e)
		}
		r.categories[cat] = entries
	}
	return r, nil
}

// validateRule enforces the rule invariants: a non-empty start keyword,
// a recognized condition, and an exclude-after keyword whenever the
// condition is exclude.
func validateRule(rule Rule) error {
	if rule.Start == "" {
		return fmt.Errorf("%w: empty start keyword", ErrInvalidRule)
	}
	switch ConditionKind(rule.Condition) {
	case ConditionNone:
	case ConditionExclude:
		if rule.ExcludeAfter == "" {
			return fmt.Errorf("%w: condition %q requires exclude_after", ErrInvalidRule, rule.Condition)
		}
	default:
		return fmt.Errorf("%w: unknown condition %q", ErrInvalidRule, rule.Condition)
	}
	return nil
}

// Categories returns the categories with registered rule sets.
func (r *Registry) Categories() []Category {
	cats := make([]Category, 0, len(r.categories))
	for cat := range r.categories {
		cats = append(cats, cat)
	}
	return cats
}

// Lookup resolves the ordered rule list for a procedure description.
//
// Under MatchExact the description must equal a registered key.
// Under MatchFuzzy keys are tried in declaration order: the wildcard
// always matches, any other key matches as a case-insensitive pattern
// against the description. If nothing matches, the wildcard (when
// registered) is the fallback.
func (r *Registry) Lookup(cat Category, procDesc string, mode MatchMode) ([]Rule, error) {
	entries, ok := r.categories[cat]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownCategory, cat)
	}

	switch mode {
	case MatchExact:
		for _, e := range entries {
			if e.procDesc == procDesc {
				return e.rules, nil
			}
		}
		return nil, fmt.Errorf("%w: %q", ErrUnknownProcDesc, procDesc)

	case MatchFuzzy:
		for _, e := range entries {
			// The wildcard matches everything, so the first one reached
			// in declaration order also serves as the fallback.
			if e.procDesc == Wildcard || e.keyRegex.MatchString(procDesc) {
				return e.rules, nil
			}
		}
		return nil, fmt.Errorf("%w: %q", ErrNoFuzzyMatch, procDesc)

	default:
		return nil, fmt.Errorf("%w: got %q", ErrInvalidMatchMode, mode)
	}
}
