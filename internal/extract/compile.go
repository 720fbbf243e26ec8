package extract

import (
	"fmt"
	"regexp"
	"strings"
)

// CompiledRule is the immutable, matchable form of a Rule. Start and
// end keywords are escaped before compilation, so rule authors never
// write regex.
type CompiledRule struct {
	section      string
	start        *regexp.Regexp
	end          *regexp.Regexp // nil: segment runs to end of document
	cond         ConditionKind
	excludeAfter *regexp.Regexp
}

// Section returns the label emitted for segments this rule extracts,
// which is the rule's start keyword.
func (c CompiledRule) Section() string { return c.section }

// Compile prepares a single rule for scanning. Compile is pure and
// idempotent. Keywords are literal strings, so a construction failure
// here means the rule definition itself is malformed.
func Compile(rule Rule) (CompiledRule, error) {
	if err := validateRule(rule); err != nil {
		return CompiledRule{}, err
	}

	start, err := regexp.Compile(regexp.QuoteMeta(rule.Start))
	if err != nil {
		return CompiledRule{}, fmt.Errorf("%w: start keyword %q: %v", ErrInvalidRule, rule.Start, err)
	}

	c := CompiledRule{
		section: rule.Start,
		start:   start,
		cond:    ConditionKind(rule.Condition),
	}

	// All end keywords collapse into one alternation. An empty end list
	// leaves c.end nil: the segment runs to the end of the document.
	if len(rule.End) > 0 {
		quoted := make([]string, len(rule.End))
		for i, kw := range rule.End {
			quoted[i] = regexp.QuoteMeta(kw)
		}
		end, err := regexp.Compile(strings.Join(quoted, "|"))
		if err != nil {
			return CompiledRule{}, fmt.Errorf("%w: end keywords %v: %v", ErrInvalidRule, rule.End, err)
		}
		c.end = end
	}

	if c.cond == ConditionExclude {
		excl, err := regexp.Compile(regexp.QuoteMeta(rule.ExcludeAfter))
		if err != nil {
			return CompiledRule{}, fmt.Errorf("%w: exclude_after %q: %v", ErrInvalidRule, rule.ExcludeAfter, err)
		}
		c.excludeAfter = excl
	}

	return c, nil
}

// CompileAll compiles a rule list in order, failing on the first
// malformed rule.
func CompileAll(rules []Rule) ([]CompiledRule, error) {
	compiled := make([]CompiledRule, 0, len(rules))
	for i, rule := range rules {
		c, err := Compile(rule)
		if err != nil {
			return nil, fmt.Errorf("rule %d: %w", i, err)
		}
		compiled = append(compiled, c)
	}
	return compiled, nil
}
