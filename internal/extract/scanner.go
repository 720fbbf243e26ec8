package extract

import (
	"sort"
	"strings"
	"unicode"
)

// match records one occurrence of a rule's start keyword. start is the
// offset just past the keyword, i.e. where the segment body begins.
type match struct {
	section string
	start   int
	rule    *CompiledRule
}

// ScanStats summarizes one scan for callers that want observability
// without the scanner itself logging or counting anything.
type ScanStats struct {
	Matches    int  // start keyword occurrences found
	Emitted    int  // segments produced (excluding the fallback)
	Excluded   int  // segments suppressed by an exclude condition
	Overlapped int  // matches skipped for falling inside a prior segment
	Fallback   bool // whole document emitted because nothing matched
}

// Scan applies compiled rules to one document and returns its segments
// in document order. Segments never overlap; when nothing matches, the
// stripped whole document is returned as a single "ENTIRE NOTE"
// segment. Scan is pure: identical inputs yield identical output.
func Scan(text string, rules []CompiledRule, cat Category) ([]Segment, ScanStats) {
	matches := findMatches(text, rules, cat)

	var (
		stats    ScanStats
		segments []Segment
		current  int
	)
	stats.Matches = len(matches)

	for i := range matches {
		m := &matches[i]
		// Inside the previous segment: overlap suppression, not an error.
		if m.start < current {
			stats.Overlapped++
			continue
		}

		end := len(text)
		if m.rule.end != nil {
			if loc := m.rule.end.FindStringIndex(text[m.start:]); loc != nil {
				end = m.start + loc[0]
			}
		}

		// An exclude hit between the anchors means this "section" is
		// only a reference to an earlier clinical-history block; drop
		// it without advancing the sweep.
		if m.rule.cond == ConditionExclude && m.rule.excludeAfter != nil {
			if m.rule.excludeAfter.MatchString(text[m.start:end]) {
				stats.Excluded++
				continue
			}
		}

		segments = append(segments, Segment{
			Section: m.section,
			Text:    cleanSegmentText(text[m.start:end]),
		})
		stats.Emitted++
		current = end
	}

	if len(segments) == 0 {
		stats.Fallback = true
		segments = append(segments, Segment{
			Section: SectionEntireNote,
			Text:    strings.TrimSpace(text),
		})
	}

	return segments, stats
}

// findMatches locates every start keyword occurrence across all rules
// and orders them by position. The sort is stable, so ties keep rule
// order then occurrence order. Imaging reports are assumed to contain
// at most one relevant impression, so for that category only the
// earliest occurrence in the document survives.
func findMatches(text string, rules []CompiledRule, cat Category) []match {
	var matches []match
	for i := range rules {
		rule := &rules[i]
		for _, loc := range rule.start.FindAllStringIndex(text, -1) {
			matches = append(matches, match{
				section: rule.section,
				start:   loc[1],
				rule:    rule,
			})
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].start < matches[j].start
	})

	if cat == CategoryImaging && len(matches) > 1 {
		matches = matches[:1]
	}
	return matches
}

// cleanSegmentText strips the leading colon left over from the start
// keyword (ASCII or fullwidth/small variants) plus any surrounding
// whitespace.
func cleanSegmentText(s string) string {
	s = strings.TrimLeftFunc(s, func(r rune) bool {
		switch r {
		case ':', '：', '﹕', '︓':
			return true
		}
		return unicode.IsSpace(r)
	})
	return strings.TrimSpace(s)
}
