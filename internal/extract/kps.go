package extract

import (
	"regexp"
	"strconv"
)

// KPS (Karnofsky Performance Status) appears in progress notes in
// several spellings. The combined KPS/ECOG form is tried first so that
// "KPS/ECOG: 90/0" yields 90, not 0.
var (
	kpsComboRegex   = regexp.MustCompile(`(?i)KPS\s*/\s*ECOG\s*[:=\-]?\s*([0-9]{1,3})`)
	kpsGeneralRegex = regexp.MustCompile(`(?i)KPS(?:\s*score)?\s*[:=\- ]*\s*([0-9]{1,3})`)
)

// KPSScore pulls a Karnofsky Performance Status score out of free text.
// Handles forms like "KPS: 90", "KPS/ECOG: 90/0", "KPS/ECOG 100/1" and
// "KPS score = 80". The second return is false when no score is found.
func KPSScore(text string) (int, bool) {
	for _, re := range []*regexp.Regexp{kpsComboRegex, kpsGeneralRegex} {
		if m := re.FindStringSubmatch(text); m != nil {
			score, err := strconv.Atoi(m[1])
			if err != nil {
				continue
			}
			return score, true
		}
	}
	return 0, false
}
