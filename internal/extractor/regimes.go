package extractor

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

const (
	// regimeNamePrefix is the canonical prefix every regime name begins
	// with; it is prepended when the captured name lacks it.
	regimeNamePrefix = "Régimen"

	// regimeDateGap is the pairing threshold: a date starting fewer than
	// this many characters after the previous date ends is that row's
	// end date rather than the next row's start date.
	regimeDateGap = 15

	// minRegimeNameLen guards against empty or garbage spans between
	// adjacent dates being taken for regime names. The cutoff applies to
	// the trimmed span before the canonical prefix is ensured; after
	// prefixing every name would clear it trivially.
	minRegimeNameLen = 5
)

var (
	regimeHeaderRe = regexp.MustCompile(`(?i)R[ée]gimen Fecha Inicio(?: Fecha Fin(?:al)?)?`)

	dateRe = regexp.MustCompile(`\d{2}/\d{2}/\d{4}`)
)

const regimeNameTrimSet = " .,;:·|-"

// segmentRegimes recovers the fiscal-regimes table. The table has no
// reliable per-field delimiter — regime names are free text that can
// itself contain numbers — so segmentation anchors on the one
// structurally reliable token, the DD/MM/YYYY date. Pairing an end date
// to a row by character gap is a heuristic: an end date that happens to
// fall within regimeDateGap of an unrelated following row's start date
// will be mis-paired. That is an accepted tradeoff, tested explicitly,
// not a defect to fix with table-structure detection (none survives
// text extraction).
func segmentRegimes(text string) []Regime {
	span, ok := sectionSpan(text, regimesHeadingRe, []*regexp.Regexp{obligationsHeadingRe})
	if !ok {
		return nil
	}
	span = regimeHeaderRe.ReplaceAllString(span, " ")

	locs := dateRe.FindAllStringIndex(span, -1)

	var out []Regime
	prevEnd := 0
	for i := 0; i < len(locs); i++ {
		name := strings.Trim(Normalize(span[prevEnd:locs[i][0]]), regimeNameTrimSet)
		row := Regime{StartDate: span[locs[i][0]:locs[i][1]]}

		// A date starting within the gap is this row's end date and is
		// consumed here: it never becomes the start of its own row.
		if i+1 < len(locs) && locs[i+1][0]-locs[i][1] < regimeDateGap {
			row.EndDate = span[locs[i+1][0]:locs[i+1][1]]
			prevEnd = locs[i+1][1]
			i++
		} else {
			prevEnd = locs[i][1]
		}

		if utf8.RuneCountInString(name) <= minRegimeNameLen {
			continue
		}
		row.Name = ensureRegimePrefix(name)
		out = append(out, row)
	}
	return out
}

// ensureRegimePrefix prepends the canonical prefix when the name does
// not already start with it (case-insensitive). The check only looks at
// the very start: a name that contains the prefix mid-string still gets
// one prepended, doubling it. That observed behavior is kept as-is and
// pinned by a test.
func ensureRegimePrefix(name string) string {
	if strings.HasPrefix(strings.ToLower(name), strings.ToLower(regimeNamePrefix)) {
		return name
	}
	return regimeNamePrefix + " " + name
}
