package extractor

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// minObligationDescLen is the cutoff below which the text between two
// deadline clauses is too short to be a real obligation description.
const minObligationDescLen = 5

var (
	obligationHeaderRe = regexp.MustCompile(`(?i)Descripci[óo]n de la Obligaci[óo]n Descripci[óo]n Vencimiento Fecha Inicio(?: Fecha Fin(?:al)?)?`)

	// The deadline clause is lexically stable across certificates
	// ("a más tardar ..."), which makes it a better anchor than raw
	// dates: the due-description free text may contain day numbers, and
	// unlike the regime table there is a fixed phrase to hang on to.
	// Group 1 is the due-description, groups 2 and 3 the row's start and
	// optional end date.
	obligationAnchorRe = regexp.MustCompile(`(?i)(a m[áa]s tardar.*?) ?(\d{2}/\d{2}/\d{4})(?: (\d{2}/\d{2}/\d{4}))?`)

	leadingDatesRe = regexp.MustCompile(`^(?:\d{2}/\d{2}/\d{4} ?)+`)
)

func segmentObligations(text string) []Obligation {
	span, ok := sectionSpan(text, obligationsHeadingRe, nil)
	if !ok {
		return nil
	}
	span = obligationHeaderRe.ReplaceAllString(span, " ")

	matches := obligationAnchorRe.FindAllStringSubmatchIndex(span, -1)

	var out []Obligation
	prevEnd := 0
	for _, m := range matches {
		// The description is whatever sits between the previous row's
		// match and this row's anchor, minus any date text the previous
		// row left behind.
		desc := span[prevEnd:m[0]]
		desc = leadingDatesRe.ReplaceAllString(strings.TrimSpace(desc), "")
		desc = Normalize(desc)
		prevEnd = m[1]

		if utf8.RuneCountInString(desc) <= minObligationDescLen {
			continue
		}

		row := Obligation{
			Description:    desc,
			DueDescription: strings.TrimSpace(span[m[2]:m[3]]),
			StartDate:      span[m[4]:m[5]],
		}
		if m[6] >= 0 {
			row.EndDate = span[m[6]:m[7]]
		}
		out = append(out, row)
	}
	return out
}
