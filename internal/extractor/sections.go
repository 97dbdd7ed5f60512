package extractor

import "regexp"

// Section headings of the certificate. Each segmenter works on the span
// between its own heading and the next heading found after it (or end
// of text).
var (
	addressHeadingRe     = regexp.MustCompile(`(?i)datos del domicilio registrado:?`)
	activitiesHeadingRe  = regexp.MustCompile(`(?i)actividades econ[óo]micas:?`)
	regimesHeadingRe     = regexp.MustCompile(`(?i)reg[íi]menes:?`)
	obligationsHeadingRe = regexp.MustCompile(`(?i)obligaciones:?`)
)

// sectionSpan returns the text between the end of the first match of
// heading and the earliest following match of any heading in next, or
// the end of text. ok is false when the section heading is absent, in
// which case the section's segmenter yields nothing — a normal outcome,
// not an error.
func sectionSpan(text string, heading *regexp.Regexp, next []*regexp.Regexp) (span string, ok bool) {
	loc := heading.FindStringIndex(text)
	if loc == nil {
		return "", false
	}
	start := loc[1]
	end := len(text)
	for _, re := range next {
		if m := re.FindStringIndex(text[start:]); m != nil && start+m[0] < end {
			end = start + m[0]
		}
	}
	return text[start:end], true
}
