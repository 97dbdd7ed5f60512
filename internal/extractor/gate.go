package extractor

import (
	"fmt"
	"strings"
)

// MismatchError reports that the certificate belongs to a different
// taxpayer than the client record it was about to be merged into. Both
// values are carried verbatim so the caller can show them to the user.
type MismatchError struct {
	Extracted string
	Known     string
}

func (e *MismatchError) Error() string {
	return fmt.Sprintf("taxpayer id mismatch: extracted %q, known %q", e.Extracted, e.Known)
}

// CheckTaxpayerID is the identity consistency gate that runs once,
// before any merge. When both IDs are present and differ (ignoring case
// and whitespace) it returns a *MismatchError and the caller must not
// merge any extracted field. When either side is absent there is nothing
// to compare and the gate passes. This is the extractor's only hard
// failure; every other absence is tolerated silently.
func CheckTaxpayerID(extracted, known string) error {
	a := canonicalID(extracted)
	b := canonicalID(known)
	if a == "" || b == "" {
		return nil
	}
	if a != b {
		return &MismatchError{Extracted: extracted, Known: known}
	}
	return nil
}

func canonicalID(s string) string {
	return strings.ToUpper(strings.Join(strings.Fields(s), ""))
}
