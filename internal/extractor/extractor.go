// Package extractor recovers structured data from the text of a SAT
// tax-status certificate (Constancia de Situación Fiscal).
//
// The input is the concatenated, reading-order text of all pages of one
// certificate, as produced by a document text-extraction step. No
// positional or table structure survives that step, so everything here
// is pattern matching over a whitespace-normalized flat string. Fields
// that cannot be matched are left unset; partial results are expected
// and valid. The only hard failure in this package is the taxpayer-ID
// consistency gate (see CheckTaxpayerID), which is a separate call.
package extractor

// Result aggregates everything recovered from one certificate.
// Identity fields are flattened; empty string means "not found".
// The three slices preserve document order, which is not necessarily
// chronological.
type Result struct {
	ValidationID         string `json:"validationId,omitempty"`
	TaxpayerID           string `json:"taxpayerId,omitempty"`
	PersonalID           string `json:"personalId,omitempty"`
	GivenNames           string `json:"givenNames,omitempty"`
	FirstSurname         string `json:"firstSurname,omitempty"`
	SecondSurname        string `json:"secondSurname,omitempty"`
	RegistrationStatus   string `json:"registrationStatus,omitempty"`
	OperationsStartDate  string `json:"operationsStartDate,omitempty"`
	LastStatusChangeDate string `json:"lastStatusChangeDate,omitempty"`

	Address *Address `json:"address,omitempty"`

	Activities  []Activity   `json:"activities"`
	Regimes     []Regime     `json:"regimes"`
	Obligations []Obligation `json:"obligations"`
}

// Address holds the sub-fields of the registered-domicile block.
// No relationship between fields is enforced.
type Address struct {
	PostalCode     string `json:"postalCode,omitempty"`
	StreetType     string `json:"streetType,omitempty"`
	StreetName     string `json:"streetName,omitempty"`
	ExteriorNumber string `json:"exteriorNumber,omitempty"`
	InteriorNumber string `json:"interiorNumber,omitempty"`
	Neighborhood   string `json:"neighborhood,omitempty"`
	Locality       string `json:"locality,omitempty"`
	Municipality   string `json:"municipality,omitempty"`
	State          string `json:"state,omitempty"`
	CrossStreets   string `json:"crossStreets,omitempty"`
}

// Activity is one row of the declared economic-activities table.
type Activity struct {
	Order       int    `json:"order"`
	Description string `json:"description"`
	Percentage  int    `json:"percentage"`
	StartDate   string `json:"startDate"`
	EndDate     string `json:"endDate,omitempty"`
}

// Regime is one row of the fiscal-regimes table. IsDefault is never set
// by the extractor; the caller decides which regime, if any, is the
// client's default.
type Regime struct {
	Name      string `json:"name"`
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate,omitempty"`
	IsDefault bool   `json:"isDefault"`
}

// Obligation is one row of the filing-obligations table. DueDescription
// is the free-text deadline clause ("a más tardar ...").
type Obligation struct {
	Description    string `json:"description"`
	DueDescription string `json:"dueDescription"`
	StartDate      string `json:"startDate"`
	EndDate        string `json:"endDate,omitempty"`
}

// Extract runs the full extraction over raw certificate text. It never
// fails: malformed input degrades to fewer populated fields. Dates are
// returned exactly as matched (the certificate mixes DD/MM/YYYY,
// spelled-month and ISO forms); canonicalizing them is a caller concern.
func Extract(raw string) Result {
	text := Normalize(raw)

	var r Result
	extractIdentity(&r, text)
	r.Address = extractAddress(text)
	r.Activities = segmentActivities(text)
	r.Regimes = segmentRegimes(text)
	r.Obligations = segmentObligations(text)
	return r
}
