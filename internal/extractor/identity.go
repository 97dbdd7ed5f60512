package extractor

import (
	"regexp"
	"strings"
)

// Per-field pattern alternatives, tried in order; the first match wins
// and no later alternative is consulted. Labels match case-insensitively;
// captured values keep their original case except the RFC and CURP,
// which are upper-cased after capture (their canonical form is
// uppercase).
//
// The RFC and CURP lists end with a label-less structural pattern: both
// identifiers have a rigid, distinctive shape even without a label, so
// the fallback is legitimate, but it can false-positive on unrelated
// alphanumeric runs of the same shape. That precision/recall tradeoff is
// deliberate.
var (
	validationIDPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\bidCIF:? ?(\d+)`),
		regexp.MustCompile(`(?i)\bid\.? ?CIF:? ?(\d+)`),
	}

	taxpayerIDPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\bRFC:? ?([A-ZÑ&]{3,4}\d{6}[A-Z0-9]{3})\b`),
		regexp.MustCompile(`(?i)\bR\.F\.C\.:? ?([A-ZÑ&]{3,4}\d{6}[A-Z0-9]{3})\b`),
		regexp.MustCompile(`(?:^| )([A-ZÑ&]{3,4}\d{6}[A-Z0-9]{3})(?: |$)`),
	}

	personalIDPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\bCURP:? ?([A-Z][AEIOUX][A-Z]{2}\d{6}[HM][A-Z]{5}[A-Z0-9]\d)\b`),
		regexp.MustCompile(`(?:^| )([A-Z][AEIOUX][A-Z]{2}\d{6}[HM][A-Z]{5}[A-Z0-9]\d)(?: |$)`),
	}

	givenNamesPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)Nombre ?\(s\) ?:? (.+?) Primer Apellido`),
		regexp.MustCompile(`(?i)\bNombres?:? ([\p{Lu}]+(?: [\p{Lu}]+){0,3})`),
	}

	firstSurnamePatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)Primer Apellido:? (.+?) Segundo Apellido`),
		regexp.MustCompile(`(?i)Primer Apellido:? ([\p{Lu}]+(?: [\p{Lu}]+){0,3})`),
	}

	secondSurnamePatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)Segundo Apellido:? (.+?) Fecha`),
		regexp.MustCompile(`(?i)Segundo Apellido:? ([\p{Lu}]+(?: [\p{Lu}]+){0,3})`),
	}

	registrationStatusPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)Estatus en el padr[óo]n:? (\p{L}+)`),
		regexp.MustCompile(`(?i)\bEstatus:? (\p{L}+)`),
	}

	// Date values come in three forms depending on certificate vintage:
	// DD/MM/YYYY, spelled month ("15 DE MARZO DE 2010"), or ISO. The
	// value is kept exactly as matched.
	operationsStartDatePatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)Fecha (?:de )?inicio de operaciones:? (\d{2}/\d{2}/\d{4})`),
		regexp.MustCompile(`(?i)Fecha (?:de )?inicio de operaciones:? (\d{1,2} de \p{L}+ de \d{4})`),
		regexp.MustCompile(`(?i)Fecha (?:de )?inicio de operaciones:? (\d{4}-\d{2}-\d{2})`),
	}

	lastStatusChangePatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)Fecha de [úu]ltimo cambio de estado:? (\d{2}/\d{2}/\d{4})`),
		regexp.MustCompile(`(?i)Fecha de [úu]ltimo cambio de estado:? (\d{1,2} de \p{L}+ de \d{4})`),
		regexp.MustCompile(`(?i)Fecha de [úu]ltimo cambio de estado:? (\d{4}-\d{2}-\d{2})`),
	}
)

func extractIdentity(r *Result, text string) {
	r.ValidationID = firstMatch(text, validationIDPatterns)
	r.TaxpayerID = strings.ToUpper(firstMatch(text, taxpayerIDPatterns))
	r.PersonalID = strings.ToUpper(firstMatch(text, personalIDPatterns))
	r.GivenNames = firstMatch(text, givenNamesPatterns)
	r.FirstSurname = firstMatch(text, firstSurnamePatterns)
	r.SecondSurname = firstMatch(text, secondSurnamePatterns)
	r.RegistrationStatus = firstMatch(text, registrationStatusPatterns)
	r.OperationsStartDate = firstMatch(text, operationsStartDatePatterns)
	r.LastStatusChangeDate = firstMatch(text, lastStatusChangePatterns)
}

// firstMatch evaluates the alternatives short-circuit: the first
// pattern whose first capture group matches decides the field.
func firstMatch(text string, patterns []*regexp.Regexp) string {
	for _, re := range patterns {
		if m := re.FindStringSubmatch(text); len(m) > 1 {
			return strings.TrimSpace(m[1])
		}
	}
	return ""
}
