package extractor

import "regexp"

// Address sub-field patterns. They run only inside the registered
// domicile block, so the "capture up to the next label" primaries can
// rely on the certificate's fixed label order; the looser fallbacks
// cover certificates where a label is missing and the order shifts.
var (
	postalCodePatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)C[óo]digo Postal:? ?(\d{5})`),
		regexp.MustCompile(`(?i)\bC\.?P\.?:? ?(\d{5})`),
	}

	streetTypePatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)Tipo de Vialidad:? (.+?) Nombre de Vialidad`),
		regexp.MustCompile(`(?i)Tipo de Vialidad:? (\p{L}+(?: \p{L}+)?)`),
	}

	streetNamePatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)Nombre de Vialidad:? (.+?) N[úu]mero Exterior`),
		regexp.MustCompile(`(?i)Nombre de Vialidad:? (.+?) N[úu]mero`),
	}

	exteriorNumberPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)N[úu]mero Exterior:? ?([\w/-]+)`),
	}

	interiorNumberPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)N[úu]mero Interior:? ?([\w/-]+)`),
	}

	neighborhoodPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)Nombre de la Colonia:? (.+?) Nombre de la Localidad`),
		regexp.MustCompile(`(?i)Colonia:? (.+?) Nombre de`),
	}

	localityPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)Nombre de la Localidad:? (.+?) Nombre del Municipio`),
		regexp.MustCompile(`(?i)Localidad:? (.+?) Nombre de`),
	}

	municipalityPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)Nombre del Municipio o Demarcaci[óo]n Territorial:? (.+?) Nombre de la Entidad`),
		regexp.MustCompile(`(?i)Municipio:? (.+?) Nombre de`),
	}

	statePatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)Nombre de la Entidad Federativa:? (.+?)(?: Entre Calle| Y Calle|$)`),
		regexp.MustCompile(`(?i)Entidad Federativa:? (.+?)(?: Entre Calle| Y Calle|$)`),
	}

	crossStreetsPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)Entre Calles?:? (.+)$`),
	}
)

// extractAddress pulls the domicile sub-fields from the dedicated block.
// It returns nil when the block heading is missing or no sub-field
// matched, so the aggregate result carries an unset address rather than
// an empty one.
func extractAddress(text string) *Address {
	span, ok := sectionSpan(text, addressHeadingRe, []*regexp.Regexp{
		activitiesHeadingRe, regimesHeadingRe, obligationsHeadingRe,
	})
	if !ok {
		return nil
	}

	a := Address{
		PostalCode:     firstMatch(span, postalCodePatterns),
		StreetType:     firstMatch(span, streetTypePatterns),
		StreetName:     firstMatch(span, streetNamePatterns),
		ExteriorNumber: firstMatch(span, exteriorNumberPatterns),
		InteriorNumber: firstMatch(span, interiorNumberPatterns),
		Neighborhood:   firstMatch(span, neighborhoodPatterns),
		Locality:       firstMatch(span, localityPatterns),
		Municipality:   firstMatch(span, municipalityPatterns),
		State:          firstMatch(span, statePatterns),
		CrossStreets:   firstMatch(span, crossStreetsPatterns),
	}
	if a == (Address{}) {
		return nil
	}
	return &a
}
