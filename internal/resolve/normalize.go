package resolve

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// streetTypes maps common street-type abbreviations to their canonical
// long form. Canonical forms map to themselves so tokenization is
// idempotent.
var streetTypes = map[string]string{
	"st":        "street",
	"street":    "street",
	"rd":        "road",
	"road":      "road",
	"ave":       "avenue",
	"av":        "avenue",
	"avenue":    "avenue",
	"hwy":       "highway",
	"highway":   "highway",
	"pde":       "parade",
	"parade":    "parade",
	"cres":      "crescent",
	"cr":        "crescent",
	"crescent":  "crescent",
	"dr":        "drive",
	"drive":     "drive",
	"pl":        "place",
	"place":     "place",
	"ct":        "court",
	"court":     "court",
	"ln":        "lane",
	"lane":      "lane",
	"blvd":      "boulevard",
	"boulevard": "boulevard",
	"tce":       "terrace",
	"terrace":   "terrace",
	"cl":        "close",
	"close":     "close",
	"esp":       "esplanade",
	"esplanade": "esplanade",
	"wy":        "way",
	"way":       "way",
}

// NormalizeQuery trims and collapses whitespace, applies NFC, and
// appends the jurisdiction qualifier when the input does not already
// mention it. Provider queries are always built from the normalized
// form so a bare street address still geocodes inside the right state.
func NormalizeQuery(input, jurisdiction string) string {
	q := norm.NFC.String(strings.Join(strings.Fields(input), " "))
	if q == "" || jurisdiction == "" {
		return q
	}
	lower := strings.ToLower(q)
	for _, tok := range strings.Fields(lower) {
		if strings.Trim(tok, ",.") == strings.ToLower(jurisdiction) {
			return q
		}
	}
	return q + " " + jurisdiction
}

// tokenize lowercases, splits on non-alphanumeric runs and canonicalizes
// street-type abbreviations so "rd" and "Road" compare equal.
func tokenize(s string) []string {
	s = strings.ToLower(norm.NFC.String(s))
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		if canon, ok := streetTypes[f]; ok {
			f = canon
		}
		out = append(out, f)
	}
	return out
}

// splitStreetLocality divides a tokenized address at the first
// street-type token. The street segment includes everything up to and
// including that token; the remainder is treated as the locality
// segment. Either segment may be empty when no street type is present.
func splitStreetLocality(tokens []string) (street, locality []string) {
	for i, tok := range tokens {
		if _, ok := streetTypes[tok]; ok {
			return tokens[:i+1], tokens[i+1:]
		}
	}
	return nil, tokens
}

// streetName strips leading house or lot numbers and the trailing
// street-type token from a street segment, leaving the bare name.
func streetName(street []string) []string {
	for len(street) > 0 && isNumeric(street[0]) {
		street = street[1:]
	}
	if len(street) > 0 {
		if _, ok := streetTypes[street[len(street)-1]]; ok {
			street = street[:len(street)-1]
		}
	}
	return street
}

func isNumeric(s string) bool {
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return s != ""
}
