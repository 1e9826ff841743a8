// Package normalizer strips address, phone, and store-number contamination
// from merchant strings extracted by the upstream statement parser. The
// parser is inconsistent: the same payee arrives as "CUB FOODS" on one
// statement and "CUB FOODS #01693 1104 LAGOON AVE MINNEAPOLIS 55408 MN USA"
// on the next. Normalize reduces both to the same key.
package normalizer

import (
	"regexp"
	"strings"
)

// contaminationPattern is one entry in the ordered cascade. The name exists
// for tests and debug logs; matching is position-based truncation.
type contaminationPattern struct {
	name string
	re   *regexp.Regexp
}

// parentheticalRe strips "(RETURN)" style suffixes. It runs before the
// cascade, unconditionally.
var parentheticalRe = regexp.MustCompile(`\s*\([^)]*\)\s*$`)

// cascade is ordered most specific to least specific. Normalize truncates at
// the FIRST match: a later, broader pattern must never claim text that an
// earlier pattern owns. Keep this a slice; ordering is load-bearing.
var cascade = []contaminationPattern{
	// Store/transaction numbers: "#1234", or a bare 4+ digit run before more text.
	{"store-number", regexp.MustCompile(`\s+(?:#\d+|\d{4,}\s)`)},

	// Short letter code glued to digits: " QPS1100", " SUBSCR548", " ADS2070699131".
	{"letter-code", regexp.MustCompile(`\s+[A-Z]{1,3}\d{3,}(?:\s|$)`)},

	// Phone-length digit runs.
	{"phone", regexp.MustCompile(`\s+\d{7,10}(?:\s|$|-|/)`)},

	// Building number followed by a known street word.
	{"building-number", regexp.MustCompile(`\s+\d{1,4}\s+(?:WOOD|BLACK|OPTUM|LYNDALE|LAGOON|LAKE|LINDEN|2ND|1ST|3RD|4TH|5TH|WASHINGTON|FULTON|MERIDIAN|MCKNIGHT|HENNEPIN|BLOOMINGTON|AVE|ST|BLVD|DRIVE|STREET|CIRCLE|SUITE|STE|APT|FLOOR|FLO|ROAD|RD|WAY|LANE|LN|EAST|WEST|BRICKELL|RUA|AV|AVENIDA|W\.|E\.|S\.|N\.)`)},

	// Directional street address: "123 N MAIN ST".
	{"street-address", regexp.MustCompile(`\s+\d+\s+(?:N|S|E|W|NW|NE|SE|SW)\s*\.?\s+(?:STREET|ST|AVENUE|AVE|BLVD|BOULEVARD|DRIVE|DR|ROAD|RD|WAY|LANE|LN|CIRCLE|CIR)`)},

	// 5-digit ZIP.
	{"zip", regexp.MustCompile(`\s+\d{5}(?:\s|$)`)},

	// Curated city list. Under-normalizes unlisted cities; accepted heuristic.
	{"city", regexp.MustCompile(`(?i)\s+(?:MINNEAPOLIS|SAINT\s+PAUL|CHICAGO|NEW\s+YORK|SAN\s+FRANCISCO|DENVER|BROOKLYN|MIAMI|SEATTLE|BOSTON|LOS\s+ANGELES|PHILADELPHIA|DALLAS|ATLANTA|HOUSTON|PHOENIX|BARUERI|PORTO\s+ALEGRE|VANCOUVER|TALLINN|QUEBEC|MONTREAL|EDINBURGH|SINGAPORE|WASHINGTON|MORRISVILLE|CEDAR\s+HILLS|SANTA\s+CLARA|LEAWOOD|COON\s+RAPIDS|BURLINGAME|SYLMAR|EDEN\s+PRAIRIE|BLOOMINGTON|BURNSVILLE|EAGAN|FALCON\s+HEIGHT|SOLANA\s+BEACH|SAINT\s+LOUIS|SAO\s+PAULO)\b`)},

	// Two-letter US state, optionally followed by USA, at end of string.
	{"state", regexp.MustCompile(`(?i)\s+(?:MN|WI|IL|CA|CO|NY|TX|FL|GA|OH|MA|PA|AZ|WA|NV|UT|NC|MO|DC)\s*(?:USA)?$`)},

	// Country codes and postal artifacts the parser leaves behind.
	{"country", regexp.MustCompile(`(?i)\s+(?:CANADA|CAN|BRAZIL|BRA|BRABRA|ISRISR|SGPSGP|DUBEST|LNDGBR|QC\s+CAN)\b`)},

	// Portuguese/Spanish street markers.
	{"latin-street", regexp.MustCompile(`(?i)\s+(?:RUA|AV|AVENIDA|PÇA|PRAÇA)\b`)},

	// Mailbox markers.
	{"mailbox", regexp.MustCompile(`(?i)\s+(?:PMB|PO\s+BOX)\b`)},

	// Any 8+ digit run: account or reference numbers.
	{"long-digits", regexp.MustCompile(`\s+\d{8,}(?:\s|$)`)},
}

// Normalize strips trailing contamination from a merchant string. It is
// deterministic, pure, and total: input that matches nothing comes back
// trimmed but otherwise unchanged.
func Normalize(text string) string {
	normalized := strings.TrimSpace(text)
	if normalized == "" {
		return normalized
	}

	normalized = strings.TrimSpace(parentheticalRe.ReplaceAllString(normalized, ""))

	for _, p := range cascade {
		if loc := p.re.FindStringIndex(normalized); loc != nil {
			return strings.TrimSpace(normalized[:loc[0]])
		}
	}

	return normalized
}

// contaminationHints are the cheap checks ingestion uses to decide whether a
// description needs cleaning at all.
var contaminationHints = []*regexp.Regexp{
	regexp.MustCompile(`\d+\s+(?:ST|AVE|BLVD|ROAD|STREET|LANE|DRIVE|RD|DR|WAY)`),
	regexp.MustCompile(`\d{5}`),
	regexp.MustCompile(`\b(?:USA|MN|CA|CO|NY|TX|FL|IL)\b`),
}

// Contaminated reports whether a description shows obvious address patterns.
func Contaminated(text string) bool {
	for _, re := range contaminationHints {
		if re.MatchString(text) {
			return true
		}
	}
	return false
}
