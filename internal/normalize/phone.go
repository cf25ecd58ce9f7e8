// Package normalize maps raw upstream records onto the cleaned, typed
// records used for matching and ranking. Cleaning is total over
// well-formed input: documented optional fields get defaults, anything
// else missing fails loudly with a DataShapeError.
package normalize

import (
	"strconv"
	"strings"

	"github.com/nyaruka/phonenumbers"
	"golang.org/x/text/cases"
)

// defaultRegion is the dialing region assumed for numbers without a
// country code. The upstream CRMs only hold Australian customers.
const defaultRegion = "AU"

// Phone canonicalizes a phone number for cross-source matching: strips
// whitespace and the spurious ".0" suffix some exports carry, then
// rewrites the number in national form with the local trunk prefix.
//
//	"+61 412 345 678" -> "0412345678"
//	"61412345678.0"   -> "0412345678"
func Phone(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return ""
	}
	s = strings.TrimSuffix(s, ".0")
	s = strings.Join(strings.Fields(s), "")

	if num, err := phonenumbers.Parse(s, defaultRegion); err == nil && phonenumbers.IsValidNumber(num) {
		return "0" + strconv.FormatUint(num.GetNationalNumber(), 10)
	}

	// Unparseable numbers fall back to a plain country-code rewrite so
	// near-miss values still compare equal across sources.
	switch {
	case strings.HasPrefix(s, "+61"):
		s = "0" + s[3:]
	case strings.HasPrefix(s, "61"):
		s = "0" + s[2:]
	}
	return strings.ToLower(s)
}

// Key folds a string for case-insensitive matching.
func Key(s string) string {
	return cases.Fold().String(strings.TrimSpace(s))
}
