package phone

import (
	"regexp"
	"strings"
)

// Carrier identifies a mobile-money operator's numbering plan.
type Carrier string

const (
	CarrierMTN    Carrier = "mtn"
	CarrierOrange Carrier = "orange"
)

// Cameroonian numbering plans under country code 237. MTN lines start with
// 67 or 68, Orange lines with 69. The country code prefix is optional.
var (
	mtnPattern    = regexp.MustCompile(`^(\+?237)?6[78]\d{7}$`)
	orangePattern = regexp.MustCompile(`^(\+?237)?69\d{7}$`)
)

// Valid reports whether phoneNumber matches the carrier's numbering plan.
// Internal whitespace is ignored; no other normalization is applied.
func Valid(phoneNumber string, carrier Carrier) bool {
	n := stripSpaces(phoneNumber)
	switch carrier {
	case CarrierMTN:
		return mtnPattern.MatchString(n)
	case CarrierOrange:
		return orangePattern.MatchString(n)
	default:
		return false
	}
}

// Normalize converts a phone number to the subscriber-identifier form the
// provider APIs expect: country-code prefixed digits with no plus sign,
// e.g. "+237 670 123 456" -> "237670123456".
func Normalize(phoneNumber string) string {
	n := strings.TrimPrefix(stripSpaces(phoneNumber), "+")
	if !strings.HasPrefix(n, "237") {
		n = "237" + n
	}
	return n
}

func stripSpaces(s string) string {
	return strings.Join(strings.Fields(s), "")
}
