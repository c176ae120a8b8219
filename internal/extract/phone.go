package extract

import (
	"regexp"
	"strings"
)

// Numbers are bounded by a non-digit (or the text edge) on both sides so a
// longer run of digits is never cut into a shorter match.
var (
	internationalPhone = regexp.MustCompile(`(?:^|[^\d+])(` +
		`\+\d{1,3}[-.\s]?\(?\d{3}\)?[-.\s]?\d{3}[-.\s]?\d{4}` +
		`|\(\d{3}\)[-.\s]?\d{3}[-.\s]?\d{4}` +
		`|\d{3}[-.\s]\d{3}[-.\s]\d{4}` +
		`)(?:\D|$)`)
	nationalPhone = regexp.MustCompile(`(?:^|[^\d+])((?:\+?88)?[01]\d{9})(?:\D|$)`)
	mobilePhone   = regexp.MustCompile(`01[3-9]\d{8}`)
)

const countryCodeBD = "+88"

// PhoneFromAttrs reads a phone number from a listing's structured attributes:
// the value after "tel:" in the data attribute wins, then the part of the
// accessible label after its last colon.
func PhoneFromAttrs(dataItemID, ariaLabel string) string {
	if i := strings.LastIndex(dataItemID, "tel:"); i >= 0 {
		if v := strings.TrimSpace(dataItemID[i+len("tel:"):]); v != "" {
			return Transliterate(v)
		}
	}
	if i := strings.LastIndex(ariaLabel, ":"); i >= 0 {
		if v := strings.TrimSpace(ariaLabel[i+1:]); v != "" {
			return Transliterate(v)
		}
	}
	return ""
}

// InternationalPhone returns the first formatted or country-coded number in
// text, or "".
func InternationalPhone(text string) string {
	text = Transliterate(text)
	if m := internationalPhone.FindStringSubmatch(text); m != nil {
		return strings.TrimSpace(m[1])
	}
	return ""
}

// NationalPhone returns the first Bangladesh-style number in text, prefixed
// with +88 when it carries no country code, or "".
func NationalPhone(text string) string {
	text = Transliterate(text)
	if m := nationalPhone.FindStringSubmatch(text); m != nil {
		return withCountryCode(m[1])
	}
	if m := mobilePhone.FindString(text); m != "" {
		return countryCodeBD + m
	}
	return ""
}

func withCountryCode(num string) string {
	switch {
	case strings.HasPrefix(num, "+"):
		return num
	case strings.HasPrefix(num, "88") && len(num) == 12:
		return "+" + num
	default:
		return countryCodeBD + num
	}
}

// PhoneFromText applies the free-text fallbacks in priority order.
func PhoneFromText(text string) string {
	if p := InternationalPhone(text); p != "" {
		return p
	}
	return NationalPhone(text)
}
