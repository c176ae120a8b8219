package extract

import (
	"regexp"
	"strings"
)

// ReservedDomain is the documentation domain whose addresses are never leads.
const ReservedDomain = "example.com"

var emailPattern = regexp.MustCompile(`[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`)

// Emails returns every non-reserved address in text, lowercased, in order of
// appearance and without repeats.
func Emails(text string) []string {
	var out []string
	seen := make(map[string]struct{})
	for _, m := range emailPattern.FindAllString(text, -1) {
		m = strings.ToLower(m)
		if strings.HasSuffix(m, "@"+ReservedDomain) {
			continue
		}
		if _, ok := seen[m]; ok {
			continue
		}
		seen[m] = struct{}{}
		out = append(out, m)
	}
	return out
}

// Email returns the first non-reserved address in text, lowercased, or "".
func Email(text string) string {
	for _, m := range emailPattern.FindAllString(text, -1) {
		m = strings.ToLower(m)
		if !strings.HasSuffix(m, "@"+ReservedDomain) {
			return m
		}
	}
	return ""
}
