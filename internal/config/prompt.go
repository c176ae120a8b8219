package config

import (
	"regexp"
	"strings"
)

var (
	// locationSeparators are tried in order; the first that matches wins.
	locationSeparators = []*regexp.Regexp{
		regexp.MustCompile(`(?i) in `),
		regexp.MustCompile(`(?i) near `),
	}

	socialIndicators = []string{"facebook.com", "instagram.com", "fb.com", "fb.me"}
	emailIndicators  = []string{"@gmail.com", "@yahoo.com", "@hotmail.com", "@outlook.com", "contact@", "site:"}
)

// Parsed is the interpretation of a free-text search prompt.
type Parsed struct {
	// Dork is true when the prompt targets a search engine rather than Maps.
	Dork     bool
	Keywords string
	Location string
	Target   Target
}

// ParsePrompt classifies a prompt. Social-network domains select profile
// collection, mail-provider hints select email collection and anything else
// is a Maps query split around " in " or " near ".
func ParsePrompt(prompt, defaultLocation string) Parsed {
	prompt = strings.TrimSpace(prompt)
	lower := strings.ToLower(prompt)

	if containsAny(lower, socialIndicators) {
		return Parsed{Dork: true, Keywords: prompt, Target: TargetProfile}
	}
	if containsAny(lower, emailIndicators) {
		return Parsed{Dork: true, Keywords: prompt, Target: TargetEmail}
	}

	kw, loc := SplitLocation(prompt, defaultLocation)
	return Parsed{Keywords: kw, Location: loc, Target: TargetEmail}
}

// SplitLocation splits "plumbers in Dhaka" or "plumbers near Dhaka" into
// keywords and location, matching the separator case-insensitively. Without
// a separator the whole prompt is the keywords and defaultLocation is used.
func SplitLocation(prompt, defaultLocation string) (keywords, location string) {
	for _, sep := range locationSeparators {
		if loc := sep.FindStringIndex(prompt); loc != nil {
			return strings.TrimSpace(prompt[:loc[0]]), strings.TrimSpace(prompt[loc[1]:])
		}
	}
	return prompt, defaultLocation
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
