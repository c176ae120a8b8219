// Package profile decides whether a URL is a social-network profile page
// worth recording as a lead. It prefers rejecting real profiles over
// accepting non-profile pages.
package profile

import (
	"net/url"
	"regexp"
	"strings"
)

var (
	facebookHosts  = []string{"facebook.com", "fb.com", "fb.me"}
	instagramHosts = []string{"instagram.com"}

	// Segments rejected only on an exact match.
	facebookSegments = []string{"help", "accounts", "groups", "pages", "apps", "events"}
	// Segments rejected when a path segment starts with them ("photo.php", "videos").
	facebookPrefixes = []string{"login", "photo", "video", "story"}

	instagramSegments = []string{
		"help", "accounts", "reels", "reel", "p", "popular", "explore", "about",
		"about-us", "tags", "stories", "direct", "settings", "notifications",
		"search", "activity", "archive", "fundraiser", "ads", "business",
		"developer", "developers", "legal",
	}
	instagramPrefixes = []string{"login"}

	instagramUsername = regexp.MustCompile(`^/([a-z0-9_.]+)/?$`)
)

const minUsernameLen = 3

// IsValid reports whether rawURL looks like a Facebook or Instagram profile.
// Every other host, and malformed input, is rejected.
func IsValid(rawURL string) bool {
	u, ok := parse(rawURL)
	if !ok {
		return false
	}

	host := strings.ToLower(u.Hostname())
	path := strings.ToLower(u.EscapedPath())
	segments := strings.Split(strings.Trim(path, "/"), "/")

	switch {
	case onHost(host, facebookHosts):
		return !blocked(segments, facebookSegments, facebookPrefixes)
	case onHost(host, instagramHosts):
		if blocked(segments, instagramSegments, instagramPrefixes) {
			return false
		}
		if strings.Contains(strings.ToLower(u.RawQuery), "hl=") {
			return false
		}
		m := instagramUsername.FindStringSubmatch(path)
		return m != nil && len(m[1]) >= minUsernameLen
	}
	return false
}

func parse(raw string) (*url.URL, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, false
	}
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil || u.Hostname() == "" {
		return nil, false
	}
	return u, true
}

func onHost(host string, domains []string) bool {
	for _, d := range domains {
		if host == d || strings.HasSuffix(host, "."+d) {
			return true
		}
	}
	return false
}

func blocked(segments, exact, prefixes []string) bool {
	for _, seg := range segments {
		for _, e := range exact {
			if seg == e {
				return true
			}
		}
		for _, p := range prefixes {
			if strings.HasPrefix(seg, p) {
				return true
			}
		}
	}
	return false
}
