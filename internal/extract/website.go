package extract

import (
	"net/url"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/net/publicsuffix"
)

// Blocklist holds registrable domains (or dotted host fragments) that never
// count as a business website.
type Blocklist []string

// MapsBlocklist is the blocklist used for listing pages.
var MapsBlocklist = Blocklist{"google.com", "maps.google", "apple.com", "microsoft.com"}

var bareDomain = regexp.MustCompile(`(?:https?://)?(?:www\.)?(?:[a-zA-Z0-9-]+\.)+[a-zA-Z]{2,}`)

// Blocks reports whether rawURL points at a blocked host.
func (b Blocklist) Blocks(rawURL string) bool {
	host := hostOf(rawURL)
	if host == "" {
		return false
	}
	registrable, err := publicsuffix.EffectiveTLDPlusOne(host)
	if err != nil {
		registrable = host
	}
	for _, d := range b {
		d = strings.ToLower(d)
		switch {
		case registrable == d, host == d, strings.HasSuffix(host, "."+d):
			return true
		// Entries such as "maps.google" name a leading host fragment.
		case strings.HasPrefix(host, d+"."), strings.Contains(host, "."+d+"."):
			return true
		}
	}
	return false
}

func hostOf(rawURL string) string {
	if !strings.Contains(rawURL, "://") {
		rawURL = "https://" + rawURL
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return strings.ToLower(strings.TrimSuffix(u.Hostname(), "."))
}

func isAbsoluteHTTP(href string) bool {
	lower := strings.ToLower(href)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}

// ExternalLink returns the first absolute http(s) link not on a blocked host.
func ExternalLink(links []string, block Blocklist) string {
	for _, href := range links {
		href = strings.TrimSpace(href)
		if isAbsoluteHTTP(href) && !block.Blocks(href) {
			return href
		}
	}
	return ""
}

// WebsiteFromText finds the first bare domain in text that is not part of an
// email address or followed by a number, adding an https scheme when missing.
// A blocked match yields "".
func WebsiteFromText(text string, block Blocklist) string {
	for _, loc := range bareDomain.FindAllStringIndex(text, -1) {
		start, end := loc[0], loc[1]
		if start > 0 && text[start-1] == '@' {
			continue
		}
		if end < len(text) && text[end] == '@' {
			continue
		}
		if followedByDigit(text[end:]) {
			continue
		}
		site := text[start:end]
		if block.Blocks(site) {
			return ""
		}
		if !isAbsoluteHTTP(site) {
			site = "https://" + site
		}
		return site
	}
	return ""
}

func followedByDigit(rest string) bool {
	for _, r := range rest {
		if unicode.IsSpace(r) {
			continue
		}
		return r >= '0' && r <= '9'
	}
	return false
}

// Website picks the business website: the official link first, then the
// first external link, then a bare domain in the page text.
func Website(official string, links []string, text string, block Blocklist) string {
	official = strings.TrimSpace(official)
	if official != "" && !block.Blocks(official) {
		return official
	}
	if l := ExternalLink(links, block); l != "" {
		return l
	}
	return WebsiteFromText(text, block)
}
