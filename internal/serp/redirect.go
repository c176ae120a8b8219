package serp

import (
	"net/url"
	"strings"
)

// UnwrapRedirect returns the destination of a search engine click-tracking
// link (Google /url?q=, DuckDuckGo uddg=, Yahoo /RU=). Other links are
// returned unchanged.
func UnwrapRedirect(href string) string {
	u, err := url.Parse(href)
	if err != nil {
		return href
	}
	q := u.Query()

	switch {
	case u.Path == "/url" && (q.Get("q") != "" || q.Get("url") != ""):
		if dest := q.Get("q"); isAbsolute(dest) {
			return dest
		}
		if dest := q.Get("url"); isAbsolute(dest) {
			return dest
		}
	case q.Get("uddg") != "":
		if dest := q.Get("uddg"); isAbsolute(dest) {
			return dest
		}
	case strings.Contains(u.EscapedPath(), "/RU="):
		raw := u.EscapedPath()
		raw = raw[strings.Index(raw, "/RU=")+len("/RU="):]
		if i := strings.Index(raw, "/R"); i >= 0 {
			raw = raw[:i]
		}
		if dest, err := url.PathUnescape(raw); err == nil && isAbsolute(dest) {
			return dest
		}
	}
	return href
}

func isAbsolute(s string) bool {
	u, err := url.Parse(s)
	return err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
