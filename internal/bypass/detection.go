// Package bypass recognizes anti-bot challenge and block pages. Detection
// only informs logging and metrics; nothing here tries to get past a
// challenge.
package bypass

import (
	"bytes"
	"net/http"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Snapshot is a page as seen by the detectors. StatusCode is zero when the
// page came from a real browser, where the status is not observed.
type Snapshot struct {
	URL        string
	StatusCode int
	Headers    map[string][]string
	Body       []byte

	// Set by Analyze.
	Challenged bool
	Vendor     string
}

// Detector reports whether a snapshot is a challenge and which vendor served
// it.
type Detector func(s *Snapshot) (detected bool, vendor string)

// DefaultDetectors returns the vendor and search engine detectors.
func DefaultDetectors() []Detector {
	return []Detector{
		detectCloudflare,
		detectAkamai,
		detectDataDome,
		detectPerimeterX,
		detectGoogleSorry,
		detectYandexCaptcha,
		detectRecaptcha,
	}
}

// Analyze runs the detectors in order, records the first hit on s and
// reports whether any fired.
func Analyze(s *Snapshot, detectors []Detector) bool {
	if s == nil {
		return false
	}
	for _, d := range detectors {
		if detected, vendor := d(s); detected {
			s.Challenged = true
			s.Vendor = vendor
			return true
		}
	}
	s.Challenged = false
	s.Vendor = ""
	return false
}

// SelectorDetector fires when any element matches the CSS selector.
func SelectorDetector(selector, vendor string) Detector {
	return func(s *Snapshot) (bool, string) {
		if selector == "" || len(s.Body) == 0 {
			return false, ""
		}
		doc, err := goquery.NewDocumentFromReader(bytes.NewReader(s.Body))
		if err != nil {
			return false, ""
		}
		if doc.Find(selector).Length() > 0 {
			return true, vendor
		}
		return false, ""
	}
}

func getHeader(headers map[string][]string, key string) string {
	if v := http.Header(headers).Get(key); v != "" {
		return v
	}
	for k, vals := range headers {
		if strings.EqualFold(k, key) && len(vals) > 0 {
			return vals[0]
		}
	}
	return ""
}

// blockStatus is true for the statuses vendors answer with, and for an
// unknown status where only the body can tell.
func blockStatus(code int, allowed ...int) bool {
	if code == 0 {
		return true
	}
	for _, c := range allowed {
		if code == c {
			return true
		}
	}
	return false
}

func containsAny(body []byte, sigs ...string) bool {
	for _, sig := range sigs {
		if bytes.Contains(body, []byte(sig)) {
			return true
		}
	}
	return false
}

func detectCloudflare(s *Snapshot) (bool, string) {
	if !blockStatus(s.StatusCode, http.StatusForbidden, http.StatusServiceUnavailable) {
		return false, ""
	}
	if s.StatusCode != 0 && strings.Contains(strings.ToLower(getHeader(s.Headers, "Server")), "cloudflare") {
		return true, "Cloudflare"
	}
	if containsAny(s.Body, "cf-browser-verification", "cf-turnstile", "Attention Required! | Cloudflare", "challenges.cloudflare.com/cdn-cgi") {
		return true, "Cloudflare"
	}
	return false, ""
}

func detectAkamai(s *Snapshot) (bool, string) {
	if !blockStatus(s.StatusCode, http.StatusForbidden) {
		return false, ""
	}
	if s.StatusCode != 0 && strings.Contains(strings.ToLower(getHeader(s.Headers, "Server")), "akamai") {
		return true, "Akamai"
	}
	if containsAny(s.Body, "Reference #") && containsAny(s.Body, "Access Denied") {
		return true, "Akamai"
	}
	return false, ""
}

func detectDataDome(s *Snapshot) (bool, string) {
	if !blockStatus(s.StatusCode, http.StatusForbidden) {
		return false, ""
	}
	if getHeader(s.Headers, "X-DataDome") != "" || getHeader(s.Headers, "X-DataDome-Response") != "" {
		return true, "DataDome"
	}
	if containsAny(s.Body, "geo.captcha-delivery.com") {
		return true, "DataDome"
	}
	return false, ""
}

func detectPerimeterX(s *Snapshot) (bool, string) {
	if !blockStatus(s.StatusCode, http.StatusForbidden) {
		return false, ""
	}
	if getHeader(s.Headers, "X-Px-Captcha") != "" {
		return true, "PerimeterX"
	}
	if containsAny(s.Body, "client.perimeterx.net", "px-captcha", "_pxBlock") {
		return true, "PerimeterX"
	}
	return false, ""
}

// detectGoogleSorry matches Google's unusual-traffic interstitial.
func detectGoogleSorry(s *Snapshot) (bool, string) {
	if strings.Contains(s.URL, "google.") && strings.Contains(s.URL, "/sorry/") {
		return true, "Google"
	}
	if containsAny(s.Body, "captcha-form") && containsAny(s.Body, "unusual traffic") {
		return true, "Google"
	}
	return false, ""
}

func detectYandexCaptcha(s *Snapshot) (bool, string) {
	if strings.Contains(s.URL, "showcaptcha") {
		return true, "Yandex"
	}
	return false, ""
}

func detectRecaptcha(s *Snapshot) (bool, string) {
	if containsAny(s.Body, `class="g-recaptcha"`, "hcaptcha.com/captcha") {
		return true, "CAPTCHA"
	}
	return false, ""
}
