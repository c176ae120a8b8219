// Package lead defines the Lead record produced by every scrape source and
// the cleaning pass applied to a finished run.
package lead

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

// Field length caps applied at extraction time.
const (
	MaxNameLen    = 100
	MaxAddressLen = 200
)

// Source tags identifying which adapter produced a lead.
const (
	SourceMaps       = "Google Maps"
	SourceYahoo      = "Yahoo Search"
	SourceBing       = "Bing Search"
	SourceGoogle     = "Google Search"
	SourceDuckDuckGo = "DuckDuckGo Search"
	SourceYandex     = "Yandex Search"
)

// Lead is one candidate business or contact record. Empty strings mean the
// field was not found.
type Lead struct {
	ID           string    `json:"id"`
	BusinessName string    `json:"business_name"`
	PhoneNumber  string    `json:"phone_number"`
	Website      string    `json:"website"`
	Address      string    `json:"address"`
	Email        string    `json:"email"`
	Source       string    `json:"source"`
	CreatedAt    time.Time `json:"created_at"`
}

// New returns an empty lead stamped with a fresh ID, the given source tag and
// the current time.
func New(source string) Lead {
	return Lead{
		ID:        uuid.New().String(),
		Source:    source,
		CreatedAt: time.Now().UTC(),
	}
}

// HasContact reports whether at least one contact channel is present.
func (l Lead) HasContact() bool {
	return l.PhoneNumber != "" || l.Website != "" || l.Email != ""
}

// Truncate cuts s to at most n runes after trimming surrounding whitespace.
func Truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return strings.TrimSpace(string(runes[:n]))
}
