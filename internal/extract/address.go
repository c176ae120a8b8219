package extract

import (
	"regexp"
	"strings"

	"github.com/FranksOps/leadscout/internal/lead"
)

// Labels that may prefix a listing's accessible address text.
var addressLabels = []string{"ঠিকানা:", "Address:"}

var (
	westernAddress = regexp.MustCompile(
		`\d+\s+[A-Za-z\s]+(?:Street|St|Avenue|Ave|Road|Rd|Boulevard|Blvd|Drive|Dr|Lane|Ln)[,\s]+[A-Za-z\s]+,?\s*(?:NY|NJ|CT|PA)?\s*\d{5}`)
	bangladeshAddress = regexp.MustCompile(
		`(?i)House[-\s#]*\d+[A-Za-z]?[,\s]+(?:[A-Za-z0-9/.-]+[,\s]+){0,6}?[A-Za-z]*(?:Road|Rd|Street|St|Avenue|Ave|Banani|Gulshan|Dhanmondi|Mirpur|Baridhara)[A-Za-z0-9/.,\s-]{0,60}?Dhaka(?:[\s-]*\d{4})?`)
)

// AddressFromLabel strips a known label from a listing's accessible address
// text.
func AddressFromLabel(label string) string {
	label = strings.TrimSpace(label)
	for _, prefix := range addressLabels {
		if i := strings.Index(label, prefix); i >= 0 {
			label = label[i+len(prefix):]
			break
		}
	}
	return lead.Truncate(label, lead.MaxAddressLen)
}

// AddressFromText matches a street-style address, then a Dhaka-style one.
func AddressFromText(text string) string {
	if m := westernAddress.FindString(text); m != "" {
		return lead.Truncate(m, lead.MaxAddressLen)
	}
	if m := bangladeshAddress.FindString(text); m != "" {
		return lead.Truncate(m, lead.MaxAddressLen)
	}
	return ""
}
