package lead

import (
	"strings"
)

const (
	minPhoneLen = 10
	maxPhoneLen = 15
)

// Clean deduplicates and filters a finished run's leads. It never mutates the
// input slice.
//
// The steps run in a fixed order:
//  1. dedup by lowercased Email when any lead has one, otherwise by Website
//     (first occurrence wins; empty keys are equal to each other)
//  2. drop leads with no phone, website or email
//  3. blank phone numbers whose digit/plus count is outside [10, 15]
//  4. drop leads without a business name
//
// Step 3 runs after step 2, so a lead kept only for its phone can leave with
// no contact channel at all.
func Clean(leads []Lead) []Lead {
	if len(leads) == 0 {
		return nil
	}

	key := func(l Lead) string { return l.Website }
	for _, l := range leads {
		if l.Email != "" {
			key = func(l Lead) string { return strings.ToLower(l.Email) }
			break
		}
	}

	seen := make(map[string]struct{}, len(leads))
	out := make([]Lead, 0, len(leads))
	for _, l := range leads {
		k := key(l)
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}

		if !l.HasContact() {
			continue
		}

		if l.PhoneNumber != "" && !ValidPhone(l.PhoneNumber) {
			l.PhoneNumber = ""
		}

		if strings.TrimSpace(l.BusinessName) == "" {
			continue
		}
		out = append(out, l)
	}
	return out
}

// ValidPhone reports whether phone has between 10 and 15 digits and plus
// signs.
func ValidPhone(phone string) bool {
	n := 0
	for _, r := range phone {
		if r == '+' || (r >= '0' && r <= '9') {
			n++
		}
	}
	return n >= minPhoneLen && n <= maxPhoneLen
}
