// Package extract pulls contact fields out of rendered page text and the
// structured attributes exposed by listing pages.
//
// Every function is pure and total: malformed input yields empty strings,
// never errors.
package extract

// Attrs are the structured values a listing page may expose. Any of them
// can be empty.
type Attrs struct {
	// PhoneItemID is the phone button's data-item-id (e.g. "phone:tel:+1...").
	PhoneItemID string
	// PhoneLabel is the phone button's aria-label.
	PhoneLabel string
	// OfficialSite is the href of the listing's own website link.
	OfficialSite string
	// AddressLabel is the address button's aria-label.
	AddressLabel string
	// Links are every anchor href on the page, in document order.
	Links []string
}

// Contact is the extracted set of contact fields.
type Contact struct {
	Phone   string
	Email   string
	Website string
	Address string
}

// Extract resolves every field using structured attributes before the
// free-text fallbacks.
func Extract(text string, a Attrs, block Blocklist) Contact {
	text = Transliterate(text)

	c := Contact{
		Email:   Email(text),
		Website: Website(a.OfficialSite, a.Links, text, block),
	}

	c.Phone = PhoneFromAttrs(a.PhoneItemID, a.PhoneLabel)
	if c.Phone == "" {
		c.Phone = PhoneFromText(text)
	}

	c.Address = AddressFromLabel(a.AddressLabel)
	if c.Address == "" {
		c.Address = AddressFromText(text)
	}
	return c
}
