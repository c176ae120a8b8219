package extract

import "testing"

func TestExtract_TextOnly(t *testing.T) {
	c := Extract("Contact us at sales@acme.com or (555) 123-4567", Attrs{}, MapsBlocklist)

	if c.Email != "sales@acme.com" {
		t.Errorf("expected email sales@acme.com, got %q", c.Email)
	}
	if c.Phone != "(555) 123-4567" {
		t.Errorf("expected phone (555) 123-4567, got %q", c.Phone)
	}
	if c.Website != "" {
		t.Errorf("expected no website from an email domain, got %q", c.Website)
	}
}

func TestExtract_TelAttributeWins(t *testing.T) {
	c := Extract("call 01811111111", Attrs{PhoneItemID: "phone:tel:+8801712345678"}, MapsBlocklist)
	if c.Phone != "+8801712345678" {
		t.Errorf("expected +8801712345678, got %q", c.Phone)
	}
}

func TestExtract_StructuredBeforeText(t *testing.T) {
	a := Attrs{
		PhoneLabel:   "Phone: 02-9876543",
		OfficialSite: "https://shop.com.bd/",
		AddressLabel: "Address: House 4, Road 2, Gulshan, Dhaka",
		Links:        []string{"https://www.google.com/maps", "https://other.com"},
	}
	c := Extract("123 Main Street, Brooklyn, NY 11201 visit other.org", a, MapsBlocklist)

	if c.Phone != "02-9876543" {
		t.Errorf("expected label phone, got %q", c.Phone)
	}
	if c.Website != "https://shop.com.bd/" {
		t.Errorf("expected official site, got %q", c.Website)
	}
	if c.Address != "House 4, Road 2, Gulshan, Dhaka" {
		t.Errorf("expected label address, got %q", c.Address)
	}
}

func TestEmail_RejectsReservedDomain(t *testing.T) {
	if got := Email("write to test@example.com or Info@Real.io"); got != "info@real.io" {
		t.Errorf("expected info@real.io, got %q", got)
	}
	if got := Email("only demo@example.com here"); got != "" {
		t.Errorf("expected no email, got %q", got)
	}
}

func TestEmails_OrderAndRepeats(t *testing.T) {
	got := Emails("a@x.com, B@y.org, A@X.com, z@example.com")
	want := []string{"a@x.com", "b@y.org"}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("index %d: expected %q, got %q", i, want[i], got[i])
		}
	}
}

func TestTransliterate(t *testing.T) {
	cases := map[string]string{
		"０１７１２":     "01712",
		"₀₁₂":       "012",
		"⁰¹²³⁴":     "01234",
		"০১৭১২৩":    "017123",
		"①②⑨⓪":      "1290",
		"𝟎𝟏 𝟘𝟙 𝟶𝟷":  "01 01 01",
		"1\uFE0F\u20E32\uFE0F\u20E3": "12",
		"plain 123": "plain 123",
	}
	for in, want := range cases {
		if got := Transliterate(in); got != want {
			t.Errorf("Transliterate(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestPhone_UnicodeMatchesASCII(t *testing.T) {
	ascii := PhoneFromText("Hotline +880 171 234 5678")
	fancy := PhoneFromText("Hotline +８８０ １７１ ２３４ ５６７８")
	if ascii == "" || ascii != fancy {
		t.Errorf("expected equal phones, got %q and %q", ascii, fancy)
	}

	bengali := NationalPhone("ফোন: ০১৭১২৩৪৫৬৭৮")
	if bengali != "+8801712345678" {
		t.Errorf("expected +8801712345678, got %q", bengali)
	}
}

func TestNationalPhone_CountryCode(t *testing.T) {
	cases := map[string]string{
		"call 01712345678 now": "+8801712345678",
		"call 1712345678":      "+881712345678",
		"call 881712345678":    "+881712345678",
		"call +881712345678":   "+881712345678",
		"nothing here":         "",
	}
	for in, want := range cases {
		if got := NationalPhone(in); got != want {
			t.Errorf("NationalPhone(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestInternationalPhone(t *testing.T) {
	cases := map[string]string{
		"tel +1 555 123 4567.": "+1 555 123 4567",
		"(212) 555-0199":       "(212) 555-0199",
		"212.555.0199 x":       "212.555.0199",
		"id 123456789012345":   "",
	}
	for in, want := range cases {
		if got := InternationalPhone(in); got != want {
			t.Errorf("InternationalPhone(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestPhoneFromAttrs(t *testing.T) {
	if got := PhoneFromAttrs("phone:tel:+8801712345678", ""); got != "+8801712345678" {
		t.Errorf("expected tel value, got %q", got)
	}
	if got := PhoneFromAttrs("", "Phone: 017 1234 5678"); got != "017 1234 5678" {
		t.Errorf("expected label value, got %q", got)
	}
	if got := PhoneFromAttrs("", ""); got != "" {
		t.Errorf("expected empty, got %q", got)
	}
}

func TestWebsite(t *testing.T) {
	if got := Website("", []string{"/relative", "https://maps.google.com/x", "https://acme.io/"}, "", MapsBlocklist); got != "https://acme.io/" {
		t.Errorf("expected first external link, got %q", got)
	}
	if got := Website("", nil, "visit www.acme.io today", MapsBlocklist); got != "https://www.acme.io" {
		t.Errorf("expected bare domain with scheme, got %q", got)
	}
	if got := Website("", nil, "see google.com for more", MapsBlocklist); got != "" {
		t.Errorf("expected blocked domain to be dropped, got %q", got)
	}
	if got := Website("", nil, "version 2.5 build", MapsBlocklist); got != "" {
		t.Errorf("expected no website, got %q", got)
	}
}

func TestBlocklist_Blocks(t *testing.T) {
	cases := map[string]bool{
		"https://www.google.com/search":  true,
		"https://maps.google.com.bd/x":   true,
		"https://support.apple.com/":     true,
		"https://googleplex-fans.org/":   false,
		"https://shop.example.org/about": false,
		"":                               false,
	}
	for in, want := range cases {
		if got := MapsBlocklist.Blocks(in); got != want {
			t.Errorf("Blocks(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestAddress(t *testing.T) {
	if got := AddressFromLabel("ঠিকানা: House 12, Road 5, Dhanmondi"); got != "House 12, Road 5, Dhanmondi" {
		t.Errorf("expected localized label stripped, got %q", got)
	}
	if got := AddressFromText("Visit 123 Main Street, Brooklyn, NY 11201 today"); got != "123 Main Street, Brooklyn, NY 11201" {
		t.Errorf("expected western address, got %q", got)
	}
	if got := AddressFromText("Office: House 12, Road 5, Dhanmondi, Dhaka 1205."); got != "House 12, Road 5, Dhanmondi, Dhaka 1205" {
		t.Errorf("expected Dhaka address, got %q", got)
	}
	if got := AddressFromText("no address"); got != "" {
		t.Errorf("expected empty, got %q", got)
	}
}
