package lead

import (
	"reflect"
	"testing"
)

func TestClean_DedupByWebsiteWhenNoEmails(t *testing.T) {
	in := []Lead{
		{BusinessName: "A", Website: "https://a.com"},
		{BusinessName: "A2", Website: "https://a.com"},
		{BusinessName: "B", Website: "https://b.com"},
	}

	out := Clean(in)
	if len(out) != 2 {
		t.Fatalf("expected 2 leads, got %d: %+v", len(out), out)
	}
	if out[0].BusinessName != "A" || out[1].BusinessName != "B" {
		t.Errorf("expected first occurrences A and B, got %q and %q", out[0].BusinessName, out[1].BusinessName)
	}
}

func TestClean_DedupByEmailCaseInsensitive(t *testing.T) {
	in := []Lead{
		{BusinessName: "One", Email: "Sales@Acme.com", Website: "https://x.com"},
		{BusinessName: "Two", Email: "sales@acme.com", Website: "https://y.com"},
		{BusinessName: "Three", Email: "info@acme.com", Website: "https://x.com"},
	}

	out := Clean(in)
	if len(out) != 2 {
		t.Fatalf("expected 2 leads, got %d", len(out))
	}
	if out[0].BusinessName != "One" || out[1].BusinessName != "Three" {
		t.Errorf("unexpected survivors: %+v", out)
	}
}

func TestClean_EmptyEmailKeysCollapse(t *testing.T) {
	in := []Lead{
		{BusinessName: "Has", Email: "a@b.io"},
		{BusinessName: "NoEmail1", Website: "https://1.com"},
		{BusinessName: "NoEmail2", Website: "https://2.com"},
	}

	out := Clean(in)
	if len(out) != 2 {
		t.Fatalf("expected 2 leads, got %d", len(out))
	}
	if out[1].BusinessName != "NoEmail1" {
		t.Errorf("expected first empty-email lead to survive, got %q", out[1].BusinessName)
	}
}

func TestClean_PhoneValidation(t *testing.T) {
	in := []Lead{
		{BusinessName: "Short", Website: "https://s.com", PhoneNumber: "123-45"},
		{BusinessName: "Good", Website: "https://g.com", PhoneNumber: "+1 (555) 123-4567"},
		{BusinessName: "Long", Website: "https://l.com", PhoneNumber: "+1234567890123456"},
	}

	out := Clean(in)
	if len(out) != 3 {
		t.Fatalf("expected 3 leads, got %d", len(out))
	}
	if out[0].PhoneNumber != "" {
		t.Errorf("expected short phone to be blanked, got %q", out[0].PhoneNumber)
	}
	if out[1].PhoneNumber != "+1 (555) 123-4567" {
		t.Errorf("expected formatted phone kept, got %q", out[1].PhoneNumber)
	}
	if out[2].PhoneNumber != "" {
		t.Errorf("expected long phone to be blanked, got %q", out[2].PhoneNumber)
	}
}

// Scenario: three leads, one duplicate website, one contact-less.
func TestClean_DuplicateAndContactless(t *testing.T) {
	in := []Lead{
		{BusinessName: "A", Website: "x.com"},
		{BusinessName: "B", Website: "x.com"},
		{BusinessName: "C"},
	}

	out := Clean(in)
	if len(out) != 1 || out[0].BusinessName != "A" {
		t.Fatalf("expected only A, got %+v", out)
	}
}

func TestClean_DropsNameless(t *testing.T) {
	in := []Lead{
		{BusinessName: "  ", Website: "https://a.com"},
		{BusinessName: "Named", Website: "https://b.com"},
	}

	out := Clean(in)
	if len(out) != 1 || out[0].BusinessName != "Named" {
		t.Fatalf("expected only Named, got %+v", out)
	}
}

func TestClean_PhoneOnlyLeadKeptAfterInvalidation(t *testing.T) {
	in := []Lead{{BusinessName: "Shop", PhoneNumber: "12345"}}

	out := Clean(in)
	if len(out) != 1 {
		t.Fatalf("expected lead to survive the presence check, got %d", len(out))
	}
	if out[0].PhoneNumber != "" || out[0].HasContact() {
		t.Errorf("expected lead to leave without contact, got %+v", out[0])
	}
}

func TestClean_Idempotent(t *testing.T) {
	sets := [][]Lead{
		{
			{BusinessName: "A", Website: "https://a.com", PhoneNumber: "+8801712345678"},
			{BusinessName: "B", Website: "https://a.com"},
			{BusinessName: "", Website: "https://c.com"},
			{BusinessName: "D", Website: "https://d.com", PhoneNumber: "99"},
		},
		{
			{BusinessName: "E1", Email: "e@x.com"},
			{BusinessName: "E2", Email: "E@X.com", Website: "https://e.com"},
			{BusinessName: "F", Website: "https://f.com"},
			{BusinessName: "G", Website: "https://g.com"},
		},
	}

	for i, in := range sets {
		once := Clean(in)
		twice := Clean(once)
		if !reflect.DeepEqual(once, twice) {
			t.Errorf("set %d: clean not idempotent:\nonce:  %+v\ntwice: %+v", i, once, twice)
		}
		for _, l := range once {
			if !l.HasContact() {
				t.Errorf("set %d: lead without contact: %+v", i, l)
			}
			if l.BusinessName == "" {
				t.Errorf("set %d: lead without name: %+v", i, l)
			}
		}
	}
}

func TestClean_DoesNotMutateInput(t *testing.T) {
	in := []Lead{{BusinessName: "A", Website: "https://a.com", PhoneNumber: "1"}}
	_ = Clean(in)
	if in[0].PhoneNumber != "1" {
		t.Errorf("input mutated: %+v", in[0])
	}
}

func TestClean_Empty(t *testing.T) {
	if out := Clean(nil); len(out) != 0 {
		t.Errorf("expected empty output, got %v", out)
	}
}

func TestClean_SameNameDifferentWebsites(t *testing.T) {
	in := []Lead{
		{BusinessName: "Acme", Website: "https://acme-one.com"},
		{BusinessName: "acme", Website: "https://acme-two.com"},
	}
	if out := Clean(in); len(out) != 2 {
		t.Errorf("expected both leads kept, got %d", len(out))
	}

	in[1].Website = in[0].Website
	if out := Clean(in); len(out) != 1 {
		t.Errorf("expected shared website to dedup, got %d", len(out))
	}
}

// A lead kept only for a short phone loses the phone in the first pass and
// is dropped for having no contact in the second.
func TestClean_PhoneOnlyLeadNotStable(t *testing.T) {
	in := []Lead{{BusinessName: "Shop", PhoneNumber: "12345"}}

	once := Clean(in)
	if len(once) != 1 {
		t.Fatalf("first pass: expected Shop kept, got %+v", once)
	}
	if once[0].PhoneNumber != "" || once[0].HasContact() {
		t.Errorf("first pass: expected phone blanked and no contact left, got %+v", once[0])
	}

	if twice := Clean(once); len(twice) != 0 {
		t.Errorf("second pass: expected Shop dropped, got %+v", twice)
	}
}
