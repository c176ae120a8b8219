package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/FranksOps/leadscout/internal/lead"
	"github.com/FranksOps/leadscout/internal/storage"
)

func TestSQLiteBackend(t *testing.T) {
	b, err := New(filepath.Join(t.TempDir(), "leads.db"))
	if err != nil {
		t.Fatalf("Failed to create SQLite backend: %v", err)
	}
	defer b.Close()

	ctx := context.Background()

	first := lead.New(lead.SourceMaps)
	first.BusinessName = "Acme Plumbing"
	first.PhoneNumber = "+8801712345678"
	first.Address = "12 Road, Gulshan"

	second := lead.New(lead.SourceGoogle)
	second.BusinessName = "Bolt Electric"
	second.Email = "sales@bolt.com"
	second.Website = "https://bolt.com"

	for _, l := range []lead.Lead{first, second} {
		if err := b.Save(ctx, l); err != nil {
			t.Fatalf("Failed to save lead: %v", err)
		}
	}

	// Saving the same ID twice is a no-op.
	if err := b.Save(ctx, first); err != nil {
		t.Fatalf("Failed to re-save lead: %v", err)
	}

	all, err := b.Query(ctx, storage.Filter{})
	if err != nil {
		t.Fatalf("Failed to query leads: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("Expected 2 leads, got %d", len(all))
	}

	got := all[0]
	if got.ID != first.ID {
		t.Errorf("Expected ID %s first, got %s", first.ID, got.ID)
	}
	if got.BusinessName != first.BusinessName {
		t.Errorf("Expected BusinessName %s, got %s", first.BusinessName, got.BusinessName)
	}
	if got.PhoneNumber != first.PhoneNumber {
		t.Errorf("Expected PhoneNumber %s, got %s", first.PhoneNumber, got.PhoneNumber)
	}
	if got.Address != first.Address {
		t.Errorf("Expected Address %s, got %s", first.Address, got.Address)
	}
	if got.Source != first.Source {
		t.Errorf("Expected Source %s, got %s", first.Source, got.Source)
	}
	if got.CreatedAt.Unix() != first.CreatedAt.Unix() {
		t.Errorf("Expected CreatedAt %v, got %v", first.CreatedAt, got.CreatedAt)
	}

	yes := true
	withEmail, err := b.Query(ctx, storage.Filter{HasEmail: &yes})
	if err != nil {
		t.Fatalf("Failed to query with HasEmail: %v", err)
	}
	if len(withEmail) != 1 || withEmail[0].ID != second.ID {
		t.Fatalf("Expected only the Google lead, got %+v", withEmail)
	}

	bySource, err := b.Query(ctx, storage.Filter{Source: lead.SourceMaps})
	if err != nil {
		t.Fatalf("Failed to query by source: %v", err)
	}
	if len(bySource) != 1 || bySource[0].ID != first.ID {
		t.Fatalf("Expected only the Maps lead, got %+v", bySource)
	}

	offset, err := b.Query(ctx, storage.Filter{Offset: 1})
	if err != nil {
		t.Fatalf("Failed to query with Offset: %v", err)
	}
	if len(offset) != 1 || offset[0].ID != second.ID {
		t.Fatalf("Expected second lead at offset 1, got %+v", offset)
	}
}

func TestSQLiteBackend_GeneratesID(t *testing.T) {
	b, err := New(filepath.Join(t.TempDir(), "leads.db"))
	if err != nil {
		t.Fatalf("Failed to create SQLite backend: %v", err)
	}
	defer b.Close()

	ctx := context.Background()
	if err := b.Save(ctx, lead.Lead{BusinessName: "No ID", Source: lead.SourceYahoo}); err != nil {
		t.Fatalf("Failed to save lead: %v", err)
	}

	all, err := b.Query(ctx, storage.Filter{Limit: 10})
	if err != nil {
		t.Fatalf("Failed to query: %v", err)
	}
	if len(all) != 1 || all[0].ID == "" {
		t.Fatalf("Expected one lead with a generated ID, got %+v", all)
	}
}
