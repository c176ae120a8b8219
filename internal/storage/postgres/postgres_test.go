package postgres

import (
	"context"
	"os"
	"testing"

	"github.com/FranksOps/leadscout/internal/lead"
	"github.com/FranksOps/leadscout/internal/storage"
)

func TestPostgresBackend(t *testing.T) {
	// Only run this test if LEADSCOUT_TEST_PG_DSN is set
	dsn := os.Getenv("LEADSCOUT_TEST_PG_DSN")
	if dsn == "" {
		t.Skip("Skipping Postgres backend test: LEADSCOUT_TEST_PG_DSN not set")
	}

	ctx := context.Background()
	b, err := New(ctx, dsn)
	if err != nil {
		t.Fatalf("Failed to create Postgres backend: %v", err)
	}
	defer b.Close()

	l := lead.New(lead.SourceBing)
	l.BusinessName = "Acme Plumbing"
	l.Email = "info@acme.com"
	l.PhoneNumber = "+8801712345678"

	if err := b.Save(ctx, l); err != nil {
		t.Fatalf("Failed to save lead: %v", err)
	}

	yes := true
	results, err := b.Query(ctx, storage.Filter{Source: lead.SourceBing, HasEmail: &yes})
	if err != nil {
		t.Fatalf("Failed to query leads: %v", err)
	}

	// Earlier runs may have left rows behind, so look for ours.
	var found *lead.Lead
	for i := range results {
		if results[i].ID == l.ID {
			found = &results[i]
		}
	}
	if found == nil {
		t.Fatalf("Expected saved lead %s among %d results", l.ID, len(results))
	}
	if found.Email != l.Email {
		t.Errorf("Expected Email %s, got %s", l.Email, found.Email)
	}
	if found.PhoneNumber != l.PhoneNumber {
		t.Errorf("Expected PhoneNumber %s, got %s", l.PhoneNumber, found.PhoneNumber)
	}
	// Postgres keeps microseconds; compare whole seconds.
	if found.CreatedAt.Unix() != l.CreatedAt.Unix() {
		t.Errorf("Expected CreatedAt %v, got %v", l.CreatedAt, found.CreatedAt)
	}

	no := false
	without, err := b.Query(ctx, storage.Filter{Source: lead.SourceBing, HasEmail: &no})
	if err != nil {
		t.Fatalf("Failed to query leads without email: %v", err)
	}
	for _, r := range without {
		if r.ID == l.ID {
			t.Errorf("Lead with email returned by HasEmail=false query")
		}
	}
}
