package jsonbackend

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/FranksOps/leadscout/internal/lead"
	"github.com/FranksOps/leadscout/internal/storage"
)

func TestJSONBackend(t *testing.T) {
	filePath := filepath.Join(t.TempDir(), "leads.jsonl")

	b, err := New(filePath)
	if err != nil {
		t.Fatalf("Failed to create JSON backend: %v", err)
	}
	defer b.Close()

	ctx := context.Background()

	first := lead.New(lead.SourceDuckDuckGo)
	first.BusinessName = "Acme Plumbing"
	first.Email = "info@acme.com"
	first.CreatedAt = first.CreatedAt.Truncate(time.Millisecond)

	second := lead.New(lead.SourceYandex)
	second.BusinessName = "Bolt Electric"
	second.PhoneNumber = "+8801712345678"
	second.CreatedAt = second.CreatedAt.Truncate(time.Millisecond)

	for _, l := range []lead.Lead{first, second} {
		if err := b.Save(ctx, l); err != nil {
			t.Fatalf("Failed to save lead: %v", err)
		}
	}

	all, err := b.Query(ctx, storage.Filter{})
	if err != nil {
		t.Fatalf("Failed to query all: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("Expected 2 leads, got %d", len(all))
	}
	if all[0].ID != first.ID || !all[0].CreatedAt.Equal(first.CreatedAt) {
		t.Errorf("Expected first lead to keep ID and timestamp, got %+v", all[0])
	}

	no := false
	noEmail, err := b.Query(ctx, storage.Filter{HasEmail: &no})
	if err != nil {
		t.Fatalf("Failed to query by email: %v", err)
	}
	if len(noEmail) != 1 || noEmail[0].ID != second.ID {
		t.Fatalf("Expected only the second lead, got %+v", noEmail)
	}

	limited, err := b.Query(ctx, storage.Filter{Limit: 1})
	if err != nil {
		t.Fatalf("Failed to query limit: %v", err)
	}
	if len(limited) != 1 || limited[0].ID != first.ID {
		t.Errorf("Expected first lead under limit 1, got %+v", limited)
	}

	// Writes after a query still append.
	third := lead.New(lead.SourceBing)
	if err := b.Save(ctx, third); err != nil {
		t.Fatalf("Failed to save after query: %v", err)
	}
	all, err = b.Query(ctx, storage.Filter{})
	if err != nil {
		t.Fatalf("Failed to re-query: %v", err)
	}
	if len(all) != 3 || all[2].ID != third.ID {
		t.Errorf("Expected third lead appended last, got %d leads", len(all))
	}
}

func TestJSONBackend_CorruptLine(t *testing.T) {
	filePath := filepath.Join(t.TempDir(), "leads.jsonl")
	if err := os.WriteFile(filePath, []byte("{not json}\n"), 0644); err != nil {
		t.Fatalf("Failed to seed file: %v", err)
	}

	b, err := New(filePath)
	if err != nil {
		t.Fatalf("Failed to create JSON backend: %v", err)
	}
	defer b.Close()

	if _, err := b.Query(context.Background(), storage.Filter{}); err == nil {
		t.Fatal("Expected decode error for corrupt line")
	}
}
