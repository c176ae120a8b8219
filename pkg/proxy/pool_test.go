package proxy

import (
	"errors"
	"net/url"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestPool_AddAndNext(t *testing.T) {
	pool := NewPool(Config{})

	if err := pool.Add("127.0.0.1:8080", "http://127.0.0.1:8081", "socks5://127.0.0.1:9050"); err != nil {
		t.Fatalf("unexpected error adding proxies: %v", err)
	}
	if pool.Len() != 3 {
		t.Fatalf("expected 3 proxies, got %d", pool.Len())
	}

	want := []string{"http://127.0.0.1:8080", "http://127.0.0.1:8081", "socks5://127.0.0.1:9050", "http://127.0.0.1:8080"}
	for i, w := range want {
		if u := pool.Next(); u == nil || u.String() != w {
			t.Errorf("call %d: expected %s, got %v", i, w, u)
		}
	}
}

func TestPool_Add_RejectsHostless(t *testing.T) {
	pool := NewPool(Config{})
	if err := pool.Add("http://"); err == nil {
		t.Error("expected an error for a proxy without host")
	}
	if pool.Len() != 0 {
		t.Errorf("expected nothing added, got %d", pool.Len())
	}
}

func TestPool_HealthTracking(t *testing.T) {
	clock := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	pool := NewPool(Config{MaxFailures: 2, Cooldown: time.Minute})
	pool.now = func() time.Time { return clock }

	if err := pool.Add("http://a", "http://b"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	uA := pool.Next()
	if uA.String() != "http://a" {
		t.Fatalf("expected http://a, got %v", uA)
	}
	_ = pool.MarkFailure(uA)
	_ = pool.MarkFailure(uA)

	for i := 0; i < 2; i++ {
		if u := pool.Next(); u.String() != "http://b" {
			t.Fatalf("expected http://b while a is benched, got %v", u)
		}
	}

	clock = clock.Add(2 * time.Minute)
	if u := pool.Next(); u.String() != "http://a" {
		t.Fatalf("expected http://a after cooldown, got %v", u)
	}
}

func TestPool_SuccessForgivesFailure(t *testing.T) {
	pool := NewPool(Config{MaxFailures: 2, Cooldown: time.Hour})
	_ = pool.Add("http://a")
	u := pool.Next()

	_ = pool.MarkFailure(u)
	_ = pool.MarkSuccess(u)
	_ = pool.MarkFailure(u)

	if got := pool.Next(); got == nil {
		t.Error("expected proxy to stay available after a forgiven failure")
	}
}

func TestPool_AllBenched(t *testing.T) {
	pool := NewPool(Config{MaxFailures: 1, Cooldown: time.Hour})
	_ = pool.Add("http://a")

	_ = pool.MarkFailure(pool.Next())

	if u := pool.Next(); u != nil {
		t.Errorf("expected nil when all proxies are benched, got %v", u)
	}
}

func TestPool_LoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "proxies.txt")
	content := `
# office exits
http://proxy1.com
proxy2.com:80

socks5://proxy3.com:1080
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write proxy file: %v", err)
	}

	pool := NewPool(Config{})
	if err := pool.LoadFile(path); err != nil {
		t.Fatalf("failed to load file: %v", err)
	}

	expected := []string{"http://proxy1.com", "http://proxy2.com:80", "socks5://proxy3.com:1080"}
	for i, e := range expected {
		u := pool.Next()
		if u == nil || u.String() != e {
			t.Errorf("entry %d: expected %s, got %v", i, e, u)
		}
	}
}

func TestPool_LoadFile_Missing(t *testing.T) {
	pool := NewPool(Config{})
	if err := pool.LoadFile(filepath.Join(t.TempDir(), "absent.txt")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestPool_MarkUnknown(t *testing.T) {
	pool := NewPool(Config{})
	_ = pool.Add("http://a")

	unknown, _ := url.Parse("http://unknown")
	if err := pool.MarkSuccess(unknown); !errors.Is(err, ErrUnknownProxy) {
		t.Errorf("expected ErrUnknownProxy on success, got %v", err)
	}
	if err := pool.MarkFailure(unknown); !errors.Is(err, ErrUnknownProxy) {
		t.Errorf("expected ErrUnknownProxy on failure, got %v", err)
	}
	if err := pool.MarkFailure(nil); !errors.Is(err, ErrUnknownProxy) {
		t.Errorf("expected ErrUnknownProxy for nil, got %v", err)
	}
}

func TestPool_Empty(t *testing.T) {
	if u := NewPool(Config{}).Next(); u != nil {
		t.Errorf("expected nil on empty pool, got %v", u)
	}
}
