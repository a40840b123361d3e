package dedupe

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

func newTestStore(t *testing.T, ttl time.Duration) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "state", "seen.db"), ttl)
	if err != nil {
		t.Fatalf("failed to init sqlite store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestSQLiteStoreTracksSeenURLs(t *testing.T) {
	store := newTestStore(t, 0)
	ctx := context.Background()

	seen, err := store.Seen(ctx, "https://example.com/a")
	if err != nil {
		t.Fatalf("seen failed: %v", err)
	}
	if seen {
		t.Fatalf("expected unseen url")
	}

	if err := store.Mark(ctx, "https://example.com/a", "", "https://example.com/b"); err != nil {
		t.Fatalf("mark failed: %v", err)
	}
	for _, u := range []string{"https://example.com/a", "https://example.com/b"} {
		seen, err := store.Seen(ctx, u)
		if err != nil {
			t.Fatalf("seen failed: %v", err)
		}
		if !seen {
			t.Fatalf("expected %s to be seen", u)
		}
	}
}

func TestSQLiteStoreHonorsTTL(t *testing.T) {
	store := newTestStore(t, time.Hour)
	ctx := context.Background()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }

	if err := store.Mark(ctx, "https://example.com/ttl"); err != nil {
		t.Fatalf("mark failed: %v", err)
	}
	if seen, _ := store.Seen(ctx, "https://example.com/ttl"); !seen {
		t.Fatalf("expected url to be seen within ttl")
	}

	now = now.Add(2 * time.Hour)
	seen, err := store.Seen(ctx, "https://example.com/ttl")
	if err != nil {
		t.Fatalf("seen failed: %v", err)
	}
	if seen {
		t.Fatalf("expected url to expire")
	}
}

func TestNewSQLiteStoreValidates(t *testing.T) {
	if _, err := NewSQLiteStore("", 0); err == nil {
		t.Fatalf("expected error without path")
	}
	if _, err := NewSQLiteStore(filepath.Join(t.TempDir(), "x.db"), -time.Second); err == nil {
		t.Fatalf("expected error for negative ttl")
	}
}
