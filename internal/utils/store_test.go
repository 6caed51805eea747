package utils

import (
	"strings"
	"testing"
	"time"
)

func TestTTLStoreOwnership(t *testing.T) {
	store := NewTTLStore[int](time.Minute)
	store.Put("a", "alice", 1)

	if v, ok := store.Get("a", "alice"); !ok || v != 1 {
		t.Errorf("Get(a, alice) = %v, %v; want 1, true", v, ok)
	}
	if _, ok := store.Get("a", "bob"); ok {
		t.Error("another user must not read the entry")
	}
	if _, ok := store.Get("missing", "alice"); ok {
		t.Error("missing entry reported as present")
	}

	store.Delete("a")
	if store.Len() != 0 {
		t.Errorf("Len() = %d after delete, want 0", store.Len())
	}
}

func TestTTLStoreExpiry(t *testing.T) {
	const ttl = 200 * time.Millisecond
	store := NewTTLStore[string](ttl)

	store.Put("idle", "u", "x")
	store.Put("active", "u", "y")

	time.Sleep(ttl / 2)
	if _, ok := store.Get("active", "u"); !ok {
		t.Fatal("active entry expired early")
	}

	time.Sleep(ttl * 3 / 4)
	if evicted := store.Sweep(); evicted != 1 {
		t.Errorf("Sweep() evicted %d, want 1", evicted)
	}
	if _, ok := store.Get("active", "u"); !ok {
		t.Error("access should have extended the active entry")
	}
	if _, ok := store.Get("idle", "u"); ok {
		t.Error("idle entry should be gone")
	}
	if store.Len() != 1 {
		t.Errorf("Len() = %d after sweep, want 1", store.Len())
	}
}

func TestTTLStoreExpiredEntryHidden(t *testing.T) {
	store := NewTTLStore[int](20 * time.Millisecond)
	store.Put("a", "alice", 1)

	time.Sleep(40 * time.Millisecond)
	if _, ok := store.Get("a", "alice"); ok {
		t.Error("expired entry returned before sweep")
	}
}

func TestIDs(t *testing.T) {
	if a, b := NewID(), NewID(); a == b || len(a) != 36 {
		t.Errorf("NewID() produced %q and %q", a, b)
	}

	code, err := NewShortCode()
	if err != nil {
		t.Fatalf("NewShortCode() error = %v", err)
	}
	if len(code) != 10 {
		t.Errorf("short code length = %d, want 10", len(code))
	}
	for _, r := range code {
		if !strings.ContainsRune(shortCodeAlphabet, r) {
			t.Errorf("short code %q contains %q", code, r)
		}
	}
}
