package credentials

import (
	"errors"
	"testing"
)

func TestNext_RoundRobin(t *testing.T) {
	pool := NewPool([]string{"a", "b", "c"})

	key, err := pool.Next()
	if err != nil {
		t.Fatalf("Next returned error: %v", err)
	}
	if key != "a" {
		t.Errorf("Expected first credential 'a', got %q", key)
	}

	key, _ = pool.Next()
	if key != "b" {
		t.Errorf("Expected second credential 'b', got %q", key)
	}
	key, _ = pool.Next()
	if key != "c" {
		t.Errorf("Expected third credential 'c', got %q", key)
	}
	key, _ = pool.Next()
	if key != "a" {
		t.Errorf("Expected wrap-around to 'a', got %q", key)
	}
}

func TestNext_SkipsExhausted(t *testing.T) {
	pool := NewPool([]string{"a", "b", "c"})

	if _, err := pool.Next(); err != nil {
		t.Fatalf("Next returned error: %v", err)
	}
	pool.MarkExhausted("b")

	key, err := pool.Next()
	if err != nil {
		t.Fatalf("Next returned error: %v", err)
	}
	if key != "c" {
		t.Errorf("Expected 'c' after exhausting 'b', got %q", key)
	}
}

func TestNext_AllExhausted(t *testing.T) {
	pool := NewPool([]string{"a", "b"})
	pool.MarkExhausted("a")
	pool.MarkExhausted("b")

	if _, err := pool.Next(); !errors.Is(err, ErrAllExhausted) {
		t.Errorf("Expected ErrAllExhausted, got %v", err)
	}
}

func TestNext_EmptyPool(t *testing.T) {
	pool := NewPool(nil)
	if _, err := pool.Next(); !errors.Is(err, ErrAllExhausted) {
		t.Errorf("Expected ErrAllExhausted for empty pool, got %v", err)
	}
}

func TestMarkExhausted_Idempotent(t *testing.T) {
	pool := NewPool([]string{"a", "b"})
	pool.MarkExhausted("a")
	pool.MarkExhausted("a")
	pool.MarkExhausted("missing")

	if got := pool.Available(); got != 1 {
		t.Errorf("Expected 1 available credential, got %d", got)
	}
}

func TestReset_RestoresAvailability(t *testing.T) {
	pool := NewPool([]string{"a"})
	pool.MarkExhausted("a")

	pool.Reset([]string{"x", "y"})

	if got := pool.Available(); got != 2 {
		t.Errorf("Expected 2 available credentials after reset, got %d", got)
	}
	key, err := pool.Next()
	if err != nil {
		t.Fatalf("Next returned error after reset: %v", err)
	}
	if key != "x" {
		t.Errorf("Expected 'x' as first credential after reset, got %q", key)
	}
}

func TestEntries_Copy(t *testing.T) {
	pool := NewPool([]string{"a", "b"})
	entries := pool.Entries()
	entries[0].Status = StatusExhausted

	if got := pool.Available(); got != 2 {
		t.Errorf("Mutating the returned slice must not affect the pool, available=%d", got)
	}
}

func TestRotation_LastCredentialCarriesScan(t *testing.T) {
	// Credentials 1..N-1 pre-exhausted: the pool must keep serving N.
	pool := NewPool([]string{"a", "b", "c"})
	pool.MarkExhausted("a")
	pool.MarkExhausted("b")

	for i := 0; i < 3; i++ {
		key, err := pool.Next()
		if err != nil {
			t.Fatalf("Next returned error: %v", err)
		}
		if key != "c" {
			t.Errorf("Expected 'c' on call %d, got %q", i, key)
		}
	}

	pool.MarkExhausted("c")
	if _, err := pool.Next(); !errors.Is(err, ErrAllExhausted) {
		t.Errorf("Expected ErrAllExhausted once last credential dies, got %v", err)
	}
}
