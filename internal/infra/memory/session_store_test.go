package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/heywon01/math-quiz/internal/domain"
)

func TestSessionStoreLifecycle(t *testing.T) {
	store := NewSessionStore(time.Minute)

	if err := store.Save(context.Background(), "tok-1", "user-1"); err != nil {
		t.Fatalf("save: %v", err)
	}
	userID, err := store.Lookup(context.Background(), "tok-1")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if userID != "user-1" {
		t.Fatalf("expected user-1, got %q", userID)
	}

	if _, err := store.Lookup(context.Background(), "unknown"); !errors.Is(err, domain.ErrSessionExpired) {
		t.Fatalf("expected expired for unknown token, got %v", err)
	}
}

func TestSessionStoreExpiry(t *testing.T) {
	store := NewSessionStore(time.Minute)

	now := time.Now()
	store.clock = func() time.Time { return now }

	if err := store.Save(context.Background(), "tok-1", "user-1"); err != nil {
		t.Fatalf("save: %v", err)
	}

	now = now.Add(2 * time.Minute)
	if _, err := store.Lookup(context.Background(), "tok-1"); !errors.Is(err, domain.ErrSessionExpired) {
		t.Fatalf("expected expired after TTL, got %v", err)
	}
}
