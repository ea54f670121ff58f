package memory

import (
	"context"
	"errors"
	"testing"

	"explainit-service/internal/domain"
)

func TestSessionStoreLifecycle(t *testing.T) {
	ctx := context.Background()
	store := NewSessionStore()

	session := domain.Session{Token: "t1", Profile: domain.Profile{ID: "u1"}}
	if err := store.Put(ctx, session); err != nil {
		t.Fatalf("put: %v", err)
	}
	if _, err := store.Get(ctx, "t1"); err != nil {
		t.Fatalf("expected session present: %v", err)
	}

	_ = store.Delete(ctx, "t1")
	if _, err := store.Get(ctx, "t1"); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("expected session removed, got %v", err)
	}
}

func TestSessionStoreKeepsOneSessionPerAccount(t *testing.T) {
	ctx := context.Background()
	store := NewSessionStore()

	_ = store.Put(ctx, domain.Session{Token: "old", Profile: domain.Profile{ID: "u1"}})
	_ = store.Put(ctx, domain.Session{Token: "new", Profile: domain.Profile{ID: "u1"}})

	if _, err := store.Get(ctx, "old"); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("expected old session replaced, got %v", err)
	}
	if _, err := store.Get(ctx, "new"); err != nil {
		t.Fatalf("expected new session: %v", err)
	}
}
