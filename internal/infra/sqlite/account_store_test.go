package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"explainit-service/internal/domain"
)

func TestAccountStoreRoundTrip(t *testing.T) {
	store, err := Open(filepath.Join(t.TempDir(), "data", "accounts.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer store.Close()
	ctx := context.Background()

	account := domain.Account{
		Profile: domain.Profile{
			ID:        "u1",
			Name:      "Demo User",
			Email:     "Demo@Example.com",
			Interests: []string{"physics", "history"},
		},
		PasswordHash: "hash",
		CreatedAt:    time.Date(2026, 10, 19, 8, 0, 0, 0, time.UTC),
	}
	if err := store.Create(ctx, account); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := store.Create(ctx, account); !errors.Is(err, domain.ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}

	got, err := store.GetByEmail(ctx, " demo@example.com ")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.ID != "u1" || len(got.Interests) != 2 || len(got.Friends) != 0 {
		t.Fatalf("unexpected account %+v", got)
	}
	if !got.CreatedAt.Equal(account.CreatedAt) {
		t.Fatalf("expected created_at %v, got %v", account.CreatedAt, got.CreatedAt)
	}

	got.Username = "@demo"
	got.Friends = []string{"u2"}
	if err := store.Update(ctx, got); err != nil {
		t.Fatalf("update: %v", err)
	}
	updated, _ := store.GetByEmail(ctx, "demo@example.com")
	if updated.Username != "@demo" || !updated.IsFriend("u2") {
		t.Fatalf("update not persisted: %+v", updated)
	}
}

func TestAccountStoreMissing(t *testing.T) {
	store, err := Open(filepath.Join(t.TempDir(), "accounts.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer store.Close()

	if _, err := store.GetByEmail(context.Background(), "nobody@example.com"); !errors.Is(err, domain.ErrAccountNotFound) {
		t.Fatalf("expected ErrAccountNotFound, got %v", err)
	}
	err = store.Update(context.Background(), domain.Account{Profile: domain.Profile{Email: "nobody@example.com"}})
	if !errors.Is(err, domain.ErrAccountNotFound) {
		t.Fatalf("expected ErrAccountNotFound, got %v", err)
	}
}
