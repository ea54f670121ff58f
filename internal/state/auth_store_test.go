package state

import (
	"context"
	"errors"
	"path/filepath"
	"strconv"
	"sync"
	"testing"

	"explainit-service/internal/domain"
)

type fakeAuthGateway struct {
	mu        sync.Mutex
	passwords map[string]string
	profiles  map[string]domain.Profile
	tokens    map[string]string
	next      int
	down      bool
}

func newFakeAuthGateway() *fakeAuthGateway {
	return &fakeAuthGateway{
		passwords: make(map[string]string),
		profiles:  make(map[string]domain.Profile),
		tokens:    make(map[string]string),
	}
}

func (g *fakeAuthGateway) Signup(_ context.Context, profile domain.Profile, password string) (domain.Session, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.passwords[profile.Email]; ok {
		return domain.Session{}, domain.ErrEmailTaken
	}
	profile.ID = profile.Email
	g.passwords[profile.Email] = password
	g.profiles[profile.Email] = profile
	return g.issueLocked(profile), nil
}

func (g *fakeAuthGateway) Login(_ context.Context, email, password string) (domain.Session, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if pw, ok := g.passwords[email]; !ok || pw != password {
		return domain.Session{}, domain.ErrInvalidCredentials
	}
	return g.issueLocked(g.profiles[email]), nil
}

func (g *fakeAuthGateway) Logout(_ context.Context, token string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.tokens, token)
	return nil
}

func (g *fakeAuthGateway) Me(_ context.Context, token string) (domain.Profile, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.down {
		return domain.Profile{}, errors.New("connection refused")
	}
	email, ok := g.tokens[token]
	if !ok {
		return domain.Profile{}, domain.ErrNotAuthenticated
	}
	return g.profiles[email], nil
}

func (g *fakeAuthGateway) UpdateProfile(_ context.Context, token string, update domain.ProfileUpdate) (domain.Profile, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	email, ok := g.tokens[token]
	if !ok {
		return domain.Profile{}, domain.ErrNotAuthenticated
	}
	profile := update.Apply(g.profiles[email])
	g.profiles[email] = profile
	return profile, nil
}

func (g *fakeAuthGateway) issueLocked(profile domain.Profile) domain.Session {
	g.next++
	token := "tok-" + strconv.Itoa(g.next)
	g.tokens[token] = profile.Email
	return domain.Session{Token: token, Profile: profile}
}

func TestLoginScenarios(t *testing.T) {
	gateway := newFakeAuthGateway()
	gateway.passwords["a@b.com"] = "x"
	gateway.profiles["a@b.com"] = domain.Profile{ID: "u1", Name: "Ada Lovelace", Email: "a@b.com"}

	store := NewAuthStore(gateway, nil)
	ctx := context.Background()

	if store.Login(ctx, "a@b.com", "wrong") {
		t.Fatalf("expected wrong password to fail")
	}
	if store.IsAuthenticated() {
		t.Fatalf("expected no session after failed login")
	}
	if store.Error() != LoginFailedMessage {
		t.Fatalf("expected generic error, got %q", store.Error())
	}
	store.Login(ctx, "nobody@b.com", "x")
	if store.Error() != LoginFailedMessage {
		t.Fatalf("expected the same message for unknown email, got %q", store.Error())
	}

	if !store.Login(ctx, "a@b.com", "x") {
		t.Fatalf("expected login to succeed")
	}
	user, ok := store.User()
	if !ok || !store.IsAuthenticated() || user.Name != "Ada Lovelace" {
		t.Fatalf("unexpected user %+v", user)
	}
	if store.Error() != "" {
		t.Fatalf("expected error cleared, got %q", store.Error())
	}

	store.Logout(ctx)
	if store.IsAuthenticated() || store.Token() != "" {
		t.Fatalf("expected logout to clear the session")
	}
}

func TestSignupAndUpdateProfile(t *testing.T) {
	store := NewAuthStore(newFakeAuthGateway(), nil)
	ctx := context.Background()

	if !store.Signup(ctx, domain.Profile{Name: "Demo", Email: "demo@example.com"}, "pw") {
		t.Fatalf("expected signup to succeed")
	}
	if store.Signup(ctx, domain.Profile{Name: "Again", Email: "demo@example.com"}, "pw") {
		t.Fatalf("expected duplicate signup to fail")
	}

	username := "@demo"
	if err := store.UpdateProfile(ctx, domain.ProfileUpdate{Username: &username}); err != nil {
		t.Fatalf("update: %v", err)
	}
	user, _ := store.User()
	if user.Username != "@demo" || user.Handle() != "@demo" {
		t.Fatalf("expected username update, got %+v", user)
	}

	store.Logout(ctx)
	if err := store.UpdateProfile(ctx, domain.ProfileUpdate{Username: &username}); !errors.Is(err, domain.ErrNotAuthenticated) {
		t.Fatalf("expected ErrNotAuthenticated, got %v", err)
	}
}

func TestRestorePersistedSession(t *testing.T) {
	gateway := newFakeAuthGateway()
	path := filepath.Join(t.TempDir(), "explainit", "session.json")
	ctx := context.Background()

	first := NewAuthStore(gateway, NewFileSession(path))
	if !first.Signup(ctx, domain.Profile{Name: "Demo", Email: "demo@example.com"}, "pw") {
		t.Fatalf("signup failed")
	}

	second := NewAuthStore(gateway, NewFileSession(path))
	if !second.Restore(ctx) || second.Token() != first.Token() {
		t.Fatalf("expected persisted session to be restored")
	}

	gateway.down = true
	offline := NewAuthStore(gateway, NewFileSession(path))
	if !offline.Restore(ctx) {
		t.Fatalf("expected session kept while backend is unreachable")
	}
	gateway.down = false

	first.Logout(ctx)
	if NewAuthStore(gateway, NewFileSession(path)).Restore(ctx) {
		t.Fatalf("expected no session after logout")
	}
}

func TestRestoreDropsRejectedToken(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	persist := NewFileSession(path)
	if err := persist.Save(domain.Session{Token: "stale"}); err != nil {
		t.Fatalf("save: %v", err)
	}

	store := NewAuthStore(newFakeAuthGateway(), persist)
	if store.Restore(context.Background()) {
		t.Fatalf("expected stale token to be rejected")
	}
	if _, ok, _ := persist.Load(); ok {
		t.Fatalf("expected persisted session to be cleared")
	}
}
