package state

import (
	"context"
	"errors"
	"log"
	"sync"

	"explainit-service/internal/domain"
	"explainit-service/internal/pubsub"
)

// LoginFailedMessage is shown for every rejected login so a wrong password
// and an unknown email look the same.
const LoginFailedMessage = "Invalid email or password"

// AuthGateway is the backend's account API.
type AuthGateway interface {
	Signup(ctx context.Context, profile domain.Profile, password string) (domain.Session, error)
	Login(ctx context.Context, email, password string) (domain.Session, error)
	Logout(ctx context.Context, token string) error
	Me(ctx context.Context, token string) (domain.Profile, error)
	UpdateProfile(ctx context.Context, token string, update domain.ProfileUpdate) (domain.Profile, error)
}

// SessionPersister keeps the session between runs. Only the token and
// profile are stored, never a password.
type SessionPersister interface {
	Load() (domain.Session, bool, error)
	Save(session domain.Session) error
	Clear() error
}

// AuthState is the observable part of the store.
type AuthState struct {
	User  *domain.Profile
	Error string
}

// AuthStore holds at most one session.
type AuthStore struct {
	mu      sync.RWMutex
	gateway AuthGateway
	persist SessionPersister
	session *domain.Session
	err     string
	hub     *pubsub.Hub[AuthState]
}

// NewAuthStore accepts a nil persister for in-memory sessions.
func NewAuthStore(gateway AuthGateway, persist SessionPersister) *AuthStore {
	return &AuthStore{
		gateway: gateway,
		persist: persist,
		hub:     pubsub.NewHub[AuthState](4),
	}
}

// Restore loads the persisted session and checks it with the backend. A
// rejected token clears it; an unreachable backend keeps it.
func (s *AuthStore) Restore(ctx context.Context) bool {
	if s.persist == nil {
		return false
	}
	session, ok, err := s.persist.Load()
	if err != nil {
		log.Printf("load session: %v", err)
		return false
	}
	if !ok || session.Token == "" {
		return false
	}

	profile, err := s.gateway.Me(ctx, session.Token)
	switch {
	case errors.Is(err, domain.ErrNotAuthenticated):
		s.clear()
		return false
	case err != nil:
		log.Printf("verify session: %v", err)
	default:
		session.Profile = profile
	}
	s.set(session, "")
	return true
}

// Login reports success; on failure Error() holds the message to show.
func (s *AuthStore) Login(ctx context.Context, email, password string) bool {
	session, err := s.gateway.Login(ctx, email, password)
	if err != nil {
		if !errors.Is(err, domain.ErrInvalidCredentials) {
			log.Printf("login: %v", err)
		}
		s.fail(LoginFailedMessage)
		return false
	}
	s.set(session, "")
	return true
}

func (s *AuthStore) Signup(ctx context.Context, profile domain.Profile, password string) bool {
	session, err := s.gateway.Signup(ctx, profile, password)
	if err != nil {
		msg := "Signup failed"
		if errors.Is(err, domain.ErrEmailTaken) {
			msg = "An account with this email already exists"
		}
		s.fail(msg)
		return false
	}
	s.set(session, "")
	return true
}

// Logout always ends the local session, even if the backend call fails.
func (s *AuthStore) Logout(ctx context.Context) {
	token := s.Token()
	if token != "" {
		if err := s.gateway.Logout(ctx, token); err != nil {
			log.Printf("logout: %v", err)
		}
	}
	s.clear()
}

// UpdateProfile merges update into the current profile on the backend and
// mirrors the result locally.
func (s *AuthStore) UpdateProfile(ctx context.Context, update domain.ProfileUpdate) error {
	s.mu.RLock()
	if s.session == nil {
		s.mu.RUnlock()
		return domain.ErrNotAuthenticated
	}
	session := *s.session
	s.mu.RUnlock()

	profile, err := s.gateway.UpdateProfile(ctx, session.Token, update)
	if err != nil {
		return err
	}
	session.Profile = profile
	s.set(session, "")
	return nil
}

func (s *AuthStore) User() (domain.Profile, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.session == nil {
		return domain.Profile{}, false
	}
	return s.session.Profile, true
}

// Token is empty when logged out.
func (s *AuthStore) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.session == nil {
		return ""
	}
	return s.session.Token
}

func (s *AuthStore) IsAuthenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.session != nil
}

// Error is the message of the last failed login or signup.
func (s *AuthStore) Error() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.err
}

// Subscribe streams state changes, starting with the current state.
// The caller must invoke the returned cancel function to avoid leaks.
func (s *AuthStore) Subscribe() (<-chan AuthState, func()) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.hub.Subscribe(s.stateLocked())
}

func (s *AuthStore) set(session domain.Session, errMsg string) {
	if s.persist != nil {
		if err := s.persist.Save(session); err != nil {
			log.Printf("save session: %v", err)
		}
	}
	s.mu.Lock()
	s.session = &session
	s.err = errMsg
	s.hub.Publish(s.stateLocked())
	s.mu.Unlock()
}

func (s *AuthStore) fail(msg string) {
	s.mu.Lock()
	s.err = msg
	s.hub.Publish(s.stateLocked())
	s.mu.Unlock()
}

func (s *AuthStore) clear() {
	if s.persist != nil {
		if err := s.persist.Clear(); err != nil {
			log.Printf("clear session: %v", err)
		}
	}
	s.mu.Lock()
	s.session = nil
	s.err = ""
	s.hub.Publish(s.stateLocked())
	s.mu.Unlock()
}

func (s *AuthStore) stateLocked() AuthState {
	st := AuthState{Error: s.err}
	if s.session != nil {
		profile := s.session.Profile
		st.User = &profile
	}
	return st
}
