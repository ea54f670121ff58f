package memory

import (
	"context"
	"sync"

	"explainit-service/internal/domain"
)

// SessionStore is an in-memory implementation of app.SessionRepository.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]domain.Session
	byUser   map[string]string
}

func NewSessionStore() *SessionStore {
	return &SessionStore{
		sessions: make(map[string]domain.Session),
		byUser:   make(map[string]string),
	}
}

func (s *SessionStore) Put(_ context.Context, session domain.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if prev, ok := s.byUser[session.Profile.ID]; ok && prev != session.Token {
		delete(s.sessions, prev)
	}
	s.sessions[session.Token] = session
	s.byUser[session.Profile.ID] = session.Token
	return nil
}

func (s *SessionStore) Get(_ context.Context, token string) (domain.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[token]
	if !ok {
		return domain.Session{}, domain.ErrSessionNotFound
	}
	return session, nil
}

func (s *SessionStore) Delete(_ context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[token]
	if !ok {
		return nil
	}
	delete(s.sessions, token)
	if s.byUser[session.Profile.ID] == token {
		delete(s.byUser, session.Profile.ID)
	}
	return nil
}
