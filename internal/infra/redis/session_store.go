package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"explainit-service/internal/domain"
	"github.com/redis/go-redis/v9"
)

// SessionStore keeps login sessions in Redis so they survive restarts and
// are shared between instances.
//
//	auth:session:{token} -> session JSON
//	auth:user:{userID}   -> token of the account's live session
type SessionStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewSessionStore uses ttl for sessions that carry no expiry of their own.
func NewSessionStore(client *redis.Client, ttl time.Duration) *SessionStore {
	return &SessionStore{client: client, ttl: ttl}
}

func (s *SessionStore) Put(ctx context.Context, session domain.Session) error {
	raw, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	ttl := s.ttl
	if !session.ExpiresAt.IsZero() {
		ttl = time.Until(session.ExpiresAt)
		if ttl <= 0 {
			return nil
		}
	}

	prev, err := s.client.Get(ctx, s.userKey(session.Profile.ID)).Result()
	if err != nil && !isNil(err) {
		return fmt.Errorf("lookup previous session: %w", err)
	}

	pipe := s.client.TxPipeline()
	if prev != "" && prev != session.Token {
		pipe.Del(ctx, s.sessionKey(prev))
	}
	pipe.Set(ctx, s.sessionKey(session.Token), raw, ttl)
	pipe.Set(ctx, s.userKey(session.Profile.ID), session.Token, ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("store session: %w", err)
	}
	return nil
}

func (s *SessionStore) Get(ctx context.Context, token string) (domain.Session, error) {
	raw, err := s.client.Get(ctx, s.sessionKey(token)).Bytes()
	if isNil(err) {
		return domain.Session{}, domain.ErrSessionNotFound
	}
	if err != nil {
		return domain.Session{}, fmt.Errorf("load session: %w", err)
	}
	var session domain.Session
	if err := json.Unmarshal(raw, &session); err != nil {
		return domain.Session{}, fmt.Errorf("unmarshal session: %w", err)
	}
	return session, nil
}

func (s *SessionStore) Delete(ctx context.Context, token string) error {
	session, err := s.Get(ctx, token)
	if err != nil {
		return nil
	}
	pipe := s.client.TxPipeline()
	pipe.Del(ctx, s.sessionKey(token))
	userKey := s.userKey(session.Profile.ID)
	if current, err := s.client.Get(ctx, userKey).Result(); err == nil && current == token {
		pipe.Del(ctx, userKey)
	}
	_, err = pipe.Exec(ctx)
	return err
}

func (s *SessionStore) sessionKey(token string) string {
	return "auth:session:" + token
}

func (s *SessionStore) userKey(userID string) string {
	return "auth:user:" + userID
}
