package app

import (
	"context"
	"errors"
	"strings"
	"time"

	"explainit-service/internal/domain"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// AccountRepository stores accounts keyed by normalized email.
type AccountRepository interface {
	Create(ctx context.Context, account domain.Account) error
	GetByEmail(ctx context.Context, email string) (domain.Account, error)
	Update(ctx context.Context, account domain.Account) error
}

// SessionRepository stores login sessions. Put replaces any earlier session
// of the same account so each account has at most one.
type SessionRepository interface {
	Put(ctx context.Context, session domain.Session) error
	Get(ctx context.Context, token string) (domain.Session, error)
	Delete(ctx context.Context, token string) error
}

// AuthService owns signup, login and profile updates.
type AuthService struct {
	accounts   AccountRepository
	sessions   SessionRepository
	sessionTTL time.Duration
	cost       int
	now        func() time.Time
}

func NewAuthService(accounts AccountRepository, sessions SessionRepository, sessionTTL time.Duration, bcryptCost int) *AuthService {
	if bcryptCost < bcrypt.MinCost {
		bcryptCost = bcrypt.DefaultCost
	}
	return &AuthService{
		accounts:   accounts,
		sessions:   sessions,
		sessionTTL: sessionTTL,
		cost:       bcryptCost,
		now:        time.Now,
	}
}

// Signup creates an account and logs it in.
func (s *AuthService) Signup(ctx context.Context, profile domain.Profile, password string) (domain.Session, error) {
	profile.Email = domain.NormalizeEmail(profile.Email)
	profile.Name = strings.TrimSpace(profile.Name)
	if profile.Email == "" || password == "" {
		return domain.Session{}, domain.ErrInvalidAccount
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return domain.Session{}, err
	}
	profile.ID = uuid.NewString()
	account := domain.Account{
		Profile:      profile,
		PasswordHash: string(hash),
		CreatedAt:    s.now(),
	}
	if err := s.accounts.Create(ctx, account); err != nil {
		return domain.Session{}, err
	}
	return s.createSession(ctx, account.Profile)
}

// Login checks credentials. Unknown email and wrong password produce the
// same error.
func (s *AuthService) Login(ctx context.Context, email, password string) (domain.Session, error) {
	account, err := s.accounts.GetByEmail(ctx, domain.NormalizeEmail(email))
	if errors.Is(err, domain.ErrAccountNotFound) {
		return domain.Session{}, domain.ErrInvalidCredentials
	}
	if err != nil {
		return domain.Session{}, err
	}
	if bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(password)) != nil {
		return domain.Session{}, domain.ErrInvalidCredentials
	}
	return s.createSession(ctx, account.Profile)
}

// Logout drops the session. Unknown tokens are ignored.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	return s.sessions.Delete(ctx, token)
}

// Authenticate resolves a bearer token to its session.
func (s *AuthService) Authenticate(ctx context.Context, token string) (domain.Session, error) {
	if token == "" {
		return domain.Session{}, domain.ErrSessionNotFound
	}
	session, err := s.sessions.Get(ctx, token)
	if err != nil {
		return domain.Session{}, err
	}
	if !session.ExpiresAt.IsZero() && !session.ExpiresAt.After(s.now()) {
		_ = s.sessions.Delete(ctx, token)
		return domain.Session{}, domain.ErrSessionNotFound
	}
	return session, nil
}

// UpdateProfile merges update into the account matched by the session's
// email and keeps the session's copy of the profile in sync.
func (s *AuthService) UpdateProfile(ctx context.Context, token string, update domain.ProfileUpdate) (domain.Profile, error) {
	session, err := s.Authenticate(ctx, token)
	if err != nil {
		return domain.Profile{}, err
	}
	account, err := s.accounts.GetByEmail(ctx, session.Profile.Email)
	if err != nil {
		return domain.Profile{}, err
	}
	account.Profile = update.Apply(account.Profile)
	if err := s.accounts.Update(ctx, account); err != nil {
		return domain.Profile{}, err
	}
	session.Profile = account.Profile
	if err := s.sessions.Put(ctx, session); err != nil {
		return domain.Profile{}, err
	}
	return account.Profile, nil
}

func (s *AuthService) createSession(ctx context.Context, profile domain.Profile) (domain.Session, error) {
	session := domain.Session{
		Token:   uuid.NewString(),
		Profile: profile,
	}
	if s.sessionTTL > 0 {
		session.ExpiresAt = s.now().Add(s.sessionTTL)
	}
	if err := s.sessions.Put(ctx, session); err != nil {
		return domain.Session{}, err
	}
	return session, nil
}
