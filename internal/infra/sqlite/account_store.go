// Package sqlite persists accounts in a single-file SQLite database, the
// default when no Postgres URL is configured.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"explainit-service/internal/domain"
	"github.com/mattn/go-sqlite3"
)

// AccountStore handles account rows in SQLite.
type AccountStore struct {
	conn *sql.DB
}

// Open creates the database file (and its directory) and initializes tables.
func Open(path string) (*AccountStore, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, err
	}
	if err := createTables(db); err != nil {
		db.Close()
		return nil, err
	}
	return &AccountStore{conn: db}, nil
}

func (s *AccountStore) Close() error {
	return s.conn.Close()
}

func createTables(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS accounts (
			id TEXT PRIMARY KEY,
			email TEXT NOT NULL UNIQUE,
			name TEXT NOT NULL,
			username TEXT NOT NULL DEFAULT '',
			age INTEGER NOT NULL DEFAULT 0,
			interests TEXT NOT NULL DEFAULT '[]',
			avatar TEXT NOT NULL DEFAULT '',
			friends TEXT NOT NULL DEFAULT '[]',
			password_hash TEXT NOT NULL,
			created_at INTEGER NOT NULL
		)
	`)
	return err
}

func (s *AccountStore) Create(ctx context.Context, account domain.Account) error {
	interests, friends, err := encodeLists(account.Profile)
	if err != nil {
		return err
	}
	_, err = s.conn.ExecContext(ctx,
		`INSERT INTO accounts (id, email, name, username, age, interests, avatar, friends, password_hash, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		account.ID, domain.NormalizeEmail(account.Email), account.Name, account.Username, account.Age,
		interests, account.Avatar, friends, account.PasswordHash, account.CreatedAt.Unix(),
	)
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique {
		return domain.ErrEmailTaken
	}
	if err != nil {
		return fmt.Errorf("insert account: %w", err)
	}
	return nil
}

func (s *AccountStore) GetByEmail(ctx context.Context, email string) (domain.Account, error) {
	var (
		account            domain.Account
		interests, friends string
		createdAt          int64
	)
	err := s.conn.QueryRowContext(ctx,
		`SELECT id, email, name, username, age, interests, avatar, friends, password_hash, created_at
		 FROM accounts WHERE email = ?`,
		domain.NormalizeEmail(email),
	).Scan(&account.ID, &account.Email, &account.Name, &account.Username, &account.Age,
		&interests, &account.Avatar, &friends, &account.PasswordHash, &createdAt)
	if err == sql.ErrNoRows {
		return domain.Account{}, domain.ErrAccountNotFound
	}
	if err != nil {
		return domain.Account{}, fmt.Errorf("select account: %w", err)
	}
	if err := json.Unmarshal([]byte(interests), &account.Interests); err != nil {
		return domain.Account{}, fmt.Errorf("decode interests: %w", err)
	}
	if err := json.Unmarshal([]byte(friends), &account.Friends); err != nil {
		return domain.Account{}, fmt.Errorf("decode friends: %w", err)
	}
	account.CreatedAt = time.Unix(createdAt, 0).UTC()
	return account, nil
}

func (s *AccountStore) Update(ctx context.Context, account domain.Account) error {
	interests, friends, err := encodeLists(account.Profile)
	if err != nil {
		return err
	}
	res, err := s.conn.ExecContext(ctx,
		`UPDATE accounts SET name = ?, username = ?, age = ?, interests = ?, avatar = ?, friends = ?, password_hash = ?
		 WHERE email = ?`,
		account.Name, account.Username, account.Age, interests, account.Avatar, friends, account.PasswordHash,
		domain.NormalizeEmail(account.Email),
	)
	if err != nil {
		return fmt.Errorf("update account: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrAccountNotFound
	}
	return nil
}

func encodeLists(p domain.Profile) (string, string, error) {
	interests, err := json.Marshal(nonNil(p.Interests))
	if err != nil {
		return "", "", err
	}
	friends, err := json.Marshal(nonNil(p.Friends))
	if err != nil {
		return "", "", err
	}
	return string(interests), string(friends), nil
}

func nonNil(list []string) []string {
	if list == nil {
		return []string{}
	}
	return list
}
