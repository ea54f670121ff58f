package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"explainit-service/internal/domain"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/driver/pgdriver"
)

type accountRow struct {
	bun.BaseModel `bun:"table:accounts"`

	ID           string    `bun:"id,pk"`
	Email        string    `bun:"email,notnull"`
	Name         string    `bun:"name,notnull"`
	Username     string    `bun:"username"`
	Age          int       `bun:"age"`
	Interests    []string  `bun:"interests,array"`
	Avatar       string    `bun:"avatar"`
	Friends      []string  `bun:"friends,array"`
	PasswordHash string    `bun:"password_hash,notnull"`
	CreatedAt    time.Time `bun:"created_at,notnull"`
}

func toRow(a domain.Account) accountRow {
	return accountRow{
		ID:           a.ID,
		Email:        domain.NormalizeEmail(a.Email),
		Name:         a.Name,
		Username:     a.Username,
		Age:          a.Age,
		Interests:    a.Interests,
		Avatar:       a.Avatar,
		Friends:      a.Friends,
		PasswordHash: a.PasswordHash,
		CreatedAt:    a.CreatedAt,
	}
}

func (r accountRow) account() domain.Account {
	return domain.Account{
		Profile: domain.Profile{
			ID:        r.ID,
			Name:      r.Name,
			Email:     r.Email,
			Username:  r.Username,
			Age:       r.Age,
			Interests: r.Interests,
			Avatar:    r.Avatar,
			Friends:   r.Friends,
		},
		PasswordHash: r.PasswordHash,
		CreatedAt:    r.CreatedAt,
	}
}

// AccountRepository stores accounts in the accounts table via bun.
type AccountRepository struct {
	db *bun.DB
}

func NewAccountRepository(db *bun.DB) *AccountRepository {
	return &AccountRepository{db: db}
}

func (r *AccountRepository) Create(ctx context.Context, account domain.Account) error {
	row := toRow(account)
	if _, err := r.db.NewInsert().Model(&row).Exec(ctx); err != nil {
		var pgErr pgdriver.Error
		if errors.As(err, &pgErr) && pgErr.Field('C') == "23505" {
			return domain.ErrEmailTaken
		}
		return fmt.Errorf("insert account: %w", err)
	}
	return nil
}

func (r *AccountRepository) GetByEmail(ctx context.Context, email string) (domain.Account, error) {
	var row accountRow
	err := r.db.NewSelect().Model(&row).Where("email = ?", domain.NormalizeEmail(email)).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Account{}, domain.ErrAccountNotFound
	}
	if err != nil {
		return domain.Account{}, fmt.Errorf("select account: %w", err)
	}
	return row.account(), nil
}

func (r *AccountRepository) Update(ctx context.Context, account domain.Account) error {
	row := toRow(account)
	res, err := r.db.NewUpdate().Model(&row).
		Column("name", "username", "age", "interests", "avatar", "friends", "password_hash").
		Where("email = ?", row.Email).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("update account: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return domain.ErrAccountNotFound
	}
	return nil
}
