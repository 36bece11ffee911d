// Package credentials keeps dashboard logins. It gates the dashboard for a handful of
// local operators and makes no stronger security claims than that.
package credentials

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrUserExists         = errors.New("username already exists")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrEmptyCredentials   = errors.New("username and password are required")
	ErrEmptyPassword      = errors.New("new password cannot be empty")
)

const schema = `
CREATE TABLE IF NOT EXISTS users (
	username      TEXT PRIMARY KEY,
	password_hash TEXT NOT NULL,
	created_at    BIGINT NOT NULL,
	updated_at    BIGINT NOT NULL
)`

type user struct {
	Username     string `db:"username"`
	PasswordHash string `db:"password_hash"`
	CreatedAt    int64  `db:"created_at"`
	UpdatedAt    int64  `db:"updated_at"`
}

type Store struct {
	db   *sqlx.DB
	cost int
}

// NewStore creates the users table if needed. cost 0 means bcrypt.DefaultCost.
func NewStore(ctx context.Context, db *sqlx.DB, cost int) (*Store, error) {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return nil, fmt.Errorf("create users table: %w", err)
	}
	return &Store{db: db, cost: cost}, nil
}

// Register adds a user. Both values are trimmed first.
func (s *Store) Register(ctx context.Context, username, password string) error {
	username, password = strings.TrimSpace(username), strings.TrimSpace(password)
	if username == "" || password == "" {
		return ErrEmptyCredentials
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var n int
	if err := tx.GetContext(ctx, &n, s.db.Rebind(`SELECT COUNT(*) FROM users WHERE username = ?`), username); err != nil {
		return err
	}
	if n > 0 {
		return ErrUserExists
	}
	now := time.Now().Unix()
	if _, err := tx.ExecContext(ctx,
		s.db.Rebind(`INSERT INTO users(username, password_hash, created_at, updated_at) VALUES (?, ?, ?, ?)`),
		username, string(hash), now, now); err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	return tx.Commit()
}

// Verify checks a login. Unknown users and wrong passwords are indistinguishable.
func (s *Store) Verify(ctx context.Context, username, password string) error {
	u, err := s.get(ctx, strings.TrimSpace(username))
	if err != nil {
		return err
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(strings.TrimSpace(password))) != nil {
		return ErrInvalidCredentials
	}
	return nil
}

// ChangePassword replaces the password after checking the current one.
func (s *Store) ChangePassword(ctx context.Context, username, oldPassword, newPassword string) error {
	newPassword = strings.TrimSpace(newPassword)
	if newPassword == "" {
		return ErrEmptyPassword
	}
	if err := s.Verify(ctx, username, oldPassword); err != nil {
		return err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), s.cost)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		s.db.Rebind(`UPDATE users SET password_hash = ?, updated_at = ? WHERE username = ?`),
		string(hash), time.Now().Unix(), strings.TrimSpace(username))
	return err
}

func (s *Store) get(ctx context.Context, username string) (user, error) {
	var u user
	err := s.db.GetContext(ctx, &u, s.db.Rebind(`SELECT username, password_hash, created_at, updated_at FROM users WHERE username = ?`), username)
	if errors.Is(err, sql.ErrNoRows) {
		return user{}, ErrInvalidCredentials
	}
	return u, err
}
