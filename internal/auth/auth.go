// Package auth is the account and login collaborator surface. The chat
// core never touches credentials; it only consumes the user id this
// package resolves from a login token.
package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/mattn/go-sqlite3"
	"golang.org/x/crypto/bcrypt"
)

var (
	// ErrMissingCredentials rejects signup/login without email and password.
	ErrMissingCredentials = errors.New("email and password are required")
	// ErrEmailTaken signals a duplicate signup email.
	ErrEmailTaken = errors.New("email already exists")
	// ErrInvalidCredentials covers unknown, inactive, and wrong-password logins alike.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrNotLoggedIn means the token resolves to no active login.
	ErrNotLoggedIn = errors.New("not logged in")
)

const schema = `
CREATE TABLE IF NOT EXISTS users (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	email         TEXT NOT NULL UNIQUE,
	full_name     TEXT NOT NULL DEFAULT '',
	password_hash TEXT NOT NULL,
	role          TEXT NOT NULL DEFAULT 'student',
	is_active     INTEGER NOT NULL DEFAULT 1,
	created_at    TEXT NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS auth_tokens (
	token      TEXT PRIMARY KEY,
	user_id    INTEGER NOT NULL REFERENCES users(id),
	created_at TEXT NOT NULL DEFAULT (datetime('now'))
);
`

// User is the resolved identity handed to the chat core.
type User struct {
	ID    int64
	Email string
	Role  string
}

// Service manages accounts and opaque login tokens.
type Service struct {
	db *sql.DB
}

// NewService initializes the auth tables on the shared database.
func NewService(db *sql.DB) (*Service, error) {
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("initializing auth schema: %w", err)
	}
	return &Service{db: db}, nil
}

// Signup creates an account with a bcrypt-hashed password. New accounts
// get the student role.
func (s *Service) Signup(ctx context.Context, email, password, fullName string) (int64, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return 0, ErrMissingCredentials
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return 0, fmt.Errorf("hashing password: %w", err)
	}

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO users (email, full_name, password_hash) VALUES (?, ?, ?)`,
		email, strings.TrimSpace(fullName), string(hash),
	)
	if err != nil {
		var se sqlite3.Error
		if errors.As(err, &se) && se.ExtendedCode == sqlite3.ErrConstraintUnique {
			return 0, ErrEmailTaken
		}
		return 0, fmt.Errorf("inserting user: %w", err)
	}
	return res.LastInsertId()
}

// Login verifies the credentials and issues an opaque token stored
// server-side. The token is what the cookie carries.
func (s *Service) Login(ctx context.Context, email, password string) (string, *User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return "", nil, ErrMissingCredentials
	}

	var u User
	var hash string
	err := s.db.QueryRowContext(ctx,
		`SELECT id, email, role, password_hash FROM users WHERE email = ? AND is_active = 1`,
		email,
	).Scan(&u.ID, &u.Email, &u.Role, &hash)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil, ErrInvalidCredentials
	}
	if err != nil {
		return "", nil, fmt.Errorf("loading user: %w", err)
	}

	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) != nil {
		return "", nil, ErrInvalidCredentials
	}

	token := uuid.NewString()
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO auth_tokens (token, user_id) VALUES (?, ?)`,
		token, u.ID,
	); err != nil {
		return "", nil, fmt.Errorf("storing token: %w", err)
	}
	return token, &u, nil
}

// Logout invalidates a token. Unknown tokens are a no-op.
func (s *Service) Logout(ctx context.Context, token string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM auth_tokens WHERE token = ?`, token)
	if err != nil {
		return fmt.Errorf("deleting token: %w", err)
	}
	return nil
}

// Resolve maps a login token to its active user.
func (s *Service) Resolve(ctx context.Context, token string) (*User, error) {
	if token == "" {
		return nil, ErrNotLoggedIn
	}
	var u User
	err := s.db.QueryRowContext(ctx,
		`SELECT u.id, u.email, u.role
		 FROM auth_tokens t JOIN users u ON u.id = t.user_id
		 WHERE t.token = ? AND u.is_active = 1`,
		token,
	).Scan(&u.ID, &u.Email, &u.Role)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotLoggedIn
	}
	if err != nil {
		return nil, fmt.Errorf("resolving token: %w", err)
	}
	return &u, nil
}
