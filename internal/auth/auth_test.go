package auth

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"

	_ "github.com/mattn/go-sqlite3"
)

func setupService(t *testing.T) *Service {
	t.Helper()
	db, err := sql.Open("sqlite3", "file:"+filepath.Join(t.TempDir(), "auth.db"))
	if err != nil {
		t.Fatalf("opening db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	svc, err := NewService(db)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return svc
}

func TestSignupAndLogin(t *testing.T) {
	svc := setupService(t)
	ctx := context.Background()

	id, err := svc.Signup(ctx, "Student@KPU.CA", "secret123", "A Student")
	if err != nil {
		t.Fatalf("signup: %v", err)
	}
	if id == 0 {
		t.Error("expected a user id")
	}

	// Email comparison is case-insensitive via normalization.
	token, user, err := svc.Login(ctx, "student@kpu.ca", "secret123")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if token == "" {
		t.Error("expected a login token")
	}
	if user.ID != id || user.Role != "student" {
		t.Errorf("unexpected user: %+v", user)
	}
}

func TestSignup_DuplicateEmail(t *testing.T) {
	svc := setupService(t)
	ctx := context.Background()

	if _, err := svc.Signup(ctx, "s@kpu.ca", "pw", ""); err != nil {
		t.Fatalf("first signup: %v", err)
	}
	_, err := svc.Signup(ctx, "s@kpu.ca", "other", "")
	if !errors.Is(err, ErrEmailTaken) {
		t.Errorf("expected ErrEmailTaken, got %v", err)
	}
}

func TestSignup_MissingCredentials(t *testing.T) {
	svc := setupService(t)

	if _, err := svc.Signup(context.Background(), "", "pw", ""); !errors.Is(err, ErrMissingCredentials) {
		t.Errorf("expected ErrMissingCredentials, got %v", err)
	}
	if _, err := svc.Signup(context.Background(), "a@b.c", "", ""); !errors.Is(err, ErrMissingCredentials) {
		t.Errorf("expected ErrMissingCredentials, got %v", err)
	}
}

func TestLogin_WrongPassword(t *testing.T) {
	svc := setupService(t)
	ctx := context.Background()

	if _, err := svc.Signup(ctx, "s@kpu.ca", "right", ""); err != nil {
		t.Fatalf("signup: %v", err)
	}
	_, _, err := svc.Login(ctx, "s@kpu.ca", "wrong")
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestLogin_UnknownEmail(t *testing.T) {
	svc := setupService(t)

	_, _, err := svc.Login(context.Background(), "nobody@kpu.ca", "pw")
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestResolveAndLogout(t *testing.T) {
	svc := setupService(t)
	ctx := context.Background()

	if _, err := svc.Signup(ctx, "s@kpu.ca", "pw", ""); err != nil {
		t.Fatalf("signup: %v", err)
	}
	token, user, err := svc.Login(ctx, "s@kpu.ca", "pw")
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	resolved, err := svc.Resolve(ctx, token)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if resolved.ID != user.ID {
		t.Errorf("resolved wrong user: %+v", resolved)
	}

	if err := svc.Logout(ctx, token); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if _, err := svc.Resolve(ctx, token); !errors.Is(err, ErrNotLoggedIn) {
		t.Errorf("expected ErrNotLoggedIn after logout, got %v", err)
	}
}

func TestResolve_EmptyToken(t *testing.T) {
	svc := setupService(t)

	if _, err := svc.Resolve(context.Background(), ""); !errors.Is(err, ErrNotLoggedIn) {
		t.Errorf("expected ErrNotLoggedIn, got %v", err)
	}
}
