package auth

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
)

func newTestUserStore(t *testing.T) *UserStore {
	t.Helper()
	store, err := OpenUserStore(filepath.Join(t.TempDir(), "users.db"))
	if err != nil {
		t.Fatalf("open user store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestCreateAndLookupUser(t *testing.T) {
	store := newTestUserStore(t)
	ctx := context.Background()

	if err := store.Create(ctx, "alice", "hash-1"); err != nil {
		t.Fatalf("create error: %v", err)
	}

	u, err := store.ByUsername(ctx, "alice")
	if err != nil {
		t.Fatalf("lookup error: %v", err)
	}
	if u.Username != "alice" || u.PasswordHash != "hash-1" {
		t.Errorf("unexpected user: %+v", u)
	}
	if u.ID == 0 {
		t.Error("expected a non-zero row ID")
	}
	if u.CreatedAt.IsZero() {
		t.Error("expected created_at to be set")
	}
}

func TestLookupUnknownUser(t *testing.T) {
	store := newTestUserStore(t)

	_, err := store.ByUsername(context.Background(), "nobody")
	if !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestCreateDuplicateUsername(t *testing.T) {
	store := newTestUserStore(t)
	ctx := context.Background()

	if err := store.Create(ctx, "alice", "hash-1"); err != nil {
		t.Fatalf("create error: %v", err)
	}

	err := store.Create(ctx, "alice", "hash-2")
	if !errors.Is(err, ErrUsernameTaken) {
		t.Fatalf("expected ErrUsernameTaken, got %v", err)
	}

	// The original account is untouched.
	u, err := store.ByUsername(ctx, "alice")
	if err != nil {
		t.Fatalf("lookup error: %v", err)
	}
	if u.PasswordHash != "hash-1" {
		t.Errorf("expected the original hash, got %q", u.PasswordHash)
	}
}
