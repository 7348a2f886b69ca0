package auth

import (
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestRedisStore(t *testing.T, ttl time.Duration) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return NewRedisStore(client, ttl), mr
}

func TestRedisStoreCreateAndGet(t *testing.T) {
	store, _ := newTestRedisStore(t, time.Hour)

	s := store.Create("alice")
	if s.Token == "" {
		t.Fatal("expected a non-empty token")
	}

	got, ok := store.Get(s.Token)
	if !ok {
		t.Fatal("expected to find the session")
	}
	if got.Username != "alice" {
		t.Errorf("expected username alice, got %q", got.Username)
	}
	if got.Token != s.Token {
		t.Errorf("expected token %q, got %q", s.Token, got.Token)
	}
}

func TestRedisStoreGetNotFound(t *testing.T) {
	store, _ := newTestRedisStore(t, time.Hour)
	if _, ok := store.Get("nonexistent"); ok {
		t.Error("expected not-found for an unknown token")
	}
}

func TestRedisStoreDelete(t *testing.T) {
	store, _ := newTestRedisStore(t, time.Hour)

	s := store.Create("alice")
	store.Delete(s.Token)

	if _, ok := store.Get(s.Token); ok {
		t.Error("expected the session to be gone after delete")
	}
}

func TestRedisStoreExpiry(t *testing.T) {
	store, mr := newTestRedisStore(t, time.Minute)

	s := store.Create("alice")
	mr.FastForward(2 * time.Minute)

	if _, ok := store.Get(s.Token); ok {
		t.Error("expected the session to have expired")
	}
}
