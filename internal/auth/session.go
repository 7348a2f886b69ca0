package auth

import (
	"crypto/rand"
	"encoding/hex"
	"sync"
	"time"
)

// Session binds a verified username to a browser via an opaque token.
type Session struct {
	Token     string    `json:"token"`
	Username  string    `json:"username"`
	CreatedAt time.Time `json:"created_at"`
}

// SessionStore is the interface for session persistence backends.
type SessionStore interface {
	Create(username string) Session
	Get(token string) (Session, bool)
	Delete(token string)
}

// MemoryStore keeps sessions in memory with TTL expiry.
type MemoryStore struct {
	mu       sync.Mutex
	sessions map[string]Session
	ttl      time.Duration
}

// NewMemoryStore creates a store that expires sessions after ttl.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	ms := &MemoryStore{
		sessions: make(map[string]Session),
		ttl:      ttl,
	}
	go ms.reapLoop()
	return ms
}

// Create issues a new session for the username.
func (ms *MemoryStore) Create(username string) Session {
	s := Session{
		Token:     generateToken(),
		Username:  username,
		CreatedAt: time.Now(),
	}
	ms.mu.Lock()
	ms.sessions[s.Token] = s
	ms.mu.Unlock()
	return s
}

// Get returns the session for the token, if it exists and has not expired.
func (ms *MemoryStore) Get(token string) (Session, bool) {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	s, ok := ms.sessions[token]
	if !ok {
		return Session{}, false
	}
	if time.Since(s.CreatedAt) > ms.ttl {
		delete(ms.sessions, token)
		return Session{}, false
	}
	return s, true
}

// Delete removes a session immediately.
func (ms *MemoryStore) Delete(token string) {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	delete(ms.sessions, token)
}

// Count returns the number of live sessions.
func (ms *MemoryStore) Count() int {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	return len(ms.sessions)
}

// reapLoop periodically removes expired sessions.
func (ms *MemoryStore) reapLoop() {
	ticker := time.NewTicker(ms.ttl / 2)
	defer ticker.Stop()
	for range ticker.C {
		ms.reap()
	}
}

func (ms *MemoryStore) reap() {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	now := time.Now()
	for token, s := range ms.sessions {
		if now.Sub(s.CreatedAt) > ms.ttl {
			delete(ms.sessions, token)
		}
	}
}

func generateToken() string {
	b := make([]byte, 16)
	rand.Read(b)
	return hex.EncodeToString(b)
}
