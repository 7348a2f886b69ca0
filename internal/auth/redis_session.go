package auth

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

// redisKey returns the Redis key for a session token.
func redisKey(token string) string {
	return "session:" + token
}

// RedisStore persists sessions in Redis with TTL expiry, so logins
// survive server restarts.
type RedisStore struct {
	client redis.Cmdable
	ttl    time.Duration
}

// NewRedisStore creates a RedisStore that expires sessions after ttl.
func NewRedisStore(client redis.Cmdable, ttl time.Duration) *RedisStore {
	return &RedisStore{
		client: client,
		ttl:    ttl,
	}
}

// Create issues a new session for the username.
func (rs *RedisStore) Create(username string) Session {
	s := Session{
		Token:     generateToken(),
		Username:  username,
		CreatedAt: time.Now(),
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	data, err := json.Marshal(s)
	if err != nil {
		log.Printf("redis: failed to marshal session: %v", err)
		return s
	}
	if err := rs.client.Set(ctx, redisKey(s.Token), data, rs.ttl).Err(); err != nil {
		log.Printf("redis: failed to store session: %v", err)
	}
	return s
}

// Get returns the session for the token, if it exists and has not expired.
func (rs *RedisStore) Get(token string) (Session, bool) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	data, err := rs.client.Get(ctx, redisKey(token)).Bytes()
	if err == redis.Nil {
		return Session{}, false
	}
	if err != nil {
		log.Printf("redis: failed to read session: %v", err)
		return Session{}, false
	}

	var s Session
	if err := json.Unmarshal(data, &s); err != nil {
		log.Printf("redis: failed to unmarshal session: %v", err)
		return Session{}, false
	}
	return s, true
}

// Delete removes a session immediately.
func (rs *RedisStore) Delete(token string) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := rs.client.Del(ctx, redisKey(token)).Err(); err != nil {
		log.Printf("redis: failed to delete session: %v", err)
	}
}
