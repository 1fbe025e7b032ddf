package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrSessionNotFound is returned when a token is unknown or expired.
var ErrSessionNotFound = errors.New("session not found")

// Session is the server-side state behind an opaque bearer token.
type Session struct {
	Email    string    `json:"email"`
	Role     string    `json:"role"`
	OrgID    uint      `json:"org_id"`
	UserID   uint      `json:"user_id"`
	IssuedAt time.Time `json:"issued_at"`
}

// SessionStore keeps login sessions in Redis keyed by random token, so a
// session disappears on expiry or revocation without touching user rows.
type SessionStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewSessionStore(client *redis.Client, ttl time.Duration) *SessionStore {
	return &SessionStore{client: client, ttl: ttl}
}

func sessionKey(token string) string {
	return "session:" + token
}

// Issue creates a session and returns its opaque token.
func (s *SessionStore) Issue(ctx context.Context, session Session) (string, error) {
	if s.client == nil {
		return "", ErrCacheNotAvailable
	}

	session.IssuedAt = time.Now().UTC()
	data, err := json.Marshal(session)
	if err != nil {
		return "", fmt.Errorf("session marshal error: %w", err)
	}

	token := uuid.NewString()
	if err := s.client.Set(ctx, sessionKey(token), data, s.ttl).Err(); err != nil {
		return "", fmt.Errorf("session store error: %w", err)
	}
	return token, nil
}

// Resolve looks up the session for a token, refreshing its TTL.
func (s *SessionStore) Resolve(ctx context.Context, token string) (*Session, error) {
	if s.client == nil {
		return nil, ErrCacheNotAvailable
	}

	data, err := s.client.Get(ctx, sessionKey(token)).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("session lookup error: %w", err)
	}

	var session Session
	if err := json.Unmarshal([]byte(data), &session); err != nil {
		return nil, fmt.Errorf("session unmarshal error: %w", err)
	}

	// Sliding expiry: each authenticated request extends the session.
	if err := s.client.Expire(ctx, sessionKey(token), s.ttl).Err(); err != nil {
		return nil, fmt.Errorf("session refresh error: %w", err)
	}
	return &session, nil
}

// Revoke deletes a session; revoking an unknown token is not an error.
func (s *SessionStore) Revoke(ctx context.Context, token string) error {
	if s.client == nil {
		return ErrCacheNotAvailable
	}
	return s.client.Del(ctx, sessionKey(token)).Err()
}
