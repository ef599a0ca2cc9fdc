package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/carhire/carhire/internal/auth"
	"github.com/carhire/carhire/internal/model"
)

// sessionPrefix is the Redis key prefix for sessions.
const sessionPrefix = "session:"

// cachedSession is the session representation stored in Redis.
type cachedSession struct {
	UserID    string `json:"user_id"`
	Username  string `json:"username"`
	Role      string `json:"role"`
	ExpiresAt int64  `json:"exp"`
}

// CreateSession stores a session under the hash of its token.
// The raw token never reaches Redis.
func (c *Cache) CreateSession(ctx context.Context, token string, sess *model.Session, ttl time.Duration) error {
	if ttl <= 0 {
		return fmt.Errorf("session ttl must be positive, got %s", ttl)
	}

	data, err := json.Marshal(cachedSession{
		UserID:    sess.UserID,
		Username:  sess.Username,
		Role:      sess.Role,
		ExpiresAt: sess.ExpiresAt.Unix(),
	})
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}

	if err := c.client.Set(ctx, sessionKey(token), data, ttl).Err(); err != nil {
		return fmt.Errorf("store session: %w", err)
	}
	return nil
}

// GetSession returns the session for token.
// Returns nil, nil if the session does not exist or has expired.
func (c *Cache) GetSession(ctx context.Context, token string) (*model.Session, error) {
	data, err := c.client.Get(ctx, sessionKey(token)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("get session: %w", err)
	}

	var cached cachedSession
	if err := json.Unmarshal(data, &cached); err != nil {
		// Corrupted entry - treat as missing
		return nil, nil //nolint:nilerr
	}

	return &model.Session{
		UserID:    cached.UserID,
		Username:  cached.Username,
		Role:      cached.Role,
		ExpiresAt: time.Unix(cached.ExpiresAt, 0).UTC(),
	}, nil
}

// DeleteSession removes a session. Deleting a missing session is not an error.
func (c *Cache) DeleteSession(ctx context.Context, token string) error {
	if err := c.client.Del(ctx, sessionKey(token)).Err(); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

func sessionKey(token string) string {
	return sessionPrefix + auth.QuickHash(token)
}
