package service

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const revokedKeyPrefix = "foodgram:revoked_token"

// TokenStore records revoked token ids until they would have expired.
type TokenStore interface {
	Revoke(ctx context.Context, jti string, expiresAt time.Time) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

// RedisTokenStore keeps revoked token ids as expiring Redis keys.
type RedisTokenStore struct {
	redis *redis.Client
	now   func() time.Time
}

var _ TokenStore = (*RedisTokenStore)(nil)

func NewRedisTokenStore(client *redis.Client) *RedisTokenStore {
	return &RedisTokenStore{redis: client, now: time.Now}
}

func (s *RedisTokenStore) Revoke(ctx context.Context, jti string, expiresAt time.Time) error {
	ttl := expiresAt.Sub(s.now())
	if ttl <= 0 {
		return nil
	}
	if err := s.redis.Set(ctx, revokedKey(jti), 1, ttl).Err(); err != nil {
		return fmt.Errorf("failed to revoke token: %w", err)
	}
	return nil
}

func (s *RedisTokenStore) IsRevoked(ctx context.Context, jti string) (bool, error) {
	n, err := s.redis.Exists(ctx, revokedKey(jti)).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check token revocation: %w", err)
	}
	return n > 0, nil
}

func revokedKey(jti string) string {
	return fmt.Sprintf("%s:%s", revokedKeyPrefix, jti)
}
