// Package revocation tracks revoked coordinator token IDs. The redis-backed
// list is the production implementation for multi-instance deployments; the
// memory list backs tests and single-process runs.
package revocation

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const revokedTokenKeyPrefix = "sealedreg:trl:jti:"

// RedisList is a Redis-backed token revocation list.
type RedisList struct {
	client *redis.Client
}

// NewRedisList constructs a Redis-backed token revocation list. The client
// lifecycle is managed by the caller.
func NewRedisList(client *redis.Client) *RedisList {
	return &RedisList{client: client}
}

// Revoke adds a token id to the revocation list with TTL. Keys expire with the
// token so the list never grows unboundedly.
func (l *RedisList) Revoke(ctx context.Context, jti string, ttl time.Duration) error {
	if jti == "" {
		return nil
	}
	// Key existence is the marker; the value is irrelevant.
	return l.client.Set(ctx, revokedTokenKeyPrefix+jti, "1", ttl).Err()
}

// IsRevoked checks if a token id is in the revocation list. A missing key
// means not revoked or already expired.
func (l *RedisList) IsRevoked(ctx context.Context, jti string) (bool, error) {
	if jti == "" {
		return false, nil
	}
	_, err := l.client.Get(ctx, revokedTokenKeyPrefix+jti).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
