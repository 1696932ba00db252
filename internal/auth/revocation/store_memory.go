package revocation

import (
	"context"
	"sync"
	"time"
)

// MemoryList is an in-process revocation list for tests and single-instance
// deployments.
type MemoryList struct {
	mu      sync.RWMutex
	revoked map[string]time.Time
	clock   func() time.Time
}

// NewMemoryList constructs an empty in-memory revocation list.
func NewMemoryList() *MemoryList {
	return &MemoryList{revoked: make(map[string]time.Time), clock: time.Now}
}

// Revoke records a token id until its TTL elapses.
func (l *MemoryList) Revoke(_ context.Context, jti string, ttl time.Duration) error {
	if jti == "" {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.revoked[jti] = l.clock().Add(ttl)
	return nil
}

// IsRevoked checks if a token id is revoked and not yet expired.
func (l *MemoryList) IsRevoked(_ context.Context, jti string) (bool, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	expiresAt, ok := l.revoked[jti]
	if !ok {
		return false, nil
	}
	return l.clock().Before(expiresAt), nil
}
