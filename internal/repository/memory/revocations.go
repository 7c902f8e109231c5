package memory

import (
	"context"
	"sync"
	"time"
)

// Revocations is an in-process revoked-token list used when Redis is not
// configured.  Entries are dropped lazily once their token has expired.
type Revocations struct {
	mu      sync.Mutex
	entries map[string]time.Time
}

func NewRevocations() *Revocations {
	return &Revocations{entries: map[string]time.Time{}}
}

func (r *Revocations) Revoke(ctx context.Context, jti string, exp time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if time.Now().Before(exp) {
		r.entries[jti] = exp
	}
	return nil
}

func (r *Revocations) IsRevoked(ctx context.Context, jti string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	exp, ok := r.entries[jti]
	if !ok {
		return false, nil
	}
	if time.Now().After(exp) {
		delete(r.entries, jti)
		return false, nil
	}
	return true, nil
}
