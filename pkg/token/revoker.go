package token

import (
	"sync"
	"time"
)

// Revoker is an explicit revocation set keyed by token ID. It is queried
// synchronously before any bearer token is accepted.
type Revoker interface {
	// Revoke marks a token ID as revoked until expiresAt.
	Revoke(tokenID string, expiresAt time.Time)

	// IsRevoked reports whether a token ID is currently revoked.
	IsRevoked(tokenID string) bool
}

// maxRevoked bounds the revocation set so logout storms cannot grow
// memory without limit. Oldest-expiring entries are evicted first.
const maxRevoked = 50_000

// MemoryRevoker is a thread-safe in-memory Revoker. Entries expire with
// the token they revoke, so the set stays proportional to the number of
// live revoked tokens.
type MemoryRevoker struct {
	mu      sync.RWMutex
	revoked map[string]time.Time
	now     func() time.Time
}

// NewMemoryRevoker creates an empty MemoryRevoker.
func NewMemoryRevoker() *MemoryRevoker {
	return &MemoryRevoker{
		revoked: make(map[string]time.Time),
		now:     time.Now,
	}
}

// Revoke marks a token ID as revoked until expiresAt.
func (r *MemoryRevoker) Revoke(tokenID string, expiresAt time.Time) {
	if tokenID == "" {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sweepLocked()
	if len(r.revoked) >= maxRevoked {
		r.evictSoonestLocked()
	}
	r.revoked[tokenID] = expiresAt
}

// IsRevoked reports whether a token ID is currently revoked.
func (r *MemoryRevoker) IsRevoked(tokenID string) bool {
	r.mu.RLock()
	exp, ok := r.revoked[tokenID]
	r.mu.RUnlock()
	if !ok {
		return false
	}
	if r.now().After(exp) {
		// Token expired on its own; drop the stale entry lazily.
		r.mu.Lock()
		delete(r.revoked, tokenID)
		r.mu.Unlock()
		return false
	}
	return true
}

// sweepLocked removes entries whose tokens have already expired.
func (r *MemoryRevoker) sweepLocked() {
	now := r.now()
	for tokenID, exp := range r.revoked {
		if now.After(exp) {
			delete(r.revoked, tokenID)
		}
	}
}

// evictSoonestLocked drops the entry closest to expiry to make room.
func (r *MemoryRevoker) evictSoonestLocked() {
	var victim string
	var soonest time.Time
	for tokenID, exp := range r.revoked {
		if victim == "" || exp.Before(soonest) {
			victim, soonest = tokenID, exp
		}
	}
	if victim != "" {
		delete(r.revoked, victim)
	}
}

var _ Revoker = (*MemoryRevoker)(nil)
