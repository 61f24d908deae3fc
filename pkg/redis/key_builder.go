package redis

import (
	"strings"
	"time"
)

// Cache TTLs
const (
	// TTLAuctionState bounds staleness of the cached state snapshot. State
	// reads are poll-heavy so even a short TTL absorbs most of the load.
	TTLAuctionState = 3 * time.Second

	// TTLSerializerLease bounds how long a crashed instance can hold the
	// per-league mutation lease.
	TTLSerializerLease = 10 * time.Second
)

// KeyBuilder builds namespaced redis keys
type KeyBuilder struct {
	prefix string
}

// NewKeyBuilder creates a key builder with the given prefix
func NewKeyBuilder(prefix string) *KeyBuilder {
	return &KeyBuilder{prefix: prefix}
}

// Build joins parts with the prefix
func (kb *KeyBuilder) Build(parts ...string) string {
	allParts := append([]string{kb.prefix}, parts...)
	return strings.Join(allParts, ":")
}

// AuctionStateKey returns the cache key for a league's assembled state
func (kb *KeyBuilder) AuctionStateKey(leagueID string) string {
	return kb.Build("auction", "state", leagueID)
}

// SerializerLeaseKey returns the lease key guarding one mutation domain
// (bid or control) of a league
func (kb *KeyBuilder) SerializerLeaseKey(domain, leagueID string) string {
	return kb.Build("auction", "lease", domain, leagueID)
}
