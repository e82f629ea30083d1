// Package cache keeps Matrix display names resolved through the bridge so
// repeated fedi:user lookups do not hit the bridge every time.
package cache

import (
	"strings"
	"sync"
	"time"
)

// DefaultStaleness is how long a profile entry is trusted before it is refetched.
const DefaultStaleness = 30 * time.Minute

// Cache defines the profile cache operations.
type Cache interface {
	// Get retrieves a cached profile entry.
	Get(userID string) (*ProfileEntry, bool, time.Duration)

	// Set stores a profile entry.
	Set(entry ProfileEntry)

	Size() int

	// Prune removes entries older than maxAge.
	Prune(maxAge time.Duration) int
}

// Compile-time interface check
var _ Cache = (*ProfileCache)(nil)

// ProfileCache stores display names keyed by Matrix user id.
type ProfileCache struct {
	mu      sync.RWMutex            `json:"-"`
	Entries map[string]ProfileEntry `json:"entries"`
}

// ProfileEntry is a single cached profile.
type ProfileEntry struct {
	UserID      string    `json:"user_id"`
	DisplayName string    `json:"displayname"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// NewProfileCache creates an empty profile cache.
func NewProfileCache() *ProfileCache {
	return &ProfileCache{
		Entries: make(map[string]ProfileEntry),
	}
}

// Key normalizes a Matrix user id for lookup. Only surrounding whitespace
// is dropped; ids are otherwise compared exactly, since the bridge treats
// "@Alice:srv" and "@alice:srv" as different users.
func Key(userID string) string {
	return strings.TrimSpace(userID)
}

// Get retrieves a cached entry along with whether it exists and its age.
func (c *ProfileCache) Get(userID string) (*ProfileEntry, bool, time.Duration) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, exists := c.Entries[Key(userID)]
	if !exists {
		return nil, false, 0
	}

	return &entry, true, time.Since(entry.UpdatedAt)
}

// Set stores an entry, stamping it with the current time.
func (c *ProfileCache) Set(entry ProfileEntry) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry.UpdatedAt = time.Now()
	c.Entries[Key(entry.UserID)] = entry
}

// Size returns the number of entries.
func (c *ProfileCache) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.Entries)
}

// Prune removes entries older than maxAge and returns how many were dropped.
func (c *ProfileCache) Prune(maxAge time.Duration) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	cutoff := time.Now().Add(-maxAge)
	for key, entry := range c.Entries {
		if entry.UpdatedAt.Before(cutoff) {
			delete(c.Entries, key)
			removed++
		}
	}
	return removed
}
