package service

import (
	"sync"
	"time"

	"github.com/aussiebroadwan/mealvote/internal/auth/domain"
)

// DefaultRoleTTL bounds how stale a cached role may be.
const DefaultRoleTTL = 60 * time.Second

// CachedRole is a role's raw permissions as read from the store.
type CachedRole struct {
	Permissions domain.PermissionSet
	ExpiresAt   time.Time
}

// PermissionCache maps role ids to permissions. Expired entries read as a
// miss and are replaced on the next Put; nothing is evicted otherwise, which
// is fine for the handful of roles a tenant defines.
type PermissionCache struct {
	mu      sync.RWMutex
	entries map[string]CachedRole
	ttl     time.Duration
	now     func() time.Time
}

// NewPermissionCache creates an empty cache. Zero ttl uses DefaultRoleTTL and
// a nil now uses time.Now.
func NewPermissionCache(ttl time.Duration, now func() time.Time) *PermissionCache {
	if ttl <= 0 {
		ttl = DefaultRoleTTL
	}
	if now == nil {
		now = time.Now
	}
	return &PermissionCache{
		entries: make(map[string]CachedRole),
		ttl:     ttl,
		now:     now,
	}
}

func (c *PermissionCache) Get(roleID string) (CachedRole, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.entries[roleID]
	if !ok || !c.now().Before(e.ExpiresAt) {
		return CachedRole{}, false
	}
	return e, true
}

func (c *PermissionCache) Put(roleID string, p domain.PermissionSet) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[roleID] = CachedRole{Permissions: p, ExpiresAt: c.now().Add(c.ttl)}
}
