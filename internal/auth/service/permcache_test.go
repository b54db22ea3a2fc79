package service

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/aussiebroadwan/mealvote/internal/auth/domain"
	"github.com/stretchr/testify/require"
)

func TestPermissionCacheExpiry(t *testing.T) {
	c := newClock()
	cache := NewPermissionCache(time.Minute, c.Now)

	_, ok := cache.Get("role-1")
	require.False(t, ok)

	cache.Put("role-1", domain.PermissionSet{KitchenView: true})
	e, ok := cache.Get("role-1")
	require.True(t, ok)
	require.True(t, e.Permissions.KitchenView)
	require.Equal(t, c.Now().Add(time.Minute), e.ExpiresAt)

	c.Advance(59 * time.Second)
	_, ok = cache.Get("role-1")
	require.True(t, ok)

	c.Advance(time.Second)
	_, ok = cache.Get("role-1")
	require.False(t, ok, "entry is stale exactly at its expiry")
	require.Len(t, cache.entries, 1, "stale entries are replaced, not evicted")

	cache.Put("role-1", domain.PermissionSet{CanVote: true})
	e, ok = cache.Get("role-1")
	require.True(t, ok)
	require.Equal(t, domain.PermissionSet{CanVote: true}, e.Permissions)
	require.Equal(t, c.Now().Add(time.Minute), e.ExpiresAt)
}

func TestPermissionCacheDefaults(t *testing.T) {
	cache := NewPermissionCache(0, nil)
	require.Equal(t, DefaultRoleTTL, cache.ttl)

	cache.Put("r", domain.PermissionSet{IsAdmin: true})
	_, ok := cache.Get("r")
	require.True(t, ok)
}

func TestPermissionCacheConcurrentAccess(t *testing.T) {
	cache := NewPermissionCache(time.Minute, nil)

	var wg sync.WaitGroup
	for i := range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			id := fmt.Sprintf("role-%d", i%4)
			for range 200 {
				cache.Put(id, domain.PermissionSet{CanVote: true})
				_, _ = cache.Get(id)
			}
		}()
	}
	wg.Wait()
	require.Len(t, cache.entries, 4)
}
