package store

import (
	"context"
	"sync"
	"time"
)

// Pinger is the part of a Store the health gate needs.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Health decides whether store-dependent work should be attempted. A ping
// is bounded by Timeout; after a failure the store is reported unavailable
// without further pings until Cooldown has passed.
type Health struct {
	Pinger   Pinger
	Timeout  time.Duration
	Cooldown time.Duration

	// Now overrides the clock in tests.
	Now func() time.Time

	mu        sync.Mutex
	downSince time.Time
	lastErr   error
}

func (h *Health) now() time.Time {
	if h.Now != nil {
		return h.Now()
	}
	return time.Now()
}

// Available reports whether the store answered a ping, honouring the
// cooldown after a failure.
func (h *Health) Available(ctx context.Context) bool {
	if h == nil || h.Pinger == nil {
		return false
	}

	h.mu.Lock()
	if !h.downSince.IsZero() && h.now().Sub(h.downSince) < h.Cooldown {
		h.mu.Unlock()
		return false
	}
	h.mu.Unlock()

	timeout := h.Timeout
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	pctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	err := h.Pinger.Ping(pctx)

	h.mu.Lock()
	defer h.mu.Unlock()
	if err != nil {
		h.downSince = h.now()
		h.lastErr = err
		return false
	}
	h.downSince = time.Time{}
	h.lastErr = nil
	return true
}

// LastError returns the error of the last failed ping, if the store is
// currently considered down.
func (h *Health) LastError() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.lastErr
}
