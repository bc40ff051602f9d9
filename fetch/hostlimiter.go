package fetch

import (
	"net/url"
	"sync"

	"golang.org/x/time/rate"
)

// defaultHostRPS and defaultHostBurst are the flat, non-adaptive pacing
// applied per host by the Lite strategy. Unlike the teacher's EMA-tuned
// limiter, this never speeds up or slows down in response to observed
// latency or errors — it is politeness, not backoff.
const (
	defaultHostRPS   = 5.0
	defaultHostBurst = 5
)

// HostLimiter hands out a rate.Limiter per hostname, creating one lazily on
// first use and reusing it for every subsequent request to that host.
type HostLimiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

// NewHostLimiter returns a HostLimiter ready for concurrent use by the
// scheduler's worker pool.
func NewHostLimiter() *HostLimiter {
	return &HostLimiter{limiters: make(map[string]*rate.Limiter)}
}

// Limiter returns the rate.Limiter for target's host, creating it if needed.
func (h *HostLimiter) Limiter(target *url.URL) *rate.Limiter {
	host := target.Hostname()
	h.mu.Lock()
	defer h.mu.Unlock()
	if l, ok := h.limiters[host]; ok {
		return l
	}
	l := rate.NewLimiter(rate.Limit(defaultHostRPS), defaultHostBurst)
	h.limiters[host] = l
	return l
}
