package middleware

import (
	"net/http"
	"sync"
	"time"
)

// Paths that stay reachable for probes and scrapes even when a client is
// being throttled.
var throttleExempt = map[string]struct{}{
	"/health":  {},
	"/metrics": {},
}

type clientBucket struct {
	tokens float64
	seen   time.Time
}

// Throttle is a per-client token bucket covering the webhook and portal
// surface. Channel providers share an egress IP per region, so the limit is
// per caller, not per tenant.
type Throttle struct {
	mu        sync.Mutex
	clients   map[string]*clientBucket
	perSecond float64
	burst     float64
	sweepAt   time.Time
	now       func() time.Time
}

// NewThrottle allows perSecond sustained requests with the given burst per
// client.
func NewThrottle(perSecond float64, burst int) *Throttle {
	return &Throttle{
		clients:   make(map[string]*clientBucket),
		perSecond: perSecond,
		burst:     float64(burst),
		now:       time.Now,
	}
}

// Take spends one token for the client, refilling by elapsed time. Returns
// false when the client is out of tokens.
func (t *Throttle) Take(client string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	t.sweep(now)

	b, ok := t.clients[client]
	if !ok {
		b = &clientBucket{tokens: t.burst, seen: now}
		t.clients[client] = b
	}
	b.tokens += now.Sub(b.seen).Seconds() * t.perSecond
	if b.tokens > t.burst {
		b.tokens = t.burst
	}
	b.seen = now

	if b.tokens < 1 {
		return false
	}
	b.tokens--
	return true
}

// sweep drops clients idle long enough to have a full bucket again. Runs
// opportunistically under the lock, at most once every 5 minutes.
func (t *Throttle) sweep(now time.Time) {
	if now.Before(t.sweepAt) {
		return
	}
	cutoff := now.Add(-10 * time.Minute)
	for key, b := range t.clients {
		if b.seen.Before(cutoff) {
			delete(t.clients, key)
		}
	}
	t.sweepAt = now.Add(5 * time.Minute)
}

// RateLimit rejects clients above the configured request rate with 429.
// Health and metrics are never throttled.
func RateLimit(perSecond float64, burst int) func(http.Handler) http.Handler {
	throttle := NewThrottle(perSecond, burst)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, exempt := throttleExempt[r.URL.Path]; exempt {
				next.ServeHTTP(w, r)
				return
			}
			client := r.RemoteAddr
			// Prefer X-Real-Ip set by chi's RealIP middleware.
			if xri := r.Header.Get("X-Real-Ip"); xri != "" {
				client = xri
			}
			if !throttle.Take(client) {
				http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
