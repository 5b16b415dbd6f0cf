// Package ratelimiter caps the request rate against external endpoints with
// one token bucket per key. The key set is expected to stay small (one entry
// per configured network), so entries are never evicted.
package ratelimiter

import (
	"strings"
	"sync"

	"golang.org/x/time/rate"
)

type KeyedLimiter struct {
	limit rate.Limit
	burst int
	mu    sync.Mutex
	byKey map[string]*rate.Limiter
}

// New creates a keyed limiter; returns nil if args are invalid. A nil limiter
// allows everything.
func New(rps float64, burst int) *KeyedLimiter {
	if rps <= 0 || burst <= 0 {
		return nil
	}
	return &KeyedLimiter{
		limit: rate.Limit(rps),
		burst: burst,
		byKey: make(map[string]*rate.Limiter),
	}
}

// Allow reports whether one token can be consumed for the key.
func (l *KeyedLimiter) Allow(key string) bool {
	if l == nil {
		return true
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return true
	}

	l.mu.Lock()
	limiter, ok := l.byKey[key]
	if !ok {
		limiter = rate.NewLimiter(l.limit, l.burst)
		l.byKey[key] = limiter
	}
	l.mu.Unlock()

	return limiter.Allow()
}
