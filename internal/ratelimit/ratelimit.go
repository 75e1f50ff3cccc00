// Package ratelimit provides token-bucket limiters keyed by upstream provider.
package ratelimit

import (
	"context"
	"sync"

	"golang.org/x/time/rate"
)

// Quota is a sustained rate with a burst allowance.
type Quota struct {
	RPS   float64
	Burst int
}

// KeyedRateLimiter keeps one independent limiter per key. Keys without a
// configured quota use the default.
type KeyedRateLimiter struct {
	mu       sync.RWMutex
	limiters map[string]*rate.Limiter
	quotas   map[string]Quota
	fallback Quota
}

// New creates a keyed limiter whose unconfigured keys get rps/burst.
func New(rps float64, burst int) *KeyedRateLimiter {
	return &KeyedRateLimiter{
		limiters: make(map[string]*rate.Limiter),
		quotas:   make(map[string]Quota),
		fallback: Quota{RPS: rps, Burst: burst},
	}
}

// SetQuota configures the quota for key. An existing limiter is adjusted in place.
func (krl *KeyedRateLimiter) SetQuota(key string, q Quota) {
	krl.mu.Lock()
	defer krl.mu.Unlock()

	krl.quotas[key] = q
	if l, ok := krl.limiters[key]; ok {
		l.SetLimit(rate.Limit(q.RPS))
		l.SetBurst(q.Burst)
	}
}

// Allow reports whether a request for key may happen now, without blocking.
func (krl *KeyedRateLimiter) Allow(key string) bool {
	return krl.getLimiter(key).Allow()
}

// Wait blocks until a request for key is allowed or ctx is done.
func (krl *KeyedRateLimiter) Wait(ctx context.Context, key string) error {
	return krl.getLimiter(key).Wait(ctx)
}

func (krl *KeyedRateLimiter) getLimiter(key string) *rate.Limiter {
	krl.mu.RLock()
	limiter, exists := krl.limiters[key]
	krl.mu.RUnlock()

	if exists {
		return limiter
	}

	krl.mu.Lock()
	defer krl.mu.Unlock()

	if limiter, exists = krl.limiters[key]; exists {
		return limiter
	}

	q, ok := krl.quotas[key]
	if !ok {
		q = krl.fallback
	}
	limiter = rate.NewLimiter(rate.Limit(q.RPS), q.Burst)
	krl.limiters[key] = limiter
	return limiter
}
