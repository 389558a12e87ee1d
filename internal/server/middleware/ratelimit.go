package middleware

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

type keyedLimiter[K comparable] struct {
	mu       sync.Mutex
	limiters map[K]*entry
	rps      float64
	burst    int
}

type entry struct {
	limiter    *rate.Limiter
	lastAccess time.Time
}

// newKeyedLimiter starts a background sweep that drops limiters idle for 30
// minutes. The sweep stops when ctx is cancelled.
func newKeyedLimiter[K comparable](ctx context.Context, rps float64, burst int) *keyedLimiter[K] {
	kl := &keyedLimiter[K]{limiters: make(map[K]*entry), rps: rps, burst: burst}

	go func() {
		ticker := time.NewTicker(10 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				kl.sweep(time.Now().Add(-30 * time.Minute))
			case <-ctx.Done():
				return
			}
		}
	}()

	return kl
}

func (kl *keyedLimiter[K]) sweep(cutoff time.Time) {
	kl.mu.Lock()
	defer kl.mu.Unlock()
	for k, e := range kl.limiters {
		if e.lastAccess.Before(cutoff) {
			delete(kl.limiters, k)
		}
	}
}

func (kl *keyedLimiter[K]) allow(key K) bool {
	kl.mu.Lock()
	e, ok := kl.limiters[key]
	if !ok {
		e = &entry{limiter: rate.NewLimiter(rate.Limit(kl.rps), kl.burst)}
		kl.limiters[key] = e
	}
	e.lastAccess = time.Now()
	kl.mu.Unlock()

	return e.limiter.Allow()
}

func tooManyRequests(w http.ResponseWriter) {
	http.Error(w, `{"title":"Too Many Requests","status":429,"detail":"rate limit exceeded"}`, http.StatusTooManyRequests)
}

// RateLimitByIP applies per-client-address rate limiting. Chain it after chi's
// RealIP middleware.
func RateLimitByIP(ctx context.Context, requestsPerSecond float64, burst int) func(http.Handler) http.Handler {
	kl := newKeyedLimiter[string](ctx, requestsPerSecond, burst)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !kl.allow(clientIP(r.RemoteAddr)) {
				tooManyRequests(w)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RateLimit applies per-user rate limiting. Requests without an authenticated
// user pass through.
func RateLimit(ctx context.Context, requestsPerSecond float64, burst int) func(http.Handler) http.Handler {
	kl := newKeyedLimiter[uuid.UUID](ctx, requestsPerSecond, burst)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, ok := UserIDFromContext(r.Context())
			if !ok {
				next.ServeHTTP(w, r)
				return
			}

			if !kl.allow(userID) {
				tooManyRequests(w)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
