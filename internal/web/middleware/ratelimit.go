package middleware

import (
	"net/http"
	"strings"
	"sync"
	"time"
)

// tokenBucket is a simple per-client token bucket. Tokens refill continuously
// at rate tokens per second up to capacity.
type tokenBucket struct {
	tokens   float64
	capacity float64
	rate     float64
	lastSeen time.Time
}

func (b *tokenBucket) allow(now time.Time) bool {
	elapsed := now.Sub(b.lastSeen).Seconds()
	b.tokens += elapsed * b.rate
	if b.tokens > b.capacity {
		b.tokens = b.capacity
	}
	b.lastSeen = now

	if b.tokens < 1 {
		return false
	}
	b.tokens--
	return true
}

// RateLimiter enforces a per-client request budget. Buckets are keyed by the
// client IP resolved by TrustedRealIP, so it must run after that middleware.
type RateLimiter struct {
	mu        sync.Mutex
	buckets   map[string]*tokenBucket
	perMinute int
	done      chan struct{}
	stopOnce  sync.Once
}

// NewRateLimiter creates a limiter allowing perMinute requests per client,
// with a burst of the same size. A background sweep evicts idle buckets
// until Stop is called.
func NewRateLimiter(perMinute int) *RateLimiter {
	rl := &RateLimiter{
		buckets:   make(map[string]*tokenBucket),
		perMinute: perMinute,
		done:      make(chan struct{}),
	}
	go rl.sweep()
	return rl
}

// Stop terminates the sweep goroutine. Safe to call more than once; the
// limiter itself keeps working, only eviction stops.
func (rl *RateLimiter) Stop() {
	rl.stopOnce.Do(func() { close(rl.done) })
}

func (rl *RateLimiter) sweep() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-rl.done:
			return
		case <-ticker.C:
		}
		cutoff := time.Now().Add(-10 * time.Minute)
		rl.mu.Lock()
		for key, b := range rl.buckets {
			if b.lastSeen.Before(cutoff) {
				delete(rl.buckets, key)
			}
		}
		rl.mu.Unlock()
	}
}

// Allow reports whether the client identified by key may proceed.
func (rl *RateLimiter) Allow(key string) bool {
	now := time.Now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	b, ok := rl.buckets[key]
	if !ok {
		b = &tokenBucket{
			tokens:   float64(rl.perMinute),
			capacity: float64(rl.perMinute),
			rate:     float64(rl.perMinute) / 60.0,
			lastSeen: now,
		}
		rl.buckets[key] = b
	}
	return b.allow(now)
}

// Handler returns the rate limiting middleware.
func (rl *RateLimiter) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !rl.Allow(clientKey(r)) {
			w.Header().Set("Retry-After", "60")
			http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func clientKey(r *http.Request) string {
	if ip := r.Header.Get("X-Real-IP"); ip != "" {
		return ip
	}
	host := r.RemoteAddr
	if i := strings.LastIndex(host, ":"); i >= 0 {
		host = host[:i]
	}
	return host
}
