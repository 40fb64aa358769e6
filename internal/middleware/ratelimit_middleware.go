package middleware

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const (
	invalidAuthBurst  = 5
	invalidAuthWindow = time.Minute
	limiterIdleTTL    = 10 * time.Minute
)

// InvalidAuthRateLimiter throttles failed logins per client IP: each failure
// spends a token, five per minute, refilled gradually.
type InvalidAuthRateLimiter struct {
	mu       sync.Mutex
	limiters map[string]*ipLimiter
	now      func() time.Time
}

type ipLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func NewInvalidAuthRateLimiter() *InvalidAuthRateLimiter {
	return &InvalidAuthRateLimiter{
		limiters: make(map[string]*ipLimiter),
		now:      time.Now,
	}
}

// Blocked reports whether ip has exhausted its failed attempts.
func (r *InvalidAuthRateLimiter) Blocked(ip string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	l, ok := r.limiters[ip]
	if !ok {
		return false
	}
	return l.limiter.TokensAt(r.now()) < 1
}

// RecordFailure spends one attempt for ip.
func (r *InvalidAuthRateLimiter) RecordFailure(ip string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	l, ok := r.limiters[ip]
	if !ok {
		l = &ipLimiter{limiter: rate.NewLimiter(rate.Every(invalidAuthWindow/invalidAuthBurst), invalidAuthBurst)}
		r.limiters[ip] = l
	}
	l.lastSeen = now
	l.limiter.AllowN(now, 1)
}

// Cleanup drops limiters idle for longer than limiterIdleTTL until stop closes.
func (r *InvalidAuthRateLimiter) Cleanup(stop <-chan struct{}) {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			r.mu.Lock()
			now := r.now()
			for ip, l := range r.limiters {
				if now.Sub(l.lastSeen) > limiterIdleTTL {
					delete(r.limiters, ip)
				}
			}
			r.mu.Unlock()
		case <-stop:
			return
		}
	}
}
