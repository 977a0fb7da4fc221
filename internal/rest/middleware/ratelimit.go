package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	ierr "github.com/tradeflowhq/tradeflow/internal/errors"
	"golang.org/x/time/rate"
)

// ipRateLimiter keeps a per-client-IP token bucket. Entries idle for more
// than staleAfter are dropped on the next sweep so the map stays bounded.
type ipRateLimiter struct {
	mu         sync.Mutex
	limiters   map[string]*ipLimiterEntry
	rps        rate.Limit
	burst      int
	staleAfter time.Duration
	lastSweep  time.Time
}

type ipLimiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func newIPRateLimiter(rps float64, burst int) *ipRateLimiter {
	return &ipRateLimiter{
		limiters:   make(map[string]*ipLimiterEntry),
		rps:        rate.Limit(rps),
		burst:      burst,
		staleAfter: 10 * time.Minute,
		lastSweep:  time.Now(),
	}
}

func (l *ipRateLimiter) allow(ip string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	if now.Sub(l.lastSweep) > l.staleAfter {
		for key, entry := range l.limiters {
			if now.Sub(entry.lastSeen) > l.staleAfter {
				delete(l.limiters, key)
			}
		}
		l.lastSweep = now
	}

	entry, ok := l.limiters[ip]
	if !ok {
		entry = &ipLimiterEntry{limiter: rate.NewLimiter(l.rps, l.burst)}
		l.limiters[ip] = entry
	}
	entry.lastSeen = now
	return entry.limiter.Allow()
}

// RateLimitMiddleware limits requests per client IP. Used on the webhook
// route so a misbehaving sender cannot starve the rest of the API.
func RateLimitMiddleware(rps float64, burst int) gin.HandlerFunc {
	limiter := newIPRateLimiter(rps, burst)
	return func(c *gin.Context) {
		if !limiter.allow(c.ClientIP()) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, ierr.NewErrorResponse(
				ierr.NewError("rate limit exceeded").
					WithHint("Too many requests, retry later").
					Mark(ierr.ErrInvalidOperation)))
			return
		}
		c.Next()
	}
}
