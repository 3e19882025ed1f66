/*
Package limiter provides connection rate limiting based on client IP addresses.

It uses the token bucket algorithm (rate.Limiter) to bound how fast a single
address may open connections, with a cleanup goroutine that periodically
removes inactive limiters. The same limiter gates raw TCP accepts and the
gateway's WebSocket upgrades.
*/
package limiter

import (
	"encoding/json"
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"relayhub/internal/pkg/errs"
	"relayhub/internal/pkg/logx"
)

// cleanupInterval is how often idle per-IP limiters are swept.
const cleanupInterval = 3 * time.Minute

// IPRateLimiter tracks one token bucket per client IP address.
type IPRateLimiter struct {
	// mu protects concurrent access to the limits map.
	mu sync.RWMutex

	// limits maps a client IP address to its *rate.Limiter instance.
	limits map[string]*rate.Limiter

	// r is the refill rate, events allowed per second.
	r rate.Limit

	// b is the burst size of each bucket.
	b int
}

// NewIPRateLimiter creates an IPRateLimiter with rate r and burst b, and
// starts a background goroutine that sweeps inactive limiters.
func NewIPRateLimiter(r rate.Limit, b int) *IPRateLimiter {
	i := &IPRateLimiter{
		limits: make(map[string]*rate.Limiter),
		r:      r,
		b:      b,
	}

	go i.cleanupLoop()

	return i
}

// Allow reports whether the given address may open a connection right now.
// addr may be a bare IP or an ip:port pair.
func (i *IPRateLimiter) Allow(addr string) bool {
	return i.getLimiter(IPFromAddr(addr)).Allow()
}

// getLimiter retrieves the limiter for ip, creating one under the write lock
// if it does not exist yet.
func (i *IPRateLimiter) getLimiter(ip string) *rate.Limiter {
	i.mu.RLock()
	limiter, exists := i.limits[ip]
	i.mu.RUnlock()

	if !exists {
		i.mu.Lock()
		limiter, exists = i.limits[ip]
		if !exists {
			limiter = rate.NewLimiter(i.r, i.b)
			i.limits[ip] = limiter
		}
		i.mu.Unlock()
	}

	return limiter
}

// cleanupLoop periodically removes limiters whose bucket has refilled
// completely, meaning the IP has been quiet long enough to forget.
func (i *IPRateLimiter) cleanupLoop() {
	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()

	for range ticker.C {
		i.mu.Lock()
		removed := 0
		for ip, limiter := range i.limits {
			if limiter.TokensAt(time.Now()) >= float64(limiter.Burst()) {
				delete(i.limits, ip)
				removed++
			}
		}
		remaining := len(i.limits)
		i.mu.Unlock()

		logx.Info("Rate limiter cleanup finished", "removed", removed, "remaining", remaining)
	}
}

// Middleware returns an HTTP middleware enforcing the per-IP limit. Requests
// over the limit receive a 429 with the standard error envelope.
func (i *IPRateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !i.Allow(r.RemoteAddr) {
			rateErr := errs.NewError(errs.ErrRateLimitExceeded)

			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(rateErr.Status)
			_ = json.NewEncoder(w).Encode(map[string]any{
				"code":    rateErr.Code,
				"message": rateErr.Message,
			})
			return
		}

		next.ServeHTTP(w, r)
	})
}

// IPFromAddr extracts the host part of an ip:port address, falling back to
// the input itself when it carries no port.
func IPFromAddr(addr string) string {
	ip, _, err := net.SplitHostPort(addr)
	if err != nil || ip == "" {
		return addr
	}
	return ip
}
