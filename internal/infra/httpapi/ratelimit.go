package httpapi

import (
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const visitorTTL = 3 * time.Minute

// RateLimitOptions sets the per-client refill rate and bucket size.
type RateLimitOptions struct {
	RPS   float64
	Burst int
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter keeps one token bucket per client IP. Idle buckets are
// dropped lazily once they have not been seen for visitorTTL.
type RateLimiter struct {
	mu        sync.Mutex
	visitors  map[string]*visitor
	limit     rate.Limit
	burst     int
	lastSweep time.Time
	now       func() time.Time
}

// NewRateLimiter builds a limiter; a zero RPS yields one that allows everything.
func NewRateLimiter(opts RateLimitOptions) *RateLimiter {
	burst := opts.Burst
	if burst <= 0 {
		burst = int(opts.RPS) + 1
	}
	return &RateLimiter{
		visitors: make(map[string]*visitor),
		limit:    rate.Limit(opts.RPS),
		burst:    burst,
		now:      time.Now,
	}
}

func (rl *RateLimiter) Enabled() bool {
	return rl.limit > 0
}

// Allow reports whether a request from ip may proceed.
func (rl *RateLimiter) Allow(ip string) bool {
	if !rl.Enabled() {
		return true
	}

	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	if now.Sub(rl.lastSweep) > time.Minute {
		for key, v := range rl.visitors {
			if now.Sub(v.lastSeen) > visitorTTL {
				delete(rl.visitors, key)
			}
		}
		rl.lastSweep = now
	}

	v, ok := rl.visitors[ip]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(rl.limit, rl.burst)}
		rl.visitors[ip] = v
	}
	v.lastSeen = now

	return v.limiter.AllowN(now, 1)
}

func (rl *RateLimiter) size() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.visitors)
}

func (s *Server) rateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.limiter.Allow(clientIP(r)) {
			s.metrics.RecordRateLimited()
			writeJSON(w, http.StatusTooManyRequests, errorBody{Detail: "rate limit exceeded"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

// clientIP is the host part of the connection address. Proxy headers are
// honored only through middleware.RealIP when Options.TrustProxy is set.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
