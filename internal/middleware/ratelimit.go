package middleware

import (
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"
)

// RateLimiter throttles the login form per client IP with a fixed-window
// counter kept in memory. Stale windows are swept by a background
// goroutine; call Stop on shutdown.
type RateLimiter struct {
	mu          sync.Mutex
	attempts    map[string]*bucket
	rate        int           // max attempts per window
	window      time.Duration // window length
	trustedNets []*net.IPNet  // trusted reverse-proxy CIDRs
	stopSweep   chan struct{}
}

type bucket struct {
	count int
	start time.Time
}

// NewRateLimiter creates a limiter allowing rate attempts per window per
// client IP. For the login form this is wired as NewRateLimiter(10,
// time.Minute).
//
// trustedProxies is an optional list of CIDRs (bare IPs accepted) naming
// reverse proxies whose X-Forwarded-For headers may be believed. With none
// configured only RemoteAddr is used, which is the safe default for a
// console exposed directly.
func NewRateLimiter(rate int, window time.Duration, trustedProxies ...string) *RateLimiter {
	var nets []*net.IPNet
	for _, cidr := range trustedProxies {
		if !strings.Contains(cidr, "/") {
			if strings.Contains(cidr, ":") {
				cidr += "/128"
			} else {
				cidr += "/32"
			}
		}
		_, n, err := net.ParseCIDR(cidr)
		if err != nil {
			continue // skip malformed entries
		}
		nets = append(nets, n)
	}

	rl := &RateLimiter{
		attempts:    make(map[string]*bucket),
		rate:        rate,
		window:      window,
		trustedNets: nets,
		stopSweep:   make(chan struct{}),
	}
	go rl.sweep()
	return rl
}

// Stop terminates the background sweep goroutine.
func (rl *RateLimiter) Stop() {
	close(rl.stopSweep)
}

// Limit wraps a handler and rejects clients that exhausted their window,
// telling them when the window reopens.
func (rl *RateLimiter) Limit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ok, retry := rl.allow(rl.clientIP(r))
		if !ok {
			w.Header().Set("Retry-After", strconv.Itoa(int(retry.Seconds())+1))
			http.Error(w, "Too many login attempts, try again later", http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// allow records one attempt for ip and reports whether it fits the window;
// when it does not, retry is how long until the window reopens.
func (rl *RateLimiter) allow(ip string) (ok bool, retry time.Duration) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	b, exists := rl.attempts[ip]
	if !exists || now.Sub(b.start) > rl.window {
		rl.attempts[ip] = &bucket{count: 1, start: now}
		return true, 0
	}

	b.count++
	if b.count <= rl.rate {
		return true, 0
	}
	return false, rl.window - now.Sub(b.start)
}

// sweep drops windows that have been closed for a while. The interval
// follows the window length with a floor so short test windows do not spin
// the ticker.
func (rl *RateLimiter) sweep() {
	interval := rl.window
	if interval < time.Minute {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-rl.stopSweep:
			return
		case <-ticker.C:
			rl.mu.Lock()
			now := time.Now()
			for ip, b := range rl.attempts {
				if now.Sub(b.start) > rl.window*2 {
					delete(rl.attempts, ip)
				}
			}
			rl.mu.Unlock()
		}
	}
}

// isTrustedProxy reports whether the given IP belongs to a trusted proxy CIDR.
func (rl *RateLimiter) isTrustedProxy(ipStr string) bool {
	ip := net.ParseIP(strings.TrimSpace(ipStr))
	if ip == nil {
		return false
	}
	for _, n := range rl.trustedNets {
		if n.Contains(ip) {
			return true
		}
	}
	return false
}

// clientIP resolves the address to throttle on. Forwarding headers are
// only believed when the direct peer is a configured trusted proxy,
// otherwise a client could forge X-Forwarded-For to dodge the limit.
func (rl *RateLimiter) clientIP(r *http.Request) string {
	remoteIP, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		remoteIP = r.RemoteAddr
	}

	if len(rl.trustedNets) == 0 || !rl.isTrustedProxy(remoteIP) {
		return remoteIP
	}

	// Rightmost X-Forwarded-For entry that is not itself a trusted proxy:
	// the last hop before the proxy chain, i.e. the real client.
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		parts := strings.Split(xff, ",")
		for i := len(parts) - 1; i >= 0; i-- {
			candidate := strings.TrimSpace(parts[i])
			if candidate != "" && !rl.isTrustedProxy(candidate) {
				return candidate
			}
		}
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}

	return remoteIP
}
