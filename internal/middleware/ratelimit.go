package middleware

import (
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/diewo77/go-repairs/httpx"
	"github.com/diewo77/go-repairs/internal/metrics"
	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"
)

// IPRateLimiter gives every client IP its own token bucket. Idle buckets
// expire after ttl so the map does not grow with every visitor.
type IPRateLimiter struct {
	mu       sync.Mutex
	limiters *cache.Cache
	limit    rate.Limit
	burst    int
	ttl      time.Duration
	metrics  *metrics.Metrics
	trusted  []*net.IPNet
}

func NewIPRateLimiter(perSecond float64, burst int, ttl time.Duration, m *metrics.Metrics) *IPRateLimiter {
	return &IPRateLimiter{
		limiters: cache.New(ttl, 2*ttl),
		limit:    rate.Limit(perSecond),
		burst:    burst,
		ttl:      ttl,
		metrics:  m,
	}
}

// TrustProxies makes the limiter read X-Forwarded-For when the peer is one of
// nets. Forwarded headers from any other peer are ignored.
func (l *IPRateLimiter) TrustProxies(nets []*net.IPNet) *IPRateLimiter {
	l.trusted = nets
	return l
}

// Allow consumes a token for ip.
func (l *IPRateLimiter) Allow(ip string) bool {
	return l.limiter(ip).Allow()
}

func (l *IPRateLimiter) limiter(ip string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()
	if v, ok := l.limiters.Get(ip); ok {
		lim := v.(*rate.Limiter)
		l.limiters.Set(ip, lim, l.ttl)
		return lim
	}
	lim := rate.NewLimiter(l.limit, l.burst)
	l.limiters.Set(ip, lim, l.ttl)
	return lim
}

// Middleware answers 429 once the caller's bucket is empty.
func (l *IPRateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !l.Allow(l.clientIP(r)) {
			l.metrics.TrackingLookup(metrics.LookupThrottled)
			retry := 1
			if l.limit > 0 {
				retry = int(1/float64(l.limit)) + 1
			}
			w.Header().Set("Retry-After", strconv.Itoa(retry))
			httpx.JSONError(w, http.StatusTooManyRequests, "too_many_requests", nil)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// clientIP keys on the socket peer. Behind a trusted proxy it takes the right
// most X-Forwarded-For entry that is not itself a trusted proxy.
func (l *IPRateLimiter) clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	if !l.isTrusted(host) {
		return host
	}
	hops := strings.Split(strings.Join(r.Header.Values("X-Forwarded-For"), ","), ",")
	for i := len(hops) - 1; i >= 0; i-- {
		hop := strings.TrimSpace(hops[i])
		if net.ParseIP(hop) == nil {
			break
		}
		if !l.isTrusted(hop) {
			return hop
		}
	}
	return host
}

func (l *IPRateLimiter) isTrusted(addr string) bool {
	ip := net.ParseIP(addr)
	if ip == nil {
		return false
	}
	for _, n := range l.trusted {
		if n.Contains(ip) {
			return true
		}
	}
	return false
}
