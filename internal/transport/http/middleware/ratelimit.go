package middleware

import (
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"hrpay/internal/transport/http/api"
)

// pruneAt is the bucket count above which expired buckets are dropped.
const pruneAt = 4096

type bucket struct {
	count int
	reset time.Time
}

type decision struct {
	allowed   bool
	remaining int
	resetIn   time.Duration
}

// limiter is a fixed-window counter per key.
type limiter struct {
	mu      sync.Mutex
	limit   int
	window  time.Duration
	now     func() time.Time
	buckets map[string]*bucket
}

func newLimiter(limit int, window time.Duration) *limiter {
	return &limiter{limit: limit, window: window, now: time.Now, buckets: map[string]*bucket{}}
}

func (l *limiter) take(key string) decision {
	now := l.now()
	l.mu.Lock()
	defer l.mu.Unlock()

	if len(l.buckets) > pruneAt {
		for k, b := range l.buckets {
			if now.After(b.reset) {
				delete(l.buckets, k)
			}
		}
	}
	b, ok := l.buckets[key]
	if !ok || now.After(b.reset) {
		b = &bucket{reset: now.Add(l.window)}
		l.buckets[key] = b
	}
	b.count++
	return decision{
		allowed:   b.count <= l.limit,
		remaining: max(l.limit-b.count, 0),
		resetIn:   b.reset.Sub(now),
	}
}

// enforce writes the rate limit headers and, once the key is over its budget, a 429.
func (l *limiter) enforce(w http.ResponseWriter, r *http.Request) bool {
	if l.limit <= 0 {
		return true
	}
	key := requestKey(r)
	d := l.take(key)
	resetSecs := int(d.resetIn.Round(time.Second) / time.Second)

	w.Header().Set("X-RateLimit-Limit", strconv.Itoa(l.limit))
	w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(d.remaining))
	w.Header().Set("X-RateLimit-Reset", strconv.Itoa(resetSecs))
	if d.allowed {
		return true
	}
	w.Header().Set("Retry-After", strconv.Itoa(max(resetSecs, 1)))
	slog.Warn("rate limit exceeded", "key", key, "method", r.Method, "path", r.URL.Path, "limit", l.limit)
	api.Fail(w, http.StatusTooManyRequests, "rate_limited", "too many requests", GetRequestID(r.Context()))
	return false
}

// RateLimit allows limit requests per window for each user, or each client IP when anonymous.
func RateLimit(limit int, window time.Duration) func(http.Handler) http.Handler {
	l := newLimiter(limit, window)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if l.enforce(w, r) {
				next.ServeHTTP(w, r)
			}
		})
	}
}

// SensitiveMutationRateLimit gives operations that write many rows at once a quarter
// of the base budget: renewals, payslip generation and batch runs.
func SensitiveMutationRateLimit(baseLimit int, window time.Duration) func(http.Handler) http.Handler {
	l := newLimiter(max(baseLimit/4, 1), window)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if baseLimit > 0 && isSensitiveMutation(r) && !l.enforce(w, r) {
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// requestKey identifies the caller. RemoteAddr is already the client address when
// chi's RealIP runs first.
func requestKey(r *http.Request) string {
	if user, ok := GetUser(r.Context()); ok && user.UserID != "" {
		return "user:" + user.UserID
	}
	addr := strings.TrimSpace(r.RemoteAddr)
	if host, _, err := net.SplitHostPort(addr); err == nil && host != "" {
		return "ip:" + host
	}
	return "ip:" + addr
}

func isSensitiveMutation(r *http.Request) bool {
	if r.Method != http.MethodPost {
		return false
	}
	path := strings.TrimSuffix(strings.TrimPrefix(r.URL.Path, "/api/v1"), "/")
	switch {
	case path == "/payrolls", path == "/payrolls/run":
		return true
	case strings.HasPrefix(path, "/contracts/") && strings.HasSuffix(path, "/renew"):
		return true
	}
	return false
}
