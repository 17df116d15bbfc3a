package middleware

import (
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const authPathPrefix = "/api/auth"

type clientLimiter struct {
	general  *rate.Limiter
	auth     *rate.Limiter
	lastSeen time.Time
}

// RateLimitMiddleware keeps one pair of token buckets per client IP. Auth
// routes draw from the stricter bucket.
type RateLimitMiddleware struct {
	generalRPM int
	authRPM    int
	mu         sync.Mutex
	clients    map[string]*clientLimiter
	now        func() time.Time
}

func NewRateLimitMiddleware(generalRPM int, authRPM int) *RateLimitMiddleware {
	if generalRPM <= 0 {
		generalRPM = 100
	}
	if authRPM <= 0 {
		authRPM = 10
	}

	return &RateLimitMiddleware{
		generalRPM: generalRPM,
		authRPM:    authRPM,
		clients:    map[string]*clientLimiter{},
		now:        time.Now,
	}
}

func (m *RateLimitMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := strings.ToLower(r.URL.Path)
		if path == "/api/health" || path == "/metrics" {
			next.ServeHTTP(w, r)
			return
		}

		limiter := m.getLimiter(ClientIP(r))

		target := limiter.general
		if strings.HasPrefix(path, authPathPrefix) {
			target = limiter.auth
		}

		if !target.Allow() {
			w.Header().Set("Retry-After", "60")
			writeError(w, http.StatusTooManyRequests, "RATE_LIMITED", "Too many requests")
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (m *RateLimitMiddleware) getLimiter(clientIP string) *clientLimiter {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	if limiter, exists := m.clients[clientIP]; exists {
		limiter.lastSeen = now
		return limiter
	}

	m.gcLocked(now)

	created := &clientLimiter{
		general:  rate.NewLimiter(rate.Every(time.Minute/time.Duration(m.generalRPM)), m.generalRPM),
		auth:     rate.NewLimiter(rate.Every(time.Minute/time.Duration(m.authRPM)), m.authRPM),
		lastSeen: now,
	}
	m.clients[clientIP] = created

	return created
}

func (m *RateLimitMiddleware) gcLocked(now time.Time) {
	if len(m.clients) < 1000 {
		return
	}

	cutoff := now.Add(-10 * time.Minute)
	for ip, limiter := range m.clients {
		if limiter.lastSeen.Before(cutoff) {
			delete(m.clients, ip)
		}
	}
}
