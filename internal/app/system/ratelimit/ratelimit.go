// internal/app/system/ratelimit/ratelimit.go
//
// Sliding-window rate limiting for the credential endpoints. Limits are
// tracked per client IP and per account email so neither a single host
// nor a single targeted account can be hammered.
package ratelimit

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"
)

// Limiter counts requests per key in a sliding window. Safe for
// concurrent use.
type Limiter struct {
	mu       sync.Mutex
	windows  map[string]*window
	limit    int
	duration time.Duration
	cleanup  time.Duration
}

type window struct {
	count     int
	expiresAt time.Time
}

// New creates a limiter allowing limit requests per duration per key.
func New(limit int, duration time.Duration) *Limiter {
	l := &Limiter{
		windows:  make(map[string]*window),
		limit:    limit,
		duration: duration,
		cleanup:  duration * 2,
	}
	go l.cleanupLoop()
	return l
}

// Allow reports whether a request from key fits in the current window.
func (l *Limiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	w, exists := l.windows[key]
	if !exists || now.After(w.expiresAt) {
		l.windows[key] = &window{count: 1, expiresAt: now.Add(l.duration)}
		return true
	}
	if w.count >= l.limit {
		return false
	}
	w.count++
	return true
}

// Reset clears the window for key. Called after a successful sign-in so
// a legitimate user is not penalized for earlier typos.
func (l *Limiter) Reset(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.windows, key)
}

func (l *Limiter) cleanupLoop() {
	ticker := time.NewTicker(l.cleanup)
	defer ticker.Stop()

	for range ticker.C {
		l.mu.Lock()
		now := time.Now()
		for key, w := range l.windows {
			if now.After(w.expiresAt) {
				delete(l.windows, key)
			}
		}
		l.mu.Unlock()
	}
}

// ClientIP extracts the client IP, honoring proxy headers before falling
// back to RemoteAddr.
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if ip := strings.TrimSpace(strings.Split(xff, ",")[0]); ip != "" {
			return ip
		}
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

// AuthLimiter combines an IP window and an email window for sign-in and
// registration attempts.
type AuthLimiter struct {
	ip    *Limiter
	email *Limiter
}

// NewAuthLimiter returns the default credential-endpoint limits:
// 10 attempts per IP per minute, 5 per email per 5 minutes.
func NewAuthLimiter() *AuthLimiter {
	return &AuthLimiter{
		ip:    New(10, time.Minute),
		email: New(5, 5*time.Minute),
	}
}

// Check reports whether the attempt is allowed. The reason is suitable
// for the client when it is not.
func (al *AuthLimiter) Check(r *http.Request, email string) (bool, string) {
	if !al.ip.Allow(ClientIP(r)) {
		return false, "too many attempts, retry in a minute"
	}
	if email != "" {
		if !al.email.Allow(strings.ToLower(strings.TrimSpace(email))) {
			return false, "too many attempts for this account, retry in a few minutes"
		}
	}
	return true, ""
}

// ResetEmail clears the email window after a successful sign-in.
func (al *AuthLimiter) ResetEmail(email string) {
	if email != "" {
		al.email.Reset(strings.ToLower(strings.TrimSpace(email)))
	}
}
