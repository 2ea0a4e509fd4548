package httpapi

import (
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const limiterIdleTTL = 10 * time.Minute

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// loginLimiter throttles failed sign-ins per client IP. Successful sign-ins
// do not consume the budget.
type loginLimiter struct {
	mu        sync.Mutex
	perMinute int
	entries   map[string]*limiterEntry
}

func newLoginLimiter(perMinute int) *loginLimiter {
	if perMinute <= 0 {
		perMinute = 5
	}
	return &loginLimiter{perMinute: perMinute, entries: map[string]*limiterEntry{}}
}

func (l *loginLimiter) entry(ip string, now time.Time) *limiterEntry {
	e, ok := l.entries[ip]
	if !ok {
		every := rate.Every(time.Minute / time.Duration(l.perMinute))
		e = &limiterEntry{limiter: rate.NewLimiter(every, l.perMinute)}
		l.entries[ip] = e
	}
	e.lastSeen = now
	return e
}

// Blocked reports whether ip has used up its failure budget.
func (l *loginLimiter) Blocked(ip string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := time.Now()
	return l.entry(ip, now).limiter.TokensAt(now) < 1
}

func (l *loginLimiter) Fail(ip string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := time.Now()
	l.entry(ip, now).limiter.AllowN(now, 1)
	for key, e := range l.entries {
		if now.Sub(e.lastSeen) > limiterIdleTTL {
			delete(l.entries, key)
		}
	}
}

func (l *loginLimiter) Reset(ip string) {
	l.mu.Lock()
	delete(l.entries, ip)
	l.mu.Unlock()
}

// clientIP relies on chi's RealIP having rewritten RemoteAddr.
func clientIP(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
