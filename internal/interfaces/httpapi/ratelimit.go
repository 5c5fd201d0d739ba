package httpapi

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"
)

type window struct {
	start time.Time
	count int
}

// RateLimiter allows up to limit requests per client in each fixed window.
type RateLimiter struct {
	mu        sync.Mutex
	limit     int
	window    time.Duration
	clients   map[string]*window
	lastSweep time.Time
	now       func() time.Time
}

// NewRateLimiter returns nil when limit is not positive, which disables
// limiting.
func NewRateLimiter(limit int, windowSize time.Duration) *RateLimiter {
	if limit <= 0 || windowSize <= 0 {
		return nil
	}
	return &RateLimiter{
		limit:   limit,
		window:  windowSize,
		clients: make(map[string]*window),
		now:     time.Now,
	}
}

func (l *RateLimiter) Allow(client string) bool {
	if l == nil {
		return true
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if now.Sub(l.lastSweep) >= l.window {
		l.sweep(now)
	}

	entry, ok := l.clients[client]
	if !ok || now.Sub(entry.start) >= l.window {
		l.clients[client] = &window{start: now, count: 1}
		return true
	}
	if entry.count >= l.limit {
		return false
	}
	entry.count++
	return true
}

// Len reports how many clients are tracked.
func (l *RateLimiter) Len() int {
	if l == nil {
		return 0
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.clients)
}

func (l *RateLimiter) sweep(now time.Time) {
	for client, entry := range l.clients {
		if now.Sub(entry.start) >= l.window {
			delete(l.clients, client)
		}
	}
	l.lastSweep = now
}

// ClientIP prefers the first X-Forwarded-For entry and falls back to the
// connection's remote host.
func ClientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		first, _, _ := strings.Cut(forwarded, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
