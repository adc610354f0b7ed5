// Package ratelimit throttles ledger mutations per client address.
package ratelimit

import (
	"net/http"
	"slices"
	"strconv"
	"sync"
	"time"
)

const (
	window    = time.Minute
	idleAfter = 10 * time.Minute
)

// Limiter gives every client a budget of requests per one-minute window.
// Windows are fixed: the first request after a window expires opens a new one.
type Limiter struct {
	budget  int
	methods []string
	now     func() time.Time

	mu      sync.Mutex
	windows map[string]*bucket

	sweepEvery time.Duration
	done       chan struct{}
	stopOnce   sync.Once
}

type bucket struct {
	opened time.Time
	seen   time.Time
	used   int
}

// Config tunes a Limiter. Empty Methods counts every request.
type Config struct {
	RequestsPerMinute int
	CleanupInterval   time.Duration
	Methods           []string
}

// DefaultConfig allows 60 mutations per minute per client.
func DefaultConfig() Config {
	return Config{
		RequestsPerMinute: 60,
		CleanupInterval:   5 * time.Minute,
		Methods:           MutatingMethods(),
	}
}

// MutatingMethods are the methods the ledger API uses for writes.
func MutatingMethods() []string {
	return []string{http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete}
}

// NewLimiter starts a limiter with a background sweeper; Stop ends it.
func NewLimiter(cfg Config) *Limiter {
	def := DefaultConfig()
	if cfg.RequestsPerMinute <= 0 {
		cfg.RequestsPerMinute = def.RequestsPerMinute
	}
	if cfg.CleanupInterval <= 0 {
		cfg.CleanupInterval = def.CleanupInterval
	}

	l := &Limiter{
		budget:     cfg.RequestsPerMinute,
		methods:    slices.Clone(cfg.Methods),
		now:        time.Now,
		windows:    make(map[string]*bucket),
		sweepEvery: cfg.CleanupInterval,
		done:       make(chan struct{}),
	}
	go l.sweepLoop()
	return l
}

// Allow spends one unit of key's budget and reports whether it was available.
func (l *Limiter) Allow(key string) bool {
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	b := l.windows[key]
	if b == nil || now.Sub(b.opened) >= window {
		b = &bucket{opened: now}
		l.windows[key] = b
	}
	b.seen = now
	b.used++
	return b.used <= l.budget
}

// Limits reports whether method is subject to the budget.
func (l *Limiter) Limits(method string) bool {
	return len(l.methods) == 0 || slices.Contains(l.methods, method)
}

// ActiveClients is the number of clients with a tracked window.
func (l *Limiter) ActiveClients() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.windows)
}

// Stop ends the sweeper. It is safe to call more than once.
func (l *Limiter) Stop() {
	l.stopOnce.Do(func() { close(l.done) })
}

func (l *Limiter) sweepLoop() {
	t := time.NewTicker(l.sweepEvery)
	defer t.Stop()
	for {
		select {
		case <-l.done:
			return
		case <-t.C:
			l.cleanupStaleEntries()
		}
	}
}

// cleanupStaleEntries forgets clients idle for longer than idleAfter.
func (l *Limiter) cleanupStaleEntries() {
	cutoff := l.now().Add(-idleAfter)

	l.mu.Lock()
	defer l.mu.Unlock()
	for key, b := range l.windows {
		if b.seen.Before(cutoff) {
			delete(l.windows, key)
		}
	}
}

// Middleware answers 429 with Retry-After once a client exhausts its budget.
// A nil onLimit writes a plain-text rejection.
func (l *Limiter) Middleware(clientKey func(*http.Request) string, onLimit func(http.ResponseWriter, *http.Request)) func(http.Handler) http.Handler {
	retryAfter := strconv.Itoa(int(window / time.Second))
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !l.Limits(r.Method) || l.Allow(clientKey(r)) {
				next.ServeHTTP(w, r)
				return
			}
			w.Header().Set("Retry-After", retryAfter)
			if onLimit == nil {
				http.Error(w, "too many requests", http.StatusTooManyRequests)
				return
			}
			onLimit(w, r)
		})
	}
}
