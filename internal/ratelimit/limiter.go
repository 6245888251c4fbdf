// Package ratelimit implements the fixed-window per-source request limiter
// that sits in front of the tool API. Grounded on the teacher's
// tools.ToolRateLimiter (mutex-protected map keyed by string, periodic
// sweep tied to the owning instance's lifecycle rather than module load),
// adapted from a sliding window to the spec's fixed window with an explicit
// limit/remaining/retry-after contract.
package ratelimit

import (
	"sync"
	"time"
)

// DefaultWindow and DefaultCap match the spec: 15-minute fixed windows,
// 100 requests per window.
const (
	DefaultWindow = 15 * time.Minute
	DefaultCap    = 100
)

type window struct {
	start time.Time
	count int
}

// Limiter is a fixed-window counter, one window per source key. Keys are
// never partitioned by anything but the caller-supplied key (which must be
// the client IP — never a session id, so that callers cannot multiply
// their budget by rotating a client-supplied identifier).
type Limiter struct {
	mu      sync.Mutex
	windows map[string]*window
	cap     int
	window  time.Duration

	stopCh chan struct{}
	once   sync.Once
}

// New creates a Limiter. cap<=0 uses DefaultCap; windowDur<=0 uses
// DefaultWindow.
func New(cap int, windowDur time.Duration) *Limiter {
	if cap <= 0 {
		cap = DefaultCap
	}
	if windowDur <= 0 {
		windowDur = DefaultWindow
	}
	return &Limiter{
		windows: make(map[string]*window),
		cap:     cap,
		window:  windowDur,
	}
}

// Decision is the outcome of an Allow check.
type Decision struct {
	Allowed    bool
	Limit      int
	Remaining  int
	RetryAfter time.Duration // only meaningful when !Allowed
}

// Allow evaluates and records one request against key's fixed window.
func (l *Limiter) Allow(key string) Decision {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	w, ok := l.windows[key]
	if !ok || now.Sub(w.start) >= l.window {
		w = &window{start: now, count: 0}
		l.windows[key] = w
	}

	if w.count >= l.cap {
		remaining := l.window - now.Sub(w.start)
		if remaining < 0 {
			remaining = 0
		}
		return Decision{Allowed: false, Limit: l.cap, Remaining: 0, RetryAfter: remaining}
	}

	w.count++
	return Decision{Allowed: true, Limit: l.cap, Remaining: l.cap - w.count}
}

// StartSweeper launches a background goroutine that removes expired windows
// every 5 minutes. Tied to this instance's lifecycle via Stop, not module
// load, so tests never leak the goroutine.
func (l *Limiter) StartSweeper() {
	l.once.Do(func() {
		l.stopCh = make(chan struct{})
		go l.sweepLoop()
	})
}

// Stop halts the background sweeper, if running.
func (l *Limiter) Stop() {
	if l.stopCh != nil {
		close(l.stopCh)
	}
}

func (l *Limiter) sweepLoop() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-l.stopCh:
			return
		case <-ticker.C:
			l.sweep()
		}
	}
}

func (l *Limiter) sweep() {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := time.Now()
	for k, w := range l.windows {
		if now.Sub(w.start) >= l.window {
			delete(l.windows, k)
		}
	}
}
