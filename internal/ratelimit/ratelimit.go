// Package ratelimit provides an in-memory sliding-window rate limiter.
//
// It backs two concerns: IP-keyed limits on the auth endpoint, and the
// per-case recompute cooldown. The cooldown is a presentation-layer
// courtesy against wasted recomputation, not a correctness requirement of
// the engine — concurrent appends are safe without it.
package ratelimit

import (
	"sync"
	"time"
)

// Rule describes one limit: at most Limit requests per Window, namespaced
// by Prefix so different endpoints sharing a Limiter do not collide.
type Rule struct {
	Prefix string
	Limit  int
	Window time.Duration
}

// Result reports the outcome of one Allow call.
type Result struct {
	Allowed   bool
	Remaining int
	ResetAt   time.Time
}

// Limiter tracks request timestamps per key in memory. Safe for concurrent
// use. A background goroutine evicts idle keys to bound memory; call Close
// to stop it.
type Limiter struct {
	mu      sync.Mutex
	windows map[string][]time.Time

	stopOnce sync.Once
	done     chan struct{}
}

// New creates a Limiter and starts its eviction goroutine.
func New() *Limiter {
	l := &Limiter{
		windows: make(map[string][]time.Time),
		done:    make(chan struct{}),
	}
	go l.cleanup()
	return l
}

// Allow records one request under rule/key and reports whether it fits the
// window. The sliding window drops timestamps older than rule.Window.
func (l *Limiter) Allow(rule Rule, key string) Result {
	now := time.Now()
	cutoff := now.Add(-rule.Window)
	k := rule.Prefix + ":" + key

	l.mu.Lock()
	defer l.mu.Unlock()

	kept := l.windows[k][:0]
	for _, t := range l.windows[k] {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}

	if len(kept) >= rule.Limit {
		l.windows[k] = kept
		return Result{Allowed: false, Remaining: 0, ResetAt: kept[0].Add(rule.Window)}
	}

	kept = append(kept, now)
	l.windows[k] = kept
	return Result{
		Allowed:   true,
		Remaining: rule.Limit - len(kept),
		ResetAt:   now.Add(rule.Window),
	}
}

// Close stops the eviction goroutine. Safe to call multiple times.
func (l *Limiter) Close() error {
	l.stopOnce.Do(func() { close(l.done) })
	return nil
}

const staleThreshold = 10 * time.Minute

func (l *Limiter) cleanup() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-l.done:
			return
		case <-ticker.C:
			l.evictStale()
		}
	}
}

func (l *Limiter) evictStale() {
	l.mu.Lock()
	defer l.mu.Unlock()

	cutoff := time.Now().Add(-staleThreshold)
	for key, window := range l.windows {
		if len(window) == 0 || window[len(window)-1].Before(cutoff) {
			delete(l.windows, key)
		}
	}
}
