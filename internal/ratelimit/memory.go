package ratelimit

import (
	"sync"
	"time"
)

// window tracks the request count for a single key.
type window struct {
	mu      sync.Mutex
	count   int
	resetAt time.Time
	dead    bool // retired by Sweep; callers must load a fresh window
}

// MemoryLimiter is an in-process fixed-window limiter. It is only valid for
// single-instance deployments.
type MemoryLimiter struct {
	policy  Policy
	now     func() time.Time
	windows sync.Map // string -> *window
}

// Option configures a MemoryLimiter.
type Option func(*MemoryLimiter)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(l *MemoryLimiter) { l.now = now }
}

// NewMemoryLimiter creates a limiter enforcing p.
func NewMemoryLimiter(p Policy, opts ...Option) *MemoryLimiter {
	l := &MemoryLimiter{policy: p, now: time.Now}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Max returns the request budget per window.
func (l *MemoryLimiter) Max() int { return l.policy.Max }

// Allow admits the request if key's window has budget left, resetting the
// window first when it has expired. The check and increment happen under the
// window's own lock, so two racing callers cannot both take the last slot.
func (l *MemoryLimiter) Allow(key string) bool {
	for {
		v, _ := l.windows.LoadOrStore(key, &window{})
		w := v.(*window)

		w.mu.Lock()
		if w.dead {
			w.mu.Unlock()
			l.windows.CompareAndDelete(key, w)
			continue
		}

		now := l.now()
		if w.resetAt.IsZero() || !now.Before(w.resetAt) {
			w.count = 1
			w.resetAt = now.Add(l.policy.Window)
			w.mu.Unlock()
			return true
		}

		if w.count >= l.policy.Max {
			w.mu.Unlock()
			return false
		}
		w.count++
		w.mu.Unlock()
		return true
	}
}

// Remaining returns max(0, Max-count), or Max when key has no window.
func (l *MemoryLimiter) Remaining(key string) int {
	v, ok := l.windows.Load(key)
	if !ok {
		return l.policy.Max
	}
	w := v.(*window)
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.dead || w.resetAt.IsZero() {
		return l.policy.Max
	}
	return max(0, l.policy.Max-w.count)
}

// ResetAt returns the end of key's window, or the zero time.
func (l *MemoryLimiter) ResetAt(key string) time.Time {
	v, ok := l.windows.Load(key)
	if !ok {
		return time.Time{}
	}
	w := v.(*window)
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.dead {
		return time.Time{}
	}
	return w.resetAt
}

// Sweep drops expired windows and returns how many were removed. Each window
// is locked only long enough to check and retire it.
func (l *MemoryLimiter) Sweep() int {
	now := l.now()
	removed := 0
	l.windows.Range(func(k, v any) bool {
		w := v.(*window)
		w.mu.Lock()
		expired := !w.dead && !w.resetAt.IsZero() && !now.Before(w.resetAt)
		if expired {
			w.dead = true
		}
		w.mu.Unlock()

		if expired {
			l.windows.CompareAndDelete(k, w)
			removed++
		}
		return true
	})
	return removed
}

// Len returns the number of tracked keys.
func (l *MemoryLimiter) Len() int {
	n := 0
	l.windows.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}

var _ Limiter = (*MemoryLimiter)(nil)
