package server

import (
	"sync"
	"time"
)

// JobRateLimiter restricts how often one client may submit printer jobs
type JobRateLimiter struct {
	mu        sync.Mutex
	attempts  map[string][]time.Time
	maxPerMin int
	now       func() time.Time
}

// NewJobRateLimiter allows maxPerMinute jobs per client. Zero disables the
// limit.
func NewJobRateLimiter(maxPerMinute int) *JobRateLimiter {
	return &JobRateLimiter{
		attempts:  make(map[string][]time.Time),
		maxPerMin: maxPerMinute,
		now:       time.Now,
	}
}

// Allow records an attempt and reports whether it is within the limit
func (rl *JobRateLimiter) Allow(client string) bool {
	if rl.maxPerMin <= 0 {
		return true
	}

	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	cutoff := now.Add(-time.Minute)

	recent := make([]time.Time, 0, rl.maxPerMin)
	for _, t := range rl.attempts[client] {
		if t.After(cutoff) {
			recent = append(recent, t)
		}
	}

	if len(recent) >= rl.maxPerMin {
		rl.attempts[client] = recent
		return false
	}

	rl.attempts[client] = append(recent, now)
	return true
}

// Forget drops a client's history
func (rl *JobRateLimiter) Forget(client string) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	delete(rl.attempts, client)
}
