package script

import (
	"sync"
	"time"
)

// Breaker fails the gateway fast when the script backend is down.
// Consecutive transport-level failures past the threshold open the
// breaker for a cooldown window; any success closes it again.
type Breaker struct {
	mu        sync.Mutex
	threshold int
	cooldown  time.Duration
	failures  int
	openedAt  time.Time
	now       func() time.Time
}

// NewBreaker creates a breaker that opens after threshold consecutive
// failures and stays open for cooldown.
func NewBreaker(threshold int, cooldown time.Duration) *Breaker {
	return &Breaker{
		threshold: threshold,
		cooldown:  cooldown,
		now:       time.Now,
	}
}

// IsOpen reports whether calls should be refused right now.
func (b *Breaker) IsOpen() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.failures < b.threshold {
		return false
	}
	if b.now().Sub(b.openedAt) >= b.cooldown {
		// Half-open: let the next call probe the backend.
		b.failures = b.threshold - 1
		return false
	}
	return true
}

// Record notes a transport-level failure.
func (b *Breaker) Record() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failures++
	if b.failures == b.threshold {
		b.openedAt = b.now()
	}
}

// Reset closes the breaker after a successful call.
func (b *Breaker) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failures = 0
}
