// Package poll runs a function on an interval with jitter and
// exponential backoff on consecutive failures.
package poll

import (
	"context"
	"log/slog"
	"math/rand"
	"time"

	"github.com/aulanet-io/ad-console/internal/logging"
)

// Func is one poll attempt. A non-nil error triggers backoff.
type Func func(ctx context.Context) error

// Poller invokes a Func repeatedly. Interval is the base cadence;
// after each consecutive failure the wait doubles, capped at
// MaxBackoff, and resets on the next success. Jitter (a fraction of
// the interval, 0..1) staggers ticks so many clients do not align.
type Poller struct {
	Interval   time.Duration
	MaxBackoff time.Duration
	Jitter     float64

	log *slog.Logger
}

// New creates a poller with sane defaults for the live feed.
func New(interval time.Duration) *Poller {
	return &Poller{
		Interval:   interval,
		MaxBackoff: 8 * interval,
		Jitter:     0.1,
		log:        logging.Component("poller"),
	}
}

// Run calls fn immediately and then on every tick until ctx is done.
func (p *Poller) Run(ctx context.Context, fn Func) {
	failures := 0
	for {
		if err := fn(ctx); err != nil {
			failures++
			p.log.Warn("poll failed", "consecutive", failures, "error", err)
		} else {
			failures = 0
		}

		wait := p.next(failures)
		select {
		case <-ctx.Done():
			return
		case <-time.After(wait):
		}
	}
}

// next computes the wait before the next attempt.
func (p *Poller) next(failures int) time.Duration {
	wait := p.Interval
	for i := 0; i < failures; i++ {
		wait *= 2
		if p.MaxBackoff > 0 && wait >= p.MaxBackoff {
			wait = p.MaxBackoff
			break
		}
	}
	if p.Jitter > 0 {
		span := float64(wait) * p.Jitter
		wait += time.Duration((rand.Float64() - 0.5) * 2 * span)
		if wait < 0 {
			wait = 0
		}
	}
	return wait
}
