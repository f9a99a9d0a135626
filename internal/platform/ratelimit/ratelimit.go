// Package ratelimit paces calls to upstream APIs with a fixed ticker.
package ratelimit

import (
	"context"
	"time"
)

// Limiter lets one operation through per tick. A nil Limiter never blocks.
type Limiter struct {
	t *time.Ticker
}

// NewRPS creates a limiter allowing up to rps operations per second.
func NewRPS(rps int) *Limiter {
	if rps <= 0 {
		rps = 1
	}
	return NewInterval(time.Second / time.Duration(rps))
}

// NewInterval creates a limiter allowing one operation per interval.
func NewInterval(interval time.Duration) *Limiter {
	if interval <= 0 {
		interval = time.Second
	}
	return &Limiter{t: time.NewTicker(interval)}
}

func (l *Limiter) Stop() {
	if l != nil && l.t != nil {
		l.t.Stop()
	}
}

// Wait blocks until the next tick or until ctx is done.
func (l *Limiter) Wait(ctx context.Context) error {
	if l == nil || l.t == nil {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-l.t.C:
		return nil
	}
}
