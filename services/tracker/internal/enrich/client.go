package enrich

import (
	"context"
	"errors"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

type base struct {
	cb  *gobreaker.CircuitBreaker
	log *zap.Logger
}

// Option configures a lookup client.
type Option func(*base)

func WithCircuitBreaker(cb *gobreaker.CircuitBreaker) Option {
	return func(b *base) { b.cb = cb }
}

func WithLogger(log *zap.Logger) Option {
	return func(b *base) { b.log = log }
}

func newBase(opts []Option) base {
	b := base{log: zap.NewNop()}
	for _, o := range opts {
		o(&b)
	}
	return b
}

func execute[T any](b base, fn func() (T, error)) (T, error) {
	if b.cb == nil {
		return fn()
	}
	out, err := b.cb.Execute(func() (interface{}, error) {
		return fn()
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return out.(T), nil
}

// BreakerSettings mirrors the CB_* environment settings.
type BreakerSettings struct {
	MaxRequests      uint32
	Interval         time.Duration
	Timeout          time.Duration
	FailureThreshold uint32
}

// NewBreaker builds a circuit breaker for one upstream. Lookups that found
// nothing and cancelled requests do not count as failures.
func NewBreaker(name string, s BreakerSettings, log *zap.Logger) *gobreaker.CircuitBreaker {
	if log == nil {
		log = zap.NewNop()
	}
	threshold := s.FailureThreshold
	if threshold == 0 {
		threshold = 5
	}
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: s.MaxRequests,
		Interval:    s.Interval,
		Timeout:     s.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, ErrNoMatch) || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Info("circuit-breaker state change", zap.String("name", name), zap.String("from", from.String()), zap.String("to", to.String()))
		},
	})
}
