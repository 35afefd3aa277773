// Package retry provides a bounded polling combinator.
package retry

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"
)

// ErrExhausted is returned by Poll when every attempt came back not ready.
var ErrExhausted = errors.New("retry: attempts exhausted")

// Policy bounds a polling loop.
type Policy struct {
	// MaxAttempts is the total number of probes, including the first. Values below 1 mean 1.
	MaxAttempts int
	// Delay is the wait before the second probe.
	Delay time.Duration
	// Multiplier scales Delay after every wait. Values below 1 keep the delay constant.
	Multiplier float64
}

// DefaultPolicy is 5 attempts, 500ms apart.
var DefaultPolicy = Policy{MaxAttempts: 5, Delay: 500 * time.Millisecond, Multiplier: 1}

// Probe reports a value and whether it is ready. A non-nil error stops polling.
type Probe[T any] func(ctx context.Context, attempt int) (T, bool, error)

// Poll runs probe until it reports ready, fails, the context ends or the
// policy's attempts are used up.
func Poll[T any](ctx context.Context, name string, p Policy, probe Probe[T]) (T, error) {
	var zero T
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	delay := p.Delay

	for i := 1; i <= attempts; i++ {
		if i > 1 {
			log.Debug().Str("operation", name).Int("attempt", i).Dur("delay", delay).Msg("polling again")
			if err := sleep(ctx, delay); err != nil {
				return zero, err
			}
			if p.Multiplier > 1 {
				delay = time.Duration(float64(delay) * p.Multiplier)
			}
		}

		v, ready, err := probe(ctx, i)
		if err != nil {
			return zero, err
		}
		if ready {
			return v, nil
		}
	}
	return zero, ErrExhausted
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
