package hedera

import (
	"context"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"
)

const (
	DefaultMinBackoff = 250 * time.Millisecond
	DefaultMaxBackoff = 8 * time.Second
)

// backoffDelay returns min(minBackoff * 2^attempt, maxBackoff).
func backoffDelay(attempt int, minBackoff, maxBackoff time.Duration) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	delay := minBackoff
	for i := 0; i < attempt; i++ {
		if delay >= maxBackoff || delay > maxBackoff/2 {
			return maxBackoff
		}
		delay *= 2
	}
	if delay > maxBackoff {
		return maxBackoff
	}
	return delay
}

// Sleeper pauses for d or until ctx is done, whichever happens first.
type Sleeper func(ctx context.Context, d time.Duration) error

func clockSleeper(c clock.Clock) Sleeper {
	return func(ctx context.Context, d time.Duration) error {
		if d <= 0 {
			return errors.WithStack(ctx.Err())
		}
		timer := c.Timer(d)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return errors.WithStack(ctx.Err())
		case <-timer.C:
			return nil
		}
	}
}
