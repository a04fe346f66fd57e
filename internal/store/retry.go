package store

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var ErrUnreachable = errors.New("storage unreachable")

// Policy is a bounded retry with a fixed delay between attempts.
type Policy struct {
	Attempts int
	Delay    time.Duration
}

// Retry calls fn until it succeeds, the attempts run out or ctx is done.
// onFail, when set, sees every failed attempt.
func Retry(ctx context.Context, p Policy, fn func(ctx context.Context) error, onFail func(attempt int, err error)) error {
	attempts := p.Attempts
	if attempts < 1 {
		attempts = 1
	}

	var last error
	for attempt := 1; attempt <= attempts; attempt++ {
		last = fn(ctx)
		if last == nil {
			return nil
		}
		if onFail != nil {
			onFail(attempt, last)
		}
		if attempt == attempts {
			break
		}

		timer := time.NewTimer(p.Delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return fmt.Errorf("%w: %w", ErrUnreachable, ctx.Err())
		case <-timer.C:
		}
	}
	return fmt.Errorf("%w after %d attempts: %w", ErrUnreachable, attempts, last)
}
