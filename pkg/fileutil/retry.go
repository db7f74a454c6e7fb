package fileutil

import (
	"context"
	"syscall"
	"time"

	"github.com/thoreinstein/snapkeep/internal/errors"
)

// RetryPolicy controls how often transient filesystem errors are retried.
type RetryPolicy struct {
	// Attempts is the total number of tries, including the first one.
	Attempts int

	// Base is the first backoff delay; each retry doubles it.
	Base time.Duration
}

// DefaultRetry retries a busy or locked file a few times within about a second.
var DefaultRetry = RetryPolicy{Attempts: 4, Base: 100 * time.Millisecond}

// NoRetry runs the operation exactly once.
var NoRetry = RetryPolicy{Attempts: 1}

// Do runs fn until it succeeds, fails with a permanent error, the attempts are
// exhausted or ctx is done. The last error is returned unchanged so callers
// keep its path and kind.
func (p RetryPolicy) Do(ctx context.Context, fn func() error) error {
	attempts := max(p.Attempts, 1)
	delay := p.Base

	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		if ctxErr := ctx.Err(); ctxErr != nil {
			if err != nil {
				return err
			}
			return ctxErr
		}

		err = fn()
		if err == nil || !IsTransient(err) || attempt == attempts {
			return err
		}

		select {
		case <-ctx.Done():
			return err
		case <-time.After(delay):
		}
		delay *= 2
	}

	return err
}

// IsTransient reports whether err is worth retrying: the file is busy or the
// operation timed out, as happens with files held open by another process.
func IsTransient(err error) bool {
	return errors.Is(err, syscall.EAGAIN) ||
		errors.Is(err, syscall.EBUSY) ||
		errors.Is(err, syscall.ETIMEDOUT)
}
