package cache

import (
	"context"
	"errors"
	"time"
)

// RetryableError marks a failure as transient. Only errors carrying it are
// retried by [Backoff.Do].
type RetryableError struct{ Err error }

func (e *RetryableError) Error() string { return e.Err.Error() }
func (e *RetryableError) Unwrap() error { return e.Err }

// Retryable marks err as transient. It returns nil for a nil err.
func Retryable(err error) error {
	if err == nil {
		return nil
	}
	return &RetryableError{Err: err}
}

// IsRetryable reports whether err or anything it wraps is a [RetryableError].
func IsRetryable(err error) bool {
	var re *RetryableError
	return errors.As(err, &re)
}

// Backoff retries an operation a fixed number of times, doubling the wait
// after each transient failure.
type Backoff struct {
	Attempts int           // total tries; values below 1 mean one try
	Delay    time.Duration // wait before the second try
}

// DefaultBackoff is used for metadata requests: three tries, 1s then 2s apart.
var DefaultBackoff = Backoff{Attempts: 3, Delay: time.Second}

// Do runs fn until it succeeds, fails permanently or the attempts are used
// up, and returns the last error. Cancelling ctx while waiting returns
// ctx.Err().
func (b Backoff) Do(ctx context.Context, fn func() error) error {
	delay := b.Delay
	for try := 1; ; try++ {
		err := fn()
		if err == nil || !IsRetryable(err) || try >= b.Attempts {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
	}
}

// RetryWithBackoff runs fn under [DefaultBackoff].
func RetryWithBackoff(ctx context.Context, fn func() error) error {
	return DefaultBackoff.Do(ctx, fn)
}
