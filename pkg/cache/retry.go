package cache

import (
	"context"
	"errors"
	"time"
)

// ErrNetwork marks a failure to reach the Redis server. File and null
// caches never return it.
var ErrNetwork = errors.New("network error")

// RetryableError marks a Redis failure worth another attempt, such as a
// refused connection while the server is still starting.
type RetryableError struct{ Err error }

// Retryable marks err for RetryWithBackoff. It returns nil for nil.
func Retryable(err error) error {
	if err == nil {
		return nil
	}
	return &RetryableError{Err: err}
}

func (e *RetryableError) Error() string { return e.Err.Error() }

func (e *RetryableError) Unwrap() error { return e.Err }

// IsRetryable reports whether err, or an error it wraps, was marked with
// Retryable.
func IsRetryable(err error) bool {
	var re *RetryableError
	return errors.As(err, &re)
}

// redisAttempts bounds the connection attempts of NewRedisCache.
const redisAttempts = 3

// retryDelay is the pause after the first failed attempt. Each later pause
// doubles it.
var retryDelay = 200 * time.Millisecond

// RetryWithBackoff runs fn up to three times. NewRedisCache wraps its PING
// in it so a server started alongside Redis waits for the cache instead of
// failing at boot. Errors not marked with Retryable end the loop at once,
// as does a cancelled ctx.
func RetryWithBackoff(ctx context.Context, fn func() error) error {
	delay := retryDelay
	for attempt := 1; ; attempt++ {
		err := fn()
		if err == nil || !IsRetryable(err) || attempt == redisAttempts {
			return err
		}
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
		delay *= 2
	}
}
