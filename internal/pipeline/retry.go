package pipeline

import (
	"context"
	"errors"
	"math/rand/v2"
	"time"

	"github.com/dgallion1/docchunk/internal/pathstore"
)

// IsRetryable checks if an error is worth retrying.
func IsRetryable(err error) bool {
	var retryErr *pathstore.RetryableError
	return errors.As(err, &retryErr)
}

// Backoff returns a duration for attempt n (0-indexed) with jitter.
func Backoff(attempt int) time.Duration {
	base := time.Duration(1<<uint(attempt)) * time.Second
	if base > 30*time.Second {
		base = 30 * time.Second
	}
	jitter := time.Duration(rand.Int64N(int64(base) / 2))
	return base + jitter
}

const MaxRetries = 3

// retry runs fn up to MaxRetries times, waiting backoff(attempt) between
// attempts. Only retryable errors are retried.
func retry(ctx context.Context, backoff func(int) time.Duration, fn func(context.Context) error) error {
	var err error
	for attempt := range MaxRetries {
		err = fn(ctx)
		if err == nil || !IsRetryable(err) || attempt == MaxRetries-1 {
			return err
		}
		select {
		case <-time.After(backoff(attempt)):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return err
}
