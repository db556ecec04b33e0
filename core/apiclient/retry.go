package apiclient

import (
	"context"
	"errors"
)

// Retry runs op up to maxAttempts times. It stops on the first success, on
// an error retryable rejects, or when ctx is done. After the last failed
// attempt the error is ErrRetriesExhausted joined with op's final error.
// A nil retryable retries every error.
func Retry[T any](
	ctx context.Context,
	maxAttempts int,
	op func(ctx context.Context, attempt int) (T, error),
	retryable func(error) bool,
) (T, error) {
	var zero T
	maxAttempts = max(maxAttempts, 1)

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return zero, errors.Join(err, lastErr)
		}

		v, err := op(ctx, attempt)
		if err == nil {
			return v, nil
		}
		lastErr = err

		if retryable != nil && !retryable(err) {
			return zero, err
		}
	}

	return zero, errors.Join(ErrRetriesExhausted, lastErr)
}
