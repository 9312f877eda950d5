package middleware

import (
	"context"
	"errors"
	"time"

	"iracing-broadcast/message"
)

var ErrTimeout = errors.New("send timed out")

// Timeout bounds the time spent in the rest of the chain, including retry
// backoff and rate limit waits.
func Timeout(timeout time.Duration) Middleware {
	return func(next SendFunc) SendFunc {
		return func(ctx context.Context, msg message.BroadcastMessage) error {
			ctx, cancel := context.WithTimeout(ctx, timeout)
			defer cancel()

			done := make(chan error, 1)
			go func() {
				done <- next(ctx, msg)
			}()

			select {
			case err := <-done:
				return err
			case <-ctx.Done():
				if errors.Is(ctx.Err(), context.DeadlineExceeded) {
					return ErrTimeout
				}
				return ctx.Err()
			}
		}
	}
}
