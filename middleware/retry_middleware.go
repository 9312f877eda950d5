package middleware

import (
	"context"
	"time"

	"go.uber.org/zap"

	"iracing-broadcast/broadcasterr"
	"iracing-broadcast/message"
)

// MaxBackoffShift caps exponential backoff at baseDelay<<MaxBackoffShift.
const MaxBackoffShift = 10

// Backoff is the wait before retry attempt i (counted from 0).
func Backoff(baseDelay time.Duration, i int) time.Duration {
	if i > MaxBackoffShift {
		i = MaxBackoffShift
	}
	return baseDelay << uint(i)
}

// RetryBudget is the longest total backoff Retry can wait.
func RetryBudget(maxRetries int, baseDelay time.Duration) time.Duration {
	var total time.Duration
	for i := 0; i < maxRetries; i++ {
		total += Backoff(baseDelay, i)
	}
	return total
}

// Retry sends again after TargetNotFound or DeliveryFailed, waiting
// baseDelay, 2*baseDelay, 4*baseDelay... between attempts, up to
// baseDelay<<MaxBackoffShift. Other errors return immediately.
func Retry(maxRetries int, baseDelay time.Duration, logger *zap.Logger) Middleware {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(next SendFunc) SendFunc {
		return func(ctx context.Context, msg message.BroadcastMessage) error {
			err := next(ctx, msg)
			for i := 0; i < maxRetries; i++ {
				if err == nil || !broadcasterr.IsRetryable(err) {
					return err
				}
				logger.Info("retrying broadcast send",
					zap.Int("attempt", i+1),
					zap.Stringer("type", msg.Type()),
					zap.Error(err))

				timer := time.NewTimer(Backoff(baseDelay, i))
				select {
				case <-ctx.Done():
					timer.Stop()
					return err
				case <-timer.C:
				}
				err = next(ctx, msg)
			}
			return err
		}
	}
}
