package middleware

import (
	"context"
	"errors"

	"golang.org/x/time/rate"

	"iracing-broadcast/message"
)

var ErrRateLimited = errors.New("rate limit exceeded")

// RateLimit rejects sends beyond r per second with bursts of burst, using a
// token bucket. It keeps per-frame camera switching from flooding the
// simulator's message queue.
func RateLimit(r float64, burst int) Middleware {
	limiter := rate.NewLimiter(rate.Limit(r), burst)
	return func(next SendFunc) SendFunc {
		return func(ctx context.Context, msg message.BroadcastMessage) error {
			if !limiter.Allow() {
				return ErrRateLimited
			}
			return next(ctx, msg)
		}
	}
}

// RateLimitWait is RateLimit that waits for a token instead of rejecting,
// until ctx is done.
func RateLimitWait(r float64, burst int) Middleware {
	limiter := rate.NewLimiter(rate.Limit(r), burst)
	return func(next SendFunc) SendFunc {
		return func(ctx context.Context, msg message.BroadcastMessage) error {
			if err := limiter.Wait(ctx); err != nil {
				return err
			}
			return next(ctx, msg)
		}
	}
}
