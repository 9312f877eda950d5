// Package middleware wraps message delivery with opt-in policies.
//
// The client itself sends exactly once and reports every failure. Retry,
// rate limiting, logging, metrics and tracing are layered on top by the
// caller:
//
//	send := middleware.Chain(
//		middleware.Logging(logger),
//		middleware.RateLimit(20, 5),
//		middleware.Retry(3, 100*time.Millisecond, logger),
//	)(middleware.Sender(c))
//
// Chain(A, B, C)(h) runs A, then B, then C around h.
package middleware

import (
	"context"

	"iracing-broadcast/message"
)

type SendFunc func(ctx context.Context, msg message.BroadcastMessage) error

type Middleware func(next SendFunc) SendFunc

// MessageSender is implemented by *client.Client.
type MessageSender interface {
	SendMessage(msg message.BroadcastMessage) error
}

// Sender adapts s to a SendFunc. A cancelled context stops the send before
// it reaches the OS.
func Sender(s MessageSender) SendFunc {
	return func(ctx context.Context, msg message.BroadcastMessage) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		return s.SendMessage(msg)
	}
}

// Chain composes middlewares into one; the first runs outermost.
func Chain(middlewares ...Middleware) Middleware {
	return func(next SendFunc) SendFunc {
		for i := len(middlewares) - 1; i >= 0; i-- {
			next = middlewares[i](next)
		}
		return next
	}
}
