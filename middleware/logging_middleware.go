package middleware

import (
	"context"
	"time"

	"go.uber.org/zap"

	"iracing-broadcast/broadcasterr"
	"iracing-broadcast/message"
)

func Logging(logger *zap.Logger) Middleware {
	return func(next SendFunc) SendFunc {
		return func(ctx context.Context, msg message.BroadcastMessage) error {
			start := time.Now()
			err := next(ctx, msg)
			fields := []zap.Field{
				zap.Stringer("type", msg.Type()),
				zap.Stringer("words", message.Encode(msg)),
				zap.Duration("duration", time.Since(start)),
			}
			if err != nil {
				fields = append(fields, zap.Error(err))
				if k := broadcasterr.KindOf(err); k != 0 {
					fields = append(fields, zap.Stringer("kind", k))
				}
				logger.Warn("broadcast send failed", fields...)
				return err
			}
			logger.Debug("broadcast sent", fields...)
			return nil
		}
	}
}
