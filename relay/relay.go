// Package relay feeds broadcast commands from queues and network ingress
// into one client.
//
// Processing pipeline:
//
//	Source.Commands ─┐
//	Source.Commands ─┼→ pump (one goroutine per source, in order)
//	Source.Commands ─┘    → middleware chain → Sender.SendMessage → Command.Done
//
// Commands from one source are sent in the order they arrive. Sources run
// concurrently with each other.
package relay

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"iracing-broadcast/message"
	"iracing-broadcast/middleware"
)

var ErrShuttingDown = errors.New("relay is shutting down")

// Command is one message to deliver. Done, if set, receives the send
// result exactly once.
type Command struct {
	ID      string
	Origin  string
	Message message.BroadcastMessage
	Done    func(error)
}

func (c Command) finish(err error) {
	if c.Done != nil {
		c.Done(err)
	}
}

// Source yields commands until ctx is done or the source is exhausted, at
// which point it closes the channel.
type Source interface {
	Commands(ctx context.Context) (<-chan Command, error)
}

// Relay runs commands through a middleware chain onto a sender.
type Relay struct {
	send   middleware.SendFunc
	logger *zap.Logger

	mu       sync.RWMutex // Guards shutdown against wg.Add
	wg       sync.WaitGroup
	shutdown atomic.Bool
	cancel   context.CancelFunc

	sent   atomic.Uint64
	failed atomic.Uint64
}

// New builds the middleware chain once; Chain(A, B)(send) runs A outermost.
func New(sender middleware.MessageSender, logger *zap.Logger, mws ...middleware.Middleware) *Relay {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Relay{
		send:   middleware.Chain(mws...)(middleware.Sender(sender)),
		logger: logger,
	}
}

// Serve pumps every source until ctx is cancelled, Shutdown is called or
// all sources close. It returns nil after Shutdown.
func (r *Relay) Serve(ctx context.Context, sources ...Source) error {
	if len(sources) == 0 {
		return errors.New("relay: no sources")
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	r.mu.Lock()
	if r.shutdown.Load() {
		r.mu.Unlock()
		return ErrShuttingDown
	}
	r.cancel = cancel
	r.mu.Unlock()

	chans := make([]<-chan Command, 0, len(sources))
	for i, src := range sources {
		ch, err := src.Commands(ctx)
		if err != nil {
			return fmt.Errorf("relay: source %d: %w", i, err)
		}
		chans = append(chans, ch)
	}

	var pumps sync.WaitGroup
	for _, ch := range chans {
		pumps.Add(1)
		go func(ch <-chan Command) {
			defer pumps.Done()
			r.pump(ctx, ch)
		}(ch)
	}
	pumps.Wait()

	if r.shutdown.Load() {
		return nil
	}
	if err := ctx.Err(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func (r *Relay) pump(ctx context.Context, ch <-chan Command) {
	for {
		select {
		case <-ctx.Done():
			r.drain(ch)
			return
		case cmd, ok := <-ch:
			if !ok {
				return
			}
			r.Dispatch(ctx, cmd)
		}
	}
}

// drain fails commands still buffered in ch so their producers are not left
// waiting on Done.
func (r *Relay) drain(ch <-chan Command) {
	for {
		select {
		case cmd, ok := <-ch:
			if !ok {
				return
			}
			cmd.finish(ErrShuttingDown)
		default:
			return
		}
	}
}

// Dispatch sends one command synchronously and reports the result to Done.
// The send outlives cancellation of ctx so an accepted command is not cut
// off halfway through a retry; bound it with middleware.Timeout instead.
func (r *Relay) Dispatch(ctx context.Context, cmd Command) error {
	r.mu.RLock()
	if r.shutdown.Load() {
		r.mu.RUnlock()
		cmd.finish(ErrShuttingDown)
		return ErrShuttingDown
	}
	r.wg.Add(1)
	r.mu.RUnlock()
	defer r.wg.Done()

	if cmd.Message == nil {
		err := errors.New("relay: command has no message")
		cmd.finish(err)
		return err
	}

	err := r.send(context.WithoutCancel(ctx), cmd.Message)
	if err != nil {
		r.failed.Add(1)
		r.logger.Warn("command failed",
			zap.String("id", cmd.ID),
			zap.String("origin", cmd.Origin),
			zap.Stringer("type", cmd.Message.Type()),
			zap.Error(err))
	} else {
		r.sent.Add(1)
	}
	cmd.finish(err)
	return err
}

// Stats reports how many commands were sent and how many failed.
func (r *Relay) Stats() (sent, failed uint64) {
	return r.sent.Load(), r.failed.Load()
}

// Shutdown stops accepting commands, cancels the sources and waits for
// in-flight sends:
//  1. Set the shutdown flag so new commands are refused
//  2. Cancel Serve's context, which stops every source
//  3. Wait for in-flight sends (with timeout)
func (r *Relay) Shutdown(timeout time.Duration) error {
	r.mu.Lock()
	r.shutdown.Store(true)
	cancel := r.cancel
	r.mu.Unlock()

	if cancel != nil {
		cancel()
	}

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-time.After(timeout):
		return fmt.Errorf("timeout waiting for in-flight commands to finish")
	}
}
