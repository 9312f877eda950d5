package relay

import (
	"context"
	"errors"
)

// ErrOutcomeUnknown reports that the relay took the command but its send
// had not finished when the caller stopped waiting. The send still runs,
// so the command must not be submitted again.
var ErrOutcomeUnknown = errors.New("command accepted, outcome unknown")

// ChanSource adapts a channel owned by the caller.
type ChanSource <-chan Command

func (s ChanSource) Commands(ctx context.Context) (<-chan Command, error) {
	return s, nil
}

// Submit blocks until the relay reports the result of cmd or ctx is done.
// It is the synchronous path used by request/response ingress.
//
// A ctx that ends before the relay takes cmd returns ctx.Err(); nothing was
// sent. Once taken, ending ctx returns ErrOutcomeUnknown.
func Submit(ctx context.Context, ch chan<- Command, cmd Command) error {
	result := make(chan error, 1)
	cmd.Done = func(err error) { result <- err }

	select {
	case ch <- cmd:
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case err := <-result:
		return err
	case <-ctx.Done():
		// The send may have just finished.
		select {
		case err := <-result:
			return err
		default:
			return ErrOutcomeUnknown
		}
	}
}
