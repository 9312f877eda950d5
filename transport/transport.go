// Package transport is the operating-system side of the broadcast client.
//
// The client needs three capabilities from the host's window messaging:
//
//	RegisterMessage ── once per client ──► message id
//	FindWindow      ── every send ───────► target window (or ErrWindowNotFound)
//	Send            ── every send ───────► (window, message id, word A, word B)
//
// NewUser32 implements them on Windows. Everything above this package is
// portable and is tested against transporttest.Fake.
package transport

import (
	"errors"

	"iracing-broadcast/protocol"
)

// ErrWindowNotFound is returned by FindWindow when no window matches.
var ErrWindowNotFound = errors.New("transport: window not found")

// Window is a window handle. It is only valid for the send that found it.
type Window uintptr

// Broadcast addresses every top-level window.
const Broadcast = Window(protocol.HWNDBroadcast)

// Transport delivers registered window messages.
// Implementations must be safe for concurrent use.
type Transport interface {
	// RegisterMessage returns the system-wide id for a message name.
	// The same name yields the same id for the lifetime of the session.
	RegisterMessage(name string) (uint32, error)

	// FindWindow returns the top-level window with the given class and
	// title. An empty title matches any title.
	FindWindow(class, title string) (Window, error)

	// Send posts the message without waiting for the receiver to process it.
	Send(w Window, messageID uint32, words protocol.Words) error
}
