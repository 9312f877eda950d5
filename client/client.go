// Package client delivers broadcast messages to the running simulator.
//
// A Client resolves the broadcast message id once, at construction. Each
// SendMessage call then looks the simulator window up again, since the
// simulator may start, stop or recreate its window between sends:
//
//	New ──RegisterMessage──► Ready ──SendMessage──► Encode ─► FindWindow ─► Send
//	 │                         ▲                                              │
//	 └─ RegistrationFailed     └──────────────── nil / typed error ───────────┘
//
// A Client is immutable after construction and safe for concurrent use. It
// never retries and never logs; see package middleware for both.
package client

import (
	"errors"
	"strings"

	"iracing-broadcast/broadcasterr"
	"iracing-broadcast/message"
	"iracing-broadcast/protocol"
	"iracing-broadcast/transport"
)

// Client sends broadcast messages through a Transport.
type Client struct {
	transport transport.Transport
	messageID uint32 // Resolved once in NewWithTransport, read-only afterwards
	class     string // Target window class
	title     string // Target window title, empty matches any
	broadcast bool   // Deliver to HWND_BROADCAST once the target is found
}

// Option configures a Client.
type Option func(*Client)

// WithWindow overrides the target window identification.
func WithWindow(class, title string) Option {
	return func(c *Client) {
		c.class = class
		c.title = title
	}
}

// WithBroadcast delivers messages to every top-level window, the way the
// vendor SDK does. The simulator window must still exist at send time.
func WithBroadcast() Option {
	return func(c *Client) {
		c.broadcast = true
	}
}

// NewWithTransport creates a client over t and registers the broadcast
// message name. It fails with RegistrationFailed if t cannot supply an id.
func NewWithTransport(t transport.Transport, opts ...Option) (*Client, error) {
	c := &Client{
		transport: t,
		class:     protocol.DefaultWindowClass,
		title:     protocol.DefaultWindowTitle,
	}
	for _, opt := range opts {
		opt(c)
	}
	if strings.ContainsRune(c.class, 0) {
		return nil, broadcasterr.Invalid("NewWithTransport", "class", "contains NUL")
	}
	if strings.ContainsRune(c.title, 0) {
		return nil, broadcasterr.Invalid("NewWithTransport", "title", "contains NUL")
	}

	id, err := t.RegisterMessage(protocol.BroadcastMessageName)
	if err != nil {
		return nil, broadcasterr.Registration(protocol.BroadcastMessageName, err)
	}
	if id == 0 {
		return nil, broadcasterr.Registration(protocol.BroadcastMessageName, nil)
	}
	c.messageID = id
	return c, nil
}

// MessageID returns the registered broadcast message id.
func (c *Client) MessageID() uint32 {
	return c.messageID
}

// SendMessage encodes msg and posts it to the simulator window. A nil
// error means the OS accepted the message, not that the simulator acted on
// it.
func (c *Client) SendMessage(msg message.BroadcastMessage) error {
	if msg == nil {
		return broadcasterr.Invalid("SendMessage", "msg", "nil message")
	}
	words := message.Encode(msg)

	w, err := c.transport.FindWindow(c.class, c.title)
	if err != nil {
		if errors.Is(err, transport.ErrWindowNotFound) {
			return broadcasterr.NotFound(c.class, c.title, nil)
		}
		// The lookup itself failed; the window may well exist.
		e := broadcasterr.Invalid("FindWindow", "window", "lookup of %q failed", c.class)
		e.Err = err
		return e
	}
	if c.broadcast {
		w = transport.Broadcast
	}

	if err := c.transport.Send(w, c.messageID, words); err != nil {
		return broadcasterr.Delivery(err)
	}
	return nil
}
