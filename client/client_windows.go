//go:build windows

package client

import (
	"iracing-broadcast/transport"
)

// New creates a client delivering through user32.dll.
func New(opts ...Option) (*Client, error) {
	return NewWithTransport(transport.NewUser32(), opts...)
}
