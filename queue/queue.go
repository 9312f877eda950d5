// Package queue carries broadcast commands between processes through etcd.
//
// A producer anywhere on the network writes a command; the relay on the
// simulator host consumes it and deletes the key once the send is done:
//
//	Key:   {prefix}{uuid}
//	Value: JSON command, as produced by codec.JSONCodec
//
// Keys are consumed in creation order. Delivery is at most once: the key is
// removed whatever the send result, and failures are logged by the relay.
package queue

import (
	"context"

	"iracing-broadcast/message"
	"iracing-broadcast/relay"
)

const DefaultPrefix = "/iracing-broadcast/commands/"

type Queue interface {
	// Enqueue stores msg and returns its command id.
	Enqueue(ctx context.Context, msg message.BroadcastMessage) (string, error)
	// Commands yields pending commands followed by new ones until ctx is done.
	Commands(ctx context.Context) (<-chan relay.Command, error)
	// Pending returns the ids of commands not yet consumed.
	Pending(ctx context.Context) ([]string, error)
	Close() error
}
