//go:build !windows

package main

import (
	"errors"

	"iracing-broadcast/config"
	"iracing-broadcast/middleware"
)

var errUnsupportedPlatform = errors.New("sending to the simulator requires Windows; use enqueue to hand commands to a relay")

func newClient(cfg config.Config) (middleware.MessageSender, error) {
	return nil, errUnsupportedPlatform
}
