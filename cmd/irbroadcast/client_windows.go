//go:build windows

package main

import (
	"iracing-broadcast/client"
	"iracing-broadcast/config"
	"iracing-broadcast/middleware"
)

func newClient(cfg config.Config) (middleware.MessageSender, error) {
	opts := []client.Option{client.WithWindow(cfg.WindowClass, cfg.WindowTitle)}
	if cfg.Broadcast {
		opts = append(opts, client.WithBroadcast())
	}
	return client.New(opts...)
}
