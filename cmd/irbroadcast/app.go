package main

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"iracing-broadcast/config"
	"iracing-broadcast/middleware"
)

// openSender creates the simulator client. Tests replace it.
var openSender = newClient

// app holds what every subcommand shares once flags are parsed.
type app struct {
	envFile string
	flags   config.Config

	cfg    config.Config
	logger *zap.Logger
}

func (a *app) bindFlags(cmd *cobra.Command) {
	f := cmd.PersistentFlags()
	f.StringVar(&a.envFile, "env-file", "", "load settings from this file instead of ./.env")
	f.StringVar(&a.flags.WindowClass, "class", "", "simulator window class")
	f.StringVar(&a.flags.WindowTitle, "title", "", "simulator window title (empty matches any)")
	f.BoolVar(&a.flags.Broadcast, "broadcast", false, "deliver to every top-level window")
	f.IntVar(&a.flags.MaxRetries, "retries", 0, "retries when the simulator is not running or busy")
	f.StringVar(&a.flags.LogLevel, "log-level", "", "debug, info, warn or error")
}

func (a *app) init(cmd *cobra.Command) error {
	var (
		cfg config.Config
		err error
	)
	if a.envFile != "" {
		cfg, err = config.Load(a.envFile)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return err
	}

	f := cmd.Flags()
	if f.Changed("class") {
		cfg.WindowClass = a.flags.WindowClass
	}
	if f.Changed("title") {
		cfg.WindowTitle = a.flags.WindowTitle
	}
	if f.Changed("broadcast") {
		cfg.Broadcast = a.flags.Broadcast
	}
	if f.Changed("retries") {
		cfg.MaxRetries = a.flags.MaxRetries
	}
	if f.Changed("log-level") {
		cfg.LogLevel = a.flags.LogLevel
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, err := config.NewLogger(cfg)
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.logger = logger
	return nil
}

func (a *app) close() {
	if a.logger != nil {
		_ = a.logger.Sync()
	}
}

// middlewares builds the send chain from the configuration. reg may be nil
// to skip metrics.
//
// Order: logging, metrics, tracing, timeout, rate limit, retry. Retries
// do not consume rate limit tokens and the timeout covers every attempt.
func (a *app) middlewares(reg prometheus.Registerer) []middleware.Middleware {
	mws := []middleware.Middleware{middleware.Logging(a.logger)}
	if reg != nil {
		mws = append(mws, middleware.Metrics(middleware.WithRegistry(reg)))
	}
	mws = append(mws, middleware.Tracing())
	if a.cfg.SendTimeout > 0 {
		mws = append(mws, middleware.Timeout(a.cfg.SendTimeout))
	}
	if a.cfg.RateLimit > 0 {
		mws = append(mws, middleware.RateLimit(a.cfg.RateLimit, a.cfg.Burst))
	}
	if a.cfg.MaxRetries > 0 {
		mws = append(mws, middleware.Retry(a.cfg.MaxRetries, a.cfg.RetryDelay, a.logger))
	}
	return mws
}
