package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"iracing-broadcast/config"
	"iracing-broadcast/ingress"
	"iracing-broadcast/queue"
	"iracing-broadcast/relay"
)

const shutdownTimeout = 5 * time.Second

func relayCmd(a *app) *cobra.Command {
	var listen string

	cmd := &cobra.Command{
		Use:   "relay",
		Short: "Send commands from etcd and HTTP to the simulator",
		Long: `Run on the simulator host. Commands are read from the etcd queue when
IRBROADCAST_ETCD_ENDPOINTS is set, and accepted over HTTP and WebSocket when
a listen address is given. Stops on SIGINT or SIGTERM.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("listen") {
				a.cfg.ListenAddr = listen
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return a.runRelay(ctx)
		},
	}

	cmd.Flags().StringVar(&listen, "listen", "", "HTTP listen address, e.g. :8080")
	return cmd
}

func (a *app) runRelay(ctx context.Context) error {
	if len(a.cfg.EtcdEndpoints) == 0 && a.cfg.ListenAddr == "" {
		return errors.New("nothing to relay: set IRBROADCAST_ETCD_ENDPOINTS or --listen")
	}

	sender, err := openSender(a.cfg)
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	rl := relay.New(sender, a.logger, a.middlewares(reg)...)

	var sources []relay.Source
	if len(a.cfg.EtcdEndpoints) > 0 {
		q, err := queue.NewEtcdQueue(a.cfg.EtcdEndpoints, a.cfg.QueuePrefix, a.logger)
		if err != nil {
			return err
		}
		defer q.Close()
		sources = append(sources, q)
	}

	var in *ingress.Server
	if a.cfg.ListenAddr != "" {
		in = ingress.New(a.logger,
			ingress.WithGatherer(reg),
			ingress.WithRequestTimeout(requestTimeout(a.cfg)))
		sources = append(sources, in)
	}

	// Either worker returning ends the relay; the first error wins.
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	errc := make(chan error, 2)
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		defer cancel()
		errc <- rl.Serve(ctx, sources...)
	}()
	if in != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer cancel()
			errc <- in.ListenAndServe(a.cfg.ListenAddr)
		}()
	}

	a.logger.Info("relay started",
		zap.Strings("etcd", a.cfg.EtcdEndpoints),
		zap.String("listen", a.cfg.ListenAddr))
	<-ctx.Done()
	a.logger.Info("relay stopping")

	sctx, scancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer scancel()
	if in != nil {
		if err := in.Shutdown(sctx); err != nil {
			a.logger.Warn("ingress shutdown", zap.Error(err))
		}
	}
	shutdownErr := rl.Shutdown(shutdownTimeout)
	wg.Wait()
	close(errc)

	for e := range errc {
		if e != nil && !errors.Is(e, relay.ErrShuttingDown) {
			err = e
			break
		}
	}
	if err == nil {
		err = shutdownErr
	}

	sent, failed := rl.Stats()
	a.logger.Info("relay stopped", zap.Uint64("sent", sent), zap.Uint64("failed", failed))
	return err
}

// requestTimeout lets an ingress request outlive the slowest send the
// middleware chain allows, plus time queued behind another command.
func requestTimeout(cfg config.Config) time.Duration {
	return max(30*time.Second, 2*cfg.SendBudget())
}
