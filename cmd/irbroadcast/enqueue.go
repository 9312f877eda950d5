package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"iracing-broadcast/queue"
)

func enqueueCmd(a *app) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "enqueue <type> [args...]",
		Short: "Queue one command in etcd for a relay to send",
		Long: `Queue one command under IRBROADCAST_QUEUE_PREFIX in the etcd cluster named
by IRBROADCAST_ETCD_ENDPOINTS. A relay on the simulator host sends it.
Works on any platform.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			msg, err := parseCommand(args, asJSON)
			if err != nil {
				return err
			}
			if len(a.cfg.EtcdEndpoints) == 0 {
				return errors.New("IRBROADCAST_ETCD_ENDPOINTS is not set")
			}

			q, err := queue.NewEtcdQueue(a.cfg.EtcdEndpoints, a.cfg.QueuePrefix, a.logger)
			if err != nil {
				return err
			}
			defer q.Close()

			id, err := q.Enqueue(cmd.Context(), msg)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), id)
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "read the command as one JSON document")
	return cmd
}
