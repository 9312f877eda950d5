package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"iracing-broadcast/codec"
	"iracing-broadcast/message"
	"iracing-broadcast/middleware"
)

func sendCmd(a *app) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "send <type> [args...]",
		Short: "Send one command to the simulator",
		Long: `Send one command to the running simulator.

Examples:
  irbroadcast send pit fuel 40
  irbroadcast send camera-number 064 1 2
  irbroadcast send replay-search next-incident
  irbroadcast send --json '{"type":"chat","mode":"macro","macro":3}'

Run "irbroadcast types" for every command and its arguments.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			msg, err := parseCommand(args, asJSON)
			if err != nil {
				return err
			}

			sender, err := openSender(a.cfg)
			if err != nil {
				return err
			}
			send := middleware.Chain(a.middlewares(nil)...)(middleware.Sender(sender))
			if err := send(cmd.Context(), msg); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "sent %s\n", message.Encode(msg))
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "read the command as one JSON document")
	return cmd
}

func parseCommand(args []string, asJSON bool) (message.BroadcastMessage, error) {
	if asJSON {
		if len(args) != 1 {
			return nil, fmt.Errorf("--json takes exactly one argument, got %d", len(args))
		}
		return codec.GetCodec(codec.CodecTypeJSON).Decode([]byte(args[0]))
	}
	return codec.ParseArgs(args)
}
