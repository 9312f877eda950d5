// Command irbroadcast sends broadcast commands to a running iRacing
// simulator, queues them in etcd, or relays them from etcd and HTTP.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:   "irbroadcast",
		Short: "Send broadcast commands to the iRacing simulator",
		Long: `irbroadcast controls a running iRacing simulator through its broadcast
window message: camera switching, replay control, pit commands, chat
macros, telemetry recording and video capture.

Settings come from IRBROADCAST_* environment variables, an optional .env
file, and the flags below, in increasing order of precedence.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			a.close()
		},
	}
	a.bindFlags(rootCmd)

	rootCmd.AddCommand(
		sendCmd(a),
		typesCmd(),
		enqueueCmd(a),
		relayCmd(a),
		versionCmd(),
	)
	return rootCmd
}
