// Sbgecom talks to SBG-style inertial and GNSS units over serial, UDP or a
// recorded capture.
//
// It reads device information, changes output and settings, streams logs to
// the terminal, and bridges the log stream to NATS, Redis and WebSocket
// clients. Connection settings come from flags or from named profiles in the
// user configuration file.
//
// Usage:
//
//	sbgecom [command] [flags]
//
// See 'sbgecom --help' for available commands.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/muurk/sbgecom/internal/logging"
	"github.com/muurk/sbgecom/internal/version"
)

func main() {
	err := rootCmd.Execute()
	logging.Sync()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "sbgecom",
	Short: "SBG inertial/GNSS device communication utility",
	Long: `A command line utility for SBG-style inertial navigation and GNSS units.

Connects over a serial port, UDP (Ethernet units) or a recorded capture file
and speaks the binary frame protocol: device queries, output and settings
commands, live log streaming and bridging of logs to NATS, Redis and
WebSocket consumers.

Connection flags override the selected configuration profile.`,
	Version:       version.Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return logging.Initialize(opts.logLevel)
	},
}

func init() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	f := rootCmd.PersistentFlags()
	f.StringVar(&opts.profile, "profile", "", "Configuration profile (default: the profile marked default)")
	f.StringVar(&opts.port, "port", "", "Serial port, e.g. /dev/ttyUSB0 (selects the serial transport)")
	f.IntVar(&opts.baud, "baud", 0, "Serial baud rate (default 115200)")
	f.StringVar(&opts.udpRemote, "udp-remote", "", "Device UDP address host:port (selects the UDP transport)")
	f.StringVar(&opts.udpLocal, "udp-local", "", "Local UDP listen address, e.g. :1235")
	f.StringVar(&opts.replay, "replay", "", "Capture file to replay (selects the replay transport)")
	f.DurationVar(&opts.timeout, "timeout", 0, "Reply timeout per attempt (default 500ms)")
	f.IntVar(&opts.attempts, "attempts", 0, "Attempts per command including the first (default 3)")
	f.StringVar(&opts.logLevel, "log-level", "", "Log level (debug, info, warn, error); silent when unset")
	f.StringVar(&opts.format, "format", formatDetailed, "Output format (detailed, json)")

	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "sbgecom %s %s\n", version.Full(), version.Platform())
	},
}
