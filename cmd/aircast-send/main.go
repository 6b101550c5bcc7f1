// Aircast-send is the sender-side utility for AirCast audio receivers.
//
// It discovers receivers on the local network via mDNS/DNS-SD, lets the
// user pick one interactively, and streams raw audio from a file to the
// chosen receiver over UDP.
//
// Usage:
//
//	aircast-send [command] [flags]
//
// Running without arguments launches the interactive picker.
// See 'aircast-send --help' for available commands.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/muurk/aircast/internal/logging"
	"github.com/muurk/aircast/internal/version"
)

func main() {
	if err := logging.InitializeFromEnv(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to initialize logging: %v\n", err)
	}
	defer logging.Sync()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "aircast-send",
	Short: "AirCast Sender Utility",
	Long: `A command-line sender for AirCast audio receivers.

Discovers receivers advertising themselves on the local network, and
streams audio to a chosen receiver over UDP.

If no command is specified, the interactive picker will launch automatically.`,
	Version: version.Version,
	RunE: func(cmd *cobra.Command, args []string) error {
		// Default behavior: run picker when no subcommand provided
		return runPick(cmd, args)
	},
}

func init() {
	// Disable automatic completion command generation
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("aircast-send %s (commit: %s)\n", version.Version, version.Commit)
	},
}
