// Aircast-recv is the receiver-side daemon for AirCast audio streaming.
//
// It advertises itself on the local network via mDNS/DNS-SD, accepts
// audio packets over UDP, and optionally exposes an HTTP/WebSocket
// monitor endpoint for status and discovery events.
//
// Usage:
//
//	aircast-recv serve [flags]
//
// See 'aircast-recv serve --help' for available options.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/muurk/aircast/internal/discovery"
	"github.com/muurk/aircast/internal/logging"
	"github.com/muurk/aircast/internal/server"
	"github.com/muurk/aircast/internal/transport"
	"github.com/muurk/aircast/internal/version"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "aircast-recv",
	Short: "AirCast Receiver Daemon",
	Long: `A standalone receiver daemon for AirCast audio streaming.

Advertises itself on the local network so senders can find it, and
accepts audio packets over UDP. An optional monitor endpoint serves
status JSON and a live event stream over WebSocket.

Note: For sending audio, use the separate 'aircast-send' utility.`,
	Version: version.Version,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(versionCmd)
}

// Serve command and flags
var (
	receiverName string
	dataPort     int
	monitorAddr  string
	logLevel     string
	codecList    string
	channelCount int
	rateList     string
	featureList  string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the receiver",
	Long: `Start the AirCast receiver.

The receiver binds a UDP port for audio data, announces itself via
mDNS with a capability record describing its codecs, channel count,
and sample rates, then runs until interrupted.

With --monitor, an HTTP endpoint is started alongside: GET /status
returns receiver statistics and the current view of other receivers on
the network, and /events streams discovery events over WebSocket.`,
	Example: `  # Start with defaults (announced as the machine hostname)
  aircast-recv serve

  # Announce under a friendly name on a custom port
  aircast-recv serve --name "Living Room" --port 7010

  # Enable the monitor endpoint and verbose logging
  aircast-recv serve --monitor :8080 --log-level debug

  # Announce AAC-only support at 48 kHz
  aircast-recv serve --codecs AAC --rates 48000`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&receiverName, "name", "", "Announced receiver name (default: hostname)")
	serveCmd.Flags().IntVar(&dataPort, "port", discovery.DefaultPort, "UDP data port")
	serveCmd.Flags().StringVar(&monitorAddr, "monitor", "", "Monitor HTTP listen address (disabled if not specified)")
	serveCmd.Flags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	serveCmd.Flags().StringVar(&codecList, "codecs", "PCM,AAC", "Comma-separated codec names to announce")
	serveCmd.Flags().IntVar(&channelCount, "channels", 2, "Announced channel count")
	serveCmd.Flags().StringVar(&rateList, "rates", "44100,48000", "Comma-separated sample rates to announce")
	serveCmd.Flags().StringVar(&featureList, "features", "", "Comma-separated feature tags to announce")
}

func runServe(cmd *cobra.Command, args []string) error {
	if err := logging.Initialize(logLevel); err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	defer logging.Sync()

	name := receiverName
	if name == "" {
		hostname, err := os.Hostname()
		if err != nil {
			return fmt.Errorf("failed to determine hostname (use --name): %w", err)
		}
		name = hostname
	}

	// Bind the data port first so the announcement never points at a
	// port we failed to claim.
	receiver, err := transport.Listen(dataPort)
	if err != nil {
		return fmt.Errorf("failed to bind UDP port %d: %w", dataPort, err)
	}
	defer receiver.Close()
	receiver.Start()

	record := capabilityRecordFromFlags()
	advertiser := discovery.NewAdvertiser()
	if err := advertiser.Start(name, receiver.LocalPort(), record); err != nil {
		return fmt.Errorf("failed to announce receiver: %w", err)
	}
	defer advertiser.Stop()

	fmt.Printf("AirCast receiver %q listening on UDP port %d\n", name, receiver.LocalPort())

	var monitor *server.Monitor
	var browser *discovery.Browser
	if monitorAddr != "" {
		browser = discovery.NewBrowser()
		monitor = server.New(server.Config{Addr: monitorAddr}, browser, receiver)
		browser.OnEvent(monitor.HandleEvent)

		if err := browser.Start(); err != nil {
			logging.Warn("network browse unavailable", zap.Error(err))
		}
		if err := monitor.Start(); err != nil {
			browser.Stop()
			return fmt.Errorf("failed to start monitor: %w", err)
		}
		fmt.Printf("Monitor available at http://%s/status\n", monitor.Addr())
	}

	fmt.Println("Press Ctrl+C to stop.")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	fmt.Println("\nShutting down...")
	if monitor != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := monitor.Shutdown(shutdownCtx); err != nil {
			logging.Warn("monitor shutdown failed", zap.Error(err))
		}
		browser.Stop()
	}

	stats := receiver.Stats()
	fmt.Printf("Received %d packets, %d bytes (%d decode errors).\n",
		stats.Packets, stats.Bytes, stats.DecodeErrors)
	return nil
}

// capabilityRecordFromFlags builds the announced capability record.
func capabilityRecordFromFlags() discovery.CapabilityRecord {
	record := discovery.CapabilityRecord{
		discovery.KeyCodecs:     splitList(codecList),
		discovery.KeyChannels:   {fmt.Sprintf("%d", channelCount)},
		discovery.KeySampleRate: splitList(rateList),
	}
	if features := splitList(featureList); len(features) > 0 {
		record[discovery.KeyFeatures] = features
	}
	return record
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("aircast-recv %s (commit: %s)\n", version.Version, version.Commit)
	},
}
