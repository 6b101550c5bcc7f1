package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/muurk/aircast/internal/config"
	"github.com/muurk/aircast/internal/discovery"
	"github.com/muurk/aircast/internal/transport"
	"github.com/muurk/aircast/internal/ui"
	"github.com/muurk/aircast/internal/wire"
)

// Command flags
var (
	scanTimeout int
	jsonOutput  bool

	targetAddr   string
	codecName    string
	sampleRate   int
	channelCount int
	chunkSize    int
	sendInterval time.Duration
	volumeLevel  int
	syncEvery    int
)

func init() {
	rootCmd.AddCommand(discoverCmd)
	rootCmd.AddCommand(sendCmd)
	rootCmd.AddCommand(pickCmd)
}

// discoverCmd scans for receivers on the network
var discoverCmd = &cobra.Command{
	Use:   "discover",
	Short: "Discover AirCast receivers on the network",
	Long: `Discover AirCast receivers using mDNS/DNS-SD.

This command browses for receiver announcements, resolves each one to an
address and capability set, and displays the results. Discovered
receivers are also cached in the local registry so 'send' can reuse
their addresses.`,
	Example: `  # Scan for 10 seconds (default)
  aircast-send discover

  # Quick 3-second scan
  aircast-send discover --timeout 3

  # JSON output for scripting
  aircast-send discover --json`,
	RunE: runDiscover,
}

func init() {
	discoverCmd.Flags().IntVar(&scanTimeout, "timeout", 10, "Scan timeout in seconds")
	discoverCmd.Flags().BoolVar(&jsonOutput, "json", false, "Output results as JSON")
}

func runDiscover(cmd *cobra.Command, args []string) error {
	if !jsonOutput {
		fmt.Printf("Scanning for AirCast receivers (timeout: %ds)...\n\n", scanTimeout)
	}

	devices, err := scanForReceivers(time.Duration(scanTimeout) * time.Second)
	if err != nil {
		return fmt.Errorf("scan failed: %w", err)
	}

	cacheReceivers(devices)

	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(devices)
	}

	if len(devices) == 0 {
		fmt.Println("No receivers found.")
		fmt.Println("\nTroubleshooting:")
		fmt.Println("  - Ensure the receiver is running ('aircast-recv' on the target machine)")
		fmt.Println("  - Check that both machines are on the same network segment")
		fmt.Println("  - Try increasing --timeout for slower networks")
		fmt.Println("  - Use 'send --target <host:port>' to skip discovery entirely")
		return nil
	}

	fmt.Printf("Found %d receiver(s):\n\n", len(devices))
	for i, d := range devices {
		fmt.Printf("%d. %s\n", i+1, d.Name)
		fmt.Printf("   Address:  %s\n", d.Addr())
		fmt.Printf("   Host:     %s\n", d.Hostname)
		if len(d.Codecs) > 0 {
			fmt.Printf("   Codecs:   %s\n", strings.Join(d.Codecs, ", "))
		}
		fmt.Printf("   Channels: %d\n", d.Channels)
		if len(d.SampleRates) > 0 {
			rates := make([]string, len(d.SampleRates))
			for j, r := range d.SampleRates {
				rates[j] = fmt.Sprintf("%d", r)
			}
			fmt.Printf("   Rates:    %s Hz\n", strings.Join(rates, ", "))
		}
		fmt.Println()
	}

	fmt.Println("Use 'aircast-send send <file> <name>' to stream to a receiver")
	return nil
}

// sendCmd streams an audio file to a receiver
var sendCmd = &cobra.Command{
	Use:   "send <file> [receiver-name]",
	Short: "Stream an audio file to a receiver",
	Long: `Stream raw audio from a file to an AirCast receiver over UDP.

The receiver may be named explicitly, in which case its address is
resolved via discovery (falling back to the cached registry), or given
directly with --target. With neither, the interactive picker launches.

The file is read in fixed-size chunks and sent at a steady rate; the
stream ends with an end-of-stream control packet so the receiver can
tear down cleanly.`,
	Example: `  # Pick a receiver interactively
  aircast-send send track.pcm

  # Stream to a named receiver
  aircast-send send track.pcm "Living Room"

  # Stream straight to an address, AAC at 48 kHz
  aircast-send send track.aac --target 192.168.1.50:7000 --codec AAC --rate 48000`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runSend,
}

func init() {
	sendCmd.Flags().StringVar(&targetAddr, "target", "", "Receiver address as host:port (skips discovery)")
	sendCmd.Flags().StringVar(&codecName, "codec", "PCM", "Payload codec (PCM, AAC, ALAC)")
	sendCmd.Flags().IntVar(&sampleRate, "rate", 44100, "Sample rate in Hz")
	sendCmd.Flags().IntVar(&channelCount, "channels", 2, "Channel count")
	sendCmd.Flags().IntVar(&chunkSize, "chunk", 1408, "Payload bytes per packet")
	sendCmd.Flags().DurationVar(&sendInterval, "interval", 8*time.Millisecond, "Delay between packets")
	sendCmd.Flags().IntVar(&volumeLevel, "volume", wire.DefaultVolume, "Volume (0-100)")
	sendCmd.Flags().IntVar(&syncEvery, "sync-every", 125, "Insert a sync packet every N data packets (0 disables)")
	sendCmd.Flags().IntVar(&scanTimeout, "timeout", 10, "Discovery timeout in seconds")
}

func runSend(cmd *cobra.Command, args []string) error {
	path := args[0]

	codec, err := codecByName(codecName)
	if err != nil {
		return err
	}
	if sampleRate <= 0 || sampleRate > 65535 {
		return fmt.Errorf("sample rate out of range: %d", sampleRate)
	}
	if channelCount <= 0 || channelCount > 255 {
		return fmt.Errorf("channel count out of range: %d", channelCount)
	}

	addr := targetAddr
	if addr == "" {
		var name string
		if len(args) == 2 {
			name = args[1]
		}
		device, err := resolveReceiver(name)
		if err != nil {
			return err
		}
		if device == nil {
			// User quit the picker
			return nil
		}
		addr = device.Addr()
		if codecName != "" && !device.SupportsCodec(codecName) && len(device.Codecs) > 0 {
			fmt.Fprintf(os.Stderr, "Warning: %q does not announce codec %s (announced: %s)\n",
				device.Name, codecName, strings.Join(device.Codecs, ", "))
		}
	}

	src, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open audio file: %w", err)
	}
	defer src.Close()

	seq := wire.NewSequencer(codec, uint8(channelCount), uint16(sampleRate))
	seq.SetVolume(volumeLevel)

	sender, err := transport.Dial(addr, seq)
	if err != nil {
		return fmt.Errorf("failed to connect: %w", err)
	}
	defer sender.Close()

	fmt.Printf("Streaming %s to %s (%s, %d Hz, %dch)...\n",
		path, addr, codecName, sampleRate, channelCount)
	fmt.Println("Press Ctrl+C to stop.")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	opts := transport.StreamOptions{
		ChunkSize:        chunkSize,
		SamplesPerPacket: samplesPerChunk(codec, chunkSize, channelCount),
		Interval:         sendInterval,
		SyncEvery:        syncEvery,
	}
	streamErr := sender.Stream(ctx, src, opts)

	stats := sender.Stats()
	fmt.Printf("\nSent %d packets, %d bytes.\n", stats.Packets, stats.Bytes)

	if streamErr != nil && ctx.Err() == nil {
		return fmt.Errorf("stream failed: %w", streamErr)
	}
	return nil
}

// pickCmd runs the interactive picker and prints the selection
var pickCmd = &cobra.Command{
	Use:   "pick",
	Short: "Interactively pick a receiver",
	Long: `Launch the interactive receiver picker.

Scans the network, presents discovered receivers in a list, and prints
the address of the chosen one. Useful for piping into other tools.`,
	RunE: runPick,
}

func init() {
	pickCmd.Flags().IntVar(&scanTimeout, "timeout", 10, "Scan timeout in seconds")
}

func runPick(cmd *cobra.Command, args []string) error {
	device, err := ui.PickDevice(time.Duration(scanTimeout) * time.Second)
	if err != nil {
		return err
	}
	if device == nil {
		return nil
	}
	fmt.Println(device.Addr())
	return nil
}

// scanForReceivers runs one bounded discovery cycle.
func scanForReceivers(timeout time.Duration) ([]discovery.DeviceDescriptor, error) {
	browser := discovery.NewBrowser()
	if err := browser.Start(); err != nil {
		return nil, err
	}
	defer browser.Stop()

	time.Sleep(timeout)
	return browser.Snapshot(), nil
}

// cacheReceivers records discovered receivers in the local registry so
// later invocations can resolve names without a full scan.
func cacheReceivers(devices []discovery.DeviceDescriptor) {
	registry, err := config.LoadRegistry()
	if err != nil {
		return
	}
	for _, d := range devices {
		registry.UpdateReceiverLastSeen(d.Name, d.Address, d.Port)
		if len(d.Codecs) > 0 {
			registry.EnsureReceiver(d.Name).Codecs = d.Codecs
		}
	}
	if err := registry.Save(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to save receiver cache: %v\n", err)
	}
}

// resolveReceiver turns a receiver name into a descriptor. An empty
// name launches the interactive picker; (nil, nil) means the user quit.
func resolveReceiver(name string) (*discovery.DeviceDescriptor, error) {
	if name == "" {
		return ui.PickDevice(time.Duration(scanTimeout) * time.Second)
	}

	fmt.Printf("Looking for %q...\n", name)
	devices, err := scanForReceivers(time.Duration(scanTimeout) * time.Second)
	if err != nil {
		return nil, fmt.Errorf("scan failed: %w", err)
	}
	cacheReceivers(devices)

	for i := range devices {
		if devices[i].Name == name {
			return &devices[i], nil
		}
	}

	// Fall back to the cached registry address
	if registry, err := config.LoadRegistry(); err == nil {
		if cached := registry.GetReceiver(name); cached != nil && cached.LastAddress != "" {
			fmt.Fprintf(os.Stderr, "Receiver %q not found on the network, using cached address %s:%d\n",
				name, cached.LastAddress, cached.LastPort)
			return &discovery.DeviceDescriptor{
				Name:    name,
				Address: cached.LastAddress,
				Port:    cached.LastPort,
				Codecs:  cached.Codecs,
			}, nil
		}
	}

	return nil, fmt.Errorf("receiver %q not found", name)
}

// codecByName maps a codec flag value to its payload type.
func codecByName(name string) (uint8, error) {
	switch strings.ToUpper(name) {
	case "PCM":
		return wire.CodecPCM, nil
	case "AAC":
		return wire.CodecAAC, nil
	case "ALAC":
		return wire.CodecALAC, nil
	default:
		return 0, fmt.Errorf("unknown codec %q (expected PCM, AAC, or ALAC)", name)
	}
}

// samplesPerChunk derives the timestamp advance per packet. Only PCM
// has a fixed bytes-per-sample relationship; compressed codecs keep the
// conventional 352-sample granule.
func samplesPerChunk(codec uint8, chunk, channels int) uint32 {
	if codec == wire.CodecPCM && channels > 0 {
		frameSize := channels * 2 // 16-bit samples
		if chunk >= frameSize {
			return uint32(chunk / frameSize)
		}
	}
	return 352
}
