// Package config provides user configuration management for AirCast.
//
// This package manages a YAML-based configuration file that caches
// metadata for receivers discovered on the local network (last address,
// port, codecs, nickname) and stores sender preferences such as the
// scan timeout and preferred codec. The cache lets the sender skip a
// full discovery scan when a previously seen receiver still answers at
// its last address.
//
// # Configuration File Location
//
// The configuration file is stored in platform-appropriate locations:
//   - Linux: $XDG_CONFIG_HOME/aircast/config.yaml or $HOME/.config/aircast/config.yaml
//   - macOS: $HOME/.config/aircast/config.yaml
//   - Windows: %LOCALAPPDATA%\aircast\config.yaml
//
// # Usage Example
//
//	registry, err := config.LoadRegistry()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	registry.UpdateReceiverLastSeen("Living Room", "192.168.1.20", 7000)
//	if err := registry.Save(); err != nil {
//	    log.Fatal(err)
//	}
//
// Saves are atomic (temp file plus rename) so a crash can't corrupt the
// registry.
package config
