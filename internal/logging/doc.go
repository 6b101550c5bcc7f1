// Package logging provides structured logging for AirCast.
//
// This package wraps the zap logger with convenience functions for the
// logging patterns used throughout the sender and receiver tools. By
// default logging is silent so CLI output stays clean; set the
// AIRCAST_LOG_LEVEL environment variable (or initialize explicitly) to
// enable it.
//
// # Log Levels
//
//   - Debug: hex dumps, per-packet detail, discovery event noise
//   - Info: normal operations (announcements, resolved receivers, stream start/stop)
//   - Warn: non-fatal issues (decode errors, dropped resolutions)
//   - Error: startup failures, search failures
//
// # Structured Logging
//
// All log functions use structured fields for queryability:
//
//	logging.Info("Receiver discovered",
//	    zap.String("name", "Living Room"),
//	    zap.String("addr", "192.168.1.20:7000"),
//	)
//
// # Specialized Logging
//
// Domain-specific helpers:
//
//	logging.LogPacket("sent", packet)
//	logging.LogRawBytes("datagram", buf)
//
// # Configuration
//
//	if err := logging.Initialize("debug"); err != nil {
//	    log.Fatal(err)
//	}
//	defer logging.Sync()
//
// # Thread Safety
//
// All logging functions are safe for concurrent use.
package logging
