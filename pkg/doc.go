// Package pkg provides the ambient stack shared by every layer of the
// control surface.
//
// This package contains common functionality used across the codec,
// transport, hub, multiplexer, client, discovery, manager, bridge, and
// gateway packages, including:
//
//   - Structured logging via Go's standard [log/slog] package
//   - Sentinel error types for the codec, transport, and device-manager
//     layers
//   - Component identifiers for log filtering
//
// The package is designed to have zero external dependencies, relying
// only on the Go standard library.
//
// # Logging
//
// The logging subsystem wraps [log/slog] with per-component context:
//
//	pkg.SetLogLevel(slog.LevelDebug)
//	pkg.LogInfo(pkg.ComponentClient, "device configured", "config", 1)
//
// # Errors
//
// Common errors are defined as sentinel values:
//
//	if errors.Is(err, pkg.ErrTransportClosed) {
//	    // Handle a lost device connection
//	}
package pkg
