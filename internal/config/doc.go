// Package config manages the sbgecom configuration file.
//
// The file holds named device profiles (how to reach a unit: serial port,
// UDP endpoint or capture file, plus timeout and attempt overrides) and the
// telemetry bridge settings. It follows OS-specific conventions for its
// location:
//   - Linux: $XDG_CONFIG_HOME/sbgecom/config.yaml or $HOME/.config/sbgecom/config.yaml
//   - macOS: $HOME/.config/sbgecom/config.yaml
//   - Windows: %LOCALAPPDATA%\sbgecom\config.yaml
//
// # Example
//
//	version: 1
//	default_profile: ekinox
//	profiles:
//	  ekinox:
//	    transport: serial
//	    port: /dev/ttyUSB0
//	    baud_rate: 921600
//	    timeout: 1s
//	bridge:
//	  device: ekinox
//	  nats_url: nats://localhost:4222
//	  encoding: cbor
//
// Broker endpoints can be overridden with SBGECOM_NATS_URL,
// SBGECOM_REDIS_ADDR and SBGECOM_REDIS_DB (see Registry.ApplyEnv).
//
// # Thread Safety
//
// The global registry uses sync.Once for safe initialization across goroutines.
// File writes are serialized by a mutex and replace the file atomically.
package config
