// Package logging provides structured logging for sbgecom.
//
// A single package-level zap logger is shared by the library and the CLI. It
// is silent until Initialize is called with a level or SBGECOM_LOG_LEVEL is
// set, so library users never get unexpected output.
//
// # Log Levels
//
//   - Debug: frame dumps, dropped frames, resynchronization
//   - Info: connections, command results, bridge activity
//   - Warn: retries, timeouts, log consumer failures
//   - Error: transport failures, startup failures
//
// # Structured Logging
//
//	logging.Info("Command acknowledged",
//	    zap.Stringer("message", id),
//	    zap.Int("attempt", 2),
//	)
//
// Frames are logged with LogFrame, which only renders the hex dump when debug
// output is enabled:
//
//	logging.LogFrame("tx", id, payload)
//
// # Output Format
//
// Logs are written to stderr in console format so that command output on
// stdout stays machine readable:
//
//	2026-03-02T10:30:45.123+0100  DEBUG  Frame  {"direction": "rx", "message": "LOG_0/EKF_EULER", "length": 32}
package logging
