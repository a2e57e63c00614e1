// Package ui renders the styled terminal output of the sbgecom CLI.
//
// Commands print a Header describing the connection they are about to use,
// do their work, then print a Result box. Results carry ordered key/value
// details on success and the error plus troubleshooting tips on failure.
// Table renders the per-field dumps used by the features and info commands.
//
// Output goes through a Printer so commands can be pointed at a buffer in
// tests. Logging stays silent unless SBGECOM_LOG_LEVEL is set, which keeps
// zap output from interleaving with the boxes drawn here.
package ui
