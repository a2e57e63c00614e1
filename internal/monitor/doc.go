// Package monitor is the live log dashboard behind "sbgecom monitor".
//
// A Model is a Bubble Tea model fed with LogMsg values. Run wires it to an
// ecom.Handle: a single goroutine polls the handle and forwards every log it
// dispatches to the program with Program.Send, so the handle itself is never
// touched from the UI goroutine.
//
// The dashboard shows a spinner until the first log arrives, then a table of
// per-message counts and rates, the latest attitude and status, and the
// decoder counters. q or ctrl+c quits.
package monitor
