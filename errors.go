package jediterm

import "errors"

// ErrStreamEnded signals that a TerminalDataStream has no more bytes to
// offer and its underlying source is closed; Emulator.Next returns it
// as is, so callers can distinguish it from a transient read error with
// errors.Is.
var ErrStreamEnded = errors.New("jediterm: terminal data stream ended")

// ErrIOFailed wraps a read or write failure against a TtyConnector.
var ErrIOFailed = errors.New("jediterm: tty io failed")

// ErrInvariantViolated marks a defensive check failing inside the screen
// model (e.g. a cursor position escaping its clamped bounds); it indicates
// a bug in this package rather than malformed input, and is never expected
// to surface in normal operation.
var ErrInvariantViolated = errors.New("jediterm: invariant violated")

// ErrParseIgnored is never returned to a caller; it exists so parser code
// paths that intentionally discard a malformed or unsupported sequence can
// be grepped for and documented in one place. Those paths discard the
// sequence and continue, some of them with a debug-level log message; the
// value itself is never logged or returned.
var ErrParseIgnored = errors.New("jediterm: sequence ignored")
