package jediterm

import (
	"io"
	"log/slog"
)

// nopLogger is installed whenever a caller constructs a component without
// supplying a *slog.Logger, so every log call site in this package can
// assume a non-nil logger rather than nil-checking on every use.
func nopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func orNopLogger(l *slog.Logger) *slog.Logger {
	if l == nil {
		return nopLogger()
	}
	return l
}
