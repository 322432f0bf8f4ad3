package jediterm

import (
	"log/slog"
	"time"
)

// Config collects every tunable this core exposes, mirroring the
// teacher's pattern of a single options struct threaded through
// construction rather than a pile of constructor parameters.
type Config struct {
	// Cols and Rows size the initial screen; both must be positive.
	Cols, Rows int

	// ScrollbackLines bounds the primary screen's history; 0 disables
	// scrollback entirely.
	ScrollbackLines int

	// TypeAhead tunes the type-ahead manager's latency threshold, penalty
	// window, and prediction timeout.
	TypeAhead TypeAheadConfig

	// PrimaryScreenResizeDebounce and AltScreenResizeDebounce override the
	// delay TerminalStarter waits before forwarding a resize to the PTY;
	// zero keeps the built-in defaults (500ms / 100ms).
	PrimaryScreenResizeDebounce, AltScreenResizeDebounce time.Duration

	// Logger receives structured log events from every component; nil
	// uses a no-op logger.
	Logger *slog.Logger
}

// DefaultConfig returns a Config sized for an 80x24 screen with 1000
// lines of scrollback and the recommended type-ahead thresholds.
func DefaultConfig() Config {
	return Config{
		Cols:            80,
		Rows:            24,
		ScrollbackLines: 1000,
		TypeAhead:       DefaultTypeAheadConfig(),
	}
}

// NewTerminal constructs the full pipeline — buffer, JediTerminal,
// Emulator, TypeAheadManager, ExecutorServiceManager, and TerminalStarter
// — reading from connector and sized per cfg, and returns the starter
// along with the pieces a presentation layer needs direct access to.
// Start() must be called on the returned starter to begin reading.
func NewTerminal(cfg Config, connector TtyConnector) (*TerminalStarter, *JediTerminal, *TerminalTextBuffer) {
	log := orNopLogger(cfg.Logger)
	buf := NewTerminalTextBuffer(cfg.Cols, cfg.Rows, cfg.ScrollbackLines, log)
	term := NewJediTerminal(buf, cfg.Cols, cfg.Rows, log)
	stream := NewTerminalDataStream(connector)
	emu := NewEmulator(stream, term, log)
	typeAhead := NewTypeAheadManager(cfg.TypeAhead, log)
	term.SetTypeAheadManager(typeAhead)
	executor := NewExecutorServiceManager()
	starter := NewTerminalStarter(term, connector, emu, typeAhead, executor, log)
	starter.SetResizeDebounce(cfg.PrimaryScreenResizeDebounce, cfg.AltScreenResizeDebounce)
	return starter, term, buf
}
