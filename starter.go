package jediterm

import (
	"context"
	"errors"
	"log/slog"
	"runtime/pprof"
	"sync"
	"sync/atomic"
	"time"
)

// starterState is the I/O coordinator's lifecycle, advanced in exactly
// one direction.
type starterState int32

const (
	starterNew starterState = iota
	starterRunning
	starterStopping
	starterStopped
)

// MaxConsecutiveErrors bounds how many non-disconnect errors the reader
// loop tolerates in a row before giving up and stopping the terminal. The
// loop this starter is modeled on logs a non-disconnect exception and
// keeps going indefinitely; unbounded retry on a connector that is
// silently failing every read would otherwise spin the reader goroutine
// forever, so this core adds a breaker rather than reproducing that
// behavior verbatim.
const MaxConsecutiveErrors = 64

// defaultResizeDebouncePrimary and defaultResizeDebounceAlt are the
// scheduling delays before a resize reaches the PTY: long enough on the
// primary screen for a process that regenerates its display on SIGWINCH
// to settle against the new dimensions first, short on the alternate
// screen where that risk is smaller. Overridable per TerminalStarter via
// Config, since the heuristic that picked 500/100ms is not a hard
// contract.
const (
	defaultResizeDebouncePrimary = 500 * time.Millisecond
	defaultResizeDebounceAlt     = 100 * time.Millisecond
)

// TerminalStarter sequences reads, writes, and resizes across the reader
// goroutine (R) and the single-goroutine coordinator (S) so neither the
// screen model nor the PTY ever sees overlapping mutations.
type TerminalStarter struct {
	terminal  *JediTerminal
	connector TtyConnector
	emulator  *Emulator
	typeAhead *TypeAheadManager
	executor  *ExecutorServiceManager

	state atomic.Int32

	stopRequested atomic.Bool

	pendingResize *scheduledResize

	// consecutiveWriteErrors counts Write failures in a row; only ever
	// touched from S (the executor's single goroutine), so it needs no
	// synchronization of its own.
	consecutiveWriteErrors int

	debouncePrimary, debounceAlt time.Duration

	readerDone chan struct{}
	readerOnce sync.Once

	log *slog.Logger
}

// NewTerminalStarter wires together an already-constructed terminal,
// connector, emulator, type-ahead manager, and executor into a running
// I/O coordinator; call Start to launch the reader goroutine.
func NewTerminalStarter(terminal *JediTerminal, connector TtyConnector, emulator *Emulator, typeAhead *TypeAheadManager, executor *ExecutorServiceManager, log *slog.Logger) *TerminalStarter {
	return &TerminalStarter{
		terminal:        terminal,
		connector:       connector,
		emulator:        emulator,
		typeAhead:       typeAhead,
		executor:        executor,
		debouncePrimary: defaultResizeDebouncePrimary,
		debounceAlt:     defaultResizeDebounceAlt,
		readerDone:      make(chan struct{}),
		log:             orNopLogger(log),
	}
}

// SetResizeDebounce overrides the primary/alternate-screen resize
// debounce delays; zero leaves the corresponding default in place.
func (s *TerminalStarter) SetResizeDebounce(primary, alt time.Duration) {
	if primary > 0 {
		s.debouncePrimary = primary
	}
	if alt > 0 {
		s.debounceAlt = alt
	}
}

func (s *TerminalStarter) State() starterState {
	return starterState(s.state.Load())
}

// Start launches the reader goroutine (R). It returns immediately; the
// goroutine runs until the emulator's stream ends, the connector
// disconnects, or RequestEmulatorStop is called. The goroutine carries a
// pprof label naming it "TerminalStarter reader" — Go has no settable
// goroutine name, so a profiling label is this core's equivalent of the
// original's named reader thread.
func (s *TerminalStarter) Start() {
	s.state.Store(int32(starterRunning))
	go pprof.Do(context.Background(), pprof.Labels("goroutine", "TerminalStarter reader"), func(context.Context) {
		s.runReader()
	})
}

// runReader is R: drive the emulator until told to stop, the stream
// ends, or the connector disconnects. Matching the original, a
// non-disconnect error is logged and the loop continues; unlike the
// original it stops after MaxConsecutiveErrors such errors in a row
// rather than looping forever against a connector that never recovers.
func (s *TerminalStarter) runReader() {
	defer s.readerOnce.Do(func() { close(s.readerDone) })
	consecutiveErrors := 0
	for !s.stopRequested.Load() && s.emulator.HasNext() {
		err := s.emulator.Next()
		if err == nil {
			consecutiveErrors = 0
			continue
		}
		if errors.Is(err, ErrStreamEnded) {
			s.log.Info("terminal stream ended", "connector", s.connector.GetName())
			break
		}
		if !s.connector.IsConnected() {
			s.log.Info("terminal disconnected", "connector", s.connector.GetName())
			s.terminal.Disconnected()
			break
		}
		consecutiveErrors++
		s.log.Error("error advancing terminal emulator", "error", err, "consecutiveErrors", consecutiveErrors)
		if consecutiveErrors >= MaxConsecutiveErrors {
			s.log.Error("too many consecutive emulator errors, stopping", "limit", MaxConsecutiveErrors)
			s.terminal.Disconnected()
			break
		}
	}
	s.state.Store(int32(starterStopping))
	s.executor.Shutdown()
	s.state.Store(int32(starterStopped))
}

// RequestEmulatorStop asks R to stop at the next opportunity between
// emulator steps; it does not block for R to actually exit.
func (s *TerminalStarter) RequestEmulatorStop() {
	s.stopRequested.Store(true)
}

// Wait blocks until the reader goroutine has exited and the coordinator
// has shut down.
func (s *TerminalStarter) Wait() {
	<-s.readerDone
}

// PostResize applies size to the terminal model immediately (so reflow
// happens before any further output is parsed) and schedules the
// matching PTY resize after a debounce, replacing any resize still
// pending. All of this runs on S.
func (s *TerminalStarter) PostResize(size TermSize, origin RequestOrigin) {
	s.executor.Execute(func() {
		s.terminal.Resize(size, origin)
		s.scheduleConnectorResize(size)
	})
}

func (s *TerminalStarter) scheduleConnectorResize(size TermSize) {
	s.executor.Cancel(s.pendingResize)
	delay := s.debouncePrimary
	if s.terminal.buf.UsingAlternateBuffer() {
		delay = s.debounceAlt
	}
	s.pendingResize = s.executor.Schedule(delay, func() {
		if err := s.connector.Resize(size.Cols, size.Rows); err != nil {
			s.log.Error("failed to resize connector", "error", err)
		}
	})
}

// SendBytes writes bytes to the PTY on S. If userInput is true, the bytes
// are first offered to the type-ahead manager as predicted local echo. A
// write failure is logged like any other I/O error, and once it either
// drops the connector or repeats MaxConsecutiveErrors times in a row it
// is treated the same as a persistent read failure: S calls the
// terminal's Disconnected exactly as runReader's read-error path does,
// rather than logging forever into a connector that has stopped
// accepting writes.
func (s *TerminalStarter) SendBytes(data []byte, userInput bool) {
	s.executor.Execute(func() {
		if userInput {
			s.submitTypeAhead(data)
		}
		if _, err := s.connector.Write(data); err != nil {
			s.consecutiveWriteErrors++
			s.log.Error("write failure", "error", err, "consecutiveErrors", s.consecutiveWriteErrors)
			if !s.connector.IsConnected() || s.consecutiveWriteErrors >= MaxConsecutiveErrors {
				s.log.Error("persistent write failure, disconnecting", "connector", s.connector.GetName())
				s.terminal.Disconnected()
			}
			return
		}
		s.consecutiveWriteErrors = 0
	})
}

// SendString is SendBytes for a UTF-8 string payload.
func (s *TerminalStarter) SendString(str string, userInput bool) {
	s.SendBytes([]byte(str), userInput)
}

func (s *TerminalStarter) submitTypeAhead(data []byte) {
	for _, b := range data {
		r := rune(b)
		if !isPlainPrintable(r) {
			continue
		}
		s.typeAhead.Predict(s.terminal, TypeAheadEvent{Bytes: []byte{b}, Char: r})
	}
}

// GetCode is the pass-through TerminalStarter.getCode in the original:
// encode a key event into the bytes to send to the PTY.
func (s *TerminalStarter) GetCode(key KeyCode, modifiers KeyModifiers) []byte {
	return s.terminal.GetCodeForKey(key, modifiers)
}

// Close closes the connector on S, logging and swallowing any error
// rather than propagating it — matching the original's best-effort close.
func (s *TerminalStarter) Close() {
	s.executor.Execute(func() {
		if err := s.connector.Close(); err != nil {
			s.log.Error("error closing terminal", "error", err)
		}
	})
}
