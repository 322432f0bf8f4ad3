package jediterm

import (
	"log/slog"
	"sync"
	"time"
)

// TypeAheadEvent is one keystroke's worth of predicted local echo, derived
// from a user input byte before it reaches the PTY.
type TypeAheadEvent struct {
	Bytes []byte
	Char  rune
}

// Prediction is one outstanding guess at what the screen will show once
// the PTY round-trip completes: the keystroke, the cursor position it was
// made at, the character and style predicted to appear there, and when
// the guess was made.
type Prediction struct {
	Bytes    []byte
	X, Y     int
	Char     rune
	Style    Style
	issuedAt time.Time
}

// typeAheadClock lets tests substitute a deterministic time source; the
// zero value uses the real wall clock.
type typeAheadClock func() time.Time

// TypeAheadManager predicts local echo for user keystrokes to mask PTY
// round-trip latency, matching what a predicted character the emulator
// later confirms or invalidates. It owns its own lock, independent of the
// screen buffer's, and never holds both at once: Predict reads the
// alternate-screen flag from the buffer before taking its own lock, and
// Reconcile is called from WriteChar outside the buffer lock.
type TypeAheadManager struct {
	mu sync.Mutex

	enabled     bool
	penaltyUnt  time.Time
	queue       []Prediction
	latencyEWMA time.Duration

	latencyThreshold time.Duration
	penaltyWindow    time.Duration
	predictionTTL    time.Duration

	now typeAheadClock
	log *slog.Logger
}

// TypeAheadConfig carries the tunable constants noted as recommendations
// rather than hard contracts: the latency threshold above which
// predictions are worth making, how long a mismatch suppresses further
// predictions, and how long an unconfirmed prediction survives before
// being dropped.
type TypeAheadConfig struct {
	LatencyThreshold time.Duration
	PenaltyWindow    time.Duration
	PredictionTTL    time.Duration
}

// DefaultTypeAheadConfig returns the values spec.md calls out as
// recommendations: 50ms EWMA latency threshold, 3s penalty window, 3s
// prediction timeout.
func DefaultTypeAheadConfig() TypeAheadConfig {
	return TypeAheadConfig{
		LatencyThreshold: 50 * time.Millisecond,
		PenaltyWindow:    3 * time.Second,
		PredictionTTL:    3 * time.Second,
	}
}

// NewTypeAheadManager returns a manager using cfg's thresholds.
func NewTypeAheadManager(cfg TypeAheadConfig, log *slog.Logger) *TypeAheadManager {
	return &TypeAheadManager{
		latencyThreshold: cfg.LatencyThreshold,
		penaltyWindow:     cfg.PenaltyWindow,
		predictionTTL:     cfg.PredictionTTL,
		now:               time.Now,
		log:               orNopLogger(log),
	}
}

// ObserveLatency folds one PTY round-trip sample into the EWMA latency
// estimate used to gate prediction, with the conventional smoothing
// weight of 0.25 for the newest sample.
func (m *TypeAheadManager) ObserveLatency(sample time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.latencyEWMA == 0 {
		m.latencyEWMA = sample
		return
	}
	m.latencyEWMA = m.latencyEWMA + (sample-m.latencyEWMA)/4
}

// eligible reports whether the current terminal state permits a
// prediction at all: autowrap on, cursor inside the scroll-region
// interior, no alternate buffer, no mouse reporting mode, and recent
// latency above threshold. altScreen must be read by the caller before
// taking m.mu — it comes from TerminalTextBuffer's own lock, and this
// package's locking rule allows holding at most one of the buffer lock
// or the type-ahead lock at a time, so eligible itself must never reach
// back into buf while m.mu is held.
func (m *TypeAheadManager) eligible(term *JediTerminal, altScreen bool) bool {
	if m.now().Before(m.penaltyUnt) {
		return false
	}
	if m.latencyEWMA < m.latencyThreshold {
		return false
	}
	if !term.modes.Get(ModeAutoWrap) {
		return false
	}
	if altScreen {
		return false
	}
	if term.modes.Get(ModeMouseX10) || term.modes.Get(ModeMouseVT200) ||
		term.modes.Get(ModeMouseButtonEvt) || term.modes.Get(ModeMouseAnyEvt) {
		return false
	}
	_, y := term.Cursor()
	if !term.region.Contains(y) || y == term.region.Bottom {
		return false
	}
	return true
}

// isPlainPrintable reports whether r is a plain ASCII letter, digit, or
// punctuation character — the only class of keystroke worth predicting,
// since anything else (control characters, wide/combining runes) has
// side effects too complex to guess correctly.
func isPlainPrintable(r rune) bool {
	return r >= 0x20 && r < 0x7f
}

// Predict derives a prediction from one TypeAheadEvent and, if eligible,
// enqueues it and returns it so the caller can render the overlay
// immediately, ahead of the real PTY round trip.
func (m *TypeAheadManager) Predict(term *JediTerminal, ev TypeAheadEvent) (Prediction, bool) {
	if !isPlainPrintable(ev.Char) {
		return Prediction{}, false
	}
	altScreen := term.buf.UsingAlternateBuffer()
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.eligible(term, altScreen) {
		return Prediction{}, false
	}
	x, y := term.Cursor()
	p := Prediction{
		Bytes:    ev.Bytes,
		X:        x,
		Y:        y,
		Char:     ev.Char,
		Style:    term.style,
		issuedAt: m.now(),
	}
	m.queue = append(m.queue, p)
	return p, true
}

// Reconcile is called with each character the emulator actually wrote to
// the buffer, in order, and confirms (clears) a matching prediction at
// the front of the queue or invalidates the whole queue on mismatch.
// Matching only against the front of the queue mirrors a real terminal's
// guarantee that PTY echo arrives in keystroke order.
func (m *TypeAheadManager) Reconcile(x, y int, char rune) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dropExpiredLocked()
	if len(m.queue) == 0 {
		return
	}
	head := m.queue[0]
	if head.X == x && head.Y == y && head.Char == char {
		m.queue = m.queue[1:]
		return
	}
	m.invalidateLocked()
}

// invalidateLocked clears every outstanding prediction and starts a
// penalty window during which no new predictions are made, matching the
// mismatch-handling rule.
func (m *TypeAheadManager) invalidateLocked() {
	m.queue = nil
	m.penaltyUnt = m.now().Add(m.penaltyWindow)
}

// Invalidate is the externally callable form of invalidateLocked, used
// when the caller detects a mismatch by means other than Reconcile (e.g.
// a resize or mode change that invalidates every pending guess outright).
func (m *TypeAheadManager) Invalidate() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.invalidateLocked()
}

func (m *TypeAheadManager) dropExpiredLocked() {
	cutoff := m.now().Add(-m.predictionTTL)
	kept := m.queue[:0]
	for _, p := range m.queue {
		if p.issuedAt.After(cutoff) {
			kept = append(kept, p)
		}
	}
	m.queue = kept
}

// Pending returns a snapshot of every outstanding prediction, for a
// presentation layer to overlay on top of the authoritative screen
// state without mutating it.
func (m *TypeAheadManager) Pending() []Prediction {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dropExpiredLocked()
	out := make([]Prediction, len(m.queue))
	copy(out, m.queue)
	return out
}
