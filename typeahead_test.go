package jediterm

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newEligibleManager(term *JediTerminal) *TypeAheadManager {
	m := NewTypeAheadManager(TypeAheadConfig{
		LatencyThreshold: 50 * time.Millisecond,
		PenaltyWindow:    3 * time.Second,
		PredictionTTL:    3 * time.Second,
	}, nil)
	m.ObserveLatency(100 * time.Millisecond)
	return m
}

func TestTypeAheadObserveLatencyEWMA(t *testing.T) {
	m := NewTypeAheadManager(DefaultTypeAheadConfig(), nil)
	m.ObserveLatency(100 * time.Millisecond)
	assert.Equal(t, 100*time.Millisecond, m.latencyEWMA, "first sample seeds the estimate directly")

	m.ObserveLatency(20 * time.Millisecond)
	// EWMA = prev + (sample-prev)/4 = 100ms + (20ms-100ms)/4 = 80ms
	assert.Equal(t, 80*time.Millisecond, m.latencyEWMA)
}

func TestTypeAheadPredictRejectsBelowLatencyThreshold(t *testing.T) {
	term, _ := newTestTerminal(10, 10)
	m := NewTypeAheadManager(DefaultTypeAheadConfig(), nil)

	_, ok := m.Predict(term, TypeAheadEvent{Char: 'a', Bytes: []byte("a")})
	assert.False(t, ok, "no latency sample yet means the EWMA is zero, below threshold")
}

func TestTypeAheadPredictRejectsNonPrintable(t *testing.T) {
	term, _ := newTestTerminal(10, 10)
	m := newEligibleManager(term)

	_, ok := m.Predict(term, TypeAheadEvent{Char: rune(0x1b), Bytes: []byte{0x1b}})
	assert.False(t, ok)
}

func TestTypeAheadPredictRejectsAltScreen(t *testing.T) {
	term, buf := newTestTerminal(10, 10)
	m := newEligibleManager(term)
	buf.UseAlternateBuffer(true, DefaultStyle)

	_, ok := m.Predict(term, TypeAheadEvent{Char: 'a', Bytes: []byte("a")})
	assert.False(t, ok)
}

func TestTypeAheadPredictRejectsMouseReportingModes(t *testing.T) {
	term, _ := newTestTerminal(10, 10)
	m := newEligibleManager(term)
	term.SetMode(ModeMouseVT200, true)

	_, ok := m.Predict(term, TypeAheadEvent{Char: 'a', Bytes: []byte("a")})
	assert.False(t, ok)
}

func TestTypeAheadPredictRejectsAutoWrapOff(t *testing.T) {
	term, _ := newTestTerminal(10, 10)
	m := newEligibleManager(term)
	term.SetMode(ModeAutoWrap, false)

	_, ok := m.Predict(term, TypeAheadEvent{Char: 'a', Bytes: []byte("a")})
	assert.False(t, ok)
}

func TestTypeAheadPredictRejectsBottomRowOfRegion(t *testing.T) {
	term, _ := newTestTerminal(10, 10)
	m := newEligibleManager(term)
	term.CursorPosition(term.region.Bottom, 0)

	_, ok := m.Predict(term, TypeAheadEvent{Char: 'a', Bytes: []byte("a")})
	assert.False(t, ok, "the bottom row is excluded since a wrap there would scroll, which is never predicted")
}

func TestTypeAheadPredictAcceptsEligibleKeystroke(t *testing.T) {
	term, _ := newTestTerminal(10, 10)
	m := newEligibleManager(term)

	p, ok := m.Predict(term, TypeAheadEvent{Char: 'a', Bytes: []byte("a")})
	require.True(t, ok)
	assert.Equal(t, 'a', p.Char)
	x, y := term.Cursor()
	assert.Equal(t, x, p.X)
	assert.Equal(t, y, p.Y)
	assert.Len(t, m.Pending(), 1)
}

func TestTypeAheadReconcileConfirmsMatchingHead(t *testing.T) {
	term, _ := newTestTerminal(10, 10)
	m := newEligibleManager(term)
	p, ok := m.Predict(term, TypeAheadEvent{Char: 'a', Bytes: []byte("a")})
	require.True(t, ok)

	m.Reconcile(p.X, p.Y, 'a')
	assert.Empty(t, m.Pending(), "a confirmed prediction is removed from the queue")
}

func TestTypeAheadReconcileMismatchInvalidatesQueueAndStartsPenalty(t *testing.T) {
	term, _ := newTestTerminal(10, 10)
	m := newEligibleManager(term)
	p, ok := m.Predict(term, TypeAheadEvent{Char: 'a', Bytes: []byte("a")})
	require.True(t, ok)

	m.Reconcile(p.X, p.Y, 'b') // the PTY echoed something different than predicted
	assert.Empty(t, m.Pending())

	// During the penalty window, even an otherwise-eligible keystroke is
	// not predicted.
	_, ok = m.Predict(term, TypeAheadEvent{Char: 'c', Bytes: []byte("c")})
	assert.False(t, ok)
}

func TestTypeAheadInvalidateClearsQueueDirectly(t *testing.T) {
	term, _ := newTestTerminal(10, 10)
	m := newEligibleManager(term)
	_, ok := m.Predict(term, TypeAheadEvent{Char: 'a', Bytes: []byte("a")})
	require.True(t, ok)

	m.Invalidate()
	assert.Empty(t, m.Pending())
}

func TestTypeAheadPendingDropsExpiredPredictions(t *testing.T) {
	term, _ := newTestTerminal(10, 10)
	m := newEligibleManager(term)

	base := time.Now()
	m.now = func() time.Time { return base }
	m.predictionTTL = 100 * time.Millisecond

	_, ok := m.Predict(term, TypeAheadEvent{Char: 'a', Bytes: []byte("a")})
	require.True(t, ok)
	assert.Len(t, m.Pending(), 1)

	m.now = func() time.Time { return base.Add(200 * time.Millisecond) }
	assert.Empty(t, m.Pending(), "the prediction outlived its TTL and is dropped on the next read")
}

func TestTypeAheadReconcileEmptyQueueIsNoop(t *testing.T) {
	term, _ := newTestTerminal(10, 10)
	m := newEligibleManager(term)

	m.Reconcile(0, 0, 'a')
	assert.Empty(t, m.Pending())
}
