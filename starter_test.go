package jediterm

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStarterRoundTripsConnectorOutputIntoBuffer(t *testing.T) {
	conn := newFakeConnector([]byte("hello"))
	starter, _, buf := NewTerminal(DefaultConfig(), conn)

	starter.Start()
	starter.Wait()

	assert.Equal(t, 'h', buf.Line(0).At(0).Char)
	assert.Equal(t, 'o', buf.Line(0).At(4).Char)
}

func TestStarterSendBytesWritesToConnector(t *testing.T) {
	conn := newFakeConnector(nil)
	// SendBytes only needs the executor (started inside NewTerminal), not
	// the reader goroutine, so Start is deliberately not called here —
	// this connector has nothing to read and would hit end-of-stream
	// immediately, tearing down the executor before the assertion below.
	starter, _, _ := NewTerminal(DefaultConfig(), conn)

	starter.SendBytes([]byte("echo hi\n"), false)

	// SendBytes runs on the executor's goroutine; give it a moment to
	// drain before asserting on the connector's recorded writes.
	deadlineWrite(t, func() bool { return len(conn.writtenBytes()) > 0 })
	assert.Equal(t, "echo hi\n", string(conn.writtenBytes()))
}

func TestStarterMaxConsecutiveErrorsBreaksReaderLoop(t *testing.T) {
	conn := &errAlwaysFailConnector{fakeConnector: *newFakeConnector(nil)}
	starter, term, _ := NewTerminal(DefaultConfig(), conn)

	starter.Start()

	select {
	case <-starter.readerDone:
	case <-time.After(5 * time.Second):
		require.Fail(t, "reader loop did not stop after exhausting the consecutive-error breaker")
	}

	assert.Equal(t, starterStopped, starter.State())
	select {
	case <-term.DisconnectedSignal():
	default:
		require.Fail(t, "the breaker tripping must call Terminal.Disconnected")
	}
}

func TestStarterDisconnectedConnectorNotifiesTerminal(t *testing.T) {
	conn := newFakeConnector(nil)
	conn.setConnected(false)
	conn.readErr = errFakeRead
	starter, term, _ := NewTerminal(DefaultConfig(), conn)

	starter.Start()

	select {
	case <-starter.readerDone:
	case <-time.After(5 * time.Second):
		require.Fail(t, "reader loop did not stop after IsConnected went false")
	}

	select {
	case <-term.DisconnectedSignal():
	default:
		require.Fail(t, "IsConnected()==false must call Terminal.Disconnected")
	}
}

func TestStarterPersistentWriteFailureNotifiesTerminal(t *testing.T) {
	conn := newFakeConnector(nil)
	conn.setWriteErr(errFakeWrite)
	// SendBytes only needs the executor, not the reader goroutine — as in
	// TestStarterSendBytesWritesToConnector, Start is deliberately not
	// called.
	starter, term, _ := NewTerminal(DefaultConfig(), conn)

	for i := 0; i < MaxConsecutiveErrors; i++ {
		starter.SendBytes([]byte("x"), false)
	}

	deadlineWrite(t, func() bool {
		select {
		case <-term.DisconnectedSignal():
			return true
		default:
			return false
		}
	})
}

func TestStarterWriteFailureOnDisconnectedConnectorNotifiesImmediately(t *testing.T) {
	conn := newFakeConnector(nil)
	conn.setConnected(false)
	conn.setWriteErr(errFakeWrite)
	starter, term, _ := NewTerminal(DefaultConfig(), conn)

	starter.SendBytes([]byte("x"), false)

	deadlineWrite(t, func() bool {
		select {
		case <-term.DisconnectedSignal():
			return true
		default:
			return false
		}
	})
}

func TestStarterPostResizeAppliesModelImmediatelyButDebouncesConnector(t *testing.T) {
	conn := newFakeConnector(nil)
	cfg := DefaultConfig()
	// PostResize only needs the executor, not the reader goroutine — as
	// in TestStarterSendBytesWritesToConnector, Start is deliberately not
	// called so an immediate end-of-stream on this empty connector can't
	// tear the executor down out from under the debounced resize.
	starter, term, buf := NewTerminal(cfg, conn)
	starter.SetResizeDebounce(30*time.Millisecond, 10*time.Millisecond)

	starter.PostResize(TermSize{Cols: 40, Rows: 10}, RequestOriginUser)

	deadlineWrite(t, func() bool { cols, _ := buf.Size(); return cols == 40 })
	assert.Equal(t, 40, term.cols, "the model resizes immediately, before the debounced PTY resize fires")
	assert.Empty(t, conn.resizes, "the connector resize has not fired yet")

	deadlineWrite(t, func() bool { return len(conn.resizes) > 0 })
	require.Len(t, conn.resizes, 1)
	assert.Equal(t, fakeResize{Cols: 40, Rows: 10}, conn.resizes[0])
}

func TestStarterPostResizeReplacesPendingDebounce(t *testing.T) {
	conn := newFakeConnector(nil)
	starter, _, _ := NewTerminal(DefaultConfig(), conn)
	starter.SetResizeDebounce(40*time.Millisecond, 40*time.Millisecond)

	starter.PostResize(TermSize{Cols: 40, Rows: 10}, RequestOriginUser)
	starter.PostResize(TermSize{Cols: 50, Rows: 12}, RequestOriginUser)

	deadlineWrite(t, func() bool { return len(conn.resizes) > 0 })
	require.Len(t, conn.resizes, 1, "only the latest pending resize reaches the connector")
	assert.Equal(t, fakeResize{Cols: 50, Rows: 12}, conn.resizes[0])
}

// deadlineWrite polls cond until it becomes true or a short deadline
// elapses, used to synchronize on work done by the executor's goroutine
// without a fixed sleep.
func deadlineWrite(t *testing.T, cond func() bool) {
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	require.True(t, cond(), "condition never became true")
}
