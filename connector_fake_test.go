package jediterm

import (
	"errors"
	"io"
	"sync"
)

// fakeConnector is a TtyConnector backed by in-memory buffers instead of a
// real PTY, reused across every _test.go file in this package so each one
// doesn't have to redefine its own stand-in.
type fakeConnector struct {
	mu sync.Mutex

	toRead    []byte
	readErr   error // returned once toRead is exhausted, default io.EOF
	readCalls int

	written  [][]byte
	writeErr error // if set, Write fails with this error instead of succeeding

	connected bool
	closed    bool

	resizes []fakeResize

	name string
}

type fakeResize struct{ Cols, Rows int }

func newFakeConnector(initial []byte) *fakeConnector {
	return &fakeConnector{toRead: initial, connected: true, name: "fake"}
}

// feed appends more bytes for Read to return, as if the far end had just
// written them.
func (c *fakeConnector) feed(p []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.toRead = append(c.toRead, p...)
}

func (c *fakeConnector) Read(p []byte) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.readCalls++
	if len(c.toRead) == 0 {
		if c.readErr != nil {
			return 0, c.readErr
		}
		return 0, io.EOF
	}
	n := copy(p, c.toRead)
	c.toRead = c.toRead[n:]
	return n, nil
}

func (c *fakeConnector) Write(p []byte) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.writeErr != nil {
		return 0, c.writeErr
	}
	cp := append([]byte(nil), p...)
	c.written = append(c.written, cp)
	return len(p), nil
}

func (c *fakeConnector) setWriteErr(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.writeErr = err
}

func (c *fakeConnector) writtenBytes() []byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []byte
	for _, w := range c.written {
		out = append(out, w...)
	}
	return out
}

func (c *fakeConnector) Resize(cols, rows int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.resizes = append(c.resizes, fakeResize{Cols: cols, Rows: rows})
	return nil
}

func (c *fakeConnector) IsConnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connected
}

func (c *fakeConnector) setConnected(v bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.connected = v
}

func (c *fakeConnector) GetName() string { return c.name }

func (c *fakeConnector) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

// errAlwaysFailConnector fails every Read with a non-EOF error, used to
// exercise TerminalStarter's consecutive-error breaker.
type errAlwaysFailConnector struct {
	fakeConnector
}

var errFakeRead = errors.New("fake: read failed")
var errFakeWrite = errors.New("fake: write failed")

func (c *errAlwaysFailConnector) Read(p []byte) (int, error) {
	return 0, errFakeRead
}
