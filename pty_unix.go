//go:build !windows

package jediterm

import (
	"os"
	"os/exec"

	"github.com/creack/pty"
	"golang.org/x/sys/unix"
)

// unixConnector is the default Unix TtyConnector, a thin wrapper over a
// spawned child process's pseudo-terminal. Unlike the cgo-based
// master/slave pair this replaces, creack/pty owns slave lifecycle
// entirely, so there is nothing left to release explicitly once Start
// returns.
type unixConnector struct {
	cmd  *exec.Cmd
	ptmx *os.File
	name string
}

// StartUnixPTY spawns cmd attached to a freshly allocated pseudo-terminal
// and returns a connector bound to it.
func StartUnixPTY(cmd *exec.Cmd) (TtyConnector, error) {
	ptmx, err := pty.Start(cmd)
	if err != nil {
		return nil, wrapIOError("start", err)
	}
	return &unixConnector{cmd: cmd, ptmx: ptmx, name: ptmx.Name()}, nil
}

func (c *unixConnector) Read(p []byte) (int, error) {
	n, err := c.ptmx.Read(p)
	if err != nil {
		return n, wrapIOError("read", err)
	}
	return n, nil
}

func (c *unixConnector) Write(p []byte) (int, error) {
	n, err := c.ptmx.Write(p)
	if err != nil {
		return n, wrapIOError("write", err)
	}
	return n, nil
}

// Resize issues TIOCSWINSZ on the master fd; pty.Setsize wraps the same
// unix.IoctlSetWinsize call this connector would otherwise have to make
// directly.
func (c *unixConnector) Resize(cols, rows int) error {
	err := pty.Setsize(c.ptmx, &pty.Winsize{Rows: uint16(rows), Cols: uint16(cols)})
	if err != nil {
		return wrapIOError("resize", err)
	}
	return nil
}

func (c *unixConnector) IsConnected() bool {
	if c.cmd.Process == nil {
		return false
	}
	// Signal 0 probes for the process's existence without affecting it.
	return c.cmd.Process.Signal(unix.Signal(0)) == nil
}

func (c *unixConnector) GetName() string {
	return c.name
}

func (c *unixConnector) Close() error {
	return c.ptmx.Close()
}
