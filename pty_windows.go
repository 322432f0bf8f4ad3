//go:build windows

package jediterm

import (
	"sync"
	"sync/atomic"

	"github.com/iamacarpet/go-winpty"
)

// windowsConnector is the default Windows TtyConnector, backed by
// go-winpty's winpty-agent bridge rather than the raw ConPTY syscalls this
// replaces; winpty owns the pipe pair and child process lifecycle.
type windowsConnector struct {
	mu        sync.Mutex
	pty       *winpty.WinPTY
	connected atomic.Bool
}

// StartWindowsPTY launches appPath (with args and a working directory) in
// a winpty-backed console of the given size.
func StartWindowsPTY(appPath, args, dir string, cols, rows int) (TtyConnector, error) {
	opts := &winpty.Options{
		Command: appPath + " " + args,
		Dir:     dir,
		Env:     nil,
	}
	wp, err := winpty.OpenDefault(opts)
	if err != nil {
		return nil, wrapIOError("start", err)
	}
	if err := wp.SetSize(uint32(cols), uint32(rows)); err != nil {
		wp.Close()
		return nil, wrapIOError("resize", err)
	}
	wc := &windowsConnector{pty: wp}
	wc.connected.Store(true)
	return wc, nil
}

func (c *windowsConnector) Read(p []byte) (int, error) {
	n, err := c.pty.StdOut.Read(p)
	if err != nil {
		// A pipe error from the agent almost always means the child
		// process (and with it winpty-agent) is gone; IsConnected
		// needs to reflect that without waiting for an explicit Close.
		c.connected.Store(false)
		return n, wrapIOError("read", err)
	}
	return n, nil
}

func (c *windowsConnector) Write(p []byte) (int, error) {
	n, err := c.pty.StdIn.Write(p)
	if err != nil {
		return n, wrapIOError("write", err)
	}
	return n, nil
}

func (c *windowsConnector) Resize(cols, rows int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.pty.SetSize(uint32(cols), uint32(rows)); err != nil {
		return wrapIOError("resize", err)
	}
	return nil
}

func (c *windowsConnector) IsConnected() bool {
	return c.connected.Load()
}

func (c *windowsConnector) GetName() string {
	return "winpty"
}

func (c *windowsConnector) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.connected.Store(false)
	c.pty.Close()
	return nil
}
