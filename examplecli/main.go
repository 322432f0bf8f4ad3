// Command examplecli is a minimal reference driver for the jediterm
// core: it spawns a shell behind a PTY, feeds its output through the
// emulator, and paints the resulting screen straight onto the host's own
// terminal. It intentionally owns no scrollback view, no selection, and
// no redraw optimization beyond a dirty-row diff — a real presentation
// layer (a GUI widget, an SSH server) is expected to do much more with
// the buffer this core exposes.
package main

import (
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"syscall"

	"golang.org/x/term"

	"github.com/basdxz/jediterm"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "examplecli:", err)
		os.Exit(1)
	}
}

func run() error {
	shell := os.Getenv("SHELL")
	if shell == "" {
		shell = "/bin/sh"
	}
	args := os.Args[1:]
	name := shell
	if len(args) > 0 {
		name = args[0]
		args = args[1:]
	}

	cols, rows, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil {
		cols, rows = 80, 24
	}

	cmd := exec.Command(name, args...)
	cmd.Env = append(os.Environ(), "TERM=xterm-256color")
	connector, err := jediterm.StartUnixPTY(cmd)
	if err != nil {
		return fmt.Errorf("start pty: %w", err)
	}

	cfg := jediterm.DefaultConfig()
	cfg.Cols, cfg.Rows = cols, rows
	starter, jterm, buf := jediterm.NewTerminal(cfg, connector)

	oldState, err := term.MakeRaw(int(os.Stdin.Fd()))
	if err != nil {
		return fmt.Errorf("enter raw mode: %w", err)
	}
	defer term.Restore(int(os.Stdin.Fd()), oldState)

	r := newRenderer(os.Stdout, buf, jterm)
	r.full()

	stop := make(chan struct{})
	go watchResize(starter, buf, stop)
	go watchDamage(r, jterm, stop)
	go forwardInput(starter, os.Stdin, stop)

	starter.Start()
	starter.Wait()
	close(stop)

	r.restore()
	return cmd.Wait()
}

// watchResize forwards SIGWINCH on the host terminal into the emulator
// via PostResize, which applies the new size immediately and debounces
// the matching PTY resize.
func watchResize(starter *jediterm.TerminalStarter, buf *jediterm.TerminalTextBuffer, stop <-chan struct{}) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGWINCH)
	defer signal.Stop(sigCh)
	for {
		select {
		case <-stop:
			return
		case <-sigCh:
			cols, rows, err := term.GetSize(int(os.Stdout.Fd()))
			if err != nil {
				continue
			}
			curCols, curRows := buf.Size()
			if cols == curCols && rows == curRows {
				continue
			}
			starter.PostResize(jediterm.TermSize{Cols: cols, Rows: rows}, jediterm.RequestOriginUser)
		}
	}
}
