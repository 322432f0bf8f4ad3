package main

import (
	"io"
	"os"

	"github.com/basdxz/jediterm"
)

// forwardInput copies raw bytes from the host terminal (already in raw
// mode, so escape sequences arrive unprocessed) straight to the PTY,
// offering each byte to the type-ahead manager as predicted local echo.
// A real presentation layer with access to decoded key events would call
// starter.GetCode for non-printable keys instead of relying on the host
// terminal to have already encoded them.
func forwardInput(starter *jediterm.TerminalStarter, in *os.File, stop <-chan struct{}) {
	buf := make([]byte, 4096)
	for {
		n, err := in.Read(buf)
		if n > 0 {
			data := make([]byte, n)
			copy(data, buf[:n])
			starter.SendBytes(data, true)
		}
		if err != nil {
			if err != io.EOF {
				return
			}
			return
		}
		select {
		case <-stop:
			return
		default:
		}
	}
}
