// Package jediterm implements the core of a VT100/xterm-256color terminal
// emulator: an ANSI/VT-family escape sequence parser, a screen model with
// scroll-back history and an alternate screen, a type-ahead manager for
// speculative local echo, and an I/O coordinator that sequences PTY reads,
// writes, and resizes across goroutines without corrupting the screen
// model.
//
// The package does not spawn PTY processes, render glyphs, or capture
// host input; those are external collaborators referenced only through
// the small interfaces in connector.go and starter.go.
package jediterm
