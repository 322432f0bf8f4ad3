package jediterm

import (
	"bufio"
	"errors"
	"io"
	"unicode/utf8"
)

// TerminalDataStream is the pull-based byte source the Emulator reads
// from. It reassembles UTF-8 sequences into runes, supports pushing a rune
// back onto the front of the stream (needed by dispatch code that peeks
// ahead to distinguish, e.g., ESC from ESC-prefixed sequences), and offers
// a bulk read for the common case of copying a run of printable characters
// straight into the screen without per-rune dispatch overhead.
type TerminalDataStream struct {
	r        *bufio.Reader
	pushback []rune
}

// NewTerminalDataStream wraps r, buffering reads the way a VT parser
// expects: one byte or one rune at a time, with no look-ahead beyond what
// UTF-8 reassembly itself requires.
func NewTerminalDataStream(r io.Reader) *TerminalDataStream {
	return &TerminalDataStream{r: bufio.NewReader(r)}
}

// GetChar returns the next decoded rune. A malformed UTF-8 byte sequence
// decodes to utf8.RuneError (U+FFFD) and consumes exactly one byte, so the
// stream can resynchronize on the next call rather than wedging. io.EOF
// from the underlying reader is wrapped as ErrStreamEnded.
func (s *TerminalDataStream) GetChar() (rune, error) {
	if n := len(s.pushback); n > 0 {
		r := s.pushback[n-1]
		s.pushback = s.pushback[:n-1]
		return r, nil
	}
	r, _, err := s.r.ReadRune()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return 0, ErrStreamEnded
		}
		return 0, err
	}
	return r, nil
}

// PushBack returns r to the front of the stream; the next GetChar call
// will yield it again. Used when a dispatcher reads one rune too many to
// decide a transition and must hand it back to the next state.
func (s *TerminalDataStream) PushBack(r rune) {
	s.pushback = append(s.pushback, r)
}

// PushBackRunes pushes back a sequence of runes so that the first rune of
// runes is the next one GetChar returns.
func (s *TerminalDataStream) PushBackRunes(runes []rune) {
	for i := len(runes) - 1; i >= 0; i-- {
		s.PushBack(runes[i])
	}
}

// GetASCII returns the next byte as-is without UTF-8 decoding, for parser
// states (CSI parameter collection, OSC string collection) that only ever
// expect bytes in the ASCII range and treat anything else as a protocol
// error.
func (s *TerminalDataStream) GetASCII() (byte, error) {
	if n := len(s.pushback); n > 0 {
		r := s.pushback[n-1]
		s.pushback = s.pushback[:n-1]
		return byte(r), nil
	}
	b, err := s.r.ReadByte()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return 0, ErrStreamEnded
		}
		return 0, err
	}
	return b, nil
}

// ReadNonControlCharacters reads up to max runes of printable text,
// stopping before any C0/C1 control character or ESC so the caller can
// bulk-copy a run of ordinary text into the screen with a single call
// rather than dispatching rune by rune.
func (s *TerminalDataStream) ReadNonControlCharacters(max int) (string, error) {
	var buf [utf8.UTFMax]byte
	var out []byte
	for count := 0; count < max; count++ {
		r, err := s.GetChar()
		if err != nil {
			if len(out) > 0 {
				return string(out), nil
			}
			return "", err
		}
		if r < 0x20 || r == 0x7f || (r >= 0x80 && r <= 0x9f) {
			s.PushBack(r)
			break
		}
		n := utf8.EncodeRune(buf[:], r)
		out = append(out, buf[:n]...)
	}
	return string(out), nil
}
