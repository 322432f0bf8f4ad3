package jediterm

import (
	"errors"
	"log/slog"
	"strconv"
	"strings"
)

// Terminal is the facade Emulator drives. JediTerminal is the only
// implementation in this package, but the interface keeps the parser
// decoupled from cursor/screen bookkeeping the way the emulator and the
// text buffer are decoupled in the wider design: a test can swap in a
// recording fake without dragging in a real screen model.
type Terminal interface {
	WriteChar(r rune)
	LineFeed()
	CarriageReturn()
	Backspace()
	Tab()
	BackTab()
	Bell()

	CursorUp(n int)
	CursorDown(n int)
	CursorForward(n int)
	CursorBackward(n int)
	CursorNextLine(n int)
	CursorPrevLine(n int)
	CursorHorizontalAbsolute(x int)
	VerticalPositionAbsolute(y int)
	CursorPosition(row, col int)
	SaveCursor()
	RestoreCursor()
	Index()
	ReverseIndex()
	NextLine()

	EraseInDisplay(mode int)
	EraseInLine(mode int)
	InsertLines(n int)
	DeleteLines(n int)
	InsertChars(n int)
	DeleteChars(n int)
	EraseChars(n int)
	ScrollUp(n int)
	ScrollDown(n int)
	SetScrollRegion(top, bottom int)

	SetTabStop()
	ClearTabStop(mode int)

	SGR(params []SGRParam)
	SetMode(mode Mode, on bool)
	DeviceStatusReport(param int)
	DeviceAttributes()
	SetCursorStyle(style int)
	SetLineAttribute(attr LineAttribute)
	ScreenAlignmentTest()

	SetTitle(title string)
	SetIconName(name string)
	BeginHyperlink(id, uri string)
	EndHyperlink()
	SetPaletteColor(index int, color Color)
	RequestColor(kind OSCColorRequest) string
	ResetPaletteColor(index int)

	Reset()

	// Disconnected notifies the terminal that TerminalStarter has given
	// up on the connector: from the reader loop when IsConnected() went
	// false or the consecutive-error breaker tripped, and from SendBytes
	// after a persistent write failure. It can be called more than once,
	// from either goroutine; JediTerminal acts on the first call only.
	Disconnected()
}

// OSCColorRequest identifies which dynamic color OSC 10/11/12 is asking
// about.
type OSCColorRequest int

const (
	OSCForeground OSCColorRequest = 10
	OSCBackground OSCColorRequest = 11
	OSCCursor     OSCColorRequest = 12
)

// SGRParam is one base SGR parameter plus any colon-separated
// subparameters, e.g. CSI 38:2::255:0:0 m decodes to {Base: 38, Subs:
// [2, -1, 255, 0, 0]} — a missing subparameter (an empty field between
// colons) is recorded as -1 so SGR dispatch can tell "absent" from "zero".
type SGRParam struct {
	Base int
	Subs []int
}

type emulatorState int

const (
	stateGround emulatorState = iota
	stateEscape
	stateCSIEntry
	stateCSIParam
	stateOSCString
	stateDCSPassthrough
	stateDECLineAttr
	stateCharsetDesignate
)

// Emulator is a byte-by-byte VT500-style state machine. It pulls runes
// from a TerminalDataStream one at a time and dispatches decoded
// sequences onto a Terminal; it holds no screen state of its own.
type Emulator struct {
	stream *TerminalDataStream
	term   Terminal
	log    *slog.Logger

	state emulatorState

	csiPrivate      rune
	csiIntermediate rune
	csiRaw          []string
	csiBuf          strings.Builder

	oscBuf strings.Builder

	dcsPrevEsc bool

	pendingErr error
}

// NewEmulator returns an Emulator that reads from stream and dispatches
// decoded sequences to term.
func NewEmulator(stream *TerminalDataStream, term Terminal, log *slog.Logger) *Emulator {
	return &Emulator{stream: stream, term: term, log: orNopLogger(log), state: stateGround}
}

// HasNext reports whether Next has not yet observed end-of-stream.
func (e *Emulator) HasNext() bool {
	return e.pendingErr == nil
}

// Next consumes and dispatches exactly one unit of work: one printable
// rune, one control character, or one byte of an in-progress escape/CSI/
// OSC/DCS sequence. It returns ErrStreamEnded once the underlying stream
// is exhausted, and returns any other stream read failure as is. A non-EOF read
// failure is returned but not latched, so HasNext keeps reporting true
// and a caller (TerminalStarter's reader loop) may retry Next — only
// actual end-of-stream permanently stops the emulator.
func (e *Emulator) Next() error {
	if e.pendingErr != nil {
		return e.pendingErr
	}
	r, err := e.stream.GetChar()
	if err != nil {
		if errors.Is(err, ErrStreamEnded) {
			e.pendingErr = err
		}
		return err
	}
	e.dispatch(r)
	return nil
}

func (e *Emulator) dispatch(r rune) {
	switch e.state {
	case stateGround:
		e.ground(r)
	case stateEscape:
		e.escape(r)
	case stateCSIEntry, stateCSIParam:
		e.csi(r)
	case stateOSCString:
		e.oscString(r)
	case stateDCSPassthrough:
		e.dcsPassthrough(r)
	case stateDECLineAttr:
		e.decLineAttr(r)
	case stateCharsetDesignate:
		// A single designator byte follows ESC ( / ESC ); charset
		// switching itself is outside this implementation's scope
		// (Non-goal: full VT100 character-set translation), so the
		// byte is simply consumed.
		e.state = stateGround
	}
}

// ground handles the default state: C0 controls dispatch immediately,
// ESC begins an escape sequence, and anything else prints.
func (e *Emulator) ground(r rune) {
	switch r {
	case 0x00, 0x7f: // NUL, DEL — ignored
	case 0x07: // BEL
		e.term.Bell()
	case 0x08: // BS
		e.term.Backspace()
	case 0x09: // HT
		e.term.Tab()
	case 0x0A: // LF
		e.term.LineFeed()
	case 0x0B, 0x0C: // VT, FF — treated as LF
		e.term.LineFeed()
	case 0x0D: // CR
		e.term.CarriageReturn()
	case 0x1B: // ESC
		e.state = stateEscape
	case 0x9B: // CSI (C1 single-byte form)
		e.beginCSI()
	case 0x9D: // OSC (C1 single-byte form)
		e.oscBuf.Reset()
		e.state = stateOSCString
	default:
		if r >= 0x20 {
			e.term.WriteChar(r)
		}
		// other C0 controls not listed above are ignored (ErrParseIgnored)
	}
}

func (e *Emulator) beginCSI() {
	e.csiPrivate = 0
	e.csiIntermediate = 0
	e.csiRaw = e.csiRaw[:0]
	e.csiBuf.Reset()
	e.state = stateCSIEntry
}

func (e *Emulator) escape(r rune) {
	switch r {
	case '[':
		e.beginCSI()
	case ']':
		e.oscBuf.Reset()
		e.state = stateOSCString
	case 'P', 'X', '^', '_': // DCS, SOS, PM, APC — consumed and discarded
		e.state = stateDCSPassthrough
		e.dcsPrevEsc = false
	case '(', ')', '*', '+': // charset designation (G0-G3)
		e.state = stateCharsetDesignate
	case '#':
		e.state = stateDECLineAttr
	case '7':
		e.term.SaveCursor()
		e.state = stateGround
	case '8':
		e.term.RestoreCursor()
		e.state = stateGround
	case 'c':
		e.term.Reset()
		e.state = stateGround
	case 'D':
		e.term.Index()
		e.state = stateGround
	case 'E':
		e.term.NextLine()
		e.state = stateGround
	case 'M':
		e.term.ReverseIndex()
		e.state = stateGround
	case '=':
		e.term.SetMode(ModeApplicationKeypad, true)
		e.state = stateGround
	case '>':
		e.term.SetMode(ModeApplicationKeypad, false)
		e.state = stateGround
	default:
		e.log.Debug("unknown escape sequence", "final", string(r))
		e.state = stateGround
	}
}

func (e *Emulator) decLineAttr(r rune) {
	switch r {
	case '3':
		e.term.SetLineAttribute(LineAttrDoubleTop)
	case '4':
		e.term.SetLineAttribute(LineAttrDoubleBottom)
	case '5':
		e.term.SetLineAttribute(LineAttrNormal)
	case '6':
		e.term.SetLineAttribute(LineAttrDoubleWidth)
	case '8':
		e.term.ScreenAlignmentTest()
	}
	e.state = stateGround
}

// dcsPassthrough discards everything up to the string terminator (ST,
// ESC \) or BEL, the only thing this implementation does with DCS/SOS/PM/
// APC: consume and ignore, per the unknown-sequence handling rule.
func (e *Emulator) dcsPassthrough(r rune) {
	if e.dcsPrevEsc {
		if r == '\\' {
			e.state = stateGround
			return
		}
		e.dcsPrevEsc = false
	}
	switch r {
	case 0x1B:
		e.dcsPrevEsc = true
	case 0x07:
		e.state = stateGround
	case 0x18, 0x1A: // CAN, SUB — abort the in-progress DCS/SOS/PM/APC string
		e.state = stateGround
	}
}

func (e *Emulator) csi(r rune) {
	if r == 0x1B { // ESC abandons the in-progress CSI and starts a new escape
		e.state = stateEscape
		return
	}
	if e.state == stateCSIEntry {
		if r == '?' || r == '>' || r == '!' || r == '<' {
			e.csiPrivate = r
			e.state = stateCSIParam
			return
		}
		e.state = stateCSIParam
	}

	switch {
	case r >= '0' && r <= '9':
		e.csiBuf.WriteByte(byte(r))
		return
	case r == ':':
		e.csiBuf.WriteByte(byte(r))
		return
	case r == ';':
		e.pushCSIParam()
		return
	case r >= 0x20 && r <= 0x2F:
		e.pushCSIParam()
		e.csiIntermediate = r
		return
	}

	e.pushCSIParam()
	e.executeCSI(r)
	e.state = stateGround
}

func (e *Emulator) pushCSIParam() {
	e.csiRaw = append(e.csiRaw, e.csiBuf.String())
	e.csiBuf.Reset()
}

// maxCSIParam is the overflow clamp spec.md's edge-case list names
// explicitly: a parameter value above this is treated as this value
// rather than reverting to the field's default.
const maxCSIParam = 65535

// csiParamInt parses s (already stripped of any colon subparameters) as
// the clamped CSI parameter value, reporting whether a field was
// present at all. A value that overflows int (strconv.Atoi's
// strconv.ErrRange) clamps to maxCSIParam instead of falling through to
// "absent", matching an in-range-but-huge value's treatment.
func csiParamInt(s string) (n int, present bool) {
	if s == "" {
		return 0, false
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		var numErr *strconv.NumError
		if errors.As(err, &numErr) && errors.Is(numErr.Err, strconv.ErrRange) {
			return maxCSIParam, true
		}
		return 0, false
	}
	if v > maxCSIParam {
		v = maxCSIParam
	}
	return v, true
}

// csiInt returns the base (pre-colon) integer value of the idx'th CSI
// parameter, or def if that parameter is absent or its default field
// (empty string, or explicit 0) was given — matching the DEC convention
// that "CSI m" and "CSI 0 m" are both "use the default".
func (e *Emulator) csiInt(idx, def int) int {
	if idx >= len(e.csiRaw) {
		return def
	}
	s := e.csiRaw[idx]
	if colon := strings.IndexByte(s, ':'); colon >= 0 {
		s = s[:colon]
	}
	n, present := csiParamInt(s)
	if !present || n == 0 {
		return def
	}
	return n
}

// csiIntAllowZero is csiInt without folding an explicit 0 to def; ED/EL
// selectors and some DEC modes distinguish "0" from "absent".
func (e *Emulator) csiIntAllowZero(idx, def int) int {
	if idx >= len(e.csiRaw) {
		return def
	}
	s := e.csiRaw[idx]
	if colon := strings.IndexByte(s, ':'); colon >= 0 {
		s = s[:colon]
	}
	n, present := csiParamInt(s)
	if !present {
		return def
	}
	return n
}

func (e *Emulator) sgrParams() []SGRParam {
	if len(e.csiRaw) == 0 {
		return []SGRParam{{Base: 0}}
	}
	out := make([]SGRParam, 0, len(e.csiRaw))
	for _, raw := range e.csiRaw {
		out = append(out, parseSGRParam(raw))
	}
	return out
}

func parseSGRParam(raw string) SGRParam {
	if raw == "" {
		return SGRParam{Base: 0}
	}
	parts := strings.Split(raw, ":")
	base, _ := strconv.Atoi(parts[0])
	var subs []int
	for _, p := range parts[1:] {
		if p == "" {
			subs = append(subs, -1)
			continue
		}
		n, _ := strconv.Atoi(p)
		subs = append(subs, n)
	}
	return SGRParam{Base: base, Subs: subs}
}

func (e *Emulator) executeCSI(final rune) {
	isPrivate := e.csiPrivate == '?'

	switch final {
	case 'A':
		e.term.CursorUp(e.csiInt(0, 1))
	case 'B':
		e.term.CursorDown(e.csiInt(0, 1))
	case 'C':
		e.term.CursorForward(e.csiInt(0, 1))
	case 'D':
		e.term.CursorBackward(e.csiInt(0, 1))
	case 'E':
		e.term.CursorNextLine(e.csiInt(0, 1))
	case 'F':
		e.term.CursorPrevLine(e.csiInt(0, 1))
	case 'G', '`':
		e.term.CursorHorizontalAbsolute(e.csiInt(0, 1) - 1)
	case 'H', 'f':
		e.term.CursorPosition(e.csiInt(0, 1)-1, e.csiInt(1, 1)-1)
	case 'J':
		e.term.EraseInDisplay(e.csiIntAllowZero(0, 0))
	case 'K':
		e.term.EraseInLine(e.csiIntAllowZero(0, 0))
	case 'L':
		e.term.InsertLines(e.csiInt(0, 1))
	case 'M':
		e.term.DeleteLines(e.csiInt(0, 1))
	case 'P':
		e.term.DeleteChars(e.csiInt(0, 1))
	case '@':
		e.term.InsertChars(e.csiInt(0, 1))
	case 'X':
		e.term.EraseChars(e.csiInt(0, 1))
	case 'S':
		e.term.ScrollUp(e.csiInt(0, 1))
	case 'T':
		e.term.ScrollDown(e.csiInt(0, 1))
	case 'd':
		e.term.VerticalPositionAbsolute(e.csiInt(0, 1) - 1)
	case 'g':
		e.term.ClearTabStop(e.csiIntAllowZero(0, 0))
	case 'm':
		if isPrivate {
			break
		}
		e.term.SGR(e.sgrParams())
	case 'h', 'l':
		on := final == 'h'
		if len(e.csiRaw) == 0 {
			break
		}
		for i := range e.csiRaw {
			n := e.csiIntAllowZero(i, 0)
			if isPrivate {
				e.term.SetMode(DecPrivate(uint16(n)), on)
			} else {
				e.term.SetMode(Ansi(uint16(n)), on)
			}
		}
	case 'r':
		if isPrivate {
			break
		}
		top := e.csiInt(0, 1) - 1
		bottom := e.csiInt(1, 0) - 1
		e.term.SetScrollRegion(top, bottom)
	case 'n':
		e.term.DeviceStatusReport(e.csiInt(0, 0))
	case 'c':
		e.term.DeviceAttributes()
	case 's':
		e.term.SaveCursor()
	case 'u':
		e.term.RestoreCursor()
	case 'q':
		if e.csiIntermediate == ' ' {
			e.term.SetCursorStyle(e.csiIntAllowZero(0, 0))
		}
	default:
		e.log.Debug("unhandled CSI final byte", "final", string(final), "private", isPrivate)
	}
}

func (e *Emulator) oscString(r rune) {
	switch r {
	case 0x18, 0x1A: // CAN, SUB — abort the in-progress OSC, discard it
		e.state = stateGround
		return
	case 0x07, 0x1B:
		e.dispatchOSC(e.oscBuf.String())
		if r == 0x1B {
			// ESC alone (rather than a proper ESC \ ST) is treated as a
			// terminator too, matching real-world program behavior even
			// though strictly this should be ESC \.
			e.state = stateEscape
			return
		}
		e.state = stateGround
		return
	}
	e.oscBuf.WriteRune(r)
}

func (e *Emulator) dispatchOSC(payload string) {
	semi := strings.IndexByte(payload, ';')
	var cmd, rest string
	if semi < 0 {
		cmd, rest = payload, ""
	} else {
		cmd, rest = payload[:semi], payload[semi+1:]
	}
	n, err := strconv.Atoi(cmd)
	if err != nil {
		e.log.Debug("unparseable OSC command", "payload", payload)
		return
	}
	switch n {
	case 0, 2:
		e.term.SetTitle(rest)
	case 1:
		e.term.SetIconName(rest)
	case 4:
		e.dispatchOSCPalette(rest)
	case 8:
		e.dispatchHyperlink(rest)
	case 10, 11, 12:
		// Query/set of dynamic colors: a bare "?" calls RequestColor,
		// whose reply string is discarded here — no reply is written back
		// to the PTY. Any other payload (a set) is ignored.
		if rest == "?" {
			e.term.RequestColor(OSCColorRequest(n))
		}
	default:
		e.log.Debug("unhandled OSC command", "n", n)
	}
}

func (e *Emulator) dispatchOSCPalette(rest string) {
	parts := strings.Split(rest, ";")
	for i := 0; i+1 < len(parts); i += 2 {
		idx, err := strconv.Atoi(parts[i])
		if err != nil {
			continue
		}
		if parts[i+1] == "?" {
			continue
		}
		c, ok := ParseHexColor(parts[i+1])
		if !ok {
			continue
		}
		e.term.SetPaletteColor(idx, c)
	}
}

func (e *Emulator) dispatchHyperlink(rest string) {
	semi := strings.IndexByte(rest, ';')
	if semi < 0 {
		e.term.EndHyperlink()
		return
	}
	params, uri := rest[:semi], rest[semi+1:]
	if uri == "" {
		e.term.EndHyperlink()
		return
	}
	id := ""
	for _, kv := range strings.Split(params, ":") {
		if strings.HasPrefix(kv, "id=") {
			id = kv[3:]
		}
	}
	e.term.BeginHyperlink(id, uri)
}

// ParseHexColor parses a hex color string in "#RRGGBB" or "#RGB" form,
// the form OSC 4/10/11/12 use to set a color; it returns a true Color.
func ParseHexColor(s string) (Color, bool) {
	if len(s) == 0 || s[0] != '#' {
		return Color{}, false
	}
	s = s[1:]
	var r, g, b uint8
	switch len(s) {
	case 3:
		r = parseHexNibble(s[0]) * 17
		g = parseHexNibble(s[1]) * 17
		b = parseHexNibble(s[2]) * 17
	case 6:
		r = parseHexNibble(s[0])<<4 | parseHexNibble(s[1])
		g = parseHexNibble(s[2])<<4 | parseHexNibble(s[3])
		b = parseHexNibble(s[4])<<4 | parseHexNibble(s[5])
	default:
		return Color{}, false
	}
	return RGB(r, g, b), true
}

func parseHexNibble(c byte) uint8 {
	switch {
	case c >= '0' && c <= '9':
		return c - '0'
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10
	default:
		return 0
	}
}
