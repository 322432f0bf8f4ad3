package jediterm

import (
	"log/slog"
	"sync"
)

// JediTerminal implements the Terminal facade the Emulator drives. It
// owns cursor position, the current SGR style, the DEC mode bag, tab
// stops, and the scroll region, and translates every dispatch into
// TerminalTextBuffer operations.
type JediTerminal struct {
	buf *TerminalTextBuffer

	cols, rows int

	cursorX, cursorY int
	savedX, savedY   int
	savedStyle       Style
	hasSaved         bool

	style Style

	modes    *Modes
	tabs     *TabStops
	region   ScrollRegion

	pendingWrap bool
	cursorStyle int

	linkID  string
	linkURI string

	title    string
	iconName string

	bellCh chan struct{}

	disconnectedCh chan struct{}
	disconnectOnce sync.Once

	typeAhead *TypeAheadManager

	log *slog.Logger
}

// SetTypeAheadManager wires a TypeAheadManager into the terminal so
// WriteChar can reconcile real emulator output against outstanding
// predictions as it arrives.
func (t *JediTerminal) SetTypeAheadManager(m *TypeAheadManager) {
	t.typeAhead = m
}

// NewJediTerminal returns a terminal of the given size backed by buf.
func NewJediTerminal(buf *TerminalTextBuffer, cols, rows int, log *slog.Logger) *JediTerminal {
	t := &JediTerminal{
		buf:            buf,
		cols:           cols,
		rows:           rows,
		style:          DefaultStyle,
		modes:          NewModes(),
		tabs:           NewTabStops(cols),
		region:         Full(rows),
		bellCh:         make(chan struct{}, 1),
		disconnectedCh: make(chan struct{}),
		log:            orNopLogger(log),
	}
	return t
}

// Cursor returns the current 0-based cursor position.
func (t *JediTerminal) Cursor() (x, y int) {
	return t.cursorX, t.cursorY
}

// Title returns the last OSC 0/2-set window title.
func (t *JediTerminal) Title() string { return t.title }

// BellSignal returns a channel that receives a value (non-blocking, best
// effort) each time BEL is dispatched.
func (t *JediTerminal) BellSignal() <-chan struct{} { return t.bellCh }

func (t *JediTerminal) Bell() {
	select {
	case t.bellCh <- struct{}{}:
	default:
	}
}

// DisconnectedSignal returns a channel that is closed once, the first
// time Disconnected is called.
func (t *JediTerminal) DisconnectedSignal() <-chan struct{} { return t.disconnectedCh }

// Disconnected is called when the connector is gone for good: from
// TerminalStarter's reader goroutine when IsConnected() goes false or
// its consecutive-error breaker trips, and from the executor goroutine
// when SendBytes hits a persistent write failure — so two different
// goroutines can race to call it. sync.Once makes the first call win,
// closing disconnectedCh so anything selecting on DisconnectedSignal
// wakes up; every later call, racing or not, is a no-op rather than a
// panic on an already-closed channel.
func (t *JediTerminal) Disconnected() {
	t.disconnectOnce.Do(func() {
		close(t.disconnectedCh)
		t.log.Warn("terminal disconnected")
	})
}

// --- printing and the deferred wrap rule ---

// WriteChar prints r at the cursor, handling combining marks, wide
// characters, and the deferred wrap rule: reaching the right margin sets
// pendingWrap instead of immediately wrapping, and the wrap (a line feed
// plus carriage return, with the just-finished line flagged Wrapped) only
// actually happens in front of the *next* printed character — so a
// program that writes exactly to the last column and then issues a
// cursor-position command never sees a phantom blank line.
func (t *JediTerminal) WriteChar(r rune) {
	if IsCombiningMark(r) {
		t.attachCombining(r)
		return
	}

	width := 1
	if wide := cellWidth(r); wide == 2 {
		width = 2
	}

	if t.pendingWrap {
		t.doDeferredWrap()
	}

	if t.cursorX+width > t.cols {
		if t.modes.Get(ModeAutoWrap) {
			t.pendingWrap = false
			t.doDeferredWrap()
		} else {
			t.cursorX = t.cols - width
			if t.cursorX < 0 {
				t.cursorX = 0
			}
		}
	}

	if t.typeAhead != nil {
		t.typeAhead.Reconcile(t.cursorX, t.cursorY, r)
	}

	cell := Cell{Char: r, Style: t.style}
	if width == 2 {
		t.buf.Write(t.cursorX, t.cursorY, []Cell{cell, {Char: r, Style: t.style, WideContinuation: true}})
		t.cursorX += 2
	} else {
		t.buf.SetCell(t.cursorX, t.cursorY, cell)
		t.cursorX++
	}

	if t.cursorX >= t.cols {
		t.cursorX = t.cols - 1
		if t.modes.Get(ModeAutoWrap) {
			t.pendingWrap = true
		}
	}
}

func cellWidth(r rune) int {
	return Cell{Char: r}.Width()
}

func (t *JediTerminal) attachCombining(r rune) {
	x, y := t.cursorX-1, t.cursorY
	if t.pendingWrap {
		// The combining mark belongs to the character that triggered
		// the pending wrap, which is still the last column of the
		// current line, not the (not yet started) next one.
		x, y = t.cols-1, t.cursorY
	}
	if x < 0 {
		return
	}
	line := t.buf.Line(y)
	cell := line.At(x)
	cell.Combining += string(r)
	t.buf.SetCell(x, y, cell)
}

// doDeferredWrap performs the wrap a prior WriteChar deferred: flags the
// just-filled line as Wrapped and moves to column 0 of the next line,
// scrolling the scroll region if already at its bottom.
func (t *JediTerminal) doDeferredWrap() {
	t.pendingWrap = false
	t.buf.Lock()
	t.buf.SetWrappedLocked(t.cursorY, true)
	t.buf.Unlock()
	t.cursorX = 0
	t.advanceLine()
}

// advanceLine moves the cursor down one row, scrolling the scroll region
// if the cursor is already at its bottom edge.
func (t *JediTerminal) advanceLine() {
	if t.cursorY == t.region.Bottom {
		t.buf.ScrollArea(t.region.Top, t.region.Bottom, 1, t.style)
		return
	}
	if t.cursorY < t.rows-1 {
		t.cursorY++
	}
}

func (t *JediTerminal) LineFeed() {
	t.pendingWrap = false
	t.advanceLine()
}

func (t *JediTerminal) CarriageReturn() {
	t.pendingWrap = false
	t.cursorX = 0
}

func (t *JediTerminal) Backspace() {
	t.pendingWrap = false
	if t.cursorX > 0 {
		t.cursorX--
	}
}

func (t *JediTerminal) Tab() {
	t.pendingWrap = false
	t.cursorX = t.tabs.Next(t.cursorX)
}

func (t *JediTerminal) BackTab() {
	t.pendingWrap = false
	t.cursorX = t.tabs.Prev(t.cursorX)
}

// --- cursor motion, clamped to the scroll region when origin mode is set ---

func (t *JediTerminal) clampY(y int) int {
	if t.modes.Get(ModeOriginMode) {
		return t.region.Clamp(y)
	}
	if y < 0 {
		return 0
	}
	if y > t.rows-1 {
		return t.rows - 1
	}
	return y
}

func (t *JediTerminal) clampX(x int) int {
	if x < 0 {
		return 0
	}
	if x > t.cols-1 {
		return t.cols - 1
	}
	return x
}

func (t *JediTerminal) CursorUp(n int) {
	t.pendingWrap = false
	t.cursorY = t.clampY(t.cursorY - n)
}

func (t *JediTerminal) CursorDown(n int) {
	t.pendingWrap = false
	t.cursorY = t.clampY(t.cursorY + n)
}

func (t *JediTerminal) CursorForward(n int) {
	t.pendingWrap = false
	t.cursorX = t.clampX(t.cursorX + n)
}

func (t *JediTerminal) CursorBackward(n int) {
	t.pendingWrap = false
	t.cursorX = t.clampX(t.cursorX - n)
}

func (t *JediTerminal) CursorNextLine(n int) {
	t.CursorDown(n)
	t.cursorX = 0
}

func (t *JediTerminal) CursorPrevLine(n int) {
	t.CursorUp(n)
	t.cursorX = 0
}

func (t *JediTerminal) CursorHorizontalAbsolute(x int) {
	t.pendingWrap = false
	t.cursorX = t.clampX(x)
}

func (t *JediTerminal) VerticalPositionAbsolute(y int) {
	t.pendingWrap = false
	t.cursorY = t.clampY(y)
}

func (t *JediTerminal) CursorPosition(row, col int) {
	t.pendingWrap = false
	base := 0
	if t.modes.Get(ModeOriginMode) {
		base = t.region.Top
	}
	t.cursorY = t.clampY(base + row)
	t.cursorX = t.clampX(col)
}

// SaveCursor implements DECSC: unlike the position-only save this
// replaces, it also preserves the current SGR style, matching xterm's
// DECSC/DECRC contract that a restored cursor brings its attributes back
// with it.
func (t *JediTerminal) SaveCursor() {
	t.savedX, t.savedY = t.cursorX, t.cursorY
	t.savedStyle = t.style
	t.hasSaved = true
}

func (t *JediTerminal) RestoreCursor() {
	if !t.hasSaved {
		t.cursorX, t.cursorY = 0, 0
		return
	}
	t.pendingWrap = false
	t.cursorX, t.cursorY = t.savedX, t.savedY
	t.style = t.savedStyle
}

func (t *JediTerminal) Index() {
	t.advanceLine()
}

func (t *JediTerminal) ReverseIndex() {
	if t.cursorY == t.region.Top {
		t.buf.ScrollArea(t.region.Top, t.region.Bottom, -1, t.style)
		return
	}
	if t.cursorY > 0 {
		t.cursorY--
	}
}

func (t *JediTerminal) NextLine() {
	t.CarriageReturn()
	t.advanceLine()
}

// --- erase/insert/delete ---

func (t *JediTerminal) EraseInDisplay(mode int) {
	switch mode {
	case 0:
		t.buf.ClearArea(t.cursorX, t.cursorY, t.cols-1, t.cursorY, t.style)
		t.buf.ClearArea(0, t.cursorY+1, t.cols-1, t.rows-1, t.style)
	case 1:
		t.buf.ClearArea(0, 0, t.cols-1, t.cursorY-1, t.style)
		t.buf.ClearArea(0, t.cursorY, t.cursorX, t.cursorY, t.style)
	case 2, 3:
		t.buf.ClearArea(0, 0, t.cols-1, t.rows-1, t.style)
	}
}

func (t *JediTerminal) EraseInLine(mode int) {
	switch mode {
	case 0:
		t.buf.ClearArea(t.cursorX, t.cursorY, t.cols-1, t.cursorY, t.style)
	case 1:
		t.buf.ClearArea(0, t.cursorY, t.cursorX, t.cursorY, t.style)
	case 2:
		t.buf.ClearArea(0, t.cursorY, t.cols-1, t.cursorY, t.style)
	}
}

func (t *JediTerminal) InsertLines(n int) {
	t.buf.InsertLines(t.cursorY, t.region.Top, t.region.Bottom, n, t.style)
}

func (t *JediTerminal) DeleteLines(n int) {
	t.buf.DeleteLines(t.cursorY, t.region.Top, t.region.Bottom, n, t.style)
}

func (t *JediTerminal) InsertChars(n int) {
	t.buf.InsertCharsAt(t.cursorX, t.cursorY, n, t.style)
}

func (t *JediTerminal) DeleteChars(n int) {
	t.buf.DeleteCharsAt(t.cursorX, t.cursorY, n)
}

func (t *JediTerminal) EraseChars(n int) {
	t.buf.EraseCharsAt(t.cursorX, t.cursorY, n, t.style)
}

func (t *JediTerminal) ScrollUp(n int) {
	t.buf.ScrollArea(t.region.Top, t.region.Bottom, n, t.style)
}

func (t *JediTerminal) ScrollDown(n int) {
	t.buf.ScrollArea(t.region.Top, t.region.Bottom, -n, t.style)
}

// SetScrollRegion implements DECSTBM. A region whose bottom was not given
// (bottom < top after defaulting) reverts to the full screen, matching
// "CSI r" with no parameters.
func (t *JediTerminal) SetScrollRegion(top, bottom int) {
	if bottom <= top || bottom >= t.rows {
		bottom = t.rows - 1
	}
	if top < 0 {
		top = 0
	}
	t.region = ScrollRegion{Top: top, Bottom: bottom}
	t.cursorX, t.cursorY = 0, 0
	if t.modes.Get(ModeOriginMode) {
		t.cursorY = top
	}
}

func (t *JediTerminal) SetTabStop() {
	t.tabs.Set(t.cursorX)
}

func (t *JediTerminal) ClearTabStop(mode int) {
	switch mode {
	case 0:
		t.tabs.Clear(t.cursorX)
	case 3:
		t.tabs.ClearAll()
	}
}

func (t *JediTerminal) SetLineAttribute(attr LineAttribute) {
	t.buf.Lock()
	line := t.buf.LineLocked(t.cursorY)
	line.Attribute = attr
	t.buf.SetLineLocked(t.cursorY, line)
	t.buf.Unlock()
}

func (t *JediTerminal) ScreenAlignmentTest() {
	for y := 0; y < t.rows; y++ {
		cells := make([]Cell, t.cols)
		for x := range cells {
			cells[x] = Cell{Char: 'E', Style: DefaultStyle}
		}
		t.buf.Write(0, y, cells)
	}
	t.cursorX, t.cursorY = 0, 0
}

func (t *JediTerminal) SetCursorStyle(style int) {
	// Cursor glyph shape (block/underline/bar) is a presentation concern;
	// this core only needs to remember and expose it for a renderer.
	t.cursorStyle = style
}

// CursorStyle returns the cursor glyph shape last set via DECSCUSR, for a
// presentation layer to render.
func (t *JediTerminal) CursorStyle() int { return t.cursorStyle }

// --- modes ---

func (t *JediTerminal) SetMode(mode Mode, on bool) {
	switch mode {
	case ModeAltScreen47, ModeAltScreen1047:
		t.buf.UseAlternateBuffer(on, t.style)
	case ModeAltScreen1049:
		if on {
			t.SaveCursor()
			t.buf.UseAlternateBuffer(true, t.style)
			t.buf.ClearArea(0, 0, t.cols-1, t.rows-1, t.style)
		} else {
			t.buf.UseAlternateBuffer(false, t.style)
			t.RestoreCursor()
		}
	}
	t.modes.Set(mode, on)
}

// --- SGR ---

// SGR applies a sequence of SGR parameters to the current style, in
// order, so later parameters in the same CSI sequence override earlier
// ones exactly as a real terminal would process "CSI 1;31;4 m" left to
// right.
func (t *JediTerminal) SGR(params []SGRParam) {
	for i := 0; i < len(params); i++ {
		p := params[i]
		switch {
		case p.Base == 0:
			t.style = DefaultStyle
		case p.Base == 1:
			t.style.Bold = true
		case p.Base == 2:
			t.style.Dim = true
		case p.Base == 3:
			t.style.Italic = true
		case p.Base == 4:
			t.style.Underline = true
			t.style.UnderlineStyle = sgrUnderlineStyle(p.Subs)
		case p.Base == 5 || p.Base == 6:
			t.style.Blink = true
		case p.Base == 7:
			t.style.Reverse = true
		case p.Base == 8:
			t.style.Hidden = true
		case p.Base == 9:
			t.style.Strikethrough = true
		case p.Base == 21 || p.Base == 22:
			t.style.Bold, t.style.Dim = false, false
		case p.Base == 23:
			t.style.Italic = false
		case p.Base == 24:
			t.style.Underline = false
			t.style.UnderlineStyle = UnderlineNone
		case p.Base == 25:
			t.style.Blink = false
		case p.Base == 27:
			t.style.Reverse = false
		case p.Base == 28:
			t.style.Hidden = false
		case p.Base == 29:
			t.style.Strikethrough = false
		case p.Base >= 30 && p.Base <= 37:
			t.style.Foreground = Palette(uint8(p.Base - 30))
		case p.Base == 38:
			if c, ok := extendedColor(p, params, &i); ok {
				t.style.Foreground = c
			}
		case p.Base == 39:
			t.style.Foreground = DefaultColor
		case p.Base >= 40 && p.Base <= 47:
			t.style.Background = Palette(uint8(p.Base - 40))
		case p.Base == 48:
			if c, ok := extendedColor(p, params, &i); ok {
				t.style.Background = c
			}
		case p.Base == 49:
			t.style.Background = DefaultColor
		case p.Base == 58:
			if c, ok := extendedColor(p, params, &i); ok {
				t.style.UnderlineColor = c
				t.style.HasUnderlineColor = true
			}
		case p.Base == 59:
			t.style.HasUnderlineColor = false
		case p.Base >= 90 && p.Base <= 97:
			t.style.Foreground = Palette(uint8(p.Base-90) + 8)
		case p.Base >= 100 && p.Base <= 107:
			t.style.Background = Palette(uint8(p.Base-100) + 8)
		}
	}
}

func sgrUnderlineStyle(subs []int) UnderlineStyle {
	if len(subs) == 0 {
		return UnderlineSingle
	}
	switch subs[0] {
	case 0:
		return UnderlineNone
	case 2:
		return UnderlineDouble
	case 3:
		return UnderlineCurly
	case 4:
		return UnderlineDotted
	case 5:
		return UnderlineDashed
	default:
		return UnderlineSingle
	}
}

// clampByte folds n into a color component's valid [0, 255] range rather
// than letting a uint8 conversion wrap it (CSI 38;5;300m must land on
// palette index 255, not silently wrap around to palette index 44).
func clampByte(n int) uint8 {
	if n < 0 {
		return 0
	}
	if n > 255 {
		return 255
	}
	return uint8(n)
}

// extendedColor decodes SGR 38/48/58's extended color forms, both the
// colon-subparameter form of the current parameter (38:5:N or
// 38:2::R:G:B) and the legacy semicolon-separated form that spreads
// across subsequent whole SGR parameters (38;5;N or 38;2;R;G;B) — the
// latter requires advancing i past the parameters it consumes.
func extendedColor(p SGRParam, params []SGRParam, i *int) (Color, bool) {
	if len(p.Subs) > 0 {
		switch p.Subs[0] {
		case 5:
			if len(p.Subs) >= 2 {
				return Palette(clampByte(p.Subs[1])), true
			}
		case 2:
			// subs may be [2, R, G, B] or [2, cs, R, G, B] with an empty
			// colorspace field recorded as -1.
			vals := p.Subs[1:]
			if len(vals) >= 3 && vals[0] == -1 {
				vals = vals[1:]
			}
			if len(vals) >= 3 {
				return RGB(clampByte(vals[0]), clampByte(vals[1]), clampByte(vals[2])), true
			}
		}
		return Color{}, false
	}
	idx := *i
	if idx+1 >= len(params) {
		return Color{}, false
	}
	switch params[idx+1].Base {
	case 5:
		if idx+2 < len(params) {
			*i += 2
			return Palette(clampByte(params[idx+2].Base)), true
		}
	case 2:
		if idx+4 < len(params) {
			r, g, b := params[idx+2].Base, params[idx+3].Base, params[idx+4].Base
			*i += 4
			return RGB(clampByte(r), clampByte(g), clampByte(b)), true
		}
	}
	return Color{}, false
}

// --- device status / introspection ---

func (t *JediTerminal) DeviceStatusReport(param int) {
	// This core sends no DSR reply and records nothing for CSI n; the
	// sequence is accepted and ignored.
}

func (t *JediTerminal) DeviceAttributes() {
	// CSI c (DA) replies are likewise out of scope for this core.
}

// --- OSC ---

func (t *JediTerminal) SetTitle(title string)    { t.title = title }
func (t *JediTerminal) SetIconName(name string)  { t.iconName = name }

func (t *JediTerminal) BeginHyperlink(id, uri string) {
	t.linkID, t.linkURI = id, uri
	t.style.LinkID = t.buf.internLink(uri)
}

func (t *JediTerminal) EndHyperlink() {
	t.linkID, t.linkURI = "", ""
	t.style.LinkID = 0
}

func (t *JediTerminal) SetPaletteColor(index int, color Color) {
	// Custom palette remapping is a presentation-layer concern once the
	// color is resolved; this core just needs the OSC 4 set/query path to
	// not crash a program that issues it, per spec.
}

func (t *JediTerminal) RequestColor(kind OSCColorRequest) string {
	switch kind {
	case OSCForeground:
		return colorToOSCReply(t.style.Foreground)
	case OSCBackground:
		return colorToOSCReply(t.style.Background)
	default:
		return ""
	}
}

func colorToOSCReply(c Color) string {
	r, g, b := c.RGB256()
	return "rgb:" + hex2(r) + "/" + hex2(g) + "/" + hex2(b)
}

func hex2(b uint8) string {
	const hex = "0123456789abcdef"
	return string([]byte{hex[b>>4], hex[b&0xF]})
}

func (t *JediTerminal) ResetPaletteColor(index int) {}

// TermSize is a terminal's column/row dimensions.
type TermSize struct {
	Cols, Rows int
}

// RequestOrigin distinguishes a resize requested by the hosting UI (the
// user dragged a window edge) from one reported by the remote process
// itself, so a future policy difference (e.g. whether to clamp the
// cursor) has somewhere to hang without changing Resize's signature.
type RequestOrigin int

const (
	RequestOriginUser RequestOrigin = iota
	RequestOriginRemote
)

// Resize changes the terminal's dimensions, reflowing the primary screen
// and leaving the alternate screen untouched in content (only truncated/
// padded), then clamps the cursor and scroll region to the new size.
func (t *JediTerminal) Resize(size TermSize, origin RequestOrigin) {
	_ = origin
	wasFullRegion := t.region == Full(t.rows)
	t.cursorX, t.cursorY = t.buf.Resize(size.Cols, size.Rows, t.style, t.cursorX, t.cursorY)
	t.cols, t.rows = size.Cols, size.Rows
	t.tabs.Resize(size.Cols)
	if wasFullRegion {
		t.region = Full(t.rows)
	} else {
		t.region.Bottom = min(t.region.Bottom, t.rows-1)
		t.region.Top = min(t.region.Top, t.region.Bottom)
	}
	t.cursorX = t.clampX(t.cursorX)
	t.cursorY = t.clampY(t.cursorY)
	t.pendingWrap = false
}

// --- reset ---

func (t *JediTerminal) Reset() {
	t.cursorX, t.cursorY = 0, 0
	t.pendingWrap = false
	t.style = DefaultStyle
	t.modes.Reset()
	t.tabs.Reset(t.cols)
	t.region = Full(t.rows)
	t.hasSaved = false
	t.buf.ClearArea(0, 0, t.cols-1, t.rows-1, DefaultStyle)
}
