package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/basdxz/jediterm"
)

// renderLoopInterval is how often the renderer polls for damage. A real
// presentation layer would be driven by a dirty callback instead; this
// driver stays deliberately dumb and just polls.
const renderLoopInterval = 16 * time.Millisecond

// renderer paints damaged rows of buf onto w using plain SGR sequences,
// with no scrollback view and no selection highlighting.
type renderer struct {
	w    io.Writer
	buf  *jediterm.TerminalTextBuffer
	term *jediterm.JediTerminal

	lastStyle jediterm.Style
	haveStyle bool
}

func newRenderer(w io.Writer, buf *jediterm.TerminalTextBuffer, term *jediterm.JediTerminal) *renderer {
	return &renderer{w: w, buf: buf, term: term}
}

// full repaints every row, used on startup.
func (r *renderer) full() {
	cols, rows := r.buf.Size()
	var sb strings.Builder
	sb.WriteString("\x1b[2J\x1b[H")
	r.buf.Lock()
	for y := 0; y < rows; y++ {
		r.paintRow(&sb, y, cols)
	}
	r.buf.Unlock()
	r.placeCursor(&sb)
	io.WriteString(r.w, sb.String())
}

// damaged repaints only the rows named by rows.
func (r *renderer) damaged(rows []jediterm.DamageLine) {
	if len(rows) == 0 {
		return
	}
	cols, _ := r.buf.Size()
	var sb strings.Builder
	r.buf.Lock()
	for _, d := range rows {
		sb.WriteString(fmt.Sprintf("\x1b[%d;1H", d.Y+1))
		r.paintRow(&sb, d.Y, cols)
	}
	r.buf.Unlock()
	r.placeCursor(&sb)
	io.WriteString(r.w, sb.String())
}

// paintRow must be called with the buffer lock held.
func (r *renderer) paintRow(sb *strings.Builder, y, cols int) {
	line := r.buf.LineLocked(y)
	for x := 0; x < cols; x++ {
		cell := line.At(x)
		if cell.WideContinuation {
			continue
		}
		r.applyStyle(sb, cell.Style)
		sb.WriteString(cell.String())
	}
}

// applyStyle emits an SGR sequence only when the style actually changed
// from the previous cell painted, to keep output from ballooning into one
// reset-and-reapply per character.
func (r *renderer) applyStyle(sb *strings.Builder, style jediterm.Style) {
	if r.haveStyle && style == r.lastStyle {
		return
	}
	r.lastStyle = style
	r.haveStyle = true

	sb.WriteString("\x1b[0")
	if style.Bold {
		sb.WriteString(";1")
	}
	if style.Dim {
		sb.WriteString(";2")
	}
	if style.Italic {
		sb.WriteString(";3")
	}
	if style.Underline {
		sb.WriteString(";4")
	}
	if style.Blink {
		sb.WriteString(";5")
	}
	if style.Reverse {
		sb.WriteString(";7")
	}
	if style.Strikethrough {
		sb.WriteString(";9")
	}
	if !style.Foreground.IsDefault() {
		rr, gg, bb := style.Foreground.RGB256()
		sb.WriteString(fmt.Sprintf(";38;2;%d;%d;%d", rr, gg, bb))
	}
	if !style.Background.IsDefault() {
		rr, gg, bb := style.Background.RGB256()
		sb.WriteString(fmt.Sprintf(";48;2;%d;%d;%d", rr, gg, bb))
	}
	sb.WriteString("m")
}

func (r *renderer) placeCursor(sb *strings.Builder) {
	x, y := r.term.Cursor()
	sb.WriteString(fmt.Sprintf("\x1b[%d;%dH", y+1, x+1))
}

// restore leaves the cursor visible and style reset when the session ends.
func (r *renderer) restore() {
	io.WriteString(r.w, "\x1b[0m\r\n")
}

// watchDamage polls the buffer for damaged rows and repaints them, and
// rings the host terminal's bell whenever the emulator's own bell fires.
func watchDamage(r *renderer, jterm *jediterm.JediTerminal, stop <-chan struct{}) {
	ticker := time.NewTicker(renderLoopInterval)
	defer ticker.Stop()
	bell := jterm.BellSignal()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			r.damaged(r.buf.DrainDamage())
		case <-bell:
			io.WriteString(r.w, "\a")
		}
	}
}
