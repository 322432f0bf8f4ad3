package jediterm

import "github.com/mattn/go-runewidth"

// UnderlineStyle distinguishes the rendering of an underline attribute set
// by SGR 4 and its colon-separated subparameter (SGR 4:0 through 4:5).
type UnderlineStyle int

const (
	UnderlineNone UnderlineStyle = iota
	UnderlineSingle
	UnderlineDouble
	UnderlineCurly
	UnderlineDotted
	UnderlineDashed
)

// Style holds every SGR-settable attribute other than the character itself.
// It is copied by value into each Cell so that scrolling and history never
// need to chase shared pointers.
type Style struct {
	Foreground        Color
	Background        Color
	Bold              bool
	Dim               bool
	Italic            bool
	Underline         bool
	UnderlineStyle    UnderlineStyle
	UnderlineColor    Color
	HasUnderlineColor bool
	Reverse           bool
	Blink             bool
	Strikethrough     bool
	Hidden            bool
	LinkID            uint32 // 0 means "no hyperlink"; see buffer.go's link table
}

// DefaultStyle is the style new cells and SGR reset (CSI 0 m) revert to.
var DefaultStyle = Style{Foreground: DefaultColor, Background: DefaultColor}

// Cell is a single character position in a Line. Combining marks that
// follow a base character are folded into Combining rather than given
// their own cell, matching how a VT-family terminal renders them visually
// attached to the preceding glyph.
type Cell struct {
	Char      rune
	Combining string
	Style     Style
	// WideContinuation marks the right-hand half of a double-width
	// character's two-cell span; it carries no glyph of its own and a
	// renderer skips it when painting. Cursor movement and erasure do not
	// treat it specially, so either can split a wide pair.
	WideContinuation bool
}

// Width reports how many terminal columns c occupies: 0 for a wide
// character's continuation cell, 1 for ordinary and combining-attached
// characters, 2 for CJK/wide runes as measured by go-runewidth.
func (c Cell) Width() int {
	if c.WideContinuation {
		return 0
	}
	if c.Char == 0 {
		return 1
	}
	return runewidth.RuneWidth(c.Char)
}

// String returns the full rendered text of the cell, base character plus
// any combining marks attached to it.
func (c Cell) String() string {
	if c.Combining == "" {
		return string(c.Char)
	}
	return string(c.Char) + c.Combining
}

// EmptyCell returns a blank cell (space) carrying the given style; blank
// padding produced by erase/resize operations always carries the style
// active at the time of the erase, per spec.
func EmptyCell(style Style) Cell {
	return Cell{Char: ' ', Style: style}
}

// IsCombiningMark reports whether r is a Unicode combining character that
// should be folded onto the preceding cell rather than occupy one of its
// own. The ranges below cover the combining-mark blocks a VT-family
// terminal is expected to render attached: diacritics, Hebrew/Arabic/Thai/
// Indic vowel signs, Hangul fill characters, variation selectors, and the
// zero-width joiner/non-joiner pair.
func IsCombiningMark(r rune) bool {
	switch {
	case r >= 0x0300 && r <= 0x036F,
		r >= 0x1AB0 && r <= 0x1AFF,
		r >= 0x1DC0 && r <= 0x1DFF,
		r >= 0x20D0 && r <= 0x20FF,
		r >= 0xFE20 && r <= 0xFE2F,
		r >= 0x0591 && r <= 0x05BD,
		r == 0x05BF || r == 0x05C1 || r == 0x05C2 || r == 0x05C4 || r == 0x05C5 || r == 0x05C7,
		r >= 0x0610 && r <= 0x061A,
		r >= 0x064B && r <= 0x065F,
		r == 0x0670,
		r >= 0x06D6 && r <= 0x06DC,
		r >= 0x06DF && r <= 0x06E4,
		r >= 0x06E7 && r <= 0x06E8,
		r >= 0x06EA && r <= 0x06ED,
		r >= 0x0E31 && r <= 0x0E3A,
		r >= 0x0E47 && r <= 0x0E4E,
		r >= 0x0901 && r <= 0x0903,
		r >= 0x093A && r <= 0x094F,
		r >= 0x0951 && r <= 0x0957,
		r >= 0x0962 && r <= 0x0963,
		r >= 0x1160 && r <= 0x11FF,
		r >= 0xFE00 && r <= 0xFE0F,
		r == 0x200C || r == 0x200D:
		return true
	default:
		return false
	}
}

// LineAttribute records a VT100 double-width/double-height line mode
// (DECDWL/DECDHL), set by ESC # 3/4/5/6.
type LineAttribute int

const (
	LineAttrNormal LineAttribute = iota
	LineAttrDoubleWidth
	LineAttrDoubleTop
	LineAttrDoubleBottom
)

// Line is one row of the screen or scrollback. It grows lazily: a newly
// created or newly-scrolled-in line has len(Cells) == 0, and reads past the
// end are padded with DefaultCell rather than forcing every blank line to
// allocate a full row of cells.
type Line struct {
	Cells       []Cell
	Wrapped     bool // true if this line's trailing character caused a deferred wrap onto the next line
	Attribute   LineAttribute
	DefaultCell Cell
}

// NewLine returns an empty line using style as its default fill.
func NewLine(style Style) Line {
	return Line{DefaultCell: EmptyCell(style)}
}

// At returns the cell at column x, padding with DefaultCell if x is past
// the end of the stored Cells slice.
func (l Line) At(x int) Cell {
	if x < 0 || x >= len(l.Cells) {
		return l.DefaultCell
	}
	return l.Cells[x]
}

// Packed returns a copy of the line truncated or padded with DefaultCell
// to exactly cols cells, suitable for a renderer that wants a fixed-width
// row without per-cell bounds checks.
func (l Line) Packed(cols int) []Cell {
	out := make([]Cell, cols)
	for x := 0; x < cols; x++ {
		out[x] = l.At(x)
	}
	return out
}

// Trimmed returns the line's cells with trailing default-style blanks
// removed, the representation used when pushing a line into scrollback
// history so blank padding does not bloat it.
func (l Line) Trimmed() []Cell {
	end := len(l.Cells)
	for end > 0 && l.Cells[end-1] == l.DefaultCell {
		end--
	}
	return l.Cells[:end]
}
