package jediterm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBufferWriteAndDrainDamage(t *testing.T) {
	b := NewTerminalTextBuffer(5, 3, 10, nil)

	b.SetCell(0, 1, Cell{Char: 'x'})
	damage := b.DrainDamage()
	require.Len(t, damage, 1)
	assert.Equal(t, 1, damage[0].Y)

	// A second drain with nothing written since finds no damage.
	assert.Empty(t, b.DrainDamage())
}

func TestBufferScrollAreaFullScreenFeedsHistory(t *testing.T) {
	b := NewTerminalTextBuffer(5, 3, 10, nil)
	b.SetCell(0, 0, Cell{Char: 'A'})
	b.SetCell(0, 1, Cell{Char: 'B'})
	b.SetCell(0, 2, Cell{Char: 'C'})

	b.ScrollArea(0, 2, 1, DefaultStyle)

	require.Equal(t, 1, b.HistoryLen())
	hist, ok := b.HistoryLine(0)
	require.True(t, ok)
	assert.Equal(t, 'A', hist.At(0).Char)

	assert.Equal(t, 'B', b.Line(0).At(0).Char)
	assert.Equal(t, 'C', b.Line(1).At(0).Char)
	assert.Equal(t, EmptyCell(DefaultStyle), b.Line(2).At(0))
}

func TestBufferScrollAreaPartialRegionDiscardsNoHistory(t *testing.T) {
	b := NewTerminalTextBuffer(5, 4, 10, nil)
	b.SetCell(0, 1, Cell{Char: 'A'})
	b.SetCell(0, 2, Cell{Char: 'B'})

	// Region [1,2] is not the whole screen, so the scrolled-off line is
	// discarded rather than pushed to history.
	b.ScrollArea(1, 2, 1, DefaultStyle)

	assert.Equal(t, 0, b.HistoryLen())
	assert.Equal(t, 'B', b.Line(1).At(0).Char)
}

func TestBufferScrollAreaAlternateScreenNeverFeedsHistory(t *testing.T) {
	b := NewTerminalTextBuffer(5, 3, 10, nil)
	b.UseAlternateBuffer(true, DefaultStyle)
	b.SetCell(0, 0, Cell{Char: 'A'})

	b.ScrollArea(0, 2, 1, DefaultStyle)

	assert.Equal(t, 0, b.HistoryLen())
}

func TestBufferScrollAreaNegativeCountScrollsDown(t *testing.T) {
	b := NewTerminalTextBuffer(5, 3, 10, nil)
	b.SetCell(0, 0, Cell{Char: 'A'})
	b.SetCell(0, 1, Cell{Char: 'B'})

	b.ScrollArea(0, 2, -1, DefaultStyle)

	assert.Equal(t, EmptyCell(DefaultStyle), b.Line(0).At(0))
	assert.Equal(t, 'A', b.Line(1).At(0).Char)
	assert.Equal(t, 'B', b.Line(2).At(0).Char)
}

func TestBufferInsertAndDeleteLines(t *testing.T) {
	b := NewTerminalTextBuffer(5, 4, 10, nil)
	for y := 0; y < 4; y++ {
		b.SetCell(0, y, Cell{Char: rune('A' + y)})
	}

	b.InsertLines(1, 0, 3, 1, DefaultStyle)
	assert.Equal(t, 'A', b.Line(0).At(0).Char)
	assert.Equal(t, EmptyCell(DefaultStyle), b.Line(1).At(0))
	assert.Equal(t, 'B', b.Line(2).At(0).Char)
	assert.Equal(t, 'C', b.Line(3).At(0).Char)

	b.DeleteLines(1, 0, 3, 1, DefaultStyle)
	assert.Equal(t, 'A', b.Line(0).At(0).Char)
	assert.Equal(t, 'B', b.Line(1).At(0).Char)
	assert.Equal(t, 'C', b.Line(2).At(0).Char)
	assert.Equal(t, EmptyCell(DefaultStyle), b.Line(3).At(0))
}

func TestBufferInsertDeleteEraseCharsAt(t *testing.T) {
	b := NewTerminalTextBuffer(6, 1, 10, nil)
	for i, r := range "ABCDE" {
		b.SetCell(i, 0, Cell{Char: r})
	}

	b.InsertCharsAt(1, 0, 2, DefaultStyle)
	line := b.Line(0)
	assert.Equal(t, 'A', line.At(0).Char)
	assert.Equal(t, ' ', line.At(1).Char)
	assert.Equal(t, ' ', line.At(2).Char)
	assert.Equal(t, 'B', line.At(3).Char)

	b.DeleteCharsAt(0, 0, 2)
	line = b.Line(0)
	assert.Equal(t, ' ', line.At(0).Char)
	assert.Equal(t, 'B', line.At(1).Char)

	b.EraseCharsAt(1, 0, 1, DefaultStyle)
	line = b.Line(0)
	assert.Equal(t, ' ', line.At(1).Char)
}

func TestBufferClearAreaTruncatesToEndOfLine(t *testing.T) {
	b := NewTerminalTextBuffer(5, 1, 10, nil)
	for i, r := range "ABC" {
		b.SetCell(i, 0, Cell{Char: r})
	}

	// Clearing to the last column of a line shorter than the buffer
	// width truncates rather than padding out to the full width.
	b.ClearArea(2, 0, 4, 0, DefaultStyle)
	line := b.Line(0)
	assert.Equal(t, 'A', line.At(0).Char)
	assert.Equal(t, 'B', line.At(1).Char)
	assert.Equal(t, 3, len(line.Cells))
}

func TestBufferUseAlternateBufferIsolatesContent(t *testing.T) {
	b := NewTerminalTextBuffer(5, 3, 10, nil)
	b.SetCell(0, 0, Cell{Char: 'M'})

	b.UseAlternateBuffer(true, DefaultStyle)
	assert.True(t, b.UsingAlternateBuffer())
	assert.Equal(t, EmptyCell(DefaultStyle), b.Line(0).At(0), "alternate screen starts blank")

	b.SetCell(0, 0, Cell{Char: 'A'})
	b.UseAlternateBuffer(false, DefaultStyle)
	assert.Equal(t, 'M', b.Line(0).At(0).Char, "primary screen content survives the round trip")
}

func TestBufferPushHistoryEvictsOldestAndTrimsTrailingBlanks(t *testing.T) {
	b := NewTerminalTextBuffer(5, 1, 2, nil)

	l1 := NewLine(DefaultStyle)
	l1.Cells = []Cell{{Char: '1'}, EmptyCell(DefaultStyle), EmptyCell(DefaultStyle)}
	b.pushHistory(l1)
	b.pushHistory(NewLine(DefaultStyle))
	b.pushHistory(NewLine(DefaultStyle))

	require.Equal(t, 2, b.HistoryLen())
	first, _ := b.HistoryLine(0)
	assert.Empty(t, first.Cells, "the line carrying '1' was evicted once maxHistory was exceeded")

	b2 := NewTerminalTextBuffer(5, 1, 5, nil)
	l2 := NewLine(DefaultStyle)
	l2.Cells = []Cell{{Char: 'x'}, EmptyCell(DefaultStyle), EmptyCell(DefaultStyle)}
	b2.pushHistory(l2)
	stored, _ := b2.HistoryLine(0)
	assert.Equal(t, 1, len(stored.Cells), "trailing default-style blanks are trimmed before storing")
}

func TestBufferResizeNarrowerReflowsWrappedLines(t *testing.T) {
	b := NewTerminalTextBuffer(6, 2, 10, nil)
	for i, r := range "ABCDEF" {
		b.SetCell(i, 0, Cell{Char: r})
	}
	b.Lock()
	b.SetWrappedLocked(0, true)
	b.Unlock()

	b.Resize(3, 3, DefaultStyle, 0, 0)

	cols, rows := b.Size()
	assert.Equal(t, 3, cols)
	assert.Equal(t, 3, rows)
	assert.Equal(t, 'A', b.Line(0).At(0).Char)
	assert.Equal(t, 'D', b.Line(1).At(0).Char)
}

func TestBufferResizeShorterPushesExcessToHistory(t *testing.T) {
	b := NewTerminalTextBuffer(5, 4, 10, nil)
	for y := 0; y < 4; y++ {
		b.SetCell(0, y, Cell{Char: rune('A' + y)})
	}

	b.Resize(5, 2, DefaultStyle, 0, 0)

	assert.Equal(t, 2, b.HistoryLen())
	assert.Equal(t, 'C', b.Line(0).At(0).Char)
	assert.Equal(t, 'D', b.Line(1).At(0).Char)
}

func TestBufferResizeAlternateScreenIsNotReflowed(t *testing.T) {
	b := NewTerminalTextBuffer(6, 2, 10, nil)
	b.UseAlternateBuffer(true, DefaultStyle)
	b.SetCell(0, 0, Cell{Char: 'X'})

	b.Resize(3, 2, DefaultStyle, 0, 0)

	assert.Equal(t, 'X', b.Line(0).At(0).Char, "alternate screen is truncated in place, not reflowed")
}

func TestBufferLinkAtRoundTrip(t *testing.T) {
	b := NewTerminalTextBuffer(5, 1, 10, nil)
	id := b.internLink("https://example.com")
	b.SetCell(0, 0, Cell{Char: 'l', Style: Style{LinkID: id}})

	uri, ok := b.LinkAt(0, 0)
	require.True(t, ok)
	assert.Equal(t, "https://example.com", uri)

	_, ok = b.LinkAt(1, 0)
	assert.False(t, ok)
}
