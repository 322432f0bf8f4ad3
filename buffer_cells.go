package jediterm

// DeleteCharsAt deletes n cells starting at (x, y) on the active screen,
// shifting the remainder of the line left and shrinking it; used by DCH
// (CSI P).
func (b *TerminalTextBuffer) DeleteCharsAt(x, y, n int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	lines := b.active()
	if y < 0 || y >= len(lines) {
		return
	}
	line := lines[y]
	lineLen := len(line.Cells)
	if x >= lineLen {
		return
	}
	if x+n < lineLen {
		copy(line.Cells[x:], line.Cells[x+n:])
		line.Cells = line.Cells[:lineLen-n]
	} else {
		line.Cells = line.Cells[:x]
	}
	lines[y] = line
	b.markDirty(y)
}

// InsertCharsAt inserts n blank cells (styled per style) at (x, y) on the
// active screen, shifting the remainder of the line right; cells pushed
// past the right margin are discarded. Used by ICH (CSI @).
func (b *TerminalTextBuffer) InsertCharsAt(x, y, n int, style Style) {
	b.mu.Lock()
	defer b.mu.Unlock()
	lines := b.active()
	if y < 0 || y >= len(lines) {
		return
	}
	line := lines[y]
	blank := EmptyCell(style)
	if x >= len(line.Cells) {
		for i := 0; i < n; i++ {
			line.Cells = append(line.Cells, blank)
		}
	} else {
		grown := make([]Cell, len(line.Cells)+n)
		copy(grown, line.Cells[:x])
		for i := x; i < x+n; i++ {
			grown[i] = blank
		}
		copy(grown[x+n:], line.Cells[x:])
		line.Cells = grown
	}
	if len(line.Cells) > b.cols {
		line.Cells = line.Cells[:b.cols]
	}
	lines[y] = line
	b.markDirty(y)
}

// EraseCharsAt blanks n existing cells starting at (x, y) without
// shifting or extending the line; used by ECH (CSI X).
func (b *TerminalTextBuffer) EraseCharsAt(x, y, n int, style Style) {
	b.mu.Lock()
	defer b.mu.Unlock()
	lines := b.active()
	if y < 0 || y >= len(lines) {
		return
	}
	line := lines[y]
	if x >= len(line.Cells) {
		return
	}
	end := x + n
	if end > len(line.Cells) {
		end = len(line.Cells)
	}
	blank := EmptyCell(style)
	for i := x; i < end; i++ {
		line.Cells[i] = blank
	}
	lines[y] = line
	b.markDirty(y)
}
