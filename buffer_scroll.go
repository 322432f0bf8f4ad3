package jediterm

// ScrollArea scrolls the rows [top, bottom] (inclusive, 0-based) of the
// active screen by count lines. Positive count scrolls content up
// (new blank lines appear at bottom, matching IND/SU); negative count
// scrolls down (blank lines appear at top, matching RI/SD). When the
// region spans the whole primary screen and count is positive, lines
// pushed off the top are preserved in history; scrolling any other
// region, or scrolling the alternate screen, discards them, matching a
// VT-family terminal's rule that only full-screen scroll-up feeds
// scrollback.
func (b *TerminalTextBuffer) ScrollArea(top, bottom, count int, style Style) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if count == 0 {
		return
	}
	lines := b.active()
	if top < 0 {
		top = 0
	}
	if bottom >= len(lines) {
		bottom = len(lines) - 1
	}
	if top > bottom {
		return
	}
	height := bottom - top + 1
	toHistory := !b.usingAlt && top == 0 && bottom == len(lines)-1

	if count > 0 {
		if count > height {
			count = height
		}
		if toHistory {
			for i := 0; i < count; i++ {
				b.pushHistory(lines[top+i])
			}
		}
		copy(lines[top:], lines[top+count:bottom+1])
		for y := bottom - count + 1; y <= bottom; y++ {
			lines[y] = NewLine(style)
		}
	} else {
		count = -count
		if count > height {
			count = height
		}
		copy(lines[top+count:bottom+1], lines[top:bottom-count+1])
		for y := top; y < top+count; y++ {
			lines[y] = NewLine(style)
		}
	}
	for y := top; y <= bottom; y++ {
		b.markDirty(y)
	}
}

// InsertLines shifts rows [y, bottom] of the active screen down by count,
// within the scroll region [top, bottom], discarding lines pushed past
// bottom; used by IL (CSI L).
func (b *TerminalTextBuffer) InsertLines(y, top, bottom, count int, style Style) {
	b.mu.Lock()
	defer b.mu.Unlock()
	lines := b.active()
	if y < top || y > bottom {
		return
	}
	if bottom >= len(lines) {
		bottom = len(lines) - 1
	}
	height := bottom - y + 1
	if count > height {
		count = height
	}
	copy(lines[y+count:bottom+1], lines[y:bottom-count+1])
	for i := y; i < y+count; i++ {
		lines[i] = NewLine(style)
	}
	for i := y; i <= bottom; i++ {
		b.markDirty(i)
	}
}

// DeleteLines shifts rows [y, bottom] of the active screen up by count,
// within the scroll region [top, bottom], filling the vacated bottom rows
// with blanks; used by DL (CSI M).
func (b *TerminalTextBuffer) DeleteLines(y, top, bottom, count int, style Style) {
	b.mu.Lock()
	defer b.mu.Unlock()
	lines := b.active()
	if y < top || y > bottom {
		return
	}
	if bottom >= len(lines) {
		bottom = len(lines) - 1
	}
	height := bottom - y + 1
	if count > height {
		count = height
	}
	copy(lines[y:bottom-count+1], lines[y+count:bottom+1])
	for i := bottom - count + 1; i <= bottom; i++ {
		lines[i] = NewLine(style)
	}
	for i := y; i <= bottom; i++ {
		b.markDirty(i)
	}
}
