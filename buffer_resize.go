package jediterm

// Resize changes the active-screen-independent dimensions of the buffer
// and reports where the cursor at (cursorX, cursorY) on the active screen
// lands afterward. The primary screen is reflowed: physical lines joined
// by a deferred-wrap chain (Line.Wrapped) are rejoined into one logical
// line and re-broken at the new width, so narrowing a window doesn't
// truncate text and widening it pulls wrapped text back up onto fewer
// rows — reflowCursor walks that same join/re-break pass so the returned
// cursor tracks the logical character it was on. The alternate screen is
// never reflowed — full-screen programs (editors, pagers) redraw it
// themselves on SIGWINCH, and reflowing it would fight that redraw — so
// while it is active the cursor is only clamped to the new bounds.
func (b *TerminalTextBuffer) Resize(cols, rows int, style Style, cursorX, cursorY int) (newCursorX, newCursorY int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if cols == b.cols && rows == b.rows {
		return cursorX, cursorY
	}

	row, col := cursorY, cursorX
	if !b.usingAlt && cols != b.cols {
		row, col = reflowCursor(b.screen, b.history, cols, cursorX, cursorY)
	}
	if cols != b.cols {
		b.screen = reflow(b.screen, b.history, cols, style)
		b.history = nil // logical lines already folded into b.screen by reflow
	}
	if !b.usingAlt && rows < len(b.screen) {
		// resizeRows below pushes the top excess rows into history; shift
		// the tracked row the same way so it still names the row the
		// cursor's line ended up on.
		excess := len(b.screen) - rows
		row -= excess
		if row < 0 {
			row = 0
		}
	}
	b.screen = resizeRows(b.screen, rows, style, b)
	b.altScreen = resizeRowsOnly(b.altScreen, rows, cols, style)
	b.cols, b.rows = cols, rows
	b.markAllDirty()

	if col < 0 {
		col = 0
	} else if col >= cols {
		col = cols - 1
	}
	if row < 0 {
		row = 0
	} else if row >= rows {
		row = rows - 1
	}
	return col, row
}

// reflowCursor mirrors reflow's join/re-break pass to find where the
// cursor at (cursorX, cursorY) — cursorY a row index into screen, not
// history — lands in the line array reflow would build for the same
// screen/history at newCols, before Resize's row grow/shrink step runs.
// A cursor sitting past the last non-blank cell of its row (the common
// case of a cursor resting in blank space after typed text) is treated
// as pointing at the end of that row's trimmed content, since that blank
// cell does not itself survive the trim reflow applies to every line
// before rejoining it into logical lines.
func reflowCursor(screen, history []Line, newCols, cursorX, cursorY int) (row, col int) {
	all := make([]Line, 0, len(history)+len(screen))
	all = append(all, history...)
	all = append(all, screen...)
	cursorAbs := len(history) + cursorY

	var logical [][]Cell
	var cur []Cell
	logicalIdx := -1
	offset := 0
	chainOffset := 0
	for absIdx, l := range all {
		trimmed := l.Trimmed()
		if absIdx == cursorAbs {
			logicalIdx = len(logical)
			x := cursorX
			if x > len(trimmed) {
				x = len(trimmed)
			}
			offset = chainOffset + x
		}
		cur = append(cur, trimmed...)
		chainOffset += len(trimmed)
		if !l.Wrapped {
			logical = append(logical, cur)
			cur, chainOffset = nil, 0
		}
	}
	if cur != nil {
		logical = append(logical, cur)
	}
	if logicalIdx < 0 {
		// cursorAbs fell outside the joined range entirely; let Resize's
		// final clamp handle the raw coordinates.
		return cursorY, cursorX
	}

	outRow := 0
	for idx, cells := range logical {
		if idx == logicalIdx {
			if len(cells) == 0 {
				return outRow, 0
			}
			return outRow + offset/newCols, offset % newCols
		}
		if len(cells) == 0 {
			outRow++
			continue
		}
		outRow += (len(cells) + newCols - 1) / newCols
	}
	return outRow, 0
}

// reflow joins wrapped-line chains across history and screen into logical
// lines, then re-breaks each at width newCols. History lines feed in
// first (oldest first) so the resulting screen's trailing rows line up
// with what was previously visible.
func reflow(screen, history []Line, newCols int, style Style) []Line {
	all := make([]Line, 0, len(history)+len(screen))
	all = append(all, history...)
	all = append(all, screen...)

	var logical [][]Cell
	var cur []Cell
	for _, l := range all {
		cur = append(cur, l.Trimmed()...)
		if !l.Wrapped {
			logical = append(logical, cur)
			cur = nil
		}
	}
	if cur != nil {
		logical = append(logical, cur)
	}

	var out []Line
	for _, cells := range logical {
		if len(cells) == 0 {
			out = append(out, NewLine(style))
			continue
		}
		for start := 0; start < len(cells); start += newCols {
			end := start + newCols
			wrapped := end < len(cells)
			if end > len(cells) {
				end = len(cells)
			}
			line := NewLine(style)
			line.Cells = append([]Cell(nil), cells[start:end]...)
			line.Wrapped = wrapped
			out = append(out, line)
		}
	}
	return out
}

// resizeRows grows or shrinks lines to exactly rows entries, pushing
// lines that no longer fit at the top into history rather than discarding
// them.
func resizeRows(lines []Line, rows int, style Style, b *TerminalTextBuffer) []Line {
	if len(lines) == rows {
		return lines
	}
	if len(lines) < rows {
		for len(lines) < rows {
			lines = append(lines, NewLine(style))
		}
		return lines
	}
	excess := len(lines) - rows
	for i := 0; i < excess; i++ {
		b.pushHistory(lines[i])
	}
	return lines[excess:]
}

// resizeRowsOnly resizes a screen (the alternate screen) without
// reflowing or touching history: lines are simply truncated/padded to the
// new width and row count.
func resizeRowsOnly(lines []Line, rows, cols int, style Style) []Line {
	out := make([]Line, rows)
	for y := 0; y < rows; y++ {
		if y < len(lines) {
			l := lines[y]
			l.Cells = l.Packed(cols)
			l.DefaultCell = EmptyCell(style)
			out[y] = l
		} else {
			out[y] = NewLine(style)
		}
	}
	return out
}
