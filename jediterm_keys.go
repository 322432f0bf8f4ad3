package jediterm

import "strconv"

// KeyCode identifies a non-printable key a presentation layer can ask this
// core to encode into the byte sequence a program behind the PTY expects,
// independent of how that layer's windowing toolkit names its own key
// constants.
type KeyCode int

const (
	KeyUp KeyCode = iota
	KeyDown
	KeyLeft
	KeyRight
	KeyHome
	KeyEnd
	KeyPageUp
	KeyPageDown
	KeyInsert
	KeyDelete
	KeyF1
	KeyF2
	KeyF3
	KeyF4
	KeyF5
	KeyF6
	KeyF7
	KeyF8
	KeyF9
	KeyF10
	KeyF11
	KeyF12
	KeyBackspace
	KeyTab
	KeyEnter
	KeyEscape
)

// KeyModifiers is a bitmask of modifier keys held alongside a KeyCode.
type KeyModifiers int

const (
	ModShift KeyModifiers = 1 << iota
	ModAlt
	ModCtrl
)

// modifierParam encodes mods as the CSI modifier parameter xterm defines:
// 1 (none) + the bitmask, e.g. Shift+Ctrl is 1+1+4=6. A bare 0 means no
// modifiers were held, in which case callers omit the parameter entirely
// to produce the traditional unmodified escape rather than "CSI 1 ; 1 A".
func modifierParam(mods KeyModifiers) int {
	if mods == 0 {
		return 0
	}
	return 1 + int(mods)
}

// GetCodeForKey encodes key for transmission to the program behind the
// PTY, taking into account application cursor-key mode (DECCKM) for the
// arrow/Home/End cluster. Application keypad mode (DECNKM) is not
// consulted, since KeyCode has no keypad keys, and there is no
// modifyOtherKeys support.
func (t *JediTerminal) GetCodeForKey(key KeyCode, mods KeyModifiers) []byte {
	appCursor := t.modes.Get(ModeCursorKeys)

	if mods != 0 {
		if code, ok := modifiedCursorCode(key, mods); ok {
			return code
		}
	}

	switch key {
	case KeyUp:
		return cursorCode(appCursor, 'A')
	case KeyDown:
		return cursorCode(appCursor, 'B')
	case KeyRight:
		return cursorCode(appCursor, 'C')
	case KeyLeft:
		return cursorCode(appCursor, 'D')
	case KeyHome:
		return cursorCode(appCursor, 'H')
	case KeyEnd:
		return cursorCode(appCursor, 'F')
	case KeyPageUp:
		return []byte("\x1b[5~")
	case KeyPageDown:
		return []byte("\x1b[6~")
	case KeyInsert:
		return []byte("\x1b[2~")
	case KeyDelete:
		return []byte("\x1b[3~")
	case KeyF1:
		return []byte("\x1bOP")
	case KeyF2:
		return []byte("\x1bOQ")
	case KeyF3:
		return []byte("\x1bOR")
	case KeyF4:
		return []byte("\x1bOS")
	case KeyF5:
		return []byte("\x1b[15~")
	case KeyF6:
		return []byte("\x1b[17~")
	case KeyF7:
		return []byte("\x1b[18~")
	case KeyF8:
		return []byte("\x1b[19~")
	case KeyF9:
		return []byte("\x1b[20~")
	case KeyF10:
		return []byte("\x1b[21~")
	case KeyF11:
		return []byte("\x1b[23~")
	case KeyF12:
		return []byte("\x1b[24~")
	case KeyBackspace:
		return []byte{0x7f}
	case KeyTab:
		if mods&ModShift != 0 {
			return []byte("\x1b[Z")
		}
		return []byte{'\t'}
	case KeyEnter:
		return []byte{'\r'}
	case KeyEscape:
		return []byte{0x1b}
	default:
		return nil
	}
}

// cursorCode returns the SS3 form ("ESC O letter") when application
// cursor-key mode is on, or the CSI form ("ESC [ letter") otherwise; both
// forms are what DECCKM actually toggles between for the arrow/Home/End
// cluster.
func cursorCode(appCursor bool, letter byte) []byte {
	if appCursor {
		return []byte{0x1b, 'O', letter}
	}
	return []byte{0x1b, '[', letter}
}

// modifiedCursorCode encodes a modified arrow/Home/End key using xterm's
// "CSI 1 ; modifier letter" extended form, the only form capable of
// carrying modifier state; plain SS3/CSI has no room for it. Any other key
// reports false and is encoded without its modifiers.
func modifiedCursorCode(key KeyCode, mods KeyModifiers) ([]byte, bool) {
	letter := byte(0)
	switch key {
	case KeyUp:
		letter = 'A'
	case KeyDown:
		letter = 'B'
	case KeyRight:
		letter = 'C'
	case KeyLeft:
		letter = 'D'
	case KeyHome:
		letter = 'H'
	case KeyEnd:
		letter = 'F'
	default:
		return nil, false
	}
	param := modifierParam(mods)
	return []byte("\x1b[1;" + strconv.Itoa(param) + string(letter)), true
}
