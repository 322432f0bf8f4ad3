package jediterm

// ModeKind distinguishes an ANSI mode (CSI Pm h/l) from a DEC private mode
// (CSI ? Pm h/l); the two share a numbering space that otherwise collides
// (e.g. ANSI mode 4 is IRM, DEC private mode 4 is smooth scroll).
type ModeKind uint8

const (
	ModeAnsi ModeKind = iota
	ModeDecPrivate
)

// Mode identifies a settable terminal mode by kind and number.
type Mode struct {
	Kind   ModeKind
	Number uint16
}

// Ansi constructs an ANSI-numbered mode (CSI Pm h).
func Ansi(n uint16) Mode { return Mode{Kind: ModeAnsi, Number: n} }

// DecPrivate constructs a DEC private mode (CSI ? Pm h).
func DecPrivate(n uint16) Mode { return Mode{Kind: ModeDecPrivate, Number: n} }

// Well-known modes this terminal core understands. Numbers follow the
// DEC/xterm convention; unrecognized modes are still stored in the Modes
// bag (so DSR/DECRQM-style introspection can answer about them) but have
// no behavioral effect.
var (
	ModeIRM            = Ansi(4)    // Insert/replace
	ModeBracketedPaste = DecPrivate(2004)
	ModeCursorKeys     = DecPrivate(1)    // DECCKM, application cursor keys
	ModeAutoWrap       = DecPrivate(7)    // DECAWM
	ModeOriginMode     = DecPrivate(6)    // DECOM
	ModeCursorVisible  = DecPrivate(25)   // DECTCEM
	ModeAltScreen47    = DecPrivate(47)
	ModeAltScreen1047  = DecPrivate(1047)
	ModeAltScreen1049  = DecPrivate(1049)
	ModeApplicationKeypad = DecPrivate(66) // DECNKM, also set by ESC =
	ModeMouseX10       = DecPrivate(9)
	ModeMouseVT200     = DecPrivate(1000)
	ModeMouseButtonEvt = DecPrivate(1002)
	ModeMouseAnyEvt    = DecPrivate(1003)
	ModeMouseSGR       = DecPrivate(1006)
)

// Modes is the bag of every mode this terminal has seen set or reset. The
// power-on values that are on (autowrap, cursor visible) are recorded by
// NewModes and Reset; Get reports any mode never recorded as off.
type Modes struct {
	set map[Mode]bool
}

// NewModes returns a Modes bag with the power-on defaults applied: origin
// mode off, autowrap on, cursor visible, everything else off.
func NewModes() *Modes {
	m := &Modes{set: make(map[Mode]bool)}
	m.Set(ModeAutoWrap, true)
	m.Set(ModeCursorVisible, true)
	return m
}

// Set records mode's value.
func (m *Modes) Set(mode Mode, on bool) {
	m.set[mode] = on
}

// Get reports whether mode is currently set.
func (m *Modes) Get(mode Mode) bool {
	return m.set[mode]
}

// Reset restores power-on defaults, discarding every recorded deviation.
func (m *Modes) Reset() {
	m.set = make(map[Mode]bool)
	m.Set(ModeAutoWrap, true)
	m.Set(ModeCursorVisible, true)
}
