package jediterm


// ColorKind discriminates the three forms a terminal color can take.
type ColorKind uint8

const (
	ColorDefault ColorKind = iota
	ColorPalette
	ColorRGB
)

// Color is a sum type over the three ways xterm-family terminals express
// a foreground or background color: the inherited default, an indexed
// palette entry (0-255), or a 24-bit true color.
type Color struct {
	Kind    ColorKind
	Index   uint8 // valid when Kind == ColorPalette
	R, G, B uint8 // valid when Kind == ColorRGB
}

// DefaultColor is the "use the terminal's inherited default" color.
var DefaultColor = Color{Kind: ColorDefault}

// Palette constructs a 256-color palette-indexed Color.
func Palette(index uint8) Color {
	return Color{Kind: ColorPalette, Index: index}
}

// RGB constructs a 24-bit true Color.
func RGB(r, g, b uint8) Color {
	return Color{Kind: ColorRGB, R: r, G: g, B: b}
}

// IsDefault reports whether c is the inherited default color.
func (c Color) IsDefault() bool {
	return c.Kind == ColorDefault
}

// standardColorsRGB is the fixed RGB backing paletteRGB uses for ANSI
// palette indices 0-15; indices 16-255 are computed algorithmically.
var standardColorsRGB = [16]struct{ R, G, B uint8 }{
	{0, 0, 0}, {170, 0, 0}, {0, 170, 0}, {170, 85, 0},
	{0, 0, 170}, {170, 0, 170}, {0, 170, 170}, {170, 170, 170},
	{85, 85, 85}, {255, 85, 85}, {85, 255, 85}, {255, 255, 85},
	{85, 85, 255}, {255, 85, 255}, {85, 255, 255}, {255, 255, 255},
}

// paletteRGB resolves any 256-color palette index to its RGB value: 0-15
// are the standard ANSI colors, 16-231 are the 6x6x6 color cube, and
// 232-255 are a 24-step grayscale ramp.
func paletteRGB(idx uint8) (r, g, b uint8) {
	switch {
	case idx < 16:
		c := standardColorsRGB[idx]
		return c.R, c.G, c.B
	case idx < 232:
		i := int(idx) - 16
		bb := i % 6
		gg := (i / 6) % 6
		rr := i / 36
		return uint8(rr * 51), uint8(gg * 51), uint8(bb * 51)
	default:
		gray := uint8((int(idx)-232)*10 + 8)
		return gray, gray, gray
	}
}

// RGB256 returns the resolved 24-bit RGB for c regardless of its Kind,
// treating ColorDefault as black; callers that care about "is this the
// inherited default" should check IsDefault first.
func (c Color) RGB256() (r, g, b uint8) {
	switch c.Kind {
	case ColorRGB:
		return c.R, c.G, c.B
	case ColorPalette:
		return paletteRGB(c.Index)
	default:
		return 0, 0, 0
	}
}

// SGRParams returns the SGR subparameters that encode c as a foreground
// (base 38) or background (base 48) color, in semicolon form, e.g.
// []int{38, 5, 12} or []int{38, 2, 255, 0, 0}. It returns nil for the
// default color, whose SGR encoding is the bare reset code (39 or 49)
// handled by the caller.
func (c Color) SGRParams(base int) []int {
	switch c.Kind {
	case ColorPalette:
		return []int{base, 5, int(c.Index)}
	case ColorRGB:
		return []int{base, 2, int(c.R), int(c.G), int(c.B)}
	default:
		return nil
	}
}
