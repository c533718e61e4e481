package c10x10rgb

import "clickcode-go/x/mathx"

// Color is a packed 0x00GGRRBB word, the order the LED chain shifts in.
type Color uint32

// Preset colours at 25 %, 50 % and full brightness (MakeColor with
// brightness 64, 128 and 0).
const (
	Off Color = 0x000000

	Red25  Color = 0x003F00
	Red50  Color = 0x007F00
	Red100 Color = 0x00FF00

	Green25  Color = 0x3F0000
	Green50  Color = 0x7F0000
	Green100 Color = 0xFF0000

	Blue25  Color = 0x00003F
	Blue50  Color = 0x00007F
	Blue100 Color = 0x0000FF

	White25  Color = 0x3F3F3F
	White50  Color = 0x7F7F7F
	White100 Color = 0xFFFFFF

	Yellow25  Color = 0x3F3F00
	Yellow50  Color = 0x7F7F00
	Yellow100 Color = 0xFFFF00

	Cyan25  Color = 0x3F003F
	Cyan50  Color = 0x7F007F
	Cyan100 Color = 0xFF00FF

	Purple25  Color = 0x003F3F
	Purple50  Color = 0x007F7F
	Purple100 Color = 0x00FFFF
)

// MakeColor packs r, g, b. A non-zero brightness scales each channel by
// brightness/256; zero packs the channels unscaled.
func MakeColor(r, g, b, brightness uint8) Color {
	if brightness != 0 {
		r = mathx.ScaleU8(r, brightness)
		g = mathx.ScaleU8(g, brightness)
		b = mathx.ScaleU8(b, brightness)
	}
	return Color(uint32(g)<<16 | uint32(r)<<8 | uint32(b))
}

// RGB unpacks c.
func (c Color) RGB() (r, g, b uint8) {
	return uint8(c >> 8), uint8(c >> 16), uint8(c)
}

// ColorWheel maps pos onto a three-segment red->green->blue hue wheel.
func ColorWheel(pos, brightness uint8) Color {
	pos = 255 - pos
	switch {
	case pos < 85:
		return MakeColor(255-pos*3, 0, pos*3, brightness)
	case pos < 170:
		pos -= 85
		return MakeColor(0, pos*3, 255-pos*3, brightness)
	default:
		pos -= 170
		return MakeColor(pos*3, 255-pos*3, 0, brightness)
	}
}
