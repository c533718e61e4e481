package c10x10rgb

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// wire decodes the pulse stream back into 24-bit words.
type wire struct {
	bits  int
	cur   uint32
	words []Color
}

func (w *wire) push(b uint32) {
	w.cur = w.cur<<1 | b
	w.bits++
	if w.bits == colorBits {
		w.words = append(w.words, Color(w.cur))
		w.cur, w.bits = 0, 0
	}
}

func (w *wire) LogicZero() { w.push(0) }
func (w *wire) LogicOne()  { w.push(1) }

func (w *wire) frame(t *testing.T, n int) Frame {
	t.Helper()
	require.GreaterOrEqual(t, len(w.words), (n+1)*Cells)
	var f Frame
	copy(f[:], w.words[n*Cells:(n+1)*Cells])
	return f
}

func newTestDevice() (*Device, *wire, *[]time.Duration) {
	w := &wire{}
	var sleeps []time.Duration
	d := New(w, Config{Sleep: func(d time.Duration) { sleeps = append(sleeps, d) }})
	return d, w, &sleeps
}

func TestMakeColor(t *testing.T) {
	for _, c := range [][3]uint8{{0, 0, 0}, {1, 2, 3}, {255, 128, 7}, {255, 255, 255}} {
		r, g, b := c[0], c[1], c[2]
		want := Color(uint32(g)<<16 | uint32(r)<<8 | uint32(b))
		assert.Equal(t, want, MakeColor(r, g, b, 0))

		scaled := func(x uint8) uint32 { return uint32(x) * 255 >> 8 }
		want = Color(scaled(g)<<16 | scaled(r)<<8 | scaled(b))
		assert.Equal(t, want, MakeColor(r, g, b, 255))
	}
	assert.Equal(t, Color(0x00FEFE), MakeColor(255, 0, 255, 255))
}

func TestPresetsMatchMakeColor(t *testing.T) {
	presets := map[Color][3]uint8{
		Red25: {255, 0, 0}, Green50: {0, 255, 0}, Blue100: {0, 0, 255},
		White25: {255, 255, 255}, Yellow50: {255, 255, 0},
		Cyan100: {0, 255, 255}, Purple25: {255, 0, 255},
	}
	levels := map[Color]uint8{
		Red25: 64, Green50: 128, Blue100: 0, White25: 64, Yellow50: 128,
		Cyan100: 0, Purple25: 64,
	}
	for c, rgb := range presets {
		assert.Equal(t, c, MakeColor(rgb[0], rgb[1], rgb[2], levels[c]), "%#06x", uint32(c))
	}
	r, g, b := Purple50.RGB()
	assert.Equal(t, [3]uint8{0x7F, 0, 0x7F}, [3]uint8{r, g, b})
}

func TestWriteDataMSBFirst(t *testing.T) {
	d, w, _ := newTestDevice()
	var seq []uint32
	rec := &seqTiming{out: &seq}
	d.t = rec
	d.WriteData(0x800001)
	require.Len(t, seq, 24)
	assert.Equal(t, uint32(1), seq[0])
	assert.Equal(t, uint32(1), seq[23])
	for _, b := range seq[1:23] {
		assert.Equal(t, uint32(0), b)
	}
	assert.Empty(t, w.words)
}

type seqTiming struct{ out *[]uint32 }

func (s *seqTiming) LogicZero() { *s.out = append(*s.out, 0) }
func (s *seqTiming) LogicOne()  { *s.out = append(*s.out, 1) }

func TestFillScreen(t *testing.T) {
	d, w, _ := newTestDevice()
	d.FillScreen(Cyan25)
	require.Len(t, w.words, Cells)
	for _, c := range w.words {
		assert.Equal(t, Cyan25, c)
	}
}

func TestDisplayByteUpright(t *testing.T) {
	d, w, _ := newTestDevice()
	d.DisplayByte(Glyph{Char: 'R', FG: Red25, BG: Off, Rotate: HUp})
	f := w.frame(t, 0)

	bm := font['R'-32]
	for row := 0; row < Rows; row++ {
		for col := 0; col < Columns; col++ {
			want := Off
			if row < 8 && bm[col]>>uint(row)&1 == 1 {
				want = Red25
			}
			assert.Equal(t, want, f[row*Columns+col], "row %d col %d", row, col)
		}
	}
	// Column 2 of 'R' is the full stem (0x7F).
	for row := 0; row < 7; row++ {
		assert.Equal(t, Red25, f[row*Columns+2])
	}
}

func TestRenderByteRotations(t *testing.T) {
	g := Glyph{Char: 'F', FG: White50, BG: Blue25}
	bm := font['F'-32]

	var up, vup, hdown, vdown Frame
	g.Rotate = HUp
	RenderByte(g, &up)
	g.Rotate = VUp
	RenderByte(g, &vup)
	g.Rotate = HDown
	RenderByte(g, &hdown)
	g.Rotate = VDown
	RenderByte(g, &vdown)

	for row := 0; row < Rows; row++ {
		for col := 0; col < Columns; col++ {
			assert.Equal(t, up[row*Columns+col], vup[col*Columns+row])
			assert.Equal(t, hdown[row*Columns+col], vdown[col*Columns+row])

			want := Blue25
			if row < 8 && bm[9-col]>>uint(7-row)&1 == 1 {
				want = White50
			}
			assert.Equal(t, want, hdown[row*Columns+col], "row %d col %d", row, col)
		}
	}
	// Descender rows always carry the background.
	for col := 0; col < Columns; col++ {
		assert.Equal(t, Blue25, up[8*Columns+col])
		assert.Equal(t, Blue25, up[9*Columns+col])
	}
}

func TestNonPrintableRendersBlank(t *testing.T) {
	var f Frame
	RenderByte(Glyph{Char: 0x07, FG: Red100, BG: Green25}, &f)
	for _, c := range f {
		assert.Equal(t, Green25, c)
	}
}

func TestDisplayStringScrolls(t *testing.T) {
	d, w, sleeps := newTestDevice()
	text := Text("Hi", Yellow25, Off, HUp)
	d.DisplayString(text, 40*time.Millisecond)

	frames := (len(text)+2)*GlyphColumns + 1 - Columns
	require.Len(t, *sleeps, frames)
	assert.Equal(t, 40*time.Millisecond, (*sleeps)[0])
	require.Len(t, w.words, frames*Cells)

	for _, c := range w.frame(t, 0) {
		assert.Equal(t, Off, c, "first frame is the leading blank")
	}

	var want Frame
	RenderByte(text[0], &want)
	assert.Equal(t, want, w.frame(t, GlyphColumns), "frame 10 shows the first glyph")
	RenderByte(text[1], &want)
	assert.Equal(t, want, w.frame(t, 2*GlyphColumns))

	// One column later the window has moved left by one.
	next := w.frame(t, GlyphColumns+1)
	first := w.frame(t, GlyphColumns)
	for row := 0; row < Rows; row++ {
		for col := 0; col < Columns-1; col++ {
			assert.Equal(t, first[row*Columns+col+1], next[row*Columns+col])
		}
	}
}

func TestDisplayStringVertical(t *testing.T) {
	d, w, _ := newTestDevice()
	text := Text("A", Green100, Off, VUp)
	d.DisplayString(text, 0)

	var want Frame
	RenderByte(text[0], &want)
	assert.Equal(t, want, w.frame(t, GlyphColumns))
}

func TestDisplayStringEmpty(t *testing.T) {
	d, w, sleeps := newTestDevice()
	d.DisplayString(nil, time.Millisecond)
	assert.Empty(t, w.words)
	assert.Empty(t, *sleeps)
}

func TestColorWheel(t *testing.T) {
	assert.Equal(t, Red100, ColorWheel(0, 0))
	assert.Equal(t, Green100, ColorWheel(85, 0))
	assert.Equal(t, Blue100, ColorWheel(170, 0))
	assert.Equal(t, MakeColor(255, 0, 0, 64), ColorWheel(0, 64))
}

func TestDemoRainbow(t *testing.T) {
	d, w, sleeps := newTestDevice()
	d.DemoRainbow(32, 5*time.Millisecond)
	require.Len(t, *sleeps, RainbowFrames)
	require.Len(t, w.words, RainbowFrames*Cells)

	f := w.frame(t, 7)
	for i := 0; i < Cells; i++ {
		assert.Equal(t, ColorWheel(byte(i+7), 32), f[i])
	}
	last := w.frame(t, RainbowFrames-1)
	assert.Equal(t, ColorWheel(byte(RainbowFrames-1), 32), last[0])
}
