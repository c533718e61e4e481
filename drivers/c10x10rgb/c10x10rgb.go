// Package c10x10rgb drives the 10x10 RGB click: one hundred addressable RGB
// LEDs chained on a single data line.
//
// The line is self-clocked: every bit is a high pulse whose width encodes 0
// or 1, so timing is MCU and toolchain specific. The driver never touches a
// pin itself; it calls a Timing implementation supplied by the platform:
//
//	d := c10x10rgb.New(rp2.NewPulseTiming(machine.GP16), c10x10rgb.DefaultConfig())
//	d.FillScreen(c10x10rgb.Blue25)
//
// The protocol is write-only and positional: the n-th colour word written
// after a reset lands on the n-th LED of the chain, so every operation
// rewrites the whole matrix.
package c10x10rgb

import "time"

const (
	Rows    = 10
	Columns = 10
	Cells   = Rows * Columns

	// GlyphColumns is the width of one font glyph; glyphRows of each column
	// come from the font and the remaining rows are descender cells.
	GlyphColumns = 10
	glyphRows    = 8
	fontGlyphs   = 0x7F - 0x20

	// RainbowFrames is the length of DemoRainbow (five turns of the wheel).
	RainbowFrames = 1275

	colorBits = 24
)

// Timing emits the two pulse shapes of the one-wire protocol.
type Timing interface {
	LogicZero()
	LogicOne()
}

// Config controls non-hardware behaviour.
type Config struct {
	// Sleep is used between animation frames. Defaults to time.Sleep.
	Sleep func(time.Duration)
}

func DefaultConfig() Config {
	return Config{Sleep: time.Sleep}
}

// Frame is one full matrix image in chain order.
type Frame [Cells]Color

// Device is a 10x10 RGB matrix bound to a pulse generator.
type Device struct {
	t     Timing
	sleep func(time.Duration)
	frame Frame
}

// New binds the matrix to t. The caller must configure the data pin first.
func New(t Timing, cfg Config) *Device {
	if cfg.Sleep == nil {
		cfg.Sleep = time.Sleep
	}
	return &Device{t: t, sleep: cfg.Sleep}
}

// WriteData sends one 24-bit colour word, MSB first.
func (d *Device) WriteData(c Color) {
	for bit := colorBits - 1; bit >= 0; bit-- {
		if (uint32(c)>>uint(bit))&0x01 != 0 {
			d.t.LogicOne()
		} else {
			d.t.LogicZero()
		}
	}
}

// WriteFrame sends all cells of f in chain order.
func (d *Device) WriteFrame(f *Frame) {
	for _, c := range f {
		d.WriteData(c)
	}
}

// FillScreen paints every cell with c.
func (d *Device) FillScreen(c Color) {
	for i := 0; i < Cells; i++ {
		d.WriteData(c)
	}
}

// DisplayByte renders one character.
func (d *Device) DisplayByte(g Glyph) {
	RenderByte(g, &d.frame)
	d.WriteFrame(&d.frame)
}

// DisplayString scrolls text across the matrix, one column per frame with
// speed between frames. Columns of transposed glyphs scroll vertically.
func (d *Device) DisplayString(text []Glyph, speed time.Duration) {
	if len(text) == 0 {
		return
	}
	buf := scrollBuffer(text)
	for k := 0; k < len(buf)-Columns; k++ {
		renderWindow(buf[k:k+Columns], &d.frame)
		d.WriteFrame(&d.frame)
		d.sleep(speed)
	}
}

// DemoRainbow runs a rotating colour wheel over the matrix.
func (d *Device) DemoRainbow(brightness uint8, speed time.Duration) {
	for j := 0; j < RainbowFrames; j++ {
		for i := 0; i < Cells; i++ {
			d.frame[i] = ColorWheel(byte(i+j), brightness)
		}
		d.WriteFrame(&d.frame)
		d.sleep(speed)
	}
}
