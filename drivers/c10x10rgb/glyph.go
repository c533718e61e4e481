package c10x10rgb

// Rotation selects how a glyph is laid onto the matrix.
type Rotation uint8

const (
	HUp   Rotation = 0x00 // upright, rows along the chain
	HDown Rotation = 0x01 // mirrored on both axes
	VUp   Rotation = 0x10 // transposed
	VDown Rotation = 0x11 // transposed and mirrored

	rotMirror    = 0x01
	rotTranspose = 0x10
)

func (r Rotation) mirrored() bool   { return r&rotMirror != 0 }
func (r Rotation) transposed() bool { return r&rotTranspose != 0 }

// Glyph is one character with its colours and orientation.
type Glyph struct {
	Char   byte
	FG, BG Color
	Rotate Rotation
}

// Text builds glyphs for s sharing colours and rotation.
func Text(s string, fg, bg Color, rot Rotation) []Glyph {
	out := make([]Glyph, len(s))
	for i := 0; i < len(s); i++ {
		out[i] = Glyph{Char: s[i], FG: fg, BG: bg, Rotate: rot}
	}
	return out
}

// strip is one rendered glyph column plus the orientation it was drawn with.
type strip struct {
	cells [Rows]Color
	rot   Rotation
}

// cellIndex places (row, col) in chain order: row-major upright,
// column-major when transposed.
func cellIndex(row, col int, rot Rotation) int {
	if rot.transposed() {
		return col*Columns + row
	}
	return row*Columns + col
}

// glyphBit picks the font bit for a row, reversed when mirrored.
func glyphBit(row int, rot Rotation) int {
	if rot.mirrored() {
		return glyphRows - 1 - row
	}
	return row
}

// glyphColumn picks the font column for a matrix column, reversed when mirrored.
func glyphColumn(col int, rot Rotation) int {
	if rot.mirrored() {
		return GlyphColumns - 1 - col
	}
	return col
}

// bitmap returns the font entry for ch; characters outside printable ASCII
// render as a space.
func bitmap(ch byte) *[GlyphColumns]byte {
	if ch < 0x20 || ch >= 0x7F {
		ch = ' '
	}
	return &font[ch-0x20]
}

func renderStrips(g Glyph, out []strip) {
	bm := bitmap(g.Char)
	for col := 0; col < GlyphColumns; col++ {
		bits := bm[glyphColumn(col, g.Rotate)]
		s := &out[col]
		s.rot = g.Rotate
		for row := 0; row < Rows; row++ {
			c := g.BG
			if row < glyphRows && (bits>>uint(glyphBit(row, g.Rotate)))&0x01 != 0 {
				c = g.FG
			}
			s.cells[row] = c
		}
	}
}

// RenderByte draws g into f without sending it.
func RenderByte(g Glyph, f *Frame) {
	var strips [GlyphColumns]strip
	renderStrips(g, strips[:])
	renderWindow(strips[:], f)
}

func renderWindow(win []strip, f *Frame) {
	for col := range win {
		for row := 0; row < Rows; row++ {
			f[cellIndex(row, col, win[col].rot)] = win[col].cells[row]
		}
	}
}

// scrollBuffer lays out a blank glyph, the text, a blank glyph and one
// empty column.
func scrollBuffer(text []Glyph) []strip {
	n := (len(text)+2)*GlyphColumns + 1
	buf := make([]strip, n)

	first, last := text[0], text[len(text)-1]
	renderStrips(Glyph{Char: ' ', BG: first.BG, Rotate: first.Rotate}, buf[:GlyphColumns])
	for i, g := range text {
		off := (i + 1) * GlyphColumns
		renderStrips(g, buf[off:off+GlyphColumns])
	}
	tail := (len(text) + 1) * GlyphColumns
	renderStrips(Glyph{Char: ' ', BG: last.BG, Rotate: last.Rotate}, buf[tail:tail+GlyphColumns])
	buf[n-1].rot = last.Rotate
	return buf
}
