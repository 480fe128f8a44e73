package display

// Digits is the number of digit positions.
const Digits = 4

// Glyph indices into Segments.
const (
	LetterE uint8 = 14
	Blank   uint8 = 16
)

// PointBit is the decimal point segment.
const PointBit uint8 = 0x80

// AllSegments lights every segment including the decimal point.
const AllSegments uint8 = 0xFF

// Segments maps glyph indices to segment patterns, bit0..6 = segments a..g:
// 0-9, A b C d E F, blank.
var Segments = [17]uint8{
	0x3F, 0x06, 0x5B, 0x4F, 0x66, 0x6D, 0x7D, 0x07, 0x7F, 0x6F,
	0x77, 0x7C, 0x39, 0x5E, 0x79, 0x71,
	0x00,
}

const glyphs = "0123456789AbCdEF "

// Cell is the content of one digit position.
type Cell struct {
	Digit uint8
	Point bool
}

// Pattern returns the segment byte of the cell. Invalid digits are blank.
func (c Cell) Pattern() uint8 {
	var p uint8
	if int(c.Digit) < len(Segments) {
		p = Segments[c.Digit]
	}
	if c.Point {
		p |= PointBit
	}
	return p
}

func (c Cell) pack() uint32 {
	v := uint32(c.Digit)
	if c.Point {
		v |= 1 << 8
	}
	return v
}

func unpack(v uint32) Cell {
	return Cell{
		Digit: uint8(v),
		Point: v&(1<<8) != 0,
	}
}

// Render returns a text form of cells, e.g. "12.35" or "E   ".
func Render(cells [Digits]Cell) string {
	buf := make([]byte, 0, 2*Digits)
	for _, c := range cells {
		g := byte('?')
		if int(c.Digit) < len(glyphs) {
			g = glyphs[c.Digit]
		}
		buf = append(buf, g)
		if c.Point {
			buf = append(buf, '.')
		}
	}
	return string(buf)
}
