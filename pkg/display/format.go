package display

import "github.com/chewxy/math32"

// MaxValue is the largest value that fits the display.
const MaxValue float32 = 9999.9999

var errCells = [Digits]Cell{{Digit: LetterE}, {Digit: Blank}, {Digit: Blank}, {Digit: Blank}}

// layouts lists, for each magnitude band, the number of decimals kept and
// the position of the decimal point (-1 for none).
var layouts = [Digits]struct {
	limit    float32
	decimals int
	point    int
}{
	{10, 3, 0},
	{100, 2, 1},
	{1000, 1, 2},
	{10000, 0, -1},
}

var pow10 = [Digits]float32{1, 10, 100, 1000}

// Digitize lays out x on four digits by magnitude: #.###, ##.##, ###.# or
// ####. The band is chosen from x itself; the value is then rounded to the
// band's precision and each digit is taken modulo 10 from the rounded,
// scaled integer, so a rounding carry wraps (9.9996 shows 0.000). Values
// below zero or above MaxValue show "E" followed by blanks.
func Digitize(x float32) [Digits]Cell {
	if math32.IsNaN(x) || x < 0 || x > MaxValue {
		return errCells
	}

	band := 0
	for band < len(layouts)-1 && x >= layouts[band].limit {
		band++
	}
	l := layouts[band]
	scaled := uint32(math32.Round(x * pow10[l.decimals]))

	var cells [Digits]Cell
	for i := Digits - 1; i >= 0; i-- {
		cells[i].Digit = uint8(scaled % 10)
		scaled /= 10
	}
	if l.point >= 0 {
		cells[l.point].Point = true
	}
	return cells
}
