package panel

import (
	"image/color"
	"sync"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/widget"

	"github.com/itohio/algaemon/pkg/display"
)

// segmentCount is a-g plus the decimal point.
const segmentCount = 8

var (
	litColor   = color.RGBA{R: 255, G: 40, B: 20, A: 255}
	unlitColor = color.RGBA{R: 50, G: 12, B: 8, A: 255}
)

// SegmentDisplay mirrors the board's four digit seven segment display.
type SegmentDisplay struct {
	widget.BaseWidget

	mu       sync.RWMutex
	patterns [display.Digits]uint8
}

// NewSegmentDisplay creates a display showing the power-on 8888.
func NewSegmentDisplay() *SegmentDisplay {
	d := &SegmentDisplay{}
	for i := range d.patterns {
		d.patterns[i] = display.Segments[8]
	}
	d.ExtendBaseWidget(d)
	return d
}

// SetPatterns shows raw segment patterns (bit 0 = a ... bit 7 = point).
func (d *SegmentDisplay) SetPatterns(p [display.Digits]uint8) {
	d.mu.Lock()
	d.patterns = p
	d.mu.Unlock()
	d.Refresh()
}

// SetCells shows digit cells.
func (d *SegmentDisplay) SetCells(cells [display.Digits]display.Cell) {
	var p [display.Digits]uint8
	for i, c := range cells {
		p[i] = c.Pattern()
	}
	d.SetPatterns(p)
}

// SetValue formats x the way the board does and shows it.
func (d *SegmentDisplay) SetValue(x float32) {
	d.SetCells(display.Digitize(x))
}

// Patterns returns the shown segment patterns.
func (d *SegmentDisplay) Patterns() [display.Digits]uint8 {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.patterns
}

// CreateRenderer creates the widget renderer.
func (d *SegmentDisplay) CreateRenderer() fyne.WidgetRenderer {
	r := &segmentRenderer{
		display:    d,
		background: canvas.NewRectangle(color.Black),
	}
	r.objects = append(r.objects, r.background)
	for i := range r.segments {
		for j := range r.segments[i] {
			rect := canvas.NewRectangle(unlitColor)
			r.segments[i][j] = rect
			r.objects = append(r.objects, rect)
		}
	}
	r.Refresh()
	return r
}

type segmentRenderer struct {
	display    *SegmentDisplay
	background *canvas.Rectangle
	segments   [display.Digits][segmentCount]*canvas.Rectangle
	objects    []fyne.CanvasObject
}

func (r *segmentRenderer) MinSize() fyne.Size {
	return fyne.NewSize(200, 80)
}

func (r *segmentRenderer) Layout(size fyne.Size) {
	r.background.Resize(size)

	pad := size.Height * 0.1
	cellW := (size.Width - pad) / display.Digits
	digitW := cellW * 0.7
	digitH := size.Height - 2*pad
	for i := range r.segments {
		origin := fyne.NewPos(pad+float32(i)*cellW, pad)
		for j, g := range segmentGeometry(digitW, digitH) {
			r.segments[i][j].Move(origin.Add(g.pos))
			r.segments[i][j].Resize(g.size)
		}
	}
}

func (r *segmentRenderer) Refresh() {
	patterns := r.display.Patterns()
	for i, p := range patterns {
		for j := range segmentCount {
			c := unlitColor
			if p&(1<<j) != 0 {
				c = litColor
			}
			rect := r.segments[i][j]
			if rect.FillColor != c {
				rect.FillColor = c
				rect.Refresh()
			}
		}
	}
}

func (r *segmentRenderer) Objects() []fyne.CanvasObject {
	return r.objects
}

func (r *segmentRenderer) Destroy() {}

type segmentRect struct {
	pos  fyne.Position
	size fyne.Size
}

// segmentGeometry lays out segments a-g and the point of a w×h digit.
func segmentGeometry(w, h float32) [segmentCount]segmentRect {
	t := w * 3 / 20
	half := h / 2
	vert := fyne.NewSize(t, half-1.5*t)
	horiz := fyne.NewSize(w-2*t, t)

	return [segmentCount]segmentRect{
		{fyne.NewPos(t, 0), horiz},                    // a
		{fyne.NewPos(w-t, t), vert},                   // b
		{fyne.NewPos(w-t, half+t/2), vert},            // c
		{fyne.NewPos(t, h-t), horiz},                  // d
		{fyne.NewPos(0, half+t/2), vert},              // e
		{fyne.NewPos(0, t), vert},                     // f
		{fyne.NewPos(t, half-t/2), horiz},             // g
		{fyne.NewPos(w+t/2, h-t), fyne.NewSize(t, t)}, // point
	}
}
