package panel

import (
	"fmt"
	"image/color"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"

	"github.com/itohio/algaemon/pkg/meter"
	"github.com/itohio/algaemon/pkg/sample"
)

var (
	gridColor        = color.RGBA{R: 40, G: 40, B: 40, A: 255}
	labelColor       = color.RGBA{R: 150, G: 150, B: 150, A: 255}
	temperatureColor = color.RGBA{R: 255, G: 165, B: 0, A: 255}   // Orange
	phColor          = color.RGBA{R: 100, G: 200, B: 255, A: 255} // Light blue
	bandColor        = color.RGBA{R: 60, G: 160, B: 60, A: 255}
	excursionColor   = color.RGBA{R: 200, G: 40, B: 40, A: 60}
)

// plotArea maps data coordinates onto the widget.
type plotArea struct {
	x, y, w, h float32
	xMin, xMax time.Time
}

func (p plotArea) timeX(t time.Time) float32 {
	span := p.xMax.Sub(p.xMin).Seconds()
	if span <= 0 {
		return p.x
	}
	return p.x + float32(t.Sub(p.xMin).Seconds()/span)*p.w
}

func (p plotArea) valueY(v, lo, hi float64) float32 {
	if hi <= lo {
		return p.y + p.h/2
	}
	return p.y + p.h - float32((v-lo)/(hi-lo))*p.h
}

// scopeRenderer renders the scope widget.
type scopeRenderer struct {
	scope *ScopeWidget

	// Background
	grid *canvas.Rectangle

	// Objects list for Fyne
	objects []fyne.CanvasObject

	// Track last size to detect changes
	lastSize fyne.Size
}

// MinSize returns the minimum size of the widget.
func (r *scopeRenderer) MinSize() fyne.Size {
	return fyne.NewSize(400, 300)
}

// Layout arranges the widget components.
func (r *scopeRenderer) Layout(size fyne.Size) {
	r.grid.Resize(size)

	if r.lastSize != size {
		r.lastSize = size
		r.scope.BaseWidget.Refresh()
	}
}

// Refresh updates the widget display.
func (r *scopeRenderer) Refresh() {
	r.scope.mu.RLock()
	samples := r.scope.displaySamples
	excursions := r.scope.excursions
	tMin, tMax := r.scope.tMin, r.scope.tMax
	phMin, phMax := r.scope.phMin, r.scope.phMax
	p := plotArea{xMin: r.scope.xMin, xMax: r.scope.xMax}
	low, high := r.scope.cfg.Measurement.PHLow, r.scope.cfg.Measurement.PHHigh
	r.scope.mu.RUnlock()

	size := r.scope.Size()
	if size.Width == 0 || size.Height == 0 {
		return
	}

	// Clear old objects (but keep grid)
	r.objects = []fyne.CanvasObject{r.grid}

	const marginLeft, marginRight, marginTop, marginBottom = 60, 50, 20, 40
	p.x, p.y = marginLeft, marginTop
	p.w = size.Width - marginLeft - marginRight
	p.h = size.Height - marginTop - marginBottom

	r.drawGrid(p, tMin, tMax, phMin, phMax)
	r.drawExcursions(p, excursions)
	r.drawBand(p, low, high, phMin, phMax)

	if len(samples) > 1 {
		r.drawLine(p, samples, func(s sample.Sample) float64 { return s.Celsius() }, tMin, tMax, temperatureColor, 1.5)
		r.drawLine(p, samples, func(s sample.Sample) float64 { return s.PH }, phMin, phMax, phColor, 2.5)
	}

	if rate, ok := r.scope.LatestRate(); ok {
		r.drawRate(p, rate)
	}
}

// drawGrid draws the grid with temperature labels on the left and pH on the right.
func (r *scopeRenderer) drawGrid(p plotArea, tMin, tMax, phMin, phMax float64) {
	numHLines := 8
	for i := range numHLines + 1 {
		y := p.y + float32(i)*p.h/float32(numHLines)
		r.addLine(gridColor, 1, fyne.NewPos(p.x, y), fyne.NewPos(p.x+p.w, y))

		t := tMax - float64(i)*(tMax-tMin)/float64(numHLines)
		r.addText(formatCelsius(t), labelColor, 10, fyne.TextAlignTrailing, fyne.NewPos(p.x-5, y-6))

		ph := phMax - float64(i)*(phMax-phMin)/float64(numHLines)
		r.addText(formatPH(ph), labelColor, 10, fyne.TextAlignLeading, fyne.NewPos(p.x+p.w+5, y-6))
	}

	numVLines := 10
	span := p.xMax.Sub(p.xMin)
	for i := range numVLines + 1 {
		x := p.x + float32(i)*p.w/float32(numVLines)
		r.addLine(gridColor, 1, fyne.NewPos(x, p.y), fyne.NewPos(x, p.y+p.h))

		offset := span * time.Duration(i) / time.Duration(numVLines)
		r.addText(formatTime(offset), labelColor, 10, fyne.TextAlignCenter, fyne.NewPos(x-20, p.y+p.h+5))
	}
}

// drawBand draws the healthy pH band limits.
func (r *scopeRenderer) drawBand(p plotArea, low, high, phMin, phMax float64) {
	for _, v := range []float64{low, high} {
		y := p.valueY(v, phMin, phMax)
		r.addLine(bandColor, 1, fyne.NewPos(p.x, y), fyne.NewPos(p.x+p.w, y))
	}
}

// drawExcursions shades the intervals during which pH was out of band.
func (r *scopeRenderer) drawExcursions(p plotArea, excursions []meter.Excursion) {
	for _, e := range excursions {
		x0 := max(p.timeX(e.StartTime), p.x)
		x1 := min(p.timeX(e.EndTime), p.x+p.w)
		if x1 <= x0 {
			x1 = x0 + 1
		}
		rect := canvas.NewRectangle(excursionColor)
		rect.Move(fyne.NewPos(x0, p.y))
		rect.Resize(fyne.NewSize(x1-x0, p.h))
		r.objects = append(r.objects, rect)

		r.addText(formatPH(e.Peak), phColor, 11, fyne.TextAlignCenter, fyne.NewPos((x0+x1)/2-20, p.y+2))
	}
}

// drawLine draws a connected curve of one quantity.
func (r *scopeRenderer) drawLine(p plotArea, samples []sample.Sample, value func(sample.Sample) float64, lo, hi float64, c color.Color, width float32) {
	prev := fyne.NewPos(p.timeX(samples[0].Timestamp), p.valueY(value(samples[0]), lo, hi))
	for _, s := range samples[1:] {
		pos := fyne.NewPos(p.timeX(s.Timestamp), p.valueY(value(s), lo, hi))
		r.addLine(c, width, prev, pos)
		prev = pos
	}
}

// drawRate draws the latest temperature trend indicator.
func (r *scopeRenderer) drawRate(p plotArea, rate float64) {
	r.addText(formatRate(rate), color.RGBA{R: 200, G: 200, B: 200, A: 255}, 11, fyne.TextAlignLeading, fyne.NewPos(p.x+10, p.y+10))
}

func (r *scopeRenderer) addLine(c color.Color, width float32, from, to fyne.Position) {
	line := canvas.NewLine(c)
	line.Position1 = from
	line.Position2 = to
	line.StrokeWidth = width
	r.objects = append(r.objects, line)
}

func (r *scopeRenderer) addText(s string, c color.Color, size float32, align fyne.TextAlign, pos fyne.Position) {
	text := canvas.NewText(s, c)
	text.TextSize = size
	text.Alignment = align
	text.Move(pos)
	r.objects = append(r.objects, text)
}

// Objects returns all canvas objects for rendering.
func (r *scopeRenderer) Objects() []fyne.CanvasObject {
	return r.objects
}

// Destroy cleans up resources.
func (r *scopeRenderer) Destroy() {}

func formatCelsius(v float64) string {
	return fmt.Sprintf("%.1f°C", v)
}

func formatPH(v float64) string {
	return fmt.Sprintf("%.2f", v)
}

func formatRate(v float64) string {
	return fmt.Sprintf("%+.2f °C/min", v)
}

func formatTime(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%.0fs", d.Seconds())
	}
	return fmt.Sprintf("%.1fm", d.Minutes())
}
