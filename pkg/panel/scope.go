// Package panel provides the fyne widgets of the desktop monitor: a trend
// scope for temperature and pH history and a replica of the board's
// seven segment display.
package panel

import (
	"image/color"
	"sync"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/widget"

	"github.com/itohio/algaemon/pkg/config"
	"github.com/itohio/algaemon/pkg/meter"
	"github.com/itohio/algaemon/pkg/sample"
)

// ScopeWidget is a custom Fyne widget that plots temperature and pH trends.
type ScopeWidget struct {
	widget.BaseWidget

	cfg *config.Config

	// Data (protected by mu)
	mu         sync.RWMutex
	samples    []sample.Sample
	rates      []float64
	excursions []meter.Excursion

	// Display buffer (reused for downsampling)
	displaySamples []sample.Sample

	// Auto-scaling
	tMin, tMax   float64 // °C, left axis
	phMin, phMax float64 // right axis
	xMin, xMax   time.Time

	maxDisplayPoints int
}

// NewScope creates a new ScopeWidget instance.
func NewScope(cfg *config.Config) *ScopeWidget {
	points := cfg.Measurement.History
	if points <= 0 {
		points = 100
	}
	s := &ScopeWidget{
		cfg:              cfg,
		displaySamples:   make([]sample.Sample, 0, points),
		maxDisplayPoints: points,
	}
	s.ExtendBaseWidget(s)
	s.updateAutoScale()
	return s
}

// UpdateData updates the widget with new measurement data.
// This should be called from the meter callback using fyne.Do().
func (s *ScopeWidget) UpdateData(samples []sample.Sample, rates []float64, excursions []meter.Excursion) {
	s.mu.Lock()
	s.displaySamples = sample.Downsample(s.displaySamples, samples, s.maxDisplayPoints)
	s.samples = samples
	s.rates = rates
	s.excursions = excursions
	s.updateAutoScale()
	s.mu.Unlock()

	// Refresh the widget (must be outside lock to avoid potential deadlock)
	s.Refresh()
}

// LatestRate returns the most recent temperature trend in °C/min.
func (s *ScopeWidget) LatestRate() (float64, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.rates) == 0 {
		return 0, false
	}
	return s.rates[len(s.rates)-1], true
}

// updateAutoScale calculates axis ranges from current data.
func (s *ScopeWidget) updateAutoScale() {
	band := []float64{s.cfg.Measurement.PHLow, s.cfg.Measurement.PHHigh}
	if len(s.displaySamples) == 0 {
		s.tMin, s.tMax = 20, 30
		s.phMin, s.phMax = scaleRange(band, 1)
		s.xMin = time.Now()
		s.xMax = s.xMin.Add(s.cfg.Measurement.Window)
		return
	}

	temps := make([]float64, len(s.displaySamples))
	phs := make([]float64, 0, len(s.displaySamples)+2)
	for i, d := range s.displaySamples {
		temps[i] = d.Celsius()
		phs = append(phs, d.PH)
	}
	s.tMin, s.tMax = scaleRange(temps, 1)
	s.phMin, s.phMax = scaleRange(append(phs, band...), 1)

	s.xMin = s.displaySamples[0].Timestamp
	s.xMax = s.displaySamples[len(s.displaySamples)-1].Timestamp
	// Ensure minimum window
	if s.xMax.Sub(s.xMin) < s.cfg.Measurement.Window {
		s.xMax = s.xMin.Add(s.cfg.Measurement.Window)
	}
}

// scaleRange returns the range of values widened by a 10% margin. Ranges
// narrower than minSpan are centred and widened to minSpan first.
func scaleRange(values []float64, minSpan float64) (lo, hi float64) {
	if len(values) == 0 {
		return 0, minSpan
	}
	lo, hi = values[0], values[0]
	for _, v := range values[1:] {
		lo = min(lo, v)
		hi = max(hi, v)
	}
	if span := hi - lo; span < minSpan {
		mid := (lo + hi) / 2
		lo, hi = mid-minSpan/2, mid+minSpan/2
	}
	margin := (hi - lo) * 0.1
	return lo - margin, hi + margin
}

// CreateRenderer creates the widget renderer.
func (s *ScopeWidget) CreateRenderer() fyne.WidgetRenderer {
	grid := canvas.NewRectangle(color.RGBA{R: 20, G: 20, B: 20, A: 255}) // Dark background
	return &scopeRenderer{
		scope:   s,
		grid:    grid,
		objects: []fyne.CanvasObject{grid},
	}
}
