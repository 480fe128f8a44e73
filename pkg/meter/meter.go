// Package meter keeps the recent history of monitor samples, the
// temperature trend between them and the intervals during which the pH
// left the healthy band.
package meter

import (
	"sync"
	"time"

	"github.com/itohio/algaemon/pkg/config"
	"github.com/itohio/algaemon/pkg/sample"
)

var _ Monitor = (*Meter)(nil)

// Excursion is an interval of consecutive samples with pH outside the band.
type Excursion struct {
	StartIndex int       // First sample index in buffer
	EndIndex   int       // Last sample index in buffer (updated while the excursion continues)
	StartTime  time.Time // First out of band timestamp
	EndTime    time.Time // Last out of band timestamp
	Peak       float64   // pH furthest from the band
	High       bool      // Above the band (otherwise below)
}

// Duration returns the time between the first and last out of band sample.
func (e Excursion) Duration() time.Duration {
	return e.EndTime.Sub(e.StartTime)
}

// Monitor processes samples, maintains buffers, and detects excursions.
type Monitor interface {
	ProcessSamples(input <-chan sample.Sample)
	Samples() []sample.Sample                                                     // Current samples buffer (ordered first to last)
	Rates() []float64                                                             // Temperature change in °C/min (n-1 rates for n samples)
	Excursions() []Excursion                                                      // pH excursions within window
	OnUpdate(func(samples []sample.Sample, rates []float64, excursions []Excursion)) // Register callback for updates
}

// Meter implements Monitor.
//
// Rates correspond exactly to sample pairs: rate[i] is the temperature change
// from sample[i] to sample[i+1], so n samples always carry n-1 rates.
// Samples older than the window (by timestamp) are dropped together with
// their rates.
type Meter struct {
	samples    []sample.Sample
	rates      []float64
	excursions []Excursion

	mu sync.RWMutex

	callbacks []func(samples []sample.Sample, rates []float64, excursions []Excursion)
	cbMu      sync.RWMutex

	window       time.Duration
	low, high    float64
	minExcursion time.Duration

	// Set when the input channel closes, prevents further callbacks
	shutdown bool
}

// New creates a new Meter from the measurement configuration.
func New(cfg *config.Config) *Meter {
	return &Meter{
		samples:      make([]sample.Sample, 0),
		rates:        make([]float64, 0),
		excursions:   make([]Excursion, 0),
		window:       cfg.Measurement.Window,
		low:          cfg.Measurement.PHLow,
		high:         cfg.Measurement.PHHigh,
		minExcursion: cfg.Measurement.MinExcursion,
	}
}

// ProcessSamples processes samples from the input channel until it closes.
// When the input channel closes, it sets shutdown flag to prevent further callbacks.
func (m *Meter) ProcessSamples(input <-chan sample.Sample) {
	for s := range input {
		m.processSample(s)
	}
	m.mu.Lock()
	m.shutdown = true
	m.mu.Unlock()
}

// processSample adds a sample to the buffer, updates rates and excursions,
// and notifies the callbacks.
func (m *Meter) processSample(s sample.Sample) {
	m.mu.Lock()
	m.samples = append(m.samples, s)
	m.trim(s.Timestamp.Add(-m.window))
	m.updateRates()
	m.updateExcursions()
	notify := !m.shutdown
	m.mu.Unlock()

	if notify {
		m.notifyCallbacks()
	}
}

// trim removes samples at or before cutoff along with their rates and
// shifts excursion indices.
func (m *Meter) trim(cutoff time.Time) {
	cut := 0
	for cut < len(m.samples)-1 && !m.samples[cut].Timestamp.After(cutoff) {
		cut++
	}
	if cut == 0 {
		return
	}

	m.samples = m.samples[cut:]
	if cut <= len(m.rates) {
		m.rates = m.rates[cut:]
	} else {
		m.rates = m.rates[:0]
	}

	valid := m.excursions[:0]
	for _, e := range m.excursions {
		e.StartIndex -= cut
		e.EndIndex -= cut
		if e.EndIndex < 0 {
			continue
		}
		if e.StartIndex < 0 {
			e.StartIndex = 0
			e.StartTime = m.samples[0].Timestamp
		}
		valid = append(valid, e)
	}
	m.excursions = valid
}

// updateRates appends the rate for the newest sample pair.
func (m *Meter) updateRates() {
	n := len(m.samples)
	if n < 2 {
		return
	}
	prev, curr := m.samples[n-2], m.samples[n-1]

	var rate float64
	if dt := curr.Timestamp.Sub(prev.Timestamp).Minutes(); dt > 0 {
		rate = (curr.Celsius() - prev.Celsius()) / dt
	}
	m.rates = append(m.rates, rate)
	if len(m.rates) > n-1 {
		m.rates = m.rates[len(m.rates)-(n-1):]
	}
}

// updateExcursions extends the running excursion or starts a new one when
// the newest sample is out of band.
func (m *Meter) updateExcursions() {
	idx := len(m.samples) - 1
	s := m.samples[idx]

	above := s.PH > m.high
	if !above && s.PH >= m.low {
		return
	}

	if n := len(m.excursions); n > 0 {
		e := &m.excursions[n-1]
		if e.EndIndex == idx-1 && e.High == above {
			e.EndIndex = idx
			e.EndTime = s.Timestamp
			if (above && s.PH > e.Peak) || (!above && s.PH < e.Peak) {
				e.Peak = s.PH
			}
			return
		}
	}

	m.excursions = append(m.excursions, Excursion{
		StartIndex: idx,
		EndIndex:   idx,
		StartTime:  s.Timestamp,
		EndTime:    s.Timestamp,
		Peak:       s.PH,
		High:       above,
	})
}

// Samples returns a copy of the current samples buffer.
func (m *Meter) Samples() []sample.Sample {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]sample.Sample, len(m.samples))
	copy(result, m.samples)
	return result
}

// Rates returns a copy of the current rates buffer.
func (m *Meter) Rates() []float64 {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]float64, len(m.rates))
	copy(result, m.rates)
	return result
}

// Excursions returns the excursions lasting at least the configured minimum.
func (m *Meter) Excursions() []Excursion {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.reported()
}

func (m *Meter) reported() []Excursion {
	result := make([]Excursion, 0, len(m.excursions))
	for _, e := range m.excursions {
		if e.Duration() >= m.minExcursion {
			result = append(result, e)
		}
	}
	return result
}

// OnUpdate registers a callback function that will be called when samples are updated.
// The callback should copy data quickly and return as fast as possible.
func (m *Meter) OnUpdate(callback func(samples []sample.Sample, rates []float64, excursions []Excursion)) {
	m.cbMu.Lock()
	defer m.cbMu.Unlock()
	m.callbacks = append(m.callbacks, callback)
}

// ResetShutdown resets the shutdown flag, allowing callbacks to be sent again.
// This should be called before starting a new measurement chain.
func (m *Meter) ResetShutdown() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.shutdown = false
}

// notifyCallbacks invokes all registered callbacks with copies of the current data.
func (m *Meter) notifyCallbacks() {
	m.mu.RLock()
	samplesCopy := make([]sample.Sample, len(m.samples))
	copy(samplesCopy, m.samples)
	ratesCopy := make([]float64, len(m.rates))
	copy(ratesCopy, m.rates)
	excursions := m.reported()
	m.mu.RUnlock()

	m.cbMu.RLock()
	callbacks := make([]func(samples []sample.Sample, rates []float64, excursions []Excursion), len(m.callbacks))
	copy(callbacks, m.callbacks)
	m.cbMu.RUnlock()

	for _, cb := range callbacks {
		if cb != nil {
			cb(samplesCopy, ratesCopy, excursions)
		}
	}
}
