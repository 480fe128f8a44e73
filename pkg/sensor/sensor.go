// Package sensor interleaves the slow one-wire temperature conversion with
// fast analog pH sampling without ever blocking the control loop.
//
// The Scheduler is a state machine ticked once per loop iteration with the
// current time in milliseconds. A temperature conversion is only started
// while pH is on the display, so its 750ms latency is hidden by the dwell
// period; pH is sampled whenever temperature is shown.
package sensor

import (
	"fmt"
	"log"
	"time"

	"github.com/itohio/algaemon/pkg/hal"
)

// PHChannel is the ADC channel of the pH probe amplifier.
const PHChannel uint8 = 0

// DefaultConversionTime is the worst-case temperature conversion time.
const DefaultConversionTime = 750 * time.Millisecond

// Initial values shown until the first readings land.
const (
	InitialTemperature float32 = 25.0
	InitialPH          float32 = 7.0
)

// Thermometer is a two-phase temperature source. The result of a started
// conversion must not be collected before the conversion time has elapsed.
type Thermometer interface {
	StartConversion() error
	ReadAfterConversion() (int16, error)
}

// Values holds the latest measurements.
type Values struct {
	Temperature float32 // °C
	PH          float32
}

// State is the scheduler state.
type State int

const (
	Idle State = iota
	TemperatureConverting
	TemperatureReady
	PHReading
	PHReady
)

func (s State) String() string {
	switch s {
	case Idle:
		return "Idle"
	case TemperatureConverting:
		return "TemperatureConverting"
	case TemperatureReady:
		return "TemperatureReady"
	case PHReading:
		return "PHReading"
	case PHReady:
		return "PHReady"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithCalibration replaces the default pH calibration.
func WithCalibration(c Calibration) Option {
	return func(s *Scheduler) {
		s.calibration = c
	}
}

// WithConversionTime replaces the default conversion time.
func WithConversionTime(d time.Duration) Option {
	return func(s *Scheduler) {
		s.conversionMs = uint64(d / time.Millisecond)
	}
}

// Scheduler owns the sensor state and the latest Values. It is not safe for
// concurrent use: Tick, Prime and Values belong to the control loop.
type Scheduler struct {
	therm        Thermometer
	adc          hal.ADC
	calibration  Calibration
	conversionMs uint64

	state        State
	convertStart uint64
	values       Values
	failures     int
}

// NewScheduler creates an idle scheduler with the initial values.
func NewScheduler(therm Thermometer, adc hal.ADC, opts ...Option) *Scheduler {
	s := &Scheduler{
		therm:        therm,
		adc:          adc,
		calibration:  DefaultCalibration(),
		conversionMs: uint64(DefaultConversionTime / time.Millisecond),
		values: Values{
			Temperature: InitialTemperature,
			PH:          InitialPH,
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Prime starts the first temperature conversion at boot so a real reading
// is available by the time the display first shows temperature.
func (s *Scheduler) Prime(nowMs uint64) {
	s.startConversion(nowMs)
}

// Tick advances the state machine by at most one transition.
func (s *Scheduler) Tick(nowMs uint64, showingTemperature bool) {
	switch s.state {
	case Idle:
		if showingTemperature {
			s.state = PHReading
			return
		}
		s.startConversion(nowMs)

	case TemperatureConverting:
		if nowMs-s.convertStart >= s.conversionMs {
			s.state = TemperatureReady
		}

	case TemperatureReady:
		s.state = Idle
		t, err := s.therm.ReadAfterConversion()
		if err != nil {
			s.fail("read temperature", err)
			return
		}
		s.values.Temperature = float32(t) / 10

	case PHReading:
		raw := s.adc.Read(PHChannel)
		s.values.PH = s.calibration.PH(raw)
		s.state = PHReady

	case PHReady:
		s.state = Idle
	}
}

// State returns the current state and, for TemperatureConverting, the time
// the conversion was started.
func (s *Scheduler) State() (State, uint64) {
	if s.state == TemperatureConverting {
		return s.state, s.convertStart
	}
	return s.state, 0
}

// Values returns the latest measurements.
func (s *Scheduler) Values() Values {
	return s.values
}

// Failures returns the number of failed temperature transactions.
func (s *Scheduler) Failures() int {
	return s.failures
}

// startConversion enters TemperatureConverting even when the start fails;
// the read at the end of the conversion time then fails too, so an absent
// sensor is retried once per conversion cycle.
func (s *Scheduler) startConversion(nowMs uint64) {
	if err := s.therm.StartConversion(); err != nil {
		s.fail("start conversion", err)
	}
	s.state = TemperatureConverting
	s.convertStart = nowMs
}

func (s *Scheduler) fail(op string, err error) {
	s.failures++
	log.Printf("sensor: %s: %v", op, err)
}
