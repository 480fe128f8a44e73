// Package board assembles the monitor core on simulated hardware: the same
// one-wire driver, scheduler, multiplexer and control loop the firmware
// runs, wired to the peripheral models of package sim.
package board

import (
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"periph.io/x/conn/v3/gpio/gpiotest"

	"github.com/itohio/algaemon/pkg/config"
	"github.com/itohio/algaemon/pkg/control"
	"github.com/itohio/algaemon/pkg/display"
	"github.com/itohio/algaemon/pkg/hal"
	"github.com/itohio/algaemon/pkg/onewire"
	"github.com/itohio/algaemon/pkg/sensor"
	"github.com/itohio/algaemon/pkg/sim"
)

// Options selects the board parameters.
type Options struct {
	ConversionTime time.Duration
	Calibration    sensor.Calibration
	Dwell          time.Duration
	AirPeriod      time.Duration
	AirOn          time.Duration
	AutoRefresh    bool
	RefreshPeriod  time.Duration
	ADCLatency     int
}

// DefaultOptions returns the firmware's compiled parameters.
func DefaultOptions() Options {
	return Options{
		ConversionTime: sensor.DefaultConversionTime,
		Calibration:    sensor.DefaultCalibration(),
		Dwell:          control.DefaultDwell,
		AirPeriod:      control.DefaultAirPeriod,
		AirOn:          control.DefaultAirOn,
		RefreshPeriod:  display.TimerPeriod(display.CPUFrequency, display.TimerPrescaler),
		ADCLatency:     13,
	}
}

// OptionsFromConfig maps a host configuration onto board options.
func OptionsFromConfig(cfg *config.Config) Options {
	o := DefaultOptions()
	o.ConversionTime = cfg.Sensor.ConversionTime
	o.Calibration = cfg.Sensor.Calibration
	o.Dwell = cfg.Display.Dwell
	o.AirPeriod = cfg.Air.Period
	o.AirOn = cfg.Air.On
	o.AutoRefresh = cfg.Display.AutoRefresh
	o.RefreshPeriod = display.TimerPeriod(cfg.Display.CPUFrequency, cfg.Display.Prescaler)
	return o
}

// Core is the monitor logic wired to a set of peripherals.
type Core struct {
	Bus       *onewire.Bus
	Display   *display.Multiplexer
	Scheduler *sensor.Scheduler
	Modes     *control.ModeController
	Pump      *control.AirPump
	Loop      *control.Loop

	refresh *display.RefreshTask
}

// Peripherals are the lines and converters a Core drives.
type Peripherals struct {
	OneWire hal.Line
	Data    hal.Output // Shift register serial input
	Clock   hal.Output // Shift register clock
	Latch   hal.Output // Shift register storage clock
	Digits  [display.Digits]hal.Output
	Air     hal.Output
	ADC     hal.ADC
	Delay   hal.Delayer // Microsecond busy waits
}

// NewCore assembles the monitor on p, running the power-on lamp test first.
func NewCore(clock clockwork.Clock, opts Options, p Peripherals) *Core {
	c := &Core{}

	reg := display.NewShiftRegister(p.Data, p.Clock, p.Latch, p.Delay)
	c.Display = display.NewMultiplexer(reg, p.Digits)
	c.Display.LampTest(p.Delay, display.LampTestHold)
	c.Display.SetAutoRefresh(opts.AutoRefresh)

	c.Bus = onewire.New(p.OneWire, p.Delay, c.Display)

	c.Scheduler = sensor.NewScheduler(c.Bus, p.ADC,
		sensor.WithCalibration(opts.Calibration),
		sensor.WithConversionTime(opts.ConversionTime),
	)
	c.Modes = control.NewModeController(opts.Dwell, c.Display)
	c.Pump = control.NewAirPump(p.Air, opts.AirPeriod, opts.AirOn)
	c.Loop = control.NewLoop(clock, c.Scheduler, c.Modes, c.Display, c.Pump)

	if opts.AutoRefresh && opts.RefreshPeriod > 0 {
		c.refresh = display.NewRefreshTask(c.Display, clock, opts.RefreshPeriod)
	}
	return c
}

// Run runs the refresh task, if enabled, and the control loop until ctx is
// done.
func (c *Core) Run(ctx context.Context) error {
	var wg sync.WaitGroup
	if c.refresh != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.refresh.Run(ctx)
		}()
	}

	err := c.Loop.Run(ctx)
	wg.Wait()
	return err
}

// Simulated is a complete monitor on simulated hardware.
type Simulated struct {
	// Peripherals. Microsecond delays advance Wire; milliseconds come from
	// the clockwork clock.
	Wire        *sim.Clock
	Thermometer *sim.Thermometer
	ADC         *sim.ADCRegisters
	Panel       *sim.Panel
	Air         *gpiotest.Pin

	*Core
}

// NewSimulated builds a board on clock and runs the power-on lamp test.
func NewSimulated(clock clockwork.Clock, opts Options) *Simulated {
	b := &Simulated{
		Wire:  &sim.Clock{},
		ADC:   sim.NewADCRegisters(),
		Panel: sim.NewPanel(),
		Air:   &gpiotest.Pin{N: "D5", Num: 5},
	}
	b.Thermometer = sim.NewThermometer(b.Wire)
	b.ADC.Latency = opts.ADCLatency

	adc := hal.NewRegisterADC(b.ADC)
	adc.Init()

	b.Core = NewCore(clock, opts, Peripherals{
		OneWire: b.Thermometer,
		Data:    b.Panel.Data(),
		Clock:   b.Panel.Clock(),
		Latch:   b.Panel.Latch(),
		Digits:  b.Panel.DigitLines(),
		Air:     b.Air,
		ADC:     adc,
		Delay:   b.Wire,
	})
	return b
}

// Shown returns the text form of the display buffer.
func (b *Simulated) Shown() string {
	return display.Render(b.Display.Cells())
}

// SetPHRaw sets the ADC count of the pH amplifier.
func (b *Simulated) SetPHRaw(raw uint16) {
	b.ADC.SetChannel(sensor.PHChannel, raw)
}
