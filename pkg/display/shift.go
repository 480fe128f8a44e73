package display

import (
	"time"

	"periph.io/x/conn/v3/gpio"

	"github.com/itohio/algaemon/pkg/hal"
)

// Shift register timing. The 74HC595 needs only tens of nanoseconds.
const (
	latchSetup = 5 * time.Microsecond
	dataSetup  = 5 * time.Microsecond
	clockHigh  = 10 * time.Microsecond
	clockLow   = 5 * time.Microsecond
	latchHold  = 10 * time.Microsecond
)

// ShiftRegister drives a serial-in, parallel-out shift register with a
// storage latch.
type ShiftRegister struct {
	data  hal.Output
	clock hal.Output
	latch hal.Output
	delay hal.Delayer
}

// NewShiftRegister creates a shift register on the given lines and pulls
// all three low.
func NewShiftRegister(data, clock, latch hal.Output, delay hal.Delayer) *ShiftRegister {
	s := &ShiftRegister{
		data:  data,
		clock: clock,
		latch: latch,
		delay: delay,
	}
	latch.Out(gpio.Low)
	clock.Out(gpio.Low)
	data.Out(gpio.Low)
	return s
}

// Shift clocks v out MSB first and latches it onto the outputs.
func (s *ShiftRegister) Shift(v uint8) {
	s.latch.Out(gpio.Low)
	s.delay.Delay(latchSetup)

	for i := 7; i >= 0; i-- {
		s.data.Out(gpio.Level(v&(1<<i) != 0))
		s.delay.Delay(dataSetup)
		s.clock.Out(gpio.High)
		s.delay.Delay(clockHigh)
		s.clock.Out(gpio.Low)
		s.delay.Delay(clockLow)
	}

	s.delay.Delay(latchSetup)
	s.latch.Out(gpio.High)
	s.delay.Delay(latchHold)
}
