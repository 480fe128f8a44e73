// Package sim provides simulated peripherals that stand in for the monitor's
// hardware: a one-wire temperature sensor, the ADC register file and the
// shift-register driven display. Everything runs on a virtual timeline so
// protocol timing can be asserted without real-time stalls.
package sim

import (
	"sync"
	"time"

	"periph.io/x/conn/v3/gpio"

	"github.com/itohio/algaemon/pkg/hal"
)

// Clock is a virtual microsecond timeline. Delay advances it instantly.
type Clock struct {
	mu  sync.Mutex
	now time.Duration
}

var _ hal.Delayer = (*Clock)(nil)

// Delay advances the timeline by d.
func (c *Clock) Delay(d time.Duration) {
	c.mu.Lock()
	c.now += d
	c.mu.Unlock()
}

// Now returns the time elapsed on the timeline.
func (c *Clock) Now() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// outputFunc adapts a function to hal.Output.
type outputFunc func(l gpio.Level) error

func (f outputFunc) Out(l gpio.Level) error {
	return f(l)
}
