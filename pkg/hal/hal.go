// Package hal holds the minimal hardware capabilities the monitor core needs.
//
// The interfaces are deliberately small subsets of periph.io's gpio types so
// that a periph gpio.PinIO, a gpiotest.Pin, a TinyGo machine.Pin adapter or a
// simulated pin can all be plugged in.
package hal

import (
	"time"

	"periph.io/x/conn/v3/gpio"
)

// Output is a push-pull output line.
type Output interface {
	Out(l gpio.Level) error
}

// Line is a bidirectional line as used by open-drain protocols: it is driven
// low with Out and released by switching it to an input with a pull-up.
type Line interface {
	Output
	In(pull gpio.Pull, edge gpio.Edge) error
	Read() gpio.Level
}

// Delayer busy-waits for short, precise durations.
type Delayer interface {
	Delay(d time.Duration)
}

// ADC reads a single conversion from an analog channel.
type ADC interface {
	Read(channel uint8) uint16
}

// Registers is byte-wide access to memory-mapped peripheral registers.
type Registers interface {
	Read(addr uint16) uint8
	Write(addr uint16, v uint8)
}

var (
	_ Line   = gpio.PinIO(nil)
	_ Output = gpio.PinOut(nil)
)
