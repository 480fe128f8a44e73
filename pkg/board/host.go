package board

import (
	"fmt"

	"github.com/jonboulle/clockwork"
	"periph.io/x/conn/v3/gpio"

	"github.com/itohio/algaemon/pkg/display"
	"github.com/itohio/algaemon/pkg/hal"
)

// HostPins names the periph pins of a monitor wired to a single board
// computer header.
type HostPins struct {
	OneWire string
	Data    string
	Clock   string
	Latch   string
	Digits  [display.Digits]string
	Air     string
}

// DefaultHostPins is a Raspberry Pi header layout.
func DefaultHostPins() HostPins {
	return HostPins{
		OneWire: "GPIO4",
		Data:    "GPIO17",
		Clock:   "GPIO27",
		Latch:   "GPIO22",
		Digits:  [display.Digits]string{"GPIO5", "GPIO6", "GPIO13", "GPIO19"},
		Air:     "GPIO26",
	}
}

func (p HostPins) names() []string {
	names := []string{p.OneWire, p.Data, p.Clock, p.Latch}
	names = append(names, p.Digits[:]...)
	return append(names, p.Air)
}

// NewHost opens the pins through periph and assembles the monitor on them.
// Host boards have no analog inputs; adc supplies the pH channel.
func NewHost(clock clockwork.Clock, opts Options, pins HostPins, adc hal.ADC) (*Core, error) {
	opened, err := hal.OpenHostPins(pins.names()...)
	if err != nil {
		return nil, fmt.Errorf("failed to open pins: %w", err)
	}
	return NewCore(clock, opts, hostPeripherals(opened, adc, hal.BusyWait{})), nil
}

// hostPeripherals maps pins, ordered as HostPins.names, onto peripherals.
func hostPeripherals(pins []gpio.PinIO, adc hal.ADC, delay hal.Delayer) Peripherals {
	p := Peripherals{
		OneWire: pins[0],
		Data:    pins[1],
		Clock:   pins[2],
		Latch:   pins[3],
		Air:     pins[4+display.Digits],
		ADC:     adc,
		Delay:   delay,
	}
	for i := range p.Digits {
		p.Digits[i] = pins[4+i]
	}
	return p
}
