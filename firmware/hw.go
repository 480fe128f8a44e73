//go:build tinygo

package main

import (
	"machine"
	"runtime/volatile"
	"time"
	"unsafe"

	"periph.io/x/conn/v3/gpio"
	"tinygo.org/x/drivers/delay"

	"github.com/itohio/algaemon/pkg/hal"
)

// pin adapts a machine.Pin to the hal line interfaces. Configure is cheap on
// AVR (a DDR bit and a PORT bit), so direction changes per call.
type pin machine.Pin

var _ hal.Line = pin(0)

func (p pin) Out(l gpio.Level) error {
	mp := machine.Pin(p)
	mp.Configure(machine.PinConfig{Mode: machine.PinOutput})
	mp.Set(bool(l))
	return nil
}

func (p pin) In(pull gpio.Pull, _ gpio.Edge) error {
	mode := machine.PinInput
	if pull == gpio.PullUp {
		mode = machine.PinInputPullup
	}
	machine.Pin(p).Configure(machine.PinConfig{Mode: mode})
	return nil
}

func (p pin) Read() gpio.Level {
	return gpio.Level(machine.Pin(p).Get())
}

// registers is the AVR data memory space.
type registers struct{}

var _ hal.Registers = registers{}

func (registers) Read(addr uint16) uint8 {
	return volatile.LoadUint8((*uint8)(unsafe.Pointer(uintptr(addr))))
}

func (registers) Write(addr uint16, v uint8) {
	volatile.StoreUint8((*uint8)(unsafe.Pointer(uintptr(addr))), v)
}

// busyWait spins for microsecond slot timings. delay.Sleep is only cycle
// accurate for constant arguments, so the bus and shift register slot
// lengths each get their own call. Anything else is approximate.
var busyWait = hal.DelayFunc(func(d time.Duration) {
	switch d {
	case 5 * time.Microsecond:
		delay.Sleep(5 * time.Microsecond)
	case 10 * time.Microsecond:
		delay.Sleep(10 * time.Microsecond)
	case 45 * time.Microsecond:
		delay.Sleep(45 * time.Microsecond)
	case 55 * time.Microsecond:
		delay.Sleep(55 * time.Microsecond)
	case 70 * time.Microsecond:
		delay.Sleep(70 * time.Microsecond)
	case 410 * time.Microsecond:
		delay.Sleep(410 * time.Microsecond)
	case 500 * time.Microsecond:
		delay.Sleep(500 * time.Microsecond)
	default:
		delay.Sleep(d)
	}
})
