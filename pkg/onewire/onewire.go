// Package onewire is a bit-banged driver for a single-device one-wire bus
// carrying a DS18B20-style temperature sensor.
//
// Conversions are split in two phases so the caller never blocks for the
// sensor's 750ms conversion: StartConversion returns as soon as the command
// is on the wire, and ReadAfterConversion collects the result once the
// caller's own clock says the conversion time has elapsed. Only the
// microsecond-scale slot timing busy-waits.
package onewire

import (
	"errors"
	"time"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/onewire"

	"github.com/itohio/algaemon/pkg/hal"
)

// Command bytes.
const (
	SkipROM        byte = 0xCC
	ConvertT       byte = 0x44
	ReadScratchpad byte = 0xBE
)

// ConversionTime is the worst-case 12-bit conversion time.
const ConversionTime = 750 * time.Millisecond

// Slot timing. All values are absolute: a preempted slot corrupts the bit.
const (
	resetLow      = 500 * time.Microsecond
	presenceWait  = 70 * time.Microsecond
	resetRecovery = 410 * time.Microsecond

	write1Low  = 10 * time.Microsecond
	write1Rest = 55 * time.Microsecond
	write0Low  = 70 * time.Microsecond
	write0Rest = 5 * time.Microsecond

	readLow    = 5 * time.Microsecond
	readSample = 10 * time.Microsecond
	readRest   = 45 * time.Microsecond
)

// Raw scratchpad values that never come from a valid conversion: all zeros
// and all ones (a floating line reads as 1s).
const (
	rawInvalidLow  uint16 = 0x0000
	rawInvalidHigh uint16 = 0xFFFF
)

// ErrNoDevice is returned when a reset sees no presence pulse.
var ErrNoDevice error = noDeviceError("onewire: no presence pulse")

// ErrInvalidReading is returned when the scratchpad holds a sentinel value.
var ErrInvalidReading = errors.New("onewire: invalid scratchpad reading")

// ErrSearchUnsupported is returned by Search; the bus addresses its only
// device with SKIP ROM.
var ErrSearchUnsupported = errors.New("onewire: ROM search is not supported")

type noDeviceError string

func (e noDeviceError) Error() string   { return string(e) }
func (e noDeviceError) NoDevices() bool { return true }

var _ onewire.NoDevicesError = noDeviceError("")

// Masker keeps a periodic interrupt off the wire during a transaction.
type Masker interface {
	Mask()
	Unmask()
}

// Bus drives a one-wire line.
type Bus struct {
	line  hal.Line
	delay hal.Delayer
	mask  Masker
}

var _ onewire.Bus = (*Bus)(nil)

// New creates a bus on line. mask may be nil when nothing else can preempt
// the caller.
func New(line hal.Line, delay hal.Delayer, mask Masker) *Bus {
	return &Bus{
		line:  line,
		delay: delay,
		mask:  mask,
	}
}

// String implements conn.Resource.
func (b *Bus) String() string {
	return "onewire"
}

// Halt implements conn.Resource. A transaction always runs to completion, so
// there is nothing to interrupt.
func (b *Bus) Halt() error {
	return nil
}

// Reset sends a reset pulse and reports whether a device answered with a
// presence pulse. The full 960µs reset slot is always consumed.
func (b *Bus) Reset() bool {
	b.driveLow()
	b.delay.Delay(resetLow)

	b.releaseLine()
	b.delay.Delay(presenceWait)

	present := b.line.Read() == gpio.Low

	b.delay.Delay(resetRecovery)
	return present
}

// WriteByte writes v LSB first.
func (b *Bus) WriteByte(v byte) error {
	for i := 0; i < 8; i++ {
		b.WriteBit(v&0x01 == 1)
		v >>= 1
	}
	return nil
}

// ReadByte reads one byte LSB first.
func (b *Bus) ReadByte() (byte, error) {
	var v byte
	for i := 0; i < 8; i++ {
		if b.ReadBit() {
			v |= 1 << i
		}
	}
	return v, nil
}

// WriteBit writes a single bit slot.
func (b *Bus) WriteBit(bit bool) {
	b.driveLow()
	if bit {
		b.delay.Delay(write1Low)
		b.releaseLine()
		b.delay.Delay(write1Rest)
		return
	}
	b.delay.Delay(write0Low)
	b.releaseLine()
	b.delay.Delay(write0Rest)
}

// ReadBit runs a single read slot.
func (b *Bus) ReadBit() bool {
	b.driveLow()
	b.delay.Delay(readLow)
	b.releaseLine()
	b.delay.Delay(readSample)
	bit := b.line.Read() == gpio.High
	b.delay.Delay(readRest)
	return bit
}

// StartConversion issues SKIP ROM + CONVERT T and returns immediately. The
// result must not be collected before ConversionTime has elapsed.
func (b *Bus) StartConversion() error {
	b.lock()
	defer b.unlock()

	if !b.Reset() {
		return ErrNoDevice
	}
	b.WriteByte(SkipROM)
	b.WriteByte(ConvertT)
	return nil
}

// ReadAfterConversion reads the first two scratchpad bytes and returns the
// temperature in tenths of a degree Celsius.
func (b *Bus) ReadAfterConversion() (int16, error) {
	b.lock()
	defer b.unlock()

	if !b.Reset() {
		return 0, ErrNoDevice
	}
	b.WriteByte(SkipROM)
	b.WriteByte(ReadScratchpad)

	low, _ := b.ReadByte()
	high, _ := b.ReadByte()
	return Decidegrees(uint16(high)<<8 | uint16(low))
}

// Decidegrees converts a raw 1/16°C scratchpad value to tenths of a degree,
// truncating toward zero. The product is widened to 32 bits; the result
// always fits in an int16.
func Decidegrees(raw uint16) (int16, error) {
	if raw == rawInvalidLow || raw == rawInvalidHigh {
		return 0, ErrInvalidReading
	}
	return int16(int32(int16(raw)) * 10 / 16), nil
}

// Tx implements onewire.Bus: reset, write w, then read len(r) bytes. The
// power argument is ignored; the sensor is powered through its own pin.
func (b *Bus) Tx(w, r []byte, power onewire.Pullup) error {
	b.lock()
	defer b.unlock()

	if !b.Reset() {
		return ErrNoDevice
	}
	for _, v := range w {
		b.WriteByte(v)
	}
	for i := range r {
		r[i], _ = b.ReadByte()
	}
	return nil
}

// Search implements onewire.Bus.
func (b *Bus) Search(alarmOnly bool) ([]onewire.Address, error) {
	return nil, ErrSearchUnsupported
}

func (b *Bus) driveLow() {
	b.line.Out(gpio.Low)
}

// releaseLine lets the external pull-up (and the internal one) take the line
// high so the device can drive it.
func (b *Bus) releaseLine() {
	b.line.In(gpio.PullUp, gpio.NoEdge)
}

func (b *Bus) lock() {
	if b.mask != nil {
		b.mask.Mask()
	}
}

func (b *Bus) unlock() {
	if b.mask != nil {
		b.mask.Unmask()
	}
}
