package board

import (
	"testing"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpiotest"

	"github.com/itohio/algaemon/pkg/display"
	"github.com/itohio/algaemon/pkg/hal"
	"github.com/itohio/algaemon/pkg/sensor"
	"github.com/itohio/algaemon/pkg/sim"
)

func TestHostPeripherals(t *testing.T) {
	names := DefaultHostPins().names()
	require.Len(t, names, 5+display.Digits)
	assert.Equal(t, "GPIO4", names[0])
	assert.Equal(t, "GPIO26", names[len(names)-1])

	test := make([]*gpiotest.Pin, len(names))
	pins := make([]gpio.PinIO, len(names))
	for i, n := range names {
		test[i] = &gpiotest.Pin{N: n, Num: i}
		pins[i] = test[i]
	}

	regs := sim.NewADCRegisters()
	regs.SetChannel(sensor.PHChannel, 835)
	adc := hal.NewRegisterADC(regs)
	adc.Init()

	p := hostPeripherals(pins, adc, &sim.Clock{})
	assert.Same(t, test[0], p.OneWire)
	assert.Same(t, test[1], p.Data)
	assert.Same(t, test[2], p.Clock)
	assert.Same(t, test[3], p.Latch)
	for i := range p.Digits {
		assert.Same(t, test[4+i], p.Digits[i])
	}
	assert.Same(t, test[8], p.Air)

	c := NewCore(clockwork.NewFakeClock(), DefaultOptions(), p)
	assert.Equal(t, "8888", display.Render(c.Display.Cells()))
	for i := range display.Digits {
		assert.Equal(t, gpio.High, test[4+i].L, "digit %d deselected after lamp test", i)
	}
}

func TestNewHostUnknownPin(t *testing.T) {
	pins := DefaultHostPins()
	pins.Air = "NO_SUCH_PIN"

	_, err := NewHost(clockwork.NewFakeClock(), DefaultOptions(), pins, nil)
	assert.Error(t, err)
}
