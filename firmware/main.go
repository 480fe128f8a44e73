//go:build tinygo

//go:generate tinygo flash -target=arduino

package main

import (
	"context"
	"machine"

	"github.com/jonboulle/clockwork"

	"github.com/itohio/algaemon/pkg/control"
	"github.com/itohio/algaemon/pkg/display"
	"github.com/itohio/algaemon/pkg/hal"
	"github.com/itohio/algaemon/pkg/onewire"
	"github.com/itohio/algaemon/pkg/sensor"
)

var (
	uart = machine.UART0

	// Diagnostics line buffer, reused for every report
	lineBuffer [32]byte
)

func main() {
	uart.Configure(machine.UARTConfig{BaudRate: UART_BAUD_RATE})

	clock := clockwork.NewRealClock()

	reg := display.NewShiftRegister(pin(PIN_SHIFT_DATA), pin(PIN_SHIFT_CLOCK), pin(PIN_SHIFT_LATCH), busyWait)
	mux := display.NewMultiplexer(reg, [display.Digits]hal.Output{
		pin(PIN_DIGIT1), pin(PIN_DIGIT2), pin(PIN_DIGIT3), pin(PIN_DIGIT4),
	})
	mux.LampTest(hal.DelayFunc(clock.Sleep), display.LampTestHold)
	mux.SetAutoRefresh(true)

	bus := onewire.New(pin(PIN_ONEWIRE), busyWait, mux)
	if !bus.Reset() {
		println("no temperature sensor")
	}

	adc := hal.NewRegisterADC(registers{})
	adc.Init()

	sched := sensor.NewScheduler(bus, adc, sensor.WithConversionTime(CONVERSION_TIME))
	modes := control.NewModeController(DWELL, mux)
	air := control.NewAirPump(pin(PIN_AIR), AIR_PERIOD, AIR_ON)

	loop := control.NewLoop(clock, sched, modes, mux, air)
	loop.OnReport = func(r control.Report) {
		uart.Write(r.AppendLine(lineBuffer[:0]))
	}

	ctx := context.Background()
	refresh := display.NewRefreshTask(mux, clock, display.TimerPeriod(CPU_FREQUENCY, TIMER_PRESCALER))
	go refresh.Run(ctx)

	if err := loop.Run(ctx); err != nil {
		println("loop stopped:", err.Error())
	}
}
