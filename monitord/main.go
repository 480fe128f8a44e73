// Command monitord runs the monitor on a single board computer, driving the
// sensor, display and air pump through periph GPIO and writing diagnostics
// lines to stdout.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"

	"github.com/jonboulle/clockwork"

	"github.com/itohio/algaemon/pkg/board"
	"github.com/itohio/algaemon/pkg/config"
	"github.com/itohio/algaemon/pkg/control"
	"github.com/itohio/algaemon/pkg/hal"
	"github.com/itohio/algaemon/pkg/sensor"
	"github.com/itohio/algaemon/pkg/sim"
)

func main() {
	def := board.DefaultHostPins()
	var (
		configFlag = flag.String("config", "config.yaml", "Configuration file path")
		phRawFlag  = flag.Uint("ph-raw", 835, "pH amplifier ADC count (host boards have no analog input)")
		oneWire    = flag.String("onewire", def.OneWire, "One-wire data pin")
		data       = flag.String("data", def.Data, "Shift register data pin")
		clk        = flag.String("clock", def.Clock, "Shift register clock pin")
		latch      = flag.String("latch", def.Latch, "Shift register latch pin")
		digit1     = flag.String("digit1", def.Digits[0], "Leftmost digit select pin")
		digit2     = flag.String("digit2", def.Digits[1], "Second digit select pin")
		digit3     = flag.String("digit3", def.Digits[2], "Third digit select pin")
		digit4     = flag.String("digit4", def.Digits[3], "Rightmost digit select pin")
		air        = flag.String("air", def.Air, "Air pump relay pin")
	)
	flag.Parse()

	cfg, err := config.Load(*configFlag)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	regs := sim.NewADCRegisters()
	regs.SetChannel(sensor.PHChannel, uint16(min(*phRawFlag, 1023)))
	adc := hal.NewRegisterADC(regs)
	adc.Init()

	pins := board.HostPins{
		OneWire: *oneWire,
		Data:    *data,
		Clock:   *clk,
		Latch:   *latch,
		Digits:  [4]string{*digit1, *digit2, *digit3, *digit4},
		Air:     *air,
	}

	core, err := board.NewHost(clockwork.NewRealClock(), board.OptionsFromConfig(cfg), pins, adc)
	if err != nil {
		log.Fatalf("Failed to start monitor: %v", err)
	}

	var line []byte
	core.Loop.OnReport = func(r control.Report) {
		line = r.AppendLine(line[:0])
		if _, err := os.Stdout.Write(line); err != nil {
			log.Printf("Failed to write report: %v", err)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	log.Printf("Monitor running on %s", *oneWire)
	if err := core.Run(ctx); err != nil && ctx.Err() == nil {
		log.Fatalf("Monitor stopped: %v", err)
	}
}
