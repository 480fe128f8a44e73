package control

import (
	"time"

	"periph.io/x/conn/v3/gpio"

	"github.com/itohio/algaemon/pkg/hal"
)

// Default air pump schedule: bubbles for 30s out of every minute.
const (
	DefaultAirPeriod = time.Minute
	DefaultAirOn     = 30 * time.Second
)

// AirPump runs the aeration pump on a fixed duty cycle derived from uptime.
type AirPump struct {
	out      hal.Output
	periodMs uint64
	onMs     uint64
	on       bool
	started  bool
}

// NewAirPump creates a pump driver that keeps out high for the first on of
// every period.
func NewAirPump(out hal.Output, period, on time.Duration) *AirPump {
	return &AirPump{
		out:      out,
		periodMs: uint64(period / time.Millisecond),
		onMs:     uint64(on / time.Millisecond),
	}
}

// Update sets the pump for nowMs and returns its state. The pin is written
// only when the state changes.
func (p *AirPump) Update(nowMs uint64) bool {
	want := false
	if p.periodMs > 0 {
		want = nowMs%p.periodMs < p.onMs
	}
	if p.started && want == p.on {
		return p.on
	}
	if err := p.out.Out(gpio.Level(want)); err != nil {
		return p.on
	}
	p.on = want
	p.started = true
	return p.on
}

// On reports the last state written to the pump.
func (p *AirPump) On() bool {
	return p.on
}
