package display

import (
	"context"
	"time"

	"github.com/jonboulle/clockwork"
)

// Timer0 parameters of the reference board.
const (
	CPUFrequency     = 16_000_000
	TimerPrescaler   = 1024
	timerOverflowLen = 256
)

// TimerPeriod returns the overflow period of an 8-bit timer clocked at
// cpuHz / prescaler. 16MHz with /1024 gives 16.384ms.
func TimerPeriod(cpuHz, prescaler uint32) time.Duration {
	if cpuHz == 0 {
		return 0
	}
	return time.Duration(uint64(timerOverflowLen) * uint64(prescaler) * uint64(time.Second) / uint64(cpuHz))
}

// RefreshTask calls Interrupt on a fixed period, standing in for the timer
// overflow interrupt.
type RefreshTask struct {
	mux    *Multiplexer
	clock  clockwork.Clock
	period time.Duration
}

// NewRefreshTask creates a task refreshing mux every period on clock.
func NewRefreshTask(mux *Multiplexer, clock clockwork.Clock, period time.Duration) *RefreshTask {
	return &RefreshTask{
		mux:    mux,
		clock:  clock,
		period: period,
	}
}

// Run ticks until ctx is done. It does not enable auto-refresh itself.
func (t *RefreshTask) Run(ctx context.Context) {
	ticker := t.clock.NewTicker(t.period)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
			t.mux.Interrupt()
		}
	}
}
