// Package control glues the sensor scheduler, the display mode controller,
// the display and the air pump into the cooperative main loop.
package control

import (
	"context"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/itohio/algaemon/pkg/sensor"
)

// DefaultIdle is the pause between loop iterations on a host.
const DefaultIdle = time.Millisecond

// Display is the part of the multiplexer the loop drives.
type Display interface {
	Formatter
	Refresh()
}

// Report is emitted on every mode switch.
type Report struct {
	Uptime time.Duration
	Values sensor.Values
	Mode   Mode
	Air    bool
}

// Loop is the control loop. Step runs one iteration; Run repeats it.
type Loop struct {
	clock   clockwork.Clock
	start   time.Time
	sched   *sensor.Scheduler
	modes   *ModeController
	display Display
	air     *AirPump

	// OnReport, if set, receives a Report after each mode switch.
	OnReport func(Report)
	// Idle is slept between iterations by Run.
	Idle time.Duration
}

// NewLoop creates a loop. air may be nil. The loop's uptime starts now.
func NewLoop(clock clockwork.Clock, sched *sensor.Scheduler, modes *ModeController, display Display, air *AirPump) *Loop {
	return &Loop{
		clock:   clock,
		start:   clock.Now(),
		sched:   sched,
		modes:   modes,
		display: display,
		air:     air,
		Idle:    DefaultIdle,
	}
}

// Now returns the uptime in milliseconds.
func (l *Loop) Now() uint64 {
	return uint64(l.clock.Since(l.start) / time.Millisecond)
}

// Step runs one iteration: tick the sensors, switch the mode if due, show
// the current value and drive the air pump.
func (l *Loop) Step() {
	now := l.Now()

	l.sched.Tick(now, l.modes.ShowingTemperature())

	if l.modes.CheckModeSwitch(now) && l.OnReport != nil {
		l.OnReport(l.report(now))
	}

	l.modes.UpdateDisplay(l.sched.Values())
	l.display.Refresh()

	if l.air != nil {
		l.air.Update(now)
	}
}

// Run primes the scheduler and steps until ctx is done.
func (l *Loop) Run(ctx context.Context) error {
	l.sched.Prime(l.Now())
	for {
		l.Step()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-l.clock.After(l.Idle):
		}
	}
}

// Scheduler returns the loop's sensor scheduler.
func (l *Loop) Scheduler() *sensor.Scheduler {
	return l.sched
}

// Modes returns the loop's mode controller.
func (l *Loop) Modes() *ModeController {
	return l.modes
}

func (l *Loop) report(nowMs uint64) Report {
	r := Report{
		Uptime: time.Duration(nowMs) * time.Millisecond,
		Values: l.sched.Values(),
		Mode:   l.modes.Mode(),
	}
	if l.air != nil {
		r.Air = l.air.On()
	}
	return r
}
