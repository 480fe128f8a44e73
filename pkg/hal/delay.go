package hal

import "time"

// BusyWait is a Delayer that spins on the monotonic clock instead of sleeping.
// time.Sleep on a host has a resolution far coarser than a one-wire slot.
type BusyWait struct{}

var _ Delayer = BusyWait{}

// Delay spins until d has elapsed.
func (BusyWait) Delay(d time.Duration) {
	start := time.Now()
	for time.Since(start) < d {
	}
}

// DelayFunc adapts a plain function to Delayer.
type DelayFunc func(d time.Duration)

// Delay calls f(d).
func (f DelayFunc) Delay(d time.Duration) {
	f(d)
}
