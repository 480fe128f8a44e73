package control

import (
	"time"

	"github.com/itohio/algaemon/pkg/sensor"
)

// DefaultDwell is how long each quantity stays on the display.
const DefaultDwell = 3 * time.Second

// Mode is the quantity currently on the display.
type Mode int

const (
	Temperature Mode = iota
	PH
)

func (m Mode) String() string {
	if m == PH {
		return "pH"
	}
	return "temperature"
}

// Symbol returns the single letter used in diagnostics lines.
func (m Mode) Symbol() byte {
	if m == PH {
		return 'P'
	}
	return 'T'
}

// Formatter shows a value on the display.
type Formatter interface {
	Format(x float32)
}

// ModeController alternates between temperature and pH every dwell period.
// It starts on temperature with the last switch at t=0.
type ModeController struct {
	out        Formatter
	dwellMs    uint64
	mode       Mode
	lastSwitch uint64
}

// NewModeController creates a controller writing to out.
func NewModeController(dwell time.Duration, out Formatter) *ModeController {
	return &ModeController{
		out:     out,
		dwellMs: uint64(dwell / time.Millisecond),
		mode:    Temperature,
	}
}

// CheckModeSwitch flips the mode once the dwell has elapsed since the last
// switch and reports whether it did.
func (c *ModeController) CheckModeSwitch(nowMs uint64) bool {
	if nowMs < c.lastSwitch || nowMs-c.lastSwitch < c.dwellMs {
		return false
	}
	if c.mode == Temperature {
		c.mode = PH
	} else {
		c.mode = Temperature
	}
	c.lastSwitch = nowMs
	return true
}

// UpdateDisplay formats the value of the current mode.
func (c *ModeController) UpdateDisplay(v sensor.Values) {
	if c.mode == Temperature {
		c.out.Format(v.Temperature)
		return
	}
	c.out.Format(v.PH)
}

// Mode returns the current mode.
func (c *ModeController) Mode() Mode {
	return c.mode
}

// ShowingTemperature reports whether temperature is on the display.
func (c *ModeController) ShowingTemperature() bool {
	return c.mode == Temperature
}

// LastSwitch returns the time of the last mode switch in milliseconds.
func (c *ModeController) LastSwitch() uint64 {
	return c.lastSwitch
}
