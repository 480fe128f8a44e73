package sim

import (
	"sync"
	"time"

	"periph.io/x/conn/v3/gpio"

	"github.com/itohio/algaemon/pkg/hal"
)

// Device side command bytes.
const (
	cmdSkipROM        = 0xCC
	cmdConvertT       = 0x44
	cmdReadScratchpad = 0xBE
)

// Slot timing as seen by the device.
const (
	resetMinLow      = 480 * time.Microsecond
	presenceFrom     = 15 * time.Microsecond
	presenceUntil    = 240 * time.Microsecond
	sampleWindow     = 15 * time.Microsecond
	powerOnRawTemp   = 0x0550 // 85°C, the scratchpad content before any conversion
	defaultRawTemp   = 0x0190 // 25°C
	scratchpadLength = 9
)

type phase int

const (
	phaseIdle phase = iota
	phaseROM
	phaseFunction
	phaseTransmit
)

// Thermometer models a single one-wire temperature sensor sitting on a line.
// It decodes master slots by their low-pulse width, answers resets with a
// presence pulse and shifts its scratchpad out on read slots.
//
// The master side talks to it through the hal.Line methods; the device side
// is configured with SetRaw, SetCelsius and SetAbsent.
type Thermometer struct {
	clock *Clock

	mu         sync.Mutex
	raw        uint16
	absent     bool
	scratch    [scratchpadLength]byte
	driven     bool
	lowAt      time.Duration
	releasedAt time.Duration
	presence   bool

	phase   phase
	shiftIn byte
	bitsIn  int

	txBit   int
	slotAt  time.Duration
	slotBit gpio.Level

	conversions int
	resets      int
}

var _ hal.Line = (*Thermometer)(nil)

// NewThermometer creates a present sensor reading 25°C once converted.
func NewThermometer(clock *Clock) *Thermometer {
	t := &Thermometer{
		clock: clock,
		raw:   defaultRawTemp,
	}
	t.loadScratchpad(powerOnRawTemp)
	return t
}

// SetRaw sets the 1/16°C value the next conversion will latch. 0x0000 and
// 0xFFFF can be used to produce the sentinel readings.
func (t *Thermometer) SetRaw(raw uint16) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.raw = raw
}

// SetCelsius sets the temperature the next conversion will latch.
func (t *Thermometer) SetCelsius(c float32) {
	v := c * 16
	if v < 0 {
		v -= 0.5
	} else {
		v += 0.5
	}
	t.SetRaw(uint16(int16(v)))
}

// SetAbsent disconnects (true) or reconnects (false) the sensor.
func (t *Thermometer) SetAbsent(absent bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.absent = absent
}

// Conversions returns the number of CONVERT_T commands received.
func (t *Thermometer) Conversions() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.conversions
}

// Resets returns the number of reset pulses seen on the line.
func (t *Thermometer) Resets() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.resets
}

// Out implements hal.Output for the master side of the line.
func (t *Thermometer) Out(l gpio.Level) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if l == gpio.High {
		t.release()
		return nil
	}
	if !t.driven {
		t.driven = true
		t.lowAt = t.clock.Now()
		t.slotStart()
	}
	return nil
}

// In releases the line to the pull-up.
func (t *Thermometer) In(pull gpio.Pull, edge gpio.Edge) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.release()
	return nil
}

// Read returns the wired-AND level of master and device.
func (t *Thermometer) Read() gpio.Level {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.driven {
		return gpio.Low
	}
	if t.absent {
		return gpio.High
	}

	now := t.clock.Now()
	if t.presence {
		since := now - t.releasedAt
		if since >= presenceFrom && since <= presenceUntil {
			return gpio.Low
		}
	}
	if t.phase == phaseTransmit && now-t.slotAt <= sampleWindow {
		return t.slotBit
	}
	return gpio.High
}

func (t *Thermometer) slotStart() {
	t.presence = false
	if t.phase != phaseTransmit || t.absent {
		return
	}
	t.slotAt = t.lowAt
	t.slotBit = gpio.High
	if t.txBit < len(t.scratch)*8 {
		b := t.scratch[t.txBit/8] >> (t.txBit % 8)
		t.slotBit = gpio.Level(b&1 == 1)
	}
	t.txBit++
}

func (t *Thermometer) release() {
	if !t.driven {
		return
	}
	t.driven = false
	now := t.clock.Now()
	width := now - t.lowAt
	t.releasedAt = now

	if width >= resetMinLow {
		t.resets++
		t.phase = phaseIdle
		t.bitsIn = 0
		t.shiftIn = 0
		if !t.absent {
			t.presence = true
			t.phase = phaseROM
		}
		return
	}
	if t.absent || t.phase == phaseIdle || t.phase == phaseTransmit {
		return
	}

	if width < sampleWindow {
		t.shiftIn |= 1 << t.bitsIn
	}
	t.bitsIn++
	if t.bitsIn == 8 {
		b := t.shiftIn
		t.bitsIn = 0
		t.shiftIn = 0
		t.command(b)
	}
}

func (t *Thermometer) command(b byte) {
	switch t.phase {
	case phaseROM:
		if b == cmdSkipROM {
			t.phase = phaseFunction
			return
		}
		t.phase = phaseIdle
	case phaseFunction:
		switch b {
		case cmdConvertT:
			t.conversions++
			t.loadScratchpad(t.raw)
			t.phase = phaseIdle
		case cmdReadScratchpad:
			t.phase = phaseTransmit
			t.txBit = 0
		default:
			t.phase = phaseIdle
		}
	}
}

func (t *Thermometer) loadScratchpad(raw uint16) {
	t.scratch = [scratchpadLength]byte{
		byte(raw), byte(raw >> 8),
		0x4B, 0x46, // alarm thresholds
		0x7F,       // 12-bit resolution
		0xFF, 0x0C, 0x10,
	}
	t.scratch[8] = crc8(t.scratch[:8])
}

// crc8 is the Dallas/Maxim CRC (polynomial x^8 + x^5 + x^4 + 1, reflected).
func crc8(data []byte) byte {
	var crc byte
	for _, b := range data {
		for i := 0; i < 8; i++ {
			mix := (crc ^ b) & 0x01
			crc >>= 1
			if mix != 0 {
				crc ^= 0x8C
			}
			b >>= 1
		}
	}
	return crc
}
