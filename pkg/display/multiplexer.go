// Package display drives a 4-digit multiplexed 7-segment display through a
// shift register and four active-low digit select lines.
//
// The Multiplexer is shared by two contexts: the control loop writes digit
// contents, a periodic refresh task (the timer interrupt on the board) shows
// one digit per tick. Each cell and the cursor live in their own atomic
// word, so a single cell is never torn, but a refresh may show a mix of old
// and new cells for one frame while Format is storing them. That tearing is
// tolerated; there is no lock between the two contexts.
package display

import (
	"runtime"
	"sync/atomic"
	"time"

	"periph.io/x/conn/v3/gpio"

	"github.com/itohio/algaemon/pkg/hal"
)

// LampTestHold is how long each digit is held fully lit by LampTest.
const LampTestHold = 200 * time.Millisecond

// gate states
const (
	gateIdle int32 = iota
	gateRefreshing
	gateMasked
)

// Multiplexer owns the display buffer, the digit cursor and the auto-refresh
// flag.
type Multiplexer struct {
	reg    *ShiftRegister
	digits [Digits]hal.Output

	cells  [Digits]atomic.Uint32
	cursor atomic.Uint32
	auto   atomic.Bool

	gate    atomic.Int32
	skipped atomic.Uint64
}

// NewMultiplexer creates a multiplexer with all digits off and the buffer
// showing 8888. Auto-refresh starts disabled.
func NewMultiplexer(reg *ShiftRegister, digits [Digits]hal.Output) *Multiplexer {
	m := &Multiplexer{
		reg:    reg,
		digits: digits,
	}
	m.deselectAll()
	for i := range m.cells {
		m.cells[i].Store(Cell{Digit: 8}.pack())
	}
	return m
}

// Set stores one cell. It reports false for an invalid position or digit.
func (m *Multiplexer) Set(pos int, digit uint8, point bool) bool {
	if pos < 0 || pos >= Digits || int(digit) >= len(Segments) {
		return false
	}
	m.cells[pos].Store(Cell{Digit: digit, Point: point}.pack())
	return true
}

// Format lays out x (see Digitize) and stores the four cells.
func (m *Multiplexer) Format(x float32) {
	for i, c := range Digitize(x) {
		m.cells[i].Store(c.pack())
	}
}

// Cells returns a snapshot of the buffer.
func (m *Multiplexer) Cells() [Digits]Cell {
	var out [Digits]Cell
	for i := range out {
		out[i] = unpack(m.cells[i].Load())
	}
	return out
}

// Position returns the digit the next refresh will show.
func (m *Multiplexer) Position() int {
	return int(m.cursor.Load())
}

// SetAutoRefresh selects whether Interrupt (true) or Refresh (false) drives
// the display.
func (m *Multiplexer) SetAutoRefresh(enabled bool) {
	m.auto.Store(enabled)
}

// AutoRefresh reports whether auto-refresh is enabled.
func (m *Multiplexer) AutoRefresh() bool {
	return m.auto.Load()
}

// Interrupt is the periodic timer entry point. It shows the next digit when
// auto-refresh is enabled.
func (m *Multiplexer) Interrupt() {
	if m.auto.Load() {
		m.refresh()
	}
}

// Refresh shows the next digit when auto-refresh is disabled. It is called
// from the control loop.
func (m *Multiplexer) Refresh() {
	if !m.auto.Load() {
		m.refresh()
	}
}

// Mask keeps refreshes off the wire until Unmask. If a refresh is in flight
// Mask waits for it to finish; refreshes attempted while masked are skipped.
func (m *Multiplexer) Mask() {
	for !m.gate.CompareAndSwap(gateIdle, gateMasked) {
		runtime.Gosched()
	}
}

// Unmask re-enables refreshes.
func (m *Multiplexer) Unmask() {
	m.gate.CompareAndSwap(gateMasked, gateIdle)
}

// Skipped returns the number of refreshes dropped while masked.
func (m *Multiplexer) Skipped() uint64 {
	return m.skipped.Load()
}

// LampTest lights every segment of each digit in turn for hold, then turns
// the display off. Refreshes are masked meanwhile.
func (m *Multiplexer) LampTest(d hal.Delayer, hold time.Duration) {
	m.Mask()
	defer m.Unmask()

	for i := range m.digits {
		m.deselectAll()
		m.reg.Shift(AllSegments)
		m.digits[i].Out(gpio.Low)
		d.Delay(hold)
	}
	m.deselectAll()
}

func (m *Multiplexer) refresh() {
	if !m.gate.CompareAndSwap(gateIdle, gateRefreshing) {
		m.skipped.Add(1)
		return
	}
	defer m.gate.Store(gateIdle)

	// The cursor has a single writer, so load and store need not be one
	// atomic step.
	pos := m.cursor.Load()
	m.deselectAll()
	m.reg.Shift(unpack(m.cells[pos].Load()).Pattern())
	m.digits[pos].Out(gpio.Low)
	m.cursor.Store((pos + 1) % Digits)
}

func (m *Multiplexer) deselectAll() {
	for _, d := range m.digits {
		d.Out(gpio.High)
	}
}
