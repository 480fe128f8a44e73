package sim

import (
	"sync"

	"periph.io/x/conn/v3/gpio"

	"github.com/itohio/algaemon/pkg/hal"
)

// Digits is the number of digit positions on the panel.
const Digits = 4

// Panel captures what a 74HC595 shift register and four common-cathode digit
// select lines would put on a real 4-digit display. Each time a digit line
// is pulled low the currently latched pattern is recorded for that digit.
type Panel struct {
	mu       sync.Mutex
	data     gpio.Level
	clock    gpio.Level
	latch    gpio.Level
	shift    uint8
	latched  uint8
	selects  [Digits]gpio.Level
	patterns [Digits]uint8
	shifts   int
	frames   int
}

// NewPanel creates a panel with all digits deselected.
func NewPanel() *Panel {
	p := &Panel{}
	for i := range p.selects {
		p.selects[i] = gpio.High
	}
	return p
}

// Data returns the serial data input line.
func (p *Panel) Data() hal.Output {
	return outputFunc(func(l gpio.Level) error {
		p.mu.Lock()
		p.data = l
		p.mu.Unlock()
		return nil
	})
}

// Clock returns the shift clock line; data is sampled on its rising edge.
func (p *Panel) Clock() hal.Output {
	return outputFunc(func(l gpio.Level) error {
		p.mu.Lock()
		defer p.mu.Unlock()
		if l == gpio.High && p.clock == gpio.Low {
			p.shift <<= 1
			if p.data == gpio.High {
				p.shift |= 1
			}
		}
		p.clock = l
		return nil
	})
}

// Latch returns the storage register clock; the shift register is copied to
// the outputs on its rising edge.
func (p *Panel) Latch() hal.Output {
	return outputFunc(func(l gpio.Level) error {
		p.mu.Lock()
		defer p.mu.Unlock()
		if l == gpio.High && p.latch == gpio.Low {
			p.latched = p.shift
			p.shifts++
		}
		p.latch = l
		return nil
	})
}

// Digit returns the active-low select line of digit i.
func (p *Panel) Digit(i int) hal.Output {
	return outputFunc(func(l gpio.Level) error {
		p.mu.Lock()
		defer p.mu.Unlock()
		if l == gpio.Low && p.selects[i] == gpio.High {
			p.patterns[i] = p.latched
			p.frames++
		}
		p.selects[i] = l
		return nil
	})
}

// DigitLines returns the four select lines in position order.
func (p *Panel) DigitLines() [Digits]hal.Output {
	var lines [Digits]hal.Output
	for i := range lines {
		lines[i] = p.Digit(i)
	}
	return lines
}

// Patterns returns the last segment pattern shown on each digit.
func (p *Panel) Patterns() [Digits]uint8 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.patterns
}

// Lit returns the index of the single selected digit, or -1 when none or
// more than one digit is selected.
func (p *Panel) Lit() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	lit := -1
	for i, l := range p.selects {
		if l == gpio.Low {
			if lit >= 0 {
				return -1
			}
			lit = i
		}
	}
	return lit
}

// Frames returns the number of digit selections observed.
func (p *Panel) Frames() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.frames
}

// Shifts returns the number of latched bytes.
func (p *Panel) Shifts() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.shifts
}
