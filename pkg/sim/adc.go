package sim

import (
	"sync"

	"github.com/itohio/algaemon/pkg/hal"
)

// ADCRegisters is a simulated register file that answers the AVR ADC
// protocol: setting ADSC in ADCSRA starts a conversion on the channel
// selected in ADMUX, and ADSC clears after Latency polls of ADCSRA.
type ADCRegisters struct {
	// Latency is the number of ADCSRA reads during which ADSC stays set.
	Latency int

	mu          sync.Mutex
	regs        map[uint16]uint8
	channels    [8]uint16
	busy        bool
	pollsLeft   int
	channel     uint8
	conversions int
}

var _ hal.Registers = (*ADCRegisters)(nil)

// NewADCRegisters creates a register file with all channels reading 0.
func NewADCRegisters() *ADCRegisters {
	return &ADCRegisters{
		regs: make(map[uint16]uint8),
	}
}

// SetChannel sets the 10-bit value the given channel converts to.
func (r *ADCRegisters) SetChannel(ch uint8, v uint16) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.channels[ch&0x07] = v & 0x03FF
}

// Conversions returns the number of completed conversions.
func (r *ADCRegisters) Conversions() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.conversions
}

// Read implements hal.Registers.
func (r *ADCRegisters) Read(addr uint16) uint8 {
	r.mu.Lock()
	defer r.mu.Unlock()
	if addr == hal.RegADCSRA && r.busy {
		if r.pollsLeft <= 0 {
			r.complete()
		} else {
			r.pollsLeft--
		}
	}
	return r.regs[addr]
}

// Write implements hal.Registers.
func (r *ADCRegisters) Write(addr uint16, v uint8) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.regs[addr] = v
	if addr != hal.RegADCSRA || v&hal.ADSC == 0 || v&hal.ADEN == 0 || r.busy {
		return
	}
	r.busy = true
	r.channel = r.regs[hal.RegADMUX] & 0x07
	r.pollsLeft = r.Latency
	if r.pollsLeft == 0 {
		r.complete()
	}
}

func (r *ADCRegisters) complete() {
	v := r.channels[r.channel]
	r.regs[hal.RegADCL] = uint8(v)
	r.regs[hal.RegADCH] = uint8(v >> 8)
	r.regs[hal.RegADCSRA] &^= hal.ADSC
	r.busy = false
	r.conversions++
}
