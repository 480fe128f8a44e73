package sim

import (
	"sync"
	"time"

	"periph.io/x/conn/v3/gpio"

	"github.com/itohio/algaemon/pkg/hal"
)

// Loopback is a line fixture that serves queued bytes on read slots and
// records the bytes written by the master, both LSB first.
//
// A slot in which the master sampled the line is treated as a read slot;
// any other short or long low pulse is a written 1 or 0. Reset pulses are
// answered with a presence pulse and do not count as bits.
type Loopback struct {
	clock *Clock

	mu         sync.Mutex
	queue      []byte
	queueBit   int
	written    []byte
	shiftIn    byte
	bitsIn     int
	driven     bool
	lowAt      time.Duration
	releasedAt time.Duration
	presence   bool

	slotOpen  bool
	slotWidth time.Duration
	slotRead  bool
}

var _ hal.Line = (*Loopback)(nil)

// NewLoopback creates an empty loopback fixture on clock.
func NewLoopback(clock *Clock) *Loopback {
	return &Loopback{clock: clock}
}

// Feed queues bytes to be served on subsequent read slots.
func (l *Loopback) Feed(b ...byte) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.queue = append(l.queue, b...)
}

// Written returns the complete bytes written so far.
func (l *Loopback) Written() []byte {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.closeSlot()
	out := make([]byte, len(l.written))
	copy(out, l.written)
	return out
}

// Out implements hal.Output.
func (l *Loopback) Out(level gpio.Level) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if level == gpio.High {
		l.release()
		return nil
	}
	if !l.driven {
		l.closeSlot()
		l.driven = true
		l.lowAt = l.clock.Now()
		l.presence = false
	}
	return nil
}

// In releases the line.
func (l *Loopback) In(pull gpio.Pull, edge gpio.Edge) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.release()
	return nil
}

// Read samples the line.
func (l *Loopback) Read() gpio.Level {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.driven {
		return gpio.Low
	}
	now := l.clock.Now()
	if l.presence {
		since := now - l.releasedAt
		if since >= presenceFrom && since <= presenceUntil {
			return gpio.Low
		}
	}
	if l.slotOpen && now-l.lowAt <= sampleWindow {
		l.slotRead = true
		return l.nextBit()
	}
	return gpio.High
}

func (l *Loopback) nextBit() gpio.Level {
	if l.queueBit >= len(l.queue)*8 {
		return gpio.High
	}
	b := l.queue[l.queueBit/8] >> (l.queueBit % 8)
	return gpio.Level(b&1 == 1)
}

func (l *Loopback) release() {
	if !l.driven {
		return
	}
	l.driven = false
	now := l.clock.Now()
	width := now - l.lowAt
	l.releasedAt = now
	if width >= resetMinLow {
		l.presence = true
		return
	}
	l.slotOpen = true
	l.slotWidth = width
	l.slotRead = false
}

// closeSlot settles the previous slot as either a served or a written bit.
func (l *Loopback) closeSlot() {
	if !l.slotOpen {
		return
	}
	l.slotOpen = false
	if l.slotRead {
		l.queueBit++
		return
	}
	if l.slotWidth < sampleWindow {
		l.shiftIn |= 1 << l.bitsIn
	}
	l.bitsIn++
	if l.bitsIn == 8 {
		l.written = append(l.written, l.shiftIn)
		l.shiftIn = 0
		l.bitsIn = 0
	}
}
