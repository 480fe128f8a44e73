package diag

import (
	"context"
	"fmt"
	"log"
	"math"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/itohio/algaemon/pkg/board"
	"github.com/itohio/algaemon/pkg/config"
	"github.com/itohio/algaemon/pkg/control"
)

// Mock runs a simulated board and reports what its firmware would print.
type Mock struct {
	cfg   *config.Config
	clock clockwork.Clock

	readings chan Reading
	mu       sync.RWMutex
	ctx      context.Context
	cancel   context.CancelFunc
	done     chan struct{}

	connected bool
	board     *board.Simulated
	noise     uint32
}

// NewMock creates a mocked device. A nil cfg uses config.Default(); a nil
// clock uses the real clock.
func NewMock(cfg *config.Config, clock clockwork.Clock) *Mock {
	if cfg == nil {
		cfg = config.Default()
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Mock{
		cfg:      cfg,
		clock:    clock,
		readings: make(chan Reading, DefaultBufferSize),
		ctx:      ctx,
		cancel:   cancel,
		noise:    1,
	}
}

// Connect powers on the simulated board and starts stepping it.
func (m *Mock) Connect() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.connected {
		return fmt.Errorf("already connected")
	}
	if m.done != nil {
		return fmt.Errorf("device closed")
	}

	opts := board.OptionsFromConfig(m.cfg)
	// The mock steps the loop itself; the refresh task is not needed.
	opts.AutoRefresh = false

	b := board.NewSimulated(m.clock, opts)
	b.Thermometer.SetAbsent(m.cfg.Mock.Absent)
	b.Loop.OnReport = m.emit
	b.Scheduler.Prime(0)

	m.board = b
	m.connected = true
	m.done = make(chan struct{})

	go m.run(b)

	return nil
}

// Close stops the simulation. The readings channel is closed once the
// simulation goroutine has exited.
func (m *Mock) Close() error {
	m.mu.Lock()
	if !m.connected {
		m.mu.Unlock()
		return nil
	}
	m.cancel()
	m.connected = false
	done := m.done
	m.mu.Unlock()

	<-done
	return nil
}

// Readings returns the channel of reports.
func (m *Mock) Readings() <-chan Reading {
	return m.readings
}

// IsConnected returns whether the device is currently connected.
func (m *Mock) IsConnected() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.connected
}

// Board returns the simulated board, or nil before Connect.
func (m *Mock) Board() *board.Simulated {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.board
}

// run steps the board's control loop at the configured rate.
func (m *Mock) run(b *board.Simulated) {
	defer close(m.done)
	defer close(m.readings)

	ticker := m.clock.NewTicker(m.cfg.Mock.StepRate)
	defer ticker.Stop()

	for {
		select {
		case <-m.ctx.Done():
			return
		case <-ticker.Chan():
			m.simulate(b)
			b.Loop.Step()
		}
	}
}

// simulate updates the medium: a sinusoidal temperature swing and a noisy
// pH amplifier.
func (m *Mock) simulate(b *board.Simulated) {
	cfg := m.cfg.Mock
	elapsed := time.Duration(b.Loop.Now()) * time.Millisecond

	temp := float64(cfg.Temperature)
	if cfg.SwingPeriod > 0 {
		phase := 2 * math.Pi * elapsed.Seconds() / cfg.SwingPeriod.Seconds()
		temp += float64(cfg.Swing) * math.Sin(phase)
	}
	b.Thermometer.SetCelsius(float32(temp))

	raw := int(cfg.PHRaw)
	if cfg.PHNoise > 0 {
		// xorshift32
		m.noise ^= m.noise << 13
		m.noise ^= m.noise >> 17
		m.noise ^= m.noise << 5
		raw += int(m.noise%uint32(2*cfg.PHNoise+1)) - int(cfg.PHNoise)
	}
	if raw < 0 {
		raw = 0
	}
	if raw > 1023 {
		raw = 1023
	}
	b.SetPHRaw(uint16(raw))
}

// emit forwards a report the way it would arrive over the serial line.
func (m *Mock) emit(r control.Report) {
	line := r.AppendLine(nil)
	report, err := control.ParseReport(string(line))
	if err != nil {
		log.Printf("Failed to parse line '%s': %v", line[:len(line)-1], err)
		return
	}

	select {
	case m.readings <- Reading{Timestamp: m.clock.Now(), Report: report}:
	case <-m.ctx.Done():
	default:
		// Channel full, skip
	}
}
