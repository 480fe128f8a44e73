package display

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/itohio/algaemon/pkg/sim"
)

func newPanelMux() (*Multiplexer, *sim.Panel, *sim.Clock) {
	panel := sim.NewPanel()
	clock := &sim.Clock{}
	reg := NewShiftRegister(panel.Data(), panel.Clock(), panel.Latch(), clock)
	return NewMultiplexer(reg, panel.DigitLines()), panel, clock
}

func cells(digits [Digits]uint8, point int) [Digits]Cell {
	var c [Digits]Cell
	for i, d := range digits {
		c[i] = Cell{Digit: d, Point: i == point}
	}
	return c
}

func TestSegments(t *testing.T) {
	want := []uint8{0x3F, 0x06, 0x5B, 0x4F, 0x66, 0x6D, 0x7D, 0x07, 0x7F, 0x6F, 0x77, 0x7C, 0x39, 0x5E, 0x79, 0x71, 0x00}
	assert.Equal(t, want, Segments[:])

	assert.Equal(t, uint8(0xBF), Cell{Digit: 0, Point: true}.Pattern())
	assert.Equal(t, uint8(0x80), Cell{Digit: Blank, Point: true}.Pattern())
	assert.Equal(t, uint8(0x00), Cell{Digit: 99}.Pattern())
}

func TestDigitize(t *testing.T) {
	tests := []struct {
		name string
		x    float32
		want [Digits]Cell
	}{
		{"zero", 0, cells([Digits]uint8{0, 0, 0, 0}, 0)},
		{"two decimals", 12.345, cells([Digits]uint8{1, 2, 3, 5}, 1)},
		{"out of range", 10050, cells([Digits]uint8{14, 16, 16, 16}, -1)},
		{"negative", -0.1, cells([Digits]uint8{14, 16, 16, 16}, -1)},
		{"three decimals", 7.0, cells([Digits]uint8{7, 0, 0, 0}, 0)},
		{"ph", 6.125, cells([Digits]uint8{6, 1, 2, 5}, 0)},
		{"temperature", 25.3, cells([Digits]uint8{2, 5, 3, 0}, 1)},
		{"one decimal", 123.46, cells([Digits]uint8{1, 2, 3, 5}, 2)},
		{"integer", 1234.4, cells([Digits]uint8{1, 2, 3, 4}, -1)},
		{"integer rounds up", 1234.5, cells([Digits]uint8{1, 2, 3, 5}, -1)},
		{"carry wraps in units band", 9.9996, cells([Digits]uint8{0, 0, 0, 0}, 0)},
		{"carry wraps in tens band", 99.996, cells([Digits]uint8{0, 0, 0, 0}, 1)},
		{"carry wraps in hundreds band", 999.96, cells([Digits]uint8{0, 0, 0, 0}, 2)},
		{"largest", 9999.4, cells([Digits]uint8{9, 9, 9, 9}, -1)},
		{"rounds past four digits", 9999.6, cells([Digits]uint8{0, 0, 0, 0}, -1)},
		{"limit", MaxValue, cells([Digits]uint8{0, 0, 0, 0}, -1)},
		{"ten thousand", 10000, cells([Digits]uint8{0, 0, 0, 0}, -1)},
		{"just above limit", 10001, cells([Digits]uint8{14, 16, 16, 16}, -1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Digitize(tt.x))
		})
	}
}

func TestRender(t *testing.T) {
	assert.Equal(t, "12.35", Render(Digitize(12.345)))
	assert.Equal(t, "0.000", Render(Digitize(0)))
	assert.Equal(t, "E   ", Render(Digitize(-1)))
	assert.Equal(t, "AbCd", Render(cells([Digits]uint8{10, 11, 12, 13}, -1)))
}

func TestMultiplexerDefaults(t *testing.T) {
	m, panel, _ := newPanelMux()

	assert.False(t, m.AutoRefresh())
	assert.Equal(t, cells([Digits]uint8{8, 8, 8, 8}, -1), m.Cells())
	assert.Equal(t, 0, m.Position())
	assert.Equal(t, -1, panel.Lit())
}

func TestSet(t *testing.T) {
	m, _, _ := newPanelMux()

	assert.True(t, m.Set(2, Blank, true))
	assert.False(t, m.Set(4, 1, false))
	assert.False(t, m.Set(-1, 1, false))
	assert.False(t, m.Set(0, 17, false))

	assert.Equal(t, Cell{Digit: Blank, Point: true}, m.Cells()[2])
	assert.Equal(t, Cell{Digit: 8}, m.Cells()[0])
}

func TestRefreshSequence(t *testing.T) {
	m, panel, clock := newPanelMux()
	m.Format(12.345)

	for i := 0; i < Digits; i++ {
		require.Equal(t, i, m.Position())
		m.Refresh()
		assert.Equal(t, i, panel.Lit(), "only digit %d selected", i)
	}
	assert.Equal(t, 0, m.Position())
	assert.Equal(t, [Digits]uint8{0x06, 0x5B | PointBit, 0x4F, 0x6D}, panel.Patterns())
	assert.Equal(t, Digits, panel.Frames())
	assert.Equal(t, Digits, panel.Shifts())
	assert.Equal(t, Digits*180*time.Microsecond, clock.Now())
}

func TestRefreshGating(t *testing.T) {
	m, panel, _ := newPanelMux()

	m.Interrupt()
	assert.Equal(t, 0, panel.Frames(), "interrupt ignored in manual mode")
	m.Refresh()
	assert.Equal(t, 1, panel.Frames())

	m.SetAutoRefresh(true)
	m.Refresh()
	assert.Equal(t, 1, panel.Frames(), "manual refresh ignored in auto mode")
	m.Interrupt()
	assert.Equal(t, 2, panel.Frames())
	assert.Equal(t, 2, m.Position())
}

func TestMask(t *testing.T) {
	m, panel, _ := newPanelMux()

	m.Mask()
	m.Refresh()
	m.Refresh()
	assert.Equal(t, 0, panel.Frames())
	assert.Equal(t, uint64(2), m.Skipped())
	assert.Equal(t, 0, m.Position())

	m.Unmask()
	m.Refresh()
	assert.Equal(t, 1, panel.Frames())
}

func TestLampTest(t *testing.T) {
	m, panel, clock := newPanelMux()

	m.LampTest(clock, LampTestHold)

	assert.Equal(t, [Digits]uint8{0xFF, 0xFF, 0xFF, 0xFF}, panel.Patterns())
	assert.Equal(t, -1, panel.Lit())
	assert.GreaterOrEqual(t, clock.Now(), Digits*LampTestHold)
	assert.Equal(t, 0, m.Position())

	m.Refresh()
	assert.Equal(t, 1, panel.Frames()-Digits)
}

func TestTimerPeriod(t *testing.T) {
	assert.Equal(t, 16384*time.Microsecond, TimerPeriod(CPUFrequency, TimerPrescaler))
	assert.Equal(t, 4096*time.Microsecond, TimerPeriod(CPUFrequency, 256))
	assert.Equal(t, time.Duration(0), TimerPeriod(0, 1024))
}

func TestRefreshTask(t *testing.T) {
	m, panel, _ := newPanelMux()
	m.Format(1.5)
	m.SetAutoRefresh(true)

	fake := clockwork.NewFakeClock()
	period := TimerPeriod(CPUFrequency, TimerPrescaler)
	task := NewRefreshTask(m, fake, period)

	ctx, cancel := context.WithCancel(context.Background())
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		task.Run(ctx)
	}()

	fake.BlockUntil(1)
	for i := 0; i < Digits; i++ {
		fake.Advance(period)
		want := i + 1
		require.Eventually(t, func() bool { return panel.Frames() == want }, time.Second, time.Millisecond)
	}
	assert.Equal(t, [Digits]uint8{0x06 | PointBit, 0x6D, 0x3F, 0x3F}, panel.Patterns())

	cancel()
	wg.Wait()
}

func TestConcurrentFormatAndRefresh(t *testing.T) {
	m, panel, _ := newPanelMux()
	m.SetAutoRefresh(true)

	ctx, cancel := context.WithCancel(context.Background())
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for ctx.Err() == nil {
			m.Interrupt()
		}
	}()

	for i := 0; i < 1000; i++ {
		m.Format(float32(i) / 10)
		if i%10 == 0 {
			m.Mask()
			m.Unmask()
		}
	}
	m.Format(42.42)
	cancel()
	wg.Wait()

	m.SetAutoRefresh(false)
	for i := 0; i < Digits; i++ {
		m.Refresh()
	}
	assert.Equal(t, [Digits]uint8{0x66, 0x5B | PointBit, 0x66, 0x5B}, panel.Patterns())
}
