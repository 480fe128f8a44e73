package control

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpiotest"

	"github.com/itohio/algaemon/pkg/sensor"
)

type recorder struct {
	values    []float32
	refreshes int
}

func (r *recorder) Format(x float32) { r.values = append(r.values, x) }
func (r *recorder) Refresh()         { r.refreshes++ }

type fakeThermometer struct {
	starts int
	value  int16
}

func (f *fakeThermometer) StartConversion() error { f.starts++; return nil }
func (f *fakeThermometer) ReadAfterConversion() (int16, error) {
	return f.value, nil
}

type fakeADC uint16

func (f fakeADC) Read(uint8) uint16 { return uint16(f) }

type countingPin struct {
	gpiotest.Pin
	writes int
	err    error
}

func (p *countingPin) Out(l gpio.Level) error {
	if p.err != nil {
		return p.err
	}
	p.writes++
	return p.Pin.Out(l)
}

func TestCheckModeSwitch(t *testing.T) {
	c := NewModeController(DefaultDwell, &recorder{})
	assert.True(t, c.ShowingTemperature())

	tests := []struct {
		now      uint64
		switched bool
		mode     Mode
	}{
		{0, false, Temperature},
		{2999, false, Temperature},
		{3000, true, PH},
		{3000, false, PH},
		{5999, false, PH},
		{6000, true, Temperature},
		{9500, true, PH},
		{12499, false, PH},
		{12500, true, Temperature},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.switched, c.CheckModeSwitch(tt.now), "at %d", tt.now)
		assert.Equal(t, tt.mode, c.Mode(), "at %d", tt.now)
	}
	assert.Equal(t, uint64(12500), c.LastSwitch())
}

func TestCheckModeSwitchOncePerBoundary(t *testing.T) {
	c := NewModeController(time.Second, &recorder{})

	switches := 0
	for now := uint64(0); now <= 10_000; now++ {
		if c.CheckModeSwitch(now) {
			switches++
			assert.Zero(t, now%1000, "switch at %d", now)
		}
	}
	assert.Equal(t, 10, switches)
}

func TestUpdateDisplay(t *testing.T) {
	r := &recorder{}
	c := NewModeController(DefaultDwell, r)
	v := sensor.Values{Temperature: 24.5, PH: 6.8}

	c.UpdateDisplay(v)
	c.CheckModeSwitch(3000)
	c.UpdateDisplay(v)

	assert.Equal(t, []float32{24.5, 6.8}, r.values)
}

func TestModeStrings(t *testing.T) {
	assert.Equal(t, "temperature", Temperature.String())
	assert.Equal(t, "pH", PH.String())
	assert.Equal(t, byte('T'), Temperature.Symbol())
	assert.Equal(t, byte('P'), PH.Symbol())
}

func TestAirPump(t *testing.T) {
	pin := &countingPin{Pin: gpiotest.Pin{N: "D5"}}
	p := NewAirPump(pin, DefaultAirPeriod, DefaultAirOn)

	tests := []struct {
		now  uint64
		want bool
	}{
		{0, true},
		{29_999, true},
		{30_000, false},
		{59_999, false},
		{60_000, true},
		{95_000, false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, p.Update(tt.now), "at %d", tt.now)
		assert.Equal(t, gpio.Level(tt.want), pin.Read())
	}
	assert.Equal(t, 4, pin.writes)

	p.Update(95_001)
	assert.Equal(t, 4, pin.writes, "unchanged state is not rewritten")
}

func TestAirPumpWriteError(t *testing.T) {
	pin := &countingPin{err: errors.New("broken")}
	p := NewAirPump(pin, DefaultAirPeriod, DefaultAirOn)

	assert.False(t, p.Update(0))

	pin.err = nil
	assert.True(t, p.Update(1))
	assert.True(t, p.On())
}

func TestAirPumpDisabled(t *testing.T) {
	pin := &countingPin{}
	p := NewAirPump(pin, 0, 0)
	assert.False(t, p.Update(1000))
	assert.Equal(t, 1, pin.writes)
}

func newLoop(clock clockwork.Clock) (*Loop, *recorder, *fakeThermometer, *countingPin) {
	therm := &fakeThermometer{value: 312}
	sched := sensor.NewScheduler(therm, fakeADC(835))
	r := &recorder{}
	pin := &countingPin{}
	l := NewLoop(clock, sched, NewModeController(DefaultDwell, r), r, NewAirPump(pin, DefaultAirPeriod, DefaultAirOn))
	return l, r, therm, pin
}

func TestLoopStep(t *testing.T) {
	clock := clockwork.NewFakeClock()
	l, r, therm, pin := newLoop(clock)

	var reports []Report
	l.OnReport = func(rep Report) { reports = append(reports, rep) }

	for i := 0; i < 100; i++ {
		l.Step()
		clock.Advance(100 * time.Millisecond)
	}

	require.Len(t, reports, 3)
	assert.Equal(t, 3*time.Second, reports[0].Uptime)
	assert.Equal(t, PH, reports[0].Mode)
	assert.InDelta(t, 8.0, reports[0].Values.PH, 1e-5)
	assert.Equal(t, Temperature, reports[1].Mode)
	assert.InDelta(t, 31.2, reports[1].Values.Temperature, 1e-5)
	assert.True(t, reports[0].Air)

	assert.Equal(t, 4, therm.starts)
	assert.Equal(t, 100, r.refreshes)
	assert.Len(t, r.values, 100)
	assert.Equal(t, 1, pin.writes)
	assert.Equal(t, uint64(10_000), l.Now())
}

func TestLoopShowsTemperatureAfterDwell(t *testing.T) {
	clock := clockwork.NewFakeClock()
	l, r, _, _ := newLoop(clock)

	for now := 0; now <= 6000; now += 10 {
		l.Step()
		clock.Advance(10 * time.Millisecond)
	}

	assert.Equal(t, float32(31.2), r.values[len(r.values)-1])
	assert.Equal(t, sensor.InitialTemperature, r.values[0])
}

func TestLoopRun(t *testing.T) {
	clock := clockwork.NewFakeClock()
	l, r, therm, _ := newLoop(clock)
	l.Idle = 50 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- l.Run(ctx) }()

	for i := 0; i < 5; i++ {
		clock.BlockUntil(1)
		clock.Advance(l.Idle)
	}
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("loop did not stop")
	}
	assert.GreaterOrEqual(t, therm.starts, 1, "primed at start")
	assert.GreaterOrEqual(t, r.refreshes, 5)
}
