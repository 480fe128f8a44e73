package sample

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/itohio/algaemon/pkg/control"
)

func celsiusSample(ts time.Time, c float64, ph float64) Sample {
	return Sample{
		Timestamp:   ts,
		Temperature: FromDecidegrees(int64(c * 10)),
		PH:          ph,
	}
}

func TestAveragingConverter(t *testing.T) {
	now := time.Now()
	input := make(chan Sample, 4)
	output := NewAveragingConverter(2, 10)(input)

	input <- celsiusSample(now, 20, 6.0)
	input <- celsiusSample(now.Add(time.Second), 21, 7.0)
	last := celsiusSample(now.Add(2*time.Second), 22, 8.0)
	last.Mode = control.PH
	last.Air = true
	input <- last
	close(input)

	var got []Sample
	for s := range output {
		got = append(got, s)
	}

	require.Len(t, got, 3)
	assert.InDelta(t, 20.0, got[0].Celsius(), 1e-9)
	assert.InDelta(t, 20.5, got[1].Celsius(), 1e-9)
	assert.InDelta(t, 21.5, got[2].Celsius(), 1e-9)
	assert.InDelta(t, 6.5, got[1].PH, 1e-9)
	assert.InDelta(t, 7.5, got[2].PH, 1e-9)

	// Metadata comes from the newest sample
	assert.Equal(t, last.Timestamp, got[2].Timestamp)
	assert.Equal(t, control.PH, got[2].Mode)
	assert.True(t, got[2].Air)
}

func TestAveragingConverter_InvalidWindow(t *testing.T) {
	now := time.Now()
	input := make(chan Sample, 2)
	output := NewAveragingConverter(0, 0)(input)

	input <- celsiusSample(now, 20, 6.0)
	input <- celsiusSample(now, 30, 8.0)
	close(input)

	var got []Sample
	for s := range output {
		got = append(got, s)
	}

	// Window of one passes samples through
	require.Len(t, got, 2)
	assert.InDelta(t, 30.0, got[1].Celsius(), 1e-9)
	assert.InDelta(t, 8.0, got[1].PH, 1e-9)
}

func TestAverageSamples_Empty(t *testing.T) {
	assert.Equal(t, Sample{}, averageSamples(nil))
}
