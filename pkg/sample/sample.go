// Package sample turns monitor readings into host side samples with
// physical units and provides the smoothing stages of the measurement chain.
package sample

import (
	"log"
	"time"

	"github.com/chewxy/math32"
	"periph.io/x/conn/v3/physic"

	"github.com/itohio/algaemon/pkg/control"
	"github.com/itohio/algaemon/pkg/diag"
)

// Sample represents a processed measurement sample with physical values.
type Sample struct {
	Timestamp   time.Time
	Uptime      time.Duration      // Board uptime when the report was emitted
	Temperature physic.Temperature // Medium temperature
	PH          float64
	Mode        control.Mode // Quantity the board switched to
	Air         bool         // Air pump output
}

// Celsius returns the sample temperature in degrees Celsius.
func (s Sample) Celsius() float64 {
	return float64(s.Temperature-physic.ZeroCelsius) / float64(physic.Celsius)
}

// Converter is a function type that converts Reading channel to Sample channel.
type Converter func(in <-chan diag.Reading) <-chan Sample

// Stage transforms a Sample channel, e.g. by averaging.
type Stage func(in <-chan Sample) <-chan Sample

// NewConverter creates a converter function that transforms Reading to Sample.
func NewConverter(bufSize int) Converter {
	if bufSize <= 0 {
		bufSize = 100
	}

	return func(in <-chan diag.Reading) <-chan Sample {
		out := make(chan Sample, bufSize)

		go func() {
			defer close(out)

			for r := range in {
				select {
				case out <- Convert(r):
				case <-time.After(time.Second):
					log.Printf("Converter output channel full, dropping sample")
				}
			}
		}()

		return out
	}
}

// Convert converts a single Reading. The temperature keeps the 0.1 °C
// resolution of the diagnostics line.
func Convert(r diag.Reading) Sample {
	return Sample{
		Timestamp:   r.Timestamp,
		Uptime:      r.Uptime,
		Temperature: FromDecidegrees(int64(math32.Round(r.Values.Temperature * 10))),
		PH:          float64(math32.Round(r.Values.PH*100)) / 100,
		Mode:        r.Mode,
		Air:         r.Air,
	}
}

// FromDecidegrees converts tenths of a degree Celsius to a temperature.
func FromDecidegrees(deci int64) physic.Temperature {
	return physic.ZeroCelsius + physic.Temperature(deci)*physic.Celsius/10
}
