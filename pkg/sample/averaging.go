package sample

import (
	"log"

	"periph.io/x/conn/v3/physic"
)

// NewAveragingConverter creates a stage that replaces every sample with the
// mean of the last windowSize samples. Mode, air state and timestamps are
// taken from the most recent sample.
func NewAveragingConverter(windowSize int, bufSize int) Stage {
	if windowSize <= 0 {
		windowSize = 1 // No averaging if invalid
	}
	if bufSize <= 0 {
		bufSize = 100
	}

	return func(in <-chan Sample) <-chan Sample {
		out := make(chan Sample, bufSize)

		go func() {
			defer close(out)

			buffer := make([]Sample, 0, windowSize+1)
			for s := range in {
				buffer = append(buffer, s)
				if len(buffer) > windowSize {
					buffer = buffer[1:] // Remove oldest
				}

				select {
				case out <- averageSamples(buffer):
				default:
					log.Printf("Averaging converter output channel full")
				}
			}
		}()

		return out
	}
}

// averageSamples averages a slice of Samples.
func averageSamples(samples []Sample) Sample {
	if len(samples) == 0 {
		return Sample{}
	}

	var sumTemp physic.Temperature
	var sumPH float64
	for _, s := range samples {
		sumTemp += s.Temperature
		sumPH += s.PH
	}

	avg := samples[len(samples)-1]
	avg.Temperature = sumTemp / physic.Temperature(len(samples))
	avg.PH = sumPH / float64(len(samples))
	return avg
}
