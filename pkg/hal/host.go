package hal

import (
	"fmt"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"
)

// OpenHostPins initializes the periph host drivers and looks up each named
// pin (e.g. "GPIO4"). It is used when the core runs on a single board
// computer instead of a microcontroller.
func OpenHostPins(names ...string) ([]gpio.PinIO, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize host drivers: %w", err)
	}

	pins := make([]gpio.PinIO, 0, len(names))
	for _, name := range names {
		p := gpioreg.ByName(name)
		if p == nil {
			return nil, fmt.Errorf("unknown pin %q", name)
		}
		pins = append(pins, p)
	}
	return pins, nil
}
