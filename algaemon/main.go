package main

import (
	"flag"
	"fmt"
	"log"
	"sync"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"github.com/itohio/algaemon/pkg/config"
	"github.com/itohio/algaemon/pkg/diag"
	"github.com/itohio/algaemon/pkg/meter"
	"github.com/itohio/algaemon/pkg/panel"
	"github.com/itohio/algaemon/pkg/sample"
)

func main() {
	var (
		portFlag           = flag.String("p", "", "Serial port override (e.g., COM3 or /dev/ttyUSB0)")
		configFlag         = flag.String("config", "config.yaml", "Configuration file path")
		mockFlag           = flag.Bool("mock", false, "Use simulated board instead of serial port")
		averageSamplesFlag = flag.Int("average-samples", -1, "Number of readings to average (0 = disabled, overrides config)")
	)
	flag.Parse()

	cfg, err := config.Load(*configFlag)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	if *portFlag != "" {
		cfg.Serial.Port = *portFlag
	}
	if *averageSamplesFlag >= 0 {
		cfg.Measurement.AverageSamples = *averageSamplesFlag
	}

	application := app.NewWithID("com.itohio.algaemon")

	window := application.NewWindow("Algae Monitor")
	window.Resize(fyne.NewSize(1000, 700))
	window.CenterOnScreen()

	state := &appState{
		cfg:        cfg,
		configPath: *configFlag,
		window:     window,
		useMock:    *mockFlag,
		segments:   panel.NewSegmentDisplay(),
		scope:      panel.NewScope(cfg),
		status:     newStatusBar(),
	}
	state.setMeter(meter.New(cfg))

	window.SetContent(container.NewBorder(
		createToolbar(state),
		state.status.container(),
		nil,
		nil,
		state.scope,
	))
	window.SetOnClosed(func() {
		closeMeasurementChain(state.chain)
	})
	window.ShowAndRun()
}

// measurementChain tracks the components of the measurement chain for graceful shutdown.
type measurementChain struct {
	device         diag.Device
	samplesStream  <-chan sample.Sample
	meterGoroutine chan struct{} // Closed when meter goroutine exits
}

// appState holds the application state.
type appState struct {
	cfg        *config.Config
	configPath string
	device     diag.Device
	meter      *meter.Meter
	window     fyne.Window
	connectBtn *widget.Button
	useMock    bool
	chain      *measurementChain // Current measurement chain (nil if not connected)

	segments *panel.SegmentDisplay
	scope    *panel.ScopeWidget
	status   *statusBar

	// Throttling for scope updates
	lastUpdateTime time.Time
	updateMu       sync.Mutex
}

// createToolbar creates the application toolbar with Connect and Settings buttons
// and the seven segment replica on the right.
func createToolbar(state *appState) fyne.CanvasObject {
	connectBtn := widget.NewButtonWithIcon("", theme.LoginIcon(), func() {
		handleConnect(state)
	})
	state.connectBtn = connectBtn

	settingsBtn := widget.NewButtonWithIcon("", theme.SettingsIcon(), func() {
		showSettingsDialog(state)
	})

	return container.NewBorder(
		nil,
		nil,
		container.NewHBox(connectBtn, settingsBtn),
		state.segments,
		nil,
	)
}

// setMeter installs a meter and registers the scope update callback.
// Updates are throttled to ~60 FPS.
func (state *appState) setMeter(m *meter.Meter) {
	const updateInterval = 16 * time.Millisecond

	m.OnUpdate(func(samples []sample.Sample, rates []float64, excursions []meter.Excursion) {
		state.updateMu.Lock()
		now := time.Now()
		if now.Sub(state.lastUpdateTime) < updateInterval {
			state.updateMu.Unlock()
			return
		}
		state.lastUpdateTime = now
		state.updateMu.Unlock()

		fyne.Do(func() {
			state.scope.UpdateData(samples, rates, excursions)
		})
	})
	state.meter = m
}

// closeMeasurementChain gracefully closes the measurement chain.
// Waits for the meter goroutine to drain the converters.
func closeMeasurementChain(chain *measurementChain) {
	if chain == nil {
		return
	}

	// Close device - this will close the readings channel
	if chain.device != nil {
		if err := chain.device.Close(); err != nil {
			log.Printf("Failed to close device: %v", err)
		}
	}

	if chain.meterGoroutine != nil {
		<-chain.meterGoroutine
	}
}

// newDevice creates the configured device.
func newDevice(state *appState) diag.Device {
	if state.useMock {
		return diag.NewMock(state.cfg, nil)
	}
	return diag.New(state.cfg.Serial.Port, state.cfg.Serial.Baud, diag.DefaultBufferSize)
}

// handleConnect handles the connect/disconnect button click.
func handleConnect(state *appState) {
	if state.device != nil && state.device.IsConnected() {
		closeMeasurementChain(state.chain)
		state.chain = nil
		state.device = nil
		state.status.disconnected()
		if state.useMock {
			fmt.Println("Disconnected from simulated board")
		} else {
			fmt.Println("Disconnected from serial port")
		}
		return
	}

	device := newDevice(state)
	if err := device.Connect(); err != nil {
		if state.useMock {
			dialog.ShowError(fmt.Errorf("failed to start simulated board: %w", err), state.window)
		} else {
			dialog.ShowError(fmt.Errorf("failed to connect to %s: %w", state.cfg.Serial.Port, err), state.window)
		}
		return
	}
	state.device = device
	if state.useMock {
		fmt.Println("Using simulated board")
	} else {
		fmt.Printf("Connected to serial port: %s\n", state.cfg.Serial.Port)
	}

	// Reset meter shutdown flag for new chain
	state.meter.ResetShutdown()

	// Chain converters: base converter always used, averaging converter when enabled
	samplesStream := sample.NewConverter(500)(device.Readings())
	if state.cfg.Measurement.AverageSamples > 0 {
		samplesStream = sample.NewAveragingConverter(state.cfg.Measurement.AverageSamples, 500)(samplesStream)
	}
	samplesStream = tapSamples(samplesStream, func(s sample.Sample) {
		fyne.Do(func() {
			state.status.update(s)
			showSample(state.segments, s)
		})
	})

	meterDone := make(chan struct{})
	m := state.meter
	go func() {
		defer close(meterDone)
		m.ProcessSamples(samplesStream)
	}()

	state.chain = &measurementChain{
		device:         device,
		samplesStream:  samplesStream,
		meterGoroutine: meterDone,
	}
}

// tapSamples forwards every sample from in after handing it to fn.
func tapSamples(in <-chan sample.Sample, fn func(sample.Sample)) <-chan sample.Sample {
	out := make(chan sample.Sample, 100)

	go func() {
		defer close(out)
		for s := range in {
			fn(s)
			out <- s
		}
	}()

	return out
}
