package main

import (
	"fmt"
	"strconv"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"

	"github.com/itohio/algaemon/pkg/diag"
	"github.com/itohio/algaemon/pkg/meter"
)

// showSettingsDialog displays a settings dialog with tabs for all configuration options.
func showSettingsDialog(state *appState) {
	tabs := container.NewAppTabs(
		createSerialTab(state),
		createSensorTab(state),
		createDisplayTab(state),
		createMeasurementTab(state),
		createMockTab(state),
	)

	content := container.NewBorder(nil, nil, nil, nil, tabs)
	content.Resize(fyne.NewSize(600, 500))

	d := dialog.NewCustom("Settings", "Close", content, state.window)
	d.Resize(fyne.NewSize(600, 500))
	d.Show()
}

// saveConfig writes the configuration and reports failures in a dialog.
func saveConfig(state *appState) {
	if err := state.cfg.Save(state.configPath); err != nil {
		dialog.ShowError(fmt.Errorf("failed to save config: %w", err), state.window)
	}
}

func durationEntry(d time.Duration) *widget.Entry {
	e := widget.NewEntry()
	e.SetText(d.String())
	return e
}

func floatEntry(v float64, decimals int) *widget.Entry {
	e := widget.NewEntry()
	e.SetText(strconv.FormatFloat(v, 'f', decimals, 64))
	return e
}

func uintEntry(v uint64) *widget.Entry {
	e := widget.NewEntry()
	e.SetText(strconv.FormatUint(v, 10))
	return e
}

// createSerialTab creates the Serial configuration tab.
func createSerialTab(state *appState) *container.TabItem {
	ports, err := diag.Ports()
	if err != nil {
		ports = nil
	}

	// Add current port if not in list
	currentPort := state.cfg.Serial.Port
	found := false
	for _, p := range ports {
		if p == currentPort {
			found = true
			break
		}
	}
	if !found && currentPort != "" {
		ports = append(ports, currentPort)
	}

	portSelect := widget.NewSelect(ports, nil)
	if currentPort != "" {
		portSelect.SetSelected(currentPort)
	}
	baudEntry := uintEntry(uint64(state.cfg.Serial.Baud))

	form := &widget.Form{
		Items: []*widget.FormItem{
			{Text: "Serial Port", Widget: portSelect},
			{Text: "Baud Rate", Widget: baudEntry},
		},
		OnSubmit: func() {
			selected := portSelect.Selected
			if selected == "" {
				return
			}

			portChanged := state.cfg.Serial.Port != selected
			wasConnected := state.device != nil && state.device.IsConnected()

			state.cfg.Serial.Port = selected
			if baud, err := strconv.Atoi(baudEntry.Text); err == nil && baud > 0 {
				state.cfg.Serial.Baud = baud
			}
			saveConfig(state)

			// If port changed and device was connected, restart the measurement chain
			if portChanged && wasConnected && !state.useMock {
				handleConnect(state) // disconnect
				handleConnect(state) // reconnect with new port
			}
		},
	}

	return container.NewTabItem("Serial", form)
}

// createSensorTab creates the pH calibration and conversion timing tab.
func createSensorTab(state *appState) *container.TabItem {
	cal := &state.cfg.Sensor.Calibration

	conversionEntry := durationEntry(state.cfg.Sensor.ConversionTime)
	acidADCEntry := uintEntry(uint64(cal.AcidADC))
	acidPHEntry := floatEntry(float64(cal.AcidPH), 2)
	baseADCEntry := uintEntry(uint64(cal.BaseADC))
	basePHEntry := floatEntry(float64(cal.BasePH), 2)

	form := &widget.Form{
		Items: []*widget.FormItem{
			{Text: "Conversion Time", Widget: conversionEntry},
			{Text: "Acid Point (ADC)", Widget: acidADCEntry},
			{Text: "Acid Point (pH)", Widget: acidPHEntry},
			{Text: "Base Point (ADC)", Widget: baseADCEntry},
			{Text: "Base Point (pH)", Widget: basePHEntry},
		},
		OnSubmit: func() {
			if d, err := time.ParseDuration(conversionEntry.Text); err == nil && d > 0 {
				state.cfg.Sensor.ConversionTime = d
			}
			if v, err := strconv.ParseUint(acidADCEntry.Text, 10, 10); err == nil {
				cal.AcidADC = uint16(v)
			}
			if v, err := strconv.ParseFloat(acidPHEntry.Text, 32); err == nil {
				cal.AcidPH = float32(v)
			}
			if v, err := strconv.ParseUint(baseADCEntry.Text, 10, 10); err == nil {
				cal.BaseADC = uint16(v)
			}
			if v, err := strconv.ParseFloat(basePHEntry.Text, 32); err == nil {
				cal.BasePH = float32(v)
			}
			saveConfig(state)
		},
	}

	return container.NewTabItem("Sensor", form)
}

// createDisplayTab creates the display and air pump tab.
func createDisplayTab(state *appState) *container.TabItem {
	dwellEntry := durationEntry(state.cfg.Display.Dwell)
	autoCheck := widget.NewCheck("", nil)
	autoCheck.SetChecked(state.cfg.Display.AutoRefresh)
	airPeriodEntry := durationEntry(state.cfg.Air.Period)
	airOnEntry := durationEntry(state.cfg.Air.On)

	form := &widget.Form{
		Items: []*widget.FormItem{
			{Text: "Dwell", Widget: dwellEntry},
			{Text: "Timer Refresh", Widget: autoCheck},
			{Text: "Air Period", Widget: airPeriodEntry},
			{Text: "Air On", Widget: airOnEntry},
		},
		OnSubmit: func() {
			if d, err := time.ParseDuration(dwellEntry.Text); err == nil && d > 0 {
				state.cfg.Display.Dwell = d
			}
			state.cfg.Display.AutoRefresh = autoCheck.Checked
			if d, err := time.ParseDuration(airPeriodEntry.Text); err == nil && d > 0 {
				state.cfg.Air.Period = d
			}
			if d, err := time.ParseDuration(airOnEntry.Text); err == nil && d >= 0 {
				state.cfg.Air.On = min(d, state.cfg.Air.Period)
			}
			saveConfig(state)
		},
	}

	return container.NewTabItem("Display", form)
}

// createMeasurementTab creates the Measurement configuration tab.
func createMeasurementTab(state *appState) *container.TabItem {
	m := &state.cfg.Measurement

	windowEntry := durationEntry(m.Window)
	phLowEntry := floatEntry(m.PHLow, 2)
	phHighEntry := floatEntry(m.PHHigh, 2)
	minExcursionEntry := durationEntry(m.MinExcursion)
	averageSamplesEntry := uintEntry(uint64(max(m.AverageSamples, 0)))

	form := &widget.Form{
		Items: []*widget.FormItem{
			{Text: "Window", Widget: windowEntry},
			{Text: "pH Low", Widget: phLowEntry},
			{Text: "pH High", Widget: phHighEntry},
			{Text: "Min Excursion", Widget: minExcursionEntry},
			{Text: "Average Samples (0=disabled)", Widget: averageSamplesEntry},
		},
		OnSubmit: func() {
			if d, err := time.ParseDuration(windowEntry.Text); err == nil && d > 0 {
				m.Window = d
			}
			low, errLow := strconv.ParseFloat(phLowEntry.Text, 64)
			high, errHigh := strconv.ParseFloat(phHighEntry.Text, 64)
			if errLow == nil && errHigh == nil && low < high {
				m.PHLow, m.PHHigh = low, high
			}
			if d, err := time.ParseDuration(minExcursionEntry.Text); err == nil && d >= 0 {
				m.MinExcursion = d
			}
			if avg, err := strconv.Atoi(averageSamplesEntry.Text); err == nil && avg >= 0 {
				m.AverageSamples = avg
			}
			saveConfig(state)

			// Recreate meter with new config; the running chain keeps the old one
			state.setMeter(meter.New(state.cfg))
		},
	}

	return container.NewTabItem("Measurement", form)
}

// createMockTab creates the simulated board configuration tab.
func createMockTab(state *appState) *container.TabItem {
	mock := &state.cfg.Mock

	temperatureEntry := floatEntry(float64(mock.Temperature), 1)
	swingEntry := floatEntry(float64(mock.Swing), 1)
	swingPeriodEntry := durationEntry(mock.SwingPeriod)
	phRawEntry := uintEntry(uint64(mock.PHRaw))
	phNoiseEntry := uintEntry(uint64(mock.PHNoise))
	stepRateEntry := durationEntry(mock.StepRate)
	absentCheck := widget.NewCheck("", nil)
	absentCheck.SetChecked(mock.Absent)

	form := &widget.Form{
		Items: []*widget.FormItem{
			{Text: "Temperature (°C)", Widget: temperatureEntry},
			{Text: "Swing (°C)", Widget: swingEntry},
			{Text: "Swing Period", Widget: swingPeriodEntry},
			{Text: "pH Raw (ADC)", Widget: phRawEntry},
			{Text: "pH Noise (ADC)", Widget: phNoiseEntry},
			{Text: "Step Rate", Widget: stepRateEntry},
			{Text: "Sensor Absent", Widget: absentCheck},
		},
		OnSubmit: func() {
			if v, err := strconv.ParseFloat(temperatureEntry.Text, 32); err == nil {
				mock.Temperature = float32(v)
			}
			if v, err := strconv.ParseFloat(swingEntry.Text, 32); err == nil {
				mock.Swing = float32(v)
			}
			if d, err := time.ParseDuration(swingPeriodEntry.Text); err == nil && d > 0 {
				mock.SwingPeriod = d
			}
			if v, err := strconv.ParseUint(phRawEntry.Text, 10, 10); err == nil {
				mock.PHRaw = uint16(v)
			}
			if v, err := strconv.ParseUint(phNoiseEntry.Text, 10, 10); err == nil {
				mock.PHNoise = uint16(v)
			}
			if d, err := time.ParseDuration(stepRateEntry.Text); err == nil && d > 0 {
				mock.StepRate = d
			}
			mock.Absent = absentCheck.Checked
			saveConfig(state)
		},
	}

	return container.NewTabItem("Mock", form)
}
