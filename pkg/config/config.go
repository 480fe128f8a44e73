package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/itohio/algaemon/pkg/sensor"
)

// Config represents the host tool configuration. The firmware does not read
// it; its values mirror the firmware's compiled constants.
type Config struct {
	Serial      SerialConfig      `yaml:"serial"`
	Sensor      SensorConfig      `yaml:"sensor"`
	Display     DisplayConfig     `yaml:"display"`
	Air         AirConfig         `yaml:"air"`
	Measurement MeasurementConfig `yaml:"measurement"`
	Mock        MockConfig        `yaml:"mock"`
}

// SerialConfig contains serial port configuration.
type SerialConfig struct {
	Port string `yaml:"port"`
	Baud int    `yaml:"baud"`
}

// SensorConfig contains sensor scheduling and pH calibration parameters.
type SensorConfig struct {
	ConversionTime time.Duration      `yaml:"conversion_time"`
	Calibration    sensor.Calibration `yaml:"calibration"`
}

// DisplayConfig contains display multiplexing parameters.
type DisplayConfig struct {
	Dwell        time.Duration `yaml:"dwell"`         // Time each quantity stays on the display
	CPUFrequency uint32        `yaml:"cpu_frequency"` // Timer reference clock (Hz)
	Prescaler    uint32        `yaml:"prescaler"`     // Refresh timer prescaler
	AutoRefresh  bool          `yaml:"auto_refresh"`  // Refresh from the timer task instead of the loop
}

// AirConfig contains the air pump duty schedule.
type AirConfig struct {
	Period time.Duration `yaml:"period"`
	On     time.Duration `yaml:"on"`
}

// MeasurementConfig contains host side processing parameters.
type MeasurementConfig struct {
	AverageSamples int           `yaml:"average_samples"` // Number of readings to average (0 = disabled, default)
	History        int           `yaml:"history"`         // Maximum points plotted by the panel
	Window         time.Duration `yaml:"window"`          // Time window of readings kept by the meter
	PHLow          float64       `yaml:"ph_low"`          // Lower bound of the healthy pH band
	PHHigh         float64       `yaml:"ph_high"`         // Upper bound of the healthy pH band
	MinExcursion   time.Duration `yaml:"min_excursion"`   // Shortest out of band interval reported
}

// MockConfig contains simulated board parameters.
type MockConfig struct {
	Temperature float32       `yaml:"temperature"`  // Medium temperature (°C)
	Swing       float32       `yaml:"swing"`        // Peak temperature deviation (°C)
	SwingPeriod time.Duration `yaml:"swing_period"` // Period of the temperature swing
	PHRaw       uint16        `yaml:"ph_raw"`       // pH amplifier ADC count
	PHNoise     uint16        `yaml:"ph_noise"`     // Peak ADC noise (counts)
	StepRate    time.Duration `yaml:"step_rate"`    // Control loop iteration period
	Absent      bool          `yaml:"absent"`       // Simulate a disconnected temperature sensor
}

// Default returns a default configuration with sensible values.
func Default() *Config {
	return &Config{
		Serial: SerialConfig{
			Port: "COM3", // Default for Windows, should be "/dev/ttyUSB0" on Linux/Mac
			Baud: 9600,
		},
		Sensor: SensorConfig{
			ConversionTime: sensor.DefaultConversionTime,
			Calibration:    sensor.DefaultCalibration(),
		},
		Display: DisplayConfig{
			Dwell:        3 * time.Second,
			CPUFrequency: 16_000_000,
			Prescaler:    1024,
		},
		Air: AirConfig{
			Period: time.Minute,
			On:     30 * time.Second,
		},
		Measurement: MeasurementConfig{
			AverageSamples: 0, // No averaging by default
			History:        100,
			Window:         30 * time.Minute,
			PHLow:          6.5,
			PHHigh:         9.0,
			MinExcursion:   10 * time.Second,
		},
		Mock: MockConfig{
			Temperature: 24.0,
			Swing:       1.5,
			SwingPeriod: 10 * time.Minute,
			PHRaw:       860,
			PHNoise:     3,
			StepRate:    10 * time.Millisecond,
		},
	}
}

// Load loads configuration from a YAML file. If the file doesn't exist or
// fields are missing, it uses default values.
func Load(filename string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(filename)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.ensureDefaults()

	return cfg, nil
}

// Save saves the configuration to a YAML file.
func (c *Config) Save(filename string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// ensureDefaults ensures that all required fields have default values if missing.
func (c *Config) ensureDefaults() {
	def := Default()

	if c.Serial.Port == "" {
		c.Serial.Port = def.Serial.Port
	}
	if c.Serial.Baud == 0 {
		c.Serial.Baud = def.Serial.Baud
	}

	if c.Sensor.ConversionTime == 0 {
		c.Sensor.ConversionTime = def.Sensor.ConversionTime
	}
	if c.Sensor.Calibration.AcidADC == c.Sensor.Calibration.BaseADC {
		c.Sensor.Calibration = def.Sensor.Calibration
	}

	if c.Display.Dwell == 0 {
		c.Display.Dwell = def.Display.Dwell
	}
	if c.Display.CPUFrequency == 0 {
		c.Display.CPUFrequency = def.Display.CPUFrequency
	}
	if c.Display.Prescaler == 0 {
		c.Display.Prescaler = def.Display.Prescaler
	}

	if c.Air.Period == 0 {
		c.Air.Period = def.Air.Period
		c.Air.On = def.Air.On
	}
	if c.Air.On > c.Air.Period {
		c.Air.On = c.Air.Period
	}

	if c.Measurement.History == 0 {
		c.Measurement.History = def.Measurement.History
	}
	if c.Measurement.Window == 0 {
		c.Measurement.Window = def.Measurement.Window
	}
	if c.Measurement.PHLow >= c.Measurement.PHHigh {
		c.Measurement.PHLow = def.Measurement.PHLow
		c.Measurement.PHHigh = def.Measurement.PHHigh
	}

	if c.Mock.SwingPeriod == 0 {
		c.Mock.SwingPeriod = def.Mock.SwingPeriod
	}
	if c.Mock.StepRate == 0 {
		c.Mock.StepRate = def.Mock.StepRate
	}
}
