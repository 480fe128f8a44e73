package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/itohio/algaemon/pkg/sensor"
)

func writeTemp(t *testing.T, content string) string {
	t.Helper()
	tmpfile, err := os.CreateTemp("", "test_config_*.yaml")
	require.NoError(t, err)
	t.Cleanup(func() { os.Remove(tmpfile.Name()) })

	_, err = tmpfile.WriteString(content)
	require.NoError(t, err)
	require.NoError(t, tmpfile.Close())
	return tmpfile.Name()
}

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.NotNil(t, cfg)
	assert.Equal(t, "COM3", cfg.Serial.Port)
	assert.Equal(t, 9600, cfg.Serial.Baud)
	assert.Equal(t, 750*time.Millisecond, cfg.Sensor.ConversionTime)
	assert.Equal(t, sensor.DefaultCalibration(), cfg.Sensor.Calibration)
	assert.Equal(t, 3*time.Second, cfg.Display.Dwell)
	assert.Equal(t, uint32(16_000_000), cfg.Display.CPUFrequency)
	assert.Equal(t, uint32(1024), cfg.Display.Prescaler)
	assert.False(t, cfg.Display.AutoRefresh)
	assert.Equal(t, time.Minute, cfg.Air.Period)
	assert.Equal(t, 30*time.Second, cfg.Air.On)
	assert.Equal(t, 0, cfg.Measurement.AverageSamples)
	assert.Equal(t, 30*time.Minute, cfg.Measurement.Window)
	assert.Equal(t, 6.5, cfg.Measurement.PHLow)
	assert.Equal(t, 9.0, cfg.Measurement.PHHigh)
	assert.Equal(t, 10*time.Millisecond, cfg.Mock.StepRate)
}

func TestLoad_FileNotExists(t *testing.T) {
	cfg, err := Load("nonexistent.yaml")
	require.NoError(t, err)
	assert.NotNil(t, cfg)
	assert.Equal(t, "COM3", cfg.Serial.Port)
}

func TestLoad_ValidYAML(t *testing.T) {
	name := writeTemp(t, `
serial:
  port: "/dev/ttyUSB0"
  baud: 115200

sensor:
  conversion_time: 800ms
  calibration:
    acid_adc: 1000
    acid_ph: 4.01
    base_adc: 700
    base_ph: 9.18

display:
  dwell: 5s
  prescaler: 256
  auto_refresh: true

air:
  period: 2m
  on: 45s

measurement:
  average_samples: 4
  window: 1h
  ph_low: 7.2
  ph_high: 8.4

mock:
  temperature: 28.5
  ph_raw: 900
  absent: true
`)

	cfg, err := Load(name)
	require.NoError(t, err)
	assert.NotNil(t, cfg)

	assert.Equal(t, "/dev/ttyUSB0", cfg.Serial.Port)
	assert.Equal(t, 115200, cfg.Serial.Baud)
	assert.Equal(t, 800*time.Millisecond, cfg.Sensor.ConversionTime)
	assert.Equal(t, sensor.Calibration{AcidADC: 1000, AcidPH: 4.01, BaseADC: 700, BasePH: 9.18}, cfg.Sensor.Calibration)
	assert.Equal(t, 5*time.Second, cfg.Display.Dwell)
	assert.Equal(t, uint32(256), cfg.Display.Prescaler)
	assert.Equal(t, uint32(16_000_000), cfg.Display.CPUFrequency) // default
	assert.True(t, cfg.Display.AutoRefresh)
	assert.Equal(t, 2*time.Minute, cfg.Air.Period)
	assert.Equal(t, 45*time.Second, cfg.Air.On)
	assert.Equal(t, 4, cfg.Measurement.AverageSamples)
	assert.Equal(t, time.Hour, cfg.Measurement.Window)
	assert.Equal(t, 7.2, cfg.Measurement.PHLow)
	assert.Equal(t, 8.4, cfg.Measurement.PHHigh)
	assert.Equal(t, float32(28.5), cfg.Mock.Temperature)
	assert.Equal(t, uint16(900), cfg.Mock.PHRaw)
	assert.True(t, cfg.Mock.Absent)
}

func TestLoad_InvalidYAML(t *testing.T) {
	cfg, err := Load(writeTemp(t, "invalid: yaml: content: ["))
	assert.Error(t, err)
	assert.Nil(t, cfg)
}

func TestLoad_PartialYAML(t *testing.T) {
	cfg, err := Load(writeTemp(t, `
serial:
  port: "/dev/ttyUSB0"
sensor:
  calibration:
    acid_adc: 500
    base_adc: 500
air:
  period: 10s
  on: 20s
measurement:
  ph_low: 9
  ph_high: 8
`))
	require.NoError(t, err)
	assert.NotNil(t, cfg)

	// Should use defaults for missing fields
	assert.Equal(t, "/dev/ttyUSB0", cfg.Serial.Port)
	assert.Equal(t, 9600, cfg.Serial.Baud)                               // default
	assert.Equal(t, sensor.DefaultCalibration(), cfg.Sensor.Calibration) // degenerate, replaced
	assert.Equal(t, 3*time.Second, cfg.Display.Dwell)                    // default
	assert.Equal(t, 10*time.Second, cfg.Air.On)                          // clamped to period
	assert.Equal(t, 6.5, cfg.Measurement.PHLow)                          // inverted band, replaced
	assert.Equal(t, 9.0, cfg.Measurement.PHHigh)
}

func TestSave(t *testing.T) {
	cfg := Default()
	cfg.Serial.Port = "/dev/ttyACM0"
	cfg.Display.Dwell = 4 * time.Second
	cfg.Sensor.Calibration.BasePH = 12.5

	name := writeTemp(t, "")
	require.NoError(t, cfg.Save(name))

	loaded, err := Load(name)
	require.NoError(t, err)
	assert.Equal(t, "/dev/ttyACM0", loaded.Serial.Port)
	assert.Equal(t, 4*time.Second, loaded.Display.Dwell)
	assert.Equal(t, float32(12.5), loaded.Sensor.Calibration.BasePH)
	assert.Equal(t, cfg.Mock, loaded.Mock)
}
