package sensor

import "github.com/chewxy/math32"

// Calibration maps raw ADC counts of the pH probe amplifier to pH by linear
// interpolation between two reference points. Readings beyond either point
// are clamped to it. The probe board is inverting: the acid end sits at the
// higher ADC count.
type Calibration struct {
	AcidADC uint16  `yaml:"acid_adc"`
	AcidPH  float32 `yaml:"acid_ph"`
	BaseADC uint16  `yaml:"base_adc"`
	BasePH  float32 `yaml:"base_ph"`
}

// DefaultCalibration returns the reference points measured on the monitor's
// probe board.
func DefaultCalibration() Calibration {
	return Calibration{
		AcidADC: 1020,
		AcidPH:  2.00,
		BaseADC: 650,
		BasePH:  14.00,
	}
}

// CentiPH returns pH × 100 for raw, using integer arithmetic between the two
// reference points.
func (c Calibration) CentiPH(raw uint16) int32 {
	acid := int32(math32.Round(c.AcidPH * 100))
	base := int32(math32.Round(c.BasePH * 100))
	if c.AcidADC == c.BaseADC {
		return acid
	}

	lo, hi := c.BaseADC, c.AcidADC
	loPH, hiPH := base, acid
	if lo > hi {
		lo, hi = hi, lo
		loPH, hiPH = hiPH, loPH
	}

	switch {
	case raw >= hi:
		return hiPH
	case raw <= lo:
		return loPH
	}

	pos := int32(hi - raw)
	span := int32(hi - lo)
	return hiPH + pos*(loPH-hiPH)/span
}

// PH returns the calibrated pH for raw.
func (c Calibration) PH(raw uint16) float32 {
	return float32(c.CentiPH(raw)) / 100
}
