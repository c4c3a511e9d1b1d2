package ina

import (
	"fmt"
	"math"

	"github.com/mklimuk/powermon"
)

var ErrCalibrationRange = fmt.Errorf("%w: shunt calibration does not fit 15 bits", powermon.ErrConfig)

// Calibration holds the values used to program the shunt calibration register
// and to scale current, power, energy and charge readings.
//
// CurrentLSB is derived from MaxCurrent when zero. ShuntCal is derived from
// CurrentLSB and ShuntResistance when zero.
type Calibration struct {
	CurrentLSB      float64
	ShuntResistance float64
	MaxCurrent      float64
	ShuntCal        uint16
	// ADCRange selects the INA228 shunt full scale: 0 for ±163.84 mV, 1 for
	// ±40.96 mV. Always 0 on the INA226.
	ADCRange int
}

// DefaultCalibration returns the calibration of the reference boards: a 5 mΩ
// shunt on the INA228 and a 100 mΩ shunt on the INA226.
func DefaultCalibration(m Model) Calibration {
	switch m {
	case ModelINA226:
		return Calibration{CurrentLSB: 0.0001, ShuntResistance: 0.1}
	default:
		return Calibration{CurrentLSB: 0.000015625, ShuntResistance: 0.005}
	}
}

// Resolve fills in the derived CurrentLSB and ShuntCal values for the given
// model and validates the result.
func (c Calibration) Resolve(m Model) (Calibration, error) {
	if c.ADCRange != 0 && (m != ModelINA228 || c.ADCRange != 1) {
		return c, fmt.Errorf("%w: adc range %d not supported by %s", powermon.ErrConfig, c.ADCRange, m)
	}
	if c.CurrentLSB < 0 || c.ShuntResistance < 0 || c.MaxCurrent < 0 {
		return c, fmt.Errorf("%w: calibration values must not be negative", powermon.ErrConfig)
	}
	if c.CurrentLSB == 0 {
		if c.MaxCurrent == 0 {
			return c, fmt.Errorf("%w: current LSB or max current is required", powermon.ErrConfig)
		}
		c.CurrentLSB = c.MaxCurrent / currentLSBDivisor(m)
	}
	if c.ShuntCal != 0 {
		if c.ShuntCal > 0x7FFF {
			return c, ErrCalibrationRange
		}
		return c, nil
	}
	if c.ShuntResistance == 0 {
		return c, fmt.Errorf("%w: shunt resistance is required", powermon.ErrConfig)
	}
	var cal float64
	switch m {
	case ModelINA228:
		cal = 13107.2e6 * c.CurrentLSB * c.ShuntResistance
		if c.ADCRange == 1 {
			cal *= 4
		}
	case ModelINA226:
		cal = 0.00512 / (c.CurrentLSB * c.ShuntResistance)
	default:
		return c, fmt.Errorf("%w: unknown model %d", powermon.ErrConfig, m)
	}
	cal = math.Round(cal)
	if cal > 0x7FFF {
		return c, fmt.Errorf("%w (%.0f)", ErrCalibrationRange, cal)
	}
	if cal < 1 {
		return c, fmt.Errorf("%w: shunt calibration rounds to zero", powermon.ErrConfig)
	}
	c.ShuntCal = uint16(cal)
	return c, nil
}

// current register is 20 bits signed on the INA228 and 16 bits signed on the INA226
func currentLSBDivisor(m Model) float64 {
	if m == ModelINA226 {
		return 1 << 15
	}
	return 1 << 19
}
