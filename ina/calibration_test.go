package ina

import (
	"testing"

	"github.com/mklimuk/powermon"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalibrationResolve(t *testing.T) {
	tests := []struct {
		name    string
		model   Model
		cal     Calibration
		wantLSB float64
		wantCal uint16
	}{
		{"ina228 reference board", ModelINA228, DefaultCalibration(ModelINA228), 0.000015625, 1024},
		{"ina228 from max current", ModelINA228, Calibration{MaxCurrent: 8.192, ShuntResistance: 0.005}, 0.000015625, 1024},
		{"ina228 low adc range", ModelINA228, Calibration{CurrentLSB: 0.000015625, ShuntResistance: 0.005, ADCRange: 1}, 0.000015625, 4096},
		{"ina228 explicit shunt cal", ModelINA228, Calibration{CurrentLSB: 0.000015625, ShuntCal: 2000}, 0.000015625, 2000},
		{"ina226 reference board", ModelINA226, DefaultCalibration(ModelINA226), 0.0001, 512},
		{"ina226 from max current", ModelINA226, Calibration{MaxCurrent: 3.2768, ShuntResistance: 0.1}, 0.0001, 512},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.cal.Resolve(tt.model)
			require.NoError(t, err)
			assert.InDelta(t, tt.wantLSB, got.CurrentLSB, 1e-15)
			assert.Equal(t, tt.wantCal, got.ShuntCal)
		})
	}
}

func TestCalibrationResolve_Errors(t *testing.T) {
	tests := []struct {
		name    string
		model   Model
		cal     Calibration
		wantErr error
	}{
		{"overflow", ModelINA228, Calibration{CurrentLSB: 0.0001, ShuntResistance: 0.1}, ErrCalibrationRange},
		{"explicit overflow", ModelINA226, Calibration{CurrentLSB: 0.0001, ShuntCal: 0x8000}, ErrCalibrationRange},
		{"no current lsb", ModelINA228, Calibration{ShuntResistance: 0.005}, powermon.ErrConfig},
		{"no shunt", ModelINA228, Calibration{CurrentLSB: 0.000015625}, powermon.ErrConfig},
		{"ina226 adc range", ModelINA226, Calibration{CurrentLSB: 0.0001, ShuntResistance: 0.1, ADCRange: 1}, powermon.ErrConfig},
		{"bad adc range", ModelINA228, Calibration{CurrentLSB: 0.000015625, ShuntResistance: 0.005, ADCRange: 2}, powermon.ErrConfig},
		{"negative shunt", ModelINA228, Calibration{CurrentLSB: 0.000015625, ShuntResistance: -1}, powermon.ErrConfig},
		{"rounds to zero", ModelINA228, Calibration{CurrentLSB: 0.000001, ShuntResistance: 0.00001}, powermon.ErrConfig},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.cal.Resolve(tt.model)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.ErrorIs(t, err, powermon.ErrConfig)
		})
	}
}
