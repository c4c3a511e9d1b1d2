package ina

import (
	"context"
	"errors"
	"testing"

	"github.com/mklimuk/powermon"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseModel(t *testing.T) {
	tests := []struct {
		in      string
		want    Model
		wantErr bool
	}{
		{"ina226", ModelINA226, false},
		{"INA228", ModelINA228, false},
		{"226", ModelINA226, false},
		{" 228 ", ModelINA228, false},
		{"ina219", 0, true},
		{"", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseModel(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, powermon.ErrConfig)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, got, mustParse(t, got.String()))
		})
	}
}

func mustParse(t *testing.T, s string) Model {
	m, err := ParseModel(s)
	require.NoError(t, err)
	return m
}

func TestNew(t *testing.T) {
	dev := powermon.NewDevice(newRegisterBus(nil), testAddr)

	m, err := New(ModelINA226, dev)
	require.NoError(t, err)
	assert.IsType(t, &INA226{}, m)

	m, err = New(ModelINA228, dev)
	require.NoError(t, err)
	assert.IsType(t, &INA228{}, m)

	_, err = New(Model(9), dev)
	assert.ErrorIs(t, err, powermon.ErrConfig)

	_, err = New(ModelINA228, dev, WithCalibration(Calibration{CurrentLSB: 1, ShuntResistance: 1}))
	assert.ErrorIs(t, err, ErrCalibrationRange)
}

func TestMockMonitor(t *testing.T) {
	calls := 0
	mon := NewMockMonitor(ModelINA228, func(ctx context.Context) ([]Reading, error) {
		calls++
		if calls > 2 {
			return nil, errors.New("bus gone")
		}
		return []Reading{
			{Quantity: BusVoltage, Value: 12.1, Unit: Volts},
			{Quantity: Energy, Value: 3600, Unit: Joules},
		}, nil
	})
	ctx := context.Background()

	v, err := mon.BusVoltage(ctx)
	require.NoError(t, err)
	assert.Equal(t, 12.1, v.Value)

	e, err := mon.Energy(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1.0, e.WattHours())

	_, err = mon.Sample(ctx)
	assert.EqualError(t, err, "bus gone")

	require.NoError(t, mon.ResetAccumulators(ctx))
	assert.Equal(t, 1, mon.Resets)

	id, err := mon.Identify(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint16(0x228), id.Die())
}

func TestReadingString(t *testing.T) {
	assert.Equal(t, "12.000000 V", Reading{Quantity: BusVoltage, Value: 12, Unit: Volts}.String())
	assert.Equal(t, "°C", Celsius.String())
	assert.Equal(t, "die temperature", DieTemperature.String())
}
