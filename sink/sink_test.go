package sink

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/mklimuk/powermon/ina"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var sampleTime = time.Date(2026, 10, 18, 14, 3, 7, 0, time.Local)

func ina226Sample() ina.Sample {
	return ina.Sample{
		Model: ina.ModelINA226,
		At:    sampleTime,
		Readings: []ina.Reading{
			{Quantity: ina.BusVoltage, Value: 12, Unit: ina.Volts},
			{Quantity: ina.Current, Value: 0.5, Unit: ina.Amps},
			{Quantity: ina.Power, Value: 6, Unit: ina.Watts},
			{Quantity: ina.ShuntVoltage, Value: 0.05, Unit: ina.Millivolts},
		},
	}
}

func ina228Sample() ina.Sample {
	return ina.Sample{
		Model: ina.ModelINA228,
		At:    sampleTime,
		Readings: []ina.Reading{
			{Quantity: ina.BusVoltage, Value: 24.5, Unit: ina.Volts},
			{Quantity: ina.Current, Value: -1.25, Unit: ina.Amps},
			{Quantity: ina.Power, Value: 30.5, Unit: ina.Watts},
			{Quantity: ina.Energy, Value: 7200, Unit: ina.Joules},
			{Quantity: ina.Charge, Value: -1800, Unit: ina.Coulombs},
			{Quantity: ina.DieTemperature, Value: 31.5, Unit: ina.Celsius},
		},
	}
}

func TestValues(t *testing.T) {
	assert.Equal(t, []float64{12, 0.5, 6}, Values(ina226Sample()))
	assert.Equal(t, []float64{24.5, -1.25, 30.5, 2, -0.5}, Values(ina228Sample()))
	assert.Equal(t, []float64{0, 0, 0}, Values(ina.Sample{Model: ina.ModelINA226}))
}

func TestCSV_Lines(t *testing.T) {
	var buf bytes.Buffer
	c := NewCSV(&buf)
	require.NoError(t, c.Write(context.Background(), ina226Sample()))
	require.NoError(t, c.Write(context.Background(), ina228Sample()))
	require.NoError(t, c.Close())

	assert.Equal(t,
		"2026-10-18 14:03:07,12.000000,0.500000,6.000000\n"+
			"2026-10-18 14:03:07,24.500000,-1.250000,30.500000,2.000000,-0.500000\n",
		buf.String())
}

func TestOpenFile_Appends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "power.csv")
	require.NoError(t, os.WriteFile(path, []byte("previous\n"), 0o644))

	c, err := OpenFile(path)
	require.NoError(t, err)
	require.NoError(t, c.Write(context.Background(), ina226Sample()))
	require.NoError(t, c.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "previous\n2026-10-18 14:03:07,12.000000,0.500000,6.000000\n", string(data))
}

func TestOpenFile_Error(t *testing.T) {
	_, err := OpenFile(filepath.Join(t.TempDir(), "missing", "power.csv"))
	assert.Error(t, err)
}

func TestConsole(t *testing.T) {
	var buf bytes.Buffer
	c := NewConsole(&buf)
	require.NoError(t, c.Write(context.Background(), ina226Sample()))
	require.NoError(t, c.Write(context.Background(), ina228Sample()))
	assert.Equal(t,
		"Voltage = 12.00 V Current = 0.50 A Power   = 6.00 W\n"+
			"Voltage = 24.50 V Current = -1.25 A Power   = 30.50 W Energy = 2.0000 Wh Charge = -0.5000 Ah Die = 31.5 °C\n",
		buf.String())
}

type mockRegisterWriter struct {
	mock.Mock
}

func (m *mockRegisterWriter) WriteMultipleRegisters(address, quantity uint16, value []byte) ([]byte, error) {
	args := m.Called(address, quantity, value)
	return nil, args.Error(0)
}

func TestModbus_Write(t *testing.T) {
	w := &mockRegisterWriter{}
	w.On("WriteMultipleRegisters", uint16(100), uint16(6), mock.Anything).Return(nil).Once()
	m := &Modbus{client: w, register: 100}

	require.NoError(t, m.Write(context.Background(), ina226Sample()))
	w.AssertExpectations(t)

	payload := w.Calls[0].Arguments.Get(2).([]byte)
	require.Len(t, payload, 12)
	assert.Equal(t, []byte{0x41, 0x40, 0x00, 0x00}, payload[:4])
	assert.Equal(t, float32(0.5), math.Float32frombits(binary.BigEndian.Uint32(payload[4:8])))
	assert.NoError(t, m.Close())
}

func TestModbus_WriteError(t *testing.T) {
	w := &mockRegisterWriter{}
	w.On("WriteMultipleRegisters", mock.Anything, mock.Anything, mock.Anything).Return(errors.New("exception 2"))
	m := &Modbus{client: w}
	err := m.Write(context.Background(), ina228Sample())
	assert.ErrorContains(t, err, "exception 2")
	w.AssertCalled(t, "WriteMultipleRegisters", uint16(0), uint16(10), mock.Anything)
}

func TestPackFloats(t *testing.T) {
	out := packFloats([]float64{1, -2.5, 0})
	assert.Equal(t, []byte{
		0x3F, 0x80, 0x00, 0x00,
		0xC0, 0x20, 0x00, 0x00,
		0x00, 0x00, 0x00, 0x00,
	}, out)
}

func TestDialModbus_RequiresEndpoint(t *testing.T) {
	_, err := DialModbus(ModbusConfig{})
	assert.Error(t, err)
}
