package powermon

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockI2CBus struct {
	mock.Mock
}

func (m *MockI2CBus) WriteToAddr(ctx context.Context, address byte, buffer []byte) error {
	args := m.Called(ctx, address, buffer)
	return args.Error(0)
}

func (m *MockI2CBus) ReadFromAddr(ctx context.Context, address byte, buffer []byte) error {
	args := m.Called(ctx, address, buffer)
	if data, ok := args.Get(0).([]byte); ok {
		copy(buffer, data)
	}
	return args.Error(1)
}

func (m *MockI2CBus) Release(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

// MockRegisterBus adds combined register reads.
type MockRegisterBus struct {
	MockI2CBus
}

func (m *MockRegisterBus) ReadRegister(ctx context.Context, address byte, register byte, buffer []byte) error {
	args := m.Called(ctx, address, register, buffer)
	if data, ok := args.Get(0).([]byte); ok {
		copy(buffer, data)
	}
	return args.Error(1)
}

func TestDevice_WriteRegister16(t *testing.T) {
	bus := &MockI2CBus{}
	bus.On("WriteToAddr", mock.Anything, byte(0x40), []byte{0x02, 0x04, 0x00}).Return(nil)
	dev := NewDevice(bus, 0x40)
	require.NoError(t, dev.WriteRegister16(context.Background(), 0x02, 1024))
	bus.AssertExpectations(t)
}

func TestDevice_ReadRegisterFallback(t *testing.T) {
	bus := &MockI2CBus{}
	bus.On("WriteToAddr", mock.Anything, byte(0x41), []byte{0x05}).Return(nil)
	bus.On("ReadFromAddr", mock.Anything, byte(0x41), mock.Anything).Return([]byte{0x12, 0x34, 0x56}, nil)
	dev := NewDevice(bus, 0x41)

	raw, err := dev.ReadRegisterBytes(context.Background(), 0x05, 3)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x12, 0x34, 0x56}, raw)
	bus.AssertExpectations(t)
}

func TestDevice_ReadRegisterCombined(t *testing.T) {
	bus := &MockRegisterBus{}
	bus.On("ReadRegister", mock.Anything, byte(0x40), byte(0x3E), mock.Anything).Return([]byte{0x54, 0x49}, nil)
	dev := NewDevice(bus, 0x40)

	v, err := dev.ReadRegister16(context.Background(), 0x3E)
	require.NoError(t, err)
	assert.Equal(t, uint16(0x5449), v)
	bus.AssertNotCalled(t, "WriteToAddr", mock.Anything, mock.Anything, mock.Anything)
}

func TestDevice_TransportErrors(t *testing.T) {
	cause := errors.New("nack")
	tests := []struct {
		name  string
		setup func(*MockI2CBus)
		call  func(Device) error
		op    string
	}{
		{
			name:  "write",
			setup: func(b *MockI2CBus) { b.On("WriteToAddr", mock.Anything, mock.Anything, mock.Anything).Return(cause) },
			call:  func(d Device) error { return d.WriteRegister16(context.Background(), 0x00, 0x8000) },
			op:    "write register",
		},
		{
			name:  "pointer",
			setup: func(b *MockI2CBus) { b.On("WriteToAddr", mock.Anything, mock.Anything, mock.Anything).Return(cause) },
			call: func(d Device) error {
				_, err := d.ReadRegister16(context.Background(), 0x00)
				return err
			},
			op: "set register pointer",
		},
		{
			name: "read",
			setup: func(b *MockI2CBus) {
				b.On("WriteToAddr", mock.Anything, mock.Anything, mock.Anything).Return(nil)
				b.On("ReadFromAddr", mock.Anything, mock.Anything, mock.Anything).Return(nil, cause)
			},
			call: func(d Device) error {
				_, err := d.ReadRegisterBytes(context.Background(), 0x00, 5)
				return err
			},
			op: "read register",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bus := &MockI2CBus{}
			tt.setup(bus)
			err := tt.call(NewDevice(bus, 0x40))
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrTransport)
			assert.ErrorIs(t, err, cause)
			var te *TransportError
			require.ErrorAs(t, err, &te)
			assert.Equal(t, tt.op, te.Op)
			assert.Equal(t, byte(0x40), te.Addr)
		})
	}
}

func TestDevice_InvalidLength(t *testing.T) {
	_, err := NewDevice(&MockI2CBus{}, 0x40).ReadRegisterBytes(context.Background(), 0x00, 0)
	assert.Error(t, err)
}

func TestTransportError_Message(t *testing.T) {
	err := &TransportError{Op: "read register", Addr: 0x40, Reg: 0x05, Err: errors.New("nack")}
	assert.Equal(t, "read register (addr 0x40, reg 0x05): nack", err.Error())
}
