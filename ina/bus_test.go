package ina

import (
	"context"
	"errors"
	"sync"

	"github.com/stretchr/testify/mock"
)

// MockI2CBus is a mock implementation of powermon.I2CBus using testify/mock.
// It has no combined register read so drivers fall back to pointer write then read.
type MockI2CBus struct {
	mock.Mock
}

func (m *MockI2CBus) WriteToAddr(ctx context.Context, address byte, buffer []byte) error {
	args := m.Called(ctx, address, buffer)
	return args.Error(0)
}

func (m *MockI2CBus) ReadFromAddr(ctx context.Context, address byte, buffer []byte) error {
	args := m.Called(ctx, address, buffer)
	if data, ok := args.Get(0).([]byte); ok && len(data) <= len(buffer) {
		copy(buffer, data)
	}
	return args.Error(1)
}

func (m *MockI2CBus) Release(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// registerBus serves register content from a map through combined reads.
type registerBus struct {
	mu     sync.Mutex
	regs   map[byte][]byte
	writes [][]byte
	err    error
}

func newRegisterBus(regs map[byte][]byte) *registerBus {
	return &registerBus{regs: regs}
}

func (b *registerBus) ReadRegister(ctx context.Context, address byte, register byte, buffer []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.err != nil {
		return b.err
	}
	data, ok := b.regs[register]
	if !ok {
		return errors.New("nack")
	}
	copy(buffer, data)
	return nil
}

func (b *registerBus) ReadFromAddr(ctx context.Context, address byte, buffer []byte) error {
	return errors.New("plain reads are not expected")
}

func (b *registerBus) WriteToAddr(ctx context.Context, address byte, buffer []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.err != nil {
		return b.err
	}
	b.writes = append(b.writes, append([]byte(nil), buffer...))
	return nil
}

func (b *registerBus) Release(ctx context.Context) error {
	return nil
}
