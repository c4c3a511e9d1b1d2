package ina

import (
	"context"
	"fmt"
)

// SampleBehaviorFunc produces the readings of one poll cycle.
type SampleBehaviorFunc func(ctx context.Context) ([]Reading, error)

// MockMonitor is a Monitor that uses a behavior function to produce readings
// without requiring any hardware. Single quantity reads call the behavior and
// pick the requested quantity out of its result.
//
// Example usage:
//
//	mon := NewMockMonitor(ModelINA226, func(ctx context.Context) ([]Reading, error) {
//		return []Reading{
//			{Quantity: BusVoltage, Value: 12.1, Unit: Volts},
//			{Quantity: Current, Value: 0.5, Unit: Amps},
//			{Quantity: Power, Value: 6.05, Unit: Watts},
//		}, nil
//	})
type MockMonitor struct {
	model    Model
	behavior SampleBehaviorFunc
	// InitErr is returned by Init.
	InitErr error
	// Resets counts ResetAccumulators calls.
	Resets int
}

func NewMockMonitor(model Model, behavior SampleBehaviorFunc) *MockMonitor {
	return &MockMonitor{model: model, behavior: behavior}
}

func (m *MockMonitor) Model() Model {
	return m.model
}

func (m *MockMonitor) Init(ctx context.Context) error {
	return m.InitErr
}

func (m *MockMonitor) Identify(ctx context.Context) (Identity, error) {
	die := uint16(ina226DieID)
	if m.model == ModelINA228 {
		die = ina228DieID
	}
	return Identity{Manufacturer: TIManufacturerID, Device: die << 4}, nil
}

func (m *MockMonitor) BusVoltage(ctx context.Context) (Reading, error) {
	return m.get(ctx, BusVoltage)
}

func (m *MockMonitor) ShuntVoltage(ctx context.Context) (Reading, error) {
	return m.get(ctx, ShuntVoltage)
}

func (m *MockMonitor) Current(ctx context.Context) (Reading, error) {
	return m.get(ctx, Current)
}

func (m *MockMonitor) Power(ctx context.Context) (Reading, error) {
	return m.get(ctx, Power)
}

func (m *MockMonitor) Energy(ctx context.Context) (Reading, error) {
	return m.get(ctx, Energy)
}

func (m *MockMonitor) Charge(ctx context.Context) (Reading, error) {
	return m.get(ctx, Charge)
}

func (m *MockMonitor) ResetAccumulators(ctx context.Context) error {
	m.Resets++
	return nil
}

func (m *MockMonitor) Sample(ctx context.Context) (Sample, error) {
	readings, err := m.behavior(ctx)
	if err != nil {
		return Sample{}, err
	}
	return Sample{Model: m.model, At: now(), Readings: readings}, nil
}

func (m *MockMonitor) get(ctx context.Context, q Quantity) (Reading, error) {
	s, err := m.Sample(ctx)
	if err != nil {
		return Reading{}, err
	}
	r, ok := s.Get(q)
	if !ok {
		return Reading{}, fmt.Errorf("mock %s: no %s reading", m.model, q)
	}
	return r, nil
}
