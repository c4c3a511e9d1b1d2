package ina

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mklimuk/powermon"
)

const ina228DieID = 0x228

// INA228 is a 20 bit power monitor with energy and charge accumulators.
type INA228 struct {
	device
	opts Options
	cal  Calibration
}

func NewINA228(dev powermon.Device, opts ...Option) (*INA228, error) {
	o, cal, err := resolveOptions(ModelINA228, opts)
	if err != nil {
		return nil, err
	}
	return &INA228{
		device: device{dev: dev, model: ModelINA228},
		opts:   o,
		cal:    cal,
	}, nil
}

func (s *INA228) Model() Model {
	return ModelINA228
}

// Calibration returns the resolved calibration.
func (s *INA228) Calibration() Calibration {
	return s.cal
}

// Init resets the device and programs the shunt calibration. With the
// default options the only bus writes are the reset and SHUNT_CAL.
func (s *INA228) Init(ctx context.Context) error {
	if err := s.write(ctx, RegConfig, configReset); err != nil {
		return fmt.Errorf("could not reset device: %w", err)
	}
	if s.opts.VerifyID {
		id, err := s.identify(ctx)
		if err != nil {
			return err
		}
		if err := s.verify(id, ina228DieID); err != nil {
			return err
		}
		slog.Debug("ina228 identified", "manufacturer", fmt.Sprintf("%#02x", id.Manufacturer), "device", fmt.Sprintf("%#02x", id.Device))
	}
	if s.cal.ADCRange == 1 {
		if err := s.write(ctx, RegConfig, configADCRange); err != nil {
			return err
		}
	}
	if s.opts.ADCConfig != nil {
		if err := s.write(ctx, RegADCConfig, *s.opts.ADCConfig); err != nil {
			return err
		}
	}
	if err := s.write(ctx, RegShuntCal, s.cal.ShuntCal); err != nil {
		return err
	}
	slog.Debug("ina228 initialized", "addr", fmt.Sprintf("%#02x", s.dev.Addr), "shunt_cal", s.cal.ShuntCal, "current_lsb", s.cal.CurrentLSB, "adc_range", s.cal.ADCRange)
	return nil
}

// ResetAccumulators clears ENERGY and CHARGE. ADCRANGE is preserved.
func (s *INA228) ResetAccumulators(ctx context.Context) error {
	v := configResetAcc
	if s.cal.ADCRange == 1 {
		v |= configADCRange
	}
	return s.write(ctx, RegConfig, v)
}

func (s *INA228) Identify(ctx context.Context) (Identity, error) {
	return s.identify(ctx)
}

func (s *INA228) ManufacturerID(ctx context.Context) (uint16, error) {
	id, err := s.identify(ctx)
	return id.Manufacturer, err
}

func (s *INA228) DeviceID(ctx context.Context) (uint16, error) {
	id, err := s.identify(ctx)
	return id.Device, err
}

func (s *INA228) BusVoltage(ctx context.Context) (Reading, error) {
	return s.readScaled(ctx, RegBusVoltage)
}

// ShuntVoltage is reported in millivolts.
func (s *INA228) ShuntVoltage(ctx context.Context) (Reading, error) {
	return s.read(ctx, RegShuntVoltage, ina228ShuntScale[s.cal.ADCRange])
}

func (s *INA228) DieTemperature(ctx context.Context) (Reading, error) {
	return s.readScaled(ctx, RegDieTemp)
}

func (s *INA228) Current(ctx context.Context) (Reading, error) {
	return s.readScaled(ctx, RegCurrent)
}

func (s *INA228) Power(ctx context.Context) (Reading, error) {
	return s.readScaled(ctx, RegPower)
}

// Energy is reported in joules, see Reading.WattHours.
func (s *INA228) Energy(ctx context.Context) (Reading, error) {
	return s.readScaled(ctx, RegEnergy)
}

// Charge is reported in coulombs, see Reading.AmpHours.
func (s *INA228) Charge(ctx context.Context) (Reading, error) {
	return s.readScaled(ctx, RegCharge)
}

// Sample reads bus voltage, current, power, energy, charge, shunt voltage and
// die temperature in that order.
func (s *INA228) Sample(ctx context.Context) (Sample, error) {
	return s.sample(ctx, s.BusVoltage, s.Current, s.Power, s.Energy, s.Charge, s.ShuntVoltage, s.DieTemperature)
}

func (s *INA228) readScaled(ctx context.Context, name RegName) (Reading, error) {
	return s.read(ctx, name, mustLookup(ModelINA228, name).LSB(s.cal.CurrentLSB))
}
