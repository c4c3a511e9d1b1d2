package ina

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mklimuk/powermon"
)

const ina226DieID = 0x226

// INA226 is a 16 bit current and power monitor.
type INA226 struct {
	device
	opts Options
	cal  Calibration
}

func NewINA226(dev powermon.Device, opts ...Option) (*INA226, error) {
	o, cal, err := resolveOptions(ModelINA226, opts)
	if err != nil {
		return nil, err
	}
	return &INA226{
		device: device{dev: dev, model: ModelINA226},
		opts:   o,
		cal:    cal,
	}, nil
}

func (s *INA226) Model() Model {
	return ModelINA226
}

func (s *INA226) Calibration() Calibration {
	return s.cal
}

func (s *INA226) Init(ctx context.Context) error {
	if err := s.write(ctx, RegConfig, configReset); err != nil {
		return fmt.Errorf("could not reset device: %w", err)
	}
	if s.opts.VerifyID {
		id, err := s.identify(ctx)
		if err != nil {
			return err
		}
		if err := s.verify(id, ina226DieID); err != nil {
			return err
		}
	}
	if s.opts.ADCConfig != nil {
		if err := s.write(ctx, RegConfig, *s.opts.ADCConfig); err != nil {
			return err
		}
	}
	if err := s.write(ctx, RegShuntCal, s.cal.ShuntCal); err != nil {
		return err
	}
	slog.Debug("ina226 initialized", "addr", fmt.Sprintf("%#02x", s.dev.Addr), "calibration", s.cal.ShuntCal, "current_lsb", s.cal.CurrentLSB)
	return nil
}

func (s *INA226) Identify(ctx context.Context) (Identity, error) {
	return s.identify(ctx)
}

func (s *INA226) BusVoltage(ctx context.Context) (Reading, error) {
	return s.readScaled(ctx, RegBusVoltage)
}

func (s *INA226) ShuntVoltage(ctx context.Context) (Reading, error) {
	return s.readScaled(ctx, RegShuntVoltage)
}

func (s *INA226) Current(ctx context.Context) (Reading, error) {
	return s.readScaled(ctx, RegCurrent)
}

func (s *INA226) Power(ctx context.Context) (Reading, error) {
	return s.readScaled(ctx, RegPower)
}

func (s *INA226) Sample(ctx context.Context) (Sample, error) {
	return s.sample(ctx, s.BusVoltage, s.Current, s.Power, s.ShuntVoltage)
}

func (s *INA226) readScaled(ctx context.Context, name RegName) (Reading, error) {
	return s.read(ctx, name, mustLookup(ModelINA226, name).LSB(s.cal.CurrentLSB))
}
