package ina

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mklimuk/powermon"
	"github.com/mklimuk/powermon/monctx"
)

var ErrIDMismatch = errors.New("unexpected device identity")

var now = time.Now

type Model uint8

const (
	ModelINA226 Model = iota + 1
	ModelINA228
)

func (m Model) String() string {
	switch m {
	case ModelINA226:
		return "ina226"
	case ModelINA228:
		return "ina228"
	default:
		return fmt.Sprintf("model(%d)", uint8(m))
	}
}

// ParseModel accepts "ina226", "226", "ina228" and "228" in any case.
func ParseModel(s string) (Model, error) {
	switch strings.TrimPrefix(strings.ToLower(strings.TrimSpace(s)), "ina") {
	case "226":
		return ModelINA226, nil
	case "228":
		return ModelINA228, nil
	}
	return 0, fmt.Errorf("%w: unknown model %q", powermon.ErrConfig, s)
}

// Identity is the content of the manufacturer and device ID registers.
type Identity struct {
	Manufacturer uint16
	Device       uint16
}

// Die returns the device ID without the revision nibble.
func (i Identity) Die() uint16 {
	return i.Device >> 4
}

func (i Identity) Revision() uint16 {
	return i.Device & 0x0F
}

// Monitor is the capability set shared by all supported power monitors.
type Monitor interface {
	Model() Model
	Init(ctx context.Context) error
	Identify(ctx context.Context) (Identity, error)
	BusVoltage(ctx context.Context) (Reading, error)
	ShuntVoltage(ctx context.Context) (Reading, error)
	Current(ctx context.Context) (Reading, error)
	Power(ctx context.Context) (Reading, error)
	// Sample reads every quantity the model supports.
	Sample(ctx context.Context) (Sample, error)
}

// Accumulator is implemented by monitors with energy and charge accumulation.
type Accumulator interface {
	Energy(ctx context.Context) (Reading, error)
	Charge(ctx context.Context) (Reading, error)
	ResetAccumulators(ctx context.Context) error
}

type Thermometer interface {
	DieTemperature(ctx context.Context) (Reading, error)
}

// New returns the driver for the given model.
func New(m Model, dev powermon.Device, opts ...Option) (Monitor, error) {
	switch m {
	case ModelINA226:
		return NewINA226(dev, opts...)
	case ModelINA228:
		return NewINA228(dev, opts...)
	}
	return nil, fmt.Errorf("%w: unknown model %d", powermon.ErrConfig, m)
}

// Options are shared by all drivers.
type Options struct {
	Calibration *Calibration
	VerifyID    bool
	// ADCConfig is written to ADC_CONFIG on the INA228 and to CONFIG on the
	// INA226 during Init. Left untouched when nil.
	ADCConfig *uint16
}

type Option func(*Options)

func WithCalibration(c Calibration) Option {
	return func(o *Options) {
		o.Calibration = &c
	}
}

// WithIDCheck enables or disables identity verification in Init. Enabled by
// default.
func WithIDCheck(verify bool) Option {
	return func(o *Options) {
		o.VerifyID = verify
	}
}

func WithADCConfig(v uint16) Option {
	return func(o *Options) {
		o.ADCConfig = &v
	}
}

func resolveOptions(m Model, opts []Option) (Options, Calibration, error) {
	o := Options{VerifyID: true}
	for _, opt := range opts {
		opt(&o)
	}
	cal := DefaultCalibration(m)
	if o.Calibration != nil {
		cal = *o.Calibration
	}
	cal, err := cal.Resolve(m)
	if err != nil {
		return o, cal, fmt.Errorf("%s: %w", m, err)
	}
	return o, cal, nil
}

// device wraps register access with descriptor lookups shared by drivers.
type device struct {
	dev   powermon.Device
	model Model
}

func (d device) read(ctx context.Context, name RegName, lsb float64) (Reading, error) {
	reg := mustLookup(d.model, name)
	raw, err := d.dev.ReadRegisterBytes(ctx, reg.Address, reg.Width)
	if err != nil {
		return Reading{}, fmt.Errorf("%s: could not read %s: %w", d.model, reg.Name, err)
	}
	r := reg.Reading(raw, lsb)
	monctx.Tracef(ctx, "%s %s raw=% X value=%s", d.model, reg.Name, raw, r)
	return r, nil
}

func (d device) write(ctx context.Context, name RegName, v uint16) error {
	reg := mustLookup(d.model, name)
	if err := d.dev.WriteRegister16(ctx, reg.Address, v); err != nil {
		return fmt.Errorf("%s: could not write %s: %w", d.model, reg.Name, err)
	}
	return nil
}

func (d device) identify(ctx context.Context) (Identity, error) {
	var id Identity
	var err error
	reg := mustLookup(d.model, RegManufacturerID)
	if id.Manufacturer, err = d.dev.ReadRegister16(ctx, reg.Address); err != nil {
		return id, fmt.Errorf("%s: could not read %s: %w", d.model, reg.Name, err)
	}
	reg = mustLookup(d.model, RegDeviceID)
	if id.Device, err = d.dev.ReadRegister16(ctx, reg.Address); err != nil {
		return id, fmt.Errorf("%s: could not read %s: %w", d.model, reg.Name, err)
	}
	return id, nil
}

func (d device) verify(id Identity, die uint16) error {
	if id.Manufacturer != TIManufacturerID || id.Die() != die {
		return fmt.Errorf("%s: %w: manufacturer %#02x device %#02x", d.model, ErrIDMismatch, id.Manufacturer, id.Device)
	}
	return nil
}

func (d device) sample(ctx context.Context, readers ...func(context.Context) (Reading, error)) (Sample, error) {
	s := Sample{Model: d.model, Readings: make([]Reading, 0, len(readers))}
	for _, read := range readers {
		r, err := read(ctx)
		if err != nil {
			return Sample{}, err
		}
		s.Readings = append(s.Readings, r)
	}
	s.At = now()
	return s, nil
}
