package i2c

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mklimuk/powermon"
	"github.com/mklimuk/powermon/monctx"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/host/v3"
)

var (
	_ powermon.I2CBus         = &GenericBus{}
	_ powermon.RegisterReader = &GenericBus{}
)

// GenericBus is a Linux i2c-dev bus, e.g. /dev/i2c-1.
type GenericBus struct {
	bus i2c.BusCloser
}

// NewGenericBus opens dev. Both full paths and periph bus names ("1",
// "I2C1") are accepted.
func NewGenericBus(dev string) (*GenericBus, error) {
	state, err := host.Init()
	if err != nil {
		return nil, fmt.Errorf("%w: could not init host: %w", powermon.ErrDeviceOpen, err)
	}
	for _, driver := range state.Loaded {
		slog.Debug("periph driver loaded", "driver", driver.String())
	}
	bus, err := i2creg.Open(dev)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", powermon.ErrDeviceOpen, dev, err)
	}
	return &GenericBus{bus: bus}, nil
}

// SetSpeed changes the bus clock. Not every i2c-dev driver supports it.
func (b *GenericBus) SetSpeed(f physic.Frequency) error {
	return b.bus.SetSpeed(f)
}

func (b *GenericBus) ReadFromAddr(ctx context.Context, address byte, buffer []byte) error {
	if err := b.tx(ctx, address, nil, buffer); err != nil {
		return fmt.Errorf("read from %#02x: %w", address, err)
	}
	return nil
}

func (b *GenericBus) WriteToAddr(ctx context.Context, address byte, buffer []byte) error {
	if err := b.tx(ctx, address, buffer, nil); err != nil {
		return fmt.Errorf("write to %#02x: %w", address, err)
	}
	return nil
}

// ReadRegister writes the register pointer and reads buffer back after a
// repeated START.
func (b *GenericBus) ReadRegister(ctx context.Context, address byte, register byte, buffer []byte) error {
	if err := b.tx(ctx, address, []byte{register}, buffer); err != nil {
		return fmt.Errorf("read register %#02x from %#02x: %w", register, address, err)
	}
	return nil
}

func (b *GenericBus) tx(ctx context.Context, address byte, w, r []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := b.bus.Tx(uint16(address), w, r); err != nil {
		return err
	}
	monctx.Tracef(ctx, "%s %#02x tx [% X] rx [% X]", b.bus, address, w, r)
	return nil
}

func (b *GenericBus) Release(ctx context.Context) error {
	return nil
}

func (b *GenericBus) Close() error {
	return b.bus.Close()
}
