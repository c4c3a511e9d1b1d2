package i2c

import (
	"context"
	"fmt"
	"sync"

	"github.com/mklimuk/powermon"
	"github.com/mklimuk/powermon/monctx"
	gobot "gobot.io/x/gobot/v2/drivers/i2c"
	"gobot.io/x/gobot/v2/platforms/friendlyelec/nanopi"
)

var (
	_ powermon.I2CBus         = &GobotBus{}
	_ powermon.RegisterReader = &GobotBus{}
)

// GobotBus drives a NanoPi NEO I2C bus through gobot. One generic driver is
// started per target address on first use.
type GobotBus struct {
	adaptor  gobot.Connector
	finalize func() error
	bus      int

	mu      sync.Mutex
	drivers map[byte]*gobot.GenericDriver
}

func NewGobotBus(busNr int) (*GobotBus, error) {
	npi := nanopi.NewNeoAdaptor()
	if err := npi.I2cBusAdaptor.Connect(); err != nil {
		return nil, fmt.Errorf("%w: gobot adaptor connect: %w", powermon.ErrDeviceOpen, err)
	}
	return &GobotBus{
		adaptor:  npi,
		finalize: npi.I2cBusAdaptor.Finalize,
		bus:      busNr,
		drivers:  make(map[byte]*gobot.GenericDriver),
	}, nil
}

func (b *GobotBus) driver(address byte) (*gobot.GenericDriver, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if d, ok := b.drivers[address]; ok {
		return d, nil
	}
	d := gobot.NewGenericDriver(b.adaptor, fmt.Sprintf("ina-%#02x", address), int(address), func(c gobot.Config) {
		c.SetBus(b.bus)
	})
	if err := d.Start(); err != nil {
		return nil, fmt.Errorf("start driver for %#02x on bus %d: %w", address, b.bus, err)
	}
	b.drivers[address] = d
	return d, nil
}

func (b *GobotBus) ReadFromAddr(ctx context.Context, address byte, buffer []byte) error {
	d, err := b.driver(address)
	if err != nil {
		return err
	}
	if err := d.Read(buffer); err != nil {
		return fmt.Errorf("could not read from i2c bus %x: %w", address, err)
	}
	return nil
}

func (b *GobotBus) WriteToAddr(ctx context.Context, address byte, buffer []byte) error {
	d, err := b.driver(address)
	if err != nil {
		return err
	}
	monctx.Tracef(ctx, "gobot tx %#02x: % X", address, buffer)
	if err := d.Write(buffer); err != nil {
		return fmt.Errorf("could not write to i2c bus %x: %w", address, err)
	}
	return nil
}

// ReadRegister uses an I2C block read, which keeps the bus between the
// register pointer write and the data read.
func (b *GobotBus) ReadRegister(ctx context.Context, address byte, register byte, buffer []byte) error {
	d, err := b.driver(address)
	if err != nil {
		return err
	}
	if err := d.ReadBlockData(register, buffer); err != nil {
		return fmt.Errorf("could not read register %#02x from i2c bus %x: %w", register, address, err)
	}
	monctx.Tracef(ctx, "gobot reg %#02x/%#02x: % X", address, register, buffer)
	return nil
}

func (b *GobotBus) Release(ctx context.Context) error {
	return nil
}

// Close halts all started drivers and finalizes the adaptor.
func (b *GobotBus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	for addr, d := range b.drivers {
		_ = d.Halt()
		delete(b.drivers, addr)
	}
	return b.finalize()
}
