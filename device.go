package powermon

import (
	"context"
	"encoding/binary"
	"fmt"
)

// Device binds a bus to a single target address. It carries no state of its own
// and is cheap to copy.
type Device struct {
	Bus  I2CBus
	Addr byte
}

func NewDevice(bus I2CBus, addr byte) Device {
	return Device{Bus: bus, Addr: addr}
}

// WriteRegister16 writes the register selector followed by value, MSB first,
// in a single write transaction.
func (d Device) WriteRegister16(ctx context.Context, reg byte, value uint16) error {
	buf := []byte{reg, 0, 0}
	binary.BigEndian.PutUint16(buf[1:], value)
	err := d.Bus.WriteToAddr(ctx, d.Addr, buf)
	if err != nil {
		return &TransportError{Op: "write register", Addr: d.Addr, Reg: reg, Err: err}
	}
	return nil
}

// ReadRegister16 reads a 16 bit register and returns it in host order.
func (d Device) ReadRegister16(ctx context.Context, reg byte) (uint16, error) {
	buf, err := d.ReadRegisterBytes(ctx, reg, 2)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(buf), nil
}

// ReadRegisterBytes reads n bytes of register content exactly as they come off
// the wire (most significant byte first).
func (d Device) ReadRegisterBytes(ctx context.Context, reg byte, n int) ([]byte, error) {
	if n <= 0 {
		return nil, fmt.Errorf("invalid register read length %d", n)
	}
	buf := make([]byte, n)
	if rr, ok := d.Bus.(RegisterReader); ok {
		if err := rr.ReadRegister(ctx, d.Addr, reg, buf); err != nil {
			return nil, &TransportError{Op: "read register", Addr: d.Addr, Reg: reg, Err: err}
		}
		return buf, nil
	}
	// bus without combined transactions: set the register pointer, then read
	if err := d.Bus.WriteToAddr(ctx, d.Addr, []byte{reg}); err != nil {
		return nil, &TransportError{Op: "set register pointer", Addr: d.Addr, Reg: reg, Err: err}
	}
	if err := d.Bus.ReadFromAddr(ctx, d.Addr, buf); err != nil {
		return nil, &TransportError{Op: "read register", Addr: d.Addr, Reg: reg, Err: err}
	}
	return buf, nil
}
