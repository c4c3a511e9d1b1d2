package powermon

import (
	"context"
)

type AddressableReader interface {
	ReadFromAddr(ctx context.Context, address byte, buffer []byte) error
}

type AddressableWriter interface {
	WriteToAddr(ctx context.Context, address byte, buffer []byte) error
	Release(ctx context.Context) error
}

// RegisterReader is implemented by buses able to write a register pointer and
// read the register content in one transaction (repeated START, no STOP in between).
type RegisterReader interface {
	ReadRegister(ctx context.Context, address byte, register byte, buffer []byte) error
}

type I2CBus interface {
	AddressableReader
	AddressableWriter
}
