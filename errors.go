package powermon

import (
	"errors"
	"fmt"
)

var ErrBusBusy = fmt.Errorf("I2C engine is busy (command not completed)")

var (
	// ErrDeviceOpen is returned when the bus device can not be opened for read/write.
	ErrDeviceOpen = errors.New("could not open bus device")
	// ErrTransport matches every *TransportError.
	ErrTransport = errors.New("bus transaction failed")
	// ErrConfig marks invalid user supplied configuration.
	ErrConfig = errors.New("invalid configuration")
)

// TransportError describes a failed register transaction.
type TransportError struct {
	Op   string
	Addr byte
	Reg  byte
	Err  error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s (addr %#02x, reg %#02x): %v", e.Op, e.Addr, e.Reg, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

func (e *TransportError) Is(target error) bool {
	return target == ErrTransport
}
