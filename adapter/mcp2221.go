package adapter

import (
	"context"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/karalabe/hid"
	"github.com/mklimuk/powermon"
	"github.com/mklimuk/powermon/monctx"
)

const VendorID = 0x04D8
const ProductID = 0x00DD

const (
	cmdStatus         = 0x10
	cmdCancelTransfer = 0x10
	cmdGetData        = 0x40
	cmdWrite          = 0x90
	cmdRead           = 0x91
	cmdReadRepeated   = 0x93
	cmdWriteNoStop    = 0x94

	reportSize = 64
	// payload bytes carried by a single report
	maxTransfer = 60
)

var ErrCommandFailed = errors.New("command failed")

var (
	_ powermon.I2CBus         = &MCP2221{}
	_ powermon.RegisterReader = &MCP2221{}
)

// Transport exchanges one 64 byte HID report pair with the adapter.
type Transport interface {
	Exchange(ctx context.Context, request, response []byte) error
}

// MCP2221 is the Microchip USB to I2C bridge. Transactions are serialized.
type MCP2221 struct {
	mx        sync.Mutex
	request   []byte
	response  []byte
	transport Transport
}

type MCP2221Status struct {
	I2CDataBufferCounter   int    `yaml:"i2c_data_buffer_counter"`
	I2CSpeedDivider        int    `yaml:"i2c_speed_divider"`
	I2CTimeout             int    `yaml:"i2c_timeout"`
	CurrentAddress         string `yaml:"current_address"`
	LastWriteRequestedSize uint16 `yaml:"last_write_requested_size"`
	LastWriteSentSize      uint16 `yaml:"last_write_sent_size"`
	ReadPending            int    `yaml:"read_pending"`
}

type Option func(*MCP2221)

// WithTransport replaces the USB HID transport.
func WithTransport(t Transport) Option {
	return func(d *MCP2221) {
		d.transport = t
	}
}

// WithDevice selects the adapter by enumeration index when several are
// connected.
func WithDevice(index int) Option {
	return func(d *MCP2221) {
		if t, ok := d.transport.(*hidTransport); ok {
			t.index = index
		}
	}
}

func WithResponseWait(wait time.Duration) Option {
	return func(d *MCP2221) {
		if t, ok := d.transport.(*hidTransport); ok {
			t.wait = wait
		}
	}
}

func NewMCP2221(opts ...Option) *MCP2221 {
	d := &MCP2221{
		request:   make([]byte, reportSize),
		response:  make([]byte, reportSize),
		transport: &hidTransport{index: -1, wait: 50 * time.Millisecond},
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func (d *MCP2221) WriteToAddr(ctx context.Context, address byte, buffer []byte) error {
	if len(buffer) > maxTransfer {
		return fmt.Errorf("write to %x: %d bytes exceed report size", address, len(buffer))
	}
	d.mx.Lock()
	defer d.mx.Unlock()
	return d.write(ctx, cmdWrite, address, buffer)
}

func (d *MCP2221) ReadFromAddr(ctx context.Context, address byte, buffer []byte) error {
	if len(buffer) > maxTransfer {
		return fmt.Errorf("read from %x: %d bytes exceed report size", address, len(buffer))
	}
	d.mx.Lock()
	defer d.mx.Unlock()
	return d.read(ctx, cmdRead, address, buffer)
}

// ReadRegister writes the register pointer without STOP and reads buffer
// after a repeated START.
func (d *MCP2221) ReadRegister(ctx context.Context, address byte, register byte, buffer []byte) error {
	if len(buffer) > maxTransfer {
		return fmt.Errorf("read register %#02x from %x: %d bytes exceed report size", register, address, len(buffer))
	}
	d.mx.Lock()
	defer d.mx.Unlock()
	if err := d.write(ctx, cmdWriteNoStop, address, []byte{register}); err != nil {
		return err
	}
	return d.read(ctx, cmdReadRepeated, address, buffer)
}

func (d *MCP2221) write(ctx context.Context, cmd byte, address byte, buffer []byte) error {
	d.resetBuffers()
	d.request[0] = cmd
	binary.LittleEndian.PutUint16(d.request[1:3], uint16(len(buffer)))
	d.request[3] = address << 1
	copy(d.request[4:], buffer)
	err := d.send(ctx)
	if err != nil {
		return fmt.Errorf("write to %x failed: %w", address, err)
	}
	if d.response[1] == 0x01 {
		slog.Debug("mcp2221 busy", "cmd", fmt.Sprintf("%#02x", cmd), "addr", fmt.Sprintf("%#02x", address))
		return powermon.ErrBusBusy
	}
	return nil
}

func (d *MCP2221) read(ctx context.Context, cmd byte, address byte, buffer []byte) error {
	d.resetBuffers()
	d.request[0] = cmd
	binary.LittleEndian.PutUint16(d.request[1:3], uint16(len(buffer)))
	d.request[3] = address<<1 + 1
	err := d.send(ctx)
	if err != nil {
		return fmt.Errorf("bus read from %x failed: %w", address, err)
	}
	if d.response[1] == 0x01 {
		return powermon.ErrBusBusy
	}
	d.resetBuffers()
	d.request[0] = cmdGetData
	err = d.send(ctx)
	if err != nil {
		return fmt.Errorf("error getting read data from adapter: %w", err)
	}
	if d.response[1] == 0x41 {
		return fmt.Errorf("%w: error reading the I2C slave data from the I2C engine", ErrCommandFailed)
	}
	if d.response[3] == 127 || int(d.response[3]) != len(buffer) {
		return fmt.Errorf("invalid data size byte; expected %d, got %d", len(buffer), d.response[3])
	}
	copy(buffer, d.response[4:])
	return nil
}

func (d *MCP2221) Status(ctx context.Context) (*MCP2221Status, error) {
	d.mx.Lock()
	defer d.mx.Unlock()
	d.resetBuffers()
	d.request[0] = cmdStatus
	err := d.send(ctx)
	if err != nil {
		return nil, fmt.Errorf("status request failed: %w", err)
	}
	return bufferToStatus(d.response), nil
}

func bufferToStatus(buffer []byte) *MCP2221Status {
	// 9-10 requested transfer length, 11-12 transferred length, 13 buffer
	// counter, 14 speed divider, 15 timeout, 16-17 address, 25 read pending
	status := &MCP2221Status{
		I2CDataBufferCounter: int(buffer[13]),
		I2CSpeedDivider:      int(buffer[14]),
		I2CTimeout:           int(buffer[15]),
		ReadPending:          int(buffer[25]),
		CurrentAddress:       hex.EncodeToString(buffer[16:18]),
	}
	status.LastWriteRequestedSize = binary.LittleEndian.Uint16(buffer[9:11])
	status.LastWriteSentSize = binary.LittleEndian.Uint16(buffer[11:13])
	return status
}

func (d *MCP2221) Release(ctx context.Context) error {
	_, err := d.ReleaseBus(ctx)
	return err
}

// ReleaseBus cancels the current I2C transfer and frees the bus.
func (d *MCP2221) ReleaseBus(ctx context.Context) (*MCP2221Status, error) {
	d.mx.Lock()
	defer d.mx.Unlock()
	d.resetBuffers()
	d.request[0] = cmdStatus
	d.request[2] = cmdCancelTransfer
	err := d.send(ctx)
	if err != nil {
		return nil, fmt.Errorf("release request failed: %w", err)
	}
	return bufferToStatus(d.response), nil
}

func (d *MCP2221) send(ctx context.Context) error {
	verbose := monctx.IsVerbose(ctx)
	if verbose {
		monctx.Tracef(ctx, "sending message to adapter:\n%s", hex.Dump(d.request))
	}
	if err := d.transport.Exchange(ctx, d.request, d.response); err != nil {
		return err
	}
	if verbose {
		monctx.Tracef(ctx, "read message from adapter:\n%s", hex.Dump(d.response))
	}
	if d.response[0] != d.request[0] {
		return fmt.Errorf("%w: response to %#02x echoes %#02x", ErrCommandFailed, d.request[0], d.response[0])
	}
	return nil
}

func (d *MCP2221) resetBuffers() {
	clear(d.request)
	clear(d.response)
}

// hidTransport opens the adapter for every exchange so that other processes
// can use it in between.
type hidTransport struct {
	index int
	wait  time.Duration
}

func (t *hidTransport) Exchange(ctx context.Context, request, response []byte) error {
	devs := hid.Enumerate(VendorID, ProductID)
	if len(devs) == 0 {
		return fmt.Errorf("%w: MCP2221 device not found", powermon.ErrDeviceOpen)
	}
	info := devs[0]
	switch {
	case t.index >= len(devs):
		return fmt.Errorf("%w: no device with id %d", powermon.ErrDeviceOpen, t.index)
	case t.index >= 0:
		info = devs[t.index]
	case len(devs) > 1:
		return fmt.Errorf("%w: ambiguous device identification", powermon.ErrDeviceOpen)
	}
	dev, err := info.Open()
	if err != nil {
		return fmt.Errorf("%w: error opening device: %w", powermon.ErrDeviceOpen, err)
	}
	defer func() {
		if err := dev.Close(); err != nil {
			slog.Debug("mcp2221 close", "error", err)
		}
	}()
	n, err := dev.Write(request)
	if err != nil {
		return fmt.Errorf("could not write request: %w", err)
	}
	if n != reportSize {
		return fmt.Errorf("short write: %d", n)
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(t.wait):
	}
	n, err = dev.Read(response)
	if err != nil {
		return fmt.Errorf("could not read response: %w", err)
	}
	if n != reportSize {
		return fmt.Errorf("short read: %d", n)
	}
	return nil
}
