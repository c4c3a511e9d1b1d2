package sink

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/goburrow/modbus"
	"github.com/mklimuk/powermon/ina"
)

// registerWriter is the part of modbus.Client used by the export.
type registerWriter interface {
	WriteMultipleRegisters(address, quantity uint16, value []byte) ([]byte, error)
}

type ModbusConfig struct {
	Endpoint string
	SlaveID  byte
	// Register is the first holding register written.
	Register uint16
	Timeout  time.Duration
}

// Modbus exports Values as consecutive big-endian float32 holding register
// pairs.
type Modbus struct {
	mu       sync.Mutex
	handler  *modbus.TCPClientHandler
	client   registerWriter
	register uint16
}

func DialModbus(cfg ModbusConfig) (*Modbus, error) {
	if cfg.Endpoint == "" {
		return nil, errors.New("modbus: endpoint required")
	}
	h := modbus.NewTCPClientHandler(cfg.Endpoint)
	h.Timeout = cfg.Timeout
	h.SlaveId = cfg.SlaveID
	if err := h.Connect(); err != nil {
		return nil, fmt.Errorf("modbus: connect %s: %w", cfg.Endpoint, err)
	}
	return &Modbus{
		handler:  h,
		client:   modbus.NewClient(h),
		register: cfg.Register,
	}, nil
}

func (m *Modbus) Write(ctx context.Context, s ina.Sample) error {
	payload := packFloats(Values(s))
	m.mu.Lock()
	defer m.mu.Unlock()
	_, err := m.client.WriteMultipleRegisters(m.register, uint16(len(payload)/2), payload)
	if err != nil {
		return fmt.Errorf("modbus: write %d registers at %d: %w", len(payload)/2, m.register, err)
	}
	return nil
}

func (m *Modbus) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.handler == nil {
		return nil
	}
	return m.handler.Close()
}

func packFloats(values []float64) []byte {
	out := make([]byte, len(values)*4)
	for i, v := range values {
		binary.BigEndian.PutUint32(out[4*i:], math.Float32bits(float32(v)))
	}
	return out
}
