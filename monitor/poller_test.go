package monitor

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/mklimuk/powermon"
	"github.com/mklimuk/powermon/ina"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSink struct {
	mu      sync.Mutex
	samples []ina.Sample
	err     error
}

func (r *recordingSink) Write(ctx context.Context, s ina.Sample) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.samples = append(r.samples, s)
	return nil
}

func (r *recordingSink) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.samples)
}

func staticReadings(ctx context.Context) ([]ina.Reading, error) {
	return []ina.Reading{
		{Quantity: ina.BusVoltage, Value: 12, Unit: ina.Volts},
		{Quantity: ina.Current, Value: 0.5, Unit: ina.Amps},
		{Quantity: ina.Power, Value: 6, Unit: ina.Watts},
	}, nil
}

func TestNew_Validation(t *testing.T) {
	mon := ina.NewMockMonitor(ina.ModelINA226, staticReadings)
	_, err := New(Config{}, mon)
	assert.Error(t, err)
	_, err = New(Config{Interval: time.Second}, nil)
	assert.Error(t, err)
	_, err = New(Config{Interval: time.Second}, mon)
	assert.NoError(t, err)
}

func TestPollOnce_FansOut(t *testing.T) {
	a, b := &recordingSink{}, &recordingSink{}
	p, err := New(Config{Interval: time.Second}, ina.NewMockMonitor(ina.ModelINA226, staticReadings), a, b)
	require.NoError(t, err)

	s, err := p.PollOnce(context.Background())
	require.NoError(t, err)
	assert.Len(t, s.Readings, 3)
	assert.Equal(t, 1, a.count())
	assert.Equal(t, 1, b.count())
}

func TestPollOnce_SinkError(t *testing.T) {
	a, b := &recordingSink{err: errors.New("disk full")}, &recordingSink{}
	p, err := New(Config{Interval: time.Second}, ina.NewMockMonitor(ina.ModelINA226, staticReadings), a, b)
	require.NoError(t, err)

	_, err = p.PollOnce(context.Background())
	assert.EqualError(t, err, "sink: disk full")
	assert.Equal(t, 0, b.count())
}

func TestRun_StopsOnFirstError(t *testing.T) {
	calls := 0
	mon := ina.NewMockMonitor(ina.ModelINA228, func(ctx context.Context) ([]ina.Reading, error) {
		calls++
		if calls == 3 {
			return nil, &powermon.TransportError{Op: "read register", Addr: 0x40, Reg: 0x05, Err: errors.New("nack")}
		}
		return staticReadings(ctx)
	})
	sink := &recordingSink{}
	p, err := New(Config{Interval: time.Millisecond}, mon, sink)
	require.NoError(t, err)

	err = p.Run(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, powermon.ErrTransport)
	assert.Equal(t, 3, calls)
	assert.Equal(t, 2, sink.count())
}

func TestRun_Cancel(t *testing.T) {
	sink := &recordingSink{}
	p, err := New(Config{Interval: time.Millisecond}, ina.NewMockMonitor(ina.ModelINA226, staticReadings), sink)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- p.Run(ctx) }()

	require.Eventually(t, func() bool { return sink.count() >= 2 }, time.Second, time.Millisecond)
	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("poller did not stop")
	}
}

func TestRun_ResetInitializesFirst(t *testing.T) {
	mon := ina.NewMockMonitor(ina.ModelINA228, staticReadings)
	mon.InitErr = errors.New("id mismatch")
	sink := &recordingSink{}
	p, err := New(Config{Interval: time.Millisecond, Reset: true}, mon, sink)
	require.NoError(t, err)

	err = p.Run(context.Background())
	assert.ErrorContains(t, err, "init ina228")
	assert.Equal(t, 0, sink.count())
}
