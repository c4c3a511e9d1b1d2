package monitor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/mklimuk/powermon/ina"
)

// Sink receives every successful sample.
type Sink interface {
	Write(ctx context.Context, s ina.Sample) error
}

type Config struct {
	Interval time.Duration
	// Reset runs the device init sequence (reset and calibration) before
	// the first poll. Without it a configured device keeps its accumulators.
	Reset bool
}

// Poller reads one device on a fixed interval. Polls never overlap and are
// never retried.
type Poller struct {
	cfg   Config
	mon   ina.Monitor
	sinks []Sink
}

func New(cfg Config, mon ina.Monitor, sinks ...Sink) (*Poller, error) {
	if mon == nil {
		return nil, errors.New("poller: monitor required")
	}
	if cfg.Interval <= 0 {
		return nil, errors.New("poller: interval must be > 0")
	}
	return &Poller{cfg: cfg, mon: mon, sinks: sinks}, nil
}

// PollOnce takes one sample and hands it to every sink. Any failure aborts
// the cycle.
func (p *Poller) PollOnce(ctx context.Context) (ina.Sample, error) {
	s, err := p.mon.Sample(ctx)
	if err != nil {
		return ina.Sample{}, fmt.Errorf("poll %s: %w", p.mon.Model(), err)
	}
	for _, sink := range p.sinks {
		if err := sink.Write(ctx, s); err != nil {
			return s, fmt.Errorf("sink: %w", err)
		}
	}
	return s, nil
}

// Run polls immediately and then on every tick. It returns nil when ctx is
// cancelled and the first error otherwise.
func (p *Poller) Run(ctx context.Context) error {
	if p.cfg.Reset {
		if err := p.mon.Init(ctx); err != nil {
			return fmt.Errorf("init %s: %w", p.mon.Model(), err)
		}
		slog.Info("device initialized", "model", p.mon.Model())
	}
	if _, err := p.PollOnce(ctx); err != nil {
		return err
	}
	ticker := time.NewTicker(p.cfg.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if _, err := p.PollOnce(ctx); err != nil {
				return err
			}
		}
	}
}
