package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mklimuk/powermon"
	"github.com/mklimuk/powermon/adapter"
	"github.com/mklimuk/powermon/config"
	"github.com/mklimuk/powermon/i2c"
	"github.com/mklimuk/powermon/ina"
	"github.com/mklimuk/powermon/monctx"
	"github.com/urfave/cli/v2"
)

// deviceFlags select and configure the monitored chip. They override the
// configuration file.
var deviceFlags = []cli.Flag{
	&cli.StringFlag{Name: "model", Aliases: []string{"m"}, Usage: "chip model (ina226|ina228)"},
	&cli.StringFlag{Name: "adapter", Usage: "bus adapter (generic|mcp2221|gobot)"},
	&cli.StringFlag{Name: "device", Aliases: []string{"d"}, Usage: "i2c-dev bus path for the generic adapter"},
	&cli.IntFlag{Name: "bus", Usage: "bus number for the gobot adapter"},
	&cli.StringFlag{Name: "address", Aliases: []string{"a"}, Usage: "7 bit device address in hex"},
	&cli.Float64Flag{Name: "current-lsb", Usage: "current LSB in A"},
	&cli.Float64Flag{Name: "shunt", Usage: "shunt resistance in Ω"},
	&cli.Float64Flag{Name: "max-current", Usage: "maximum expected current in A"},
	&cli.IntFlag{Name: "adc-range", Usage: "INA228 shunt range (0: ±163.84 mV, 1: ±40.96 mV)"},
	&cli.StringFlag{Name: "adc-config", Usage: "ADC configuration register value in hex"},
	&cli.BoolFlag{Name: "no-verify", Usage: "skip manufacturer and device ID verification"},
}

func loadConfig(c *cli.Context) (*config.Config, error) {
	cfg := config.Default()
	if path := c.String("config"); path != "" {
		var err error
		if cfg, err = config.Load(path); err != nil {
			return nil, err
		}
	}
	if c.IsSet("model") {
		cfg.Model = c.String("model")
	}
	if c.IsSet("adapter") {
		cfg.Adapter = c.String("adapter")
	}
	if c.IsSet("device") {
		cfg.Device = c.String("device")
	}
	if c.IsSet("bus") {
		cfg.Bus = c.Int("bus")
	}
	if c.IsSet("address") {
		cfg.Address = c.String("address")
	}
	if c.IsSet("current-lsb") {
		cfg.Calibration.CurrentLSB = c.Float64("current-lsb")
	}
	if c.IsSet("shunt") {
		cfg.Calibration.ShuntResistance = c.Float64("shunt")
	}
	if c.IsSet("max-current") {
		cfg.Calibration.MaxCurrent = c.Float64("max-current")
	}
	if c.IsSet("adc-range") {
		cfg.Calibration.ADCRange = c.Int("adc-range")
	}
	if c.IsSet("adc-config") {
		cfg.ADCConfig = c.String("adc-config")
	}
	if c.IsSet("no-verify") {
		cfg.NoVerify = c.Bool("no-verify")
	}
	if c.IsSet("log") {
		cfg.Log = c.String("log")
	}
	if c.IsSet("interval") {
		cfg.Interval = c.Duration("interval")
	}
	if c.IsSet("reset") {
		cfg.Reset = c.Bool("reset")
	}
	if c.IsSet("modbus") {
		cfg.Modbus.Endpoint = c.String("modbus")
	}
	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func commandContext(c *cli.Context) context.Context {
	return monctx.SetVerbose(c.Context, c.Bool("verbose"))
}

// openBus returns the configured bus and a function releasing it.
func openBus(cfg *config.Config) (powermon.I2CBus, func(), error) {
	switch cfg.Adapter {
	case config.AdapterMCP2221:
		return adapter.NewMCP2221(), func() {}, nil
	case config.AdapterGobot:
		bus, err := i2c.NewGobotBus(cfg.Bus)
		if err != nil {
			return nil, nil, err
		}
		return bus, closeWithLog(bus.Close), nil
	default:
		bus, err := i2c.NewGenericBus(cfg.Device)
		if err != nil {
			return nil, nil, err
		}
		return bus, closeWithLog(bus.Close), nil
	}
}

func closeWithLog(closeFn func() error) func() {
	return func() {
		if err := closeFn(); err != nil {
			slog.Warn("error closing bus", "error", err)
		}
	}
}

// openMonitor opens the bus and builds the driver described by cfg.
func openMonitor(cfg *config.Config) (ina.Monitor, func(), error) {
	bus, release, err := openBus(cfg)
	if err != nil {
		return nil, nil, err
	}
	mon, err := ina.New(cfg.MonitorModel(), powermon.NewDevice(bus, cfg.Addr()), cfg.Options()...)
	if err != nil {
		release()
		return nil, nil, err
	}
	slog.Debug("monitor ready", "model", mon.Model(), "adapter", cfg.Adapter, "address", fmt.Sprintf("%#02x", cfg.Addr()))
	return mon, release, nil
}
