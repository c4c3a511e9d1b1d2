package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/mklimuk/powermon/cmd/powermon/console"
	"github.com/mklimuk/powermon/config"
	"github.com/mklimuk/powermon/monitor"
	"github.com/mklimuk/powermon/sink"
	"github.com/urfave/cli/v2"
)

var monitorCmd = cli.Command{
	Name:    "monitor",
	Aliases: []string{"mon"},
	Usage:   "poll the device and log readings",
	Flags: append([]cli.Flag{
		&cli.StringFlag{Name: "log", Aliases: []string{"l"}, Usage: "CSV file readings are appended to"},
		&cli.DurationFlag{Name: "interval", Aliases: []string{"i"}, Usage: "polling interval", Value: config.Default().Interval},
		&cli.BoolFlag{Name: "reset", Aliases: []string{"r"}, Usage: "reset and calibrate the device before polling"},
		&cli.StringFlag{Name: "modbus", Usage: "export readings to a Modbus TCP endpoint (host:port)"},
	}, deviceFlags...),
	Action: func(c *cli.Context) error {
		cfg, err := loadConfig(c)
		if err != nil {
			return console.Fail("invalid configuration", err)
		}
		ctx, stop := signal.NotifyContext(commandContext(c), os.Interrupt, syscall.SIGTERM)
		defer stop()

		mon, release, err := openMonitor(cfg)
		if err != nil {
			return console.Fail("could not open device", err)
		}
		defer release()

		sinks := []monitor.Sink{sink.NewConsole(console.Writer())}
		if cfg.Log != "" {
			csv, err := sink.OpenFile(cfg.Log)
			if err != nil {
				return console.Fail("could not open log file", err)
			}
			defer func() {
				if err := csv.Close(); err != nil {
					console.Errorf("error closing log file: %s", console.Red(err))
				}
			}()
			sinks = append(sinks, csv)
		}
		if cfg.Modbus.Endpoint != "" {
			endpoint, err := config.ModbusAddress(cfg.Modbus.Endpoint)
			if err != nil {
				return console.Fail("invalid modbus endpoint", err)
			}
			mb, err := sink.DialModbus(sink.ModbusConfig{
				Endpoint: endpoint,
				SlaveID:  cfg.Modbus.SlaveID,
				Register: cfg.Modbus.Register,
				Timeout:  cfg.Modbus.Timeout,
			})
			if err != nil {
				return console.Fail("could not connect modbus export", err)
			}
			defer func() {
				_ = mb.Close()
			}()
			sinks = append(sinks, mb)
		}

		p, err := monitor.New(monitor.Config{Interval: cfg.Interval, Reset: cfg.Reset}, mon, sinks...)
		if err != nil {
			return console.Fail("could not start monitor", err)
		}
		console.PInfof(console.PictoPlug, "monitoring %s at %#02x every %s", mon.Model(), cfg.Addr(), cfg.Interval)
		err = p.Run(ctx)
		if err != nil && !errors.Is(err, context.Canceled) {
			return console.Fail("monitoring stopped", err)
		}
		slog.Debug("monitor stopped")
		console.PInfof(console.PictoFinish, "done")
		return nil
	},
}
