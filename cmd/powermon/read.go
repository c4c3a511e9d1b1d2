package main

import (
	"github.com/mklimuk/powermon/cmd/powermon/console"
	"github.com/mklimuk/powermon/ina"
	"github.com/urfave/cli/v2"
)

var readCmd = cli.Command{
	Name:  "read",
	Usage: "take a single sample",
	Flags: append([]cli.Flag{
		&cli.BoolFlag{Name: "reset", Aliases: []string{"r"}, Usage: "reset and calibrate the device before reading"},
	}, deviceFlags...),
	Action: func(c *cli.Context) error {
		cfg, err := loadConfig(c)
		if err != nil {
			return console.Fail("invalid configuration", err)
		}
		ctx := commandContext(c)
		mon, release, err := openMonitor(cfg)
		if err != nil {
			return console.Fail("could not open device", err)
		}
		defer release()
		if cfg.Reset {
			if err := mon.Init(ctx); err != nil {
				return console.Fail("could not initialize device", err)
			}
		}
		s, err := mon.Sample(ctx)
		if err != nil {
			return console.Fail("could not read device", err)
		}
		for _, r := range s.Readings {
			console.PInfof(picto(r.Quantity), "%-15s %s", r.Quantity, console.White(r))
			switch r.Quantity {
			case ina.Energy:
				console.PInfof(picto(r.Quantity), "%-15s %s", "", console.White(fmtFloat(r.WattHours(), "Wh")))
			case ina.Charge:
				console.PInfof(picto(r.Quantity), "%-15s %s", "", console.White(fmtFloat(r.AmpHours(), "Ah")))
			}
		}
		return nil
	},
}

func picto(q ina.Quantity) string {
	switch q {
	case ina.Energy, ina.Charge:
		return console.PictoBattery
	case ina.DieTemperature:
		return console.PictoThermometer
	case ina.BusVoltage, ina.ShuntVoltage:
		return console.PictoPlug
	default:
		return console.PictoBolt
	}
}
