package main

import (
	"github.com/mklimuk/powermon/cmd/powermon/console"
	"github.com/mklimuk/powermon/ina"
	"github.com/urfave/cli/v2"
)

var resetCmd = cli.Command{
	Name:  "reset",
	Usage: "clear the energy and charge accumulators",
	Flags: append([]cli.Flag{
		&cli.BoolFlag{Name: "yes", Aliases: []string{"y"}, Usage: "do not ask for confirmation"},
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
		acc, ok := mon.(ina.Accumulator)
		if !ok {
			return console.Exit(2, "%s has no accumulators", mon.Model())
		}
		if !c.Bool("yes") {
			ok, err := console.Confirm("Clear energy and charge accumulators?")
			if err != nil {
				return console.Fail("prompt failed", err)
			}
			if !ok {
				console.PInfof(console.PictoStop, "aborted")
				return nil
			}
		}
		if err := acc.ResetAccumulators(ctx); err != nil {
			return console.Fail("could not reset accumulators", err)
		}
		console.PInfof(console.PictoBattery, "accumulators cleared")
		return nil
	},
}
