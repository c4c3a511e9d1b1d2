package main

import (
	"fmt"

	"github.com/mklimuk/powermon/cmd/powermon/console"
	"github.com/mklimuk/powermon/ina"
	"github.com/urfave/cli/v2"
)

var infoCmd = cli.Command{
	Name:  "info",
	Usage: "print device identity and calibration",
	Flags: deviceFlags,
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
		id, err := mon.Identify(ctx)
		if err != nil {
			return console.Fail("could not identify device", err)
		}
		console.PInfof(console.PictoChip, "%s at %#02x", mon.Model(), cfg.Addr())
		console.Printf("manufacturer  %s\n", console.White(fmt.Sprintf("%#04x", id.Manufacturer)))
		console.Printf("device        %s (revision %d)\n", console.White(fmt.Sprintf("%#03x", id.Die())), id.Revision())
		if id.Manufacturer != ina.TIManufacturerID {
			console.Warnf("unexpected manufacturer id %#04x", id.Manufacturer)
		}
		if cal, ok := mon.(interface{ Calibration() ina.Calibration }); ok {
			v := cal.Calibration()
			console.Printf("current LSB   %s\n", console.White(fmtFloat(v.CurrentLSB, "A")))
			console.Printf("shunt         %s\n", console.White(fmtFloat(v.ShuntResistance, "Ω")))
			console.Printf("shunt cal     %s\n", console.White(fmt.Sprintf("%#04x", v.ShuntCal)))
			if mon.Model() == ina.ModelINA228 {
				console.Printf("adc range     %d\n", v.ADCRange)
			}
		}
		return nil
	},
}

func fmtFloat(v float64, unit string) string {
	return fmt.Sprintf("%g %s", v, unit)
}
