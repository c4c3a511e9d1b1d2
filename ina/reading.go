package ina

import (
	"fmt"
	"time"
)

type Unit uint8

const (
	Volts Unit = iota
	Millivolts
	Amps
	Watts
	Joules
	Coulombs
	Celsius
)

func (u Unit) String() string {
	switch u {
	case Volts:
		return "V"
	case Millivolts:
		return "mV"
	case Amps:
		return "A"
	case Watts:
		return "W"
	case Joules:
		return "J"
	case Coulombs:
		return "C"
	case Celsius:
		return "°C"
	default:
		return "?"
	}
}

type Quantity uint8

const (
	BusVoltage Quantity = iota
	ShuntVoltage
	Current
	Power
	Energy
	Charge
	DieTemperature
)

func (q Quantity) String() string {
	switch q {
	case BusVoltage:
		return "bus voltage"
	case ShuntVoltage:
		return "shunt voltage"
	case Current:
		return "current"
	case Power:
		return "power"
	case Energy:
		return "energy"
	case Charge:
		return "charge"
	case DieTemperature:
		return "die temperature"
	default:
		return "unknown"
	}
}

// Reading is a single decoded register value.
type Reading struct {
	Quantity Quantity
	Value    float64
	Unit     Unit
}

func (r Reading) String() string {
	return fmt.Sprintf("%.6f %s", r.Value, r.Unit)
}

// WattHours converts an energy reading from joules.
func (r Reading) WattHours() float64 {
	return r.Value / 3600
}

// AmpHours converts a charge reading from coulombs.
func (r Reading) AmpHours() float64 {
	return r.Value / 3600
}

// Sample groups the readings taken during one poll of a device.
type Sample struct {
	Model    Model
	At       time.Time
	Readings []Reading
}

func (s Sample) Get(q Quantity) (Reading, bool) {
	for _, r := range s.Readings {
		if r.Quantity == q {
			return r, true
		}
	}
	return Reading{}, false
}
