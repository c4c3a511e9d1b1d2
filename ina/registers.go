package ina

import (
	"fmt"
	"math"
)

// Register describes how the content of one device register maps to a
// physical quantity.
type Register struct {
	Name    string
	Address byte
	// Width is the number of bytes transferred on the wire.
	Width int
	// Reserved is the number of low bits below the data field.
	Reserved uint
	Signed   bool
	// Scale is the fixed weight of one LSB. When zero the weight is
	// CurrentLSBs times the calibrated current LSB.
	Scale       float64
	CurrentLSBs float64
	Quantity    Quantity
	Unit        Unit
}

// Bits returns the width of the data field.
func (r Register) Bits() uint {
	return uint(r.Width)*8 - r.Reserved
}

// Range returns the smallest and largest raw field value.
func (r Register) Range() (int64, int64) {
	bits := r.Bits()
	if r.Signed {
		return -(1 << (bits - 1)), 1<<(bits-1) - 1
	}
	return 0, 1<<bits - 1
}

// Raw extracts the data field from register bytes (MSB first). It panics when
// len(raw) does not match the register width.
func (r Register) Raw(raw []byte) int64 {
	if len(raw) != r.Width {
		panic(fmt.Sprintf("ina: %s is %d bytes wide, got %d", r.Name, r.Width, len(raw)))
	}
	var v uint64
	for _, b := range raw {
		v = v<<8 | uint64(b)
	}
	v >>= r.Reserved
	if r.Signed {
		return SignExtend(v, r.Bits())
	}
	return int64(v & FieldMask(r.Bits()))
}

func (r Register) Decode(raw []byte, lsb float64) float64 {
	return float64(r.Raw(raw)) * lsb
}

// Encode returns the register bytes closest to value. Values outside the
// field range are clamped.
func (r Register) Encode(value, lsb float64) []byte {
	lo, hi := r.Range()
	n := int64(math.Max(float64(lo), math.Min(float64(hi), math.Round(value/lsb))))
	v := (uint64(n) & FieldMask(r.Bits())) << r.Reserved
	out := make([]byte, r.Width)
	for i := r.Width - 1; i >= 0; i-- {
		out[i] = byte(v)
		v >>= 8
	}
	return out
}

// LSB resolves the weight of one field unit for the given current LSB.
func (r Register) LSB(currentLSB float64) float64 {
	if r.Scale != 0 {
		return r.Scale
	}
	return r.CurrentLSBs * currentLSB
}

func (r Register) Reading(raw []byte, lsb float64) Reading {
	return Reading{Quantity: r.Quantity, Value: r.Decode(raw, lsb), Unit: r.Unit}
}

type RegName uint8

const (
	RegConfig RegName = iota
	RegADCConfig
	RegShuntCal
	RegShuntTempco
	RegShuntVoltage
	RegBusVoltage
	RegDieTemp
	RegCurrent
	RegPower
	RegEnergy
	RegCharge
	RegDiagAlert
	RegMaskEnable
	RegAlertLimit
	RegManufacturerID
	RegDeviceID
)

const (
	// TIManufacturerID is "TI" in ASCII.
	TIManufacturerID uint16 = 0x5449

	configReset    uint16 = 1 << 15
	configResetAcc uint16 = 1 << 14
	configADCRange uint16 = 1 << 4
)

// shunt voltage LSB in mV indexed by ADCRANGE
var ina228ShuntScale = [2]float64{0.0003125, 0.000078125}

var registers = map[Model]map[RegName]Register{
	ModelINA228: {
		RegConfig:         {Name: "CONFIG", Address: 0x00, Width: 2},
		RegADCConfig:      {Name: "ADC_CONFIG", Address: 0x01, Width: 2},
		RegShuntCal:       {Name: "SHUNT_CAL", Address: 0x02, Width: 2},
		RegShuntTempco:    {Name: "SHUNT_TEMPCO", Address: 0x03, Width: 2},
		RegShuntVoltage:   {Name: "VSHUNT", Address: 0x04, Width: 3, Reserved: 4, Signed: true, Scale: ina228ShuntScale[0], Quantity: ShuntVoltage, Unit: Millivolts},
		RegBusVoltage:     {Name: "VBUS", Address: 0x05, Width: 3, Reserved: 4, Signed: true, Scale: 0.0001953125, Quantity: BusVoltage, Unit: Volts},
		RegDieTemp:        {Name: "DIETEMP", Address: 0x06, Width: 2, Signed: true, Scale: 0.0078125, Quantity: DieTemperature, Unit: Celsius},
		RegCurrent:        {Name: "CURRENT", Address: 0x07, Width: 3, Reserved: 4, Signed: true, CurrentLSBs: 1, Quantity: Current, Unit: Amps},
		RegPower:          {Name: "POWER", Address: 0x08, Width: 3, CurrentLSBs: 3.2, Quantity: Power, Unit: Watts},
		RegEnergy:         {Name: "ENERGY", Address: 0x09, Width: 5, CurrentLSBs: 16 * 3.2, Quantity: Energy, Unit: Joules},
		RegCharge:         {Name: "CHARGE", Address: 0x0A, Width: 5, Signed: true, CurrentLSBs: 1, Quantity: Charge, Unit: Coulombs},
		RegDiagAlert:      {Name: "DIAG_ALRT", Address: 0x0B, Width: 2},
		RegManufacturerID: {Name: "MANUFACTURER_ID", Address: 0x3E, Width: 2},
		RegDeviceID:       {Name: "DEVICE_ID", Address: 0x3F, Width: 2},
	},
	ModelINA226: {
		RegConfig:         {Name: "CONFIG", Address: 0x00, Width: 2},
		RegShuntVoltage:   {Name: "SHUNT", Address: 0x01, Width: 2, Signed: true, Scale: 0.0025, Quantity: ShuntVoltage, Unit: Millivolts},
		RegBusVoltage:     {Name: "BUS", Address: 0x02, Width: 2, Scale: 0.00125, Quantity: BusVoltage, Unit: Volts},
		RegPower:          {Name: "POWER", Address: 0x03, Width: 2, CurrentLSBs: 25, Quantity: Power, Unit: Watts},
		RegCurrent:        {Name: "CURRENT", Address: 0x04, Width: 2, Signed: true, CurrentLSBs: 1, Quantity: Current, Unit: Amps},
		RegShuntCal:       {Name: "CALIBRATION", Address: 0x05, Width: 2},
		RegMaskEnable:     {Name: "MASK_ENABLE", Address: 0x06, Width: 2},
		RegAlertLimit:     {Name: "ALERT_LIMIT", Address: 0x07, Width: 2},
		RegManufacturerID: {Name: "MANUFACTURER_ID", Address: 0xFE, Width: 2},
		RegDeviceID:       {Name: "DIE_ID", Address: 0xFF, Width: 2},
	},
}

// Lookup returns the descriptor of a register for the given model.
func Lookup(m Model, name RegName) (Register, bool) {
	r, ok := registers[m][name]
	return r, ok
}

func mustLookup(m Model, name RegName) Register {
	r, ok := Lookup(m, name)
	if !ok {
		panic(fmt.Sprintf("ina: %s has no register %d", m, name))
	}
	return r
}
