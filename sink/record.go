package sink

import (
	"github.com/mklimuk/powermon/ina"
)

// Values returns the logged values of a sample in column order: bus voltage
// (V), current (A) and power (W), followed on models with accumulators by
// energy (Wh) and charge (Ah). Quantities missing from the sample are zero.
func Values(s ina.Sample) []float64 {
	quantities := []ina.Quantity{ina.BusVoltage, ina.Current, ina.Power}
	if s.Model == ina.ModelINA228 {
		quantities = append(quantities, ina.Energy, ina.Charge)
	}
	out := make([]float64, len(quantities))
	for i, q := range quantities {
		r, ok := s.Get(q)
		if !ok {
			continue
		}
		switch q {
		case ina.Energy:
			out[i] = r.WattHours()
		case ina.Charge:
			out[i] = r.AmpHours()
		default:
			out[i] = r.Value
		}
	}
	return out
}
