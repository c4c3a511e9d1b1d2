package sink

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/mklimuk/powermon/ina"
)

// Console prints a human readable line per sample.
type Console struct {
	w io.Writer
}

func NewConsole(w io.Writer) *Console {
	return &Console{w: w}
}

func (c *Console) Write(ctx context.Context, s ina.Sample) error {
	v := Values(s)
	var b strings.Builder
	fmt.Fprintf(&b, "Voltage = %.02f V Current = %.02f A Power   = %.02f W", v[0], v[1], v[2])
	if len(v) == 5 {
		fmt.Fprintf(&b, " Energy = %.04f Wh Charge = %.04f Ah", v[3], v[4])
	}
	if t, ok := s.Get(ina.DieTemperature); ok {
		fmt.Fprintf(&b, " Die = %.01f %s", t.Value, t.Unit)
	}
	b.WriteString("\n")
	_, err := io.WriteString(c.w, b.String())
	return err
}
