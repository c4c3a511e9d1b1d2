package sink

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/mklimuk/powermon/ina"
)

// CSV writes one line per sample: a local timestamp followed by Values.
type CSV struct {
	w      *csv.Writer
	closer io.Closer
}

func NewCSV(w io.Writer) *CSV {
	return &CSV{w: csv.NewWriter(w)}
}

// OpenFile appends to path, creating it when missing.
func OpenFile(path string) (*CSV, error) {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("could not open log file: %w", err)
	}
	c := NewCSV(f)
	c.closer = f
	return c, nil
}

func (c *CSV) Write(ctx context.Context, s ina.Sample) error {
	values := Values(s)
	record := make([]string, 0, len(values)+1)
	record = append(record, s.At.Format(time.DateTime))
	for _, v := range values {
		record = append(record, strconv.FormatFloat(v, 'f', 6, 64))
	}
	if err := c.w.Write(record); err != nil {
		return fmt.Errorf("could not write log line: %w", err)
	}
	c.w.Flush()
	return c.w.Error()
}

func (c *CSV) Close() error {
	c.w.Flush()
	if c.closer == nil {
		return c.w.Error()
	}
	return c.closer.Close()
}
