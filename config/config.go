package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/mklimuk/powermon"
	"github.com/mklimuk/powermon/ina"
	"golang.org/x/sys/unix"
	"gopkg.in/yaml.v3"
)

const (
	AdapterGeneric = "generic"
	AdapterMCP2221 = "mcp2221"
	AdapterGobot   = "gobot"
)

// Error reports an invalid configuration field.
type Error struct {
	Field string
	Err   error
}

func (e *Error) Error() string {
	return fmt.Sprintf("config: %s: %v", e.Field, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) Is(target error) bool {
	return target == powermon.ErrConfig
}

// Config describes one monitored device and where its samples go.
type Config struct {
	Model   string `yaml:"model"`
	Adapter string `yaml:"adapter"`
	// Device is the i2c-dev path used by the generic adapter.
	Device string `yaml:"device"`
	// Bus is the bus number used by the gobot adapter.
	Bus int `yaml:"bus"`
	// Address is the 7 bit target address in hex, with or without 0x.
	Address  string        `yaml:"address"`
	Interval time.Duration `yaml:"interval"`
	// Log is the CSV file samples are appended to. Empty disables file logging.
	Log      string `yaml:"log"`
	Reset    bool   `yaml:"reset"`
	NoVerify bool   `yaml:"no_verify"`
	// ADCConfig is written to ADC_CONFIG (INA228) or CONFIG (INA226) in hex.
	ADCConfig   string      `yaml:"adc_config"`
	Calibration Calibration `yaml:"calibration"`
	Modbus      Modbus      `yaml:"modbus"`
}

type Calibration struct {
	CurrentLSB      float64 `yaml:"current_lsb"`
	ShuntResistance float64 `yaml:"shunt_resistance"`
	MaxCurrent      float64 `yaml:"max_current"`
	ShuntCal        uint16  `yaml:"shunt_cal"`
	ADCRange        int     `yaml:"adc_range"`
}

func (c Calibration) isZero() bool {
	return c == Calibration{}
}

// Modbus configures the holding register export. Disabled when Endpoint is
// empty.
type Modbus struct {
	Endpoint string        `yaml:"endpoint"`
	SlaveID  byte          `yaml:"slave_id"`
	Register uint16        `yaml:"register"`
	Timeout  time.Duration `yaml:"timeout"`
}

func Default() *Config {
	return &Config{
		Model:    ina.ModelINA228.String(),
		Adapter:  AdapterGeneric,
		Device:   "/dev/i2c-1",
		Address:  "40",
		Interval: time.Second,
		Modbus: Modbus{
			SlaveID: 1,
			Timeout: 2 * time.Second,
		},
	}
}

// Load reads a YAML file on top of the defaults. Unknown keys are rejected.
func Load(path string) (*Config, error) {
	c := Default()
	f, err := os.Open(path)
	if err != nil {
		return nil, &Error{Field: "file", Err: err}
	}
	defer f.Close()
	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil {
		return nil, &Error{Field: "file", Err: fmt.Errorf("parse %s: %w", path, err)}
	}
	return c, nil
}

// Normalize fills empty fields with defaults and canonicalizes names.
func (c *Config) Normalize() {
	d := Default()
	c.Model = strings.ToLower(strings.TrimSpace(c.Model))
	if m, err := ina.ParseModel(c.Model); err == nil {
		c.Model = m.String()
	}
	if c.Model == "" {
		c.Model = d.Model
	}
	c.Adapter = strings.ToLower(strings.TrimSpace(c.Adapter))
	if c.Adapter == "" {
		c.Adapter = d.Adapter
	}
	if c.Device == "" {
		c.Device = d.Device
	}
	c.Address = strings.TrimPrefix(strings.ToLower(strings.TrimSpace(c.Address)), "0x")
	if c.Address == "" {
		c.Address = d.Address
	}
	if c.Interval == 0 {
		c.Interval = d.Interval
	}
	c.ADCConfig = strings.TrimPrefix(strings.ToLower(strings.TrimSpace(c.ADCConfig)), "0x")
	if c.Modbus.Endpoint != "" {
		if c.Modbus.SlaveID == 0 {
			c.Modbus.SlaveID = d.Modbus.SlaveID
		}
		if c.Modbus.Timeout == 0 {
			c.Modbus.Timeout = d.Modbus.Timeout
		}
	}
}

// Validate checks every field and returns all problems found.
func (c *Config) Validate() error {
	var errs []error
	if _, err := ina.ParseModel(c.Model); err != nil {
		errs = append(errs, &Error{Field: "model", Err: err})
	}
	switch c.Adapter {
	case AdapterGeneric, AdapterMCP2221, AdapterGobot:
	default:
		errs = append(errs, &Error{Field: "adapter", Err: fmt.Errorf("unknown adapter %q", c.Adapter)})
	}
	if c.Adapter == AdapterGeneric && c.Device == "" {
		errs = append(errs, &Error{Field: "device", Err: errors.New("bus device is required")})
	}
	if c.Bus < 0 {
		errs = append(errs, &Error{Field: "bus", Err: fmt.Errorf("invalid bus number %d", c.Bus)})
	}
	if _, err := ParseAddress(c.Address); err != nil {
		errs = append(errs, &Error{Field: "address", Err: err})
	}
	if c.Interval <= 0 {
		errs = append(errs, &Error{Field: "interval", Err: fmt.Errorf("interval must be positive, got %s", c.Interval)})
	}
	if c.Log != "" {
		if err := checkWritable(c.Log); err != nil {
			errs = append(errs, &Error{Field: "log", Err: err})
		}
	}
	if _, err := c.adcConfig(); err != nil {
		errs = append(errs, &Error{Field: "adc_config", Err: err})
	}
	if m, err := ina.ParseModel(c.Model); err == nil && !c.Calibration.isZero() {
		if _, err := c.calibration(m).Resolve(m); err != nil {
			errs = append(errs, &Error{Field: "calibration", Err: err})
		}
	}
	if c.Modbus.Endpoint != "" {
		if _, err := ModbusAddress(c.Modbus.Endpoint); err != nil {
			errs = append(errs, &Error{Field: "modbus.endpoint", Err: err})
		}
	}
	return errors.Join(errs...)
}

// MonitorModel returns the parsed model of a validated config.
func (c *Config) MonitorModel() ina.Model {
	m, _ := ina.ParseModel(c.Model)
	return m
}

// Addr returns the parsed address of a validated config.
func (c *Config) Addr() byte {
	a, _ := ParseAddress(c.Address)
	return a
}

// Options translates the config into driver options.
func (c *Config) Options() []ina.Option {
	opts := []ina.Option{ina.WithIDCheck(!c.NoVerify)}
	if !c.Calibration.isZero() {
		opts = append(opts, ina.WithCalibration(c.calibration(c.MonitorModel())))
	}
	if v, err := c.adcConfig(); err == nil && v != nil {
		opts = append(opts, ina.WithADCConfig(*v))
	}
	return opts
}

// calibration applies the configured fields on top of the model defaults.
// A max current replaces the default current LSB.
func (c *Config) calibration(m ina.Model) ina.Calibration {
	cal := ina.DefaultCalibration(m)
	set := c.Calibration
	if set.MaxCurrent != 0 {
		cal.MaxCurrent = set.MaxCurrent
		cal.CurrentLSB = 0
	}
	if set.CurrentLSB != 0 {
		cal.CurrentLSB = set.CurrentLSB
	}
	if set.ShuntResistance != 0 {
		cal.ShuntResistance = set.ShuntResistance
	}
	if set.ShuntCal != 0 {
		cal.ShuntCal = set.ShuntCal
	}
	if set.ADCRange != 0 {
		cal.ADCRange = set.ADCRange
	}
	return cal
}

func (c *Config) adcConfig() (*uint16, error) {
	s := strings.TrimPrefix(strings.ToLower(c.ADCConfig), "0x")
	if s == "" {
		return nil, nil
	}
	v, err := strconv.ParseUint(s, 16, 16)
	if err != nil {
		return nil, fmt.Errorf("invalid register value %q", c.ADCConfig)
	}
	r := uint16(v)
	return &r, nil
}

// ParseAddress parses a 7 bit I2C address written in hex. Reserved addresses
// are rejected.
func ParseAddress(s string) (byte, error) {
	s = strings.TrimPrefix(strings.ToLower(strings.TrimSpace(s)), "0x")
	v, err := strconv.ParseUint(s, 16, 8)
	if err != nil {
		return 0, fmt.Errorf("malformed address %q", s)
	}
	if v < 0x08 || v > 0x77 {
		return 0, fmt.Errorf("address %#02x outside the 7 bit range", v)
	}
	return byte(v), nil
}

// ModbusAddress accepts host:port or tcp://host:port and returns host:port.
func ModbusAddress(endpoint string) (string, error) {
	addr := endpoint
	if strings.Contains(endpoint, "://") {
		u, err := url.Parse(endpoint)
		if err != nil {
			return "", err
		}
		if u.Scheme != "tcp" {
			return "", fmt.Errorf("unsupported scheme %q", u.Scheme)
		}
		addr = u.Host
	}
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return "", err
	}
	if host == "" || port == "" {
		return "", fmt.Errorf("incomplete endpoint %q", endpoint)
	}
	return addr, nil
}

// checkWritable reports whether path can be opened for appending without
// creating it.
func checkWritable(path string) error {
	st, err := os.Stat(path)
	switch {
	case err == nil && st.IsDir():
		return fmt.Errorf("%s is a directory", path)
	case err == nil:
		return access(path)
	case !errors.Is(err, fs.ErrNotExist):
		return err
	}
	dir := filepath.Dir(path)
	st, err = os.Stat(dir)
	if err != nil {
		return err
	}
	if !st.IsDir() {
		return fmt.Errorf("%s is not a directory", dir)
	}
	return access(dir)
}

func access(path string) error {
	if err := unix.Access(path, unix.W_OK); err != nil {
		return &fs.PathError{Op: "access", Path: path, Err: err}
	}
	return nil
}
