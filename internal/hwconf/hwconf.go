// Package hwconf loads the board description: bus wiring, sensor link
// parameters, GPIO assignments and startup control values.
package hwconf

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"

	"github.com/soho-enterprise/imx585-go/internal/sensor"
)

// Config mirrors the TOML layout of the board file.
type Config struct {
	Bus struct {
		Device  string `toml:"device"`
		Address uint16 `toml:"address"`
	} `toml:"bus"`

	Sensor struct {
		Lanes    int    `toml:"lanes"`
		LinkFreq int64  `toml:"link-frequency"`
		XClkHz   uint32 `toml:"xclk-hz"`
		Mono     bool   `toml:"mono"`
		SyncMode string `toml:"sync-mode"`
	} `toml:"sensor"`

	GPIO struct {
		Reset string `toml:"reset"`
		IRCut string `toml:"ircut"`
	} `toml:"gpio"`

	Server struct {
		Addr     string `toml:"addr"`
		Announce bool   `toml:"announce"`
	} `toml:"server"`

	// Controls holds startup control values keyed by API name. Scalar
	// controls take a single number, array controls a list.
	Controls map[string]any `toml:"controls"`
}

// Default returns a config for the common Raspberry Pi wiring: 4 lanes at
// 891 MHz off a 24 MHz oscillator.
func Default() *Config {
	c := &Config{}
	c.Bus.Device = "/dev/i2c-10"
	c.Bus.Address = 0x1a
	c.Sensor.Lanes = 4
	c.Sensor.LinkFreq = 891000000
	c.Sensor.XClkHz = 24000000
	c.Sensor.SyncMode = "internal-leader"
	c.GPIO.Reset = "GPIO17"
	c.Server.Addr = ":8585"
	c.Server.Announce = true
	return c
}

// Load reads and validates a board file. Fields absent from the file keep
// their defaults.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(raw)
}

// Parse decodes a board file from memory.
func Parse(raw []byte) (*Config, error) {
	c := Default()
	if err := toml.Unmarshal(raw, c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if c.Bus.Device == "" {
		return nil, fmt.Errorf("config: bus.device must be set")
	}
	if c.Bus.Address == 0 || c.Bus.Address > 0x7f {
		return nil, fmt.Errorf("config: bus.address 0x%x outside 7-bit range", c.Bus.Address)
	}
	if _, err := c.HW(); err != nil {
		return nil, err
	}
	if _, err := c.ControlValues(); err != nil {
		return nil, err
	}
	return c, nil
}

// HW validates the sensor section against the device tables.
func (c *Config) HW() (sensor.HWConfig, error) {
	return sensor.NewHWConfig(
		c.Sensor.Lanes,
		c.Sensor.LinkFreq,
		c.Sensor.XClkHz,
		c.Sensor.Mono,
		c.Sensor.SyncMode,
	)
}

// ControlValues normalizes the [controls] section to value slices keyed by
// control name. TOML integers arrive as int64, arrays as []any.
func (c *Config) ControlValues() (map[string][]int64, error) {
	out := make(map[string][]int64, len(c.Controls))
	for name, v := range c.Controls {
		vals, err := toInt64s(v)
		if err != nil {
			return nil, fmt.Errorf("config: control %q: %w", name, err)
		}
		out[name] = vals
	}
	return out, nil
}

func toInt64s(v any) ([]int64, error) {
	switch t := v.(type) {
	case int64:
		return []int64{t}, nil
	case bool:
		if t {
			return []int64{1}, nil
		}
		return []int64{0}, nil
	case []any:
		out := make([]int64, 0, len(t))
		for _, e := range t {
			n, ok := e.(int64)
			if !ok {
				return nil, fmt.Errorf("array element %v is not an integer", e)
			}
			out = append(out, n)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("value %v is not an integer, bool or array", v)
	}
}
