//go:build linux

package power

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"
)

// The sensor requires XCLR held low->high with a settle delay before the
// first register access (datasheet: 500ms min from reset release).
const xclrSettle = 500 * time.Millisecond

// GPIOSequencer drives the sensor XCLR (active-low reset) line.
type GPIOSequencer struct {
	pin gpio.PinOut
}

// NewGPIOSequencer opens the named GPIO pin (BCM naming, e.g. "GPIO17")
// as the sensor reset line. The pin starts asserted (sensor in reset).
func NewGPIOSequencer(pinName string) (*GPIOSequencer, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("power: gpio host init: %w", err)
	}
	pin := gpioreg.ByName(pinName)
	if pin == nil {
		return nil, fmt.Errorf("power: no such gpio pin %q", pinName)
	}
	if err := pin.Out(gpio.Low); err != nil {
		return nil, fmt.Errorf("power: assert XCLR on %s: %w", pinName, err)
	}
	return &GPIOSequencer{pin: pin}, nil
}

func (g *GPIOSequencer) On(ctx context.Context) error {
	if err := g.pin.Out(gpio.High); err != nil {
		return fmt.Errorf("power: release XCLR: %w", err)
	}
	slog.Debug("power: XCLR released, waiting for sensor init", "settle", xclrSettle)
	select {
	case <-time.After(xclrSettle):
	case <-ctx.Done():
		return ctx.Err()
	}
	return nil
}

func (g *GPIOSequencer) Off(ctx context.Context) error {
	if err := g.pin.Out(gpio.Low); err != nil {
		return fmt.Errorf("power: assert XCLR: %w", err)
	}
	return nil
}

// GPIOFilter drives an IR-cut filter switcher from a GPIO pin.
type GPIOFilter struct {
	pin gpio.PinOut
}

// NewGPIOFilter opens the named GPIO pin as the IR-cut filter control line.
func NewGPIOFilter(pinName string) (*GPIOFilter, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("power: gpio host init: %w", err)
	}
	pin := gpioreg.ByName(pinName)
	if pin == nil {
		return nil, fmt.Errorf("power: no such gpio pin %q", pinName)
	}
	return &GPIOFilter{pin: pin}, nil
}

func (f *GPIOFilter) Set(enable bool) error {
	level := gpio.Low
	if enable {
		level = gpio.High
	}
	if err := f.pin.Out(level); err != nil {
		return fmt.Errorf("power: set IR-cut: %w", err)
	}
	return nil
}
