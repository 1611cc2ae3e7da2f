// Package power handles the sensor power/reset sequencing and the optional
// IR-cut filter line. The real implementations drive GPIO lines via periph.io;
// mocks are provided for tests and development without hardware.
package power

import "context"

// Sequencer powers the sensor up and down.
type Sequencer interface {
	// On enables the sensor: deasserts XCLR and waits for the sensor to
	// come out of reset. Blocking; takes ~500ms on real hardware.
	On(ctx context.Context) error

	// Off asserts XCLR, putting the sensor back into reset.
	Off(ctx context.Context) error
}

// Filter switches an IR-cut (band-stop) filter in front of the sensor.
type Filter interface {
	Set(enable bool) error
}
