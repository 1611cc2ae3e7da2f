package sensor_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/soho-enterprise/imx585-go/internal/sensor"
)

func TestSetControlValidation(t *testing.T) {
	dev, _, _ := newTestSensor(t, 4, 891000000, false)
	ctx := context.Background()

	tests := []struct {
		name    string
		ctrl    string
		vals    []int64
		wantErr error
	}{
		{"unknown control", "focus", []int64{1}, sensor.ErrUnknownControl},
		{"read-only", "pixel-rate", []int64{1}, sensor.ErrControlReadOnly},
		{"read-only link freq", "link-frequency", []int64{891000000}, sensor.ErrControlReadOnly},
		{"below range", "exposure", []int64{1}, sensor.ErrInvalidArgument},
		{"above range", "exposure", []int64{99999}, sensor.ErrInvalidArgument},
		{"gain above max", "analogue-gain", []int64{241}, sensor.ErrInvalidArgument},
		{"scalar to array control", "hdr-grad-threshold", []int64{500}, sensor.ErrControlInactive},
		{"inactive hdr control", "hdr-data-blend", []int64{1}, sensor.ErrControlInactive},
		{"menu out of range", "hdr-gain-adder", []int64{6}, sensor.ErrControlInactive},
		{"valid exposure", "exposure", []int64{1500}, nil},
		{"valid gain", "analogue-gain", []int64{120}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := dev.SetControlByName(ctx, tt.ctrl, tt.vals...)
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("got %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestHDRControlValidation(t *testing.T) {
	dev, _, _ := newTestSensor(t, 4, 891000000, false)
	ctx := context.Background()
	if err := dev.SetControl(ctx, sensor.CtrlWideDynamicRange, 1); err != nil {
		t.Fatalf("set wdr: %v", err)
	}

	if err := dev.SetControl(ctx, sensor.CtrlHDRGradTH, 500); !errors.Is(err, sensor.ErrInvalidArgument) {
		t.Errorf("one element for a two-element control: got %v, want ErrInvalidArgument", err)
	}
	if err := dev.SetControl(ctx, sensor.CtrlHDRGradTH, 500, 11500); err != nil {
		t.Fatalf("set grad threshold: %v", err)
	}
	if err := dev.SetControl(ctx, sensor.CtrlHDRGainAdder, 6); !errors.Is(err, sensor.ErrInvalidArgument) {
		t.Errorf("menu index past the end: got %v, want ErrInvalidArgument", err)
	}
	if err := dev.SetControl(ctx, sensor.CtrlHDRGainAdder, 5); err != nil {
		t.Fatalf("set gain adder: %v", err)
	}
}

func TestHDRControlDefaults(t *testing.T) {
	dev, _, _ := newTestSensor(t, 4, 891000000, false)

	sel := ctrlByName(t, dev, "hdr-datasel-threshold")
	if diff := cmp.Diff([]int64{512, 1024}, sel.Values); diff != "" {
		t.Errorf("datasel threshold defaults mismatch (-want +got):\n%s", diff)
	}
	grad := ctrlByName(t, dev, "hdr-grad-threshold")
	if diff := cmp.Diff([]int64{500, 11500}, grad.Values); diff != "" {
		t.Errorf("grad threshold defaults mismatch (-want +got):\n%s", diff)
	}
	if lo := ctrlByName(t, dev, "hdr-grad-comp-low"); lo.Value != 2 || len(lo.Menu) != 12 {
		t.Errorf("grad-comp-low = %d with %d entries, want 2 with 12", lo.Value, len(lo.Menu))
	}
	if hi := ctrlByName(t, dev, "hdr-grad-comp-high"); hi.Value != 6 {
		t.Errorf("grad-comp-high default = %d, want 6", hi.Value)
	}
	if blend := ctrlByName(t, dev, "hdr-data-blend"); len(blend.Menu) != 9 {
		t.Errorf("blend menu has %d entries, want 9", len(blend.Menu))
	}
	if adder := ctrlByName(t, dev, "hdr-gain-adder"); adder.Value != 2 || len(adder.Menu) != 6 {
		t.Errorf("gain adder = %d with %d entries, want 2 with 6", adder.Value, len(adder.Menu))
	}
}

// Values above the 12-bit clamp ceiling are accepted (the control range is
// 16-bit) but the register write saturates.
func TestBlackLevelRegisterClamp(t *testing.T) {
	dev, ch, _ := newTestSensor(t, 4, 891000000, false)
	ctx := context.Background()
	if err := dev.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}

	if err := dev.SetControlByName(ctx, "black-level", 5000); err != nil {
		t.Fatalf("set black-level: %v", err)
	}
	if got := ch.Reg(0x30dc); got != 4095 {
		t.Errorf("black level register = %d, want saturated 4095", got)
	}
	if c := ctrlByName(t, dev, "black-level"); c.Value != 5000 {
		t.Errorf("cached black level = %d, want 5000", c.Value)
	}
}

func TestGeometryControlsGrabbedWhileStreaming(t *testing.T) {
	dev, _, _ := newTestSensor(t, 4, 891000000, false)
	ctx := context.Background()
	if err := dev.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}

	for _, name := range []string{"hflip", "vflip", "wide-dynamic-range"} {
		if err := dev.SetControlByName(ctx, name, 1); !errors.Is(err, sensor.ErrControlGrabbed) {
			t.Errorf("%s while streaming: got %v, want ErrControlGrabbed", name, err)
		}
	}
	// Exposure and gain stay adjustable mid-stream.
	if err := dev.SetControlByName(ctx, "exposure", 500); err != nil {
		t.Errorf("exposure while streaming: %v", err)
	}

	if err := dev.Stop(ctx); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	for _, name := range []string{"hflip", "vflip", "wide-dynamic-range"} {
		if err := dev.SetControlByName(ctx, name, 0); err != nil {
			t.Errorf("%s after stop: %v", name, err)
		}
	}
}

// Repeating the same format selection must not drift any published range.
func TestFramingLimitsIdempotent(t *testing.T) {
	dev, _, _ := newTestSensor(t, 4, 891000000, false)

	if err := dev.SetFormat(sensor.FmtSRGGB12, 3856, 2180); err != nil {
		t.Fatalf("SetFormat: %v", err)
	}
	first := dev.Controls()
	if err := dev.SetFormat(sensor.FmtSRGGB12, 3856, 2180); err != nil {
		t.Fatalf("SetFormat again: %v", err)
	}
	if diff := cmp.Diff(first, dev.Controls()); diff != "" {
		t.Errorf("control table drifted on repeat selection (-first +second):\n%s", diff)
	}
}

func TestRawOverrides(t *testing.T) {
	dev, _, _ := newTestSensor(t, 4, 891000000, false)
	ctx := context.Background()

	if err := dev.SetControlByName(ctx, "raw-hmax", 800); err != nil {
		t.Fatalf("set raw-hmax: %v", err)
	}
	if got := dev.State().HMax; got != 800 {
		t.Errorf("HMax = %d, want raw override 800", got)
	}

	// Blanking writes are ignored while the override holds.
	if err := dev.SetControlByName(ctx, "horizontal-blanking", 100); err != nil {
		t.Fatalf("set hblank: %v", err)
	}
	if got := dev.State().HMax; got != 800 {
		t.Errorf("HMax = %d, override should mask blanking updates", got)
	}

	// Clearing the override recomputes from the cached blanking.
	if err := dev.SetControlByName(ctx, "raw-hmax", 0); err != nil {
		t.Fatalf("clear raw-hmax: %v", err)
	}
	if got, want := dev.State().HMax, uint32((550*(1928+100)+964)/1928); got != want {
		t.Errorf("HMax = %d, want recomputed %d", got, want)
	}
}
