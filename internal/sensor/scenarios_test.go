package sensor_test

import (
	"context"
	"errors"
	"testing"

	"github.com/soho-enterprise/imx585-go/internal/sensor"
)

// Typical Raspberry Pi setup: 4 lanes at 891 MHz, HDR off.
func TestFourLane891Defaults(t *testing.T) {
	dev, _, _ := newTestSensor(t, 4, 891000000, false)
	st := dev.State()

	if st.HMax != 550 {
		t.Errorf("HMax = %d, want 550", st.HMax)
	}
	if st.VMax != 2250 {
		t.Errorf("VMax = %d, want 2250", st.VMax)
	}
	if st.Format != "SRGGB12" {
		t.Errorf("Format = %s, want SRGGB12", st.Format)
	}

	exp := ctrlByName(t, dev, "exposure")
	if exp.Value != 1000 || exp.Min != 2 || exp.Max != 2242 {
		t.Errorf("exposure = %d in [%d, %d], want 1000 in [2, 2242]",
			exp.Value, exp.Min, exp.Max)
	}

	wantRate := int64(1928) * 74250000 / 550
	if st.PixelRate != wantRate {
		t.Errorf("PixelRate = %d, want %d", st.PixelRate, wantRate)
	}
}

// Turning HDR on doubles the minimum frame period and narrows the gain range.
func TestHDRDoublesFramePeriod(t *testing.T) {
	dev, _, _ := newTestSensor(t, 4, 891000000, false)
	if err := dev.SetControl(context.Background(), sensor.CtrlWideDynamicRange, 1); err != nil {
		t.Fatalf("set wdr: %v", err)
	}

	st := dev.State()
	if st.VMax != 4500 {
		t.Errorf("VMax = %d, want 4500", st.VMax)
	}
	if st.HMax != 550 {
		t.Errorf("HMax = %d, want 550 (HDR does not change the line period)", st.HMax)
	}

	gain := ctrlByName(t, dev, "analogue-gain")
	if gain.Min != 0 || gain.Max != 80 {
		t.Errorf("gain range = [%d, %d], want [0, 80]", gain.Min, gain.Max)
	}

	exp := ctrlByName(t, dev, "exposure")
	if exp.Max != 4490 {
		t.Errorf("exposure max = %d, want 4490", exp.Max)
	}
}

// Two lanes halve the bandwidth: minimum HMAX doubles and the usable
// horizontal blanking range shrinks.
func TestTwoLaneHalvesBandwidth(t *testing.T) {
	dev4, _, _ := newTestSensor(t, 4, 891000000, false)
	dev2, _, _ := newTestSensor(t, 2, 891000000, false)

	if got := dev2.State().HMax; got != 1100 {
		t.Errorf("2-lane HMax = %d, want 1100", got)
	}

	hb4 := ctrlByName(t, dev4, "horizontal-blanking")
	hb2 := ctrlByName(t, dev2, "horizontal-blanking")
	if hb2.Max >= hb4.Max {
		t.Errorf("2-lane hblank max (%d) should be below 4-lane (%d)", hb2.Max, hb4.Max)
	}
	if dev2.State().PixelRate >= dev4.State().PixelRate {
		t.Error("2-lane pixel rate should be below 4-lane")
	}
}

// The shutter register only accepts even values; odd results round down,
// never up (rounding up would overexpose past the requested value).
func TestShutterRoundsDownToEven(t *testing.T) {
	dev, ch, _ := newTestSensor(t, 4, 891000000, false)
	ctx := context.Background()
	if err := dev.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}

	tests := []struct {
		exposure int64
		wantSHR  uint32 // vmax(2250) - exposure, rounded down to even
	}{
		{1000, 1250},
		{1001, 1248},
		{2242, 8},
		{2241, 8},
	}
	for _, tt := range tests {
		if err := dev.SetControl(ctx, sensor.CtrlExposure, tt.exposure); err != nil {
			t.Fatalf("set exposure %d: %v", tt.exposure, err)
		}
		if got := ch.Reg(0x3050); got != tt.wantSHR {
			t.Errorf("exposure %d: SHR = %d, want %d", tt.exposure, got, tt.wantSHR)
		}
		if got := ch.Reg(0x3050) % 2; got != 0 {
			t.Errorf("exposure %d: SHR must be even", tt.exposure)
		}
	}
}

// A register failure mid-way through the enable sequence must leave the
// device stopped with its power reference released exactly once.
func TestStartFailureReleasesPowerOnce(t *testing.T) {
	dev, ch, pwr := newTestSensor(t, 4, 891000000, false)
	ch.FailAfterWrites(50)

	err := dev.Start(context.Background())
	if err == nil {
		t.Fatal("Start should fail")
	}
	if dev.Streaming() {
		t.Error("device must not report streaming after a failed start")
	}
	if pwr.OnCalls != 1 || pwr.OffCalls != 1 {
		t.Errorf("power calls on/off = %d/%d, want 1/1", pwr.OnCalls, pwr.OffCalls)
	}
	if pwr.IsOn() {
		t.Error("power must be released after a failed start")
	}

	// The device recovers: a later start succeeds and reprograms everything.
	if err := dev.Start(context.Background()); err != nil {
		t.Fatalf("recovery Start: %v", err)
	}
	if !dev.Streaming() {
		t.Error("device should be streaming after recovery")
	}
}

// HCG and HDR are mutually exclusive; the pre-HDR conversion gain comes
// back when HDR is disabled.
func TestHDRForcesHCGOffAndRestores(t *testing.T) {
	dev, _, _ := newTestSensor(t, 4, 891000000, false)
	ctx := context.Background()

	if err := dev.SetControl(ctx, sensor.CtrlHCGEnable, 1); err != nil {
		t.Fatalf("set hcg: %v", err)
	}
	gain := ctrlByName(t, dev, "analogue-gain")
	if gain.Min != 34 {
		t.Errorf("HCG gain min = %d, want 34", gain.Min)
	}

	if err := dev.SetControl(ctx, sensor.CtrlWideDynamicRange, 1); err != nil {
		t.Fatalf("set wdr: %v", err)
	}
	if dev.State().HCG {
		t.Error("HDR must force HCG off")
	}
	if err := dev.SetControl(ctx, sensor.CtrlHCGEnable, 1); !errors.Is(err, sensor.ErrControlInactive) {
		t.Errorf("setting hcg under HDR: got %v, want ErrControlInactive", err)
	}

	if err := dev.SetControl(ctx, sensor.CtrlWideDynamicRange, 0); err != nil {
		t.Fatalf("clear wdr: %v", err)
	}
	if !dev.State().HCG {
		t.Error("pre-HDR HCG state must be restored")
	}
	if gain := ctrlByName(t, dev, "analogue-gain"); gain.Min != 34 || gain.Max != 240 {
		t.Errorf("restored gain range = [%d, %d], want [34, 240]", gain.Min, gain.Max)
	}
}
