package sensor_test

import (
	"context"
	"testing"

	"github.com/soho-enterprise/imx585-go/internal/power"
	"github.com/soho-enterprise/imx585-go/internal/regio"
	"github.com/soho-enterprise/imx585-go/internal/sensor"
)

func newTestSensorSync(t *testing.T, syncMode string) (*sensor.Sensor, *regio.Mock, *power.MockSequencer) {
	t.Helper()
	cfg, err := sensor.NewHWConfig(4, 891000000, 24000000, false, syncMode)
	if err != nil {
		t.Fatalf("NewHWConfig: %v", err)
	}
	ch := regio.NewMock()
	pwr := power.NewMockSequencer()
	return sensor.New(ch, pwr, nil, cfg), ch, pwr
}

func TestStartProgramsSequence(t *testing.T) {
	dev, ch, pwr := newTestSensor(t, 4, 891000000, false)
	if err := dev.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if !dev.Streaming() {
		t.Fatal("Streaming() should be true")
	}
	if pwr.OnCalls != 1 || !pwr.IsOn() {
		t.Errorf("power on calls = %d (on=%v), want 1 (on)", pwr.OnCalls, pwr.IsOn())
	}

	checks := []struct {
		name string
		addr uint16
		want uint32
	}{
		{"mode select streaming", 0x3000, 0x00},
		{"inck select 24MHz", 0x3014, 0x04},
		{"datarate 891MHz", 0x3015, 0x02},
		{"lane mode 4-lane", 0x3040, 0x03},
		{"bin mode color", 0x3019, 0x00},
		{"vmax", 0x3028, 2250},
		{"hmax", 0x302c, 550},
		{"shutter", 0x3050, 1250},
		{"black level", 0x30dc, 50},
		{"wdmode normal", 0x301a, 0x00},
		{"gradation compression off", 0x36ef, 0x00},
		{"digital clamp", 0x3458, 0x00},
	}
	for _, c := range checks {
		if got := ch.Reg(c.addr); got != c.want {
			t.Errorf("%s: reg 0x%04x = %d, want %d", c.name, c.addr, got, c.want)
		}
	}

	log := ch.Writes()
	if log[0].Reg.Addr != 0x3002 {
		t.Errorf("first write should hold XMSTA (0x3002), got 0x%04x", log[0].Reg.Addr)
	}
	if last := log[len(log)-1]; last.Reg.Addr != 0x3000 || last.Val != 0 {
		t.Errorf("last write should enter streaming, got 0x%04x=%d", last.Reg.Addr, last.Val)
	}
}

func TestStartWhileStreamingIsNoop(t *testing.T) {
	dev, ch, pwr := newTestSensor(t, 4, 891000000, false)
	ctx := context.Background()
	if err := dev.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	n := ch.WriteCount()
	if err := dev.Start(ctx); err != nil {
		t.Fatalf("second Start: %v", err)
	}
	if ch.WriteCount() != n {
		t.Error("second Start must not touch the bus")
	}
	if pwr.OnCalls != 1 {
		t.Errorf("power on calls = %d, want 1", pwr.OnCalls)
	}
}

func TestStopEntersStandbyAndPowersDown(t *testing.T) {
	dev, ch, pwr := newTestSensor(t, 4, 891000000, false)
	ctx := context.Background()
	if err := dev.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := dev.Stop(ctx); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if dev.Streaming() {
		t.Error("Streaming() should be false after Stop")
	}
	if got := ch.Reg(0x3000); got != 0x01 {
		t.Errorf("mode select = %d, want standby 0x01", got)
	}
	if pwr.OffCalls != 1 || pwr.IsOn() {
		t.Errorf("power off calls = %d (on=%v), want 1 (off)", pwr.OffCalls, pwr.IsOn())
	}

	// Stop when already stopped is a no-op.
	if err := dev.Stop(ctx); err != nil {
		t.Fatalf("second Stop: %v", err)
	}
	if pwr.OffCalls != 1 {
		t.Error("second Stop must not release power again")
	}
}

// The common init block is written once per power cycle, not once per
// stream. A power cycle invalidates it.
func TestCommonBlockOncePerPowerCycle(t *testing.T) {
	dev, ch, _ := newTestSensor(t, 4, 891000000, false)
	ctx := context.Background()

	countCommonHead := func() int {
		n := 0
		for _, w := range ch.Writes() {
			if w.Reg.Addr == 0x3460 { // only ever written by the common block
				n++
			}
		}
		return n
	}

	if err := dev.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if got := countCommonHead(); got != 1 {
		t.Fatalf("common block written %d times, want 1", got)
	}
	if err := dev.Stop(ctx); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if err := dev.Start(ctx); err != nil {
		t.Fatalf("restart: %v", err)
	}
	if got := countCommonHead(); got != 2 {
		t.Errorf("common block written %d times after power cycle, want 2", got)
	}
}

func TestSyncModeRegisters(t *testing.T) {
	tests := []struct {
		mode    string
		extMode uint32
		drv     uint32
		outSel  uint32
	}{
		{"internal-leader", 0x00, 0x00, 0x0a},
		{"internal-follower", 0x01, 0x03, 0x08},
		{"external", 0x00, 0x0f, 0x00},
	}
	for _, tt := range tests {
		t.Run(tt.mode, func(t *testing.T) {
			dev, ch, _ := newTestSensorSync(t, tt.mode)
			if err := dev.Start(context.Background()); err != nil {
				t.Fatalf("Start: %v", err)
			}
			if got := ch.Reg(0x30ce); got != tt.extMode {
				t.Errorf("EXTMODE = %d, want %d", got, tt.extMode)
			}
			if got := ch.Reg(0x30a6); got != tt.drv {
				t.Errorf("XXS_DRV = %d, want %d", got, tt.drv)
			}
			if got := ch.Reg(0x30a4); got != tt.outSel {
				t.Errorf("XXS_OUTSEL = %d, want %d", got, tt.outSel)
			}
		})
	}
}

// With external sync the master-start pulse stays held; frame timing comes
// from the external XVS/XHS source.
func TestExternalSyncSkipsMasterStart(t *testing.T) {
	dev, ch, _ := newTestSensorSync(t, "external")
	if err := dev.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	for _, w := range ch.Writes() {
		if w.Reg.Addr == 0x3002 && w.Val == 0 {
			t.Fatal("XMSTA must not be released in external sync mode")
		}
	}
}

func TestTwoLaneModeRegister(t *testing.T) {
	dev, ch, _ := newTestSensor(t, 2, 891000000, false)
	if err := dev.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if got := ch.Reg(0x3040); got != 0x01 {
		t.Errorf("lane mode = %d, want 0x01 for 2 lanes", got)
	}
	if got := ch.Reg(0x302c); got != 1100 {
		t.Errorf("hmax = %d, want 1100 for 2 lanes", got)
	}
}

func TestMonoBinningRegister(t *testing.T) {
	dev, ch, _ := newTestSensor(t, 4, 891000000, true)
	if err := dev.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if got := ch.Reg(0x3019); got != 0x01 {
		t.Errorf("bin mode = %d, want 0x01 for mono", got)
	}
}

func TestHDRStreamRegisters(t *testing.T) {
	t.Run("16-bit linear output", func(t *testing.T) {
		dev, ch, _ := newTestSensor(t, 4, 891000000, false)
		ctx := context.Background()
		if err := dev.SetControl(ctx, sensor.CtrlWideDynamicRange, 1); err != nil {
			t.Fatalf("set wdr: %v", err)
		}
		if err := dev.SetFormat(sensor.FmtSRGGB16, 3856, 2180); err != nil {
			t.Fatalf("SetFormat: %v", err)
		}
		if err := dev.Start(ctx); err != nil {
			t.Fatalf("Start: %v", err)
		}
		if got := ch.Reg(0x301a); got != 0x10 {
			t.Errorf("WDMODE = %#x, want 0x10 (Clear HDR)", got)
		}
		if got := ch.Reg(0x36ef); got != 0x00 {
			t.Errorf("CCMP_EN = %d, want 0 for linear 16-bit output", got)
		}
		if got := ch.Reg(0x3023); got != 0x03 {
			t.Errorf("MDBIT = %#x, want 0x03 for 16-bit output", got)
		}
		if got := ch.Reg(0x3028); got != 4500 {
			t.Errorf("vmax = %d, want 4500 under HDR", got)
		}
	})

	t.Run("12-bit compressed output", func(t *testing.T) {
		dev, ch, _ := newTestSensor(t, 4, 891000000, false)
		ctx := context.Background()
		if err := dev.SetControl(ctx, sensor.CtrlWideDynamicRange, 1); err != nil {
			t.Fatalf("set wdr: %v", err)
		}
		if err := dev.Start(ctx); err != nil {
			t.Fatalf("Start: %v", err)
		}
		if got := ch.Reg(0x36ef); got != 0x01 {
			t.Errorf("CCMP_EN = %d, want 1 for compressed 12-bit output", got)
		}
		if got := ch.Reg(0x3023); got != 0x01 {
			t.Errorf("MDBIT = %#x, want 0x01 for 12-bit output", got)
		}
		// HDR threshold and blend defaults reach the hardware.
		if got := ch.Reg(0x36d0); got != 512 {
			t.Errorf("EXP_TH_H = %d, want 512", got)
		}
		if got := ch.Reg(0x36e8); got != 500 {
			t.Errorf("CCMP1_EXP = %d, want 500", got)
		}
		if got := ch.Reg(0x36ec); got != 6 {
			t.Errorf("ACMP2_EXP = %d, want grad-comp-high default 6", got)
		}
	})
}
