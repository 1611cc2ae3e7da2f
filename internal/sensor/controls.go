package sensor

import (
	"context"
	"fmt"
	"log/slog"
)

// ControlID identifies one user-facing control. The mapper dispatches on it
// with a single switch; there is no per-control callback table.
type ControlID int

const (
	CtrlPixelRate ControlID = iota + 1
	CtrlLinkFreq
	CtrlExposure
	CtrlAnalogueGain
	CtrlVBlank
	CtrlHBlank
	CtrlBlackLevel
	CtrlHFlip
	CtrlVFlip
	CtrlWideDynamicRange
	CtrlHCGEnable
	CtrlHDRDataSelTH
	CtrlHDRDataBlend
	CtrlHDRGradTH
	CtrlHDRGradCompLow
	CtrlHDRGradCompHigh
	CtrlHDRGainAdder
	CtrlIRCutFilter
	CtrlRawHMAX
	CtrlRawVMAX
	CtrlRawSHR
)

// hdrCluster lists the controls that are only meaningful in ClearHDR mode.
var hdrCluster = []ControlID{
	CtrlHDRDataSelTH,
	CtrlHDRDataBlend,
	CtrlHDRGradTH,
	CtrlHDRGradCompLow,
	CtrlHDRGradCompHigh,
	CtrlHDRGainAdder,
}

// applyOrder is the bulk-apply sequence used on stream enable. VMAX is
// pushed before SHR because the exposure bound depends on it; HMAX comes
// after the blanking-independent registers.
var applyOrder = []ControlID{
	CtrlHCGEnable,
	CtrlAnalogueGain,
	CtrlBlackLevel,
	CtrlHFlip,
	CtrlVFlip,
	CtrlVBlank,
	CtrlExposure,
	CtrlHBlank,
	CtrlHDRDataSelTH,
	CtrlHDRDataBlend,
	CtrlHDRGradTH,
	CtrlHDRGradCompLow,
	CtrlHDRGradCompHigh,
	CtrlHDRGainAdder,
	CtrlIRCutFilter,
	CtrlRawHMAX,
	CtrlRawVMAX,
	CtrlRawSHR,
}

// Menu entries, in datasheet order (the duplicate 50/50 blend is deliberate).
var hdrBlendMenu = []string{
	"HG 1/2, LG 1/2",
	"HG 3/4, LG 1/4",
	"HG 1/2, LG 1/2",
	"HG 7/8, LG 1/8",
	"HG 15/16, LG 1/16",
	"2nd HG 1/2, LG 1/2",
	"HG 1/16, LG 15/16",
	"HG 1/8, LG 7/8",
	"HG 1/4, LG 3/4",
}

var gradCompSlopeMenu = []string{
	"1/1", "1/2", "1/4", "1/8", "1/16", "1/32",
	"1/64", "1/128", "1/256", "1/512", "1/1024", "1/2048",
}

var hdrGainAdderMenu = []string{
	"+0dB", "+6dB", "+12dB", "+18dB", "+24dB", "+29.1dB",
}

// Control is one entry of the control table: the published range, the
// cached current value and the framework flags. Array controls (dims > 1)
// keep their elements in Vals.
type Control struct {
	ID   ControlID
	Name string

	Min, Max, Step, Def int64
	Val                 int64
	Vals                []int64
	Menu                []string

	dims     int
	ReadOnly bool
	Inactive bool
	Grabbed  bool
}

func (c *Control) setRange(min, max, step, val int64) {
	c.Min, c.Max, c.Step = min, max, step
	c.Val = clampInt64(val, min, max)
}

// values returns the element values of an array control, or the scalar
// value wrapped in a slice.
func (c *Control) values() []int64 {
	if c.dims > 1 {
		out := make([]int64, len(c.Vals))
		copy(out, c.Vals)
		return out
	}
	return []int64{c.Val}
}

// ControlInfo is a read-only snapshot of a control, safe to hand out.
type ControlInfo struct {
	ID       ControlID `json:"-"`
	Name     string    `json:"name"`
	Min      int64     `json:"min"`
	Max      int64     `json:"max"`
	Step     int64     `json:"step"`
	Default  int64     `json:"default"`
	Value    int64     `json:"value"`
	Values   []int64   `json:"values,omitempty"`
	Menu     []string  `json:"menu,omitempty"`
	ReadOnly bool      `json:"read_only"`
	Inactive bool      `json:"inactive"`
	Grabbed  bool      `json:"grabbed"`
}

func (c *Control) info() ControlInfo {
	info := ControlInfo{
		ID:       c.ID,
		Name:     c.Name,
		Min:      c.Min,
		Max:      c.Max,
		Step:     c.Step,
		Default:  c.Def,
		Value:    c.Val,
		Menu:     c.Menu,
		ReadOnly: c.ReadOnly,
		Inactive: c.Inactive,
		Grabbed:  c.Grabbed,
	}
	if c.dims > 1 {
		info.Values = c.values()
	}
	return info
}

// Vendor calibration defaults for the ClearHDR thresholds. Carried over
// from the datasheet; not derivable.
var (
	hdrDataSelTHDefault = []int64{512, 1024}
	hdrGradTHDefault    = []int64{500, 11500}
)

// newControls builds the control table with power-on defaults. Ranges that
// depend on the mode are placeholders until applyFramingLimits runs.
func newControls(linkFreqIdx int, hasIRCut bool) map[ControlID]*Control {
	ctrls := []*Control{
		{ID: CtrlPixelRate, Name: "pixel-rate", Min: 1, Max: 1<<63 - 1, Step: 1, ReadOnly: true},
		{ID: CtrlLinkFreq, Name: "link-frequency", ReadOnly: true,
			Min: linkFreqs[linkFreqIdx], Max: linkFreqs[linkFreqIdx], Step: 1,
			Def: linkFreqs[linkFreqIdx], Val: linkFreqs[linkFreqIdx]},
		{ID: CtrlExposure, Name: "exposure", Min: exposureMin, Max: 49865,
			Step: exposureStep, Def: exposureDefault, Val: exposureDefault},
		{ID: CtrlAnalogueGain, Name: "analogue-gain", Min: gainMinLCG, Max: gainMax, Step: gainStep},
		{ID: CtrlVBlank, Name: "vertical-blanking", Min: 0, Max: vmaxMax, Step: 1},
		{ID: CtrlHBlank, Name: "horizontal-blanking", Min: 0, Max: hmaxMax, Step: 1},
		{ID: CtrlBlackLevel, Name: "black-level", Min: 0, Max: 0xffff, Step: 1,
			Def: blackLevelDefault, Val: blackLevelDefault},
		{ID: CtrlHFlip, Name: "hflip", Min: 0, Max: 1, Step: 1},
		{ID: CtrlVFlip, Name: "vflip", Min: 0, Max: 1, Step: 1},
		{ID: CtrlWideDynamicRange, Name: "wide-dynamic-range", Min: 0, Max: 1, Step: 1},
		{ID: CtrlHCGEnable, Name: "hcg-enable", Min: 0, Max: 1, Step: 1},
		{ID: CtrlHDRDataSelTH, Name: "hdr-datasel-threshold", Min: 0, Max: 0x0fff, Step: 1,
			dims: 2, Vals: append([]int64(nil), hdrDataSelTHDefault...), Inactive: true},
		{ID: CtrlHDRDataBlend, Name: "hdr-data-blend", Menu: hdrBlendMenu,
			Min: 0, Max: int64(len(hdrBlendMenu) - 1), Step: 1, Inactive: true},
		{ID: CtrlHDRGradTH, Name: "hdr-grad-threshold", Min: 0, Max: 0x1ffff, Step: 1,
			dims: 2, Vals: append([]int64(nil), hdrGradTHDefault...), Inactive: true},
		{ID: CtrlHDRGradCompLow, Name: "hdr-grad-comp-low", Menu: gradCompSlopeMenu,
			Min: 0, Max: int64(len(gradCompSlopeMenu) - 1), Step: 1, Def: 2, Val: 2, Inactive: true},
		{ID: CtrlHDRGradCompHigh, Name: "hdr-grad-comp-high", Menu: gradCompSlopeMenu,
			Min: 0, Max: int64(len(gradCompSlopeMenu) - 1), Step: 1, Def: 6, Val: 6, Inactive: true},
		{ID: CtrlHDRGainAdder, Name: "hdr-gain-adder", Menu: hdrGainAdderMenu,
			Min: 0, Max: int64(len(hdrGainAdderMenu) - 1), Step: 1, Def: 2, Val: 2, Inactive: true},
		{ID: CtrlIRCutFilter, Name: "ir-cut-filter", Min: 0, Max: 1, Step: 1, Inactive: !hasIRCut},
		{ID: CtrlRawHMAX, Name: "raw-hmax", Min: 0, Max: hmaxMax, Step: 1},
		{ID: CtrlRawVMAX, Name: "raw-vmax", Min: 0, Max: vmaxMax, Step: 1},
		{ID: CtrlRawSHR, Name: "raw-shr", Min: 0, Max: 0xfffff, Step: 1},
	}

	table := make(map[ControlID]*Control, len(ctrls))
	for _, c := range ctrls {
		if c.dims == 0 {
			c.dims = 1
		}
		table[c.ID] = c
	}
	return table
}

func (s *Sensor) ctrl(id ControlID) *Control { return s.ctrls[id] }

// SetControl validates and applies a control write. The value is accepted
// into the control table before the hardware write is attempted; a register
// I/O failure is returned to the caller but does not roll back the cached
// value. When the device is powered down only the bookkeeping runs; the
// cached values are pushed in bulk on the next stream enable.
func (s *Sensor) SetControl(ctx context.Context, id ControlID, vals ...int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.setControlLocked(ctx, id, vals...)
}

// SetControlByName resolves a control by its API name and sets it.
func (s *Sensor) SetControlByName(ctx context.Context, name string, vals ...int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.ctrls {
		if c.Name == name {
			return s.setControlLocked(ctx, c.ID, vals...)
		}
	}
	return fmt.Errorf("%w: %q", ErrUnknownControl, name)
}

func (s *Sensor) setControlLocked(ctx context.Context, id ControlID, vals ...int64) error {
	c := s.ctrl(id)
	if c == nil {
		return fmt.Errorf("%w: id %d", ErrUnknownControl, id)
	}
	if c.ReadOnly {
		return fmt.Errorf("%w: %s", ErrControlReadOnly, c.Name)
	}
	if c.Grabbed {
		return fmt.Errorf("%w: %s", ErrControlGrabbed, c.Name)
	}
	if c.Inactive {
		return fmt.Errorf("%w: %s", ErrControlInactive, c.Name)
	}
	if len(vals) != c.dims {
		return fmt.Errorf("%w: %s expects %d value(s), got %d",
			ErrInvalidArgument, c.Name, c.dims, len(vals))
	}
	for _, v := range vals {
		if v < c.Min || v > c.Max {
			return fmt.Errorf("%w: %s value %d outside [%d, %d]",
				ErrInvalidArgument, c.Name, v, c.Min, c.Max)
		}
	}

	// State bookkeeping runs regardless of power state: published ranges
	// and derived timing must stay consistent even while powered down.
	switch id {
	case CtrlWideDynamicRange:
		s.setHDR(vals[0] != 0)
	case CtrlHCGEnable:
		s.hcg = vals[0] != 0
		s.updateGainLimits()
	case CtrlVBlank:
		if s.ctrl(CtrlRawVMAX).Val == 0 {
			// VMAX must be even; odd sums round down.
			s.vmax = uint32(int64(s.mode.Height)+vals[0]) &^ 1
			s.clampExposureRange()
		}
	case CtrlHBlank:
		if s.ctrl(CtrlRawHMAX).Val == 0 {
			s.hmax = hmaxFor(s.mode, uint32(vals[0]))
		}
	case CtrlRawVMAX:
		if vals[0] != 0 {
			s.vmax = uint32(vals[0])
		} else {
			s.vmax = uint32(int64(s.mode.Height)+s.ctrl(CtrlVBlank).Val) &^ 1
		}
		s.clampExposureRange()
	case CtrlRawHMAX:
		if vals[0] != 0 {
			s.hmax = uint32(vals[0])
		} else {
			s.hmax = hmaxFor(s.mode, uint32(s.ctrl(CtrlHBlank).Val))
		}
	}

	// Accept the value before attempting the hardware write.
	if c.dims > 1 {
		copy(c.Vals, vals)
	} else {
		c.Val = vals[0]
	}

	if !s.powered {
		return nil
	}
	return s.pushControl(ctx, c)
}

// pushControl issues the register writes for one control from the cached
// state. Caller holds the device lock and has verified the device is
// powered.
func (s *Sensor) pushControl(ctx context.Context, c *Control) error {
	var err error
	switch c.ID {
	case CtrlExposure:
		shr := s.shrFor(uint32(c.Val))
		if raw := s.ctrl(CtrlRawSHR).Val; raw != 0 {
			shr = uint32(raw)
		}
		err = s.ch.Write(ctx, regSHR, shr)
	case CtrlAnalogueGain:
		err = s.ch.Write(ctx, regAnalogGain, uint32(c.Val))
	case CtrlVBlank, CtrlRawVMAX:
		err = s.ch.Write(ctx, regVMax, s.vmax)
	case CtrlHBlank, CtrlRawHMAX:
		err = s.ch.Write(ctx, regHMax, s.hmax)
	case CtrlRawSHR:
		shr := s.shrFor(uint32(s.ctrl(CtrlExposure).Val))
		if c.Val != 0 {
			shr = uint32(c.Val)
		}
		err = s.ch.Write(ctx, regSHR, shr)
	case CtrlHCGEnable:
		err = s.ch.Write(ctx, regFDGSel0, uint32(c.Val))
		if err == nil {
			// The gain range may have narrowed; push the reclamped value.
			err = s.ch.Write(ctx, regAnalogGain, uint32(s.ctrl(CtrlAnalogueGain).Val))
		}
	case CtrlHFlip:
		err = s.ch.Write(ctx, regFlipH, uint32(c.Val))
	case CtrlVFlip:
		err = s.ch.Write(ctx, regFlipV, uint32(c.Val))
	case CtrlBlackLevel:
		v := c.Val
		if v > blackLevelRegMax {
			v = blackLevelRegMax
		}
		err = s.ch.Write(ctx, regBlackLevel, uint32(v))
	case CtrlHDRDataSelTH:
		err = s.ch.Write(ctx, regExpTHHigh, uint32(c.Vals[0]))
		if err == nil {
			err = s.ch.Write(ctx, regExpTHLow, uint32(c.Vals[1]))
		}
	case CtrlHDRDataBlend:
		err = s.ch.Write(ctx, regExpBK, uint32(c.Val))
	case CtrlHDRGradTH:
		err = s.ch.Write(ctx, regCCMP1Exp, uint32(c.Vals[0]))
		if err == nil {
			err = s.ch.Write(ctx, regCCMP2Exp, uint32(c.Vals[1]))
		}
	case CtrlHDRGradCompLow:
		err = s.ch.Write(ctx, regACMP1Exp, uint32(c.Val))
	case CtrlHDRGradCompHigh:
		err = s.ch.Write(ctx, regACMP2Exp, uint32(c.Val))
	case CtrlHDRGainAdder:
		err = s.ch.Write(ctx, regExpGain, uint32(c.Val))
	case CtrlIRCutFilter:
		if s.ircut != nil {
			err = s.ircut.Set(c.Val != 0)
		}
	case CtrlWideDynamicRange:
		// Bookkeeping only; the register blocks are written on stream enable.
	}
	if err != nil {
		s.logWriteErr(c.Name, err)
	}
	return err
}

// applyControls pushes every active control to the hardware in dependency
// order. Used on stream enable after the mode tables are programmed, so the
// control-derived registers are not clobbered by table defaults.
func (s *Sensor) applyControls(ctx context.Context) error {
	for _, id := range applyOrder {
		c := s.ctrl(id)
		if c.Inactive {
			continue
		}
		if err := s.pushControl(ctx, c); err != nil {
			return fmt.Errorf("apply %s: %w", c.Name, err)
		}
	}
	return nil
}

// setHDR runs the HDR toggle transaction: flag flip, control activation,
// HCG mutual exclusion, gain range, timing limits, mode reselection and
// framing limits. No hardware I/O happens here; the HDR register blocks are
// selected on the next stream enable.
func (s *Sensor) setHDR(on bool) {
	if s.hdr == on {
		return
	}
	s.hdr = on

	for _, id := range hdrCluster {
		s.ctrl(id).Inactive = !on
	}
	s.ctrl(CtrlHCGEnable).Inactive = on

	// HCG and ClearHDR are mutually exclusive. The pre-HDR HCG state is
	// restored when HDR turns off again.
	if on {
		s.hcgSaved = s.hcg
		s.hcg = false
		s.ctrl(CtrlHCGEnable).Val = 0
	} else {
		s.hcg = s.hcgSaved
		if s.hcg {
			s.ctrl(CtrlHCGEnable).Val = 1
		} else {
			s.ctrl(CtrlHCGEnable).Val = 0
		}
	}
	s.updateGainLimits()

	// HDR changes which format codes are valid, so reselect the nearest
	// mode from the 12-bit table of the new class and coerce the active
	// code if it is no longer producible.
	s.recomputeModeLimits()
	code := FmtSRGGB12
	if s.cfg.Mono {
		code = FmtY12
	}
	m := nearestMode(s.modesFor(code), s.mode.Width, s.mode.Height)
	s.mode = m
	if s.modesFor(s.code) == nil {
		s.code = s.defaultCode()
	}
	s.applyFramingLimits(m)

	slog.Info("sensor: HDR toggled", "hdr", on, "hcg", s.hcg, "format", s.code.String())
}

// updateGainLimits republishes the analogue gain range from the HCG/HDR
// flags and reclamps the current gain.
func (s *Sensor) updateGainLimits() {
	min := int64(gainMinLCG)
	if s.hcg {
		min = gainMinHCG
	}
	max := int64(gainMax)
	if s.hdr {
		max = gainMaxHDR
	}
	c := s.ctrl(CtrlAnalogueGain)
	c.setRange(min, max, gainStep, clampInt64(c.Val, min, max))
}

// logWriteErr logs a register write failure, rate-limited so a wedged bus
// does not flood the log.
func (s *Sensor) logWriteErr(name string, err error) {
	if s.logLimit.Allow() {
		slog.Error("sensor: control register write failed", "control", name, "err", err)
	}
}

// Controls returns a snapshot of the full control table, in a stable order.
func (s *Sensor) Controls() []ControlInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	order := []ControlID{
		CtrlPixelRate, CtrlLinkFreq, CtrlExposure, CtrlAnalogueGain,
		CtrlVBlank, CtrlHBlank, CtrlBlackLevel, CtrlHFlip, CtrlVFlip,
		CtrlWideDynamicRange, CtrlHCGEnable, CtrlHDRDataSelTH,
		CtrlHDRDataBlend, CtrlHDRGradTH, CtrlHDRGradCompLow,
		CtrlHDRGradCompHigh, CtrlHDRGainAdder, CtrlIRCutFilter,
		CtrlRawHMAX, CtrlRawVMAX, CtrlRawSHR,
	}
	out := make([]ControlInfo, 0, len(order))
	for _, id := range order {
		out = append(out, s.ctrl(id).info())
	}
	return out
}

// Control returns a snapshot of a single control.
func (s *Sensor) Control(id ControlID) (ControlInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := s.ctrl(id)
	if c == nil {
		return ControlInfo{}, fmt.Errorf("%w: id %d", ErrUnknownControl, id)
	}
	return c.info(), nil
}

// ControlByName returns a snapshot of the control with the given API name.
func (s *Sensor) ControlByName(name string) (ControlInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.ctrls {
		if c.Name == name {
			return c.info(), nil
		}
	}
	return ControlInfo{}, fmt.Errorf("%w: %q", ErrUnknownControl, name)
}
