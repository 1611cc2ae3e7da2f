package sensor

import "log/slog"

// MinHMax returns the minimum legal horizontal period in clocks for a mode
// with the given HMAX divisor, at the given link frequency index and lane
// count. Pure function of the base HMAX table; callers must pass values
// already validated by NewHWConfig.
func MinHMax(linkFreqIdx, lanes int, hmaxDiv uint32) uint32 {
	base := baseHMax4Lane[linkFreqIdx]
	laneScale := uint32(1)
	if lanes == 2 {
		laneScale = 2
	}
	return base * laneScale / hmaxDiv
}

// MinVMax returns the minimum legal vertical period in lines. ClearHDR
// doubles the frame period because two exposures are read out per frame.
func MinVMax(hdr bool) uint32 {
	if hdr {
		return 2 * vmaxDefault
	}
	return vmaxDefault
}

// minSHR returns the minimum shutter register value for the current HDR
// state; it bounds the maximum exposure at a given VMAX.
func minSHR(hdr bool) uint32 {
	if hdr {
		return shrMinHDR
	}
	return shrMin
}

// recomputeModeLimits refreshes the per-mode HMAX/VMAX minimums from the
// current link frequency, lane count and HDR state. Must run on device init
// and on every HDR toggle; the published control ranges are only valid
// against fresh limits.
func (s *Sensor) recomputeModeLimits() {
	for i := range s.modes {
		m := &s.modes[i]
		m.MinHMax = MinHMax(s.cfg.LinkFreqIdx, s.cfg.Lanes, m.HMaxDiv)
		m.MinVMax = MinVMax(s.hdr)
		slog.Debug("sensor: mode limits",
			"mode", slog.GroupValue(slog.Int("width", m.Width), slog.Int("height", m.Height)),
			"min_hmax", m.MinHMax, "min_vmax", m.MinVMax)
	}
}

// pixelRate is the throughput proxy for a mode: width scaled by the line
// clock over the minimum horizontal period. Downstream consumers (ISP/DMA)
// use it to convert blanking in pixels to line timing.
func pixelRate(m *Mode) int64 {
	return int64(m.Width) * pixelRateConst / int64(m.MinHMax)
}

// applyFramingLimits resets the live HMAX/VMAX to the mode minimums and
// republishes the dependent control ranges. Must be called after every mode
// selection and after every HDR toggle. Calling it twice with no intervening
// state change is a no-op.
func (s *Sensor) applyFramingLimits(m *Mode) {
	s.recomputeModeLimits()

	s.vmax = m.MinVMax
	s.hmax = m.MinHMax

	rate := pixelRate(m)
	s.ctrl(CtrlPixelRate).setRange(rate, rate, 1, rate)

	maxHBlank := int64(hmaxMax)*rate/pixelRateConst - int64(m.Width)
	s.ctrl(CtrlHBlank).setRange(0, maxHBlank, 1, 0)

	minVBlank := int64(m.MinVMax) - int64(m.Height)
	s.ctrl(CtrlVBlank).setRange(minVBlank, vmaxMax-int64(m.Height), 1, minVBlank)

	s.clampExposureRange()
	s.ctrl(CtrlExposure).Val = clampInt64(exposureDefault,
		s.ctrl(CtrlExposure).Min, s.ctrl(CtrlExposure).Max)

	slog.Info("sensor: framing limits applied",
		"mode", slog.GroupValue(slog.Int("width", m.Width), slog.Int("height", m.Height)),
		"vmax", s.vmax, "hmax", s.hmax, "pixel_rate", rate)
}

// clampExposureRange recomputes the exposure bounds from the live VMAX and
// reclamps the current exposure. Must run before any VMAX register write so
// that a previously-valid exposure is never left out of range. A VMAX below
// the shutter margin (reachable through the raw override) floors the bound
// at the exposure minimum so the range never inverts.
func (s *Sensor) clampExposureRange() {
	c := s.ctrl(CtrlExposure)
	max := int64(s.vmax) - int64(minSHR(s.hdr))
	if max < exposureMin {
		max = exposureMin
	}
	c.setRange(exposureMin, max, exposureStep, clampInt64(c.Val, exposureMin, max))
}

// shrFor converts exposure in lines to the shutter register value, floored
// at the device minimum. The device requires SHR to be a multiple of 2, so
// odd results round down.
func (s *Sensor) shrFor(exposure uint32) uint32 {
	shr := int64(s.vmax) - int64(exposure)
	if min := int64(minSHR(s.hdr)); shr < min {
		shr = min
	}
	return uint32(shr) &^ 1
}

// hmaxFor converts horizontal blanking in pixels to an HMAX register value,
// rounding half up.
func hmaxFor(m *Mode, hblank uint32) uint32 {
	w := uint64(m.Width)
	return uint32((uint64(m.MinHMax)*(w+uint64(hblank)) + w/2) / w)
}

func clampInt64(v, lo, hi int64) int64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
