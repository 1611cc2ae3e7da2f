package sensor

import "github.com/soho-enterprise/imx585-go/internal/regio"

// FormatCode identifies a media bus pixel format produced by the sensor.
type FormatCode int

const (
	FmtSRGGB12 FormatCode = iota
	FmtSGRBG12
	FmtSGBRG12
	FmtSBGGR12
	FmtSRGGB16
	FmtSGRBG16
	FmtSGBRG16
	FmtSBGGR16
	FmtY12
	FmtY16
)

var formatNames = map[FormatCode]string{
	FmtSRGGB12: "SRGGB12",
	FmtSGRBG12: "SGRBG12",
	FmtSGBRG12: "SGBRG12",
	FmtSBGGR12: "SBGGR12",
	FmtSRGGB16: "SRGGB16",
	FmtSGRBG16: "SGRBG16",
	FmtSGBRG16: "SGBRG16",
	FmtSBGGR16: "SBGGR16",
	FmtY12:     "Y12",
	FmtY16:     "Y16",
}

func (c FormatCode) String() string {
	if s, ok := formatNames[c]; ok {
		return s
	}
	return "unknown"
}

// ParseFormatCode resolves a format name as used by the HTTP API.
func ParseFormatCode(name string) (FormatCode, bool) {
	for c, s := range formatNames {
		if s == name {
			return c, true
		}
	}
	return 0, false
}

// is16Bit reports whether the code carries 16-bit samples (ClearHDR linear
// output).
func (c FormatCode) is16Bit() bool {
	switch c {
	case FmtSRGGB16, FmtSGRBG16, FmtSGBRG16, FmtSBGGR16, FmtY16:
		return true
	}
	return false
}

// isMono reports whether the code is a monochrome format.
func (c FormatCode) isMono() bool {
	return c == FmtY12 || c == FmtY16
}

// Rect is a pixel array rectangle.
type Rect struct {
	Left   int `json:"left"`
	Top    int `json:"top"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Mode describes one supported readout configuration. MinHMax and MinVMax
// depend on link frequency, lane count and HDR state; they are recomputed
// into the per-device mode table whenever any of those change.
type Mode struct {
	Width   int
	Height  int
	HMaxDiv uint32 // per-mode scaling of the minimum HMAX
	MinHMax uint32
	MinVMax uint32
	Crop    Rect

	regs []regio.RegVal
}

// newModeTable returns a fresh mode table for one device instance.
// Each Sensor owns its copy so that recomputed limits never leak across
// instances.
func newModeTable() []Mode {
	crop := Rect{
		Left:   pixelArrayLeft,
		Top:    pixelArrayTop,
		Width:  pixelArrayWidth,
		Height: pixelArrayHeight,
	}
	return []Mode{
		{
			// 1080p 2x2 binning
			Width:   1928,
			Height:  1090,
			HMaxDiv: 1,
			MinVMax: vmaxDefault,
			Crop:    crop,
			regs:    mode1080Regs,
		},
		{
			// 4K all pixel
			Width:   3856,
			Height:  2180,
			HMaxDiv: 1,
			MinVMax: vmaxDefault,
			Crop:    crop,
			regs:    mode4KRegs,
		},
	}
}

// modesFor returns the candidate modes for a format code under the current
// mono/HDR flags. 16-bit codes require ClearHDR; mono sensors only produce
// Y codes and color sensors only Bayer codes. An empty result means the
// combination is unsupported.
func (s *Sensor) modesFor(code FormatCode) []Mode {
	if code.isMono() != s.cfg.Mono {
		return nil
	}
	if code.is16Bit() && !s.hdr {
		return nil
	}
	switch code {
	case FmtSRGGB12, FmtSGRBG12, FmtSGBRG12, FmtSBGGR12,
		FmtSRGGB16, FmtSGRBG16, FmtSGBRG16, FmtSBGGR16,
		FmtY12, FmtY16:
		return s.modes
	}
	return nil
}

// defaultCode returns the preferred format code for the current mono/HDR
// class: 16-bit linear when ClearHDR is on, 12-bit otherwise.
func (s *Sensor) defaultCode() FormatCode {
	switch {
	case s.cfg.Mono && s.hdr:
		return FmtY16
	case s.cfg.Mono:
		return FmtY12
	case s.hdr:
		return FmtSRGGB16
	default:
		return FmtSRGGB12
	}
}

// nearestMode picks the candidate closest to the requested size, comparing
// width and height distance like the v4l2 nearest-size helper.
func nearestMode(modes []Mode, width, height int) *Mode {
	var best *Mode
	bestDist := int(^uint(0) >> 1)
	for i := range modes {
		m := &modes[i]
		dw := m.Width - width
		if dw < 0 {
			dw = -dw
		}
		dh := m.Height - height
		if dh < 0 {
			dh = -dh
		}
		if d := dw*dw + dh*dh; d < bestDist {
			bestDist = d
			best = m
		}
	}
	return best
}
