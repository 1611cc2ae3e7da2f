package sensor

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/time/rate"

	"github.com/soho-enterprise/imx585-go/internal/power"
	"github.com/soho-enterprise/imx585-go/internal/regio"
)

// HWConfig is the validated board wiring of one sensor instance. Build it
// with NewHWConfig; a zero value is not usable.
type HWConfig struct {
	Lanes       int      // 2 or 4 CSI-2 data lanes
	LinkFreqIdx int      // index into the link frequency table
	INCKSel     uint32   // INCK_SEL register value for the board xclk
	Mono        bool     // monochrome sensor variant
	Sync        SyncMode // frame timing source
}

// NewHWConfig validates board parameters against the sensor tables. Every
// mismatch is reported as ErrBadConfig so callers can distinguish wiring
// errors from runtime faults.
func NewHWConfig(lanes int, linkHz int64, xclkHz uint32, mono bool, syncMode string) (HWConfig, error) {
	cfg := HWConfig{Mono: mono}

	if lanes != 2 && lanes != 4 {
		return cfg, fmt.Errorf("%w: %d data lanes (need 2 or 4)", ErrBadConfig, lanes)
	}
	cfg.Lanes = lanes

	cfg.LinkFreqIdx = -1
	for i, f := range linkFreqs {
		if f == linkHz {
			cfg.LinkFreqIdx = i
			break
		}
	}
	if cfg.LinkFreqIdx < 0 {
		return cfg, fmt.Errorf("%w: link frequency %d Hz not supported", ErrBadConfig, linkHz)
	}

	found := false
	for _, e := range inckTable {
		if e.xclkHz == xclkHz {
			cfg.INCKSel = e.inckSel
			found = true
			break
		}
	}
	if !found {
		return cfg, fmt.Errorf("%w: external clock %d Hz not supported", ErrBadConfig, xclkHz)
	}

	switch syncMode {
	case "", "internal-leader":
		cfg.Sync = SyncInternalLeader
	case "internal-follower":
		cfg.Sync = SyncInternalFollower
	case "external":
		cfg.Sync = SyncExternal
	default:
		return cfg, fmt.Errorf("%w: sync mode %q", ErrBadConfig, syncMode)
	}

	return cfg, nil
}

// Sensor is the control core for one IMX585. All exported methods are safe
// for concurrent use; a single mutex serializes state changes and register
// traffic, matching the one-transaction-at-a-time nature of the bus.
type Sensor struct {
	mu sync.Mutex

	ch    regio.Channel
	pwr   power.Sequencer
	ircut power.Filter // nil when the board has no IR-cut drive
	cfg   HWConfig

	modes []Mode
	mode  *Mode
	code  FormatCode

	hdr      bool
	hcg      bool
	hcgSaved bool

	vmax uint32
	hmax uint32

	powered       bool
	streaming     bool
	commonWritten bool // common init block written this power cycle

	ctrls    map[ControlID]*Control
	logLimit *rate.Limiter
}

// New builds a Sensor over the given register channel and power sequencer.
// ircut may be nil. The device starts powered down on the default mode of
// its format class.
func New(ch regio.Channel, pwr power.Sequencer, ircut power.Filter, cfg HWConfig) *Sensor {
	s := &Sensor{
		ch:       ch,
		pwr:      pwr,
		ircut:    ircut,
		cfg:      cfg,
		modes:    newModeTable(),
		ctrls:    newControls(cfg.LinkFreqIdx, ircut != nil),
		logLimit: rate.NewLimiter(rate.Limit(1), 5),
	}
	s.code = s.defaultCode()
	s.mode = &s.modes[0]
	s.applyFramingLimits(s.mode)
	return s
}

// Attach powers the sensor up briefly and probes it over the bus. It leaves
// the device powered down regardless of outcome. Called once at startup so a
// miswired or absent sensor fails fast instead of at first stream.
func (s *Sensor) Attach(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.pwr.On(ctx); err != nil {
		return fmt.Errorf("attach: power on: %w", err)
	}
	_, err := s.ch.Read(ctx, regBlackLevel)
	if offErr := s.pwr.Off(ctx); offErr != nil && err == nil {
		err = offErr
	}
	if err != nil {
		return fmt.Errorf("attach: probe: %w", err)
	}
	slog.Info("sensor: attached",
		"lanes", s.cfg.Lanes,
		"link_freq_hz", linkFreqs[s.cfg.LinkFreqIdx],
		"mono", s.cfg.Mono,
		"sync", s.cfg.Sync.String())
	return nil
}

// SetFormat selects a format code and the supported mode nearest to the
// requested size, then resets framing to the mode defaults. Unsupported
// code/flag combinations are rejected rather than silently coerced.
// Rejected while streaming.
func (s *Sensor) SetFormat(code FormatCode, width, height int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.streaming {
		return fmt.Errorf("%w: cannot change format while streaming", ErrInvalidArgument)
	}
	cands := s.modesFor(code)
	if cands == nil {
		return fmt.Errorf("%w: format %s unsupported (mono=%v hdr=%v)",
			ErrInvalidArgument, code, s.cfg.Mono, s.hdr)
	}
	m := nearestMode(cands, width, height)
	s.code = code
	s.mode = m
	s.applyFramingLimits(m)
	slog.Info("sensor: format set",
		"format", code.String(), "width", m.Width, "height", m.Height)
	return nil
}

// Format returns the active format code and mode geometry.
func (s *Sensor) Format() (FormatCode, int, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.code, s.mode.Width, s.mode.Height
}

// ModeInfo describes one selectable readout configuration.
type ModeInfo struct {
	Width   int  `json:"width"`
	Height  int  `json:"height"`
	MinHMax int  `json:"min_hmax"`
	MinVMax int  `json:"min_vmax"`
	Crop    Rect `json:"crop"`
}

// Modes lists the readout configurations available for the active format
// class, with limits computed for the current link setup and HDR state.
func (s *Sensor) Modes() []ModeInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]ModeInfo, 0, len(s.modes))
	for i := range s.modes {
		m := &s.modes[i]
		out = append(out, ModeInfo{
			Width:   m.Width,
			Height:  m.Height,
			MinHMax: int(m.MinHMax),
			MinVMax: int(m.MinVMax),
			Crop:    m.Crop,
		})
	}
	return out
}

// Status is a point-in-time snapshot of the device state.
type Status struct {
	Powered   bool   `json:"powered"`
	Streaming bool   `json:"streaming"`
	Format    string `json:"format"`
	Width     int    `json:"width"`
	Height    int    `json:"height"`
	HDR       bool   `json:"hdr"`
	HCG       bool   `json:"hcg"`
	VMax      uint32 `json:"vmax"`
	HMax      uint32 `json:"hmax"`
	PixelRate int64  `json:"pixel_rate"`
	LinkFreq  int64  `json:"link_freq_hz"`
	Lanes     int    `json:"lanes"`
	Mono      bool   `json:"mono"`
	Sync      string `json:"sync"`
	Crop      Rect   `json:"crop"`
}

// State returns the current device status.
func (s *Sensor) State() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Status{
		Powered:   s.powered,
		Streaming: s.streaming,
		Format:    s.code.String(),
		Width:     s.mode.Width,
		Height:    s.mode.Height,
		HDR:       s.hdr,
		HCG:       s.hcg,
		VMax:      s.vmax,
		HMax:      s.hmax,
		PixelRate: pixelRate(s.mode),
		LinkFreq:  linkFreqs[s.cfg.LinkFreqIdx],
		Lanes:     s.cfg.Lanes,
		Mono:      s.cfg.Mono,
		Sync:      s.cfg.Sync.String(),
		Crop:      s.mode.Crop,
	}
}
