package sensor

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// grabbedWhileStreaming are the controls that cannot change mid-stream
// because they alter the readout geometry or the output format.
var grabbedWhileStreaming = []ControlID{
	CtrlHFlip, CtrlVFlip, CtrlWideDynamicRange,
}

// Start powers the sensor up if needed, programs it for the active mode and
// format, pushes the cached controls and enables streaming. On any failure
// the device is returned to the pre-call power state; a power reference
// taken by this call is released exactly once.
func (s *Sensor) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.streaming {
		return nil
	}

	wasPowered := s.powered
	if !wasPowered {
		if err := s.pwr.On(ctx); err != nil {
			return fmt.Errorf("stream start: power on: %w", err)
		}
		s.powered = true
	}

	if err := s.programAndEnable(ctx); err != nil {
		if !wasPowered {
			s.powered = false
			s.commonWritten = false
			if offErr := s.pwr.Off(ctx); offErr != nil {
				slog.Error("sensor: power off after failed start", "err", offErr)
			}
		}
		return fmt.Errorf("stream start: %w", err)
	}

	s.streaming = true
	for _, id := range grabbedWhileStreaming {
		s.ctrl(id).Grabbed = true
	}
	slog.Info("sensor: streaming started",
		"format", s.code.String(),
		"width", s.mode.Width, "height", s.mode.Height,
		"hdr", s.hdr, "vmax", s.vmax, "hmax", s.hmax)
	return nil
}

// programAndEnable issues the full enable sequence. Caller holds the lock
// and has powered the device.
func (s *Sensor) programAndEnable(ctx context.Context) error {
	// Common init block, once per power cycle.
	if !s.commonWritten {
		if err := s.ch.WriteSeq(ctx, commonRegs); err != nil {
			return fmt.Errorf("common init: %w", err)
		}
		s.commonWritten = true
	}

	if err := s.ch.Write(ctx, regINCKSel, s.cfg.INCKSel); err != nil {
		return fmt.Errorf("inck select: %w", err)
	}
	if err := s.ch.Write(ctx, regBlackLevel, blackLevelDefault); err != nil {
		return fmt.Errorf("black level: %w", err)
	}
	if err := s.ch.Write(ctx, regDatarate, datarateSel[s.cfg.LinkFreqIdx]); err != nil {
		return fmt.Errorf("datarate select: %w", err)
	}
	laneMode := uint32(0x03)
	if s.cfg.Lanes == 2 {
		laneMode = 0x01
	}
	if err := s.ch.Write(ctx, regLaneMode, laneMode); err != nil {
		return fmt.Errorf("lane mode: %w", err)
	}
	binMode := uint32(0x00)
	if s.cfg.Mono {
		binMode = 0x01
	}
	if err := s.ch.Write(ctx, regBinMode, binMode); err != nil {
		return fmt.Errorf("bin mode: %w", err)
	}
	if err := s.writeSyncMode(ctx); err != nil {
		return fmt.Errorf("sync mode: %w", err)
	}

	if err := s.ch.WriteSeq(ctx, s.mode.regs); err != nil {
		return fmt.Errorf("mode registers: %w", err)
	}
	if err := s.writeHDRMode(ctx); err != nil {
		return err
	}
	if err := s.ch.Write(ctx, regDigClamp, 0x00); err != nil {
		return fmt.Errorf("digital clamp: %w", err)
	}

	if err := s.applyControls(ctx); err != nil {
		return err
	}

	// In external sync both XVS and XHS are inputs; the master start pulse
	// would fight the external timing source.
	if s.cfg.Sync != SyncExternal {
		if err := s.ch.Write(ctx, regXMSTA, 0x00); err != nil {
			return fmt.Errorf("master start: %w", err)
		}
	}
	if err := s.ch.Write(ctx, regModeSelect, modeStreaming); err != nil {
		return fmt.Errorf("mode select: %w", err)
	}
	return sleepCtx(ctx, streamSettle)
}

// writeSyncMode programs the XVS/XHS pin directions for the configured
// frame timing source.
func (s *Sensor) writeSyncMode(ctx context.Context) error {
	var extMode, drv, outSel uint32
	switch s.cfg.Sync {
	case SyncInternalFollower:
		// XVS input, XHS output.
		extMode, drv, outSel = 0x01, 0x03, 0x08
	case SyncExternal:
		// Both pins driven externally, outputs Hi-Z.
		extMode, drv, outSel = 0x00, 0x0f, 0x00
	default:
		// Leader: both pins output for downstream followers.
		extMode, drv, outSel = 0x00, 0x00, 0x0a
	}
	if err := s.ch.Write(ctx, regExtMode, extMode); err != nil {
		return err
	}
	if err := s.ch.Write(ctx, regXXSDrv, drv); err != nil {
		return err
	}
	if s.cfg.Sync == SyncInternalLeader {
		if err := s.ch.Write(ctx, regXVSLng, 0x00); err != nil {
			return err
		}
		if err := s.ch.Write(ctx, regXHSLng, 0x03); err != nil {
			return err
		}
	}
	return s.ch.Write(ctx, regXXSOutSel, outSel)
}

// writeHDRMode selects the ClearHDR or normal register block and the
// gradation compression path for the active format depth. 16-bit output
// carries the linear HDR data, so compression is bypassed and the output
// depth register widened.
func (s *Sensor) writeHDRMode(ctx context.Context) error {
	if !s.hdr {
		if err := s.ch.WriteSeq(ctx, normalRegs); err != nil {
			return fmt.Errorf("normal mode registers: %w", err)
		}
		return s.ch.Write(ctx, regCCMPEn, 0x00)
	}
	if err := s.ch.WriteSeq(ctx, clearHDRRegs); err != nil {
		return fmt.Errorf("clear hdr registers: %w", err)
	}
	if s.code.is16Bit() {
		if err := s.ch.Write(ctx, regCCMPEn, 0x00); err != nil {
			return err
		}
		return s.ch.Write(ctx, regMDBit, 0x03)
	}
	return s.ch.Write(ctx, regCCMPEn, 0x01)
}

// Stop places the sensor in standby, releases the grabbed controls and
// powers it down. The standby write failure is reported but power is
// released regardless; a wedged bus must not leave the supply on.
func (s *Sensor) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.streaming {
		return nil
	}

	err := s.ch.Write(ctx, regModeSelect, modeStandby)
	if err != nil {
		s.logWriteErr("mode-select", err)
	}

	s.streaming = false
	for _, id := range grabbedWhileStreaming {
		s.ctrl(id).Grabbed = false
	}

	s.powered = false
	s.commonWritten = false
	if offErr := s.pwr.Off(ctx); offErr != nil && err == nil {
		err = offErr
	}
	if err != nil {
		return fmt.Errorf("stream stop: %w", err)
	}
	slog.Info("sensor: streaming stopped")
	return nil
}

// Streaming reports whether the sensor is currently streaming.
func (s *Sensor) Streaming() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.streaming
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
