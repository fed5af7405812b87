// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package vsp

import (
	"fmt"

	"github.com/gogpu/vsp/format"
	"github.com/gogpu/vsp/param"
)

// Pads of the scaler.
const (
	ScalerSinkPad   = 0
	ScalerSourcePad = 1
)

// Scaler limits. Ratios are 4.12 fixed point: 4096 is 1:1, larger values
// scale down.
const (
	ScalerMinSize = 4
	ScalerMaxSize = 8190

	scalerMinRatio = 0x0100
	scalerMaxRatio = 0xffff
	scalerUnity    = 4096
)

// Scaler is the up/down scaler (UDS). It keeps the code and changes the
// frame size within the ratio range the hardware supports.
type Scaler struct {
	entity *Entity

	// scaleAlpha is decided by the pipeline at start: the alpha plane is
	// scaled when the scaler input carries per-pixel alpha.
	scaleAlpha bool
}

func newScaler(dev *Device, index int) (*Scaler, error) {
	e, err := newEntity(dev, EntityScaler, index, 2)
	if err != nil {
		return nil, err
	}
	s := &Scaler{entity: e}
	e.subdev = s

	initFormats(s, nil, WhichActive)
	return s, nil
}

// Entity implements Subdev.
func (s *Scaler) Entity() *Entity { return s.entity }

// multiplier returns the line buffer multiplier used for a down scaling
// ratio.
func multiplier(ratio uint32) uint32 {
	mp := ratio / scalerUnity
	switch {
	case mp < 4:
		return 1
	case mp < 8:
		return 2
	default:
		return 4
	}
}

// ScalerOutputSize returns the output size produced from input at ratio.
func ScalerOutputSize(input, ratio uint32) uint32 {
	if ratio > scalerUnity {
		mp := multiplier(ratio)
		return (input-1)/mp*mp*scalerUnity/ratio + 1
	}
	return (input-1)*scalerUnity/ratio + 1
}

// ScalerOutputLimits returns the output size range reachable from input.
// The lower limit is the smallest output whose ScalerRatio still fits in
// the 16-bit ratio field.
func ScalerOutputLimits(input uint32) (lo, hi uint32) {
	lo = max((input-1)*scalerUnity/(scalerMaxRatio+1)+2, ScalerMinSize)
	hi = min(ScalerOutputSize(input, scalerMinRatio), ScalerMaxSize)
	return lo, hi
}

// ScalerRatio returns the ratio scaling input to output.
func ScalerRatio(input, output uint32) uint32 {
	return (input - 1) * scalerUnity / (output - 1)
}

// ScalerPassband returns the filter passband width for ratio.
func ScalerPassband(ratio uint32) uint32 {
	if ratio >= scalerUnity {
		return 64 * 4 * multiplier(ratio)
	}
	return 64 * scalerUnity * 4 / ratio
}

// setAlpha stores the alpha value used by the scaler. It runs with the
// parameter lock held.
func (s *Scaler) setAlpha(p *param.Params, alpha uint8) {
	p.UDS.Alpha = alpha
}

// EnumMbusCode implements Subdev. The source pad reports the sink code.
func (s *Scaler) EnumMbusCode(cfg *PadConfig, pad, index int) (format.Code, error) {
	s.entity.dev.graphMu.Lock()
	defer s.entity.dev.graphMu.Unlock()

	if err := s.entity.checkPad(pad); err != nil {
		return 0, err
	}
	if pad == ScalerSinkPad {
		if index < 0 || index >= len(mbusCodes) {
			return 0, fmt.Errorf("vsp: %s code index %d: %w", s.entity.Name(), index, ErrInvalidArgument)
		}
		return mbusCodes[index], nil
	}
	if index != 0 {
		return 0, fmt.Errorf("vsp: %s code index %d: %w", s.entity.Name(), index, ErrInvalidArgument)
	}
	f, err := s.entity.padFormat(cfg, ScalerSinkPad, whichFor(cfg))
	if err != nil {
		return 0, err
	}
	return f.Code, nil
}

// EnumFrameSize implements Subdev. The source size range follows from the
// sink size and the ratio limits.
func (s *Scaler) EnumFrameSize(cfg *PadConfig, pad, index int, code format.Code) (format.SizeRange, error) {
	s.entity.dev.graphMu.Lock()
	defer s.entity.dev.graphMu.Unlock()

	if err := s.entity.checkPad(pad); err != nil {
		return format.SizeRange{}, err
	}
	sink, err := s.entity.padFormat(cfg, ScalerSinkPad, whichFor(cfg))
	if err != nil {
		return format.SizeRange{}, err
	}
	if index != 0 || code != sink.Code {
		return format.SizeRange{}, fmt.Errorf("vsp: %s frame size %d for %s: %w", s.entity.Name(), index, code, ErrInvalidArgument)
	}

	if pad == ScalerSinkPad {
		return format.SizeRange{
			MinWidth:  ScalerMinSize,
			MaxWidth:  ScalerMaxSize,
			MinHeight: ScalerMinSize,
			MaxHeight: ScalerMaxSize,
		}, nil
	}

	var r format.SizeRange
	r.MinWidth, r.MaxWidth = ScalerOutputLimits(sink.Width)
	r.MinHeight, r.MaxHeight = ScalerOutputLimits(sink.Height)
	return r, nil
}

// Format implements Subdev.
func (s *Scaler) Format(cfg *PadConfig, pad int, which Which) (format.Frame, error) {
	s.entity.dev.graphMu.Lock()
	defer s.entity.dev.graphMu.Unlock()

	f, err := s.entity.padFormat(cfg, pad, which)
	if err != nil {
		return format.Frame{}, err
	}
	return *f, nil
}

func (s *Scaler) tryFormat(cfg *PadConfig, pad int, which Which, f *format.Frame) error {
	if pad == ScalerSinkPad {
		if !f.Code.Supported() {
			f.Code = format.DefaultCode
		}
		f.Width = format.Clamp(f.Width, ScalerMinSize, ScalerMaxSize)
		f.Height = format.Clamp(f.Height, ScalerMinSize, ScalerMaxSize)
	} else {
		sink, err := s.entity.padFormat(cfg, ScalerSinkPad, which)
		if err != nil {
			return err
		}
		f.Code = sink.Code

		lo, hi := ScalerOutputLimits(sink.Width)
		f.Width = format.Clamp(f.Width, lo, hi)
		lo, hi = ScalerOutputLimits(sink.Height)
		f.Height = format.Clamp(f.Height, lo, hi)
	}
	f.Field = format.FieldNone
	f.Colorspace = format.ColorspaceSRGB
	return nil
}

// SetFormat implements Subdev. Setting the sink pad derives the source pad
// format again.
func (s *Scaler) SetFormat(cfg *PadConfig, pad int, which Which, f format.Frame) (format.Frame, error) {
	s.entity.dev.graphMu.Lock()
	defer s.entity.dev.graphMu.Unlock()

	dst, err := s.entity.padFormat(cfg, pad, which)
	if err != nil {
		return f, err
	}
	if err := s.tryFormat(cfg, pad, which, &f); err != nil {
		return f, err
	}
	*dst = f

	if pad == ScalerSinkPad {
		src, err := s.entity.padFormat(cfg, ScalerSourcePad, which)
		if err != nil {
			return f, err
		}
		out := f
		if err := s.tryFormat(cfg, ScalerSourcePad, which, &out); err != nil {
			return f, err
		}
		*src = out
	}
	return f, nil
}

// Selection implements Subdev. The scaler has no selection rectangles.
func (s *Scaler) Selection(_ *PadConfig, pad int, _ Which, target Target) (format.Rect, error) {
	if err := s.entity.checkPad(pad); err != nil {
		return format.Rect{}, err
	}
	return format.Rect{}, fmt.Errorf("vsp: %s selection target %d: %w", s.entity.Name(), target, ErrInvalidArgument)
}

// SetSelection implements Subdev. The scaler has no selection rectangles.
func (s *Scaler) SetSelection(_ *PadConfig, pad int, _ Which, target Target, r format.Rect) (format.Rect, error) {
	if err := s.entity.checkPad(pad); err != nil {
		return r, err
	}
	return r, fmt.Errorf("vsp: %s selection target %d: %w", s.entity.Name(), target, ErrInvalidArgument)
}

// setStream computes the scaling ratios and filter setup from the pad
// sizes.
func (s *Scaler) setStream(enable bool) error {
	if err := s.entity.setStreaming(enable); err != nil {
		return err
	}
	if !enable {
		return nil
	}

	in := s.entity.formats[ScalerSinkPad]
	out := s.entity.formats[ScalerSourcePad]

	hscale := ScalerRatio(in.Width, out.Width)
	vscale := ScalerRatio(in.Height, out.Height)

	// Multi-tap scaling cannot be combined with alpha scaling when scaling
	// down by a factor of 2 or more in either direction.
	multitap := !(s.scaleAlpha && (hscale >= 2*scalerUnity || vscale >= 2*scalerUnity))

	Logger().Debug("vsp: scaler ratios", "entity", s.entity.Name(), "h", hscale, "v", vscale, "multitap", multitap)

	s.entity.dev.withParams(func(p *param.Params) {
		u := &p.UDS
		u.AlphaScaling = s.scaleAlpha
		u.Multitap = multitap
		u.HRatio = uint16(hscale)
		u.VRatio = uint16(vscale)
		u.HPassband = uint16(ScalerPassband(hscale))
		u.VPassband = uint16(ScalerPassband(vscale))
		u.OutWidth = out.Width
		u.OutHeight = out.Height
	})
	return nil
}
