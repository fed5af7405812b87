// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package vsp

import (
	"fmt"

	"github.com/gogpu/vsp/format"
)

// Pads of read and write pipes.
const (
	PipeSinkPad   = 0
	PipeSourcePad = 1
)

// Pipe frame size limits.
const (
	PipeMinSize = 1
	PipeMaxSize = 8190

	// wpfMaxCropOffset is the largest crop offset of a write pipe.
	wpfMaxCropOffset = 255
)

// mbusCodes lists the codes carried on entity links.
var mbusCodes = []format.Code{format.CodeARGB8888, format.CodeAYUV8}

// rwpf holds the pad operations shared by read and write pipes. The sink
// pad sets the frame size, the crop rectangle on the sink pad sets the size
// of the source pad. The source pad may only change the code, which makes
// the pipe convert between RGB and YUV.
type rwpf struct {
	entity    *Entity
	maxWidth  uint32
	maxHeight uint32

	crop format.Rect

	// alpha is the fixed alpha value. Guarded by the device parameter lock.
	alpha uint8
}

func newRWPF(dev *Device, t EntityType, index int) (rwpf, error) {
	e, err := newEntity(dev, t, index, 2)
	if err != nil {
		return rwpf{}, err
	}
	return rwpf{
		entity:    e,
		maxWidth:  PipeMaxSize,
		maxHeight: PipeMaxSize,
		alpha:     uint8(alphaSpec.def),
	}, nil
}

// Entity implements Subdev.
func (r *rwpf) Entity() *Entity { return r.entity }

// memFormat returns the memory format of the video node bound to the pipe.
func (r *rwpf) memFormat() (format.PixFormat, *format.Info) {
	if r.entity.video == nil {
		var pix format.PixFormat
		info := format.TryPixFormat(&pix)
		return pix, info
	}
	return r.entity.video.Format()
}

// premultiplied reports whether the memory format has premultiplied alpha.
func (r *rwpf) premultiplied() bool {
	pix, _ := r.memFormat()
	return pix.Premultiplied()
}

// EnumMbusCode implements Subdev.
func (r *rwpf) EnumMbusCode(_ *PadConfig, pad, index int) (format.Code, error) {
	if err := r.entity.checkPad(pad); err != nil {
		return 0, err
	}
	if index < 0 || index >= len(mbusCodes) {
		return 0, fmt.Errorf("vsp: %s code index %d: %w", r.entity.Name(), index, ErrInvalidArgument)
	}
	return mbusCodes[index], nil
}

// EnumFrameSize implements Subdev. The source pad size is fixed by the
// sink pad and the crop rectangle.
func (r *rwpf) EnumFrameSize(cfg *PadConfig, pad, index int, code format.Code) (format.SizeRange, error) {
	r.entity.dev.graphMu.Lock()
	defer r.entity.dev.graphMu.Unlock()

	f, err := r.entity.padFormat(cfg, pad, whichFor(cfg))
	if err != nil {
		return format.SizeRange{}, err
	}
	if index != 0 || code != f.Code {
		return format.SizeRange{}, fmt.Errorf("vsp: %s frame size %d for %s: %w", r.entity.Name(), index, code, ErrInvalidArgument)
	}

	if pad == PipeSinkPad {
		return format.SizeRange{
			MinWidth:  PipeMinSize,
			MaxWidth:  r.maxWidth,
			MinHeight: PipeMinSize,
			MaxHeight: r.maxHeight,
		}, nil
	}
	return format.SizeRange{
		MinWidth:  f.Width,
		MaxWidth:  f.Width,
		MinHeight: f.Height,
		MaxHeight: f.Height,
	}, nil
}

// Format implements Subdev.
func (r *rwpf) Format(cfg *PadConfig, pad int, which Which) (format.Frame, error) {
	r.entity.dev.graphMu.Lock()
	defer r.entity.dev.graphMu.Unlock()

	f, err := r.entity.padFormat(cfg, pad, which)
	if err != nil {
		return format.Frame{}, err
	}
	return *f, nil
}

// SetFormat implements Subdev.
func (r *rwpf) SetFormat(cfg *PadConfig, pad int, which Which, f format.Frame) (format.Frame, error) {
	r.entity.dev.graphMu.Lock()
	defer r.entity.dev.graphMu.Unlock()

	dst, err := r.entity.padFormat(cfg, pad, which)
	if err != nil {
		return f, err
	}

	if !f.Code.Supported() {
		f.Code = format.DefaultCode
	}

	if pad == PipeSourcePad {
		dst.Code = f.Code
		return *dst, nil
	}

	f.Width = format.Clamp(f.Width, PipeMinSize, r.maxWidth)
	f.Height = format.Clamp(f.Height, PipeMinSize, r.maxHeight)
	f.Field = format.FieldNone
	f.Colorspace = format.ColorspaceSRGB
	*dst = f

	crop, err := r.entity.padRect(cfg, PipeSinkPad, which, &r.crop)
	if err != nil {
		return f, err
	}
	*crop = format.FullRect(f.Width, f.Height)

	src, err := r.entity.padFormat(cfg, PipeSourcePad, which)
	if err != nil {
		return f, err
	}
	*src = f
	return f, nil
}

// Selection implements Subdev. Only the sink pad has a crop rectangle.
func (r *rwpf) Selection(cfg *PadConfig, pad int, which Which, target Target) (format.Rect, error) {
	r.entity.dev.graphMu.Lock()
	defer r.entity.dev.graphMu.Unlock()

	if err := r.entity.checkPad(pad); err != nil {
		return format.Rect{}, err
	}
	if pad != PipeSinkPad {
		return format.Rect{}, fmt.Errorf("vsp: %s pad %d selection: %w", r.entity.Name(), pad, ErrInvalidPad)
	}

	switch target {
	case TargetCrop:
		crop, err := r.entity.padRect(cfg, pad, which, &r.crop)
		if err != nil {
			return format.Rect{}, err
		}
		return *crop, nil
	case TargetCropBounds, TargetCropDefault:
		f, err := r.entity.padFormat(cfg, pad, which)
		if err != nil {
			return format.Rect{}, err
		}
		return format.FullRect(f.Width, f.Height), nil
	default:
		return format.Rect{}, fmt.Errorf("vsp: %s selection target %d: %w", r.entity.Name(), target, ErrInvalidArgument)
	}
}

// SetSelection implements Subdev. The crop rectangle is aligned to 2
// pixels for YUV and kept inside the sink frame, and the source pad takes
// its size.
func (r *rwpf) SetSelection(cfg *PadConfig, pad int, which Which, target Target, rect format.Rect) (format.Rect, error) {
	r.entity.dev.graphMu.Lock()
	defer r.entity.dev.graphMu.Unlock()

	if err := r.entity.checkPad(pad); err != nil {
		return rect, err
	}
	if pad != PipeSinkPad {
		return rect, fmt.Errorf("vsp: %s pad %d selection: %w", r.entity.Name(), pad, ErrInvalidPad)
	}
	if target != TargetCrop {
		return rect, fmt.Errorf("vsp: %s selection target %d: %w", r.entity.Name(), target, ErrInvalidArgument)
	}

	f, err := r.entity.padFormat(cfg, PipeSinkPad, which)
	if err != nil {
		return rect, err
	}

	if f.Code.IsYUV() {
		rect.Left = (rect.Left + 1) &^ 1
		rect.Top = (rect.Top + 1) &^ 1
		rect.Width &^= 1
		rect.Height &^= 1
	}

	rect.Left = min(rect.Left, satSub(f.Width, 2))
	rect.Top = min(rect.Top, satSub(f.Height, 2))
	if r.entity.Type == EntityWritePipe {
		rect.Left = min(rect.Left, wpfMaxCropOffset)
		rect.Top = min(rect.Top, wpfMaxCropOffset)
	}
	rect.Width = min(rect.Width, f.Width-rect.Left)
	rect.Height = min(rect.Height, f.Height-rect.Top)

	crop, err := r.entity.padRect(cfg, PipeSinkPad, which, &r.crop)
	if err != nil {
		return rect, err
	}
	*crop = rect

	src, err := r.entity.padFormat(cfg, PipeSourcePad, which)
	if err != nil {
		return rect, err
	}
	src.Width = rect.Width
	src.Height = rect.Height
	return rect, nil
}
