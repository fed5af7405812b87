// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package vsp

import (
	"fmt"

	"github.com/gogpu/vsp/format"
	"github.com/gogpu/vsp/param"
)

// Compositor frame size limits.
const (
	CompositorMinSize = 1
	CompositorMaxSize = 8190
)

// CompositorSourcePad is the output pad of the compositor. Pads 0 to 3 are
// its inputs.
const CompositorSourcePad = param.MaxSources

// CompositorInput is one input slot of the compositor.
type CompositorInput struct {
	// rpf is the read pipe bound to the slot by the started pipeline.
	rpf *ReadPipe

	// compose is the position of the input in the output frame. Its size
	// always equals the input pad format.
	compose format.Rect
}

// Compositor is the blend/ROP unit. It cannot convert formats: the code
// set on pad 0 applies to every pad.
type Compositor struct {
	entity *Entity
	inputs [param.MaxSources]CompositorInput
}

func newCompositor(dev *Device) (*Compositor, error) {
	e, err := newEntity(dev, EntityCompositor, 0, CompositorSourcePad+1)
	if err != nil {
		return nil, err
	}
	c := &Compositor{entity: e}
	e.subdev = c

	initFormats(c, nil, WhichActive)
	e.ctrls = newControlHandler(c.applyControl, backgroundColorSpec)
	return c, nil
}

// Entity implements Subdev.
func (c *Compositor) Entity() *Entity { return c.entity }

// Input returns the read pipe bound to input slot i by the started
// pipeline, or nil.
func (c *Compositor) Input(i int) *ReadPipe {
	c.entity.dev.graphMu.Lock()
	defer c.entity.dev.graphMu.Unlock()
	if i < 0 || i >= len(c.inputs) {
		return nil
	}
	return c.inputs[i].rpf
}

// applyControl writes the background color to the parameter block.
func (c *Compositor) applyControl(id ControlID, val int32) error {
	if !c.entity.IsStreaming() {
		return nil
	}
	if id == ControlBackgroundColor {
		c.entity.dev.withParams(func(p *param.Params) {
			p.BRU.Virtual.Color = param.NewBackgroundColor(uint32(val))
		})
	}
	return nil
}

// EnumMbusCode implements Subdev. Only pad 0 offers a choice, the other
// pads report the code of pad 0.
func (c *Compositor) EnumMbusCode(cfg *PadConfig, pad, index int) (format.Code, error) {
	c.entity.dev.graphMu.Lock()
	defer c.entity.dev.graphMu.Unlock()

	if err := c.entity.checkPad(pad); err != nil {
		return 0, err
	}
	if pad == 0 {
		if index < 0 || index >= len(mbusCodes) {
			return 0, fmt.Errorf("vsp: %s code index %d: %w", c.entity.Name(), index, ErrInvalidArgument)
		}
		return mbusCodes[index], nil
	}
	if index != 0 {
		return 0, fmt.Errorf("vsp: %s code index %d: %w", c.entity.Name(), index, ErrInvalidArgument)
	}
	f, err := c.entity.padFormat(cfg, 0, whichFor(cfg))
	if err != nil {
		return 0, err
	}
	return f.Code, nil
}

// EnumFrameSize implements Subdev.
func (c *Compositor) EnumFrameSize(_ *PadConfig, pad, index int, code format.Code) (format.SizeRange, error) {
	if err := c.entity.checkPad(pad); err != nil {
		return format.SizeRange{}, err
	}
	if index != 0 || !code.Supported() {
		return format.SizeRange{}, fmt.Errorf("vsp: %s frame size %d for %s: %w", c.entity.Name(), index, code, ErrInvalidArgument)
	}
	return format.SizeRange{
		MinWidth:  CompositorMinSize,
		MaxWidth:  CompositorMaxSize,
		MinHeight: CompositorMinSize,
		MaxHeight: CompositorMaxSize,
	}, nil
}

// Format implements Subdev.
func (c *Compositor) Format(cfg *PadConfig, pad int, which Which) (format.Frame, error) {
	c.entity.dev.graphMu.Lock()
	defer c.entity.dev.graphMu.Unlock()

	f, err := c.entity.padFormat(cfg, pad, which)
	if err != nil {
		return format.Frame{}, err
	}
	return *f, nil
}

func (c *Compositor) tryFormat(cfg *PadConfig, pad int, which Which, f *format.Frame) error {
	if pad == 0 {
		if !f.Code.Supported() {
			f.Code = format.DefaultCode
		}
	} else {
		sink, err := c.entity.padFormat(cfg, 0, which)
		if err != nil {
			return err
		}
		f.Code = sink.Code
	}

	f.Width = format.Clamp(f.Width, CompositorMinSize, CompositorMaxSize)
	f.Height = format.Clamp(f.Height, CompositorMinSize, CompositorMaxSize)
	f.Field = format.FieldNone
	f.Colorspace = format.ColorspaceSRGB
	return nil
}

// SetFormat implements Subdev. Setting an input pad resets its compose
// rectangle, and the code set on pad 0 is written to every pad.
func (c *Compositor) SetFormat(cfg *PadConfig, pad int, which Which, f format.Frame) (format.Frame, error) {
	c.entity.dev.graphMu.Lock()
	defer c.entity.dev.graphMu.Unlock()

	dst, err := c.entity.padFormat(cfg, pad, which)
	if err != nil {
		return f, err
	}
	if err := c.tryFormat(cfg, pad, which, &f); err != nil {
		return f, err
	}
	*dst = f

	if pad != CompositorSourcePad {
		compose, err := c.compose(cfg, pad, which)
		if err != nil {
			return f, err
		}
		*compose = format.FullRect(f.Width, f.Height)
	}

	if pad == 0 {
		for i := range c.entity.pads {
			other, err := c.entity.padFormat(cfg, i, which)
			if err != nil {
				return f, err
			}
			other.Code = f.Code
		}
	}
	return f, nil
}

func (c *Compositor) compose(cfg *PadConfig, pad int, which Which) (*format.Rect, error) {
	if pad < 0 || pad >= len(c.inputs) {
		return nil, fmt.Errorf("vsp: %s pad %d has no compose rectangle: %w", c.entity.Name(), pad, ErrInvalidPad)
	}
	return c.entity.padRect(cfg, pad, which, &c.inputs[pad].compose)
}

// Selection implements Subdev. Input pads have a compose rectangle.
func (c *Compositor) Selection(cfg *PadConfig, pad int, which Which, target Target) (format.Rect, error) {
	c.entity.dev.graphMu.Lock()
	defer c.entity.dev.graphMu.Unlock()

	if err := c.entity.checkPad(pad); err != nil {
		return format.Rect{}, err
	}
	if pad == CompositorSourcePad {
		return format.Rect{}, fmt.Errorf("vsp: %s source pad selection: %w", c.entity.Name(), ErrInvalidPad)
	}

	switch target {
	case TargetComposeBounds:
		return format.FullRect(CompositorMaxSize, CompositorMaxSize), nil
	case TargetCompose:
		r, err := c.compose(cfg, pad, which)
		if err != nil {
			return format.Rect{}, err
		}
		return *r, nil
	default:
		return format.Rect{}, fmt.Errorf("vsp: %s selection target %d: %w", c.entity.Name(), target, ErrInvalidArgument)
	}
}

// SetSelection implements Subdev. The top left corner of the compose
// rectangle is kept inside the output frame and its size is forced to the
// input pad format.
func (c *Compositor) SetSelection(cfg *PadConfig, pad int, which Which, target Target, r format.Rect) (format.Rect, error) {
	c.entity.dev.graphMu.Lock()
	defer c.entity.dev.graphMu.Unlock()

	if err := c.entity.checkPad(pad); err != nil {
		return r, err
	}
	if pad == CompositorSourcePad {
		return r, fmt.Errorf("vsp: %s source pad selection: %w", c.entity.Name(), ErrInvalidPad)
	}
	if target != TargetCompose {
		return r, fmt.Errorf("vsp: %s selection target %d: %w", c.entity.Name(), target, ErrInvalidArgument)
	}

	out, err := c.entity.padFormat(cfg, CompositorSourcePad, which)
	if err != nil {
		return r, err
	}
	r.Left = min(r.Left, satSub(out.Width, 1))
	r.Top = min(r.Top, satSub(out.Height, 1))

	in, err := c.entity.padFormat(cfg, pad, which)
	if err != nil {
		return r, err
	}
	r.Width = in.Width
	r.Height = in.Height

	compose, err := c.compose(cfg, pad, which)
	if err != nil {
		return r, err
	}
	*compose = r
	return r, nil
}

// setStream configures the blend/ROP unit for the inputs bound by the
// pipeline. Unbound inputs run a NOP raster operation so that they leave
// the composite untouched.
func (c *Compositor) setStream(enable bool) error {
	if err := c.entity.setStreaming(enable); err != nil {
		return err
	}
	if !enable {
		return nil
	}

	premultiplied := false
	if pipe := c.entity.pipe.Load(); pipe != nil && pipe.output != nil {
		premultiplied = pipe.output.premultiplied()
	}
	out := c.entity.formats[CompositorSourcePad]

	var bound [param.MaxSources]bool
	var premul [param.MaxSources]bool
	for i, in := range c.inputs {
		if in.rpf != nil {
			bound[i] = true
			premul[i] = in.rpf.premultiplied()
		}
	}

	c.entity.dev.withParams(func(p *param.Params) {
		b := &p.BRU
		b.ApplyInCtrl(param.NewInCtrl(premultiplied))

		b.Virtual.Width = out.Width
		b.Virtual.Height = out.Height
		b.Virtual.PosX = 0
		b.Virtual.PosY = 0
		b.Virtual.Pwd = param.LayerParent

		b.ROPUnit = false

		for i := range b.Blend {
			b.Blend[i] = param.NewBlendControl(i, bound[i], premul[i])
		}
	})
	return nil
}

// whichFor returns WhichTry when cfg is set.
func whichFor(cfg *PadConfig) Which {
	if cfg != nil {
		return WhichTry
	}
	return WhichActive
}

// satSub returns a-b, or 0 when b > a.
func satSub(a, b uint32) uint32 {
	if b > a {
		return 0
	}
	return a - b
}
