// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package vsp

import (
	"fmt"

	"github.com/gogpu/vsp/format"
	"github.com/gogpu/vsp/param"
)

// ReadPipe is a read pipe (RPF): it fetches an image from memory and feeds
// it to the entity graph.
type ReadPipe struct {
	rwpf

	// location is the position of the input in the compositor output,
	// taken from the compose rectangle when the pipeline starts.
	location format.Rect

	// offsets are the byte offsets of the crop rectangle in the luma and
	// chroma planes. Planes 2 and 3 always share a stride.
	offsets [2]uint64

	// bufAddr are the plane base addresses of the last queued buffer.
	bufAddr [3]uint64
}

func newReadPipe(dev *Device, index int) (*ReadPipe, error) {
	base, err := newRWPF(dev, EntityReadPipe, index)
	if err != nil {
		return nil, err
	}
	r := &ReadPipe{rwpf: base}
	r.entity.subdev = r

	initFormats(r, nil, WhichActive)
	r.entity.ctrls = newControlHandler(r.applyControl, alphaSpec)
	return r, nil
}

// srcBlock returns the parameter sub-block of the pipe.
func (r *ReadPipe) srcBlock(p *param.Params) (*param.Source, error) {
	i := r.entity.Index
	if i < 0 || i >= len(p.Src) {
		return nil, fmt.Errorf("vsp: %s: %w", r.entity.Name(), ErrInvalidIndex)
	}
	return &p.Src[i], nil
}

// Alpha returns the fixed alpha value of the pipe.
func (r *ReadPipe) Alpha() uint8 {
	var a uint8
	r.entity.dev.withParams(func(*param.Params) { a = r.alpha })
	return a
}

// applyControl updates the fixed alpha while streaming and propagates it
// through the pipeline.
func (r *ReadPipe) applyControl(id ControlID, val int32) error {
	if id != ControlAlpha {
		return nil
	}

	var err error
	r.entity.dev.withParams(func(p *param.Params) {
		var src *param.Source
		if src, err = r.srcBlock(p); err != nil {
			return
		}
		if !r.entity.IsStreaming() {
			return
		}
		alpha := uint8(val)
		src.Alpha.AFix = alpha
		if pipe := r.entity.pipe.Load(); pipe != nil {
			pipe.propagateAlpha(p, r, alpha)
		}
		r.alpha = alpha
	})
	return err
}

// setStream fills the source sub-block from the memory format, the crop
// rectangle and the last queued buffer.
func (r *ReadPipe) setStream(enable bool) error {
	var err error
	r.entity.dev.withParams(func(p *param.Params) {
		_, err = r.srcBlock(p)
	})
	if err != nil {
		Logger().Error("vsp: read pipe stream", "entity", r.entity.Name(), "err", err)
		return err
	}

	if err := r.entity.setStreaming(enable); err != nil {
		return err
	}
	if !enable {
		return nil
	}

	pix, info := r.memFormat()
	crop := r.crop

	strideY := pix.Planes[0].BytesPerLine
	var strideC uint32
	if pix.NumPlanes > 1 {
		strideC = pix.Planes[1].BytesPerLine
	}

	infmt := param.InFmtCIPM | param.InFmtRDFmt(info.HWFormat)
	if info.SwapYC {
		infmt |= param.InFmtSPYCS
	}
	if info.SwapUV {
		infmt |= param.InFmtSPUVS
	}
	if r.entity.formats[PipeSinkPad].Code != r.entity.formats[PipeSourcePad].Code {
		infmt |= param.InFmtCSC
	}
	infmt |= param.InFmtCEXTExt

	r.entity.dev.withParams(func(p *param.Params) {
		src, _ := r.srcBlock(p)

		src.Width = crop.Width
		src.Height = crop.Height
		src.WidthEx = crop.Width
		src.HeightEx = crop.Height
		src.OffsetX = 0
		src.OffsetY = 0

		r.offsets[0] = uint64(crop.Top)*uint64(strideY) + uint64(crop.Left)*uint64(info.BPP[0])/8
		if pix.NumPlanes > 1 {
			r.offsets[1] = uint64(crop.Top)*uint64(strideC)/uint64(info.VSub) +
				uint64(crop.Left)*uint64(info.BPP[1])/uint64(info.HSub)/8
		} else {
			r.offsets[1] = 0
		}
		r.writeAddresses(src)
		src.Stride = strideY
		src.StrideC = strideC

		src.Format = infmt.EngineFormat(info.BPP[0])
		src.CIPM = infmt.CIPM()
		src.CExt = infmt.CExt()
		src.CSC = infmt.CSC()
		src.ITUBT = infmt.ITUBT()
		src.ClrCng = infmt.ClrCng()
		src.Swap = info.Swap

		src.PosX = r.location.Left
		src.PosY = r.location.Top
		src.Pwd = param.LayerChild

		src.Alpha.AFix = r.alpha
		if pipe := r.entity.pipe.Load(); pipe != nil {
			pipe.propagateAlpha(p, r, r.alpha)
		}
		src.Alpha.ASel = param.AlphaFixed
		if info.Alpha {
			src.Alpha.ASel = param.AlphaPixel
		}

		p.CountSource(r.entity.Index)
	})
	return nil
}

// writeAddresses sets the plane addresses of the source sub-block from the
// base addresses and the crop offsets.
func (r *ReadPipe) writeAddresses(src *param.Source) {
	src.Addr = r.bufAddr[0] + r.offsets[0]
	src.AddrC0 = r.bufAddr[1] + r.offsets[1]
	src.AddrC1 = r.bufAddr[2] + r.offsets[1]
}

// QueueBuffer stores the plane base addresses of the next buffer. While
// streaming the addresses in the parameter block are updated right away
// using the offsets computed at stream start.
func (r *ReadPipe) QueueBuffer(addr [3]uint64) error {
	var err error
	r.entity.dev.withParams(func(p *param.Params) {
		var src *param.Source
		if src, err = r.srcBlock(p); err != nil {
			return
		}
		r.bufAddr = addr
		if !r.entity.IsStreaming() {
			return
		}
		r.writeAddresses(src)
	})
	if err != nil {
		Logger().Error("vsp: read pipe queue", "entity", r.entity.Name(), "err", err)
	}
	return err
}
