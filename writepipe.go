// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package vsp

import (
	"github.com/gogpu/vsp/param"
)

// WritePipe is a write pipe (WPF): it stores the output of a pipeline to
// memory.
type WritePipe struct {
	rwpf

	// bufAddr are the plane base addresses of the last queued buffer.
	bufAddr [3]uint64
}

func newWritePipe(dev *Device, index int) (*WritePipe, error) {
	base, err := newRWPF(dev, EntityWritePipe, index)
	if err != nil {
		return nil, err
	}
	w := &WritePipe{rwpf: base}
	w.entity.subdev = w

	initFormats(w, nil, WhichActive)
	w.entity.ctrls = newControlHandler(w.applyControl, alphaSpec)
	return w, nil
}

// Alpha returns the alpha value written to formats without alpha.
func (w *WritePipe) Alpha() uint8 {
	var a uint8
	w.entity.dev.withParams(func(*param.Params) { a = w.alpha })
	return a
}

func (w *WritePipe) applyControl(id ControlID, val int32) error {
	if id != ControlAlpha {
		return nil
	}
	w.entity.dev.withParams(func(p *param.Params) {
		w.alpha = uint8(val)
		if w.entity.IsStreaming() {
			p.Dst.Pad = w.alpha
		}
	})
	return nil
}

// setStream fills the destination sub-block from the memory format and the
// pad formats.
func (w *WritePipe) setStream(enable bool) error {
	if err := w.entity.setStreaming(enable); err != nil {
		return err
	}
	if !enable {
		return nil
	}

	pix, info := w.memFormat()
	src := w.entity.formats[PipeSourcePad]
	crop := w.crop

	outfmt := param.OutFmtWRFmt(info.HWFormat)
	if info.Alpha {
		outfmt |= param.OutFmtPXA
	}
	if info.SwapYC {
		outfmt |= param.OutFmtSPYCS
	}
	if info.SwapUV {
		outfmt |= param.OutFmtSPUVS
	}
	if w.entity.formats[PipeSinkPad].Code != src.Code {
		outfmt |= param.OutFmtCSC
	}

	w.entity.dev.withParams(func(p *param.Params) {
		outfmt |= param.OutFmtPDV(w.alpha)

		d := &p.Dst
		d.Width = src.Width
		d.Height = src.Height
		d.OffsetX = crop.Left
		d.OffsetY = crop.Top
		d.Stride = pix.Planes[0].BytesPerLine
		d.StrideC = 0
		if pix.NumPlanes > 1 {
			d.StrideC = pix.Planes[1].BytesPerLine
		}

		d.Format = outfmt.EngineFormat(info.BPP[0])
		d.Swap = info.Swap
		d.CSC = outfmt.CSC()
		d.PXA = outfmt.PXA()
		d.Pad = outfmt.PDV()
		w.writeAddresses(d)
	})
	return nil
}

func (w *WritePipe) writeAddresses(d *param.Destination) {
	d.Addr = w.bufAddr[0]
	d.AddrC0 = w.bufAddr[1]
	d.AddrC1 = w.bufAddr[2]
}

// QueueBuffer stores the plane addresses of the next output buffer. They
// reach the destination sub-block right away while streaming, and at the
// next stream start otherwise.
func (w *WritePipe) QueueBuffer(addr [3]uint64) error {
	w.entity.dev.withParams(func(p *param.Params) {
		w.bufAddr = addr
		if w.entity.IsStreaming() {
			w.writeAddresses(&p.Dst)
		}
	})
	return nil
}
