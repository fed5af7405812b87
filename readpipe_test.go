// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package vsp

import (
	"testing"

	"github.com/gogpu/vsp/format"
	"github.com/gogpu/vsp/param"
)

// setupCroppedNV12 feeds a 64x32 NV12 buffer through read pipe 0, cropped
// to 32x16 at 4,2, into write pipe 0.
func setupCroppedNV12(t *testing.T, d *Device) {
	t.Helper()
	rpf, wpf := d.ReadPipe(0), d.WritePipe(0)

	setFormat(t, rpf, PipeSinkPad, format.CodeAYUV8, 64, 32)
	setMemFormat(t, rpf, format.NV12, 64, 32)
	crop, err := rpf.SetSelection(nil, PipeSinkPad, WhichActive, TargetCrop,
		format.Rect{Left: 4, Top: 2, Width: 32, Height: 16})
	if err != nil {
		t.Fatalf("SetSelection: %v", err)
	}
	if crop != (format.Rect{Left: 4, Top: 2, Width: 32, Height: 16}) {
		t.Fatalf("crop = %+v", crop)
	}

	setFormat(t, wpf, PipeSinkPad, format.CodeAYUV8, 32, 16)
	setMemFormat(t, wpf, format.NV12, 32, 16)
}

func TestReadPipeStream(t *testing.T) {
	dev, _ := openDevice(t)
	setupCroppedNV12(t, dev)

	v := dev.ReadPipe(0).Entity().Video().(*Video)
	if err := v.Queue([3]uint64{0x10000, 0x20000, 0}); err != nil {
		t.Fatalf("Queue: %v", err)
	}
	if got := dev.Params().Src[0].Addr; got != 0 {
		t.Errorf("address written before stream start: %#x", got)
	}

	startPipeline(t, dev)
	p := dev.Params()
	src := p.Src[0]

	if src.Width != 32 || src.Height != 16 || src.WidthEx != 32 || src.HeightEx != 16 {
		t.Errorf("size = %dx%d (ex %dx%d), want 32x16", src.Width, src.Height, src.WidthEx, src.HeightEx)
	}
	if src.Stride != 128 || src.StrideC != 128 {
		t.Errorf("strides = %d/%d, want 128/128", src.Stride, src.StrideC)
	}

	// Luma: 2 lines of 128 bytes plus 4 pixels. Chroma: 1 line plus 2
	// pairs of 2 bytes.
	tests := []struct {
		name      string
		got, want uint64
	}{
		{"Addr", src.Addr, 0x10000 + 260},
		{"AddrC0", src.AddrC0, 0x20000 + 132},
		{"AddrC1", src.AddrC1, 132},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("%s = %#x, want %#x", tt.name, tt.got, tt.want)
		}
	}

	if src.Format.HW() != format.HWYUV420SP || src.Format.BytesPerPixel() != 0 {
		t.Errorf("format = %#x, want YUV420 semi-planar", src.Format)
	}
	if src.CIPM != 1 || src.CExt != 1 || src.CSC != 0 {
		t.Errorf("CIPM/CExt/CSC = %d/%d/%d, want 1/1/0", src.CIPM, src.CExt, src.CSC)
	}
	if src.Alpha.ASel != param.AlphaFixed || src.Alpha.AFix != 255 {
		t.Errorf("alpha = %+v, want fixed 255", src.Alpha)
	}
	if src.Pwd != param.LayerChild {
		t.Errorf("pwd = %d, want child until the frame is submitted", src.Pwd)
	}
	if p.RPFNum != 1 {
		t.Errorf("RPFNum = %d, want 1", p.RPFNum)
	}

	// A buffer queued while streaming keeps the crop offsets.
	if err := v.Queue([3]uint64{0x30000, 0x40000, 0}); err != nil {
		t.Fatalf("Queue: %v", err)
	}
	src = dev.Params().Src[0]
	if src.Addr != 0x30000+260 || src.AddrC0 != 0x40000+132 {
		t.Errorf("addresses while streaming = %#x/%#x, want %#x/%#x",
			src.Addr, src.AddrC0, 0x30000+260, 0x40000+132)
	}
}

func TestReadPipeColorConversion(t *testing.T) {
	dev, _ := openDevice(t)
	rpf, wpf := dev.ReadPipe(0), dev.WritePipe(0)

	setFormat(t, rpf, PipeSinkPad, format.CodeAYUV8, 32, 32)
	setMemFormat(t, rpf, format.YVYU, 32, 32)
	if _, err := rpf.SetFormat(nil, PipeSourcePad, WhichActive, format.Frame{Code: format.CodeARGB8888}); err != nil {
		t.Fatalf("SetFormat(source): %v", err)
	}
	setFormat(t, wpf, PipeSinkPad, format.CodeARGB8888, 32, 32)
	setMemFormat(t, wpf, format.ARGB32, 32, 32)

	startPipeline(t, dev)
	src := dev.Params().Src[0]
	if src.CSC != 1 {
		t.Errorf("CSC = %d, want 1", src.CSC)
	}
	if src.Format.HW() != format.HWYUYV422 || !src.Format.SwapYC() || !src.Format.SwapUV() {
		t.Errorf("format = %#x, want packed YUV with both swaps", src.Format)
	}
	if src.StrideC != 0 || src.AddrC0 != 0 {
		t.Errorf("chroma plane set for a packed format: stride %d addr %#x", src.StrideC, src.AddrC0)
	}
}

func TestReadPipePixelAlpha(t *testing.T) {
	dev, _ := openDevice(t)
	setupDirect(t, dev, 32, 32)
	startPipeline(t, dev)

	src := dev.Params().Src[0]
	if src.Alpha.ASel != param.AlphaPixel {
		t.Errorf("ASel = %d, want pixel alpha", src.Alpha.ASel)
	}
	if src.Format.HW() != format.HWARGB8888 || src.Format.BytesPerPixel() != 4 {
		t.Errorf("format = %#x, want ARGB8888 at 4 bytes per pixel", src.Format)
	}
}
