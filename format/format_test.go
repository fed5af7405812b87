// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package format

import (
	"testing"

	"github.com/gogpu/gputypes"
)

func TestCodeSupported(t *testing.T) {
	tests := []struct {
		code Code
		want bool
	}{
		{CodeARGB8888, true},
		{CodeAYUV8, true},
		{Code(0), false},
		{Code(0x1234), false},
	}
	for _, tt := range tests {
		if got := tt.code.Supported(); got != tt.want {
			t.Errorf("%v.Supported() = %v, want %v", tt.code, got, tt.want)
		}
	}
}

func TestFourCCString(t *testing.T) {
	if got := NV12.String(); got != "NV12" {
		t.Errorf("NV12.String() = %q, want %q", got, "NV12")
	}
	if got := ABGR32.String(); got != "AR24" {
		t.Errorf("ABGR32.String() = %q, want %q", got, "AR24")
	}
}

func TestLookup(t *testing.T) {
	info, ok := Lookup(NV21)
	if !ok {
		t.Fatal("Lookup(NV21) not found")
	}
	if info.Planes != 2 || info.HSub != 2 || info.VSub != 2 || !info.SwapUV {
		t.Errorf("NV21 = %+v, want 2 planes, 2x2 subsampling, swapped UV", *info)
	}
	if info.HWFormat < HWFormatYUVLo {
		t.Errorf("NV21 hw format %#x, want YUV range", info.HWFormat)
	}

	if _, ok := Lookup(NewFourCC('Z', 'Z', 'Z', 'Z')); ok {
		t.Error("Lookup(ZZZZ) found, want missing")
	}
}

func TestTableConsistency(t *testing.T) {
	for _, info := range All() {
		yuv := info.HWFormat >= HWFormatYUVLo
		if yuv != info.Code.IsYUV() {
			t.Errorf("%s: hw format %#x does not match code %s", info.FourCC, info.HWFormat, info.Code)
		}
		if info.Planes < 1 || info.Planes > 3 {
			t.Errorf("%s: planes = %d", info.FourCC, info.Planes)
		}
		for p := 0; p < info.Planes; p++ {
			if info.BPP[p] == 0 {
				t.Errorf("%s: plane %d has zero bpp", info.FourCC, p)
			}
		}
	}
}

func TestTextureFormat(t *testing.T) {
	tests := []struct {
		fourcc FourCC
		want   gputypes.TextureFormat
	}{
		{ABGR32, gputypes.TextureFormatBGRA8Unorm},
		{XBGR32, gputypes.TextureFormatBGRA8Unorm},
		{RGBA32, gputypes.TextureFormatRGBA8Unorm},
		{NV12, gputypes.TextureFormatUndefined},
		{RGB565, gputypes.TextureFormatUndefined},
	}
	for _, tt := range tests {
		info, _ := Lookup(tt.fourcc)
		if got := info.TextureFormat(); got != tt.want {
			t.Errorf("%s.TextureFormat() = %v, want %v", tt.fourcc, got, tt.want)
		}
	}
}

func TestTryPixFormat(t *testing.T) {
	t.Run("unknown falls back to default", func(t *testing.T) {
		pix := PixFormat{FourCC: NewFourCC('Z', 'Z', 'Z', 'Z'), Width: 640, Height: 480}
		info := TryPixFormat(&pix)
		if info.FourCC != DefaultFourCC || pix.FourCC != DefaultFourCC {
			t.Errorf("fourcc = %s, want %s", pix.FourCC, DefaultFourCC)
		}
		if pix.Field != FieldNone || pix.Colorspace != ColorspaceSRGB {
			t.Errorf("field/colorspace = %d/%d, want forced", pix.Field, pix.Colorspace)
		}
	})

	t.Run("subsampling alignment and clamp", func(t *testing.T) {
		pix := PixFormat{FourCC: NV12, Width: 641, Height: 9999}
		TryPixFormat(&pix)
		if pix.Width != 640 {
			t.Errorf("Width = %d, want 640", pix.Width)
		}
		if pix.Height != PixMaxHeight {
			t.Errorf("Height = %d, want %d", pix.Height, PixMaxHeight)
		}
		if pix.NumPlanes != 2 {
			t.Errorf("NumPlanes = %d, want 2", pix.NumPlanes)
		}
	})

	t.Run("stride rounded to 128", func(t *testing.T) {
		pix := PixFormat{FourCC: XRGB32, Width: 100, Height: 10}
		TryPixFormat(&pix)
		if got := pix.Planes[0].BytesPerLine; got != 512 {
			t.Errorf("BytesPerLine = %d, want 512", got)
		}
		if got := pix.Planes[0].SizeImage; got != 5120 {
			t.Errorf("SizeImage = %d, want 5120", got)
		}
		if pix.Planes[1] != (PlaneFormat{}) {
			t.Errorf("unused plane = %+v, want zero", pix.Planes[1])
		}
	})

	t.Run("three planes share chroma stride", func(t *testing.T) {
		pix := PixFormat{FourCC: YUV420M, Width: 320, Height: 240}
		TryPixFormat(&pix)
		if pix.Planes[2] != pix.Planes[1] {
			t.Errorf("plane 2 = %+v, want %+v", pix.Planes[2], pix.Planes[1])
		}
		if got := pix.Planes[1].SizeImage; got != pix.Planes[1].BytesPerLine*120 {
			t.Errorf("chroma SizeImage = %d", got)
		}
	})

	t.Run("tiny frame", func(t *testing.T) {
		pix := PixFormat{FourCC: YUYV, Width: 1, Height: 0}
		TryPixFormat(&pix)
		if pix.Width != PixMinWidth || pix.Height != PixMinHeight {
			t.Errorf("size = %dx%d, want %dx%d", pix.Width, pix.Height, PixMinWidth, PixMinHeight)
		}
	})
}

func TestPremultiplied(t *testing.T) {
	pix := PixFormat{Flags: PixFlagPremulAlpha}
	if !pix.Premultiplied() {
		t.Error("Premultiplied() = false, want true")
	}
	pix.Flags = 0
	if pix.Premultiplied() {
		t.Error("Premultiplied() = true, want false")
	}
}

func TestParseFourCC(t *testing.T) {
	tests := []struct {
		in      string
		want    FourCC
		wantErr bool
	}{
		{"NV12", NV12, false},
		{"BA24", ARGB32, false},
		{"YUYV", YUYV, false},
		{"NV1", 0, true},
		{"ZZZZ", 0, true},
	}
	for _, tt := range tests {
		got, err := ParseFourCC(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseFourCC(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseFourCC(%q) = %s, want %s", tt.in, got, tt.want)
		}
	}
}
