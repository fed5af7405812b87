// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package format

// Memory frame size limits.
const (
	PixMinWidth  = 2
	PixMaxWidth  = 8190
	PixMinHeight = 2
	PixMaxHeight = 8190

	strideAlign = 128
	maxStride   = 65535
)

// PixFlags are memory format flags.
type PixFlags uint32

// PixFlagPremulAlpha marks color components premultiplied by alpha.
const PixFlagPremulAlpha PixFlags = 0x00000001

// PlaneFormat is the layout of one memory plane.
type PlaneFormat struct {
	BytesPerLine uint32
	SizeImage    uint32
}

// PixFormat is a multi-planar memory format as exchanged with the buffer
// queue layer.
type PixFormat struct {
	FourCC     FourCC
	Width      uint32
	Height     uint32
	Field      Field
	Colorspace Colorspace
	Flags      PixFlags
	NumPlanes  int
	Planes     [3]PlaneFormat
}

// Premultiplied reports whether f carries premultiplied alpha.
func (f *PixFormat) Premultiplied() bool {
	return f.Flags&PixFlagPremulAlpha != 0
}

// TryPixFormat adjusts pix to the closest format the pipes can handle and
// returns its description. Unknown formats fall back to DefaultFourCC. Sizes
// are aligned to the chroma subsampling and clamped, strides are aligned to
// 128 bytes and never smaller than a line.
func TryPixFormat(pix *PixFormat) *Info {
	info, ok := Lookup(pix.FourCC)
	if !ok {
		info, _ = Lookup(DefaultFourCC)
	}

	pix.FourCC = info.FourCC
	pix.Colorspace = ColorspaceSRGB
	pix.Field = FieldNone

	width := roundDown(pix.Width, info.HSub)
	height := roundDown(pix.Height, info.VSub)
	pix.Width = Clamp(width, PixMinWidth, PixMaxWidth)
	pix.Height = Clamp(height, PixMinHeight, PixMaxHeight)

	for i := 0; i < min(info.Planes, 2); i++ {
		hsub, vsub := uint32(1), uint32(1)
		if i > 0 {
			hsub, vsub = info.HSub, info.VSub
		}
		bpl := Clamp(pix.Planes[i].BytesPerLine,
			pix.Width/hsub*info.BPP[i]/8, roundDown(maxStride, strideAlign))
		pix.Planes[i].BytesPerLine = roundUp(bpl, strideAlign)
		pix.Planes[i].SizeImage = pix.Planes[i].BytesPerLine * pix.Height / vsub
	}

	// The second and third planes share a stride.
	if info.Planes == 3 {
		pix.Planes[2] = pix.Planes[1]
	}
	for i := info.Planes; i < len(pix.Planes); i++ {
		pix.Planes[i] = PlaneFormat{}
	}
	pix.NumPlanes = info.Planes

	return info
}

func roundDown(v, align uint32) uint32 {
	return v / align * align
}

func roundUp(v, align uint32) uint32 {
	return (v + align - 1) / align * align
}
