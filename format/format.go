// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package format

import "fmt"

// Code is a media bus pixel code.
type Code uint32

// Media bus codes processed by the VSP entities.
const (
	// CodeARGB8888 is 32-bit ARGB, 8 bits per component.
	CodeARGB8888 Code = 0x100d

	// CodeAYUV8 is 32-bit AYUV, 8 bits per component.
	CodeAYUV8 Code = 0x2017
)

// DefaultCode is substituted when a pad is asked for an unsupported code.
const DefaultCode = CodeAYUV8

// Supported reports whether the VSP entities can carry c on a link.
func (c Code) Supported() bool {
	return c == CodeARGB8888 || c == CodeAYUV8
}

// IsYUV reports whether c carries YUV components.
func (c Code) IsYUV() bool {
	return c == CodeAYUV8
}

// String returns a human readable code name.
func (c Code) String() string {
	switch c {
	case CodeARGB8888:
		return "ARGB8888_1X32"
	case CodeAYUV8:
		return "AYUV8_1X32"
	default:
		return fmt.Sprintf("Code(%#x)", uint32(c))
	}
}

// Field is the interlacing mode of a frame. Only progressive frames are
// supported.
type Field uint8

// FieldNone is a progressive frame.
const FieldNone Field = 1

// Colorspace identifies the colorimetry of a frame.
type Colorspace uint8

// ColorspaceSRGB is the only colorspace handled on entity pads.
const ColorspaceSRGB Colorspace = 8

// Frame is the format of the pixels carried by a pad.
type Frame struct {
	Code       Code
	Width      uint32
	Height     uint32
	Field      Field
	Colorspace Colorspace
}

// SameShape reports whether f and o carry the same code and size.
// Field and colorspace are forced on every pad and are not compared.
func (f Frame) SameShape(o Frame) bool {
	return f.Code == o.Code && f.Width == o.Width && f.Height == o.Height
}

// Rect is a crop or compose rectangle in pixels.
type Rect struct {
	Left   uint32
	Top    uint32
	Width  uint32
	Height uint32
}

// FullRect returns the rectangle covering a whole width x height frame.
func FullRect(width, height uint32) Rect {
	return Rect{Width: width, Height: height}
}

// SizeRange is the inclusive frame size range accepted for a code.
type SizeRange struct {
	MinWidth  uint32
	MaxWidth  uint32
	MinHeight uint32
	MaxHeight uint32
}

// Clamp returns v limited to [lo, hi].
func Clamp(v, lo, hi uint32) uint32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
