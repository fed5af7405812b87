// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package format

import (
	"fmt"

	"github.com/gogpu/gputypes"
)

// FourCC identifies a memory pixel format.
type FourCC uint32

// NewFourCC builds a FourCC from its four characters.
func NewFourCC(a, b, c, d byte) FourCC {
	return FourCC(uint32(a) | uint32(b)<<8 | uint32(c)<<16 | uint32(d)<<24)
}

// String returns the four characters of f.
func (f FourCC) String() string {
	return string([]byte{byte(f), byte(f >> 8), byte(f >> 16), byte(f >> 24)})
}

// ParseFourCC parses the four character name of a supported memory format,
// for instance "NV12".
func ParseFourCC(s string) (FourCC, error) {
	if len(s) != 4 {
		return 0, fmt.Errorf("format: fourcc %q: want 4 characters", s)
	}
	f := NewFourCC(s[0], s[1], s[2], s[3])
	if _, ok := Lookup(f); !ok {
		return 0, fmt.Errorf("format: fourcc %q not supported", s)
	}
	return f, nil
}

// Memory pixel formats readable and writable by the VSP.
var (
	RGB332  = NewFourCC('R', 'G', 'B', '1')
	ARGB444 = NewFourCC('A', 'R', '1', '2')
	XRGB444 = NewFourCC('X', 'R', '1', '2')
	ARGB555 = NewFourCC('A', 'R', '1', '5')
	XRGB555 = NewFourCC('X', 'R', '1', '5')
	RGB565  = NewFourCC('R', 'G', 'B', 'P')
	BGR24   = NewFourCC('B', 'G', 'R', '3')
	RGB24   = NewFourCC('R', 'G', 'B', '3')
	ABGR32  = NewFourCC('A', 'R', '2', '4')
	XBGR32  = NewFourCC('X', 'R', '2', '4')
	ARGB32  = NewFourCC('B', 'A', '2', '4')
	XRGB32  = NewFourCC('B', 'X', '2', '4')
	RGBA32  = NewFourCC('A', 'B', '2', '4')
	PAL8    = NewFourCC('P', 'A', 'L', '8')
	UYVY    = NewFourCC('U', 'Y', 'V', 'Y')
	VYUY    = NewFourCC('V', 'Y', 'U', 'Y')
	YUYV    = NewFourCC('Y', 'U', 'Y', 'V')
	YVYU    = NewFourCC('Y', 'V', 'Y', 'U')
	NV12    = NewFourCC('N', 'V', '1', '2')
	NV21    = NewFourCC('N', 'V', '2', '1')
	NV16    = NewFourCC('N', 'V', '1', '6')
	NV61    = NewFourCC('N', 'V', '6', '1')
	NV24    = NewFourCC('N', 'V', '2', '4')
	NV42    = NewFourCC('N', 'V', '4', '2')
	YUV420M = NewFourCC('Y', 'M', '1', '2')
	YUV422M = NewFourCC('Y', 'M', '1', '6')
)

// DefaultFourCC is selected when an unknown memory format is requested.
var DefaultFourCC = YUYV

// Hardware read/write format identifiers (7 bits). Values below 0x40 are
// RGB formats, values from 0x40 are YUV formats, 0x3f and 0x7f select
// indexed color.
const (
	HWRGB332      uint8 = 0x00
	HWXRGB4444    uint8 = 0x01
	HWARGB4444    uint8 = 0x02
	HWXRGB1555    uint8 = 0x04
	HWARGB1555    uint8 = 0x05
	HWRGB565      uint8 = 0x06
	HWARGB8888    uint8 = 0x13
	HWRGB888      uint8 = 0x15
	HWBGR888      uint8 = 0x18
	HWRGBCLUT8    uint8 = 0x3f
	HWYUV444SP    uint8 = 0x40
	HWYUV422SP    uint8 = 0x41
	HWYUV420SP    uint8 = 0x42
	HWYUYV422     uint8 = 0x47
	HWYUV422P     uint8 = 0x4b
	HWYUV420P     uint8 = 0x4c
	HWYUVCLUT8    uint8 = 0x7f
	HWFormatMask  uint8 = 0x7f
	HWFormatYUVLo uint8 = 0x40
)

// Data swap flags applied by the pipes when reading or writing memory.
const (
	SwapBTS uint8 = 1 << 0 // byte
	SwapWDS uint8 = 1 << 1 // word
	SwapLWS uint8 = 1 << 2 // long word
	SwapLLS uint8 = 1 << 3 // long long word
)

// Info describes a memory pixel format.
type Info struct {
	FourCC   FourCC
	Code     Code
	HWFormat uint8
	Swap     uint8
	Planes   int
	BPP      [3]uint32
	SwapYC   bool
	SwapUV   bool
	HSub     uint32
	VSub     uint32
	Alpha    bool
}

// TextureFormat returns the GPU texture format with the same memory layout,
// or gputypes.TextureFormatUndefined when no single-plane equivalent exists.
func (i *Info) TextureFormat() gputypes.TextureFormat {
	switch i.FourCC {
	case ABGR32, XBGR32:
		return gputypes.TextureFormatBGRA8Unorm
	case RGBA32:
		return gputypes.TextureFormatRGBA8Unorm
	default:
		return gputypes.TextureFormatUndefined
	}
}

// String implements fmt.Stringer.
func (i *Info) String() string {
	return fmt.Sprintf("%s (%s, hw %#02x, %d plane(s))", i.FourCC, i.Code, i.HWFormat, i.Planes)
}

const (
	swap32 = SwapLLS | SwapLWS
	swap16 = SwapLLS | SwapLWS | SwapWDS
	swap8  = SwapLLS | SwapLWS | SwapWDS | SwapBTS
)

var infos = []Info{
	{RGB332, CodeARGB8888, HWRGB332, swap8, 1, [3]uint32{8}, false, false, 1, 1, false},
	{ARGB444, CodeARGB8888, HWARGB4444, swap16, 1, [3]uint32{16}, false, false, 1, 1, true},
	{XRGB444, CodeARGB8888, HWXRGB4444, swap16, 1, [3]uint32{16}, false, false, 1, 1, false},
	{ARGB555, CodeARGB8888, HWARGB1555, swap16, 1, [3]uint32{16}, false, false, 1, 1, true},
	{XRGB555, CodeARGB8888, HWXRGB1555, swap16, 1, [3]uint32{16}, false, false, 1, 1, false},
	{RGB565, CodeARGB8888, HWRGB565, swap16, 1, [3]uint32{16}, false, false, 1, 1, false},
	{BGR24, CodeARGB8888, HWBGR888, swap8, 1, [3]uint32{24}, false, false, 1, 1, false},
	{RGB24, CodeARGB8888, HWRGB888, swap8, 1, [3]uint32{24}, false, false, 1, 1, false},
	{ABGR32, CodeARGB8888, HWARGB8888, swap32, 1, [3]uint32{32}, false, false, 1, 1, true},
	{XBGR32, CodeARGB8888, HWARGB8888, swap32, 1, [3]uint32{32}, false, false, 1, 1, false},
	{ARGB32, CodeARGB8888, HWARGB8888, 0, 1, [3]uint32{32}, false, false, 1, 1, true},
	{XRGB32, CodeARGB8888, HWARGB8888, 0, 1, [3]uint32{32}, false, false, 1, 1, false},
	{RGBA32, CodeARGB8888, HWARGB8888, SwapLLS | SwapLWS | SwapBTS, 1, [3]uint32{32}, false, false, 1, 1, true},
	{PAL8, CodeARGB8888, HWRGBCLUT8, swap8, 1, [3]uint32{8}, false, false, 1, 1, false},
	{UYVY, CodeAYUV8, HWYUYV422, swap8, 1, [3]uint32{16}, false, false, 2, 1, false},
	{VYUY, CodeAYUV8, HWYUYV422, swap8, 1, [3]uint32{16}, false, true, 2, 1, false},
	{YUYV, CodeAYUV8, HWYUYV422, swap8, 1, [3]uint32{16}, true, false, 2, 1, false},
	{YVYU, CodeAYUV8, HWYUYV422, swap8, 1, [3]uint32{16}, true, true, 2, 1, false},
	{NV12, CodeAYUV8, HWYUV420SP, swap8, 2, [3]uint32{8, 16}, false, false, 2, 2, false},
	{NV21, CodeAYUV8, HWYUV420SP, swap8, 2, [3]uint32{8, 16}, false, true, 2, 2, false},
	{NV16, CodeAYUV8, HWYUV422SP, swap8, 2, [3]uint32{8, 16}, false, false, 2, 1, false},
	{NV61, CodeAYUV8, HWYUV422SP, swap8, 2, [3]uint32{8, 16}, false, true, 2, 1, false},
	{NV24, CodeAYUV8, HWYUV444SP, swap8, 2, [3]uint32{8, 16}, false, false, 1, 1, false},
	{NV42, CodeAYUV8, HWYUV444SP, swap8, 2, [3]uint32{8, 16}, false, true, 1, 1, false},
	{YUV420M, CodeAYUV8, HWYUV420P, swap8, 3, [3]uint32{8, 8, 8}, false, false, 2, 2, false},
	{YUV422M, CodeAYUV8, HWYUV422P, swap8, 3, [3]uint32{8, 8, 8}, false, false, 2, 1, false},
}

// Lookup returns the description of a memory pixel format.
func Lookup(f FourCC) (*Info, bool) {
	for i := range infos {
		if infos[i].FourCC == f {
			return &infos[i], true
		}
	}
	return nil, false
}

// All returns a copy of the supported memory pixel formats in table order.
func All() []Info {
	out := make([]Info, len(infos))
	copy(out, infos)
	return out
}
