// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package param

import "github.com/gogpu/gputypes"

// InCtrl is the compositor input control word.
//
//	bit  28     NRM  color data normalization (division)
//	bits 16-19  QNT  per-input quantization enable
//	bits 0-15   DITH per-input 4-bit dither level
type InCtrl uint32

// InCtrlNRM enables color data normalization.
const InCtrlNRM InCtrl = 1 << 28

// NewInCtrl returns the control word for a pipeline output. Normalization is
// enabled unless the output format carries premultiplied alpha; dithering
// and quantization stay disabled.
func NewInCtrl(premultiplied bool) InCtrl {
	if premultiplied {
		return 0
	}
	return InCtrlNRM
}

// ADiv returns the division (normalization) flag.
func (c InCtrl) ADiv() uint8 {
	return uint8((c >> 28) & 1)
}

// Qnt returns the quantization flag of input n.
func (c InCtrl) Qnt(n int) uint8 {
	return uint8((c >> (16 + uint(n))) & 1)
}

// Dith returns the 4-bit dither level of input n.
func (c InCtrl) Dith(n int) uint8 {
	return uint8((c >> (4 * uint(n))) & 0xf)
}

// ROP is a raster operation opcode.
type ROP uint8

// ROPNop leaves the destination untouched.
const ROPNop ROP = 0

// BlendCtrl is the blend/ROP unit control word.
//
//	bit  31     RBC    enable blending (disables the raster operation)
//	bits 20-22  DSTSEL destination input selector
//	bits 16-18  SRCSEL source input selector
//	bits 4-7    CROP   color raster operation
//	bits 0-3    AROP   alpha raster operation
type BlendCtrl uint32

// Blend control fields.
const (
	BlendCtrlRBC        BlendCtrl = 1 << 31
	BlendCtrlDstSelVRPF BlendCtrl = 4 << 20
)

// BlendCtrlSrcSel selects compositor input n as the source.
func BlendCtrlSrcSel(n int) BlendCtrl {
	return BlendCtrl(n&7) << 16
}

// BlendCtrlCROP sets the color raster operation.
func BlendCtrlCROP(op ROP) BlendCtrl {
	return BlendCtrl(op&0xf) << 4
}

// BlendCtrlAROP sets the alpha raster operation.
func BlendCtrlAROP(op ROP) BlendCtrl {
	return BlendCtrl(op & 0xf)
}

// RBC reports whether blending is enabled.
func (c BlendCtrl) RBC() bool { return c&BlendCtrlRBC != 0 }

// DstSel returns the destination input selector.
func (c BlendCtrl) DstSel() uint8 { return uint8((c >> 20) & 7) }

// SrcSel returns the source input selector.
func (c BlendCtrl) SrcSel() uint8 { return uint8((c >> 16) & 7) }

// CROP returns the color raster operation.
func (c BlendCtrl) CROP() ROP { return ROP((c >> 4) & 0xf) }

// AROP returns the alpha raster operation.
func (c BlendCtrl) AROP() ROP { return ROP(c & 0xf) }

// InFmt is the read pipe input format word.
//
//	bit  16     CIPM  chroma interpolation
//	bit  15     SPYCS swap Y and C
//	bit  14     SPUVS swap U and V
//	bits 12-13  CEXT  color extension
//	bits 10-11  ITUBT color conversion standard
//	bit  9      CLRCNG color conversion range
//	bit  8      CSC   color space conversion
//	bits 0-6    RDFMT hardware read format
type InFmt uint32

// Input format fields.
const (
	InFmtCIPM    InFmt = 1 << 16
	InFmtSPYCS   InFmt = 1 << 15
	InFmtSPUVS   InFmt = 1 << 14
	InFmtCEXTExt InFmt = 1 << 12
	InFmtCSC     InFmt = 1 << 8

	inFmtRDFmtMask InFmt = 0x7f
)

// InFmtRDFmt places a hardware read format in the word.
func InFmtRDFmt(hw uint8) InFmt {
	return InFmt(hw) & inFmtRDFmtMask
}

// RDFmt returns the hardware read format.
func (f InFmt) RDFmt() uint8 { return uint8(f & inFmtRDFmtMask) }

// CIPM returns the chroma interpolation flag.
func (f InFmt) CIPM() uint8 { return uint8((f >> 16) & 1) }

// CExt returns the color extension mode.
func (f InFmt) CExt() uint8 { return uint8((f >> 12) & 3) }

// ITUBT returns the color conversion standard.
func (f InFmt) ITUBT() uint8 { return uint8((f >> 10) & 3) }

// ClrCng returns the color conversion range flag.
func (f InFmt) ClrCng() uint8 { return uint8((f >> 9) & 1) }

// CSC returns the color space conversion flag.
func (f InFmt) CSC() uint8 { return uint8((f >> 8) & 1) }

// EngineFormat is the format code understood by the execution engine: the
// 7-bit hardware format with either a bytes-per-pixel count (bits 8-11) or
// the YUV swap flags (bits 14-15) packed above it.
type EngineFormat uint16

// EngineFormat converts the word to the engine format code. bpp is the bit
// depth of the first plane.
//
// The three encodings are selected by the numeric range of the hardware
// format: 0x3f and 0x7f are indexed color (one byte per pixel), values
// below 0x40 are RGB and the rest is YUV.
func (f InFmt) EngineFormat(bpp uint32) EngineFormat {
	return engineFormat(f.RDFmt(), bpp, f&InFmtSPYCS != 0, f&InFmtSPUVS != 0)
}

func engineFormat(hw uint8, bpp uint32, swapYC, swapUV bool) EngineFormat {
	e := EngineFormat(hw)
	switch {
	case hw == 0x7f || hw == 0x3f:
		return e | 1<<8
	case hw < 0x40:
		return e | EngineFormat(bpp/8)<<8
	}
	if swapYC {
		e |= EngineFormat(InFmtSPYCS)
	}
	if swapUV {
		e |= EngineFormat(InFmtSPUVS)
	}
	return e
}

// OutFmt is the write pipe output format word.
//
//	bits 24-31  PDV   alpha value written to formats without alpha
//	bit  23     PXA   write the pixel alpha
//	bit  15     SPYCS swap Y and C
//	bit  14     SPUVS swap U and V
//	bit  8      CSC   color space conversion
//	bits 0-6    WRFMT hardware write format
type OutFmt uint32

// Output format fields.
const (
	OutFmtPXA   OutFmt = 1 << 23
	OutFmtSPYCS OutFmt = 1 << 15
	OutFmtSPUVS OutFmt = 1 << 14
	OutFmtCSC   OutFmt = 1 << 8
)

// OutFmtWRFmt places a hardware write format in the word.
func OutFmtWRFmt(hw uint8) OutFmt {
	return OutFmt(hw) & 0x7f
}

// OutFmtPDV places the pad alpha value in the word.
func OutFmtPDV(alpha uint8) OutFmt {
	return OutFmt(alpha) << 24
}

// WRFmt returns the hardware write format.
func (f OutFmt) WRFmt() uint8 { return uint8(f & 0x7f) }

// PDV returns the pad alpha value.
func (f OutFmt) PDV() uint8 { return uint8(f >> 24) }

// PXA returns the pixel alpha flag.
func (f OutFmt) PXA() uint8 { return uint8((f >> 23) & 1) }

// CSC returns the color space conversion flag.
func (f OutFmt) CSC() uint8 { return uint8((f >> 8) & 1) }

// EngineFormat converts the word to the engine format code, with the same
// range dispatch as InFmt.EngineFormat.
func (f OutFmt) EngineFormat(bpp uint32) EngineFormat {
	return engineFormat(f.WRFmt(), bpp, f&OutFmtSPYCS != 0, f&OutFmtSPUVS != 0)
}

// HW returns the hardware format.
func (e EngineFormat) HW() uint8 { return uint8(e & 0x7f) }

// BytesPerPixel returns the packed bytes-per-pixel count, or 0 for YUV.
func (e EngineFormat) BytesPerPixel() uint8 {
	if e.HW() >= 0x40 && e.HW() != 0x7f {
		return 0
	}
	return uint8((e >> 8) & 0xf)
}

// SwapYC reports the packed Y/C swap flag of a YUV format.
func (e EngineFormat) SwapYC() bool { return e&EngineFormat(InFmtSPYCS) != 0 }

// SwapUV reports the packed U/V swap flag of a YUV format.
func (e EngineFormat) SwapUV() bool { return e&EngineFormat(InFmtSPUVS) != 0 }

// Layer identifiers used in the layer order.
const (
	LayerVirtual uint8 = 5
	Layer1       uint8 = 1
	Layer2       uint8 = 2
	Layer3       uint8 = 3
	Layer4       uint8 = 4
)

// LayerOrder is the compositor layer order. Each 4-bit group holds the
// layer drawn at that depth; group 0 is always the virtual background.
type LayerOrder uint32

// NewLayerOrder returns the layer order for active read pipes 0..active-1.
func NewLayerOrder(active int) LayerOrder {
	o := LayerOrder(LayerVirtual)
	for k := 1; k <= min(active, 4); k++ {
		o |= LayerOrder(Layer1+uint8(k-1)) << (4 * uint(k))
	}
	return o
}

// Layer returns the layer identifier at depth k.
func (o LayerOrder) Layer(k int) uint8 {
	return uint8((o >> (4 * uint(k))) & 0xf)
}

// BackgroundColor is the compositor virtual input color in ARGB8888.
type BackgroundColor uint32

// NewBackgroundColor returns an opaque background color from a 24-bit RGB
// value.
func NewBackgroundColor(rgb uint32) BackgroundColor {
	return BackgroundColor(rgb&0xffffff | 0xff<<24)
}

// RGBA returns the color with components normalized to [0, 1].
func (c BackgroundColor) RGBA() gputypes.Color {
	return gputypes.Color{
		R: float64((c>>16)&0xff) / 255,
		G: float64((c>>8)&0xff) / 255,
		B: float64(c&0xff) / 255,
		A: float64((c>>24)&0xff) / 255,
	}
}
