// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package param

import (
	"bytes"
	"strings"
	"testing"

	"github.com/gogpu/gputypes"
	"gopkg.in/yaml.v3"
)

func TestInCtrl(t *testing.T) {
	c := NewInCtrl(false)
	if c != InCtrlNRM {
		t.Fatalf("NewInCtrl(false) = %#x, want %#x", uint32(c), uint32(InCtrlNRM))
	}
	if got := c.ADiv(); got != 1 {
		t.Errorf("ADiv() = %d, want 1", got)
	}
	for i := 0; i < 4; i++ {
		if c.Qnt(i) != 0 || c.Dith(i) != 0 {
			t.Errorf("input %d: qnt=%d dith=%d, want 0", i, c.Qnt(i), c.Dith(i))
		}
	}

	if got := NewInCtrl(true); got != 0 {
		t.Errorf("NewInCtrl(true) = %#x, want 0", uint32(got))
	}

	raw := InCtrl(1<<17 | 0xa<<8 | 0x3)
	if raw.Qnt(1) != 1 || raw.Qnt(0) != 0 {
		t.Errorf("Qnt decode wrong for %#x", uint32(raw))
	}
	if raw.Dith(2) != 0xa || raw.Dith(0) != 0x3 || raw.Dith(1) != 0 {
		t.Errorf("Dith decode wrong for %#x", uint32(raw))
	}
}

func TestCompositorApplyInCtrl(t *testing.T) {
	var c Compositor
	c.ApplyInCtrl(InCtrl(1<<28 | 1<<19 | 0xf<<12))
	if c.ADiv != 1 {
		t.Errorf("ADiv = %d, want 1", c.ADiv)
	}
	if c.Qnt != [4]uint8{0, 0, 0, 1} {
		t.Errorf("Qnt = %v, want [0 0 0 1]", c.Qnt)
	}
	if c.Dith != [4]uint8{0, 0, 0, 0xf} {
		t.Errorf("Dith = %v, want [0 0 0 15]", c.Dith)
	}
}

func TestBlendCtrlFields(t *testing.T) {
	w := BlendCtrlRBC | BlendCtrlDstSelVRPF | BlendCtrlSrcSel(3) | BlendCtrlCROP(0xc) | BlendCtrlAROP(0x5)
	if !w.RBC() {
		t.Error("RBC() = false, want true")
	}
	if got := w.DstSel(); got != 4 {
		t.Errorf("DstSel() = %d, want 4", got)
	}
	if got := w.SrcSel(); got != 3 {
		t.Errorf("SrcSel() = %d, want 3", got)
	}
	if got := w.CROP(); got != 0xc {
		t.Errorf("CROP() = %#x, want 0xc", got)
	}
	if got := w.AROP(); got != 0x5 {
		t.Errorf("AROP() = %#x, want 0x5", got)
	}
}

func TestNewBlendControl(t *testing.T) {
	for slot := 0; slot < 4; slot++ {
		for _, bound := range []bool{false, true} {
			for _, premul := range []bool{false, true} {
				b := NewBlendControl(slot, bound, premul)

				if b.RBC != bound {
					t.Errorf("slot %d bound=%v: RBC = %v", slot, bound, b.RBC)
				}
				if !bound && (b.CROP != ROPNop || b.AROP != ROPNop) {
					t.Errorf("slot %d unbound: CROP/AROP = %d/%d, want NOP", slot, b.CROP, b.AROP)
				}
				if (slot == 0) != (b.Ctrl.DstSel() == 4) {
					t.Errorf("slot %d: DstSel = %d", slot, b.Ctrl.DstSel())
				}
				wantSrc := uint8(slot)
				if slot == 1 {
					wantSrc = 0
				}
				if got := b.Ctrl.SrcSel(); got != wantSrc {
					t.Errorf("slot %d: SrcSel = %d, want %d", slot, got, wantSrc)
				}

				wantY := CoefY3
				if premul {
					wantY = CoefY5
				}
				if b.CoefX != CoefX4 || b.CoefY != wantY {
					t.Errorf("slot %d premul=%v: coef = %d/%d, want %d/%d", slot, premul, b.CoefX, b.CoefY, CoefX4, wantY)
				}
				if b.ACoefX != CoefX4 || b.ACoefY != CoefY5 {
					t.Errorf("slot %d: alpha coef = %d/%d", slot, b.ACoefX, b.ACoefY)
				}
				if b.ACoefXFix != 0 || b.ACoefYFix != 0xff {
					t.Errorf("slot %d: alpha fix = %d/%d, want 0/255", slot, b.ACoefXFix, b.ACoefYFix)
				}

				if again := NewBlendControl(slot, bound, premul); again != b {
					t.Errorf("slot %d: recomputation differs: %+v vs %+v", slot, again, b)
				}
			}
		}
	}
}

func TestBlendState(t *testing.T) {
	straight := NewBlendControl(0, true, false)
	if got := straight.BlendState(); got != gputypes.BlendStateAlpha() {
		t.Errorf("straight BlendState() = %+v, want BlendStateAlpha", got)
	}

	premul := NewBlendControl(2, true, true)
	if got := premul.BlendState(); got != gputypes.BlendStatePremultiplied() {
		t.Errorf("premultiplied BlendState() = %+v, want BlendStatePremultiplied", got)
	}

	nop := NewBlendControl(3, false, false)
	got := nop.BlendState()
	if got.Color.SrcFactor != gputypes.BlendFactorZero || got.Color.DstFactor != gputypes.BlendFactorOne {
		t.Errorf("NOP color = %+v, want keep destination", got.Color)
	}
	if got.Alpha != got.Color {
		t.Errorf("NOP alpha = %+v, want %+v", got.Alpha, got.Color)
	}
}

func TestInFmtEngineFormat(t *testing.T) {
	tests := []struct {
		name string
		fmt  InFmt
		bpp  uint32
		want EngineFormat
	}{
		{"rgb clut", InFmtCIPM | InFmtRDFmt(0x3f), 8, 0x13f},
		{"yuv clut", InFmtCIPM | InFmtRDFmt(0x7f), 8, 0x17f},
		{"argb8888", InFmtCIPM | InFmtCEXTExt | InFmtRDFmt(0x13), 32, 0x413},
		{"rgb565", InFmtRDFmt(0x06), 16, 0x206},
		{"rgb888 with csc", InFmtCSC | InFmtRDFmt(0x15), 24, 0x315},
		{"yuyv plain", InFmtRDFmt(0x47), 16, 0x47},
		{"yuyv swapped", InFmtSPYCS | InFmtSPUVS | InFmtRDFmt(0x47), 16, 0xc047},
		{"nv21", InFmtSPUVS | InFmtRDFmt(0x42), 8, 0x4042},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.fmt.EngineFormat(tt.bpp); got != tt.want {
				t.Errorf("EngineFormat(%d) = %#x, want %#x", tt.bpp, uint16(got), uint16(tt.want))
			}
		})
	}
}

func TestInFmtFields(t *testing.T) {
	f := InFmtCIPM | InFmtCEXTExt | InFmtCSC | InFmt(2<<10) | InFmt(1<<9) | InFmtRDFmt(0x42)
	if f.CIPM() != 1 || f.CExt() != 1 || f.CSC() != 1 {
		t.Errorf("cipm/cext/csc = %d/%d/%d, want 1/1/1", f.CIPM(), f.CExt(), f.CSC())
	}
	if f.ITUBT() != 2 || f.ClrCng() != 1 {
		t.Errorf("iturbt/clrcng = %d/%d, want 2/1", f.ITUBT(), f.ClrCng())
	}
	if f.RDFmt() != 0x42 {
		t.Errorf("RDFmt() = %#x, want 0x42", f.RDFmt())
	}
}

func TestEngineFormatAccessors(t *testing.T) {
	if got := EngineFormat(0x413).BytesPerPixel(); got != 4 {
		t.Errorf("BytesPerPixel() = %d, want 4", got)
	}
	if got := EngineFormat(0x17f).BytesPerPixel(); got != 1 {
		t.Errorf("clut BytesPerPixel() = %d, want 1", got)
	}
	yuv := EngineFormat(0xc047)
	if yuv.BytesPerPixel() != 0 || !yuv.SwapYC() || !yuv.SwapUV() || yuv.HW() != 0x47 {
		t.Errorf("yuv accessors wrong for %#x", uint16(yuv))
	}
}

func TestLayerOrder(t *testing.T) {
	for n := 0; n <= 4; n++ {
		o := NewLayerOrder(n)
		if got := o.Layer(0); got != LayerVirtual {
			t.Errorf("n=%d: layer 0 = %d, want %d", n, got, LayerVirtual)
		}
		for k := 1; k <= 4; k++ {
			want := uint8(0)
			if k <= n {
				want = uint8(k)
			}
			if got := o.Layer(k); got != want {
				t.Errorf("n=%d: layer %d = %d, want %d", n, k, got, want)
			}
		}
	}
	if got := NewLayerOrder(4); got != 0x43215 {
		t.Errorf("NewLayerOrder(4) = %#x, want 0x43215", uint32(got))
	}
}

func TestPrepareSubmit(t *testing.T) {
	p := New()
	p.UseModule = ModuleBRU
	p.CountSource(2)
	p.CountSource(0)
	p.PrepareSubmit()
	if p.RPFNum != 3 {
		t.Errorf("RPFNum = %d, want 3", p.RPFNum)
	}
	if got := p.BRU.LayerOrder; got != 0x3215 {
		t.Errorf("LayerOrder = %#x, want 0x3215", uint32(got))
	}

	p = New()
	p.CountSource(0)
	p.Src[0].Pwd = LayerChild
	p.PrepareSubmit()
	if p.Src[0].Pwd != LayerParent {
		t.Errorf("Src[0].Pwd = %d, want parent", p.Src[0].Pwd)
	}
	if p.BRU.LayerOrder != 0 {
		t.Errorf("LayerOrder = %#x, want 0 without compositor", uint32(p.BRU.LayerOrder))
	}
}

func TestBackgroundColor(t *testing.T) {
	c := NewBackgroundColor(0x12ff3366)
	if uint32(c) != 0xffff3366 {
		t.Errorf("NewBackgroundColor = %#x, want 0xffff3366", uint32(c))
	}
	rgba := c.RGBA()
	if rgba.A != 1 || rgba.R != 1 || rgba.B != float64(0x66)/255 {
		t.Errorf("RGBA() = %+v", rgba)
	}
}

func TestCloneAndReset(t *testing.T) {
	p := New()
	p.Routes[0x2000] = 23
	p.Src[1].Alpha.AFix = 128

	c := p.Clone()
	c.Routes[0x2000] = 63
	c.Src[1].Alpha.AFix = 1
	if p.Routes[0x2000] != 23 || p.Src[1].Alpha.AFix != 128 {
		t.Error("Clone shares state with the original")
	}

	p.Reset()
	if len(p.Routes) != 0 || p.Src[1].Alpha.AFix != 0 {
		t.Errorf("Reset left state: %+v", p)
	}
	if p.Routes == nil {
		t.Error("Reset left nil routes")
	}
}

func TestWriteYAML(t *testing.T) {
	p := New()
	p.UseModule = ModuleBRU
	p.RPFNum = 2
	p.BRU.Virtual.Color = NewBackgroundColor(0)
	p.Routes[0x204c] = 56

	var buf bytes.Buffer
	if err := p.WriteYAML(&buf); err != nil {
		t.Fatalf("WriteYAML: %v", err)
	}
	if !strings.Contains(buf.String(), "rpf_num: 2") {
		t.Errorf("output missing rpf_num:\n%s", buf.String())
	}

	var back Params
	if err := yaml.Unmarshal(buf.Bytes(), &back); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if back.Routes[0x204c] != 56 || back.BRU.Virtual.Color != p.BRU.Virtual.Color {
		t.Errorf("decoded block differs: routes=%v color=%#x", back.Routes, uint32(back.BRU.Virtual.Color))
	}
}

func TestOutFmt(t *testing.T) {
	f := OutFmtPDV(0x80) | OutFmtPXA | OutFmtCSC | OutFmtWRFmt(0x13)
	if f.PDV() != 0x80 || f.PXA() != 1 || f.CSC() != 1 || f.WRFmt() != 0x13 {
		t.Errorf("pdv/pxa/csc/wrfmt = %#x/%d/%d/%#x, want 0x80/1/1/0x13", f.PDV(), f.PXA(), f.CSC(), f.WRFmt())
	}
	if got := f.EngineFormat(32); got != 0x413 {
		t.Errorf("EngineFormat(32) = %#x, want 0x413", uint16(got))
	}

	yuv := OutFmtSPYCS | OutFmtWRFmt(0x47)
	if got := yuv.EngineFormat(16); got != 0x8047 {
		t.Errorf("EngineFormat(16) = %#x, want 0x8047", uint16(got))
	}
}
