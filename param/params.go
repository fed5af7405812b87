// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package param

import (
	"io"
	"maps"

	"gopkg.in/yaml.v3"
)

// MaxSources is the number of read pipe sub-blocks.
const MaxSources = 4

// Module is a bitmask of optional units used by a frame.
type Module uint32

// Optional units.
const (
	ModuleUDS Module = 1 << 1
	ModuleBRU Module = 1 << 4
)

// LayerPos is the layer position of an input relative to the compositor.
type LayerPos uint8

// Layer positions.
const (
	LayerParent LayerPos = 0
	LayerChild  LayerPos = 1
)

// AlphaSelect picks where a read pipe takes its alpha from.
type AlphaSelect uint8

// Alpha sources.
const (
	// AlphaPixel uses the alpha component of the pixel data.
	AlphaPixel AlphaSelect = 0
	// AlphaFixed uses the fixed alpha value.
	AlphaFixed AlphaSelect = 4
)

// AlphaBlend is the alpha descriptor of a read pipe.
type AlphaBlend struct {
	ASel AlphaSelect `yaml:"asel"`
	AFix uint8       `yaml:"afix"`
}

// Source is the sub-block of one read pipe.
type Source struct {
	Width    uint32 `yaml:"width"`
	Height   uint32 `yaml:"height"`
	WidthEx  uint32 `yaml:"width_ex"`
	HeightEx uint32 `yaml:"height_ex"`
	OffsetX  uint32 `yaml:"x_offset"`
	OffsetY  uint32 `yaml:"y_offset"`

	Addr    uint64 `yaml:"addr"`
	AddrC0  uint64 `yaml:"addr_c0"`
	AddrC1  uint64 `yaml:"addr_c1"`
	Stride  uint32 `yaml:"stride"`
	StrideC uint32 `yaml:"stride_c"`

	Format EngineFormat `yaml:"format"`
	CIPM   uint8        `yaml:"cipm"`
	CExt   uint8        `yaml:"cext"`
	CSC    uint8        `yaml:"csc"`
	ITUBT  uint8        `yaml:"iturbt"`
	ClrCng uint8        `yaml:"clrcng"`
	Swap   uint8        `yaml:"swap"`

	PosX uint32   `yaml:"x_position"`
	PosY uint32   `yaml:"y_position"`
	Pwd  LayerPos `yaml:"pwd"`

	Alpha AlphaBlend `yaml:"alpha"`
}

// Destination is the sub-block of the write pipe.
type Destination struct {
	Width   uint32 `yaml:"width"`
	Height  uint32 `yaml:"height"`
	OffsetX uint32 `yaml:"x_offset"`
	OffsetY uint32 `yaml:"y_offset"`
	Addr    uint64 `yaml:"addr"`
	AddrC0  uint64 `yaml:"addr_c0"`
	AddrC1  uint64 `yaml:"addr_c1"`
	Stride  uint32 `yaml:"stride"`
	StrideC uint32 `yaml:"stride_c"`

	Format EngineFormat `yaml:"format"`
	Swap   uint8        `yaml:"swap"`
	CSC    uint8        `yaml:"csc"`
	PXA    uint8        `yaml:"pxa"`
	Pad    uint8        `yaml:"pad"`
}

// VirtualInput is the compositor background layer.
type VirtualInput struct {
	Width  uint32          `yaml:"width"`
	Height uint32          `yaml:"height"`
	PosX   uint32          `yaml:"x_position"`
	PosY   uint32          `yaml:"y_position"`
	Pwd    LayerPos        `yaml:"pwd"`
	Color  BackgroundColor `yaml:"color"`
}

// Compositor is the blend/ROP unit sub-block.
type Compositor struct {
	LayerOrder LayerOrder `yaml:"lay_order"`
	ADiv       uint8      `yaml:"adiv"`
	Qnt        [4]uint8   `yaml:"qnt,flow"`
	Dith       [4]uint8   `yaml:"dith,flow"`

	// ROPUnit is set when the raster operation unit takes part in the
	// frame. It always stays cleared: input 1 reaches blend unit B through
	// a NOP raster operation.
	ROPUnit bool `yaml:"blend_rop"`

	Virtual VirtualInput    `yaml:"blend_virtual"`
	Blend   [4]BlendControl `yaml:"blend_control"`
}

// ApplyInCtrl unpacks an input control word into the division, quantization
// and dither fields.
func (c *Compositor) ApplyInCtrl(w InCtrl) {
	c.ADiv = w.ADiv()
	for i := range c.Qnt {
		c.Qnt[i] = w.Qnt(i)
		c.Dith[i] = w.Dith(i)
	}
}

// Scaler is the up/down scaler sub-block.
type Scaler struct {
	AlphaScaling bool   `yaml:"amd"`
	Alpha        uint8  `yaml:"alpha"`
	Multitap     bool   `yaml:"multitap"`
	HRatio       uint16 `yaml:"x_ratio"`
	VRatio       uint16 `yaml:"y_ratio"`
	HPassband    uint16 `yaml:"x_passband"`
	VPassband    uint16 `yaml:"y_passband"`
	OutWidth     uint32 `yaml:"out_cwidth"`
	OutHeight    uint32 `yaml:"out_cheight"`
}

// Params is the device parameter block.
type Params struct {
	UseModule Module `yaml:"use_module"`
	RPFNum    int    `yaml:"rpf_num"`
	RPFOrder  uint32 `yaml:"rpf_order"`

	Src [MaxSources]Source `yaml:"src"`
	Dst Destination        `yaml:"dst"`
	BRU Compositor         `yaml:"bru"`
	UDS Scaler             `yaml:"uds"`

	// Routes maps a routing register to the node it feeds.
	Routes map[uint32]uint32 `yaml:"routes"`
}

// New returns a reset parameter block.
func New() *Params {
	p := &Params{}
	p.Reset()
	return p
}

// Reset clears every sub-block.
func (p *Params) Reset() {
	*p = Params{Routes: make(map[uint32]uint32)}
}

// Clone returns a deep copy of p.
func (p *Params) Clone() *Params {
	c := *p
	c.Routes = maps.Clone(p.Routes)
	if c.Routes == nil {
		c.Routes = make(map[uint32]uint32)
	}
	return &c
}

// CountSource raises RPFNum to cover read pipe index.
func (p *Params) CountSource(index int) {
	if p.RPFNum < index+1 {
		p.RPFNum = index + 1
	}
}

// PrepareSubmit applies the per-frame patch made immediately before a job
// is submitted: the compositor layer order when the compositor is used,
// otherwise read pipe 0 becomes the parent layer.
func (p *Params) PrepareSubmit() {
	if p.UseModule&ModuleBRU != 0 {
		p.BRU.LayerOrder = NewLayerOrder(p.RPFNum)
		return
	}
	p.Src[0].Pwd = LayerParent
}

// WriteYAML writes p to w as a YAML document.
func (p *Params) WriteYAML(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(p); err != nil {
		return err
	}
	return enc.Close()
}
