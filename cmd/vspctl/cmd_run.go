// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package main

import (
	"context"
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/gogpu/gputypes"
	"github.com/jessevdk/go-flags"

	"github.com/gogpu/vsp"
	"github.com/gogpu/vsp/format"
	"github.com/gogpu/vsp/param"
)

var shortRunHelp = "Run frames through a pipeline"
var longRunHelp = `
The run command opens a device, builds a pipeline ending at write pipe 0
and runs frames through it.

The direct mode reads from read pipe 0. The composite mode blends read
pipes 0 and 1 in the compositor. The scale mode passes read pipe 0 through
scaler 0 to the output size.
`

type cmdRun struct {
	Mode       string        `long:"mode" choice:"direct" choice:"composite" choice:"scale" default:"direct" description:"Pipeline layout"`
	Frames     int           `long:"frames" short:"n" default:"1" description:"Number of frames to run"`
	Width      uint32        `long:"width" default:"640" description:"Input width"`
	Height     uint32        `long:"height" default:"480" description:"Input height"`
	OutWidth   uint32        `long:"out-width" description:"Output width of the scale mode"`
	OutHeight  uint32        `long:"out-height" description:"Output height of the scale mode"`
	Input      string        `long:"input-format" default:"BA24" description:"Input memory format FourCC"`
	Output     string        `long:"output-format" default:"BA24" description:"Output memory format FourCC"`
	Alpha      int32         `long:"alpha" default:"255" description:"Fixed alpha of read pipe 0"`
	Background int32         `long:"background" default:"0" description:"Compositor background color, 24-bit RGB"`
	Dump       bool          `long:"dump" description:"Print the parameter block of the pipeline"`
	Timeout    time.Duration `long:"timeout" default:"5s" description:"Time allowed for the frames to complete"`
}

func init() {
	addCommand("run", shortRunHelp, longRunHelp, func() flags.Commander { return &cmdRun{} })
}

func (x *cmdRun) Execute(args []string) error {
	if len(args) > 0 {
		return errExtraArgs
	}
	if x.Frames < 1 {
		return fmt.Errorf("cannot run %d frames", x.Frames)
	}

	in, err := format.ParseFourCC(x.Input)
	if err != nil {
		return err
	}
	out, err := format.ParseFourCC(x.Output)
	if err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	vsp.SetLogger(cfg.Log.NewLogger(Stderr))
	defer vsp.SetLogger(nil)

	dev, err := vsp.Open(vsp.WithConfig(cfg))
	if err != nil {
		return err
	}
	defer dev.Close()
	if dev.WritePipe(0) == nil || dev.ReadPipe(0) == nil {
		return fmt.Errorf("device has no read or write pipe")
	}

	b := &builder{dev: dev, in: in, out: out}
	switch x.Mode {
	case "composite":
		err = b.composite(x.Width, x.Height)
		if err == nil {
			err = dev.Compositor().Entity().SetControl(vsp.ControlBackgroundColor, x.Background)
		}
	case "scale":
		err = b.scale(x.Width, x.Height, x.OutWidth, x.OutHeight)
	default:
		err = b.direct(x.Width, x.Height)
	}
	if err != nil {
		return err
	}
	if err := dev.ReadPipe(0).Entity().SetControl(vsp.ControlAlpha, x.Alpha); err != nil {
		return err
	}
	if err := b.queueBuffers(); err != nil {
		return err
	}

	return x.runFrames(dev)
}

// runFrames starts pipeline 0, runs the frames and stops it.
func (x *cmdRun) runFrames(dev *vsp.Device) error {
	pl := dev.Pipeline(0)
	done := make(chan struct{}, x.Frames)
	pl.OnFrameEnd(func() {
		select {
		case done <- struct{}{}:
		default:
		}
	})

	ctx, cancel := context.WithTimeout(context.Background(), x.Timeout)
	defer cancel()

	if err := pl.Start(); err != nil {
		return err
	}
	start := time.Now()
	for range x.Frames {
		if err := pl.Run(); err != nil {
			_ = pl.Stop(ctx)
			return err
		}
	}
	for range x.Frames {
		select {
		case <-done:
		case <-ctx.Done():
			_ = pl.Stop(context.Background())
			return fmt.Errorf("waiting for frames: %w", ctx.Err())
		}
	}
	elapsed := time.Since(start)

	fmt.Fprintf(Stdout, "engine:   %s\n", dev.Engine().Name())
	fmt.Fprintf(Stdout, "pipeline: %s\n", strings.Join(pl.Entities(), " -> "))
	fmt.Fprintf(Stdout, "frames:   %d in %v\n", pl.Frames(), elapsed.Round(time.Microsecond))

	p := dev.Params()
	if p.UseModule&param.ModuleBRU != 0 {
		printCompositor(p)
	}
	if x.Dump {
		if err := p.WriteYAML(Stdout); err != nil {
			return err
		}
	}
	return pl.Stop(ctx)
}

// printCompositor prints the background color and the blend equation of
// every compositor unit.
func printCompositor(p *param.Params) {
	bg := p.BRU.Virtual.Color.RGBA()
	fmt.Fprintf(Stdout, "background: r=%.3f g=%.3f b=%.3f a=%.3f\n", bg.R, bg.G, bg.B, bg.A)

	w := tabwriter.NewWriter(Stdout, 5, 3, 2, ' ', 0)
	fmt.Fprintln(w, "Unit\tColor\tAlpha")
	for i := range p.BRU.Blend {
		st := p.BRU.Blend[i].BlendState()
		fmt.Fprintf(w, "blend.%d\t%s\t%s\n", i, blendEquation(st.Color), blendEquation(st.Alpha))
	}
	w.Flush()
}

func blendEquation(c gputypes.BlendComponent) string {
	return fmt.Sprintf("%s(src*%s, dst*%s)", c.Operation, c.SrcFactor, c.DstFactor)
}

// builder negotiates the formats of a pipeline ending at write pipe 0.
type builder struct {
	dev     *vsp.Device
	in, out format.FourCC
	inputs  []*vsp.ReadPipe
}

func (b *builder) link(source, sink vsp.Subdev, pad int, enable bool) error {
	l := b.dev.FindLink(source.Entity(), sink.Entity(), pad)
	if l == nil {
		return fmt.Errorf("no link %s -> %s:%d", source.Entity().Name(), sink.Entity().Name(), pad)
	}
	return b.dev.SetLinkEnabled(l, enable)
}

func setFormat(sd vsp.Subdev, pad int, code format.Code, w, h uint32) (format.Frame, error) {
	return sd.SetFormat(nil, pad, vsp.WhichActive, format.Frame{Code: code, Width: w, Height: h})
}

func setMemFormat(sd vsp.Subdev, fourcc format.FourCC, w, h uint32) error {
	v, ok := sd.Entity().Video().(*vsp.Video)
	if !ok {
		return fmt.Errorf("%s has no video node", sd.Entity().Name())
	}
	_, err := v.SetFormat(format.PixFormat{FourCC: fourcc, Width: w, Height: h})
	return err
}

// codes returns the link codes of the input and output memory formats.
func (b *builder) codes() (in, out format.Code) {
	ii, _ := format.Lookup(b.in)
	oi, _ := format.Lookup(b.out)
	return ii.Code, oi.Code
}

// input configures read pipe i for a w x h buffer.
func (b *builder) input(i int, w, h uint32) error {
	rpf := b.dev.ReadPipe(i)
	if rpf == nil {
		return fmt.Errorf("device has no read pipe %d", i)
	}
	code, _ := b.codes()
	if _, err := setFormat(rpf, vsp.PipeSinkPad, code, w, h); err != nil {
		return err
	}
	if err := setMemFormat(rpf, b.in, w, h); err != nil {
		return err
	}
	b.inputs = append(b.inputs, rpf)
	return nil
}

// output configures write pipe 0 for a w x h frame of the input code.
func (b *builder) output(w, h uint32) error {
	wpf := b.dev.WritePipe(0)
	in, out := b.codes()
	if _, err := setFormat(wpf, vsp.PipeSinkPad, in, w, h); err != nil {
		return err
	}
	if _, err := wpf.SetFormat(nil, vsp.PipeSourcePad, vsp.WhichActive, format.Frame{Code: out}); err != nil {
		return err
	}
	return setMemFormat(wpf, b.out, w, h)
}

func (b *builder) direct(w, h uint32) error {
	if err := b.input(0, w, h); err != nil {
		return err
	}
	return b.output(w, h)
}

func (b *builder) composite(w, h uint32) error {
	d := b.dev
	bru, wpf := d.Compositor(), d.WritePipe(0)
	if d.ReadPipe(1) == nil {
		return fmt.Errorf("composite mode needs two read pipes")
	}

	steps := []func() error{
		func() error { return b.link(d.ReadPipe(0), wpf, vsp.PipeSinkPad, false) },
		func() error { return b.link(d.ReadPipe(0), bru, 0, true) },
		func() error { return b.link(d.ReadPipe(1), bru, 1, true) },
		func() error { return b.link(bru, wpf, vsp.PipeSinkPad, true) },
		func() error { return b.input(0, w, h) },
		func() error { return b.input(1, w, h) },
	}
	for _, step := range steps {
		if err := step(); err != nil {
			return err
		}
	}

	code, _ := b.codes()
	for _, pad := range []int{0, 1, vsp.CompositorSourcePad} {
		if _, err := setFormat(bru, pad, code, w, h); err != nil {
			return err
		}
	}
	return b.output(w, h)
}

func (b *builder) scale(w, h, ow, oh uint32) error {
	d := b.dev
	uds, wpf := d.Scaler(0), d.WritePipe(0)
	if uds == nil {
		return fmt.Errorf("scale mode needs a scaler")
	}
	if ow == 0 {
		ow = w
	}
	if oh == 0 {
		oh = h
	}

	if err := b.link(d.ReadPipe(0), wpf, vsp.PipeSinkPad, false); err != nil {
		return err
	}
	if err := b.link(d.ReadPipe(0), uds, vsp.ScalerSinkPad, true); err != nil {
		return err
	}
	if err := b.link(uds, wpf, vsp.PipeSinkPad, true); err != nil {
		return err
	}
	if err := b.input(0, w, h); err != nil {
		return err
	}

	code, _ := b.codes()
	if _, err := setFormat(uds, vsp.ScalerSinkPad, code, w, h); err != nil {
		return err
	}
	// The scaler clamps the output to the ratios it supports.
	f, err := setFormat(uds, vsp.ScalerSourcePad, code, ow, oh)
	if err != nil {
		return err
	}
	if f.Width != ow || f.Height != oh {
		fmt.Fprintf(Stderr, "output size adjusted to %dx%d\n", f.Width, f.Height)
	}
	return b.output(f.Width, f.Height)
}

// queueBuffers hands placeholder buffer addresses to the pipes.
func (b *builder) queueBuffers() error {
	for i, rpf := range b.inputs {
		base := uint64(i+1) << 28
		if err := rpf.QueueBuffer([3]uint64{base, base + 1<<24, base + 2<<24}); err != nil {
			return err
		}
	}
	return b.dev.WritePipe(0).QueueBuffer([3]uint64{0xf << 28, 0xf<<28 + 1<<24, 0xf<<28 + 2<<24})
}
