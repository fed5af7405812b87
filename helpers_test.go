// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package vsp

import (
	"context"
	"testing"
	"time"

	"github.com/gogpu/vsp/engine"
	"github.com/gogpu/vsp/engine/sim"
	"github.com/gogpu/vsp/format"
)

// openDevice opens a device on a fresh simulator. The device is closed at
// the end of the test.
func openDevice(t *testing.T, opts ...Option) (*Device, *sim.Engine) {
	t.Helper()
	eng := sim.New(engine.Options{})
	return openDeviceWith(t, eng, opts...), eng
}

func openDeviceWith(t *testing.T, eng engine.Engine, opts ...Option) *Device {
	t.Helper()
	dev, err := Open(append([]Option{WithEngine(eng)}, opts...)...)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = dev.Close() })
	return dev
}

// setFormat sets an active pad format and fails the test on error.
func setFormat(t *testing.T, sd Subdev, pad int, code format.Code, w, h uint32) format.Frame {
	t.Helper()
	f, err := sd.SetFormat(nil, pad, WhichActive, format.Frame{Code: code, Width: w, Height: h})
	if err != nil {
		t.Fatalf("%s SetFormat(pad %d): %v", sd.Entity().Name(), pad, err)
	}
	return f
}

// setMemFormat sets the memory format of the video node bound to a pipe.
func setMemFormat(t *testing.T, sd Subdev, fourcc format.FourCC, w, h uint32) format.PixFormat {
	t.Helper()
	v, ok := sd.Entity().Video().(*Video)
	if !ok {
		t.Fatalf("%s has no default video node", sd.Entity().Name())
	}
	pix, err := v.SetFormat(format.PixFormat{FourCC: fourcc, Width: w, Height: h})
	if err != nil {
		t.Fatalf("%s video SetFormat: %v", sd.Entity().Name(), err)
	}
	return pix
}

// link returns the link from source to pad of sink.
func link(t *testing.T, d *Device, source, sink Subdev, pad int) *Link {
	t.Helper()
	l := d.FindLink(source.Entity(), sink.Entity(), pad)
	if l == nil {
		t.Fatalf("no link %s -> %s:%d", source.Entity().Name(), sink.Entity().Name(), pad)
	}
	return l
}

func enableLink(t *testing.T, d *Device, source, sink Subdev, pad int, enable bool) {
	t.Helper()
	if err := d.SetLinkEnabled(link(t, d, source, sink, pad), enable); err != nil {
		t.Fatalf("SetLinkEnabled(%v): %v", enable, err)
	}
}

// setupDirect configures read pipe 0 straight into write pipe 0 with w x h
// ARGB frames.
func setupDirect(t *testing.T, d *Device, w, h uint32) {
	t.Helper()
	rpf, wpf := d.ReadPipe(0), d.WritePipe(0)
	setFormat(t, rpf, PipeSinkPad, format.CodeARGB8888, w, h)
	setFormat(t, wpf, PipeSinkPad, format.CodeARGB8888, w, h)
	setMemFormat(t, rpf, format.ARGB32, w, h)
	setMemFormat(t, wpf, format.ARGB32, w, h)
}

// setupComposite configures read pipes 0 and 1 into compositor inputs 0
// and 1, and the compositor into write pipe 0.
func setupComposite(t *testing.T, d *Device, w, h uint32) {
	t.Helper()
	bru, wpf := d.Compositor(), d.WritePipe(0)
	rpf0, rpf1 := d.ReadPipe(0), d.ReadPipe(1)

	enableLink(t, d, rpf0, wpf, PipeSinkPad, false)
	enableLink(t, d, rpf0, bru, 0, true)
	enableLink(t, d, rpf1, bru, 1, true)
	enableLink(t, d, bru, wpf, PipeSinkPad, true)

	for _, rpf := range []*ReadPipe{rpf0, rpf1} {
		setFormat(t, rpf, PipeSinkPad, format.CodeARGB8888, w, h)
		setMemFormat(t, rpf, format.ARGB32, w, h)
	}
	setFormat(t, bru, 0, format.CodeARGB8888, w, h)
	setFormat(t, bru, 1, format.CodeARGB8888, w, h)
	setFormat(t, bru, CompositorSourcePad, format.CodeARGB8888, w, h)
	setFormat(t, wpf, PipeSinkPad, format.CodeARGB8888, w, h)
	setMemFormat(t, wpf, format.ARGB32, w, h)
}

// startPipeline starts pipeline 0 and stops it at the end of the test.
func startPipeline(t *testing.T, d *Device) *Pipeline {
	t.Helper()
	pl := d.Pipeline(0)
	if err := pl.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	t.Cleanup(func() {
		if pl.Started() {
			_ = pl.Stop(context.Background())
		}
	})
	return pl
}

// waitFor polls cond until it holds or the test times out.
func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(time.Millisecond)
	}
}
