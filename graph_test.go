// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package vsp

import (
	"errors"
	"testing"
)

func TestDeviceLinks(t *testing.T) {
	dev, _ := openDevice(t)

	links := dev.Links()
	// Compositor: 4 pads from 4 read pipes and the scaler. Scaler: the
	// compositor and 4 read pipes. Write pipe: all six sources.
	if len(links) != 31 {
		t.Fatalf("len(Links()) = %d, want 31", len(links))
	}

	var enabled []*Link
	for _, l := range links {
		if l.Source.Type == EntityWritePipe {
			t.Errorf("link %s starts at a write pipe", l)
		}
		if l.Source.Type == l.Sink.Type {
			t.Errorf("link %s joins two entities of the same type", l)
		}
		if l.Enabled() {
			enabled = append(enabled, l)
		}
	}
	if len(enabled) != 1 || enabled[0].Source != dev.ReadPipe(0).Entity() || enabled[0].Sink != dev.WritePipe(0).Entity() {
		t.Errorf("enabled links = %v, want rpf.0 -> wpf.0:0", enabled)
	}

	sink, pad := dev.ReadPipe(0).Entity().Sink()
	if sink != dev.WritePipe(0).Entity() || pad != 0 {
		t.Errorf("rpf.0 sink = %v:%d, want wpf.0:0", sink, pad)
	}
}

func TestSetLinkEnabled(t *testing.T) {
	dev, _ := openDevice(t)
	rpf0, bru, wpf := dev.ReadPipe(0), dev.Compositor(), dev.WritePipe(0)

	// A source drives one sink.
	err := dev.SetLinkEnabled(link(t, dev, rpf0, bru, 2), true)
	if !errors.Is(err, ErrBusy) {
		t.Errorf("second sink = %v, want %v", err, ErrBusy)
	}

	// Enabling an enabled link is a no-op.
	enableLink(t, dev, rpf0, wpf, PipeSinkPad, true)

	enableLink(t, dev, rpf0, wpf, PipeSinkPad, false)
	if sink, _ := rpf0.Entity().Sink(); sink != nil {
		t.Errorf("rpf.0 sink after disable = %s, want none", sink.Name())
	}
	enableLink(t, dev, rpf0, bru, 2, true)
	if sink, pad := rpf0.Entity().Sink(); sink != bru.Entity() || pad != 2 {
		t.Errorf("rpf.0 sink = %v:%d, want bru.0:2", sink, pad)
	}
}

func TestSetLinkEnabledWhileStreaming(t *testing.T) {
	dev, _ := openDevice(t)
	setupDirect(t, dev, 32, 32)
	startPipeline(t, dev)

	err := dev.SetLinkEnabled(link(t, dev, dev.ReadPipe(0), dev.WritePipe(0), PipeSinkPad), false)
	if !errors.Is(err, ErrBusy) {
		t.Errorf("disable streaming link = %v, want %v", err, ErrBusy)
	}
	err = dev.SetLinkEnabled(link(t, dev, dev.ReadPipe(1), dev.WritePipe(0), PipeSinkPad), true)
	if !errors.Is(err, ErrBusy) {
		t.Errorf("link into streaming pipe = %v, want %v", err, ErrBusy)
	}

	// Entities outside the pipeline stay free.
	enableLink(t, dev, dev.ReadPipe(1), dev.Compositor(), 0, true)
}

func TestNewLinkChecksPads(t *testing.T) {
	dev, _ := openDevice(t)
	rpf, bru := dev.ReadPipe(0).Entity(), dev.Compositor().Entity()

	dev.graphMu.Lock()
	defer dev.graphMu.Unlock()

	if err := dev.newLink(rpf, bru, CompositorSourcePad, false); !errors.Is(err, ErrInvalidPad) {
		t.Errorf("link to source pad = %v, want %v", err, ErrInvalidPad)
	}
	if err := dev.newLink(rpf, bru, 9, false); !errors.Is(err, ErrInvalidPad) {
		t.Errorf("link to pad 9 = %v, want %v", err, ErrInvalidPad)
	}
	if err := dev.newLink(bru, bru, 0, false); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("link to itself = %v, want %v", err, ErrInvalidArgument)
	}
}
