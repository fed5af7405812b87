// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package vsp controls a video compositing and scaling unit.
//
// # Overview
//
// A Device models one VSP instance as a graph of entities: a compositor
// (BRU) blending up to four inputs over a background color, read pipes
// (RPF) fetching images from memory, an up/down scaler (UDS) and a write
// pipe (WPF) storing the result. Entities expose pads with negotiable
// formats and are connected by links. Starting the Pipeline behind a write
// pipe validates the enabled links, writes the routing and per-entity
// settings into the shared parameter block and streams frames through an
// execution engine, one job per frame.
//
// # Quick Start
//
//	import (
//	    "github.com/gogpu/vsp"
//	    _ "github.com/gogpu/vsp/engine/sim"
//	)
//
//	dev, err := vsp.Open()
//	if err != nil {
//	    return err
//	}
//	defer dev.Close()
//
//	rpf, wpf := dev.ReadPipe(0), dev.WritePipe(0)
//	f := format.Frame{Code: format.CodeARGB8888, Width: 640, Height: 480}
//	rpf.SetFormat(nil, vsp.PipeSinkPad, vsp.WhichActive, f)
//	wpf.SetFormat(nil, vsp.PipeSinkPad, vsp.WhichActive, f)
//
//	pl := dev.Pipeline(0)
//	if err := pl.Start(); err != nil {
//	    return err
//	}
//	pl.Run()
//
// The video nodes bound to the pipes must hold memory formats matching the
// pad formats for Start to succeed.
//
// # Engines
//
// The engine executes parameter blocks. Engines register themselves in the
// engine registry; Open picks the configured one, or the highest priority
// available one. Use WithEngine to inject an engine directly.
//
// # Concurrency
//
// A Device is safe for concurrent use. At most one job is in flight per
// device: a frame is submitted only after the previous job completed.
//
// # Logging
//
// vsp is silent by default. Use SetLogger to route its log/slog records.
package vsp
