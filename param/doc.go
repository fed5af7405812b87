// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package param defines the device parameter block submitted to the
// execution engine for every frame, together with the bitfield codecs used
// to fill it.
//
// A [Params] value has one named sub-block per hardware unit: four
// [Source] blocks for the read pipes, one [Destination] block for the write
// pipe, a [Compositor] block for the blend/ROP unit and a [Scaler] block.
// Each entity writes only its own sub-block. The routing table and the
// layer order are filled when a pipeline starts and immediately before a
// job is submitted.
//
// Hardware control words are never assembled with inline arithmetic. Each
// word has a named type with constructors for its fields and accessors
// that decode them:
//
//   - [InCtrl]: compositor input control (normalization, quantization, dither)
//   - [BlendCtrl]: per-unit blend/ROP control
//   - [InFmt]: read pipe input format
//   - [EngineFormat]: the format code understood by the execution engine
//   - [LayerOrder]: compositor layer order
//   - [BackgroundColor]: compositor virtual input color
package param
