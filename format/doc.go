// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package format describes the pixel encodings understood by the VSP.
//
// Two kinds of formats exist:
//
//   - Media bus codes ([Code]) describe the encoding of pixels flowing over a
//     link between two entities. The VSP processes only two of them
//     internally: 32-bit ARGB and 32-bit AYUV.
//   - Memory pixel formats ([FourCC], [Info]) describe how a read pipe reads
//     or a write pipe writes a frame buffer: plane count, bits per pixel,
//     chroma subsampling, the 7-bit hardware format and the byte swap flags.
//
// [Frame] is the active or trial format stored on an entity pad, [Rect] is a
// crop or compose rectangle and [PixFormat] is the multi-planar memory
// format negotiated with the buffer queue layer.
package format
