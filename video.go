// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package vsp

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/gogpu/vsp/format"
)

// VideoNode is the memory side of a read or write pipe: the buffer queue
// that owns the frame buffers and their pixel format.
type VideoNode interface {
	// Format returns the memory format and its description.
	Format() (format.PixFormat, *format.Info)

	// FrameDone is called on every frame end of the pipeline the node
	// belongs to.
	FrameDone()

	// Release frees the node. It is called once, when the entity is
	// destroyed.
	Release()
}

// VideoFactory creates the video node of a read or write pipe.
type VideoFactory func(e *Entity) (VideoNode, error)

// bufferQueuer is implemented by pipes that take buffer addresses.
type bufferQueuer interface {
	QueueBuffer(addr [3]uint64) error
}

// Video is the default VideoNode. It stores a negotiated memory format and
// forwards queued buffers to its pipe.
type Video struct {
	entity *Entity

	mu   sync.Mutex
	pix  format.PixFormat
	info *format.Info

	frames   atomic.Int64
	released atomic.Bool
}

// NewVideo returns a video node for e holding the default memory format.
func NewVideo(e *Entity) (VideoNode, error) {
	v := &Video{entity: e}
	v.info = format.TryPixFormat(&v.pix)
	return v, nil
}

// Format implements VideoNode.
func (v *Video) Format() (format.PixFormat, *format.Info) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.pix, v.info
}

// SetFormat adjusts pix to a supported memory format and stores it. The
// format cannot change while the pipe streams.
func (v *Video) SetFormat(pix format.PixFormat) (format.PixFormat, error) {
	if v.entity.IsStreaming() {
		return pix, fmt.Errorf("vsp: %s: format change while streaming: %w", v.entity.Name(), ErrBusy)
	}
	info := format.TryPixFormat(&pix)

	v.mu.Lock()
	defer v.mu.Unlock()
	v.pix = pix
	v.info = info
	return pix, nil
}

// Queue hands the plane base addresses of a buffer to the pipe.
func (v *Video) Queue(addr [3]uint64) error {
	if v.released.Load() {
		return fmt.Errorf("vsp: %s: %w", v.entity.Name(), ErrClosed)
	}
	q, ok := v.entity.subdev.(bufferQueuer)
	if !ok {
		return fmt.Errorf("vsp: %s does not take buffers: %w", v.entity.Name(), ErrInvalidArgument)
	}
	return q.QueueBuffer(addr)
}

// FrameDone implements VideoNode.
func (v *Video) FrameDone() {
	v.frames.Add(1)
}

// Frames returns the number of frame ends seen by the node.
func (v *Video) Frames() int64 {
	return v.frames.Load()
}

// Release implements VideoNode.
func (v *Video) Release() {
	v.released.Store(true)
}

// verifyVideoFormat checks that the memory format of e matches the pad it
// feeds or is fed by.
func verifyVideoFormat(e *Entity, pad int) error {
	if e.video == nil {
		return fmt.Errorf("vsp: %s has no video node: %w", e.Name(), ErrPipeMismatch)
	}
	pix, info := e.video.Format()
	f := e.formats[pad]
	if info == nil || info.Code != f.Code || pix.Width != f.Width || pix.Height != f.Height {
		return fmt.Errorf("vsp: %s: memory format %dx%d does not match pad %d %s %dx%d: %w",
			e.Name(), pix.Width, pix.Height, pad, f.Code, f.Width, f.Height, ErrPipeMismatch)
	}
	return nil
}
