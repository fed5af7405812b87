// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package vsp

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/gogpu/vsp/format"
)

// EntityType is the kind of processing block an entity models.
type EntityType int

// Entity types.
const (
	// EntityCompositor is the blend/ROP unit (BRU).
	EntityCompositor EntityType = iota
	// EntityReadPipe is a read pipe (RPF), an image source.
	EntityReadPipe
	// EntityScaler is the up/down scaler (UDS).
	EntityScaler
	// EntityWritePipe is a write pipe (WPF), an image sink.
	EntityWritePipe
)

// String returns the short hardware name of the type.
func (t EntityType) String() string {
	switch t {
	case EntityCompositor:
		return "bru"
	case EntityReadPipe:
		return "rpf"
	case EntityScaler:
		return "uds"
	case EntityWritePipe:
		return "wpf"
	default:
		return fmt.Sprintf("EntityType(%d)", int(t))
	}
}

// PadDirection tells whether a pad consumes or produces pixels.
type PadDirection uint8

// Pad directions.
const (
	PadSink PadDirection = iota
	PadSource
)

// Which selects the format set an operation works on.
type Which uint8

// Format sets.
const (
	// WhichTry works on a caller-owned PadConfig and never touches the
	// entity.
	WhichTry Which = iota
	// WhichActive works on the entity's own formats.
	WhichActive
)

// Target selects a selection rectangle.
type Target uint8

// Selection targets.
const (
	TargetCrop Target = iota
	TargetCropDefault
	TargetCropBounds
	TargetCompose
	TargetComposeBounds
)

// Subdev is the pad negotiation protocol implemented by every entity.
//
// Operations taking a Which use cfg for WhichTry and the entity's own state
// for WhichActive. cfg is ignored for WhichActive and must be non-nil for
// WhichTry.
type Subdev interface {
	// Entity returns the entity behind the subdevice.
	Entity() *Entity

	// EnumMbusCode returns the index-th code supported on pad.
	EnumMbusCode(cfg *PadConfig, pad, index int) (format.Code, error)

	// EnumFrameSize returns the frame size range supported on pad for code.
	EnumFrameSize(cfg *PadConfig, pad, index int, code format.Code) (format.SizeRange, error)

	// Format returns the format stored on pad.
	Format(cfg *PadConfig, pad int, which Which) (format.Frame, error)

	// SetFormat adjusts f to what pad supports, stores it and returns the
	// stored value.
	SetFormat(cfg *PadConfig, pad int, which Which, f format.Frame) (format.Frame, error)

	// Selection returns a selection rectangle of pad.
	Selection(cfg *PadConfig, pad int, which Which, target Target) (format.Rect, error)

	// SetSelection adjusts r, stores it and returns the stored value.
	SetSelection(cfg *PadConfig, pad int, which Which, target Target, r format.Rect) (format.Rect, error)

	setStream(enable bool) error
}

// PadConfig holds trial formats and selection rectangles for one entity.
type PadConfig struct {
	entity  *Entity
	formats []format.Frame
	rects   []format.Rect
}

// NewPadConfig returns a trial configuration for sd, initialized with the
// default format of every pad.
func NewPadConfig(sd Subdev) *PadConfig {
	e := sd.Entity()
	cfg := &PadConfig{
		entity:  e,
		formats: make([]format.Frame, len(e.pads)),
		rects:   make([]format.Rect, len(e.pads)),
	}
	initFormats(sd, cfg, WhichTry)
	return cfg
}

// initFormats stores the default format on every pad of sd, sink pads
// first so that the source pad derives from them.
func initFormats(sd Subdev, cfg *PadConfig, which Which) {
	e := sd.Entity()
	for pad := range e.pads {
		// Zero formats never fail: the code falls back to the default and
		// the size clamps to the minimum.
		_, _ = sd.SetFormat(cfg, pad, which, format.Frame{})
	}
}

// Entity is one processing block of the device.
type Entity struct {
	dev   *Device
	Type  EntityType
	Index int

	route *Route
	pads  []PadDirection

	// formats holds the active format of each pad.
	formats []format.Frame

	ctrls *controlHandler
	video VideoNode

	mu        sync.Mutex
	streaming bool

	// sink and sinkPad are the entity and pad the source pad drives.
	sink    *Entity
	sinkPad int

	// pipe is the started pipeline the entity belongs to. Written under
	// the device graph lock.
	pipe atomic.Pointer[Pipeline]

	subdev Subdev
}

// newEntity allocates the pads and formats of an entity and resolves its
// route. The last pad is the source pad.
func newEntity(dev *Device, t EntityType, index, numPads int) (*Entity, error) {
	r, ok := lookupRoute(t, index)
	if !ok {
		return nil, fmt.Errorf("vsp: %s.%d: %w", t, index, ErrConfiguration)
	}

	e := &Entity{
		dev:     dev,
		Type:    t,
		Index:   index,
		route:   r,
		pads:    make([]PadDirection, numPads),
		formats: make([]format.Frame, numPads),
	}
	e.pads[numPads-1] = PadSource
	return e, nil
}

// destroy releases the entity resources.
func (e *Entity) destroy() {
	if e.video != nil {
		e.video.Release()
		e.video = nil
	}
	e.ctrls = nil
	e.pads = nil
	e.formats = nil
}

// Name returns the entity name, for instance "rpf.0".
func (e *Entity) Name() string {
	return fmt.Sprintf("%s.%d", e.Type, e.Index)
}

// Route returns the route table entry of the entity.
func (e *Entity) Route() Route { return *e.route }

// NumPads returns the number of pads.
func (e *Entity) NumPads() int { return len(e.pads) }

// SourcePad returns the index of the source pad.
func (e *Entity) SourcePad() int { return len(e.pads) - 1 }

// Subdev returns the negotiation interface of the entity.
func (e *Entity) Subdev() Subdev { return e.subdev }

// Video returns the video node bound to the entity, or nil.
func (e *Entity) Video() VideoNode { return e.video }

// Sink returns the entity and pad driven by the source pad, or nil.
func (e *Entity) Sink() (*Entity, int) {
	e.dev.graphMu.Lock()
	defer e.dev.graphMu.Unlock()
	if e.sink == nil {
		return nil, 0
	}
	return e.sink, e.sinkPad
}

// Pipeline returns the started pipeline the entity belongs to, or nil.
func (e *Entity) Pipeline() *Pipeline {
	return e.pipe.Load()
}

// IsStreaming reports whether the entity is streaming.
func (e *Entity) IsStreaming() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.streaming
}

// setStreaming updates the streaming flag. When streaming starts the
// control values are applied again, and the flag is cleared if that fails.
func (e *Entity) setStreaming(streaming bool) error {
	e.mu.Lock()
	e.streaming = streaming
	e.mu.Unlock()

	if !streaming || e.ctrls == nil {
		return nil
	}

	if err := e.ctrls.setup(); err != nil {
		e.mu.Lock()
		e.streaming = false
		e.mu.Unlock()
		return err
	}
	return nil
}

// SetControl sets a control value. The value reaches the parameter block
// right away when the entity streams, and at the next stream start
// otherwise.
func (e *Entity) SetControl(id ControlID, val int32) error {
	if e.ctrls == nil {
		return fmt.Errorf("vsp: %s: control %s: %w", e.Name(), id, ErrInvalidArgument)
	}
	return e.ctrls.set(id, val)
}

// Control returns a control value.
func (e *Entity) Control(id ControlID) (int32, error) {
	if e.ctrls == nil {
		return 0, fmt.Errorf("vsp: %s: control %s: %w", e.Name(), id, ErrInvalidArgument)
	}
	return e.ctrls.get(id)
}

// setupLink enables or disables the link from the source pad to sink. A
// source drives at most one sink.
func (e *Entity) setupLink(sink *Entity, pad int, enable bool) error {
	if !enable {
		e.sink = nil
		e.sinkPad = 0
		return nil
	}
	if e.sink != nil && (e.sink != sink || e.sinkPad != pad) {
		return fmt.Errorf("vsp: %s already drives %s:%d: %w", e.Name(), e.sink.Name(), e.sinkPad, ErrBusy)
	}
	e.sink = sink
	e.sinkPad = pad
	return nil
}

// checkPad validates pad.
func (e *Entity) checkPad(pad int) error {
	if pad < 0 || pad >= len(e.pads) {
		return fmt.Errorf("vsp: %s pad %d: %w", e.Name(), pad, ErrInvalidPad)
	}
	return nil
}

// padFormat returns the format storage of pad for which.
func (e *Entity) padFormat(cfg *PadConfig, pad int, which Which) (*format.Frame, error) {
	if err := e.checkPad(pad); err != nil {
		return nil, err
	}
	switch which {
	case WhichActive:
		return &e.formats[pad], nil
	case WhichTry:
		if cfg == nil || cfg.entity != e {
			return nil, fmt.Errorf("vsp: %s: trial format without pad config: %w", e.Name(), ErrInvalidArgument)
		}
		return &cfg.formats[pad], nil
	default:
		return nil, fmt.Errorf("vsp: %s: which %d: %w", e.Name(), which, ErrInvalidArgument)
	}
}

// padRect returns the selection storage of pad for which. active is the
// entity's own rectangle.
func (e *Entity) padRect(cfg *PadConfig, pad int, which Which, active *format.Rect) (*format.Rect, error) {
	if err := e.checkPad(pad); err != nil {
		return nil, err
	}
	switch which {
	case WhichActive:
		return active, nil
	case WhichTry:
		if cfg == nil || cfg.entity != e {
			return nil, fmt.Errorf("vsp: %s: trial selection without pad config: %w", e.Name(), ErrInvalidArgument)
		}
		return &cfg.rects[pad], nil
	default:
		return nil, fmt.Errorf("vsp: %s: which %d: %w", e.Name(), which, ErrInvalidArgument)
	}
}
