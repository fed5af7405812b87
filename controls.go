// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package vsp

import (
	"fmt"
	"sync"
)

// ControlID identifies an entity control.
type ControlID uint32

// Controls exposed by the entities.
const (
	// ControlBackgroundColor is the compositor background color, 24-bit RGB.
	ControlBackgroundColor ControlID = 0x00980923

	// ControlAlpha is the fixed alpha of a read or write pipe.
	ControlAlpha ControlID = 0x00980929
)

// String returns the control name.
func (id ControlID) String() string {
	switch id {
	case ControlBackgroundColor:
		return "Background Color"
	case ControlAlpha:
		return "Alpha Component"
	default:
		return fmt.Sprintf("ControlID(%#x)", uint32(id))
	}
}

// controlSpec declares the range and default value of a control.
type controlSpec struct {
	id       ControlID
	min, max int32
	def      int32
}

var (
	backgroundColorSpec = controlSpec{id: ControlBackgroundColor, min: 0, max: 0xffffff, def: 0}
	alphaSpec           = controlSpec{id: ControlAlpha, min: 0, max: 255, def: 255}
)

// applyFunc pushes a control value to the hardware state. It runs with the
// handler lock held.
type applyFunc func(id ControlID, val int32) error

// controlHandler holds the control values of one entity.
type controlHandler struct {
	mu     sync.Mutex
	specs  []controlSpec
	values map[ControlID]int32
	apply  applyFunc
}

func newControlHandler(apply applyFunc, specs ...controlSpec) *controlHandler {
	h := &controlHandler{
		specs:  specs,
		values: make(map[ControlID]int32, len(specs)),
		apply:  apply,
	}
	for _, s := range specs {
		h.values[s.id] = s.def
	}
	return h
}

func (h *controlHandler) spec(id ControlID) (controlSpec, bool) {
	for _, s := range h.specs {
		if s.id == id {
			return s, true
		}
	}
	return controlSpec{}, false
}

// set validates and stores val, then applies it. The previous value is
// restored when the apply function fails.
func (h *controlHandler) set(id ControlID, val int32) error {
	s, ok := h.spec(id)
	if !ok {
		return fmt.Errorf("vsp: control %s: %w", id, ErrInvalidArgument)
	}
	if val < s.min || val > s.max {
		return fmt.Errorf("vsp: control %s value %d out of [%d, %d]: %w",
			id, val, s.min, s.max, ErrInvalidArgument)
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	prev := h.values[id]
	h.values[id] = val
	if err := h.apply(id, val); err != nil {
		h.values[id] = prev
		return err
	}
	return nil
}

func (h *controlHandler) get(id ControlID) (int32, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	v, ok := h.values[id]
	if !ok {
		return 0, fmt.Errorf("vsp: control %s: %w", id, ErrInvalidArgument)
	}
	return v, nil
}

// setup re-applies every stored value.
func (h *controlHandler) setup() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, s := range h.specs {
		if err := h.apply(s.id, h.values[s.id]); err != nil {
			return fmt.Errorf("vsp: control %s: %w", s.id, err)
		}
	}
	return nil
}
