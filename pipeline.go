// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package vsp

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/gogpu/vsp/format"
	"github.com/gogpu/vsp/param"
)

// PipelineState is the run state of a started pipeline.
type PipelineState int

// Pipeline states.
const (
	// PipelineStopped means no frame is being processed.
	PipelineStopped PipelineState = iota
	// PipelineRunning means a frame has been handed to the engine.
	PipelineRunning
	// PipelineStopping means the pipeline stops after the current frame.
	PipelineStopping
)

// String returns the state name.
func (s PipelineState) String() string {
	switch s {
	case PipelineStopped:
		return "stopped"
	case PipelineRunning:
		return "running"
	case PipelineStopping:
		return "stopping"
	default:
		return fmt.Sprintf("PipelineState(%d)", int(s))
	}
}

// Pipeline is the chain of entities ending at one write pipe. It is built
// from the enabled links when started.
type Pipeline struct {
	dev    *Device
	output *WritePipe

	mu        sync.Mutex
	state     PipelineState
	started   bool
	suspended bool
	queued    int
	changed   chan struct{}
	listeners []func()

	frames atomic.Int64

	// Topology of the started pipeline. Written with the device graph lock
	// and the parameter lock held.
	entities []*Entity
	inputs   []*ReadPipe
	bru      *Compositor
	uds      *Scaler
	udsInput *Entity
}

func newPipeline(dev *Device, output *WritePipe) *Pipeline {
	return &Pipeline{
		dev:     dev,
		output:  output,
		changed: make(chan struct{}),
	}
}

// Output returns the write pipe the pipeline ends at.
func (pl *Pipeline) Output() *WritePipe { return pl.output }

// State returns the run state.
func (pl *Pipeline) State() PipelineState {
	pl.mu.Lock()
	defer pl.mu.Unlock()
	return pl.state
}

// Started reports whether the pipeline is started.
func (pl *Pipeline) Started() bool {
	pl.mu.Lock()
	defer pl.mu.Unlock()
	return pl.started
}

// Frames returns the number of frames completed since the device opened.
func (pl *Pipeline) Frames() int64 { return pl.frames.Load() }

// Entities returns the names of the entities of the started pipeline,
// sources first.
func (pl *Pipeline) Entities() []string {
	pl.dev.graphMu.Lock()
	defer pl.dev.graphMu.Unlock()
	names := make([]string, len(pl.entities))
	for i, e := range pl.entities {
		names[i] = e.Name()
	}
	return names
}

// OnFrameEnd registers fn to be called at the end of every frame of the
// pipeline. fn runs on the completion goroutine and must not block.
func (pl *Pipeline) OnFrameEnd(fn func()) {
	pl.mu.Lock()
	defer pl.mu.Unlock()
	pl.listeners = append(pl.listeners, fn)
}

// setState changes the state and wakes waiters. pl.mu must be held.
func (pl *Pipeline) setState(s PipelineState) {
	pl.state = s
	close(pl.changed)
	pl.changed = make(chan struct{})
}

// Start validates the graph behind the write pipe, writes the routing and
// per-entity parameters and starts streaming. The device is acquired for
// as long as the pipeline is started.
func (pl *Pipeline) Start() error {
	pl.mu.Lock()
	if pl.started {
		pl.mu.Unlock()
		return fmt.Errorf("vsp: pipeline %s already started: %w", pl.output.entity.Name(), ErrBusy)
	}
	pl.mu.Unlock()

	if err := pl.dev.Acquire(); err != nil {
		return err
	}
	if err := pl.start(); err != nil {
		if rerr := pl.dev.Release(); rerr != nil {
			Logger().Warn("vsp: release after failed start", "err", rerr)
		}
		return err
	}

	pl.mu.Lock()
	pl.started = true
	pl.suspended = false
	pl.queued = 0
	pl.setState(PipelineStopped)
	pl.mu.Unlock()

	Logger().Info("vsp: pipeline started", "output", pl.output.entity.Name(), "entities", len(pl.entities))
	return nil
}

func (pl *Pipeline) start() error {
	d := pl.dev
	d.graphMu.Lock()
	defer d.graphMu.Unlock()

	entities, err := pl.collect()
	if err != nil {
		return err
	}
	if err := pl.validateLinks(entities); err != nil {
		return err
	}

	t, err := pl.validate(entities)
	if err != nil {
		return err
	}

	d.withParams(func(p *param.Params) {
		pl.commit(t)

		p.RPFNum = 0
		p.UseModule = 0
		clear(p.Routes)
		if pl.bru != nil {
			p.UseModule |= param.ModuleBRU
		}
		if pl.uds != nil {
			p.UseModule |= param.ModuleUDS
		}
		for _, e := range pl.entities {
			setupRoute(p, e)
		}
	})

	for _, e := range pl.entities {
		e.pipe.Store(pl)
	}

	for i, e := range pl.entities {
		if err := e.subdev.setStream(true); err != nil {
			for _, done := range slices.Backward(pl.entities[:i]) {
				_ = done.subdev.setStream(false)
			}
			pl.teardown()
			return fmt.Errorf("vsp: %s stream on: %w", e.Name(), err)
		}
	}
	return nil
}

// collect walks the enabled links upstream from the write pipe and returns
// the entities found, sources first.
func (pl *Pipeline) collect() ([]*Entity, error) {
	d := pl.dev
	var order []*Entity
	seen := make(map[*Entity]bool)

	var walk func(e *Entity) error
	walk = func(e *Entity) error {
		if seen[e] {
			return nil
		}
		seen[e] = true

		if owner := e.pipe.Load(); owner != nil && owner != pl {
			return fmt.Errorf("vsp: %s belongs to another pipeline: %w", e.Name(), ErrBusy)
		}

		fed := make(map[int]bool)
		for _, l := range d.links {
			if !l.enabled || l.Sink != e {
				continue
			}
			if fed[l.SinkPad] {
				return fmt.Errorf("vsp: %s pad %d has several sources: %w", e.Name(), l.SinkPad, ErrPipeMismatch)
			}
			fed[l.SinkPad] = true
			if err := walk(l.Source); err != nil {
				return err
			}
		}
		order = append(order, e)
		return nil
	}

	if err := walk(pl.output.entity); err != nil {
		return nil, err
	}
	return order, nil
}

// validateLinks checks that both ends of every enabled link inside the
// pipeline carry the same format.
func (pl *Pipeline) validateLinks(entities []*Entity) error {
	for _, l := range pl.dev.links {
		if !l.enabled || !slices.Contains(entities, l.Sink) {
			continue
		}
		src := l.Source.formats[l.Source.SourcePad()]
		dst := l.Sink.formats[l.SinkPad]
		if !src.SameShape(dst) {
			return fmt.Errorf("vsp: link %s -> %s:%d: %s %dx%d != %s %dx%d: %w",
				l.Source.Name(), l.Sink.Name(), l.SinkPad,
				src.Code, src.Width, src.Height, dst.Code, dst.Width, dst.Height, ErrPipeMismatch)
		}
	}
	return nil
}

// topology is the result of validating a pipeline before it is committed.
type topology struct {
	entities  []*Entity
	inputs    []*ReadPipe
	bru       *Compositor
	bruInputs [param.MaxSources]*ReadPipe
	locations map[*ReadPipe]format.Rect
	uds       *Scaler
	udsInput  *Entity
}

// validate classifies the entities, checks the memory formats against the
// pads and follows every input branch down to the output.
func (pl *Pipeline) validate(entities []*Entity) (*topology, error) {
	t := &topology{
		entities:  entities,
		locations: make(map[*ReadPipe]format.Rect),
	}

	for _, e := range entities {
		switch sd := e.subdev.(type) {
		case *ReadPipe:
			if err := verifyVideoFormat(e, PipeSinkPad); err != nil {
				return nil, err
			}
			t.inputs = append(t.inputs, sd)
		case *Compositor:
			t.bru = sd
		case *WritePipe:
			if sd != pl.output {
				return nil, fmt.Errorf("vsp: %s feeds %s: %w", e.Name(), pl.output.entity.Name(), ErrPipeMismatch)
			}
			if err := verifyVideoFormat(e, PipeSourcePad); err != nil {
				return nil, err
			}
		}
	}

	for _, in := range t.inputs {
		if err := pl.validateBranch(t, in); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// validateBranch follows the links from input to the output. It records
// the compositor slot of the input and the scaler position, and rejects
// loops, chained scalers and branches that do not end at the output.
func (pl *Pipeline) validateBranch(t *topology, input *ReadPipe) error {
	t.locations[input] = format.Rect{}
	visited := make(map[*Entity]bool)
	bruFound := false

	e, pad := input.entity.sink, input.entity.sinkPad
	for {
		if e == nil {
			return fmt.Errorf("vsp: %s branch is not connected: %w", input.entity.Name(), ErrPipeMismatch)
		}

		if c, ok := e.subdev.(*Compositor); ok {
			if pad < 0 || pad >= len(c.inputs) {
				return fmt.Errorf("vsp: %s feeds %s pad %d: %w", input.entity.Name(), e.Name(), pad, ErrPipeMismatch)
			}
			t.bruInputs[pad] = input
			t.locations[input] = c.inputs[pad].compose
			bruFound = true
		}

		if e.Type == EntityWritePipe {
			break
		}

		if visited[e] {
			return fmt.Errorf("vsp: %s branch loops at %s: %w", input.entity.Name(), e.Name(), ErrPipeMismatch)
		}
		visited[e] = true

		if s, ok := e.subdev.(*Scaler); ok {
			if t.uds != nil && t.uds != s {
				return fmt.Errorf("vsp: scalers cannot be chained: %w", ErrPipeMismatch)
			}
			if t.uds == nil {
				t.uds = s
				t.udsInput = input.entity
				if bruFound {
					t.udsInput = t.bru.entity
				}
			}
		}

		e, pad = e.sink, e.sinkPad
	}

	if e != pl.output.entity {
		return fmt.Errorf("vsp: %s branch ends at %s: %w", input.entity.Name(), e.Name(), ErrPipeMismatch)
	}
	return nil
}

// commit installs a validated topology. The device graph lock and the
// parameter lock must be held.
func (pl *Pipeline) commit(t *topology) {
	pl.entities = t.entities
	pl.inputs = t.inputs
	pl.bru = t.bru
	pl.uds = t.uds
	pl.udsInput = t.udsInput

	for _, in := range t.inputs {
		in.location = t.locations[in]
	}
	if pl.bru != nil {
		for i := range pl.bru.inputs {
			pl.bru.inputs[i].rpf = t.bruInputs[i]
		}
	}
	if pl.uds != nil {
		pl.uds.scaleAlpha = false
		if rpf, ok := pl.udsInput.subdev.(*ReadPipe); ok {
			_, info := rpf.memFormat()
			pl.uds.scaleAlpha = info.Alpha
		}
	}
}

// teardown disconnects the routes and releases the entities. The device
// graph lock must be held.
func (pl *Pipeline) teardown() {
	pl.dev.withParams(func(p *param.Params) {
		for _, e := range pl.entities {
			clearRoute(p, e)
		}
		if pl.bru != nil {
			for i := range pl.bru.inputs {
				pl.bru.inputs[i].rpf = nil
			}
		}
		for _, e := range pl.entities {
			e.pipe.Store(nil)
		}
		pl.entities = nil
		pl.inputs = nil
		pl.bru = nil
		pl.uds = nil
		pl.udsInput = nil
	})
}

// waitStopped waits until no frame is being processed. The wait is bounded
// by the configured stop timeout.
func (pl *Pipeline) waitStopped(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, pl.dev.cfg.StopTimeout)
	defer cancel()

	for {
		pl.mu.Lock()
		if pl.state == PipelineStopped {
			pl.mu.Unlock()
			return nil
		}
		ch := pl.changed
		pl.mu.Unlock()

		select {
		case <-ch:
		case <-ctx.Done():
			return fmt.Errorf("vsp: pipeline %s stop: %w", pl.output.entity.Name(), ctx.Err())
		}
	}
}

// Stop waits for the running frame to complete, then disconnects the
// routes and stops streaming. The pipeline is stopped even when the wait
// times out, in which case the timeout error is returned.
func (pl *Pipeline) Stop(ctx context.Context) error {
	pl.mu.Lock()
	if !pl.started {
		pl.mu.Unlock()
		return fmt.Errorf("vsp: pipeline %s: %w", pl.output.entity.Name(), ErrNotStreaming)
	}
	if pl.state == PipelineRunning {
		pl.setState(PipelineStopping)
	}
	pl.mu.Unlock()

	err := pl.waitStopped(ctx)

	pl.dev.graphMu.Lock()
	pl.dev.withParams(func(p *param.Params) {
		for _, e := range pl.entities {
			clearRoute(p, e)
		}
	})
	for _, e := range slices.Backward(pl.entities) {
		if serr := e.subdev.setStream(false); serr != nil {
			Logger().Warn("vsp: stream off", "entity", e.Name(), "err", serr)
		}
	}
	pl.teardown()
	pl.dev.graphMu.Unlock()

	pl.mu.Lock()
	pl.started = false
	pl.queued = 0
	pl.setState(PipelineStopped)
	pl.mu.Unlock()

	if rerr := pl.dev.Release(); rerr != nil {
		Logger().Warn("vsp: release after stop", "err", rerr)
	}
	Logger().Info("vsp: pipeline stopped", "output", pl.output.entity.Name(), "err", err)
	return err
}

// Run queues one frame. The frame is submitted right away when the
// pipeline is idle, otherwise at the end of the current frame.
func (pl *Pipeline) Run() error {
	pl.mu.Lock()
	if !pl.started || pl.state == PipelineStopping && !pl.suspended {
		pl.mu.Unlock()
		return fmt.Errorf("vsp: pipeline %s: %w", pl.output.entity.Name(), ErrNotStreaming)
	}
	pl.queued++
	kick := pl.takeFrame()
	pl.mu.Unlock()

	if kick {
		return pl.submit()
	}
	return nil
}

// takeFrame moves a queued frame to the engine when the pipeline is idle.
// pl.mu must be held.
func (pl *Pipeline) takeFrame() bool {
	if pl.state != PipelineStopped || pl.suspended || pl.queued == 0 {
		return false
	}
	pl.queued--
	pl.setState(PipelineRunning)
	return true
}

func (pl *Pipeline) submit() error {
	if _, err := pl.dev.Submit(context.Background()); err != nil {
		pl.mu.Lock()
		if pl.state == PipelineRunning {
			pl.setState(PipelineStopped)
		}
		pl.mu.Unlock()
		return err
	}
	return nil
}

// frameEnd completes the running frame and starts the next queued one.
func (pl *Pipeline) frameEnd() {
	pl.mu.Lock()
	if !pl.started || pl.state == PipelineStopped {
		pl.mu.Unlock()
		return
	}
	pl.setState(PipelineStopped)
	kick := pl.takeFrame()
	listeners := slices.Clone(pl.listeners)
	pl.mu.Unlock()

	pl.frames.Add(1)

	pl.dev.graphMu.Lock()
	inputs := slices.Clone(pl.inputs)
	pl.dev.graphMu.Unlock()
	for _, in := range inputs {
		if v := in.entity.video; v != nil {
			v.FrameDone()
		}
	}
	if v := pl.output.entity.video; v != nil {
		v.FrameDone()
	}
	for _, fn := range listeners {
		fn()
	}

	if kick {
		if err := pl.submit(); err != nil {
			Logger().Error("vsp: pipeline rerun", "output", pl.output.entity.Name(), "err", err)
		}
	}
}

// Suspend stops the pipeline after the running frame. Queued frames are
// kept for Resume.
func (pl *Pipeline) Suspend(ctx context.Context) error {
	pl.mu.Lock()
	if !pl.started {
		pl.mu.Unlock()
		return nil
	}
	pl.suspended = true
	if pl.state == PipelineRunning {
		pl.setState(PipelineStopping)
	}
	pl.mu.Unlock()

	return pl.waitStopped(ctx)
}

// Resume restarts a suspended pipeline that has queued frames.
func (pl *Pipeline) Resume() error {
	pl.mu.Lock()
	if !pl.started {
		pl.mu.Unlock()
		return nil
	}
	pl.suspended = false
	kick := pl.takeFrame()
	pl.mu.Unlock()

	if kick {
		return pl.submit()
	}
	return nil
}

// propagateAlpha forwards the alpha of input to the read pipes sharing its
// compositor and to the scaler. The compositor output is always opaque, so
// a scaler behind it gets 255. The parameter lock must be held.
func (pl *Pipeline) propagateAlpha(p *param.Params, input *ReadPipe, alpha uint8) {
	if pl.bru != nil && slices.ContainsFunc(pl.bru.inputs[:], func(in CompositorInput) bool { return in.rpf == input }) {
		for _, in := range pl.bru.inputs {
			if in.rpf == nil || in.rpf == input {
				continue
			}
			in.rpf.alpha = alpha
			if src, err := in.rpf.srcBlock(p); err == nil {
				src.Alpha.AFix = alpha
			}
		}
	}

	if pl.uds != nil {
		if pl.udsInput.Type == EntityCompositor {
			alpha = 255
		}
		pl.uds.setAlpha(p, alpha)
	}
}
