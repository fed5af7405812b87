// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package vsp

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/gogpu/vsp/engine"
	"github.com/gogpu/vsp/param"
)

// session is an initialized engine session.
type session struct {
	handle engine.Handle
}

// Device is one compositing and scaling unit: its entities, the links
// between them, the pipelines ending at each write pipe and the shared
// parameter block submitted to the engine.
//
// Device is safe for concurrent use.
type Device struct {
	cfg          Config
	engine       engine.Engine
	priority     engine.Priority
	videoFactory VideoFactory

	// mu serializes Acquire and Release.
	mu   sync.Mutex
	ref  int
	refs atomic.Int32
	sess atomic.Pointer[session]

	paramsMu sync.Mutex
	params   *param.Params

	// graphMu guards the links, the pad formats and the pipeline
	// topology.
	graphMu  sync.Mutex
	entities []*Entity
	links    []*Link

	bru   *Compositor
	rpfs  []*ReadPipe
	udss  []*Scaler
	wpfs  []*WritePipe
	pipes []*Pipeline

	jobs   *jobDriver
	closed atomic.Bool
}

// Open creates a device: it resolves the engine, creates every entity with
// its video node, links them and starts the job worker. A failure at any
// step releases what was created before it.
func Open(opts ...Option) (*Device, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if err := o.config.Validate(); err != nil {
		return nil, err
	}

	eng := o.engine
	if eng == nil {
		var err error
		if o.config.Engine == "" {
			eng, err = engine.New(o.config.EngineOptions.Options())
		} else {
			eng, err = engine.NewByName(o.config.Engine, o.config.EngineOptions.Options())
		}
		if err != nil {
			return nil, fmt.Errorf("vsp: open engine: %w", err)
		}
	}

	d := &Device{
		cfg:          o.config,
		engine:       eng,
		priority:     o.config.Priority(),
		videoFactory: o.videoFactory,
		params:       param.New(),
	}

	// The pad defaults are negotiated through the locked Subdev methods,
	// so graphMu is taken only once every entity exists.
	err := d.createEntities()
	d.graphMu.Lock()
	if err == nil {
		err = d.linkEntities()
	}
	if err != nil {
		d.destroyEntities()
		d.graphMu.Unlock()
		return nil, err
	}
	for _, w := range d.wpfs {
		d.pipes = append(d.pipes, newPipeline(d, w))
	}
	d.graphMu.Unlock()

	trackEngine(eng)
	d.jobs = newJobDriver(d)

	Logger().Info("vsp: device open",
		"device", d.cfg.DeviceID,
		"engine", eng.Name(),
		"priority", d.priority,
		"entities", len(d.entities),
		"links", len(d.links))
	return d, nil
}

// createEntities creates the compositor, then the read pipes, scalers and
// write pipes. Pipes get a video node right after they are registered so
// that a failure releases it with the entity.
func (d *Device) createEntities() error {
	bru, err := newCompositor(d)
	if err != nil {
		return err
	}
	d.bru = bru
	d.entities = append(d.entities, bru.entity)

	for i := range d.cfg.ReadPipes {
		r, err := newReadPipe(d, i)
		if err != nil {
			return err
		}
		d.rpfs = append(d.rpfs, r)
		d.entities = append(d.entities, r.entity)
		if err := d.newVideo(r.entity); err != nil {
			return err
		}
	}

	for i := range d.cfg.Scalers {
		s, err := newScaler(d, i)
		if err != nil {
			return err
		}
		d.udss = append(d.udss, s)
		d.entities = append(d.entities, s.entity)
	}

	for i := range d.cfg.WritePipes {
		w, err := newWritePipe(d, i)
		if err != nil {
			return err
		}
		d.wpfs = append(d.wpfs, w)
		d.entities = append(d.entities, w.entity)
		if err := d.newVideo(w.entity); err != nil {
			return err
		}
	}
	return nil
}

func (d *Device) newVideo(e *Entity) error {
	v, err := d.videoFactory(e)
	if err != nil {
		return fmt.Errorf("vsp: %s video: %w: %w", e.Name(), ErrAllocation, err)
	}
	e.video = v
	return nil
}

// linkEntities creates the links into every entity that has sink pads.
func (d *Device) linkEntities() error {
	for _, e := range d.entities {
		if e.Type == EntityReadPipe {
			continue
		}
		if err := d.createLinks(e); err != nil {
			return err
		}
	}
	return nil
}

// destroyEntities releases the entities in reverse creation order.
// d.graphMu must be held.
func (d *Device) destroyEntities() {
	for _, e := range slices.Backward(d.entities) {
		e.destroy()
	}
	d.entities = nil
	d.links = nil
	d.bru = nil
	d.rpfs = nil
	d.udss = nil
	d.wpfs = nil
	d.pipes = nil
}

// Acquire takes a reference on the device. The first reference opens an
// engine session and resets the parameter block.
func (d *Device) Acquire() error {
	if d.closed.Load() {
		return ErrClosed
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.ref == 0 {
		h, err := d.engine.Initialize()
		if err != nil {
			return fmt.Errorf("vsp: engine initialize: %w", err)
		}
		d.withParams(func(p *param.Params) { p.Reset() })
		d.sess.Store(&session{handle: h})
		Logger().Info("vsp: engine session open", "engine", d.engine.Name(), "handle", h)
	}
	d.ref++
	d.refs.Store(int32(d.ref))
	return nil
}

// Release drops a reference taken by Acquire. The last reference shuts the
// engine session down.
func (d *Device) Release() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.ref == 0 {
		return ErrNotAcquired
	}
	d.ref--
	d.refs.Store(int32(d.ref))
	if d.ref > 0 {
		return nil
	}
	return d.shutdown()
}

// shutdown closes the engine session. d.mu must be held.
func (d *Device) shutdown() error {
	s := d.sess.Swap(nil)
	if s == nil {
		return nil
	}
	if err := d.engine.Shutdown(s.handle); err != nil {
		Logger().Error("vsp: engine shutdown", "handle", s.handle, "err", err)
		return fmt.Errorf("vsp: engine shutdown: %w", err)
	}
	Logger().Info("vsp: engine session closed", "engine", d.engine.Name(), "handle", s.handle)
	return nil
}

// RefCount returns the number of references taken with Acquire.
func (d *Device) RefCount() int {
	return int(d.refs.Load())
}

// withParams runs fn with the parameter block locked.
func (d *Device) withParams(fn func(p *param.Params)) {
	d.paramsMu.Lock()
	defer d.paramsMu.Unlock()
	fn(d.params)
}

// Params returns a copy of the parameter block.
func (d *Device) Params() *param.Params {
	var c *param.Params
	d.withParams(func(p *param.Params) { c = p.Clone() })
	return c
}

// Submit queues a job running the current parameter block. It blocks while
// another request is queued. The returned Job completes when the engine
// reports completion or rejects the job.
func (d *Device) Submit(ctx context.Context) (*Job, error) {
	if d.closed.Load() {
		return nil, ErrClosed
	}
	if d.sess.Load() == nil {
		return nil, ErrNotAcquired
	}
	return d.jobs.enqueue(ctx)
}

// frameEnd signals the end of a frame to every pipeline of the device.
func (d *Device) frameEnd() {
	d.graphMu.Lock()
	pipes := d.pipes
	d.graphMu.Unlock()
	for _, pl := range pipes {
		pl.frameEnd()
	}
}

// SuspendAll stops every started pipeline after its running frame. It does
// nothing when the device is not in use.
func (d *Device) SuspendAll(ctx context.Context) error {
	if d.mu.TryLock() {
		d.mu.Unlock()
	} else {
		Logger().Warn("vsp: suspend with the device lock held")
	}
	if d.refs.Load() == 0 {
		return nil
	}

	for _, pl := range d.pipes {
		if err := pl.Suspend(ctx); err != nil {
			return err
		}
	}
	return nil
}

// ResumeAll restarts the pipelines stopped by SuspendAll.
func (d *Device) ResumeAll() error {
	if d.mu.TryLock() {
		d.mu.Unlock()
	} else {
		Logger().Warn("vsp: resume with the device lock held")
	}
	if d.refs.Load() == 0 {
		return nil
	}

	var errs []error
	for _, pl := range d.pipes {
		if err := pl.Resume(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Close stops the started pipelines and the job worker, closes the engine
// session and destroys the entities.
func (d *Device) Close() error {
	if d.closed.Swap(true) {
		return ErrClosed
	}

	var errs []error
	for _, pl := range d.pipes {
		if !pl.Started() {
			continue
		}
		if err := pl.Stop(context.Background()); err != nil {
			errs = append(errs, err)
		}
	}

	if err := d.jobs.stop(); err != nil {
		errs = append(errs, err)
	}

	d.mu.Lock()
	if d.ref > 0 {
		Logger().Warn("vsp: close with the device in use", "refs", d.ref)
		d.ref = 0
		d.refs.Store(0)
		if err := d.shutdown(); err != nil {
			errs = append(errs, err)
		}
	}
	d.mu.Unlock()

	d.graphMu.Lock()
	d.destroyEntities()
	d.graphMu.Unlock()

	untrackEngine(d.engine)
	Logger().Info("vsp: device closed", "device", d.cfg.DeviceID)
	return errors.Join(errs...)
}

// Config returns the device configuration.
func (d *Device) Config() Config { return d.cfg }

// Engine returns the execution engine.
func (d *Device) Engine() engine.Engine { return d.engine }

// Entities returns every entity in creation order.
func (d *Device) Entities() []*Entity {
	d.graphMu.Lock()
	defer d.graphMu.Unlock()
	return slices.Clone(d.entities)
}

// Compositor returns the compositor.
func (d *Device) Compositor() *Compositor { return d.bru }

// ReadPipe returns read pipe i, or nil.
func (d *Device) ReadPipe(i int) *ReadPipe {
	if i < 0 || i >= len(d.rpfs) {
		return nil
	}
	return d.rpfs[i]
}

// Scaler returns scaler i, or nil.
func (d *Device) Scaler(i int) *Scaler {
	if i < 0 || i >= len(d.udss) {
		return nil
	}
	return d.udss[i]
}

// WritePipe returns write pipe i, or nil.
func (d *Device) WritePipe(i int) *WritePipe {
	if i < 0 || i >= len(d.wpfs) {
		return nil
	}
	return d.wpfs[i]
}

// Pipeline returns the pipeline ending at write pipe i, or nil.
func (d *Device) Pipeline(i int) *Pipeline {
	if i < 0 || i >= len(d.pipes) {
		return nil
	}
	return d.pipes[i]
}
