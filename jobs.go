// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package vsp

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/sync/semaphore"
	"gopkg.in/tomb.v2"

	"github.com/gogpu/vsp/engine"
	"github.com/gogpu/vsp/param"
)

// Job is a pending frame submission.
type Job struct {
	done chan struct{}
	id   engine.JobID
	err  error
}

func newJob() *Job {
	return &Job{done: make(chan struct{})}
}

// Done returns a channel closed when the job has completed or failed.
func (j *Job) Done() <-chan struct{} { return j.done }

// Result waits for the job and returns the id it was submitted under and
// its error. A job rejected by the engine has id 0 and an error wrapping
// ErrEngineSubmission.
func (j *Job) Result() (engine.JobID, error) {
	<-j.done
	return j.id, j.err
}

// Wait is like Result but gives up when ctx is done.
func (j *Job) Wait(ctx context.Context) (engine.JobID, error) {
	select {
	case <-j.done:
		return j.id, j.err
	case <-ctx.Done():
		return 0, ctx.Err()
	}
}

func (j *Job) finish(id engine.JobID, err error) {
	j.id = id
	j.err = err
	close(j.done)
}

// jobDriver submits frames to the engine from a single worker. Requests
// queue at depth one. The worker holds a weight-one semaphore from the
// moment it touches the parameter block until the job completes, so at
// most one job is in flight and a request never patches the parameter
// block of the job before it.
type jobDriver struct {
	dev      *Device
	tomb     tomb.Tomb
	requests chan *Job
	inFlight *semaphore.Weighted

	mu      sync.Mutex
	current engine.JobID
	running *Job

	// qmu orders late sends in enqueue against the final drain.
	qmu    sync.Mutex
	closed bool
}

func newJobDriver(d *Device) *jobDriver {
	r := &jobDriver{
		dev:      d,
		requests: make(chan *Job, 1),
		inFlight: semaphore.NewWeighted(1),
	}
	r.tomb.Go(r.loop)
	return r
}

// enqueue queues a request, blocking while the queue is full.
func (r *jobDriver) enqueue(ctx context.Context) (*Job, error) {
	if !r.tomb.Alive() {
		return nil, ErrClosed
	}
	j := newJob()
	select {
	case r.requests <- j:
		// The send may win against Dying after stop drained the queue.
		r.qmu.Lock()
		if r.closed {
			r.drain()
		}
		r.qmu.Unlock()
		return j, nil
	case <-r.tomb.Dying():
		return nil, ErrClosed
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (r *jobDriver) loop() error {
	ctx := r.tomb.Context(context.Background())
	for {
		select {
		case <-r.tomb.Dying():
			return nil
		case j := <-r.requests:
			if err := r.inFlight.Acquire(ctx, 1); err != nil {
				j.finish(0, ErrClosed)
				return nil
			}
			r.entry(j)
		}
	}
}

// entry patches the parameter block and submits a snapshot of it.
func (r *jobDriver) entry(j *Job) {
	d := r.dev

	var p *param.Params
	d.withParams(func(live *param.Params) {
		live.PrepareSubmit()
		p = live.Clone()
	})
	Logger().Debug("vsp: submit", "use_module", p.UseModule, "rpf_num", p.RPFNum, "lay_order", p.BRU.LayerOrder)

	s := d.sess.Load()
	if s == nil {
		r.fail(j, ErrNotAcquired)
		return
	}

	r.mu.Lock()
	id, err := d.engine.Submit(s.handle, p, d.priority, func(id engine.JobID, status error) {
		r.complete(j, id, status)
	})
	if err == nil {
		r.current = id
		r.running = j
	}
	r.mu.Unlock()

	if err != nil {
		r.fail(j, err)
	}
}

// fail ends a job the engine did not accept. Frame end is signaled from a
// new goroutine because it may queue the next frame, which the worker
// itself consumes.
func (r *jobDriver) fail(j *Job, err error) {
	err = fmt.Errorf("%w: %w", ErrEngineSubmission, err)
	Logger().Error("vsp: job submission failed", "err", err)
	r.inFlight.Release(1)
	j.finish(0, err)
	go r.dev.frameEnd()
}

// complete is the engine completion callback. A repeated callback for a
// job that already finished is logged and dropped.
func (r *jobDriver) complete(j *Job, id engine.JobID, status error) {
	r.mu.Lock()
	if r.running != j {
		r.mu.Unlock()
		Logger().Warn("vsp: job completion",
			"err", fmt.Errorf("%w: job %d already finished", ErrStaleCompletion, id))
		return
	}
	r.running = nil
	want := r.current
	r.mu.Unlock()

	var err error
	if id != want {
		err = fmt.Errorf("%w: got %d, want %d", ErrStaleCompletion, id, want)
		Logger().Warn("vsp: job completion", "err", err)
	}
	if status != nil {
		Logger().Error("vsp: job failed", "job", want, "err", status)
		err = errors.Join(err, status)
	} else {
		Logger().Debug("vsp: job complete", "job", want)
	}

	r.inFlight.Release(1)
	j.finish(want, err)
	r.dev.frameEnd()
}

// stop ends the worker. Requests still queued fail with ErrClosed.
func (r *jobDriver) stop() error {
	r.tomb.Kill(nil)
	err := r.tomb.Wait()

	r.qmu.Lock()
	defer r.qmu.Unlock()
	r.closed = true
	r.drain()
	return err
}

// drain fails every queued request. r.qmu must be held.
func (r *jobDriver) drain() {
	for {
		select {
		case j := <-r.requests:
			j.finish(0, ErrClosed)
		default:
			return
		}
	}
}
