// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package sim provides a simulated execution engine.
//
// The simulator accepts parameter blocks, keeps a copy of each one and
// completes jobs asynchronously after a configurable latency, limited to a
// configurable frame rate. Failures can be injected to exercise the error
// paths of the job driver: synchronous rejection, failed completion and
// completion with an unexpected job id.
//
// Importing the package registers the simulator under the name "sim":
//
//	import _ "github.com/gogpu/vsp/engine/sim"
package sim

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"github.com/gogpu/vsp/engine"
	"github.com/gogpu/vsp/param"
)

// Name is the registry name of the simulator.
const Name = "sim"

// ErrJobFailed is reported to the completion callback of a job set up to
// fail with FailNextCompletion.
var ErrJobFailed = errors.New("sim: job failed")

func init() {
	engine.Register(engine.Descriptor{
		Name:        Name,
		Priority:    10,
		Description: "simulated engine with a fixed latency and an optional frame rate limit",
		New: func(opts engine.Options) (engine.Engine, error) {
			return New(opts), nil
		},
	})
}

// Record is a job accepted by the simulator.
type Record struct {
	ID       engine.JobID
	Priority engine.Priority
	Params   *param.Params
}

// Engine is a simulated execution engine. It is safe for concurrent use.
type Engine struct {
	opts    engine.Options
	limiter *rate.Limiter

	mu         sync.Mutex
	handles    map[engine.Handle]struct{}
	nextHandle engine.Handle
	nextJob    engine.JobID
	records    []Record
	rejectNext error
	failNext   bool
	staleNext  bool

	pending     sync.WaitGroup
	inFlight    atomic.Int32
	maxInFlight atomic.Int32
	completed   atomic.Int64

	logger atomic.Pointer[slog.Logger]
}

// New returns a simulator. A zero FrameRate means no throughput limit.
func New(opts engine.Options) *Engine {
	limit := rate.Inf
	if opts.FrameRate > 0 {
		limit = rate.Limit(opts.FrameRate)
	}
	e := &Engine{
		opts:    opts,
		limiter: rate.NewLimiter(limit, 1),
		handles: make(map[engine.Handle]struct{}),
	}
	e.logger.Store(slog.New(slog.DiscardHandler))
	return e
}

// SetLogger sets the logger used for engine diagnostics. Nil disables
// logging.
func (e *Engine) SetLogger(l *slog.Logger) {
	if l == nil {
		l = slog.New(slog.DiscardHandler)
	}
	e.logger.Store(l)
}

// Name implements engine.Engine.
func (e *Engine) Name() string { return Name }

// Initialize implements engine.Engine.
func (e *Engine) Initialize() (engine.Handle, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.nextHandle++
	h := e.nextHandle
	e.handles[h] = struct{}{}
	e.logger.Load().Info("sim: session opened", "handle", h)
	return h, nil
}

// Shutdown implements engine.Engine. It waits for the completion of every
// accepted job.
func (e *Engine) Shutdown(h engine.Handle) error {
	e.mu.Lock()
	_, ok := e.handles[h]
	delete(e.handles, h)
	e.mu.Unlock()

	if !ok {
		return fmt.Errorf("sim: shutdown: %w", engine.ErrInvalidHandle)
	}

	e.pending.Wait()
	e.logger.Load().Info("sim: session closed", "handle", h)
	return nil
}

// Submit implements engine.Engine. The completion callback always runs on
// a separate goroutine.
func (e *Engine) Submit(h engine.Handle, p *param.Params, pri engine.Priority, done engine.CompletionFunc) (engine.JobID, error) {
	e.mu.Lock()
	if _, ok := e.handles[h]; !ok {
		e.mu.Unlock()
		return 0, fmt.Errorf("sim: submit: %w", engine.ErrInvalidHandle)
	}
	if err := e.rejectNext; err != nil {
		e.rejectNext = nil
		e.mu.Unlock()
		return 0, fmt.Errorf("%w: %w", engine.ErrRejected, err)
	}

	e.nextJob++
	id := e.nextJob
	e.records = append(e.records, Record{ID: id, Priority: pri, Params: p.Clone()})

	var status error
	if e.failNext {
		e.failNext = false
		status = ErrJobFailed
	}
	reported := id
	if e.staleNext {
		e.staleNext = false
		reported = id + 1000
	}
	e.pending.Add(1)
	e.mu.Unlock()

	n := e.inFlight.Add(1)
	for {
		m := e.maxInFlight.Load()
		if n <= m || e.maxInFlight.CompareAndSwap(m, n) {
			break
		}
	}

	go e.run(reported, status, done)
	return id, nil
}

func (e *Engine) run(id engine.JobID, status error, done engine.CompletionFunc) {
	defer e.pending.Done()

	if err := e.limiter.Wait(context.Background()); err != nil {
		status = errors.Join(status, err)
	}
	if e.opts.Latency > 0 {
		time.Sleep(e.opts.Latency)
	}

	e.inFlight.Add(-1)
	e.completed.Add(1)
	e.logger.Load().Debug("sim: job complete", "job", id, "err", status)
	if done != nil {
		done(id, status)
	}
}

// RejectNext makes the next Submit fail synchronously with err.
func (e *Engine) RejectNext(err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.rejectNext = err
}

// FailNextCompletion makes the next accepted job complete with ErrJobFailed.
func (e *Engine) FailNextCompletion() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.failNext = true
}

// StaleNextCompletion makes the next accepted job report a job id other
// than the one returned by Submit.
func (e *Engine) StaleNextCompletion() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.staleNext = true
}

// Records returns the accepted jobs in submission order.
func (e *Engine) Records() []Record {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]Record, len(e.records))
	copy(out, e.records)
	return out
}

// MaxInFlight returns the highest number of jobs that were pending at the
// same time.
func (e *Engine) MaxInFlight() int {
	return int(e.maxInFlight.Load())
}

// Completed returns the number of completed jobs.
func (e *Engine) Completed() int64 {
	return e.completed.Load()
}
