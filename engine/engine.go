// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package engine defines the boundary to the execution engine that runs
// submitted parameter blocks, and a registry of named engines.
//
// The engine is opaque: it receives a complete parameter block per job and
// reports completion through a callback. Implementations register
// themselves from an init function:
//
//	func init() {
//	    engine.Register(engine.Descriptor{Name: "sim", Priority: 10, New: newSimEngine})
//	}
package engine

import (
	"errors"
	"fmt"
	"time"

	"github.com/gogpu/vsp/param"
)

// Engine errors.
var (
	// ErrNoEngineAvailable is returned when no registered engine is available.
	ErrNoEngineAvailable = errors.New("engine: no engine available")

	// ErrEngineNotFound is returned when a named engine is not registered.
	ErrEngineNotFound = errors.New("engine: engine not found")

	// ErrInvalidHandle is returned for a handle the engine did not issue or
	// already shut down.
	ErrInvalidHandle = errors.New("engine: invalid handle")

	// ErrRejected is returned by Submit when the engine refuses a job.
	ErrRejected = errors.New("engine: job rejected")
)

// Handle identifies an initialized engine session.
type Handle uint64

// JobID identifies a submitted job.
type JobID uint64

// Priority is the scheduling priority of a job.
type Priority uint8

// Job priorities. The second device instance runs at the lower priority.
const (
	PriorityPrimary   Priority = 126
	PrioritySecondary Priority = 125
)

// CompletionFunc is called once per accepted job. err is nil when the job
// completed successfully.
//
// Engines must not call it from within Submit: callers may hold locks
// around Submit that the completion path also takes.
type CompletionFunc func(id JobID, err error)

// Engine executes parameter blocks.
type Engine interface {
	// Name returns the engine name.
	Name() string

	// Initialize opens a session.
	Initialize() (Handle, error)

	// Shutdown closes a session. Completions of accepted jobs are delivered
	// before Shutdown returns.
	Shutdown(h Handle) error

	// Submit queues a job. The engine must not retain p after the job
	// completes. On error no completion is delivered.
	Submit(h Handle, p *param.Params, pri Priority, done CompletionFunc) (JobID, error)
}

// Options configures an engine created through the registry.
type Options struct {
	// Latency is the time a job takes from acceptance to completion.
	Latency time.Duration

	// FrameRate limits the number of jobs completed per second. Zero means
	// unlimited.
	FrameRate float64
}

// Validate checks that the options are usable.
func (o Options) Validate() error {
	if o.Latency < 0 {
		return fmt.Errorf("engine: negative latency %v", o.Latency)
	}
	if o.FrameRate < 0 {
		return fmt.Errorf("engine: negative frame rate %v", o.FrameRate)
	}
	return nil
}
