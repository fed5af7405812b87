// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package vsp

import "errors"

var (
	// ErrConfiguration is returned when an entity has no route table entry,
	// for instance when more instances of a type are requested than the
	// hardware has. It aborts device bring-up.
	ErrConfiguration = errors.New("vsp: no route for entity")

	// ErrInvalidIndex is returned when a pipe index has no parameter
	// sub-block.
	ErrInvalidIndex = errors.New("vsp: invalid pipe index")

	// ErrBusy is returned when a source already drives another sink, or an
	// entity already belongs to another started pipeline.
	ErrBusy = errors.New("vsp: busy")

	// ErrAllocation is returned when a resource needed during bring-up
	// cannot be obtained.
	ErrAllocation = errors.New("vsp: allocation failed")

	// ErrEngineSubmission is returned when the execution engine rejects a
	// job.
	ErrEngineSubmission = errors.New("vsp: job submission failed")

	// ErrStaleCompletion is reported when a completion carries a job id
	// other than the one last submitted. It is never fatal.
	ErrStaleCompletion = errors.New("vsp: unexpected job id")

	// ErrInvalidPad is returned for a pad index the entity does not have,
	// or a pad that does not support the requested operation.
	ErrInvalidPad = errors.New("vsp: invalid pad")

	// ErrInvalidArgument is returned for unsupported enumeration indices,
	// selection targets, controls or values.
	ErrInvalidArgument = errors.New("vsp: invalid argument")

	// ErrPipeMismatch is returned when a pipeline cannot start because a
	// link or video format does not match, or the graph is malformed.
	ErrPipeMismatch = errors.New("vsp: pipeline formats or topology mismatch")

	// ErrNotAcquired is returned when the device has no engine session.
	ErrNotAcquired = errors.New("vsp: device not acquired")

	// ErrNotStreaming is returned when a frame is queued on a pipeline that
	// has not been started.
	ErrNotStreaming = errors.New("vsp: pipeline not streaming")

	// ErrClosed is returned after the device has been closed.
	ErrClosed = errors.New("vsp: device closed")
)
