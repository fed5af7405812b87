// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package engine

import (
	"cmp"
	"errors"
	"fmt"
	"slices"
	"sync"
)

// Descriptor describes an engine implementation to the registry.
type Descriptor struct {
	// Name is the unique engine name used in configuration files.
	Name string

	// Priority orders the automatic choice, highest first. Hardware
	// engines use 100, the simulator 10.
	Priority int

	// Description is a one-line summary shown in listings.
	Description string

	// New creates an engine.
	New func(opts Options) (Engine, error)

	// Check reports why the engine cannot run on this system. A nil Check
	// means the engine always runs.
	Check func() error
}

func (d *Descriptor) check() error {
	if d.Check == nil {
		return nil
	}
	if err := d.Check(); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrNoEngineAvailable, d.Name, err)
	}
	return nil
}

// Status is a registered engine and the outcome of its check.
type Status struct {
	Name        string
	Priority    int
	Description string

	// Err is nil when the engine can run.
	Err error
}

// Registry holds engine descriptors ordered by priority. The zero value is
// an empty registry.
type Registry struct {
	mu      sync.Mutex
	engines []Descriptor
}

var defaultRegistry Registry

// Register adds an engine to the default registry. It panics when the
// descriptor has no name or constructor, or when the name is taken.
func Register(d Descriptor) { defaultRegistry.Register(d) }

// Engines returns the engines of the default registry, best first.
func Engines() []Status { return defaultRegistry.Engines() }

// New creates the best engine of the default registry that runs here.
func New(opts Options) (Engine, error) { return defaultRegistry.New(opts) }

// NewByName creates the named engine of the default registry.
func NewByName(name string, opts Options) (Engine, error) {
	return defaultRegistry.NewByName(name, opts)
}

// Register adds an engine. It panics when the descriptor has no name or
// constructor, or when the name is taken.
func (r *Registry) Register(d Descriptor) {
	if d.Name == "" || d.New == nil {
		panic("engine: Register needs a name and a constructor")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.lookup(d.Name) != nil {
		panic("engine: Register called twice for " + d.Name)
	}
	r.engines = append(r.engines, d)
	slices.SortStableFunc(r.engines, func(a, b Descriptor) int {
		if c := cmp.Compare(b.Priority, a.Priority); c != 0 {
			return c
		}
		return cmp.Compare(a.Name, b.Name)
	})
}

// Engines checks every engine and returns them best first.
func (r *Registry) Engines() []Status {
	descs := r.snapshot()
	out := make([]Status, len(descs))
	for i := range descs {
		d := &descs[i]
		out[i] = Status{
			Name:        d.Name,
			Priority:    d.Priority,
			Description: d.Description,
			Err:         d.check(),
		}
	}
	return out
}

// New creates the first engine, in priority order, whose check and
// constructor succeed. The errors of the engines passed over are joined.
func (r *Registry) New(opts Options) (Engine, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	descs := r.snapshot()
	if len(descs) == 0 {
		return nil, ErrNoEngineAvailable
	}

	var errs []error
	for i := range descs {
		e, err := create(&descs[i], opts)
		if err == nil {
			return e, nil
		}
		errs = append(errs, err)
	}
	return nil, errors.Join(errs...)
}

// NewByName creates the named engine.
func (r *Registry) NewByName(name string, opts Options) (Engine, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	d := r.lookup(name)
	var desc Descriptor
	if d != nil {
		desc = *d
	}
	r.mu.Unlock()

	if d == nil {
		return nil, fmt.Errorf("%w: %q", ErrEngineNotFound, name)
	}
	return create(&desc, opts)
}

func create(d *Descriptor, opts Options) (Engine, error) {
	if err := d.check(); err != nil {
		return nil, err
	}
	e, err := d.New(opts)
	if err != nil {
		return nil, fmt.Errorf("engine: %s: %w", d.Name, err)
	}
	return e, nil
}

// snapshot copies the descriptors so that checks and constructors run
// without r.mu.
func (r *Registry) snapshot() []Descriptor {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.engines)
}

// lookup returns the named descriptor. r.mu must be held.
func (r *Registry) lookup(name string) *Descriptor {
	for i := range r.engines {
		if r.engines[i].Name == name {
			return &r.engines[i]
		}
	}
	return nil
}
