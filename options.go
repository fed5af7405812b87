// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package vsp

import "github.com/gogpu/vsp/engine"

// Option configures a Device during Open.
// Use functional options to customize the device.
//
// Example:
//
//	// Engine picked from the registry
//	dev, err := vsp.Open()
//
//	// Injected engine (dependency injection)
//	dev, err := vsp.Open(vsp.WithEngine(sim.New(engine.Options{})))
type Option func(*deviceOptions)

// deviceOptions holds optional configuration for Device creation.
type deviceOptions struct {
	config       Config
	engine       engine.Engine
	videoFactory VideoFactory
}

// defaultOptions returns the default device options.
func defaultOptions() deviceOptions {
	return deviceOptions{
		config:       DefaultConfig(),
		engine:       nil, // Will be created from the registry if nil
		videoFactory: NewVideo,
	}
}

// WithConfig sets the device configuration.
//
// Example:
//
//	cfg, err := vsp.LoadConfig("vsp.yaml")
//	dev, err := vsp.Open(vsp.WithConfig(cfg))
func WithConfig(cfg Config) Option {
	return func(o *deviceOptions) {
		o.config = cfg
	}
}

// WithEngine sets the execution engine, bypassing the registry and the
// engine settings of the configuration.
func WithEngine(e engine.Engine) Option {
	return func(o *deviceOptions) {
		o.engine = e
	}
}

// WithVideoFactory sets the constructor of the read and write pipe video
// nodes. The default is NewVideo.
func WithVideoFactory(f VideoFactory) Option {
	return func(o *deviceOptions) {
		if f != nil {
			o.videoFactory = f
		}
	}
}
