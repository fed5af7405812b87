// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package vsp

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/gogpu/vsp/engine"
)

// DefaultStopTimeout bounds the wait for the running frame when a pipeline
// stops or suspends.
const DefaultStopTimeout = 500 * time.Millisecond

// Config is the device configuration.
type Config struct {
	// DeviceID selects the job priority: device 1 submits at the secondary
	// priority, every other device at the primary one.
	DeviceID int `yaml:"device_id"`

	// Entity counts. Counts above what the route table holds fail Open.
	ReadPipes  int `yaml:"read_pipes"`
	Scalers    int `yaml:"scalers"`
	WritePipes int `yaml:"write_pipes"`

	// Engine is the registry name of the execution engine. Empty picks the
	// highest priority available engine.
	Engine        string       `yaml:"engine"`
	EngineOptions EngineConfig `yaml:"engine_options"`

	StopTimeout time.Duration `yaml:"stop_timeout"`

	Log LogConfig `yaml:"log"`
}

// EngineConfig holds the options passed to the engine factory.
type EngineConfig struct {
	Latency   time.Duration `yaml:"latency"`
	FrameRate float64       `yaml:"frame_rate"`
}

// Options converts the configuration to engine options.
func (c EngineConfig) Options() engine.Options {
	return engine.Options{Latency: c.Latency, FrameRate: c.FrameRate}
}

// LogConfig selects the log output.
type LogConfig struct {
	// Level is one of debug, info, warn and error.
	Level string `yaml:"level"`
	// Format is text or json.
	Format string `yaml:"format"`
}

// DefaultConfig returns the configuration of a fully populated device.
func DefaultConfig() Config {
	return Config{
		ReadPipes:   4,
		Scalers:     1,
		WritePipes:  1,
		StopTimeout: DefaultStopTimeout,
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// ParseConfig decodes a YAML configuration. Missing fields keep their
// default values and unknown fields are rejected.
func ParseConfig(data []byte) (Config, error) {
	cfg := DefaultConfig()

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("vsp: parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadConfig reads and decodes a YAML configuration file.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("vsp: load config: %w", err)
	}
	return ParseConfig(data)
}

// Validate checks the configuration values.
func (c Config) Validate() error {
	if c.ReadPipes < 0 || c.Scalers < 0 || c.WritePipes < 0 {
		return fmt.Errorf("vsp: negative entity count: %w", ErrInvalidArgument)
	}
	if c.StopTimeout <= 0 {
		return fmt.Errorf("vsp: stop timeout %v: %w", c.StopTimeout, ErrInvalidArgument)
	}
	if _, err := c.Log.level(); err != nil {
		return err
	}
	if c.Log.Format != "text" && c.Log.Format != "json" {
		return fmt.Errorf("vsp: log format %q: %w", c.Log.Format, ErrInvalidArgument)
	}
	return nil
}

// Priority returns the job priority of the device.
func (c Config) Priority() engine.Priority {
	if c.DeviceID == 1 {
		return engine.PrioritySecondary
	}
	return engine.PriorityPrimary
}

func (l LogConfig) level() (slog.Level, error) {
	var lv slog.Level
	if err := lv.UnmarshalText([]byte(l.Level)); err != nil {
		return 0, fmt.Errorf("vsp: log level %q: %w", l.Level, ErrInvalidArgument)
	}
	return lv, nil
}

// NewLogger returns a logger writing to w with the configured level and
// format.
func (l LogConfig) NewLogger(w io.Writer) *slog.Logger {
	lv, err := l.level()
	if err != nil {
		lv = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: lv}
	if l.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
