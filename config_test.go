// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package vsp

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gogpu/vsp/engine"
)

func TestParseConfig(t *testing.T) {
	data := []byte(`
device_id: 1
read_pipes: 2
engine: sim
engine_options:
  latency: 2ms
  frame_rate: 60
stop_timeout: 1s
log:
  level: debug
  format: json
`)
	cfg, err := ParseConfig(data)
	if err != nil {
		t.Fatalf("ParseConfig: %v", err)
	}

	if cfg.DeviceID != 1 {
		t.Errorf("DeviceID = %d, want 1", cfg.DeviceID)
	}
	if cfg.ReadPipes != 2 {
		t.Errorf("ReadPipes = %d, want 2", cfg.ReadPipes)
	}
	// Fields not in the document keep their defaults.
	if cfg.Scalers != 1 || cfg.WritePipes != 1 {
		t.Errorf("Scalers, WritePipes = %d, %d, want 1, 1", cfg.Scalers, cfg.WritePipes)
	}
	if cfg.StopTimeout != time.Second {
		t.Errorf("StopTimeout = %v, want 1s", cfg.StopTimeout)
	}
	want := engine.Options{Latency: 2 * time.Millisecond, FrameRate: 60}
	if got := cfg.EngineOptions.Options(); got != want {
		t.Errorf("EngineOptions = %+v, want %+v", got, want)
	}
	if cfg.Log.Format != "json" || cfg.Log.Level != "debug" {
		t.Errorf("Log = %+v, want debug/json", cfg.Log)
	}
}

func TestParseConfigEmpty(t *testing.T) {
	cfg, err := ParseConfig(nil)
	if err != nil {
		t.Fatalf("ParseConfig(nil): %v", err)
	}
	if cfg != DefaultConfig() {
		t.Errorf("ParseConfig(nil) = %+v, want %+v", cfg, DefaultConfig())
	}
}

func TestParseConfigErrors(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"unknown field", "read_pipe: 2\n"},
		{"negative count", "scalers: -1\n"},
		{"zero timeout", "stop_timeout: 0s\n"},
		{"bad level", "log:\n  level: loud\n"},
		{"bad format", "log:\n  format: xml\n"},
		{"bad yaml", "read_pipes: [\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseConfig([]byte(tt.data)); err == nil {
				t.Errorf("ParseConfig(%q) = nil error", tt.data)
			}
		})
	}

	if _, err := ParseConfig([]byte("log:\n  format: xml\n")); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("bad format error = %v, want %v", err, ErrInvalidArgument)
	}
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vsp.yaml")
	if err := os.WriteFile(path, []byte("write_pipes: 1\nread_pipes: 3\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.ReadPipes != 3 {
		t.Errorf("ReadPipes = %d, want 3", cfg.ReadPipes)
	}

	if _, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("LoadConfig(missing) = %v, want %v", err, os.ErrNotExist)
	}
}

func TestConfigPriority(t *testing.T) {
	tests := []struct {
		id   int
		want engine.Priority
	}{
		{0, engine.PriorityPrimary},
		{1, engine.PrioritySecondary},
		{2, engine.PriorityPrimary},
	}
	for _, tt := range tests {
		cfg := Config{DeviceID: tt.id}
		if got := cfg.Priority(); got != tt.want {
			t.Errorf("Config{DeviceID: %d}.Priority() = %d, want %d", tt.id, got, tt.want)
		}
	}
}
