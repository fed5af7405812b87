// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package vsp

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/gogpu/vsp/engine"
)

// nopHandler is a slog.Handler that silently discards all log records.
// Enabled returns false so callers skip message formatting entirely.
type nopHandler struct{}

func (nopHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (nopHandler) Handle(context.Context, slog.Record) error { return nil }
func (nopHandler) WithAttrs([]slog.Attr) slog.Handler        { return nopHandler{} }
func (nopHandler) WithGroup(string) slog.Handler             { return nopHandler{} }

func newNopLogger() *slog.Logger { return slog.New(nopHandler{}) }

// loggerPtr stores the active logger. Accessed atomically so that
// SetLogger can be called concurrently with logging from any goroutine.
var loggerPtr atomic.Pointer[slog.Logger]

func init() {
	loggerPtr.Store(newNopLogger())
}

// engines tracks the engines of open devices so that SetLogger reaches
// them.
var (
	enginesMu sync.Mutex
	engines   = make(map[engine.Engine]int)
)

// SetLogger configures the logger for vsp and the engines of open devices.
// By default, vsp produces no log output. Pass nil to restore silence.
//
// Log levels used by vsp:
//   - [slog.LevelDebug]: per-frame parameter patches and job completions
//   - [slog.LevelInfo]: device bring-up and engine session lifecycle
//   - [slog.LevelWarn]: stale completions, power transitions with the device lock held
//   - [slog.LevelError]: rejected submissions and failed jobs
func SetLogger(l *slog.Logger) {
	if l == nil {
		l = newNopLogger()
	}
	loggerPtr.Store(l)

	enginesMu.Lock()
	defer enginesMu.Unlock()
	for e := range engines {
		propagateLogger(e, l)
	}
}

// Logger returns the current logger used by vsp.
//
// Logger is safe for concurrent use.
func Logger() *slog.Logger {
	return loggerPtr.Load()
}

// loggerSetter is implemented by engines that accept a logger.
type loggerSetter interface {
	SetLogger(*slog.Logger)
}

// propagateLogger passes the logger to an engine if it implements
// loggerSetter.
func propagateLogger(e engine.Engine, l *slog.Logger) {
	if ls, ok := e.(loggerSetter); ok {
		ls.SetLogger(l)
	}
}

func trackEngine(e engine.Engine) {
	enginesMu.Lock()
	defer enginesMu.Unlock()
	engines[e]++
	propagateLogger(e, Logger())
}

func untrackEngine(e engine.Engine) {
	enginesMu.Lock()
	defer enginesMu.Unlock()
	if engines[e]--; engines[e] <= 0 {
		delete(engines, e)
	}
}
