// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package vsp

import "fmt"

// Link connects the source pad of an entity to a sink pad of another.
// Every possible connection exists from bring-up on, only enabled links
// carry pixels.
type Link struct {
	Source  *Entity
	Sink    *Entity
	SinkPad int

	enabled bool
}

// String returns a short link description.
func (l *Link) String() string {
	return fmt.Sprintf("%s -> %s:%d", l.Source.Name(), l.Sink.Name(), l.SinkPad)
}

// Enabled reports whether the link is enabled.
func (l *Link) Enabled() bool {
	l.Source.dev.graphMu.Lock()
	defer l.Source.dev.graphMu.Unlock()
	return l.enabled
}

// newLink creates a link to a sink pad of sink. An enabled link also sets
// the sink of the source.
func (d *Device) newLink(source, sink *Entity, pad int, enabled bool) error {
	if err := sink.checkPad(pad); err != nil {
		return err
	}
	if sink.pads[pad] != PadSink {
		return fmt.Errorf("vsp: link to %s pad %d: %w", sink.Name(), pad, ErrInvalidPad)
	}
	if source == sink {
		return fmt.Errorf("vsp: link %s to itself: %w", source.Name(), ErrInvalidArgument)
	}

	l := &Link{Source: source, Sink: sink, SinkPad: pad}
	if enabled {
		if err := source.setupLink(sink, pad, true); err != nil {
			return err
		}
		l.enabled = true
	}
	d.links = append(d.links, l)
	return nil
}

// createLinks links every possible source to the sink pads of sink. Only
// read pipe n to write pipe n is enabled.
func (d *Device) createLinks(sink *Entity) error {
	for _, source := range d.entities {
		if source.Type == sink.Type || source.Type == EntityWritePipe {
			continue
		}
		enabled := source.Type == EntityReadPipe &&
			sink.Type == EntityWritePipe &&
			source.Index == sink.Index

		for pad, dir := range sink.pads {
			if dir != PadSink {
				continue
			}
			if err := d.newLink(source, sink, pad, enabled); err != nil {
				return fmt.Errorf("vsp: link %s -> %s:%d: %w", source.Name(), sink.Name(), pad, err)
			}
		}
	}
	return nil
}

// Links returns every link of the device.
func (d *Device) Links() []*Link {
	d.graphMu.Lock()
	defer d.graphMu.Unlock()
	return append([]*Link(nil), d.links...)
}

// FindLink returns the link from source to a sink pad of sink, or nil.
func (d *Device) FindLink(source, sink *Entity, pad int) *Link {
	d.graphMu.Lock()
	defer d.graphMu.Unlock()
	for _, l := range d.links {
		if l.Source == source && l.Sink == sink && l.SinkPad == pad {
			return l
		}
	}
	return nil
}

// SetLinkEnabled enables or disables a link. Enabling fails with ErrBusy
// when the source already drives another sink, or when either end belongs
// to a started pipeline. Disabling clears the sink of the source.
func (d *Device) SetLinkEnabled(l *Link, enable bool) error {
	d.graphMu.Lock()
	defer d.graphMu.Unlock()

	if l.Source.pipe.Load() != nil || l.Sink.pipe.Load() != nil {
		return fmt.Errorf("vsp: link %s is streaming: %w", l, ErrBusy)
	}
	if l.enabled == enable {
		return nil
	}
	if err := l.Source.setupLink(l.Sink, l.SinkPad, enable); err != nil {
		return err
	}
	l.enabled = enable
	return nil
}
