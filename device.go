// Copyright 2021 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package epd

import (
	"fmt"
	"sync"

	"github.com/gowave/epd/dispatch"
	"github.com/gowave/epd/framebuf"
	"github.com/gowave/epd/hal"
	"github.com/gowave/epd/harness"
	"github.com/gowave/epd/initseq"
	"github.com/gowave/epd/registry"
	"github.com/gowave/epd/spiproto"

	_ "github.com/gowave/epd/tier2" // registers every controller family's Tier-2 overrides
)

// Device drives one open e-paper panel. A Device is safe for sequential
// use; concurrent operations on the same Device are not supported, mirroring
// the single-threaded HAL contract (spec §4.A).
type Device struct {
	mu       sync.Mutex
	model    string
	cfg      *registry.ModelConfig
	h        hal.Interface
	ctx      *dispatch.Context
	open     bool
	job      *harness.Job
}

// Open resolves name against the model registry, brings up h via
// ModuleInit, and returns a ready-to-Init Device.
func Open(name string, pins hal.Pins, h hal.Interface, opts ...Option) (*Device, error) {
	cfg, err := registry.Config(name)
	if err != nil {
		return nil, classifyErr(name, "open", err)
	}

	var o options
	for _, opt := range opts {
		opt(&o)
	}

	if err := h.ModuleInit(); err != nil {
		return nil, &InitError{Model: name, err: err}
	}

	bus := &spiproto.Bus{H: h, Pins: pins}
	if o.trace != nil {
		bus.Trace = o.trace.Write
	}

	return &Device{
		model: name,
		cfg:   cfg,
		h:     h,
		ctx:   dispatch.New(bus, h, cfg),
		open:  true,
	}, nil
}

// IsOpen reports whether Close has not yet been called.
func (d *Device) IsOpen() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.open
}

// ModelName returns the model name Open resolved.
func (d *Device) ModelName() string { return d.model }

// Close tears down the underlying HAL. A closed Device must not be used
// again.
func (d *Device) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.open {
		return nil
	}
	d.h.ModuleExit()
	d.open = false
	return nil
}

// errNotOpen is returned by every operation on a closed Device.
var errNotOpen = fmt.Errorf("epd: device is closed")

func (d *Device) run(op string, fn func() error) error {
	d.mu.Lock()
	if !d.open {
		d.mu.Unlock()
		return &DeviceError{Model: d.model, Op: op, err: errNotOpen}
	}
	ctx := d.ctx
	job := harness.Run(ctx, fn)
	d.job = job
	d.mu.Unlock()

	err := job.Wait()

	d.mu.Lock()
	d.job = nil
	d.mu.Unlock()

	return classifyErr(d.model, op, err)
}

// Cancel requests the in-flight operation, if any, stop at its next
// cancellation checkpoint (spec §4.J).
func (d *Device) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.job != nil {
		d.job.Cancel()
	}
}

// Init runs the model's init sequence for mode (spec §4.F/§4.H/§4.I).
func (d *Device) Init(mode initseq.Mode) error {
	return d.run("init", func() error {
		return d.ctx.Init(mode)
	})
}

// checkBuffer validates buf against the open model's dimensions and pixel
// format, returning a *FormatMismatchError on mismatch.
func (d *Device) checkBuffer(buf *framebuf.Buffer) error {
	cfg := d.cfg
	if buf.Format() != cfg.PixelFormat {
		return &FormatMismatchError{
			Model:      d.model,
			WantFormat: cfg.PixelFormat.String(),
			Format:     buf.Format().String(),
		}
	}
	if buf.Width() != cfg.Width || buf.Height() != cfg.Height {
		return &FormatMismatchError{
			Model: d.model,
			WantW: cfg.Width, WantH: cfg.Height,
			GotW: buf.Width(), GotH: buf.Height(),
			WantFormat: cfg.PixelFormat.String(), Format: buf.Format().String(),
		}
	}
	return nil
}

// Display writes a full frame (spec §4.H).
func (d *Device) Display(buf *framebuf.Buffer) error {
	if err := d.checkBuffer(buf); err != nil {
		return err
	}
	return d.run("display", func() error {
		return d.ctx.Display(buf.Bytes())
	})
}

// DisplayRegion writes a byte-aligned sub-rectangle of buf (spec §4.K). x
// and w must be multiples of 8.
func (d *Device) DisplayRegion(buf *framebuf.Buffer, x, y, w, h int) error {
	if err := d.checkBuffer(buf); err != nil {
		return err
	}
	return d.run("display_region", func() error {
		return d.ctx.DisplayRegion(buf.Bytes(), x, y, w, h)
	})
}

// Clear fills the whole panel with color (spec §4.J), allocating its
// scratch buffer through the dispatch Context's non-host-managed
// allocator.
func (d *Device) Clear(color byte) error {
	return d.run("clear", func() error {
		buf, err := harness.ClearBuffer(d.ctx, color)
		if err != nil {
			return err
		}
		return d.ctx.Display(buf)
	})
}

// Sleep puts the panel into its deep-sleep state (spec §4.H).
func (d *Device) Sleep() error {
	return d.run("sleep", func() error {
		return d.ctx.Sleep()
	})
}
