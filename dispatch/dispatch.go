// Copyright 2021 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package dispatch resolves the per-operation choice between a model's
// Tier-2 override and the generic Tier-1 data path (spec §4.H), and carries
// the per-device state (the SPI bus, the cancel flag) that both paths need.
package dispatch

import (
	"sync/atomic"

	"github.com/gowave/epd/busywait"
	"github.com/gowave/epd/hal"
	"github.com/gowave/epd/initseq"
	"github.com/gowave/epd/regional"
	"github.com/gowave/epd/registry"
	"github.com/gowave/epd/spiproto"
)

// maxAlloc bounds Context.Alloc the way a fixed-arena allocator would: a
// request past this is almost certainly a caller bug (an unbounded or
// unvalidated region size) rather than a legitimate scratch buffer, so it
// fails cleanly instead of growing the heap without limit.
const maxAlloc = 480 * 1024

// Context is the per-open-device dispatch state. It implements
// registry.Hooks so Tier-2 override functions can drive the bus without
// depending on dispatch's internals.
type Context struct {
	Bus    *spiproto.Bus
	HAL    hal.Interface
	Cfg    *registry.ModelConfig
	cancel int32
}

// New builds a dispatch Context for an already-identified model config.
func New(bus *spiproto.Bus, h hal.Interface, cfg *registry.ModelConfig) *Context {
	return &Context{Bus: bus, HAL: h, Cfg: cfg}
}

func (c *Context) SendCommand(b byte) error      { return c.Bus.SendCommand(b) }
func (c *Context) SendData(b byte) error          { return c.Bus.SendData(b) }
func (c *Context) SendDataBulk(d []byte) error    { return c.Bus.SendDataBulk(d) }
func (c *Context) DelayMs(ms int)                 { c.HAL.DelayMs(ms) }
func (c *Context) Config() *registry.ModelConfig  { return c.Cfg }
func (c *Context) Cancel() *int32                 { return &c.cancel }

func (c *Context) WaitBusy(polarity busywait.Polarity) error {
	return busywait.Wait(c.HAL, c.Bus.Pins.BUSY, polarity, busywait.DefaultTimeoutMs, &c.cancel)
}

// Alloc returns a zeroed n-byte scratch buffer, or a *registry.AllocError if
// n exceeds this framework's fixed scratch-arena bound.
func (c *Context) Alloc(n int) ([]byte, error) {
	if n < 0 || n > maxAlloc {
		return nil, &registry.AllocError{Msg: "requested size exceeds scratch arena bound"}
	}
	return make([]byte, n), nil
}

// RequestCancel sets the cancel flag an in-flight busy-wait or long-running
// operation observes (spec §4.J's unblock callback).
func (c *Context) RequestCancel() { atomic.StoreInt32(c.Cancel(), 1) }

// ResetCancel clears the cancel flag; called at the start of Init, Display
// and DisplayRegion so a previous cancellation cannot leak into the next one.
func (c *Context) ResetCancel() { atomic.StoreInt32(c.Cancel(), 0) }

// Init runs the model's Tier-1 init sequence for mode, then its Tier-2
// CustomInit hook if one is registered (spec §4.H/§4.I).
func (c *Context) Init(mode initseq.Mode) error {
	c.ResetCancel()
	seqs := initseq.Sequences{
		Full:    c.Cfg.InitSequence,
		Fast:    c.Cfg.InitFastSequence,
		Partial: c.Cfg.InitPartialSequence,
	}
	seq := initseq.Select(seqs, mode)
	if err := initseq.Run(c.Bus, c.HAL, c.Cfg, seq, &c.cancel); err != nil {
		return err
	}

	if d := registry.DriverFor(c.Cfg.Name); d != nil && d.CustomInit != nil {
		return d.CustomInit(c, int(mode))
	}
	return nil
}

// Display writes a full frame, preferring a Tier-2 CustomDisplay and falling
// back to the generic write, genericDisplay (spec §4.H).
func (c *Context) Display(buf []byte) error {
	c.ResetCancel()
	d := registry.DriverFor(c.Cfg.Name)

	if d != nil && d.PreDisplay != nil {
		if err := d.PreDisplay(c); err != nil {
			return err
		}
	}

	if d != nil && d.CustomDisplay != nil {
		if err := d.CustomDisplay(c, buf); err != nil {
			return err
		}
	} else if err := c.genericDisplay(buf); err != nil {
		return err
	}

	if d != nil && d.PostDisplay != nil {
		if err := d.PostDisplay(c); err != nil {
			return err
		}
	}
	return nil
}

// genericDisplay writes buf on DisplayCmd, and, if the model declares a
// DisplayCmd2, follows it with that command bare (spec §4.G: the generic
// path is not dual-buffer — Tier-2 overrides supply the second buffer's
// data via their own CustomDisplay).
func (c *Context) genericDisplay(buf []byte) error {
	if err := c.Bus.SendCommand(c.Cfg.DisplayCmd); err != nil {
		return err
	}
	if err := c.Bus.SendDataBulk(buf); err != nil {
		return err
	}

	if c.Cfg.DisplayCmd2 != 0 {
		return c.Bus.SendCommand(c.Cfg.DisplayCmd2)
	}
	return nil
}

// DisplayRegion writes a byte-aligned sub-rectangle of a full frame buffer,
// preferring a Tier-2 CustomDisplayRegion and falling back to the generic
// windowed write (spec §4.K). A CustomDisplayRegion receives the full,
// unextracted frame buffer — families with their own region framing (e.g.
// UC8179's 0x91/0x90 window descriptor) validate and extract it themselves,
// rather than dispatch doing a one-size-fits-all SSD1680-style extraction
// ahead of a handler that doesn't want it.
func (c *Context) DisplayRegion(full []byte, x, y, w, h int) error {
	c.ResetCancel()
	d := registry.DriverFor(c.Cfg.Name)

	if d != nil && d.CustomDisplayRegion != nil {
		if err := d.CustomDisplayRegion(c, full, x, y, w, h); err != nil {
			return err
		}
	} else {
		if !c.Cfg.Capabilities.Has(registry.Regional) {
			return &regional.ParamError{Msg: "model does not support regional refresh"}
		}
		region, err := regional.Extract(full, c.Cfg.Width, c.Cfg.Height, x, y, w, h)
		if err != nil {
			return err
		}
		if err := regional.Write(c.Bus, c.Cfg, region, x, y, w, h); err != nil {
			return err
		}
	}

	if d != nil && d.PostDisplayRegion != nil {
		return d.PostDisplayRegion(c)
	}
	if d != nil && d.PostDisplay != nil {
		return d.PostDisplay(c)
	}
	return nil
}

// Sleep puts the panel into its deep-sleep state (spec §4.H generic_sleep).
func (c *Context) Sleep() error {
	if err := c.Bus.SendCommand(c.Cfg.SleepCmd); err != nil {
		return err
	}
	return c.Bus.SendData(c.Cfg.SleepData)
}
