// Copyright 2021 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package registry holds the static, read-only-after-init catalogue of
// e-paper model configurations and their optional Tier-2 driver overrides,
// and the by-name/by-index lookup over it.
//
// The shipped table in models.go is a representative subset, not the
// vendor's full ~40-model catalogue (see SPEC_FULL.md §13) — the catalogue
// itself is input data, out of this framework's hard-core scope; what
// matters here is that every distinct controller-family code path in
// package tier2 has at least one model exercising it.
package registry

import (
	"fmt"

	"github.com/gowave/epd/busywait"
	"github.com/gowave/epd/framebuf"
)

// Capability is a bit in a ModelConfig's Capabilities field.
type Capability uint32

const (
	Partial Capability = 1 << iota
	Fast
	Grayscale
	DualBuf
	Regional
)

// Has reports whether caps contains c.
func (caps Capability) Has(c Capability) bool { return caps&c != 0 }

// ModelConfig is the immutable, statically-defined description of one panel
// model (spec §3).
type ModelConfig struct {
	Name string

	Width, Height int
	PixelFormat   framebuf.Format

	// Polarity is the BUSY pin's active sense for this controller family.
	Polarity busywait.Polarity

	// ResetDelaysMs holds pre-low, low, post-low delays in milliseconds for
	// the hardware reset pulse.
	ResetDelaysMs [3]int

	DisplayCmd  byte
	DisplayCmd2 byte // 0 == no secondary buffer command

	InitSequence        []byte
	InitFastSequence    []byte // optional
	InitPartialSequence []byte // optional

	Capabilities Capability

	SleepCmd, SleepData byte
}

// Dimensions implements initseq.Target.
func (c *ModelConfig) Dimensions() (int, int) { return c.Width, c.Height }

// ResetMs implements initseq.Target.
func (c *ModelConfig) ResetMs() [3]int { return c.ResetDelaysMs }

// BusyPolarity implements initseq.Target.
func (c *ModelConfig) BusyPolarity() busywait.Polarity { return c.Polarity }

// Driver is an optional set of per-model overrides layered over the generic
// Tier-1 data path (spec §3, §4.H, §4.I). A nil field means "use generic".
type Driver struct {
	Config *ModelConfig

	CustomInit    func(h Hooks, mode int) error
	CustomDisplay func(h Hooks, buf []byte) error
	PreDisplay    func(h Hooks) error
	PostDisplay   func(h Hooks) error

	CustomDisplayRegion func(h Hooks, buf []byte, x, y, w, hgt int) error
	PostDisplayRegion   func(h Hooks) error
}

// Hooks is what a Tier-2 override function needs: the bus, the HAL (for
// DelayMs/busy-wait), the model config, and the per-device cancel flag. It
// is implemented by dispatch.Context.
type Hooks interface {
	SendCommand(byte) error
	SendData(byte) error
	SendDataBulk([]byte) error
	WaitBusy(polarity busywait.Polarity) error
	DelayMs(ms int)
	Config() *ModelConfig
	Cancel() *int32
	// Alloc returns an n-byte scratch buffer from an allocator independent
	// of any host-managed heap (spec §4.I 7in5_v2, §4.J clear scratch
	// buffer; §9 allocator-choice note). Returns a registry.AllocError on
	// failure.
	Alloc(n int) ([]byte, error)
}

// AllocError reports a scratch-buffer allocation failure (spec's AllocErr).
type AllocError struct{ Msg string }

func (e *AllocError) Error() string { return "registry: allocation failed: " + e.Msg }

// ErrModelNotFound is the sentinel wrapped by Config's error when name has
// no registry entry.
var ErrModelNotFound = fmt.Errorf("registry: model not found")

type notFoundError struct {
	name string
}

func (e *notFoundError) Error() string {
	return fmt.Sprintf("registry: model %q not found", e.name)
}
func (e *notFoundError) Unwrap() error        { return ErrModelNotFound }
func (e *notFoundError) Is(target error) bool { return target == ErrModelNotFound }

// Config returns the ModelConfig registered under name.
func Config(name string) (*ModelConfig, error) {
	for i := range models {
		if models[i].Name == name {
			return &models[i], nil
		}
	}
	return nil, &notFoundError{name: name}
}

// At returns the ModelConfig at ordinal index, or nil if index is out of
// range. Mirrors the original implementation's epd_model_at (SPEC_FULL §12).
func At(index int) *ModelConfig {
	if index < 0 || index >= len(models) {
		return nil
	}
	return &models[index]
}

// Count returns the number of registered models.
func Count() int { return len(models) }

// Names returns every registered model name, in registration order.
func Names() []string {
	out := make([]string, len(models))
	for i := range models {
		out[i] = models[i].Name
	}
	return out
}

// drivers holds every registered Tier-2 override set, keyed by model name.
// Populated by package tier2's init() (SPEC_FULL §12's eager resolution,
// here just Go's ordinary init-order guarantee rather than a manual
// once-guarded scan).
var drivers = map[string]*Driver{}

// RegisterDriver wires a Tier-2 override set for a model name. Called from
// package tier2's init(); registry itself never imports tier2 to avoid an
// import cycle (package epd binds them together by importing tier2 for its
// init side effect).
func RegisterDriver(name string, d *Driver) {
	drivers[name] = d
}

// DriverFor returns the Tier-2 driver for name, or nil if name is a Tier-1
// model (no overrides registered).
func DriverFor(name string) *Driver {
	return drivers[name]
}

// HasDriver reports whether name has a Tier-2 driver registered; this is the
// descriptor map's "tier2" boolean (spec §6).
func HasDriver(name string) bool {
	return DriverFor(name) != nil
}
