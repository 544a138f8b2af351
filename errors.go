// Copyright 2021 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package epd

import (
	"errors"
	"fmt"

	"github.com/gowave/epd/busywait"
	"github.com/gowave/epd/initseq"
	"github.com/gowave/epd/regional"
	"github.com/gowave/epd/registry"
)

// ModelNotFoundError reports that Open was given a model name with no
// registry entry. It wraps registry.ErrModelNotFound, so
// errors.Is(err, registry.ErrModelNotFound) holds for it.
type ModelNotFoundError struct {
	Name string
	err  error
}

func (e *ModelNotFoundError) Error() string {
	return fmt.Sprintf("epd: model %q not found", e.Name)
}
func (e *ModelNotFoundError) Unwrap() error { return e.err }

// InitError wraps a failure from the HAL's ModuleInit during Open, or from a
// model's init sequence or Tier-2 power-up hook.
type InitError struct {
	Model string
	err   error
}

func (e *InitError) Error() string {
	return fmt.Sprintf("epd: %s: init failed: %v", e.Model, e.err)
}
func (e *InitError) Unwrap() error { return e.err }

// BusyTimeoutError reports that a busy-wait timed out or was cancelled. It
// wraps busywait.ErrTimeout.
type BusyTimeoutError struct {
	Model string
	err   error
}

func (e *BusyTimeoutError) Error() string {
	return fmt.Sprintf("epd: %s: busy-wait timed out or was cancelled", e.Model)
}
func (e *BusyTimeoutError) Unwrap() error { return e.err }

// DeviceError wraps a lower-level HAL/bus failure not otherwise classified
// (a DigitalWrite/SPI error surfacing from package hal/spiproto).
type DeviceError struct {
	Model string
	Op    string
	err   error
}

func (e *DeviceError) Error() string {
	return fmt.Sprintf("epd: %s: %s: %v", e.Model, e.Op, e.err)
}
func (e *DeviceError) Unwrap() error { return e.err }

// ParamError wraps a malformed init sequence or an unaligned/out-of-bounds
// region request.
type ParamError struct {
	Model string
	err   error
}

func (e *ParamError) Error() string {
	return fmt.Sprintf("epd: %s: %v", e.Model, e.err)
}
func (e *ParamError) Unwrap() error { return e.err }

// FormatMismatchError reports that a buffer's dimensions or pixel format
// don't match the open Device's model.
type FormatMismatchError struct {
	Model              string
	WantW, WantH       int
	GotW, GotH         int
	WantFormat, Format string
}

func (e *FormatMismatchError) Error() string {
	if e.WantFormat != e.Format {
		return fmt.Sprintf("epd: %s: buffer format %s, want %s", e.Model, e.Format, e.WantFormat)
	}
	return fmt.Sprintf("epd: %s: buffer %dx%d, want %dx%d", e.Model, e.GotW, e.GotH, e.WantW, e.WantH)
}

// classifyErr wraps a raw error from the dispatch/initseq/regional layer
// into this package's public error taxonomy, the Go-idiomatic replacement
// for the original extension's exception hierarchy.
func classifyErr(model, op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, busywait.ErrTimeout) {
		return &BusyTimeoutError{Model: model, err: err}
	}
	if errors.Is(err, registry.ErrModelNotFound) {
		return &ModelNotFoundError{Name: model, err: err}
	}

	var ipe *initseq.ParamError
	var rpe *regional.ParamError
	var ape *registry.AllocError
	if errors.As(err, &ipe) || errors.As(err, &rpe) {
		return &ParamError{Model: model, err: err}
	}
	if errors.As(err, &ape) {
		return &DeviceError{Model: model, Op: op, err: err}
	}

	switch op {
	case "init":
		return &InitError{Model: model, err: err}
	default:
		return &DeviceError{Model: model, Op: op, err: err}
	}
}
