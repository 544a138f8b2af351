// Copyright 2021 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package busywait implements the polarity-aware BUSY-pin polling loop every
// controller init/refresh/sleep step waits on.
package busywait

import (
	"sync/atomic"

	"github.com/gowave/epd/hal"
)

// Polarity selects which pin level means "controller is busy".
type Polarity int

const (
	// ActiveLow: busy while the pin reads LOW, done on HIGH (SSD1680 family).
	ActiveLow Polarity = iota
	// ActiveHigh: busy while the pin reads HIGH, done on LOW (UC8179 family).
	ActiveHigh
)

// DefaultTimeoutMs is EPD_BUSY_TIMEOUT_MS.
const DefaultTimeoutMs = 5000

// ErrTimeout is returned by Wait when the busy pin never clears within
// timeoutMs, or when cancel was observed set before the timeout elapsed.
var ErrTimeout = errTimeout{}

type errTimeout struct{}

func (errTimeout) Error() string { return "busywait: timed out waiting for busy pin" }

// Wait polls pin once per millisecond, up to timeoutMs times. Before each
// poll it checks cancel (an atomic flag): if set, it returns
// ErrTimeout immediately without touching the pin again. cancel may be nil,
// in which case only the timeout applies.
func Wait(h hal.Interface, pin int, polarity Polarity, timeoutMs int, cancel *int32) error {
	for i := 0; i < timeoutMs; i++ {
		if cancel != nil && atomic.LoadInt32(cancel) != 0 {
			return ErrTimeout
		}

		level, err := h.DigitalRead(pin)
		if err != nil {
			return err
		}

		notBusy := (polarity == ActiveHigh && level == hal.Low) ||
			(polarity == ActiveLow && level == hal.High)
		if notBusy {
			return nil
		}

		h.DelayMs(1)
	}

	return ErrTimeout
}

// WaitHigh waits with ActiveHigh polarity regardless of the caller's usual
// polarity, matching the vendor HAL's epd_wait_busy_high helper.
func WaitHigh(h hal.Interface, pin int, timeoutMs int, cancel *int32) error {
	return Wait(h, pin, ActiveHigh, timeoutMs, cancel)
}

// WaitLow waits with ActiveLow polarity, matching epd_wait_busy_low.
func WaitLow(h hal.Interface, pin int, timeoutMs int, cancel *int32) error {
	return Wait(h, pin, ActiveLow, timeoutMs, cancel)
}
