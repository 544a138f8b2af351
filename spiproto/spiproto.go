// Copyright 2021 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package spiproto wraps a hal.Interface with the command/data framing every
// supported e-paper controller family shares: a DC (data/command) line
// toggled low for register addresses and high for payload bytes, with CS
// bracketing each transaction.
package spiproto

import (
	"github.com/gowave/epd/hal"
)

// Bus is the thinnest layer over hal.Interface: DC/CS/RST framing plus the
// hardware reset pulse. Every method stops and returns the first error seen,
// matching the errorHandler short-circuit idiom the teacher's waveshare
// packages use around chains of fallible one-line HAL calls.
type Bus struct {
	H    hal.Interface
	Pins hal.Pins

	// Trace, if non-nil, receives every command/data emission. Used by the
	// optional trace sink (package trace); nil by default.
	Trace func(cmd bool, b byte, bulk []byte)
}

// SendCommand emits a single command byte: DC=0, CS=0, write, CS=1.
func (b *Bus) SendCommand(c byte) error {
	if err := b.H.DigitalWrite(b.Pins.DC, hal.Low); err != nil {
		return err
	}
	if err := b.H.DigitalWrite(b.Pins.CS, hal.Low); err != nil {
		return err
	}
	if err := b.H.SPIWriteByte(c); err != nil {
		return err
	}
	if err := b.H.DigitalWrite(b.Pins.CS, hal.High); err != nil {
		return err
	}
	if b.Trace != nil {
		b.Trace(true, c, nil)
	}
	return nil
}

// SendData emits a single data byte: DC=1, CS=0, write, CS=1.
func (b *Bus) SendData(d byte) error {
	if err := b.H.DigitalWrite(b.Pins.DC, hal.High); err != nil {
		return err
	}
	if err := b.H.DigitalWrite(b.Pins.CS, hal.Low); err != nil {
		return err
	}
	if err := b.H.SPIWriteByte(d); err != nil {
		return err
	}
	if err := b.H.DigitalWrite(b.Pins.CS, hal.High); err != nil {
		return err
	}
	if b.Trace != nil {
		b.Trace(false, d, nil)
	}
	return nil
}

// SendDataBulk emits buf as a single data transaction: DC=1, CS=0, write,
// CS=1. buf is not modified.
func (b *Bus) SendDataBulk(buf []byte) error {
	if err := b.H.DigitalWrite(b.Pins.DC, hal.High); err != nil {
		return err
	}
	if err := b.H.DigitalWrite(b.Pins.CS, hal.Low); err != nil {
		return err
	}
	if err := b.H.SPIWriteN(buf); err != nil {
		return err
	}
	if err := b.H.DigitalWrite(b.Pins.CS, hal.High); err != nil {
		return err
	}
	if b.Trace != nil {
		b.Trace(false, 0, buf)
	}
	return nil
}

// Reset pulses RST high/delay[0], low/delay[1], high/delay[2].
func (b *Bus) Reset(resetMs [3]int) error {
	if err := b.H.DigitalWrite(b.Pins.RST, hal.High); err != nil {
		return err
	}
	b.H.DelayMs(resetMs[0])
	if err := b.H.DigitalWrite(b.Pins.RST, hal.Low); err != nil {
		return err
	}
	b.H.DelayMs(resetMs[1])
	if err := b.H.DigitalWrite(b.Pins.RST, hal.High); err != nil {
		return err
	}
	b.H.DelayMs(resetMs[2])
	return nil
}
