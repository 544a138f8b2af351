// Copyright 2021 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package initseq interprets the bytecode-like init-sequence streams a
// registry.ModelConfig carries: runs of {command, count, data...} records
// interleaved with sentinel opcodes (reset, delay, busy-wait, window,
// cursor). It is the Tier-1 driver for every model's power-up and LUT-load
// handshake.
package initseq

import (
	"github.com/gowave/epd/busywait"
	"github.com/gowave/epd/hal"
	"github.com/gowave/epd/spiproto"
)

// Mode selects which of a model's init sequences to run.
type Mode int

const (
	Full Mode = iota
	Fast
	Partial
	Grayscale
)

// Sentinel opcodes, all >= 0xF0.
const (
	SetCursor byte = 0xF9
	SetWindow byte = 0xFA
	SWReset   byte = 0xFB
	HWReset   byte = 0xFC
	DelayMs   byte = 0xFD
	End       byte = 0xFE
	WaitBusy  byte = 0xFF
)

// Target is what the interpreter needs from the surrounding model to
// execute window/cursor/reset sentinels: dimensions, reset timing and busy
// polarity. registry.ModelConfig satisfies this directly.
type Target interface {
	Dimensions() (width, height int)
	ResetMs() [3]int
	BusyPolarity() busywait.Polarity
}

// Sequences bundles the (possibly absent) opcode streams a ModelConfig
// exposes, keyed by Mode.
type Sequences struct {
	Full      []byte
	Fast      []byte // optional
	Partial   []byte // optional
	Grayscale []byte // optional; never returned by Select
}

// Select returns the sequence to run for mode, falling back to Full when
// the requested mode has no dedicated sequence. Only Fast and Partial are
// looked up; a Grayscale request always runs Full, and the Grayscale slot
// is never read (spec §4.F).
func Select(seqs Sequences, mode Mode) []byte {
	switch mode {
	case Fast:
		if len(seqs.Fast) > 0 {
			return seqs.Fast
		}
	case Partial:
		if len(seqs.Partial) > 0 {
			return seqs.Partial
		}
	}
	return seqs.Full
}

// ParamError reports a truncated or malformed opcode stream.
type ParamError struct{ Msg string }

func (e *ParamError) Error() string { return "initseq: " + e.Msg }

// Run interprets seq against bus/target, issuing send_command/send_data
// calls and handling sentinels. It returns nil on END or clean end-of-stream,
// *ParamError on truncation, or the error from a failing WAIT_BUSY poll
// (busywait.ErrTimeout or a HAL error) or a sub-call failure.
func Run(bus *spiproto.Bus, h hal.Interface, target Target, seq []byte, cancel *int32) error {
	if len(seq) == 0 {
		return &ParamError{Msg: "empty init sequence"}
	}

	pos := 0
	for pos < len(seq) {
		b := seq[pos]
		pos++

		if b < 0xF0 {
			cmd := b
			if pos >= len(seq) {
				return &ParamError{Msg: "truncated record: missing data count"}
			}
			count := seq[pos]
			pos++

			if err := bus.SendCommand(cmd); err != nil {
				return err
			}
			for i := 0; i < int(count); i++ {
				if pos >= len(seq) {
					return &ParamError{Msg: "truncated record: missing data byte"}
				}
				if err := bus.SendData(seq[pos]); err != nil {
					return err
				}
				pos++
			}
			continue
		}

		switch b {
		case End:
			return nil

		case WaitBusy:
			if err := busywait.Wait(h, bus.Pins.BUSY, target.BusyPolarity(), busywait.DefaultTimeoutMs, cancel); err != nil {
				return err
			}

		case DelayMs:
			if pos >= len(seq) {
				return &ParamError{Msg: "truncated DELAY_MS: missing argument"}
			}
			h.DelayMs(int(seq[pos]))
			pos++

		case HWReset:
			if err := bus.Reset(target.ResetMs()); err != nil {
				return err
			}

		case SWReset:
			if err := bus.SendCommand(0x12); err != nil {
				return err
			}
			if err := busywait.Wait(h, bus.Pins.BUSY, target.BusyPolarity(), busywait.DefaultTimeoutMs, cancel); err != nil {
				return err
			}

		case SetWindow:
			w, ht := target.Dimensions()
			if err := bus.SendCommand(0x44); err != nil {
				return err
			}
			if err := bus.SendData(0x00); err != nil {
				return err
			}
			if err := bus.SendData(byte((w - 1) / 8)); err != nil {
				return err
			}
			if err := bus.SendCommand(0x45); err != nil {
				return err
			}
			yEnd := ht - 1
			for _, d := range []byte{0x00, 0x00, byte(yEnd & 0xFF), byte((yEnd >> 8) & 0xFF)} {
				if err := bus.SendData(d); err != nil {
					return err
				}
			}

		case SetCursor:
			if err := bus.SendCommand(0x4E); err != nil {
				return err
			}
			if err := bus.SendData(0x00); err != nil {
				return err
			}
			if err := bus.SendCommand(0x4F); err != nil {
				return err
			}
			if err := bus.SendData(0x00); err != nil {
				return err
			}
			if err := bus.SendData(0x00); err != nil {
				return err
			}

		default:
			// Unrecognized sentinel: skip, per spec.
		}
	}

	return nil
}
