// Copyright 2021 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package dispatch_test

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/gowave/epd/busywait"
	"github.com/gowave/epd/dispatch"
	"github.com/gowave/epd/hal"
	"github.com/gowave/epd/harness"
	"github.com/gowave/epd/initseq"
	"github.com/gowave/epd/registry"
	"github.com/gowave/epd/spiproto"

	_ "github.com/gowave/epd/tier2" // registers every family's Tier-2 overrides
)

func newCtx(t *testing.T, model string) (*dispatch.Context, *hal.Fake) {
	t.Helper()
	cfg, err := registry.Config(model)
	if err != nil {
		t.Fatalf("Config(%s): %v", model, err)
	}
	f := hal.NewFake(24)
	f.SetDCPin(25)
	bus := &spiproto.Bus{H: f, Pins: hal.Pins{RST: 17, DC: 25, CS: 8, BUSY: 24}}
	return dispatch.New(bus, f, cfg), f
}

// TestInitThenTurnOnSSD1680 covers spec §8 scenario 1: a full init ends with
// the LUT load, and PostDisplay runs the TurnOn sequence.
func TestInitThenTurnOnSSD1680(t *testing.T) {
	ctx, f := newCtx(t, "epd_2in13")

	if err := ctx.Init(initseq.Full); err != nil {
		t.Fatalf("Init: %v", err)
	}

	last := f.Trace[len(f.Trace)-1]
	if last.Cmd || len(last.Data) != 30 {
		t.Fatalf("last init trace entry = %+v, want 30-byte LUT data write", last)
	}

	var foundLUTCmd bool
	for _, r := range f.Trace {
		if r.Cmd && r.Byte == 0x32 {
			foundLUTCmd = true
		}
	}
	if !foundLUTCmd {
		t.Error("init trace never sent LUT command 0x32")
	}

	buf := make([]byte, (122+7)/8*250)
	f.Trace = nil
	if err := ctx.Display(buf); err != nil {
		t.Fatalf("Display: %v", err)
	}

	want := []hal.Record{
		{Cmd: true, Byte: 0x24},
		{Data: buf},
		{Cmd: true, Byte: 0x22},
		{Cmd: false, Byte: 0xC4},
		{Cmd: true, Byte: 0x20},
		{Cmd: true, Byte: 0xFF},
	}
	if diff := cmp.Diff(want, f.Trace[:len(want)]); diff != "" {
		t.Errorf("Display trace mismatch (-want +got):\n%s", diff)
	}
}

// TestDisplayDualBufferInverted covers spec §8 scenario 3 post-fix: the
// 7in5_v2 dual-buffer model's second plane is a bit-inverted copy of the
// frame just written, not a retained prior frame.
func TestDisplayDualBufferInverted(t *testing.T) {
	ctx, f := newCtx(t, "epd_7in5_v2")

	buf := make([]byte, 800/8*480)
	for i := range buf {
		buf[i] = 0xAA
	}
	if err := ctx.Display(buf); err != nil {
		t.Fatalf("Display: %v", err)
	}

	var sawFirst, sawSecond bool
	for i, r := range f.Trace {
		if r.Cmd && r.Byte == 0x10 && i+1 < len(f.Trace) {
			sawFirst = true
			if f.Trace[i+1].Data[0] != 0xAA {
				t.Errorf("first payload[0] = %#x, want 0xAA", f.Trace[i+1].Data[0])
			}
		}
		if r.Cmd && r.Byte == 0x13 && i+1 < len(f.Trace) {
			sawSecond = true
			if f.Trace[i+1].Data[0] != 0x55 {
				t.Errorf("second (inverted) payload[0] = %#x, want 0x55", f.Trace[i+1].Data[0])
			}
		}
	}
	if !sawFirst || !sawSecond {
		t.Fatalf("expected both 0x10 and 0x13 payload commands, trace: %+v", f.Trace)
	}
}

// TestDisplayDualBufferSameBytes covers the 2in7 dual-buffer variant: both
// planes carry the identical frame.
func TestDisplayDualBufferSameBytes(t *testing.T) {
	ctx, f := newCtx(t, "epd_2in7")

	buf := make([]byte, (176+7)/8*264)
	for i := range buf {
		buf[i] = 0x3C
	}
	if err := ctx.Display(buf); err != nil {
		t.Fatalf("Display: %v", err)
	}

	var sawFirst, sawSecond bool
	for i, r := range f.Trace {
		if r.Cmd && r.Byte == 0x10 && i+1 < len(f.Trace) {
			sawFirst = true
			if f.Trace[i+1].Data[0] != 0x3C {
				t.Errorf("first payload[0] = %#x, want 0x3C", f.Trace[i+1].Data[0])
			}
		}
		if r.Cmd && r.Byte == 0x13 && i+1 < len(f.Trace) {
			sawSecond = true
			if f.Trace[i+1].Data[0] != 0x3C {
				t.Errorf("second payload[0] = %#x, want 0x3C (same bytes)", f.Trace[i+1].Data[0])
			}
		}
	}
	if !sawFirst || !sawSecond {
		t.Fatalf("expected both 0x10 and 0x13 payload commands, trace: %+v", f.Trace)
	}
}

// TestDisplayRegionUC8179 covers spec §8 scenario 4's UC8179 regional
// framing (0x91/0x90 window descriptor, 0x13 region stream, 0x92 exit) for
// a model whose Tier-2 region override replaces the generic SSD1680-style
// windowed write entirely.
func TestDisplayRegionUC8179(t *testing.T) {
	ctx, f := newCtx(t, "epd_5in83_v2")

	fullWidthBytes := (648 + 7) / 8
	full := make([]byte, fullWidthBytes*480)
	for i := range full {
		full[i] = 0x5A
	}

	if err := ctx.DisplayRegion(full, 8, 0, 16, 4); err != nil {
		t.Fatalf("DisplayRegion: %v", err)
	}

	var cmds []byte
	var foundPayload bool
	for i, r := range f.Trace {
		if r.Cmd {
			cmds = append(cmds, r.Byte)
		}
		if r.Cmd && r.Byte == 0x13 && i+1 < len(f.Trace) {
			foundPayload = true
			if len(f.Trace[i+1].Data) != 2*4 {
				t.Errorf("region payload length = %d, want %d", len(f.Trace[i+1].Data), 2*4)
			}
		}
	}
	if !foundPayload {
		t.Fatal("DisplayRegion never sent the region payload on 0x13")
	}
	want := []byte{0x91, 0x90, 0x13, 0x12, 0x92}
	if diff := cmp.Diff(want, cmds); diff != "" {
		t.Errorf("command trace mismatch (-want +got):\n%s", diff)
	}
}

// TestDisplayRegionGenericFallback covers the SSD1680 Regional variant
// (2in7_v2): no CustomDisplayRegion, so the generic windowed write runs,
// followed by the family's partial-TurnOn PostDisplayRegion.
func TestDisplayRegionGenericFallback(t *testing.T) {
	ctx, f := newCtx(t, "epd_2in7_v2")

	fullWidthBytes := (176 + 7) / 8
	full := make([]byte, fullWidthBytes*264)
	for i := range full {
		full[i] = 0x5A
	}

	if err := ctx.DisplayRegion(full, 8, 0, 16, 4); err != nil {
		t.Fatalf("DisplayRegion: %v", err)
	}

	var cmds []byte
	for _, r := range f.Trace {
		if r.Cmd {
			cmds = append(cmds, r.Byte)
		}
	}
	want := []byte{0x44, 0x45, 0x4E, 0x4F, 0x24, 0x22, 0x20}
	if diff := cmp.Diff(want, cmds); diff != "" {
		t.Errorf("command trace mismatch (-want +got):\n%s", diff)
	}
}

// TestDisplayRegionUnalignedIsParamError covers the byte-alignment
// invariant (spec §4.K).
func TestDisplayRegionUnalignedIsParamError(t *testing.T) {
	ctx, _ := newCtx(t, "epd_5in83_v2")
	full := make([]byte, (648+7)/8*480)

	if err := ctx.DisplayRegion(full, 3, 0, 16, 4); err == nil {
		t.Fatal("DisplayRegion with unaligned x: want error, got nil")
	}
}

// TestDisplayRegionOldDataVariant covers the 7in5b_v2 dual-buffer regional
// override: the old-data plane on 0x10 ahead of the window payload on 0x13.
func TestDisplayRegionOldDataVariant(t *testing.T) {
	ctx, f := newCtx(t, "epd_7in5b_v2")

	fullWidthBytes := 800 / 8
	full := make([]byte, fullWidthBytes*480)
	for i := range full {
		full[i] = 0x3C
	}

	if err := ctx.DisplayRegion(full, 0, 0, 8, 2); err != nil {
		t.Fatalf("DisplayRegion: %v", err)
	}

	var cmds []byte
	for _, r := range f.Trace {
		if r.Cmd {
			cmds = append(cmds, r.Byte)
		}
	}
	var sawOldThenNew bool
	for i := 0; i+1 < len(cmds); i++ {
		if cmds[i] == 0x10 {
			for j := i + 1; j < len(cmds); j++ {
				if cmds[j] == 0x13 {
					sawOldThenNew = true
				}
			}
		}
	}
	if !sawOldThenNew {
		t.Errorf("expected 0x10 (old data) before 0x13 (new window) in command trace: %v", cmds)
	}
}

// alwaysBusyHAL never reports the busy pin as clear, so any WAIT_BUSY must
// end via cancellation or the 5-second timeout rather than success.
type alwaysBusyHAL struct{ *hal.Fake }

func (a alwaysBusyHAL) DigitalRead(pin int) (hal.Level, error) {
	if pin == a.BusyPin {
		return hal.High, nil
	}
	return hal.Low, nil
}

// TestCancellationDuringInit covers the harness cancellation path (spec
// §4.J): a Job run against a panel whose busy pin never clears still
// returns busywait.ErrTimeout (via cancellation or the timeout loop) rather
// than hanging or succeeding.
func TestCancellationDuringInit(t *testing.T) {
	cfg, err := registry.Config("epd_5in65f")
	if err != nil {
		t.Fatalf("Config: %v", err)
	}
	f := hal.NewFake(24)
	f.SetDCPin(25)
	busyHAL := alwaysBusyHAL{f}
	bus := &spiproto.Bus{H: busyHAL, Pins: hal.Pins{RST: 17, DC: 25, CS: 8, BUSY: 24}}
	ctx := dispatch.New(bus, busyHAL, cfg)

	job := harness.Run(ctx, func() error {
		return ctx.Init(initseq.Full)
	})
	job.Cancel()

	if err := job.Wait(); !errors.Is(err, busywait.ErrTimeout) {
		t.Errorf("Init against an always-busy pin err = %v, want busywait.ErrTimeout", err)
	}
}

// TestClearUsesGenericDisplay covers harness.ClearBuffer feeding
// Context.Display for the Clear operation (spec §4.J).
func TestClearUsesGenericDisplay(t *testing.T) {
	ctx, f := newCtx(t, "epd_4in2")

	buf, err := harness.ClearBuffer(ctx, 1)
	if err != nil {
		t.Fatalf("ClearBuffer: %v", err)
	}
	if err := ctx.Display(buf); err != nil {
		t.Fatalf("Display: %v", err)
	}

	var sawPayload bool
	for i, r := range f.Trace {
		if r.Cmd && r.Byte == ctx.Config().DisplayCmd && i+1 < len(f.Trace) {
			sawPayload = true
			for _, b := range f.Trace[i+1].Data {
				if b != 0xFF {
					t.Errorf("clear(1) payload byte = %#x, want 0xFF", b)
				}
			}
		}
	}
	if !sawPayload {
		t.Fatal("Display never wrote the cleared buffer")
	}
}

func TestSleepSendsCmdAndData(t *testing.T) {
	ctx, f := newCtx(t, "epd_2in13")
	if err := ctx.Sleep(); err != nil {
		t.Fatalf("Sleep: %v", err)
	}
	want := []hal.Record{
		{Cmd: true, Byte: ctx.Config().SleepCmd},
		{Cmd: false, Byte: ctx.Config().SleepData},
	}
	if diff := cmp.Diff(want, f.Trace); diff != "" {
		t.Errorf("Sleep trace mismatch (-want +got):\n%s", diff)
	}
}
