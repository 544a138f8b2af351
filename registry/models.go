// Copyright 2021 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package registry

import (
	"github.com/gowave/epd/busywait"
	"github.com/gowave/epd/framebuf"
	"github.com/gowave/epd/initseq"
)

// Command opcodes shared by the SSD1680/SSD1677/UC8176/UC8179 families,
// grounded on waveshare2in13v2/waveshare213v2.go's const block and
// other_examples' google/periph epd.go.
const (
	cmdDriverOutputControl   = 0x01
	cmdGateDriver            = 0x01 // UC8176 naming for the same register
	cmdBoosterSoftStart      = 0x0C
	cmdDeepSleepMode         = 0x10
	cmdDataEntryModeSetting  = 0x11
	cmdSWReset               = 0x12
	cmdWriteVcomRegister     = 0x2C
	cmdSetDummyLinePeriod    = 0x3A
	cmdSetGateTime           = 0x3B
	cmdBorderWaveformControl = 0x3C
)

// buildSSD1680Full builds the generic (Tier-1) full-init opcode stream
// shared by the SSD1680-family models, grounded on
// waveshare2in13v2/waveshare213v2.go's Init(Full) path: driver-output
// control with the model's height, data-entry mode, RAM window+cursor reset
// (via the SET_WINDOW/SET_CURSOR sentinels, which read width/height off the
// target rather than needing them baked into the stream), then border
// waveform control and a final busy-wait.
func buildSSD1680Full(height int) []byte {
	yEnd := height - 1
	seq := []byte{
		cmdDriverOutputControl, 3, byte(yEnd & 0xFF), byte((yEnd >> 8) & 0xFF), 0x00,
		cmdDataEntryModeSetting, 1, 0x03,
		initseq.SetWindow,
		initseq.SetCursor,
		cmdBorderWaveformControl, 1, 0x03,
		initseq.WaitBusy,
		initseq.End,
	}
	return seq
}

// buildSSD1680Partial builds a dedicated partial-refresh init stream,
// grounded on waveshare2in13v2.Init(Partial): VCOM register, busy-wait,
// border waveform (partial value), window+cursor reset.
func buildSSD1680Partial() []byte {
	return []byte{
		cmdWriteVcomRegister, 1, 0x26,
		initseq.WaitBusy,
		cmdBorderWaveformControl, 1, 0x01,
		initseq.SetWindow,
		initseq.SetCursor,
		initseq.End,
	}
}

// buildUC8176Full builds the generic full-init stream shared by UC8176
// family models, grounded directly on other_examples/google-periph epd.go's
// NewSPI sequence: driver output control, booster soft start, VCOM, dummy
// line period, gate time, data entry mode, then a busy-wait.
func buildUC8176Full(height int) []byte {
	yEnd := height - 1
	return []byte{
		cmdGateDriver, 3, byte(yEnd & 0xFF), byte((yEnd >> 8) & 0xFF), 0x00,
		cmdBoosterSoftStart, 3, 0xD7, 0xD6, 0x9D,
		cmdWriteVcomRegister, 1, 0xA8,
		cmdSetDummyLinePeriod, 1, 0x1A,
		cmdSetGateTime, 1, 0x08,
		cmdDataEntryModeSetting, 1, 0x03,
		initseq.WaitBusy,
		initseq.End,
	}
}

// buildSSD1677Full mirrors buildSSD1680Full: SSD1677 shares the SSD1680
// register map closely enough that this framework's Tier-1 generic init is
// identical in shape; the families only diverge in their Tier-2 TurnOn
// sequence (spec §4.I).
func buildSSD1677Full(height int) []byte {
	return buildSSD1680Full(height)
}

// buildColorGateFull is a minimal generic init for the color gate-driven
// family: reset is all the Tier-1 path does, since power sequencing for
// these controllers lives entirely in the Tier-2 pre_display/post_display
// hooks (spec §4.I).
func buildColorGateFull() []byte {
	return []byte{
		initseq.HWReset,
		initseq.WaitBusy,
		initseq.End,
	}
}

// buildACePFull mirrors buildColorGateFull: ACeP/7in3-family power-up is
// driven by Tier-2 hooks, not a generic register dump.
func buildACePFull() []byte {
	return buildColorGateFull()
}

func model(name string, width, height int, format framebuf.Format, polarity busywait.Polarity,
	displayCmd, displayCmd2 byte, caps Capability, initSeq []byte) ModelConfig {
	return ModelConfig{
		Name:          name,
		Width:         width,
		Height:        height,
		PixelFormat:   format,
		Polarity:      polarity,
		ResetDelaysMs: [3]int{200, 2, 200},
		DisplayCmd:    displayCmd,
		DisplayCmd2:   displayCmd2,
		InitSequence:  initSeq,
		Capabilities:  caps,
		SleepCmd:      cmdDeepSleepMode,
		SleepData:     0x01,
	}
}

// models is the representative model subset described in SPEC_FULL.md §13:
// one (or a small handful) of models per distinct Tier-2 controller family,
// enough to exercise every operation named in spec §4.F-§4.K. The vendor's
// full ~40-model catalogue is out of scope (spec §1); this table is plain
// data and can grow without touching any other package.
var models = buildModels()

func buildModels() []ModelConfig {
	ms := []ModelConfig{
		// --- SSD1680 family (TurnOn: 0x22,0xC4,0x20,0xFF + busy) ---
		model("epd_2in13", 122, 250, framebuf.Mono, busywait.ActiveLow,
			0x24, 0, Partial|Fast, buildSSD1680Full(250)),
		model("epd_2in9", 128, 296, framebuf.Mono, busywait.ActiveLow,
			0x24, 0, Fast, buildSSD1680Full(296)),
		model("epd_1in54", 200, 200, framebuf.Mono, busywait.ActiveLow,
			0x24, 0, Partial, buildSSD1680Full(200)),
		model("epd_2in7_v2", 176, 264, framebuf.Mono, busywait.ActiveLow,
			0x24, 0, Regional, buildSSD1680Full(264)),

		// --- SSD1677 family (TurnOn: 0x22,0xF7,0x20 + busy) ---
		model("epd_4in2_v2", 400, 300, framebuf.Mono, busywait.ActiveLow,
			0x24, 0, Partial|Fast, buildSSD1677Full(300)),
		model("epd_4in26", 800, 480, framebuf.Mono, busywait.ActiveLow,
			0x24, 0, Fast, buildSSD1677Full(480)),
		model("epd_13in3k", 960, 680, framebuf.Mono, busywait.ActiveLow,
			0x24, 0, Fast|Grayscale, buildSSD1677Full(680)),

		// --- UC8176 family (TurnOn: 0x12, delay 100ms, busy) ---
		model("epd_4in2", 400, 300, framebuf.Mono, busywait.ActiveHigh,
			0x24, 0, 0, buildUC8176Full(300)),
		model("epd_3in7", 280, 480, framebuf.Gray4, busywait.ActiveHigh,
			0x10, 0, Grayscale, buildUC8176Full(480)),
		model("epd_2in7", 176, 264, framebuf.Mono, busywait.ActiveHigh,
			0x10, 0x13, DualBuf, buildUC8176Full(264)),

		// --- UC8179 dual-buffer / regional family ---
		model("epd_7in5_v2", 800, 480, framebuf.Mono, busywait.ActiveHigh,
			0x10, 0x13, DualBuf, buildUC8176Full(480)),
		model("epd_5in83_v2", 648, 480, framebuf.Mono, busywait.ActiveHigh,
			0x13, 0, Regional, buildUC8176Full(480)),
		model("epd_7in5b_v2", 800, 480, framebuf.Mono, busywait.ActiveHigh,
			0x10, 0x13, DualBuf|Regional, buildUC8176Full(480)),
		model("epd_5in83bc", 648, 480, framebuf.Mono, busywait.ActiveHigh,
			0x10, 0x13, DualBuf, buildUC8176Full(480)),
		model("epd_7in5bc", 800, 480, framebuf.Color4, busywait.ActiveHigh,
			0x10, 0, 0, buildUC8176Full(480)),

		// --- Color gate-driven family (pre: 0x68 0x01, 0x04; post: 0x68 0x00, 0x12, 0x02) ---
		model("epd_1in64g", 168, 400, framebuf.Color4, busywait.ActiveHigh,
			0x10, 0, 0, buildColorGateFull()),
		model("epd_2in15g", 160, 296, framebuf.Color4, busywait.ActiveHigh,
			0x10, 0, 0, buildColorGateFull()),
		model("epd_3in0g", 168, 400, framebuf.Color4, busywait.ActiveHigh,
			0x10, 0, 0, buildColorGateFull()),

		// --- 7in3 family (post: 0x04,0x12,0x02; 7in3e re-emits booster) ---
		model("epd_7in3f", 800, 480, framebuf.Color7, busywait.ActiveHigh,
			0x10, 0, 0, buildACePFull()),
		model("epd_7in3g", 800, 480, framebuf.Color4, busywait.ActiveHigh,
			0x10, 0, 0, buildACePFull()),
		model("epd_7in3e", 800, 480, framebuf.Color7, busywait.ActiveHigh,
			0x10, 0, 0, buildACePFull()),

		// --- ACeP 7-color (post: 0x04,0x12,wait-busy-low,200ms) ---
		model("epd_5in65f", 600, 448, framebuf.Color7, busywait.ActiveHigh,
			0x10, 0, 0, buildACePFull()),
		model("epd_4in01f", 640, 400, framebuf.Color7, busywait.ActiveHigh,
			0x10, 0, 0, buildACePFull()),

		// --- Non-standard (post: 0x04,0x12,0x02, all busy-waited) ---
		model("epd_1in02d", 80, 128, framebuf.Mono, busywait.ActiveHigh,
			0x13, 0, 0, buildColorGateFull()),
	}
	return ms
}
