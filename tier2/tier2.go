// Copyright 2021 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package tier2 holds the per-controller-family overrides layered over the
// generic Tier-1 data path: LUT loads that follow a model's generic init
// sequence, the "turn on display" power sequence that follows a data write,
// and the handful of models whose regional refresh needs bespoke framing.
//
// Every override here is grounded on a specific controller family's vendor
// driver in the teacher corpus (waveshare2in13v2/v3/v4, and the
// driver_registry.c/tier2_overrides.c sections of original_source). None of
// it is reachable unless package epd imports this package for its init()
// side effect, which is the only thing this package does at import time:
// call registry.RegisterDriver for every family it knows about.
package tier2

import (
	"github.com/gowave/epd/busywait"
	"github.com/gowave/epd/regional"
	"github.com/gowave/epd/registry"
)

func init() {
	registerSSD1680Family()
	registerSSD1677Family()
	registerUC8176Family()
	registerUC8179Family()
	registerColorGateFamily()
	register7in3Family()
	registerACePFamily()
	registerNonStandard()
}

// lutFull and lutPartial are representative 30-byte LUT tables loaded via
// command 0x32 after a SSD1680-family generic init (spec §8 scenario 1).
// Real vendor LUTs are panel-tuned waveform timing tables; the values here
// are placeholders of the correct shape, not a validated waveform.
var (
	lutFull    = make([]byte, 30)
	lutPartial = make([]byte, 30)
)

func init() {
	for i := range lutFull {
		lutFull[i] = 0x00
	}
	lutPartial[0] = 0x80 // distinguishes the partial table from the all-zero full one
}

// ssd1680CustomInit loads the LUT appropriate to mode after the generic
// init sequence has already run (dispatch always runs Tier-1 init first;
// CustomInit only ever adds to it, never replaces it). mode is a bare int
// (initseq.Mode's underlying value) to avoid a registry->initseq import;
// 2 is initseq.Partial.
func ssd1680CustomInit(h registry.Hooks, mode int) error {
	lut := lutFull
	if mode == 2 {
		lut = lutPartial
	}
	if err := h.SendCommand(0x32); err != nil {
		return err
	}
	return h.SendDataBulk(lut)
}

// ssd1680TurnOn is the SSD1680 family's full-refresh power-up sequence: the
// trailing 0xFF is a terminator command this controller family expects
// before the busy-wait, distinct from 0x1C's partial-refresh variant
// (ssd1680PartialTurnOn).
func ssd1680TurnOn(h registry.Hooks) error {
	if err := h.SendCommand(0x22); err != nil {
		return err
	}
	if err := h.SendData(0xC4); err != nil {
		return err
	}
	if err := h.SendCommand(0x20); err != nil {
		return err
	}
	if err := h.SendCommand(0xFF); err != nil {
		return err
	}
	return h.WaitBusy(h.Config().Polarity)
}

// ssd1680PartialTurnOn is the SSD1680 family's regional/partial-refresh
// post-hook (spec §4.K), used in place of ssd1680TurnOn for DisplayRegion.
func ssd1680PartialTurnOn(h registry.Hooks) error {
	if err := h.SendCommand(0x22); err != nil {
		return err
	}
	if err := h.SendData(0x1C); err != nil {
		return err
	}
	if err := h.SendCommand(0x20); err != nil {
		return err
	}
	return h.WaitBusy(h.Config().Polarity)
}

func registerSSD1680Family() {
	for _, name := range []string{"epd_2in13", "epd_2in9", "epd_1in54", "epd_2in7_v2"} {
		cfg, err := registry.Config(name)
		if err != nil {
			continue
		}
		registry.RegisterDriver(name, &registry.Driver{
			Config:      cfg,
			CustomInit:  ssd1680CustomInit,
			PostDisplay: ssd1680TurnOn,
		})
	}

	// epd_2in7_v2 is this family's Regional-capable member: its regional
	// refresh reuses the generic windowed write but needs the partial
	// TurnOn variant as its post-hook (spec §4.K).
	if cfg, err := registry.Config("epd_2in7_v2"); err == nil {
		registry.RegisterDriver("epd_2in7_v2", &registry.Driver{
			Config:            cfg,
			CustomInit:        ssd1680CustomInit,
			PostDisplay:       ssd1680TurnOn,
			PostDisplayRegion: ssd1680PartialTurnOn,
		})
	}
}

func ssd1677TurnOn(h registry.Hooks) error {
	if err := h.SendCommand(0x22); err != nil {
		return err
	}
	if err := h.SendData(0xF7); err != nil {
		return err
	}
	if err := h.SendCommand(0x20); err != nil {
		return err
	}
	return h.WaitBusy(h.Config().Polarity)
}

// ssd1677PartialTurnOn is the SSD1677 family's regional/partial-refresh
// post-hook (spec §4.K); none of this representative table's SSD1677
// members currently carry the Regional capability bit, but the family's
// variant is defined here alongside ssd1680PartialTurnOn for when one does.
func ssd1677PartialTurnOn(h registry.Hooks) error {
	if err := h.SendCommand(0x22); err != nil {
		return err
	}
	if err := h.SendData(0xFF); err != nil {
		return err
	}
	if err := h.SendCommand(0x20); err != nil {
		return err
	}
	return h.WaitBusy(h.Config().Polarity)
}

func registerSSD1677Family() {
	for _, name := range []string{"epd_4in2_v2", "epd_4in26", "epd_13in3k"} {
		cfg, err := registry.Config(name)
		if err != nil {
			continue
		}
		d := &registry.Driver{
			Config:      cfg,
			PostDisplay: ssd1677TurnOn,
		}
		if cfg.Capabilities.Has(registry.Regional) {
			d.PostDisplayRegion = ssd1677PartialTurnOn
		}
		registry.RegisterDriver(name, d)
	}
}

// uc8176TurnOn issues the UC8176 family's display-refresh command: a second
// 0x12, a settle delay, then a busy-wait, grounded on other_examples'
// google-periph epd.go Update() sequence.
func uc8176TurnOn(h registry.Hooks) error {
	if err := h.SendCommand(0x12); err != nil {
		return err
	}
	h.DelayMs(100)
	return h.WaitBusy(h.Config().Polarity)
}

func registerUC8176Family() {
	for _, name := range []string{"epd_4in2", "epd_3in7"} {
		cfg, err := registry.Config(name)
		if err != nil {
			continue
		}
		registry.RegisterDriver(name, &registry.Driver{
			Config:      cfg,
			PostDisplay: uc8176TurnOn,
		})
	}
}

// dualBufSameBytesDisplay is the UC8176 dual-buffer 2in7 variant: both
// DisplayCmd and DisplayCmd2 carry the identical frame bytes.
func dualBufSameBytesDisplay(h registry.Hooks, buf []byte) error {
	cfg := h.Config()
	if err := h.SendCommand(cfg.DisplayCmd); err != nil {
		return err
	}
	if err := h.SendDataBulk(buf); err != nil {
		return err
	}
	if err := h.SendCommand(cfg.DisplayCmd2); err != nil {
		return err
	}
	return h.SendDataBulk(buf)
}

// twoIn7PostDisplay is the dual-buffer 2in7's own post-hook: a bare refresh
// command and busy-wait, with no settle delay (distinct from uc8176TurnOn's
// single-buffer sequence).
func twoIn7PostDisplay(h registry.Hooks) error {
	if err := h.SendCommand(0x12); err != nil {
		return err
	}
	return h.WaitBusy(h.Config().Polarity)
}

// dualBufInvertedDisplay is the UC8179 dual-buffer 7in5_v2 variant: the
// original frame on DisplayCmd, then a bit-inverted copy on DisplayCmd2.
// The inverted copy is built through the non-host-managed scratch allocator
// (h.Alloc) since it is produced without the host execution lock held; it
// is never explicitly freed; letting the slice go out of scope once sent is
// this allocator's equivalent of the original's free-after-transmit step.
func dualBufInvertedDisplay(h registry.Hooks, buf []byte) error {
	cfg := h.Config()
	if err := h.SendCommand(cfg.DisplayCmd); err != nil {
		return err
	}
	if err := h.SendDataBulk(buf); err != nil {
		return err
	}

	inv, err := h.Alloc(len(buf))
	if err != nil {
		return err
	}
	for i, b := range buf {
		inv[i] = ^b
	}

	if err := h.SendCommand(cfg.DisplayCmd2); err != nil {
		return err
	}
	return h.SendDataBulk(inv)
}

// triColorPostDisplay is the UC8179 tri-color post-hook shared by 5in83bc
// and 7in5bc: a power-on busy-wait ahead of the refresh command, unlike
// uc8176TurnOn's bare refresh-then-busy.
func triColorPostDisplay(h registry.Hooks) error {
	if err := h.SendCommand(0x04); err != nil {
		return err
	}
	if err := h.WaitBusy(h.Config().Polarity); err != nil {
		return err
	}
	if err := h.SendCommand(0x12); err != nil {
		return err
	}
	h.DelayMs(100)
	return h.WaitBusy(h.Config().Polarity)
}

// registerUC8179Family wires the UC8179-controller models: the plain
// dual-buffer inversion variant (7in5_v2), the regional pair (5in83_v2,
// 7in5b_v2, registered separately below with their own 0x91/0x90 framing),
// and the tri-color post-hook (5in83bc, 7in5bc).
func registerUC8179Family() {
	if cfg, err := registry.Config("epd_7in5_v2"); err == nil {
		registry.RegisterDriver("epd_7in5_v2", &registry.Driver{
			Config:        cfg,
			CustomDisplay: dualBufInvertedDisplay,
			PostDisplay:   uc8176TurnOn,
		})
	}

	for _, name := range []string{"epd_5in83bc", "epd_7in5bc"} {
		cfg, err := registry.Config(name)
		if err != nil {
			continue
		}
		registry.RegisterDriver(name, &registry.Driver{
			Config:      cfg,
			PostDisplay: triColorPostDisplay,
		})
	}

	if cfg, err := registry.Config("epd_2in7"); err == nil {
		registry.RegisterDriver("epd_2in7", &registry.Driver{
			Config:        cfg,
			CustomDisplay: dualBufSameBytesDisplay,
			PostDisplay:   twoIn7PostDisplay,
		})
	}

	registerUC8179Regional()
}

// uc8179RegionalWrite implements spec §4.K's UC8179 regional sequence:
// enter partial mode, scope the RAM window to (x,y,w,hgt) via its 9-byte
// descriptor, optionally fill the old-data plane (7in5b_v2 only), then
// stream the region and trigger the refresh. full is the entire frame
// buffer, not a pre-extracted region — the window descriptor and the
// length check below are both expressed in terms of the full frame.
func uc8179RegionalWrite(h registry.Hooks, full []byte, x, y, w, hgt int, fillOldPlane bool) error {
	cfg := h.Config()
	fullWidthBytes := (cfg.Width + 7) / 8
	if len(full) < fullWidthBytes*cfg.Height {
		return &regional.ParamError{Msg: "buffer shorter than full frame"}
	}

	region, err := regional.Extract(full, cfg.Width, cfg.Height, x, y, w, hgt)
	if err != nil {
		return err
	}

	xEnd := x + w - 1
	yEnd := y + hgt - 1
	window := []byte{
		byte(x >> 8), byte(x & 0xF8),
		byte(xEnd >> 8), byte(xEnd | 0x07),
		byte(y >> 8), byte(y & 0xFF),
		byte(yEnd >> 8), byte(yEnd & 0xFF),
		0x01,
	}

	if err := h.SendCommand(0x91); err != nil {
		return err
	}
	if err := h.SendCommand(0x90); err != nil {
		return err
	}
	if err := h.SendDataBulk(window); err != nil {
		return err
	}

	if fillOldPlane {
		old, err := h.Alloc(len(region))
		if err != nil {
			return err
		}
		for i := range old {
			old[i] = 0xFF
		}
		if err := h.SendCommand(0x10); err != nil {
			return err
		}
		if err := h.SendDataBulk(old); err != nil {
			return err
		}
	}

	if err := h.SendCommand(0x13); err != nil {
		return err
	}
	if err := h.SendDataBulk(region); err != nil {
		return err
	}

	if err := h.SendCommand(0x12); err != nil {
		return err
	}
	h.DelayMs(100)
	return nil
}

func fiveIn83V2Region(h registry.Hooks, full []byte, x, y, w, hgt int) error {
	return uc8179RegionalWrite(h, full, x, y, w, hgt, false)
}

func sevenIn5bV2Region(h registry.Hooks, full []byte, x, y, w, hgt int) error {
	return uc8179RegionalWrite(h, full, x, y, w, hgt, true)
}

// uc8179PostDisplayRegion exits partial mode after a regional refresh.
func uc8179PostDisplayRegion(h registry.Hooks) error {
	if err := h.WaitBusy(h.Config().Polarity); err != nil {
		return err
	}
	return h.SendCommand(0x92)
}

func registerUC8179Regional() {
	if cfg, err := registry.Config("epd_5in83_v2"); err == nil {
		registry.RegisterDriver("epd_5in83_v2", &registry.Driver{
			Config:              cfg,
			CustomDisplayRegion: fiveIn83V2Region,
			PostDisplayRegion:   uc8179PostDisplayRegion,
		})
	}
	if cfg, err := registry.Config("epd_7in5b_v2"); err == nil {
		registry.RegisterDriver("epd_7in5b_v2", &registry.Driver{
			Config:              cfg,
			PostDisplay:         uc8176TurnOn,
			CustomDisplayRegion: sevenIn5bV2Region,
			PostDisplayRegion:   uc8179PostDisplayRegion,
		})
	}
}

// colorGatePreDisplay/PostDisplay bracket a write with the gate-driven
// family's charge-pump power sequencing, grounded on driver_registry.c's
// epd_1in64g-style pre/post hooks.
func colorGatePreDisplay(h registry.Hooks) error {
	if err := h.SendCommand(0x68); err != nil {
		return err
	}
	if err := h.SendData(0x01); err != nil {
		return err
	}
	if err := h.SendCommand(0x04); err != nil {
		return err
	}
	return h.WaitBusy(h.Config().Polarity)
}

func colorGatePostDisplay(h registry.Hooks) error {
	if err := h.SendCommand(0x68); err != nil {
		return err
	}
	if err := h.SendData(0x00); err != nil {
		return err
	}
	if err := h.SendCommand(0x12); err != nil {
		return err
	}
	if err := h.SendData(0x01); err != nil {
		return err
	}
	if err := h.WaitBusy(h.Config().Polarity); err != nil {
		return err
	}
	if err := h.SendCommand(0x02); err != nil {
		return err
	}
	if err := h.SendData(0x00); err != nil {
		return err
	}
	return h.WaitBusy(h.Config().Polarity)
}

func registerColorGateFamily() {
	for _, name := range []string{"epd_1in64g", "epd_2in15g", "epd_3in0g"} {
		cfg, err := registry.Config(name)
		if err != nil {
			continue
		}
		registry.RegisterDriver(name, &registry.Driver{
			Config:      cfg,
			PreDisplay:  colorGatePreDisplay,
			PostDisplay: colorGatePostDisplay,
		})
	}
}

func sevenIn3PostDisplay(h registry.Hooks) error {
	if err := h.SendCommand(0x04); err != nil {
		return err
	}
	if err := h.WaitBusy(h.Config().Polarity); err != nil {
		return err
	}
	if err := h.SendCommand(0x12); err != nil {
		return err
	}
	if err := h.SendData(0x00); err != nil {
		return err
	}
	if err := h.WaitBusy(h.Config().Polarity); err != nil {
		return err
	}
	if err := h.SendCommand(0x02); err != nil {
		return err
	}
	if err := h.SendData(0x00); err != nil {
		return err
	}
	return h.WaitBusy(h.Config().Polarity)
}

// sevenIn3eBoosterReemit re-sends the booster soft-start register ahead of
// the refresh steps, a quirk of the 7in3e variant's power-up noted in
// driver_registry.c. It belongs to the refresh/post path, not init:
// sevenIn3ePostDisplay issues it first, before the 0x04 power-on and the
// 0x12 refresh command of sevenIn3PostDisplay.
func sevenIn3eBoosterReemit(h registry.Hooks) error {
	if err := h.SendCommand(0x06); err != nil {
		return err
	}
	return h.SendDataBulk([]byte{0x6F, 0x1F, 0x17, 0x17})
}

func sevenIn3ePostDisplay(h registry.Hooks) error {
	if err := sevenIn3eBoosterReemit(h); err != nil {
		return err
	}
	return sevenIn3PostDisplay(h)
}

func register7in3Family() {
	for _, name := range []string{"epd_7in3f", "epd_7in3g"} {
		cfg, err := registry.Config(name)
		if err != nil {
			continue
		}
		registry.RegisterDriver(name, &registry.Driver{
			Config:      cfg,
			PostDisplay: sevenIn3PostDisplay,
		})
	}

	if cfg, err := registry.Config("epd_7in3e"); err == nil {
		registry.RegisterDriver("epd_7in3e", &registry.Driver{
			Config:      cfg,
			PostDisplay: sevenIn3ePostDisplay,
		})
	}
}

// acepPostDisplay busy-waits after each power-sequencing step, then waits
// for the pin to go low regardless of the model's declared polarity (the
// panel's "done" edge here is always a falling edge) before the final
// settle delay.
func acepPostDisplay(h registry.Hooks) error {
	if err := h.SendCommand(0x04); err != nil {
		return err
	}
	if err := h.WaitBusy(h.Config().Polarity); err != nil {
		return err
	}
	if err := h.SendCommand(0x12); err != nil {
		return err
	}
	if err := h.WaitBusy(h.Config().Polarity); err != nil {
		return err
	}
	if err := h.SendCommand(0x02); err != nil {
		return err
	}
	if err := h.WaitBusy(busywait.ActiveHigh); err != nil {
		return err
	}
	h.DelayMs(200)
	return nil
}

func registerACePFamily() {
	for _, name := range []string{"epd_5in65f", "epd_4in01f"} {
		cfg, err := registry.Config(name)
		if err != nil {
			continue
		}
		registry.RegisterDriver(name, &registry.Driver{
			Config:      cfg,
			PostDisplay: acepPostDisplay,
		})
	}
}

func nonStandardPostDisplay(h registry.Hooks) error {
	if err := h.SendCommand(0x04); err != nil {
		return err
	}
	if err := h.WaitBusy(h.Config().Polarity); err != nil {
		return err
	}
	if err := h.SendCommand(0x12); err != nil {
		return err
	}
	if err := h.WaitBusy(h.Config().Polarity); err != nil {
		return err
	}
	if err := h.SendCommand(0x02); err != nil {
		return err
	}
	return h.WaitBusy(h.Config().Polarity)
}

func registerNonStandard() {
	if cfg, err := registry.Config("epd_1in02d"); err == nil {
		registry.RegisterDriver("epd_1in02d", &registry.Driver{
			Config:      cfg,
			PostDisplay: nonStandardPostDisplay,
		})
	}
}
