// Copyright 2021 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package regional implements the generic partial/windowed refresh path
// (spec §4.K): byte-aligned region extraction from a full frame buffer, a
// RAM-window command pair scoped to the region, and the region's data
// write. Models with bespoke regional framing (an old-data plane, a
// post-hook-only dispatch) override this via a registry.Driver's
// CustomDisplayRegion/PostDisplayRegion instead.
package regional

import (
	"fmt"

	"github.com/gowave/epd/registry"
	"github.com/gowave/epd/spiproto"
)

// ParamError reports a region request that violates the byte-alignment or
// bounds invariant.
type ParamError struct{ Msg string }

func (e *ParamError) Error() string { return "regional: " + e.Msg }

// Extract pulls the w x h sub-rectangle of a 1-bit-per-pixel full frame
// buffer starting at (x, y) into its own byte-packed region buffer. x and w
// must be multiples of 8 (spec §4.K byte-alignment rule); fullWidth and
// fullHeight are full's dimensions in pixels.
func Extract(full []byte, fullWidth, fullHeight, x, y, w, h int) ([]byte, error) {
	if x%8 != 0 || w%8 != 0 {
		return nil, &ParamError{Msg: fmt.Sprintf("x (%d) and w (%d) must be byte-aligned (multiple of 8)", x, w)}
	}
	if x < 0 || y < 0 || w <= 0 || h <= 0 || x+w > fullWidth || y+h > fullHeight {
		return nil, &ParamError{Msg: fmt.Sprintf("region (%d,%d,%d,%d) out of bounds for %dx%d", x, y, w, h, fullWidth, fullHeight)}
	}

	fullStride := (fullWidth + 7) / 8
	regionStride := w / 8
	out := make([]byte, regionStride*h)

	startByte := x / 8
	for row := 0; row < h; row++ {
		srcOff := (y+row)*fullStride + startByte
		dstOff := row * regionStride
		copy(out[dstOff:dstOff+regionStride], full[srcOff:srcOff+regionStride])
	}
	return out, nil
}

// SetFrame scopes the controller's RAM window and cursor to the given
// region, ahead of a data write on whichever command the caller needs (the
// generic path's DisplayCmd, or a Tier-2 override's own command pair).
func SetFrame(bus *spiproto.Bus, x, y, w, h int) error {
	if err := setWindow(bus, x, y, w, h); err != nil {
		return err
	}
	return setCursor(bus, x, y)
}

// Write runs the generic windowed refresh: RAM window scoped to the region,
// cursor set to its origin, then the region bytes on cfg.DisplayCmd.
func Write(bus *spiproto.Bus, cfg *registry.ModelConfig, region []byte, x, y, w, h int) error {
	if err := SetFrame(bus, x, y, w, h); err != nil {
		return err
	}
	if err := bus.SendCommand(cfg.DisplayCmd); err != nil {
		return err
	}
	return bus.SendDataBulk(region)
}

func setWindow(bus *spiproto.Bus, x, y, w, h int) error {
	if err := bus.SendCommand(0x44); err != nil {
		return err
	}
	if err := bus.SendData(byte(x / 8)); err != nil {
		return err
	}
	if err := bus.SendData(byte((x+w)/8 - 1)); err != nil {
		return err
	}
	if err := bus.SendCommand(0x45); err != nil {
		return err
	}
	yEnd := y + h - 1
	for _, d := range []byte{byte(y & 0xFF), byte((y >> 8) & 0xFF), byte(yEnd & 0xFF), byte((yEnd >> 8) & 0xFF)} {
		if err := bus.SendData(d); err != nil {
			return err
		}
	}
	return nil
}

func setCursor(bus *spiproto.Bus, x, y int) error {
	if err := bus.SendCommand(0x4E); err != nil {
		return err
	}
	if err := bus.SendData(byte(x / 8)); err != nil {
		return err
	}
	if err := bus.SendCommand(0x4F); err != nil {
		return err
	}
	if err := bus.SendData(byte(y & 0xFF)); err != nil {
		return err
	}
	return bus.SendData(byte((y >> 8) & 0xFF))
}
