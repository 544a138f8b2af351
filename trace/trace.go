// Copyright 2021 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package trace implements the optional colorized SPI activity sink a
// Device can be opened with (spec §10.2 logging): every command byte is
// printed against one color block, every data emission against another, so
// a developer watching a terminal during bring-up can see the command/data
// framing at a glance the way the teacher's screen1d package colorizes
// pixel output through the same ansi256 palette.
package trace

import (
	"fmt"
	"image/color"
	"io"

	"github.com/maruel/ansi256"
	"github.com/mattn/go-colorable"
)

var (
	cmdColor  = color.NRGBA{R: 255, G: 140, A: 255}
	dataColor = color.NRGBA{B: 220, A: 255}
)

// Sink writes colorized command/data trace lines to W.
type Sink struct {
	W       io.Writer
	palette ansi256.Palette
}

// New returns a Sink writing to w using the default ansi256 palette.
func New(w io.Writer) *Sink {
	return &Sink{W: w, palette: ansi256.Default}
}

// NewStdout returns a Sink writing to a colorable-wrapped stdout, matching
// screen1d.New's default output target.
func NewStdout() *Sink {
	return New(colorable.NewColorableStdout())
}

// Write implements the spiproto.Bus.Trace callback signature: cmd selects
// which of the two colors, b is the single byte for a command/data
// emission, and bulk is set instead of b for a bulk data write.
func (s *Sink) Write(cmd bool, b byte, bulk []byte) {
	if bulk != nil {
		fmt.Fprintf(s.W, "%sDATA bulk % x (%d bytes)\033[0m\n", s.palette.Block(dataColor), truncate(bulk), len(bulk))
		return
	}
	if cmd {
		fmt.Fprintf(s.W, "%sCMD  %#02x\033[0m\n", s.palette.Block(cmdColor), b)
		return
	}
	fmt.Fprintf(s.W, "%sDATA %#02x\033[0m\n", s.palette.Block(dataColor), b)
}

func truncate(b []byte) []byte {
	const max = 16
	if len(b) > max {
		return b[:max]
	}
	return b
}
