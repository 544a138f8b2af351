// Copyright 2020 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package hal defines the hardware abstraction layer an epd.Device is built
// on: digital GPIO plus SPI byte transmission. The real Raspberry Pi backend
// lives in package halperiph; NewFake provides a mockable in-memory one for
// tests and for running without hardware attached.
package hal

// Level is a digital pin level.
type Level bool

const (
	Low  Level = false
	High Level = true
)

// Pins identifies the GPIO lines an e-paper HAT wires up. Values are
// HAL-defined pin identifiers (BCM GPIO numbers on a Raspberry Pi backend).
type Pins struct {
	RST  int
	DC   int
	CS   int
	BUSY int
	PWR  int
	MOSI int
	SCLK int
}

// Interface is the hardware collaborator injected into a Device. It is
// intentionally narrow: one digital write/read primitive and two SPI
// primitives, mirroring the vendor DEV_* HAL surface this framework is
// layered over.
type Interface interface {
	// DigitalWrite drives pin to level.
	DigitalWrite(pin int, level Level) error
	// DigitalRead reads the current level of pin.
	DigitalRead(pin int) (Level, error)
	// SPIWriteByte transmits a single byte over SPI.
	SPIWriteByte(b byte) error
	// SPIWriteN transmits buf verbatim over SPI; it must not modify buf.
	SPIWriteN(buf []byte) error
	// DelayMs blocks the calling goroutine for ms milliseconds.
	DelayMs(ms int)
	// ModuleInit brings up the underlying bus/pins. A non-nil error aborts
	// Device initialization with InitError.
	ModuleInit() error
	// ModuleExit tears down the underlying bus/pins.
	ModuleExit()
}
