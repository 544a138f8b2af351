// Copyright 2021 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package halperiph implements hal.Interface over periph.io, the real
// on-hardware backend for a Raspberry Pi (or any periph.io-supported board)
// driving an e-paper HAT's SPI and GPIO lines.
package halperiph

import (
	"fmt"
	"time"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/host/v3"

	"github.com/gowave/epd/hal"
)

// Periph is a hal.Interface backed by a real SPI port and a handful of GPIO
// lines, grounded on the teacher's waveshare213v2.go NewHat wiring pattern.
type Periph struct {
	pins  hal.Pins
	spiID string
	freq  physic.Frequency

	port spi.PortCloser
	conn spi.Conn

	pinByNum map[int]gpio.PinIO
}

// New returns a Periph HAL for the given GPIO pin set and SPI port name
// (e.g. "/dev/spidev0.0", or "" to let periph pick the first port).
// ModuleInit must be called before use.
func New(pins hal.Pins, spiID string, freqHz int64) *Periph {
	f := physic.Frequency(freqHz) * physic.Hertz
	if freqHz == 0 {
		f = 4 * physic.MegaHertz
	}
	return &Periph{
		pins:     pins,
		spiID:    spiID,
		freq:     f,
		pinByNum: map[int]gpio.PinIO{},
	}
}

// ModuleInit implements hal.Interface: it brings up periph.io's host
// drivers, opens the SPI port and resolves the RST, DC, CS, BUSY and PWR
// pins given to New by their BCM GPIO numbers. Pins numbered 0, and the
// MOSI/SCLK entries, are not resolved.
func (p *Periph) ModuleInit() error {
	pins := p.pins
	if _, err := host.Init(); err != nil {
		return fmt.Errorf("halperiph: host.Init: %w", err)
	}

	port, err := spireg.Open(p.spiID)
	if err != nil {
		return fmt.Errorf("halperiph: spireg.Open(%q): %w", p.spiID, err)
	}
	p.port = port

	conn, err := port.Connect(p.freq, spi.Mode0, 8)
	if err != nil {
		port.Close()
		return fmt.Errorf("halperiph: Connect: %w", err)
	}
	p.conn = conn

	for _, n := range []int{pins.RST, pins.DC, pins.CS, pins.BUSY, pins.PWR} {
		if n == 0 {
			continue
		}
		if err := p.resolvePin(n); err != nil {
			return err
		}
	}

	if rst := p.pinByNum[pins.RST]; rst != nil {
		if err := rst.Out(gpio.High); err != nil {
			return fmt.Errorf("halperiph: RST Out: %w", err)
		}
	}
	if dc := p.pinByNum[pins.DC]; dc != nil {
		if err := dc.Out(gpio.Low); err != nil {
			return fmt.Errorf("halperiph: DC Out: %w", err)
		}
	}
	if busy := p.pinByNum[pins.BUSY]; busy != nil {
		if err := busy.In(gpio.PullNoChange, gpio.NoEdge); err != nil {
			return fmt.Errorf("halperiph: BUSY In: %w", err)
		}
	}
	return nil
}

func (p *Periph) resolvePin(n int) error {
	pin := gpioreg.ByName(fmt.Sprintf("GPIO%d", n))
	if pin == nil {
		return fmt.Errorf("halperiph: no such GPIO pin %d", n)
	}
	p.pinByNum[n] = pin
	return nil
}

// ModuleExit releases the SPI port. GPIO pins are left as periph.io leaves
// them; there is no hardware-level "release" for a gpio.PinIO.
func (p *Periph) ModuleExit() {
	if p.port != nil {
		p.port.Close()
	}
}

// DigitalWrite implements hal.Interface.
func (p *Periph) DigitalWrite(pinNum int, level hal.Level) error {
	pin, ok := p.pinByNum[pinNum]
	if !ok {
		return fmt.Errorf("halperiph: pin %d not resolved", pinNum)
	}
	l := gpio.Low
	if level == hal.High {
		l = gpio.High
	}
	return pin.Out(l)
}

// DigitalRead implements hal.Interface.
func (p *Periph) DigitalRead(pinNum int) (hal.Level, error) {
	pin, ok := p.pinByNum[pinNum]
	if !ok {
		return hal.Low, fmt.Errorf("halperiph: pin %d not resolved", pinNum)
	}
	return hal.Level(pin.Read() == gpio.High), nil
}

// SPIWriteByte implements hal.Interface.
func (p *Periph) SPIWriteByte(b byte) error {
	return p.conn.Tx([]byte{b}, nil)
}

// SPIWriteN implements hal.Interface.
func (p *Periph) SPIWriteN(buf []byte) error {
	return p.conn.Tx(buf, nil)
}

// DelayMs implements hal.Interface.
func (p *Periph) DelayMs(ms int) {
	time.Sleep(time.Duration(ms) * time.Millisecond)
}
