// Copyright 2020 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package hal

import "sync"

// Record is one emitted SPI transaction as observed by a Fake HAL: a single
// command or data byte (Data nil, Cmd telling which) or a bulk data write
// (Cmd false, Data set).
type Record struct {
	Cmd  bool
	Byte byte
	Data []byte
}

// Fake is an in-memory Interface implementation for tests. DigitalRead
// alternates 0/1 on every call (so a polarity-agnostic busy-wait loop always
// terminates in finite steps, matching the vendor mock HAL's behavior), and
// every SPI write is appended to Trace for assertions.
//
// Fake is not safe for concurrent use by multiple goroutines driving the
// same pin set, mirroring the vendor mock's documented single-threaded
// limitation; each Device under test should own its own Fake.
type Fake struct {
	mu sync.Mutex

	// Pins records the last level written to each pin, keyed by pin number.
	Pins map[int]Level

	// BusyPin is read by DigitalRead(BusyPin) to decide whether to alternate;
	// reads of any other pin return Low without toggling state.
	BusyPin int
	busyBit bool
	dcPin   int

	// Trace accumulates every SPIWriteByte/SPIWriteN call in order, so a
	// test can assert byte-exact command/data sequences the way the
	// teacher's fakeController does. DigitalWrite calls (dc/cs/rst pin
	// writes) are not recorded here; they only update Pins.
	Trace []Record

	// InitErr, when non-nil, is returned by ModuleInit.
	InitErr error

	moduleInitCalled bool
	moduleExitCalled bool
}

// NewFake returns a ready-to-use Fake HAL with busyPin as the BUSY line.
func NewFake(busyPin int) *Fake {
	return &Fake{
		Pins:    make(map[int]Level),
		BusyPin: busyPin,
	}
}

func (f *Fake) DigitalWrite(pin int, level Level) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Pins[pin] = level
	return nil
}

func (f *Fake) DigitalRead(pin int) (Level, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if pin != f.BusyPin {
		return Low, nil
	}
	f.busyBit = !f.busyBit
	return Level(f.busyBit), nil
}

func (f *Fake) SPIWriteByte(b byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	isCmd := f.Pins[f.dcPinLocked()] == Low
	f.Trace = append(f.Trace, Record{Cmd: isCmd, Byte: b})
	return nil
}

func (f *Fake) SPIWriteN(buf []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := make([]byte, len(buf))
	copy(cp, buf)
	f.Trace = append(f.Trace, Record{Cmd: false, Data: cp})
	return nil
}

func (f *Fake) DelayMs(ms int) {}

func (f *Fake) ModuleInit() error {
	f.moduleInitCalled = true
	return f.InitErr
}

func (f *Fake) ModuleExit() {
	f.moduleExitCalled = true
}

// dcPinLocked returns the pin configured via SetDCPin. Caller holds f.mu.
func (f *Fake) dcPinLocked() int {
	return f.dcPin
}

// SetDCPin tells the Fake which pin number is the DC line, so SPIWriteByte
// can classify emitted bytes as command or data in Trace.
func (f *Fake) SetDCPin(pin int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.dcPin = pin
}
