// Copyright 2021 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package harness runs a Device operation off the calling goroutine and
// gives the caller a handle to cancel it mid-flight (spec §4.J).
//
// The original extension ran every blocking SPI/busy-wait operation via
// rb_thread_call_without_gvl so other Ruby threads could keep running, and
// registered an "unblock function" (UBF) that the VM calls if the
// surrounding Ruby thread is killed or times out; the UBF's only job was to
// flip the device's cancel flag so the in-flight busy-wait loop would stop
// at its next poll. Go goroutines never hold a global lock, so there is
// nothing to release here — the off-thread part of this package exists so
// a caller on another goroutine can request cancellation while the
// operation runs, not to work around any lock.
package harness

import (
	"sync/atomic"

	"github.com/gowave/epd/framebuf"
	"github.com/gowave/epd/registry"
)

// Job is an in-flight cancelable operation.
type Job struct {
	done          chan error
	requestCancel func()
}

// Run starts fn on its own goroutine. fn is responsible for threading the
// cancel flag it reads (via h.Cancel()) into whatever busy-wait it performs;
// Run itself only wires up the plumbing to request that.
func Run(h registry.Hooks, fn func() error) *Job {
	j := &Job{
		done:          make(chan error, 1),
		requestCancel: func() { atomic.StoreInt32(h.Cancel(), 1) },
	}
	go func() {
		j.done <- fn()
	}()
	return j
}

// Cancel requests fn stop at its next cancellation checkpoint. Safe to call
// from any goroutine, any number of times, before or after the Job
// completes.
func (j *Job) Cancel() { j.requestCancel() }

// Wait blocks until fn returns and yields its error.
func (j *Job) Wait() error { return <-j.done }

// ClearBuffer allocates a full-frame scratch buffer through h.Alloc (spec's
// non-host-managed allocator requirement for the clear() path) and fills it
// with the byte framebuf.FillByte broadcasts color into. The caller hands
// the result to Context.Display and then lets it go out of scope; there is
// no explicit Free in Go, Alloc's counterpart is just letting the slice
// become unreachable.
func ClearBuffer(h registry.Hooks, color byte) ([]byte, error) {
	cfg := h.Config()
	wb := widthBytesFor(cfg.Width, cfg.PixelFormat)
	n := wb * cfg.Height

	buf, err := h.Alloc(n)
	if err != nil {
		return nil, err
	}

	fill := framebuf.FillByte(cfg.PixelFormat, color)
	for i := range buf {
		buf[i] = fill
	}
	return buf, nil
}

// widthBytesFor duplicates framebuf's unexported row-stride rule; Clear
// needs the stride before it has a framebuf.Buffer to ask (it is building
// the raw scratch slice Display wants, not a Buffer).
func widthBytesFor(width int, format framebuf.Format) int {
	switch format {
	case framebuf.Mono:
		return (width + 7) / 8
	case framebuf.Gray4:
		return (width + 3) / 4
	default:
		return (width + 1) / 2
	}
}
