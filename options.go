// Copyright 2021 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package epd

// traceWriter is satisfied by *trace.Sink without epd importing package
// trace directly (trace is optional ambient tooling, not a dependency of
// the core data path).
type traceWriter interface {
	Write(cmd bool, b byte, bulk []byte)
}

// Option configures Open.
type Option func(*options)

type options struct {
	trace traceWriter
}

// WithTrace wires t as the device's SPI command/data trace sink (see
// package trace). Nil disables tracing, the default.
func WithTrace(t traceWriter) Option {
	return func(o *options) { o.trace = t }
}
