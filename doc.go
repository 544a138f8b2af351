// Copyright 2020 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package epd drives electronic-paper display panels over an injected SPI +
// GPIO hardware abstraction layer.
//
// A consumer supplies a pixel buffer (see package framebuf) and a model
// name; Open resolves the model against the static registry (see package
// registry), and the returned Device streams the buffer to the controller,
// triggers the refresh, and manages sleep/wake.
//
// Displays, clears and regional refreshes run off the calling goroutine (see
// package harness) and are cancellable; a timed-out or cancelled job
// surfaces as a BusyTimeoutError.
package epd
