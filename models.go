// Copyright 2021 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package epd

import "github.com/gowave/epd/registry"

// ModelCount returns the number of models this build knows about (spec §6
// model_count).
func ModelCount() int { return registry.Count() }

// ModelNames returns every known model name, in registration order (spec §6
// model_names).
func ModelNames() []string { return registry.Names() }

// ModelAt returns the name of the model at ordinal index, and false if
// index is out of range (spec §6/§12 model_at).
func ModelAt(index int) (string, bool) {
	c := registry.At(index)
	if c == nil {
		return "", false
	}
	return c.Name, true
}

// HasDriver reports whether name has a Tier-2 override set registered,
// i.e. isn't driven purely by its generic Tier-1 data path (spec §6's
// "tier2" descriptor field).
func HasDriver(name string) bool { return registry.HasDriver(name) }

// ModelDimensions returns the pixel width/height of model name, and false
// if name is unknown.
func ModelDimensions(name string) (width, height int, ok bool) {
	c, err := registry.Config(name)
	if err != nil {
		return 0, 0, false
	}
	return c.Width, c.Height, true
}
